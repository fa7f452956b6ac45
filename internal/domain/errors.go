package domain

import (
	"errors"
	"fmt"
)

// Error kinds. Use errors.Is against these to classify a failure.
var (
	ErrValidation      = errors.New("validation failed")
	ErrUpgradeRequired = errors.New("upgrade required")
	ErrLimitExceeded   = errors.New("plan limit reached")
	ErrNotFound        = errors.New("not found")
	ErrExternal        = errors.New("external service failure")
	ErrBusy            = errors.New("operation already in progress")
	ErrUnauthenticated = errors.New("unauthenticated")
)

// ValidationError reports a missing or malformed field
type ValidationError struct {
	Field   string
	Message string
}

// NewValidationError creates a validation error for a field
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

func (e *ValidationError) Error() string {
	return e.Message
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// LimitExceededError reports a plan quota that would be exceeded
type LimitExceededError struct {
	Plan     Plan
	Resource string
	Limit    Limit
}

func (e *LimitExceededError) Error() string {
	switch e.Resource {
	case ResourcePreOrders:
		return fmt.Sprintf("Plan limit reached. Maximum %s pre-order product(s) allowed.", e.Limit)
	default:
		return fmt.Sprintf("Plan limit reached. Maximum %s %s allowed.", e.Limit, e.Resource)
	}
}

func (e *LimitExceededError) Unwrap() error {
	return ErrLimitExceeded
}

// ResourcePreOrders is the quota resource of pre-order settings
const ResourcePreOrders = "pre_orders"

// ExternalError wraps a failure of Shopify or another collaborator
type ExternalError struct {
	Op  string
	Err error
}

// NewExternalError wraps err as a collaborator failure of op
func NewExternalError(op string, err error) *ExternalError {
	return &ExternalError{Op: op, Err: err}
}

func (e *ExternalError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *ExternalError) Is(target error) bool {
	return target == ErrExternal
}

func (e *ExternalError) Unwrap() error {
	return e.Err
}
