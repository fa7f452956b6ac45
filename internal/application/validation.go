package application

import (
	"errors"
	"strings"

	"shopify-preorder-layer/internal/domain"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// validateInput runs struct tag validation and converts the first failure
// into a domain.ValidationError. messages maps "Field.tag" or "Field" to the
// text returned to callers.
func validateInput(input interface{}, messages map[string]string) error {
	err := validate.Struct(input)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return domain.NewValidationError("", err.Error())
	}
	fe := verrs[0]
	if msg, ok := messages[fe.Field()+"."+fe.Tag()]; ok {
		return domain.NewValidationError(fe.Field(), msg)
	}
	if msg, ok := messages[fe.Field()]; ok {
		return domain.NewValidationError(fe.Field(), msg)
	}
	return domain.NewValidationError(fe.Field(), fe.Field()+" is invalid ("+fe.Tag()+")")
}

func trimPtr(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}
