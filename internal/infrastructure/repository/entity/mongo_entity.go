package entity

import (
	"fmt"
	"time"

	"shopify-preorder-layer/internal/domain"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MongoSubscriptionDoc represents a subscription in MongoDB
type MongoSubscriptionDoc struct {
	ShopDomain string    `bson:"_id"`
	Plan       string    `bson:"plan"`
	Status     string    `bson:"status"`
	CreatedAt  time.Time `bson:"createdAt"`
	UpdatedAt  time.Time `bson:"updatedAt"`
}

// ToDomain converts the MongoDB document to a domain entity
func (d *MongoSubscriptionDoc) ToDomain() (*domain.Subscription, error) {
	plan, err := domain.ParsePlan(d.Plan)
	if err != nil {
		return nil, fmt.Errorf("subscription of %s has unknown plan %q", d.ShopDomain, d.Plan)
	}
	return &domain.Subscription{
		ShopDomain: d.ShopDomain,
		Plan:       plan,
		Status:     domain.SubscriptionStatus(d.Status),
		CreatedAt:  d.CreatedAt,
		UpdatedAt:  d.UpdatedAt,
	}, nil
}

// MongoPreOrderDoc represents a pre-order setting in MongoDB
type MongoPreOrderDoc struct {
	ID            primitive.ObjectID `bson:"_id,omitempty"`
	ShopDomain    string             `bson:"shopDomain"`
	ProductID     string             `bson:"productId"`
	VariantID     string             `bson:"variantId"`
	Enabled       bool               `bson:"enabled"`
	ExpectedDate  *time.Time         `bson:"expectedDate,omitempty"`
	LimitQuantity *int               `bson:"limitQuantity,omitempty"`
	CustomText    *string            `bson:"customText,omitempty"`
	CreatedAt     time.Time          `bson:"createdAt"`
	UpdatedAt     time.Time          `bson:"updatedAt"`
}

// ToDomain converts the MongoDB document to a domain entity
func (d *MongoPreOrderDoc) ToDomain() *domain.PreOrderSetting {
	return &domain.PreOrderSetting{
		ID:            d.ID.Hex(),
		ShopDomain:    d.ShopDomain,
		ProductID:     d.ProductID,
		VariantID:     d.VariantID,
		Enabled:       d.Enabled,
		ExpectedDate:  d.ExpectedDate,
		LimitQuantity: d.LimitQuantity,
		CustomText:    d.CustomText,
		CreatedAt:     d.CreatedAt,
		UpdatedAt:     d.UpdatedAt,
	}
}

// MongoWaitlistDoc represents a waitlist entry in MongoDB
type MongoWaitlistDoc struct {
	ID         primitive.ObjectID `bson:"_id,omitempty"`
	ShopDomain string             `bson:"shopDomain"`
	ProductID  string             `bson:"productId"`
	VariantID  string             `bson:"variantId"`
	Email      string             `bson:"email"`
	Notified   bool               `bson:"notified"`
	CreatedAt  time.Time          `bson:"createdAt"`
}

// ToDomain converts the MongoDB document to a domain entity
func (d *MongoWaitlistDoc) ToDomain() *domain.WaitlistEntry {
	return &domain.WaitlistEntry{
		ID:         d.ID.Hex(),
		ShopDomain: d.ShopDomain,
		ProductID:  d.ProductID,
		VariantID:  d.VariantID,
		Email:      d.Email,
		Notified:   d.Notified,
		CreatedAt:  d.CreatedAt,
	}
}

// MongoWaitlistDocFromDomain converts a domain entity to a MongoDB document
func MongoWaitlistDocFromDomain(e *domain.WaitlistEntry) *MongoWaitlistDoc {
	doc := &MongoWaitlistDoc{
		ShopDomain: e.ShopDomain,
		ProductID:  e.ProductID,
		VariantID:  e.VariantID,
		Email:      e.Email,
		Notified:   e.Notified,
		CreatedAt:  e.CreatedAt,
	}
	if e.ID != "" {
		if objID, err := primitive.ObjectIDFromHex(e.ID); err == nil {
			doc.ID = objID
		}
	}
	return doc
}

// MongoShopDoc represents an installed shop in MongoDB
type MongoShopDoc struct {
	ID             primitive.ObjectID `bson:"_id,omitempty"`
	Domain         string             `bson:"domain"`
	AccessToken    string             `bson:"accessToken"`
	Scopes         []string           `bson:"scopes"`
	IntegrationKey string             `bson:"integrationKey"`
	InstalledAt    time.Time          `bson:"installedAt"`
	UninstalledAt  *time.Time         `bson:"uninstalledAt"`
	UpdatedAt      time.Time          `bson:"updatedAt"`
}

// ToDomain converts the MongoDB document to a domain entity
func (d *MongoShopDoc) ToDomain() *domain.Shop {
	return &domain.Shop{
		ID:             d.ID.Hex(),
		Domain:         d.Domain,
		AccessToken:    d.AccessToken,
		Scopes:         d.Scopes,
		IntegrationKey: d.IntegrationKey,
		InstalledAt:    d.InstalledAt,
		UninstalledAt:  d.UninstalledAt,
		UpdatedAt:      d.UpdatedAt,
	}
}

// MongoShopDocFromDomain converts a domain entity to a MongoDB document.
// The id is left for the database to assign.
func MongoShopDocFromDomain(s *domain.Shop) *MongoShopDoc {
	return &MongoShopDoc{
		Domain:         s.Domain,
		AccessToken:    s.AccessToken,
		Scopes:         s.Scopes,
		IntegrationKey: s.IntegrationKey,
		InstalledAt:    s.InstalledAt,
		UninstalledAt:  s.UninstalledAt,
		UpdatedAt:      s.UpdatedAt,
	}
}
