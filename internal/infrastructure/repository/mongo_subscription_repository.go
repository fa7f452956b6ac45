package repository

import (
	"context"
	"fmt"
	"time"

	"shopify-preorder-layer/internal/domain"
	"shopify-preorder-layer/internal/infrastructure/repository/entity"
	"shopify-preorder-layer/internal/ports"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoSubscriptionRepository implements SubscriptionRepository using MongoDB.
// Documents are keyed by shop domain.
type MongoSubscriptionRepository struct {
	collection *mongo.Collection
}

// NewMongoSubscriptionRepository creates a new MongoDB subscription repository
func NewMongoSubscriptionRepository(db *mongo.Database) ports.SubscriptionRepository {
	return &MongoSubscriptionRepository{
		collection: db.Collection(subscriptionsCollection),
	}
}

// GetByShop retrieves the subscription of a shop
func (r *MongoSubscriptionRepository) GetByShop(ctx context.Context, shopDomain string) (*domain.Subscription, error) {
	var doc entity.MongoSubscriptionDoc
	err := r.collection.FindOne(ctx, bson.M{"_id": shopDomain}).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get subscription: %w", err)
	}
	sub, err := doc.ToDomain()
	if err != nil {
		return nil, fmt.Errorf("failed to decode subscription: %w", err)
	}
	return sub, nil
}

// Upsert saves or updates the subscription of a shop
func (r *MongoSubscriptionRepository) Upsert(ctx context.Context, sub *domain.Subscription) error {
	now := time.Now().UTC()
	createdAt := sub.CreatedAt
	if createdAt.IsZero() {
		createdAt = now
	}

	opts := options.Update().SetUpsert(true)
	filter := bson.M{"_id": sub.ShopDomain}
	update := bson.M{
		"$set": bson.M{
			"plan":      string(sub.Plan),
			"status":    string(sub.Status),
			"updatedAt": now,
		},
		"$setOnInsert": bson.M{"createdAt": createdAt},
	}

	if _, err := r.collection.UpdateOne(ctx, filter, update, opts); err != nil {
		return fmt.Errorf("failed to upsert subscription: %w", err)
	}
	return nil
}
