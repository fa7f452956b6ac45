package repository

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Mongo collection names
const (
	subscriptionsCollection = "subscriptions"
	preOrdersCollection     = "preorder_settings"
	waitlistCollection      = "waitlist_entries"
	shopsCollection         = "shops"
)

// EnsureMongoIndexes creates the unique and lookup indexes the repositories rely on
func EnsureMongoIndexes(ctx context.Context, db *mongo.Database) error {
	indexes := map[string][]mongo.IndexModel{
		preOrdersCollection: {
			{
				Keys:    bson.D{{Key: "shopDomain", Value: 1}, {Key: "productId", Value: 1}, {Key: "variantId", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
			{Keys: bson.D{{Key: "shopDomain", Value: 1}, {Key: "createdAt", Value: -1}}},
		},
		waitlistCollection: {
			{
				Keys: bson.D{{Key: "shopDomain", Value: 1}, {Key: "variantId", Value: 1}, {Key: "email", Value: 1}},
				Options: options.Index().
					SetUnique(true).
					SetName("pending_signup").
					SetPartialFilterExpression(bson.M{"notified": false}),
			},
			{Keys: bson.D{{Key: "shopDomain", Value: 1}, {Key: "createdAt", Value: -1}}},
		},
		shopsCollection: {
			{Keys: bson.D{{Key: "domain", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "integrationKey", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
	}

	for coll, models := range indexes {
		if _, err := db.Collection(coll).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("failed to create indexes on %s: %w", coll, err)
		}
	}
	return nil
}
