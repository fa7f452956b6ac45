package repository

import (
	"context"
	"fmt"

	"shopify-preorder-layer/internal/domain"
	"shopify-preorder-layer/internal/infrastructure/repository/entity"
	"shopify-preorder-layer/internal/ports"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoShopRepository implements ShopRepository using MongoDB
type MongoShopRepository struct {
	collection *mongo.Collection
}

// NewMongoShopRepository creates a new MongoDB shop repository
func NewMongoShopRepository(db *mongo.Database) ports.ShopRepository {
	return &MongoShopRepository{
		collection: db.Collection(shopsCollection),
	}
}

// Save saves or updates a shop by domain. An existing integration key is kept.
func (r *MongoShopRepository) Save(ctx context.Context, shop *domain.Shop) error {
	doc := entity.MongoShopDocFromDomain(shop)

	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)
	filter := bson.M{"domain": shop.Domain}
	update := bson.M{
		"$set": bson.M{
			"accessToken":   doc.AccessToken,
			"scopes":        doc.Scopes,
			"uninstalledAt": doc.UninstalledAt,
			"updatedAt":     doc.UpdatedAt,
		},
		"$setOnInsert": bson.M{
			"integrationKey": doc.IntegrationKey,
			"installedAt":    doc.InstalledAt,
		},
	}

	var stored entity.MongoShopDoc
	if err := r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&stored); err != nil {
		return fmt.Errorf("failed to save shop: %w", err)
	}

	shop.ID = stored.ID.Hex()
	shop.IntegrationKey = stored.IntegrationKey
	return nil
}

// GetByDomain retrieves a shop by domain
func (r *MongoShopRepository) GetByDomain(ctx context.Context, shopDomain string) (*domain.Shop, error) {
	return r.findOne(ctx, bson.M{"domain": shopDomain})
}

// GetByIntegrationKey retrieves the shop an integration key was issued to
func (r *MongoShopRepository) GetByIntegrationKey(ctx context.Context, key string) (*domain.Shop, error) {
	return r.findOne(ctx, bson.M{"integrationKey": key})
}

func (r *MongoShopRepository) findOne(ctx context.Context, filter bson.M) (*domain.Shop, error) {
	var doc entity.MongoShopDoc
	err := r.collection.FindOne(ctx, filter).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get shop: %w", err)
	}
	return doc.ToDomain(), nil
}
