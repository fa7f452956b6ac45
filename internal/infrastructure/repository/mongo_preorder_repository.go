package repository

import (
	"context"
	"fmt"
	"time"

	"shopify-preorder-layer/internal/domain"
	"shopify-preorder-layer/internal/infrastructure/repository/entity"
	"shopify-preorder-layer/internal/ports"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoPreOrderRepository implements PreOrderRepository using MongoDB
type MongoPreOrderRepository struct {
	collection *mongo.Collection
}

// NewMongoPreOrderRepository creates a new MongoDB pre-order repository
func NewMongoPreOrderRepository(db *mongo.Database) ports.PreOrderRepository {
	return &MongoPreOrderRepository{
		collection: db.Collection(preOrdersCollection),
	}
}

// ListByShop retrieves the settings of a shop, newest first
func (r *MongoPreOrderRepository) ListByShop(ctx context.Context, shopDomain string) ([]*domain.PreOrderSetting, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}})
	cursor, err := r.collection.Find(ctx, bson.M{"shopDomain": shopDomain}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list pre-orders: %w", err)
	}
	defer cursor.Close(ctx)

	settings := []*domain.PreOrderSetting{}
	for cursor.Next(ctx) {
		var doc entity.MongoPreOrderDoc
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("failed to decode pre-order: %w", err)
		}
		settings = append(settings, doc.ToDomain())
	}

	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("cursor error: %w", err)
	}

	return settings, nil
}

// GetByVariant retrieves the setting of a variant
func (r *MongoPreOrderRepository) GetByVariant(ctx context.Context, shopDomain, variantID string) (*domain.PreOrderSetting, error) {
	var doc entity.MongoPreOrderDoc
	filter := bson.M{"shopDomain": shopDomain, "variantId": variantID}

	err := r.collection.FindOne(ctx, filter).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get pre-order: %w", err)
	}
	return doc.ToDomain(), nil
}

// CountEnabledExcept counts enabled settings other than the given one
func (r *MongoPreOrderRepository) CountEnabledExcept(ctx context.Context, shopDomain, productID, variantID string) (int64, error) {
	filter := bson.M{
		"shopDomain": shopDomain,
		"enabled":    true,
		"$nor": bson.A{
			bson.M{"productId": productID, "variantId": variantID},
		},
	}
	count, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		return 0, fmt.Errorf("failed to count pre-orders: %w", err)
	}
	return count, nil
}

// Save upserts the setting on its natural key
func (r *MongoPreOrderRepository) Save(ctx context.Context, setting *domain.PreOrderSetting) (*domain.PreOrderSetting, error) {
	now := time.Now().UTC()
	createdAt := setting.CreatedAt
	if createdAt.IsZero() {
		createdAt = now
	}

	filter := bson.M{
		"shopDomain": setting.ShopDomain,
		"productId":  setting.ProductID,
		"variantId":  setting.VariantID,
	}
	update := bson.M{
		"$set": bson.M{
			"enabled":       setting.Enabled,
			"expectedDate":  setting.ExpectedDate,
			"limitQuantity": setting.LimitQuantity,
			"customText":    setting.CustomText,
			"updatedAt":     now,
		},
		"$setOnInsert": bson.M{"createdAt": createdAt},
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var doc entity.MongoPreOrderDoc
	if err := r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to save pre-order: %w", err)
	}
	return doc.ToDomain(), nil
}

// Delete removes a setting of the shop
func (r *MongoPreOrderRepository) Delete(ctx context.Context, shopDomain, id string) error {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("pre-order %s: %w", id, domain.ErrNotFound)
	}

	res, err := r.collection.DeleteOne(ctx, bson.M{"_id": objID, "shopDomain": shopDomain})
	if err != nil {
		return fmt.Errorf("failed to delete pre-order: %w", err)
	}
	if res.DeletedCount == 0 {
		return fmt.Errorf("pre-order %s: %w", id, domain.ErrNotFound)
	}
	return nil
}
