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

// MongoWaitlistRepository implements WaitlistRepository using MongoDB
type MongoWaitlistRepository struct {
	collection *mongo.Collection
}

// NewMongoWaitlistRepository creates a new MongoDB waitlist repository
func NewMongoWaitlistRepository(db *mongo.Database) ports.WaitlistRepository {
	return &MongoWaitlistRepository{
		collection: db.Collection(waitlistCollection),
	}
}

// FindUnnotified retrieves the pending entry for (shop, variant, email)
func (r *MongoWaitlistRepository) FindUnnotified(ctx context.Context, shopDomain, variantID, email string) (*domain.WaitlistEntry, error) {
	var doc entity.MongoWaitlistDoc
	filter := bson.M{
		"shopDomain": shopDomain,
		"variantId":  variantID,
		"email":      email,
		"notified":   false,
	}

	err := r.collection.FindOne(ctx, filter).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find waitlist entry: %w", err)
	}
	return doc.ToDomain(), nil
}

// Create inserts a new pending entry
func (r *MongoWaitlistRepository) Create(ctx context.Context, entry *domain.WaitlistEntry) error {
	entry.Notified = false
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	doc := entity.MongoWaitlistDocFromDomain(entry)
	if doc.ID.IsZero() {
		doc.ID = primitive.NewObjectID()
	}

	if _, err := r.collection.InsertOne(ctx, doc); err != nil {
		if IsDuplicateKeyErr(err) {
			return ports.ErrDuplicate
		}
		return fmt.Errorf("failed to create waitlist entry: %w", err)
	}

	entry.ID = doc.ID.Hex()
	return nil
}

// ListByShop retrieves every entry of the shop, newest first
func (r *MongoWaitlistRepository) ListByShop(ctx context.Context, shopDomain string) ([]*domain.WaitlistEntry, error) {
	return r.find(ctx, bson.M{"shopDomain": shopDomain})
}

// ListUnnotifiedByVariant retrieves the pending entries of a variant
func (r *MongoWaitlistRepository) ListUnnotifiedByVariant(ctx context.Context, shopDomain, variantID string) ([]*domain.WaitlistEntry, error) {
	return r.find(ctx, bson.M{"shopDomain": shopDomain, "variantId": variantID, "notified": false})
}

func (r *MongoWaitlistRepository) find(ctx context.Context, filter bson.M) ([]*domain.WaitlistEntry, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}})
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list waitlist entries: %w", err)
	}
	defer cursor.Close(ctx)

	entries := []*domain.WaitlistEntry{}
	for cursor.Next(ctx) {
		var doc entity.MongoWaitlistDoc
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("failed to decode waitlist entry: %w", err)
		}
		entries = append(entries, doc.ToDomain())
	}

	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("cursor error: %w", err)
	}
	return entries, nil
}

// CountUnnotified counts the pending entries of a shop
func (r *MongoWaitlistRepository) CountUnnotified(ctx context.Context, shopDomain string) (int64, error) {
	count, err := r.collection.CountDocuments(ctx, bson.M{"shopDomain": shopDomain, "notified": false})
	if err != nil {
		return 0, fmt.Errorf("failed to count waitlist entries: %w", err)
	}
	return count, nil
}

// MarkNotified flags the given pending entries of the shop
func (r *MongoWaitlistRepository) MarkNotified(ctx context.Context, shopDomain string, ids []string) (int64, error) {
	objIDs := make([]primitive.ObjectID, 0, len(ids))
	for _, id := range ids {
		if objID, err := primitive.ObjectIDFromHex(id); err == nil {
			objIDs = append(objIDs, objID)
		}
	}
	if len(objIDs) == 0 {
		return 0, nil
	}

	filter := bson.M{
		"_id":        bson.M{"$in": objIDs},
		"shopDomain": shopDomain,
		"notified":   false,
	}
	res, err := r.collection.UpdateMany(ctx, filter, bson.M{"$set": bson.M{"notified": true}})
	if err != nil {
		return 0, fmt.Errorf("failed to mark waitlist entries notified: %w", err)
	}
	return res.ModifiedCount, nil
}

// Delete removes an entry of the shop
func (r *MongoWaitlistRepository) Delete(ctx context.Context, shopDomain, id string) error {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("waitlist entry %s: %w", id, domain.ErrNotFound)
	}

	res, err := r.collection.DeleteOne(ctx, bson.M{"_id": objID, "shopDomain": shopDomain})
	if err != nil {
		return fmt.Errorf("failed to delete waitlist entry: %w", err)
	}
	if res.DeletedCount == 0 {
		return fmt.Errorf("waitlist entry %s: %w", id, domain.ErrNotFound)
	}
	return nil
}
