package mongo

import (
	"alcyxob/coach-engine/internal/domain"
	"alcyxob/coach-engine/internal/repository"
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const weightEntryCollectionName = "weight_entries"

// mongoWeightEntryRepository implements repository.WeightEntryRepository
type mongoWeightEntryRepository struct {
	collection *mongo.Collection
}

// NewMongoWeightEntryRepository creates a new WeightEntry repository.
func NewMongoWeightEntryRepository(db *mongo.Database) repository.WeightEntryRepository {
	return &mongoWeightEntryRepository{
		collection: db.Collection(weightEntryCollectionName),
	}
}

// Upsert writes the measurement for (userId, date), last write wins.
func (r *mongoWeightEntryRepository) Upsert(ctx context.Context, entry *domain.WeightEntry) error {
	if entry.UserID == primitive.NilObjectID || entry.Date == "" {
		return errors.New("weight entry requires userId and date")
	}
	now := time.Now().UTC()
	filter := bson.M{"userId": entry.UserID, "date": entry.Date}
	update := bson.M{
		"$set":         bson.M{"kg": entry.Kg, "updatedAt": now},
		"$setOnInsert": bson.M{"userId": entry.UserID, "date": entry.Date, "createdAt": now},
	}
	_, err := r.collection.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	return err
}

// Delete removes the entry for the date. Deleting an absent date is a
// no-op, not an error.
func (r *mongoWeightEntryRepository) Delete(ctx context.Context, userID primitive.ObjectID, date string) error {
	_, err := r.collection.DeleteOne(ctx, bson.M{"userId": userID, "date": date})
	return err
}

// ListByUser returns all entries sorted ascending by date.
func (r *mongoWeightEntryRepository) ListByUser(ctx context.Context, userID primitive.ObjectID) ([]domain.WeightEntry, error) {
	findOptions := options.Find().SetSort(bson.D{{Key: "date", Value: 1}})
	cursor, err := r.collection.Find(ctx, bson.M{"userId": userID}, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var entries []domain.WeightEntry
	if err = cursor.All(ctx, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// EnsureWeightEntryIndexes creates necessary indexes. Call during startup.
func EnsureWeightEntryIndexes(ctx context.Context, collection *mongo.Collection) {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "userId", Value: 1}, {Key: "date", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	}
	_, err := collection.Indexes().CreateMany(ctx, indexes)
	if err != nil {
		// log.Printf("WARN: Failed to create indexes for collection %s: %v", collection.Name(), err)
	}
}
