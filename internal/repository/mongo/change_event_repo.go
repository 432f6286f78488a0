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

const changeEventCollectionName = "change_events"

// mongoChangeEventRepository implements repository.ChangeEventRepository
type mongoChangeEventRepository struct {
	collection *mongo.Collection
}

// NewMongoChangeEventRepository creates a new ChangeEvent repository.
func NewMongoChangeEventRepository(db *mongo.Database) repository.ChangeEventRepository {
	return &mongoChangeEventRepository{
		collection: db.Collection(changeEventCollectionName),
	}
}

// Append inserts one audit entry. Entries are never updated or deleted.
func (r *mongoChangeEventRepository) Append(ctx context.Context, event *domain.ChangeEvent) (primitive.ObjectID, error) {
	if event.UserID == primitive.NilObjectID || event.Type == "" {
		return primitive.NilObjectID, errors.New("change event requires userId and type")
	}
	event.ID = primitive.NewObjectID()
	event.CreatedAt = time.Now().UTC()

	result, err := r.collection.InsertOne(ctx, event)
	if err != nil {
		return primitive.NilObjectID, err
	}
	insertedID, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, errors.New("failed to convert inserted event ID")
	}
	return insertedID, nil
}

// ListByUser returns the user's history, most recent first.
func (r *mongoChangeEventRepository) ListByUser(ctx context.Context, userID primitive.ObjectID, limit int) ([]domain.ChangeEvent, error) {
	filter := bson.M{"userId": userID}
	findOptions := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	if limit > 0 {
		findOptions.SetLimit(int64(limit))
	}

	cursor, err := r.collection.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var events []domain.ChangeEvent
	if err = cursor.All(ctx, &events); err != nil {
		return nil, err
	}
	return events, nil
}

// EnsureChangeEventIndexes creates necessary indexes. Call during startup.
func EnsureChangeEventIndexes(ctx context.Context, collection *mongo.Collection) {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "userId", Value: 1}, {Key: "createdAt", Value: -1}},
			Options: options.Index(),
		},
	}
	_, err := collection.Indexes().CreateMany(ctx, indexes)
	if err != nil {
		// log.Printf("WARN: Failed to create indexes for collection %s: %v", collection.Name(), err)
	}
}
