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

const snapshotCollectionName = "snapshots"

// mongoSnapshotRepository implements repository.SnapshotRepository
type mongoSnapshotRepository struct {
	collection *mongo.Collection
}

// NewMongoSnapshotRepository creates a new Snapshot repository.
func NewMongoSnapshotRepository(db *mongo.Database) repository.SnapshotRepository {
	return &mongoSnapshotRepository{
		collection: db.Collection(snapshotCollectionName),
	}
}

// GetByUserID retrieves the user's snapshot.
func (r *mongoSnapshotRepository) GetByUserID(ctx context.Context, userID primitive.ObjectID) (*domain.Snapshot, error) {
	var s domain.Snapshot
	err := r.collection.FindOne(ctx, bson.M{"userId": userID}).Decode(&s)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &s, nil
}

// Save replaces the user's snapshot wholesale, creating it if absent. The
// snapshot is a cache, so concurrent writers for the same user racing here
// is tolerated; the Reconciler corrects any drift.
func (r *mongoSnapshotRepository) Save(ctx context.Context, snapshot *domain.Snapshot) error {
	if snapshot.UserID == primitive.NilObjectID {
		return errors.New("snapshot requires userId")
	}
	snapshot.UpdatedAt = time.Now().UTC()
	// Replace by userId, not _id, so incremental and rebuild writers both
	// land on the same document.
	snapshot.ID = primitive.NilObjectID
	filter := bson.M{"userId": snapshot.UserID}
	_, err := r.collection.ReplaceOne(ctx, filter, snapshot, options.Replace().SetUpsert(true))
	return err
}

// Delete discards the snapshot. It is fully rebuildable, so this is safe
// at any time.
func (r *mongoSnapshotRepository) Delete(ctx context.Context, userID primitive.ObjectID) error {
	_, err := r.collection.DeleteOne(ctx, bson.M{"userId": userID})
	return err
}

// EnsureSnapshotIndexes creates necessary indexes. Call during startup.
func EnsureSnapshotIndexes(ctx context.Context, collection *mongo.Collection) {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "userId", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	}
	_, err := collection.Indexes().CreateMany(ctx, indexes)
	if err != nil {
		// log.Printf("WARN: Failed to create indexes for collection %s: %v", collection.Name(), err)
	}
}
