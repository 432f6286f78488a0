package mongo

import (
	"alcyxob/coach-engine/internal/domain"
	"alcyxob/coach-engine/internal/repository"
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const pointerCollectionName = "pointers"

// mongoPointerRepository implements repository.PointerRepository
type mongoPointerRepository struct {
	collection *mongo.Collection
}

// NewMongoPointerRepository creates a new Pointer repository.
func NewMongoPointerRepository(db *mongo.Database) repository.PointerRepository {
	return &mongoPointerRepository{
		collection: db.Collection(pointerCollectionName),
	}
}

// GetByUserID retrieves the registry record for a user.
func (r *mongoPointerRepository) GetByUserID(ctx context.Context, userID primitive.ObjectID) (*domain.Pointer, error) {
	var p domain.Pointer
	err := r.collection.FindOne(ctx, bson.M{"userId": userID}).Decode(&p)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

func versionRefField(planType domain.PlanType) (string, error) {
	switch planType {
	case domain.PlanTypeTraining:
		return "trainingVersionId", nil
	case domain.PlanTypeNutrition:
		return "nutritionVersionId", nil
	case domain.PlanTypeGoal:
		return "goalVersionId", nil
	}
	return "", fmt.Errorf("unknown plan type %q", planType)
}

// SetCurrentVersion advances the slot for the plan type to the given
// version id, creating the registry record on first use.
func (r *mongoPointerRepository) SetCurrentVersion(ctx context.Context, userID primitive.ObjectID, planType domain.PlanType, versionID primitive.ObjectID) error {
	field, err := versionRefField(planType)
	if err != nil {
		return err
	}
	update := bson.M{
		"$set":         bson.M{field: versionID},
		"$setOnInsert": bson.M{"userId": userID, "lastEventAt": time.Now().UTC()},
	}
	_, err = r.collection.UpdateOne(ctx, bson.M{"userId": userID}, update, options.Update().SetUpsert(true))
	return err
}

// TouchLastEvent records domain-event activity for the user. This is the
// sole dirty marker the Reconciler selects on.
func (r *mongoPointerRepository) TouchLastEvent(ctx context.Context, userID primitive.ObjectID, at time.Time) error {
	update := bson.M{
		"$set":         bson.M{"lastEventAt": at.UTC()},
		"$setOnInsert": bson.M{"userId": userID},
	}
	_, err := r.collection.UpdateOne(ctx, bson.M{"userId": userID}, update, options.Update().SetUpsert(true))
	return err
}

// SetSnapshotUpdatedAt records a completed full rebuild.
func (r *mongoPointerRepository) SetSnapshotUpdatedAt(ctx context.Context, userID primitive.ObjectID, at time.Time) error {
	update := bson.M{
		"$set":         bson.M{"snapshotUpdatedAt": at.UTC()},
		"$setOnInsert": bson.M{"userId": userID, "lastEventAt": at.UTC()},
	}
	_, err := r.collection.UpdateOne(ctx, bson.M{"userId": userID}, update, options.Update().SetUpsert(true))
	return err
}

// FindActiveSince returns every registry record with lastEventAt at or
// after the given instant.
func (r *mongoPointerRepository) FindActiveSince(ctx context.Context, since time.Time) ([]domain.Pointer, error) {
	filter := bson.M{"lastEventAt": bson.M{"$gte": since.UTC()}}
	cursor, err := r.collection.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var pointers []domain.Pointer
	if err = cursor.All(ctx, &pointers); err != nil {
		return nil, err
	}
	return pointers, nil
}

// EnsurePointerIndexes creates necessary indexes. Call during startup.
func EnsurePointerIndexes(ctx context.Context, collection *mongo.Collection) {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "userId", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			// Supports the Reconciler's dirty-user window scan.
			Keys:    bson.D{{Key: "lastEventAt", Value: -1}},
			Options: options.Index(),
		},
	}
	_, err := collection.Indexes().CreateMany(ctx, indexes)
	if err != nil {
		// log.Printf("WARN: Failed to create indexes for collection %s: %v", collection.Name(), err)
	}
}
