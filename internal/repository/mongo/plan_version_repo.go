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

const planVersionCollectionName = "plan_versions"

// mongoPlanVersionRepository implements repository.PlanVersionRepository
type mongoPlanVersionRepository struct {
	collection *mongo.Collection
}

// NewMongoPlanVersionRepository creates a new PlanVersion repository.
func NewMongoPlanVersionRepository(db *mongo.Database) repository.PlanVersionRepository {
	return &mongoPlanVersionRepository{
		collection: db.Collection(planVersionCollectionName),
	}
}

// Create inserts a new immutable plan version. The unique index on
// (userId, planType, version) makes a concurrent writer racing for the
// same number fail with ErrDuplicate so the caller can re-number and
// retry; an existing row is never overwritten.
func (r *mongoPlanVersionRepository) Create(ctx context.Context, v *domain.PlanVersion) (primitive.ObjectID, error) {
	if v.UserID == primitive.NilObjectID || v.PlanType == "" || v.Version < 1 {
		return primitive.NilObjectID, errors.New("plan version requires userId, planType, and version >= 1")
	}
	v.ID = primitive.NewObjectID()
	v.CreatedAt = time.Now().UTC()

	result, err := r.collection.InsertOne(ctx, v)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return primitive.NilObjectID, repository.ErrDuplicate
		}
		return primitive.NilObjectID, err
	}
	insertedID, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, errors.New("failed to convert inserted version ID")
	}
	return insertedID, nil
}

// GetByID retrieves a single version by its ID.
func (r *mongoPlanVersionRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.PlanVersion, error) {
	var v domain.PlanVersion
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&v)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &v, nil
}

// LatestVersion returns the highest version number in the chain, 0 when
// no version exists yet.
func (r *mongoPlanVersionRepository) LatestVersion(ctx context.Context, userID primitive.ObjectID, planType domain.PlanType) (int, error) {
	filter := bson.M{"userId": userID, "planType": planType}
	opts := options.FindOne().
		SetSort(bson.D{{Key: "version", Value: -1}}).
		SetProjection(bson.M{"version": 1})

	var v struct {
		Version int `bson:"version"`
	}
	err := r.collection.FindOne(ctx, filter, opts).Decode(&v)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return 0, nil
		}
		return 0, err
	}
	return v.Version, nil
}

// ListByUser returns versions of a chain, newest first.
func (r *mongoPlanVersionRepository) ListByUser(ctx context.Context, userID primitive.ObjectID, planType domain.PlanType, limit int) ([]domain.PlanVersion, error) {
	filter := bson.M{"userId": userID, "planType": planType}
	findOptions := options.Find().SetSort(bson.D{{Key: "version", Value: -1}})
	if limit > 0 {
		findOptions.SetLimit(int64(limit))
	}

	cursor, err := r.collection.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var versions []domain.PlanVersion
	if err = cursor.All(ctx, &versions); err != nil {
		return nil, err
	}
	return versions, nil
}

// EnsurePlanVersionIndexes creates necessary indexes. Call during startup.
// The unique compound index is load-bearing: it is what turns the
// read-max-then-increment race into a retryable duplicate-key error.
func EnsurePlanVersionIndexes(ctx context.Context, collection *mongo.Collection) {
	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "userId", Value: 1},
				{Key: "planType", Value: 1},
				{Key: "version", Value: 1},
			},
			Options: options.Index().SetUnique(true),
		},
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
