package service

import (
	"alcyxob/coach-engine/internal/domain"
	"alcyxob/coach-engine/internal/repository"
	"context"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	defaultChangeLimit = 20
	maxListLimit       = 100
)

// ReadService is the read-side surface: the denormalized snapshot, the
// audit history, and the raw version chains for diffing.
type ReadService interface {
	GetSnapshot(ctx context.Context, userID primitive.ObjectID) (*domain.Snapshot, error)
	GetChanges(ctx context.Context, userID primitive.ObjectID, limit int) ([]domain.ChangeEvent, error)
	GetPlanVersions(ctx context.Context, userID primitive.ObjectID, planType domain.PlanType, limit int) ([]domain.PlanVersion, error)
	// DeleteSnapshot discards the cache; the next event or reconciliation
	// pass regenerates it.
	DeleteSnapshot(ctx context.Context, userID primitive.ObjectID) error
}

// readService implements the ReadService interface.
type readService struct {
	snapshots repository.SnapshotRepository
	changes   repository.ChangeEventRepository
	versions  repository.PlanVersionRepository
}

// NewReadService creates a new instance of readService.
func NewReadService(
	snapshots repository.SnapshotRepository,
	changes repository.ChangeEventRepository,
	versions repository.PlanVersionRepository,
) ReadService {
	return &readService{
		snapshots: snapshots,
		changes:   changes,
		versions:  versions,
	}
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return defaultChangeLimit
	}
	if limit > maxListLimit {
		return maxListLimit
	}
	return limit
}

func (s *readService) GetSnapshot(ctx context.Context, userID primitive.ObjectID) (*domain.Snapshot, error) {
	return s.snapshots.GetByUserID(ctx, userID)
}

func (s *readService) GetChanges(ctx context.Context, userID primitive.ObjectID, limit int) ([]domain.ChangeEvent, error) {
	return s.changes.ListByUser(ctx, userID, clampLimit(limit))
}

func (s *readService) GetPlanVersions(ctx context.Context, userID primitive.ObjectID, planType domain.PlanType, limit int) ([]domain.PlanVersion, error) {
	switch planType {
	case domain.PlanTypeTraining, domain.PlanTypeNutrition, domain.PlanTypeGoal:
	default:
		return nil, validationError("unknown plan type %q", planType)
	}
	return s.versions.ListByUser(ctx, userID, planType, clampLimit(limit))
}

func (s *readService) DeleteSnapshot(ctx context.Context, userID primitive.ObjectID) error {
	return s.snapshots.Delete(ctx, userID)
}
