package repository

import (
	"alcyxob/coach-engine/internal/domain"
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Error constants for the repository layer.
var (
	ErrNotFound  = RepositoryError("not found")
	ErrDuplicate = RepositoryError("duplicate key")
)

// RepositoryError helps distinguish repository errors.
type RepositoryError string

func (e RepositoryError) Error() string {
	return string(e)
}

// PlanVersionRepository is the append-only store of immutable plan
// versions. Create must return ErrDuplicate when another writer already
// claimed the same (userId, planType, version) triple — collisions are
// never resolved by overwrite.
type PlanVersionRepository interface {
	Create(ctx context.Context, v *domain.PlanVersion) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.PlanVersion, error)
	// LatestVersion returns the highest version number in the chain, 0 when
	// the chain is empty.
	LatestVersion(ctx context.Context, userID primitive.ObjectID, planType domain.PlanType) (int, error)
	ListByUser(ctx context.Context, userID primitive.ObjectID, planType domain.PlanType, limit int) ([]domain.PlanVersion, error)
}

// PointerRepository manages the per-user registry record. All mutating
// methods upsert, so the first plan action for a user creates their record.
type PointerRepository interface {
	GetByUserID(ctx context.Context, userID primitive.ObjectID) (*domain.Pointer, error)
	SetCurrentVersion(ctx context.Context, userID primitive.ObjectID, planType domain.PlanType, versionID primitive.ObjectID) error
	TouchLastEvent(ctx context.Context, userID primitive.ObjectID, at time.Time) error
	SetSnapshotUpdatedAt(ctx context.Context, userID primitive.ObjectID, at time.Time) error
	// FindActiveSince selects the dirty set for the Reconciler: every
	// pointer whose lastEventAt is at or after the given instant.
	FindActiveSince(ctx context.Context, since time.Time) ([]domain.Pointer, error)
}

// SnapshotRepository stores the disposable per-user read cache.
type SnapshotRepository interface {
	GetByUserID(ctx context.Context, userID primitive.ObjectID) (*domain.Snapshot, error)
	// Save replaces the user's snapshot wholesale, creating it if absent.
	Save(ctx context.Context, snapshot *domain.Snapshot) error
	Delete(ctx context.Context, userID primitive.ObjectID) error
}

// ChangeEventRepository is the append-only audit log.
type ChangeEventRepository interface {
	Append(ctx context.Context, event *domain.ChangeEvent) (primitive.ObjectID, error)
	// ListByUser returns the most recent entries first.
	ListByUser(ctx context.Context, userID primitive.ObjectID, limit int) ([]domain.ChangeEvent, error)
}

// WeightEntryRepository stores weight measurements keyed by (userId, date),
// last write wins on that key.
type WeightEntryRepository interface {
	Upsert(ctx context.Context, entry *domain.WeightEntry) error
	// Delete removes the entry for the date; deleting an absent date is
	// not an error.
	Delete(ctx context.Context, userID primitive.ObjectID, date string) error
	// ListByUser returns all entries sorted ascending by date.
	ListByUser(ctx context.Context, userID primitive.ObjectID) ([]domain.WeightEntry, error)
}

// WorkoutLogRepository stores workout logs keyed by (userId, date).
type WorkoutLogRepository interface {
	Upsert(ctx context.Context, entry *domain.WorkoutLog) error
	// ListSince returns logs with date >= since ("YYYY-MM-DD"), ascending.
	ListSince(ctx context.Context, userID primitive.ObjectID, since string) ([]domain.WorkoutLog, error)
	ListByUser(ctx context.Context, userID primitive.ObjectID) ([]domain.WorkoutLog, error)
}
