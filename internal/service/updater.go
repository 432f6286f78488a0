package service

import (
	"alcyxob/coach-engine/internal/domain"
	"alcyxob/coach-engine/internal/repository"
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Updater applies minimal, idempotent snapshot mutations, one method per
// event type. Every method tolerates a missing snapshot, pointer record,
// or plan version by treating the contribution as empty; incremental
// updates are allowed to be approximate under races, the Reconciler makes
// them exact.
type Updater struct {
	snapshots repository.SnapshotRepository
	pointers  repository.PointerRepository
	versions  repository.PlanVersionRepository
	workouts  repository.WorkoutLogRepository
	now       func() time.Time
}

// NewUpdater creates an Updater.
func NewUpdater(
	snapshots repository.SnapshotRepository,
	pointers repository.PointerRepository,
	versions repository.PlanVersionRepository,
	workouts repository.WorkoutLogRepository,
) *Updater {
	return &Updater{
		snapshots: snapshots,
		pointers:  pointers,
		versions:  versions,
		workouts:  workouts,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// loadOrNew fetches the user's snapshot, lazily creating an empty one on
// first event.
func (u *Updater) loadOrNew(ctx context.Context, userID primitive.ObjectID) (*domain.Snapshot, error) {
	snap, err := u.snapshots.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return domain.NewSnapshot(userID), nil
		}
		return nil, err
	}
	return snap, nil
}

// OnWeightLogged upserts (date, kg) into the weight series, last write for
// a date wins. Replaying the same pair is a no-op change, and a backfilled
// past date lands in order because the series is keyed by date.
func (u *Updater) OnWeightLogged(ctx context.Context, userID primitive.ObjectID, date string, kg float64) error {
	snap, err := u.loadOrNew(ctx, userID)
	if err != nil {
		return err
	}
	snap.WeightSeries = mergeWeightPoint(snap.WeightSeries, date, kg)
	bumpCheckIn(&snap.KPIs, date)
	return u.snapshots.Save(ctx, snap)
}

// OnWeightDeleted removes the series entry at date if present; no-op
// otherwise.
func (u *Updater) OnWeightDeleted(ctx context.Context, userID primitive.ObjectID, date string) error {
	snap, err := u.snapshots.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil // nothing to remove
		}
		return err
	}
	snap.WeightSeries = removeWeightPoint(snap.WeightSeries, date)
	return u.snapshots.Save(ctx, snap)
}

// OnPlanUpdated recomputes daysPerWeek and nextWorkout from the
// currently-pointed training version.
func (u *Updater) OnPlanUpdated(ctx context.Context, userID primitive.ObjectID) error {
	snap, err := u.loadOrNew(ctx, userID)
	if err != nil {
		return err
	}
	version, err := resolveCurrentVersion(ctx, u.pointers, u.versions, userID, domain.PlanTypeTraining)
	if err != nil {
		return err
	}
	var training *domain.TrainingPlanPayload
	if version != nil {
		training = version.Training
	}
	snap.Training.DaysPerWeek = training.ActiveDayCount()
	snap.KPIs.NextWorkout = nextWorkoutLabel(training, u.now())
	return u.snapshots.Save(ctx, snap)
}

// OnNutritionUpdated recomputes the nutrition summary from the
// currently-pointed nutrition version.
func (u *Updater) OnNutritionUpdated(ctx context.Context, userID primitive.ObjectID) error {
	snap, err := u.loadOrNew(ctx, userID)
	if err != nil {
		return err
	}
	version, err := resolveCurrentVersion(ctx, u.pointers, u.versions, userID, domain.PlanTypeNutrition)
	if err != nil {
		return err
	}
	var nutrition *domain.NutritionPlanPayload
	if version != nil {
		nutrition = version.Nutrition
	}
	snap.Nutrition = nutritionSummaryOf(nutrition)
	return u.snapshots.Save(ctx, snap)
}

// OnWorkoutLogged recomputes the trailing 7-day adherence and advances the
// check-in KPI.
func (u *Updater) OnWorkoutLogged(ctx context.Context, userID primitive.ObjectID, date string) error {
	snap, err := u.loadOrNew(ctx, userID)
	if err != nil {
		return err
	}
	now := u.now()
	logs, err := u.workouts.ListSince(ctx, userID, adherenceWindowStart(now))
	if err != nil {
		return err
	}
	distinct := distinctLogDates(logs, adherenceWindowStart(now), now.Format(domain.DayFormat))
	snap.KPIs.Adherence7d = adherenceScore(distinct, snap.Training.DaysPerWeek)
	bumpCheckIn(&snap.KPIs, date)
	return u.snapshots.Save(ctx, snap)
}
