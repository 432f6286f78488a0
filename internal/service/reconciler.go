package service

import (
	"alcyxob/coach-engine/internal/domain"
	"alcyxob/coach-engine/internal/repository"
	"context"
	"errors"
	"log"
	"sync/atomic"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/sync/errgroup"
)

// ReconcilerConfig tunes one reconciliation pass.
type ReconcilerConfig struct {
	// Window is how far back lastEventAt may lie for a user to count as
	// dirty.
	Window time.Duration
	// UserTimeout bounds a single user's rebuild so one slow user cannot
	// stall the pass.
	UserTimeout time.Duration
	// MaxParallel bounds concurrent rebuilds. Safe to raise: each user's
	// rebuild touches only that user's rows.
	MaxParallel int
}

// DefaultReconcilerConfig matches a daily off-peak schedule.
func DefaultReconcilerConfig() ReconcilerConfig {
	return ReconcilerConfig{
		Window:      24 * time.Hour,
		UserTimeout: 30 * time.Second,
		MaxParallel: 4,
	}
}

// Reconciler is the correctness backstop: it fully rebuilds the snapshot
// of every recently-active user from source-of-truth rows, discarding
// whatever drift the incremental path accumulated.
type Reconciler struct {
	pointers  repository.PointerRepository
	versions  repository.PlanVersionRepository
	snapshots repository.SnapshotRepository
	weights   repository.WeightEntryRepository
	workouts  repository.WorkoutLogRepository
	cfg       ReconcilerConfig
	now       func() time.Time
}

// NewReconciler creates a Reconciler.
func NewReconciler(
	pointers repository.PointerRepository,
	versions repository.PlanVersionRepository,
	snapshots repository.SnapshotRepository,
	weights repository.WeightEntryRepository,
	workouts repository.WorkoutLogRepository,
	cfg ReconcilerConfig,
) *Reconciler {
	def := DefaultReconcilerConfig()
	if cfg.Window <= 0 {
		cfg.Window = def.Window
	}
	if cfg.UserTimeout <= 0 {
		cfg.UserTimeout = def.UserTimeout
	}
	if cfg.MaxParallel <= 0 {
		cfg.MaxParallel = def.MaxParallel
	}
	return &Reconciler{
		pointers:  pointers,
		versions:  versions,
		snapshots: snapshots,
		weights:   weights,
		workouts:  workouts,
		cfg:       cfg,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Run executes one pass over every user whose lastEventAt falls inside the
// trailing window. Per-user failures are logged and skipped; one broken
// user must not abort the batch. Returns the number of rebuilt snapshots.
func (r *Reconciler) Run(ctx context.Context) (int, error) {
	since := r.now().Add(-r.cfg.Window)
	dirty, err := r.pointers.FindActiveSince(ctx, since)
	if err != nil {
		return 0, err
	}

	var rebuilt atomic.Int64
	g := &errgroup.Group{}
	g.SetLimit(r.cfg.MaxParallel)
	for _, pointer := range dirty {
		userID := pointer.UserID
		g.Go(func() error {
			userCtx, cancel := context.WithTimeout(ctx, r.cfg.UserTimeout)
			defer cancel()
			if err := r.RebuildUser(userCtx, userID); err != nil {
				log.Printf("ERROR: reconciler: rebuild for user %s: %v", userID.Hex(), err)
				return nil
			}
			rebuilt.Add(1)
			return nil
		})
	}
	_ = g.Wait() // workers never return errors, failures are logged above
	return int(rebuilt.Load()), nil
}

// RebuildUser recomputes the user's snapshot from the currently-pointed
// versions plus complete weight and workout history, and overwrites the
// stored snapshot. A missing pointer or version contributes nothing; the
// rebuild still runs so stale snapshot fields are corrected.
func (r *Reconciler) RebuildUser(ctx context.Context, userID primitive.ObjectID) error {
	trainingVersion, err := resolveCurrentVersion(ctx, r.pointers, r.versions, userID, domain.PlanTypeTraining)
	if err != nil {
		return err
	}
	nutritionVersion, err := resolveCurrentVersion(ctx, r.pointers, r.versions, userID, domain.PlanTypeNutrition)
	if err != nil {
		return err
	}

	weights, err := r.weights.ListByUser(ctx, userID)
	if err != nil {
		return err
	}
	logs, err := r.workouts.ListByUser(ctx, userID)
	if err != nil {
		return err
	}

	var training *domain.TrainingPlanPayload
	if trainingVersion != nil {
		training = trainingVersion.Training
	}
	var nutrition *domain.NutritionPlanPayload
	if nutritionVersion != nil {
		nutrition = nutritionVersion.Nutrition
	}

	snap := BuildSnapshot(userID, training, nutrition, weights, logs, r.now())
	if err := r.snapshots.Save(ctx, snap); err != nil {
		return err
	}
	return r.pointers.SetSnapshotUpdatedAt(ctx, userID, r.now())
}

// RunEvery blocks, running a pass on each tick until the context is
// cancelled. Meant to be launched from main as a background goroutine.
func (r *Reconciler) RunEvery(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			start := time.Now()
			n, err := r.Run(ctx)
			if err != nil && !errors.Is(err, context.Canceled) {
				log.Printf("ERROR: reconciler pass failed: %v", err)
				continue
			}
			log.Printf("Reconciler pass complete: %d snapshot(s) rebuilt in %s", n, time.Since(start).Round(time.Millisecond))
		}
	}
}
