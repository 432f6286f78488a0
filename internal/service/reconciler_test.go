package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"alcyxob/coach-engine/internal/domain"
)

// seedActiveUser drives a realistic write sequence through the service
// layer so the user ends up with plans, history, and a live snapshot.
func seedActiveUser(t *testing.T, e *testEngine, userID primitive.ObjectID) {
	t.Helper()
	ctx := context.Background()

	_, err := e.coach.SaveTrainingPlan(ctx, userID, domain.SourceAgent, threeDayPlan())
	require.NoError(t, err)
	_, err = e.coach.SaveNutritionPlan(ctx, userID, domain.SourceAgent,
		domain.MacroTargets{Kcal: 2200, ProteinG: 165, CarbsG: 220, FatG: 73}, nil)
	require.NoError(t, err)
	require.NoError(t, e.coach.LogWeight(ctx, userID, "2025-08-20", 80))
	require.NoError(t, e.coach.LogWeight(ctx, userID, "2025-08-18", 81))
	require.NoError(t, e.coach.LogWorkout(ctx, userID, "2025-08-18", "push day"))
	require.NoError(t, e.coach.LogWorkout(ctx, userID, "2025-08-20", "pull day"))
}

func TestRun_RestoresCorruptedSnapshot(t *testing.T) {
	e := newTestEngine()
	userID := primitive.NewObjectID()
	ctx := context.Background()

	seedActiveUser(t, e, userID)

	// Corrupt the derived view behind the engine's back.
	snap, err := e.snapshots.GetByUserID(ctx, userID)
	require.NoError(t, err)
	snap.Training.DaysPerWeek = 99
	snap.WeightSeries = nil
	require.NoError(t, e.snapshots.Save(ctx, snap))

	rebuilt, err := e.reconciler.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, rebuilt)

	restored, err := e.snapshots.GetByUserID(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, 3, restored.Training.DaysPerWeek)
	require.Len(t, restored.WeightSeries, 2)
	assert.Equal(t, "2025-08-18", restored.WeightSeries[0].Date)

	pointer, err := e.pointers.GetByUserID(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, testNow, pointer.SnapshotUpdatedAt)
}

func TestRebuildUser_MatchesIncrementalState(t *testing.T) {
	e := newTestEngine()
	userID := primitive.NewObjectID()
	ctx := context.Background()

	seedActiveUser(t, e, userID)

	incremental, err := e.snapshots.GetByUserID(ctx, userID)
	require.NoError(t, err)

	// Throw the derived view away and rebuild from source-of-truth rows.
	require.NoError(t, e.snapshots.Delete(ctx, userID))
	require.NoError(t, e.reconciler.RebuildUser(ctx, userID))

	rebuilt, err := e.snapshots.GetByUserID(ctx, userID)
	require.NoError(t, err)

	assert.Equal(t, incremental.WeightSeries, rebuilt.WeightSeries)
	assert.Equal(t, incremental.Training, rebuilt.Training)
	assert.Equal(t, incremental.Nutrition, rebuilt.Nutrition)
	assert.Equal(t, incremental.KPIs, rebuilt.KPIs)
}

func TestRebuildUser_ToleratesUserWithNoPlans(t *testing.T) {
	e := newTestEngine()
	userID := primitive.NewObjectID()
	ctx := context.Background()

	require.NoError(t, e.coach.LogWeight(ctx, userID, "2025-08-20", 80))
	require.NoError(t, e.reconciler.RebuildUser(ctx, userID))

	snap, err := e.snapshots.GetByUserID(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, 0, snap.Training.DaysPerWeek)
	assert.Nil(t, snap.KPIs.NextWorkout)
	require.Len(t, snap.WeightSeries, 1)
}

func TestRun_ContinuesPastFailingUser(t *testing.T) {
	e := newTestEngine()
	broken := primitive.NewObjectID()
	healthy := primitive.NewObjectID()
	ctx := context.Background()

	seedActiveUser(t, e, broken)
	seedActiveUser(t, e, healthy)

	e.snapshots.failFor[broken] = true

	rebuilt, err := e.reconciler.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, rebuilt)

	// The healthy user's snapshot stamp advanced; the broken user will be
	// retried on the next pass because the dirty mark was never cleared.
	pointer, err := e.pointers.GetByUserID(ctx, healthy)
	require.NoError(t, err)
	assert.Equal(t, testNow, pointer.SnapshotUpdatedAt)
}

func TestRun_SkipsUsersOutsideWindow(t *testing.T) {
	e := newTestEngine()
	stale := primitive.NewObjectID()
	ctx := context.Background()

	seedActiveUser(t, e, stale)
	require.NoError(t, e.pointers.TouchLastEvent(ctx, stale, testNow.Add(-48*time.Hour)))

	rebuilt, err := e.reconciler.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, rebuilt)
}
