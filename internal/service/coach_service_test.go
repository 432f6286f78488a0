package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"alcyxob/coach-engine/internal/domain"
)

func TestSetDaysPerWeek_RejectsOutOfRange(t *testing.T) {
	e := newTestEngine()
	userID := primitive.NewObjectID()
	ctx := context.Background()

	_, err := e.coach.SaveTrainingPlan(ctx, userID, domain.SourceAgent, threeDayPlan())
	require.NoError(t, err)

	for _, days := range []int{0, -1, 8} {
		_, err := e.coach.SetDaysPerWeek(ctx, userID, days)
		assert.ErrorIs(t, err, ErrValidation, "days=%d", days)
	}
	// Nothing beyond the initial save was persisted.
	assert.Equal(t, 1, e.versions.count(userID, domain.PlanTypeTraining))
}

func TestSetDaysPerWeek_RejectsAggressiveJump(t *testing.T) {
	e := newTestEngine()
	userID := primitive.NewObjectID()
	ctx := context.Background()

	_, err := e.coach.SaveTrainingPlan(ctx, userID, domain.SourceAgent, threeDayPlan())
	require.NoError(t, err)

	// ceil(3 * 1.2) = 4, so 5 is out, 4 is in.
	_, err = e.coach.SetDaysPerWeek(ctx, userID, 5)
	require.ErrorIs(t, err, ErrValidation)

	result, err := e.coach.SetDaysPerWeek(ctx, userID, 4)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Version)
}

func TestSetDaysPerWeek_ShrinkIsAlwaysAllowed(t *testing.T) {
	e := newTestEngine()
	userID := primitive.NewObjectID()
	ctx := context.Background()

	_, err := e.coach.SaveTrainingPlan(ctx, userID, domain.SourceAgent, threeDayPlan())
	require.NoError(t, err)

	result, err := e.coach.SetDaysPerWeek(ctx, userID, 1)
	require.NoError(t, err)

	current, err := e.versions.GetByID(ctx, mustCurrentTraining(t, e, userID))
	require.NoError(t, err)
	require.Len(t, current.Training.Days, 1)
	assert.Equal(t, "Push", current.Training.Days[0].Label)
	assert.Equal(t, 2, result.Version)
}

func mustCurrentTraining(t *testing.T, e *testEngine, userID primitive.ObjectID) primitive.ObjectID {
	t.Helper()
	pointer, err := e.pointers.GetByUserID(context.Background(), userID)
	require.NoError(t, err)
	require.NotNil(t, pointer.TrainingVersionID)
	return *pointer.TrainingVersionID
}

func TestSetDaysPerWeek_ThreeToFour(t *testing.T) {
	e := newTestEngine()
	userID := primitive.NewObjectID()
	ctx := context.Background()

	_, err := e.coach.SaveTrainingPlan(ctx, userID, domain.SourceAgent, threeDayPlan())
	require.NoError(t, err)

	result, err := e.coach.SetDaysPerWeek(ctx, userID, 4)
	require.NoError(t, err)

	// New version is old+1 and its reason mentions the new day count.
	assert.Equal(t, 2, result.Version)
	assert.Contains(t, result.Message, "4")

	// Pointer advanced to a 4-session plan; kept days carry their
	// original exercises.
	current, err := e.versions.GetByID(ctx, mustCurrentTraining(t, e, userID))
	require.NoError(t, err)
	require.Len(t, current.Training.Days, 4)
	assert.Equal(t, "Bench Press", current.Training.Days[0].Exercises[0].Name)
	assert.Equal(t, domain.SourceAction, current.Source)

	// Exactly one PLAN_EDIT audit entry for the edit (plus the save).
	changes, err := e.changes.ListByUser(ctx, userID, 0)
	require.NoError(t, err)
	require.Len(t, changes, 2)
	assert.Equal(t, domain.ChangePlanEdit, changes[0].Type)
	assert.Equal(t, result.Message, changes[0].Summary)
}

func TestSwapExercise_NoCurrentPlan(t *testing.T) {
	e := newTestEngine()
	userID := primitive.NewObjectID()
	ctx := context.Background()

	_, err := e.coach.SwapExercise(ctx, userID, "Push", "Bench Press", "Dips")
	require.ErrorIs(t, err, ErrNoCurrentPlan)

	// No version row was created and the pointer record never appeared.
	assert.Equal(t, 0, e.versions.count(userID, domain.PlanTypeTraining))
	_, err = e.pointers.GetByUserID(ctx, userID)
	assert.Error(t, err)
}

func TestSwapExercise_HappyPath(t *testing.T) {
	e := newTestEngine()
	userID := primitive.NewObjectID()
	ctx := context.Background()

	_, err := e.coach.SaveTrainingPlan(ctx, userID, domain.SourceAgent, threeDayPlan())
	require.NoError(t, err)

	result, err := e.coach.SwapExercise(ctx, userID, "push", "bench press", "Weighted Dips")
	require.NoError(t, err)
	assert.Equal(t, 2, result.Version)
	assert.Contains(t, result.Message, "Weighted Dips")

	current, err := e.versions.GetByID(ctx, mustCurrentTraining(t, e, userID))
	require.NoError(t, err)
	assert.Equal(t, "Weighted Dips", current.Training.Days[0].Exercises[0].Name)
}

func TestSwapExercise_UnknownExerciseIsRejected(t *testing.T) {
	e := newTestEngine()
	userID := primitive.NewObjectID()
	ctx := context.Background()

	_, err := e.coach.SaveTrainingPlan(ctx, userID, domain.SourceAgent, threeDayPlan())
	require.NoError(t, err)

	_, err = e.coach.SwapExercise(ctx, userID, "Push", "Cable Crossover", "Dips")
	require.ErrorIs(t, err, ErrValidation)
	assert.Contains(t, err.Error(), "Cable Crossover")

	// The degenerate patch was never persisted.
	assert.Equal(t, 1, e.versions.count(userID, domain.PlanTypeTraining))
}

func TestSetCalories_Bounds(t *testing.T) {
	e := newTestEngine()
	userID := primitive.NewObjectID()
	ctx := context.Background()

	_, err := e.coach.SaveNutritionPlan(ctx, userID, domain.SourceAgent, domain.MacroTargets{Kcal: 2000, ProteinG: 150, CarbsG: 200, FatG: 67}, nil)
	require.NoError(t, err)

	for _, kcal := range []int{1199, 5001, 0} {
		_, err := e.coach.SetCalories(ctx, userID, kcal)
		assert.ErrorIs(t, err, ErrValidation, "kcal=%d", kcal)
	}

	result, err := e.coach.SetCalories(ctx, userID, 2500)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Version)

	// The dispatcher pushed the new targets into the snapshot.
	snap, err := e.snapshots.GetByUserID(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, 2500, snap.Nutrition.Kcal)
}

func TestSetCalories_NoCurrentNutritionPlan(t *testing.T) {
	e := newTestEngine()
	userID := primitive.NewObjectID()
	ctx := context.Background()

	_, err := e.coach.SetCalories(ctx, userID, 2200)
	require.ErrorIs(t, err, ErrNoCurrentPlan)
}

func TestSaveNutritionPlan_RejectsOutOfRangeKcal(t *testing.T) {
	e := newTestEngine()
	userID := primitive.NewObjectID()
	ctx := context.Background()

	_, err := e.coach.SaveNutritionPlan(ctx, userID, domain.SourceAgent, domain.MacroTargets{Kcal: 900}, nil)
	require.ErrorIs(t, err, ErrValidation)
}

func TestLogWeight_WritesSourceOfTruthAndSnapshot(t *testing.T) {
	e := newTestEngine()
	userID := primitive.NewObjectID()
	ctx := context.Background()

	require.NoError(t, e.coach.LogWeight(ctx, userID, "2025-08-20", 80))

	entries, err := e.weights.ListByUser(ctx, userID)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, 80.0, entries[0].Kg)

	snap, err := e.snapshots.GetByUserID(ctx, userID)
	require.NoError(t, err)
	require.Len(t, snap.WeightSeries, 1)

	// The dirty marker advanced along with the event.
	pointer, err := e.pointers.GetByUserID(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, testNow, pointer.LastEventAt)
}

func TestLogWeight_Validation(t *testing.T) {
	e := newTestEngine()
	userID := primitive.NewObjectID()
	ctx := context.Background()

	assert.ErrorIs(t, e.coach.LogWeight(ctx, userID, "20-08-2025", 80), ErrValidation)
	assert.ErrorIs(t, e.coach.LogWeight(ctx, userID, "2025-08-20", 5), ErrValidation)
	assert.ErrorIs(t, e.coach.LogWeight(ctx, userID, "2025-08-20", 900), ErrValidation)
}

func TestDeleteWeight_RemovesRowAndSeriesEntry(t *testing.T) {
	e := newTestEngine()
	userID := primitive.NewObjectID()
	ctx := context.Background()

	require.NoError(t, e.coach.LogWeight(ctx, userID, "2025-08-19", 81))
	require.NoError(t, e.coach.LogWeight(ctx, userID, "2025-08-20", 80))
	require.NoError(t, e.coach.DeleteWeight(ctx, userID, "2025-08-19"))

	entries, err := e.weights.ListByUser(ctx, userID)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	snap, err := e.snapshots.GetByUserID(ctx, userID)
	require.NoError(t, err)
	require.Len(t, snap.WeightSeries, 1)
	assert.Equal(t, "2025-08-20", snap.WeightSeries[0].Date)
}
