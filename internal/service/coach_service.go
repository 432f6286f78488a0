package service

import (
	"alcyxob/coach-engine/internal/domain"
	"alcyxob/coach-engine/internal/patch"
	"alcyxob/coach-engine/internal/repository"
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Policy bounds enforced before any version is created.
const (
	MinKcal        = 1200
	MaxKcal        = 5000
	MinDaysPerWeek = 1
	MaxDaysPerWeek = 7
	MinWeightKg    = 20
	MaxWeightKg    = 400
)

// CoachService is the write-side surface consumed by the action layer and
// agent/rules callers. Intents arrive here already authenticated; this
// layer owns policy validation, patch computation, and materialization.
type CoachService interface {
	// Patch intents against the current plan.
	SwapExercise(ctx context.Context, userID primitive.ObjectID, day, from, to string) (*MaterializeResult, error)
	SetDaysPerWeek(ctx context.Context, userID primitive.ObjectID, days int) (*MaterializeResult, error)
	SetCalories(ctx context.Context, userID primitive.ObjectID, kcal int) (*MaterializeResult, error)

	// Whole-plan saves for agent/rules callers.
	SaveTrainingPlan(ctx context.Context, userID primitive.ObjectID, source domain.VersionSource, days []domain.TrainingDay) (*MaterializeResult, error)
	SaveNutritionPlan(ctx context.Context, userID primitive.ObjectID, source domain.VersionSource, targets domain.MacroTargets, meals []domain.Meal) (*MaterializeResult, error)
	SaveGoal(ctx context.Context, userID primitive.ObjectID, source domain.VersionSource, goal domain.GoalPayload) (*MaterializeResult, error)

	// Source-of-truth logging; each write dispatches its domain event.
	LogWeight(ctx context.Context, userID primitive.ObjectID, date string, kg float64) error
	DeleteWeight(ctx context.Context, userID primitive.ObjectID, date string) error
	LogWorkout(ctx context.Context, userID primitive.ObjectID, date string, notes string) error
}

// coachService implements the CoachService interface.
type coachService struct {
	versions     repository.PlanVersionRepository
	pointers     repository.PointerRepository
	weights      repository.WeightEntryRepository
	workouts     repository.WorkoutLogRepository
	materializer *Materializer
	dispatcher   *Dispatcher
}

// NewCoachService creates a new instance of coachService.
func NewCoachService(
	versions repository.PlanVersionRepository,
	pointers repository.PointerRepository,
	weights repository.WeightEntryRepository,
	workouts repository.WorkoutLogRepository,
	materializer *Materializer,
	dispatcher *Dispatcher,
) CoachService {
	return &coachService{
		versions:     versions,
		pointers:     pointers,
		weights:      weights,
		workouts:     workouts,
		materializer: materializer,
		dispatcher:   dispatcher,
	}
}

// currentVersion resolves the user's current version of a plan type, or
// ErrNoCurrentPlan when the chain has no current entry.
func (s *coachService) currentVersion(ctx context.Context, userID primitive.ObjectID, planType domain.PlanType) (*domain.PlanVersion, error) {
	version, err := resolveCurrentVersion(ctx, s.pointers, s.versions, userID, planType)
	if err != nil {
		return nil, err
	}
	if version == nil {
		return nil, fmt.Errorf("%w: %s", ErrNoCurrentPlan, planType)
	}
	return version, nil
}

// === Patch intents ===

func (s *coachService) SwapExercise(ctx context.Context, userID primitive.ObjectID, day, from, to string) (*MaterializeResult, error) {
	if strings.TrimSpace(from) == "" || strings.TrimSpace(to) == "" {
		return nil, validationError("both the exercise to replace and its replacement are required")
	}

	current, err := s.currentVersion(ctx, userID, domain.PlanTypeTraining)
	if err != nil {
		return nil, err
	}

	p := patch.SwapExercise(current.Training, day, from, to)
	if p.NoOp {
		// Descriptive no-op from the engine becomes a clear rejection —
		// a degenerate version is never persisted.
		return nil, validationError("%s", p.Reason.Summary)
	}

	return s.materializer.Materialize(ctx, &domain.PlanVersion{
		UserID:   userID,
		PlanType: domain.PlanTypeTraining,
		Source:   domain.SourceAction,
		Reason:   reasonText(p.Reason),
		Training: p.Training,
	}, p.Reason.Summary)
}

func (s *coachService) SetDaysPerWeek(ctx context.Context, userID primitive.ObjectID, days int) (*MaterializeResult, error) {
	if days < MinDaysPerWeek || days > MaxDaysPerWeek {
		return nil, validationError("daysPerWeek must be between %d and %d, got %d", MinDaysPerWeek, MaxDaysPerWeek, days)
	}

	current, err := s.currentVersion(ctx, userID, domain.PlanTypeTraining)
	if err != nil {
		return nil, err
	}

	// Overtraining guard: the jump from the current active-day count may
	// exceed it by at most 20%. Shrinking is always allowed.
	active := current.Training.ActiveDayCount()
	if active > 0 && days > active {
		limit := (active*12 + 9) / 10 // ceil(active * 1.2)
		if days > limit {
			return nil, validationError("jump from %d to %d training days is too aggressive; limit is %d", active, days, limit)
		}
	}

	p := patch.ChangeDaysPerWeek(current.Training, days)
	if p.NoOp {
		return nil, validationError("%s", p.Reason.Summary)
	}

	return s.materializer.Materialize(ctx, &domain.PlanVersion{
		UserID:   userID,
		PlanType: domain.PlanTypeTraining,
		Source:   domain.SourceAction,
		Reason:   reasonText(p.Reason),
		Training: p.Training,
	}, p.Reason.Summary)
}

func (s *coachService) SetCalories(ctx context.Context, userID primitive.ObjectID, kcal int) (*MaterializeResult, error) {
	if kcal < MinKcal || kcal > MaxKcal {
		return nil, validationError("kcal must be between %d and %d, got %d", MinKcal, MaxKcal, kcal)
	}

	current, err := s.currentVersion(ctx, userID, domain.PlanTypeNutrition)
	if err != nil {
		return nil, err
	}

	p := patch.SetCalories(current.Nutrition, kcal)

	return s.materializer.Materialize(ctx, &domain.PlanVersion{
		UserID:    userID,
		PlanType:  domain.PlanTypeNutrition,
		Source:    domain.SourceAction,
		Reason:    reasonText(p.Reason),
		Nutrition: p.Nutrition,
	}, p.Reason.Summary)
}

// === Whole-plan saves ===

func normalizeSource(source domain.VersionSource) domain.VersionSource {
	switch source {
	case domain.SourceRule, domain.SourceManual, domain.SourceAction, domain.SourceAgent:
		return source
	}
	return domain.SourceAgent
}

func (s *coachService) SaveTrainingPlan(ctx context.Context, userID primitive.ObjectID, source domain.VersionSource, days []domain.TrainingDay) (*MaterializeResult, error) {
	if len(days) < MinDaysPerWeek || len(days) > MaxDaysPerWeek {
		return nil, validationError("a training plan needs between %d and %d days, got %d", MinDaysPerWeek, MaxDaysPerWeek, len(days))
	}
	for _, d := range days {
		if d.Weekday < 0 || d.Weekday > 6 {
			return nil, validationError("day %q has weekday %d outside 0-6", d.Label, d.Weekday)
		}
	}

	payload := &domain.TrainingPlanPayload{Days: days}
	summary := fmt.Sprintf("Saved a training plan with %d day(s) per week.", payload.ActiveDayCount())
	return s.materializer.Materialize(ctx, &domain.PlanVersion{
		UserID:   userID,
		PlanType: domain.PlanTypeTraining,
		Source:   normalizeSource(source),
		Reason:   summary,
		Training: payload,
	}, summary)
}

func (s *coachService) SaveNutritionPlan(ctx context.Context, userID primitive.ObjectID, source domain.VersionSource, targets domain.MacroTargets, meals []domain.Meal) (*MaterializeResult, error) {
	if targets.Kcal < MinKcal || targets.Kcal > MaxKcal {
		return nil, validationError("kcal must be between %d and %d, got %d", MinKcal, MaxKcal, targets.Kcal)
	}

	summary := fmt.Sprintf("Saved a nutrition plan targeting %d kcal per day.", targets.Kcal)
	return s.materializer.Materialize(ctx, &domain.PlanVersion{
		UserID:    userID,
		PlanType:  domain.PlanTypeNutrition,
		Source:    normalizeSource(source),
		Reason:    summary,
		Nutrition: &domain.NutritionPlanPayload{DailyTargets: targets, Meals: meals},
	}, summary)
}

func (s *coachService) SaveGoal(ctx context.Context, userID primitive.ObjectID, source domain.VersionSource, goal domain.GoalPayload) (*MaterializeResult, error) {
	if strings.TrimSpace(goal.Title) == "" {
		return nil, validationError("a goal needs a title")
	}
	if goal.TargetDate != nil {
		if _, err := time.Parse(domain.DayFormat, *goal.TargetDate); err != nil {
			return nil, validationError("targetDate must be YYYY-MM-DD, got %q", *goal.TargetDate)
		}
	}

	summary := fmt.Sprintf("Goal saved: %s.", strings.TrimSuffix(goal.Title, "."))
	return s.materializer.Materialize(ctx, &domain.PlanVersion{
		UserID:   userID,
		PlanType: domain.PlanTypeGoal,
		Source:   normalizeSource(source),
		Reason:   summary,
		Goal:     &goal,
	}, summary)
}

// === Source-of-truth logging ===

func validDate(date string) error {
	if _, err := time.Parse(domain.DayFormat, date); err != nil {
		return validationError("date must be YYYY-MM-DD, got %q", date)
	}
	return nil
}

// dispatchBestEffort publishes after a successful source-of-truth write.
// The write already succeeded, so a dispatch failure is logged, not
// surfaced: the snapshot is stale at most until the next reconciliation.
func (s *coachService) dispatchBestEffort(ctx context.Context, event domain.Event) {
	if err := s.dispatcher.Dispatch(ctx, event); err != nil {
		log.Printf("WARN: dispatch %s (event %s) for user %s: %v", event.Type, event.ID, event.UserID.Hex(), err)
	}
}

func (s *coachService) LogWeight(ctx context.Context, userID primitive.ObjectID, date string, kg float64) error {
	if err := validDate(date); err != nil {
		return err
	}
	if kg < MinWeightKg || kg > MaxWeightKg {
		return validationError("weight must be between %d and %d kg, got %.1f", MinWeightKg, MaxWeightKg, kg)
	}

	err := s.weights.Upsert(ctx, &domain.WeightEntry{UserID: userID, Date: date, Kg: kg})
	if err != nil {
		return err
	}
	s.dispatchBestEffort(ctx, domain.NewWeightLogged(userID, date, kg))
	return nil
}

func (s *coachService) DeleteWeight(ctx context.Context, userID primitive.ObjectID, date string) error {
	if err := validDate(date); err != nil {
		return err
	}
	if err := s.weights.Delete(ctx, userID, date); err != nil {
		return err
	}
	s.dispatchBestEffort(ctx, domain.NewWeightDeleted(userID, date))
	return nil
}

func (s *coachService) LogWorkout(ctx context.Context, userID primitive.ObjectID, date string, notes string) error {
	if err := validDate(date); err != nil {
		return err
	}
	err := s.workouts.Upsert(ctx, &domain.WorkoutLog{UserID: userID, Date: date, Notes: notes})
	if err != nil {
		return err
	}
	s.dispatchBestEffort(ctx, domain.NewWorkoutLogged(userID, date))
	return nil
}
