package service

import (
	"alcyxob/coach-engine/internal/domain"
	"alcyxob/coach-engine/internal/repository"
	"context"
	"errors"
	"sort"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Snapshot math shared by the incremental updaters and the Reconciler's
// full rebuild. Keeping both paths on the same helpers is what makes a
// rebuild field-equal to a clean incremental replay.

// nextWorkoutLabel scans forward from now's weekday, wrapping after 7
// days, for the nearest day carrying at least one exercise. Today counts.
func nextWorkoutLabel(p *domain.TrainingPlanPayload, now time.Time) *string {
	if p == nil {
		return nil
	}
	today := int(now.Weekday())
	for offset := 0; offset < 7; offset++ {
		weekday := (today + offset) % 7
		for _, d := range p.Days {
			if d.Weekday == weekday && len(d.Exercises) > 0 {
				label := d.Label
				return &label
			}
		}
	}
	return nil
}

// mergeWeightPoint upserts (date, kg) into the series, last write for a
// date wins, and keeps the series sorted ascending by date.
func mergeWeightPoint(series []domain.WeightPoint, date string, kg float64) []domain.WeightPoint {
	for i := range series {
		if series[i].Date == date {
			series[i].Kg = kg
			return series
		}
	}
	series = append(series, domain.WeightPoint{Date: date, Kg: kg})
	sort.Slice(series, func(i, j int) bool { return series[i].Date < series[j].Date })
	return series
}

// removeWeightPoint drops the entry at date if present.
func removeWeightPoint(series []domain.WeightPoint, date string) []domain.WeightPoint {
	for i := range series {
		if series[i].Date == date {
			return append(series[:i], series[i+1:]...)
		}
	}
	return series
}

// adherenceWindowStart returns the first date of the trailing 7-day
// window ending at now.
func adherenceWindowStart(now time.Time) string {
	return now.AddDate(0, 0, -6).Format(domain.DayFormat)
}

// adherenceScore is min(1, distinctDays/daysPerWeek), 0 when the plan has
// no active days.
func adherenceScore(distinctDays, daysPerWeek int) float64 {
	if daysPerWeek <= 0 {
		return 0
	}
	score := float64(distinctDays) / float64(daysPerWeek)
	if score > 1 {
		return 1
	}
	return score
}

// distinctLogDates counts distinct workout dates in [start, end].
func distinctLogDates(logs []domain.WorkoutLog, start, end string) int {
	seen := map[string]struct{}{}
	for _, l := range logs {
		if l.Date >= start && l.Date <= end {
			seen[l.Date] = struct{}{}
		}
	}
	return len(seen)
}

// bumpCheckIn advances lastCheckIn to date unless an even later date is
// already recorded, so a backfilled log never moves the KPI backwards and
// replay order stops mattering.
func bumpCheckIn(kpis *domain.KPISet, date string) {
	if kpis.LastCheckIn == nil || *kpis.LastCheckIn < date {
		kpis.LastCheckIn = &date
	}
}

func nutritionSummaryOf(p *domain.NutritionPlanPayload) domain.NutritionSummary {
	if p == nil {
		return domain.NutritionSummary{}
	}
	return domain.NutritionSummary{
		Kcal:     p.DailyTargets.Kcal,
		ProteinG: p.DailyTargets.ProteinG,
		CarbsG:   p.DailyTargets.CarbsG,
		FatG:     p.DailyTargets.FatG,
	}
}

// BuildSnapshot recomputes a user's entire snapshot from source-of-truth
// rows, discarding whatever the incremental path produced. Any input may
// be nil or empty; the contribution is then zero.
func BuildSnapshot(
	userID primitive.ObjectID,
	training *domain.TrainingPlanPayload,
	nutrition *domain.NutritionPlanPayload,
	weights []domain.WeightEntry,
	logs []domain.WorkoutLog,
	now time.Time,
) *domain.Snapshot {
	snap := domain.NewSnapshot(userID)

	for _, w := range weights {
		snap.WeightSeries = mergeWeightPoint(snap.WeightSeries, w.Date, w.Kg)
	}

	snap.Training.DaysPerWeek = training.ActiveDayCount()
	snap.Nutrition = nutritionSummaryOf(nutrition)

	snap.KPIs.NextWorkout = nextWorkoutLabel(training, now)
	today := now.Format(domain.DayFormat)
	distinct := distinctLogDates(logs, adherenceWindowStart(now), today)
	snap.KPIs.Adherence7d = adherenceScore(distinct, snap.Training.DaysPerWeek)

	for _, w := range weights {
		bumpCheckIn(&snap.KPIs, w.Date)
	}
	for _, l := range logs {
		bumpCheckIn(&snap.KPIs, l.Date)
	}

	return snap
}

// resolveCurrentVersion follows pointer slot -> version row for the plan
// type. A missing pointer, unset slot, or missing version row yields
// (nil, nil): the contribution is simply empty. Store failures propagate.
func resolveCurrentVersion(
	ctx context.Context,
	pointers repository.PointerRepository,
	versions repository.PlanVersionRepository,
	userID primitive.ObjectID,
	planType domain.PlanType,
) (*domain.PlanVersion, error) {
	pointer, err := pointers.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	ref := pointer.CurrentVersionID(planType)
	if ref == nil {
		return nil, nil
	}
	version, err := versions.GetByID(ctx, *ref)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return version, nil
}
