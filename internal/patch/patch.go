// Package patch computes plan mutations from user intents. Everything here
// is pure: no I/O, no clocks, no randomness — the same payload and intent
// always produce the same patch, and the input payload is never mutated.
package patch

import (
	"alcyxob/coach-engine/internal/domain"
	"fmt"
	"strings"
)

// Reason is the human-readable explanation attached to a patch. Summary is
// short enough to echo back to the user verbatim as a confirmation.
type Reason struct {
	Summary string
	Bullets []string
}

// Patch is the outcome of applying an intent to a plan payload. Exactly one
// of Training/Nutrition is set for a non-noop patch. A NoOp patch carries
// no new payload, only a reason explaining why nothing changed; callers
// decide whether a no-op is an error.
type Patch struct {
	Training  *domain.TrainingPlanPayload
	Nutrition *domain.NutritionPlanPayload
	NoOp      bool
	Reason    Reason
}

func noOp(summary string, bullets ...string) Patch {
	return Patch{NoOp: true, Reason: Reason{Summary: summary, Bullets: bullets}}
}

// SwapExercise replaces one exercise with another on the named day,
// matching day label and exercise name case-insensitively. Sets and reps
// carry over to the replacement. If the day or the exercise cannot be
// found the patch is a no-op whose reason says so.
func SwapExercise(current *domain.TrainingPlanPayload, day, from, to string) Patch {
	next := current.Clone()
	if next == nil {
		return noOp("No training plan to edit.")
	}
	target := next.FindDay(day)
	if target == nil {
		return noOp(
			fmt.Sprintf("No day named %q in the current plan.", day),
			fmt.Sprintf("Plan has %d day(s); none match %q.", len(next.Days), day),
		)
	}
	for i := range target.Exercises {
		if strings.EqualFold(target.Exercises[i].Name, from) {
			old := target.Exercises[i].Name
			target.Exercises[i].Name = to
			return Patch{
				Training: next,
				Reason: Reason{
					Summary: fmt.Sprintf("Swapped %s for %s on your %s day.", old, to, target.Label),
					Bullets: []string{
						fmt.Sprintf("%s removed from %s.", old, target.Label),
						fmt.Sprintf("%s added with the same sets and reps.", to),
					},
				},
			}
		}
	}
	return noOp(
		fmt.Sprintf("Couldn't find %q on your %s day.", from, target.Label),
		fmt.Sprintf("%s currently has %d exercise(s).", target.Label, len(target.Exercises)),
	)
}

// focusTemplate is the rotating day-label cycle used when redistributing a
// plan across a new day count.
var focusTemplate = []string{"Push", "Pull", "Legs"}

// weekdaySlots maps a day count to the weekdays those days occupy
// (time.Weekday numbering, 0 = Sunday).
var weekdaySlots = map[int][]int{
	1: {1},
	2: {1, 4},
	3: {1, 3, 5},
	4: {1, 2, 4, 5},
	5: {1, 2, 3, 4, 5},
	6: {1, 2, 3, 4, 5, 6},
	7: {1, 2, 3, 4, 5, 6, 0},
}

// defaultExercises returns the template prescription for a focus label.
func defaultExercises(label string) []domain.Exercise {
	switch label {
	case "Push":
		return []domain.Exercise{
			{Name: "Bench Press", Sets: 4, Reps: "6-10"},
			{Name: "Overhead Press", Sets: 3, Reps: "8-12"},
			{Name: "Triceps Pushdown", Sets: 3, Reps: "10-15"},
		}
	case "Pull":
		return []domain.Exercise{
			{Name: "Barbell Row", Sets: 4, Reps: "6-10"},
			{Name: "Lat Pulldown", Sets: 3, Reps: "8-12"},
			{Name: "Biceps Curl", Sets: 3, Reps: "10-15"},
		}
	default: // Legs
		return []domain.Exercise{
			{Name: "Squat", Sets: 4, Reps: "6-10"},
			{Name: "Romanian Deadlift", Sets: 3, Reps: "8-12"},
			{Name: "Calf Raise", Sets: 3, Reps: "12-20"},
		}
	}
}

// ChangeDaysPerWeek redistributes the focus rotation across the new day
// count. Days whose label survives the redistribution keep their customized
// exercises (matched in order, so a second "Push" day consumes the second
// old "Push" day); new slots get template defaults. Range and jump limits
// are the caller's concern — this only computes the mutation.
func ChangeDaysPerWeek(current *domain.TrainingPlanPayload, days int) Patch {
	slots, ok := weekdaySlots[days]
	if !ok {
		return noOp(fmt.Sprintf("Can't build a %d-day week.", days))
	}

	// Old days not yet consumed by a label match.
	var remaining []domain.TrainingDay
	if current != nil {
		remaining = current.Clone().Days
	}
	take := func(label string) *domain.TrainingDay {
		for i := range remaining {
			if strings.EqualFold(remaining[i].Label, label) {
				d := remaining[i]
				remaining = append(remaining[:i], remaining[i+1:]...)
				return &d
			}
		}
		return nil
	}

	next := &domain.TrainingPlanPayload{Days: make([]domain.TrainingDay, 0, days)}
	kept := 0
	for i := 0; i < days; i++ {
		label := focusTemplate[i%len(focusTemplate)]
		day := domain.TrainingDay{Label: label, Weekday: slots[i]}
		if old := take(label); old != nil {
			day.Exercises = old.Exercises
			kept++
		} else {
			day.Exercises = defaultExercises(label)
		}
		next.Days = append(next.Days, day)
	}

	bullets := []string{
		fmt.Sprintf("%d day(s) kept their existing exercises.", kept),
		fmt.Sprintf("%d day(s) start from the %s template.", days-kept, strings.Join(focusTemplate, "/")),
	}
	return Patch{
		Training: next,
		Reason: Reason{
			Summary: fmt.Sprintf("Your plan now has %d training days per week.", days),
			Bullets: bullets,
		},
	}
}

// Calories per gram for each macro.
const (
	kcalPerGramProtein = 4
	kcalPerGramCarbs   = 4
	kcalPerGramFat     = 9
)

// SetCalories retargets the daily calorie goal. Existing macro targets are
// scaled proportionally so a customized split survives the change; a plan
// without targets gets a 30/40/30 protein/carbs/fat split. Bounds on kcal
// are the caller's concern.
func SetCalories(current *domain.NutritionPlanPayload, kcal int) Patch {
	next := current.Clone()
	if next == nil {
		next = &domain.NutritionPlanPayload{}
	}

	old := next.DailyTargets
	if old.Kcal > 0 && (old.ProteinG > 0 || old.CarbsG > 0 || old.FatG > 0) {
		ratio := float64(kcal) / float64(old.Kcal)
		next.DailyTargets = domain.MacroTargets{
			Kcal:     kcal,
			ProteinG: int(float64(old.ProteinG)*ratio + 0.5),
			CarbsG:   int(float64(old.CarbsG)*ratio + 0.5),
			FatG:     int(float64(old.FatG)*ratio + 0.5),
		}
	} else {
		next.DailyTargets = domain.MacroTargets{
			Kcal:     kcal,
			ProteinG: kcal * 30 / 100 / kcalPerGramProtein,
			CarbsG:   kcal * 40 / 100 / kcalPerGramCarbs,
			FatG:     kcal * 30 / 100 / kcalPerGramFat,
		}
	}

	summary := fmt.Sprintf("Daily target set to %d kcal.", kcal)
	bullets := []string{
		fmt.Sprintf("Protein %dg, carbs %dg, fat %dg.",
			next.DailyTargets.ProteinG, next.DailyTargets.CarbsG, next.DailyTargets.FatG),
	}
	if old.Kcal > 0 {
		bullets = append(bullets, fmt.Sprintf("Previous target was %d kcal.", old.Kcal))
	}
	return Patch{
		Nutrition: next,
		Reason:    Reason{Summary: summary, Bullets: bullets},
	}
}
