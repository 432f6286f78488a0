package domain

import (
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// PlanType identifies which version chain a PlanVersion belongs to.
// Each user has one independent chain per plan type.
type PlanType string

const (
	PlanTypeTraining  PlanType = "training"
	PlanTypeNutrition PlanType = "nutrition"
	PlanTypeGoal      PlanType = "goal"
)

// VersionSource records what kind of actor produced a version.
type VersionSource string

const (
	SourceRule   VersionSource = "rule"
	SourceManual VersionSource = "manual"
	SourceAction VersionSource = "action"
	SourceAgent  VersionSource = "agent"
)

// PlanVersion is one immutable link in a user's plan chain. Versions are
// gapless ascending integers starting at 1 per (userId, planType); a row is
// never updated or deleted once written.
type PlanVersion struct {
	ID        primitive.ObjectID    `bson:"_id,omitempty" json:"id"`
	UserID    primitive.ObjectID    `bson:"userId" json:"userId"`
	PlanType  PlanType              `bson:"planType" json:"planType"`
	Version   int                   `bson:"version" json:"version"`
	Source    VersionSource         `bson:"source" json:"source"`
	Reason    string                `bson:"reason" json:"reason"`
	Training  *TrainingPlanPayload  `bson:"training,omitempty" json:"training,omitempty"`
	Nutrition *NutritionPlanPayload `bson:"nutrition,omitempty" json:"nutrition,omitempty"`
	Goal      *GoalPayload          `bson:"goal,omitempty" json:"goal,omitempty"`
	CreatedAt time.Time             `bson:"createdAt" json:"createdAt"`
}

// TrainingPlanPayload is the structured plan data carried by a training
// version.
type TrainingPlanPayload struct {
	Days []TrainingDay `bson:"days" json:"days"`
}

// TrainingDay is one session in the weekly rotation. Weekday follows
// time.Weekday numbering (0 = Sunday).
type TrainingDay struct {
	Label     string     `bson:"label" json:"label"` // e.g. "Push", "Pull", "Legs"
	Weekday   int        `bson:"weekday" json:"weekday"`
	Exercises []Exercise `bson:"exercises" json:"exercises"`
}

// Exercise is a single prescribed movement within a day.
type Exercise struct {
	Name string `bson:"name" json:"name"`
	Sets int    `bson:"sets,omitempty" json:"sets,omitempty"`
	Reps string `bson:"reps,omitempty" json:"reps,omitempty"` // e.g. "8-12"
}

// ActiveDayCount returns the number of days that carry at least one
// exercise. A nil payload counts as zero.
func (p *TrainingPlanPayload) ActiveDayCount() int {
	if p == nil {
		return 0
	}
	n := 0
	for _, d := range p.Days {
		if len(d.Exercises) > 0 {
			n++
		}
	}
	return n
}

// FindDay returns the day matching label case-insensitively, or nil.
func (p *TrainingPlanPayload) FindDay(label string) *TrainingDay {
	if p == nil {
		return nil
	}
	for i := range p.Days {
		if strings.EqualFold(p.Days[i].Label, label) {
			return &p.Days[i]
		}
	}
	return nil
}

// Clone returns a deep copy so callers can mutate freely without touching
// the immutable source version.
func (p *TrainingPlanPayload) Clone() *TrainingPlanPayload {
	if p == nil {
		return nil
	}
	out := &TrainingPlanPayload{Days: make([]TrainingDay, len(p.Days))}
	for i, d := range p.Days {
		nd := d
		nd.Exercises = make([]Exercise, len(d.Exercises))
		copy(nd.Exercises, d.Exercises)
		out.Days[i] = nd
	}
	return out
}

// NutritionPlanPayload is the structured plan data carried by a nutrition
// version.
type NutritionPlanPayload struct {
	DailyTargets MacroTargets `bson:"dailyTargets" json:"dailyTargets"`
	Meals        []Meal       `bson:"meals,omitempty" json:"meals,omitempty"`
}

// MacroTargets holds daily calorie and macro targets in kcal and grams.
type MacroTargets struct {
	Kcal     int `bson:"kcal" json:"kcal"`
	ProteinG int `bson:"proteinG" json:"proteinG"`
	CarbsG   int `bson:"carbsG" json:"carbsG"`
	FatG     int `bson:"fatG" json:"fatG"`
}

// Meal is an optional meal suggestion within a nutrition plan.
type Meal struct {
	Name        string `bson:"name" json:"name"`
	Description string `bson:"description,omitempty" json:"description,omitempty"`
	Kcal        int    `bson:"kcal,omitempty" json:"kcal,omitempty"`
}

// Clone returns a deep copy of the nutrition payload.
func (p *NutritionPlanPayload) Clone() *NutritionPlanPayload {
	if p == nil {
		return nil
	}
	out := &NutritionPlanPayload{DailyTargets: p.DailyTargets}
	if p.Meals != nil {
		out.Meals = make([]Meal, len(p.Meals))
		copy(out.Meals, p.Meals)
	}
	return out
}

// GoalPayload is the structured data carried by a goal version.
type GoalPayload struct {
	Title          string   `bson:"title" json:"title"`
	TargetWeightKg *float64 `bson:"targetWeightKg,omitempty" json:"targetWeightKg,omitempty"`
	TargetDate     *string  `bson:"targetDate,omitempty" json:"targetDate,omitempty"` // "YYYY-MM-DD"
	Notes          string   `bson:"notes,omitempty" json:"notes,omitempty"`
}
