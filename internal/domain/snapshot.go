package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// DayFormat is the canonical date-key layout for weight entries, workout
// logs and snapshot series. Lexicographic order equals chronological order.
const DayFormat = "2006-01-02"

// Snapshot is the denormalized per-user read cache. It is fully derivable
// from PlanVersion + WeightEntry + WorkoutLog rows and may be deleted and
// regenerated at any time with zero information loss.
type Snapshot struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID       primitive.ObjectID `bson:"userId" json:"userId"`
	WeightSeries []WeightPoint      `bson:"weightSeries" json:"weightSeries"`
	Training     TrainingSummary    `bson:"trainingPlanSummary" json:"trainingPlanSummary"`
	Nutrition    NutritionSummary   `bson:"nutritionSummary" json:"nutritionSummary"`
	KPIs         KPISet             `bson:"kpis" json:"kpis"`
	UpdatedAt    time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// WeightPoint is one measurement in the snapshot's weight series, unique
// by date and kept sorted ascending.
type WeightPoint struct {
	Date string  `bson:"date" json:"date"` // "YYYY-MM-DD"
	Kg   float64 `bson:"kg" json:"kg"`
}

// TrainingSummary condenses the currently-pointed training version.
type TrainingSummary struct {
	DaysPerWeek int `bson:"daysPerWeek" json:"daysPerWeek"`
}

// NutritionSummary condenses the currently-pointed nutrition version.
type NutritionSummary struct {
	Kcal     int `bson:"kcal" json:"kcal"`
	ProteinG int `bson:"proteinG" json:"proteinG"`
	CarbsG   int `bson:"carbsG" json:"carbsG"`
	FatG     int `bson:"fatG" json:"fatG"`
}

// KPISet carries the derived status indicators shown on the user's
// dashboard.
type KPISet struct {
	NextWorkout *string `bson:"nextWorkout,omitempty" json:"nextWorkout,omitempty"` // day label, unset when no day has exercises
	Adherence7d float64 `bson:"adherence7d" json:"adherence7d"`                     // [0,1]
	LastCheckIn *string `bson:"lastCheckIn,omitempty" json:"lastCheckIn,omitempty"` // "YYYY-MM-DD"
}

// NewSnapshot returns an empty snapshot for the user, used when an
// incremental updater fires before any snapshot exists.
func NewSnapshot(userID primitive.ObjectID) *Snapshot {
	return &Snapshot{
		UserID:       userID,
		WeightSeries: []WeightPoint{},
	}
}
