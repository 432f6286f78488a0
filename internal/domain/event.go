package domain

import (
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// EventType tags the in-process domain event union.
type EventType string

const (
	EventPlanUpdated      EventType = "PLAN_UPDATED"
	EventNutritionUpdated EventType = "NUTRITION_UPDATED"
	EventWeightLogged     EventType = "WEIGHT_LOGGED"
	EventWeightDeleted    EventType = "WEIGHT_DELETED"
	EventWorkoutLogged    EventType = "WORKOUT_LOGGED"
)

// Event is the tagged union dispatched after a successful write to a
// source-of-truth table. Events are not persisted or retried; they only
// drive best-effort snapshot maintenance, with the Reconciler as backstop.
// Date and Kg are meaningful only for the event types that carry them.
type Event struct {
	ID     string             `json:"id"` // correlation id for logs
	Type   EventType          `json:"type"`
	UserID primitive.ObjectID `json:"userId"`
	Date   string             `json:"date,omitempty"`
	Kg     float64            `json:"kg,omitempty"`
	At     time.Time          `json:"at"`
}

func newEvent(t EventType, userID primitive.ObjectID) Event {
	return Event{
		ID:     uuid.NewString(),
		Type:   t,
		UserID: userID,
		At:     time.Now().UTC(),
	}
}

// NewPlanUpdated announces that the current training version changed.
func NewPlanUpdated(userID primitive.ObjectID) Event {
	return newEvent(EventPlanUpdated, userID)
}

// NewNutritionUpdated announces that the current nutrition version changed.
func NewNutritionUpdated(userID primitive.ObjectID) Event {
	return newEvent(EventNutritionUpdated, userID)
}

// NewWeightLogged announces a weight upsert for a date.
func NewWeightLogged(userID primitive.ObjectID, date string, kg float64) Event {
	e := newEvent(EventWeightLogged, userID)
	e.Date = date
	e.Kg = kg
	return e
}

// NewWeightDeleted announces a weight removal for a date.
func NewWeightDeleted(userID primitive.ObjectID, date string) Event {
	e := newEvent(EventWeightDeleted, userID)
	e.Date = date
	return e
}

// NewWorkoutLogged announces a workout log for a date.
func NewWorkoutLogged(userID primitive.ObjectID, date string) Event {
	e := newEvent(EventWorkoutLogged, userID)
	e.Date = date
	return e
}
