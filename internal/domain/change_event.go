package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ChangeEventType classifies audit entries for user-facing history.
type ChangeEventType string

const (
	ChangePlanEdit      ChangeEventType = "PLAN_EDIT"
	ChangeNutritionEdit ChangeEventType = "NUTRITION_EDIT"
	ChangeGoalEdit      ChangeEventType = "GOAL_EDIT"
)

// ChangeEvent is one row of the append-only audit log, written once per
// successful materialization and never modified.
type ChangeEvent struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID    primitive.ObjectID `bson:"userId" json:"userId"`
	Type      ChangeEventType    `bson:"type" json:"type"`
	Summary   string             `bson:"summary" json:"summary"`
	RefID     primitive.ObjectID `bson:"refId" json:"refId"` // the PlanVersion this entry describes
	Actor     string             `bson:"actor,omitempty" json:"actor,omitempty"`
	Before    *int               `bson:"before,omitempty" json:"before,omitempty"` // superseded version number
	After     *int               `bson:"after,omitempty" json:"after,omitempty"`  // new version number
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
}
