package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Pointer is the per-user registry record naming the currently-active
// version for each plan type. It is the only mutable piece of the version
// machinery: old versions are never touched, they are superseded by
// reassigning these references.
//
// LastEventAt doubles as the dirty marker consumed by the Reconciler: any
// domain event for the user advances it, so a user whose LastEventAt falls
// inside the reconciliation window may have a stale snapshot.
type Pointer struct {
	ID                 primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	UserID             primitive.ObjectID  `bson:"userId" json:"userId"`
	TrainingVersionID  *primitive.ObjectID `bson:"trainingVersionId,omitempty" json:"trainingVersionId,omitempty"`
	NutritionVersionID *primitive.ObjectID `bson:"nutritionVersionId,omitempty" json:"nutritionVersionId,omitempty"`
	GoalVersionID      *primitive.ObjectID `bson:"goalVersionId,omitempty" json:"goalVersionId,omitempty"`
	LastEventAt        time.Time           `bson:"lastEventAt" json:"lastEventAt"`
	SnapshotUpdatedAt  time.Time           `bson:"snapshotUpdatedAt,omitempty" json:"snapshotUpdatedAt,omitempty"`
}

// CurrentVersionID returns the version reference for the given plan type,
// or nil when that slot is unset.
func (p *Pointer) CurrentVersionID(planType PlanType) *primitive.ObjectID {
	if p == nil {
		return nil
	}
	switch planType {
	case PlanTypeTraining:
		return p.TrainingVersionID
	case PlanTypeNutrition:
		return p.NutritionVersionID
	case PlanTypeGoal:
		return p.GoalVersionID
	}
	return nil
}
