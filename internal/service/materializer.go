package service

import (
	"alcyxob/coach-engine/internal/domain"
	"alcyxob/coach-engine/internal/patch"
	"alcyxob/coach-engine/internal/repository"
	"context"
	"errors"
	"log"
	"strings"
)

// DefaultVersionRetries bounds the numbering retry loop. The race window
// is a single read+write, so a handful of immediate retries is plenty.
const DefaultVersionRetries = 3

// MaterializeResult is returned to the caller of every successful
// materialization. Message is the reason summary, usable verbatim as a
// confirmation message.
type MaterializeResult struct {
	ID      string `json:"id"`
	Version int    `json:"version"`
	Message string `json:"message"`
}

// Materializer turns a prepared plan payload into a persisted immutable
// version: it allocates the next version number, writes the version,
// advances the pointer, appends the audit entry, and publishes the domain
// event. It is the only component that advances a pointer slot.
type Materializer struct {
	versions   repository.PlanVersionRepository
	pointers   repository.PointerRepository
	changes    repository.ChangeEventRepository
	dispatcher *Dispatcher
	maxRetries int
}

// NewMaterializer creates a Materializer. retries <= 0 selects
// DefaultVersionRetries.
func NewMaterializer(
	versions repository.PlanVersionRepository,
	pointers repository.PointerRepository,
	changes repository.ChangeEventRepository,
	dispatcher *Dispatcher,
	retries int,
) *Materializer {
	if retries <= 0 {
		retries = DefaultVersionRetries
	}
	return &Materializer{
		versions:   versions,
		pointers:   pointers,
		changes:    changes,
		dispatcher: dispatcher,
		maxRetries: retries,
	}
}

// reasonText flattens a patch reason into the version's audit text.
func reasonText(r patch.Reason) string {
	if len(r.Bullets) == 0 {
		return r.Summary
	}
	return r.Summary + "\n- " + strings.Join(r.Bullets, "\n- ")
}

func changeTypeFor(planType domain.PlanType) domain.ChangeEventType {
	switch planType {
	case domain.PlanTypeNutrition:
		return domain.ChangeNutritionEdit
	case domain.PlanTypeGoal:
		return domain.ChangeGoalEdit
	default:
		return domain.ChangePlanEdit
	}
}

// Materialize persists v as the next version of its chain and makes it
// current. v.Version is assigned here; everything else must be filled in
// by the caller. summary becomes the result message and the audit summary.
//
// Numbering is read-max-then-increment. A concurrent writer claiming the
// same number trips the store's uniqueness constraint, which surfaces as
// repository.ErrDuplicate and is retried with a fresh read; a collision is
// never resolved by overwrite.
func (m *Materializer) Materialize(ctx context.Context, v *domain.PlanVersion, summary string) (*MaterializeResult, error) {
	var previous int
	created := false
	for attempt := 0; attempt < m.maxRetries; attempt++ {
		latest, err := m.versions.LatestVersion(ctx, v.UserID, v.PlanType)
		if err != nil {
			return nil, err
		}
		previous = latest
		v.Version = latest + 1

		if _, err := m.versions.Create(ctx, v); err != nil {
			if errors.Is(err, repository.ErrDuplicate) {
				continue
			}
			return nil, err
		}
		created = true
		break
	}
	if !created {
		return nil, ErrVersionConflict
	}

	// The version now exists. If the pointer update below fails we are in
	// the accepted partial state: the row is orphaned until the next
	// materialization numbers past it, and the snapshot stays true to the
	// still-pointed version. No rollback.
	if err := m.pointers.SetCurrentVersion(ctx, v.UserID, v.PlanType, v.ID); err != nil {
		return nil, err
	}

	event := &domain.ChangeEvent{
		UserID:  v.UserID,
		Type:    changeTypeFor(v.PlanType),
		Summary: summary,
		RefID:   v.ID,
		Actor:   string(v.Source),
		After:   &v.Version,
	}
	if previous > 0 {
		prev := previous
		event.Before = &prev
	}
	if _, err := m.changes.Append(ctx, event); err != nil {
		return nil, err
	}

	// Best-effort: a failed dispatch leaves the snapshot stale until the
	// next reconciliation pass, never a failed action.
	var domainEvent *domain.Event
	switch v.PlanType {
	case domain.PlanTypeTraining:
		e := domain.NewPlanUpdated(v.UserID)
		domainEvent = &e
	case domain.PlanTypeNutrition:
		e := domain.NewNutritionUpdated(v.UserID)
		domainEvent = &e
	}
	if domainEvent != nil {
		if err := m.dispatcher.Dispatch(ctx, *domainEvent); err != nil {
			log.Printf("WARN: dispatch %s (event %s) for user %s: %v",
				domainEvent.Type, domainEvent.ID, v.UserID.Hex(), err)
		}
	}

	return &MaterializeResult{
		ID:      v.ID.Hex(),
		Version: v.Version,
		Message: summary,
	}, nil
}
