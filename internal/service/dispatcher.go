package service

import (
	"alcyxob/coach-engine/internal/domain"
	"alcyxob/coach-engine/internal/repository"
	"context"
	"fmt"
	"time"
)

// Dispatcher is the single entry point for domain events. Dispatch is
// synchronous and in-process: events are not persisted or retried, so a
// crash between a source-of-truth write and dispatch leaves the snapshot
// stale until the next reconciliation pass. That bounded-staleness window
// is intentional.
type Dispatcher struct {
	pointers repository.PointerRepository
	updater  *Updater
	now      func() time.Time
}

// NewDispatcher creates a Dispatcher.
func NewDispatcher(pointers repository.PointerRepository, updater *Updater) *Dispatcher {
	return &Dispatcher{
		pointers: pointers,
		updater:  updater,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Dispatch marks the user dirty, then routes the event to its incremental
// updater. The dirty mark comes first and is unconditional: the Reconciler
// must see activity even when the best-effort snapshot mutation fails.
func (d *Dispatcher) Dispatch(ctx context.Context, event domain.Event) error {
	if err := d.pointers.TouchLastEvent(ctx, event.UserID, d.now()); err != nil {
		return fmt.Errorf("mark user dirty: %w", err)
	}

	switch event.Type {
	case domain.EventPlanUpdated:
		return d.updater.OnPlanUpdated(ctx, event.UserID)
	case domain.EventNutritionUpdated:
		return d.updater.OnNutritionUpdated(ctx, event.UserID)
	case domain.EventWeightLogged:
		return d.updater.OnWeightLogged(ctx, event.UserID, event.Date, event.Kg)
	case domain.EventWeightDeleted:
		return d.updater.OnWeightDeleted(ctx, event.UserID, event.Date)
	case domain.EventWorkoutLogged:
		return d.updater.OnWorkoutLogged(ctx, event.UserID, event.Date)
	default:
		return fmt.Errorf("unknown event type %q", event.Type)
	}
}
