package service

// In-memory repository fakes used across the service tests. They mirror
// the mongo implementations' contracts: duplicate detection on the
// version triple, upsert-by-key semantics, sorted reads.

import (
	"alcyxob/coach-engine/internal/domain"
	"alcyxob/coach-engine/internal/repository"
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// --- PlanVersionRepository ---

type memVersions struct {
	mu sync.Mutex
	rows []*domain.PlanVersion
	// forceDuplicates injects N artificial duplicate-key failures to
	// exercise the numbering retry loop.
	forceDuplicates int
}

func (m *memVersions) Create(_ context.Context, v *domain.PlanVersion) (primitive.ObjectID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.forceDuplicates > 0 {
		m.forceDuplicates--
		return primitive.NilObjectID, repository.ErrDuplicate
	}
	for _, row := range m.rows {
		if row.UserID == v.UserID && row.PlanType == v.PlanType && row.Version == v.Version {
			return primitive.NilObjectID, repository.ErrDuplicate
		}
	}
	v.ID = primitive.NewObjectID()
	v.CreatedAt = time.Now().UTC()
	cp := *v
	m.rows = append(m.rows, &cp)
	return v.ID, nil
}

func (m *memVersions) GetByID(_ context.Context, id primitive.ObjectID) (*domain.PlanVersion, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, row := range m.rows {
		if row.ID == id {
			cp := *row
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *memVersions) LatestVersion(_ context.Context, userID primitive.ObjectID, planType domain.PlanType) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	latest := 0
	for _, row := range m.rows {
		if row.UserID == userID && row.PlanType == planType && row.Version > latest {
			latest = row.Version
		}
	}
	return latest, nil
}

func (m *memVersions) ListByUser(_ context.Context, userID primitive.ObjectID, planType domain.PlanType, limit int) ([]domain.PlanVersion, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.PlanVersion
	for _, row := range m.rows {
		if row.UserID == userID && row.PlanType == planType {
			out = append(out, *row)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Version > out[j].Version })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memVersions) count(userID primitive.ObjectID, planType domain.PlanType) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, row := range m.rows {
		if row.UserID == userID && row.PlanType == planType {
			n++
		}
	}
	return n
}

// --- PointerRepository ---

type memPointers struct {
	mu             sync.Mutex
	rows           map[primitive.ObjectID]*domain.Pointer
	failSetCurrent bool
}

func newMemPointers() *memPointers {
	return &memPointers{rows: map[primitive.ObjectID]*domain.Pointer{}}
}

func (m *memPointers) upsert(userID primitive.ObjectID) *domain.Pointer {
	p, ok := m.rows[userID]
	if !ok {
		p = &domain.Pointer{ID: primitive.NewObjectID(), UserID: userID}
		m.rows[userID] = p
	}
	return p
}

func (m *memPointers) GetByUserID(_ context.Context, userID primitive.ObjectID) (*domain.Pointer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.rows[userID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *memPointers) SetCurrentVersion(_ context.Context, userID primitive.ObjectID, planType domain.PlanType, versionID primitive.ObjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failSetCurrent {
		return errors.New("pointer store down")
	}
	p := m.upsert(userID)
	ref := versionID
	switch planType {
	case domain.PlanTypeTraining:
		p.TrainingVersionID = &ref
	case domain.PlanTypeNutrition:
		p.NutritionVersionID = &ref
	case domain.PlanTypeGoal:
		p.GoalVersionID = &ref
	}
	return nil
}

func (m *memPointers) TouchLastEvent(_ context.Context, userID primitive.ObjectID, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.upsert(userID).LastEventAt = at.UTC()
	return nil
}

func (m *memPointers) SetSnapshotUpdatedAt(_ context.Context, userID primitive.ObjectID, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.upsert(userID).SnapshotUpdatedAt = at.UTC()
	return nil
}

func (m *memPointers) FindActiveSince(_ context.Context, since time.Time) ([]domain.Pointer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Pointer
	for _, p := range m.rows {
		if !p.LastEventAt.Before(since) {
			out = append(out, *p)
		}
	}
	return out, nil
}

// --- SnapshotRepository ---

type memSnapshots struct {
	mu   sync.Mutex
	rows map[primitive.ObjectID]*domain.Snapshot
	// failFor simulates a per-user store failure during Save.
	failFor map[primitive.ObjectID]bool
}

func newMemSnapshots() *memSnapshots {
	return &memSnapshots{
		rows:    map[primitive.ObjectID]*domain.Snapshot{},
		failFor: map[primitive.ObjectID]bool{},
	}
}

func cloneSnapshot(s *domain.Snapshot) *domain.Snapshot {
	cp := *s
	cp.WeightSeries = append([]domain.WeightPoint(nil), s.WeightSeries...)
	if s.KPIs.NextWorkout != nil {
		v := *s.KPIs.NextWorkout
		cp.KPIs.NextWorkout = &v
	}
	if s.KPIs.LastCheckIn != nil {
		v := *s.KPIs.LastCheckIn
		cp.KPIs.LastCheckIn = &v
	}
	return &cp
}

func (m *memSnapshots) GetByUserID(_ context.Context, userID primitive.ObjectID) (*domain.Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.rows[userID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return cloneSnapshot(s), nil
}

func (m *memSnapshots) Save(_ context.Context, snapshot *domain.Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failFor[snapshot.UserID] {
		return errors.New("snapshot store down")
	}
	snapshot.UpdatedAt = time.Now().UTC()
	m.rows[snapshot.UserID] = cloneSnapshot(snapshot)
	return nil
}

func (m *memSnapshots) Delete(_ context.Context, userID primitive.ObjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.rows, userID)
	return nil
}

// --- ChangeEventRepository ---

type memChanges struct {
	mu   sync.Mutex
	rows []domain.ChangeEvent
}

func (m *memChanges) Append(_ context.Context, event *domain.ChangeEvent) (primitive.ObjectID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	event.ID = primitive.NewObjectID()
	event.CreatedAt = time.Now().UTC()
	m.rows = append(m.rows, *event)
	return event.ID, nil
}

func (m *memChanges) ListByUser(_ context.Context, userID primitive.ObjectID, limit int) ([]domain.ChangeEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.ChangeEvent
	for i := len(m.rows) - 1; i >= 0; i-- {
		if m.rows[i].UserID == userID {
			out = append(out, m.rows[i])
			if limit > 0 && len(out) == limit {
				break
			}
		}
	}
	return out, nil
}

// --- WeightEntryRepository ---

type memWeights struct {
	mu   sync.Mutex
	rows map[primitive.ObjectID]map[string]float64 // userID -> date -> kg
}

func newMemWeights() *memWeights {
	return &memWeights{rows: map[primitive.ObjectID]map[string]float64{}}
}

func (m *memWeights) Upsert(_ context.Context, entry *domain.WeightEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	byDate, ok := m.rows[entry.UserID]
	if !ok {
		byDate = map[string]float64{}
		m.rows[entry.UserID] = byDate
	}
	byDate[entry.Date] = entry.Kg
	return nil
}

func (m *memWeights) Delete(_ context.Context, userID primitive.ObjectID, date string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.rows[userID], date)
	return nil
}

func (m *memWeights) ListByUser(_ context.Context, userID primitive.ObjectID) ([]domain.WeightEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.WeightEntry
	for date, kg := range m.rows[userID] {
		out = append(out, domain.WeightEntry{UserID: userID, Date: date, Kg: kg})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out, nil
}

// --- WorkoutLogRepository ---

type memWorkouts struct {
	mu   sync.Mutex
	rows map[primitive.ObjectID]map[string]string // userID -> date -> notes
}

func newMemWorkouts() *memWorkouts {
	return &memWorkouts{rows: map[primitive.ObjectID]map[string]string{}}
}

func (m *memWorkouts) Upsert(_ context.Context, entry *domain.WorkoutLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	byDate, ok := m.rows[entry.UserID]
	if !ok {
		byDate = map[string]string{}
		m.rows[entry.UserID] = byDate
	}
	byDate[entry.Date] = entry.Notes
	return nil
}

func (m *memWorkouts) list(userID primitive.ObjectID, since string) []domain.WorkoutLog {
	var out []domain.WorkoutLog
	for date, notes := range m.rows[userID] {
		if date >= since {
			out = append(out, domain.WorkoutLog{UserID: userID, Date: date, Notes: notes})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out
}

func (m *memWorkouts) ListSince(_ context.Context, userID primitive.ObjectID, since string) ([]domain.WorkoutLog, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.list(userID, since), nil
}

func (m *memWorkouts) ListByUser(_ context.Context, userID primitive.ObjectID) ([]domain.WorkoutLog, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.list(userID, ""), nil
}

// --- Wiring helper ---

// testEngine wires the full engine over the fakes with a fixed clock.
type testEngine struct {
	versions  *memVersions
	pointers  *memPointers
	snapshots *memSnapshots
	changes   *memChanges
	weights   *memWeights
	workouts  *memWorkouts

	updater      *Updater
	dispatcher   *Dispatcher
	materializer *Materializer
	coach        CoachService
	reconciler   *Reconciler
}

// testNow is a Wednesday; the scenario dates in the tests are chosen
// around it.
var testNow = time.Date(2025, 8, 20, 12, 0, 0, 0, time.UTC)

func newTestEngine() *testEngine {
	e := &testEngine{
		versions:  &memVersions{},
		pointers:  newMemPointers(),
		snapshots: newMemSnapshots(),
		changes:   &memChanges{},
		weights:   newMemWeights(),
		workouts:  newMemWorkouts(),
	}
	e.updater = NewUpdater(e.snapshots, e.pointers, e.versions, e.workouts)
	e.updater.now = func() time.Time { return testNow }
	e.dispatcher = NewDispatcher(e.pointers, e.updater)
	e.dispatcher.now = func() time.Time { return testNow }
	e.materializer = NewMaterializer(e.versions, e.pointers, e.changes, e.dispatcher, 3)
	e.coach = NewCoachService(e.versions, e.pointers, e.weights, e.workouts, e.materializer, e.dispatcher)
	e.reconciler = NewReconciler(e.pointers, e.versions, e.snapshots, e.weights, e.workouts, ReconcilerConfig{})
	e.reconciler.now = func() time.Time { return testNow }
	return e
}

// threeDayPlan is the canonical Push/Pull/Legs split on Mon/Wed/Fri.
func threeDayPlan() []domain.TrainingDay {
	return []domain.TrainingDay{
		{Label: "Push", Weekday: 1, Exercises: []domain.Exercise{{Name: "Bench Press", Sets: 4, Reps: "6-10"}}},
		{Label: "Pull", Weekday: 3, Exercises: []domain.Exercise{{Name: "Barbell Row", Sets: 4, Reps: "6-10"}}},
		{Label: "Legs", Weekday: 5, Exercises: []domain.Exercise{{Name: "Squat", Sets: 4, Reps: "6-10"}}},
	}
}
