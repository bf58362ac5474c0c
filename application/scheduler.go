package application

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/felixgeelhaar/decision-go/domain/process"
	"github.com/felixgeelhaar/decision-go/domain/transition"
	"github.com/felixgeelhaar/decision-go/infrastructure/logging"
	"github.com/felixgeelhaar/decision-go/infrastructure/telemetry"
)

// ReconcileResult reports what a reconciliation changed.
type ReconcileResult struct {
	// Created is the number of transitions inserted.
	Created int `json:"created"`

	// Updated is the number of transitions whose date moved in place.
	Updated int `json:"updated"`

	// Deleted is the number of stale transitions removed.
	Deleted int `json:"deleted"`

	// Skipped is the number of completed transitions left untouched even
	// though the expected set no longer matches them.
	Skipped int `json:"skipped"`
}

// Scheduler keeps persisted scheduled transitions consistent with an
// instance's phase configuration.
type Scheduler struct {
	templates   process.TemplateRepository
	transitions transition.Store
	metrics     *telemetry.MetricsProvider
}

// NewScheduler creates a new transition scheduler. The template
// repository may be nil when instances carry complete rule overrides.
func NewScheduler(templates process.TemplateRepository, transitions transition.Store) *Scheduler {
	return &Scheduler{
		templates:   templates,
		transitions: transitions,
	}
}

// WithMetrics attaches a metrics provider to the scheduler.
func (s *Scheduler) WithMetrics(metrics *telemetry.MetricsProvider) *Scheduler {
	s.metrics = metrics
	return s
}

// expectedTransition is one entry of the expected set derived from the
// instance's phase configuration.
type expectedTransition struct {
	key  transition.Key
	date time.Time
}

// expectedTransitions walks the instance phases pairwise and derives the
// expected transition per adjacent pair whose earlier phase advances by
// date. A date-driven phase without an end date is an invalid
// configuration and fails the derivation. The last phase never produces
// a transition.
func (s *Scheduler) expectedTransitions(ctx context.Context, instance *process.Instance) ([]expectedTransition, error) {
	if err := instance.Validate(); err != nil {
		return nil, err
	}

	tmpl, err := s.template(ctx, instance.TemplateID)
	if err != nil {
		return nil, err
	}

	var expected []expectedTransition
	for i := 0; i+1 < len(instance.Phases); i++ {
		phase := &instance.Phases[i]

		var def *process.PhaseDefinition
		if tmpl != nil {
			def, _ = tmpl.Phase(phase.PhaseID)
		}

		adv := process.EffectiveAdvancement(phase, def)
		if adv.Method != process.MethodDate {
			continue
		}

		end := process.EffectiveEndDate(phase, def)
		if end == nil {
			return nil, fmt.Errorf("%w: instance %s phase %s",
				process.ErrMissingEndDate, instance.ID, phase.PhaseID)
		}

		expected = append(expected, expectedTransition{
			key: transition.Key{
				FromPhaseID: phase.PhaseID,
				ToPhaseID:   instance.Phases[i+1].PhaseID,
			},
			date: *end,
		})
	}
	return expected, nil
}

func (s *Scheduler) template(ctx context.Context, id string) (*process.Template, error) {
	if s.templates == nil || id == "" {
		return nil, nil
	}
	return s.templates.Template(ctx, id)
}

// CreateTransitions derives and persists the scheduled transitions for a
// freshly materialized instance.
func (s *Scheduler) CreateTransitions(ctx context.Context, instance *process.Instance) ([]*transition.ScheduledTransition, error) {
	expected, err := s.expectedTransitions(ctx, instance)
	if err != nil {
		return nil, err
	}

	created := make([]*transition.ScheduledTransition, 0, len(expected))
	for _, exp := range expected {
		t := &transition.ScheduledTransition{
			ID:                uuid.NewString(),
			ProcessInstanceID: instance.ID,
			FromPhaseID:       exp.key.FromPhaseID,
			ToPhaseID:         exp.key.ToPhaseID,
			ScheduledDate:     exp.date,
		}
		if err := s.transitions.Save(ctx, t); err != nil {
			return nil, fmt.Errorf("save transition %s -> %s: %w",
				t.FromPhaseID, t.ToPhaseID, err)
		}
		created = append(created, t)
	}

	logging.Info().
		Add(logging.Component("scheduler")).
		Add(logging.InstanceID(instance.ID)).
		Add(logging.Count("created", len(created))).
		Msg("scheduled transitions created")
	return created, nil
}

// ReconcileTransitions diffs the expected transition set against the
// persisted one, matched by (from, to) pair, and converges the store:
// inserts missing transitions, moves dates of uncompleted ones in place,
// and deletes uncompleted transitions no longer expected. Completed
// transitions are immutable history and are never touched. Inserts and
// deletes operate on disjoint key sets and run concurrently.
func (s *Scheduler) ReconcileTransitions(ctx context.Context, instance *process.Instance) (ReconcileResult, error) {
	var result ReconcileResult

	expected, err := s.expectedTransitions(ctx, instance)
	if err != nil {
		return result, err
	}

	existing, err := s.transitions.ListByInstance(ctx, instance.ID)
	if err != nil {
		return result, err
	}

	byKey := make(map[transition.Key]*transition.ScheduledTransition, len(existing))
	for _, t := range existing {
		byKey[t.Key()] = t
	}

	var toCreate []expectedTransition
	for _, exp := range expected {
		current, ok := byKey[exp.key]
		if !ok {
			toCreate = append(toCreate, exp)
			continue
		}
		if current.ScheduledDate.Equal(exp.date) {
			continue
		}
		if current.Completed() {
			// A completed phase's boundary cannot be retroactively moved.
			result.Skipped++
			continue
		}
		if err := s.transitions.UpdateDate(ctx, current.ID, exp.date); err != nil {
			return result, fmt.Errorf("update transition %s: %w", current.ID, err)
		}
		result.Updated++
	}

	expectedKeys := make(map[transition.Key]struct{}, len(expected))
	for _, exp := range expected {
		expectedKeys[exp.key] = struct{}{}
	}

	var toDelete []*transition.ScheduledTransition
	for _, t := range existing {
		if _, ok := expectedKeys[t.Key()]; ok {
			continue
		}
		if t.Completed() {
			result.Skipped++
			continue
		}
		toDelete = append(toDelete, t)
	}

	created, deleted, err := s.applyDiff(ctx, instance.ID, toCreate, toDelete)
	result.Created = created
	result.Deleted = deleted
	if err != nil {
		return result, err
	}

	if s.metrics != nil {
		s.metrics.RecordReconcile(ctx, result.Created, result.Updated, result.Deleted)
	}
	logging.Info().
		Add(logging.Component("scheduler")).
		Add(logging.InstanceID(instance.ID)).
		Add(logging.Count("created", result.Created)).
		Add(logging.Count("updated", result.Updated)).
		Add(logging.Count("deleted", result.Deleted)).
		Msg("transitions reconciled")
	return result, nil
}

// applyDiff runs the insert and delete groups concurrently. The two
// groups never share a (from, to) key, so no ordering between them is
// required; both must finish before reconciliation is done.
func (s *Scheduler) applyDiff(ctx context.Context, instanceID string, toCreate []expectedTransition, toDelete []*transition.ScheduledTransition) (created, deleted int, err error) {
	var wg sync.WaitGroup
	var mu sync.Mutex
	var firstErr error

	record := func(e error) {
		mu.Lock()
		defer mu.Unlock()
		if firstErr == nil {
			firstErr = e
		}
	}

	wg.Add(2)
	go func() {
		defer wg.Done()
		for _, exp := range toCreate {
			t := &transition.ScheduledTransition{
				ID:                uuid.NewString(),
				ProcessInstanceID: instanceID,
				FromPhaseID:       exp.key.FromPhaseID,
				ToPhaseID:         exp.key.ToPhaseID,
				ScheduledDate:     exp.date,
			}
			if saveErr := s.transitions.Save(ctx, t); saveErr != nil {
				record(fmt.Errorf("save transition %s -> %s: %w",
					t.FromPhaseID, t.ToPhaseID, saveErr))
				return
			}
			mu.Lock()
			created++
			mu.Unlock()
		}
	}()
	go func() {
		defer wg.Done()
		for _, t := range toDelete {
			if delErr := s.transitions.Delete(ctx, t.ID); delErr != nil {
				record(fmt.Errorf("delete transition %s: %w", t.ID, delErr))
				return
			}
			mu.Lock()
			deleted++
			mu.Unlock()
		}
	}()
	wg.Wait()

	return created, deleted, firstErr
}
