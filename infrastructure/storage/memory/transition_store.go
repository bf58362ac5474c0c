package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/felixgeelhaar/decision-go/domain/transition"
)

// TransitionStore is an in-memory implementation of transition.Store and
// transition.Applier. It holds a reference to the instance store so Apply
// can move the instance's phase and stamp the transition in one step.
type TransitionStore struct {
	mu          sync.Mutex
	transitions map[string]*transition.ScheduledTransition
	instances   *InstanceStore
}

// NewTransitionStore creates a new in-memory transition store backed by
// the given instance store.
func NewTransitionStore(instances *InstanceStore) *TransitionStore {
	return &TransitionStore{
		transitions: make(map[string]*transition.ScheduledTransition),
		instances:   instances,
	}
}

// Save persists a new transition. The (from, to) pair must be unique
// within the instance.
func (s *TransitionStore) Save(_ context.Context, t *transition.ScheduledTransition) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if t.ID == "" || t.ProcessInstanceID == "" || t.FromPhaseID == "" || t.ToPhaseID == "" || t.ScheduledDate.IsZero() {
		return transition.ErrInvalidTransition
	}
	if _, exists := s.transitions[t.ID]; exists {
		return transition.ErrTransitionExists
	}
	for _, existing := range s.transitions {
		if existing.ProcessInstanceID == t.ProcessInstanceID && existing.Key() == t.Key() {
			return transition.ErrTransitionExists
		}
	}

	s.transitions[t.ID] = copyTransition(t)
	return nil
}

// Get retrieves a transition by ID.
func (s *TransitionStore) Get(_ context.Context, id string) (*transition.ScheduledTransition, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, exists := s.transitions[id]
	if !exists {
		return nil, transition.ErrTransitionNotFound
	}
	return copyTransition(t), nil
}

// UpdateDate moves an uncompleted transition's scheduled date.
func (s *TransitionStore) UpdateDate(_ context.Context, id string, date time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, exists := s.transitions[id]
	if !exists {
		return transition.ErrTransitionNotFound
	}
	if t.Completed() {
		return transition.ErrCompletedImmutable
	}

	t.ScheduledDate = date
	return nil
}

// Delete removes an uncompleted transition.
func (s *TransitionStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, exists := s.transitions[id]
	if !exists {
		return transition.ErrTransitionNotFound
	}
	if t.Completed() {
		return transition.ErrCompletedImmutable
	}

	delete(s.transitions, id)
	return nil
}

// ListByInstance returns all transitions for a process instance, ordered
// by scheduled date ascending.
func (s *TransitionStore) ListByInstance(_ context.Context, instanceID string) ([]*transition.ScheduledTransition, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var results []*transition.ScheduledTransition
	for _, t := range s.transitions {
		if t.ProcessInstanceID == instanceID {
			results = append(results, copyTransition(t))
		}
	}
	sortByDate(results)
	return results, nil
}

// ListDue returns uncompleted transitions due at now, ordered by scheduled
// date ascending.
func (s *TransitionStore) ListDue(_ context.Context, now time.Time, limit int) ([]*transition.ScheduledTransition, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var results []*transition.ScheduledTransition
	for _, t := range s.transitions {
		if t.Due(now) {
			results = append(results, copyTransition(t))
		}
	}
	sortByDate(results)

	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

// Apply atomically moves the owning instance to the transition's target
// phase and stamps the transition completed. An already-completed
// transition returns ErrAlreadyCompleted untouched.
func (s *TransitionStore) Apply(_ context.Context, t *transition.ScheduledTransition, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, exists := s.transitions[t.ID]
	if !exists {
		return transition.ErrTransitionNotFound
	}
	if stored.Completed() {
		return transition.ErrAlreadyCompleted
	}

	s.instances.mu.Lock()
	err := s.instances.setCurrentPhaseLocked(stored.ProcessInstanceID, stored.ToPhaseID)
	s.instances.mu.Unlock()
	if err != nil {
		return err
	}

	completed := now
	stored.CompletedAt = &completed
	return nil
}

func sortByDate(transitions []*transition.ScheduledTransition) {
	sort.Slice(transitions, func(i, j int) bool {
		if transitions[i].ScheduledDate.Equal(transitions[j].ScheduledDate) {
			return transitions[i].ID < transitions[j].ID
		}
		return transitions[i].ScheduledDate.Before(transitions[j].ScheduledDate)
	})
}

func copyTransition(t *transition.ScheduledTransition) *transition.ScheduledTransition {
	cloned := *t
	if t.CompletedAt != nil {
		completed := *t.CompletedAt
		cloned.CompletedAt = &completed
	}
	return &cloned
}

var (
	_ transition.Store   = (*TransitionStore)(nil)
	_ transition.Applier = (*TransitionStore)(nil)
)
