// Package memory provides in-memory storage implementations.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/felixgeelhaar/decision-go/domain/process"
)

// InstanceStore is an in-memory implementation of process.Store.
type InstanceStore struct {
	mu        sync.RWMutex
	instances map[string]*process.Instance
}

// NewInstanceStore creates a new in-memory instance store.
func NewInstanceStore() *InstanceStore {
	return &InstanceStore{
		instances: make(map[string]*process.Instance),
	}
}

// Save persists a new instance.
func (s *InstanceStore) Save(_ context.Context, instance *process.Instance) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if instance.ID == "" {
		return process.ErrInvalidInstanceID
	}

	if _, exists := s.instances[instance.ID]; exists {
		return process.ErrInstanceExists
	}

	s.instances[instance.ID] = copyInstance(instance)
	return nil
}

// Get retrieves an instance by ID.
func (s *InstanceStore) Get(_ context.Context, id string) (*process.Instance, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	instance, exists := s.instances[id]
	if !exists {
		return nil, process.ErrInstanceNotFound
	}
	return copyInstance(instance), nil
}

// Update updates an existing instance.
func (s *InstanceStore) Update(_ context.Context, instance *process.Instance) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if instance.ID == "" {
		return process.ErrInvalidInstanceID
	}
	if _, exists := s.instances[instance.ID]; !exists {
		return process.ErrInstanceNotFound
	}

	s.instances[instance.ID] = copyInstance(instance)
	return nil
}

// Delete removes an instance by ID.
func (s *InstanceStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.instances[id]; !exists {
		return process.ErrInstanceNotFound
	}
	delete(s.instances, id)
	return nil
}

// List returns instances matching the filter.
func (s *InstanceStore) List(_ context.Context, filter process.ListFilter) ([]*process.Instance, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var results []*process.Instance
	for _, instance := range s.instances {
		if !matchesInstanceFilter(instance, filter) {
			continue
		}
		results = append(results, copyInstance(instance))
	}

	sort.Slice(results, func(i, j int) bool {
		return results[i].ID < results[j].ID
	})

	if filter.Offset > 0 {
		if filter.Offset >= len(results) {
			return []*process.Instance{}, nil
		}
		results = results[filter.Offset:]
	}
	if filter.Limit > 0 && len(results) > filter.Limit {
		results = results[:filter.Limit]
	}
	return results, nil
}

// SetCurrentPhase moves the instance's current phase pointer. The target
// must be a phase of the instance.
func (s *InstanceStore) SetCurrentPhase(_ context.Context, id, phaseID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.setCurrentPhaseLocked(id, phaseID)
}

// setCurrentPhaseLocked is the lock-free variant used by the transition
// store's atomic apply. Callers must hold mu.
func (s *InstanceStore) setCurrentPhaseLocked(id, phaseID string) error {
	instance, exists := s.instances[id]
	if !exists {
		return process.ErrInstanceNotFound
	}
	if instance.PhaseIndex(phaseID) < 0 {
		return process.ErrUnknownPhase
	}

	instance.CurrentPhaseID = phaseID
	if instance.IsTerminal() {
		instance.Status = process.InstanceStatusEnded
	}
	return nil
}

func matchesInstanceFilter(instance *process.Instance, filter process.ListFilter) bool {
	if filter.TemplateID != "" && instance.TemplateID != filter.TemplateID {
		return false
	}
	if filter.ProfileID != "" && instance.ProfileID != filter.ProfileID {
		return false
	}
	if len(filter.Status) > 0 {
		found := false
		for _, status := range filter.Status {
			if instance.Status == status {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// copyInstance returns a deep copy so callers never share mutable state
// with the store.
func copyInstance(instance *process.Instance) *process.Instance {
	cloned := *instance
	cloned.Phases = make([]process.InstancePhase, len(instance.Phases))
	for i, phase := range instance.Phases {
		copied := phase
		if phase.StartDate != nil {
			start := *phase.StartDate
			copied.StartDate = &start
		}
		if phase.EndDate != nil {
			end := *phase.EndDate
			copied.EndDate = &end
		}
		if phase.Settings != nil {
			settings := make(map[string]any, len(phase.Settings))
			for k, v := range phase.Settings {
				settings[k] = v
			}
			copied.Settings = settings
		}
		if phase.Rules != nil {
			rules := phase.Rules.Clone()
			copied.Rules = &rules
		}
		cloned.Phases[i] = copied
	}
	cloned.ProposalSchema = instance.ProposalSchema.Clone()
	cloned.RubricSchema = instance.RubricSchema.Clone()
	return &cloned
}
