package memory

import (
	"context"
	"sync"

	"github.com/felixgeelhaar/decision-go/domain/process"
)

// TemplateRepository is an in-memory implementation of
// process.TemplateRepository.
type TemplateRepository struct {
	mu        sync.RWMutex
	templates map[string]*process.Template
}

// NewTemplateRepository creates a new in-memory template repository.
func NewTemplateRepository() *TemplateRepository {
	return &TemplateRepository{
		templates: make(map[string]*process.Template),
	}
}

// Register stores a template, validating its structural invariants first.
func (r *TemplateRepository) Register(t *process.Template) error {
	if err := t.Validate(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.templates[t.ID] = t
	return nil
}

// Template returns the template with the given ID.
func (r *TemplateRepository) Template(_ context.Context, id string) (*process.Template, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, exists := r.templates[id]
	if !exists {
		return nil, process.ErrTemplateNotFound
	}
	return t, nil
}

var _ process.TemplateRepository = (*TemplateRepository)(nil)
