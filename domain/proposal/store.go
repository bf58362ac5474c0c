package proposal

import "context"

// Store defines the interface for proposal persistence.
type Store interface {
	// Save persists a new proposal.
	Save(ctx context.Context, p *Proposal) error

	// Get retrieves a proposal by ID.
	Get(ctx context.Context, id string) (*Proposal, error)

	// Update updates an existing proposal.
	Update(ctx context.Context, p *Proposal) error

	// List returns proposals matching the filter.
	List(ctx context.Context, filter ListFilter) ([]*Proposal, error)
}

// ListFilter specifies criteria for listing proposals.
type ListFilter struct {
	// ProcessInstanceID filters by owning instance (empty means all).
	ProcessInstanceID string

	// Status filters by proposal status (empty means all).
	Status []Status

	// Limit is the maximum number of proposals to return (0 = no limit).
	Limit int

	// Offset is the number of proposals to skip for pagination.
	Offset int
}
