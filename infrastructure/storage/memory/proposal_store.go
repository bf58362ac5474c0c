package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/felixgeelhaar/decision-go/domain/proposal"
)

// ProposalStore is an in-memory implementation of proposal.Store.
type ProposalStore struct {
	mu        sync.RWMutex
	proposals map[string]*proposal.Proposal
}

// NewProposalStore creates a new in-memory proposal store.
func NewProposalStore() *ProposalStore {
	return &ProposalStore{
		proposals: make(map[string]*proposal.Proposal),
	}
}

// Save persists a new proposal.
func (s *ProposalStore) Save(_ context.Context, p *proposal.Proposal) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if p.ID == "" {
		return proposal.ErrInvalidProposal
	}
	if _, exists := s.proposals[p.ID]; exists {
		return proposal.ErrProposalExists
	}

	s.proposals[p.ID] = copyProposal(p)
	return nil
}

// Get retrieves a proposal by ID.
func (s *ProposalStore) Get(_ context.Context, id string) (*proposal.Proposal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, exists := s.proposals[id]
	if !exists {
		return nil, proposal.ErrProposalNotFound
	}
	return copyProposal(p), nil
}

// Update updates an existing proposal.
func (s *ProposalStore) Update(_ context.Context, p *proposal.Proposal) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if p.ID == "" {
		return proposal.ErrInvalidProposal
	}
	if _, exists := s.proposals[p.ID]; !exists {
		return proposal.ErrProposalNotFound
	}

	s.proposals[p.ID] = copyProposal(p)
	return nil
}

// List returns proposals matching the filter.
func (s *ProposalStore) List(_ context.Context, filter proposal.ListFilter) ([]*proposal.Proposal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var results []*proposal.Proposal
	for _, p := range s.proposals {
		if !matchesProposalFilter(p, filter) {
			continue
		}
		results = append(results, copyProposal(p))
	}

	sort.Slice(results, func(i, j int) bool {
		return results[i].ID < results[j].ID
	})

	if filter.Offset > 0 {
		if filter.Offset >= len(results) {
			return []*proposal.Proposal{}, nil
		}
		results = results[filter.Offset:]
	}
	if filter.Limit > 0 && len(results) > filter.Limit {
		results = results[:filter.Limit]
	}
	return results, nil
}

func matchesProposalFilter(p *proposal.Proposal, filter proposal.ListFilter) bool {
	if filter.ProcessInstanceID != "" && p.ProcessInstanceID != filter.ProcessInstanceID {
		return false
	}
	if len(filter.Status) > 0 {
		found := false
		for _, status := range filter.Status {
			if p.Status == status {
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

func copyProposal(p *proposal.Proposal) *proposal.Proposal {
	cloned := *p
	if p.Data != nil {
		data := make(map[string]any, len(p.Data))
		for k, v := range p.Data {
			data[k] = v
		}
		cloned.Data = data
	}
	return &cloned
}

var _ proposal.Store = (*ProposalStore)(nil)
