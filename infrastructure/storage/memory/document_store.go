package memory

import (
	"context"
	"sync"

	"github.com/felixgeelhaar/decision-go/domain/collab"
)

// DocumentStore is an in-memory implementation of collab.DocumentStore,
// used in tests and single-node deployments without a collaboration
// service. Missing documents and fragments yield absent keys, matching
// the external store's contract.
type DocumentStore struct {
	mu        sync.RWMutex
	documents map[string]map[string]string

	// FailWith, when set, makes every fetch fail with the given error.
	// Tests use it to exercise fail-closed behavior.
	FailWith error
}

// NewDocumentStore creates a new in-memory document store.
func NewDocumentStore() *DocumentStore {
	return &DocumentStore{
		documents: make(map[string]map[string]string),
	}
}

// SetFragment stores the text content of one fragment of a document.
func (s *DocumentStore) SetFragment(docID, key, text string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, exists := s.documents[docID]
	if !exists {
		doc = make(map[string]string)
		s.documents[docID] = doc
	}
	doc[key] = text
}

// FetchFragments returns the stored fragments for the requested keys.
func (s *DocumentStore) FetchFragments(_ context.Context, docID string, keys []string) (map[string]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.FailWith != nil {
		return nil, s.FailWith
	}

	doc, exists := s.documents[docID]
	if !exists {
		return map[string]string{}, nil
	}

	fragments := make(map[string]string, len(keys))
	for _, key := range keys {
		if text, ok := doc[key]; ok {
			fragments[key] = text
		}
	}
	return fragments, nil
}

var _ collab.DocumentStore = (*DocumentStore)(nil)
