// Package collab defines the boundary to the external collaborative
// document store holding proposal rich-text content.
package collab

import (
	"context"
	"errors"
)

// DocumentStore fetches the plain-text content of named fragments of a
// collaborative document. A missing document or fragment yields absent
// keys in the result, never an error — only transport failure is an error.
type DocumentStore interface {
	// FetchFragments returns the text fragments of document docID for the
	// requested keys. Keys with no content are omitted from the result.
	FetchFragments(ctx context.Context, docID string, keys []string) (map[string]string, error)
}

// ErrDocumentUnavailable is returned when the document store cannot be
// reached. Callers verifying proposal content must fail closed on it.
var ErrDocumentUnavailable = errors.New("collaborative document store unavailable")
