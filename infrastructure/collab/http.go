package collab

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	domaincollab "github.com/felixgeelhaar/decision-go/domain/collab"
)

// HTTPStore fetches document fragments from the collaborative document
// service over HTTP.
type HTTPStore struct {
	baseURL string
	client  *http.Client
}

// HTTPConfig configures the HTTP document store.
type HTTPConfig struct {
	// BaseURL is the document service endpoint.
	BaseURL string

	// Timeout bounds a single request (default: 10s).
	Timeout time.Duration
}

// NewHTTPStore creates an HTTP document store client.
func NewHTTPStore(config HTTPConfig) *HTTPStore {
	timeout := config.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}

	return &HTTPStore{
		baseURL: strings.TrimRight(config.BaseURL, "/"),
		client: &http.Client{
			Timeout: timeout,
		},
	}
}

// fragmentsResponse is the document service's fragment payload.
type fragmentsResponse struct {
	Fragments map[string]string `json:"fragments"`
}

// FetchFragments fetches the named fragments of a document. A missing
// document yields an empty map; only transport or server failure is an
// error.
func (s *HTTPStore) FetchFragments(ctx context.Context, docID string, keys []string) (map[string]string, error) {
	endpoint := fmt.Sprintf("%s/documents/%s/fragments?keys=%s",
		s.baseURL, url.PathEscape(docID), url.QueryEscape(strings.Join(keys, ",")))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return map[string]string{}, nil
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("document service error (status %d): %s", resp.StatusCode, string(body))
	}

	var payload fragmentsResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	if payload.Fragments == nil {
		return map[string]string{}, nil
	}
	return payload.Fragments, nil
}

var _ domaincollab.DocumentStore = (*HTTPStore)(nil)
