package sqlite_test

import (
	"context"
	"testing"

	"github.com/felixgeelhaar/decision-go/domain/proposal"
	"github.com/felixgeelhaar/decision-go/infrastructure/storage/sqlite"
)

func newTestProposalStore(t *testing.T) *sqlite.ProposalStore {
	t.Helper()

	tmpDir := t.TempDir()
	cfg := sqlite.Config{
		DSN:         "file:" + tmpDir + "/test.db?mode=rwc",
		AutoMigrate: true,
	}

	store, err := sqlite.NewProposalStore(cfg)
	if err != nil {
		t.Fatalf("NewProposalStore failed: %v", err)
	}

	return store
}

func testProposal(id string) *proposal.Proposal {
	return &proposal.Proposal{
		ID:                id,
		ProcessInstanceID: "inst-1",
		Status:            proposal.StatusDraft,
		Data:              map[string]any{"title": "New park benches"},
	}
}

func TestProposalStore_SaveAndGet(t *testing.T) {
	store := newTestProposalStore(t)
	defer store.Close()

	ctx := context.Background()
	p := testProposal("p-1")

	if err := store.Save(ctx, p); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := store.Get(ctx, "p-1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}

	if loaded.ID != p.ID {
		t.Errorf("expected ID %s, got %s", p.ID, loaded.ID)
	}
	if loaded.Status != proposal.StatusDraft {
		t.Errorf("expected status draft, got %s", loaded.Status)
	}
	if got := loaded.Data["title"]; got != "New park benches" {
		t.Errorf("expected title round-tripped, got %v", got)
	}
}

func TestProposalStore_SaveDuplicate(t *testing.T) {
	store := newTestProposalStore(t)
	defer store.Close()

	ctx := context.Background()

	if err := store.Save(ctx, testProposal("p-1")); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if err := store.Save(ctx, testProposal("p-1")); err != proposal.ErrProposalExists {
		t.Errorf("expected ErrProposalExists, got %v", err)
	}
}

func TestProposalStore_GetNotFound(t *testing.T) {
	store := newTestProposalStore(t)
	defer store.Close()

	if _, err := store.Get(context.Background(), "nonexistent"); err != proposal.ErrProposalNotFound {
		t.Errorf("expected ErrProposalNotFound, got %v", err)
	}
}

func TestProposalStore_Update(t *testing.T) {
	store := newTestProposalStore(t)
	defer store.Close()

	ctx := context.Background()
	p := testProposal("p-1")

	if err := store.Save(ctx, p); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	p.Status = proposal.StatusSubmitted
	if err := store.Update(ctx, p); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	loaded, err := store.Get(ctx, "p-1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if loaded.Status != proposal.StatusSubmitted {
		t.Errorf("expected status submitted, got %s", loaded.Status)
	}

	if err := store.Update(ctx, testProposal("missing")); err != proposal.ErrProposalNotFound {
		t.Errorf("expected ErrProposalNotFound, got %v", err)
	}
}

func TestProposalStore_List(t *testing.T) {
	store := newTestProposalStore(t)
	defer store.Close()

	ctx := context.Background()

	draft := testProposal("p-1")
	submitted := testProposal("p-2")
	submitted.Status = proposal.StatusSubmitted
	other := testProposal("p-3")
	other.ProcessInstanceID = "inst-2"

	for _, p := range []*proposal.Proposal{draft, submitted, other} {
		if err := store.Save(ctx, p); err != nil {
			t.Fatalf("Save failed: %v", err)
		}
	}

	byInstance, err := store.List(ctx, proposal.ListFilter{ProcessInstanceID: "inst-1"})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(byInstance) != 2 {
		t.Errorf("expected 2 proposals for inst-1, got %d", len(byInstance))
	}

	byStatus, err := store.List(ctx, proposal.ListFilter{
		ProcessInstanceID: "inst-1",
		Status:            []proposal.Status{proposal.StatusSubmitted},
	})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(byStatus) != 1 || byStatus[0].ID != "p-2" {
		t.Errorf("expected only p-2, got %v", byStatus)
	}

	paged, err := store.List(ctx, proposal.ListFilter{Limit: 2, Offset: 2})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(paged) != 1 || paged[0].ID != "p-3" {
		t.Errorf("expected page [p-3], got %v", paged)
	}
}
