package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/felixgeelhaar/decision-go/domain/process"
)

func TestInstanceStoreCRUD(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := NewInstanceStore()
	instance := testInstance("inst-1")

	if err := store.Save(ctx, instance); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if err := store.Save(ctx, instance); !errors.Is(err, process.ErrInstanceExists) {
		t.Errorf("duplicate Save() = %v, want ErrInstanceExists", err)
	}

	got, err := store.Get(ctx, "inst-1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.CurrentPhaseID != "submission" {
		t.Errorf("CurrentPhaseID = %q, want %q", got.CurrentPhaseID, "submission")
	}

	// The store must hand out copies, not shared state.
	got.CurrentPhaseID = "mutated"
	again, err := store.Get(ctx, "inst-1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if again.CurrentPhaseID != "submission" {
		t.Error("mutating a returned instance must not affect the store")
	}

	if _, err := store.Get(ctx, "nonexistent"); !errors.Is(err, process.ErrInstanceNotFound) {
		t.Errorf("Get(nonexistent) = %v, want ErrInstanceNotFound", err)
	}

	if err := store.Delete(ctx, "inst-1"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if err := store.Delete(ctx, "inst-1"); !errors.Is(err, process.ErrInstanceNotFound) {
		t.Errorf("second Delete() = %v, want ErrInstanceNotFound", err)
	}
}

func TestInstanceStoreList(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := NewInstanceStore()

	a := testInstance("inst-a")
	a.TemplateID = "budget-round"
	b := testInstance("inst-b")
	b.TemplateID = "budget-round"
	b.Status = process.InstanceStatusEnded
	c := testInstance("inst-c")
	c.TemplateID = "idea-challenge"

	for _, instance := range []*process.Instance{a, b, c} {
		if err := store.Save(ctx, instance); err != nil {
			t.Fatalf("Save(%s) error = %v", instance.ID, err)
		}
	}

	active, err := store.List(ctx, process.ListFilter{
		Status: []process.InstanceStatus{process.InstanceStatusActive},
	})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(active) != 2 {
		t.Errorf("List(active) returned %d, want 2", len(active))
	}

	byTemplate, err := store.List(ctx, process.ListFilter{TemplateID: "budget-round"})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(byTemplate) != 2 {
		t.Errorf("List(budget-round) returned %d, want 2", len(byTemplate))
	}

	paged, err := store.List(ctx, process.ListFilter{Limit: 1, Offset: 1})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(paged) != 1 || paged[0].ID != "inst-b" {
		t.Errorf("List(limit=1 offset=1) = %v, want just inst-b", paged)
	}
}

func TestInstanceStoreSetCurrentPhase(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("moves the pointer", func(t *testing.T) {
		t.Parallel()

		store := NewInstanceStore()
		if err := store.Save(ctx, testInstance("inst-1")); err != nil {
			t.Fatalf("Save() error = %v", err)
		}

		if err := store.SetCurrentPhase(ctx, "inst-1", "voting"); err != nil {
			t.Fatalf("SetCurrentPhase() error = %v", err)
		}
		got, err := store.Get(ctx, "inst-1")
		if err != nil {
			t.Fatalf("Get() error = %v", err)
		}
		if got.CurrentPhaseID != "voting" {
			t.Errorf("CurrentPhaseID = %q, want %q", got.CurrentPhaseID, "voting")
		}
		if got.Status != process.InstanceStatusActive {
			t.Errorf("Status = %q, want active", got.Status)
		}
	})

	t.Run("final phase ends the instance", func(t *testing.T) {
		t.Parallel()

		store := NewInstanceStore()
		if err := store.Save(ctx, testInstance("inst-1")); err != nil {
			t.Fatalf("Save() error = %v", err)
		}

		if err := store.SetCurrentPhase(ctx, "inst-1", "results"); err != nil {
			t.Fatalf("SetCurrentPhase() error = %v", err)
		}
		got, err := store.Get(ctx, "inst-1")
		if err != nil {
			t.Fatalf("Get() error = %v", err)
		}
		if got.Status != process.InstanceStatusEnded {
			t.Errorf("Status = %q, want ended", got.Status)
		}
	})

	t.Run("unknown phase rejected", func(t *testing.T) {
		t.Parallel()

		store := NewInstanceStore()
		if err := store.Save(ctx, testInstance("inst-1")); err != nil {
			t.Fatalf("Save() error = %v", err)
		}

		if err := store.SetCurrentPhase(ctx, "inst-1", "nonexistent"); !errors.Is(err, process.ErrUnknownPhase) {
			t.Errorf("SetCurrentPhase() = %v, want ErrUnknownPhase", err)
		}
	})
}
