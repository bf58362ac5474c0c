package sqlite_test

import (
	"context"
	"testing"
	"time"

	"github.com/felixgeelhaar/decision-go/domain/process"
	"github.com/felixgeelhaar/decision-go/domain/transition"
	"github.com/felixgeelhaar/decision-go/infrastructure/storage/sqlite"
)

var scheduleBase = time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

// newTestStores opens one database shared between the instance and
// transition stores, the way the daemon wires them.
func newTestStores(t *testing.T) (*sqlite.InstanceStore, *sqlite.TransitionStore) {
	t.Helper()

	instances := newTestInstanceStore(t)
	transitions, err := sqlite.NewTransitionStoreFromDB(instances.DB())
	if err != nil {
		t.Fatalf("NewTransitionStoreFromDB failed: %v", err)
	}

	return instances, transitions
}

func testTransition(id string) *transition.ScheduledTransition {
	return &transition.ScheduledTransition{
		ID:                id,
		ProcessInstanceID: "inst-1",
		FromPhaseID:       "submission",
		ToPhaseID:         "voting",
		ScheduledDate:     scheduleBase,
	}
}

func TestTransitionStore_SaveAndGet(t *testing.T) {
	instances, store := newTestStores(t)
	defer instances.Close()

	ctx := context.Background()
	tr := testTransition("tr-1")

	if err := store.Save(ctx, tr); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := store.Get(ctx, "tr-1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}

	if loaded.Key() != tr.Key() {
		t.Errorf("expected key %v, got %v", tr.Key(), loaded.Key())
	}
	if !loaded.ScheduledDate.Equal(scheduleBase) {
		t.Errorf("expected ScheduledDate %v, got %v", scheduleBase, loaded.ScheduledDate)
	}
	if loaded.Completed() {
		t.Error("fresh transition must not be completed")
	}
}

func TestTransitionStore_SaveDuplicatePair(t *testing.T) {
	instances, store := newTestStores(t)
	defer instances.Close()

	ctx := context.Background()

	if err := store.Save(ctx, testTransition("tr-1")); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	// Same (instance, from, to) triple under a different surrogate ID.
	if err := store.Save(ctx, testTransition("tr-2")); err != transition.ErrTransitionExists {
		t.Errorf("expected ErrTransitionExists, got %v", err)
	}
}

func TestTransitionStore_SaveInvalid(t *testing.T) {
	instances, store := newTestStores(t)
	defer instances.Close()

	if err := store.Save(context.Background(), &transition.ScheduledTransition{}); err != transition.ErrInvalidTransition {
		t.Errorf("expected ErrInvalidTransition, got %v", err)
	}
}

func TestTransitionStore_GetNotFound(t *testing.T) {
	instances, store := newTestStores(t)
	defer instances.Close()

	if _, err := store.Get(context.Background(), "nonexistent"); err != transition.ErrTransitionNotFound {
		t.Errorf("expected ErrTransitionNotFound, got %v", err)
	}
}

func TestTransitionStore_UpdateDate(t *testing.T) {
	instances, store := newTestStores(t)
	defer instances.Close()

	ctx := context.Background()

	if err := store.Save(ctx, testTransition("tr-1")); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	moved := scheduleBase.AddDate(0, 0, 3)
	if err := store.UpdateDate(ctx, "tr-1", moved); err != nil {
		t.Fatalf("UpdateDate failed: %v", err)
	}

	loaded, err := store.Get(ctx, "tr-1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if !loaded.ScheduledDate.Equal(moved) {
		t.Errorf("expected ScheduledDate %v, got %v", moved, loaded.ScheduledDate)
	}

	if err := store.UpdateDate(ctx, "nonexistent", moved); err != transition.ErrTransitionNotFound {
		t.Errorf("expected ErrTransitionNotFound, got %v", err)
	}
}

func TestTransitionStore_CompletedIsImmutable(t *testing.T) {
	instances, store := newTestStores(t)
	defer instances.Close()

	ctx := context.Background()

	if err := instances.Save(ctx, testInstance("inst-1")); err != nil {
		t.Fatalf("Save instance failed: %v", err)
	}
	tr := testTransition("tr-1")
	if err := store.Save(ctx, tr); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if err := store.Apply(ctx, tr, scheduleBase.Add(time.Hour)); err != nil {
		t.Fatalf("Apply failed: %v", err)
	}

	if err := store.UpdateDate(ctx, "tr-1", scheduleBase.AddDate(0, 0, 1)); err != transition.ErrCompletedImmutable {
		t.Errorf("expected ErrCompletedImmutable on update, got %v", err)
	}
	if err := store.Delete(ctx, "tr-1"); err != transition.ErrCompletedImmutable {
		t.Errorf("expected ErrCompletedImmutable on delete, got %v", err)
	}

	loaded, err := store.Get(ctx, "tr-1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if !loaded.ScheduledDate.Equal(scheduleBase) {
		t.Errorf("expected ScheduledDate untouched at %v, got %v", scheduleBase, loaded.ScheduledDate)
	}
}

func TestTransitionStore_Delete(t *testing.T) {
	instances, store := newTestStores(t)
	defer instances.Close()

	ctx := context.Background()

	if err := store.Save(ctx, testTransition("tr-1")); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if err := store.Delete(ctx, "tr-1"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if err := store.Delete(ctx, "tr-1"); err != transition.ErrTransitionNotFound {
		t.Errorf("expected ErrTransitionNotFound, got %v", err)
	}
}

func TestTransitionStore_ListDue(t *testing.T) {
	instances, store := newTestStores(t)
	defer instances.Close()

	ctx := context.Background()

	early := testTransition("tr-1")
	early.ScheduledDate = scheduleBase.Add(-time.Hour)

	late := testTransition("tr-2")
	late.FromPhaseID = "voting"
	late.ToPhaseID = "results"
	late.ScheduledDate = scheduleBase

	future := testTransition("tr-3")
	future.ProcessInstanceID = "inst-2"
	future.ScheduledDate = scheduleBase.AddDate(0, 0, 7)

	for _, tr := range []*transition.ScheduledTransition{late, future, early} {
		if err := store.Save(ctx, tr); err != nil {
			t.Fatalf("Save failed: %v", err)
		}
	}

	due, err := store.ListDue(ctx, scheduleBase, 0)
	if err != nil {
		t.Fatalf("ListDue failed: %v", err)
	}
	if len(due) != 2 {
		t.Fatalf("expected 2 due transitions, got %d", len(due))
	}
	if due[0].ID != "tr-1" || due[1].ID != "tr-2" {
		t.Errorf("expected oldest first [tr-1 tr-2], got [%s %s]", due[0].ID, due[1].ID)
	}

	limited, err := store.ListDue(ctx, scheduleBase, 1)
	if err != nil {
		t.Fatalf("ListDue failed: %v", err)
	}
	if len(limited) != 1 || limited[0].ID != "tr-1" {
		t.Errorf("expected [tr-1], got %v", limited)
	}
}

func TestTransitionStore_ListDueSkipsCompleted(t *testing.T) {
	instances, store := newTestStores(t)
	defer instances.Close()

	ctx := context.Background()

	if err := instances.Save(ctx, testInstance("inst-1")); err != nil {
		t.Fatalf("Save instance failed: %v", err)
	}
	tr := testTransition("tr-1")
	if err := store.Save(ctx, tr); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if err := store.Apply(ctx, tr, scheduleBase.Add(time.Hour)); err != nil {
		t.Fatalf("Apply failed: %v", err)
	}

	due, err := store.ListDue(ctx, scheduleBase.AddDate(0, 0, 1), 0)
	if err != nil {
		t.Fatalf("ListDue failed: %v", err)
	}
	if len(due) != 0 {
		t.Errorf("completed transitions must not be due, got %d", len(due))
	}
}

func TestTransitionStore_Apply(t *testing.T) {
	instances, store := newTestStores(t)
	defer instances.Close()

	ctx := context.Background()
	now := scheduleBase.Add(time.Hour)

	if err := instances.Save(ctx, testInstance("inst-1")); err != nil {
		t.Fatalf("Save instance failed: %v", err)
	}
	tr := testTransition("tr-1")
	if err := store.Save(ctx, tr); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	if err := store.Apply(ctx, tr, now); err != nil {
		t.Fatalf("Apply failed: %v", err)
	}

	// Both effects landed: the instance moved and the transition is
	// stamped completed.
	instance, err := instances.Get(ctx, "inst-1")
	if err != nil {
		t.Fatalf("Get instance failed: %v", err)
	}
	if instance.CurrentPhaseID != "voting" {
		t.Errorf("expected CurrentPhaseID voting, got %s", instance.CurrentPhaseID)
	}

	applied, err := store.Get(ctx, "tr-1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if applied.CompletedAt == nil || !applied.CompletedAt.Equal(now) {
		t.Errorf("expected CompletedAt %v, got %v", now, applied.CompletedAt)
	}
}

func TestTransitionStore_ApplyAlreadyCompleted(t *testing.T) {
	instances, store := newTestStores(t)
	defer instances.Close()

	ctx := context.Background()
	now := scheduleBase.Add(time.Hour)

	if err := instances.Save(ctx, testInstance("inst-1")); err != nil {
		t.Fatalf("Save instance failed: %v", err)
	}
	tr := testTransition("tr-1")
	if err := store.Save(ctx, tr); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	if err := store.Apply(ctx, tr, now); err != nil {
		t.Fatalf("Apply failed: %v", err)
	}

	// A second apply loses the race on the completion stamp and must not
	// move the instance again.
	if err := store.Apply(ctx, tr, now.Add(time.Minute)); err != transition.ErrAlreadyCompleted {
		t.Fatalf("expected ErrAlreadyCompleted, got %v", err)
	}

	applied, err := store.Get(ctx, "tr-1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if !applied.CompletedAt.Equal(now) {
		t.Errorf("expected first stamp %v preserved, got %v", now, applied.CompletedAt)
	}
}

func TestTransitionStore_ApplyNotFound(t *testing.T) {
	instances, store := newTestStores(t)
	defer instances.Close()

	err := store.Apply(context.Background(), testTransition("nonexistent"), scheduleBase)
	if err != transition.ErrTransitionNotFound {
		t.Errorf("expected ErrTransitionNotFound, got %v", err)
	}
}

func TestTransitionStore_ApplyRollsBackOnBadTarget(t *testing.T) {
	instances, store := newTestStores(t)
	defer instances.Close()

	ctx := context.Background()

	if err := instances.Save(ctx, testInstance("inst-1")); err != nil {
		t.Fatalf("Save instance failed: %v", err)
	}
	tr := testTransition("tr-1")
	tr.ToPhaseID = "nonexistent"
	if err := store.Save(ctx, tr); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	if err := store.Apply(ctx, tr, scheduleBase.Add(time.Hour)); err != process.ErrUnknownPhase {
		t.Fatalf("expected ErrUnknownPhase, got %v", err)
	}

	// The completion stamp must roll back with the failed phase move.
	loaded, err := store.Get(ctx, "tr-1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if loaded.Completed() {
		t.Error("failed apply must not leave the transition completed")
	}

	instance, err := instances.Get(ctx, "inst-1")
	if err != nil {
		t.Fatalf("Get instance failed: %v", err)
	}
	if instance.CurrentPhaseID != "submission" {
		t.Errorf("failed apply must not move the instance, got %s", instance.CurrentPhaseID)
	}
}

func TestTransitionStore_ListByInstance(t *testing.T) {
	instances, store := newTestStores(t)
	defer instances.Close()

	ctx := context.Background()

	second := testTransition("tr-2")
	second.FromPhaseID = "voting"
	second.ToPhaseID = "results"
	second.ScheduledDate = scheduleBase.AddDate(0, 0, 7)

	other := testTransition("tr-3")
	other.ProcessInstanceID = "inst-2"

	for _, tr := range []*transition.ScheduledTransition{second, testTransition("tr-1"), other} {
		if err := store.Save(ctx, tr); err != nil {
			t.Fatalf("Save failed: %v", err)
		}
	}

	listed, err := store.ListByInstance(ctx, "inst-1")
	if err != nil {
		t.Fatalf("ListByInstance failed: %v", err)
	}
	if len(listed) != 2 {
		t.Fatalf("expected 2 transitions, got %d", len(listed))
	}
	if listed[0].ID != "tr-1" || listed[1].ID != "tr-2" {
		t.Errorf("expected date order [tr-1 tr-2], got [%s %s]", listed[0].ID, listed[1].ID)
	}
}
