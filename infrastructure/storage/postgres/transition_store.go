package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/felixgeelhaar/decision-go/domain/transition"
)

// TransitionStore is a PostgreSQL-backed implementation of
// transition.Store and transition.Applier.
type TransitionStore struct {
	pool   *pgxpool.Pool
	schema string
}

// NewTransitionStore creates a new PostgreSQL transition store.
func NewTransitionStore(pool *pgxpool.Pool, schemaName string) *TransitionStore {
	if schemaName == "" {
		schemaName = "public"
	}
	return &TransitionStore{
		pool:   pool,
		schema: schemaName,
	}
}

// tableName returns the fully qualified table name.
func (s *TransitionStore) tableName() string {
	return fmt.Sprintf("%s.scheduled_transitions", s.schema)
}

func (s *TransitionStore) instanceTableName() string {
	return fmt.Sprintf("%s.process_instances", s.schema)
}

// Save persists a new transition. The (from, to) pair is unique within an
// instance, enforced by the table's unique index.
func (s *TransitionStore) Save(ctx context.Context, t *transition.ScheduledTransition) error {
	if t.ID == "" || t.ProcessInstanceID == "" || t.FromPhaseID == "" || t.ToPhaseID == "" || t.ScheduledDate.IsZero() {
		return transition.ErrInvalidTransition
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (id, process_instance_id, from_phase_id, to_phase_id, scheduled_date, completed_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, s.tableName())

	_, err := s.pool.Exec(ctx, query,
		t.ID,
		t.ProcessInstanceID,
		t.FromPhaseID,
		t.ToPhaseID,
		t.ScheduledDate,
		t.CompletedAt,
	)
	if err != nil {
		if strings.Contains(err.Error(), "duplicate key") {
			return transition.ErrTransitionExists
		}
		return s.wrapError(err)
	}
	return nil
}

// Get retrieves a transition by ID.
func (s *TransitionStore) Get(ctx context.Context, id string) (*transition.ScheduledTransition, error) {
	query := fmt.Sprintf(`
		SELECT id, process_instance_id, from_phase_id, to_phase_id, scheduled_date, completed_at
		FROM %s
		WHERE id = $1
	`, s.tableName())

	t, err := scanTransition(s.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, transition.ErrTransitionNotFound
		}
		return nil, s.wrapError(err)
	}
	return t, nil
}

// UpdateDate moves an uncompleted transition's scheduled date. The
// completed_at guard makes completed rows immutable at the store level.
func (s *TransitionStore) UpdateDate(ctx context.Context, id string, date time.Time) error {
	query := fmt.Sprintf(`
		UPDATE %s SET scheduled_date = $2
		WHERE id = $1 AND completed_at IS NULL
	`, s.tableName())

	tag, err := s.pool.Exec(ctx, query, id, date)
	if err != nil {
		return s.wrapError(err)
	}
	if tag.RowsAffected() == 0 {
		return s.immutableOrMissing(ctx, id)
	}
	return nil
}

// Delete removes an uncompleted transition.
func (s *TransitionStore) Delete(ctx context.Context, id string) error {
	query := fmt.Sprintf(`
		DELETE FROM %s
		WHERE id = $1 AND completed_at IS NULL
	`, s.tableName())

	tag, err := s.pool.Exec(ctx, query, id)
	if err != nil {
		return s.wrapError(err)
	}
	if tag.RowsAffected() == 0 {
		return s.immutableOrMissing(ctx, id)
	}
	return nil
}

// ListByInstance returns all transitions for a process instance, ordered
// by scheduled date ascending.
func (s *TransitionStore) ListByInstance(ctx context.Context, instanceID string) ([]*transition.ScheduledTransition, error) {
	query := fmt.Sprintf(`
		SELECT id, process_instance_id, from_phase_id, to_phase_id, scheduled_date, completed_at
		FROM %s
		WHERE process_instance_id = $1
		ORDER BY scheduled_date, id
	`, s.tableName())

	return s.queryTransitions(ctx, query, instanceID)
}

// ListDue returns uncompleted transitions due at now, ordered by scheduled
// date ascending. The partial index on uncompleted rows serves this query.
func (s *TransitionStore) ListDue(ctx context.Context, now time.Time, limit int) ([]*transition.ScheduledTransition, error) {
	query := fmt.Sprintf(`
		SELECT id, process_instance_id, from_phase_id, to_phase_id, scheduled_date, completed_at
		FROM %s
		WHERE completed_at IS NULL AND scheduled_date <= $1
		ORDER BY scheduled_date, id
	`, s.tableName())

	args := []any{now}
	if limit > 0 {
		query += " LIMIT $2"
		args = append(args, limit)
	}
	return s.queryTransitions(ctx, query, args...)
}

// Apply atomically completes the transition and advances the owning
// instance in one database transaction. The completed_at IS NULL guard is
// the race protection: a second worker applying the same transition
// updates zero rows and gets ErrAlreadyCompleted.
func (s *TransitionStore) Apply(ctx context.Context, t *transition.ScheduledTransition, now time.Time) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return s.wrapError(err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // rollback after commit is a no-op

	completeQuery := fmt.Sprintf(`
		UPDATE %s SET completed_at = $2
		WHERE id = $1 AND completed_at IS NULL
	`, s.tableName())

	tag, err := tx.Exec(ctx, completeQuery, t.ID, now)
	if err != nil {
		return s.wrapError(err)
	}
	if tag.RowsAffected() == 0 {
		if _, err := s.Get(ctx, t.ID); err != nil {
			return err
		}
		return transition.ErrAlreadyCompleted
	}

	advanceQuery := fmt.Sprintf(`
		UPDATE %s
		SET current_phase_id = $2,
		    status = CASE WHEN phases->(jsonb_array_length(phases)-1)->>'phaseId' = $2 THEN 'ended' ELSE status END
		WHERE id = $1
	`, s.instanceTableName())

	tag, err = tx.Exec(ctx, advanceQuery, t.ProcessInstanceID, t.ToPhaseID)
	if err != nil {
		return s.wrapError(err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("apply transition %s: instance %s: %w",
			t.ID, t.ProcessInstanceID, transition.ErrTransitionNotFound)
	}

	if err := tx.Commit(ctx); err != nil {
		return s.wrapError(err)
	}
	return nil
}

func (s *TransitionStore) queryTransitions(ctx context.Context, query string, args ...any) ([]*transition.ScheduledTransition, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, s.wrapError(err)
	}
	defer rows.Close()

	var transitions []*transition.ScheduledTransition
	for rows.Next() {
		t, err := scanTransition(rows)
		if err != nil {
			return nil, s.wrapError(err)
		}
		transitions = append(transitions, t)
	}
	return transitions, rows.Err()
}

// immutableOrMissing distinguishes a zero-row update on a completed row
// from one on a missing row.
func (s *TransitionStore) immutableOrMissing(ctx context.Context, id string) error {
	existing, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if existing.Completed() {
		return transition.ErrCompletedImmutable
	}
	return transition.ErrTransitionNotFound
}

// wrapError wraps database errors with domain errors.
func (s *TransitionStore) wrapError(err error) error {
	if err == nil {
		return nil
	}
	return errors.Join(transition.ErrConnectionFailed, err)
}

func scanTransition(row pgx.Row) (*transition.ScheduledTransition, error) {
	var t transition.ScheduledTransition
	err := row.Scan(
		&t.ID,
		&t.ProcessInstanceID,
		&t.FromPhaseID,
		&t.ToPhaseID,
		&t.ScheduledDate,
		&t.CompletedAt,
	)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

var (
	_ transition.Store   = (*TransitionStore)(nil)
	_ transition.Applier = (*TransitionStore)(nil)
)
