package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/felixgeelhaar/decision-go/domain/transition"
)

// TransitionStore is a SQLite-backed implementation of transition.Store
// and transition.Applier. Times are stored as Unix nanosecond integers.
type TransitionStore struct {
	db *sql.DB
}

// NewTransitionStore creates a new SQLite transition store with the given
// configuration.
func NewTransitionStore(cfg Config, opts ...Option) (*TransitionStore, error) {
	for _, opt := range opts {
		opt(&cfg)
	}

	db, err := openDB(cfg)
	if err != nil {
		return nil, err
	}

	s := &TransitionStore{db: db}
	if cfg.AutoMigrate {
		if err := s.migrate(); err != nil {
			_ = db.Close()
			return nil, err
		}
	}
	return s, nil
}

// NewTransitionStoreFromDB creates a transition store from an existing
// database connection, typically shared with an InstanceStore.
func NewTransitionStoreFromDB(db *sql.DB) (*TransitionStore, error) {
	s := &TransitionStore{db: db}
	if err := s.migrate(); err != nil {
		return nil, err
	}
	return s, nil
}

// Close closes the underlying database.
func (s *TransitionStore) Close() error {
	return s.db.Close()
}

// migrate creates the scheduled_transitions table if it doesn't exist.
func (s *TransitionStore) migrate() error {
	ddl := `
		CREATE TABLE IF NOT EXISTS scheduled_transitions (
			id TEXT PRIMARY KEY,
			process_instance_id TEXT NOT NULL,
			from_phase_id TEXT NOT NULL,
			to_phase_id TEXT NOT NULL,
			scheduled_date INTEGER NOT NULL,
			completed_at INTEGER
		);
		CREATE UNIQUE INDEX IF NOT EXISTS idx_transitions_identity
			ON scheduled_transitions(process_instance_id, from_phase_id, to_phase_id);
		CREATE INDEX IF NOT EXISTS idx_transitions_due
			ON scheduled_transitions(scheduled_date) WHERE completed_at IS NULL;
	`
	if _, err := s.db.Exec(ddl); err != nil {
		return errors.Join(ErrMigrationFailed, err)
	}
	return nil
}

// Save persists a new transition. At most one transition may exist per
// (instance, from, to) triple.
func (s *TransitionStore) Save(ctx context.Context, t *transition.ScheduledTransition) error {
	if t.ID == "" || t.ProcessInstanceID == "" {
		return transition.ErrInvalidTransition
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO scheduled_transitions (id, process_instance_id, from_phase_id, to_phase_id, scheduled_date, completed_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		t.ID, t.ProcessInstanceID, t.FromPhaseID, t.ToPhaseID,
		nanos(t.ScheduledDate), nanosPtr(t.CompletedAt),
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint") {
			return transition.ErrTransitionExists
		}
		return err
	}
	return nil
}

// Get retrieves a transition by ID.
func (s *TransitionStore) Get(ctx context.Context, id string) (*transition.ScheduledTransition, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, process_instance_id, from_phase_id, to_phase_id, scheduled_date, completed_at
		 FROM scheduled_transitions WHERE id = ?`, id,
	)
	t, err := scanTransition(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, transition.ErrTransitionNotFound
		}
		return nil, err
	}
	return t, nil
}

// UpdateDate moves an uncompleted transition's scheduled date. Completed
// transitions are immutable.
func (s *TransitionStore) UpdateDate(ctx context.Context, id string, date time.Time) error {
	result, err := s.db.ExecContext(ctx,
		"UPDATE scheduled_transitions SET scheduled_date = ? WHERE id = ? AND completed_at IS NULL",
		nanos(date), id,
	)
	if err != nil {
		return err
	}
	return s.requireMutableRow(ctx, result, id)
}

// Delete removes an uncompleted transition. Completed transitions are
// immutable.
func (s *TransitionStore) Delete(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx,
		"DELETE FROM scheduled_transitions WHERE id = ? AND completed_at IS NULL", id,
	)
	if err != nil {
		return err
	}
	return s.requireMutableRow(ctx, result, id)
}

// requireMutableRow distinguishes "completed, so untouchable" from
// "missing" when a guarded write matched no rows.
func (s *TransitionStore) requireMutableRow(ctx context.Context, result sql.Result, id string) error {
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	existing, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if existing.Completed() {
		return transition.ErrCompletedImmutable
	}
	return transition.ErrTransitionNotFound
}

// ListByInstance returns all transitions for a process instance ordered
// by scheduled date.
func (s *TransitionStore) ListByInstance(ctx context.Context, instanceID string) ([]*transition.ScheduledTransition, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, process_instance_id, from_phase_id, to_phase_id, scheduled_date, completed_at
		 FROM scheduled_transitions
		 WHERE process_instance_id = ?
		 ORDER BY scheduled_date, id`, instanceID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectTransitions(rows)
}

// ListDue returns uncompleted transitions due at now, oldest first.
func (s *TransitionStore) ListDue(ctx context.Context, now time.Time, limit int) ([]*transition.ScheduledTransition, error) {
	query := `SELECT id, process_instance_id, from_phase_id, to_phase_id, scheduled_date, completed_at
		 FROM scheduled_transitions
		 WHERE completed_at IS NULL AND scheduled_date <= ?
		 ORDER BY scheduled_date, id`
	args := []any{nanos(now)}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectTransitions(rows)
}

// Apply completes the transition and advances the owning instance in a
// single transaction. The completed_at IS NULL guard makes the complete
// step the race arbiter: a second worker applying the same transition
// matches zero rows and gets ErrAlreadyCompleted.
func (s *TransitionStore) Apply(ctx context.Context, t *transition.ScheduledTransition, now time.Time) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback() //nolint:errcheck // rollback after commit is a no-op

	result, err := tx.ExecContext(ctx,
		"UPDATE scheduled_transitions SET completed_at = ? WHERE id = ? AND completed_at IS NULL",
		nanos(now), t.ID,
	)
	if err != nil {
		return err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		existing, err := s.Get(ctx, t.ID)
		if err != nil {
			return err
		}
		if existing.Completed() {
			return transition.ErrAlreadyCompleted
		}
		return transition.ErrTransitionNotFound
	}

	if err := setCurrentPhaseTx(ctx, tx, t.ProcessInstanceID, t.ToPhaseID); err != nil {
		return err
	}
	return tx.Commit()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTransition(row rowScanner) (*transition.ScheduledTransition, error) {
	var t transition.ScheduledTransition
	var scheduled int64
	var completed sql.NullInt64

	err := row.Scan(&t.ID, &t.ProcessInstanceID, &t.FromPhaseID, &t.ToPhaseID, &scheduled, &completed)
	if err != nil {
		return nil, err
	}

	t.ScheduledDate = time.Unix(0, scheduled).UTC()
	if completed.Valid {
		ts := time.Unix(0, completed.Int64).UTC()
		t.CompletedAt = &ts
	}
	return &t, nil
}

func collectTransitions(rows *sql.Rows) ([]*transition.ScheduledTransition, error) {
	var transitions []*transition.ScheduledTransition
	for rows.Next() {
		t, err := scanTransition(rows)
		if err != nil {
			return nil, err
		}
		transitions = append(transitions, t)
	}
	return transitions, rows.Err()
}

func nanos(t time.Time) int64 {
	return t.UnixNano()
}

func nanosPtr(t *time.Time) any {
	if t == nil {
		return nil
	}
	return nanos(*t)
}

var (
	_ transition.Store   = (*TransitionStore)(nil)
	_ transition.Applier = (*TransitionStore)(nil)
)
