package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/felixgeelhaar/decision-go/domain/process"
)

// InstanceStore is a SQLite-backed implementation of process.Store. The
// full instance is stored as a JSON blob alongside the indexed columns.
type InstanceStore struct {
	db *sql.DB
}

// NewInstanceStore creates a new SQLite instance store with the given
// configuration.
func NewInstanceStore(cfg Config, opts ...Option) (*InstanceStore, error) {
	for _, opt := range opts {
		opt(&cfg)
	}

	db, err := openDB(cfg)
	if err != nil {
		return nil, err
	}

	s := &InstanceStore{db: db}
	if cfg.AutoMigrate {
		if err := s.migrate(); err != nil {
			_ = db.Close()
			return nil, err
		}
	}
	return s, nil
}

// NewInstanceStoreFromDB creates an instance store from an existing
// database connection.
func NewInstanceStoreFromDB(db *sql.DB) (*InstanceStore, error) {
	s := &InstanceStore{db: db}
	if err := s.migrate(); err != nil {
		return nil, err
	}
	return s, nil
}

// DB exposes the underlying connection so sibling stores can share it.
func (s *InstanceStore) DB() *sql.DB {
	return s.db
}

// Close closes the underlying database.
func (s *InstanceStore) Close() error {
	return s.db.Close()
}

// migrate creates the process_instances table if it doesn't exist.
func (s *InstanceStore) migrate() error {
	ddl := `
		CREATE TABLE IF NOT EXISTS process_instances (
			id TEXT PRIMARY KEY,
			process_template_id TEXT NOT NULL,
			current_phase_id TEXT NOT NULL,
			status TEXT NOT NULL,
			profile_id TEXT NOT NULL DEFAULT '',
			data BLOB NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_process_instances_status ON process_instances(status);
		CREATE INDEX IF NOT EXISTS idx_process_instances_profile ON process_instances(profile_id);
	`
	if _, err := s.db.Exec(ddl); err != nil {
		return errors.Join(ErrMigrationFailed, err)
	}
	return nil
}

// Save persists a new instance.
func (s *InstanceStore) Save(ctx context.Context, instance *process.Instance) error {
	if instance.ID == "" {
		return process.ErrInvalidInstanceID
	}

	data, err := json.Marshal(instance)
	if err != nil {
		return fmt.Errorf("marshal instance: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO process_instances (id, process_template_id, current_phase_id, status, profile_id, data)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		instance.ID, instance.TemplateID, instance.CurrentPhaseID,
		string(instance.Status), instance.ProfileID, data,
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint") {
			return process.ErrInstanceExists
		}
		return err
	}
	return nil
}

// Get retrieves an instance by ID.
func (s *InstanceStore) Get(ctx context.Context, id string) (*process.Instance, error) {
	if id == "" {
		return nil, process.ErrInvalidInstanceID
	}

	var data []byte
	err := s.db.QueryRowContext(ctx,
		"SELECT data FROM process_instances WHERE id = ?", id,
	).Scan(&data)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, process.ErrInstanceNotFound
		}
		return nil, err
	}

	var instance process.Instance
	if err := json.Unmarshal(data, &instance); err != nil {
		return nil, fmt.Errorf("unmarshal instance: %w", err)
	}
	return &instance, nil
}

// Update updates an existing instance.
func (s *InstanceStore) Update(ctx context.Context, instance *process.Instance) error {
	if instance.ID == "" {
		return process.ErrInvalidInstanceID
	}

	data, err := json.Marshal(instance)
	if err != nil {
		return fmt.Errorf("marshal instance: %w", err)
	}

	result, err := s.db.ExecContext(ctx,
		`UPDATE process_instances
		 SET process_template_id = ?, current_phase_id = ?, status = ?, profile_id = ?, data = ?
		 WHERE id = ?`,
		instance.TemplateID, instance.CurrentPhaseID, string(instance.Status),
		instance.ProfileID, data, instance.ID,
	)
	if err != nil {
		return err
	}
	return requireRow(result, process.ErrInstanceNotFound)
}

// Delete removes an instance by ID.
func (s *InstanceStore) Delete(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM process_instances WHERE id = ?", id)
	if err != nil {
		return err
	}
	return requireRow(result, process.ErrInstanceNotFound)
}

// List returns instances matching the filter.
func (s *InstanceStore) List(ctx context.Context, filter process.ListFilter) ([]*process.Instance, error) {
	query := "SELECT data FROM process_instances"

	var conditions []string
	var args []any

	if len(filter.Status) > 0 {
		placeholders := make([]string, len(filter.Status))
		for i, status := range filter.Status {
			placeholders[i] = "?"
			args = append(args, string(status))
		}
		conditions = append(conditions, "status IN ("+strings.Join(placeholders, ", ")+")")
	}
	if filter.TemplateID != "" {
		conditions = append(conditions, "process_template_id = ?")
		args = append(args, filter.TemplateID)
	}
	if filter.ProfileID != "" {
		conditions = append(conditions, "profile_id = ?")
		args = append(args, filter.ProfileID)
	}
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY id"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
		if filter.Offset > 0 {
			query += " OFFSET ?"
			args = append(args, filter.Offset)
		}
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var instances []*process.Instance
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, err
		}
		var instance process.Instance
		if err := json.Unmarshal(data, &instance); err != nil {
			return nil, fmt.Errorf("unmarshal instance: %w", err)
		}
		instances = append(instances, &instance)
	}
	return instances, rows.Err()
}

// SetCurrentPhase moves the instance's current phase pointer.
func (s *InstanceStore) SetCurrentPhase(ctx context.Context, id, phaseID string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback() //nolint:errcheck // rollback after commit is a no-op

	if err := setCurrentPhaseTx(ctx, tx, id, phaseID); err != nil {
		return err
	}
	return tx.Commit()
}

// setCurrentPhaseTx performs the phase move inside an existing
// transaction. Shared with the transition store's atomic apply.
func setCurrentPhaseTx(ctx context.Context, tx *sql.Tx, id, phaseID string) error {
	var data []byte
	err := tx.QueryRowContext(ctx,
		"SELECT data FROM process_instances WHERE id = ?", id,
	).Scan(&data)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return process.ErrInstanceNotFound
		}
		return err
	}

	var instance process.Instance
	if err := json.Unmarshal(data, &instance); err != nil {
		return fmt.Errorf("unmarshal instance: %w", err)
	}
	if instance.PhaseIndex(phaseID) < 0 {
		return process.ErrUnknownPhase
	}

	instance.CurrentPhaseID = phaseID
	if instance.IsTerminal() {
		instance.Status = process.InstanceStatusEnded
	}

	updated, err := json.Marshal(&instance)
	if err != nil {
		return fmt.Errorf("marshal instance: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		"UPDATE process_instances SET current_phase_id = ?, status = ?, data = ? WHERE id = ?",
		phaseID, string(instance.Status), updated, id,
	)
	return err
}

func requireRow(result sql.Result, missing error) error {
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return missing
	}
	return nil
}

var _ process.Store = (*InstanceStore)(nil)
