// Package postgres provides PostgreSQL-backed storage implementations.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/felixgeelhaar/decision-go/domain/process"
	"github.com/felixgeelhaar/decision-go/domain/schema"
)

// InstanceStore is a PostgreSQL-backed implementation of process.Store.
type InstanceStore struct {
	pool   *pgxpool.Pool
	schema string
}

// NewInstanceStore creates a new PostgreSQL instance store.
func NewInstanceStore(pool *pgxpool.Pool, schemaName string) *InstanceStore {
	if schemaName == "" {
		schemaName = "public"
	}
	return &InstanceStore{
		pool:   pool,
		schema: schemaName,
	}
}

// tableName returns the fully qualified table name.
func (s *InstanceStore) tableName() string {
	return fmt.Sprintf("%s.process_instances", s.schema)
}

// Save persists a new instance.
func (s *InstanceStore) Save(ctx context.Context, instance *process.Instance) error {
	if instance.ID == "" {
		return process.ErrInvalidInstanceID
	}

	phases, err := json.Marshal(instance.Phases)
	if err != nil {
		return fmt.Errorf("marshal phases: %w", err)
	}
	config, err := json.Marshal(instance.Config)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	proposalSchema, rubricSchema, err := marshalSchemas(instance)
	if err != nil {
		return err
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (id, process_template_id, current_phase_id, phases, config, status, profile_id, owner_profile_id, proposal_schema, rubric_schema)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`, s.tableName())

	_, err = s.pool.Exec(ctx, query,
		instance.ID,
		instance.TemplateID,
		instance.CurrentPhaseID,
		phases,
		config,
		string(instance.Status),
		instance.ProfileID,
		instance.OwnerProfileID,
		proposalSchema,
		rubricSchema,
	)
	if err != nil {
		if strings.Contains(err.Error(), "duplicate key") {
			return process.ErrInstanceExists
		}
		return s.wrapError(err)
	}
	return nil
}

// Get retrieves an instance by ID.
func (s *InstanceStore) Get(ctx context.Context, id string) (*process.Instance, error) {
	if id == "" {
		return nil, process.ErrInvalidInstanceID
	}

	query := fmt.Sprintf(`
		SELECT id, process_template_id, current_phase_id, phases, config, status, profile_id, owner_profile_id, proposal_schema, rubric_schema
		FROM %s
		WHERE id = $1
	`, s.tableName())

	instance, err := scanInstance(s.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, process.ErrInstanceNotFound
		}
		return nil, s.wrapError(err)
	}
	return instance, nil
}

// Update updates an existing instance.
func (s *InstanceStore) Update(ctx context.Context, instance *process.Instance) error {
	if instance.ID == "" {
		return process.ErrInvalidInstanceID
	}

	phases, err := json.Marshal(instance.Phases)
	if err != nil {
		return fmt.Errorf("marshal phases: %w", err)
	}
	config, err := json.Marshal(instance.Config)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	proposalSchema, rubricSchema, err := marshalSchemas(instance)
	if err != nil {
		return err
	}

	query := fmt.Sprintf(`
		UPDATE %s
		SET current_phase_id = $2, phases = $3, config = $4, status = $5, proposal_schema = $6, rubric_schema = $7
		WHERE id = $1
	`, s.tableName())

	tag, err := s.pool.Exec(ctx, query,
		instance.ID,
		instance.CurrentPhaseID,
		phases,
		config,
		string(instance.Status),
		proposalSchema,
		rubricSchema,
	)
	if err != nil {
		return s.wrapError(err)
	}
	if tag.RowsAffected() == 0 {
		return process.ErrInstanceNotFound
	}
	return nil
}

// Delete removes an instance by ID.
func (s *InstanceStore) Delete(ctx context.Context, id string) error {
	query := fmt.Sprintf("DELETE FROM %s WHERE id = $1", s.tableName())

	tag, err := s.pool.Exec(ctx, query, id)
	if err != nil {
		return s.wrapError(err)
	}
	if tag.RowsAffected() == 0 {
		return process.ErrInstanceNotFound
	}
	return nil
}

// List returns instances matching the filter.
func (s *InstanceStore) List(ctx context.Context, filter process.ListFilter) ([]*process.Instance, error) {
	query := fmt.Sprintf(`
		SELECT id, process_template_id, current_phase_id, phases, config, status, profile_id, owner_profile_id, proposal_schema, rubric_schema
		FROM %s
	`, s.tableName())

	var conditions []string
	var args []any
	arg := 1

	if len(filter.Status) > 0 {
		statuses := make([]string, len(filter.Status))
		for i, status := range filter.Status {
			statuses[i] = string(status)
		}
		conditions = append(conditions, fmt.Sprintf("status = ANY($%d)", arg))
		args = append(args, statuses)
		arg++
	}
	if filter.TemplateID != "" {
		conditions = append(conditions, fmt.Sprintf("process_template_id = $%d", arg))
		args = append(args, filter.TemplateID)
		arg++
	}
	if filter.ProfileID != "" {
		conditions = append(conditions, fmt.Sprintf("profile_id = $%d", arg))
		args = append(args, filter.ProfileID)
		arg++
	}
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY id"
	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", arg)
		args = append(args, filter.Limit)
		arg++
	}
	if filter.Offset > 0 {
		query += fmt.Sprintf(" OFFSET $%d", arg)
		args = append(args, filter.Offset)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, s.wrapError(err)
	}
	defer rows.Close()

	var instances []*process.Instance
	for rows.Next() {
		instance, err := scanInstance(rows)
		if err != nil {
			return nil, s.wrapError(err)
		}
		instances = append(instances, instance)
	}
	return instances, rows.Err()
}

// SetCurrentPhase moves the instance's current phase pointer. Used by
// explicit manual advancement.
func (s *InstanceStore) SetCurrentPhase(ctx context.Context, id, phaseID string) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET current_phase_id = $2,
		    status = CASE WHEN phases->(jsonb_array_length(phases)-1)->>'phaseId' = $2 THEN 'ended' ELSE status END
		WHERE id = $1 AND phases @> jsonb_build_array(jsonb_build_object('phaseId', $2::text))
	`, s.tableName())

	tag, err := s.pool.Exec(ctx, query, id, phaseID)
	if err != nil {
		return s.wrapError(err)
	}
	if tag.RowsAffected() == 0 {
		// Either the instance is missing or the phase is not in its list.
		if _, err := s.Get(ctx, id); err != nil {
			return err
		}
		return process.ErrUnknownPhase
	}
	return nil
}

// wrapError wraps database errors with domain errors.
func (s *InstanceStore) wrapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return errors.Join(process.ErrOperationTimeout, err)
	}
	return errors.Join(process.ErrConnectionFailed, err)
}

func marshalSchemas(instance *process.Instance) ([]byte, []byte, error) {
	var proposalSchema, rubricSchema []byte
	var err error
	if !instance.ProposalSchema.IsZero() {
		if proposalSchema, err = json.Marshal(instance.ProposalSchema); err != nil {
			return nil, nil, fmt.Errorf("marshal proposal schema: %w", err)
		}
	}
	if !instance.RubricSchema.IsZero() {
		if rubricSchema, err = json.Marshal(instance.RubricSchema); err != nil {
			return nil, nil, fmt.Errorf("marshal rubric schema: %w", err)
		}
	}
	return proposalSchema, rubricSchema, nil
}

// scanInstance reads one instance row.
func scanInstance(row pgx.Row) (*process.Instance, error) {
	var instance process.Instance
	var status string
	var phases, config []byte
	var proposalSchema, rubricSchema []byte

	err := row.Scan(
		&instance.ID,
		&instance.TemplateID,
		&instance.CurrentPhaseID,
		&phases,
		&config,
		&status,
		&instance.ProfileID,
		&instance.OwnerProfileID,
		&proposalSchema,
		&rubricSchema,
	)
	if err != nil {
		return nil, err
	}

	instance.Status = process.InstanceStatus(status)
	if err := json.Unmarshal(phases, &instance.Phases); err != nil {
		return nil, fmt.Errorf("unmarshal phases: %w", err)
	}
	if len(config) > 0 {
		if err := json.Unmarshal(config, &instance.Config); err != nil {
			return nil, fmt.Errorf("unmarshal config: %w", err)
		}
	}
	if len(proposalSchema) > 0 {
		var doc schema.Document
		if err := json.Unmarshal(proposalSchema, &doc); err != nil {
			return nil, fmt.Errorf("unmarshal proposal schema: %w", err)
		}
		instance.ProposalSchema = doc
	}
	if len(rubricSchema) > 0 {
		var doc schema.Document
		if err := json.Unmarshal(rubricSchema, &doc); err != nil {
			return nil, fmt.Errorf("unmarshal rubric schema: %w", err)
		}
		instance.RubricSchema = doc
	}
	return &instance, nil
}

var _ process.Store = (*InstanceStore)(nil)
