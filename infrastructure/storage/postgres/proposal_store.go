package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/felixgeelhaar/decision-go/domain/proposal"
)

// ProposalStore is a PostgreSQL-backed implementation of proposal.Store.
type ProposalStore struct {
	pool   *pgxpool.Pool
	schema string
}

// NewProposalStore creates a new PostgreSQL proposal store.
func NewProposalStore(pool *pgxpool.Pool, schemaName string) *ProposalStore {
	if schemaName == "" {
		schemaName = "public"
	}
	return &ProposalStore{
		pool:   pool,
		schema: schemaName,
	}
}

// tableName returns the fully qualified table name.
func (s *ProposalStore) tableName() string {
	return fmt.Sprintf("%s.proposals", s.schema)
}

// Save persists a new proposal.
func (s *ProposalStore) Save(ctx context.Context, p *proposal.Proposal) error {
	if p.ID == "" {
		return proposal.ErrInvalidProposal
	}

	data, err := json.Marshal(p.Data)
	if err != nil {
		return fmt.Errorf("marshal proposal data: %w", err)
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (id, process_instance_id, proposal_data, status, collaboration_doc_id, submitter_profile_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, s.tableName())

	_, err = s.pool.Exec(ctx, query,
		p.ID,
		p.ProcessInstanceID,
		data,
		string(p.Status),
		p.CollaborationDocID,
		p.SubmitterProfileID,
		p.CreatedAt,
		p.UpdatedAt,
	)
	if err != nil {
		if strings.Contains(err.Error(), "duplicate key") {
			return proposal.ErrProposalExists
		}
		return s.wrapError(err)
	}
	return nil
}

// Get retrieves a proposal by ID.
func (s *ProposalStore) Get(ctx context.Context, id string) (*proposal.Proposal, error) {
	query := fmt.Sprintf(`
		SELECT id, process_instance_id, proposal_data, status, collaboration_doc_id, submitter_profile_id, created_at, updated_at
		FROM %s
		WHERE id = $1
	`, s.tableName())

	p, err := scanProposal(s.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, proposal.ErrProposalNotFound
		}
		return nil, s.wrapError(err)
	}
	return p, nil
}

// Update updates an existing proposal.
func (s *ProposalStore) Update(ctx context.Context, p *proposal.Proposal) error {
	if p.ID == "" {
		return proposal.ErrInvalidProposal
	}

	data, err := json.Marshal(p.Data)
	if err != nil {
		return fmt.Errorf("marshal proposal data: %w", err)
	}

	query := fmt.Sprintf(`
		UPDATE %s
		SET proposal_data = $2, status = $3, collaboration_doc_id = $4, updated_at = $5
		WHERE id = $1
	`, s.tableName())

	tag, err := s.pool.Exec(ctx, query,
		p.ID,
		data,
		string(p.Status),
		p.CollaborationDocID,
		p.UpdatedAt,
	)
	if err != nil {
		return s.wrapError(err)
	}
	if tag.RowsAffected() == 0 {
		return proposal.ErrProposalNotFound
	}
	return nil
}

// List returns proposals matching the filter.
func (s *ProposalStore) List(ctx context.Context, filter proposal.ListFilter) ([]*proposal.Proposal, error) {
	query := fmt.Sprintf(`
		SELECT id, process_instance_id, proposal_data, status, collaboration_doc_id, submitter_profile_id, created_at, updated_at
		FROM %s
	`, s.tableName())

	var conditions []string
	var args []any
	arg := 1

	if filter.ProcessInstanceID != "" {
		conditions = append(conditions, fmt.Sprintf("process_instance_id = $%d", arg))
		args = append(args, filter.ProcessInstanceID)
		arg++
	}
	if len(filter.Status) > 0 {
		statuses := make([]string, len(filter.Status))
		for i, status := range filter.Status {
			statuses[i] = string(status)
		}
		conditions = append(conditions, fmt.Sprintf("status = ANY($%d)", arg))
		args = append(args, statuses)
		arg++
	}
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY created_at, id"
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

	var proposals []*proposal.Proposal
	for rows.Next() {
		p, err := scanProposal(rows)
		if err != nil {
			return nil, s.wrapError(err)
		}
		proposals = append(proposals, p)
	}
	return proposals, rows.Err()
}

// wrapError wraps database errors with domain errors.
func (s *ProposalStore) wrapError(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("proposal store: %w", err)
}

func scanProposal(row pgx.Row) (*proposal.Proposal, error) {
	var p proposal.Proposal
	var status string
	var data []byte

	err := row.Scan(
		&p.ID,
		&p.ProcessInstanceID,
		&data,
		&status,
		&p.CollaborationDocID,
		&p.SubmitterProfileID,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	p.Status = proposal.Status(status)
	if len(data) > 0 {
		if err := json.Unmarshal(data, &p.Data); err != nil {
			return nil, fmt.Errorf("unmarshal proposal data: %w", err)
		}
	}
	return &p, nil
}

var _ proposal.Store = (*ProposalStore)(nil)
