package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/felixgeelhaar/decision-go/domain/proposal"
)

// ProposalStore is a SQLite-backed implementation of proposal.Store.
type ProposalStore struct {
	db *sql.DB
}

// NewProposalStore creates a new SQLite proposal store with the given
// configuration.
func NewProposalStore(cfg Config, opts ...Option) (*ProposalStore, error) {
	for _, opt := range opts {
		opt(&cfg)
	}

	db, err := openDB(cfg)
	if err != nil {
		return nil, err
	}

	s := &ProposalStore{db: db}
	if cfg.AutoMigrate {
		if err := s.migrate(); err != nil {
			_ = db.Close()
			return nil, err
		}
	}
	return s, nil
}

// NewProposalStoreFromDB creates a proposal store from an existing
// database connection.
func NewProposalStoreFromDB(db *sql.DB) (*ProposalStore, error) {
	s := &ProposalStore{db: db}
	if err := s.migrate(); err != nil {
		return nil, err
	}
	return s, nil
}

// Close closes the underlying database.
func (s *ProposalStore) Close() error {
	return s.db.Close()
}

// migrate creates the proposals table if it doesn't exist.
func (s *ProposalStore) migrate() error {
	ddl := `
		CREATE TABLE IF NOT EXISTS proposals (
			id TEXT PRIMARY KEY,
			process_instance_id TEXT NOT NULL,
			status TEXT NOT NULL,
			data BLOB NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_proposals_instance ON proposals(process_instance_id);
	`
	if _, err := s.db.Exec(ddl); err != nil {
		return errors.Join(ErrMigrationFailed, err)
	}
	return nil
}

// Save persists a new proposal.
func (s *ProposalStore) Save(ctx context.Context, p *proposal.Proposal) error {
	if p.ID == "" {
		return proposal.ErrInvalidProposal
	}

	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal proposal: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		"INSERT INTO proposals (id, process_instance_id, status, data) VALUES (?, ?, ?, ?)",
		p.ID, p.ProcessInstanceID, string(p.Status), data,
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint") {
			return proposal.ErrProposalExists
		}
		return err
	}
	return nil
}

// Get retrieves a proposal by ID.
func (s *ProposalStore) Get(ctx context.Context, id string) (*proposal.Proposal, error) {
	var data []byte
	err := s.db.QueryRowContext(ctx,
		"SELECT data FROM proposals WHERE id = ?", id,
	).Scan(&data)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, proposal.ErrProposalNotFound
		}
		return nil, err
	}

	var p proposal.Proposal
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("unmarshal proposal: %w", err)
	}
	return &p, nil
}

// Update updates an existing proposal.
func (s *ProposalStore) Update(ctx context.Context, p *proposal.Proposal) error {
	if p.ID == "" {
		return proposal.ErrInvalidProposal
	}

	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal proposal: %w", err)
	}

	result, err := s.db.ExecContext(ctx,
		"UPDATE proposals SET process_instance_id = ?, status = ?, data = ? WHERE id = ?",
		p.ProcessInstanceID, string(p.Status), data, p.ID,
	)
	if err != nil {
		return err
	}
	return requireRow(result, proposal.ErrProposalNotFound)
}

// List returns proposals matching the filter.
func (s *ProposalStore) List(ctx context.Context, filter proposal.ListFilter) ([]*proposal.Proposal, error) {
	query := "SELECT data FROM proposals"

	var conditions []string
	var args []any

	if filter.ProcessInstanceID != "" {
		conditions = append(conditions, "process_instance_id = ?")
		args = append(args, filter.ProcessInstanceID)
	}
	if len(filter.Status) > 0 {
		placeholders := make([]string, len(filter.Status))
		for i, status := range filter.Status {
			placeholders[i] = "?"
			args = append(args, string(status))
		}
		conditions = append(conditions, "status IN ("+strings.Join(placeholders, ", ")+")")
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

	var proposals []*proposal.Proposal
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, err
		}
		var p proposal.Proposal
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, fmt.Errorf("unmarshal proposal: %w", err)
		}
		proposals = append(proposals, &p)
	}
	return proposals, rows.Err()
}

var _ proposal.Store = (*ProposalStore)(nil)
