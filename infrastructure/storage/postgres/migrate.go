package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Migrate creates the decision process tables and indexes if they do not
// exist. The partial index on uncompleted transitions serves the monitor's
// due query; the unique index enforces the (instance, from, to) identity.
func Migrate(ctx context.Context, pool *pgxpool.Pool, schemaName string) error {
	if schemaName == "" {
		schemaName = "public"
	}

	ddl := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %[1]s.process_instances (
			id TEXT PRIMARY KEY,
			process_template_id TEXT NOT NULL,
			current_phase_id TEXT NOT NULL,
			phases JSONB NOT NULL,
			config JSONB,
			status TEXT NOT NULL,
			profile_id TEXT NOT NULL DEFAULT '',
			owner_profile_id TEXT NOT NULL DEFAULT '',
			proposal_schema JSONB,
			rubric_schema JSONB
		);
		CREATE INDEX IF NOT EXISTS idx_process_instances_status
			ON %[1]s.process_instances(status);
		CREATE INDEX IF NOT EXISTS idx_process_instances_profile
			ON %[1]s.process_instances(profile_id);

		CREATE TABLE IF NOT EXISTS %[1]s.scheduled_transitions (
			id TEXT PRIMARY KEY,
			process_instance_id TEXT NOT NULL REFERENCES %[1]s.process_instances(id) ON DELETE CASCADE,
			from_phase_id TEXT NOT NULL,
			to_phase_id TEXT NOT NULL,
			scheduled_date TIMESTAMPTZ NOT NULL,
			completed_at TIMESTAMPTZ
		);
		CREATE UNIQUE INDEX IF NOT EXISTS idx_scheduled_transitions_pair
			ON %[1]s.scheduled_transitions(process_instance_id, from_phase_id, to_phase_id);
		CREATE INDEX IF NOT EXISTS idx_scheduled_transitions_instance_date
			ON %[1]s.scheduled_transitions(process_instance_id, scheduled_date);
		CREATE INDEX IF NOT EXISTS idx_scheduled_transitions_due
			ON %[1]s.scheduled_transitions(scheduled_date)
			WHERE completed_at IS NULL;

		CREATE TABLE IF NOT EXISTS %[1]s.proposals (
			id TEXT PRIMARY KEY,
			process_instance_id TEXT NOT NULL REFERENCES %[1]s.process_instances(id) ON DELETE CASCADE,
			proposal_data JSONB,
			status TEXT NOT NULL,
			collaboration_doc_id TEXT NOT NULL DEFAULT '',
			submitter_profile_id TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_proposals_instance_status
			ON %[1]s.proposals(process_instance_id, status);
	`, schemaName)

	if _, err := pool.Exec(ctx, ddl); err != nil {
		return fmt.Errorf("migrate decision schema: %w", err)
	}
	return nil
}
