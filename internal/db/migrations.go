package db

import (
	"database/sql"
	"fmt"
)

// Migration represents a database migration
type Migration struct {
	Version int
	Name    string
	Up      func(*sql.DB) error
}

// migrations is the list of all migrations in order
var migrations = []Migration{
	{
		Version: 1,
		Name:    "initial_escalation_schema",
		Up:      migrationV1,
	},
	{
		Version: 2,
		Name:    "add_resumption_and_failure_tracking",
		Up:      migrationV2,
	},
	{
		Version: 3,
		Name:    "add_audit_events_table",
		Up:      migrationV3,
	},
}

// RunMigrations executes all pending migrations
func RunMigrations() error {
	db, err := GetDB()
	if err != nil {
		return fmt.Errorf("failed to get database: %w", err)
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_version (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create schema_version table: %w", err)
	}

	var currentVersion int
	err = db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_version").Scan(&currentVersion)
	if err != nil {
		return fmt.Errorf("failed to get current schema version: %w", err)
	}

	for _, migration := range migrations {
		if migration.Version <= currentVersion {
			continue
		}

		fmt.Printf("Running migration %d: %s\n", migration.Version, migration.Name)

		tx, err := db.Begin()
		if err != nil {
			return fmt.Errorf("failed to begin transaction for migration %d: %w", migration.Version, err)
		}

		if err := migration.Up(db); err != nil {
			tx.Rollback()
			return fmt.Errorf("migration %d failed: %w", migration.Version, err)
		}

		_, err = tx.Exec("INSERT INTO schema_version (version) VALUES (?)", migration.Version)
		if err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to record migration %d: %w", migration.Version, err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("failed to commit migration %d: %w", migration.Version, err)
		}

		fmt.Printf("✓ Migration %d completed\n", migration.Version)
	}

	return nil
}

// migrationV1 creates the initial escalation, round and focus tables.
func migrationV1(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS escalations (
			id TEXT PRIMARY KEY,
			tenant_id TEXT NOT NULL,
			origin_agent TEXT NOT NULL,
			type TEXT NOT NULL,
			priority TEXT NOT NULL CHECK(priority IN ('CRITICAL', 'HIGH', 'MEDIUM', 'LOW')) DEFAULT 'MEDIUM',
			state TEXT NOT NULL CHECK(state IN ('paused', 'awaiting_clarification', 'in_authority', 'resolved', 'failed')) DEFAULT 'paused',
			requester_addr TEXT,
			requester_name TEXT,
			requester_role TEXT,
			session_ref TEXT,
			message_ref TEXT,
			reason TEXT NOT NULL,
			needed TEXT NOT NULL,
			context_json TEXT NOT NULL DEFAULT '{}',
			summary TEXT,
			decision TEXT,
			instruction TEXT,
			resolved_by TEXT,
			resolved_at DATETIME,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return err
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS escalation_rounds (
			escalation_id TEXT NOT NULL,
			round_number INTEGER NOT NULL,
			type TEXT NOT NULL CHECK(type IN ('clarification_request', 'needs_decision', 'decision_made')),
			request_text TEXT,
			response_text TEXT,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (escalation_id, round_number),
			FOREIGN KEY (escalation_id) REFERENCES escalations(id) ON DELETE CASCADE
		)
	`)
	if err != nil {
		return err
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS focus_states (
			authority_addr TEXT PRIMARY KEY,
			tenant_id TEXT NOT NULL,
			escalation_id TEXT,
			last_interaction_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return err
	}

	_, err = db.Exec(`CREATE INDEX IF NOT EXISTS idx_escalations_tenant_state ON escalations(tenant_id, state)`)
	if err != nil {
		return err
	}
	_, err = db.Exec(`CREATE INDEX IF NOT EXISTS idx_escalations_created ON escalations(created_at)`)
	return err
}

// migrationV2 adds resumption tracking and the failure reason column.
func migrationV2(db *sql.DB) error {
	_, err := db.Exec(`ALTER TABLE escalations ADD COLUMN resumed_at DATETIME`)
	if err != nil {
		return err
	}
	_, err = db.Exec(`ALTER TABLE escalations ADD COLUMN resume_marker TEXT`)
	if err != nil {
		return err
	}
	_, err = db.Exec(`ALTER TABLE escalations ADD COLUMN failure_reason TEXT`)
	return err
}

// migrationV3 adds the audit trail.
func migrationV3(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS audit_events (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			tenant_id TEXT NOT NULL,
			escalation_id TEXT,
			event_type TEXT NOT NULL,
			detail TEXT,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return err
	}
	_, err = db.Exec(`CREATE INDEX IF NOT EXISTS idx_audit_events_escalation ON audit_events(escalation_id)`)
	return err
}
