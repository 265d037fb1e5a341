package db

// SchemaSQL is the complete modern schema for fresh regent installs.
// This schema reflects the current state after all migrations.
//
// This is the SINGLE SOURCE OF TRUTH for the database schema. All tests load
// it via GetSchemaSQL() instead of hardcoding CREATE TABLE statements, so any
// drift between repository code and schema fails immediately with
// "no such column" at test time.
//
// When adding new columns or tables:
//  1. Add a migration in internal/db/migrations.go
//  2. Update SchemaSQL here
const SchemaSQL = `
-- Escalations (suspended decisions awaiting human authority)
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
	resumed_at DATETIME,
	resume_marker TEXT,
	failure_reason TEXT,
	created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
	updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_escalations_tenant_state ON escalations(tenant_id, state);
CREATE INDEX IF NOT EXISTS idx_escalations_created ON escalations(created_at);

-- Escalation rounds (append-only authority exchange log)
CREATE TABLE IF NOT EXISTS escalation_rounds (
	escalation_id TEXT NOT NULL,
	round_number INTEGER NOT NULL,
	type TEXT NOT NULL CHECK(type IN ('clarification_request', 'needs_decision', 'decision_made')),
	request_text TEXT,
	response_text TEXT,
	created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
	PRIMARY KEY (escalation_id, round_number),
	FOREIGN KEY (escalation_id) REFERENCES escalations(id) ON DELETE CASCADE
);

-- Focus states (advisory current-attention pointer per authority address)
CREATE TABLE IF NOT EXISTS focus_states (
	authority_addr TEXT PRIMARY KEY,
	tenant_id TEXT NOT NULL,
	escalation_id TEXT,
	last_interaction_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

-- Audit events (fire-and-forget trail, one row per state transition)
CREATE TABLE IF NOT EXISTS audit_events (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	tenant_id TEXT NOT NULL,
	escalation_id TEXT,
	event_type TEXT NOT NULL,
	detail TEXT,
	created_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_audit_events_escalation ON audit_events(escalation_id);
`

// InitSchema creates the database schema.
func InitSchema() error {
	db, err := GetDB()
	if err != nil {
		return err
	}

	// Fresh installs get the modern schema directly with all migrations marked
	// as applied; existing installs run pending migrations only.
	var tableCount int
	err = db.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='schema_version'").Scan(&tableCount)
	if err != nil {
		return err
	}

	if tableCount == 0 {
		if _, err := db.Exec(SchemaSQL); err != nil {
			return err
		}
		_, err = db.Exec(`
			CREATE TABLE IF NOT EXISTS schema_version (
				version INTEGER PRIMARY KEY,
				applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
			)
		`)
		if err != nil {
			return err
		}
		for _, m := range migrations {
			if _, err := db.Exec("INSERT INTO schema_version (version) VALUES (?)", m.Version); err != nil {
				return err
			}
		}
		return nil
	}

	return RunMigrations()
}

// GetSchemaSQL returns the authoritative schema SQL for use by tests.
// Tests should use this instead of hardcoding their own schema to prevent drift.
func GetSchemaSQL() string {
	return SchemaSQL
}
