// Package sqlite_test contains integration tests for SQLite repositories.
//
// # Schema Protection
//
// This file is the SINGLE POINT where the database schema is loaded for tests.
// All test setup functions use db.GetSchemaSQL() to ensure tests run against
// the authoritative schema, preventing drift between test and production.
//
// DO NOT hardcode CREATE TABLE statements in test files. Use setupTestDB()
// and the seed* helpers instead.
package sqlite_test

import (
	"database/sql"
	"testing"

	_ "github.com/mattn/go-sqlite3"

	"github.com/example/regent/internal/db"
)

// setupTestDB creates an in-memory database with the authoritative schema.
// This is the single shared test database setup function for all repository tests.
// Uses db.GetSchemaSQL() to prevent test schemas from drifting.
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	testDB, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}

	// Use the authoritative schema from schema.go
	_, err = testDB.Exec(db.GetSchemaSQL())
	if err != nil {
		t.Fatalf("failed to create schema: %v", err)
	}

	t.Cleanup(func() {
		testDB.Close()
	})

	return testDB
}

// seedEscalation inserts a minimal test escalation and returns its ID.
func seedEscalation(t *testing.T, db *sql.DB, id, tenantID string) string {
	t.Helper()
	if id == "" {
		id = "ESC-001"
	}
	if tenantID == "" {
		tenantID = "school-1"
	}
	_, err := db.Exec(
		`INSERT INTO escalations (id, tenant_id, origin_agent, type, priority, state, reason, needed)
		VALUES (?, ?, 'marks-agent', 'MARK_SUBMISSION_APPROVAL', 'MEDIUM', 'paused', 'approval needed', 'a decision')`,
		id, tenantID)
	if err != nil {
		t.Fatalf("failed to seed escalation: %v", err)
	}
	return id
}

// seedPending inserts a pending escalation with an explicit priority and
// creation time, for ordering tests.
func seedPending(t *testing.T, db *sql.DB, id, tenantID, priority, createdAt string) string {
	t.Helper()
	_, err := db.Exec(
		`INSERT INTO escalations (id, tenant_id, origin_agent, type, priority, state, reason, needed, created_at)
		VALUES (?, ?, 'fees-agent', 'FEE_PAYMENT_CONFIRMATION', ?, 'paused', 'confirmation needed', 'a decision', ?)`,
		id, tenantID, priority, createdAt)
	if err != nil {
		t.Fatalf("failed to seed pending escalation: %v", err)
	}
	return id
}
