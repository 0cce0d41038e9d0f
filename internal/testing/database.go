package testing

import (
	"context"
	"database/sql"
	"testing"

	_ "github.com/mattn/go-sqlite3"

	"github.com/teranos/typeahead/db"
)

// CreateTestDB creates an in-memory SQLite test database with the full schema.
// Automatically registers cleanup via t.Cleanup().
func CreateTestDB(t *testing.T) *sql.DB {
	t.Helper()

	conn, err := sql.Open("sqlite3", "file::memory:?_foreign_keys=on")
	if err != nil {
		t.Fatalf("Failed to create test database: %v", err)
	}
	// Every new connection to :memory: is a fresh empty database
	conn.SetMaxOpenConns(1)

	t.Cleanup(func() {
		conn.Close()
	})

	if err := db.Migrate(conn, nil); err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}

	return conn
}

// CreateSeededTestDB creates a test database populated with the demo organization.
func CreateSeededTestDB(t *testing.T) *sql.DB {
	t.Helper()

	conn := CreateTestDB(t)

	fixture, err := db.DemoFixture()
	if err != nil {
		t.Fatalf("Failed to parse demo fixture: %v", err)
	}
	if err := db.Seed(context.Background(), conn, fixture); err != nil {
		t.Fatalf("Failed to seed test database: %v", err)
	}

	return conn
}
