package database

import (
	"path/filepath"
	"testing"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := OpenSQLite(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestMigrationsCreateSchema(t *testing.T) {
	db := openTestDB(t)

	if err := db.RunMigrations("../../migrations"); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}

	tables := []string{"accounts", "sessions", "alumni_records", "family_profiles", "consent_records", "invitations"}
	for _, table := range tables {
		var name string
		err := db.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&name)
		if err != nil {
			t.Errorf("Table %s not found: %v", table, err)
		}
	}

	// Running migrations twice must be a no-op.
	if err := db.RunMigrations("../../migrations"); err != nil {
		t.Fatalf("Second migration run failed: %v", err)
	}
}

func TestTransactionRollback(t *testing.T) {
	db := openTestDB(t)
	if err := db.RunMigrations("../../migrations"); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}

	tx, err := db.Begin()
	if err != nil {
		t.Fatalf("Failed to begin transaction: %v", err)
	}
	if _, err := tx.ExecReturningID(
		"INSERT INTO accounts (email, password_hash, is_family_account) VALUES (?, ?, ?)",
		"tx@example.com", "hash", false,
	); err != nil {
		t.Fatalf("Failed to insert in transaction: %v", err)
	}
	if err := tx.Rollback(); err != nil {
		t.Fatalf("Failed to roll back: %v", err)
	}

	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM accounts WHERE email = ?", "tx@example.com").Scan(&count); err != nil {
		t.Fatalf("Failed to count accounts: %v", err)
	}
	if count != 0 {
		t.Errorf("Rolled-back insert still visible, count = %d", count)
	}
}

func TestPostgresQueryRewrite(t *testing.T) {
	d := NewPostgresDialect()

	got := d.RewriteQuery("SELECT id FROM accounts WHERE email = ? AND is_active = ?")
	want := "SELECT id FROM accounts WHERE email = $1 AND is_active = $2"
	if got != want {
		t.Errorf("RewriteQuery = %q, want %q", got, want)
	}
}

func TestSQLiteQueryRewriteIsIdentity(t *testing.T) {
	d := NewSQLiteDialect()

	query := "SELECT id FROM accounts WHERE email = ?"
	if got := d.RewriteQuery(query); got != query {
		t.Errorf("RewriteQuery changed the query: %q", got)
	}
}
