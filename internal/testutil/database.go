package testutil

import (
	"database/sql"
	"testing"

	_ "modernc.org/sqlite" // Test Package
)

// SetupTestDB creates an in-memory SQLite database for testing.
// The database is automatically cleaned up when the test completes.
//
// Example usage:
//
//	func TestSomething(t *testing.T) {
//	    db := testutil.SetupTestDB(t)
//	    // db is ready to use with schema created
//	}
func SetupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	// In-memory database (destroyed when connection closes)
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}

	if err := db.Ping(); err != nil {
		t.Fatalf("Failed to ping test database: %v", err)
	}

	pragmas := []string{
		"PRAGMA foreign_keys = ON",
		"PRAGMA journal_mode = MEMORY", // Faster for tests
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			t.Fatalf("Failed to set pragma: %v", err)
		}
	}

	if err := createTestSchema(db); err != nil {
		t.Fatalf("Failed to create test schema: %v", err)
	}

	t.Cleanup(func() {
		db.Close()
	})

	return db
}

// createTestSchema creates all database tables for testing.
// Schema is synchronized with the production migrations.
func createTestSchema(db *sql.DB) error {
	schema := `
		-- Asset reference table
		CREATE TABLE asset (
			code VARCHAR(20) NOT NULL PRIMARY KEY,
			short_code VARCHAR(10) NOT NULL,
			name VARCHAR(100) NOT NULL,
			category VARCHAR(10) NOT NULL
		);

		-- Deal ledger table
		CREATE TABLE deal (
			id VARCHAR(36) NOT NULL PRIMARY KEY,
			account VARCHAR(100) NOT NULL,
			sub_account VARCHAR(100),
			asset_code VARCHAR(20) NOT NULL,
			time DATETIME NOT NULL,
			action VARCHAR(12) NOT NULL,
			amount FLOAT NOT NULL,
			price FLOAT NOT NULL,
			money FLOAT NOT NULL,
			fee FLOAT NOT NULL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY(asset_code) REFERENCES asset(code),
			CONSTRAINT unique_deal UNIQUE (account, time, asset_code, amount)
		);

		-- Price history table
		CREATE TABLE price_point (
			id VARCHAR(36) NOT NULL PRIMARY KEY,
			asset_code VARCHAR(20) NOT NULL,
			date DATE NOT NULL,
			open FLOAT,
			close FLOAT,
			high FLOAT,
			low FLOAT,
			pre_close FLOAT,
			change FLOAT,
			pct_change FLOAT,
			volume FLOAT,
			turnover FLOAT,
			nav FLOAT,
			auv FLOAT,
			bonus_action VARCHAR(10),
			bonus_value FLOAT,
			FOREIGN KEY(asset_code) REFERENCES asset(code)
		);

		-- Derived: sparse daily holdings snapshots
		CREATE TABLE asset_snapshot (
			id VARCHAR(36) NOT NULL PRIMARY KEY,
			account VARCHAR(100) NOT NULL,
			date DATE NOT NULL,
			asset_code VARCHAR(20) NOT NULL,
			amount FLOAT NOT NULL,
			cost FLOAT,
			FOREIGN KEY(asset_code) REFERENCES asset(code),
			CONSTRAINT unique_snapshot UNIQUE (account, date, asset_code)
		);

		-- Derived: daily account-level metrics
		CREATE TABLE account_history (
			id VARCHAR(36) NOT NULL PRIMARY KEY,
			account VARCHAR(100) NOT NULL,
			date DATE NOT NULL,
			invested FLOAT NOT NULL,
			money FLOAT NOT NULL,
			nav FLOAT NOT NULL,
			cash FLOAT NOT NULL,
			position FLOAT NOT NULL,
			CONSTRAINT unique_history UNIQUE (account, date)
		);

		CREATE INDEX ix_deal_account ON deal(account);
		CREATE INDEX ix_deal_asset_code ON deal(asset_code);
		CREATE INDEX ix_deal_account_time ON deal(account, time);
		CREATE INDEX ix_deal_action ON deal(action);
		CREATE INDEX ix_price_point_asset_date ON price_point(asset_code, date);
		CREATE INDEX ix_price_point_date ON price_point(date);
		CREATE INDEX ix_snapshot_account_date ON asset_snapshot(account, date);
		CREATE INDEX ix_history_account_date ON account_history(account, date);
	`

	_, err := db.Exec(schema)
	return err
}
