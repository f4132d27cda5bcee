package storage

import (
	"database/sql"
	"fmt"
	"os"

	_ "modernc.org/sqlite" // CGO-free SQLite driver

	"github.com/lauolme/registro-app/internal/ir"
)

// DB is the rule store backed by SQLite.
type DB struct {
	conn *sql.DB
}

// OpenSQLite opens (and creates if missing) a SQLite DB at path.
func OpenSQLite(path string) (*DB, error) {
	// Pragmas via DSN keep it portable with the modernc driver.
	dsn := "file:" + path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(ON)"
	c, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	if err := c.Ping(); err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("open rules db %s: %w", path, err)
	}
	return &DB{conn: c}, nil
}

// OpenExisting opens a rules DB that must already exist, for read paths that
// should not leave an empty file behind on a mistyped path.
func OpenExisting(path string) (*DB, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, &ir.LoadError{Source: "sqlite:" + path, Index: -1, Reason: "open rules db", Err: err}
	}
	return OpenSQLite(path)
}

func (db *DB) Close() error { return db.conn.Close() }

// CreateSchema ensures tables exist.
func (db *DB) CreateSchema() error {
	_, err := db.conn.Exec(`
CREATE TABLE IF NOT EXISTS rule_sets (
  name        TEXT PRIMARY KEY,
  source      TEXT,
  imported_at TEXT NOT NULL       -- RFC3339Nano
);

CREATE TABLE IF NOT EXISTS rules (
  rule_set   TEXT NOT NULL,
  ordinal    INTEGER NOT NULL,    -- position in the pack; evaluation order
  name       TEXT NOT NULL,
  analysis   TEXT NOT NULL,
  conclusion TEXT NOT NULL,
  risk       TEXT NOT NULL DEFAULT '',
  next_steps TEXT NOT NULL DEFAULT '',
  PRIMARY KEY (rule_set, ordinal),
  FOREIGN KEY(rule_set) REFERENCES rule_sets(name) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS conditions (
  rule_set TEXT NOT NULL,
  rule_ord INTEGER NOT NULL,
  ordinal  INTEGER NOT NULL,
  key      TEXT NOT NULL,
  value    TEXT NOT NULL,
  PRIMARY KEY (rule_set, rule_ord, ordinal),
  FOREIGN KEY(rule_set, rule_ord) REFERENCES rules(rule_set, ordinal) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_rules_name ON rules(rule_set, name);
`)
	return err
}
