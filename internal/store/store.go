package store

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// Store is the SQLite data access layer for the symbol index.
type Store struct {
	db *sql.DB
}

// NewStore opens a SQLite database at dbPath with WAL mode enabled.
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=ON&_busy_timeout=30000")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying *sql.DB for use in transactions.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Migrate creates all tables and indexes. Idempotent.
func (s *Store) Migrate() error {
	_, err := s.db.Exec(schemaDDL)
	if err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

const schemaDDL = `
-- Extraction tables

CREATE TABLE IF NOT EXISTS files (
  id              INTEGER PRIMARY KEY,
  path            TEXT NOT NULL UNIQUE,
  language        TEXT NOT NULL,
  hash            TEXT,
  is_module       BOOLEAN DEFAULT FALSE,
  last_indexed    TIMESTAMP
);

CREATE TABLE IF NOT EXISTS symbols (
  id              INTEGER PRIMARY KEY,
  file_id         INTEGER REFERENCES files(id),
  name            TEXT NOT NULL,
  escaped_name    TEXT NOT NULL,
  flags           TEXT,
  parent_symbol_id INTEGER REFERENCES symbols(id),
  is_global       BOOLEAN DEFAULT FALSE
);

CREATE TABLE IF NOT EXISTS scopes (
  id              INTEGER PRIMARY KEY,
  file_id         INTEGER NOT NULL REFERENCES files(id),
  symbol_id       INTEGER REFERENCES symbols(id),
  kind            TEXT NOT NULL,
  start_byte      INTEGER,
  end_byte        INTEGER,
  parent_scope_id INTEGER REFERENCES scopes(id)
);

CREATE TABLE IF NOT EXISTS declarations (
  id              INTEGER PRIMARY KEY,
  symbol_id       INTEGER NOT NULL REFERENCES symbols(id),
  file_id         INTEGER NOT NULL REFERENCES files(id),
  scope_id        INTEGER REFERENCES scopes(id),
  name            TEXT NOT NULL,
  kind            TEXT NOT NULL,
  start_byte      INTEGER,
  end_byte        INTEGER,
  name_start      INTEGER,
  name_end        INTEGER,
  ancestors       TEXT,
  expression      TEXT,
  signature_symbol_id INTEGER REFERENCES symbols(id)
);

CREATE TABLE IF NOT EXISTS references_ (
  id              INTEGER PRIMARY KEY,
  file_id         INTEGER NOT NULL REFERENCES files(id),
  scope_id        INTEGER REFERENCES scopes(id),
  name            TEXT NOT NULL,
  start_byte      INTEGER,
  end_byte        INTEGER,
  context         TEXT,
  object_reference_id INTEGER REFERENCES references_(id)
);

CREATE TABLE IF NOT EXISTS imports (
  id              INTEGER PRIMARY KEY,
  file_id         INTEGER NOT NULL REFERENCES files(id),
  source          TEXT NOT NULL,
  imported_name   TEXT,
  local_alias     TEXT,
  kind            TEXT DEFAULT 'named',
  start_byte      INTEGER,
  end_byte        INTEGER
);

CREATE TABLE IF NOT EXISTS exports (
  id              INTEGER PRIMARY KEY,
  file_id         INTEGER NOT NULL REFERENCES files(id),
  container_symbol_id INTEGER NOT NULL REFERENCES symbols(id),
  exported_name   TEXT NOT NULL,
  symbol_id       INTEGER REFERENCES symbols(id),
  local_name      TEXT,
  source          TEXT
);

-- Resolution tables

CREATE TABLE IF NOT EXISTS resolved_references (
  id              INTEGER PRIMARY KEY,
  reference_id    INTEGER NOT NULL REFERENCES references_(id),
  target_symbol_id INTEGER REFERENCES symbols(id),
  builtin         TEXT,
  resolution_kind TEXT
);

CREATE TABLE IF NOT EXISTS symbol_merges (
  id              INTEGER PRIMARY KEY,
  symbol_id       INTEGER NOT NULL UNIQUE REFERENCES symbols(id),
  canonical_symbol_id INTEGER NOT NULL REFERENCES symbols(id)
);

CREATE TABLE IF NOT EXISTS reexports (
  id              INTEGER PRIMARY KEY,
  file_id         INTEGER NOT NULL REFERENCES files(id),
  container_symbol_id INTEGER NOT NULL REFERENCES symbols(id),
  original_symbol_id INTEGER NOT NULL REFERENCES symbols(id),
  exported_name   TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS metadata (
  key             TEXT PRIMARY KEY,
  value           TEXT
);

-- Indexes

CREATE INDEX IF NOT EXISTS idx_files_language ON files(language);
CREATE INDEX IF NOT EXISTS idx_symbols_file ON symbols(file_id);
CREATE INDEX IF NOT EXISTS idx_symbols_name ON symbols(name);
CREATE INDEX IF NOT EXISTS idx_symbols_parent ON symbols(parent_symbol_id);
CREATE INDEX IF NOT EXISTS idx_declarations_symbol ON declarations(symbol_id);
CREATE INDEX IF NOT EXISTS idx_declarations_file ON declarations(file_id);
CREATE INDEX IF NOT EXISTS idx_declarations_scope ON declarations(scope_id);
CREATE INDEX IF NOT EXISTS idx_scopes_file ON scopes(file_id);
CREATE INDEX IF NOT EXISTS idx_scopes_parent ON scopes(parent_scope_id);
CREATE INDEX IF NOT EXISTS idx_references_file ON references_(file_id);
CREATE INDEX IF NOT EXISTS idx_references_name ON references_(name);
CREATE INDEX IF NOT EXISTS idx_imports_file ON imports(file_id);
CREATE INDEX IF NOT EXISTS idx_imports_source ON imports(source);
CREATE INDEX IF NOT EXISTS idx_exports_container ON exports(container_symbol_id);
CREATE INDEX IF NOT EXISTS idx_exports_file ON exports(file_id);
CREATE INDEX IF NOT EXISTS idx_resolved_refs_reference ON resolved_references(reference_id);
CREATE INDEX IF NOT EXISTS idx_resolved_refs_target ON resolved_references(target_symbol_id);
CREATE INDEX IF NOT EXISTS idx_symbol_merges_canonical ON symbol_merges(canonical_symbol_id);
CREATE INDEX IF NOT EXISTS idx_reexports_file ON reexports(file_id);
CREATE INDEX IF NOT EXISTS idx_reexports_original ON reexports(original_symbol_id);
`

// resolutionTables lists the tables rebuilt by every resolution pass.
var resolutionTables = []string{"resolved_references", "symbol_merges", "reexports"}

// DeleteResolutionData removes all resolution rows. Resolution is whole
// program, so any change to extraction data invalidates all of it.
func (s *Store) DeleteResolutionData() error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()
	if err := deleteResolutionTx(tx); err != nil {
		return err
	}
	return tx.Commit()
}

func deleteResolutionTx(tx *sql.Tx) error {
	for _, table := range resolutionTables {
		if _, err := tx.Exec("DELETE FROM " + table); err != nil {
			return fmt.Errorf("delete %s: %w", table, err)
		}
	}
	return nil
}

// DeleteFileData transactionally removes all extraction data for a file,
// along with every resolution row. Deletes in reverse-dependency order to
// respect FK constraints. The file row itself is kept.
func (s *Store) DeleteFileData(fileID int64) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()
	if err := deleteFileDataTx(tx, fileID); err != nil {
		return err
	}
	return tx.Commit()
}

// RemoveFile deletes a file's data and its file row.
func (s *Store) RemoveFile(fileID int64) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()
	if err := deleteFileDataTx(tx, fileID); err != nil {
		return err
	}
	if _, err := tx.Exec("DELETE FROM files WHERE id = ?", fileID); err != nil {
		return fmt.Errorf("delete file record: %w", err)
	}
	return tx.Commit()
}

func deleteFileDataTx(tx *sql.Tx, fileID int64) error {
	if err := deleteResolutionTx(tx); err != nil {
		return err
	}

	// Declarations may point at signature symbols, and symbols at their
	// parents, so clear those links before deleting symbol rows.
	for _, q := range []string{
		"DELETE FROM exports WHERE file_id = ?",
		"DELETE FROM imports WHERE file_id = ?",
		"UPDATE references_ SET object_reference_id = NULL WHERE file_id = ?",
		"DELETE FROM references_ WHERE file_id = ?",
		"DELETE FROM declarations WHERE file_id = ?",
		"DELETE FROM scopes WHERE file_id = ?",
		"UPDATE symbols SET parent_symbol_id = NULL WHERE file_id = ?",
		"DELETE FROM symbols WHERE file_id = ?",
	} {
		if _, err := tx.Exec(q, fileID); err != nil {
			return fmt.Errorf("delete extraction data: %w", err)
		}
	}
	return nil
}
