package state

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/nao1215/redditcorpus/internal/model"
)

// DBFileName is the name of the database file inside the data directory.
const DBFileName = "redditcorpus.db"

// DB is the SQLite database holding crawl state and run history.
type DB struct {
	// db is the underlying SQL database connection.
	db *sql.DB

	// dbPath is the path to the SQLite database file.
	dbPath string
}

// Options configures DB behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates the database in dbDir.
// If CreateIfNotExists is false and the database doesn't exist,
// ErrDatabaseNotFound is returned.
func Open(dbDir string, opts Options) (*DB, error) {
	dbPath := filepath.Join(dbDir, DBFileName)

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrDatabaseNotFound, dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else {
		if err := os.MkdirAll(dbDir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	// mode=rw refuses to create a missing file, mode=rwc allows it.
	dsn := dbPath + "?mode=rw"
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(1) // SQLite only supports one writer
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	sdb := &DB{
		db:     db,
		dbPath: dbPath,
	}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := sdb.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return sdb, nil
}

// Path returns the database file path.
func (sdb *DB) Path() string {
	return sdb.dbPath
}

// Close closes the database connection.
func (sdb *DB) Close() error {
	return sdb.db.Close()
}

// createTables creates the database schema if it doesn't exist.
func (sdb *DB) createTables() error {
	schema := `
	-- One row per examined post; included is 1 once the post was accepted
	CREATE TABLE IF NOT EXISTS post_state (
		id TEXT PRIMARY KEY,
		included INTEGER NOT NULL DEFAULT 0,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_post_state_included ON post_state(included);

	-- Finished runs, newest first by started_at
	CREATE TABLE IF NOT EXISTS runs (
		run_id TEXT PRIMARY KEY,
		mode TEXT NOT NULL,
		started_at TEXT NOT NULL,
		finished_at TEXT NOT NULL,
		stop_reason TEXT NOT NULL,
		posts INTEGER NOT NULL DEFAULT 0,
		comments INTEGER NOT NULL DEFAULT 0,
		words INTEGER NOT NULL DEFAULT 0,
		result_json TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at);
	`

	_, err := sdb.db.ExecContext(context.Background(), schema)
	return err
}

// SQLiteStore is a Store backed by the post_state table.
// It remembers which rows it has written, so Persist only touches ids
// that are new or newly included since the last Load or Persist.
type SQLiteStore struct {
	db *DB

	mu sync.Mutex
	// written maps an id to the included flag last stored for it.
	written map[string]bool
}

// NewSQLiteStore returns a store using db. The caller keeps ownership of db.
func NewSQLiteStore(db *DB) *SQLiteStore {
	return &SQLiteStore{db: db, written: make(map[string]bool)}
}

// Load reads every row of post_state.
func (s *SQLiteStore) Load(ctx context.Context) (*model.CrawlState, error) {
	rows, err := s.db.db.QueryContext(ctx, `SELECT id, included FROM post_state`)
	if err != nil {
		return nil, fmt.Errorf("failed to load crawl state: %w", err)
	}
	defer rows.Close()

	st := model.NewCrawlState()
	written := make(map[string]bool)
	for rows.Next() {
		var (
			id       string
			included int
		)
		if err := rows.Scan(&id, &included); err != nil {
			return nil, fmt.Errorf("failed to scan post state: %w", err)
		}
		if included != 0 {
			st.MarkIncluded(id)
		} else {
			st.MarkChecked(id)
		}
		written[id] = included != 0
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to load crawl state: %w", err)
	}

	s.mu.Lock()
	s.written = written
	s.mu.Unlock()
	return st, nil
}

// Persist upserts the ids that are new or newly included since the last
// Load or Persist, in a single transaction. The included flag is never
// cleared.
func (s *SQLiteStore) Persist(ctx context.Context, st *model.CrawlState) (err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	pending := s.pending(st)
	if len(pending) == 0 {
		return nil
	}

	tx, err := s.db.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	stmt, err := tx.PrepareContext(ctx, `
	INSERT INTO post_state (id, included) VALUES (?, ?)
	ON CONFLICT(id) DO UPDATE SET
		included = MAX(post_state.included, excluded.included),
		updated_at = CASE
			WHEN excluded.included > post_state.included THEN CURRENT_TIMESTAMP
			ELSE post_state.updated_at
		END
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for id, included := range pending {
		flag := 0
		if included {
			flag = 1
		}
		if _, err = stmt.ExecContext(ctx, id, flag); err != nil {
			return fmt.Errorf("failed to persist post %s: %w", id, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit crawl state: %w", err)
	}
	for id, included := range pending {
		s.written[id] = s.written[id] || included
	}
	return nil
}

// pending returns the ids of st whose stored row is missing or not yet
// included. Included ids missing from Checked are covered too.
func (s *SQLiteStore) pending(st *model.CrawlState) map[string]bool {
	pending := make(map[string]bool)
	add := func(id string, included bool) {
		stored, ok := s.written[id]
		if ok && (stored || !included) {
			return
		}
		pending[id] = included
	}
	for id := range st.Checked {
		add(id, st.IsIncluded(id))
	}
	for id := range st.Included {
		add(id, true)
	}
	return pending
}
