package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3" // SQLite3 driver

	"photocull/internal/logging"
	"photocull/internal/metrics"
)

// Default timeout for database operations
const defaultTimeout = 5 * time.Second

// Action names stored in the journal.
const (
	ActionKeep   = "keep"
	ActionDelete = "delete"
)

// ErrClosed is returned when the journal is used after Close.
var ErrClosed = errors.New("journal is closed")

// Move is one recorded keep or delete.
type Move struct {
	ID        int64
	Session   string
	Action    string
	FromPath  string
	ToPath    string
	CreatedAt time.Time
}

// Totals counts recorded moves by action.
type Totals struct {
	Kept    int
	Deleted int
}

// Journal is an append-only SQLite log of the moves made while culling.
type Journal struct {
	db      *sql.DB
	dbPath  string
	session string
	mu      sync.RWMutex
	closed  bool

	// Counters for the current session, served to the metrics collector
	// without touching the database.
	statsMu sync.RWMutex
	stats   Totals
}

// Open creates or opens the journal database at dbPath.
// The parent directory must already exist and be writable.
func Open(ctx context.Context, dbPath string) (*Journal, error) {
	logging.Info("Journal path: %s", dbPath)

	if err := diagnoseDatabasePermissions(dbPath); err != nil {
		logging.Warn("Journal permission diagnostics: %v", err)
	}

	// busy_timeout helps prevent "database is locked" errors when two
	// sessions share one journal
	connStr := fmt.Sprintf("%s?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000", dbPath)

	db, err := sql.Open("sqlite3", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open journal: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			logging.Error("failed to close journal after ping failure: %v", closeErr)
		}
		return nil, fmt.Errorf("failed to connect to journal: %w", err)
	}

	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(time.Hour)

	j := &Journal{
		db:      db,
		dbPath:  dbPath,
		session: time.Now().UTC().Format(time.RFC3339Nano),
	}

	if err := j.initialize(ctx); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			logging.Error("failed to close journal after initialization failure: %v", closeErr)
		}
		return nil, fmt.Errorf("failed to initialize journal schema: %w", err)
	}

	if err := j.SetMetadata(ctx, "last_session", j.session); err != nil {
		logging.Warn("Failed to store session start: %v", err)
	}

	logging.Info("Journal initialized successfully at %s", dbPath)
	return j, nil
}

func (j *Journal) initialize(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS moves (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		action TEXT NOT NULL,
		from_path TEXT NOT NULL,
		to_path TEXT NOT NULL,
		created_at INTEGER NOT NULL DEFAULT (strftime('%s', 'now'))
	);

	CREATE INDEX IF NOT EXISTS idx_moves_action ON moves(action);
	CREATE INDEX IF NOT EXISTS idx_moves_from ON moves(from_path);

	CREATE TABLE IF NOT EXISTS metadata (
		key TEXT PRIMARY KEY,
		value TEXT
	);
	`

	if _, err := j.db.ExecContext(ctx, schema); err != nil {
		return err
	}

	return j.runMigrations(ctx)
}

// runMigrations applies schema migrations to journals created by older builds.
func (j *Journal) runMigrations(ctx context.Context) error {
	// Migration 1: session column
	var sessionExists bool
	err := j.db.QueryRowContext(ctx, `
		SELECT COUNT(*) > 0
		FROM pragma_table_info('moves')
		WHERE name='session'
	`).Scan(&sessionExists)
	if err != nil {
		return fmt.Errorf("failed to check for session column: %w", err)
	}

	if !sessionExists {
		logging.Info("Migrating journal: adding session column to moves table")

		_, err = j.db.ExecContext(ctx, `
			ALTER TABLE moves ADD COLUMN session TEXT NOT NULL DEFAULT ''
		`)
		if err != nil {
			return fmt.Errorf("failed to add session column: %w", err)
		}

		_, err = j.db.ExecContext(ctx, `
			CREATE INDEX IF NOT EXISTS idx_moves_session ON moves(session)
		`)
		if err != nil {
			return fmt.Errorf("failed to index session column: %w", err)
		}

		logging.Info("Migration complete: session column added")
	}

	return nil
}

// Path returns the database file path.
func (j *Journal) Path() string {
	return j.dbPath
}

// Session returns the identifier stamped on moves recorded by this journal.
func (j *Journal) Session() string {
	return j.session
}

// Record appends a completed move.
func (j *Journal) Record(ctx context.Context, action, from, to string) error {
	if action != ActionKeep && action != ActionDelete {
		return fmt.Errorf("unknown journal action %q", action)
	}

	j.mu.Lock()
	defer j.mu.Unlock()

	if j.closed {
		return ErrClosed
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	start := time.Now()
	_, err := j.db.ExecContext(ctx, `
		INSERT INTO moves (session, action, from_path, to_path, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, j.session, action, from, to, start.Unix())
	recordQuery("record", start, err)
	if err != nil {
		return fmt.Errorf("failed to record %s of %s: %w", action, from, err)
	}

	j.statsMu.Lock()
	if action == ActionKeep {
		j.stats.Kept++
	} else {
		j.stats.Deleted++
	}
	j.statsMu.Unlock()

	return nil
}

// Totals counts every recorded move across all sessions.
func (j *Journal) Totals(ctx context.Context) (Totals, error) {
	j.mu.RLock()
	defer j.mu.RUnlock()

	if j.closed {
		return Totals{}, ErrClosed
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	start := time.Now()
	var totals Totals
	err := j.db.QueryRowContext(ctx, `
		SELECT
			COALESCE(SUM(CASE WHEN action = 'keep' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN action = 'delete' THEN 1 ELSE 0 END), 0)
		FROM moves
	`).Scan(&totals.Kept, &totals.Deleted)
	recordQuery("stats", start, err)
	if err != nil {
		return Totals{}, err
	}
	return totals, nil
}

// GetStats returns the totals for the current session.
func (j *Journal) GetStats() metrics.Stats {
	j.statsMu.RLock()
	defer j.statsMu.RUnlock()
	return metrics.Stats{Kept: j.stats.Kept, Deleted: j.stats.Deleted}
}

// Recent returns up to limit moves, newest first.
func (j *Journal) Recent(ctx context.Context, limit int) ([]Move, error) {
	if limit <= 0 {
		return nil, nil
	}

	j.mu.RLock()
	defer j.mu.RUnlock()

	if j.closed {
		return nil, ErrClosed
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	start := time.Now()
	rows, err := j.db.QueryContext(ctx, `
		SELECT id, session, action, from_path, to_path, created_at
		FROM moves
		ORDER BY id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		recordQuery("recent", start, err)
		return nil, err
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			logging.Warn("failed to close rows: %v", closeErr)
		}
	}()

	var moves []Move
	for rows.Next() {
		var m Move
		var created int64
		if err := rows.Scan(&m.ID, &m.Session, &m.Action, &m.FromPath, &m.ToPath, &created); err != nil {
			recordQuery("recent", start, err)
			return nil, err
		}
		m.CreatedAt = time.Unix(created, 0)
		moves = append(moves, m)
	}
	err = rows.Err()
	recordQuery("recent", start, err)
	return moves, err
}

// Clear deletes every recorded move and returns how many were removed.
func (j *Journal) Clear(ctx context.Context) (int64, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.closed {
		return 0, ErrClosed
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	start := time.Now()
	result, err := j.db.ExecContext(ctx, "DELETE FROM moves")
	recordQuery("clear", start, err)
	if err != nil {
		return 0, err
	}

	j.statsMu.Lock()
	j.stats = Totals{}
	j.statsMu.Unlock()

	return result.RowsAffected()
}

// Close closes the database connection. Further calls are no-ops.
func (j *Journal) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.closed {
		return nil
	}
	j.closed = true
	return j.db.Close()
}

// recordQuery records metrics for a database query
func recordQuery(operation string, start time.Time, err error) {
	duration := time.Since(start).Seconds()
	status := "success"
	if err != nil {
		status = "error"
	}
	metrics.DBQueryTotal.WithLabelValues(operation, status).Inc()
	metrics.DBQueryDuration.WithLabelValues(operation).Observe(duration)
}

// UpdateDBMetrics updates database connection metrics
func (j *Journal) UpdateDBMetrics() {
	stats := j.db.Stats()
	metrics.DBConnectionsOpen.Set(float64(stats.OpenConnections))
}

// diagnoseDatabasePermissions checks database directory and file permissions
func diagnoseDatabasePermissions(dbPath string) error {
	dir := filepath.Dir(dbPath)

	dirInfo, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("cannot stat journal directory: %w", err)
	}

	logging.Debug("Journal directory: %s (mode: %v)", dir, dirInfo.Mode())

	testFile := filepath.Join(dir, ".perm-test")
	if err := os.WriteFile(testFile, []byte("test"), 0o600); err != nil {
		return fmt.Errorf("journal directory not writable: %w", err)
	}
	_ = os.Remove(testFile)

	if dbInfo, err := os.Stat(dbPath); err == nil {
		logging.Debug("Journal file exists: %s (mode: %v, size: %d bytes)", dbPath, dbInfo.Mode(), dbInfo.Size())
		if dbInfo.Mode().Perm()&0o200 == 0 {
			logging.Warn("Journal file is read-only! Mode: %v", dbInfo.Mode())
		}
	}

	walPath := dbPath + "-wal"
	if walInfo, err := os.Stat(walPath); err == nil && walInfo.Mode().Perm()&0o200 == 0 {
		logging.Warn("WAL file is read-only! Mode: %v - this will cause write failures", walInfo.Mode())
		if chmodErr := os.Chmod(walPath, 0o600); chmodErr != nil {
			logging.Error("Failed to fix WAL file permissions: %v", chmodErr)
		} else {
			logging.Info("Fixed WAL file permissions")
		}
	}

	return nil
}
