// Package store persists analysis runs, their cutflows and selected-event
// rows in SQLite. The schema is managed by embedded migrations.
package store

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/banshee-data/truthana/internal/cutflow"
	"github.com/banshee-data/truthana/internal/monitoring"
	"github.com/banshee-data/truthana/internal/projector"
	"github.com/banshee-data/truthana/internal/timeutil"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// ErrRunNotFound is returned when a run ID is unknown or no runs exist.
var ErrRunNotFound = errors.New("analysis run not found")

// Store wraps the analysis database.
type Store struct {
	*sql.DB
	clock timeutil.Clock
}

// Option configures a Store.
type Option func(*Store)

// WithClock sets the clock used for run timestamps.
func WithClock(c timeutil.Clock) Option {
	return func(s *Store) { s.clock = c }
}

// Open opens (creating if needed) the database at path, applies pragmas and
// runs pending migrations.
func Open(path string, opts ...Option) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}

	s := &Store{DB: db, clock: timeutil.RealClock{}}
	for _, opt := range opts {
		opt(s)
	}
	if err := s.MigrateUp(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// MigrateUp runs all pending migrations up to the latest version.
// Returns nil if no migrations were needed (already at latest version).
func (s *Store) MigrateUp() error {
	m, err := s.newMigrate()
	if err != nil {
		return err
	}
	// Note: We don't close m here because it would close the underlying DB connection.

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migration up failed: %w", err)
	}
	return nil
}

// MigrateVersion returns the current migration version and dirty state.
// Returns 0, false, nil if no migrations have been applied yet.
func (s *Store) MigrateVersion() (version uint, dirty bool, err error) {
	m, err := s.newMigrate()
	if err != nil {
		return 0, false, err
	}
	version, dirty, err = m.Version()
	if err != nil && errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	return version, dirty, err
}

func (s *Store) newMigrate() (*migrate.Migrate, error) {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return nil, fmt.Errorf("failed to open embedded migrations: %w", err)
	}
	driver, err := sqlite.WithInstance(s.DB, &sqlite.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to create sqlite driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "sqlite", driver)
	if err != nil {
		return nil, fmt.Errorf("failed to create migrate instance: %w", err)
	}
	m.Log = &migrateLogger{}
	return m, nil
}

// migrateLogger implements migrate.Logger interface
type migrateLogger struct{}

func (l *migrateLogger) Printf(format string, v ...interface{}) {
	monitoring.Logf("[migrate] "+format, v...)
}

func (l *migrateLogger) Verbose() bool {
	return false
}

// RunInfo is one row of analysis_runs.
type RunInfo struct {
	ID               string
	StartedAt        time.Time
	FinishedAt       time.Time // zero while the run is open
	Variant          string
	ConfigJSON       string
	EventsRead       int64
	EventsSelected   int64
	EventsSkipped    int64
	EventsUnresolved int64
}

// Finished reports whether FinishRun has been called.
func (r RunInfo) Finished() bool {
	return !r.FinishedAt.IsZero()
}

// RunTotals are the event counts recorded when a run finishes.
type RunTotals struct {
	Read       int64
	Selected   int64
	Skipped    int64
	Unresolved int64
}

// StartRun records a new run and returns its ID.
func (s *Store) StartRun(variant, configJSON string) (string, error) {
	id := uuid.NewString()
	if configJSON == "" {
		configJSON = "{}"
	}
	_, err := s.Exec(
		`INSERT INTO analysis_runs (run_id, started_at, variant, config_json) VALUES (?, ?, ?, ?)`,
		id, s.clock.Now().UnixNano(), variant, configJSON,
	)
	if err != nil {
		return "", fmt.Errorf("failed to start run: %w", err)
	}
	return id, nil
}

// FinishRun stamps the run's end time and totals.
func (s *Store) FinishRun(runID string, totals RunTotals) error {
	res, err := s.Exec(`
		UPDATE analysis_runs
		SET finished_at = ?, events_read = ?, events_selected = ?, events_skipped = ?, events_unresolved = ?
		WHERE run_id = ?`,
		s.clock.Now().UnixNano(), totals.Read, totals.Selected, totals.Skipped, totals.Unresolved, runID,
	)
	if err != nil {
		return fmt.Errorf("failed to finish run %s: %w", runID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	return nil
}

// SaveCutflow replaces the stored cutflow of a run.
func (s *Store) SaveCutflow(runID string, cf *cutflow.Cutflow) error {
	tx, err := s.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM cutflow_stages WHERE run_id = ?`, runID); err != nil {
		return fmt.Errorf("failed to clear cutflow: %w", err)
	}
	stmt, err := tx.Prepare(`INSERT INTO cutflow_stages (run_id, position, name, sum_weights) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, c := range cf.Stages() {
		if _, err := stmt.Exec(runID, i, c.Name, c.Sum); err != nil {
			return fmt.Errorf("failed to insert stage %q: %w", c.Name, err)
		}
	}
	return tx.Commit()
}

// LoadCutflow restores a run's cutflow in its original stage order.
func (s *Store) LoadCutflow(runID string) (*cutflow.Cutflow, error) {
	if _, err := s.Run(runID); err != nil {
		return nil, err
	}
	rows, err := s.Query(`SELECT name, sum_weights FROM cutflow_stages WHERE run_id = ? ORDER BY position`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query cutflow: %w", err)
	}
	defer rows.Close()

	var counters []cutflow.Counter
	for rows.Next() {
		var c cutflow.Counter
		if err := rows.Scan(&c.Name, &c.Sum); err != nil {
			return nil, err
		}
		counters = append(counters, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return cutflow.FromCounters(counters)
}

const runColumns = `run_id, started_at, finished_at, variant, config_json,
	events_read, events_selected, events_skipped, events_unresolved`

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanRun(sc scanner) (RunInfo, error) {
	var (
		r        RunInfo
		started  int64
		finished sql.NullInt64
	)
	err := sc.Scan(&r.ID, &started, &finished, &r.Variant, &r.ConfigJSON,
		&r.EventsRead, &r.EventsSelected, &r.EventsSkipped, &r.EventsUnresolved)
	if err != nil {
		return RunInfo{}, err
	}
	r.StartedAt = time.Unix(0, started).UTC()
	if finished.Valid {
		r.FinishedAt = time.Unix(0, finished.Int64).UTC()
	}
	return r, nil
}

// Run returns a single run.
func (s *Store) Run(runID string) (RunInfo, error) {
	r, err := scanRun(s.QueryRow(`SELECT `+runColumns+` FROM analysis_runs WHERE run_id = ?`, runID))
	if errors.Is(err, sql.ErrNoRows) {
		return RunInfo{}, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	return r, err
}

// ListRuns returns every run, most recent first.
func (s *Store) ListRuns() ([]RunInfo, error) {
	rows, err := s.Query(`SELECT ` + runColumns + ` FROM analysis_runs ORDER BY started_at DESC, rowid DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []RunInfo
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// LatestRunID returns the most recently started run.
func (s *Store) LatestRunID() (string, error) {
	runs, err := s.ListRuns()
	if err != nil {
		return "", err
	}
	if len(runs) == 0 {
		return "", ErrRunNotFound
	}
	return runs[0].ID, nil
}

var insertRowSQL = func() string {
	names := make([]string, 0, len(projector.Columns)+2)
	names = append(names, "run_id", "seq")
	for _, c := range projector.Columns {
		names = append(names, c.Name)
	}
	marks := strings.TrimSuffix(strings.Repeat("?, ", len(names)), ", ")
	return fmt.Sprintf("INSERT INTO selected_events (%s) VALUES (%s)", strings.Join(names, ", "), marks)
}()

// InsertRow stores one selected-event row. seq orders rows within a run.
func (s *Store) InsertRow(runID string, seq int64, r *projector.Row) error {
	args := append([]interface{}{runID, seq}, r.Values()...)
	if _, err := s.Exec(insertRowSQL, args...); err != nil {
		return fmt.Errorf("failed to insert row for event %d: %w", r.EventNumber, err)
	}
	return nil
}

// CountRows returns the number of stored rows for a run.
func (s *Store) CountRows(runID string) (int64, error) {
	var n int64
	err := s.QueryRow(`SELECT COUNT(*) FROM selected_events WHERE run_id = ?`, runID).Scan(&n)
	return n, err
}

// ChannelCounts returns the number of stored rows per channel label.
func (s *Store) ChannelCounts(runID string) (map[string]int64, error) {
	rows, err := s.Query(`SELECT channel, COUNT(*) FROM selected_events WHERE run_id = ? GROUP BY channel`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := map[string]int64{}
	for rows.Next() {
		var (
			ch string
			n  int64
		)
		if err := rows.Scan(&ch, &n); err != nil {
			return nil, err
		}
		counts[ch] = n
	}
	return counts, rows.Err()
}

// RowSink writes rows for one run inside a single transaction, committed
// on Close and rolled back on Abort.
type RowSink struct {
	runID string
	tx    *sql.Tx
	stmt  *sql.Stmt
	seq   int64
}

// NewRowSink begins a transaction for runID. Other writes to the store
// wait on this transaction, so close the sink before saving the cutflow.
func (s *Store) NewRowSink(runID string) (*RowSink, error) {
	tx, err := s.Begin()
	if err != nil {
		return nil, err
	}
	stmt, err := tx.Prepare(insertRowSQL)
	if err != nil {
		tx.Rollback()
		return nil, err
	}
	return &RowSink{runID: runID, tx: tx, stmt: stmt}, nil
}

// WriteRow implements projector.RowSink.
func (rs *RowSink) WriteRow(r *projector.Row) error {
	args := append([]interface{}{rs.runID, rs.seq}, r.Values()...)
	if _, err := rs.stmt.Exec(args...); err != nil {
		return fmt.Errorf("failed to insert row for event %d: %w", r.EventNumber, err)
	}
	rs.seq++
	return nil
}

// Close commits the rows written so far.
func (rs *RowSink) Close() error {
	if rs.tx == nil {
		return nil
	}
	rs.stmt.Close()
	err := rs.tx.Commit()
	rs.tx = nil
	return err
}

// Abort rolls back the rows written so far. It is a no-op once the sink
// has been closed or aborted.
func (rs *RowSink) Abort() error {
	if rs.tx == nil {
		return nil
	}
	rs.stmt.Close()
	err := rs.tx.Rollback()
	rs.tx = nil
	return err
}
