package history

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

const (
	driverName         = "sqlite"
	maxAttempts        = 5
	defaultBusyTimeout = 2 * time.Second
	defaultProjectKey  = "default"
)

type Store struct {
	path string
	db   *sql.DB
	mu   sync.Mutex
}

func Open(path string, busyTimeout time.Duration) (*Store, error) {
	cleanPath := strings.TrimSpace(path)
	if cleanPath == "" {
		return nil, fmt.Errorf("history path must not be empty")
	}
	if info, err := os.Stat(cleanPath); err == nil && info.IsDir() {
		return nil, fmt.Errorf("history path %q is a directory, expected file", cleanPath)
	}
	if busyTimeout <= 0 {
		busyTimeout = defaultBusyTimeout
	}

	dir := filepath.Dir(cleanPath)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create history directory %q: %w", dir, err)
		}
	}

	// busy_timeout + WAL reduce lock conflicts during watch-mode churn.
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(%d)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(ON)", cleanPath, busyTimeout.Milliseconds())
	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite history %q: %w", cleanPath, err)
	}
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(0)
	db.SetConnMaxIdleTime(0)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite history %q: %w", cleanPath, err)
	}
	if err := EnsureSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize sqlite schema %q: %w", cleanPath, err)
	}

	return &Store{path: cleanPath, db: db}, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// SaveRun stores a run with its per-rule counts and returns the stored id.
func (s *Store) SaveRun(run Run) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	run.ProjectKey = projectKeyOrDefault(run.ProjectKey)
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	if run.Timestamp.IsZero() {
		run.Timestamp = time.Now().UTC()
	}
	if run.SchemaVersion == 0 {
		run.SchemaVersion = SchemaVersion
	}
	if run.SchemaVersion != SchemaVersion {
		return "", fmt.Errorf("unsupported run schema version %d", run.SchemaVersion)
	}

	err := s.withRetry("save run", func() error {
		tx, err := s.db.Begin()
		if err != nil {
			return err
		}
		if _, err := tx.Exec(`
INSERT INTO runs (
  id, project_key, schema_version, ts_utc, duration_ms, backend,
  file_count, module_count, binding_count, parse_error_count, finding_count
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			run.ID,
			run.ProjectKey,
			run.SchemaVersion,
			run.Timestamp.UTC().Format(time.RFC3339Nano),
			run.Duration.Milliseconds(),
			run.Backend,
			run.FileCount,
			run.ModuleCount,
			run.BindingCount,
			run.ParseErrorCount,
			run.FindingCount,
		); err != nil {
			_ = tx.Rollback()
			return err
		}
		for ruleID, count := range run.RuleCounts {
			if _, err := tx.Exec(`INSERT INTO rule_counts (run_id, rule_id, finding_count) VALUES (?, ?, ?)`, run.ID, ruleID, count); err != nil {
				_ = tx.Rollback()
				return err
			}
		}
		return tx.Commit()
	})
	if err != nil {
		return "", err
	}
	return run.ID, nil
}

// LoadRuns returns the project's runs at or after since, oldest first.
func (s *Store) LoadRuns(projectKey string, since time.Time) ([]Run, error) {
	query := " WHERE project_key = ?"
	args := []any{projectKeyOrDefault(projectKey)}
	if !since.IsZero() {
		query += " AND ts_utc >= ?"
		args = append(args, since.UTC().Format(time.RFC3339Nano))
	}
	query += " ORDER BY ts_utc ASC, id ASC"
	return s.loadRuns(query, args)
}

// RecentRuns returns at most limit of the project's latest runs, oldest first.
func (s *Store) RecentRuns(projectKey string, limit int) ([]Run, error) {
	if limit <= 0 {
		return s.LoadRuns(projectKey, time.Time{})
	}
	query := ` WHERE id IN (
  SELECT id FROM runs WHERE project_key = ? ORDER BY ts_utc DESC, id DESC LIMIT ?
) ORDER BY ts_utc ASC, id ASC`
	return s.loadRuns(query, []any{projectKeyOrDefault(projectKey), limit})
}

func (s *Store) loadRuns(where string, args []any) ([]Run, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	base := `
SELECT
  id, project_key, schema_version, ts_utc, duration_ms, backend,
  file_count, module_count, binding_count, parse_error_count, finding_count
FROM runs` + where

	var rows *sql.Rows
	err := s.withRetry("load runs", func() error {
		var qErr error
		rows, qErr = s.db.Query(base, args...)
		return qErr
	})
	if err != nil {
		return nil, err
	}

	runs := make([]Run, 0)
	index := make(map[string]int)
	for rows.Next() {
		var (
			tsRaw      string
			durationMS int64
			run        Run
		)
		if err := rows.Scan(
			&run.ID,
			&run.ProjectKey,
			&run.SchemaVersion,
			&tsRaw,
			&durationMS,
			&run.Backend,
			&run.FileCount,
			&run.ModuleCount,
			&run.BindingCount,
			&run.ParseErrorCount,
			&run.FindingCount,
		); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan run row: %w", err)
		}

		ts, err := time.Parse(time.RFC3339Nano, tsRaw)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("parse run timestamp %q: %w", tsRaw, err)
		}
		run.Timestamp = ts.UTC()
		run.Duration = time.Duration(durationMS) * time.Millisecond
		run.RuleCounts = make(map[string]int)

		index[run.ID] = len(runs)
		runs = append(runs, run)
	}
	err = rows.Err()
	rows.Close()
	if err != nil {
		return nil, fmt.Errorf("iterate run rows: %w", err)
	}
	if len(runs) == 0 {
		return runs, nil
	}

	// One connection: the run rows must be closed before this query.
	var countRows *sql.Rows
	err = s.withRetry("load rule counts", func() error {
		var qErr error
		countRows, qErr = s.db.Query(`
SELECT rc.run_id, rc.rule_id, rc.finding_count
FROM rule_counts rc JOIN runs r ON r.id = rc.run_id
WHERE r.project_key = ?`, runs[0].ProjectKey)
		return qErr
	})
	if err != nil {
		return nil, err
	}
	defer countRows.Close()

	for countRows.Next() {
		var (
			runID  string
			ruleID string
			count  int
		)
		if err := countRows.Scan(&runID, &ruleID, &count); err != nil {
			return nil, fmt.Errorf("scan rule count row: %w", err)
		}
		if i, ok := index[runID]; ok {
			runs[i].RuleCounts[ruleID] = count
		}
	}
	if err := countRows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rule count rows: %w", err)
	}
	return runs, nil
}

// Prune keeps the newest keep runs of a project and deletes the rest. keep <= 0
// keeps everything.
func (s *Store) Prune(projectKey string, keep int) (int64, error) {
	if keep <= 0 {
		return 0, nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	key := projectKeyOrDefault(projectKey)
	var removed int64
	err := s.withRetry("prune runs", func() error {
		tx, err := s.db.Begin()
		if err != nil {
			return err
		}
		stale := `SELECT id FROM runs WHERE project_key = ? ORDER BY ts_utc DESC, id DESC LIMIT -1 OFFSET ?`
		if _, err := tx.Exec(`DELETE FROM rule_counts WHERE run_id IN (`+stale+`)`, key, keep); err != nil {
			_ = tx.Rollback()
			return err
		}
		res, err := tx.Exec(`DELETE FROM runs WHERE id IN (`+stale+`)`, key, keep)
		if err != nil {
			_ = tx.Rollback()
			return err
		}
		removed, _ = res.RowsAffected()
		return tx.Commit()
	})
	return removed, err
}

func projectKeyOrDefault(key string) string {
	key = strings.TrimSpace(key)
	if key == "" {
		return defaultProjectKey
	}
	return key
}

func (s *Store) withRetry(op string, fn func() error) error {
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err
		if !isLockError(err) || attempt == maxAttempts {
			break
		}
		time.Sleep(time.Duration(attempt*25) * time.Millisecond)
	}
	return fmt.Errorf("%s: %w", op, lastErr)
}

func isLockError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "database is locked") || strings.Contains(msg, "busy")
}

func (s *Store) Path() string {
	if s == nil {
		return ""
	}
	return s.path
}

func IsCorruptError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "malformed") || strings.Contains(msg, "not a database") || errors.Is(err, os.ErrInvalid)
}
