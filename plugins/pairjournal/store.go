package pairjournal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// Row is one journaled pair.
type Row struct {
	PrimaryID   uint64
	PrimaryTS   uint64
	SecondaryID uint64
	SecondaryTS uint64
	DeltaNs     uint64
	RecordedAt  time.Time
}

// Session describes one synchronizer run.
type Session struct {
	ID          string
	StartedAt   time.Time
	EndedAt     time.Time
	ToleranceNs int64
	Pairs       int64
}

// Store persists pairs in SQLite.
type Store struct {
	db   *sql.DB
	path string
}

const (
	sqliteBusyCode          = 5
	busyRetryAttempts       = 5
	busyRetryInitialBackoff = 10 * time.Millisecond
	busyRetryMaxBackoff     = 200 * time.Millisecond
)

// OpenStore opens or creates the journal database at path.
func OpenStore(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	s := &Store{db: db, path: path}
	if err := s.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) initSchema(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS sessions (
			id TEXT PRIMARY KEY,
			started_at INTEGER NOT NULL,
			ended_at INTEGER,
			tolerance_ns INTEGER NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS pairs (
			seq INTEGER PRIMARY KEY AUTOINCREMENT,
			session_id TEXT NOT NULL REFERENCES sessions(id),
			primary_id INTEGER NOT NULL,
			primary_ts INTEGER NOT NULL,
			secondary_id INTEGER NOT NULL,
			secondary_ts INTEGER NOT NULL,
			delta_ns INTEGER NOT NULL,
			recorded_at INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_pairs_session ON pairs (session_id, seq)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("init schema: %w", err)
		}
	}
	return nil
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// BeginSession records the start of a run.
func (s *Store) BeginSession(ctx context.Context, id string, tolerance time.Duration, startedAt time.Time) error {
	return retryOnBusy(ctx, func() error {
		_, err := s.db.ExecContext(ctx,
			`INSERT INTO sessions (id, started_at, tolerance_ns) VALUES (?, ?, ?)`,
			id, startedAt.UnixNano(), tolerance.Nanoseconds())
		return err
	})
}

// EndSession records the end of a run.
func (s *Store) EndSession(ctx context.Context, id string, endedAt time.Time) error {
	return retryOnBusy(ctx, func() error {
		_, err := s.db.ExecContext(ctx,
			`UPDATE sessions SET ended_at = ? WHERE id = ?`,
			endedAt.UnixNano(), id)
		return err
	})
}

// InsertPairs writes rows for a session in one transaction.
func (s *Store) InsertPairs(ctx context.Context, sessionID string, rows []Row) error {
	if len(rows) == 0 {
		return nil
	}
	return retryOnBusy(ctx, func() error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return err
		}
		stmt, err := tx.PrepareContext(ctx, `INSERT INTO pairs
			(session_id, primary_id, primary_ts, secondary_id, secondary_ts, delta_ns, recorded_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			_ = tx.Rollback()
			return err
		}
		defer stmt.Close()

		for _, r := range rows {
			if _, err := stmt.ExecContext(ctx, sessionID,
				int64(r.PrimaryID), int64(r.PrimaryTS),
				int64(r.SecondaryID), int64(r.SecondaryTS),
				int64(r.DeltaNs), r.RecordedAt.UnixNano(),
			); err != nil {
				_ = tx.Rollback()
				return err
			}
		}
		return tx.Commit()
	})
}

// Pairs returns a session's rows in insertion order.
func (s *Store) Pairs(ctx context.Context, sessionID string) ([]Row, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT primary_id, primary_ts, secondary_id, secondary_ts, delta_ns, recorded_at
		FROM pairs WHERE session_id = ? ORDER BY seq`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("query pairs: %w", err)
	}
	defer rows.Close()

	var out []Row
	for rows.Next() {
		var pid, pts, sid, sts, delta, recorded int64
		if err := rows.Scan(&pid, &pts, &sid, &sts, &delta, &recorded); err != nil {
			return nil, fmt.Errorf("scan pair: %w", err)
		}
		out = append(out, Row{
			PrimaryID:   uint64(pid),
			PrimaryTS:   uint64(pts),
			SecondaryID: uint64(sid),
			SecondaryTS: uint64(sts),
			DeltaNs:     uint64(delta),
			RecordedAt:  time.Unix(0, recorded),
		})
	}
	return out, rows.Err()
}

// Session returns a session with its pair count.
func (s *Store) Session(ctx context.Context, id string) (Session, error) {
	var (
		sess    Session
		started int64
		ended   sql.NullInt64
	)
	err := s.db.QueryRowContext(ctx, `SELECT s.id, s.started_at, s.ended_at, s.tolerance_ns,
			(SELECT COUNT(*) FROM pairs p WHERE p.session_id = s.id)
		FROM sessions s WHERE s.id = ?`, id).
		Scan(&sess.ID, &started, &ended, &sess.ToleranceNs, &sess.Pairs)
	if err != nil {
		return Session{}, fmt.Errorf("query session %s: %w", id, err)
	}
	sess.StartedAt = time.Unix(0, started)
	if ended.Valid {
		sess.EndedAt = time.Unix(0, ended.Int64)
	}
	return sess, nil
}

// PruneSessions deletes all but the keep most recently started sessions and
// their pairs. Returns the number of sessions removed.
func (s *Store) PruneSessions(ctx context.Context, keep int) (int64, error) {
	if keep <= 0 {
		return 0, nil
	}
	var removed int64
	err := retryOnBusy(ctx, func() error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return err
		}
		const stale = `SELECT id FROM sessions ORDER BY started_at DESC, id DESC LIMIT -1 OFFSET ?`
		if _, err := tx.ExecContext(ctx, `DELETE FROM pairs WHERE session_id IN (`+stale+`)`, keep); err != nil {
			_ = tx.Rollback()
			return err
		}
		res, err := tx.ExecContext(ctx, `DELETE FROM sessions WHERE id IN (`+stale+`)`, keep)
		if err != nil {
			_ = tx.Rollback()
			return err
		}
		if removed, err = res.RowsAffected(); err != nil {
			_ = tx.Rollback()
			return err
		}
		return tx.Commit()
	})
	if err != nil {
		return 0, fmt.Errorf("prune sessions: %w", err)
	}
	return removed, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func isSQLiteBusy(err error) bool {
	if err == nil {
		return false
	}
	var coder interface{ Code() int }
	if errors.As(err, &coder) && coder.Code() == sqliteBusyCode {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

func retryOnBusy(ctx context.Context, op func() error) error {
	delay := busyRetryInitialBackoff
	var lastErr error
	for attempt := 0; attempt < busyRetryAttempts; attempt++ {
		lastErr = op()
		if lastErr == nil {
			return nil
		}
		if !isSQLiteBusy(lastErr) || attempt == busyRetryAttempts-1 {
			break
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
		if next := delay * 2; next <= busyRetryMaxBackoff {
			delay = next
		}
	}
	return lastErr
}
