package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"github.com/sirupsen/logrus"

	"pomotrack/internal/logging"
	"pomotrack/internal/session"
	"pomotrack/internal/storage"
)

type SQLiteStore struct {
	db     *sql.DB
	dbPath string
	log    *logrus.Entry
	now    func() time.Time
}

func NewSQLiteStore(dbPath string) storage.Storage {
	return &SQLiteStore{
		dbPath: dbPath,
		log:    logging.NewLogger("sqlite"),
		now:    time.Now,
	}
}

const createSessionsTableSQL = `
CREATE TABLE IF NOT EXISTS sessions (
	seq INTEGER PRIMARY KEY AUTOINCREMENT,
	id TEXT NOT NULL UNIQUE,
	date TEXT NOT NULL,
	focus_duration INTEGER NOT NULL,
	break_duration INTEGER NOT NULL,
	timestamp DATETIME NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_sessions_date ON sessions (date);
CREATE INDEX IF NOT EXISTS idx_sessions_timestamp ON sessions (timestamp);
`

const selectColumns = `SELECT id, date, focus_duration, break_duration, timestamp FROM sessions`

func (s *SQLiteStore) Init(ctx context.Context) error {
	dir := filepath.Dir(s.dbPath)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return fmt.Errorf("failed to create db directory %s: %w", dir, err)
	}

	s.log.WithField("path", s.dbPath).Info("Initializing SQLite database")
	db, err := sql.Open("sqlite3", s.dbPath+"?_journal=WAL&_timeout=5000&_fk=true")
	if err != nil {
		return fmt.Errorf("failed to open sqlite database: %w", err)
	}
	s.db = db

	// SQLite is best with a single writer connection
	s.db.SetMaxOpenConns(1)
	s.db.SetMaxIdleConns(1)
	s.db.SetConnMaxLifetime(time.Minute * 5)

	if err := s.db.PingContext(ctx); err != nil {
		s.db.Close()
		return fmt.Errorf("failed to ping database: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, createSessionsTableSQL); err != nil {
		s.db.Close()
		return fmt.Errorf("failed to create sessions table: %w", err)
	}
	s.log.Debug("Database initialized")
	return nil
}

func (s *SQLiteStore) CreateSession(ctx context.Context, r session.Record) (session.Record, error) {
	if r.Timestamp.IsZero() {
		r.Timestamp = s.now()
	}
	r.Timestamp = r.Timestamp.UTC()
	if r.Date == "" {
		r.Date = session.DateOf(r.Timestamp)
	}
	if err := r.Validate(); err != nil {
		return session.Record{}, fmt.Errorf("invalid session: %w", err)
	}
	r.ID = uuid.New().String()

	query := `INSERT INTO sessions (id, date, focus_duration, break_duration, timestamp)
	          VALUES (?, ?, ?, ?, ?)`
	if _, err := s.db.ExecContext(ctx, query, r.ID, r.Date, r.FocusDuration, r.BreakDuration, r.Timestamp); err != nil {
		return session.Record{}, fmt.Errorf("failed to insert session: %w", err)
	}
	return r, nil
}

func (s *SQLiteStore) ListSessions(ctx context.Context) ([]session.Record, error) {
	return s.query(ctx, selectColumns+` ORDER BY timestamp DESC, seq DESC`)
}

func (s *SQLiteStore) ListSessionsByDate(ctx context.Context, date string) ([]session.Record, error) {
	if !session.ValidDate(date) {
		return nil, fmt.Errorf("%w: %q", storage.ErrInvalidDate, date)
	}
	return s.query(ctx, selectColumns+` WHERE date = ? ORDER BY seq ASC`, date)
}

func (s *SQLiteStore) ListSessionsInRange(ctx context.Context, start, end string) ([]session.Record, error) {
	for _, d := range []string{start, end} {
		if !session.ValidDate(d) {
			return nil, fmt.Errorf("%w: %q", storage.ErrInvalidDate, d)
		}
	}
	// ISO dates compare lexicographically in calendar order.
	return s.query(ctx, selectColumns+` WHERE date >= ? AND date <= ? ORDER BY timestamp DESC, seq DESC`, start, end)
}

func (s *SQLiteStore) DeleteAllSessions(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM sessions`)
	if err != nil {
		return 0, fmt.Errorf("failed to delete sessions: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count deleted sessions: %w", err)
	}
	s.log.WithField("deleted", n).Info("All sessions deleted")
	return n, nil
}

func (s *SQLiteStore) query(ctx context.Context, query string, args ...interface{}) ([]session.Record, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query sessions: %w", err)
	}
	defer rows.Close()

	records := make([]session.Record, 0)
	for rows.Next() {
		var r session.Record
		if err := rows.Scan(&r.ID, &r.Date, &r.FocusDuration, &r.BreakDuration, &r.Timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan session row: %w", err)
		}
		r.Timestamp = r.Timestamp.UTC()
		records = append(records, r)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating session rows: %w", err)
	}
	return records, nil
}

func (s *SQLiteStore) Close() error {
	if s.db != nil {
		s.log.Debug("Closing database connection")
		return s.db.Close()
	}
	return nil
}
