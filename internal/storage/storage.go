package storage

import (
	"context"
	"errors"

	"pomotrack/internal/session"
)

// ErrInvalidDate is returned when a date argument is not in YYYY-MM-DD format.
var ErrInvalidDate = errors.New("invalid date, expected YYYY-MM-DD")

// Storage is the session store behind the HTTP API.
type Storage interface {
	Init(ctx context.Context) error
	// CreateSession assigns an ID (and a timestamp when zero) and persists the record.
	CreateSession(ctx context.Context, r session.Record) (session.Record, error)
	// ListSessions returns every record, newest first.
	ListSessions(ctx context.Context) ([]session.Record, error)
	// ListSessionsByDate returns the records of one calendar day in insertion order.
	ListSessionsByDate(ctx context.Context, date string) ([]session.Record, error)
	// ListSessionsInRange returns records with start <= date <= end, newest first.
	ListSessionsInRange(ctx context.Context, start, end string) ([]session.Record, error)
	// DeleteAllSessions removes every record and reports how many were deleted.
	DeleteAllSessions(ctx context.Context) (int64, error)
	Close() error
}
