package session

import (
	"fmt"
	"time"
)

// DateLayout is the calendar-day format used for Record.Date and bucket labels.
const DateLayout = "2006-01-02"

// Record is one persisted summary of completed focus/break seconds for a single cycle.
// Records are never mutated once created.
type Record struct {
	ID            string    `json:"id,omitempty"`
	Date          string    `json:"date"`          // YYYY-MM-DD
	FocusDuration int       `json:"focusDuration"` // seconds
	BreakDuration int       `json:"breakDuration"` // seconds
	Timestamp     time.Time `json:"timestamp"`
}

// NewRecord builds a record for the given instant. The date is the UTC calendar day.
func NewRecord(at time.Time, focusSeconds, breakSeconds int) Record {
	return Record{
		Date:          DateOf(at),
		FocusDuration: focusSeconds,
		BreakDuration: breakSeconds,
		Timestamp:     at.UTC(),
	}
}

// DateOf returns the UTC calendar day of t.
func DateOf(t time.Time) string {
	return t.UTC().Format(DateLayout)
}

// ValidDate reports whether s is a well formed YYYY-MM-DD date.
func ValidDate(s string) bool {
	if len(s) != len(DateLayout) {
		return false
	}
	_, err := time.Parse(DateLayout, s)
	return err == nil
}

// Validate checks the invariants a stored record must satisfy.
func (r Record) Validate() error {
	if r.FocusDuration < 0 {
		return fmt.Errorf("focusDuration must not be negative (got %d)", r.FocusDuration)
	}
	if r.BreakDuration < 0 {
		return fmt.Errorf("breakDuration must not be negative (got %d)", r.BreakDuration)
	}
	if !ValidDate(r.Date) {
		return fmt.Errorf("date %q is not in YYYY-MM-DD format", r.Date)
	}
	return nil
}
