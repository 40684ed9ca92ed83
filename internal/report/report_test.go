package report

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pomotrack/internal/analytics"
	"pomotrack/internal/session"
)

var now = time.Date(2024, 1, 3, 12, 0, 0, 0, time.UTC)

func TestRenderDashboard(t *testing.T) {
	records := []session.Record{
		{Date: "2024-01-01", FocusDuration: 1500, BreakDuration: 300, Timestamp: now.Add(-48 * time.Hour)},
		{Date: "2024-01-01", FocusDuration: 600, Timestamp: now.Add(-47 * time.Hour)},
	}
	data := NewData(analytics.Build(records, now), records, 10, now, nil)
	assert.Equal(t, 35.0, data.DailyMax)

	var buf bytes.Buffer
	require.NoError(t, Render(&buf, data))
	out := buf.String()

	assert.Contains(t, out, "Last 7 Days")
	assert.Contains(t, out, "2024-01-01")
	assert.Contains(t, out, "35.00 min")
	assert.Contains(t, out, "width: 100.0%")
	assert.Contains(t, out, "25m 00s")
	assert.NotContains(t, out, "No sessions yet")
	assert.NotContains(t, out, "Failed to load")
}

func TestRenderEmptyAndFailed(t *testing.T) {
	data := NewData(analytics.Build(nil, now), nil, 10, now, errors.New("boom"))

	var buf bytes.Buffer
	require.NoError(t, Render(&buf, data))
	assert.Contains(t, buf.String(), "Failed to load analytics from the database.")
	assert.Contains(t, buf.String(), "No sessions yet")
}

func TestNewDataLimitsRecent(t *testing.T) {
	recent := make([]session.Record, 5)
	assert.Len(t, NewData(analytics.Dashboard{}, recent, 2, now, nil).Recent, 2)
	assert.Len(t, NewData(analytics.Dashboard{}, recent, -1, now, nil).Recent, 5)
}

func TestWriteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "report.html")
	require.NoError(t, WriteFile(path, NewData(analytics.Build(nil, now), nil, 0, now, nil)))
	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "<title>Pomodoro Analytics</title>")
}

func TestClock(t *testing.T) {
	assert.Equal(t, "0m 00s", clock(0))
	assert.Equal(t, "25m 00s", clock(1500))
	assert.Equal(t, "1h 01m 05s", clock(3665))
}
