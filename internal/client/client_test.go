package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pomotrack/internal/analytics"
	"pomotrack/internal/session"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return New(srv.URL+"/api/", time.Second)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestCreateSession(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/sessions", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var in session.Record
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&in))
		in.ID = "abc"
		writeJSON(w, http.StatusCreated, in)
	})

	rec := session.NewRecord(time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC), 1500, 0)
	out, err := c.CreateSession(context.Background(), rec)
	require.NoError(t, err)
	assert.Equal(t, "abc", out.ID)
	assert.Equal(t, 1500, out.FocusDuration)
	assert.Equal(t, "2024-01-01", out.Date)
}

func TestListQueries(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/sessions":
			writeJSON(w, http.StatusOK, []session.Record{{ID: "1", Date: "2024-01-02"}, {ID: "2", Date: "2024-01-01"}})
		case "/api/sessions/date/2024-01-01":
			writeJSON(w, http.StatusOK, []session.Record{{ID: "2", Date: "2024-01-01"}})
		case "/api/sessions/range":
			assert.Equal(t, "2024-01-01", r.URL.Query().Get("startDate"))
			assert.Equal(t, "2024-01-31", r.URL.Query().Get("endDate"))
			writeJSON(w, http.StatusOK, []session.Record{})
		default:
			http.NotFound(w, r)
		}
	})
	ctx := context.Background()

	all, err := c.ListSessions(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	day, err := c.ListSessionsByDate(ctx, "2024-01-01")
	require.NoError(t, err)
	require.Len(t, day, 1)
	assert.Equal(t, "2", day[0].ID)

	rng, err := c.ListSessionsInRange(ctx, "2024-01-01", "2024-01-31")
	require.NoError(t, err)
	assert.Empty(t, rng)
}

func TestDeleteAllAndHealth(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodDelete && r.URL.Path == "/api/sessions":
			writeJSON(w, http.StatusOK, map[string]any{"message": "All sessions deleted", "deleted": 3})
		case r.URL.Path == "/api/health":
			writeJSON(w, http.StatusOK, Health{Status: "OK", Message: "Pomodoro backend is running"})
		default:
			http.NotFound(w, r)
		}
	})
	ctx := context.Background()

	n, err := c.DeleteAllSessions(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 3, n)

	h, err := c.Health(ctx)
	require.NoError(t, err)
	assert.Equal(t, "OK", h.Status)
}

func TestErrorStatusCarriesServerMessage(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid date"})
	})
	_, err := c.ListSessionsByDate(context.Background(), "nope")
	require.ErrorIs(t, err, ErrUnexpectedResponse)
	assert.Contains(t, err.Error(), "invalid date")
}

func TestAnalyticsRejectsMalformedBody(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"not json", "<html>"},
		{"missing series", `{"summary":{"totalSessions":1}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
				_, _ = w.Write([]byte(tt.body))
			})
			_, err := c.Analytics(context.Background())
			assert.ErrorIs(t, err, ErrUnexpectedResponse)
		})
	}
}

func TestAnalytics(t *testing.T) {
	want := analytics.Build(nil, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, want)
	})
	got, err := c.Analytics(context.Background())
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestUnreachableBackend(t *testing.T) {
	c := New("http://127.0.0.1:1/api", 200*time.Millisecond)
	_, err := c.Health(context.Background())
	assert.Error(t, err)
}
