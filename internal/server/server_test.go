package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pomotrack/internal/analytics"
	"pomotrack/internal/session"
	"pomotrack/internal/storage"
	"pomotrack/internal/storage/sqlite"
)

var fixedNow = time.Date(2024, 1, 3, 12, 0, 0, 0, time.UTC)

func init() {
	gin.SetMode(gin.TestMode)
}

func setupTestServer(t *testing.T) *Server {
	t.Helper()
	store := sqlite.NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, store.Init(context.Background()))
	t.Cleanup(func() { store.Close() })

	s := NewServer(store)
	s.now = func() time.Time { return fixedNow }
	return s
}

func doRequest(s *Server, method, path string, body any) *httptest.ResponseRecorder {
	return doRequestWithHeaders(s, method, path, body, nil)
}

func doRequestWithHeaders(s *Server, method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		if raw, ok := body.(string); ok {
			buf.WriteString(raw)
		} else {
			_ = json.NewEncoder(&buf).Encode(body)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

const browserOrigin = "http://localhost:5173"

func TestHealth(t *testing.T) {
	s := setupTestServer(t)
	w := doRequestWithHeaders(s, http.MethodGet, "/api/health", nil, map[string]string{"Origin": browserOrigin})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"OK","message":"Pomodoro backend is running"}`, w.Body.String())
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestPreflight(t *testing.T) {
	s := setupTestServer(t)
	w := doRequestWithHeaders(s, http.MethodOptions, "/api/sessions", nil, map[string]string{
		"Origin":                        browserOrigin,
		"Access-Control-Request-Method": http.MethodDelete,
	})
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, w.Header().Get("Access-Control-Allow-Methods"), "DELETE")
	assert.Contains(t, w.Header().Get("Access-Control-Allow-Headers"), "Content-Type")
}

func TestCreateSession(t *testing.T) {
	s := setupTestServer(t)

	w := doRequest(s, http.MethodPost, "/api/sessions", map[string]any{
		"focusDuration": 1500, "breakDuration": 300, "date": "2024-01-01",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	rec := decode[session.Record](t, w)
	assert.NotEmpty(t, rec.ID)
	assert.Equal(t, "2024-01-01", rec.Date)
	assert.Equal(t, 1500, rec.FocusDuration)
	assert.False(t, rec.Timestamp.IsZero())
}

func TestCreateSessionDefaultsDateToToday(t *testing.T) {
	s := setupTestServer(t)
	w := doRequest(s, http.MethodPost, "/api/sessions", map[string]any{"focusDuration": 60, "breakDuration": 0})
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "2024-01-03", decode[session.Record](t, w).Date)
}

func TestCreateSessionValidation(t *testing.T) {
	s := setupTestServer(t)
	tests := []struct {
		name string
		body any
	}{
		{"missing focus", map[string]any{"breakDuration": 0}},
		{"missing break", map[string]any{"focusDuration": 10}},
		{"negative", map[string]any{"focusDuration": -1, "breakDuration": 0}},
		{"bad date", map[string]any{"focusDuration": 1, "breakDuration": 0, "date": "01/02/2024"}},
		{"not json", "{"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doRequest(s, http.MethodPost, "/api/sessions", tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.NotEmpty(t, decode[map[string]string](t, w)["error"])
		})
	}
}

func TestListAndQuerySessions(t *testing.T) {
	s := setupTestServer(t)
	for _, b := range []map[string]any{
		{"focusDuration": 100, "breakDuration": 0, "date": "2024-01-01", "timestamp": "2024-01-01T09:00:00Z"},
		{"focusDuration": 200, "breakDuration": 0, "date": "2024-01-02", "timestamp": "2024-01-02T09:00:00Z"},
		{"focusDuration": 300, "breakDuration": 0, "date": "2024-01-03", "timestamp": "2024-01-03T09:00:00Z"},
	} {
		require.Equal(t, http.StatusCreated, doRequest(s, http.MethodPost, "/api/sessions", b).Code)
	}

	all := decode[[]session.Record](t, doRequest(s, http.MethodGet, "/api/sessions", nil))
	require.Len(t, all, 3)
	assert.Equal(t, "2024-01-03", all[0].Date, "newest first")

	day := decode[[]session.Record](t, doRequest(s, http.MethodGet, "/api/sessions/date/2024-01-02", nil))
	require.Len(t, day, 1)
	assert.Equal(t, 200, day[0].FocusDuration)

	rng := decode[[]session.Record](t, doRequest(s, http.MethodGet, "/api/sessions/range?startDate=2024-01-01&endDate=2024-01-02", nil))
	require.Len(t, rng, 2)
	assert.Equal(t, "2024-01-02", rng[0].Date)
}

func TestQueryValidation(t *testing.T) {
	s := setupTestServer(t)
	for _, path := range []string{
		"/api/sessions/date/yesterday",
		"/api/sessions/range?startDate=2024-01-01",
		"/api/sessions/range?startDate=2024-01-01&endDate=2024-13-01",
	} {
		assert.Equal(t, http.StatusBadRequest, doRequest(s, http.MethodGet, path, nil).Code, path)
	}
}

func TestBulkClearThenListIsEmpty(t *testing.T) {
	s := setupTestServer(t)
	for i := 0; i < 2; i++ {
		doRequest(s, http.MethodPost, "/api/sessions", map[string]any{"focusDuration": 10, "breakDuration": 5})
	}

	w := doRequest(s, http.MethodDelete, "/api/sessions", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"message":"All sessions deleted","deleted":2}`, w.Body.String())

	w = doRequest(s, http.MethodGet, "/api/sessions", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())
}

func TestAnalytics(t *testing.T) {
	s := setupTestServer(t)
	doRequest(s, http.MethodPost, "/api/sessions", map[string]any{"focusDuration": 1500, "breakDuration": 300, "date": "2024-01-01"})
	doRequest(s, http.MethodPost, "/api/sessions", map[string]any{"focusDuration": 600, "breakDuration": 0, "date": "2024-01-01"})

	w := doRequest(s, http.MethodGet, "/api/analytics", nil)
	require.Equal(t, http.StatusOK, w.Code)
	d := decode[analytics.Dashboard](t, w)
	require.Len(t, d.Daily, analytics.DailyWindow)
	require.Len(t, d.Monthly, analytics.MonthlyWindow)
	assert.Equal(t, "2024-01-01", d.Daily[4].Label)
	assert.Equal(t, 35.0, d.Daily[4].FocusMinutes)
	assert.Equal(t, 2, d.Summary.TotalSessions)
	assert.Equal(t, 17.5, d.Summary.AverageFocusMinutes)
}

type brokenStore struct{ storage.Storage }

func (brokenStore) ListSessions(context.Context) ([]session.Record, error) {
	return nil, errors.New("database is locked")
}

func TestStorageFailureIs500(t *testing.T) {
	s := NewServer(brokenStore{})
	for _, path := range []string{"/api/sessions", "/api/analytics"} {
		w := doRequest(s, http.MethodGet, path, nil)
		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Equal(t, "database is locked", decode[map[string]string](t, w)["error"])
	}
}
