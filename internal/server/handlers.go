package server

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"pomotrack/internal/analytics"
	"pomotrack/internal/session"
	"pomotrack/internal/storage"
)

type createSessionRequest struct {
	FocusDuration *int       `json:"focusDuration" binding:"required"`
	BreakDuration *int       `json:"breakDuration" binding:"required"`
	Date          string     `json:"date"`
	Timestamp     *time.Time `json:"timestamp"`
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "OK", "message": "Pomodoro backend is running"})
}

func (s *Server) handleCreateSession(c *gin.Context) {
	var req createSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "focusDuration and breakDuration are required"})
		return
	}

	rec := session.Record{
		FocusDuration: *req.FocusDuration,
		BreakDuration: *req.BreakDuration,
		Date:          req.Date,
	}
	if req.Timestamp != nil {
		rec.Timestamp = *req.Timestamp
	}
	if rec.Date == "" {
		at := rec.Timestamp
		if at.IsZero() {
			at = s.now()
		}
		rec.Date = session.DateOf(at)
	}
	if err := rec.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	stored, err := s.store.CreateSession(c.Request.Context(), rec)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, stored)
}

func (s *Server) handleListSessions(c *gin.Context) {
	records, err := s.store.ListSessions(c.Request.Context())
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, records)
}

func (s *Server) handleSessionsByDate(c *gin.Context) {
	records, err := s.store.ListSessionsByDate(c.Request.Context(), c.Param("date"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, records)
}

func (s *Server) handleSessionsInRange(c *gin.Context) {
	start, end := c.Query("startDate"), c.Query("endDate")
	if start == "" || end == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "startDate and endDate are required"})
		return
	}
	records, err := s.store.ListSessionsInRange(c.Request.Context(), start, end)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, records)
}

func (s *Server) handleDeleteSessions(c *gin.Context) {
	n, err := s.store.DeleteAllSessions(c.Request.Context())
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "All sessions deleted", "deleted": n})
}

// handleAnalytics aggregates the full history on every request.
func (s *Server) handleAnalytics(c *gin.Context) {
	records, err := s.store.ListSessions(c.Request.Context())
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, analytics.Build(records, s.now()))
}

// fail maps store errors to a JSON error response.
func (s *Server) fail(c *gin.Context, err error) {
	if errors.Is(err, storage.ErrInvalidDate) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	s.log.WithError(err).WithField("path", c.FullPath()).Error("Storage failure")
	c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
}
