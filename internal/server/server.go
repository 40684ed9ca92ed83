// Package server exposes the session store over the JSON HTTP API.
package server

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"pomotrack/internal/logging"
	"pomotrack/internal/storage"
)

type Server struct {
	store  storage.Storage
	router *gin.Engine
	log    *logrus.Entry
	now    func() time.Time
}

// NewServer builds the router for store. Callers own the store's lifecycle.
func NewServer(store storage.Storage) *Server {
	router := gin.New()

	s := &Server{
		store:  store,
		router: router,
		log:    logging.NewLogger("server"),
		now:    time.Now,
	}

	router.Use(gin.Recovery(), s.requestLogger(), cors.New(corsConfig()))

	api := router.Group("/api")
	{
		api.GET("/health", s.handleHealth)
		api.GET("/analytics", s.handleAnalytics)

		api.POST("/sessions", s.handleCreateSession)
		api.GET("/sessions", s.handleListSessions)
		api.GET("/sessions/date/:date", s.handleSessionsByDate)
		api.GET("/sessions/range", s.handleSessionsInRange)
		api.DELETE("/sessions", s.handleDeleteSessions)
	}

	return s
}

func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.log.WithFields(logrus.Fields{
			"method":   c.Request.Method,
			"path":     c.Request.URL.Path,
			"status":   c.Writer.Status(),
			"duration": time.Since(start).String(),
		}).Debug("Request handled")
	}
}

// corsConfig allows any origin; the API carries no credentials.
func corsConfig() cors.Config {
	return cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    []string{http.MethodGet, http.MethodHead, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowHeaders:    []string{"Origin", "Content-Type", "Accept", "Authorization"},
		MaxAge:          12 * time.Hour,
	}
}
