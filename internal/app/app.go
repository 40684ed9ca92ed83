package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"sync"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"pomotrack/internal/config"
	"pomotrack/internal/logging"
	"pomotrack/internal/server"
	"pomotrack/internal/storage"

	sqlitestore "pomotrack/internal/storage/sqlite"
)

// App is the backend daemon: the session store behind the HTTP API.
type App struct {
	cfg     *config.Config
	storage storage.Storage
	httpSrv *http.Server
	log     *logrus.Entry

	wg     sync.WaitGroup
	ctx    context.Context
	cancel context.CancelFunc

	cleanupOnce sync.Once
}

func NewApp(cfg *config.Config) (*App, error) {
	ctx, cancel := context.WithCancel(context.Background())

	a := &App{
		cfg:    cfg,
		log:    logging.NewLogger("app"),
		ctx:    ctx,
		cancel: cancel,
	}

	a.storage = sqlitestore.NewSQLiteStore(cfg.Server.DatabasePath)
	if err := a.storage.Init(ctx); err != nil {
		cancel()
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	if a.log.Logger.IsLevelEnabled(logrus.DebugLevel) {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	a.httpSrv = &http.Server{
		Handler:           server.NewServer(a.storage).Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return a, nil
}

// Run listens on the configured port and serves until a signal or Stop.
func (a *App) Run() error {
	addr := net.JoinHostPort("", strconv.Itoa(a.cfg.Server.Port))
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		a.cleanup()
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	a.handleSignals()
	return a.Serve(listener)
}

// Serve runs the HTTP API on listener and blocks until the app is stopped.
// The listener is closed on return.
func (a *App) Serve(listener net.Listener) error {
	defer a.cleanup()

	a.log.WithFields(logrus.Fields{
		"addr":     listener.Addr().String(),
		"database": a.cfg.Server.DatabasePath,
	}).Info("Pomodoro backend running")

	serveErr := make(chan error, 1)
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		if err := a.httpSrv.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	var runErr error
	select {
	case <-a.ctx.Done():
		a.log.Info("Shutdown requested, draining connections...")
	case runErr = <-serveErr:
		a.log.WithError(runErr).Error("HTTP server failed")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout())
	defer cancel()
	if err := a.httpSrv.Shutdown(shutdownCtx); err != nil {
		a.log.WithError(err).Warn("Timeout waiting for in-flight requests")
	}
	a.wg.Wait()

	a.log.Info("Pomodoro backend stopped")
	return runErr
}

// Stop requests a graceful shutdown.
func (a *App) Stop() {
	a.cancel()
}

func (a *App) handleSignals() {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		select {
		case sig := <-sigChan:
			a.log.WithField("signal", sig.String()).Info("Received signal, initiating shutdown")
			a.cancel()
		case <-a.ctx.Done():
		}
		signal.Stop(sigChan)
	}()
}

func (a *App) cleanup() {
	a.cleanupOnce.Do(func() {
		a.cancel()
		if a.storage != nil {
			if err := a.storage.Close(); err != nil {
				a.log.WithError(err).Error("Error closing storage")
			}
		}
		a.log.Debug("Cleanup finished")
	})
}
