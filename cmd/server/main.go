// Package main runs the public price API and the admin listener:
// - API: current price, history, live stream, wallet access, observations
// - Admin: /health, /metrics (Prometheus), /status
package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"mnm-site/internal/app"
	"mnm-site/internal/config"
	"mnm-site/internal/httpapi"
	"mnm-site/internal/logger"
	"mnm-site/internal/observability"
)

// Server holds the running listeners.
type Server struct {
	cfg    *config.Config
	app    *app.App
	api    *httpapi.Server
	logger *logrus.Entry

	apiServer   *http.Server
	adminServer *http.Server

	mu      sync.Mutex
	started time.Time
}

func main() {
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		logrus.Fatalf("Failed to load config: %v", err)
	}

	root, err := logger.New(logger.Options{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		File:       cfg.Log.File,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		Compress:   cfg.Log.Compress,
	})
	if err != nil {
		logrus.Fatalf("Failed to create logger: %v", err)
	}
	lg := logger.Component(root, "server")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a, err := app.New(cfg, root)
	if err != nil {
		lg.Fatalf("Failed to build services: %v", err)
	}
	if err := a.OpenStores(ctx); err != nil {
		lg.Fatalf("Failed to open storage: %v", err)
	}
	defer a.Close()
	lg.WithField("mode", cfg.Storage.Mode).Info("archive storage ready")

	api, err := a.APIServer()
	if err != nil {
		lg.Fatalf("Failed to build API: %v", err)
	}

	server := &Server{
		cfg:    cfg,
		app:    a,
		api:    api,
		logger: lg,
	}

	// Channel to signal completion
	done := make(chan struct{})

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	errCh := make(chan error, 2)
	server.start(errCh)

	select {
	case sig := <-sigCh:
		lg.Infof("Received signal %v, initiating graceful shutdown...", sig)
	case err := <-errCh:
		lg.WithError(err).Error("listener failed, shutting down")
	}

	go func() {
		// Wait for second signal for immediate shutdown
		select {
		case sig := <-sigCh:
			lg.Warnf("Received second signal %v, forcing immediate shutdown", sig)
			os.Exit(1)
		case <-time.After(cfg.Server.ShutdownTimeout):
			lg.Warnf("Graceful shutdown timed out after %v, forcing exit", cfg.Server.ShutdownTimeout)
			os.Exit(1)
		case <-done:
		}
	}()

	server.shutdown(cfg.Server.ShutdownTimeout)
	close(done)

	lg.Info("Shutdown complete")
}

// start runs both listeners in the background. Listener errors are sent to errCh.
func (s *Server) start(errCh chan<- error) {
	s.mu.Lock()
	s.started = time.Now()
	s.mu.Unlock()

	s.apiServer = &http.Server{
		Addr:              s.cfg.Server.Addr,
		Handler:           s.api.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.adminServer = &http.Server{
		Addr:              s.cfg.Server.AdminAddr,
		Handler:           s.adminMux(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go s.serve("api", s.apiServer, errCh)
	if s.cfg.Server.AdminAddr != "" {
		go s.serve("admin", s.adminServer, errCh)
	}
}

func (s *Server) serve(name string, srv *http.Server, errCh chan<- error) {
	s.logger.WithField("listener", name).Infof("Starting HTTP server on %s", srv.Addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		errCh <- err
	}
}

// shutdown stops accepting requests, closes live streams and drains handlers.
func (s *Server) shutdown(timeout time.Duration) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	// Streams are hijacked connections Shutdown does not track.
	s.api.Close()

	if err := s.apiServer.Shutdown(ctx); err != nil {
		s.logger.WithError(err).Warn("api shutdown")
	}
	if err := s.adminServer.Shutdown(ctx); err != nil {
		s.logger.WithError(err).Warn("admin shutdown")
	}
}

// adminMux serves health, metrics and status.
func (s *Server) adminMux() *http.ServeMux {
	mux := http.NewServeMux()

	// Health check
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	// Prometheus metrics
	mux.Handle("/metrics", observability.Handler())

	// Status endpoint
	mux.HandleFunc("/status", s.handleStatus)

	return mux
}

// StatusResponse is the JSON response for /status endpoint.
type StatusResponse struct {
	Status      string    `json:"status"`
	Uptime      string    `json:"uptime"`
	Started     time.Time `json:"started"`
	StorageMode string    `json:"storage_mode"`
	CoinType    string    `json:"coin_type"`
	Stream      string    `json:"stream_interval"`
}

// handleStatus returns server status as JSON.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	started := s.started
	s.mu.Unlock()

	resp := StatusResponse{
		Status:      "running",
		Uptime:      time.Since(started).Round(time.Second).String(),
		Started:     started,
		StorageMode: s.cfg.Storage.Mode,
		CoinType:    s.app.Verifier.CoinType(),
		Stream:      s.cfg.Stream.Interval.String(),
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}
