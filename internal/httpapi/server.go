// Package httpapi serves the public price and wallet endpoints.
package httpapi

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"mnm-site/internal/gate"
	"mnm-site/internal/resolver"
	"mnm-site/internal/storage"
)

// Route paths.
const (
	PathCurrent      = "/api/price/current"
	PathHistory      = "/api/price/history"
	PathStream       = "/api/price/stream"
	PathObservations = "/api/price/observations"
	PathWalletAccess = "/api/wallet/access"
)

// Error bodies, one per endpoint.
const (
	msgMethodNotAllowed = "Method not allowed"
	msgPriceData        = "Failed to fetch price data"
	msgPriceHistory     = "Failed to fetch price history"
	msgObservations     = "Failed to fetch price observations"
	msgWalletFailed     = "Failed to verify wallet balance"
	msgInvalidAddress   = "Invalid wallet address"
)

// SnapshotResolver resolves the current price snapshot.
type SnapshotResolver interface {
	Current(ctx context.Context) (*resolver.SnapshotResult, error)
}

// HistoryResolver resolves a price history window.
type HistoryResolver interface {
	History(ctx context.Context, days int) (*resolver.HistoryResult, error)
}

// BalanceVerifier reads a wallet's token holdings.
type BalanceVerifier interface {
	Verify(ctx context.Context, owner string) gate.Result
}

// Options configures a Server. Snapshots and History are required.
type Options struct {
	Snapshots SnapshotResolver
	History   HistoryResolver

	// Verifier enables the wallet access endpoint when set.
	Verifier          BalanceVerifier
	AdvertisedMinimum decimal.Decimal

	// Archives are optional. Writes never affect responses.
	SnapshotStore storage.SnapshotStore
	HistoryStore  storage.HistoryStore

	Stream StreamConfig
	Logger *logrus.Entry
	Now    func() time.Time
}

// Server holds the API handlers.
type Server struct {
	opts   Options
	logger *logrus.Entry
	now    func() time.Time

	mu      sync.Mutex
	closed  bool
	done    chan struct{}
	streams sync.WaitGroup
}

// NewServer creates a Server.
func NewServer(opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = logrus.NewEntry(logrus.StandardLogger())
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	opts.Stream = opts.Stream.withDefaults()

	return &Server{
		opts:   opts,
		logger: opts.Logger,
		now:    opts.Now,
		done:   make(chan struct{}),
	}
}

// Handler returns the API handler. CORS headers are set on every response,
// including preflight and unknown paths.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.Handle(PathCurrent, s.route(PathCurrent, msgPriceData, s.handleCurrent))
	mux.Handle(PathHistory, s.route(PathHistory, msgPriceHistory, s.handleHistory))
	mux.Handle(PathStream, s.route(PathStream, msgPriceData, s.handleStream))
	mux.Handle(PathObservations, s.route(PathObservations, msgObservations, s.handleObservations))
	if s.opts.Verifier != nil {
		mux.Handle(PathWalletAccess, s.route(PathWalletAccess, msgWalletFailed, s.handleWalletAccess))
	}

	return cors(mux)
}

// route wraps a GET handler with metrics, panic recovery and the method gate.
func (s *Server) route(name, failure string, h http.HandlerFunc) http.Handler {
	return s.instrument(name, s.recoverer(name, failure, methodGate(h)))
}

// Close stops open price streams and waits for them to finish.
func (s *Server) Close() {
	s.mu.Lock()
	if !s.closed {
		s.closed = true
		close(s.done)
	}
	s.mu.Unlock()
	s.streams.Wait()
}

// trackStream registers a stream unless the server is closing.
func (s *Server) trackStream() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	s.streams.Add(1)
	return true
}
