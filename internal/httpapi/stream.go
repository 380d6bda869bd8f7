package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"mnm-site/internal/observability"
)

// StreamConfig configures the price stream.
type StreamConfig struct {
	// Interval between snapshot pushes.
	Interval time.Duration
	// PingInterval is interval for sending ping frames.
	PingInterval time.Duration
	// ReadTimeout is how long to wait for a pong or client frame.
	ReadTimeout time.Duration
	// WriteTimeout is timeout for writing messages.
	WriteTimeout time.Duration
}

// DefaultStreamConfig returns default stream configuration.
func DefaultStreamConfig() StreamConfig {
	return StreamConfig{
		Interval:     30 * time.Second,
		PingInterval: 30 * time.Second,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
}

func (c StreamConfig) withDefaults() StreamConfig {
	d := DefaultStreamConfig()
	if c.Interval <= 0 {
		c.Interval = d.Interval
	}
	if c.PingInterval <= 0 {
		c.PingInterval = d.PingInterval
	}
	if c.ReadTimeout <= 0 {
		c.ReadTimeout = d.ReadTimeout
	}
	if c.WriteTimeout <= 0 {
		c.WriteTimeout = d.WriteTimeout
	}
	return c
}

// Clients only send control frames and the occasional close.
const streamReadLimit = 512

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Any origin, matching the CORS policy.
	CheckOrigin: func(*http.Request) bool { return true },
}

// handleStream pushes a fresh snapshot on connect and then every interval.
// Each push resolves from upstream.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	if !s.trackStream() {
		writeError(w, http.StatusServiceUnavailable, msgPriceData)
		return
	}
	defer s.streams.Done()

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already replied.
		s.logger.WithError(err).Debug("websocket upgrade failed")
		return
	}

	observability.StreamOpened()
	defer observability.StreamClosed()

	logger := s.logger.WithField("remote", r.RemoteAddr)
	logger.Debug("price stream opened")
	defer logger.Debug("price stream closed")

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()
	defer conn.Close()

	// Shutdown also aborts an in-flight upstream call.
	go func() {
		select {
		case <-s.done:
			cancel()
		case <-ctx.Done():
		}
	}()

	go s.streamReader(conn, cancel)
	s.streamWriter(ctx, conn)
}

// streamReader consumes client frames so pongs and close frames are seen.
// It cancels the stream when the client goes away.
func (s *Server) streamReader(conn *websocket.Conn, cancel context.CancelFunc) {
	defer cancel()

	cfg := s.opts.Stream
	conn.SetReadLimit(streamReadLimit)
	_ = conn.SetReadDeadline(time.Now().Add(cfg.ReadTimeout))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(cfg.ReadTimeout))
	})

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (s *Server) streamWriter(ctx context.Context, conn *websocket.Conn) {
	cfg := s.opts.Stream

	if !s.pushSnapshot(ctx, conn) {
		s.sendClose(conn)
		return
	}

	push := time.NewTicker(cfg.Interval)
	defer push.Stop()
	ping := time.NewTicker(cfg.PingInterval)
	defer ping.Stop()

	for {
		select {
		case <-ctx.Done():
			s.sendClose(conn)
			return
		case <-push.C:
			if !s.pushSnapshot(ctx, conn) {
				s.sendClose(conn)
				return
			}
		case <-ping.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(cfg.WriteTimeout)); err != nil {
				return
			}
		}
	}
}

// pushSnapshot resolves and sends one snapshot. A resolution failure sends
// the error body and keeps the stream open. It reports whether the
// connection is still usable.
func (s *Server) pushSnapshot(ctx context.Context, conn *websocket.Conn) bool {
	var payload any
	res, err := s.opts.Snapshots.Current(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return false
		}
		s.logger.WithError(err).Error("resolve streamed price")
		payload = errorBody{Error: msgPriceData}
	} else {
		payload = res.Snapshot
	}

	_ = conn.SetWriteDeadline(time.Now().Add(s.opts.Stream.WriteTimeout))
	if err := conn.WriteJSON(payload); err != nil {
		s.logger.WithError(err).Debug("write to price stream failed")
		return false
	}

	if res != nil {
		s.archiveSnapshot(ctx, res.Snapshot, res.Strategy)
	}
	return true
}

// sendClose writes a close frame. Going-away is used while shutting down.
func (s *Server) sendClose(conn *websocket.Conn) {
	code, text := websocket.CloseNormalClosure, ""
	select {
	case <-s.done:
		code, text = websocket.CloseGoingAway, "server shutting down"
	default:
	}
	msg := websocket.FormatCloseMessage(code, text)
	_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(s.opts.Stream.WriteTimeout))
}
