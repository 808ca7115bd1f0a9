// Package server exposes a dashboard session over HTTP and WebSocket.
package server

import (
	"context"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/teranos/epicdash/dashboard"
	"github.com/teranos/epicdash/errors"
	"github.com/teranos/epicdash/logger"
)

// ShutdownTimeout bounds how long Shutdown waits for connections to drain.
const ShutdownTimeout = 5 * time.Second

// MaxClients caps concurrent WebSocket connections.
const MaxClients = 64

// Options configures a Server.
type Options struct {
	// AllowedOrigins are WebSocket origin prefixes. Requests without an
	// Origin header are always accepted.
	AllowedOrigins []string
	// CommandsPerSecond limits commands from one WebSocket client.
	CommandsPerSecond int
	Verbosity         int
}

// Server serves one dashboard session.
type Server struct {
	session *dashboard.Session
	router  *mux.Router
	opts    Options

	clients map[*Client]bool
	mu      sync.RWMutex

	ctx       context.Context
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	verbosity atomic.Int32

	httpServer *http.Server
	logger     *zap.SugaredLogger
}

// New creates a server for session.
func New(session *dashboard.Session, opts Options) *Server {
	if opts.CommandsPerSecond <= 0 {
		opts.CommandsPerSecond = 20
	}
	ctx, cancel := context.WithCancel(context.Background())
	s := &Server{
		session: session,
		opts:    opts,
		clients: make(map[*Client]bool),
		ctx:     ctx,
		cancel:  cancel,
		logger:  logger.ComponentLogger("server"),
	}
	s.verbosity.Store(int32(opts.Verbosity))
	s.router = s.routes()
	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Infow("Dashboard server listening", logger.FieldAddress, addr)
		errCh <- s.httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		s.closeClients()
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return errors.Wrapf(err, "dashboard server on %s", addr)
	case <-ctx.Done():
		return s.Shutdown()
	}
}

// Shutdown stops accepting requests and closes every WebSocket client.
func (s *Server) Shutdown() error {
	s.logger.Infow("Initiating server shutdown")

	var shutdownErr error
	if s.httpServer != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
		defer cancel()
		shutdownErr = s.httpServer.Shutdown(shutdownCtx)
	}
	s.closeClients()

	if shutdownErr != nil {
		return errors.Wrap(shutdownErr, "dashboard server shutdown")
	}
	s.logger.Infow("Server shutdown complete")
	return nil
}

// closeClients closes connections before cancelling the context so the
// pumps exit on their own, then waits for them with a timeout.
func (s *Server) closeClients() {
	s.mu.Lock()
	toClose := make([]*Client, 0, len(s.clients))
	for c := range s.clients {
		toClose = append(toClose, c)
	}
	s.mu.Unlock()

	if len(toClose) > 0 {
		s.logger.Infow("Closing client connections", logger.FieldCount, len(toClose))
		for _, c := range toClose {
			c.conn.Close()
		}
	}
	s.cancel()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(ShutdownTimeout):
		s.logger.Warnw("Client shutdown timed out", "timeout", ShutdownTimeout)
	}
}

// ClientCount returns the number of connected WebSocket clients.
func (s *Server) ClientCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.clients)
}

func (s *Server) register(c *Client) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.clients) >= MaxClients {
		return false
	}
	s.clients[c] = true
	return true
}

func (s *Server) unregister(c *Client) {
	s.mu.Lock()
	_, ok := s.clients[c]
	delete(s.clients, c)
	n := len(s.clients)
	s.mu.Unlock()
	if ok {
		s.logger.Infow("Client disconnected", logger.FieldClientID, shortID(c.id), "total_clients", n)
	}
}

func (s *Server) newLimiter() *rate.Limiter {
	return rate.NewLimiter(rate.Limit(s.opts.CommandsPerSecond), s.opts.CommandsPerSecond)
}
