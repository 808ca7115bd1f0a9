package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"github.com/teranos/epicdash/logger"
)

func (s *Server) routes() *mux.Router {
	r := mux.NewRouter()
	r.Use(s.requestID)

	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/ws", s.handleWebSocket).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/state", s.handleState).Methods(http.MethodGet)
	api.HandleFunc("/catalog", s.handleCatalog).Methods(http.MethodGet)
	api.HandleFunc("/widgets/{index:[0-9]+}/select", s.handleSelect).Methods(http.MethodPost)
	api.HandleFunc("/widgets/{index:[0-9]+}/selection", s.handleDeselect).Methods(http.MethodDelete)
	api.HandleFunc("/slots/{ref}", s.handleClearSlot).Methods(http.MethodDelete)
	return r
}

// requestID tags each request's context and logs it at debug.
func (s *Server) requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		id := uuid.NewString()
		ctx := logger.WithRequestID(r.Context(), id)
		w.Header().Set("X-Request-ID", id)
		next.ServeHTTP(w, r.WithContext(ctx))
		if logger.ShouldOutput(int(s.verbosity.Load()), logger.OutputHTTPCalls) {
			logger.LoggerFromContext(ctx).Debugw("Request",
				logger.FieldMethod, r.Method,
				logger.FieldPath, r.URL.Path,
				logger.FieldDurationMS, time.Since(start).Milliseconds())
		}
	})
}

func (s *Server) upgrader() websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  2048,
		WriteBufferSize: 2048,
		CheckOrigin:     s.checkOrigin,
	}
}

// checkOrigin accepts requests without an Origin header and origins
// matching a configured prefix. With no configuration only localhost is
// accepted.
func (s *Server) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	allowed := s.opts.AllowedOrigins
	if len(allowed) == 0 {
		allowed = []string{"http://localhost", "https://localhost", "http://127.0.0.1"}
	}
	for _, prefix := range allowed {
		if strings.HasPrefix(origin, prefix) {
			return true
		}
	}
	return false
}
