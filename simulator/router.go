package simulator

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"time"

	"github.com/gorilla/mux"

	"github.com/teranos/epicdash/errors"
	"github.com/teranos/epicdash/feed"
	"github.com/teranos/epicdash/logger"
)

// Router returns the mock ECU routes.
func (s *Simulator) Router() *mux.Router {
	r := mux.NewRouter()
	r.Use(s.cors, s.logRequests)
	r.HandleFunc(feed.PathData, s.handleData).Methods(http.MethodGet)
	r.HandleFunc(feed.PathHealth, s.handleHealth).Methods(http.MethodGet)
	r.HandleFunc(feed.PathConfig, s.handleConfig).Methods(http.MethodGet)
	r.HandleFunc(feed.PathConfigSave, s.handleConfigSave).Methods(http.MethodPost)
	r.HandleFunc(feed.PathVariables, s.handleVariables).Methods(http.MethodGet)
	return r
}

// ListenAndServe serves on addr until ctx is cancelled.
func (s *Simulator) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		s.log.Infow("Mock ECU listening", logger.FieldAddress, addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return errors.Wrapf(err, "mock ECU on %s", addr)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return errors.Wrap(err, "mock ECU shutdown")
		}
		s.log.Infow("Mock ECU stopped", logger.FieldCount, s.Requests())
		return nil
	}
}

func (s *Simulator) cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		next.ServeHTTP(w, r)
	})
}

func (s *Simulator) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.log.Debugw("Request",
			logger.FieldMethod, r.Method,
			logger.FieldPath, r.URL.Path,
			logger.FieldDurationMS, time.Since(start).Milliseconds())
	})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Simulator) handleData(w http.ResponseWriter, r *http.Request) {
	s.requests.Add(1)
	writeJSON(w, http.StatusOK, Sample(s.now()))
}

func (s *Simulator) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.Health(s.now()))
}

func (s *Simulator) handleConfig(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.Config())
}

func (s *Simulator) handleConfigSave(w http.ResponseWriter, r *http.Request) {
	var cfg feed.ECUConfig
	if err := json.NewDecoder(r.Body).Decode(&cfg); err != nil {
		writeJSON(w, http.StatusBadRequest, feed.SaveResult{Status: "error", Message: err.Error()})
		return
	}
	s.setConfig(cfg)
	s.log.Infow("Configuration saved", "ecu_id", cfg.ECUID, "can_speed", cfg.CANSpeed)
	writeJSON(w, http.StatusOK, feed.SaveResult{Status: "success", Message: "Configuration saved"})
}

// handleVariables serves the configured catalog file, or an empty array
// when there is none so clients fall back instead of failing.
func (s *Simulator) handleVariables(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if s.variablesFile == "" {
		_, _ = w.Write([]byte("[]"))
		return
	}
	data, err := os.ReadFile(s.variablesFile)
	if err != nil {
		s.log.Warnw("variables.json unavailable", "file", s.variablesFile, logger.FieldError, err)
		_, _ = w.Write([]byte("[]"))
		return
	}
	_, _ = w.Write(data)
}
