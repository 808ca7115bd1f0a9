package server

import (
	"io"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/teranos/epicdash/errors"
	"github.com/teranos/epicdash/gauge"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	_, _ = io.WriteString(w, "OK")
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	snap, err := s.session.Snapshot(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (s *Server) handleCatalog(w http.ResponseWriter, r *http.Request) {
	cat := s.session.Catalog()
	writeJSON(w, http.StatusOK, CatalogResponse{
		Count:     cat.Len(),
		Fallback:  cat.IsFallback(),
		Variables: cat.All(),
	})
}

func widgetIndex(r *http.Request) (int, error) {
	raw := mux.Vars(r)["index"]
	idx, err := strconv.Atoi(raw)
	if err != nil {
		return 0, errors.NewValidationError("widget index %q is not a number", raw)
	}
	return idx, nil
}

func (s *Server) handleSelect(w http.ResponseWriter, r *http.Request) {
	idx, err := widgetIndex(r)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	var req SelectRequest
	if !readJSON(w, r, &req) {
		return
	}
	if req.VariableID == nil {
		writeServiceError(w, r, errors.NewValidationError("variable_id is required"))
		return
	}
	res, err := s.session.Select(r.Context(), idx, *req.VariableID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newTransitionResponse(res))
}

func (s *Server) handleDeselect(w http.ResponseWriter, r *http.Request) {
	idx, err := widgetIndex(r)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	res, err := s.session.Deselect(r.Context(), idx)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newTransitionResponse(res))
}

// handleClearSlot is the force-clear a user triggers by double-activating
// a slot.
func (s *Server) handleClearSlot(w http.ResponseWriter, r *http.Request) {
	ref, err := gauge.ParseSlotRef(mux.Vars(r)["ref"])
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	res, err := s.session.Clear(r.Context(), ref)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newTransitionResponse(res))
}
