package http

import (
	"log/slog"
	"net/http"
)

type strataResponse struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

func (s *Server) handleStratas(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.listStratas(w, r)
	case http.MethodPost:
		s.createStrata(w, r)
	default:
		w.Header().Set("Allow", "GET, POST")
		respondError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *Server) listStratas(w http.ResponseWriter, r *http.Request) {
	stratas, err := s.store.ListStratas(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "Failed to list stratas", "error", err)
		respondError(w, http.StatusInternalServerError, "failed to list stratas")
		return
	}

	out := make([]strataResponse, 0, len(stratas))
	for _, st := range stratas {
		out = append(out, strataResponse{ID: st.ID, Name: st.Name})
	}
	respondJSON(w, http.StatusOK, out)
}

func (s *Server) createStrata(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	name := sanitizeInput(req.Name)
	if name == "" {
		respondError(w, http.StatusUnprocessableEntity, "name is required")
		return
	}

	st, err := s.store.CreateStrata(r.Context(), name)
	if err != nil {
		slog.ErrorContext(r.Context(), "Failed to create strata", "error", err)
		respondError(w, http.StatusInternalServerError, "failed to create strata")
		return
	}

	respondJSON(w, http.StatusCreated, strataResponse{ID: st.ID, Name: st.Name})
}
