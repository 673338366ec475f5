package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"strata/internal/core"
	"strata/internal/schedule"
	"strata/internal/services"
	"strata/internal/storage"
)

type reminderResponse struct {
	ID        int64    `json:"id"`
	StrataID  int64    `json:"strata_id"`
	Title     string   `json:"title"`
	Rule      ruleJSON `json:"rule"`
	Schedule  string   `json:"schedule"`
	NextDate  string   `json:"next_date,omitempty"`
	LastSent  string   `json:"last_sent,omitempty"`
	SentCount int64    `json:"sent_count"`
	Status    string   `json:"status"`
	Version   int64    `json:"version"`
}

func toReminderResponse(rem core.Reminder) reminderResponse {
	resp := reminderResponse{
		ID:        rem.ID,
		StrataID:  rem.StrataID,
		Title:     rem.Title,
		Rule:      ruleToJSON(rem.Rule),
		Schedule:  schedule.Describe(rem.Rule),
		SentCount: rem.SentCount,
		Status:    string(rem.Status),
		Version:   rem.Version,
	}
	if !rem.NextDate.IsZero() {
		resp.NextDate = rem.NextDate.String()
	}
	if !rem.LastSent.IsZero() {
		resp.LastSent = rem.LastSent.String()
	}
	return resp
}

func (s *Server) handleReminders(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.listReminders(w, r)
	case http.MethodPost:
		s.createReminder(w, r)
	case http.MethodDelete:
		s.deleteReminder(w, r)
	default:
		w.Header().Set("Allow", "GET, POST, DELETE")
		respondError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *Server) listReminders(w http.ResponseWriter, r *http.Request) {
	strataID, ok := queryInt64(r, "strata_id")
	if !ok {
		respondError(w, http.StatusBadRequest, "strata_id is required")
		return
	}

	reminders, err := s.store.ListReminders(r.Context(), strataID)
	if err != nil {
		slog.ErrorContext(r.Context(), "Failed to list reminders", "error", err)
		respondError(w, http.StatusInternalServerError, "failed to list reminders")
		return
	}

	out := make([]reminderResponse, 0, len(reminders))
	for _, rem := range reminders {
		out = append(out, toReminderResponse(rem))
	}
	respondJSON(w, http.StatusOK, out)
}

func (s *Server) createReminder(w http.ResponseWriter, r *http.Request) {
	var req struct {
		StrataID int64    `json:"strata_id"`
		Title    string   `json:"title"`
		Rule     ruleJSON `json:"rule"`
		From     string   `json:"from,omitempty"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	rule, err := req.Rule.toRule()
	if err != nil {
		respondError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	from, err := parseFromDate(req.From)
	if err != nil {
		respondError(w, http.StatusUnprocessableEntity, "invalid from date")
		return
	}

	rem, err := s.reminders.CreateReminder(r.Context(), req.StrataID, sanitizeInput(req.Title), rule, from)
	if err != nil {
		if errors.Is(err, core.ErrEmptyTitle) {
			respondError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		slog.ErrorContext(r.Context(), "Failed to create reminder", "error", err)
		respondError(w, http.StatusInternalServerError, "failed to create reminder")
		return
	}

	respondJSON(w, http.StatusCreated, toReminderResponse(rem))
}

func (s *Server) deleteReminder(w http.ResponseWriter, r *http.Request) {
	id, ok := queryInt64(r, "id")
	if !ok {
		respondError(w, http.StatusBadRequest, "id is required")
		return
	}
	if err := s.store.DeleteReminder(r.Context(), id); err != nil {
		slog.ErrorContext(r.Context(), "Failed to delete reminder", "id", id, "error", err)
		respondError(w, http.StatusInternalServerError, "failed to delete reminder")
		return
	}
	respondJSON(w, http.StatusNoContent, nil)
}

func (s *Server) handlePauseReminder(w http.ResponseWriter, r *http.Request) {
	s.changeReminderStatus(w, r, s.reminders.Pause)
}

func (s *Server) handleResumeReminder(w http.ResponseWriter, r *http.Request) {
	s.changeReminderStatus(w, r, s.reminders.Resume)
}

func (s *Server) handleCancelReminder(w http.ResponseWriter, r *http.Request) {
	s.changeReminderStatus(w, r, s.reminders.Cancel)
}

func (s *Server) changeReminderStatus(w http.ResponseWriter, r *http.Request, change func(ctx context.Context, id int64) error) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}
	id, ok := queryInt64(r, "id")
	if !ok {
		respondError(w, http.StatusBadRequest, "id is required")
		return
	}

	err := change(r.Context(), id)
	switch {
	case err == nil:
	case errors.Is(err, storage.ErrNotFound):
		respondError(w, http.StatusNotFound, "reminder not found")
		return
	case errors.Is(err, services.ErrInvalidTransition):
		respondError(w, http.StatusConflict, err.Error())
		return
	default:
		slog.ErrorContext(r.Context(), "Failed to change reminder status", "id", id, "error", err)
		respondError(w, http.StatusInternalServerError, "failed to change reminder status")
		return
	}

	rem, err := s.store.GetReminder(r.Context(), id)
	if err != nil {
		respondJSON(w, http.StatusOK, nil)
		return
	}
	respondJSON(w, http.StatusOK, toReminderResponse(rem))
}

func (s *Server) handleRescheduleReminder(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}

	var req struct {
		ID   int64    `json:"id"`
		Rule ruleJSON `json:"rule"`
		From string   `json:"from,omitempty"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	rule, err := req.Rule.toRule()
	if err != nil {
		respondError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	from, err := parseFromDate(req.From)
	if err != nil {
		respondError(w, http.StatusUnprocessableEntity, "invalid from date")
		return
	}

	rem, err := s.reminders.Reschedule(r.Context(), req.ID, rule, from)
	switch {
	case err == nil:
	case errors.Is(err, storage.ErrNotFound):
		respondError(w, http.StatusNotFound, "reminder not found")
		return
	case errors.Is(err, storage.ErrVersionConflict):
		respondError(w, http.StatusConflict, "reminder was modified concurrently")
		return
	case errors.Is(err, services.ErrInvalidTransition):
		respondError(w, http.StatusConflict, err.Error())
		return
	default:
		slog.ErrorContext(r.Context(), "Failed to reschedule reminder", "id", req.ID, "error", err)
		respondError(w, http.StatusInternalServerError, "failed to reschedule reminder")
		return
	}

	respondJSON(w, http.StatusOK, toReminderResponse(rem))
}

func (s *Server) handleSchedulePreview(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}

	var req struct {
		Rule  ruleJSON `json:"rule"`
		From  string   `json:"from,omitempty"`
		Count int      `json:"count,omitempty"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	rule, err := req.Rule.toRule()
	if err != nil {
		respondError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	from, err := parseFromDate(req.From)
	if err != nil {
		respondError(w, http.StatusUnprocessableEntity, "invalid from date")
		return
	}
	if req.Count == 0 {
		req.Count = 5
	}

	preview, err := s.reminders.Preview(rule, from, req.Count)
	if err != nil {
		respondError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	occurrences := make([]string, 0, len(preview.Occurrences))
	for _, d := range preview.Occurrences {
		occurrences = append(occurrences, d.String())
	}
	respondJSON(w, http.StatusOK, struct {
		Description string   `json:"description"`
		Occurrences []string `json:"occurrences"`
	}{
		Description: preview.Description,
		Occurrences: occurrences,
	})
}
