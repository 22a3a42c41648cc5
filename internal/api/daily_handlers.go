package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/vytor/dailyalbum/internal/errors"
)

type guessRequest struct {
	EntityID string `json:"entity_id"`
}

func (s *Server) handleStartSession(w http.ResponseWriter, r *http.Request) {
	result, err := s.DailyService.StartOrResume(r.Context(), playerFromContext(r.Context()))
	if err != nil {
		handleError(w, r, err)
		return
	}

	status := http.StatusOK
	if result.IsNew {
		status = http.StatusCreated
	}
	writeJSON(w, r, status, result)
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	detail, err := s.DailyService.GetSession(r.Context(), chi.URLParam(r, "id"), playerFromContext(r.Context()))
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, detail)
}

func (s *Server) handleSubmitGuess(w http.ResponseWriter, r *http.Request) {
	var req guessRequest
	if err := decodeJSON(w, r, &req); err != nil {
		handleError(w, r, err)
		return
	}
	if req.EntityID == "" {
		handleError(w, r, errors.NewBadRequestError("entity_id is required"))
		return
	}

	result, err := s.DailyService.SubmitGuess(r.Context(), chi.URLParam(r, "id"), playerFromContext(r.Context()), req.EntityID)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, result)
}

func (s *Server) handleSubmitSkip(w http.ResponseWriter, r *http.Request) {
	result, err := s.DailyService.SubmitSkip(r.Context(), chi.URLParam(r, "id"), playerFromContext(r.Context()))
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, result)
}

func (s *Server) handleTodaysStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.DailyService.GetTodaysStats(r.Context())
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, stats)
}
