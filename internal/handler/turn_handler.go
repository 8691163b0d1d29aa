package handler

import (
	"net/http"

	"github.com/freeeve/towerline/internal/auth"
	"github.com/freeeve/towerline/internal/logger"
	"github.com/freeeve/towerline/internal/service"
)

// TurnHandler serves the per-turn decision endpoints.
type TurnHandler struct {
	turnSvc *service.TurnService
}

// NewTurnHandler creates a TurnHandler.
func NewTurnHandler(turnSvc *service.TurnService) *TurnHandler {
	return &TurnHandler{turnSvc: turnSvc}
}

// DecideTurn handles POST /api/v1/matches/{id}/turns. The body is the raw
// snapshot JSON.
func (h *TurnHandler) DecideTurn(w http.ResponseWriter, r *http.Request) {
	matchID := r.PathValue("id")
	body, err := readBody(r)
	if err != nil {
		status, msg := errorStatus(err)
		if status == http.StatusInternalServerError {
			status, msg = http.StatusBadRequest, "invalid request body"
		}
		writeError(w, status, msg)
		return
	}

	rec, err := h.turnSvc.DecideTurn(r.Context(), matchID, body)
	if err != nil {
		status, msg := errorStatus(err)
		if status >= http.StatusInternalServerError {
			log := logger.ForRequest(r.Context())
			log.Error().Err(err).
				Str("matchId", matchID).
				Str("client", auth.ClientIDFromContext(r.Context())).
				Msg("Turn decision failed")
		}
		writeError(w, status, msg)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// ListTurns handles GET /api/v1/matches/{id}/turns
func (h *TurnHandler) ListTurns(w http.ResponseWriter, r *http.Request) {
	recs, err := h.turnSvc.ListTurns(r.Context(), r.PathValue("id"))
	if err != nil {
		status, msg := errorStatus(err)
		writeError(w, status, msg)
		return
	}
	writeJSON(w, http.StatusOK, recs)
}

// EndMatch handles DELETE /api/v1/matches/{id}
func (h *TurnHandler) EndMatch(w http.ResponseWriter, r *http.Request) {
	if err := h.turnSvc.EndMatch(r.Context(), r.PathValue("id")); err != nil {
		status, msg := errorStatus(err)
		writeError(w, status, msg)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Health handles GET /healthz
func Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
