package handlers

import (
	"net/http"
	"strconv"

	"github.com/gridrun/race-api/internal/models"
	"github.com/gridrun/race-api/internal/territory"
)

// GetTerritory handles GET /api/v1/territory
// @Summary Territory State
// @Description Current zone ownership, scores, leader, and cycle status
// @Tags Territory
// @Produce json
// @Success 200 {object} territory.State
// @Router /territory [get]
func (h *Handler) GetTerritory(w http.ResponseWriter, r *http.Request) {
	h.jsonResponse(w, http.StatusOK, h.territory.State())
}

// AddScore handles POST /api/v1/territory/score
// @Summary Add Dominance Score
// @Tags Territory
// @Accept json
// @Produce json
// @Param body body models.ScoreRequest true "Contribution"
// @Success 200 {object} territory.State
// @Failure 400 {object} map[string]string
// @Router /territory/score [post]
func (h *Handler) AddScore(w http.ResponseWriter, r *http.Request) {
	var req models.ScoreRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	if err := h.territory.AddScore(territory.Faction(req.Faction), req.Amount); err != nil {
		h.errorResponse(w, http.StatusBadRequest, err.Error())
		return
	}
	h.jsonResponse(w, http.StatusOK, h.territory.State())
}

// TriggerRollover handles POST /api/v1/territory/rollover
// @Summary Force Cycle Rollover
// @Description Debug trigger for the midnight settlement
// @Tags Territory
// @Produce json
// @Success 200 {object} territory.Settlement
// @Router /territory/rollover [post]
func (h *Handler) TriggerRollover(w http.ResponseWriter, r *http.Request) {
	settlement := h.territory.Rollover(r.Context())
	h.jsonResponse(w, http.StatusOK, settlement)
}

// AckReport handles POST /api/v1/territory/report/ack
// @Summary Acknowledge Daily Report
// @Tags Territory
// @Produce json
// @Success 200 {object} map[string]string
// @Router /territory/report/ack [post]
func (h *Handler) AckReport(w http.ResponseWriter, r *http.Request) {
	h.territory.CloseReport()
	h.jsonResponse(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetHistory handles GET /api/v1/territory/history
// @Summary Settlement History
// @Tags Territory
// @Produce json
// @Param limit query int false "Max settlements"
// @Success 200 {array} territory.Settlement
// @Router /territory/history [get]
func (h *Handler) GetHistory(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	history, err := h.territory.History(r.Context(), limit)
	if err != nil {
		h.logger.Errorw("settlement history failed", "error", err)
		h.errorResponse(w, http.StatusInternalServerError, "Failed to read history")
		return
	}
	if history == nil {
		history = []territory.Settlement{}
	}
	h.jsonResponse(w, http.StatusOK, history)
}
