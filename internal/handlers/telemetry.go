package handlers

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/gridrun/race-api/internal/models"
)

// IngestTelemetry handles POST /api/v1/telemetry
// @Summary Bulk Telemetry Upload
// @Description Accepts a JSON array of position samples, e.g. an offline run synced after the fact
// @Tags Telemetry
// @Accept json
// @Produce json
// @Param body body []models.PositionSample true "Samples"
// @Success 202 {object} map[string]interface{} "Accepted"
// @Failure 400 {object} map[string]string "Bad Request"
// @Router /telemetry [post]
func (h *Handler) IngestTelemetry(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, MaxBodySize)
	body, err := io.ReadAll(r.Body)
	if err != nil {
		h.errorResponse(w, http.StatusRequestEntityTooLarge, "Request body too large")
		return
	}
	defer r.Body.Close()

	var samples []models.PositionSample
	if err := json.Unmarshal(body, &samples); err != nil {
		h.errorResponse(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}

	accepted := 0
	for i := range samples {
		sample := &samples[i]
		if err := h.validator.Struct(sample); err != nil {
			h.logger.Warnw("invalid telemetry sample", "index", i, "error", err)
			continue
		}
		if !h.pool.Enqueue(sample) {
			h.logger.Warn("telemetry queue full, dropping remaining samples in batch")
			break
		}
		accepted++
	}

	h.jsonResponse(w, http.StatusAccepted, map[string]interface{}{
		"status":   "accepted",
		"received": len(samples),
		"enqueued": accepted,
	})
}

// GetRunners handles GET /api/v1/runners
// @Summary Live Runners
// @Description Returns the current visible-runner snapshot
// @Tags Telemetry
// @Produce json
// @Success 200 {array} models.RemoteRunner
// @Router /runners [get]
func (h *Handler) GetRunners(w http.ResponseWriter, r *http.Request) {
	runners, err := h.presence.Snapshot(r.Context())
	if err != nil {
		h.errorResponse(w, http.StatusInternalServerError, "Failed to read runners")
		return
	}
	if runners == nil {
		runners = []models.RemoteRunner{}
	}
	h.jsonResponse(w, http.StatusOK, runners)
}
