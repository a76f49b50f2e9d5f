package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/gridrun/race-api/internal/geo"
	"github.com/gridrun/race-api/internal/models"
	"github.com/gridrun/race-api/internal/race"
)

// CreateSession handles POST /api/v1/sessions
// @Summary Start Race Session
// @Description Creates a race session and starts its driver
// @Tags Sessions
// @Accept json
// @Produce json
// @Param body body models.StartSessionRequest true "Session"
// @Success 201 {object} map[string]string
// @Failure 400 {object} map[string]string
// @Router /sessions [post]
func (h *Handler) CreateSession(w http.ResponseWriter, r *http.Request) {
	var req models.StartSessionRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	cfg := race.DefaultSessionConfig()
	cfg.Mode = race.Mode(req.Mode)
	if req.Lat != 0 || req.Lng != 0 {
		cfg.Start = geo.Coordinate{Lat: req.Lat, Lng: req.Lng}
		cfg.GhostStart = geo.Coordinate{} // respawned behind the new start
	}

	// The driver outlives this request; it is bound to the server's
	// lifecycle, not the request context.
	id := h.sessions.Create(r.Context(), req.UserID, cfg, h.newSink(req.UserID))

	h.logger.Infow("session created", "session", id, "user", req.UserID, "mode", req.Mode)
	h.jsonResponse(w, http.StatusCreated, map[string]string{"id": id})
}

// GetSession handles GET /api/v1/sessions/{id}
// @Summary Get Session Snapshot
// @Tags Sessions
// @Produce json
// @Success 200 {object} models.SessionSnapshot
// @Failure 404 {object} map[string]string
// @Router /sessions/{id} [get]
func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	driver, ok := h.sessions.Get(chi.URLParam(r, "id"))
	if !ok {
		h.errorResponse(w, http.StatusNotFound, "Session not found")
		return
	}

	snap, err := driver.Snapshot(r.Context())
	if err != nil {
		h.errorResponse(w, http.StatusInternalServerError, "Failed to read session")
		return
	}

	// The visible-runner overlay rides along with the snapshot. A
	// presence failure downgrades the overlay, never the session.
	if h.presence != nil {
		runners, err := h.presence.Snapshot(r.Context())
		if err != nil {
			h.logger.Warnw("runner snapshot failed", "session", snap.ID, "error", err)
		} else {
			snap.Runners = runners
			_ = driver.Do(r.Context(), func(s *race.Session) {
				s.SyncRemoteRunners(runners)
			})
		}
	}

	h.jsonResponse(w, http.StatusOK, snap)
}

// UpdatePosition handles POST /api/v1/sessions/{id}/position
// @Summary Ingest Real GPS Fix
// @Description Applies a real-GPS fix to the session, persists the sample, and publishes presence
// @Tags Sessions
// @Accept json
// @Produce json
// @Param body body models.PositionUpdateRequest true "Fix"
// @Success 202 {object} map[string]string
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /sessions/{id}/position [post]
func (h *Handler) UpdatePosition(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	driver, ok := h.sessions.Get(id)
	if !ok {
		h.errorResponse(w, http.StatusNotFound, "Session not found")
		return
	}

	var req models.PositionUpdateRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	err := driver.Do(r.Context(), func(s *race.Session) {
		s.UpdateRealPosition(req.Lat, req.Lng, req.Speed)
	})
	if err != nil {
		h.errorResponse(w, http.StatusConflict, "Session is stopped")
		return
	}

	snap, err := driver.Snapshot(r.Context())
	if err != nil {
		h.errorResponse(w, http.StatusInternalServerError, "Failed to read session")
		return
	}

	// Persist the sample. The guard flag on the raw sample is a simple
	// limit check; the sustained-streak flag lives in the session.
	sample := &models.PositionSample{
		SessionID: snap.ID,
		UserID:    snap.UserID,
		Lat:       req.Lat,
		Lng:       req.Lng,
		Speed:     req.Speed,
		Flagged:   req.Speed != nil && *req.Speed > race.DefaultSpeedLimit,
	}
	if !h.pool.Enqueue(sample) {
		h.logger.Warnw("telemetry queue full, sample dropped", "session", snap.ID)
	}

	h.publishPresence(r, snap)

	h.jsonResponse(w, http.StatusAccepted, map[string]string{"status": "accepted"})
}

// publishPresence broadcasts the session's position, applying the user's
// privacy zone from their profile. Best effort by design.
func (h *Handler) publishPresence(r *http.Request, snap models.SessionSnapshot) {
	if h.presence == nil {
		return
	}

	var home *geo.Coordinate
	name := snap.UserID
	if h.profiles != nil {
		p, err := h.profiles.Get(r.Context(), snap.UserID)
		if err != nil {
			h.logger.Warnw("profile lookup failed", "user", snap.UserID, "error", err)
		} else {
			if p.Nickname != "" {
				name = p.Nickname
			}
			if p.PrivacyEnabled {
				home = p.Home()
			}
		}
	}

	runner := models.RemoteRunner{
		ID:   snap.UserID,
		Name: name,
		Lat:  snap.UserPos.Lat,
		Lng:  snap.UserPos.Lng,
	}
	if err := h.presence.Publish(r.Context(), runner, home); err != nil {
		h.logger.Warnw("presence publish failed", "user", snap.UserID, "error", err)
	}
}

// MoveSession handles POST /api/v1/sessions/{id}/move
// @Summary Manual Move
// @Description Tap-to-move: teleports the simulated user to the target at sprint speed
// @Tags Sessions
// @Accept json
// @Produce json
// @Param body body models.MoveRequest true "Target"
// @Success 202 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /sessions/{id}/move [post]
func (h *Handler) MoveSession(w http.ResponseWriter, r *http.Request) {
	driver, ok := h.sessions.Get(chi.URLParam(r, "id"))
	if !ok {
		h.errorResponse(w, http.StatusNotFound, "Session not found")
		return
	}

	var req models.MoveRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	err := driver.Do(r.Context(), func(s *race.Session) {
		s.MoveTo(geo.Coordinate{Lat: req.Lat, Lng: req.Lng})
	})
	if err != nil {
		h.errorResponse(w, http.StatusConflict, "Session is stopped")
		return
	}
	h.jsonResponse(w, http.StatusAccepted, map[string]string{"status": "accepted"})
}

// StopSession handles POST /api/v1/sessions/{id}/stop
// @Summary Stop Session
// @Description Stops the driver; the post-run summary stays readable
// @Tags Sessions
// @Produce json
// @Success 200 {object} models.SessionSnapshot
// @Failure 404 {object} map[string]string
// @Router /sessions/{id}/stop [post]
func (h *Handler) StopSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.sessions.Stop(id); err != nil {
		h.errorResponse(w, http.StatusNotFound, "Session not found")
		return
	}

	driver, _ := h.sessions.Get(id)
	snap, err := driver.Snapshot(r.Context())
	if err != nil {
		h.errorResponse(w, http.StatusInternalServerError, "Failed to read session")
		return
	}

	if h.presence != nil {
		if err := h.presence.Remove(r.Context(), snap.UserID); err != nil {
			h.logger.Warnw("presence remove failed", "user", snap.UserID, "error", err)
		}
	}

	h.logger.Infow("session stopped",
		"session", id,
		"distance", snap.Distance,
		"speed_flags", snap.SpeedFlags,
	)
	h.jsonResponse(w, http.StatusOK, snap)
}
