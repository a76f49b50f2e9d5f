package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/gridrun/race-api/internal/profile"
)

// GetProfile handles GET /api/v1/profile/{userID}
// @Summary Get Profile
// @Tags Profile
// @Produce json
// @Success 200 {object} profile.Profile
// @Router /profile/{userID} [get]
func (h *Handler) GetProfile(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	p, err := h.profiles.Get(r.Context(), userID)
	if err != nil {
		h.logger.Errorw("profile read failed", "user", userID, "error", err)
		h.errorResponse(w, http.StatusInternalServerError, "Failed to read profile")
		return
	}
	h.jsonResponse(w, http.StatusOK, p)
}

// PutProfile handles PUT /api/v1/profile/{userID}
// @Summary Update Profile
// @Tags Profile
// @Accept json
// @Produce json
// @Param body body profile.Profile true "Profile"
// @Success 200 {object} profile.Profile
// @Failure 400 {object} map[string]string
// @Router /profile/{userID} [put]
func (h *Handler) PutProfile(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	r.Body = http.MaxBytesReader(w, r.Body, MaxBodySize)
	defer r.Body.Close()

	var p profile.Profile
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		h.errorResponse(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	// The path owns identity; the body cannot rename the profile.
	p.UserID = userID

	if p.Faction != "" && p.Faction != "NEON" && p.Faction != "ROSE" {
		h.errorResponse(w, http.StatusBadRequest, "Faction must be NEON or ROSE")
		return
	}

	if err := h.profiles.Set(r.Context(), &p); err != nil {
		h.logger.Errorw("profile write failed", "user", userID, "error", err)
		h.errorResponse(w, http.StatusInternalServerError, "Failed to write profile")
		return
	}
	h.jsonResponse(w, http.StatusOK, &p)
}
