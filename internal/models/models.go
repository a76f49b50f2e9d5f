// Package models holds the wire types shared between the HTTP layer, the
// ingestion worker, and the engine.
package models

import (
	"time"

	"github.com/gridrun/race-api/internal/geo"
)

// RemoteRunner is a read-only snapshot of another player's published
// position. Owned by the presence layer; the session only renders it.
type RemoteRunner struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Lat         float64 `json:"lat"`
	Lng         float64 `json:"lng"`
	LastUpdated int64   `json:"last_updated"` // unix millis
}

// PositionSample is one telemetry fix headed for ClickHouse. Speed is a
// pointer because not every platform reports instantaneous speed.
type PositionSample struct {
	SessionID string    `json:"session_id" validate:"required"`
	UserID    string    `json:"user_id" validate:"required"`
	Lat       float64   `json:"lat" validate:"gte=-90,lte=90"`
	Lng       float64   `json:"lng" validate:"gte=-180,lte=180"`
	Speed     *float64  `json:"speed,omitempty"`
	Flagged   bool      `json:"flagged,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// SessionSnapshot is the externally visible race state for one session.
type SessionSnapshot struct {
	ID           string         `json:"id"`
	UserID       string         `json:"user_id"`
	Playing      bool           `json:"playing"`
	RealMode     bool           `json:"real_mode"`
	UserPos      geo.Coordinate `json:"user_pos"`
	GhostPos     geo.Coordinate `json:"ghost_pos"`
	UserSpeed    float64        `json:"user_speed"`
	GhostSpeed   float64        `json:"ghost_speed"`
	Distance     float64        `json:"distance"`
	RivalGap     float64        `json:"rival_gap"`
	InZone       bool           `json:"in_zone"`
	JustBreached bool           `json:"just_breached"`
	UnderAttack  bool           `json:"under_attack"`
	PathLength   int            `json:"path_length"`
	SpeedFlags   int            `json:"speed_flags"`
	Runners      []RemoteRunner `json:"runners,omitempty"`
}

// StartSessionRequest creates a race session.
type StartSessionRequest struct {
	UserID string  `json:"user_id" validate:"required"`
	Mode   string  `json:"mode" validate:"required,oneof=sim real"`
	Lat    float64 `json:"lat" validate:"gte=-90,lte=90"`
	Lng    float64 `json:"lng" validate:"gte=-180,lte=180"`
}

// PositionUpdateRequest is a real-GPS fix pushed into a session.
type PositionUpdateRequest struct {
	Lat   float64  `json:"lat" validate:"gte=-90,lte=90"`
	Lng   float64  `json:"lng" validate:"gte=-180,lte=180"`
	Speed *float64 `json:"speed,omitempty"`
}

// MoveRequest is the tap-to-move affordance.
type MoveRequest struct {
	Lat float64 `json:"lat" validate:"gte=-90,lte=90"`
	Lng float64 `json:"lng" validate:"gte=-180,lte=180"`
}

// ScoreRequest adds dominance points for a faction.
type ScoreRequest struct {
	Faction string  `json:"faction" validate:"required,oneof=NEON ROSE"`
	Amount  float64 `json:"amount" validate:"gte=0"`
}
