// Package race implements the real-time race simulation: the rival pacing
// engine, the session state machine, and the plausibility guard.
package race

import "github.com/gridrun/race-api/internal/geo"

// PacingConfig tunes the dynamic difficulty adjustment for the ghost.
type PacingConfig struct {
	// MinSpeed is the floor the ghost never drops below, in m/s. The
	// ghost must keep moving even when the user stops.
	MinSpeed float64
	// BaselineFactor sets the ghost's target relative to the user's
	// speed. 1.05 keeps the ghost nominally 5% faster.
	BaselineFactor float64
	// CatchUpGap / CatchUpFactor: when the user is further ahead than
	// CatchUpGap meters, the target is scaled by CatchUpFactor.
	CatchUpGap    float64
	CatchUpFactor float64
	// SlowDownGap / SlowDownFactor: when the ghost is ahead by more than
	// -SlowDownGap meters, the target is scaled down to let the user back in.
	SlowDownGap    float64
	SlowDownFactor float64
	// SmoothFactor is the per-tick lerp factor toward the target speed.
	SmoothFactor float64
	// ArriveEpsilon stops movement below this remaining distance in
	// meters to avoid jitter once the ghost converges on the user.
	ArriveEpsilon float64
}

// DefaultPacingConfig returns the production tuning.
func DefaultPacingConfig() PacingConfig {
	return PacingConfig{
		MinSpeed:       3.0,
		BaselineFactor: 1.05,
		CatchUpGap:     50,
		CatchUpFactor:  1.2,
		SlowDownGap:    -10,
		SlowDownFactor: 0.8,
		SmoothFactor:   0.1,
		ArriveEpsilon:  1.0,
	}
}

// Pacing is the rival pacing engine. It is a pure calculator: the session
// owns all state and feeds it in each tick.
type Pacing struct {
	cfg PacingConfig
}

// NewPacing returns a pacing engine with the given tuning.
func NewPacing(cfg PacingConfig) *Pacing {
	return &Pacing{cfg: cfg}
}

// TargetSpeed computes the rubber-banded target ghost speed for the current
// user speed and signed rival gap (positive = user ahead).
func (p *Pacing) TargetSpeed(userSpeed, rivalGap float64) float64 {
	target := userSpeed * p.cfg.BaselineFactor

	if rivalGap > p.cfg.CatchUpGap {
		target *= p.cfg.CatchUpFactor
	}
	if rivalGap < p.cfg.SlowDownGap {
		target *= p.cfg.SlowDownFactor
	}

	// The floor clamps last: the ghost never fully stops, even when the
	// slow-down band is active.
	if target < p.cfg.MinSpeed {
		target = p.cfg.MinSpeed
	}
	return target
}

// Advance moves the ghost one tick: smooths its speed toward the target and
// steps it along the straight line toward the user. It returns the new ghost
// position, the new ghost speed, and the updated signed gap (positive while
// the user is outpacing the ghost, negative while the ghost is closing).
func (p *Pacing) Advance(user, ghost geo.Coordinate, userSpeed, ghostSpeed, rivalGap, dt float64) (geo.Coordinate, float64, float64) {
	target := p.TargetSpeed(userSpeed, rivalGap)
	newSpeed := lerp(ghostSpeed, target, p.cfg.SmoothFactor)

	dist := geo.DistanceMeters(user, ghost)
	newPos := ghost
	if dist > p.cfg.ArriveEpsilon {
		// Zero-distance is excluded by the epsilon check, so the ratio
		// cannot divide by zero.
		ratio := newSpeed * dt / dist
		newPos = geo.Coordinate{
			Lat: ghost.Lat + (user.Lat-ghost.Lat)*ratio,
			Lng: ghost.Lng + (user.Lng-ghost.Lng)*ratio,
		}
	}

	sign := 1.0
	if newSpeed > userSpeed {
		sign = -1.0
	}
	return newPos, newSpeed, dist * sign
}

func lerp(start, end, t float64) float64 {
	return start + (end-start)*t
}
