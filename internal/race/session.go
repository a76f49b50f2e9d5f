package race

import (
	"github.com/gridrun/race-api/internal/geo"
	"github.com/gridrun/race-api/internal/models"
)

// Mode selects which driver feeds the session: the fixed-cadence simulation
// ticker or asynchronous real-GPS fixes. The two are mutually exclusive per
// session, chosen at start.
type Mode string

const (
	ModeSimulated Mode = "sim"
	ModeReal      Mode = "real"
)

// SessionConfig holds the per-session tuning. Zero values fall back to the
// production defaults from DefaultSessionConfig.
type SessionConfig struct {
	Mode  Mode
	Start geo.Coordinate
	// GhostStart defaults to slightly behind the user when zero.
	GhostStart geo.Coordinate
	Zone       *geo.Zone
	Pacing     PacingConfig

	InitialGhostSpeed float64 // m/s, default 4.5
	InitialRivalGap   float64 // meters, default 150

	// SpeedDecay is the per-tick multiplicative stamina decay applied to
	// the user in simulated mode.
	SpeedDecay float64 // default 0.98
	// PathThrottleMeters bounds breadcrumb density in simulated mode.
	PathThrottleMeters float64 // default 0.5
	// UnderAttackRadius marks the ghost as dangerously close.
	UnderAttackRadius float64 // meters, default 20
	// SprintSpeed is assigned on a manual move.
	SprintSpeed float64 // m/s, default 5.0

	GuardSpeedLimit      float64
	GuardSustainedChecks int
}

// DefaultSessionConfig returns the demo tuning: a simulated run starting at
// Seoul City Hall contesting the downtown zone.
func DefaultSessionConfig() SessionConfig {
	return SessionConfig{
		Mode:               ModeSimulated,
		Start:              geo.Coordinate{Lat: 37.5665, Lng: 126.9780},
		GhostStart:         geo.Coordinate{Lat: 37.5655, Lng: 126.9770},
		Zone:               geo.RectZone("ZONE_01_SEOUL_HALL", "City Hall", 37.5670, 37.5690, 126.9790, 126.9820),
		Pacing:             DefaultPacingConfig(),
		InitialGhostSpeed:  4.5,
		InitialRivalGap:    150,
		SpeedDecay:         0.98,
		PathThrottleMeters: 0.5,
		UnderAttackRadius:  20,
		SprintSpeed:        5.0,
	}
}

// Session is the race state machine for one run. It is single-writer by
// design: exactly one driver (the simulation ticker or the GPS callback
// chain) mutates it at a time, so it carries no locks of its own.
type Session struct {
	ID     string
	UserID string

	cfg    SessionConfig
	pacing *Pacing
	guard  *Guard
	sink   EventSink

	playing  bool
	realMode bool

	userPos  geo.Coordinate
	ghostPos geo.Coordinate

	userSpeed  float64
	ghostSpeed float64
	distance   float64
	rivalGap   float64

	pathHistory  []geo.Coordinate
	inZone       bool
	justBreached bool
	underAttack  bool

	runners []models.RemoteRunner
}

// NewSession builds a session in the IDLE state with fresh accumulators.
func NewSession(id, userID string, cfg SessionConfig) *Session {
	def := DefaultSessionConfig()
	if cfg.Mode == "" {
		cfg.Mode = def.Mode
	}
	if cfg.Start == (geo.Coordinate{}) {
		cfg.Start = def.Start
	}
	if cfg.GhostStart == (geo.Coordinate{}) {
		// Spawn the ghost a block behind the user.
		cfg.GhostStart = geo.Coordinate{Lat: cfg.Start.Lat - 0.001, Lng: cfg.Start.Lng - 0.001}
	}
	if cfg.Zone == nil {
		cfg.Zone = def.Zone
	}
	if cfg.Pacing == (PacingConfig{}) {
		cfg.Pacing = def.Pacing
	}
	if cfg.InitialGhostSpeed == 0 {
		cfg.InitialGhostSpeed = def.InitialGhostSpeed
	}
	if cfg.InitialRivalGap == 0 {
		cfg.InitialRivalGap = def.InitialRivalGap
	}
	if cfg.SpeedDecay == 0 {
		cfg.SpeedDecay = def.SpeedDecay
	}
	if cfg.PathThrottleMeters == 0 {
		cfg.PathThrottleMeters = def.PathThrottleMeters
	}
	if cfg.UnderAttackRadius == 0 {
		cfg.UnderAttackRadius = def.UnderAttackRadius
	}
	if cfg.SprintSpeed == 0 {
		cfg.SprintSpeed = def.SprintSpeed
	}

	return &Session{
		ID:         id,
		UserID:     userID,
		cfg:        cfg,
		pacing:     NewPacing(cfg.Pacing),
		guard:      NewGuard(cfg.GuardSpeedLimit, cfg.GuardSustainedChecks),
		sink:       NopSink{},
		realMode:   cfg.Mode == ModeReal,
		userPos:    cfg.Start,
		ghostPos:   cfg.GhostStart,
		ghostSpeed: cfg.InitialGhostSpeed,
		rivalGap:   cfg.InitialRivalGap,
	}
}

// SetSink installs the event sink. Must be called before Start; defaults to
// a no-op sink.
func (s *Session) SetSink(sink EventSink) {
	if sink != nil {
		s.sink = sink
	}
}

// Start transitions to PLAYING. Accumulated distance and path survive so a
// stopped run can resume; callers wanting a brand-new run create a new
// session.
func (s *Session) Start() {
	if s.playing {
		return
	}
	s.playing = true
	s.sink.Notify(EventRaceStart, nil)
}

// Stop transitions to IDLE and zeroes the user's speed. Distance and path
// history stay intact for the post-run summary. Cancelling the position
// source is the driver's job.
func (s *Session) Stop() {
	s.playing = false
	s.userSpeed = 0
}

// Playing reports whether the session is in the PLAYING state.
func (s *Session) Playing() bool {
	return s.playing
}

// Tick advances the simulation by dt seconds. No-op unless PLAYING. In real
// mode only the ghost advances here; user movement arrives through
// UpdateRealPosition.
func (s *Session) Tick(dt float64) {
	if !s.playing {
		return
	}

	// 1. Rival pacing: advance the ghost toward the user.
	s.ghostPos, s.ghostSpeed, s.rivalGap = s.pacing.Advance(
		s.userPos, s.ghostPos, s.userSpeed, s.ghostSpeed, s.rivalGap, dt)

	// 2. Simulated-mode stamina decay and breadcrumb sampling.
	if !s.realMode {
		s.userSpeed *= s.cfg.SpeedDecay
		if s.movedSinceLastSample() {
			s.pathHistory = append(s.pathHistory, s.userPos)
		}
	}

	// 3. Plausibility guard on the resulting speed.
	if s.guard.Check(s.userSpeed) {
		s.sink.Notify(EventSpeedFlag, map[string]string{"user": s.UserID})
	}

	// 4. Zone membership, edge-triggered breach.
	nowInZone := s.cfg.Zone.Contains(s.userPos)
	s.justBreached = nowInZone && !s.inZone
	s.inZone = nowInZone
	if s.justBreached {
		s.sink.Notify(EventZoneBreached, map[string]string{"zone": s.cfg.Zone.Name})
	}

	// 5. Proximity alarm.
	nearby := geo.DistanceMeters(s.userPos, s.ghostPos) < s.cfg.UnderAttackRadius
	if nearby && !s.underAttack {
		s.sink.Notify(EventOvertakeWarning, nil)
	}
	s.underAttack = nearby
}

func (s *Session) movedSinceLastSample() bool {
	if len(s.pathHistory) == 0 {
		return true
	}
	last := s.pathHistory[len(s.pathHistory)-1]
	return geo.DistanceMeters(last, s.userPos) > s.cfg.PathThrottleMeters
}

// UpdateRealPosition ingests one real-GPS fix. The fix is appended to the
// path unconditionally: real sources are already rate-limited upstream.
// A nil speed keeps the previous value, since not every platform reports
// instantaneous speed.
func (s *Session) UpdateRealPosition(lat, lng float64, speed *float64) {
	if !s.playing {
		return
	}

	newPos := geo.Coordinate{Lat: lat, Lng: lng}
	s.distance += geo.DistanceMeters(s.userPos, newPos)
	s.userPos = newPos
	s.pathHistory = append(s.pathHistory, newPos)
	if speed != nil {
		s.userSpeed = *speed
	}
}

// MoveTo is the tap-to-move affordance: an instantaneous teleport to the
// target at sprint speed. Physically plausible manual control would instead
// set a target and let Tick interpolate toward it at a capped speed; the
// snap is kept for parity with the shipped client behavior.
func (s *Session) MoveTo(target geo.Coordinate) {
	if !s.playing {
		return
	}
	s.distance += geo.DistanceMeters(s.userPos, target)
	s.userPos = target
	s.userSpeed = s.cfg.SprintSpeed
}

// SyncRemoteRunners replaces the visible set of other live players with the
// latest snapshot. Full replace each cycle; the presence layer owns merge
// semantics.
func (s *Session) SyncRemoteRunners(runners []models.RemoteRunner) {
	s.runners = runners
}

// Snapshot returns the externally visible state.
func (s *Session) Snapshot() models.SessionSnapshot {
	runners := make([]models.RemoteRunner, len(s.runners))
	copy(runners, s.runners)

	return models.SessionSnapshot{
		ID:           s.ID,
		UserID:       s.UserID,
		Playing:      s.playing,
		RealMode:     s.realMode,
		UserPos:      s.userPos,
		GhostPos:     s.ghostPos,
		UserSpeed:    s.userSpeed,
		GhostSpeed:   s.ghostSpeed,
		Distance:     s.distance,
		RivalGap:     s.rivalGap,
		InZone:       s.inZone,
		JustBreached: s.justBreached,
		UnderAttack:  s.underAttack,
		PathLength:   len(s.pathHistory),
		SpeedFlags:   s.guard.Flags(),
		Runners:      runners,
	}
}

// SetUserSpeed sets the simulated user's speed directly. Used by the local
// simulation tool; real sessions take speed from GPS fixes.
func (s *Session) SetUserSpeed(speed float64) {
	s.userSpeed = speed
}
