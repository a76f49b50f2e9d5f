package race

// Plausibility guard defaults. 8 m/s is ~29 km/h: beyond any sustained
// running pace, well into vehicle territory.
const (
	DefaultSpeedLimit      = 8.0
	DefaultSustainedChecks = 5
)

// Guard flags implausible sustained speed. It is advisory only: flags are
// reported and counted, the session keeps running. What happens on a flag
// (warning, invalidation, ban) belongs to an external moderation layer.
type Guard struct {
	limit     float64
	sustained int

	streak int
	flags  int
}

// NewGuard builds a guard that flags when the observed speed stays above
// limit for sustained consecutive checks. Short bursts below the sustained
// window are tolerated.
func NewGuard(limit float64, sustained int) *Guard {
	if limit <= 0 {
		limit = DefaultSpeedLimit
	}
	if sustained <= 0 {
		sustained = DefaultSustainedChecks
	}
	return &Guard{limit: limit, sustained: sustained}
}

// Check observes one speed sample and reports whether it raised a new flag.
// A flag is raised once per over-limit streak, when the streak reaches the
// sustained window.
func (g *Guard) Check(speed float64) bool {
	if speed <= g.limit {
		g.streak = 0
		return false
	}

	g.streak++
	if g.streak == g.sustained {
		g.flags++
		return true
	}
	return false
}

// Flags returns the number of flags raised so far this session.
func (g *Guard) Flags() int {
	return g.flags
}
