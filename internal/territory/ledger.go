// Package territory implements the dominance ledger: per-faction scoring
// within a daily cycle and the midnight settlement that resolves zone
// ownership.
package territory

import (
	"fmt"
	"math/rand/v2"
	"time"
)

// Faction is one of the two sides contesting a zone.
type Faction string

const (
	FactionNeon Faction = "NEON"
	FactionRose Faction = "ROSE"
	// FactionNone marks an unowned zone or an exact tie.
	FactionNone Faction = ""
)

// Valid reports whether f names a real faction.
func (f Faction) Valid() bool {
	return f == FactionNeon || f == FactionRose
}

// Result is a settlement outcome from the user's perspective.
type Result string

const (
	ResultWin  Result = "WIN"
	ResultLoss Result = "LOSS"
	ResultDraw Result = "DRAW"
)

// DailyReport is the ephemeral settlement notice shown at cycle rollover
// and cleared on acknowledgment.
type DailyReport struct {
	Show         bool   `json:"show"`
	Result       Result `json:"result"`
	TaxCollected int    `json:"tax_collected"`
}

// Settlement records one completed cycle.
type Settlement struct {
	ZoneID   string    `json:"zone_id"`
	Winner   Faction   `json:"winner"` // FactionNone on a draw
	Neon     float64   `json:"neon_score"`
	Rose     float64   `json:"rose_score"`
	Tax      int       `json:"tax_collected"`
	CycleEnd time.Time `json:"cycle_end"`
}

// State is the externally visible ledger state.
type State struct {
	ZoneID       string              `json:"zone_id"`
	OwnerFaction Faction             `json:"owner_faction"`
	Leading      Faction             `json:"leading_faction"`
	Scores       map[Faction]float64 `json:"dominance_score"`
	CycleEnd     time.Time           `json:"cycle_end_time"`
	IsOvertime   bool                `json:"is_overtime"`
	DailyReport  *DailyReport        `json:"daily_report,omitempty"`
}

// LedgerConfig configures a zone's ledger.
type LedgerConfig struct {
	ZoneID string
	// Owner is the faction holding the zone from the last completed cycle.
	Owner Faction
	// UserFaction sets the perspective of daily reports.
	UserFaction Faction
	// Location is the zone's time zone for overtime and midnight math.
	// Defaults to the server's local zone.
	Location *time.Location
	// MaxTax bounds the randomized tax collected on a win.
	MaxTax int
	// Now overrides the clock, for tests.
	Now func() time.Time
	// TaxDraw overrides the tax randomizer, for tests.
	TaxDraw func(max int) int
}

// Ledger accumulates dominance scores for one zone within the current
// cycle. It is not synchronized; Service wraps it for concurrent callers.
type Ledger struct {
	zoneID      string
	owner       Faction
	leading     Faction
	scores      map[Faction]float64
	cycleEnd    time.Time
	overtime    bool
	report      *DailyReport
	userFaction Faction
	maxTax      int
	loc         *time.Location
	now         func() time.Time
	taxDraw     func(max int) int
}

// NewLedger builds a ledger with scores at zero and the cycle ending at the
// next local midnight.
func NewLedger(cfg LedgerConfig) *Ledger {
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.TaxDraw == nil {
		cfg.TaxDraw = rand.IntN
	}
	if cfg.MaxTax <= 0 {
		cfg.MaxTax = 2000
	}
	if cfg.UserFaction == FactionNone {
		cfg.UserFaction = FactionNeon
	}

	l := &Ledger{
		zoneID:      cfg.ZoneID,
		owner:       cfg.Owner,
		scores:      map[Faction]float64{FactionNeon: 0, FactionRose: 0},
		userFaction: cfg.UserFaction,
		maxTax:      cfg.MaxTax,
		loc:         cfg.Location,
		now:         cfg.Now,
		taxDraw:     cfg.TaxDraw,
	}
	l.cycleEnd = nextMidnight(l.now().In(l.loc))
	return l
}

func nextMidnight(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d+1, 0, 0, 0, 0, t.Location())
}

// AddScore adds dominance points for a faction and recomputes the leader.
// Scores only ever grow within a cycle; negative amounts are rejected.
func (l *Ledger) AddScore(f Faction, amount float64) error {
	if !f.Valid() {
		return fmt.Errorf("territory: unknown faction %q", f)
	}
	if amount < 0 {
		return fmt.Errorf("territory: negative score contribution %v", amount)
	}

	l.scores[f] += amount

	switch {
	case l.scores[FactionNeon] > l.scores[FactionRose]:
		l.leading = FactionNeon
	case l.scores[FactionRose] > l.scores[FactionNeon]:
		l.leading = FactionRose
	default:
		l.leading = FactionNone
	}
	return nil
}

// CheckTime recomputes the overtime flag: true during the final hour of the
// cycle (23:00–24:00 zone-local). Idempotent.
func (l *Ledger) CheckTime() {
	l.overtime = l.now().In(l.loc).Hour() == 23
}

// Rollover settles the cycle: the strictly higher score takes ownership, an
// exact tie is an explicit draw that leaves ownership unchanged. Scores and
// the leader reset, the cycle end advances by exactly 24 hours, and a daily
// report is produced from the user faction's perspective with a randomized
// tax on a win.
func (l *Ledger) Rollover() Settlement {
	neon, rose := l.scores[FactionNeon], l.scores[FactionRose]

	winner := FactionNone
	switch {
	case neon > rose:
		winner = FactionNeon
	case rose > neon:
		winner = FactionRose
	}

	result := ResultDraw
	tax := 0
	if winner != FactionNone {
		l.owner = winner
		if winner == l.userFaction {
			result = ResultWin
			tax = l.taxDraw(l.maxTax)
		} else {
			result = ResultLoss
		}
	}

	settlement := Settlement{
		ZoneID:   l.zoneID,
		Winner:   winner,
		Neon:     neon,
		Rose:     rose,
		Tax:      tax,
		CycleEnd: l.cycleEnd,
	}

	l.scores = map[Faction]float64{FactionNeon: 0, FactionRose: 0}
	l.leading = FactionNone
	l.cycleEnd = l.cycleEnd.Add(24 * time.Hour)
	l.report = &DailyReport{Show: true, Result: result, TaxCollected: tax}

	return settlement
}

// CloseReport clears the daily report after the user acknowledges it.
func (l *Ledger) CloseReport() {
	l.report = nil
}

// State returns a copy of the visible ledger state.
func (l *Ledger) State() State {
	scores := map[Faction]float64{
		FactionNeon: l.scores[FactionNeon],
		FactionRose: l.scores[FactionRose],
	}
	var report *DailyReport
	if l.report != nil {
		r := *l.report
		report = &r
	}
	return State{
		ZoneID:       l.zoneID,
		OwnerFaction: l.owner,
		Leading:      l.leading,
		Scores:       scores,
		CycleEnd:     l.cycleEnd,
		IsOvertime:   l.overtime,
		DailyReport:  report,
	}
}
