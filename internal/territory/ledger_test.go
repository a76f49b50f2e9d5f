package territory

import (
	"testing"
	"time"
)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func newTestLedger(now time.Time) *Ledger {
	return NewLedger(LedgerConfig{
		ZoneID:      "ZONE_01_SEOUL_HALL",
		Owner:       FactionRose,
		UserFaction: FactionNeon,
		Location:    time.UTC,
		Now:         fixedClock(now),
		TaxDraw:     func(max int) int { return 1540 },
	})
}

func TestLeadingFactionStrictMax(t *testing.T) {
	l := newTestLedger(time.Date(2026, 8, 29, 10, 0, 0, 0, time.UTC))

	if err := l.AddScore(FactionNeon, 100); err != nil {
		t.Fatalf("AddScore: %v", err)
	}
	if got := l.State().Leading; got != FactionNeon {
		t.Errorf("leading = %q, want NEON", got)
	}

	// Exact tie clears the leader.
	if err := l.AddScore(FactionRose, 100); err != nil {
		t.Fatalf("AddScore: %v", err)
	}
	if got := l.State().Leading; got != FactionNone {
		t.Errorf("leading = %q on exact tie, want none", got)
	}

	// One more point breaks the tie.
	l.AddScore(FactionNeon, 1)
	if got := l.State().Leading; got != FactionNeon {
		t.Errorf("leading = %q, want NEON", got)
	}
}

func TestAddScoreRejectsBadInput(t *testing.T) {
	l := newTestLedger(time.Date(2026, 8, 29, 10, 0, 0, 0, time.UTC))

	if err := l.AddScore(FactionNeon, -5); err == nil {
		t.Error("negative contribution accepted")
	}
	if err := l.AddScore(Faction("AZURE"), 10); err == nil {
		t.Error("unknown faction accepted")
	}
	if s := l.State().Scores[FactionNeon]; s != 0 {
		t.Errorf("score mutated by rejected input: %v", s)
	}
}

func TestCheckTimeOvertimeWindow(t *testing.T) {
	for hour, want := range map[int]bool{10: false, 22: false, 23: true, 0: false} {
		l := newTestLedger(time.Date(2026, 8, 29, hour, 30, 0, 0, time.UTC))
		l.CheckTime()
		l.CheckTime() // idempotent
		if got := l.State().IsOvertime; got != want {
			t.Errorf("hour %d: overtime = %v, want %v", hour, got, want)
		}
	}
}

func TestRolloverWinner(t *testing.T) {
	l := newTestLedger(time.Date(2026, 8, 29, 10, 0, 0, 0, time.UTC))
	l.AddScore(FactionNeon, 500)
	l.AddScore(FactionRose, 300)

	prevEnd := l.State().CycleEnd
	settlement := l.Rollover()

	if settlement.Winner != FactionNeon {
		t.Errorf("winner = %q, want NEON", settlement.Winner)
	}
	if settlement.Neon != 500 || settlement.Rose != 300 {
		t.Errorf("settlement scores = %v/%v, want 500/300", settlement.Neon, settlement.Rose)
	}

	state := l.State()
	if state.OwnerFaction != FactionNeon {
		t.Errorf("owner = %q after rollover, want NEON", state.OwnerFaction)
	}
	if state.Scores[FactionNeon] != 0 || state.Scores[FactionRose] != 0 {
		t.Errorf("scores not reset: %v", state.Scores)
	}
	if state.Leading != FactionNone {
		t.Errorf("leading = %q after rollover, want none", state.Leading)
	}
	if got := state.CycleEnd.Sub(prevEnd); got != 24*time.Hour {
		t.Errorf("cycle end advanced by %v, want exactly 24h", got)
	}

	if state.DailyReport == nil {
		t.Fatal("no daily report after rollover")
	}
	if state.DailyReport.Result != ResultWin {
		t.Errorf("report result = %q for NEON user, want WIN", state.DailyReport.Result)
	}
	if state.DailyReport.TaxCollected != 1540 {
		t.Errorf("tax = %d, want 1540 from the stubbed draw", state.DailyReport.TaxCollected)
	}
}

func TestRolloverLossCollectsNoTax(t *testing.T) {
	l := newTestLedger(time.Date(2026, 8, 29, 10, 0, 0, 0, time.UTC))
	l.AddScore(FactionRose, 800)
	l.AddScore(FactionNeon, 100)

	settlement := l.Rollover()
	if settlement.Winner != FactionRose {
		t.Fatalf("winner = %q, want ROSE", settlement.Winner)
	}
	if settlement.Tax != 0 {
		t.Errorf("tax = %d on a loss, want 0", settlement.Tax)
	}
	report := l.State().DailyReport
	if report.Result != ResultLoss {
		t.Errorf("report result = %q, want LOSS", report.Result)
	}
}

func TestRolloverDrawKeepsOwner(t *testing.T) {
	l := newTestLedger(time.Date(2026, 8, 29, 10, 0, 0, 0, time.UTC))
	l.AddScore(FactionNeon, 250)
	l.AddScore(FactionRose, 250)

	settlement := l.Rollover()
	if settlement.Winner != FactionNone {
		t.Errorf("winner = %q on exact tie, want none", settlement.Winner)
	}

	state := l.State()
	if state.OwnerFaction != FactionRose {
		t.Errorf("owner = %q after draw, want unchanged ROSE", state.OwnerFaction)
	}
	if state.DailyReport.Result != ResultDraw {
		t.Errorf("report result = %q, want DRAW", state.DailyReport.Result)
	}
	if state.DailyReport.TaxCollected != 0 {
		t.Errorf("tax = %d on a draw, want 0", state.DailyReport.TaxCollected)
	}
}

func TestCloseReport(t *testing.T) {
	l := newTestLedger(time.Date(2026, 8, 29, 10, 0, 0, 0, time.UTC))
	l.AddScore(FactionNeon, 10)
	l.Rollover()

	if l.State().DailyReport == nil {
		t.Fatal("expected a report after rollover")
	}
	l.CloseReport()
	if l.State().DailyReport != nil {
		t.Error("report survived CloseReport")
	}
}

func TestInitialCycleEndIsNextMidnight(t *testing.T) {
	now := time.Date(2026, 8, 29, 15, 42, 7, 0, time.UTC)
	l := newTestLedger(now)

	want := time.Date(2026, 8, 30, 0, 0, 0, 0, time.UTC)
	if got := l.State().CycleEnd; !got.Equal(want) {
		t.Errorf("cycle end = %v, want %v", got, want)
	}
}
