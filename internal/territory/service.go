package territory

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Store persists settlements. Implemented by SettlementStore; mocked in
// tests.
type Store interface {
	Record(ctx context.Context, st Settlement) error
	History(ctx context.Context, zoneID string, limit int) ([]Settlement, error)
}

// Service guards the ledger for concurrent HTTP callers and attaches
// persistence. The ledger itself stays pure and unsynchronized.
type Service struct {
	mu     sync.Mutex
	ledger *Ledger
	store  Store
	logger *zap.SugaredLogger
}

// NewService wraps a ledger.
func NewService(ledger *Ledger, store Store, logger *zap.Logger) *Service {
	return &Service{
		ledger: ledger,
		store:  store,
		logger: logger.Sugar(),
	}
}

// State returns the current ledger state, refreshing the overtime flag.
func (s *Service) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ledger.CheckTime()
	return s.ledger.State()
}

// AddScore adds a gameplay contribution.
func (s *Service) AddScore(f Faction, amount float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ledger.AddScore(f, amount)
}

// Rollover settles the current cycle and records the settlement. A failed
// write is logged but never blocks the rollover: the ledger is
// authoritative for local progress.
func (s *Service) Rollover(ctx context.Context) Settlement {
	s.mu.Lock()
	settlement := s.ledger.Rollover()
	s.mu.Unlock()

	s.logger.Infow("cycle settled",
		"zone", settlement.ZoneID,
		"winner", settlement.Winner,
		"neon", settlement.Neon,
		"rose", settlement.Rose,
		"tax", settlement.Tax,
	)

	if s.store != nil {
		if err := s.store.Record(ctx, settlement); err != nil {
			s.logger.Errorw("failed to persist settlement", "zone", settlement.ZoneID, "error", err)
		}
	}
	return settlement
}

// CloseReport acknowledges the daily report.
func (s *Service) CloseReport() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ledger.CloseReport()
}

// History returns recent settlements for the zone.
func (s *Service) History(ctx context.Context, limit int) ([]Settlement, error) {
	s.mu.Lock()
	zoneID := s.ledger.zoneID
	s.mu.Unlock()

	if s.store == nil {
		return nil, nil
	}
	return s.store.History(ctx, zoneID, limit)
}

// RunScheduler triggers rollovers at each cycle boundary and refreshes the
// overtime flag once a minute. Blocks until ctx is canceled.
func (s *Service) RunScheduler(ctx context.Context) {
	minute := time.NewTicker(time.Minute)
	defer minute.Stop()

	for {
		s.mu.Lock()
		s.ledger.CheckTime()
		wait := time.Until(s.ledger.cycleEnd)
		s.mu.Unlock()

		if wait < 0 {
			wait = 0
		}

		rollover := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			rollover.Stop()
			return
		case <-rollover.C:
			s.Rollover(ctx)
		case <-minute.C:
			rollover.Stop()
		}
	}
}
