package race

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/gridrun/race-api/internal/models"
)

// ErrDriverStopped is returned when a command arrives after the driver's
// loop has shut down.
var ErrDriverStopped = errors.New("race: driver stopped")

// Driver owns one session and enforces the single-writer discipline: every
// mutation (simulation ticks, GPS fixes, manual moves, runner snapshots)
// is applied on the driver's goroutine. External inputs cross over on a
// command channel, so no stale callback can touch a stopped session.
type Driver struct {
	session  *Session
	interval time.Duration
	logger   *zap.SugaredLogger

	cmds   chan func(*Session)
	cancel context.CancelFunc
	done   chan struct{}
}

// NewDriver wraps a session. interval is the simulated tick cadence; it is
// ignored in real mode, where GPS fixes drive the session and the ticker
// only advances the ghost.
func NewDriver(s *Session, interval time.Duration, logger *zap.Logger) *Driver {
	if interval <= 0 {
		interval = 100 * time.Millisecond
	}
	return &Driver{
		session:  s,
		interval: interval,
		logger:   logger.Sugar(),
		cmds:     make(chan func(*Session), 64),
		done:     make(chan struct{}),
	}
}

// Start launches the driver loop and puts the session into PLAYING.
func (d *Driver) Start(ctx context.Context) {
	ctx, d.cancel = context.WithCancel(ctx)
	d.session.Start()
	go d.run(ctx)
	d.logger.Infow("session driver started",
		"session", d.session.ID,
		"user", d.session.UserID,
		"real_mode", d.session.realMode,
	)
}

func (d *Driver) run(ctx context.Context) {
	defer close(d.done)

	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	last := time.Now()
	for {
		select {
		case <-ctx.Done():
			d.session.Stop()
			d.logger.Infow("session driver stopped", "session", d.session.ID)
			return

		case now := <-ticker.C:
			dt := now.Sub(last).Seconds()
			last = now
			d.session.Tick(dt)

		case cmd := <-d.cmds:
			cmd(d.session)
		}
	}
}

// Stop cancels the loop and waits for it to drain. Deterministic: once Stop
// returns, no further command or tick can mutate the session.
func (d *Driver) Stop() {
	if d.cancel == nil {
		return
	}
	d.cancel()
	<-d.done
}

// Do applies fn to the session on the driver goroutine and waits for it to
// run. It returns nil only after fn has executed; a command the loop never
// got to (including one buffered right as the loop exited) reports
// ErrDriverStopped instead of silently vanishing.
func (d *Driver) Do(ctx context.Context, fn func(*Session)) error {
	applied := make(chan struct{})
	wrapped := func(s *Session) {
		fn(s)
		close(applied)
	}

	select {
	case d.cmds <- wrapped:
	case <-d.done:
		return ErrDriverStopped
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case <-applied:
		return nil
	case <-d.done:
		// The loop may have executed the command on its way out.
		select {
		case <-applied:
			return nil
		default:
			return ErrDriverStopped
		}
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Snapshot reads the session state through the driver goroutine. After the
// driver has stopped it reads the session directly, which is safe because
// nothing else can write anymore.
func (d *Driver) Snapshot(ctx context.Context) (models.SessionSnapshot, error) {
	var snap models.SessionSnapshot
	err := d.Do(ctx, func(s *Session) {
		snap = s.Snapshot()
	})
	if errors.Is(err, ErrDriverStopped) {
		return d.session.Snapshot(), nil
	}
	if err != nil {
		return models.SessionSnapshot{}, err
	}
	return snap, nil
}
