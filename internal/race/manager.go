package race

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrSessionNotFound is returned for unknown session ids.
var ErrSessionNotFound = errors.New("race: session not found")

// Manager hosts the active session drivers, keyed by session id. The map is
// the only shared structure; each session stays single-writer behind its
// driver.
type Manager struct {
	mu       sync.RWMutex
	drivers  map[string]*Driver
	interval time.Duration
	logger   *zap.Logger
}

// NewManager creates a session manager with the given simulated tick
// cadence.
func NewManager(interval time.Duration, logger *zap.Logger) *Manager {
	return &Manager{
		drivers:  make(map[string]*Driver),
		interval: interval,
		logger:   logger,
	}
}

// Create builds a new session, installs the sink, and starts its driver.
// It returns the generated session id.
func (m *Manager) Create(ctx context.Context, userID string, cfg SessionConfig, sink EventSink) string {
	id := uuid.NewString()
	session := NewSession(id, userID, cfg)
	session.SetSink(sink)

	driver := NewDriver(session, m.interval, m.logger)

	m.mu.Lock()
	m.drivers[id] = driver
	m.mu.Unlock()

	driver.Start(ctx)
	return id
}

// Get returns the driver for a session id.
func (m *Manager) Get(id string) (*Driver, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	d, ok := m.drivers[id]
	return d, ok
}

// Stop shuts down a session's driver. The driver stays registered so the
// post-run summary remains readable until the manager itself shuts down.
func (m *Manager) Stop(id string) error {
	d, ok := m.Get(id)
	if !ok {
		return ErrSessionNotFound
	}
	d.Stop()
	return nil
}

// Shutdown stops every active driver.
func (m *Manager) Shutdown() {
	m.mu.Lock()
	drivers := make([]*Driver, 0, len(m.drivers))
	for _, d := range m.drivers {
		drivers = append(drivers, d)
	}
	m.mu.Unlock()

	for _, d := range drivers {
		d.Stop()
	}
}
