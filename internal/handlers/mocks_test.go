package handlers

import (
	"context"
	"sync"

	"github.com/gridrun/race-api/internal/geo"
	"github.com/gridrun/race-api/internal/models"
	"github.com/gridrun/race-api/internal/profile"
)

// MockQueue records enqueued samples.
type MockQueue struct {
	mu      sync.Mutex
	Samples []*models.PositionSample
	Reject  bool
}

func (m *MockQueue) Enqueue(sample *models.PositionSample) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Reject {
		return false
	}
	m.Samples = append(m.Samples, sample)
	return true
}

func (m *MockQueue) QueueDepth() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Samples)
}

func (m *MockQueue) Count() int {
	return m.QueueDepth()
}

// MockPresence records published runners and serves a canned snapshot.
type MockPresence struct {
	mu        sync.Mutex
	Published []models.RemoteRunner
	Homes     []*geo.Coordinate
	Removed   []string
	Runners   []models.RemoteRunner
	SnapErr   error
}

func (m *MockPresence) Publish(ctx context.Context, runner models.RemoteRunner, home *geo.Coordinate) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Published = append(m.Published, runner)
	m.Homes = append(m.Homes, home)
	return nil
}

func (m *MockPresence) Snapshot(ctx context.Context) ([]models.RemoteRunner, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Runners, m.SnapErr
}

func (m *MockPresence) Remove(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Removed = append(m.Removed, id)
	return nil
}

// MockProfiles is an in-memory profile store.
type MockProfiles struct {
	mu       sync.Mutex
	Profiles map[string]*profile.Profile
}

func (m *MockProfiles) Get(ctx context.Context, userID string) (*profile.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p, ok := m.Profiles[userID]; ok {
		return p, nil
	}
	return &profile.Profile{UserID: userID}, nil
}

func (m *MockProfiles) Set(ctx context.Context, p *profile.Profile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Profiles == nil {
		m.Profiles = map[string]*profile.Profile{}
	}
	m.Profiles[p.UserID] = p
	return nil
}
