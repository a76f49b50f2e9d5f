// Package presence is the remote-runner sync channel: live positions
// published into a Redis hash and read back as full snapshots. Remote
// runners are a cosmetic overlay: failures here are reported upstream but
// never block local session progress.
package presence

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/gridrun/race-api/internal/geo"
	"github.com/gridrun/race-api/internal/models"
)

const runnersKey = "live_runners"

// RedisClient is the slice of redis.Client the store needs.
type RedisClient interface {
	HSet(ctx context.Context, key string, values ...interface{}) *redis.IntCmd
	HDel(ctx context.Context, key string, fields ...string) *redis.IntCmd
	HGetAll(ctx context.Context, key string) *redis.MapStringStringCmd
}

// Store publishes and reads the live-runner set.
type Store struct {
	redis RedisClient
	// staleAfter drops runners whose last update is older than this.
	staleAfter time.Duration
	// privacyRadius is the safe-zone radius for location fuzzing.
	privacyRadius float64
	now           func() time.Time
}

// NewStore builds a presence store. staleAfter defaults to 30s.
func NewStore(rdb RedisClient, staleAfter time.Duration) *Store {
	if staleAfter <= 0 {
		staleAfter = 30 * time.Second
	}
	return &Store{
		redis:         rdb,
		staleAfter:    staleAfter,
		privacyRadius: geo.DefaultFuzzRadiusMeters,
		now:           time.Now,
	}
}

// Publish broadcasts a runner's position. When home is non-nil and the
// position falls inside the privacy safe zone around it, the published
// coordinate is fuzzed first; the exact location is never published.
// Best effort: callers log the error and move on.
func (s *Store) Publish(ctx context.Context, runner models.RemoteRunner, home *geo.Coordinate) error {
	pos := geo.Coordinate{Lat: runner.Lat, Lng: runner.Lng}
	if home != nil && geo.IsWithinRadius(pos, *home, s.privacyRadius) {
		fuzzed := geo.FuzzLocation(pos, s.privacyRadius)
		runner.Lat, runner.Lng = fuzzed.Lat, fuzzed.Lng
	}
	if runner.LastUpdated == 0 {
		runner.LastUpdated = s.now().UnixMilli()
	}

	payload, err := json.Marshal(runner)
	if err != nil {
		return fmt.Errorf("marshal runner: %w", err)
	}
	if err := s.redis.HSet(ctx, runnersKey, runner.ID, string(payload)).Err(); err != nil {
		return fmt.Errorf("publish runner: %w", err)
	}
	return nil
}

// Snapshot returns the current visible-runner set, dropping stale and
// malformed entries. The result replaces a session's runner list, it never
// merges into it.
func (s *Store) Snapshot(ctx context.Context) ([]models.RemoteRunner, error) {
	raw, err := s.redis.HGetAll(ctx, runnersKey).Result()
	if err != nil {
		return nil, fmt.Errorf("runner snapshot: %w", err)
	}

	cutoff := s.now().Add(-s.staleAfter).UnixMilli()
	runners := make([]models.RemoteRunner, 0, len(raw))
	for _, payload := range raw {
		var r models.RemoteRunner
		if err := json.Unmarshal([]byte(payload), &r); err != nil {
			continue
		}
		if r.LastUpdated < cutoff {
			continue
		}
		runners = append(runners, r)
	}
	return runners, nil
}

// Remove deletes a runner from the live set, typically on session stop.
func (s *Store) Remove(ctx context.Context, id string) error {
	if err := s.redis.HDel(ctx, runnersKey, id).Err(); err != nil {
		return fmt.Errorf("remove runner: %w", err)
	}
	return nil
}
