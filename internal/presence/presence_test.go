package presence

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/gridrun/race-api/internal/geo"
	"github.com/gridrun/race-api/internal/models"
)

// MockRedis implements RedisClient over an in-memory map.
type MockRedis struct {
	hashes map[string]map[string]string
}

func NewMockRedis() *MockRedis {
	return &MockRedis{hashes: map[string]map[string]string{}}
}

func (m *MockRedis) HSet(ctx context.Context, key string, values ...interface{}) *redis.IntCmd {
	if m.hashes[key] == nil {
		m.hashes[key] = map[string]string{}
	}
	for i := 0; i+1 < len(values); i += 2 {
		m.hashes[key][values[i].(string)] = values[i+1].(string)
	}
	return redis.NewIntResult(1, nil)
}

func (m *MockRedis) HDel(ctx context.Context, key string, fields ...string) *redis.IntCmd {
	for _, f := range fields {
		delete(m.hashes[key], f)
	}
	return redis.NewIntResult(int64(len(fields)), nil)
}

func (m *MockRedis) HGetAll(ctx context.Context, key string) *redis.MapStringStringCmd {
	return redis.NewMapStringStringResult(m.hashes[key], nil)
}

func TestPublishAndSnapshot(t *testing.T) {
	rdb := NewMockRedis()
	store := NewStore(rdb, 30*time.Second)
	ctx := context.Background()

	runner := models.RemoteRunner{ID: "u1", Name: "Ghost Alpha", Lat: 37.5665, Lng: 126.9780}
	if err := store.Publish(ctx, runner, nil); err != nil {
		t.Fatalf("Publish: %v", err)
	}

	runners, err := store.Snapshot(ctx)
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if len(runners) != 1 || runners[0].ID != "u1" {
		t.Fatalf("snapshot = %+v, want [u1]", runners)
	}
	if runners[0].LastUpdated == 0 {
		t.Error("LastUpdated not stamped on publish")
	}
	// No home configured: exact position passes through.
	if runners[0].Lat != 37.5665 || runners[0].Lng != 126.9780 {
		t.Errorf("position altered without a privacy zone: %+v", runners[0])
	}
}

func TestPublishFuzzesInsidePrivacyZone(t *testing.T) {
	rdb := NewMockRedis()
	store := NewStore(rdb, 30*time.Second)
	ctx := context.Background()

	home := geo.Coordinate{Lat: 37.5665, Lng: 126.9780}
	runner := models.RemoteRunner{ID: "u1", Name: "Ghost Alpha", Lat: home.Lat, Lng: home.Lng}
	if err := store.Publish(ctx, runner, &home); err != nil {
		t.Fatalf("Publish: %v", err)
	}

	var stored models.RemoteRunner
	if err := json.Unmarshal([]byte(rdb.hashes[runnersKey]["u1"]), &stored); err != nil {
		t.Fatalf("unmarshal stored runner: %v", err)
	}

	pos := geo.Coordinate{Lat: stored.Lat, Lng: stored.Lng}
	if d := geo.DistanceMeters(home, pos); d > geo.DefaultFuzzRadiusMeters {
		t.Errorf("fuzzed position %vm from home, beyond the safe-zone radius", d)
	}
	// A fuzzed point matching the input exactly is astronomically
	// unlikely; equality means fuzzing did not run.
	if pos == home {
		t.Error("position published verbatim inside the privacy zone")
	}
}

func TestPublishOutsidePrivacyZonePassesThrough(t *testing.T) {
	rdb := NewMockRedis()
	store := NewStore(rdb, 30*time.Second)

	home := geo.Coordinate{Lat: 37.5665, Lng: 126.9780}
	runner := models.RemoteRunner{ID: "u1", Lat: 37.5765, Lng: 126.9780} // ~1.1km away
	if err := store.Publish(context.Background(), runner, &home); err != nil {
		t.Fatalf("Publish: %v", err)
	}

	var stored models.RemoteRunner
	json.Unmarshal([]byte(rdb.hashes[runnersKey]["u1"]), &stored)
	if stored.Lat != runner.Lat || stored.Lng != runner.Lng {
		t.Errorf("position fuzzed outside the privacy zone: %+v", stored)
	}
}

func TestSnapshotDropsStaleRunners(t *testing.T) {
	rdb := NewMockRedis()
	store := NewStore(rdb, 30*time.Second)
	now := time.Now()
	store.now = func() time.Time { return now }

	fresh, _ := json.Marshal(models.RemoteRunner{ID: "fresh", LastUpdated: now.UnixMilli()})
	stale, _ := json.Marshal(models.RemoteRunner{ID: "stale", LastUpdated: now.Add(-time.Minute).UnixMilli()})
	rdb.HSet(context.Background(), runnersKey, "fresh", string(fresh), "stale", string(stale), "garbage", "{not json")

	runners, err := store.Snapshot(context.Background())
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if len(runners) != 1 || runners[0].ID != "fresh" {
		t.Errorf("snapshot = %+v, want only the fresh runner", runners)
	}
}

func TestRemove(t *testing.T) {
	rdb := NewMockRedis()
	store := NewStore(rdb, 30*time.Second)
	ctx := context.Background()

	store.Publish(ctx, models.RemoteRunner{ID: "u1"}, nil)
	if err := store.Remove(ctx, "u1"); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	runners, _ := store.Snapshot(ctx)
	if len(runners) != 0 {
		t.Errorf("runner still visible after Remove: %+v", runners)
	}
}
