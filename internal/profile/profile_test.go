package profile

import (
	"context"
	"testing"

	"github.com/redis/go-redis/v9"
)

type mockRedis struct {
	hashes map[string]map[string]string
}

func (m *mockRedis) HSet(ctx context.Context, key string, values ...interface{}) *redis.IntCmd {
	if m.hashes == nil {
		m.hashes = map[string]map[string]string{}
	}
	if m.hashes[key] == nil {
		m.hashes[key] = map[string]string{}
	}
	for i := 0; i+1 < len(values); i += 2 {
		m.hashes[key][values[i].(string)] = values[i+1].(string)
	}
	return redis.NewIntResult(1, nil)
}

func (m *mockRedis) HGetAll(ctx context.Context, key string) *redis.MapStringStringCmd {
	return redis.NewMapStringStringResult(m.hashes[key], nil)
}

func TestProfileRoundTrip(t *testing.T) {
	store := NewStore(&mockRedis{})
	ctx := context.Background()

	lat, lng := 37.5665, 126.9780
	in := &Profile{
		UserID:             "u1",
		Nickname:           "neon_runner",
		Faction:            "NEON",
		HomeLat:            &lat,
		HomeLng:            &lng,
		PrivacyEnabled:     true,
		OnboardingComplete: true,
	}
	if err := store.Set(ctx, in); err != nil {
		t.Fatalf("Set: %v", err)
	}

	out, err := store.Get(ctx, "u1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if out.Nickname != "neon_runner" || out.Faction != "NEON" {
		t.Errorf("got %+v", out)
	}
	if !out.PrivacyEnabled || !out.OnboardingComplete {
		t.Errorf("flags lost in round trip: %+v", out)
	}
	home := out.Home()
	if home == nil || home.Lat != lat || home.Lng != lng {
		t.Errorf("home = %+v, want {%v %v}", home, lat, lng)
	}
}

func TestUnknownUserIsZeroProfile(t *testing.T) {
	store := NewStore(&mockRedis{})

	p, err := store.Get(context.Background(), "nobody")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if p.OnboardingComplete {
		t.Error("unknown user reported as onboarded")
	}
	if p.Home() != nil {
		t.Errorf("unknown user has a home point: %+v", p.Home())
	}
}
