// Package profile is the opaque key-value profile store. The race and
// territory logic never look inside it; the HTTP layer reads it at session
// start (home point, privacy flag) and writes it on onboarding updates.
package profile

import (
	"context"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"

	"github.com/gridrun/race-api/internal/geo"
)

// RedisClient is the slice of redis.Client the store needs.
type RedisClient interface {
	HSet(ctx context.Context, key string, values ...interface{}) *redis.IntCmd
	HGetAll(ctx context.Context, key string) *redis.MapStringStringCmd
}

// Profile holds a user's onboarding fields.
type Profile struct {
	UserID             string   `json:"user_id"`
	Nickname           string   `json:"nickname"`
	Faction            string   `json:"faction"`
	HomeLat            *float64 `json:"home_lat,omitempty"`
	HomeLng            *float64 `json:"home_lng,omitempty"`
	PrivacyEnabled     bool     `json:"privacy_enabled"`
	OnboardingComplete bool     `json:"onboarding_complete"`
}

// Home returns the configured home point, or nil when onboarding never set
// one.
func (p *Profile) Home() *geo.Coordinate {
	if p.HomeLat == nil || p.HomeLng == nil {
		return nil
	}
	return &geo.Coordinate{Lat: *p.HomeLat, Lng: *p.HomeLng}
}

// Store keeps profiles in Redis hashes, one per user.
type Store struct {
	redis RedisClient
}

// NewStore wraps a Redis client.
func NewStore(rdb RedisClient) *Store {
	return &Store{redis: rdb}
}

func key(userID string) string {
	return "profile:" + userID
}

// Set writes all profile fields.
func (s *Store) Set(ctx context.Context, p *Profile) error {
	fields := []interface{}{
		"nickname", p.Nickname,
		"faction", p.Faction,
		"privacy_enabled", strconv.FormatBool(p.PrivacyEnabled),
		"onboarding_complete", strconv.FormatBool(p.OnboardingComplete),
	}
	if p.HomeLat != nil && p.HomeLng != nil {
		fields = append(fields,
			"home_lat", strconv.FormatFloat(*p.HomeLat, 'f', -1, 64),
			"home_lng", strconv.FormatFloat(*p.HomeLng, 'f', -1, 64),
		)
	}

	if err := s.redis.HSet(ctx, key(p.UserID), fields...).Err(); err != nil {
		return fmt.Errorf("set profile %s: %w", p.UserID, err)
	}
	return nil
}

// Get reads a profile. A user with no stored fields comes back as a zero
// profile with OnboardingComplete false.
func (s *Store) Get(ctx context.Context, userID string) (*Profile, error) {
	raw, err := s.redis.HGetAll(ctx, key(userID)).Result()
	if err != nil {
		return nil, fmt.Errorf("get profile %s: %w", userID, err)
	}

	p := &Profile{UserID: userID}
	p.Nickname = raw["nickname"]
	p.Faction = raw["faction"]
	p.PrivacyEnabled = raw["privacy_enabled"] == "true"
	p.OnboardingComplete = raw["onboarding_complete"] == "true"

	if latStr, ok := raw["home_lat"]; ok {
		if lat, err := strconv.ParseFloat(latStr, 64); err == nil {
			p.HomeLat = &lat
		}
	}
	if lngStr, ok := raw["home_lng"]; ok {
		if lng, err := strconv.ParseFloat(lngStr, 64); err == nil {
			p.HomeLng = &lng
		}
	}
	return p, nil
}
