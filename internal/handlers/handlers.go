package handlers

import (
	"context"

	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/gridrun/race-api/internal/geo"
	"github.com/gridrun/race-api/internal/models"
	"github.com/gridrun/race-api/internal/profile"
	"github.com/gridrun/race-api/internal/race"
	"github.com/gridrun/race-api/internal/territory"
)

// MaxBodySize limits the size of request bodies to 1MB
const MaxBodySize = 1048576

// IngestQueue is the telemetry worker pool boundary.
type IngestQueue interface {
	Enqueue(sample *models.PositionSample) bool
	QueueDepth() int
}

// SessionHost hosts the live session drivers.
type SessionHost interface {
	Create(ctx context.Context, userID string, cfg race.SessionConfig, sink race.EventSink) string
	Get(id string) (*race.Driver, bool)
	Stop(id string) error
}

// TerritoryService is the dominance-ledger boundary.
type TerritoryService interface {
	State() territory.State
	AddScore(f territory.Faction, amount float64) error
	Rollover(ctx context.Context) territory.Settlement
	CloseReport()
	History(ctx context.Context, limit int) ([]territory.Settlement, error)
}

// PresenceStore is the remote-runner sync boundary.
type PresenceStore interface {
	Publish(ctx context.Context, runner models.RemoteRunner, home *geo.Coordinate) error
	Snapshot(ctx context.Context) ([]models.RemoteRunner, error)
	Remove(ctx context.Context, id string) error
}

// ProfileStore is the opaque key-value profile boundary.
type ProfileStore interface {
	Get(ctx context.Context, userID string) (*profile.Profile, error)
	Set(ctx context.Context, p *profile.Profile) error
}

// SinkFactory builds the per-session event sink.
type SinkFactory func(userID string) race.EventSink

type Config struct {
	WorkerPool IngestQueue
	Sessions   SessionHost
	Territory  TerritoryService
	Presence   PresenceStore
	Profiles   ProfileStore
	NewSink    SinkFactory
	Postgres   *pgxpool.Pool
	ClickHouse driver.Conn
	Redis      *redis.Client
	Logger     *zap.Logger
}

type Handler struct {
	pool      IngestQueue
	sessions  SessionHost
	territory TerritoryService
	presence  PresenceStore
	profiles  ProfileStore
	newSink   SinkFactory
	pg        *pgxpool.Pool
	ch        driver.Conn
	redis     *redis.Client
	logger    *zap.SugaredLogger
	validator *validator.Validate
}

func New(cfg Config) *Handler {
	newSink := cfg.NewSink
	if newSink == nil {
		newSink = func(string) race.EventSink { return race.NopSink{} }
	}
	return &Handler{
		pool:      cfg.WorkerPool,
		sessions:  cfg.Sessions,
		territory: cfg.Territory,
		presence:  cfg.Presence,
		profiles:  cfg.Profiles,
		newSink:   newSink,
		pg:        cfg.Postgres,
		ch:        cfg.ClickHouse,
		redis:     cfg.Redis,
		logger:    cfg.Logger.Sugar(),
		validator: validator.New(),
	}
}

// Routes mounts the API surface.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/healthz", h.Health)
	r.Get("/readyz", h.Ready)
	r.Post("/system/install", h.InstallDatabase)

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/sessions", h.CreateSession)
		r.Get("/sessions/{id}", h.GetSession)
		r.Post("/sessions/{id}/position", h.UpdatePosition)
		r.Post("/sessions/{id}/move", h.MoveSession)
		r.Post("/sessions/{id}/stop", h.StopSession)

		r.Post("/telemetry", h.IngestTelemetry)
		r.Get("/runners", h.GetRunners)

		r.Get("/territory", h.GetTerritory)
		r.Post("/territory/score", h.AddScore)
		r.Post("/territory/rollover", h.TriggerRollover)
		r.Post("/territory/report/ack", h.AckReport)
		r.Get("/territory/history", h.GetHistory)

		r.Get("/profile/{userID}", h.GetProfile)
		r.Put("/profile/{userID}", h.PutProfile)
	})

	return r
}
