// Package worker implements the buffered worker pool for async telemetry
// processing. It decouples HTTP ingest from ClickHouse writes, providing
// backpressure via load shedding, batched inserts, and graceful shutdown
// with flush guarantees.
package worker

import (
	"context"
	"sync"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"

	"github.com/gridrun/race-api/internal/models"
)

// Prometheus metrics
var (
	samplesIngested = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gridrun_samples_ingested_total",
		Help: "Total number of position samples accepted into the queue",
	})

	samplesProcessed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gridrun_samples_processed_total",
		Help: "Total number of position samples written to ClickHouse",
	})

	samplesFailed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gridrun_samples_failed_total",
		Help: "Total number of position samples that failed processing",
	})

	samplesLoadShed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gridrun_samples_load_shed_total",
		Help: "Total number of position samples dropped due to load shedding",
	})

	queueDepth = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "gridrun_worker_queue_depth",
		Help: "Current depth of the telemetry worker queue",
	})

	batchInsertDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "gridrun_batch_insert_duration_seconds",
		Help:    "Duration of batch inserts to ClickHouse",
		Buckets: prometheus.DefBuckets,
	})

	speedFlags = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gridrun_speed_flags_total",
		Help: "Total number of samples carrying a plausibility-guard flag",
	})
)

// Job is one queued telemetry sample.
type Job struct {
	Sample     *models.PositionSample
	ReceivedAt time.Time
}

// PoolConfig configures the worker pool.
type PoolConfig struct {
	WorkerCount   int
	QueueSize     int
	BatchSize     int
	FlushInterval time.Duration
	ClickHouse    driver.Conn
	Logger        *zap.Logger
}

// Pool manages the telemetry workers.
type Pool struct {
	config   PoolConfig
	jobQueue chan Job
	wg       sync.WaitGroup
	ctx      context.Context
	cancel   context.CancelFunc
	logger   *zap.SugaredLogger
}

// NewPool creates a worker pool.
func NewPool(cfg PoolConfig) *Pool {
	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = 4
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 10000
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 500
	}
	if cfg.FlushInterval <= 0 {
		cfg.FlushInterval = time.Second
	}

	return &Pool{
		config:   cfg,
		jobQueue: make(chan Job, cfg.QueueSize),
		logger:   cfg.Logger.Sugar(),
	}
}

// Start launches the worker goroutines.
func (p *Pool) Start(ctx context.Context) {
	p.ctx, p.cancel = context.WithCancel(ctx)

	for i := 0; i < p.config.WorkerCount; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}

	go p.reportQueueDepth()

	p.logger.Infow("telemetry pool started",
		"workers", p.config.WorkerCount,
		"queueSize", p.config.QueueSize,
		"batchSize", p.config.BatchSize,
	)
}

// Stop gracefully shuts down the pool, flushing queued samples.
func (p *Pool) Stop() {
	p.logger.Info("stopping telemetry pool")
	p.cancel()
	close(p.jobQueue)
	p.wg.Wait()
	p.logger.Info("telemetry pool stopped")
}

// Enqueue adds a sample to the queue. Returns false immediately when the
// queue is full (load shedding) or the pool has stopped.
func (p *Pool) Enqueue(sample *models.PositionSample) bool {
	if sample.Timestamp.IsZero() {
		sample.Timestamp = time.Now().UTC()
	}

	// Protect against sending on a closed channel during shutdown.
	enqueued := false
	defer func() {
		if r := recover(); r != nil {
			p.logger.Warnw("failed to enqueue sample (pool stopped)", "error", r)
		}
	}()

	select {
	case p.jobQueue <- Job{Sample: sample, ReceivedAt: time.Now()}:
		enqueued = true
	default:
		samplesLoadShed.Inc()
		return false
	}

	samplesIngested.Inc()
	if sample.Flagged {
		speedFlags.Inc()
	}
	return enqueued
}

// QueueDepth returns the current queue size.
func (p *Pool) QueueDepth() int {
	return len(p.jobQueue)
}

func (p *Pool) reportQueueDepth() {
	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-p.ctx.Done():
			return
		case <-ticker.C:
			queueDepth.Set(float64(len(p.jobQueue)))
		}
	}
}

// worker drains the queue in batches.
func (p *Pool) worker(id int) {
	defer p.wg.Done()

	batch := make([]Job, 0, p.config.BatchSize)
	ticker := time.NewTicker(p.config.FlushInterval)
	defer ticker.Stop()

	flush := func() {
		if len(batch) == 0 {
			return
		}

		start := time.Now()
		if err := p.processBatch(batch); err != nil {
			p.logger.Errorw("batch insert failed",
				"worker", id,
				"batchSize", len(batch),
				"error", err,
			)
			samplesFailed.Add(float64(len(batch)))
		} else {
			samplesProcessed.Add(float64(len(batch)))
		}
		batchInsertDuration.Observe(time.Since(start).Seconds())

		batch = batch[:0]
	}

	for {
		select {
		case job, ok := <-p.jobQueue:
			if !ok {
				flush()
				return
			}
			batch = append(batch, job)
			if len(batch) >= p.config.BatchSize {
				flush()
			}

		case <-ticker.C:
			flush()

		case <-p.ctx.Done():
			flush()
			return
		}
	}
}

// processBatch writes a batch of samples to ClickHouse.
func (p *Pool) processBatch(batch []Job) error {
	ctx := context.Background()

	chBatch, err := p.config.ClickHouse.PrepareBatch(ctx, `
		INSERT INTO gridrun.position_samples (
			ts, session_id, user_id, lat, lng, speed, has_speed, flagged
		)
	`)
	if err != nil {
		return err
	}

	for _, job := range batch {
		s := job.Sample

		speed := 0.0
		hasSpeed := uint8(0)
		if s.Speed != nil {
			speed = *s.Speed
			hasSpeed = 1
		}
		flagged := uint8(0)
		if s.Flagged {
			flagged = 1
		}

		ts := s.Timestamp
		if ts.IsZero() {
			ts = job.ReceivedAt
		}

		if err := chBatch.Append(
			ts,
			s.SessionID,
			s.UserID,
			s.Lat,
			s.Lng,
			speed,
			hasSpeed,
			flagged,
		); err != nil {
			p.logger.Warnw("failed to append sample to batch", "error", err, "session", s.SessionID)
			continue
		}
	}

	return chBatch.Send()
}
