// Package worker provides background job processing for SkateRoute.
package worker

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/skateroute/skateroute/internal/segments"
)

// MaintenanceConfig holds configuration for the segment maintenance job.
type MaintenanceConfig struct {
	// DecayInterval is how often confidences are recomputed across the
	// whole store. Default: 5 minutes.
	DecayInterval time.Duration

	// FlushInterval is how often the store is persisted. Default: 15 minutes.
	FlushInterval time.Duration
}

// DefaultMaintenanceConfig returns the default maintenance configuration.
func DefaultMaintenanceConfig() MaintenanceConfig {
	return MaintenanceConfig{
		DecayInterval: 5 * time.Minute,
		FlushInterval: 15 * time.Minute,
	}
}

// MaintenanceJob keeps the segment store healthy: periodic confidence
// decay sweeps and periodic persistence flushes.
type MaintenanceJob struct {
	config MaintenanceConfig
	store  *segments.Store
	logger zerolog.Logger
}

// MaintenanceJobConfig holds configuration for creating a MaintenanceJob.
type MaintenanceJobConfig struct {
	Config MaintenanceConfig
	Store  *segments.Store
	Logger zerolog.Logger
}

// NewMaintenanceJob creates a new maintenance job processor.
func NewMaintenanceJob(cfg MaintenanceJobConfig) *MaintenanceJob {
	config := cfg.Config
	if config.DecayInterval <= 0 {
		config.DecayInterval = DefaultMaintenanceConfig().DecayInterval
	}
	if config.FlushInterval <= 0 {
		config.FlushInterval = DefaultMaintenanceConfig().FlushInterval
	}

	return &MaintenanceJob{
		config: config,
		store:  cfg.Store,
		logger: cfg.Logger,
	}
}

// MaintenanceResult contains the result of one maintenance pass.
type MaintenanceResult struct {
	StartTime time.Time
	Duration  time.Duration
	Entries   int
	Flushed   bool
	FlushErr  error
}

// RunOnce performs a single decay sweep and flush.
func (j *MaintenanceJob) RunOnce(ctx context.Context) *MaintenanceResult {
	start := time.Now()

	j.store.DecayAll(start)

	result := &MaintenanceResult{
		StartTime: start,
		Entries:   j.store.Len(),
	}

	if err := j.store.Flush(ctx); err != nil {
		result.FlushErr = err
		j.logger.Error().Err(err).Msg("segment flush failed")
	} else {
		result.Flushed = true
	}

	result.Duration = time.Since(start)

	j.logger.Info().
		Int("entries", result.Entries).
		Bool("flushed", result.Flushed).
		Dur("duration", result.Duration).
		Msg("segment maintenance completed")

	return result
}

// Run performs decay sweeps and flushes on their configured intervals
// until ctx is cancelled. A final flush runs on shutdown so aggregates
// survive restarts.
func (j *MaintenanceJob) Run(ctx context.Context) error {
	decayTicker := time.NewTicker(j.config.DecayInterval)
	defer decayTicker.Stop()
	flushTicker := time.NewTicker(j.config.FlushInterval)
	defer flushTicker.Stop()

	j.logger.Info().
		Dur("decay_interval", j.config.DecayInterval).
		Dur("flush_interval", j.config.FlushInterval).
		Msg("starting segment maintenance loop")

	for {
		select {
		case <-ctx.Done():
			flushCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := j.store.Flush(flushCtx); err != nil {
				j.logger.Error().Err(err).Msg("final segment flush failed")
			}
			return ctx.Err()
		case now := <-decayTicker.C:
			j.store.DecayAll(now)
		case <-flushTicker.C:
			if err := j.store.Flush(ctx); err != nil {
				j.logger.Error().Err(err).Msg("segment flush failed")
			}
		}
	}
}
