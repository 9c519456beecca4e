package segments

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/skateroute/skateroute/internal/routing"
)

// StoreConfig holds configuration for the segment store.
type StoreConfig struct {
	// AlphaMin is the floor of the EMA smoothing factor. The factor
	// starts at 1 (first sample defines the mean) and shrinks as
	// 1/sampleCount down to this floor. Default: 0.05.
	AlphaMin float64

	// ConfidenceHalfLife is the recency half-life of confidence.
	// Default: 30 minutes.
	ConfidenceHalfLife time.Duration

	// SaturationCount controls how fast confidence saturates with sample
	// volume: count term is n/(n+SaturationCount). Default: 3.
	SaturationCount int

	// StaleThreshold is the confidence below which an aggregate is
	// treated as stale. Stale entries are kept, not removed. Default: 0.15.
	StaleThreshold float64

	// Repository persists aggregates (optional). Without one the store
	// is purely in-memory.
	Repository Repository

	// Now is the clock used for recency math. Defaults to time.Now;
	// overridable in tests.
	Now func() time.Time

	// Logger for store operations.
	Logger zerolog.Logger
}

// Store is a concurrently-accessed map of segment aggregates with
// time-based confidence decay. Writers (the live ride loop) and readers
// (scoring, rendering) each see a consistent snapshot per call; aggregates
// are returned by value so a reader can never observe a torn update.
type Store struct {
	alphaMin        float64
	halfLife        time.Duration
	saturationCount int
	staleThreshold  float64
	repo            Repository
	now             func() time.Time
	logger          zerolog.Logger

	mu      sync.RWMutex
	entries map[Key]Aggregate
}

// NewStore creates a new segment store.
func NewStore(cfg StoreConfig) *Store {
	if cfg.AlphaMin <= 0 {
		cfg.AlphaMin = 0.05
	}
	if cfg.ConfidenceHalfLife <= 0 {
		cfg.ConfidenceHalfLife = 30 * time.Minute
	}
	if cfg.SaturationCount <= 0 {
		cfg.SaturationCount = 3
	}
	if cfg.StaleThreshold <= 0 {
		cfg.StaleThreshold = 0.15
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	return &Store{
		alphaMin:        cfg.AlphaMin,
		halfLife:        cfg.ConfidenceHalfLife,
		saturationCount: cfg.SaturationCount,
		staleThreshold:  cfg.StaleThreshold,
		repo:            cfg.Repository,
		now:             cfg.Now,
		logger:          cfg.Logger,
		entries:         make(map[Key]Aggregate),
	}
}

// Write upserts the aggregate for key with a new roughness sample.
// qualityWeight in (0,1] scales how much the sample moves the mean; a
// low-confidence match contributes less. Weights outside the range are
// clamped.
func (s *Store) Write(key Key, roughnessSample, qualityWeight float64) {
	if qualityWeight <= 0 {
		// A zero-quality sample carries no information; dropping it is
		// cheaper than folding in a no-op.
		return
	}
	if qualityWeight > 1 {
		qualityWeight = 1
	}

	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	agg, ok := s.entries[key]
	if !ok {
		agg = Aggregate{MeanRoughness: roughnessSample, SampleCount: 1, LastSeen: now}
		agg.Confidence = s.confidence(agg.SampleCount, 0)
		s.entries[key] = agg
		return
	}

	alpha := 1.0 / float64(agg.SampleCount+1)
	if alpha < s.alphaMin {
		alpha = s.alphaMin
	}
	alpha *= qualityWeight

	agg.MeanRoughness += alpha * (roughnessSample - agg.MeanRoughness)
	agg.SampleCount++
	agg.LastSeen = now
	agg.Confidence = s.confidence(agg.SampleCount, 0)
	s.entries[key] = agg
}

// Read returns a snapshot of the aggregate for key, recomputing its
// confidence for the current age. The second return is false if the key
// has never been written.
func (s *Store) Read(key Key) (Aggregate, bool) {
	now := s.now()

	s.mu.RLock()
	agg, ok := s.entries[key]
	s.mu.RUnlock()

	if !ok {
		return Aggregate{}, false
	}

	// Lazy decay on read keeps confidence honest between DecayAll sweeps.
	agg.Confidence = s.confidence(agg.SampleCount, now.Sub(agg.LastSeen))
	return agg, true
}

// MeanRoughness returns the mean roughness for key, or nil if the key has
// never been written or its aggregate has gone stale.
func (s *Store) MeanRoughness(key Key) *float64 {
	agg, ok := s.Read(key)
	if !ok || agg.Confidence < s.staleThreshold {
		return nil
	}
	v := agg.MeanRoughness
	return &v
}

// RouteAggregates returns the aggregates of one route keyed by step
// index, with confidence recomputed for the current age.
func (s *Store) RouteAggregates(routeID routing.RouteID) map[int]Aggregate {
	now := s.now()

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[int]Aggregate)
	for key, agg := range s.entries {
		if key.RouteID != routeID {
			continue
		}
		agg.Confidence = s.confidence(agg.SampleCount, now.Sub(agg.LastSeen))
		out[key.StepIndex] = agg
	}
	return out
}

// IsStale reports whether the aggregate for key exists but has decayed
// below the stale threshold.
func (s *Store) IsStale(key Key) bool {
	agg, ok := s.Read(key)
	return ok && agg.Confidence < s.staleThreshold
}

// StaleThreshold returns the confidence below which aggregates are
// treated as stale.
func (s *Store) StaleThreshold() float64 {
	return s.staleThreshold
}

// DecayAll recomputes every entry's confidence for its age at now.
// Entries are never deleted: a stale aggregate still seeds the mean when
// fresh samples arrive.
func (s *Store) DecayAll(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for key, agg := range s.entries {
		agg.Confidence = s.confidence(agg.SampleCount, now.Sub(agg.LastSeen))
		s.entries[key] = agg
	}
}

// Len returns the number of aggregates in the store.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Load replaces the store contents from the repository.
func (s *Store) Load(ctx context.Context) error {
	if s.repo == nil {
		return nil
	}

	items, err := s.repo.Load(ctx)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.entries = items
	if s.entries == nil {
		s.entries = make(map[Key]Aggregate)
	}
	s.mu.Unlock()

	s.logger.Info().Int("count", len(items)).Msg("loaded segment aggregates")
	return nil
}

// Flush persists a snapshot of the store through the repository.
func (s *Store) Flush(ctx context.Context) error {
	if s.repo == nil {
		return nil
	}

	s.mu.RLock()
	snapshot := make(map[Key]Aggregate, len(s.entries))
	for k, v := range s.entries {
		snapshot[k] = v
	}
	s.mu.RUnlock()

	if err := s.repo.Save(ctx, snapshot); err != nil {
		return err
	}

	s.logger.Debug().Int("count", len(snapshot)).Msg("flushed segment aggregates")
	return nil
}

// confidence combines a saturating sample-count term with exponential
// recency decay. Always in [0,1], never negative.
func (s *Store) confidence(sampleCount int, age time.Duration) float64 {
	countTerm := float64(sampleCount) / float64(sampleCount+s.saturationCount)
	if age <= 0 {
		return countTerm
	}
	decay := math.Exp2(-age.Seconds() / s.halfLife.Seconds())
	return countTerm * decay
}
