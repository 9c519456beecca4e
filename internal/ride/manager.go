package ride

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/skateroute/skateroute/internal/reroute"
	"github.com/skateroute/skateroute/internal/routing"
	"github.com/skateroute/skateroute/internal/segments"
)

// ManagerConfig holds configuration for the ride manager.
type ManagerConfig struct {
	// Store is shared by all sessions.
	Store *segments.Store

	// Policy is the reroute policy applied to every ride. Zero value
	// means reroute.DefaultPolicy.
	Policy reroute.Policy

	// SnapRadiusMeters is passed through to each session's matcher.
	SnapRadiusMeters float64

	// Logger for manager operations.
	Logger zerolog.Logger
}

// Manager owns the live ride sessions. Each started ride gets an ID, a
// session, and a consumer goroutine that lives until the ride ends or
// the manager's context is cancelled.
type Manager struct {
	cfg ManagerConfig

	mu       sync.RWMutex
	sessions map[string]*activeSession
}

type activeSession struct {
	session *Session
	cancel  context.CancelFunc
}

// NewManager creates a new ride manager.
func NewManager(cfg ManagerConfig) *Manager {
	return &Manager{
		cfg:      cfg,
		sessions: make(map[string]*activeSession),
	}
}

// StartRide creates and starts a session for the route. The session runs
// until EndRide or ctx cancellation.
func (m *Manager) StartRide(ctx context.Context, route *routing.Route) (*Session, error) {
	if route == nil || len(route.Steps) == 0 {
		return nil, fmt.Errorf("%w: route has no steps", routing.ErrNoRouteFound)
	}

	id := "ride_" + uuid.NewString()
	session := NewSession(id, route, SessionConfig{
		Store:            m.cfg.Store,
		Policy:           m.cfg.Policy,
		SnapRadiusMeters: m.cfg.SnapRadiusMeters,
		Logger:           m.cfg.Logger,
	})

	runCtx, cancel := context.WithCancel(ctx)

	m.mu.Lock()
	m.sessions[id] = &activeSession{session: session, cancel: cancel}
	m.mu.Unlock()

	go func() {
		_ = session.Run(runCtx)

		m.mu.Lock()
		delete(m.sessions, id)
		m.mu.Unlock()
	}()

	m.cfg.Logger.Info().
		Str("ride_id", id).
		Str("route_id", string(route.ID)).
		Msg("ride started")

	return session, nil
}

// Get returns the session for a ride ID.
func (m *Manager) Get(id string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	active, ok := m.sessions[id]
	if !ok {
		return nil, ErrRideNotFound
	}
	return active.session, nil
}

// EndRide stops the session for a ride ID.
func (m *Manager) EndRide(id string) error {
	m.mu.Lock()
	active, ok := m.sessions[id]
	if ok {
		delete(m.sessions, id)
	}
	m.mu.Unlock()

	if !ok {
		return ErrRideNotFound
	}

	active.cancel()
	m.cfg.Logger.Info().Str("ride_id", id).Msg("ride ended")
	return nil
}

// ActiveCount returns the number of live sessions.
func (m *Manager) ActiveCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}
