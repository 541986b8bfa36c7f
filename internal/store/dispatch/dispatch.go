// Package dispatch selects and owns the active storage engine.
//
// A Manager is an explicit handle constructed once at process start and
// injected into call sites; there is no package-level global. It guards the
// one-engine invariant: Init before Close fails rather than silently opening
// a duplicate connection, and Close permits re-initialization.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/thindery/pantry-pal-api-sub000/internal/config"
	"github.com/thindery/pantry-pal-api-sub000/internal/store"
	"github.com/thindery/pantry-pal-api-sub000/internal/store/postgres"
	"github.com/thindery/pantry-pal-api-sub000/internal/store/sqlite"
)

var (
	// ErrAlreadyInitialized reports a second Init before Close.
	ErrAlreadyInitialized = errors.New("store already initialized")
	// ErrNotInitialized reports access to a manager with no live engine.
	ErrNotInitialized = errors.New("store not initialized")
)

// Manager caches the singleton engine handle.
type Manager struct {
	cfg *config.Config
	log zerolog.Logger

	mu    sync.Mutex
	store store.Store
}

// NewManager builds an uninitialized manager.
func NewManager(cfg *config.Config, log zerolog.Logger) *Manager {
	return &Manager{cfg: cfg, log: log}
}

// Init reads the configured backend once, instantiates that engine, runs its
// migrations, and caches the handle.
func (m *Manager) Init(ctx context.Context) (store.Store, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.store != nil {
		return nil, ErrAlreadyInitialized
	}

	var (
		s   store.Store
		err error
	)
	switch m.cfg.StorageBackend {
	case config.BackendSQLite:
		s, err = sqlite.Open(m.cfg.SQLitePath, m.log)
	case config.BackendPostgres:
		s, err = postgres.Open(ctx, postgres.Config{
			DSN:             m.cfg.DatabaseURL,
			MaxConns:        int32(m.cfg.DBMaxConns),
			ConnIdleTimeout: time.Duration(m.cfg.DBConnIdleTimeoutSec) * time.Second,
			ConnectTimeout:  time.Duration(m.cfg.DBConnectTimeoutSec) * time.Second,
		}, m.log)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", m.cfg.StorageBackend)
	}
	if err != nil {
		return nil, fmt.Errorf("initialize %s backend: %w", m.cfg.StorageBackend, err)
	}

	m.store = s
	m.log.Info().Str("backend", m.cfg.StorageBackend).Msg("storage initialized")
	return s, nil
}

// Store returns the cached handle.
func (m *Manager) Store() (store.Store, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.store == nil {
		return nil, ErrNotInitialized
	}
	return m.store, nil
}

// Close tears down the engine and clears the handle, permitting re-Init.
// Closing an uninitialized manager is a no-op.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.store == nil {
		return nil
	}
	err := m.store.Close()
	m.store = nil
	return err
}
