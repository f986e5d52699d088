// Package session coordinates concurrent access to persisted runs. The
// navigation core itself is single-threaded per run; this layer is what
// lets multiple hosts (HTTP requests, replicas) share one result store
// safely.
package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/BiAffectBridge/cairn/internal/logging"
	"github.com/BiAffectBridge/cairn/pkg/domain"
	"github.com/BiAffectBridge/cairn/pkg/ports"
)

// lockEntry holds a per-run mutex and its reference count.
type lockEntry struct {
	mu     sync.Mutex
	refs   int
	unlock ports.UnlockFunc
}

// Manager serializes access to runs in a result store. Per-run locks are
// reference counted and garbage collected when the last holder releases.
type Manager struct {
	store ports.ResultStore

	mu    sync.Mutex
	locks map[string]*lockEntry

	locker ports.RunLocker
	logger *slog.Logger
}

// Option configures the Manager.
type Option func(*Manager)

// WithLocker enables distributed locking across replicas.
func WithLocker(locker ports.RunLocker) Option {
	return func(m *Manager) {
		m.locker = locker
	}
}

// WithLogger configures a logger for deferred errors.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// NewManager creates a session manager over the given result store.
func NewManager(store ports.ResultStore, opts ...Option) *Manager {
	m := &Manager{
		store:  store,
		locks:  make(map[string]*lockEntry),
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Manager) acquire(runID string) *lockEntry {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[runID]
	if !exists {
		entry = &lockEntry{}
		m.locks[runID] = entry
	}
	entry.refs++
	return entry
}

func (m *Manager) release(runID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[runID]
	if !exists {
		return
	}
	entry.refs--
	if entry.refs <= 0 {
		delete(m.locks, runID)
	}
}

// Load retrieves a run's result tree from the store.
func (m *Manager) Load(ctx context.Context, runID string) (*domain.Result, error) {
	var result *domain.Result
	err := m.WithLock(ctx, runID, func(ctx context.Context) error {
		var err error
		result, err = m.store.Load(ctx, runID)
		return err
	})
	return result, err
}

// Save persists a run's result tree.
func (m *Manager) Save(ctx context.Context, runID string, result *domain.Result) error {
	return m.WithLock(ctx, runID, func(ctx context.Context) error {
		return m.store.Save(ctx, runID, result)
	})
}

// Delete removes the run from the store.
func (m *Manager) Delete(ctx context.Context, runID string) error {
	return m.WithLock(ctx, runID, func(ctx context.Context) error {
		return m.store.Delete(ctx, runID)
	})
}

// List delegates to the store.
func (m *Manager) List(ctx context.Context) ([]string, error) {
	return m.store.List(ctx)
}

// Store returns the underlying result store.
func (m *Manager) Store() ports.ResultStore {
	return m.store
}

// WithLock executes fn while holding the lock for the run, including the
// distributed lock when one is configured.
func (m *Manager) WithLock(ctx context.Context, runID string, fn func(context.Context) error) error {
	entry := m.acquire(runID)
	entry.mu.Lock()
	defer func() {
		entry.mu.Unlock()
		m.release(runID)
	}()

	if m.locker != nil {
		unlock, err := m.locker.Lock(ctx, runID, 30*time.Second)
		if err != nil {
			return fmt.Errorf("failed to acquire distributed lock: %w", err)
		}
		defer func() {
			if err := unlock(ctx); err != nil {
				m.logger.Warn("failed to release distributed lock (will expire via TTL)",
					"run_id", runID,
					"err", err,
				)
			}
		}()
	}

	return fn(ctx)
}
