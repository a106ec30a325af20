// Package session gives every visitor its own eligibility controller and
// keeps the controller state across requests.
package session

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/doodleleagues/whitelist_checker/internal/eligibility"
	"github.com/doodleleagues/whitelist_checker/internal/metrics"
)

const saveTimeout = time.Second

// Factory builds a controller from a restored snapshot. onPublish must be
// passed to the controller so its state gets persisted.
type Factory func(snap eligibility.Snapshot, onPublish func(eligibility.Snapshot)) *eligibility.Controller

// Manager maps session IDs to live controllers.
type Manager struct {
	store   Store
	factory Factory
	ttl     time.Duration
	logger  *slog.Logger
	now     func() time.Time

	mu   sync.Mutex
	live map[string]*entry
}

type entry struct {
	ctrl     *eligibility.Controller
	lastSeen time.Time
}

// NewManager builds a session manager. Controllers unused for ttl are
// dropped from memory by Sweep; their snapshots stay in the store.
func NewManager(store Store, factory Factory, ttl time.Duration, logger *slog.Logger) *Manager {
	return &Manager{
		store:   store,
		factory: factory,
		ttl:     ttl,
		logger:  logger,
		now:     time.Now,
		live:    make(map[string]*entry),
	}
}

// NewID returns a fresh session identifier.
func NewID() string {
	return uuid.NewString()
}

// ValidID reports whether id looks like an identifier issued by NewID.
func ValidID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil && len(id) == 36
}

// Get returns the controller for id, restoring it from the store or creating
// an idle one. The store is consulted on every call: when another instance
// published a newer snapshot, the local controller is replaced by it.
func (m *Manager) Get(ctx context.Context, id string) *eligibility.Controller {
	id = strings.Clone(id)

	snap, err := m.store.Load(ctx, id)
	stored := err == nil
	if err != nil && !errors.Is(err, ErrNotFound) {
		m.logger.Warn("session restore failed", slog.String("session_id", id), slog.Any("error", err))
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if e, ok := m.live[id]; ok {
		e.lastSeen = m.now()
		if !stored || !snap.Outcome.At.After(e.ctrl.Snapshot().Outcome.At) {
			return e.ctrl
		}
		m.logger.Debug("session updated elsewhere, reloading", slog.String("session_id", id))
		e.ctrl.Close()
	}
	ctrl := m.factory(snap, m.persister(id))
	m.live[id] = &entry{ctrl: ctrl, lastSeen: m.now()}
	metrics.ActiveSessions.Set(float64(len(m.live)))
	return ctrl
}

// Len returns the number of controllers held in memory.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.live)
}

// Sweep drops controllers idle for longer than the TTL and returns how many
// were dropped.
func (m *Manager) Sweep() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ttl <= 0 {
		return 0
	}
	cutoff := m.now().Add(-m.ttl)
	dropped := 0
	for id, e := range m.live {
		if e.lastSeen.Before(cutoff) {
			e.ctrl.Close()
			delete(m.live, id)
			dropped++
		}
	}
	metrics.ActiveSessions.Set(float64(len(m.live)))
	return dropped
}

// Run sweeps periodically until ctx is done.
func (m *Manager) Run(ctx context.Context, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := m.Sweep(); n > 0 {
				m.logger.Debug("swept idle sessions", slog.Int("count", n))
			}
		}
	}
}

func (m *Manager) persister(id string) func(eligibility.Snapshot) {
	return func(snap eligibility.Snapshot) {
		ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
		defer cancel()
		if err := m.store.Save(ctx, id, snap); err != nil {
			m.logger.Error("session save failed", slog.String("session_id", id), slog.Any("error", err))
		}
	}
}
