// Package session keeps one page.Session per browser session. Sessions are
// identified by random UUIDs and dropped after a period of inactivity.
package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"kpidash/internal/cache"
	"kpidash/internal/page"
)

// Registry maps session IDs to sessions.
type Registry struct {
	mu       sync.Mutex
	composer *page.Composer
	sessions *cache.LRUCache[*page.Session]
	logger   *slog.Logger

	created atomic.Int64
	evicted atomic.Int64
}

// Config bounds the registry.
type Config struct {
	MaxSessions int
	TTL         time.Duration
}

// DefaultConfig returns the defaults used when a field is zero.
func DefaultConfig() Config {
	return Config{MaxSessions: 1000, TTL: 30 * time.Minute}
}

// NewRegistry creates a registry backed by an LRU cache.
func NewRegistry(composer *page.Composer, cfg Config, logger *slog.Logger) *Registry {
	def := DefaultConfig()
	if cfg.MaxSessions <= 0 {
		cfg.MaxSessions = def.MaxSessions
	}
	if cfg.TTL <= 0 {
		cfg.TTL = def.TTL
	}
	if logger == nil {
		logger = slog.Default()
	}
	r := &Registry{
		composer: composer,
		sessions: cache.NewLRUCache[*page.Session](cfg.MaxSessions, cfg.TTL),
		logger:   logger,
	}
	r.sessions.OnEvict(func(id string, _ *page.Session) {
		r.evicted.Add(1)
		r.logger.Debug("Session evicted", "session_id", id)
	})
	return r
}

// Cache exposes the backing cache for periodic cleanup.
func (r *Registry) Cache() cache.Cleaner { return r.sessions }

// Get returns the session for id. When id is empty, malformed or unknown a
// new session is created; created reports whether that happened.
func (r *Registry) Get(ctx context.Context, id string) (s *page.Session, created bool, err error) {
	if _, perr := uuid.Parse(id); perr == nil {
		if s, ok := r.sessions.Get(id); ok {
			return s, false, nil
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	newID := uuid.NewString()
	s, err = page.NewSession(ctx, newID, r.composer)
	if err != nil {
		return nil, false, fmt.Errorf("create session: %w", err)
	}
	r.sessions.Set(newID, s)
	r.created.Add(1)
	r.logger.DebugContext(ctx, "Session created", "session_id", newID)
	return s, true, nil
}

// Stats is a snapshot of registry counters.
type Stats struct {
	Active  int
	Created int64
	Evicted int64
}

// Stats returns the current counters.
func (r *Registry) Stats() Stats {
	return Stats{
		Active:  r.sessions.Size(),
		Created: r.created.Load(),
		Evicted: r.evicted.Load(),
	}
}
