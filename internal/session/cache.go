// package session implements the backend's time-bounded cache of the one
// authenticated TIDAL session.
//
// Validating credentials against the remote service is expensive; the cache
// bounds that cost to once per TTL while guaranteeing every caller sees either
// a recently validated session or "no session". The backend holds exactly one
// account, so the cache holds at most one entry.
package session

import (
	"context"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/Raydius/tidal-dl-mcp/internal/tidal"
)

// DefaultTTL is how long a validated session is reused before revalidation.
const DefaultTTL = 5 * time.Minute

// RestoreFunc rebuilds a session from the credential file and validates it
// against the remote service. It is the only network call permitted inside the
// cache's critical section.
type RestoreFunc func(ctx context.Context) (*tidal.Session, error)

// Cache is the in-process session cache. All access to the entry happens under
// one mutex; the timestamp is only ever updated in the same critical section
// that sets the session.
type Cache struct {
	mu      sync.Mutex
	restore RestoreFunc
	ttl     time.Duration
	now     func() time.Time
	logger  *log.Logger

	current       *tidal.Session
	lastValidated time.Time
}

// Option configures a Cache.
type Option func(*Cache)

// WithTTL overrides the revalidation interval.
func WithTTL(ttl time.Duration) Option {
	return func(c *Cache) { c.ttl = ttl }
}

// WithClock injects a clock, letting tests advance time without sleeping.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) { c.now = now }
}

// NewCache creates a session cache around the given restore function.
func NewCache(restore RestoreFunc, logger *log.Logger, opts ...Option) *Cache {
	c := &Cache{
		restore: restore,
		ttl:     DefaultTTL,
		now:     time.Now,
		logger:  logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// GetOrCreate returns the cached session when it was validated within the TTL,
// otherwise attempts to rebuild one from the credential file. It never returns
// an error: a missing file, parse failure, or failed validation clears the
// entry and yields nil, which callers treat as "not authenticated".
func (c *Cache) GetOrCreate(ctx context.Context) *tidal.Session {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	if c.current != nil && now.Sub(c.lastValidated) < c.ttl {
		return c.current
	}

	session, err := c.restore(ctx)
	if err != nil {
		c.logger.Debug("session validation failed", "err", err)
		c.current = nil
		return nil
	}

	c.current = session
	c.lastValidated = now
	return session
}

// Invalidate clears the cached entry and resets the timestamp so the next
// GetOrCreate performs a fresh validation. Called after logout and when a
// downstream call reveals the session is no longer valid.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.current = nil
	c.lastValidated = time.Time{}
}
