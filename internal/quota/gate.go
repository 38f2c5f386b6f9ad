// Package quota admits or rejects analysis requests based on the caller's
// plan tier and a per-caller usage window.
package quota

import (
	"errors"
	"sync"
	"time"
)

// Tier is a caller's plan tier.
type Tier string

const (
	TierFree Tier = "free"
	TierPro  Tier = "pro"
)

// Unlimited is the Remaining sentinel for tiers without a ceiling.
const Unlimited = -1

// ErrQuotaExceeded is returned by callers that surface a rejected Decision
// as an error. The gate itself never errors; it reports via Decision.
var ErrQuotaExceeded = errors.New("quota exceeded for the current window")

// Decision is the outcome of an admission check. It carries what a caller
// layer needs to render remaining quota and reset time; HTTP semantics are
// the caller's concern.
type Decision struct {
	Allowed   bool      `json:"allowed"`
	Remaining int       `json:"remaining"`
	ResetAt   time.Time `json:"reset_at"`
}

// window tracks admissions for one caller identity. Windows are fixed-width
// and anchored at the first admission attempt after the previous window
// lapsed; the count resets when the window elapses.
type window struct {
	start time.Time
	count int
}

// Gate tracks usage windows keyed by caller identity. Check-and-increment is
// atomic under a single mutex, so two concurrent admits for a caller holding
// the last free slot can never both succeed.
type Gate struct {
	mu        sync.Mutex
	windows   map[string]*window
	width     time.Duration
	freeLimit int
	now       func() time.Time
}

// Option configures a Gate.
type Option func(*Gate)

// WithClock overrides the time source, used by tests.
func WithClock(now func() time.Time) Option {
	return func(g *Gate) { g.now = now }
}

// NewGate creates a Gate with the given window width and free-tier ceiling.
// Non-positive arguments fall back to one hour and 3 requests.
func NewGate(width time.Duration, freeLimit int, opts ...Option) *Gate {
	if width <= 0 {
		width = time.Hour
	}
	if freeLimit <= 0 {
		freeLimit = 3
	}
	g := &Gate{
		windows:   make(map[string]*window),
		width:     width,
		freeLimit: freeLimit,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Admit evaluates and, when allowed, charges one request against the
// caller's current window. Unlimited tiers are always admitted but still
// counted for observability.
func (g *Gate) Admit(identity string, tier Tier) Decision {
	g.mu.Lock()
	defer g.mu.Unlock()

	w := g.roll(identity)
	resetAt := w.start.Add(g.width)

	if tier == TierPro {
		w.count++
		return Decision{Allowed: true, Remaining: Unlimited, ResetAt: resetAt}
	}

	if w.count >= g.freeLimit {
		return Decision{Allowed: false, Remaining: 0, ResetAt: resetAt}
	}
	w.count++
	return Decision{Allowed: true, Remaining: g.freeLimit - w.count, ResetAt: resetAt}
}

// Peek reports the caller's current standing without charging a request.
func (g *Gate) Peek(identity string, tier Tier) Decision {
	g.mu.Lock()
	defer g.mu.Unlock()

	w := g.roll(identity)
	resetAt := w.start.Add(g.width)

	if tier == TierPro {
		return Decision{Allowed: true, Remaining: Unlimited, ResetAt: resetAt}
	}
	remaining := g.freeLimit - w.count
	if remaining < 0 {
		remaining = 0
	}
	return Decision{Allowed: remaining > 0, Remaining: remaining, ResetAt: resetAt}
}

// roll returns the caller's live window, opening a fresh one when the
// previous window has elapsed. Caller must hold g.mu.
func (g *Gate) roll(identity string) *window {
	now := g.now()
	w, ok := g.windows[identity]
	if !ok || now.Sub(w.start) >= g.width {
		w = &window{start: now}
		g.windows[identity] = w
	}
	return w
}

// Prune drops windows that elapsed before the cutoff, bounding memory for
// long-running servers with churning anonymous identities.
func (g *Gate) Prune() int {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now()
	dropped := 0
	for id, w := range g.windows {
		if now.Sub(w.start) >= g.width {
			delete(g.windows, id)
			dropped++
		}
	}
	return dropped
}
