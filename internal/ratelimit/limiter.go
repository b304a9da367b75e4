package ratelimit

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

const (
	DefaultMaxRequests   = 100
	DefaultWindow        = time.Minute
	DefaultSweepInterval = 5 * time.Minute
)

// Decision is the outcome of one rate-limit check.
type Decision struct {
	Allowed    bool
	Limit      int
	Remaining  int
	ResetAt    time.Time
	RetryAfter time.Duration
}

// RetryAfterSeconds is the Retry-After value for denied requests,
// rounded up and never below one second.
func (d Decision) RetryAfterSeconds() int {
	if d.RetryAfter <= 0 {
		return 0
	}
	seconds := int((d.RetryAfter + time.Second - 1) / time.Second)
	if seconds < 1 {
		seconds = 1
	}
	return seconds
}

type window struct {
	count   int
	resetAt time.Time
}

// Limiter is a fixed-window per-client request counter held in process
// memory. State is created lazily per client and swept by a janitor so
// memory stays bounded to recently active clients.
type Limiter struct {
	mu      sync.Mutex
	windows map[string]*window

	max           int
	windowSize    time.Duration
	sweepInterval time.Duration
	logger        *zap.Logger
	now           func() time.Time
}

func NewLimiter(max int, windowSize, sweepInterval time.Duration, logger *zap.Logger) *Limiter {
	if max <= 0 {
		max = DefaultMaxRequests
	}
	if windowSize <= 0 {
		windowSize = DefaultWindow
	}
	if sweepInterval <= 0 {
		sweepInterval = DefaultSweepInterval
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Limiter{
		windows:       make(map[string]*window),
		max:           max,
		windowSize:    windowSize,
		sweepInterval: sweepInterval,
		logger:        logger,
		now:           time.Now,
	}
}

// Check records one request for clientID and decides whether it is
// allowed. Increment and compare happen under one lock so concurrent
// requests from the same client cannot lose updates.
func (l *Limiter) Check(clientID string) Decision {
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	w, ok := l.windows[clientID]
	if !ok || !w.resetAt.After(now) {
		w = &window{count: 1, resetAt: now.Add(l.windowSize)}
		l.windows[clientID] = w
		return l.decision(w, true)
	}

	w.count++
	if w.count > l.max {
		return l.decision(w, false)
	}
	return l.decision(w, true)
}

func (l *Limiter) decision(w *window, allowed bool) Decision {
	d := Decision{
		Allowed: allowed,
		Limit:   l.max,
		ResetAt: w.resetAt,
	}
	if remaining := l.max - w.count; remaining > 0 {
		d.Remaining = remaining
	}
	if !allowed {
		d.RetryAfter = w.resetAt.Sub(l.now())
	}
	return d
}

// StartJanitor sweeps expired client windows until ctx is canceled.
// The sweep interval is independent of the request window.
func (l *Limiter) StartJanitor(ctx context.Context) {
	if ctx == nil {
		ctx = context.Background()
	}

	ticker := time.NewTicker(l.sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			removed := l.sweep()
			if removed > 0 {
				l.logger.Debug("rate limiter janitor swept expired clients", zap.Int("removed", removed))
			}
		}
	}
}

func (l *Limiter) sweep() int {
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	removed := 0
	for clientID, w := range l.windows {
		if !w.resetAt.After(now) {
			delete(l.windows, clientID)
			removed++
		}
	}
	return removed
}

// ActiveClients reports how many client windows are currently tracked.
func (l *Limiter) ActiveClients() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.windows)
}
