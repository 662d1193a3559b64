// Package ratelimit implements the per-source sliding-window rate limiter
// with block-out: each source tracks its own bounded window of recent
// request timestamps plus an optional block-until deadline.
package ratelimit

import (
	"sync"
	"time"
)

// Config configures the limiter.
type Config struct {
	WindowMs        int64
	MaxRequests     int
	BlockDurationMs int64
}

// Result is the outcome of Check.
type Result struct {
	Allowed    bool
	RetryAfter int64 // milliseconds; meaningful only when !Allowed
}

type sourceState struct {
	timestamps   []int64
	blockedUntil int64
	lastSeen     int64
}

// Limiter is a sliding-window rate limiter keyed by source. Decisions for a
// given source are serialized by the limiter's own mutex; cross-source
// calls are independent of one another.
type Limiter struct {
	mu      sync.Mutex
	cfg     Config
	sources map[string]*sourceState

	stopCleanup chan struct{}
}

// New builds a limiter and starts a background goroutine that evicts
// sources that have been idle well past their window, bounding memory for
// long-running processes. Call Close to stop it.
func New(cfg Config) *Limiter {
	l := &Limiter{
		cfg:         cfg,
		sources:     make(map[string]*sourceState),
		stopCleanup: make(chan struct{}),
	}
	go l.cleanupLoop()
	return l
}

func (l *Limiter) cleanupLoop() {
	interval := 5 * time.Minute
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-t.C:
			cutoff := time.Now().UnixMilli() - l.cfg.WindowMs - l.cfg.BlockDurationMs - int64(interval/time.Millisecond)
			l.mu.Lock()
			for k, s := range l.sources {
				if s.lastSeen < cutoff {
					delete(l.sources, k)
				}
			}
			l.mu.Unlock()
		case <-l.stopCleanup:
			return
		}
	}
}

// Close stops the background cleanup goroutine.
func (l *Limiter) Close() {
	close(l.stopCleanup)
}

// Check implements the four-step sliding-window algorithm: a blocked
// source is denied with the remaining block time; stale timestamps are
// dropped; a saturated window triggers a new block and is denied; an
// admitted request is recorded and allowed.
func (l *Limiter) Check(source string, now int64) Result {
	l.mu.Lock()
	defer l.mu.Unlock()

	s, ok := l.sources[source]
	if !ok {
		s = &sourceState{}
		l.sources[source] = s
	}
	s.lastSeen = now

	if s.blockedUntil > now {
		return Result{Allowed: false, RetryAfter: s.blockedUntil - now}
	}

	cutoff := now - l.cfg.WindowMs
	kept := s.timestamps[:0]
	for _, ts := range s.timestamps {
		if ts > cutoff {
			kept = append(kept, ts)
		}
	}
	s.timestamps = kept

	if len(s.timestamps) >= l.cfg.MaxRequests {
		s.blockedUntil = now + l.cfg.BlockDurationMs
		return Result{Allowed: false, RetryAfter: l.cfg.BlockDurationMs}
	}

	s.timestamps = append(s.timestamps, now)
	return Result{Allowed: true}
}

// Stats reports how many sources are currently blocked (as of now) and how
// many sources the limiter is actively tracking.
type Stats struct {
	Blocked int
	Active  int
}

func (l *Limiter) Stats(now int64) Stats {
	l.mu.Lock()
	defer l.mu.Unlock()
	st := Stats{Active: len(l.sources)}
	for _, s := range l.sources {
		if s.blockedUntil > now {
			st.Blocked++
		}
	}
	return st
}
