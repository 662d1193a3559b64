// Package agent implements the orchestrator that threads the rate limiter,
// evidence factory, quarantine, and audit chain together into the
// intercept pipeline. It is the only component callers (CLI, httpface)
// interact with directly.
package agent

import (
	"sync"
	"time"

	"github.com/scentguard/scentguard/internal/audit"
	"github.com/scentguard/scentguard/internal/canonical"
	"github.com/scentguard/scentguard/internal/codec"
	"github.com/scentguard/scentguard/internal/coldstorage"
	"github.com/scentguard/scentguard/internal/errcodes"
	"github.com/scentguard/scentguard/internal/evidence"
	"github.com/scentguard/scentguard/internal/logging"
	"github.com/scentguard/scentguard/internal/quarantine"
	"github.com/scentguard/scentguard/internal/ratelimit"
	"github.com/scentguard/scentguard/internal/scent"
)

// Stats are the Agent-level counters updated after every Intercept call.
// Every call updates exactly one status counter in addition to Total.
type Stats struct {
	Total           int64
	Clean           int64
	RateLimited     int64
	PayloadTooLarge int64
	Ignored         int64
	Quarantined     int64
	Error           int64
}

// Config is the fully-resolved configuration an Agent is built from.
type Config struct {
	MaxPayloadSize int
	RateLimit      ratelimit.Config
	Quarantine     quarantine.Config
	// Codec is optional; nil means evidence bytes are stored uncompressed.
	Codec codec.Encoder
	// ColdStorage is optional; nil disables evacuation's fire-and-forget
	// handoff (Evacuate still disposes the evidence and records the audit
	// entry, it simply has nowhere to write the bytes).
	ColdStorage coldstorage.Adapter
	Logger      *logging.Logger
	// Now returns the current time in milliseconds; overridable for tests.
	Now func() int64
}

// Agent orchestrates the intercept pipeline. It owns the Quarantine, the
// AuditChain, and the RateLimiter; nothing else mutates them. Intercept
// calls on one Agent are totally ordered by the Agent's own mutex, which
// defines the audit chain's order.
type Agent struct {
	mu sync.Mutex

	maxPayloadSize int
	rateLimiter    *ratelimit.Limiter
	factory        *evidence.Factory
	quarantine     *quarantine.Quarantine
	chain          *audit.Chain
	cold           coldstorage.Adapter
	log            *logging.Logger
	now            func() int64

	stats Stats
}

// New builds an Agent from a resolved Config.
func New(cfg Config) *Agent {
	now := cfg.Now
	if now == nil {
		now = defaultNow
	}
	log := cfg.Logger
	if log == nil {
		log = logging.Nop
	}
	chain := audit.New()
	return &Agent{
		maxPayloadSize: cfg.MaxPayloadSize,
		rateLimiter:    ratelimit.New(cfg.RateLimit),
		factory:        &evidence.Factory{Codec: cfg.Codec, Now: now},
		quarantine:     quarantine.New(cfg.Quarantine, chain, log),
		chain:          chain,
		cold:           cfg.ColdStorage,
		log:            log,
		now:            now,
	}
}

func defaultNow() int64 {
	return time.Now().UnixMilli()
}

// Intercept runs the security-ordered pipeline against sc and returns the
// single status that applies. Data-path errors never unwind past Intercept
// — they are converted to the error variant.
func (a *Agent) Intercept(sc scent.Scent) InterceptResult {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.stats.Total++

	if sc.Threat == nil {
		a.stats.Clean++
		return clean()
	}
	threat := *sc.Threat

	rl := a.rateLimiter.Check(sc.Source, a.now())
	if !rl.Allowed {
		a.stats.RateLimited++
		return rateLimited(rl.RetryAfter)
	}

	created, cerr := a.factory.Create(sc, threat, a.maxPayloadSize)
	if cerr != nil {
		if cerr.Code == errcodes.PayloadTooLarge {
			a.stats.PayloadTooLarge++
			return payloadTooLarge(a.maxPayloadSize)
		}
		a.stats.Error++
		return errorResult("intercept", cerr.Code, cerr.Message, true)
	}

	submit := a.quarantine.Submit(created.Evidence)
	if !submit.Admitted {
		// Discarded locally, no audit trail: this evidence was never
		// admitted to the Quarantine, so there is nothing to neutralize
		// with provenance — just release the buffer.
		_, _ = created.Evidence.Transfer()
		a.stats.Ignored++
		return ignored(submit.Signature)
	}

	handle, _ := a.quarantine.Get(submit.Signature)
	a.stats.Quarantined++
	return quarantined(submit.Signature, handle)
}

// Stats returns a snapshot of the Agent's counters.
func (a *Agent) Stats() Stats {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.stats
}

// Quarantine exposes the Agent's Quarantine for read-only inspection
// (stats, Get) by external collaborators such as the CLI and httpface.
func (a *Agent) Quarantine() *quarantine.Quarantine {
	return a.quarantine
}

// AuditChain exposes the Agent's AuditChain for read-only inspection
// (Export, Verify, Len) by external collaborators.
func (a *Agent) AuditChain() *audit.Chain {
	return a.chain
}

// Evacuate hands the evidence for signature off to cold storage through
// the Quarantine, outside the Intercept pipeline (this is an operator or
// CLI-triggered action, not part of the data path's security order).
func (a *Agent) Evacuate(sig string, destination string) bool {
	return a.quarantine.Evacuate(canonical.Signature(sig), destination, a.cold)
}

// Close releases background resources (the rate limiter's cleanup
// goroutine).
func (a *Agent) Close() {
	a.rateLimiter.Close()
}
