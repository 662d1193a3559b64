// Package quarantine implements the bounded, signature-keyed store of
// captured Evidence: deduplication, capacity-driven eviction, and the
// counters the Agent and the dashboard report.
package quarantine

import (
	"context"
	"sort"
	"sync"

	"github.com/scentguard/scentguard/internal/audit"
	"github.com/scentguard/scentguard/internal/canonical"
	"github.com/scentguard/scentguard/internal/coldstorage"
	"github.com/scentguard/scentguard/internal/evidence"
	"github.com/scentguard/scentguard/internal/logging"
	"github.com/scentguard/scentguard/internal/scent"
)

// EvictionPolicy selects which entry is sacrificed when the store is over
// capacity.
type EvictionPolicy string

const (
	PolicyPriority EvictionPolicy = "priority"
	PolicyLRU      EvictionPolicy = "lru"
	PolicyFIFO     EvictionPolicy = "fifo"
)

// Config bounds the store's capacity and selects its eviction policy.
type Config struct {
	MaxCount       int
	MaxBytes       int64
	EvictionPolicy EvictionPolicy
}

// SeverityCounts is the per-severity breakdown in Stats.
type SeverityCounts struct {
	Critical int
	High     int
	Medium   int
	Low      int
}

// Stats is a point-in-time snapshot; it always reflects current in-memory
// state, never a cached or lagging view.
type Stats struct {
	Count        int
	Bytes        int64
	BySeverity   SeverityCounts
	Evictions    int
	Deduplicated int
}

// SubmitResult is the outcome of Submit.
type SubmitResult struct {
	Admitted  bool
	Reason    string // "duplicate" | "rejected" | ""
	Signature canonical.Signature
}

type entry struct {
	ev       *evidence.Evidence
	sig      canonical.Signature
	severity scent.Severity
	captured int64
	size     int
	seq      int64 // insertion order, for FIFO
	lastUsed int64 // logical clock tick, for LRU
}

// Quarantine is the bounded store of Evidence keyed by signature.
type Quarantine struct {
	mu sync.Mutex

	cfg   Config
	chain *audit.Chain
	log   *logging.Logger

	byKey map[canonical.Signature]*entry
	seqNo int64
	clock int64

	count        int
	bytes        int64
	bySeverity   SeverityCounts
	evictions    int
	deduplicated int
}

// New builds an empty Quarantine backed by chain for eviction audit
// records.
func New(cfg Config, chain *audit.Chain, log *logging.Logger) *Quarantine {
	if cfg.EvictionPolicy == "" {
		cfg.EvictionPolicy = PolicyPriority
	}
	if log == nil {
		log = logging.Nop
	}
	return &Quarantine{
		cfg:   cfg,
		chain: chain,
		log:   log,
		byKey: make(map[canonical.Signature]*entry),
	}
}

// Submit inserts ev, evicting as needed per the configured policy. On
// duplicate signature the existing entry is kept and not replaced; on
// rejection (no admissible eviction victim) nothing is inserted. Either
// way the caller's evidence is left for them to dispose of.
func (q *Quarantine) Submit(ev *evidence.Evidence) SubmitResult {
	q.mu.Lock()
	defer q.mu.Unlock()

	sig := ev.Signature()
	if _, exists := q.byKey[sig]; exists {
		q.deduplicated++
		return SubmitResult{Admitted: false, Reason: "duplicate", Signature: sig}
	}

	size := int64(ev.Size())
	for q.count >= q.cfg.MaxCount || (q.cfg.MaxBytes > 0 && q.bytes+size > q.cfg.MaxBytes) {
		victim := q.selectVictim(ev.Severity())
		if victim == nil {
			return SubmitResult{Admitted: false, Reason: "rejected", Signature: sig}
		}
		q.evictEntry(victim)
	}

	q.insert(ev, sig, size)
	return SubmitResult{Admitted: true, Signature: sig}
}

func (q *Quarantine) insert(ev *evidence.Evidence, sig canonical.Signature, size int64) {
	q.seqNo++
	q.clock++
	e := &entry{
		ev:       ev,
		sig:      sig,
		severity: ev.Severity(),
		captured: ev.Captured(),
		size:     int(size),
		seq:      q.seqNo,
		lastUsed: q.clock,
	}
	q.byKey[sig] = e
	q.count++
	q.bytes += size
	q.addSeverity(e.severity, 1)
}

// selectVictim returns the entry to evict for an incoming candidate of the
// given severity, or nil if no admissible victim exists. Under priority
// eviction a candidate may only evict an entry of severity <= its own,
// which preserves the severity high-water mark under saturation.
func (q *Quarantine) selectVictim(candidateSeverity scent.Severity) *entry {
	if len(q.byKey) == 0 {
		return nil
	}
	switch q.cfg.EvictionPolicy {
	case PolicyLRU:
		return q.oldestByAccess()
	case PolicyFIFO:
		return q.oldestBySeq()
	default:
		return q.lowestSeverityOldest(candidateSeverity)
	}
}

func (q *Quarantine) lowestSeverityOldest(candidateSeverity scent.Severity) *entry {
	var best *entry
	for _, e := range q.byKey {
		if e.severity > candidateSeverity {
			continue
		}
		if best == nil {
			best = e
			continue
		}
		if e.severity < best.severity || (e.severity == best.severity && e.captured < best.captured) {
			best = e
		}
	}
	return best
}

func (q *Quarantine) oldestByAccess() *entry {
	var best *entry
	for _, e := range q.byKey {
		if best == nil || e.lastUsed < best.lastUsed {
			best = e
		}
	}
	return best
}

func (q *Quarantine) oldestBySeq() *entry {
	var best *entry
	for _, e := range q.byKey {
		if best == nil || e.seq < best.seq {
			best = e
		}
	}
	return best
}

func (q *Quarantine) evictEntry(e *entry) {
	rec, err := e.ev.Neutralize(q.chain.LastHash())
	if err != nil {
		// Already disposed entries should never be reachable through byKey;
		// this would indicate internal bookkeeping corruption.
		q.log.Error(context.Background(), "quarantine: neutralize victim during eviction failed", map[string]any{
			"signature": string(e.sig),
			"error":     err.Error(),
		})
	} else {
		q.chain.Append(audit.Input{
			Type:      audit.TypeNeutralization,
			Signature: e.sig,
			Timestamp: rec.Timestamp,
		})
	}
	delete(q.byKey, e.sig)
	q.count--
	q.bytes -= int64(e.size)
	q.addSeverity(e.severity, -1)
	q.evictions++
}

func (q *Quarantine) addSeverity(sev scent.Severity, delta int) {
	switch sev {
	case scent.SeverityCritical:
		q.bySeverity.Critical += delta
	case scent.SeverityHigh:
		q.bySeverity.High += delta
	case scent.SeverityMedium:
		q.bySeverity.Medium += delta
	case scent.SeverityLow:
		q.bySeverity.Low += delta
	}
}

// Get returns a borrowed, read-only handle to the evidence for signature,
// touching its LRU recency. The handle must not be mutated and must not
// be retained past the next mutating call on the Quarantine.
func (q *Quarantine) Get(sig canonical.Signature) (*EvidenceHandle, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	e, ok := q.byKey[sig]
	if !ok {
		return nil, false
	}
	q.clock++
	e.lastUsed = q.clock
	return &EvidenceHandle{ev: e.ev}, true
}

// Evacuate removes the entry for sig, hands its transferred bytes to
// coldStorage fire-and-forget, and appends an evacuation record. Cold
// storage failures are logged, never raised.
func (q *Quarantine) Evacuate(sig canonical.Signature, destination string, cold coldstorage.Adapter) bool {
	q.mu.Lock()
	e, ok := q.byKey[sig]
	if !ok {
		q.mu.Unlock()
		return false
	}
	delete(q.byKey, sig)
	q.count--
	q.bytes -= int64(e.size)
	q.addSeverity(e.severity, -1)
	q.mu.Unlock()

	rec, payload, err := e.ev.Evacuate(destination)
	if err != nil {
		q.log.Error(context.Background(), "quarantine: evacuate failed", map[string]any{
			"signature": string(sig),
			"error":     err.Error(),
		})
		return false
	}
	q.chain.Append(audit.Input{
		Type:      audit.TypeEvacuation,
		Signature: rec.Signature,
		Timestamp: rec.Timestamp,
	})
	if cold != nil {
		go cold.Write(string(sig), payload)
	}
	return true
}

// Signatures returns up to limit quarantined signatures in insertion order,
// for the CLI's and dashboard's listing views. A limit <= 0 returns every
// signature currently held. Calling this does not touch LRU recency.
func (q *Quarantine) Signatures(limit int) []canonical.Signature {
	q.mu.Lock()
	defer q.mu.Unlock()

	entries := make([]*entry, 0, len(q.byKey))
	for _, e := range q.byKey {
		entries = append(entries, e)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].seq < entries[j].seq })
	if limit > 0 && limit < len(entries) {
		entries = entries[:limit]
	}
	out := make([]canonical.Signature, len(entries))
	for i, e := range entries {
		out[i] = e.sig
	}
	return out
}

// Stats returns a point-in-time snapshot of the store's counters.
func (q *Quarantine) Stats() Stats {
	q.mu.Lock()
	defer q.mu.Unlock()
	return Stats{
		Count:        q.count,
		Bytes:        q.bytes,
		BySeverity:   q.bySeverity,
		Evictions:    q.evictions,
		Deduplicated: q.deduplicated,
	}
}

// EvidenceHandle is a read-only, non-extendable view over quarantined
// Evidence. It exposes no mutating methods; callers cannot transfer,
// neutralize, or evacuate through a handle.
type EvidenceHandle struct {
	ev *evidence.Evidence
}

// Signature returns the handle's evidence signature.
func (h *EvidenceHandle) Signature() canonical.Signature { return h.ev.Signature() }

// Severity returns the handle's evidence severity.
func (h *EvidenceHandle) Severity() scent.Severity { return h.ev.Severity() }

// Captured returns the handle's evidence capture timestamp.
func (h *EvidenceHandle) Captured() int64 { return h.ev.Captured() }

// Size returns the current size of the underlying evidence bytes.
func (h *EvidenceHandle) Size() int { return h.ev.Size() }
