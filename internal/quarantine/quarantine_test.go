package quarantine

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/scentguard/scentguard/internal/audit"
	"github.com/scentguard/scentguard/internal/canonical"
	"github.com/scentguard/scentguard/internal/evidence"
	"github.com/scentguard/scentguard/internal/scent"
)

func newEvidence(t *testing.T, category string, sev scent.Severity, now int64) *evidence.Evidence {
	t.Helper()
	f := &evidence.Factory{Now: func() int64 { return now }}
	res, err := f.Create(scent.Scent{Payload: map[string]any{"n": now}},
		scent.Threat{Category: scent.ThreatCategory(category), Severity: sev}, 0)
	require.Nil(t, err)
	return res.Evidence
}

func TestSubmitDeduplicatesSameSignature(t *testing.T) {
	q := New(Config{MaxCount: 10, EvictionPolicy: PolicyPriority}, audit.New(), nil)

	ev1 := newEvidence(t, "spam", scent.SeverityLow, 1)
	ev2 := newEvidence(t, "spam", scent.SeverityLow, 1) // identical payload -> identical signature

	r1 := q.Submit(ev1)
	require.True(t, r1.Admitted)
	r2 := q.Submit(ev2)
	require.False(t, r2.Admitted)
	require.Equal(t, "duplicate", r2.Reason)

	require.Equal(t, 1, q.Stats().Deduplicated)
	require.Equal(t, 1, q.Stats().Count)
}

func TestSubmitEvictsLowestSeverityFirstUnderPriority(t *testing.T) {
	chain := audit.New()
	q := New(Config{MaxCount: 1, EvictionPolicy: PolicyPriority}, chain, nil)

	low := newEvidence(t, "spam", scent.SeverityLow, 1)
	require.True(t, q.Submit(low).Admitted)

	high := newEvidence(t, "malware", scent.SeverityHigh, 2)
	r := q.Submit(high)
	require.True(t, r.Admitted)
	require.Equal(t, 1, q.Stats().Count)
	require.Equal(t, 1, q.Stats().Evictions)
	require.Equal(t, 1, chain.Len())

	_, ok := q.Get(low.Signature())
	require.False(t, ok)
	_, ok = q.Get(high.Signature())
	require.True(t, ok)
}

func TestPriorityEvictionRejectsWhenCandidateIsLowestSeverity(t *testing.T) {
	q := New(Config{MaxCount: 1, EvictionPolicy: PolicyPriority}, audit.New(), nil)

	high := newEvidence(t, "malware", scent.SeverityCritical, 1)
	require.True(t, q.Submit(high).Admitted)

	low := newEvidence(t, "spam", scent.SeverityLow, 2)
	r := q.Submit(low)
	require.False(t, r.Admitted)
	require.Equal(t, "rejected", r.Reason)
	require.Equal(t, 1, q.Stats().Count)
}

func TestLRUEvictionPicksLeastRecentlyAccessed(t *testing.T) {
	q := New(Config{MaxCount: 2, EvictionPolicy: PolicyLRU}, audit.New(), nil)

	a := newEvidence(t, "spam", scent.SeverityLow, 1)
	b := newEvidence(t, "spam", scent.SeverityLow, 2)
	require.True(t, q.Submit(a).Admitted)
	require.True(t, q.Submit(b).Admitted)

	_, ok := q.Get(a.Signature()) // touch a, making b the least recently used
	require.True(t, ok)

	c := newEvidence(t, "spam", scent.SeverityLow, 3)
	require.True(t, q.Submit(c).Admitted)

	_, ok = q.Get(b.Signature())
	require.False(t, ok, "b should have been evicted as least recently used")
	_, ok = q.Get(a.Signature())
	require.True(t, ok)
}

func TestFIFOEvictionPicksOldestInsertion(t *testing.T) {
	q := New(Config{MaxCount: 2, EvictionPolicy: PolicyFIFO}, audit.New(), nil)

	a := newEvidence(t, "spam", scent.SeverityLow, 1)
	b := newEvidence(t, "spam", scent.SeverityLow, 2)
	require.True(t, q.Submit(a).Admitted)
	require.True(t, q.Submit(b).Admitted)

	_, ok := q.Get(a.Signature()) // access order must not matter for FIFO
	require.True(t, ok)

	c := newEvidence(t, "spam", scent.SeverityLow, 3)
	require.True(t, q.Submit(c).Admitted)

	_, ok = q.Get(a.Signature())
	require.False(t, ok, "a should have been evicted as the oldest insertion regardless of access")
}

func TestEvacuateRemovesEntryAndAppendsAuditRecord(t *testing.T) {
	chain := audit.New()
	q := New(Config{MaxCount: 10, EvictionPolicy: PolicyPriority}, chain, nil)

	ev := newEvidence(t, "spam", scent.SeverityLow, 1)
	r := q.Submit(ev)
	require.True(t, r.Admitted)

	ok := q.Evacuate(r.Signature, "s3://bucket/key", nil)
	require.True(t, ok)
	require.Equal(t, 1, chain.Len())
	require.Equal(t, 0, q.Stats().Count)

	_, found := q.Get(r.Signature)
	require.False(t, found)
}

func TestSignaturesListsInInsertionOrder(t *testing.T) {
	q := New(Config{MaxCount: 10, EvictionPolicy: PolicyPriority}, audit.New(), nil)

	a := newEvidence(t, "spam", scent.SeverityLow, 1)
	b := newEvidence(t, "flood", scent.SeverityLow, 2)
	q.Submit(a)
	q.Submit(b)

	sigs := q.Signatures(0)
	require.Equal(t, []canonical.Signature{a.Signature(), b.Signature()}, sigs)

	limited := q.Signatures(1)
	require.Equal(t, []canonical.Signature{a.Signature()}, limited)
}
