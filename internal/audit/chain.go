// Package audit implements the append-only, hash-linked log of destructive
// actions (neutralizations and evacuations) performed on quarantined
// evidence. The chain provides integrity, not authentication — it is never
// cryptographically signed, only hash-linked.
package audit

import (
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/scentguard/scentguard/internal/canonical"
)

// GenesisHash is the 64-character hex zero the first record's
// PreviousHash must equal.
var GenesisHash = strings.Repeat("0", 64)

// RecordType is the closed set of audit record kinds.
type RecordType string

const (
	TypeNeutralization RecordType = "neutralization"
	TypeEvacuation     RecordType = "evacuation"
)

// Record is a single append-only entry in the chain.
type Record struct {
	ID           string
	Type         RecordType
	Signature    canonical.Signature
	Timestamp    int64
	PreviousHash string
	Hash         string
}

// Input is the caller-supplied content of a new record; ID, PreviousHash,
// and Hash are computed by the chain itself.
type Input struct {
	Type      RecordType
	Signature canonical.Signature
	Timestamp int64
}

// Chain is a process-local, in-memory, append-only hash-linked log. All
// data-path methods are non-suspending: append takes a single mutex and
// does no I/O.
type Chain struct {
	mu       sync.Mutex
	records  []Record
	lastHash string
}

// New builds an empty chain whose head is the genesis hash.
func New() *Chain {
	return &Chain{lastHash: GenesisHash}
}

// LastHash returns the current chain head.
func (c *Chain) LastHash() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastHash
}

// Append computes the record's hash over {id, signature, timestamp,
// previousHash}, stores it, advances the head, and returns the stored
// record.
func (c *Chain) Append(in Input) Record {
	c.mu.Lock()
	defer c.mu.Unlock()

	id := uuid.NewString()
	prev := c.lastHash
	h := recordHash(id, in.Signature, in.Timestamp, prev)

	rec := Record{
		ID:           id,
		Type:         in.Type,
		Signature:    in.Signature,
		Timestamp:    in.Timestamp,
		PreviousHash: prev,
		Hash:         h,
	}
	c.records = append(c.records, rec)
	c.lastHash = h
	return rec
}

// Verify walks the log from genesis: each record's PreviousHash must equal
// the previous record's Hash (or genesis for the first record), and each
// record's Hash must equal the recomputation over {id, signature,
// timestamp, previousHash}. Tampering with ID, Signature, Timestamp,
// PreviousHash, or Hash of any stored record breaks Verify; Type is not
// covered by the hash, so a changed Type is not detected.
func (c *Chain) Verify() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	prev := GenesisHash
	for _, rec := range c.records {
		if rec.PreviousHash != prev {
			return false
		}
		want := recordHash(rec.ID, rec.Signature, rec.Timestamp, rec.PreviousHash)
		if want != rec.Hash {
			return false
		}
		prev = rec.Hash
	}
	return true
}

// Export returns a defensive copy of every stored record in append order.
func (c *Chain) Export() []Record {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Record, len(c.records))
	copy(out, c.records)
	return out
}

// Len reports the number of stored records.
func (c *Chain) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.records)
}

func recordHash(id string, sig canonical.Signature, ts int64, previousHash string) string {
	payload := map[string]any{
		"id":           id,
		"signature":    string(sig),
		"timestamp":    float64(ts),
		"previousHash": previousHash,
	}
	res, err := canonical.Encode(payload, 0)
	if err != nil {
		// The shape above is always representable; this would indicate a
		// programming error in the fields we feed it, not bad input.
		panic("audit: canonical encode of record fields failed: " + err.Error())
	}
	return canonical.Hash(res.Bytes)
}
