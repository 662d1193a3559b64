// Package evidence implements the owned, single-consumer record produced
// from a quarantined scent, and the factory that builds one.
package evidence

import (
	"sync"

	"github.com/google/uuid"
	"github.com/scentguard/scentguard/internal/canonical"
	"github.com/scentguard/scentguard/internal/errcodes"
	"github.com/scentguard/scentguard/internal/scent"
)

// NeutralizationRecord is the destruction snapshot fed to the audit chain
// when evidence is purged in place.
type NeutralizationRecord struct {
	ID           string
	Signature    canonical.Signature
	Hash         string
	Size         int
	Status       string // always "neutralized"
	Timestamp    int64
	PreviousHash string
}

// EvacuateRecord is the destruction snapshot fed to the audit chain when
// evidence is handed off to cold storage.
type EvacuateRecord struct {
	ID          string
	Signature   canonical.Signature
	Destination string
	Timestamp   int64
	Compressed  bool
	Size        int
}

// Evidence is the owned record of a quarantined scent's bytes and metadata.
// Once the evidence has been disposed, Bytes, Transfer, Neutralize, and
// Evacuate fail; the metadata accessors (Signature, Hash, Severity,
// Captured, Compressed) and Disposed keep answering, and Size reports 0.
// Transfer, Neutralize, and Evacuate each move the contents out exactly
// once, atomically: the entire snapshot-then-drop sequence runs under mu
// with no suspension point in between.
type Evidence struct {
	mu sync.Mutex

	signature  canonical.Signature
	hash       string
	severity   scent.Severity
	captured   int64
	bytes      []byte
	compressed bool
	disposed   bool

	now func() int64
}

// Signature returns the evidence's signature. Signatures are immutable for
// the lifetime of the record, so this is safe even after disposal.
func (e *Evidence) Signature() canonical.Signature {
	return e.signature
}

// Hash returns the content hash of the uncompressed bytes.
func (e *Evidence) Hash() string {
	return e.hash
}

// Severity returns the evidence's classified severity.
func (e *Evidence) Severity() scent.Severity {
	return e.severity
}

// Captured returns the millisecond timestamp the evidence was constructed.
func (e *Evidence) Captured() int64 {
	return e.captured
}

// Compressed reports whether the stored bytes are compressed.
func (e *Evidence) Compressed() bool {
	return e.compressed
}

// Size returns the length of the currently stored bytes without consuming
// the evidence.
func (e *Evidence) Size() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.bytes)
}

// Disposed reports whether the evidence has already been consumed. It is
// the one accessor that never fails.
func (e *Evidence) Disposed() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.disposed
}

// Bytes returns the stored buffer without consuming it. Fails if disposed.
func (e *Evidence) Bytes() ([]byte, *errcodes.Error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.disposed {
		return nil, disposedErr()
	}
	return e.bytes, nil
}

// Transfer moves ownership of the buffer to the caller and marks the
// evidence disposed; subsequent calls to Bytes, Transfer, Neutralize, or
// Evacuate fail.
func (e *Evidence) Transfer() ([]byte, *errcodes.Error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.disposed {
		return nil, disposedErr()
	}
	b := e.bytes
	e.bytes = nil
	e.disposed = true
	return b, nil
}

// Neutralize atomically snapshots the record and drops the buffer,
// returning the snapshot. No suspension point appears between the
// snapshot and the drop: both happen while mu is held.
func (e *Evidence) Neutralize(previousHash string) (NeutralizationRecord, *errcodes.Error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.disposed {
		return NeutralizationRecord{}, disposedErr()
	}
	rec := NeutralizationRecord{
		ID:           uuid.NewString(),
		Signature:    e.signature,
		Hash:         e.hash,
		Size:         len(e.bytes),
		Status:       "neutralized",
		Timestamp:    e.now(),
		PreviousHash: previousHash,
	}
	e.bytes = nil
	e.disposed = true
	return rec, nil
}

// Evacuate atomically snapshots the record and drops the buffer, the same
// way Neutralize does, but produces an EvacuateRecord carrying the handoff
// destination. The caller is responsible for handing the transferred bytes
// to cold storage; Evacuate itself only disposes the evidence.
func (e *Evidence) Evacuate(destination string) (EvacuateRecord, []byte, *errcodes.Error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.disposed {
		return EvacuateRecord{}, nil, disposedErr()
	}
	out := e.bytes
	rec := EvacuateRecord{
		ID:          uuid.NewString(),
		Signature:   e.signature,
		Destination: destination,
		Timestamp:   e.now(),
		Compressed:  e.compressed,
		Size:        len(out),
	}
	e.bytes = nil
	e.disposed = true
	return rec, out, nil
}

func disposedErr() *errcodes.Error {
	return errcodes.New(errcodes.EvidenceAlreadyDisposed, "evidence already disposed", false)
}
