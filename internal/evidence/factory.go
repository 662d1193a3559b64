package evidence

import (
	"fmt"

	"github.com/scentguard/scentguard/internal/canonical"
	"github.com/scentguard/scentguard/internal/codec"
	"github.com/scentguard/scentguard/internal/errcodes"
	"github.com/scentguard/scentguard/internal/scent"
)

// CreateResult is the outcome of Factory.Create.
type CreateResult struct {
	Evidence   *Evidence
	Signature  canonical.Signature
	Hash       string
	Size       int
	Compressed bool
}

// Factory turns a scent into Evidence. The order of operations is
// security-critical and must not be reordered: encode (size-first) before
// hash, hash before signature, signature before any codec runs — the
// signature is always computed over uncompressed bytes so compression can
// never influence deduplication or audit identity.
type Factory struct {
	// Codec is optional; nil means bytes are stored as-is.
	Codec codec.Encoder
	// Now returns the current time in milliseconds; overridable for tests.
	Now func() int64
}

// Create implements the five-step construction described in the
// component design: encode, hash, compose signature, optionally compress,
// construct. The constructor re-verifies hash(bytes) == hash only when the
// evidence is not compressed; for compressed evidence the hash is trusted
// against the uncompressed content as recorded.
func (f *Factory) Create(sc scent.Scent, threat scent.Threat, maxSize int) (CreateResult, *errcodes.Error) {
	res, encErr := canonical.Encode(sc.Payload, maxSize)
	if encErr != nil {
		return CreateResult{}, encErr
	}

	hash := canonical.Hash(res.Bytes)
	sig := canonical.Signature(fmt.Sprintf("%s:%s", threat.Category, hash))

	stored := res.Bytes
	compressed := false
	if f.Codec != nil {
		enc, err := f.Codec.Encode(res.Bytes)
		if err != nil {
			return CreateResult{}, errcodes.New(errcodes.Internal, "codec encode failed: "+err.Error(), true)
		}
		stored = enc
		compressed = true
	}

	if len(stored) == 0 {
		return CreateResult{}, errcodes.New(errcodes.SerializationFailed, "evidence bytes must be non-empty", false)
	}
	if !compressed {
		if got := canonical.Hash(stored); got != hash {
			return CreateResult{}, errcodes.New(errcodes.HashMismatch, "hash mismatch constructing evidence", false)
		}
	}

	ev := &Evidence{
		signature:  sig,
		hash:       hash,
		severity:   threat.Severity,
		captured:   f.nowMS(),
		bytes:      stored,
		compressed: compressed,
		now:        f.nowFn(),
	}

	return CreateResult{
		Evidence:   ev,
		Signature:  sig,
		Hash:       hash,
		Size:       len(stored),
		Compressed: compressed,
	}, nil
}

func (f *Factory) nowFn() func() int64 {
	if f.Now != nil {
		return f.Now
	}
	return defaultNow
}

func (f *Factory) nowMS() int64 {
	return f.nowFn()()
}
