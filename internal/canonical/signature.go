package canonical

import (
	"fmt"
	"regexp"

	"github.com/scentguard/scentguard/internal/errcodes"
)

// Signature is the deterministic string "<category>:<hex64>" identifying a
// scent's canonicalized payload.
type Signature string

var signaturePattern = regexp.MustCompile(`^[a-z_]+:[0-9a-f]{64}$`)

// Generate encodes payload, hashes the canonical bytes, and composes the
// signature string. The hash is always computed over the uncompressed
// canonical bytes, independent of any codec applied afterwards.
func Generate(category string, payload any, maxSize int) (Signature, Result, *errcodes.Error) {
	res, err := Encode(payload, maxSize)
	if err != nil {
		return "", Result{}, err
	}
	h := Hash(res.Bytes)
	return Signature(fmt.Sprintf("%s:%s", category, h)), res, nil
}

// Validate reports whether s has the exact "<category>:<hex64>" shape.
func Validate(s Signature) *errcodes.Error {
	if !signaturePattern.MatchString(string(s)) {
		return errcodes.New(errcodes.InvalidSignature, fmt.Sprintf("malformed signature %q", s), false)
	}
	return nil
}

// Equal compares two signatures in constant time.
func Equal(a, b Signature) bool {
	return ConstantTimeEqual(string(a), string(b))
}
