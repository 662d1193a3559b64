// Package canonical implements the deterministic JSON-equivalent byte
// encoding the rest of the system hashes and signs: map keys sorted
// lexicographically at every depth, arrays order-preserving, no whitespace,
// and a size-first rejection policy so oversized payloads never reach the
// hasher.
package canonical

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/scentguard/scentguard/internal/errcodes"
)

// Result is the outcome of a successful Encode.
type Result struct {
	Bytes     []byte
	Size      int
	Canonical bool // always true on success; kept for wire parity with the spec shape
}

// EstimateSize is the fast, conservative, non-authoritative size estimator
// described in the spec: twice a rough JSON-length guess. It exists only to
// let a caller reject very large payloads before paying for a full encode;
// it must never gate admission on its own.
func EstimateSize(payload any) int {
	b, err := json.Marshal(payload)
	if err != nil {
		return 0
	}
	return len(b) * 2
}

// Encode produces the canonical byte form of payload, rejecting
// unrepresentable shapes before serialization and enforcing maxSize on the
// final encoded byte length (never an intermediate string length).
func Encode(payload any, maxSize int) (Result, *errcodes.Error) {
	var buf bytes.Buffer
	seen := make(map[any]bool)
	if err := encodeValue(&buf, payload, seen); err != nil {
		return Result{}, err
	}
	b := buf.Bytes()
	if maxSize > 0 && len(b) > maxSize {
		return Result{}, errcodes.New(errcodes.PayloadTooLarge,
			fmt.Sprintf("encoded payload is %d bytes, limit is %d", len(b), maxSize), false)
	}
	return Result{Bytes: b, Size: len(b), Canonical: true}, nil
}

func encodeValue(buf *bytes.Buffer, v any, seen map[any]bool) *errcodes.Error {
	switch x := v.(type) {
	case nil:
		buf.WriteString("null")
		return nil
	case bool:
		if x {
			buf.WriteString("true")
		} else {
			buf.WriteString("false")
		}
		return nil
	case string:
		return encodeString(buf, x)
	case float64:
		return encodeFloat(buf, x)
	case float32:
		return encodeFloat(buf, float64(x))
	case int:
		buf.WriteString(strconv.Itoa(x))
		return nil
	case int32:
		buf.WriteString(strconv.FormatInt(int64(x), 10))
		return nil
	case int64:
		buf.WriteString(strconv.FormatInt(x, 10))
		return nil
	case uint:
		buf.WriteString(strconv.FormatUint(uint64(x), 10))
		return nil
	case uint64:
		buf.WriteString(strconv.FormatUint(x, 10))
		return nil
	case json.Number:
		return encodeJSONNumber(buf, x)
	case []any:
		return encodeArray(buf, x, seen)
	case map[string]any:
		return encodeObject(buf, x, seen)
	default:
		return errcodes.New(errcodes.SerializationFailed,
			fmt.Sprintf("unrepresentable payload value of type %T", v), false)
	}
}

func encodeString(buf *bytes.Buffer, s string) *errcodes.Error {
	b, err := json.Marshal(s)
	if err != nil {
		return errcodes.New(errcodes.SerializationFailed, "string could not be encoded", false)
	}
	buf.Write(b)
	return nil
}

func encodeFloat(buf *bytes.Buffer, f float64) *errcodes.Error {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return errcodes.New(errcodes.SerializationFailed, "NaN and Infinity are not representable", false)
	}
	buf.WriteString(strconv.FormatFloat(f, 'g', -1, 64))
	return nil
}

// encodeJSONNumber rejects arbitrary-precision integers that don't fit a
// float64 round-trip, matching the spec's "arbitrary-precision integers"
// rejection.
func encodeJSONNumber(buf *bytes.Buffer, n json.Number) *errcodes.Error {
	f, err := n.Float64()
	if err != nil {
		return errcodes.New(errcodes.SerializationFailed, "arbitrary-precision numbers are not representable", false)
	}
	if s := n.String(); !strings.ContainsAny(s, ".eE") && strconv.FormatFloat(f, 'f', -1, 64) != s {
		return errcodes.New(errcodes.SerializationFailed, "arbitrary-precision numbers are not representable", false)
	}
	return encodeFloat(buf, f)
}

func encodeArray(buf *bytes.Buffer, arr []any, seen map[any]bool) *errcodes.Error {
	buf.WriteByte('[')
	for i, item := range arr {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := encodeValue(buf, item, seen); err != nil {
			return err
		}
	}
	buf.WriteByte(']')
	return nil
}

func encodeObject(buf *bytes.Buffer, obj map[string]any, seen map[any]bool) *errcodes.Error {
	key := objectIdentity(obj)
	if seen[key] {
		return errcodes.New(errcodes.SerializationFailed, "circular reference detected", false)
	}
	seen[key] = true
	defer delete(seen, key)

	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	buf.WriteByte('{')
	for i, k := range keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := encodeString(buf, k); err != nil {
			return err
		}
		buf.WriteByte(':')
		if err := encodeValue(buf, obj[k], seen); err != nil {
			return err
		}
	}
	buf.WriteByte('}')
	return nil
}
