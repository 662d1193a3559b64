package canonical

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/scentguard/scentguard/internal/errcodes"
)

func TestEncodeSortsMapKeysAtEveryDepth(t *testing.T) {
	payload := map[string]any{
		"z": 1,
		"a": map[string]any{"y": 2, "b": 3},
	}
	res, err := Encode(payload, 0)
	require.Nil(t, err)
	require.Equal(t, `{"a":{"b":3,"y":2},"z":1}`, string(res.Bytes))
}

func TestEncodeIsDeterministicAcrossCalls(t *testing.T) {
	payload := map[string]any{"c": 1, "a": 2, "b": 3}
	first, err := Encode(payload, 0)
	require.Nil(t, err)
	second, err := Encode(payload, 0)
	require.Nil(t, err)
	require.Equal(t, first.Bytes, second.Bytes)
}

func TestEncodePreservesArrayOrder(t *testing.T) {
	res, err := Encode([]any{3, 1, 2}, 0)
	require.Nil(t, err)
	require.Equal(t, `[3,1,2]`, string(res.Bytes))
}

func TestEncodeRejectsNaNAndInfinity(t *testing.T) {
	_, err := Encode(map[string]any{"v": nan()}, 0)
	require.NotNil(t, err)
	require.Equal(t, errcodes.SerializationFailed, err.Code)

	_, err = Encode(map[string]any{"v": inf()}, 0)
	require.NotNil(t, err)
	require.Equal(t, errcodes.SerializationFailed, err.Code)
}

func TestEncodeRejectsCircularReference(t *testing.T) {
	obj := map[string]any{"a": 1}
	obj["self"] = obj
	_, err := Encode(obj, 0)
	require.NotNil(t, err)
	require.Equal(t, errcodes.SerializationFailed, err.Code)
}

func TestEncodeRejectsUnrepresentableType(t *testing.T) {
	_, err := Encode(map[string]any{"v": make(chan int)}, 0)
	require.NotNil(t, err)
	require.Equal(t, errcodes.SerializationFailed, err.Code)
}

func TestEncodeChecksFinalByteSizeNotIntermediateLength(t *testing.T) {
	// A single multi-byte rune makes the encoded byte count larger than the
	// character count; the final encoded byte count is what must gate
	// admission.
	payload := map[string]any{"v": "é"}
	res, err := Encode(payload, 0)
	require.Nil(t, err)

	_, sizeErr := Encode(payload, len(res.Bytes)-1)
	require.NotNil(t, sizeErr)
	require.Equal(t, errcodes.PayloadTooLarge, sizeErr.Code)

	_, sizeErr = Encode(payload, len(res.Bytes))
	require.Nil(t, sizeErr)
}

func TestEstimateSizeIsNonAuthoritative(t *testing.T) {
	n := EstimateSize(map[string]any{"a": "b"})
	require.Greater(t, n, 0)
}

func nan() float64 { return zero() / zero() }
func inf() float64 { return 1 / zero() }
func zero() float64 { return 0 }
