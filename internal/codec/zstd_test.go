package codec

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestColdCodecRoundTrips(t *testing.T) {
	c, err := NewColdCodec(3)
	require.NoError(t, err)
	defer c.Close()

	original := []byte(`{"a":1,"b":[1,2,3]}`)
	encoded, err := c.Encode(original)
	require.NoError(t, err)
	require.NotEqual(t, original, encoded)

	decoded, err := c.Decode(encoded)
	require.NoError(t, err)
	require.Equal(t, original, decoded)
}

func TestHotCodecEncodesWithoutExposingDecode(t *testing.T) {
	c, err := NewHotCodec(3)
	require.NoError(t, err)
	defer c.Close()

	encoded, err := c.Encode([]byte("payload"))
	require.NoError(t, err)
	require.NotEmpty(t, encoded)
	// HotCodec has no Decode method at the Go type level; it does not
	// satisfy the Decoder interface, only Encoder.
	var _ Encoder = c
}

func TestNoCodecReturnsInputUnchanged(t *testing.T) {
	c := NoCodec{}
	in := []byte("payload")
	out, err := c.Encode(in)
	require.NoError(t, err)
	require.Equal(t, in, out)
}
