package canonical

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGenerateProducesCategoryColonHexShape(t *testing.T) {
	sig, res, err := Generate("injection", map[string]any{"a": 1}, 0)
	require.Nil(t, err)
	require.Nil(t, Validate(sig))
	require.NotEmpty(t, res.Bytes)
	require.Regexp(t, `^injection:[0-9a-f]{64}$`, string(sig))
}

func TestValidateRejectsMalformedSignatures(t *testing.T) {
	cases := []Signature{
		"",
		"injection",
		"injection:short",
		"Injection:0000000000000000000000000000000000000000000000000000000000000000",
	}
	for _, c := range cases {
		require.NotNil(t, Validate(c), "expected %q to be invalid", c)
	}
}

func TestEqualIsConstantTimeAndSymmetric(t *testing.T) {
	a := Signature("injection:" + repeatHex("a"))
	b := Signature("injection:" + repeatHex("a"))
	c := Signature("injection:" + repeatHex("b"))
	require.True(t, Equal(a, b))
	require.True(t, Equal(b, a))
	require.False(t, Equal(a, c))
}

func repeatHex(ch string) string {
	out := ""
	for i := 0; i < 64; i++ {
		out += ch
	}
	return out
}
