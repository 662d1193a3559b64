package audit

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/scentguard/scentguard/internal/canonical"
)

func TestNewChainHeadIsGenesisHash(t *testing.T) {
	c := New()
	require.Equal(t, GenesisHash, c.LastHash())
	require.Len(t, GenesisHash, 64)
}

func TestAppendLinksEachRecordToThePrevious(t *testing.T) {
	c := New()
	first := c.Append(Input{Type: TypeNeutralization, Signature: canonical.Signature("a:1"), Timestamp: 1})
	require.Equal(t, GenesisHash, first.PreviousHash)

	second := c.Append(Input{Type: TypeEvacuation, Signature: canonical.Signature("b:2"), Timestamp: 2})
	require.Equal(t, first.Hash, second.PreviousHash)
	require.True(t, c.Verify())
	require.Equal(t, 2, c.Len())
}

func TestVerifyUnaffectedByMutatingExportedCopy(t *testing.T) {
	c := New()
	c.Append(Input{Type: TypeNeutralization, Signature: canonical.Signature("a:1"), Timestamp: 1})
	c.Append(Input{Type: TypeNeutralization, Signature: canonical.Signature("b:2"), Timestamp: 2})
	require.True(t, c.Verify())

	records := c.Export()
	records[0].Timestamp = 999 // Export is a defensive copy; this must not affect the chain itself.
	require.True(t, c.Verify())
}

func TestVerifyFailsWhenAStoredRecordIsMutated(t *testing.T) {
	c := New()
	c.Append(Input{Type: TypeNeutralization, Signature: canonical.Signature("a:1"), Timestamp: 1})
	c.Append(Input{Type: TypeNeutralization, Signature: canonical.Signature("b:2"), Timestamp: 2})
	require.True(t, c.Verify())

	c.records[0].Timestamp++
	require.False(t, c.Verify())
}

func TestExportReturnsRecordsInAppendOrder(t *testing.T) {
	c := New()
	c.Append(Input{Type: TypeNeutralization, Signature: canonical.Signature("a:1"), Timestamp: 1})
	c.Append(Input{Type: TypeNeutralization, Signature: canonical.Signature("b:2"), Timestamp: 2})

	records := c.Export()
	require.Len(t, records, 2)
	require.Equal(t, canonical.Signature("a:1"), records[0].Signature)
	require.Equal(t, canonical.Signature("b:2"), records[1].Signature)
}
