package evidence

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/scentguard/scentguard/internal/codec"
	"github.com/scentguard/scentguard/internal/errcodes"
	"github.com/scentguard/scentguard/internal/scent"
)

func newTestEvidence(t *testing.T) *Evidence {
	t.Helper()
	f := &Factory{Now: func() int64 { return 1000 }}
	res, err := f.Create(scent.Scent{Payload: map[string]any{"a": 1}},
		scent.Threat{Category: scent.CategoryInjection, Severity: scent.SeverityHigh}, 0)
	require.Nil(t, err)
	return res.Evidence
}

func TestTransferConsumesExactlyOnce(t *testing.T) {
	ev := newTestEvidence(t)
	b, err := ev.Transfer()
	require.Nil(t, err)
	require.NotEmpty(t, b)
	require.True(t, ev.Disposed())

	_, err = ev.Transfer()
	require.NotNil(t, err)
	require.Equal(t, errcodes.EvidenceAlreadyDisposed, err.Code)
}

func TestNeutralizeSnapshotsThenDisposes(t *testing.T) {
	ev := newTestEvidence(t)
	rec, err := ev.Neutralize("prevhash")
	require.Nil(t, err)
	require.Equal(t, "neutralized", rec.Status)
	require.Equal(t, "prevhash", rec.PreviousHash)
	require.Equal(t, ev.Signature(), rec.Signature)
	require.True(t, ev.Disposed())

	_, err = ev.Bytes()
	require.NotNil(t, err)
	require.Equal(t, errcodes.EvidenceAlreadyDisposed, err.Code)
}

func TestEvacuateReturnsBytesAndCompressedFlag(t *testing.T) {
	hot, buildErr := codec.NewHotCodec(3)
	require.NoError(t, buildErr)
	defer hot.Close()

	f := &Factory{Codec: hot, Now: func() int64 { return 1000 }}
	created, err := f.Create(scent.Scent{Payload: map[string]any{"a": 1}},
		scent.Threat{Category: scent.CategoryMalware, Severity: scent.SeverityCritical}, 0)
	require.Nil(t, err)
	require.True(t, created.Compressed)

	rec, payload, evErr := created.Evidence.Evacuate("s3://bucket/key")
	require.Nil(t, evErr)
	require.True(t, rec.Compressed)
	require.NotEmpty(t, payload)
	require.Equal(t, "s3://bucket/key", rec.Destination)

	_, _, evErr = created.Evidence.Evacuate("s3://bucket/key")
	require.NotNil(t, evErr)
	require.Equal(t, errcodes.EvidenceAlreadyDisposed, evErr.Code)
}
