package aor

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestConsumeWithoutCommitIsSilentAndCountsUnderrun(t *testing.T) {
	r := New(4)
	out := make([]float32, 8)
	for i := range out {
		out[i] = 1 // poison so we can tell it was zeroed
	}
	r.Consume(out)
	for _, v := range out {
		require.Equal(t, float32(0), v)
	}
	require.Equal(t, uint64(1), r.Underruns())
}

func TestCommitThenConsumeRoundTrips(t *testing.T) {
	r := New(4)
	buf := r.AcquireWrite()
	for i := range buf {
		buf[i] = float32(i) + 1
	}
	r.CommitWrite()

	out := make([]float32, 8)
	r.Consume(out)
	for i, v := range out {
		require.Equal(t, float32(i)+1, v)
	}
	require.Equal(t, uint64(0), r.Underruns())
}

func TestOverwriteOnStallKeepsFreshestBlock(t *testing.T) {
	r := New(4)

	buf := r.AcquireWrite()
	for i := range buf {
		buf[i] = 1
	}
	r.CommitWrite()

	buf2 := r.AcquireWrite()
	for i := range buf2 {
		buf2[i] = 2
	}
	r.CommitWrite()

	out := make([]float32, 8)
	r.Consume(out)
	for _, v := range out {
		require.Equal(t, float32(2), v)
	}
}

func TestSecondConsumeWithoutNewCommitIsSilent(t *testing.T) {
	r := New(4)
	buf := r.AcquireWrite()
	for i := range buf {
		buf[i] = 5
	}
	r.CommitWrite()

	out := make([]float32, 8)
	r.Consume(out)
	r.Consume(out)
	for _, v := range out {
		require.Equal(t, float32(0), v)
	}
	require.Equal(t, uint64(1), r.Underruns())
}
