package ldb

import (
	"testing"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestWriteFragmentCompletesInOrder(t *testing.T) {
	const pixels = 16
	const fragSize = 4
	const totalFrags = pixels / fragSize

	d := New(pixels)
	payload := make([]byte, fragSize)
	for i := uint32(0); i < totalFrags; i++ {
		for j := range payload {
			payload[j] = byte(i)
		}
		err := d.WriteFragment(1, i, totalFrags, fragSize, payload, payload, payload)
		require.NoError(t, err)
	}

	line := d.GetReadPointers()
	require.Equal(t, byte(totalFrags-1), line.R[pixels-1])
	require.Equal(t, uint64(0), d.Stats.IncompleteLines.Load())
}

func TestWriteFragmentOutOfRangeRejected(t *testing.T) {
	d := New(16)
	payload := make([]byte, 4)
	err := d.WriteFragment(1, 10, 4, 4, payload, payload, payload)
	require.ErrorIs(t, err, ErrFragmentOutOfRange)
	require.Equal(t, uint64(1), d.Stats.DroppedFragments.Load())
}

func TestAbandonedLineNeverPublishedAndCountedIncomplete(t *testing.T) {
	const pixels = 16
	const fragSize = 4
	const totalFrags = pixels / fragSize

	d := New(pixels)
	payload := make([]byte, fragSize)

	// Write one fragment of line 1, then abandon it for line 2.
	require.NoError(t, d.WriteFragment(1, 0, totalFrags, fragSize, payload, payload, payload))
	for i := uint32(0); i < totalFrags; i++ {
		require.NoError(t, d.WriteFragment(2, i, totalFrags, fragSize, payload, payload, payload))
	}

	require.Equal(t, uint64(1), d.Stats.IncompleteLines.Load())
}

// TestFragmentReorderAndLossProperty models the property from the testable
// properties list: whatever order fragments of a single line arrive in, and
// however many lines never finish, a reader only ever observes fully
// assembled lines — the read slot is never left half-written.
func TestFragmentReorderAndLossProperty(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		const pixels = 32
		const fragSize = 8
		const totalFrags = pixels / fragSize

		d := New(pixels)

		lineCount := rapid.IntRange(1, 5).Draw(rt, "lineCount")
		var lastFullyWritten bool
		var lastLineID uint32

		for line := 0; line < lineCount; line++ {
			lineID := uint32(line + 1)
			order := rapid.Permutation(
				[]uint32{0, 1, 2, 3}[:totalFrags],
			).Draw(rt, "order")
			dropLast := rapid.Bool().Draw(rt, "dropLast")

			fragsToSend := order
			if dropLast && len(fragsToSend) > 0 {
				fragsToSend = fragsToSend[:len(fragsToSend)-1]
			}

			payload := make([]byte, fragSize)
			for _, frag := range fragsToSend {
				for j := range payload {
					payload[j] = byte(lineID)
				}
				_ = d.WriteFragment(lineID, frag, uint32(totalFrags), fragSize, payload, payload, payload)
			}

			if len(fragsToSend) == totalFrags {
				lastFullyWritten = true
				lastLineID = lineID
			} else {
				lastFullyWritten = false
			}
		}

		line := d.GetReadPointers()
		if lastFullyWritten {
			for _, b := range line.R {
				require.Equal(rt, byte(lastLineID), b)
			}
		}
	})
}
