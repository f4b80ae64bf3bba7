// Package aor implements the audio output ring: a single-producer,
// single-consumer double buffer of interleaved stereo float32 samples
// handing synthesized blocks from a non-RT producer thread to the
// real-time audio callback without ever blocking the consumer.
package aor

import "sync/atomic"

// noReady is the sentinel "no slot published yet" value for readyIdx.
const noReady = -1

// Ring is one engine's output hand-off. The producer fills the slot it
// is not currently publishing, then atomically publishes its index; the
// consumer atomically takes whichever index is published (if any),
// drains that slot, and clears the published index back to noReady.
//
// Backpressure rule (spec §4.5): if the producer finishes a block while
// the previous one is still unconsumed, the producer publishes its new
// index anyway — freshest audio wins over delayed audio, and the stale
// slot is simply never read. If the consumer finds nothing published, it
// must emit silence and count an underrun; Ring never blocks either
// side.
type Ring struct {
	slots [2][]float32 // interleaved L/R, length blockLen*2 each

	// writeIdx is owned by the producer only.
	writeIdx int

	readyIdx atomic.Int32

	underruns atomic.Uint64
}

// New allocates a ring sized for blockLen stereo samples per slot.
func New(blockLen int) *Ring {
	r := &Ring{
		slots: [2][]float32{
			make([]float32, blockLen*2),
			make([]float32, blockLen*2),
		},
	}
	r.readyIdx.Store(noReady)
	return r
}

// AcquireWrite returns the buffer the producer should fill next: always
// the slot it is not currently publishing, so the consumer's in-flight
// read (if any) is never mutated underfoot.
func (r *Ring) AcquireWrite() []float32 {
	return r.slots[r.writeIdx]
}

// CommitWrite publishes the just-filled slot as the freshest available
// block and advances the producer to the other slot for next time.
func (r *Ring) CommitWrite() {
	r.readyIdx.Store(int32(r.writeIdx))
	r.writeIdx = 1 - r.writeIdx
}

// Consume copies the most recently published slot into out (length
// blockLen*2) and clears the published index so a stalled producer's
// next stale read never repeats. If nothing has been published since the
// last Consume, out is filled with silence and the underrun counter
// increments. Never blocks.
func (r *Ring) Consume(out []float32) {
	idx := r.readyIdx.Swap(noReady)
	if idx == noReady {
		for i := range out {
			out[i] = 0
		}
		r.underruns.Add(1)
		return
	}
	copy(out, r.slots[idx])
}

// Underruns reports the number of Consume calls that found nothing
// published.
func (r *Ring) Underruns() uint64 {
	return r.underruns.Load()
}
