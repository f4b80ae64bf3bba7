// Package pangains implements the lock-free, double-buffered per-note
// stereo gain table shared between the preprocessor (writer) and the
// LuxStral renderer (reader).
package pangains

import (
	"math"
	"sync/atomic"
)

// Table holds an N-length pair of constant-power stereo gains, published
// by copy-on-write so a reader's single pointer load yields a consistent
// left/right pair — never a mixture of two updates.
type Table struct {
	buffers [2]snapshot
	active  atomic.Pointer[snapshot]
	nextIdx int // owned by the writer only
}

type snapshot struct {
	left  []float32
	right []float32
}

// New allocates a table for n notes, both generations pre-sized so the
// writer never allocates on a steady-state update.
func New(n int) *Table {
	t := &Table{
		buffers: [2]snapshot{
			{left: make([]float32, n), right: make([]float32, n)},
			{left: make([]float32, n), right: make([]float32, n)},
		},
	}
	t.active.Store(&t.buffers[0])
	t.nextIdx = 1
	return t
}

// Snapshot is the read-side view: one atomic load gives a matched left and
// right slice, safe to index without re-loading.
type Snapshot struct {
	Left  []float32
	Right []float32
}

// Load performs the single pointer load a reader should do once per
// block.
func (t *Table) Load() Snapshot {
	s := t.active.Load()
	return Snapshot{Left: s.left, Right: s.right}
}

// Publish writes a full new left/right pair into the inactive buffer and
// atomically swaps it in. left and right must both have length N; the
// caller computed them (e.g. from pan positions) before calling Publish.
func (t *Table) Publish(left, right []float32) {
	next := &t.buffers[t.nextIdx]
	copy(next.left, left)
	copy(next.right, right)
	t.active.Store(next)
	t.nextIdx = 1 - t.nextIdx
}

// ConstantPowerGains computes the constant-power pan law of spec §4.2:
// left = cos(pi/4 * (p+1)), right = sin(pi/4 * (p+1)), with an optional
// center boost applied when |p| is within centerThreshold.
func ConstantPowerGains(p float32, centerThreshold, centerBoost float32) (left, right float32) {
	const piOver4 = math.Pi / 4
	angle := piOver4 * (float64(p) + 1)
	left = float32(math.Cos(angle))
	right = float32(math.Sin(angle))
	if centerThreshold > 0 {
		abs := p
		if abs < 0 {
			abs = -abs
		}
		if abs < centerThreshold {
			left *= centerBoost
			right *= centerBoost
		}
	}
	return left, right
}

// LinearGains is the alternative linear pan law named in spec §4.2.
func LinearGains(p float32) (left, right float32) {
	left = (1 - p) / 2
	right = (1 + p) / 2
	return left, right
}
