// Package ldb implements the line double-buffer: it reassembles image
// lines that arrive as fragments and exposes the most recently completed
// line to any number of lock-free readers.
//
// Ownership follows spec §5's shared-resource policy: the in-progress
// assembly state (current line id, fragment bitset) is owned exclusively
// by the single writer goroutine. Readers only ever touch the published
// read slot, which a writer never mutates.
package ldb

import (
	"errors"
	"sync/atomic"

	"github.com/Ondulab/sp3ctra/internal/imageline"
)

// ErrBusyWriter is returned by StartWrite when a writer already holds the
// write slot — the expected case is a single writer, so this signals a
// caller bug rather than routine contention.
var ErrBusyWriter = errors.New("ldb: writer already active")

// ErrFragmentOutOfRange is returned (and the fragment dropped by callers)
// when a fragment index or size would overflow the line buffer.
var ErrFragmentOutOfRange = errors.New("ldb: fragment out of range")

// Stats holds receive-side counters safe to read concurrently with
// ingestion. They exist purely for telemetry; nothing on the hot read
// path touches them.
type Stats struct {
	IncompleteLines  atomic.Uint64
	DroppedFragments atomic.Uint64
}

// DoubleBuffer reassembles fragmented lines into one of two slots and
// atomically publishes the completed slot to readers.
type DoubleBuffer struct {
	pixelCount int
	slots      [2]imageline.Line

	// readIdx is the index of the slot currently exposed to readers.
	// Writer publishes by storing into it with release semantics
	// (Go's atomic Store already provides that); readers Load it once
	// per access with acquire semantics.
	readIdx atomic.Uint32

	// writerBusy guards StartWrite/CompleteWrite pairing.
	writerBusy atomic.Bool

	// Assembly state — owned exclusively by the writer goroutine.
	currentLineID  uint32
	haveLineID     bool
	totalFragments uint32
	fragmentSize   uint32
	received       []bool
	receivedCount  uint32

	Stats Stats
}

// New creates a double buffer sized for lines of pixelCount bytes per
// channel, with both slots pre-allocated so no hot-path allocation is
// ever needed.
func New(pixelCount int) *DoubleBuffer {
	d := &DoubleBuffer{
		pixelCount: pixelCount,
		slots:      [2]imageline.Line{imageline.New(pixelCount), imageline.New(pixelCount)},
	}
	return d
}

// StartWrite acquires exclusive write access to the non-read slot. It
// fails with ErrBusyWriter if a concurrent writer already holds it.
func (d *DoubleBuffer) StartWrite() (*imageline.Line, error) {
	if !d.writerBusy.CompareAndSwap(false, true) {
		return nil, ErrBusyWriter
	}
	writeIdx := 1 - d.readIdx.Load()
	return &d.slots[writeIdx], nil
}

// CompleteWrite promotes the writer's slot to be the new read slot. It
// must only be called after a full, valid line has been written, and
// only following a successful StartWrite.
func (d *DoubleBuffer) CompleteWrite() {
	writeIdx := 1 - d.readIdx.Load()
	d.readIdx.Store(writeIdx)
	d.writerBusy.Store(false)
}

// AbortWrite releases the write slot without publishing it — used when an
// in-progress line is discarded (line id changed before completion).
func (d *DoubleBuffer) AbortWrite() {
	d.writerBusy.Store(false)
}

// GetReadPointers returns pointers that remain valid until the next call:
// no blocking, no allocation.
func (d *DoubleBuffer) GetReadPointers() *imageline.Line {
	idx := d.readIdx.Load()
	return &d.slots[idx]
}

// PixelCount reports P, the configured line length.
func (d *DoubleBuffer) PixelCount() int {
	return d.pixelCount
}

// WriteFragment implements the producer algorithm of spec §4.1 on top of
// the StartWrite/CompleteWrite contract: it tracks the fragment bitset for
// the in-progress line, discards an incomplete line silently on a line id
// change, and completes the write once every fragment has arrived.
//
// Only ever called from the single network-ingestion goroutine.
func (d *DoubleBuffer) WriteFragment(lineID, fragmentID, totalFragments, fragmentSize uint32, r, g, b []byte) error {
	if fragmentID >= totalFragments {
		d.Stats.DroppedFragments.Add(1)
		return ErrFragmentOutOfRange
	}
	offset := int(fragmentID) * int(fragmentSize)
	if offset+len(r) > d.pixelCount || offset+len(g) > d.pixelCount || offset+len(b) > d.pixelCount {
		d.Stats.DroppedFragments.Add(1)
		return ErrFragmentOutOfRange
	}

	if d.haveLineID && lineID != d.currentLineID && d.receivedCount < d.totalFragments {
		// A new line started before the previous one completed: the
		// partial line is discarded, never promoted.
		d.Stats.IncompleteLines.Add(1)
		d.resetAssembly()
	}

	if !d.haveLineID || lineID != d.currentLineID {
		d.beginLine(lineID, totalFragments, fragmentSize)
	}

	slot, err := d.StartWrite()
	if err != nil {
		return err
	}
	copy(slot.R[offset:], r)
	copy(slot.G[offset:], g)
	copy(slot.B[offset:], b)

	if !d.received[fragmentID] {
		d.received[fragmentID] = true
		d.receivedCount++
	}

	if d.receivedCount >= d.totalFragments {
		d.CompleteWrite()
		d.resetAssembly()
		return nil
	}
	d.AbortWrite()
	return nil
}

func (d *DoubleBuffer) beginLine(lineID, totalFragments, fragmentSize uint32) {
	d.currentLineID = lineID
	d.haveLineID = true
	d.totalFragments = totalFragments
	d.fragmentSize = fragmentSize
	d.receivedCount = 0
	if cap(d.received) >= int(totalFragments) {
		d.received = d.received[:totalFragments]
		for i := range d.received {
			d.received[i] = false
		}
	} else {
		d.received = make([]bool, totalFragments)
	}
}

func (d *DoubleBuffer) resetAssembly() {
	d.haveLineID = false
	d.receivedCount = 0
	for i := range d.received {
		d.received[i] = false
	}
}
