//go:build !headless

// Package audioio's oto backend. Adapted from the teacher's
// audio_backend_oto.go: a player that reads from a lock-free engine
// source, converts float32 samples to the byte stream oto expects, and
// never blocks waiting on the RT producer — on underrun it simply emits
// the silence the Source itself already returns.
package audioio

import (
	"unsafe"

	"github.com/ebitengine/oto/v3"
)

// OpenOto opens the default platform output device at sampleRate with 2
// channels, streaming float32 samples pulled from src.
func OpenOto(sampleRate int, blockLen int, src Source) (Player, error) {
	ctx, ready, err := oto.NewContext(&oto.NewContextOptions{
		SampleRate:   sampleRate,
		ChannelCount: 2,
		Format:       oto.FormatFloat32LE,
	})
	if err != nil {
		return nil, err
	}
	<-ready

	reader := &otoReader{src: src, scratch: make([]float32, blockLen*2)}
	player := ctx.NewPlayer(reader)
	player.Play()

	return &otoPlayer{player: player}, nil
}

type otoPlayer struct {
	player *oto.Player
}

func (p *otoPlayer) Close() error {
	return p.player.Close()
}

// otoReader adapts Source (float32 block pull) to io.Reader (byte
// stream), matching the teacher's byte-copy-via-unsafe-pointer trick in
// audio_backend_oto.go rather than looping per-sample encoding.
type otoReader struct {
	src     Source
	scratch []float32
}

func (r *otoReader) Read(p []byte) (int, error) {
	floatsNeeded := len(p) / 4
	if floatsNeeded > len(r.scratch) {
		floatsNeeded = len(r.scratch)
	}
	r.src.NextBlock(r.scratch[:floatsNeeded])

	n := floatsNeeded * 4
	src := unsafe.Slice((*byte)(unsafe.Pointer(&r.scratch[0])), n)
	copy(p, src)
	return n, nil
}
