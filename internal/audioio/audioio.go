// Package audioio abstracts the platform audio sink behind a narrow
// interface; platform backend selection is explicitly out of scope for
// the core (spec §1), so callers choose a concrete backend via build
// tags exactly as the teacher's audio_backend_*.go files do.
package audioio

// Source is anything that can fill one interleaved stereo float32 block
// on demand — normally the root Engine's mixed AOR output.
type Source interface {
	// NextBlock fills out (length blockLen*2, interleaved L/R) with the
	// next block of audio. Called from the platform audio thread; it
	// must never block or allocate.
	NextBlock(out []float32)
}

// Player is an open platform audio output stream.
type Player interface {
	Close() error
}
