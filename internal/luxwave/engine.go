// Package luxwave implements the polyphonic photo-wavetable synthesizer:
// up to 8 MIDI-driven voices that scan the current image line as a
// one-period wavetable, each with independent volume/filter ADSR
// envelopes, a shared vibrato LFO and a per-voice lowpass filter.
package luxwave

import (
	"math"
	"sync/atomic"

	"github.com/Ondulab/sp3ctra/internal/adsr"
	"github.com/Ondulab/sp3ctra/internal/params"
)

const voiceCount = 8

// Config carries the LuxWave-relevant subset of the parameter store.
type Config struct {
	SampleRate float32

	VolumeTimes adsr.Times
	FilterTimes adsr.Times

	VibratoRateHz  float32
	VibratoDepthSt float32

	FilterCutoffHz  float32
	FilterEnvDepth  float32

	Amplitude float32
}

// Engine owns the fixed voice pool and the setters MIDI CCs write into.
// All setters are single atomic field writes, RT-safe per spec §4.4.
type Engine struct {
	cfg Config

	voices       [voiceCount]*voice
	nextTrigger  uint64

	scanMode      atomic.Int32
	interpolation atomic.Int32
	masterAmp     atomic.Uint32 // float32 bits

	lfoPhase float64

	filterCutoffBits atomic.Uint32
	filterEnvDepthBits atomic.Uint32
	vibratoDepthBits atomic.Uint32
}

// New builds an engine with a fixed 8-voice pool.
func New(cfg Config) *Engine {
	e := &Engine{cfg: cfg}
	for i := range e.voices {
		e.voices[i] = newVoice(cfg.SampleRate, cfg.VolumeTimes, cfg.FilterTimes)
	}
	e.masterAmp.Store(math.Float32bits(cfg.Amplitude))
	e.filterCutoffBits.Store(math.Float32bits(cfg.FilterCutoffHz))
	e.filterEnvDepthBits.Store(math.Float32bits(cfg.FilterEnvDepth))
	e.vibratoDepthBits.Store(math.Float32bits(cfg.VibratoDepthSt))
	return e
}

// NoteOn implements spec §4.4 voice allocation: pick the lowest-indexed
// free voice, or steal the one with the smallest trigger_order.
func (e *Engine) NoteOn(note, velocity uint8) {
	var target *voice
	oldestOrder := ^uint64(0)
	oldestIdx := -1

	for i, v := range e.voices {
		if !v.active {
			target = v
			break
		}
		if v.triggerOrder < oldestOrder {
			oldestOrder = v.triggerOrder
			oldestIdx = i
		}
	}
	if target == nil {
		target = e.voices[oldestIdx]
	}

	e.nextTrigger++
	target.noteOn(note, velocity, e.nextTrigger)
}

// NoteOff releases every active voice currently playing note, starting
// their envelopes toward RELEASE.
func (e *Engine) NoteOff(note uint8) {
	for _, v := range e.voices {
		if v.active && v.midiNote == note {
			v.noteOff()
		}
	}
}

// ScanModeValue reports the currently active scan mode.
func (e *Engine) ScanModeValue() int32 { return e.scanMode.Load() }

// MasterAmplitudeValue reports the currently active master amplitude.
func (e *Engine) MasterAmplitudeValue() float32 {
	return math.Float32frombits(e.masterAmp.Load())
}

// SetScanMode is CC1's handler.
func (e *Engine) SetScanMode(m ScanMode) { e.scanMode.Store(int32(m)) }

// SetInterpolation is CC74's handler.
func (e *Engine) SetInterpolation(i Interpolation) { e.interpolation.Store(int32(i)) }

// SetMasterAmplitude is CC7's handler.
func (e *Engine) SetMasterAmplitude(a float32) { e.masterAmp.Store(math.Float32bits(a)) }

// SetFilterCutoff updates the base lowpass cutoff from a parameter edit.
func (e *Engine) SetFilterCutoff(hz float32) { e.filterCutoffBits.Store(math.Float32bits(hz)) }

// SetFilterEnvDepth updates the filter envelope's modulation depth.
func (e *Engine) SetFilterEnvDepth(hz float32) { e.filterEnvDepthBits.Store(math.Float32bits(hz)) }

// SetVibratoDepth updates the vibrato depth in semitones.
func (e *Engine) SetVibratoDepth(semitones float32) {
	e.vibratoDepthBits.Store(math.Float32bits(semitones))
}

// HandleCC dispatches the fully specified CC table from spec §4.4.
func (e *Engine) HandleCC(cc, value uint8) {
	switch cc {
	case 1:
		e.SetScanMode(ScanModeFromCC(value))
	case 7:
		e.SetMasterAmplitude(float32(value) / 127)
	case 74:
		e.SetInterpolation(InterpolationFromCC(value))
	}
}

// applyParams pulls the parameter-store fields this engine does not
// already own through a MIDI CC (vibrato rate/depth and filter
// cutoff/envelope depth have no CC in the fully specified table, so the
// store is their only live control path). Scan mode, interpolation and
// master amplitude stay MIDI-owned via HandleCC and are never
// overwritten here.
func (e *Engine) applyParams(snap params.Snapshot) {
	e.cfg.VibratoRateHz = snap.LuxwaveVibratoRateHz
	e.vibratoDepthBits.Store(math.Float32bits(snap.LuxwaveVibratoDepthSt))
	e.filterCutoffBits.Store(math.Float32bits(snap.LuxwaveFilterCutoffHz))
	e.filterEnvDepthBits.Store(math.Float32bits(snap.LuxwaveFilterEnvDepth))
}

// Render sums all active voices into outL/outR (mono-summed per spec
// §4.4 step 7; stereo widening happens in the output mixer, not here).
// snap is the parameter store's current block snapshot (spec §4.9).
func (e *Engine) Render(line []byte, outL, outR []float32, snap params.Snapshot) {
	e.applyParams(snap)

	mode := ScanMode(e.scanMode.Load())
	interp := Interpolation(e.interpolation.Load())
	amp := math.Float32frombits(e.masterAmp.Load())
	cutoff := math.Float32frombits(e.filterCutoffBits.Load())
	envDepth := math.Float32frombits(e.filterEnvDepthBits.Load())
	vibratoDepth := math.Float32frombits(e.vibratoDepthBits.Load())

	lfoInc := float64(e.cfg.VibratoRateHz) / float64(e.cfg.SampleRate)

	for n := range outL {
		lfoSine := float32(math.Sin(2 * math.Pi * e.lfoPhase))
		e.lfoPhase += lfoInc
		if e.lfoPhase >= 1 {
			e.lfoPhase -= math.Floor(e.lfoPhase)
		}

		var mix float32
		for _, v := range e.voices {
			mix += v.tick(line, mode, interp, lfoSine, vibratoDepth, e.cfg.SampleRate, cutoff, envDepth)
		}
		mix *= amp
		outL[n] = mix
		outR[n] = mix
	}
}
