package luxwave

import (
	"math"

	"github.com/Ondulab/sp3ctra/internal/adsr"
)

const minAudible = 0.0005

// voice is one polyphonic unit. At most V=8 are active at once; trigger
// order is used to pick a voice to steal when all are busy.
type voice struct {
	active      bool
	midiNote    uint8
	velocityGain float32
	triggerOrder uint64

	phase float64
	freq  float32

	volumeEnv *adsr.Envelope
	filterEnv *adsr.Envelope

	lowpassY float32
}

func newVoice(sampleRate float32, volTimes, filterTimes adsr.Times) *voice {
	return &voice{
		volumeEnv: adsr.New(sampleRate, volTimes),
		filterEnv: adsr.New(sampleRate, filterTimes),
	}
}

// noteFrequency converts a MIDI note number to Hz using equal temperament
// with A4 (note 69) at 440 Hz.
func noteFrequency(note uint8) float32 {
	return 440 * float32(math.Pow(2, (float64(note)-69)/12))
}

func (v *voice) noteOn(note uint8, velocity uint8, order uint64) {
	v.active = true
	v.midiNote = note
	v.velocityGain = float32(velocity) / 127
	v.freq = noteFrequency(note)
	v.phase = 0
	v.triggerOrder = order
	v.lowpassY = 0
	v.volumeEnv.NoteOn()
	v.filterEnv.NoteOn()
}

func (v *voice) noteOff() {
	v.volumeEnv.NoteOff()
	v.filterEnv.NoteOff()
}

// tick renders one sample from the voice's current image-line wavetable
// and advances its phase and envelopes, per spec §4.4 steps 1-6.
func (v *voice) tick(line []byte, mode ScanMode, interp Interpolation, lfoSine float32, vibratoDepthSemitones float32, sampleRate float32, baseCutoffHz, filterEnvDepthHz float32) float32 {
	if !v.active {
		return 0
	}

	pos := scanPosition(v.phase, len(line), mode)
	raw := sampleLine(line, pos, interp)

	vibratoFactor := float32(math.Pow(2, float64(lfoSine*vibratoDepthSemitones)/12))
	v.phase += float64(v.freq*vibratoFactor) / float64(sampleRate)
	if v.phase >= 1 {
		v.phase -= math.Floor(v.phase)
	}

	volEnv := v.volumeEnv.Tick()
	filtEnv := v.filterEnv.Tick()

	cutoff := baseCutoffHz + filtEnv*filterEnvDepthHz
	if cutoff < 20 {
		cutoff = 20
	}
	if cutoff > sampleRate/2 {
		cutoff = sampleRate / 2
	}
	alpha := float32(1 - math.Exp(-2*math.Pi*float64(cutoff)/float64(sampleRate)))
	v.lowpassY += alpha * (raw - v.lowpassY)

	if volEnv*v.velocityGain < minAudible {
		if v.volumeEnv.Stage() == adsr.Idle {
			v.active = false
		}
		return 0
	}

	return v.lowpassY * volEnv * v.velocityGain
}
