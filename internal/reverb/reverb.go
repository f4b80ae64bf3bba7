// Package reverb implements a feedback-delay-network stereo reverb: 8
// prime-length delay lines each with a per-line lowpass damping stage and
// a smoothed feedback gain derived from the configured T60 decay time.
//
// Grounded on the teacher's Schroeder reverberator (4 combs + 2 allpass
// filters, prime delay lengths) in audio_chip.go, widened to an 8-line
// network and re-derived feedback gain from T60 rather than fixed decay
// constants, per spec §4.6.
package reverb

import "math"

const lineCount = 8

// primeLengths are base delay-line lengths in samples at a reference
// sample rate of 48000 Hz; they are resampled proportionally to the
// engine's actual sample rate at New, and roomsize scales the part of each
// line in use by 0.4..1.0 at every Process call.
var primeLengths = [lineCount]int{1913, 1999, 2131, 2239, 2341, 2467, 2579, 2689}

// Params mirrors the reverb section of the configuration surface.
type Params struct {
	Enabled   bool
	Roomsize  float32 // 0..1
	Damping   float32 // 0..1
	Width     float32 // 0..1
	PredelayS float32 // 0..1, predelay as a fraction of 100ms
}

type delayLine struct {
	buf      []float32
	writePos int
	lowpassY float32
}

// Reverb renders a stereo output from a stereo input, reading its
// parameters as a single snapshot per Process call so mid-block parameter
// changes never tear a line's state.
type Reverb struct {
	sampleRate float32
	lines      [lineCount]delayLine
	predelay   []float32
	predelayPos int

	feedbackGain      float32
	targetFeedbackGain float32
	feedbackSmoothCoef float32

	lowpassCoef float32
}

// New builds a reverb sized for sampleRate, with every delay line and the
// predelay buffer preallocated at their maximum configured length.
func New(sampleRate float32) *Reverb {
	r := &Reverb{sampleRate: sampleRate}
	scale := sampleRate / 48000
	for i := range r.lines {
		length := int(float32(primeLengths[i]) * scale)
		if length < 1 {
			length = 1
		}
		r.lines[i] = delayLine{buf: make([]float32, length)}
	}
	maxPredelay := int(0.1 * sampleRate)
	if maxPredelay < 1 {
		maxPredelay = 1
	}
	r.predelay = make([]float32, maxPredelay)

	// Feedback gain moves toward its target with a time constant chosen so
	// it takes ~300ms to cover 63% of the distance, avoiding zipper noise
	// on parameter changes.
	r.feedbackSmoothCoef = float32(1 - math.Exp(-1/(0.3*float64(sampleRate))))
	return r
}

// Configure recomputes the target feedback gain and lowpass coefficient
// from roomsize/damping; called whenever the parameter store publishes a
// new reverb snapshot.
func (r *Reverb) Configure(p Params) {
	t60 := 2 + p.Roomsize*6 // roomsize in [0,1] -> T60 in [2,8]s
	if t60 <= 0 {
		t60 = 2
	}
	g := float32(math.Pow(10, -3/(float64(t60)*float64(r.sampleRate))))
	if g >= 1 {
		g = math.Nextafter32(1, 0)
	}
	r.targetFeedbackGain = g

	damping := p.Damping
	if damping < 0 {
		damping = 0
	}
	if damping > 1 {
		damping = 1
	}
	r.lowpassCoef = 0.2 + damping*0.8
	if r.lowpassCoef > 1 {
		r.lowpassCoef = 1
	}
}

// Process renders blockLen stereo samples in place: inL/inR hold the dry
// signal on entry and the wet signal on return. p is read once at block
// start — including a call to Configure, so a roomsize/damping edit in a
// fresh snapshot always retargets the smoothed feedback gain and lowpass
// coefficient before this block renders, rather than only at init.
func (r *Reverb) Process(p Params, inL, inR []float32) {
	if !p.Enabled {
		return
	}

	r.Configure(p)

	predelaySamples := int(p.PredelayS * 0.1 * r.sampleRate)
	if predelaySamples >= len(r.predelay) {
		predelaySamples = len(r.predelay) - 1
	}
	if predelaySamples < 0 {
		predelaySamples = 0
	}

	const compensation = 0.25

	// roomsize shortens every line to 0.4..1.0 of its allocated length.
	room := min(max(p.Roomsize, 0), 1)
	var activeLen [lineCount]int
	for i := range r.lines {
		activeLen[i] = max(1, int(float32(len(r.lines[i].buf))*(0.4+0.6*room)))
	}

	for n := range inL {
		r.feedbackGain += (r.targetFeedbackGain - r.feedbackGain) * r.feedbackSmoothCoef

		mono := (inL[n] + inR[n]) * 0.5
		r.predelay[r.predelayPos] = mono
		readPos := r.predelayPos - predelaySamples
		if readPos < 0 {
			readPos += len(r.predelay)
		}
		delayedInput := r.predelay[readPos]
		r.predelayPos++
		if r.predelayPos >= len(r.predelay) {
			r.predelayPos = 0
		}

		var wetL, wetR float32
		for i := range r.lines {
			line := &r.lines[i]
			out := line.buf[line.writePos]
			line.lowpassY += r.lowpassCoef * (out - line.lowpassY)

			// Even-indexed lines feed the left accumulator, odd-indexed
			// feed the right, so the network yields two correlated but
			// distinct taps for mid/side reconstruction.
			if i%2 == 0 {
				wetL += line.lowpassY
			} else {
				wetR += line.lowpassY
			}

			fed := delayedInput + line.lowpassY*r.feedbackGain
			line.buf[line.writePos] = fed
			line.writePos++
			if line.writePos >= activeLen[i] {
				line.writePos = 0
			}
		}
		wetL *= compensation
		wetR *= compensation

		center := (wetL + wetR) * 0.70710678
		side := (wetL - wetR) * p.Width

		inL[n] = center + side
		inR[n] = center - side
	}
}
