// Package adsr implements the generic attack/decay/sustain/release
// envelope shared by LuxWave's volume and filter envelopes.
package adsr

import "math"

// Stage enumerates the envelope's state machine.
type Stage int

const (
	Idle Stage = iota
	Attack
	Decay
	Sustain
	Release
)

// Times configures an envelope in seconds/ratio units; Configure (called
// by New) converts these once into per-sample increments for Tick.
type Times struct {
	AttackS  float32
	DecayS   float32
	SustainLevel float32 // 0..1
	ReleaseS float32
}

// Envelope is a per-voice ADSR instance. Transition order is fixed:
// Attack -> Decay -> Sustain -> Release -> Idle; Release can be entered
// from any non-Idle stage.
type Envelope struct {
	stage   Stage
	level   float32
	sustain float32

	attackInc  float32
	decayCoef  float32
	releaseCoef float32

	sampleRate float32
}

const epsilon = 0.0001

// New builds an envelope for the given sample rate and timing.
func New(sampleRate float32, t Times) *Envelope {
	e := &Envelope{sampleRate: sampleRate}
	e.Configure(t)
	return e
}

// Configure updates timing without resetting the current stage/level —
// used when a parameter edit changes ADSR times while voices are live.
func (e *Envelope) Configure(t Times) {
	e.sustain = clamp01(t.SustainLevel)
	e.attackInc = linearIncrement(t.AttackS, e.sampleRate)
	e.decayCoef = expCoef(t.DecayS, e.sampleRate)
	e.releaseCoef = expCoef(t.ReleaseS, e.sampleRate)
}

func linearIncrement(seconds, sampleRate float32) float32 {
	if seconds <= 0 {
		return 1
	}
	return 1 / (seconds * sampleRate)
}

func expCoef(seconds, sampleRate float32) float32 {
	if seconds <= 0 {
		return 1
	}
	return float32(1 - math.Exp(-1/(float64(seconds)*float64(sampleRate))))
}

// NoteOn kicks the envelope into Attack from any stage, including a
// still-releasing one (retrigger).
func (e *Envelope) NoteOn() {
	e.stage = Attack
}

// NoteOff transitions to Release from any non-Idle stage.
func (e *Envelope) NoteOff() {
	if e.stage != Idle {
		e.stage = Release
	}
}

// Stage reports the current stage.
func (e *Envelope) Stage() Stage { return e.stage }

// Level reports the current envelope level without advancing it.
func (e *Envelope) Level() float32 { return e.level }

// Active reports whether the voice owning this envelope still needs
// processing.
func (e *Envelope) Active() bool { return e.stage != Idle }

// Tick advances the envelope by one sample and returns the new level.
func (e *Envelope) Tick() float32 {
	switch e.stage {
	case Idle:
		e.level = 0
	case Attack:
		e.level += e.attackInc
		if e.level >= 1 {
			e.level = 1
			e.stage = Decay
		}
	case Decay:
		e.level += (e.sustain - e.level) * e.decayCoef
		if absf(e.level-e.sustain) < epsilon {
			e.level = e.sustain
			e.stage = Sustain
		}
	case Sustain:
		e.level = e.sustain
	case Release:
		e.level += (0 - e.level) * e.releaseCoef
		if e.level < epsilon {
			e.level = 0
			e.stage = Idle
		}
	}
	return e.level
}

func clamp01(v float32) float32 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func absf(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}
