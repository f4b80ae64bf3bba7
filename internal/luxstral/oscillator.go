package luxstral

import (
	"math"

	"github.com/Ondulab/sp3ctra/internal/dsp"
)

const waveAmp = 1.0

// oscillator is one fixed-frequency band of the additive bank. Its table
// is built once at init and is read-only thereafter; only phase and the
// smoothed current volume change per sample.
type oscillator struct {
	freq  float32
	table []float32 // length periodLen, one period

	phase     uint32
	periodLen uint32

	attackCoef  float32
	releaseCoef float32

	current float32
}

const minPeriod = 4

// newOscillator builds the oscillator's wavetable and phase state only;
// its attack/release coefficients are left at zero and must be set via
// configureCoefs before first use, since they depend on sampleRate and
// are always recomputed from (attackS, releaseS) together.
func newOscillator(freq, sampleRate float32) oscillator {
	periodLen := uint32(math.Round(float64(sampleRate) / float64(freq)))
	if periodLen < minPeriod {
		periodLen = minPeriod
	}
	table := dsp.BuildSineTable(int(periodLen), waveAmp)

	return oscillator{
		freq:      freq,
		table:     table,
		periodLen: periodLen,
	}
}

// configureCoefs recomputes attack/release per-sample coefficients given
// time constants in seconds and the engine's sample rate, matching spec
// §4.3: alpha = 1 - exp(-1/(tau*sample_rate)).
func (o *oscillator) configureCoefs(attackS, releaseS, sampleRate float32) {
	o.attackCoef = expAlpha(attackS, sampleRate)
	o.releaseCoef = expAlpha(releaseS, sampleRate)
}

func expAlpha(tau, sampleRate float32) float32 {
	if tau <= 0 {
		return 1
	}
	return float32(1 - math.Exp(-1/(float64(tau)*float64(sampleRate))))
}

// nextSample advances the phase accumulator and returns the table value
// for the prior phase, mirroring spec step 4c: read then advance.
func (o *oscillator) nextSample() float32 {
	s := o.table[o.phase]
	o.phase++
	if o.phase >= o.periodLen {
		o.phase = 0
	}
	return s
}

// step advances the smoothed current volume one sample toward target.
func (o *oscillator) step(target float32) float32 {
	coef := o.releaseCoef
	if target > o.current {
		coef = o.attackCoef
	}
	o.current += (target - o.current) * coef
	return o.current
}
