// Package dsp collects small numeric helpers shared by the synthesis
// engines: table building, clamping and the soft limiter curve used by
// LuxStral's output stage.
package dsp

import "math"

// Clamp32 restricts value to [min, max].
func Clamp32(value, min, max float32) float32 {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}

// BuildSineTable precomputes one period of a unit sine wave scaled by
// amplitude. length is the number of samples in the period; callers pick
// it so that a phase accumulator wraps exactly at the oscillator's
// fundamental frequency.
func BuildSineTable(length int, amplitude float32) []float32 {
	table := make([]float32, length)
	for i := range table {
		phase := 2 * math.Pi * float64(i) / float64(length)
		table[i] = float32(math.Sin(phase)) * amplitude
	}
	return table
}

// SoftLimit applies a soft-knee limiter: values below threshold pass
// through unchanged, values above ease toward threshold+knee following
// an exponential saturation curve. Mirrors spec step 6 of the LuxStral
// output stage.
func SoftLimit(x, threshold, knee float32) float32 {
	mag := x
	sign := float32(1)
	if mag < 0 {
		mag = -mag
		sign = -1
	}
	if mag <= threshold {
		return x
	}
	over := mag - threshold
	shaped := threshold + (1-float32(math.Exp(float64(-over/knee))))*knee
	return shaped * sign
}

// WeightingCompress applies the perceptual-compression exponent used
// before the soft limiter: sign-preserving power curve.
func WeightingCompress(x float32, exponent float32) float32 {
	if x == 0 {
		return 0
	}
	sign := float32(1)
	mag := x
	if mag < 0 {
		mag = -mag
		sign = -1
	}
	return sign * float32(math.Pow(float64(mag), float64(exponent)))
}
