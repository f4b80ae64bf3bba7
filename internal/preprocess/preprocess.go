// Package preprocess derives per-note synthesis inputs (grayscale volume,
// stereo pan position and gains, contrast factor) from a freshly
// assembled image line. It runs after the sequencer/mixer has produced
// raw RGB — never before — so pan is always computed from the same
// pixels that drive volume (see design note on preprocessing order).
package preprocess

import (
	"math"

	"github.com/Ondulab/sp3ctra/internal/pangains"
)

// PanLaw selects which gain curve temperaturePan's output is run
// through, per spec §4.2's statement that the linear law is a
// selectable alternative to the default constant-power law.
type PanLaw int

const (
	// PanLawConstantPower holds equal perceived loudness across the
	// stereo field; this is the default.
	PanLawConstantPower PanLaw = iota
	// PanLawLinear scales left/right directly off pan position.
	PanLawLinear
)

// Options configures the derivation; fields mirror the configuration
// surface's stereo_* and luxstral_gamma_* entries.
type Options struct {
	PixelsPerNote int

	GammaEnable bool
	GammaValue  float32

	InvertBackground bool

	StereoEnabled            bool
	PanLaw                   PanLaw
	BlueRedWeight            float32
	CyanYellowWeight         float32
	TemperatureAmplification float32
	TemperatureCurveExponent float32
	CenterThreshold          float32
	CenterBoost              float32
}

// Frame is the output of one preprocessing pass: a per-note grayscale
// vector, the scalar contrast factor, and (written as a side effect) the
// published pan gains table.
type Frame struct {
	Grayscale []float32 // length N, range [0,255]
	Contrast  float32   // RMS contrast normalized [0,1]
}

// Process derives a Frame from line channels r, g, b (equal length P) and
// publishes updated pan gains to table. N = len(r) / opts.PixelsPerNote.
func Process(r, g, b []byte, opts Options, table *pangains.Table) Frame {
	ppn := opts.PixelsPerNote
	if ppn <= 0 {
		ppn = 1
	}
	n := len(r) / ppn
	gray := make([]float32, n)
	left := make([]float32, n)
	right := make([]float32, n)

	var sum, sumSq float64

	for note := 0; note < n; note++ {
		start := note * ppn
		end := start + ppn
		var rAvg, gAvg, bAvg float64
		for i := start; i < end; i++ {
			rAvg += float64(r[i])
			gAvg += float64(g[i])
			bAvg += float64(b[i])
		}
		count := float64(end - start)
		rAvg /= count
		gAvg /= count
		bAvg /= count

		lum := 0.21*rAvg + 0.72*gAvg + 0.07*bAvg
		lum = clamp(lum, 0, 255)

		if opts.GammaEnable && opts.GammaValue > 0 {
			lum = 255 * math.Pow(lum/255, float64(opts.GammaValue))
		}
		if opts.InvertBackground {
			lum = 255 - lum
		}
		gray[note] = float32(lum)

		sum += lum
		sumSq += lum * lum

		if opts.StereoEnabled {
			pan := temperaturePan(rAvg, gAvg, bAvg, opts)
			var l, rg float32
			if opts.PanLaw == PanLawLinear {
				l, rg = pangains.LinearGains(pan)
			} else {
				l, rg = pangains.ConstantPowerGains(pan, opts.CenterThreshold, opts.CenterBoost)
			}
			left[note] = l
			right[note] = rg
		} else {
			left[note] = 0.70710678
			right[note] = 0.70710678
		}
	}

	if n > 0 {
		table.Publish(left, right)
	}

	mean := sum / float64(n)
	variance := sumSq/float64(n) - mean*mean
	if variance < 0 {
		variance = 0
	}
	rms := math.Sqrt(variance)
	contrast := float32(rms / 127.5)
	contrast = clampf32(contrast, 0, 1)

	return Frame{Grayscale: gray, Contrast: contrast}
}

// temperaturePan computes the color-temperature-derived pan position in
// [-1, 1] for one note's averaged RGB, per spec §4.2.
func temperaturePan(rAvg, gAvg, bAvg float64, opts Options) float32 {
	rNorm := rAvg / 255
	gNorm := gAvg / 255
	bNorm := bAvg / 255

	alpha := float64(opts.BlueRedWeight)
	beta := float64(opts.CyanYellowWeight)

	temp := alpha*(bNorm-rNorm) + beta*((gNorm+bNorm)/2-(rNorm+gNorm)/2)

	amp := float64(opts.TemperatureAmplification)
	if amp == 0 {
		amp = 1
	}
	temp *= amp

	exp := float64(opts.TemperatureCurveExponent)
	if exp <= 0 {
		exp = 1
	}
	sign := 1.0
	if temp < 0 {
		sign = -1
		temp = -temp
	}
	temp = math.Pow(temp, exp) * sign

	return clampf32(float32(temp), -1, 1)
}

func clamp(v, min, max float64) float64 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

func clampf32(v, min, max float32) float32 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}
