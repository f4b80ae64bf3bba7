package luxwave

// ScanMode selects how a voice's normalized phase [0,1) maps onto a
// position in the current image line, per spec §4.4.
type ScanMode int

const (
	ScanLeftToRight ScanMode = iota
	ScanRightToLeft
	ScanDual
)

// ScanModeFromCC maps MIDI CC1 (0..127) to a ScanMode per the fully
// specified table in spec §4.4.
func ScanModeFromCC(value uint8) ScanMode {
	switch {
	case value <= 42:
		return ScanLeftToRight
	case value <= 84:
		return ScanRightToLeft
	default:
		return ScanDual
	}
}

// Interpolation selects the resampling kernel used to read the wavetable
// at a fractional position.
type Interpolation int

const (
	Linear Interpolation = iota
	Cubic
)

// InterpolationFromCC maps MIDI CC74 to an Interpolation per spec §4.4.
func InterpolationFromCC(value uint8) Interpolation {
	if value <= 63 {
		return Linear
	}
	return Cubic
}

// scanPosition applies the scan-mode transform to map phase in [0,1) to a
// read position. Right-to-left can go slightly below 0 and dual reaches
// pixelCount at phase 0.5; sampleLine clamps positions to the line.
func scanPosition(phase float64, pixelCount int, mode ScanMode) float64 {
	p := float64(pixelCount)
	switch mode {
	case ScanRightToLeft:
		return p - 1 - phase*p
	case ScanDual:
		if phase < 0.5 {
			return 2 * phase * p
		}
		return (1 - 2*(phase-0.5)) * p
	default: // ScanLeftToRight
		return phase * p
	}
}

// sampleLine reads line at fractional position pos using the selected
// interpolation, mapping byte values [0,255] to signed samples [-1,1].
func sampleLine(line []byte, pos float64, interp Interpolation) float32 {
	n := len(line)
	if n == 0 {
		return 0
	}
	if pos < 0 {
		pos = 0
	}
	if pos > float64(n-1) {
		pos = float64(n - 1)
	}

	i0 := int(pos)
	frac := pos - float64(i0)

	toSample := func(idx int) float32 {
		if idx < 0 {
			idx = 0
		}
		if idx >= n {
			idx = n - 1
		}
		return (float32(line[idx])/127.5 - 1)
	}

	switch interp {
	case Cubic:
		p0 := toSample(i0 - 1)
		p1 := toSample(i0)
		p2 := toSample(i0 + 1)
		p3 := toSample(i0 + 2)
		return catmullRom(p0, p1, p2, p3, float32(frac))
	default:
		a := toSample(i0)
		b := toSample(i0 + 1)
		return a + (b-a)*float32(frac)
	}
}

// catmullRom evaluates the Catmull-Rom spline through p1..p2 at parameter
// t in [0,1), using p0 and p3 as the outer control points.
func catmullRom(p0, p1, p2, p3, t float32) float32 {
	t2 := t * t
	t3 := t2 * t
	return 0.5 * ((2 * p1) +
		(-p0+p2)*t +
		(2*p0-5*p1+4*p2-p3)*t2 +
		(-p0+3*p1-3*p2+p3)*t3)
}
