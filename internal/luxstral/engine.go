// Package luxstral implements the additive synthesis engine: a bank of N
// fixed-frequency sinusoidal oscillators whose per-block amplitudes track
// a preprocessed grayscale vector, rendered across a fixed worker pool
// with no per-block allocation.
package luxstral

import (
	"math"
	"sync/atomic"

	"github.com/Ondulab/sp3ctra/internal/dsp"
	"github.com/Ondulab/sp3ctra/internal/pangains"
	"github.com/Ondulab/sp3ctra/internal/params"
)

// Config carries the subset of the parameter store's fields this engine
// needs to (re)initialize its oscillator bank. Changing LowFreq, HighFreq,
// NumNotes or SampleRate requires a full reinit (spec §4.9: structural
// sizing changes happen at a safe boundary, never mid-block).
type Config struct {
	SampleRate float32
	NumNotes   int
	LowFreq    float32
	HighFreq   float32
	AttackS    float32
	ReleaseS   float32
	NumWorkers int

	RelativeMode bool

	VolumeScale float32

	VolumeWeightingExp float32
	SoftLimitThreshold float32
	SoftLimitKnee      float32
}

// Engine renders stereo blocks from the oscillator bank. All slices used
// in Render are allocated at New/Reconfigure time, except the per-worker
// partial buffers, which Render sizes on its first block.
type Engine struct {
	cfg Config

	oscillators []oscillator
	gains       *pangains.Table

	pool      *workerPool
	chunkLen  int
	partialsL [][]float32
	partialsR [][]float32

	shiftedGray []float32

	contrast atomic.Uint32 // float32 bits, published for telemetry/auto-volume

	normalizeGain float32
}

// New builds an engine for cfg.NumNotes oscillators distributed
// logarithmically between LowFreq and HighFreq, each with its own
// precomputed one-period table.
func New(cfg Config) *Engine {
	e := &Engine{}
	e.Reconfigure(cfg)
	return e
}

// Reconfigure performs the structural reinit named in spec §4.9: it must
// only be called at a safe boundary, never concurrently with Render.
func (e *Engine) Reconfigure(cfg Config) {
	if e.pool != nil {
		e.pool.Close()
	}

	e.cfg = cfg
	n := cfg.NumNotes
	e.oscillators = make([]oscillator, n)

	logLow := math.Log(float64(cfg.LowFreq))
	logHigh := math.Log(float64(cfg.HighFreq))
	for i := 0; i < n; i++ {
		t := float64(i)
		if n > 1 {
			t /= float64(n - 1)
		}
		freq := float32(math.Exp(logLow + t*(logHigh-logLow)))
		e.oscillators[i] = newOscillator(freq, cfg.SampleRate)
		e.oscillators[i].configureCoefs(cfg.AttackS, cfg.ReleaseS, cfg.SampleRate)
	}

	e.gains = pangains.New(n)
	e.shiftedGray = make([]float32, n)

	workers := cfg.NumWorkers
	if workers <= 0 {
		workers = 1
	}
	if workers > n && n > 0 {
		workers = n
	}
	if workers <= 0 {
		workers = 1
	}
	e.chunkLen = (n + workers - 1) / workers
	if e.chunkLen == 0 {
		e.chunkLen = 1
	}
	e.pool = newWorkerPool(workers)
	e.partialsL = make([][]float32, workers)
	e.partialsR = make([][]float32, workers)

	// Normalization so N unit-amplitude oscillators at full modulation do
	// not clip: 1/sqrt(N) keeps RMS bounded while leaving headroom for the
	// soft limiter to shape peaks rather than hard-clip them.
	if n > 0 {
		e.normalizeGain = float32(1 / math.Sqrt(float64(n)))
	} else {
		e.normalizeGain = 1
	}
}

// Gains exposes the pan gains table so the preprocessor can publish into
// it directly.
func (e *Engine) Gains() *pangains.Table { return e.gains }

// Contrast returns the most recently published block contrast factor.
func (e *Engine) Contrast() float32 {
	return math.Float32frombits(e.contrast.Load())
}

// Close stops the engine's worker pool. Not RT-safe; call during teardown
// only.
func (e *Engine) Close() {
	if e.pool != nil {
		e.pool.Close()
	}
}

// Render computes one stereo block of length len(outL) == len(outR) from
// the grayscale vector (length NumNotes). outL/outR are caller-owned
// preallocated buffers; Render never allocates once warmed up. snap is
// the parameter store's current block snapshot (spec §4.9: engines read
// it once per block into a local copy); the fields that can change
// without a structural reinit — envelope times and the output-shaping
// coefficients — are applied before rendering the block.
func (e *Engine) Render(grayscale []float32, outL, outR []float32, snap params.Snapshot) {
	e.applyParams(snap)

	blockLen := len(outL)
	for i := range outL {
		outL[i] = 0
		outR[i] = 0
	}

	gray := grayscale
	if e.cfg.RelativeMode && len(gray) > 0 {
		min := gray[0]
		for _, v := range gray[1:] {
			if v < min {
				min = v
			}
		}
		for i, v := range gray {
			e.shiftedGray[i] = v - min
		}
		gray = e.shiftedGray[:len(gray)]
	}

	publishContrast(e, gray)

	gainsSnap := e.gains.Load()

	n := len(e.oscillators)
	chunk := e.chunkLen
	workers := len(e.partialsL)

	dispatched := 0
	for w := 0; w < workers; w++ {
		start := w * chunk
		if start >= n {
			break
		}
		end := start + chunk
		if end > n {
			end = n
		}

		if cap(e.partialsL[w]) < blockLen {
			e.partialsL[w] = make([]float32, blockLen)
			e.partialsR[w] = make([]float32, blockLen)
		}
		pl := e.partialsL[w][:blockLen]
		pr := e.partialsR[w][:blockLen]
		for i := range pl {
			pl[i] = 0
			pr[i] = 0
		}

		e.pool.Dispatch(job{
			oscs:     e.oscillators[start:end],
			gray:     gray,
			grayBase: start,
			volScale: e.cfg.VolumeScale,
			gainsL:   gainsSnap.Left,
			gainsR:   gainsSnap.Right,
			outL:     pl,
			outR:     pr,
		})
		dispatched++
	}
	e.pool.Wait()

	for w := 0; w < dispatched; w++ {
		pl := e.partialsL[w][:blockLen]
		pr := e.partialsR[w][:blockLen]
		for i := 0; i < blockLen; i++ {
			outL[i] += pl[i]
			outR[i] += pr[i]
		}
	}

	for i := 0; i < blockLen; i++ {
		outL[i] = e.shapeSample(outL[i] * e.normalizeGain)
		outR[i] = e.shapeSample(outR[i] * e.normalizeGain)
	}
}

// applyParams pulls the subset of the parameter store this engine may
// adjust without a full Reconfigure: the volume-weighting exponent and
// soft-limiter shape take effect immediately; attack/release changes
// additionally require recomputing every oscillator's smoothing
// coefficients, which is pure arithmetic over the existing slice and
// allocates nothing.
func (e *Engine) applyParams(snap params.Snapshot) {
	e.cfg.VolumeWeightingExp = snap.LuxstralVolumeWeightingExp
	e.cfg.SoftLimitThreshold = snap.LuxstralSoftLimitThreshold
	e.cfg.SoftLimitKnee = snap.LuxstralSoftLimitKnee

	attackS := snap.LuxstralAttackMs / 1000
	releaseS := snap.LuxstralReleaseMs / 1000
	if attackS != e.cfg.AttackS || releaseS != e.cfg.ReleaseS {
		e.cfg.AttackS = attackS
		e.cfg.ReleaseS = releaseS
		for i := range e.oscillators {
			e.oscillators[i].configureCoefs(attackS, releaseS, e.cfg.SampleRate)
		}
	}
}

// publishContrast computes the block-wide RMS contrast and stores it for
// the auto-volume controller to read.
func publishContrast(e *Engine, gray []float32) {
	if len(gray) == 0 {
		return
	}
	var sum, sumSq float64
	for _, v := range gray {
		sum += float64(v)
		sumSq += float64(v) * float64(v)
	}
	mean := sum / float64(len(gray))
	variance := sumSq/float64(len(gray)) - mean*mean
	if variance < 0 {
		variance = 0
	}
	contrast := float32(math.Sqrt(variance) / 127.5)
	e.contrast.Store(math.Float32bits(contrast))
}

// shapeSample applies the volume-weighting exponent then the soft
// limiter, spec §4.3 step 6.
func (e *Engine) shapeSample(x float32) float32 {
	x = dsp.WeightingCompress(x, e.cfg.VolumeWeightingExp)
	x = dsp.SoftLimit(x, e.cfg.SoftLimitThreshold, e.cfg.SoftLimitKnee)
	return dsp.Clamp32(x, -1, 1)
}
