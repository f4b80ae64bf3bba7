// Package engine composes the Line Double-Buffer, Preprocessor,
// LuxStral, LuxWave, Reverb, Audio Output Rings, Auto-Volume controller
// and Parameter Store into one root Engine, replacing the teacher's
// process-wide globals (current configuration, audio system pointer,
// auto-volume instance) with ownership rooted in this single structure,
// per the design note on process-wide globals.
package engine

import (
	"errors"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Ondulab/sp3ctra/internal/aor"
	"github.com/Ondulab/sp3ctra/internal/autovolume"
	"github.com/Ondulab/sp3ctra/internal/ldb"
	"github.com/Ondulab/sp3ctra/internal/luxstral"
	"github.com/Ondulab/sp3ctra/internal/luxwave"
	"github.com/Ondulab/sp3ctra/internal/midirouter"
	"github.com/Ondulab/sp3ctra/internal/netin"
	"github.com/Ondulab/sp3ctra/internal/params"
	"github.com/Ondulab/sp3ctra/internal/preprocess"
	"github.com/Ondulab/sp3ctra/internal/reverb"
	"github.com/Ondulab/sp3ctra/internal/sp3errors"
)

// Engine is the root object a host constructs once. It owns every
// allocation the RT callback touches and every non-RT producer thread.
type Engine struct {
	paramStore *params.Store

	buffer *ldb.DoubleBuffer

	luxstral *luxstral.Engine
	luxwave  *luxwave.Engine
	reverb   *reverb.Reverb

	aorStral *aor.Ring
	aorWave  *aor.Ring

	autoVolume *autovolume.Controller
	receiver   *netin.Receiver
	midi       *midirouter.Router

	blockLen int

	preOpts preprocess.Options

	running atomic.Bool
	wg      sync.WaitGroup

	mixScratchL []float32
	mixScratchR []float32
	grayBytes   []byte

	waveScratch   []float32
	deinterleaveL []float32
	deinterleaveR []float32
}

// Stats is a point-in-time snapshot of runtime counters, grounded on the
// teacher's debug-monitor style status struct.
type Stats struct {
	IncompleteLines  uint64
	DroppedFragments uint64
	Underruns        uint64
	MasterVolume     float32
}

// New initializes every engine and producer thread, or returns a
// structured sp3errors.Error if any allocation or socket step fails,
// leaving no partially-running state (spec §7).
func New(cfg Config) (*Engine, error) {
	p := params.Default()
	p.SamplingFrequency = cfg.SamplingFrequency
	p.AudioBufferSize = cfg.AudioBufferSize
	p.PixelsPerNote = cfg.PixelsPerNote
	p.SensorDPI = cfg.SensorDPI
	p.LuxstralAttackMs = cfg.LuxstralAttackMs
	p.LuxstralReleaseMs = cfg.LuxstralReleaseMs
	p.LuxstralVolumeWeightingExp = cfg.LuxstralVolumeWeightingExp
	p.LuxstralSoftLimitThreshold = cfg.LuxstralSoftLimitThreshold
	p.LuxstralSoftLimitKnee = cfg.LuxstralSoftLimitKnee
	p.LuxwaveVibratoRateHz = cfg.LuxwaveVibratoRate
	p.LuxwaveVibratoDepthSt = cfg.LuxwaveVibratoDepth
	p.LuxwaveFilterCutoffHz = cfg.LuxwaveFilterCutoff
	p.LuxwaveFilterEnvDepth = cfg.LuxwaveFilterEnvDepth
	p.ReverbEnabled = cfg.ReverbEnabled
	p.ReverbRoomsize = cfg.ReverbRoomsize
	p.ReverbDamping = cfg.ReverbDamping
	p.ReverbWidth = cfg.ReverbWidth
	p.ReverbPredelay = cfg.ReverbPredelay

	pixelCount := pixelCountForDPI(cfg.SensorDPI)
	numNotes := pixelCount / cfg.PixelsPerNote
	if numNotes <= 0 {
		return nil, sp3errors.Wrap(sp3errors.KindConfigConflict, "engine.New", errInvalidNoteCount)
	}

	e := &Engine{
		paramStore: params.NewStore(p),
		buffer:     ldb.New(pixelCount),
		blockLen:   cfg.AudioBufferSize,
	}

	e.luxstral = luxstral.New(luxstral.Config{
		SampleRate:         float32(cfg.SamplingFrequency),
		NumNotes:           numNotes,
		LowFreq:            cfg.LuxstralLowFreq,
		HighFreq:           cfg.LuxstralHighFreq,
		AttackS:            cfg.LuxstralAttackMs / 1000,
		ReleaseS:           cfg.LuxstralReleaseMs / 1000,
		NumWorkers:         cfg.LuxstralNumWorkers,
		VolumeScale:        1.0 / 255.0,
		VolumeWeightingExp: cfg.LuxstralVolumeWeightingExp,
		SoftLimitThreshold: cfg.LuxstralSoftLimitThreshold,
		SoftLimitKnee:      cfg.LuxstralSoftLimitKnee,
	})

	e.luxwave = luxwave.New(luxwave.Config{
		SampleRate:     float32(cfg.SamplingFrequency),
		VolumeTimes:    cfg.LuxwaveVolumeADSR,
		FilterTimes:    cfg.LuxwaveFilterADSR,
		VibratoRateHz:  cfg.LuxwaveVibratoRate,
		VibratoDepthSt: cfg.LuxwaveVibratoDepth,
		FilterCutoffHz: cfg.LuxwaveFilterCutoff,
		FilterEnvDepth: cfg.LuxwaveFilterEnvDepth,
		Amplitude:      cfg.LuxwaveAmplitude,
	})

	e.reverb = reverb.New(float32(cfg.SamplingFrequency))

	e.aorStral = aor.New(cfg.AudioBufferSize)
	e.aorWave = aor.New(cfg.AudioBufferSize)

	e.autoVolume = autovolume.New(autovolume.Params{
		Enabled:                 cfg.AutoVolumeEnabled,
		BaseThresholdG:          0.1,
		Sensitivity:             cfg.IMUSensitivity,
		InactivityTimeoutS:      cfg.IMUInactivityTimeoutS,
		ContrastChangeThreshold: cfg.ContrastChangeThreshold,
		InactiveLevel:           cfg.AutoVolumeInactiveLevel,
		FadeMs:                  cfg.AutoVolumeFadeMs,
	})

	e.midi = midirouter.New(e.luxwave)

	panLaw := preprocess.PanLawConstantPower
	if cfg.StereoLinearPanLaw {
		panLaw = preprocess.PanLawLinear
	}
	e.preOpts = preprocess.Options{
		PixelsPerNote:            cfg.PixelsPerNote,
		GammaEnable:              cfg.LuxstralGammaEnable,
		GammaValue:               cfg.LuxstralGammaValue,
		StereoEnabled:            cfg.StereoEnabled,
		PanLaw:                   panLaw,
		BlueRedWeight:            cfg.StereoBlueRedWeight,
		CyanYellowWeight:         cfg.StereoCyanYellowWeight,
		TemperatureAmplification: cfg.StereoTemperatureAmplification,
		TemperatureCurveExponent: cfg.StereoTemperatureCurveExponent,
		CenterThreshold:          0.05,
		CenterBoost:              1.2,
	}

	e.mixScratchL = make([]float32, cfg.AudioBufferSize)
	e.mixScratchR = make([]float32, cfg.AudioBufferSize)
	e.grayBytes = make([]byte, numNotes)
	e.waveScratch = make([]float32, cfg.AudioBufferSize*2)
	e.deinterleaveL = make([]float32, cfg.AudioBufferSize)
	e.deinterleaveR = make([]float32, cfg.AudioBufferSize)

	addr := cfg.UDPAddress
	receiver, err := netin.New(udpListenAddr(addr, cfg.UDPPort), e.buffer, e.autoVolume, nil)
	if err != nil {
		e.luxstral.Close()
		return nil, sp3errors.Wrap(sp3errors.KindResourceExhaustion, "netin.New", err)
	}
	e.receiver = receiver

	return e, nil
}

var errInvalidNoteCount = errors.New("pixels_per_note yields zero notes")

func udpListenAddr(addr string, port int) string {
	return addr + ":" + strconv.Itoa(port)
}

// MIDI exposes the MIDI router so a host can feed it decoded messages.
func (e *Engine) MIDI() *midirouter.Router { return e.midi }

// Params exposes the parameter store for host-side configuration edits.
func (e *Engine) Params() *params.Store { return e.paramStore }

// Start launches the network receiver and the synthesis producer loop.
// Must be called once; not RT-safe.
func (e *Engine) Start() {
	e.running.Store(true)
	e.wg.Add(2)
	go func() {
		defer e.wg.Done()
		e.receiver.Run()
	}()
	go func() {
		defer e.wg.Done()
		e.producerLoop()
	}()
}

// Stop signals every producer loop to exit and joins them with no
// timeout beyond what the 100ms poll granularity already bounds, per
// spec §5's shutdown rule.
func (e *Engine) Stop() {
	e.running.Store(false)
	e.receiver.Close()
	e.wg.Wait()
	e.luxstral.Close()
}

// producerLoop renders one block per tick for both engines. In a real
// deployment the platform audio backend's callback would drive timing
// instead of a ticker; both drive NextBlock/Render at the same cadence,
// so the ticker-based and callback-based architectures are equivalent
// from the Engine's point of view.
func (e *Engine) producerLoop() {
	sampleRate := e.paramStore.Load().SamplingFrequency
	interval := time.Duration(float64(e.blockLen)/float64(sampleRate)*1e9) * time.Nanosecond
	if interval <= 0 {
		interval = time.Millisecond
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	lastPoll := time.Now()
	for e.running.Load() {
		<-ticker.C
		e.renderOneBlock()

		now := time.Now()
		dt := now.Sub(lastPoll)
		lastPoll = now
		e.autoVolume.Poll(now, e.luxstral.Contrast(), dt)
	}
}

func (e *Engine) renderOneBlock() {
	snap := e.paramStore.Load()

	line := e.buffer.GetReadPointers()
	frame := preprocess.Process(line.R, line.G, line.B, e.preOpts, e.luxstral.Gains())

	for i, v := range frame.Grayscale {
		if i >= len(e.grayBytes) {
			break
		}
		e.grayBytes[i] = clampByte(v)
	}

	stralL := e.aorStral.AcquireWrite()
	e.luxstral.Render(frame.Grayscale, e.mixScratchL, e.mixScratchR, snap)
	interleave(stralL, e.mixScratchL, e.mixScratchR)
	e.aorStral.CommitWrite()

	waveBuf := e.aorWave.AcquireWrite()
	e.luxwave.Render(e.grayBytes, e.mixScratchL, e.mixScratchR, snap)
	interleave(waveBuf, e.mixScratchL, e.mixScratchR)
	e.aorWave.CommitWrite()
}

func clampByte(v float32) byte {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return byte(v)
}

func interleave(dst []float32, l, r []float32) {
	for i := range l {
		dst[2*i] = l[i]
		dst[2*i+1] = r[i]
	}
}

// NextBlock is the real-time audio callback entry point: it pulls the
// most recent block from each engine's AOR, sums them, applies master
// volume, and runs the result through the reverb. out must be length
// blockLen*2 (interleaved stereo) and is the only caller-owned buffer this
// function writes to; apart from it, only the Engine's own preallocated
// scratch buffers and reverb state are written. It never allocates.
func (e *Engine) NextBlock(out []float32) {
	blockLen := len(out) / 2

	e.aorStral.Consume(out)

	waveBuf := e.waveScratch[:blockLen*2]
	e.aorWave.Consume(waveBuf)

	master := e.autoVolume.MasterVolume()
	for i := range out {
		out[i] = (out[i] + waveBuf[i]) * master
	}

	l := e.deinterleaveL[:blockLen]
	r := e.deinterleaveR[:blockLen]
	for i := 0; i < blockLen; i++ {
		l[i] = out[2*i]
		r[i] = out[2*i+1]
	}

	p := e.reverbParams()
	e.reverb.Process(p, l, r)
	interleave(out, l, r)
}

func (e *Engine) reverbParams() reverb.Params {
	p := e.paramStore.Load()
	return reverb.Params{
		Enabled:   p.ReverbEnabled,
		Roomsize:  p.ReverbRoomsize,
		Damping:   p.ReverbDamping,
		Width:     p.ReverbWidth,
		PredelayS: p.ReverbPredelay,
	}
}

// Snapshot reports current stats for host telemetry.
func (e *Engine) Snapshot() Stats {
	return Stats{
		IncompleteLines:  e.buffer.Stats.IncompleteLines.Load(),
		DroppedFragments: e.buffer.Stats.DroppedFragments.Load(),
		Underruns:        e.aorStral.Underruns() + e.aorWave.Underruns(),
		MasterVolume:     e.autoVolume.MasterVolume(),
	}
}
