package luxwave

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Ondulab/sp3ctra/internal/adsr"
	"github.com/Ondulab/sp3ctra/internal/params"
)

func testConfig() Config {
	return Config{
		SampleRate:     48000,
		VolumeTimes:    adsr.Times{AttackS: 0.005, DecayS: 0.05, SustainLevel: 0.8, ReleaseS: 0.1},
		FilterTimes:    adsr.Times{AttackS: 0.01, DecayS: 0.05, SustainLevel: 0.5, ReleaseS: 0.1},
		VibratoRateHz:  5,
		VibratoDepthSt: 0,
		FilterCutoffHz: 8000,
		FilterEnvDepth: 0,
		Amplitude:      1.0,
	}
}

func testSnapshot(cfg Config) params.Snapshot {
	p := params.Default()
	p.LuxwaveVibratoRateHz = cfg.VibratoRateHz
	p.LuxwaveVibratoDepthSt = cfg.VibratoDepthSt
	p.LuxwaveFilterCutoffHz = cfg.FilterCutoffHz
	p.LuxwaveFilterEnvDepth = cfg.FilterEnvDepth
	p.LuxwaveAmplitude = cfg.Amplitude
	return p
}

func flatLine(n int, value byte) []byte {
	line := make([]byte, n)
	for i := range line {
		line[i] = value
	}
	return line
}

func TestNoteOnProducesNonSilentOutput(t *testing.T) {
	cfg := testConfig()
	e := New(cfg)
	snap := testSnapshot(cfg)
	e.NoteOn(69, 100)

	line := flatLine(1728, 200)
	outL := make([]float32, 512)
	outR := make([]float32, 512)

	var nonSilent bool
	for block := 0; block < 20; block++ {
		e.Render(line, outL, outR, snap)
		for _, v := range outL {
			if v != 0 {
				nonSilent = true
			}
		}
	}
	require.True(t, nonSilent)
}

func TestRenderPicksUpVibratoDepthChangePerBlock(t *testing.T) {
	cfg := testConfig()
	e := New(cfg)
	e.NoteOn(69, 100)
	line := flatLine(1728, 200)
	outL := make([]float32, 128)
	outR := make([]float32, 128)

	snap := testSnapshot(cfg)
	snap.LuxwaveVibratoDepthSt = 3.5
	e.Render(line, outL, outR, snap)
	require.Equal(t, float32(3.5), math.Float32frombits(e.vibratoDepthBits.Load()))
}

func TestVoiceStealingDisplacesOldest(t *testing.T) {
	e := New(testConfig())
	for i := 0; i < voiceCount; i++ {
		e.NoteOn(uint8(40+i), 100)
	}
	require.True(t, e.voices[0].active)
	firstOrder := e.voices[0].triggerOrder

	// One more note_on beyond capacity must steal the oldest voice (index 0).
	e.NoteOn(90, 100)
	require.Equal(t, uint8(90), e.voices[0].midiNote)
	require.Greater(t, e.voices[0].triggerOrder, firstOrder)
}

func TestTriggerOrderStrictlyIncreasing(t *testing.T) {
	e := New(testConfig())
	var last uint64
	for i := 0; i < 20; i++ {
		e.NoteOn(uint8(40+i%30), 100)
		var maxOrder uint64
		for _, v := range e.voices {
			if v.triggerOrder > maxOrder {
				maxOrder = v.triggerOrder
			}
		}
		require.Greater(t, maxOrder, last)
		last = maxOrder
	}
}

func TestNoteOffFadesToSilence(t *testing.T) {
	cfg := testConfig()
	e := New(cfg)
	snap := testSnapshot(cfg)
	e.NoteOn(69, 100)
	line := flatLine(1728, 200)
	outL := make([]float32, 256)
	outR := make([]float32, 256)

	for i := 0; i < 10; i++ {
		e.Render(line, outL, outR, snap)
	}
	e.NoteOff(69)
	for i := 0; i < 500; i++ {
		e.Render(line, outL, outR, snap)
	}
	for _, v := range outL {
		require.InDelta(t, 0, v, 0.01)
	}
}
