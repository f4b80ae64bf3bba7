package luxstral

import (
	"testing"

	"github.com/Ondulab/sp3ctra/internal/params"
	"github.com/stretchr/testify/require"
)

func testConfig(numNotes int) Config {
	return Config{
		SampleRate:         48000,
		NumNotes:           numNotes,
		LowFreq:            65,
		HighFreq:           12000,
		AttackS:            0.01,
		ReleaseS:           0.08,
		NumWorkers:         4,
		VolumeScale:        1.0 / 255.0,
		VolumeWeightingExp: 1,
		SoftLimitThreshold: 0.8,
		SoftLimitKnee:      0.2,
	}
}

func testSnapshot(cfg Config) params.Snapshot {
	p := params.Default()
	p.LuxstralAttackMs = cfg.AttackS * 1000
	p.LuxstralReleaseMs = cfg.ReleaseS * 1000
	p.LuxstralVolumeWeightingExp = cfg.VolumeWeightingExp
	p.LuxstralSoftLimitThreshold = cfg.SoftLimitThreshold
	p.LuxstralSoftLimitKnee = cfg.SoftLimitKnee
	return p
}

func TestRenderProducesBoundedNonSilentOutput(t *testing.T) {
	cfg := testConfig(32)
	e := New(cfg)
	defer e.Close()
	snap := testSnapshot(cfg)

	gray := make([]float32, 32)
	for i := range gray {
		gray[i] = 200
	}
	left := make([]float32, 32)
	right := make([]float32, 32)
	for i := range left {
		left[i] = 0.7071
		right[i] = 0.7071
	}
	e.Gains().Publish(left, right)

	outL := make([]float32, 128)
	outR := make([]float32, 128)

	// Warm up the volume ramp across several blocks.
	for i := 0; i < 50; i++ {
		e.Render(gray, outL, outR, snap)
	}

	var peak float32
	var nonSilent bool
	for i := range outL {
		if outL[i] > peak {
			peak = outL[i]
		}
		if outL[i] < -peak {
			peak = -outL[i]
		}
		if outL[i] != 0 {
			nonSilent = true
		}
	}
	require.True(t, nonSilent)
	require.LessOrEqual(t, peak, float32(1.0))
}

func TestRenderSilentGrayscaleProducesSilence(t *testing.T) {
	cfg := testConfig(8)
	e := New(cfg)
	defer e.Close()
	snap := testSnapshot(cfg)

	gray := make([]float32, 8)
	outL := make([]float32, 64)
	outR := make([]float32, 64)
	for i := 0; i < 20; i++ {
		e.Render(gray, outL, outR, snap)
	}
	for _, v := range outL {
		require.InDelta(t, 0, v, 0.001)
	}
}

func TestRenderPicksUpSoftLimitThresholdChangePerBlock(t *testing.T) {
	cfg := testConfig(16)
	e := New(cfg)
	defer e.Close()

	left := make([]float32, 16)
	right := make([]float32, 16)
	for i := range left {
		left[i] = 0.7071
		right[i] = 0.7071
	}
	e.Gains().Publish(left, right)

	gray := make([]float32, 16)
	for i := range gray {
		gray[i] = 255
	}
	outL := make([]float32, 64)
	outR := make([]float32, 64)

	loose := testSnapshot(cfg)
	loose.LuxstralSoftLimitThreshold = 0.95
	for i := 0; i < 80; i++ {
		e.Render(gray, outL, outR, loose)
	}
	require.Equal(t, float32(0.95), e.cfg.SoftLimitThreshold)

	tight := testSnapshot(cfg)
	tight.LuxstralSoftLimitThreshold = 0.1
	e.Render(gray, outL, outR, tight)
	require.Equal(t, float32(0.1), e.cfg.SoftLimitThreshold)
}
