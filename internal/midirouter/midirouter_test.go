package midirouter

import (
	"testing"

	"github.com/stretchr/testify/require"
	"gitlab.com/gomidi/midi/v2"

	"github.com/Ondulab/sp3ctra/internal/luxwave"
	"github.com/Ondulab/sp3ctra/internal/params"
)

func testWave() *luxwave.Engine {
	return luxwave.New(luxwave.Config{
		SampleRate:     48000,
		VibratoRateHz:  5,
		FilterCutoffHz: 8000,
		Amplitude:      1.0,
	})
}

func TestNoteOnRoutesToLuxWave(t *testing.T) {
	wave := testWave()
	r := New(wave)

	r.HandleMessage(midi.NoteOn(0, 69, 100))

	line := make([]byte, 1728)
	for i := range line {
		line[i] = 200
	}
	outL := make([]float32, 64)
	outR := make([]float32, 64)

	snap := params.Default()
	snap.LuxwaveVibratoRateHz = 5
	snap.LuxwaveFilterCutoffHz = 8000

	var nonSilent bool
	for i := 0; i < 10; i++ {
		wave.Render(line, outL, outR, snap)
		for _, v := range outL {
			if v != 0 {
				nonSilent = true
			}
		}
	}
	require.True(t, nonSilent)
}

func TestCC1RoutesToScanMode(t *testing.T) {
	wave := testWave()
	r := New(wave)
	r.HandleMessage(midi.ControlChange(0, 1, 100)) // -> Dual

	require.Equal(t, int32(luxwave.ScanDual), wave.ScanModeValue())
}

func TestCC7RoutesToMasterAmplitude(t *testing.T) {
	wave := testWave()
	r := New(wave)
	r.HandleMessage(midi.ControlChange(0, 7, 127))
	require.InDelta(t, 1.0, wave.MasterAmplitudeValue(), 0.01)
}
