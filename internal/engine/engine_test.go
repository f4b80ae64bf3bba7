package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestNewBuildsEngineAndRendersSilentDefaultBlock(t *testing.T) {
	cfg := Default()
	cfg.UDPPort = 0 // ephemeral port so parallel test runs never collide

	e, err := New(cfg)
	require.NoError(t, err)
	defer e.receiver.Close()

	out := make([]float32, cfg.AudioBufferSize*2)
	e.NextBlock(out)
	for _, v := range out {
		require.Equal(t, float32(0), v)
	}
}

func TestStartAndStopJoinsProducerLoop(t *testing.T) {
	cfg := Default()
	cfg.UDPPort = 0

	e, err := New(cfg)
	require.NoError(t, err)

	e.Start()
	time.Sleep(20 * time.Millisecond)
	e.Stop()

	snap := e.Snapshot()
	require.GreaterOrEqual(t, snap.MasterVolume, float32(0))
}
