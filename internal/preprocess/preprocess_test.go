package preprocess

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Ondulab/sp3ctra/internal/pangains"
)

func baseOptions() Options {
	return Options{
		PixelsPerNote:            1,
		StereoEnabled:            true,
		BlueRedWeight:            0.3,
		CyanYellowWeight:         0.3,
		TemperatureAmplification: 1.0,
		TemperatureCurveExponent: 1.0,
		CenterThreshold:          0,
		CenterBoost:              1,
	}
}

func TestProcessSelectsLinearPanLawWhenConfigured(t *testing.T) {
	// A single reddish pixel biases pan hard toward one side, so the two
	// pan laws diverge enough to distinguish which one ran.
	r := []byte{255}
	g := []byte{0}
	b := []byte{0}

	constantPowerOpts := baseOptions()
	constantPowerOpts.PanLaw = PanLawConstantPower
	constantPowerTable := pangains.New(1)
	Process(r, g, b, constantPowerOpts, constantPowerTable)
	cpGains := constantPowerTable.Load()

	linearOpts := baseOptions()
	linearOpts.PanLaw = PanLawLinear
	linearTable := pangains.New(1)
	Process(r, g, b, linearOpts, linearTable)
	linearGains := linearTable.Load()

	require.NotEqual(t, cpGains.Left[0], linearGains.Left[0])
	require.NotEqual(t, cpGains.Right[0], linearGains.Right[0])
}

func TestProcessDefaultsToConstantPowerPanLaw(t *testing.T) {
	opts := baseOptions()
	require.Equal(t, PanLawConstantPower, opts.PanLaw)
}
