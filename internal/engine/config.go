package engine

import "github.com/Ondulab/sp3ctra/internal/adsr"

// Config is the full set of init-time options a host supplies, covering
// the configuration surface enumerated in spec §6.
type Config struct {
	SamplingFrequency int
	AudioBufferSize   int
	PixelsPerNote     int
	SensorDPI         int

	UDPAddress string
	UDPPort    int

	AutoVolumeEnabled           bool
	AutoVolumeInactiveLevel     float32
	AutoVolumeFadeMs            float32
	IMUSensitivity              float32
	IMUInactivityTimeoutS       float32
	ContrastChangeThreshold     float32

	StereoEnabled                  bool
	StereoLinearPanLaw             bool
	StereoBlueRedWeight            float32
	StereoCyanYellowWeight         float32
	StereoTemperatureAmplification float32
	StereoTemperatureCurveExponent float32

	LuxstralLowFreq            float32
	LuxstralHighFreq           float32
	LuxstralAttackMs           float32
	LuxstralReleaseMs          float32
	LuxstralNumWorkers         int
	LuxstralGammaEnable        bool
	LuxstralGammaValue         float32
	LuxstralContrastMin        float32
	LuxstralVolumeWeightingExp float32
	LuxstralSoftLimitThreshold float32
	LuxstralSoftLimitKnee      float32

	LuxwaveVolumeADSR  adsr.Times
	LuxwaveFilterADSR  adsr.Times
	LuxwaveVibratoRate float32
	LuxwaveVibratoDepth float32
	LuxwaveFilterCutoff float32
	LuxwaveFilterEnvDepth float32
	LuxwaveAmplitude   float32

	ReverbEnabled  bool
	ReverbMix      float32
	ReverbRoomsize float32
	ReverbDamping  float32
	ReverbWidth    float32
	ReverbPredelay float32
}

// pixelCountForDPI implements the P ∈ {1728, 3456} selection named in
// spec §3.
func pixelCountForDPI(dpi int) int {
	if dpi >= 400 {
		return 3456
	}
	return 1728
}

// Default returns a Config with the values used throughout the testable
// properties' first scenario (spec §8 scenario 1).
func Default() Config {
	return Config{
		SamplingFrequency: 48000,
		AudioBufferSize:   128,
		PixelsPerNote:     2,
		SensorDPI:         200,

		UDPAddress: "0.0.0.0",
		UDPPort:    55151,

		AutoVolumeEnabled:       true,
		AutoVolumeInactiveLevel: 0,
		AutoVolumeFadeMs:        500,
		IMUSensitivity:          1.0,
		IMUInactivityTimeoutS:   30,
		ContrastChangeThreshold: 0.05,

		StereoEnabled:                  true,
		StereoLinearPanLaw:             false,
		StereoBlueRedWeight:            1.0,
		StereoCyanYellowWeight:         1.0,
		StereoTemperatureAmplification: 1.0,
		StereoTemperatureCurveExponent: 1.0,

		LuxstralLowFreq:            65,
		LuxstralHighFreq:           12000,
		LuxstralAttackMs:           10,
		LuxstralReleaseMs:          80,
		LuxstralNumWorkers:         4,
		LuxstralVolumeWeightingExp: 1.0,
		LuxstralSoftLimitThreshold: 0.8,
		LuxstralSoftLimitKnee:      0.2,

		LuxwaveVolumeADSR:     adsr.Times{AttackS: 0.005, DecayS: 0.05, SustainLevel: 0.8, ReleaseS: 0.15},
		LuxwaveFilterADSR:     adsr.Times{AttackS: 0.01, DecayS: 0.05, SustainLevel: 0.5, ReleaseS: 0.15},
		LuxwaveVibratoRate:    5,
		LuxwaveFilterCutoff:   4000,
		LuxwaveAmplitude:      1.0,

		ReverbEnabled:  true,
		ReverbMix:      0.25,
		ReverbRoomsize: 0.5,
		ReverbDamping:  0.5,
		ReverbWidth:    1.0,
		ReverbPredelay: 0,
	}
}
