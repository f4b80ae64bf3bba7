// Package autovolume implements the master-volume gate driven by
// inertial activity and corroborated by image contrast change, so a
// static-but-loud scene is never mistakenly muted.
//
// The teacher's IMU-adjacent state in a direct translation would need a
// recursive mutex shared across a data pipeline (per the re-architecture
// design note); here the only shared IMU state is one scalar field (the
// filtered X-axis reading), so it is published as an atomic snapshot
// instead — no lock at all.
package autovolume

import (
	"math"
	"sync/atomic"
	"time"
)

// Params mirrors the auto-volume section of the configuration surface.
type Params struct {
	Enabled                 bool
	BaseThresholdG          float32
	Sensitivity             float32
	InactivityTimeoutS      float32
	ContrastChangeThreshold float32
	InactiveLevel           float32
	FadeMs                  float32
}

// imuSnapshot is the atomically published IMU state, replaced as a whole
// on every update in place of a recursive mutex.
type imuSnapshot struct {
	xFiltered float32
}

// Controller runs the decision described in spec §4.7 on a poll
// timer, driven externally by calling Poll at the configured cadence.
type Controller struct {
	params atomic.Pointer[Params]
	imu    atomic.Pointer[imuSnapshot]

	masterVolume atomic.Uint32 // float32 bits

	lastActivity   time.Time
	lastContrast   float32
	haveLast       bool
}

// New creates a controller seeded with p and an initial master volume of
// 1.0 (fully open).
func New(p Params) *Controller {
	c := &Controller{}
	c.params.Store(&p)
	c.imu.Store(&imuSnapshot{})
	c.masterVolume.Store(math.Float32bits(1.0))
	return c
}

// SetParams atomically replaces the controller's configuration.
func (c *Controller) SetParams(p Params) {
	cp := p
	c.params.Store(&cp)
}

// PublishIMU is called by the network-ingestion thread whenever an
// IMU_DATA packet updates the filtered X-axis reading. RT-safe: a single
// atomic pointer store.
func (c *Controller) PublishIMU(xFiltered float32) {
	c.imu.Store(&imuSnapshot{xFiltered: xFiltered})
}

// MasterVolume returns the most recently published master volume for the
// audio callback to apply. RT-safe: a single atomic load.
func (c *Controller) MasterVolume() float32 {
	return math.Float32frombits(c.masterVolume.Load())
}

// Poll runs one decision cycle (spec §4.7 steps 1-6). now is passed in so
// callers can drive the controller deterministically in tests; contrast
// is the current block contrast factor from LuxStral. dt is the elapsed
// time since the previous Poll call, used for the volume smoothing step.
func (c *Controller) Poll(now time.Time, contrast float32, dt time.Duration) {
	p := *c.params.Load()
	if !p.Enabled {
		c.masterVolume.Store(math.Float32bits(1.0))
		return
	}

	imu := *c.imu.Load()

	sensitivity := p.Sensitivity
	if sensitivity <= 0 {
		sensitivity = 1
	}
	threshold := p.BaseThresholdG / sensitivity

	imuActive := absf(imu.xFiltered) >= threshold

	validated := false
	if imuActive {
		if contrast < 0.3 {
			validated = true
		} else if c.haveLast {
			delta := contrast - c.lastContrast
			if absf(delta) > p.ContrastChangeThreshold {
				validated = true
			}
		}
	}

	if validated {
		c.lastActivity = now
		c.haveLast = true
	}
	c.lastContrast = contrast
	if !c.haveLast {
		c.haveLast = true
		c.lastActivity = now
	}

	var target float32 = 1.0
	if !validated {
		elapsed := now.Sub(c.lastActivity).Seconds()
		if elapsed > float64(p.InactivityTimeoutS) {
			target = p.InactiveLevel
		}
	}

	current := c.MasterVolume()
	tauMs := p.FadeMs
	if tauMs <= 0 {
		tauMs = 1
	}
	alpha := float32(1 - math.Exp(-dt.Seconds()/(float64(tauMs)/1000)))
	current += (target - current) * alpha
	c.masterVolume.Store(math.Float32bits(current))
}

func absf(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}
