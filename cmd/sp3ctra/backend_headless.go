//go:build headless

package main

import (
	"github.com/Ondulab/sp3ctra/internal/audioio"
	"github.com/Ondulab/sp3ctra/internal/engine"
)

func backendOpener(cfg engine.Config, e *engine.Engine) (audioio.Player, error) {
	return audioio.OpenHeadless(cfg.SamplingFrequency, cfg.AudioBufferSize, e)
}
