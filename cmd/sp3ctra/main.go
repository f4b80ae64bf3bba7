// Command sp3ctra is a thin demo driver: it wires the engine to a
// platform audio backend chosen at build time (oto by default, a
// headless stub under the "headless" build tag) and starts network
// ingestion. Configuration file parsing, logging setup and CLI flag
// handling are deliberately minimal here — the core contract lives in
// package engine; this file is a replaceable shell around it.
package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/Ondulab/sp3ctra/internal/audioio"
	"github.com/Ondulab/sp3ctra/internal/engine"
)

func main() {
	cfg := engine.Default()

	e, err := engine.New(cfg)
	if err != nil {
		log.Fatalf("sp3ctra: engine init failed: %v", err)
	}

	player, err := openBackend(cfg, e)
	if err != nil {
		log.Fatalf("sp3ctra: audio backend open failed: %v", err)
	}

	e.Start()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	<-sig

	log.Println("sp3ctra: shutting down")
	e.Stop()
	if err := player.Close(); err != nil {
		log.Printf("sp3ctra: audio backend close: %v", err)
	}
}

func openBackend(cfg engine.Config, e *engine.Engine) (audioio.Player, error) {
	return backendOpener(cfg, e)
}
