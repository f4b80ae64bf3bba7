// Package midirouter decodes MIDI messages and dispatches them to the
// synthesis engines. Device enumeration and transport (choosing a MIDI
// port, opening it) are explicitly out of scope — this package only
// parses messages already handed to it and performs the note/CC routing.
package midirouter

import (
	"gitlab.com/gomidi/midi/v2"

	"github.com/Ondulab/sp3ctra/internal/luxwave"
)

// NoteTarget is anything that can receive polyphonic note events — the
// LuxWave engine satisfies this.
type NoteTarget interface {
	NoteOn(note, velocity uint8)
	NoteOff(note uint8)
}

// CCSetter is a single parameter setter a CC can be routed to, e.g. a
// params.Store field-update closure.
type CCSetter func(value uint8)

// Router maps incoming MIDI messages to the LuxWave note target and to a
// table of CC handlers. The CC table always contains the LuxWave CC1/7/74
// handlers fixed by spec §4.4; additional entries may be registered by
// the host for LuxStral or parameter-store CCs, per the open question in
// spec §9 ("mirror whatever the configuration schema lists").
type Router struct {
	notes NoteTarget
	ccs   map[uint8]CCSetter
}

// New builds a router whose CC1/CC7/CC74 handlers are pre-wired to
// luxwave's fixed CC map.
func New(wave *luxwave.Engine) *Router {
	r := &Router{
		notes: wave,
		ccs:   make(map[uint8]CCSetter),
	}
	r.ccs[1] = func(v uint8) { wave.SetScanMode(luxwave.ScanModeFromCC(v)) }
	r.ccs[7] = func(v uint8) { wave.SetMasterAmplitude(float32(v) / 127) }
	r.ccs[74] = func(v uint8) { wave.SetInterpolation(luxwave.InterpolationFromCC(v)) }
	return r
}

// RegisterCC adds or replaces the handler for a CC number not already
// fixed by the LuxWave map — used for host-configured LuxStral/parameter
// CCs. Registrations for CC1, CC7 and CC74 are ignored.
func (r *Router) RegisterCC(cc uint8, setter CCSetter) {
	switch cc {
	case 1, 7, 74:
		return
	}
	r.ccs[cc] = setter
}

// HandleMessage decodes one MIDI message and routes it. Channel is
// ignored (channel-agnostic per spec §6).
func (r *Router) HandleMessage(msg midi.Message) {
	var channel, key, velocity, cc, value uint8

	switch {
	case msg.GetNoteOn(&channel, &key, &velocity):
		if velocity == 0 {
			r.notes.NoteOff(key)
			return
		}
		r.notes.NoteOn(key, velocity)
	case msg.GetNoteOff(&channel, &key, &velocity):
		r.notes.NoteOff(key)
	case msg.GetControlChange(&channel, &cc, &value):
		if setter, ok := r.ccs[cc]; ok {
			setter(value)
		}
	}
}
