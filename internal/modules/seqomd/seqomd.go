// Package seqomd adapts internal/sequencer.Engine to the plugin ABI
// (spec.md §4.8), grounded on original_source/src/modules/seqomd/
// seqomd_module.c's plugin_api_v1_t table: a single-instance MIDI
// sequencer module with no audio output of its own.
package seqomd

import (
	"github.com/move-anything/hostrt/internal/pluginabi"
	"github.com/move-anything/hostrt/internal/sequencer"
)

const sampleRate = 44100
const defaultBPM = 120

// Module is the V1 adapter: one sequencer.Engine per process, matching
// spec.md §4.9's "singleton, no explicit handle" v1 contract.
type Module struct {
	engine *sequencer.Engine
	midi   *midiOut
}

// New builds an unloaded Module; OnLoad constructs the engine.
func New() *Module {
	return &Module{}
}

// OnLoad builds the engine. defaultsJSON is not parsed or applied; the
// engine starts from its built-in defaults.
func (m *Module) OnLoad(moduleDir, defaultsJSON string, host pluginabi.HostAPI) error {
	m.engine = sequencer.NewEngine(sampleRate, defaultBPM)
	m.midi = &midiOut{host: host}
	return nil
}

func (m *Module) OnUnload() {
	m.engine.SetPlaying(false, m.midi)
}

// OnMIDI only reacts to transport bytes on the internal cable; note input
// from pads is not part of SEQOMD's control surface (it drives step
// programming through SetParam instead, spec.md §4.7).
func (m *Module) OnMIDI(msg []byte, source pluginabi.MIDISource) {
	if source != pluginabi.SourceHost || len(msg) != 1 {
		return
	}
	switch msg[0] {
	case 0xFA: // start
		m.engine.SetPlaying(true, m.midi)
	case 0xFC: // stop
		m.engine.SetPlaying(false, m.midi)
	}
}

func (m *Module) SetParam(key, value string) error {
	return m.engine.SetParam(key, value, m.midi)
}

func (m *Module) GetParam(key string) (string, bool) {
	return m.engine.GetParam(key)
}

// RenderBlock drives the sequencer's timeline; SEQOMD has no audio_out
// capability, so the output buffer is left silent.
func (m *Module) RenderBlock(outLR []int16, frames int) {
	m.engine.AdvanceBlock(frames, m.midi)
	for i := range outLR {
		outLR[i] = 0
	}
}

var _ pluginabi.V1 = (*Module)(nil)

// midiOut routes the scheduler's note/CC events to the host's internal
// MIDI-out callback, encoding 3-byte channel messages (spec.md §4.7 "send
// via the host's MIDI-out path").
type midiOut struct {
	host pluginabi.HostAPI
}

func (m *midiOut) NoteOn(channel, note, velocity int) {
	m.send(0x90|byte(channel&0x0F), byte(note), byte(velocity))
}

func (m *midiOut) NoteOff(channel, note int) {
	m.send(0x80|byte(channel&0x0F), byte(note), 0)
}

func (m *midiOut) CC(channel, controller, value int) {
	m.send(0xB0|byte(channel&0x0F), byte(controller), byte(value))
}

func (m *midiOut) send(status, d1, d2 byte) {
	if m.host.MIDISendInternal == nil {
		return
	}
	m.host.MIDISendInternal([]byte{status, d1, d2})
}
