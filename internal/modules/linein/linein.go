// Package linein is a minimal sound_generators module: a gain-only
// passthrough standing in for original_source/src/modules/sound_generators/
// linein/linein.c's noise gate and filter chain, whose exact DSP spec.md
// §1 calls out as unspecified/illustrative. It exists purely so
// internal/modulemgr has a second real module to discover and switch to
// (SPEC_FULL.md's domain-stack note), declaring audio_in/audio_out.
package linein

import "github.com/move-anything/hostrt/internal/pluginabi"

// Module applies a single gain parameter to the host-mixed audio_in
// region that the host already copied into outLR ahead of render_block.
type Module struct {
	gain float64
	host pluginabi.HostAPI
}

func New() *Module {
	return &Module{gain: 1.0}
}

func (m *Module) OnLoad(moduleDir, defaultsJSON string, host pluginabi.HostAPI) error {
	m.host = host
	return nil
}

func (m *Module) OnUnload() {}

func (m *Module) OnMIDI(msg []byte, source pluginabi.MIDISource) {}

func (m *Module) SetParam(key, value string) error {
	if key != "gain" {
		return errUnrecognizedParam(key)
	}
	v, err := parseFloatParam(value)
	if err != nil {
		return err
	}
	m.gain = clamp(v, 0, 4)
	return nil
}

func (m *Module) GetParam(key string) (string, bool) {
	if key != "gain" {
		return "", false
	}
	return formatFloatParam(m.gain), true
}

func (m *Module) RenderBlock(outLR []int16, frames int) {
	for i := range outLR {
		outLR[i] = scale(outLR[i], m.gain)
	}
}

func scale(s int16, gain float64) int16 {
	v := float64(s) * gain
	if v > 32767 {
		return 32767
	}
	if v < -32768 {
		return -32768
	}
	return int16(v)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

var _ pluginabi.V1 = (*Module)(nil)
