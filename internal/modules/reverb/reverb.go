// Package reverb is a minimal audio_fx module: a single-comb, single-
// allpass delay network loosely modeled on original_source/src/modules/
// audio_fx/freeverb/freeverb.c's parameter scheme (room_size/damping/wet/
// dry), reduced from its 8-comb/4-allpass bank. spec.md §1 calls the
// original freeverb module's exact DSP "illustrative" and unspecified;
// this stub exists so internal/modulemgr has more than one real module to
// discover, load, and switch between (SPEC_FULL.md's domain-stack note).
package reverb

import "github.com/move-anything/hostrt/internal/pluginabi"

const (
	combSamples    = 1557 // freeverb.c's comb_tuning_l[6]
	allpassSamples = 225  // freeverb.c's allpass_tuning_l[3]
)

// Module is a stereo comb+allpass reverb with a wet/dry mix.
type Module struct {
	roomSize, damping, wet, dry float64

	feedback, damp1, damp2 float64

	combBuf    [combSamples]float64
	combIdx    int
	combStore  float64
	allpassBuf [allpassSamples]float64
	allpassIdx int

	host pluginabi.HostAPI
}

func New() *Module {
	return &Module{roomSize: 0.5, damping: 0.5, wet: 0.3, dry: 0.7}
}

func (m *Module) OnLoad(moduleDir, defaultsJSON string, host pluginabi.HostAPI) error {
	m.host = host
	m.updateDerived()
	return nil
}

func (m *Module) OnUnload() {}

func (m *Module) OnMIDI(msg []byte, source pluginabi.MIDISource) {}

func (m *Module) SetParam(key, value string) error {
	v, err := parseFloatParam(value)
	if err != nil {
		return err
	}
	switch key {
	case "room_size":
		m.roomSize = clamp01(v)
	case "damping":
		m.damping = clamp01(v)
	case "wet":
		m.wet = clamp01(v)
	case "dry":
		m.dry = clamp01(v)
	default:
		return errUnrecognizedParam(key)
	}
	m.updateDerived()
	return nil
}

func (m *Module) GetParam(key string) (string, bool) {
	switch key {
	case "room_size":
		return formatFloatParam(m.roomSize), true
	case "damping":
		return formatFloatParam(m.damping), true
	case "wet":
		return formatFloatParam(m.wet), true
	case "dry":
		return formatFloatParam(m.dry), true
	}
	return "", false
}

// RenderBlock processes the module's own audio_in (already mixed into
// outLR by the host) through the comb+allpass network in place.
func (m *Module) RenderBlock(outLR []int16, frames int) {
	for i := 0; i < frames; i++ {
		inL := float64(outLR[i*2]) / 32768
		inR := float64(outLR[i*2+1]) / 32768
		in := (inL + inR) * 0.5

		wetOut := m.combProcess(in)
		wetOut = m.allpassProcess(wetOut)

		mixL := wetOut*m.wet + inL*m.dry
		mixR := wetOut*m.wet + inR*m.dry
		outLR[i*2] = toInt16(mixL)
		outLR[i*2+1] = toInt16(mixR)
	}
}

func (m *Module) combProcess(input float64) float64 {
	output := m.combBuf[m.combIdx]
	m.combStore = output*m.damp2 + m.combStore*m.damp1
	m.combBuf[m.combIdx] = input + m.combStore*m.feedback
	m.combIdx++
	if m.combIdx >= combSamples {
		m.combIdx = 0
	}
	return output
}

func (m *Module) allpassProcess(input float64) float64 {
	bufout := m.allpassBuf[m.allpassIdx]
	output := -input + bufout
	m.allpassBuf[m.allpassIdx] = input + bufout*0.5
	m.allpassIdx++
	if m.allpassIdx >= allpassSamples {
		m.allpassIdx = 0
	}
	return output
}

func (m *Module) updateDerived() {
	m.feedback = m.roomSize*0.28 + 0.7
	m.damp1 = m.damping * 0.4
	m.damp2 = 1 - m.damp1
}

func toInt16(v float64) int16 {
	if v > 1 {
		v = 1
	}
	if v < -1 {
		v = -1
	}
	return int16(v * 32767)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

var _ pluginabi.V1 = (*Module)(nil)
