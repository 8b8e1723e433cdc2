package midi

// VelocityCurve selects the note-on velocity mapping (spec.md §4.11, §6).
type VelocityCurve int

const (
	VelocityLinear VelocityCurve = iota
	VelocitySoft
	VelocityHard
	VelocityFull
)

// ApplyVelocityCurve maps a raw note-on velocity through curve. Velocity 0
// (a note-off encoded as 0x90/0) is left untouched (spec.md §4.11).
func ApplyVelocityCurve(curve VelocityCurve, v byte) byte {
	if v == 0 {
		return 0
	}
	switch curve {
	case VelocitySoft:
		return clampByte(64 + int(v)/2)
	case VelocityHard:
		return clampByte(int(v) * int(v) / 127)
	case VelocityFull:
		return 127
	default:
		return v
	}
}

// PadLayout selects the pad-to-note mapping applied to cable-0 traffic
// (spec.md §4.10 step 7).
type PadLayout int

const (
	LayoutChromatic PadLayout = iota
	LayoutFourth
)

// RemapPad applies the Fourth layout's pad-to-note mapping. Pads run
// 68..99 (4 rows of 8); Fourth maps pad 68+8*row+col to 60+5*row+col
// (spec.md §4.10). Chromatic and notes outside the pad range pass through
// unchanged.
func RemapPad(layout PadLayout, note byte) byte {
	if layout != LayoutFourth {
		return note
	}
	if note < 68 || note > 99 {
		return note
	}
	offset := int(note) - 68
	row := offset / 8
	col := offset % 8
	return byte(60 + 5*row + col)
}

// ApplyAftertouch implements spec.md §4.11's aftertouch filter: dropped
// entirely when disabled, else values under deadzone are zeroed but still
// forwarded.
func ApplyAftertouch(enabled bool, deadzone, value byte) (out byte, forward bool) {
	if !enabled {
		return 0, false
	}
	if value < deadzone {
		return 0, true
	}
	return value, true
}

// ApplyTranspose adds semitones to a note-on/off on pads 68-99 only,
// clamping the result into [0,127] (spec.md §4.11, §9 design note).
func ApplyTranspose(note byte, semitones int) byte {
	if note < 68 || note > 99 {
		return note
	}
	v := int(note) + semitones
	if v < 0 {
		return 0
	}
	if v > 127 {
		return 127
	}
	return byte(v)
}

func clampByte(v int) byte {
	if v < 0 {
		return 0
	}
	if v > 127 {
		return 127
	}
	return byte(v)
}

// HostConsumes reports whether the host intercepts this internal CC/button
// combination rather than forwarding it (spec.md §4.10 step 7): the
// specific chord logic (Shift+Wheel, Back, Master-Knob, Shift+Up/Down) is
// evaluated by the caller, which tracks Shift-held state; HostConsumes only
// reports the always-swallowed UI controls.
func HostConsumes(cc byte) bool {
	return isUIControl(cc)
}
