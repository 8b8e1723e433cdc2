// Package midi implements the USB-MIDI packet codec and the host-side
// transforms applied to cable-0 (internal hardware) traffic (spec.md §4.11,
// §6), grounded on original_source/src/host/shadow_midi.c and
// shadow_midi.h's CC table.
package midi

// Cable identifies which USB-MIDI virtual cable a packet arrived on or is
// destined for (spec.md §6).
type Cable byte

const (
	CableInternal Cable = 0 // hardware pads/encoders
	CableUI       Cable = 1 // shadow UI script output
	CableExternal Cable = 2 // physical MIDI-in
)

// Source mirrors spec.md §4.8's MIDI source codes, passed to a plugin's
// on_midi alongside the 3-byte message.
type Source int

const (
	SourceInternal Source = iota
	SourceExternal
	SourceHost
	SourceFXBroadcast
)

// Packet is a decoded 4-byte USB-MIDI event (spec.md §6): [cable<<4|CIN,
// status, data1, data2].
type Packet struct {
	Cable  Cable
	CIN    byte
	Status byte
	Data1  byte
	Data2  byte
}

// CIN codes (spec.md §6).
const (
	CINNoteOff       = 0x8
	CINNoteOn        = 0x9
	CINPolyKeyPress  = 0xA
	CINControlChange = 0xB
	CINProgramChange = 0xC
	CINChannelPress  = 0xD
	CINPitchBend     = 0xE
	CINSingleByte    = 0xF
)

// Decode unpacks a raw 4-byte USB-MIDI packet.
func Decode(raw [4]byte) Packet {
	return Packet{
		Cable:  Cable(raw[0] >> 4),
		CIN:    raw[0] & 0x0F,
		Status: raw[1],
		Data1:  raw[2],
		Data2:  raw[3],
	}
}

// Encode packs a Packet back to wire form.
func (p Packet) Encode() [4]byte {
	return [4]byte{byte(p.Cable)<<4 | p.CIN, p.Status, p.Data1, p.Data2}
}

// MessageType extracts the high nibble of the status byte (0x80-0xF0).
func (p Packet) MessageType() byte { return p.Status & 0xF0 }

// Channel extracts the low nibble of the status byte.
func (p Packet) Channel() byte { return p.Status & 0x0F }

// IsNoteOn reports a note-on with nonzero velocity; a zero-velocity 0x90 is
// conventionally treated as note-off by callers that care (spec.md §4.11
// "velocity 0 untouched").
func (p Packet) IsNoteOn() bool {
	return p.MessageType() == 0x90 && p.Data2 > 0
}

func (p Packet) IsNoteOff() bool {
	return p.MessageType() == 0x80 || (p.MessageType() == 0x90 && p.Data2 == 0)
}
