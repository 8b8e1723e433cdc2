// Package host implements the hardware mailbox tick loop (spec.md §4.10):
// per audio block it renders the loaded module, applies host volume,
// writes the mailbox, generates the internal MIDI clock, flushes the LED
// queue, swaps the mailbox with the device, drains incoming MIDI through
// the host-level transforms, and advances the display slice. Grounded on
// original_source/src/host/move_anything_shim.c's per-block dispatch loop
// (render → mailbox write → clock tick → led flush → ioctl swap →
// midi drain → display push), translated from one monolithic function into
// a Host type whose Tick method performs the same ordered steps.
package host

import (
	"encoding/binary"
	"fmt"

	"github.com/move-anything/hostrt/internal/clock"
	"github.com/move-anything/hostrt/internal/host/ledqueue"
	"github.com/move-anything/hostrt/internal/mailbox"
	"github.com/move-anything/hostrt/internal/midi"
	"github.com/move-anything/hostrt/internal/modulemgr"
	"github.com/move-anything/hostrt/internal/pluginabi"
	"github.com/move-anything/hostrt/internal/settings"
)

// FramesPerBlock is the fixed audio render block size (spec.md §4.10).
const FramesPerBlock = 128

// DisplaySlices is how many ticks a full 128x64 frame refresh is spread
// across (spec.md §4.10 step 9: "1/6 of the frame").
const DisplaySlices = 6

// UIHook is the out-of-scope embedded JS engine's tick contract (spec.md
// §1, §4.10 step 1); nil disables step 1 entirely.
type UIHook interface {
	Tick(payload string) (string, error)
}

// Host owns every subsystem the tick loop drives. Callers build one per
// running instance; there is no package-level state.
type Host struct {
	Manager  *modulemgr.Manager
	Backend  mailbox.Backend
	LED      *ledqueue.Queue
	Clock    *clock.State
	Settings settings.Settings
	UI       UIHook // optional

	// OnExitRequested, OnReturnToMenu, OnTransposeDelta are host-consumed
	// control surfaces (spec.md §4.10 step 7) the embedding application
	// wires to its own menu/transpose state; nil means "ignore".
	OnExitRequested  func()
	OnReturnToMenu   func()
	OnTransposeDelta func(delta int)

	audioBuf     []int16
	shiftHeld    bool
	transpose    int
	displaySlice int
	lastFrame    []byte
	started      bool
}

// New builds a Host. clk drives the internal MIDI clock; it is shared with
// any other user of the same *clock.State the caller passes.
func New(mgr *modulemgr.Manager, backend mailbox.Backend, clk *clock.State, s settings.Settings) *Host {
	return &Host{
		Manager:  mgr,
		Backend:  backend,
		LED:      ledqueue.New(),
		Clock:    clk,
		Settings: s,
		audioBuf: make([]int16, FramesPerBlock*2),
	}
}

// Tick performs one pass of spec.md §4.10's nine ordered steps.
func (h *Host) Tick() error {
	// 1. UI script tick hook; its reply is the next display frame.
	if h.UI != nil {
		reply, err := h.UI.Tick(fmt.Sprintf(`{"display_slice":%d}`, h.displaySlice))
		if err != nil {
			return fmt.Errorf("host: ui tick: %w", err)
		}
		h.lastFrame = []byte(reply)
	}

	// 2. Render the current module (or silence). The buffer is first
	// filled with the device's audio-in block so modules can process it
	// in place.
	in := h.Backend.AudioIn()
	for i := range h.audioBuf {
		if i*2+2 > len(in) {
			h.audioBuf[i] = 0
			continue
		}
		h.audioBuf[i] = int16(binary.LittleEndian.Uint16(in[i*2 : i*2+2]))
	}
	h.Manager.RenderBlock(h.audioBuf, FramesPerBlock)

	// 3. Copy into the mailbox's audio-out region (host volume already
	// applied inside RenderBlock).
	copy(h.Backend.AudioOut(), int16ToBytes(h.audioBuf))

	// 4. Internal MIDI clock.
	if h.Settings.ClockMode == settings.ClockInternal && h.Settings.TempoBPM > 0 {
		h.tickInternalClock()
	}

	// 5. Flush the LED queue.
	h.flushLEDs()

	// 6. Swap the mailbox with the device.
	if err := h.Backend.Swap(); err != nil {
		return fmt.Errorf("host: mailbox swap: %w", err)
	}

	// 7-8. Drain and dispatch incoming MIDI.
	h.drainMIDI()

	// 9. Push one display slice.
	h.pushDisplaySlice()

	return nil
}

func (h *Host) tickInternalClock() {
	if !h.started {
		h.started = true
		h.Clock.SendClock = true
		if b, changed := h.Clock.SetPlaying(true); changed && b != 0 {
			h.sendInternalRealtimeByte(b)
		}
	}
	ev := h.Clock.Advance(FramesPerBlock)
	for _, b := range ev.MIDIClockBytes {
		h.sendInternalRealtimeByte(b)
	}
}

func (h *Host) sendInternalRealtimeByte(b byte) {
	pkt := midi.Packet{Cable: midi.CableInternal, CIN: midi.CINSingleByte, Status: b}
	raw := pkt.Encode()
	h.Manager.OnMIDI(raw[1:2], pluginabi.SourceHost)
}

func (h *Host) flushLEDs() {
	usedBytes := 0 // the reference tracks other pending outbound MIDI; we have none queued ahead of LEDs here
	packets := h.LED.Flush(usedBytes, false)
	out := h.Backend.MIDIOut()
	pos := 0
	for _, p := range packets {
		if pos+4 > len(out) {
			break
		}
		raw := midi.Packet{Cable: midi.CableInternal, CIN: p.CIN, Status: p.Status, Data1: p.Data1, Data2: p.Data2}.Encode()
		copy(out[pos:pos+4], raw[:])
		pos += 4
	}
}

func (h *Host) drainMIDI() {
	in := h.Backend.MIDIIn()
	for pos := 0; pos+4 <= len(in); pos += 4 {
		var raw [4]byte
		copy(raw[:], in[pos:pos+4])
		if raw == ([4]byte{}) {
			continue
		}
		pkt := midi.Decode(raw)
		h.dispatchMIDI(pkt)
	}
}

func (h *Host) dispatchMIDI(pkt midi.Packet) {
	switch pkt.Cable {
	case midi.CableExternal:
		h.Manager.OnMIDI(encodeMsg(pkt), pluginabi.SourceExternal)
		return
	case midi.CableInternal:
		h.dispatchInternal(pkt)
	}
}

func (h *Host) dispatchInternal(pkt midi.Packet) {
	current, _ := h.Manager.Current()
	if pkt.MessageType() == 0xB0 && pkt.Data1 == midi.CCShift {
		h.shiftHeld = pkt.Data2 > 0
	}

	if pkt.MessageType() == 0xB0 && h.handleHostControlCC(pkt, current.Capabilities) {
		return
	}

	transformed := pkt
	if !current.Capabilities.RawMIDI {
		var forward bool
		transformed, forward = h.applyTransforms(pkt, current.Capabilities)
		if !forward {
			return
		}
	}
	h.Manager.OnMIDI(encodeMsg(transformed), pluginabi.SourceInternal)

	isSwallowedUIControl := transformed.MessageType() == 0xB0 && midi.HostConsumes(transformed.Data1)
	forwardToUI := current.Capabilities.RawUI || !isSwallowedUIControl
	if forwardToUI && h.UI != nil {
		msg := transformed.Encode()
		h.UI.Tick(fmt.Sprintf(`{"midi":[%d,%d,%d]}`, msg[1], msg[2], msg[3]))
	}
}

// handleHostControlCC implements spec.md §4.10 step 7's host-consumed
// control surfaces. It reports whether the event should stop here instead
// of reaching the module/UI.
func (h *Host) handleHostControlCC(pkt midi.Packet, caps pluginabi.Capabilities) bool {
	if pkt.Data2 == 0 {
		return false // only act on press, not release
	}
	switch pkt.Data1 {
	case midi.CCJogWheel:
		if h.shiftHeld {
			if h.OnExitRequested != nil {
				h.OnExitRequested()
			}
			return true
		}
	case midi.CCBack:
		if !caps.RawUI {
			if h.OnReturnToMenu != nil {
				h.OnReturnToMenu()
			}
			return true
		}
	case midi.CCMasterKnob:
		if !caps.ClaimsMasterKnob {
			h.Manager.SetHostVolume(int(pkt.Data2) * 100 / 127)
			return true
		}
	case midi.CCUp:
		if h.shiftHeld {
			h.adjustTranspose(1)
			return true
		}
	case midi.CCDown:
		if h.shiftHeld {
			h.adjustTranspose(-1)
			return true
		}
	}
	return false
}

func (h *Host) adjustTranspose(delta int) {
	h.transpose += delta
	if h.OnTransposeDelta != nil {
		h.OnTransposeDelta(delta)
	}
}

// applyTransforms runs the cable-0 host transforms (spec.md §4.11):
// pad-layout remap, velocity curve, transpose, aftertouch deadzone. It
// reports false when the event is dropped (aftertouch while disabled).
func (h *Host) applyTransforms(pkt midi.Packet, caps pluginabi.Capabilities) (midi.Packet, bool) {
	switch pkt.MessageType() {
	case 0x90:
		pkt.Data1 = midi.RemapPad(h.Settings.PadLayout, pkt.Data1)
		pkt.Data1 = midi.ApplyTranspose(pkt.Data1, h.transpose)
		pkt.Data2 = midi.ApplyVelocityCurve(h.Settings.VelocityCurve, pkt.Data2)
	case 0x80:
		pkt.Data1 = midi.RemapPad(h.Settings.PadLayout, pkt.Data1)
		pkt.Data1 = midi.ApplyTranspose(pkt.Data1, h.transpose)
	case 0xD0: // channel pressure / aftertouch
		out, forward := midi.ApplyAftertouch(h.Settings.AftertouchEnabled, byte(h.Settings.AftertouchDeadzone), pkt.Data1)
		if !forward {
			return pkt, false
		}
		pkt.Data1 = out
	}
	return pkt, true
}

// pushDisplaySlice writes one Nth of the most recent UI-script frame into
// the mailbox's display region, tagged with the slice index so the device
// side can reassemble the full 128x64 frame over DisplaySlices ticks.
func (h *Host) pushDisplaySlice() {
	disp := h.Backend.Display()
	if len(disp) < 2 {
		return
	}
	body := disp[1:]
	sliceLen := len(body) / DisplaySlices
	if sliceLen == 0 {
		return
	}
	disp[0] = byte(h.displaySlice)
	start := h.displaySlice * sliceLen
	end := start + sliceLen
	if start < len(h.lastFrame) {
		if end > len(h.lastFrame) {
			end = len(h.lastFrame)
		}
		copy(body[:end-start], h.lastFrame[start:end])
	}
	h.displaySlice = (h.displaySlice + 1) % DisplaySlices
}

func encodeMsg(pkt midi.Packet) []byte {
	switch pkt.MessageType() {
	case 0xC0, 0xD0:
		return []byte{pkt.Status, pkt.Data1}
	default:
		return []byte{pkt.Status, pkt.Data1, pkt.Data2}
	}
}

func int16ToBytes(samples []int16) []byte {
	out := make([]byte, len(samples)*2)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(out[i*2:i*2+2], uint16(s))
	}
	return out
}
