package host

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/move-anything/hostrt/internal/clock"
	"github.com/move-anything/hostrt/internal/mailbox"
	"github.com/move-anything/hostrt/internal/midi"
	"github.com/move-anything/hostrt/internal/modulemgr"
	"github.com/move-anything/hostrt/internal/pluginabi"
	"github.com/move-anything/hostrt/internal/settings"
)

// fakeBackend is an in-memory mailbox.Backend for tests.
type fakeBackend struct {
	audioOut, audioIn, midiOut, midiIn, display, raw []byte
	swaps                                            int
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		audioOut: make([]byte, mailbox.AudioOutSize),
		audioIn:  make([]byte, mailbox.AudioInSize),
		midiOut:  make([]byte, mailbox.MIDIOutSize),
		midiIn:   make([]byte, mailbox.MIDIInSize),
		display:  make([]byte, mailbox.DisplaySize),
		raw:      make([]byte, mailbox.Size),
	}
}

func (f *fakeBackend) Swap() error      { f.swaps++; return nil }
func (f *fakeBackend) Close() error     { return nil }
func (f *fakeBackend) AudioOut() []byte { return f.audioOut }
func (f *fakeBackend) AudioIn() []byte  { return f.audioIn }
func (f *fakeBackend) MIDIOut() []byte  { return f.midiOut }
func (f *fakeBackend) MIDIIn() []byte   { return f.midiIn }
func (f *fakeBackend) Display() []byte  { return f.display }
func (f *fakeBackend) Raw() []byte      { return f.raw }

var _ mailbox.Backend = (*fakeBackend)(nil)

// fakeModule is a minimal pluginabi.V1 recording what it's told.
type fakeModule struct {
	midiMsgs [][]byte
	midiSrcs []pluginabi.MIDISource
	caps     pluginabi.Capabilities
}

func (f *fakeModule) OnLoad(moduleDir, defaultsJSON string, host pluginabi.HostAPI) error {
	return nil
}
func (f *fakeModule) OnUnload() {}
func (f *fakeModule) OnMIDI(msg []byte, source pluginabi.MIDISource) {
	f.midiMsgs = append(f.midiMsgs, append([]byte(nil), msg...))
	f.midiSrcs = append(f.midiSrcs, source)
}
func (f *fakeModule) SetParam(key, value string) error  { return nil }
func (f *fakeModule) GetParam(key string) (string, bool) { return "", false }
func (f *fakeModule) RenderBlock(outLR []int16, frames int) {
	for i := range outLR {
		outLR[i] = 100
	}
}

type fakeLoader struct {
	v1 pluginabi.V1
}

func (l *fakeLoader) Resolve(dspPath string) (pluginabi.V1, pluginabi.V2, error) {
	return l.v1, nil, nil
}

// seedFakeModule writes a throwaway module.yaml under a real modules root
// and scans/loads it, exercising modulemgr's actual manifest path instead
// of reaching into its unexported state.
func seedFakeModule(t *testing.T, mgr *modulemgr.Manager, caps pluginabi.Capabilities) error {
	t.Helper()
	root := t.TempDir()
	dir := filepath.Join(root, "sound_generators", "fake")
	require.NoError(t, os.MkdirAll(dir, 0o755))

	manifest := fmt.Sprintf(`
id: fake
name: Fake
version: "1.0"
dsp_path: fake
api_version: 1
capabilities:
  claims_master_knob: %t
  raw_midi: %t
  raw_ui: %t
`, caps.ClaimsMasterKnob, caps.RawMIDI, caps.RawUI)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "module.yaml"), []byte(manifest), 0o644))

	require.NoError(t, mgr.Scan(root))
	return mgr.LoadByID("fake")
}

func newTestHost(t *testing.T, caps pluginabi.Capabilities) (*Host, *fakeModule, *fakeBackend) {
	t.Helper()
	mod := &fakeModule{caps: caps}
	loader := &fakeLoader{v1: mod}
	mgr := modulemgr.New(loader, pluginabi.HostAPI{})
	require.NoError(t, seedFakeModule(t, mgr, caps))

	backend := newFakeBackend()
	clk := clock.New(44100, 120)
	h := New(mgr, backend, clk, settings.Default())
	return h, mod, backend
}

func TestTickRendersAndSwapsMailbox(t *testing.T) {
	h, _, backend := newTestHost(t, pluginabi.Capabilities{})
	err := h.Tick()
	require.NoError(t, err)
	assert.Equal(t, 1, backend.swaps)
	assert.NotZero(t, backend.AudioOut()[0])
}

func TestExternalCableForwardsUntransformed(t *testing.T) {
	h, mod, backend := newTestHost(t, pluginabi.Capabilities{})
	pkt := midi.Packet{Cable: midi.CableExternal, CIN: midi.CINNoteOn, Status: 0x90, Data1: 40, Data2: 100}
	raw := pkt.Encode()
	copy(backend.midiIn, raw[:])

	require.NoError(t, h.Tick())

	require.Len(t, mod.midiMsgs, 1)
	assert.Equal(t, pluginabi.SourceExternal, mod.midiSrcs[0])
	assert.Equal(t, []byte{0x90, 40, 100}, mod.midiMsgs[0])
}

func TestInternalCableAppliesVelocityCurve(t *testing.T) {
	h, mod, backend := newTestHost(t, pluginabi.Capabilities{})
	h.Settings.VelocityCurve = midi.VelocityFull

	pkt := midi.Packet{Cable: midi.CableInternal, CIN: midi.CINNoteOn, Status: 0x90, Data1: 40, Data2: 10}
	raw := pkt.Encode()
	copy(backend.midiIn, raw[:])

	require.NoError(t, h.Tick())

	require.Len(t, mod.midiMsgs, 1)
	assert.Equal(t, byte(127), mod.midiMsgs[0][2])
}

func TestMasterKnobAdjustsHostVolumeWhenNotClaimed(t *testing.T) {
	h, _, backend := newTestHost(t, pluginabi.Capabilities{})

	pkt := midi.Packet{Cable: midi.CableInternal, CIN: midi.CINControlChange, Status: 0xB0, Data1: midi.CCMasterKnob, Data2: 127}
	raw := pkt.Encode()
	copy(backend.midiIn, raw[:])

	require.NoError(t, h.Tick())

	assert.Equal(t, 100, h.Manager.HostVolume())
}

func TestMasterKnobIgnoredWhenModuleClaimsIt(t *testing.T) {
	h, mod, backend := newTestHost(t, pluginabi.Capabilities{ClaimsMasterKnob: true})

	pkt := midi.Packet{Cable: midi.CableInternal, CIN: midi.CINControlChange, Status: 0xB0, Data1: midi.CCMasterKnob, Data2: 64}
	raw := pkt.Encode()
	copy(backend.midiIn, raw[:])

	require.NoError(t, h.Tick())

	// volume untouched (default from modulemgr.New is 100); the module
	// receives the CC itself since it claims the knob.
	assert.Equal(t, 100, h.Manager.HostVolume())
	require.Len(t, mod.midiMsgs, 1)
	assert.Equal(t, midi.CCMasterKnob, int(mod.midiMsgs[0][1]))
}

func TestShiftJogWheelRequestsExit(t *testing.T) {
	h, _, backend := newTestHost(t, pluginabi.Capabilities{})
	exited := false
	h.OnExitRequested = func() { exited = true }

	shiftOn := midi.Packet{Cable: midi.CableInternal, CIN: midi.CINControlChange, Status: 0xB0, Data1: midi.CCShift, Data2: 127}
	wheel := midi.Packet{Cable: midi.CableInternal, CIN: midi.CINControlChange, Status: 0xB0, Data1: midi.CCJogWheel, Data2: 1}
	a, b := shiftOn.Encode(), wheel.Encode()
	copy(backend.midiIn[0:4], a[:])
	copy(backend.midiIn[4:8], b[:])

	require.NoError(t, h.Tick())

	assert.True(t, exited)
}

func TestShiftUpDownAdjustsTranspose(t *testing.T) {
	h, _, backend := newTestHost(t, pluginabi.Capabilities{})

	shiftOn := midi.Packet{Cable: midi.CableInternal, CIN: midi.CINControlChange, Status: 0xB0, Data1: midi.CCShift, Data2: 127}
	up := midi.Packet{Cable: midi.CableInternal, CIN: midi.CINControlChange, Status: 0xB0, Data1: midi.CCUp, Data2: 1}
	a, b := shiftOn.Encode(), up.Encode()
	copy(backend.midiIn[0:4], a[:])
	copy(backend.midiIn[4:8], b[:])

	require.NoError(t, h.Tick())

	assert.Equal(t, 1, h.transpose)
}

func TestInternalClockEmitsStartAndClockBytes(t *testing.T) {
	h, mod, _ := newTestHost(t, pluginabi.Capabilities{})
	h.Settings.ClockMode = settings.ClockInternal
	h.Settings.TempoBPM = 120

	require.NoError(t, h.Tick())

	foundStart := false
	for _, msg := range mod.midiMsgs {
		if len(msg) == 1 && msg[0] == clock.ByteStart {
			foundStart = true
		}
	}
	assert.True(t, foundStart)
}

func TestRawMIDICapabilitySkipsTransforms(t *testing.T) {
	h, mod, backend := newTestHost(t, pluginabi.Capabilities{RawMIDI: true})
	h.Settings.VelocityCurve = midi.VelocityFull

	pkt := midi.Packet{Cable: midi.CableInternal, CIN: midi.CINNoteOn, Status: 0x90, Data1: 40, Data2: 10}
	raw := pkt.Encode()
	copy(backend.midiIn, raw[:])

	require.NoError(t, h.Tick())

	require.Len(t, mod.midiMsgs, 1)
	assert.Equal(t, byte(10), mod.midiMsgs[0][2])
}

func TestDisplaySliceAdvancesEachTick(t *testing.T) {
	h, _, _ := newTestHost(t, pluginabi.Capabilities{})
	for i := 0; i < DisplaySlices; i++ {
		assert.Equal(t, i, h.displaySlice)
		require.NoError(t, h.Tick())
	}
	assert.Equal(t, 0, h.displaySlice)
}
