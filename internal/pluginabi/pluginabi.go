// Package pluginabi defines the versioned plugin interface (spec.md §4.8),
// grounded on original_source/src/host/module_manager.h's plugin_api_v1_t/
// plugin_api_v2_t function tables. Per spec.md §9 "preserve the v1/v2
// instance-state factoring; use a stable boundary interface, idiomatic
// ownership inside the host", the C function-pointer table becomes a Go
// interface: real modules built as Go plugins implement it directly, and a
// future dynamic-loading boundary would marshal across this same shape.
package pluginabi

// MIDISource mirrors spec.md §4.8's on_midi source codes.
type MIDISource int

const (
	SourceInternal MIDISource = iota
	SourceExternal
	SourceHost
	SourceFXBroadcast
)

// HostAPI is the capability bundle a host offers a plugin at load time
// (spec.md §4.8 "host_api"). Plugins see the hardware mailbox only through
// MappedMemory plus the two offsets, never the mailbox type itself.
type HostAPI struct {
	APIVersion      int
	SampleRate      float64
	FramesPerBlock  int
	MappedMemory    []byte
	AudioOutOffset  int
	AudioInOffset   int

	Log               func(msg string)
	MIDISendInternal  func(msg []byte)
	MIDISendExternal  func(msg []byte)
}

// V1 is the singleton plugin interface (spec.md §4.8): one instance per
// process, no explicit handle.
type V1 interface {
	OnLoad(moduleDir, defaultsJSON string, host HostAPI) error
	OnUnload()
	OnMIDI(msg []byte, source MIDISource)
	SetParam(key, value string) error
	GetParam(key string) (string, bool)
	RenderBlock(outLR []int16, frames int)
}

// Handle identifies a V2 plugin instance.
type Handle int

// V2 is the multi-instance plugin interface (spec.md §4.8), used by the
// chain system. modulemgr prefers it over V1 when a Loader supplies one;
// the built-in modules implement only V1.
type V2 interface {
	CreateInstance(moduleDir, defaultsJSON string, host HostAPI) (Handle, error)
	DestroyInstance(h Handle)
	OnMIDI(h Handle, msg []byte, source MIDISource)
	SetParam(h Handle, key, value string) error
	GetParam(h Handle, key string) (string, bool)
	RenderBlock(h Handle, outLR []int16, frames int)
}

// Capabilities mirrors the manifest-declared capability flags (spec.md
// §4.9, §6) that gate host behavior (raw_midi, raw_ui, claims_master_knob).
type Capabilities struct {
	AudioOut          bool
	AudioIn           bool
	MIDIIn            bool
	MIDIOut           bool
	Aftertouch        bool
	ClaimsMasterKnob  bool
	RawMIDI           bool
	RawUI             bool
}
