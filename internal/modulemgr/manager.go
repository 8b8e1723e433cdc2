// Package modulemgr scans, loads, and drives DSP modules (spec.md §4.9),
// grounded on original_source/src/host/module_manager.c's mm_* functions.
package modulemgr

import (
	"fmt"
	"os"

	"github.com/move-anything/hostrt/internal/pluginabi"
)

// MaxModules bounds how many modules a single scan records (spec.md §4.9
// "maximum MAX_MODULES = 32 in reference").
const MaxModules = 32

// Loader resolves a module's DSP path to live V1/V2 implementations. The
// reference dlopen/dlsym's a shared object; here a module's dsp_path is a
// registry key resolved against modules compiled into this binary
// (spec.md §9 "stable extern-C interface at the boundary, idiomatic
// ownership inside the host" — Go has no portable dlopen for plugin code,
// so the boundary becomes a name->factory registry instead).
type Loader interface {
	Resolve(dspPath string) (v1 pluginabi.V1, v2 pluginabi.V2, err error)
}

// LoadError is a LoadFailure (spec.md §7): fatal to the load attempt, not
// to the host.
type LoadError struct {
	ModuleID string
	Err      error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load module %q: %v", e.ModuleID, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// Manager owns the discovered module table and the currently loaded
// instance (spec.md §4.9 module_manager_t).
type Manager struct {
	loader Loader
	host   pluginabi.HostAPI

	modules []Info

	currentIndex int // -1 if none
	currentV1    pluginabi.V1
	currentV2    pluginabi.V2
	currentHandle pluginabi.Handle

	hostVolume int // 0-100
	lastError  error
}

// New builds a Manager bound to loader and the host capability bundle
// passed to every loaded module (spec.md §4.8 host_api).
func New(loader Loader, host pluginabi.HostAPI) *Manager {
	return &Manager{
		loader:       loader,
		host:         host,
		currentIndex: -1,
		hostVolume:   100,
	}
}

// Scan walks root/<category> for every fixed category (spec.md §4.9),
// parsing module.yaml in each immediate child directory. ManifestParse
// errors (missing/malformed manifest) skip that module and continue;
// scanning stops early only once MaxModules modules have been recorded.
func (m *Manager) Scan(root string) error {
	m.modules = m.modules[:0]
	for _, cat := range Categories {
		catDir := root + string(os.PathSeparator) + string(cat)
		entries, err := os.ReadDir(catDir)
		if err != nil {
			continue // category directory absent is not fatal
		}
		for _, ent := range entries {
			if len(m.modules) >= MaxModules {
				return nil
			}
			if !ent.IsDir() {
				continue
			}
			dir := catDir + string(os.PathSeparator) + ent.Name()
			info, err := parseManifest(dir, cat)
			if err != nil {
				continue // spec.md §7 ManifestParse: skip, keep scanning
			}
			m.modules = append(m.modules, info)
		}
	}
	return nil
}

// Count returns the number of discovered modules.
func (m *Manager) Count() int { return len(m.modules) }

// Info returns module metadata by scan index.
func (m *Manager) Info(index int) (Info, bool) {
	if index < 0 || index >= len(m.modules) {
		return Info{}, false
	}
	return m.modules[index], true
}

// FindByID returns the scan index of the module with the given id, or -1.
func (m *Manager) FindByID(id string) int {
	for i, info := range m.modules {
		if info.ID == id {
			return i
		}
	}
	return -1
}

// Load loads the module at index, trying the V2 (instance) interface first
// and falling back to V1 (singleton) per spec.md §4.9. Any previously
// loaded module is unloaded first.
func (m *Manager) Load(index int) error {
	info, ok := m.Info(index)
	if !ok {
		return &LoadError{ModuleID: "?", Err: fmt.Errorf("index %d out of range", index)}
	}
	m.Unload()

	v1, v2, err := m.loader.Resolve(info.DSPPath)
	if err != nil {
		m.lastError = &LoadError{ModuleID: info.ID, Err: err}
		return m.lastError
	}

	if v2 != nil {
		handle, err := v2.CreateInstance(info.ModuleDir, info.Defaults, m.host)
		if err != nil {
			m.lastError = &LoadError{ModuleID: info.ID, Err: err}
			return m.lastError
		}
		m.currentV2 = v2
		m.currentHandle = handle
		m.currentIndex = index
		return nil
	}
	if v1 != nil {
		if err := v1.OnLoad(info.ModuleDir, info.Defaults, m.host); err != nil {
			m.lastError = &LoadError{ModuleID: info.ID, Err: err}
			return m.lastError
		}
		m.currentV1 = v1
		m.currentIndex = index
		return nil
	}
	m.lastError = &LoadError{ModuleID: info.ID, Err: fmt.Errorf("resolver returned neither v1 nor v2")}
	return m.lastError
}

// LoadByID loads by module id, returning an error if no such id was
// discovered.
func (m *Manager) LoadByID(id string) error {
	idx := m.FindByID(id)
	if idx < 0 {
		return fmt.Errorf("no module with id %q", id)
	}
	return m.Load(idx)
}

// Unload tears down the current module: destroy_instance/on_unload before
// releasing resources (spec.md §4.9, §5 cancellation semantics).
func (m *Manager) Unload() {
	if m.currentV2 != nil {
		m.currentV2.DestroyInstance(m.currentHandle)
		m.currentV2 = nil
	}
	if m.currentV1 != nil {
		m.currentV1.OnUnload()
		m.currentV1 = nil
	}
	m.currentIndex = -1
}

// IsLoaded reports whether a module is currently loaded.
func (m *Manager) IsLoaded() bool { return m.currentIndex >= 0 }

// Current returns the currently loaded module's info, if any.
func (m *Manager) Current() (Info, bool) {
	if m.currentIndex < 0 {
		return Info{}, false
	}
	return m.modules[m.currentIndex], true
}

// OnMIDI dispatches to the loaded module, a no-op if none is loaded.
func (m *Manager) OnMIDI(msg []byte, source pluginabi.MIDISource) {
	switch {
	case m.currentV2 != nil:
		m.currentV2.OnMIDI(m.currentHandle, msg, source)
	case m.currentV1 != nil:
		m.currentV1.OnMIDI(msg, source)
	}
}

// SetParam dispatches to the loaded module.
func (m *Manager) SetParam(key, value string) error {
	switch {
	case m.currentV2 != nil:
		return m.currentV2.SetParam(m.currentHandle, key, value)
	case m.currentV1 != nil:
		return m.currentV1.SetParam(key, value)
	}
	return fmt.Errorf("no module loaded")
}

// GetParam dispatches to the loaded module.
func (m *Manager) GetParam(key string) (string, bool) {
	switch {
	case m.currentV2 != nil:
		return m.currentV2.GetParam(m.currentHandle, key)
	case m.currentV1 != nil:
		return m.currentV1.GetParam(key)
	}
	return "", false
}

// RenderBlock renders frames into outLR (interleaved L/R int16) and applies
// host volume post-render, unless the loaded module claims the master
// knob, in which case host volume scaling is skipped and left to the
// module (spec.md §4.9).
func (m *Manager) RenderBlock(outLR []int16, frames int) {
	switch {
	case m.currentV2 != nil:
		m.currentV2.RenderBlock(m.currentHandle, outLR, frames)
	case m.currentV1 != nil:
		m.currentV1.RenderBlock(outLR, frames)
	default:
		for i := range outLR {
			outLR[i] = 0
		}
		return
	}

	if info, ok := m.Current(); ok && info.Capabilities.ClaimsMasterKnob {
		return
	}
	for i, s := range outLR {
		outLR[i] = int16(int(s) * m.hostVolume / 100)
	}
}

// SetHostVolume clamps and stores the 0-100 host volume (spec.md §4.9).
func (m *Manager) SetHostVolume(v int) {
	if v < 0 {
		v = 0
	}
	if v > 100 {
		v = 100
	}
	m.hostVolume = v
}

func (m *Manager) HostVolume() int { return m.hostVolume }

// ClaimsMasterKnob reports whether the current module declares
// claims_master_knob, deferring volume-knob handling to it (spec.md §4.9).
func (m *Manager) ClaimsMasterKnob() bool {
	info, ok := m.Current()
	return ok && info.Capabilities.ClaimsMasterKnob
}

// LastError returns the most recent LoadError, for a get_error-style
// surface (spec.md §7 "plugin-load errors surface through get_error").
func (m *Manager) LastError() error { return m.lastError }
