package modulemgr

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/move-anything/hostrt/internal/pluginabi"
)

func writeManifest(t *testing.T, dir, id string, claimsMasterKnob bool) {
	t.Helper()
	require.NoError(t, os.MkdirAll(dir, 0o755))
	body := "id: " + id + "\nname: Test Module\nversion: 1.0.0\napi_version: 1\ndsp_path: " + id + "\n"
	if claimsMasterKnob {
		body += "capabilities:\n  claims_master_knob: true\n"
	}
	require.NoError(t, os.WriteFile(filepath.Join(dir, ManifestFileName), []byte(body), 0o644))
}

func TestScanFindsModulesAcrossCategories(t *testing.T) {
	root := t.TempDir()
	writeManifest(t, filepath.Join(root, "sound_generators", "synth1"), "synth1", false)
	writeManifest(t, filepath.Join(root, "audio_fx", "reverb1"), "reverb1", false)

	m := New(nil, pluginabi.HostAPI{})
	require.NoError(t, m.Scan(root))
	assert.Equal(t, 2, m.Count())
	assert.Equal(t, 0, m.FindByID("synth1"))
	assert.Equal(t, 1, m.FindByID("reverb1"))
	assert.Equal(t, -1, m.FindByID("nope"))
}

func TestScanSkipsMissingManifestDirectories(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "utilities", "no_manifest"), 0o755))
	writeManifest(t, filepath.Join(root, "utilities", "good"), "good", false)

	m := New(nil, pluginabi.HostAPI{})
	require.NoError(t, m.Scan(root))
	require.Equal(t, 1, m.Count())
	info, ok := m.Info(0)
	require.True(t, ok)
	assert.Equal(t, "good", info.ID)
}

// fakeV1 is a minimal V1 plugin for load/render/param round-trip tests.
type fakeV1 struct {
	loaded   bool
	params   map[string]string
	lastMIDI []byte
}

func newFakeV1() *fakeV1 { return &fakeV1{params: map[string]string{}} }

func (f *fakeV1) OnLoad(dir, defaults string, host pluginabi.HostAPI) error {
	f.loaded = true
	return nil
}
func (f *fakeV1) OnUnload()                                  { f.loaded = false }
func (f *fakeV1) OnMIDI(msg []byte, source pluginabi.MIDISource) { f.lastMIDI = msg }
func (f *fakeV1) SetParam(key, value string) error {
	f.params[key] = value
	return nil
}
func (f *fakeV1) GetParam(key string) (string, bool) {
	v, ok := f.params[key]
	return v, ok
}
func (f *fakeV1) RenderBlock(outLR []int16, frames int) {
	for i := range outLR {
		outLR[i] = 1000
	}
}

type fakeLoader struct {
	v1                *fakeV1
	claimsMasterKnob  bool
}

func (l *fakeLoader) Resolve(dspPath string) (pluginabi.V1, pluginabi.V2, error) {
	return l.v1, nil, nil
}

func TestLoadRenderAndHostVolume(t *testing.T) {
	root := t.TempDir()
	writeManifest(t, filepath.Join(root, "sound_generators", "synth1"), "synth1", false)

	v1 := newFakeV1()
	m := New(&fakeLoader{v1: v1}, pluginabi.HostAPI{})
	require.NoError(t, m.Scan(root))
	require.NoError(t, m.Load(0))
	assert.True(t, m.IsLoaded())
	assert.True(t, v1.loaded)

	m.SetHostVolume(50)
	out := make([]int16, 4)
	m.RenderBlock(out, 2)
	for _, s := range out {
		assert.Equal(t, int16(500), s) // 1000 * 50 / 100
	}

	m.Unload()
	assert.False(t, m.IsLoaded())
	assert.False(t, v1.loaded)
}

func TestClaimsMasterKnobSkipsVolumeScaling(t *testing.T) {
	root := t.TempDir()
	writeManifest(t, filepath.Join(root, "sound_generators", "synth1"), "synth1", true)

	v1 := newFakeV1()
	m := New(&fakeLoader{v1: v1}, pluginabi.HostAPI{})
	require.NoError(t, m.Scan(root))
	require.NoError(t, m.Load(0))
	assert.True(t, m.ClaimsMasterKnob())

	m.SetHostVolume(10)
	out := make([]int16, 2)
	m.RenderBlock(out, 1)
	assert.Equal(t, int16(1000), out[0]) // unscaled
}

func TestSetGetParamRoundTrip(t *testing.T) {
	root := t.TempDir()
	writeManifest(t, filepath.Join(root, "utilities", "u1"), "u1", false)

	v1 := newFakeV1()
	m := New(&fakeLoader{v1: v1}, pluginabi.HostAPI{})
	require.NoError(t, m.Scan(root))
	require.NoError(t, m.Load(0))

	require.NoError(t, m.SetParam("gain", "0.5"))
	v, ok := m.GetParam("gain")
	require.True(t, ok)
	assert.Equal(t, "0.5", v)
}
