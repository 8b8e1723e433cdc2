package settings

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/move-anything/hostrt/internal/midi"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	s, err := Load(filepath.Join(t.TempDir(), "nope.ini"))
	require.NoError(t, err)
	assert.Equal(t, Default(), s)
}

func TestLoadParsesAndClampsValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.ini")
	body := "# comment\nvelocity_curve=hard\naftertouch_enabled=0\naftertouch_deadzone=999\npad_layout=fourth\nclock_mode=external\ntempo_bpm=1\n"
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	s, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, midi.VelocityHard, s.VelocityCurve)
	assert.False(t, s.AftertouchEnabled)
	assert.Equal(t, 50, s.AftertouchDeadzone)
	assert.Equal(t, midi.LayoutFourth, s.PadLayout)
	assert.Equal(t, ClockExternal, s.ClockMode)
	assert.Equal(t, 20, s.TempoBPM)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.ini")
	s := Default()
	s.TempoBPM = 140
	s.PadLayout = midi.LayoutFourth

	require.NoError(t, Save(s, path))
	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, s, loaded)
}
