package reverb

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/move-anything/hostrt/internal/pluginabi"
)

func TestDryOnlyPassesSignalThroughUnattenuated(t *testing.T) {
	m := New()
	require.NoError(t, m.OnLoad("", "", pluginabi.HostAPI{}))
	require.NoError(t, m.SetParam("wet", "0"))
	require.NoError(t, m.SetParam("dry", "1"))

	out := []int16{1000, -1000}
	m.RenderBlock(out, 1)

	assert.InDelta(t, 1000, out[0], 2)
	assert.InDelta(t, -1000, out[1], 2)
}

func TestSilenceStaysSilent(t *testing.T) {
	m := New()
	require.NoError(t, m.OnLoad("", "", pluginabi.HostAPI{}))

	out := make([]int16, 256)
	m.RenderBlock(out, 128)

	for _, s := range out {
		assert.Equal(t, int16(0), s)
	}
}

func TestSetParamRejectsUnknownKey(t *testing.T) {
	m := New()
	require.NoError(t, m.OnLoad("", "", pluginabi.HostAPI{}))
	assert.Error(t, m.SetParam("bogus", "1"))
}

func TestGetParamRoundTrip(t *testing.T) {
	m := New()
	require.NoError(t, m.OnLoad("", "", pluginabi.HostAPI{}))
	require.NoError(t, m.SetParam("room_size", "0.8"))
	v, ok := m.GetParam("room_size")
	require.True(t, ok)
	assert.Equal(t, "0.8", v)
}
