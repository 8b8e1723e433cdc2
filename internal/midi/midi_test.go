package midi

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDecodeEncodeRoundTrip(t *testing.T) {
	raw := [4]byte{0x09, 0x90, 60, 100}
	p := Decode(raw)
	assert.Equal(t, CableInternal, p.Cable)
	assert.Equal(t, byte(CINNoteOn), p.CIN)
	assert.Equal(t, byte(0x90), p.Status)
	assert.Equal(t, raw, p.Encode())
}

func TestIsNoteOnOff(t *testing.T) {
	on := Decode([4]byte{0x09, 0x90, 60, 100})
	assert.True(t, on.IsNoteOn())
	assert.False(t, on.IsNoteOff())

	zeroVel := Decode([4]byte{0x09, 0x90, 60, 0})
	assert.False(t, zeroVel.IsNoteOn())
	assert.True(t, zeroVel.IsNoteOff())

	off := Decode([4]byte{0x08, 0x80, 60, 0})
	assert.True(t, off.IsNoteOff())
}

func TestVelocityCurves(t *testing.T) {
	assert.Equal(t, byte(0), ApplyVelocityCurve(VelocityHard, 0))
	assert.Equal(t, byte(100), ApplyVelocityCurve(VelocityLinear, 100))
	assert.Equal(t, byte(64+50), ApplyVelocityCurve(VelocitySoft, 100))
	assert.Equal(t, byte(127), ApplyVelocityCurve(VelocityFull, 1))
	assert.Equal(t, byte(127*127/127), ApplyVelocityCurve(VelocityHard, 127))
}

func TestRemapPadFourth(t *testing.T) {
	assert.Equal(t, byte(60), RemapPad(LayoutFourth, 68))
	assert.Equal(t, byte(67), RemapPad(LayoutFourth, 75)) // row0 col7
	assert.Equal(t, byte(65), RemapPad(LayoutFourth, 76)) // row1 col0 -> 60+5+0
	assert.Equal(t, byte(50), RemapPad(LayoutChromatic, 50))
	assert.Equal(t, byte(40), RemapPad(LayoutFourth, 40)) // outside pad range
}

func TestApplyAftertouch(t *testing.T) {
	v, fwd := ApplyAftertouch(false, 10, 50)
	assert.False(t, fwd)
	assert.Equal(t, byte(0), v)

	v, fwd = ApplyAftertouch(true, 10, 5)
	assert.True(t, fwd)
	assert.Equal(t, byte(0), v)

	v, fwd = ApplyAftertouch(true, 10, 50)
	assert.True(t, fwd)
	assert.Equal(t, byte(50), v)
}

func TestApplyTransposeClampsAndScopesToPads(t *testing.T) {
	assert.Equal(t, byte(75), ApplyTranspose(68, 7))
	assert.Equal(t, byte(127), ApplyTranspose(99, 50))
	assert.Equal(t, byte(0), ApplyTranspose(68, -100))
	assert.Equal(t, byte(60), ApplyTranspose(60, 12)) // outside 68-99, untouched
}

func TestHostConsumesUIControls(t *testing.T) {
	assert.True(t, HostConsumes(CCMasterKnob))
	assert.True(t, HostConsumes(20)) // in step UI range
	assert.False(t, HostConsumes(100))
}
