package scale

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetectIdempotent(t *testing.T) {
	d := New()
	for _, n := range []int{60, 62, 64, 65, 67, 69, 71} { // C major scale
		d.Observe(n)
	}
	r1 := d.Detect()
	r2 := d.Detect()
	assert.Equal(t, r1, r2)
}

func TestDetectsCMajor(t *testing.T) {
	d := New()
	for _, n := range []int{60, 62, 64, 65, 67, 69, 71} {
		d.Observe(n)
	}
	r := d.Detect()
	assert.Equal(t, 0, r.Root)
	assert.Equal(t, "Major", r.TemplateName)
}

func TestDirtyFlagRecomputesOnNewNote(t *testing.T) {
	d := New()
	d.Observe(60)
	d.Observe(64)
	d.Observe(67)
	first := d.Detect()
	d.Observe(61) // introduce a new pitch class, breaking the major triad match
	second := d.Detect()
	assert.NotEqual(t, first, second)
}

func TestSizeBonusFavorsSimplerTemplateOnTie(t *testing.T) {
	d := New()
	for _, n := range []int{60, 63, 65, 67, 70} { // C minor pentatonic exactly
		d.Observe(n)
	}
	r := d.Detect()
	assert.Equal(t, "MinorPentatonic", r.TemplateName)
}
