package simhw

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInt16ByteConversionRoundTrip(t *testing.T) {
	samples := []int16{0, 1, -1, 32767, -32768, 12345}
	b := int16SliceToBytes(samples)
	assert.Len(t, b, len(samples)*2)

	back := bytesToInt16Slice(b)
	assert.Equal(t, samples, back)
}
