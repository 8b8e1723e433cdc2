package arp

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

func TestUpDownIncludesEndpointsTwice(t *testing.T) {
	out := Generate([]int{60, 64, 67}, 6, UpDown, OctaveNone, nil)
	assert.Equal(t, []int{60, 64, 67, 67, 64, 60}, out)
}

func TestUpAndDownNoEndpointRepeat(t *testing.T) {
	out := Generate([]int{60, 64, 67}, 5, UpAndDown, OctaveNone, nil)
	assert.Equal(t, []int{60, 64, 67, 64, 60}, out)
}

func TestChordReturnsSetUnchanged(t *testing.T) {
	out := Generate([]int{67, 60, 64}, 3, Chord, OctaveNone, nil)
	assert.Equal(t, []int{60, 64, 67}, out)
}

func TestOctaveExtensionDropsOutOfRange(t *testing.T) {
	out := Generate([]int{120}, 2, Up, OctaveUp1, nil)
	// 120+12 = 132 is out of range and must be dropped, not clipped; the
	// remaining one-note pattern is cycled to fill count 2.
	assert.Equal(t, []int{120, 120}, out)
}

func TestOctavePM1AroundBothDirections(t *testing.T) {
	out := Generate([]int{60}, 3, Up, OctavePM1, nil)
	assert.Equal(t, []int{48, 60, 72}, out)
}

func TestRandomIsPermutationOfInput(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	out := Generate([]int{60, 62, 64, 65, 67}, 5, Random, OctaveNone, rng)
	assert.ElementsMatch(t, []int{60, 62, 64, 65, 67}, out)
}

// Property (spec.md §8.8): arpeggiator output contains only pitches from
// union(sorted(input), shifted copies by octave), each within [0,127].
func TestOutputOnlyFromInputOrShiftedCopies(t *testing.T) {
	modes := []Mode{Up, Down, UpDown, DownUp, UpAndDown, DownAndUp, Random, Chord,
		OutsideIn, InsideOut, Converge, Diverge, Thumb, Pinky}
	octaves := []Octave{OctaveNone, OctaveUp1, OctaveUp2, OctaveDown1, OctaveDown2, OctavePM1, OctavePM2}

	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(1, 6).Draw(t, "n")
		input := make([]int, n)
		for i := range input {
			input[i] = rapid.IntRange(0, 127).Draw(t, "note")
		}
		mode := modes[rapid.IntRange(0, len(modes)-1).Draw(t, "mode")]
		octave := octaves[rapid.IntRange(0, len(octaves)-1).Draw(t, "octave")]
		count := rapid.IntRange(1, 16).Draw(t, "count")

		allowed := map[int]bool{}
		for _, n := range input {
			allowed[n] = true
		}
		for _, n := range input {
			for _, delta := range []int{-24, -12, 12, 24} {
				if n+delta >= 0 && n+delta <= 127 {
					allowed[n+delta] = true
				}
			}
		}

		out := Generate(input, count, mode, octave, rand.New(rand.NewPCG(7, 9)))
		for _, n := range out {
			assert.True(t, n >= 0 && n <= 127)
			assert.True(t, allowed[n], "note %d not in allowed set", n)
		}
	})
}
