// Package arp implements the arpeggiator as a pure function (spec.md
// §4.3): given a sorted chord, a mode, and an octave extension, produce an
// ordered note sequence.
package arp

import (
	"math/rand/v2"
	"sort"
)

type Mode int

const (
	Up Mode = iota
	Down
	UpDown
	DownUp
	UpAndDown
	DownAndUp
	Random
	Chord
	OutsideIn
	InsideOut
	Converge
	Diverge
	Thumb
	Pinky
)

type Octave int

const (
	OctaveNone Octave = iota
	OctaveUp1            // +12 once
	OctaveUp2            // +24 stacked
	OctaveDown1          // -12 once
	OctaveDown2          // -24 stacked
	OctavePM1            // ±12 around
	OctavePM2            // ±24 around
)

// Generate produces an ordered note sequence from input notes (any order,
// duplicates allowed), truncated to count entries, or cycled to fill count
// when the generated pattern is shorter. Pure function:
// no hidden state except the Random mode's shuffle source, which callers
// seed externally via rng (nil uses the package default source).
func Generate(input []int, count int, mode Mode, octave Octave, rng *rand.Rand) []int {
	if len(input) == 0 || count <= 0 {
		return nil
	}

	sorted := append([]int(nil), input...)
	sort.Ints(sorted)

	extended := applyOctave(sorted, octave)

	var ordered []int
	switch mode {
	case Up:
		ordered = extended
	case Down:
		ordered = reversed(extended)
	case UpDown:
		ordered = append(append([]int(nil), extended...), reversed(extended)...)
	case DownUp:
		d := reversed(extended)
		ordered = append(append([]int(nil), d...), extended...)
	case UpAndDown:
		ordered = upAndDown(extended)
	case DownAndUp:
		ordered = reversed(upAndDown(extended))
	case Random:
		ordered = shuffled(extended, rng)
	case Chord:
		ordered = extended
	case OutsideIn:
		ordered = outsideIn(extended)
	case InsideOut, Diverge:
		// spec.md §9: treated as identical per the Open Question decision.
		ordered = insideOut(extended)
	case Converge:
		ordered = reversed(insideOut(extended))
	case Thumb:
		ordered = thumb(extended)
	case Pinky:
		ordered = pinky(extended)
	default:
		ordered = extended
	}

	if len(ordered) > count {
		ordered = ordered[:count]
	}
	// Pattern length bounded by caller's buffer: cycle to fill if the
	// generated pattern is shorter than the requested count.
	if len(ordered) > 0 && len(ordered) < count {
		out := make([]int, 0, count)
		for len(out) < count {
			out = append(out, ordered...)
		}
		return out[:count]
	}
	return ordered
}

func reversed(in []int) []int {
	out := make([]int, len(in))
	for i, v := range in {
		out[len(in)-1-i] = v
	}
	return out
}

// upAndDown: no endpoint repeat, e.g. C-E-G-G-E-C collapses to C-E-G-E-C
// — every note appears once per direction except the shared top endpoint.
func upAndDown(in []int) []int {
	if len(in) <= 1 {
		return append([]int(nil), in...)
	}
	out := append([]int(nil), in...)
	out = append(out, reversed(in)[1:]...)
	return out
}

func shuffled(in []int, rng *rand.Rand) []int {
	out := append([]int(nil), in...)
	// Proper Fisher-Yates (spec.md §9: reject the reference's degenerate
	// random_check(100)*i/100 index, which collapses to either i or 0).
	for i := len(out) - 1; i > 0; i-- {
		var j int
		if rng != nil {
			j = rng.IntN(i + 1)
		} else {
			j = rand.IntN(i + 1)
		}
		out[i], out[j] = out[j], out[i]
	}
	return out
}

// outsideIn alternates from the outer pitches inward: lowest, highest,
// 2nd-lowest, 2nd-highest, ...
func outsideIn(in []int) []int {
	out := make([]int, 0, len(in))
	lo, hi := 0, len(in)-1
	for lo <= hi {
		out = append(out, in[lo])
		if lo != hi {
			out = append(out, in[hi])
		}
		lo++
		hi--
	}
	return out
}

// insideOut alternates from the median outward. For even counts, the
// lower middle is the start point (spec.md §9 Open Question decision).
func insideOut(in []int) []int {
	n := len(in)
	if n == 0 {
		return nil
	}
	mid := n / 2
	if n%2 == 1 {
		out := []int{in[mid]}
		for step := 1; mid-step >= 0 || mid+step < n; step++ {
			if mid+step < n {
				out = append(out, in[mid+step])
			}
			if mid-step >= 0 {
				out = append(out, in[mid-step])
			}
		}
		return out
	}
	lower := mid - 1
	upper := mid
	out := []int{in[lower], in[upper]}
	for step := 1; lower-step >= 0 || upper+step < n; step++ {
		if upper+step < n {
			out = append(out, in[upper+step])
		}
		if lower-step >= 0 {
			out = append(out, in[lower-step])
		}
	}
	return out
}

// thumb alternates the lowest note ("thumb") with each higher note in turn.
func thumb(in []int) []int {
	if len(in) <= 1 {
		return append([]int(nil), in...)
	}
	out := make([]int, 0, (len(in)-1)*2)
	low := in[0]
	for _, n := range in[1:] {
		out = append(out, low, n)
	}
	return out
}

// pinky alternates the highest note with each lower note in turn.
func pinky(in []int) []int {
	if len(in) <= 1 {
		return append([]int(nil), in...)
	}
	high := in[len(in)-1]
	out := make([]int, 0, (len(in)-1)*2)
	for _, n := range in[:len(in)-1] {
		out = append(out, high, n)
	}
	return out
}

// applyOctave appends shifted copies per spec.md §4.3. A shifted note is
// dropped (not clipped) if it would leave [0,127].
func applyOctave(sorted []int, octave Octave) []int {
	out := append([]int(nil), sorted...)
	addShift := func(delta int) {
		for _, n := range sorted {
			shifted := n + delta
			if shifted < 0 || shifted > 127 {
				continue
			}
			out = append(out, shifted)
		}
	}
	switch octave {
	case OctaveNone:
	case OctaveUp1:
		addShift(12)
	case OctaveUp2:
		addShift(12)
		addShift(24)
	case OctaveDown1:
		addShift(-12)
	case OctaveDown2:
		addShift(-12)
		addShift(-24)
	case OctavePM1:
		addShift(-12)
		addShift(12)
	case OctavePM2:
		addShift(-24)
		addShift(-12)
		addShift(12)
		addShift(24)
	}
	sort.Ints(out)
	return out
}
