package transpose

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

// S5 — transpose sequence with jump (spec.md §8 scenario S5).
func TestS5TransposeJump(t *testing.T) {
	seq := New()
	seq.Enabled = true
	seq.Steps = []Step{
		{Semitones: 7, Duration: 12, Jump: -1},
		{Semitones: 12, Duration: 12, Jump: 0, CondN: 2, CondM: 1},
	}

	// First boundary enters the table at global step 0 (step 0 begins).
	for g := 0; g < 12; g++ {
		seq.OnGlobalStep(g)
		assert.Equal(t, 7, seq.ValueAtCurrentStep(), "step %d", g)
	}

	// Step 12..23 -> step 1, value +12.
	for g := 12; g < 24; g++ {
		seq.OnGlobalStep(g)
		assert.Equal(t, 12, seq.ValueAtCurrentStep(), "step %d", g)
	}

	// At completion of step 1's duration (global step 24), iteration 1 of 2
	// passes the condition -> jump to step 0.
	seq.OnGlobalStep(24)
	assert.Equal(t, 7, seq.ValueAtCurrentStep())

	// Advance through another full cycle of step 0 (12): transition back
	// to step 1 lands at global step 36.
	for g := 25; g <= 36; g++ {
		seq.OnGlobalStep(g)
	}
	assert.Equal(t, 12, seq.ValueAtCurrentStep())
	seq.OnGlobalStep(48)
	// iteration 2 of 2 fails condition (iteration==1 required) -> advances linearly to step 0.
	assert.Equal(t, 7, seq.ValueAtCurrentStep())
}

func TestIterationCounterMonotonic(t *testing.T) {
	seq := New()
	seq.Enabled = true
	seq.Steps = []Step{
		{Semitones: 1, Duration: 1, Jump: -1},
		{Semitones: 2, Duration: 1, Jump: -1},
	}
	last := 0
	for g := 0; g < 100; g++ {
		seq.OnGlobalStep(g)
		cur := seq.IterationCounter(0)
		require.GreaterOrEqual(t, cur, last)
		last = cur
	}
}

func TestLookupLengthMatchesTotalDuration(t *testing.T) {
	seq := New()
	seq.Enabled = true
	seq.Steps = []Step{{Semitones: 3, Duration: 4}, {Semitones: -2, Duration: 6}}
	lk := seq.Lookup()
	assert.Len(t, lk, 10)
	assert.Equal(t, []int{3, 3, 3, 3, -2, -2, -2, -2, -2, -2}, lk)
}

func TestDisabledReturnsManualOffset(t *testing.T) {
	seq := New()
	seq.ManualOffset = 5
	assert.Equal(t, 5, seq.ValueAtCurrentStep())
}

// Property (spec.md §8.7): the sequencer advances at most once per step
// boundary call, and the iteration counter only ever increases.
func TestAdvancesAtMostOncePerBoundary(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(1, 4).Draw(t, "n")
		seq := New()
		seq.Enabled = true
		for i := 0; i < n; i++ {
			seq.Steps = append(seq.Steps, Step{
				Semitones: rapid.IntRange(-24, 24).Draw(t, "semi"),
				Duration:  rapid.IntRange(1, 8).Draw(t, "dur"),
				Jump:      -1,
			})
		}
		prevCounters := make([]int, n)
		for g := 0; g < 300; g++ {
			seq.OnGlobalStep(g)
			for i := 0; i < n; i++ {
				cur := seq.IterationCounter(i)
				assert.GreaterOrEqual(t, cur, prevCounters[i])
				prevCounters[i] = cur
			}
		}
	})
}
