package sequencer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeMIDI struct {
	ons  []event
	offs []event
	ccs  []ccEvent
}

type event struct {
	channel, note, velocity int
}

type ccEvent struct {
	channel, controller, value int
}

func (f *fakeMIDI) NoteOn(channel, note, velocity int) {
	f.ons = append(f.ons, event{channel, note, velocity})
}

func (f *fakeMIDI) NoteOff(channel, note int) {
	f.offs = append(f.offs, event{channel, note, 0})
}

func (f *fakeMIDI) CC(channel, controller, value int) {
	f.ccs = append(f.ccs, ccEvent{channel, controller, value})
}

// advanceOneStep drives the engine forward by one step, one 64-frame block
// at a time, and returns nothing.
func advanceOneStep(e *Engine, midi MIDIOut) {
	// one step is a 1/16 note (4 steps/beat), the convention used in
	// clock.Advance's StepBoundaries; advance in small blocks until
	// current_step changes on track 0.
	start := e.Tracks[0].CurrentStep
	for i := 0; i < 10000; i++ {
		e.AdvanceBlock(64, midi)
		if e.Tracks[0].CurrentStep != start {
			return
		}
	}
}

// S2 — ratchet flat mode, count 4: one step with a single note should
// produce 4 note-ons all at the same velocity.
func TestS2RatchetFlat(t *testing.T) {
	e := NewEngine(48000, 120)
	midi := &fakeMIDI{}
	e.SetPlaying(true, midi)

	step := &e.Tracks[0].ActivePatternRef().Steps[0]
	step.Notes = []Note{{Pitch: 60, Velocity: 100}}
	step.Ratchet = 4 // flat, count 4
	step.Length = 1

	e.fireStep(0, midi)
	e.Scheduler.Process(e.Clock.GlobalPhase, midi, e)
	// sweep forward across the whole step to flush all 4 on/off pairs
	for i := 0; i < 8; i++ {
		e.Clock.GlobalPhase += 0.25
		e.Scheduler.Process(e.Clock.GlobalPhase, midi, e)
	}

	require.Len(t, midi.ons, 4)
	for _, on := range midi.ons {
		assert.Equal(t, 100, on.velocity)
		assert.Equal(t, 60, on.note)
	}
}

// S3 — ramp-up ratchet, count 2: velocities should increase across the
// two note-ons (first smaller, second larger), per spec.md ramp-up mode.
func TestS3RatchetRampUp(t *testing.T) {
	e := NewEngine(48000, 120)
	midi := &fakeMIDI{}
	e.SetPlaying(true, midi)

	step := &e.Tracks[0].ActivePatternRef().Steps[0]
	step.Notes = []Note{{Pitch: 64, Velocity: 100}}
	step.Ratchet = 10 // ramp-up, count 2
	step.Length = 1

	e.fireStep(0, midi)
	for i := 0; i < 8; i++ {
		e.Clock.GlobalPhase += 0.25
		e.Scheduler.Process(e.Clock.GlobalPhase, midi, e)
	}

	require.Len(t, midi.ons, 2)
	assert.Less(t, midi.ons[0].velocity, midi.ons[1].velocity)
	assert.Equal(t, 100, midi.ons[1].velocity)
}

// handleJump: a step whose jump field targets step 5 moves current_step
// there (jump-1, since advanceStepIndex increments next time).
func TestHandleJump(t *testing.T) {
	e := NewEngine(48000, 120)
	midi := &fakeMIDI{}
	e.SetPlaying(true, midi)

	t0 := &e.Tracks[0]
	pat := t0.ActivePatternRef()
	step := &pat.Steps[0]
	step.Notes = []Note{{Pitch: 60, Velocity: 100}}
	step.Jump = 5
	step.CompSpark = Spark{} // n=0, always "passes" per handleJump's gate check

	e.fireStep(0, midi)
	assert.Equal(t, 4, t0.CurrentStep) // jump-1; next advanceStepIndex lands on 5
}

// Mute suppresses note output entirely for a track even while its step
// index continues to advance (spec.md §4.6).
func TestMuteSuppressesNotes(t *testing.T) {
	e := NewEngine(48000, 120)
	midi := &fakeMIDI{}
	e.SetPlaying(true, midi)

	e.Tracks[0].Mute = true
	step := &e.Tracks[0].ActivePatternRef().Steps[0]
	step.Notes = []Note{{Pitch: 60, Velocity: 100}}

	e.advanceTrack(0, 1.0, midi) // forces at least one step boundary
	e.Scheduler.Process(e.Clock.GlobalPhase, midi, e)

	assert.Empty(t, midi.ons)
}
