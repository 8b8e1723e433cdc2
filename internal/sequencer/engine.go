package sequencer

import (
	"github.com/move-anything/hostrt/internal/arp"
	"github.com/move-anything/hostrt/internal/clock"
	"github.com/move-anything/hostrt/internal/scale"
	"github.com/move-anything/hostrt/internal/scheduler"
	"github.com/move-anything/hostrt/internal/transpose"
)

// MIDIOut is the host-transmit capability the track engine fires into:
// note on/off (via the scheduler) plus direct CC sends for step CC locks
// and the send_cc_CH_CC parameter (spec.md §4.7).
type MIDIOut interface {
	scheduler.MIDI
	CC(channel, controller, value int)
}

// Engine owns every piece of sequencer state as a single value (spec.md
// §9 "package globals into an owned SequencerEngine value"): no
// process-wide globals, parameters flow through method calls, and the
// string-keyed parameter surface lives only at the external interface.
type Engine struct {
	Tracks [NumTracks]Track

	Clock       *clock.State
	Scheduler   *scheduler.Scheduler
	TransposeSeq *transpose.Sequence
	Scale       *scale.Detector

	LiveTranspose    int
	CurrentTranspose int // manual fallback offset, spec.md §4.4 step 1

	rng *xorshift32
}

// NewEngine builds a ready-to-run engine at the given sample rate/BPM.
func NewEngine(sampleRate, bpm float64) *Engine {
	e := &Engine{
		Clock:        clock.New(sampleRate, bpm),
		Scheduler:    scheduler.New(scheduler.DefaultPoolSize),
		TransposeSeq: transpose.New(),
		Scale:        scale.New(),
		rng:          newXorshift32(1),
	}
	for i := range e.Tracks {
		e.Tracks[i] = NewTrack(i)
	}
	return e
}

// ResolveTranspose implements scheduler.Transpose (spec.md §4.2 "pitch
// resolution at send time").
func (e *Engine) ResolveTranspose(trackIdx int) int {
	if trackIdx < 0 || trackIdx >= NumTracks || !e.Tracks[trackIdx].ChordFollow {
		return 0
	}
	if e.LiveTranspose != 0 {
		return e.LiveTranspose
	}
	return e.TransposeSeq.ValueAtCurrentStep()
}

// SetPlaying starts/stops the transport, resetting scheduler, phases, and
// random state as spec.md §4.7 "Starting play resets scheduler, phases,
// random state, transpose first-call" requires.
func (e *Engine) SetPlaying(playing bool, midi MIDIOut) {
	wasPlaying := e.Clock.Playing
	transportByte, changed := e.Clock.SetPlaying(playing)
	if !changed {
		return
	}
	if playing && !wasPlaying {
		e.Scheduler.ClearAll(midi)
		e.rng.Reseed(1)
		e.TransposeSeq.Reset()
		for i := range e.Tracks {
			e.Tracks[i].Phase = 0
			e.Tracks[i].CurrentStep = 0
			e.Tracks[i].ResetCounter = 0
		}
	}
	if !playing && wasPlaying {
		e.Scheduler.ClearAll(midi)
	}
	if transportByte != 0 && midi != nil {
		// Realtime transport bytes are channel-less; delivered via the
		// host's MIDI-out path, not the note-oriented MIDIOut seam here.
		_ = transportByte
	}
}

// AdvanceBlock runs one audio block: clock advance, per-step-boundary
// transpose notification, all 16 tracks' phase advance/step-fire, then the
// scheduler sweep. blockStepIncrement is the clock-derived steps-per-block
// (frames * bpm*4/(sampleRate*60)), already folded by Clock.Advance.
func (e *Engine) AdvanceBlock(frames int, midi MIDIOut) {
	if !e.Clock.Playing {
		return
	}
	events := e.Clock.Advance(frames)
	for _, step := range events.StepBoundaries {
		e.TransposeSeq.OnGlobalStep(step)
		if e.Clock.MasterReset > 0 && e.Clock.MasterCounter == 0 {
			// master_reset just fired this Advance: spec.md §4.1 resets every
			// track's current_step and reset_counter, never the transpose
			// playhead or loop_count.
			for i := range e.Tracks {
				e.Tracks[i].CurrentStep = 0
				e.Tracks[i].ResetCounter = 0
			}
		}
	}

	blockStepIncrement := float64(frames) * (e.Clock.BPM * 4) / (e.Clock.SampleRate * 60)
	for i := range e.Tracks {
		e.advanceTrack(i, blockStepIncrement, midi)
	}

	e.Scheduler.Process(e.Clock.GlobalPhase, midi, e)
}

func (e *Engine) advanceTrack(ti int, blockStepIncrement float64, midi MIDIOut) {
	t := &e.Tracks[ti]
	t.Phase += blockStepIncrement * t.Speed
	for t.Phase >= t.NextStepAt {
		t.Phase -= t.NextStepAt
		e.advanceStepIndex(t)
		if !t.Mute {
			e.fireStep(ti, midi)
		}
	}
}

func (e *Engine) advanceStepIndex(t *Track) {
	pat := t.ActivePatternRef()
	next := t.CurrentStep + 1
	if next > pat.LoopEnd {
		t.CurrentStep = pat.LoopStart
		t.LoopCount++
	} else {
		t.CurrentStep = next
	}
}

func (e *Engine) fireStep(ti int, midi MIDIOut) {
	t := &e.Tracks[ti]
	pat := t.ActivePatternRef()
	step := &pat.Steps[t.CurrentStep]

	step.paramIter++
	if step.ParamSpark.Pass(step.paramIter) {
		if step.CC1 >= 0 {
			if midi != nil {
				midi.CC(t.Channel, 20+2*ti, step.CC1)
			}
		}
		if step.CC2 >= 0 {
			if midi != nil {
				midi.CC(t.Channel, 21+2*ti, step.CC2)
			}
		}
	}

	step.compIter++
	compPass := step.CompSpark.Pass(step.compIter)

	step.triggerIter++
	shouldTrigger := step.TriggerSpark.Pass(step.triggerIter) && e.rng.percent(step.Probability)
	if !shouldTrigger || len(step.Notes) == 0 {
		e.handleJump(t, pat, step, compPass)
		return
	}

	basePhase := e.Clock.GlobalPhase + float64(step.Offset)/48.0

	arpMode, arpSpeed, arpLayer, arpActive := e.resolveArp(t, step)

	_, ratchetCount := DecodeRatchet(step.Ratchet)

	if arpActive {
		if arpLayer == LayerCut {
			e.Scheduler.CutChannel(t.Channel, midi)
		}
		e.scheduleArp(ti, t, step, basePhase, arpMode, arpSpeed)
	} else if compPass && ratchetCount > 1 {
		e.scheduleRatchet(ti, t, step, basePhase)
	} else {
		for _, n := range step.Notes {
			e.Scheduler.Schedule(midi, n.Pitch, n.Velocity, t.Channel, t.Swing, basePhase, float64(step.Length), step.Gate, ti, e.Clock.GlobalPhase)
		}
	}

	e.handleJump(t, pat, step, compPass)
}

func (e *Engine) resolveArp(t *Track, step *Step) (mode arp.Mode, speed ArpSpeedValue, layer ArpLayer, active bool) {
	if step.ArpOverride {
		return step.ArpMode, step.ArpSpeed, step.ArpLayer, true
	}
	if t.ArpEnabled {
		return t.ArpMode, t.ArpSpeed, LayerLayer, true
	}
	return 0, 0, LayerNone, false
}

func (e *Engine) scheduleArp(ti int, t *Track, step *Step, basePhase float64, mode arp.Mode, speed ArpSpeedValue) {
	spn := stepsPerNote(speed)
	totalArpNotes := int(roundHalfAwayFromZero(float64(step.Length) * t.Speed / spn))
	if totalArpNotes <= 0 {
		totalArpNotes = 1
	}

	pitches := make([]int, len(step.Notes))
	for i, n := range step.Notes {
		pitches[i] = n.Pitch
	}
	seq := arp.Generate(pitches, totalArpNotes, mode, t.ArpOctave, nil)

	for i, pitch := range seq {
		vel := step.Notes[i%len(step.Notes)].Velocity
		onPhase := basePhase + float64(i)*spn
		e.Scheduler.Schedule(nil, pitch, vel, t.Channel, t.Swing, onPhase, spn, step.Gate, ti, e.Clock.GlobalPhase)
	}
}

func (e *Engine) scheduleRatchet(ti int, t *Track, step *Step, basePhase float64) {
	mode, count := DecodeRatchet(step.Ratchet)
	sub := float64(step.Length) / float64(count)
	for r := 0; r < count; r++ {
		for _, n := range step.Notes {
			vel := n.Velocity
			switch mode {
			case RatchetRampUp:
				vel = maxInt(1, n.Velocity*(r+1)/count)
			case RatchetRampDown:
				vel = maxInt(1, n.Velocity*(count-r)/count)
			}
			onPhase := basePhase + float64(r)*sub
			e.Scheduler.Schedule(nil, n.Pitch, vel, t.Channel, t.Swing, onPhase, sub, step.Gate, ti, e.Clock.GlobalPhase)
		}
	}
}

func (e *Engine) handleJump(t *Track, pat *Pattern, step *Step, compPass bool) {
	if !compPass && step.CompSpark.N != 0 {
		// jump is gated by comp_spark (spec.md §3 "comp_spark gating
		// ratchet+jump"); when it's armed and fails, skip the jump.
		return
	}
	if step.Jump < pat.LoopStart || step.Jump > pat.LoopEnd {
		return
	}
	t.CurrentStep = step.Jump - 1
}

func roundHalfAwayFromZero(v float64) float64 {
	if v >= 0 {
		return float64(int(v + 0.5))
	}
	return float64(int(v - 0.5))
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
