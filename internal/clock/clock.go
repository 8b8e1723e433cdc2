// Package clock implements the drift-free global phase accumulator that
// drives step boundaries and MIDI-clock generation (spec.md §4.1).
package clock

const (
	MinBPM = 20
	MaxBPM = 300

	// MIDI realtime bytes emitted on clock/transport transitions.
	ByteClock = 0xF8
	ByteStart = 0xFA
	ByteStop  = 0xFC
)

// State is the global clock: BPM, transport, and the two phase
// accumulators (step phase and MIDI-clock phase). It owns no goroutines;
// Advance is called once per audio block from the host tick loop.
type State struct {
	BPM        float64
	Playing    bool
	SendClock  bool
	ClockPhase float64 // [0,1) — fraction of a MIDI clock tick (1/24 beat)
	GlobalPhase float64 // steps, monotonically increasing while playing
	BeatCount  int

	MasterReset  int // 0 == disabled
	MasterCounter int

	SampleRate float64
}

// New returns a clock at the given sample rate with BPM clamped into range.
func New(sampleRate, bpm float64) *State {
	return &State{
		BPM:        ClampBPM(bpm),
		SampleRate: sampleRate,
	}
}

func ClampBPM(bpm float64) float64 {
	if bpm < MinBPM {
		return MinBPM
	}
	if bpm > MaxBPM {
		return MaxBPM
	}
	return bpm
}

// StepBoundaryHook is notified once per step-boundary crossing, with the
// new integer global step.
type StepBoundaryHook func(step int)

// Events collects the side effects produced by one Advance call so the
// caller (host tick loop) can dispatch them without the clock depending on
// a MIDI-transmit interface.
type Events struct {
	MIDIClockBytes    []byte // 0 or more 0xF8 bytes to transmit, in order
	StepBoundaries    []int  // new global step for each boundary crossed
	MasterResetFired  bool   // master_reset threshold was hit during this Advance
}

// Advance moves the clock forward by frames audio frames. It returns the
// realtime bytes to transmit and the step boundaries crossed, in order.
// Per spec.md §4.1:
//   global_phase += frames * (bpm*4) / (sample_rate*60)      [steps]
//   clock_phase  += frames * (bpm*24) / (sample_rate*60)     [MIDI ticks]
func (s *State) Advance(frames int) Events {
	var ev Events
	if !s.Playing || frames <= 0 {
		return ev
	}

	prevGlobal := s.GlobalPhase
	stepIncrement := float64(frames) * (s.BPM * 4) / (s.SampleRate * 60)
	s.GlobalPhase += stepIncrement

	prevStep := int(prevGlobal)
	currStep := int(s.GlobalPhase)
	for step := prevStep + 1; step <= currStep; step++ {
		ev.StepBoundaries = append(ev.StepBoundaries, step)
		s.MasterCounter++
		if s.MasterReset > 0 && s.MasterCounter >= s.MasterReset {
			s.MasterCounter = 0
			ev.MasterResetFired = true
		}
	}

	if s.SendClock {
		clockIncrement := float64(frames) * (s.BPM * 24) / (s.SampleRate * 60)
		s.ClockPhase += clockIncrement
		for s.ClockPhase >= 1.0 {
			s.ClockPhase -= 1.0
			ev.MIDIClockBytes = append(ev.MIDIClockBytes, ByteClock)
		}
	}

	return ev
}

// SetPlaying transitions the transport, returning the realtime byte to
// send (Start/Stop) if clock is enabled, or 0 if none.
func (s *State) SetPlaying(playing bool) (transportByte byte, changed bool) {
	if s.Playing == playing {
		return 0, false
	}
	s.Playing = playing
	if playing {
		s.GlobalPhase = 0
		s.ClockPhase = 0
		s.MasterCounter = 0
		s.BeatCount = 0
		if s.SendClock {
			return ByteStart, true
		}
	} else {
		if s.SendClock {
			return ByteStop, true
		}
	}
	return 0, true
}
