// Package sequencer implements the 16-track step sequencer data model,
// Track Engine, and Parameter Surface (spec.md §3, §4.6, §4.7).
package sequencer

import "github.com/move-anything/hostrt/internal/arp"

const (
	NumTracks    = 16
	StepsPerPat  = 16
	PatsPerTrack = 16
	MaxChordNotes = 7
)

// ArpLayer is the per-step/track arp layering mode.
type ArpLayer int

const (
	LayerNone ArpLayer = iota
	LayerLayer
	LayerCut
	LayerLegato
)

// ArpSpeedValue enumerates the 10 musical divisions spec.md §3 lists.
type ArpSpeedValue int

const (
	Speed1_32 ArpSpeedValue = iota
	Speed1_24
	Speed1_16
	Speed1_12
	Speed1_8
	Speed1_6
	Speed1_4
	Speed1_3
	Speed1_2
	Speed1_1
)

// stepsPerNote maps an arp speed to how many track-steps each arp note
// occupies, taking one step as a 1/16 note (spec.md leaves the base
// resolution implicit; this is the conventional step-sequencer mapping).
var stepsPerNoteTable = map[ArpSpeedValue]float64{
	Speed1_32: 0.5,
	Speed1_24: 2.0 / 3.0,
	Speed1_16: 1.0,
	Speed1_12: 4.0 / 3.0,
	Speed1_8:  2.0,
	Speed1_6:  8.0 / 3.0,
	Speed1_4:  4.0,
	Speed1_3:  16.0 / 3.0,
	Speed1_2:  8.0,
	Speed1_1:  16.0,
}

func stepsPerNote(v ArpSpeedValue) float64 {
	if n, ok := stepsPerNoteTable[v]; ok {
		return n
	}
	return 1.0
}

// ArpOctaveValue enumerates the track/step octave extension choices.
type ArpOctaveValue = arp.Octave

// Spark is a trigger-spark/param-spark/comp-spark condition (spec.md §3):
// fires on iteration m modulo n, optionally negated.
type Spark struct {
	N, M int
	Not  bool
}

// Pass evaluates the spark condition against a 1-based iteration counter
// the same way the transpose sequencer's condition works (spec.md §4.4),
// reused here for steps: n=0 always passes.
func (s Spark) Pass(iteration int) bool {
	if s.N == 0 {
		return true
	}
	v := ((iteration - 1) % s.N) + 1
	pass := v == s.M
	if s.Not {
		return !pass
	}
	return pass
}

// Note is one (note,velocity) pair in a step's chord.
type Note struct {
	Pitch    int
	Velocity int
}

// Step mirrors spec.md §3 "Step".
type Step struct {
	Notes []Note // up to MaxChordNotes

	Gate        int // 1-100
	CC1         int // -1 unset, else 0-127
	CC2         int
	Probability int // 1-100

	TriggerSpark Spark
	ParamSpark   Spark
	CompSpark    Spark

	Ratchet byte // encoded count+mode, see DecodeRatchet
	Length  int  // 1-16 steps
	Jump    int  // -1 or 0-15
	Offset  int  // -24..+24, units of 1/48 step

	ArpOverride bool
	ArpMode     arp.Mode
	ArpSpeed    ArpSpeedValue
	ArpLayer    ArpLayer

	triggerIter int // internal spark iteration counters
	paramIter   int
	compIter    int
}

// NewStep returns a Step with spec-default field values (unset CCs, full
// gate, always-trigger probability, no ratchet).
func NewStep() Step {
	return Step{
		Gate:        100,
		CC1:         -1,
		CC2:         -1,
		Probability: 100,
		Ratchet:     1,
		Length:      1,
		Jump:        -1,
	}
}

// RatchetMode is the decoded mode from the Step.Ratchet byte.
type RatchetMode int

const (
	RatchetFlat RatchetMode = iota
	RatchetRampUp
	RatchetRampDown
)

// DecodeRatchet implements spec.md §3's single-byte ratchet encoding:
// 1-8 flat, 10-16 ramp-up count 2-8, 20-26 ramp-down count 2-8.
func DecodeRatchet(b byte) (mode RatchetMode, count int) {
	switch {
	case b >= 1 && b <= 8:
		return RatchetFlat, int(b)
	case b >= 10 && b <= 16:
		return RatchetRampUp, int(b) - 10 + 2
	case b >= 20 && b <= 26:
		return RatchetRampDown, int(b) - 20 + 2
	default:
		return RatchetFlat, 1
	}
}

// Pattern is an ordered 16-step array with a loop window.
type Pattern struct {
	Steps     [StepsPerPat]Step
	LoopStart int
	LoopEnd   int
}

// NewPattern returns a pattern with 16 default steps and a full loop window.
func NewPattern() Pattern {
	p := Pattern{LoopStart: 0, LoopEnd: StepsPerPat - 1}
	for i := range p.Steps {
		p.Steps[i] = NewStep()
	}
	return p
}

// Track mirrors spec.md §3 "Track".
type Track struct {
	Patterns      [PatsPerTrack]Pattern
	ActivePattern int

	Channel     int
	Length      int
	CurrentStep int
	Mute        bool

	Swing int     // 0-100, 50 = none
	Speed float64 // 0.1-8.0

	Phase      float64
	NextStepAt float64
	LoopCount  int
	ResetCounter int

	ArpEnabled bool
	ArpMode    arp.Mode
	ArpSpeed   ArpSpeedValue
	ArpOctave  arp.Octave

	PreviewVelocity int
	ChordFollow     bool
}

// NewTrack returns a Track with spec-default values.
func NewTrack(channel int) Track {
	t := Track{
		Channel:    channel,
		Length:     StepsPerPat,
		Swing:      50,
		Speed:      1.0,
		NextStepAt: 1.0,
		PreviewVelocity: 100,
	}
	for i := range t.Patterns {
		t.Patterns[i] = NewPattern()
	}
	return t
}

func (t *Track) ActivePatternRef() *Pattern {
	return &t.Patterns[t.ActivePattern]
}
