package sequencer

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/move-anything/hostrt/internal/arp"
)

// setTrackParam dispatches "track_T_*" and "track_T_step_S_*" keys
// (spec.md §4.7).
func (e *Engine) setTrackParam(key, value string, midi MIDIOut) error {
	ti, field, ok := parseIndexedKey(key, "track_")
	if !ok || ti < 0 || ti >= NumTracks {
		return fmt.Errorf("bad track key %q", key)
	}
	t := &e.Tracks[ti]

	if strings.HasPrefix(field, "step_") {
		return e.setStepParam(ti, t, field, value)
	}

	switch field {
	case "mute":
		t.Mute = value == "1" || value == "true"
	case "channel":
		v, err := atoiClamped(value, 0, 15)
		if err != nil {
			return err
		}
		t.Channel = v
	case "length":
		v, err := atoiClamped(value, 1, 16)
		if err != nil {
			return err
		}
		t.Length = v
	case "swing":
		v, err := atoiClamped(value, 0, 100)
		if err != nil {
			return err
		}
		t.Swing = v
	case "speed":
		v, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return err
		}
		t.Speed = clampF(v, 0.1, 8.0)
	case "active_pattern":
		v, err := atoiClamped(value, 0, PatsPerTrack-1)
		if err != nil {
			return err
		}
		t.ActivePattern = v
	case "loop_start":
		v, err := atoiClamped(value, 0, StepsPerPat-1)
		if err != nil {
			return err
		}
		t.ActivePatternRef().LoopStart = v
	case "loop_end":
		v, err := atoiClamped(value, 0, StepsPerPat-1)
		if err != nil {
			return err
		}
		t.ActivePatternRef().LoopEnd = v
	case "chord_follow":
		t.ChordFollow = value == "1" || value == "true"
	case "arp_enabled":
		t.ArpEnabled = value == "1" || value == "true"
	case "arp_mode":
		v, err := strconv.Atoi(value)
		if err != nil {
			return err
		}
		t.ArpMode = arp.Mode(v)
	case "arp_speed":
		v, err := atoiClamped(value, 0, 9)
		if err != nil {
			return err
		}
		t.ArpSpeed = ArpSpeedValue(v)
	case "arp_octave":
		v, err := atoiClamped(value, 0, 6)
		if err != nil {
			return err
		}
		t.ArpOctave = arp.Octave(v)
	case "preview_velocity":
		v, err := atoiClamped(value, 1, 127)
		if err != nil {
			return err
		}
		t.PreviewVelocity = v
	default:
		return fmt.Errorf("unrecognized track field %q", field)
	}
	return nil
}

func (e *Engine) getTrackParam(key string) (string, bool) {
	ti, field, ok := parseIndexedKey(key, "track_")
	if !ok || ti < 0 || ti >= NumTracks {
		return "", false
	}
	t := &e.Tracks[ti]

	if strings.HasPrefix(field, "step_") {
		return e.getStepParam(ti, t, field)
	}

	switch field {
	case "mute":
		return formatBool(t.Mute), true
	case "channel":
		return strconv.Itoa(t.Channel), true
	case "length":
		return strconv.Itoa(t.Length), true
	case "swing":
		return strconv.Itoa(t.Swing), true
	case "speed":
		return formatF(t.Speed), true
	case "active_pattern":
		return strconv.Itoa(t.ActivePattern), true
	case "loop_start":
		return strconv.Itoa(t.ActivePatternRef().LoopStart), true
	case "loop_end":
		return strconv.Itoa(t.ActivePatternRef().LoopEnd), true
	case "chord_follow":
		return formatBool(t.ChordFollow), true
	case "arp_enabled":
		return formatBool(t.ArpEnabled), true
	case "current_step":
		return strconv.Itoa(t.CurrentStep), true
	case "loop_count":
		return strconv.Itoa(t.LoopCount), true
	case "preview_velocity":
		return strconv.Itoa(t.PreviewVelocity), true
	}
	return "", false
}

// setStepParam dispatches "step_S_*" fields, including the editing
// operations add_note/remove_note/clear/velocity_delta and spark fields
// (spec.md §4.7).
func (e *Engine) setStepParam(ti int, t *Track, field, value string) error {
	si, stepField, ok := parseIndexedKey(field, "step_")
	if !ok || si < 0 || si >= StepsPerPat {
		return fmt.Errorf("bad step field %q", field)
	}
	step := &t.ActivePatternRef().Steps[si]

	switch {
	case stepField == "clear":
		*step = NewStep()
		return nil
	case stepField == "add_note":
		pitch, vel, err := parsePitchVelocity(value)
		if err != nil {
			return err
		}
		if len(step.Notes) >= MaxChordNotes {
			return fmt.Errorf("step %d already has %d notes", si, MaxChordNotes)
		}
		step.Notes = append(step.Notes, Note{Pitch: pitch, Velocity: vel})
		return nil
	case stepField == "remove_note":
		pitch, err := strconv.Atoi(value)
		if err != nil {
			return err
		}
		out := step.Notes[:0]
		for _, n := range step.Notes {
			if n.Pitch != pitch {
				out = append(out, n)
			}
		}
		step.Notes = out
		return nil
	case stepField == "velocity_delta":
		delta, err := strconv.Atoi(value)
		if err != nil {
			return err
		}
		for i := range step.Notes {
			step.Notes[i].Velocity = clampI(step.Notes[i].Velocity+delta, 1, 127)
		}
		return nil
	case stepField == "gate":
		v, err := atoiClamped(value, 1, 100)
		if err != nil {
			return err
		}
		step.Gate = v
	case stepField == "cc1":
		v, err := atoiClamped(value, -1, 127)
		if err != nil {
			return err
		}
		step.CC1 = v
	case stepField == "cc2":
		v, err := atoiClamped(value, -1, 127)
		if err != nil {
			return err
		}
		step.CC2 = v
	case stepField == "probability":
		v, err := atoiClamped(value, 1, 100)
		if err != nil {
			return err
		}
		step.Probability = v
	case stepField == "ratchet":
		v, err := strconv.Atoi(value)
		if err != nil {
			return err
		}
		step.Ratchet = byte(clampI(v, 0, 26))
	case stepField == "length":
		v, err := atoiClamped(value, 1, 16)
		if err != nil {
			return err
		}
		step.Length = v
	case stepField == "jump":
		v, err := atoiClamped(value, -1, 15)
		if err != nil {
			return err
		}
		step.Jump = v
	case stepField == "offset":
		v, err := atoiClamped(value, -24, 24)
		if err != nil {
			return err
		}
		step.Offset = v
	case strings.HasPrefix(stepField, "trigger_spark_"):
		return setSpark(&step.TriggerSpark, strings.TrimPrefix(stepField, "trigger_spark_"), value)
	case strings.HasPrefix(stepField, "param_spark_"):
		return setSpark(&step.ParamSpark, strings.TrimPrefix(stepField, "param_spark_"), value)
	case strings.HasPrefix(stepField, "comp_spark_"):
		return setSpark(&step.CompSpark, strings.TrimPrefix(stepField, "comp_spark_"), value)
	case stepField == "arp_mode":
		v, err := strconv.Atoi(value)
		if err != nil {
			return err
		}
		step.ArpOverride = true
		step.ArpMode = arp.Mode(v)
	case stepField == "arp_speed":
		v, err := atoiClamped(value, 0, 9)
		if err != nil {
			return err
		}
		step.ArpSpeed = ArpSpeedValue(v)
	case stepField == "arp_layer":
		v, err := atoiClamped(value, 0, 3)
		if err != nil {
			return err
		}
		step.ArpLayer = ArpLayer(v)
	default:
		return fmt.Errorf("unrecognized step field %q", stepField)
	}
	return nil
}

func (e *Engine) getStepParam(ti int, t *Track, field string) (string, bool) {
	si, stepField, ok := parseIndexedKey(field, "step_")
	if !ok || si < 0 || si >= StepsPerPat {
		return "", false
	}
	step := &t.ActivePatternRef().Steps[si]
	switch stepField {
	case "gate":
		return strconv.Itoa(step.Gate), true
	case "cc1":
		return strconv.Itoa(step.CC1), true
	case "cc2":
		return strconv.Itoa(step.CC2), true
	case "probability":
		return strconv.Itoa(step.Probability), true
	case "ratchet":
		return strconv.Itoa(int(step.Ratchet)), true
	case "length":
		return strconv.Itoa(step.Length), true
	case "jump":
		return strconv.Itoa(step.Jump), true
	case "offset":
		return strconv.Itoa(step.Offset), true
	case "note_count":
		return strconv.Itoa(len(step.Notes)), true
	}
	return "", false
}

func setSpark(s *Spark, sub, value string) error {
	switch sub {
	case "n":
		v, err := strconv.Atoi(value)
		if err != nil {
			return err
		}
		s.N = v
	case "m":
		v, err := strconv.Atoi(value)
		if err != nil {
			return err
		}
		s.M = v
	case "not":
		s.Not = value == "1" || value == "true"
	default:
		return fmt.Errorf("unrecognized spark field %q", sub)
	}
	return nil
}

func parsePitchVelocity(value string) (pitch, vel int, err error) {
	parts := strings.SplitN(value, ",", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("add_note expects \"pitch,velocity\", got %q", value)
	}
	pitch, err = strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return 0, 0, err
	}
	vel, err = strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return 0, 0, err
	}
	return clampI(pitch, 0, 127), clampI(vel, 1, 127), nil
}

func atoiClamped(value string, lo, hi int) (int, error) {
	v, err := strconv.Atoi(value)
	if err != nil {
		return 0, err
	}
	return clampI(v, lo, hi), nil
}

