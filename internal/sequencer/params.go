package sequencer

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/move-anything/hostrt/internal/transpose"
)

// SetParam implements the string-keyed Parameter Surface (spec.md §4.7).
// Writes are synchronous and idempotent; invalid values are clamped (for
// numeric ranges) or the write is ignored (spec.md §7 ParamInvalid),
// mirroring the teacher's config.go "warn and skip" idiom rather than
// returning a hard error for most keys. midi is used only for send_cc and
// play-transition side effects.
func (e *Engine) SetParam(key, value string, midi MIDIOut) error {
	switch {
	case key == "bpm":
		v, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("bpm: %w", err)
		}
		e.Clock.BPM = clampF(v, 20, 300)
		return nil
	case key == "playing":
		e.SetPlaying(value == "1" || value == "true", midi)
		return nil
	case key == "send_clock":
		e.Clock.SendClock = value == "1" || value == "true"
		return nil
	case key == "master_reset":
		v, err := strconv.Atoi(value)
		if err != nil {
			return err
		}
		e.Clock.MasterReset = clampI(v, 0, 256)
		return nil
	case key == "current_transpose":
		v, err := strconv.Atoi(value)
		if err != nil {
			return err
		}
		e.CurrentTranspose = clampI(v, -24, 24)
		e.TransposeSeq.ManualOffset = e.CurrentTranspose
		return nil
	case key == "live_transpose":
		v, err := strconv.Atoi(value)
		if err != nil {
			return err
		}
		e.LiveTranspose = clampI(v, -24, 24)
		return nil
	case key == "bulk_set":
		return e.bulkSet(value, midi, 0)
	case strings.HasPrefix(key, "transpose_"):
		return e.setTransposeParam(key, value)
	case strings.HasPrefix(key, "send_cc_"):
		return e.sendCC(key, value, midi)
	case strings.HasPrefix(key, "track_"):
		return e.setTrackParam(key, value, midi)
	}
	return fmt.Errorf("unrecognized param key %q", key)
}

// GetParam mirrors Set (spec.md §4.7), returning the stored/clamped value.
func (e *Engine) GetParam(key string) (string, bool) {
	switch {
	case key == "bpm":
		return formatF(e.Clock.BPM), true
	case key == "playing":
		return formatBool(e.Clock.Playing), true
	case key == "send_clock":
		return formatBool(e.Clock.SendClock), true
	case key == "master_reset":
		return strconv.Itoa(e.Clock.MasterReset), true
	case key == "current_transpose":
		return strconv.Itoa(e.CurrentTranspose), true
	case key == "live_transpose":
		return strconv.Itoa(e.LiveTranspose), true
	case key == "current_step":
		return "", false // read-only multi-track key, use GetTrackStep instead
	case key == "beat_count":
		return strconv.Itoa(e.Clock.BeatCount), true
	case key == "scale_root":
		r := e.Scale.Detect()
		return strconv.Itoa(r.Root), true
	case key == "scale_name":
		r := e.Scale.Detect()
		return r.TemplateName, true
	case strings.HasPrefix(key, "track_"):
		return e.getTrackParam(key)
	}
	return "", false
}

// bulkSet parses newline-delimited "key\nvalue" pairs (spec.md §4.7). depth
// guards against runaway recursion from a bulk_set value nesting bulk_set.
func (e *Engine) bulkSet(blob string, midi MIDIOut, depth int) error {
	if depth > 4 {
		return fmt.Errorf("bulk_set recursion too deep")
	}
	lines := strings.Split(blob, "\n")
	for i := 0; i+1 < len(lines); i += 2 {
		k := strings.TrimSpace(lines[i])
		v := strings.TrimSpace(lines[i+1])
		if k == "" {
			continue
		}
		if k == "bulk_set" {
			if err := e.bulkSet(v, midi, depth+1); err != nil {
				return err
			}
			continue
		}
		_ = e.SetParam(k, v, midi) // spec.md §7: invalid writes are ignored, not fatal
	}
	return nil
}

func (e *Engine) setTransposeParam(key, value string) error {
	switch {
	case key == "transpose_clear":
		e.TransposeSeq.Steps = nil
		e.TransposeSeq.Reset()
		return nil
	case key == "transpose_sequence_enabled":
		e.TransposeSeq.Enabled = value == "1" || value == "true"
		return nil
	case key == "transpose_step_count":
		n, err := strconv.Atoi(value)
		if err != nil {
			return err
		}
		n = clampI(n, 0, 16)
		for len(e.TransposeSeq.Steps) < n {
			e.TransposeSeq.Steps = append(e.TransposeSeq.Steps, transpose.Step{Jump: -1})
		}
		if n < len(e.TransposeSeq.Steps) {
			e.TransposeSeq.Steps = e.TransposeSeq.Steps[:n]
		}
		return nil
	}
	idx, field, ok := parseIndexedKey(key, "transpose_step_")
	if !ok {
		return fmt.Errorf("unrecognized transpose key %q", key)
	}
	if idx < 0 || idx >= len(e.TransposeSeq.Steps) {
		return fmt.Errorf("transpose step %d out of range", idx)
	}
	st := &e.TransposeSeq.Steps[idx]
	switch field {
	case "transpose":
		v, err := strconv.Atoi(value)
		if err != nil {
			return err
		}
		st.Semitones = clampI(v, -24, 24)
	case "duration":
		v, err := strconv.Atoi(value)
		if err != nil {
			return err
		}
		st.Duration = clampI(v, 1, 256)
	case "jump":
		v, err := strconv.Atoi(value)
		if err != nil {
			return err
		}
		st.Jump = clampI(v, -1, 15)
	case "condition_n":
		v, err := strconv.Atoi(value)
		if err != nil {
			return err
		}
		st.CondN = v
	case "condition_m":
		v, err := strconv.Atoi(value)
		if err != nil {
			return err
		}
		st.CondM = v
	case "condition_not":
		st.CondNot = value == "1" || value == "true"
	default:
		return fmt.Errorf("unrecognized transpose step field %q", field)
	}
	return nil
}

func (e *Engine) sendCC(key, value string, midi MIDIOut) error {
	rest := strings.TrimPrefix(key, "send_cc_")
	parts := strings.SplitN(rest, "_", 2)
	if len(parts) != 2 {
		return fmt.Errorf("malformed send_cc key %q", key)
	}
	channel, err := strconv.Atoi(parts[0])
	if err != nil {
		return err
	}
	cc, err := strconv.Atoi(parts[1])
	if err != nil {
		return err
	}
	val, err := strconv.Atoi(value)
	if err != nil {
		return err
	}
	if midi != nil {
		midi.CC(clampI(channel, 0, 15), clampI(cc, 0, 127), clampI(val, 0, 127))
	}
	return nil
}

// parseIndexedKey extracts an integer index and trailing field name from a
// "prefixI_field" key, e.g. parseIndexedKey("track_3_mute", "track_") ->
// (3, "mute", true).
func parseIndexedKey(key, prefix string) (idx int, field string, ok bool) {
	if !strings.HasPrefix(key, prefix) {
		return 0, "", false
	}
	rest := key[len(prefix):]
	us := strings.IndexByte(rest, '_')
	numPart := rest
	if us >= 0 {
		numPart = rest[:us]
		field = rest[us+1:]
	}
	n, err := strconv.Atoi(numPart)
	if err != nil {
		return 0, "", false
	}
	return n, field, true
}

func clampI(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampF(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func formatF(v float64) string  { return strconv.FormatFloat(v, 'g', -1, 64) }
func formatBool(b bool) string {
	if b {
		return "1"
	}
	return "0"
}
