// Package settings parses and writes the host settings file (spec.md §6),
// grounded on original_source/src/host/settings.c's line-oriented
// key=value format and doismellburning-samoyed's config.go bufio.Scanner
// idiom for reading configuration text.
package settings

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/move-anything/hostrt/internal/midi"
)

// ClockMode selects where tempo comes from (spec.md §6).
type ClockMode int

const (
	ClockOff ClockMode = iota
	ClockInternal
	ClockExternal
)

var clockModeNames = [...]string{"off", "internal", "external"}

func (c ClockMode) String() string {
	if int(c) < len(clockModeNames) {
		return clockModeNames[c]
	}
	return "off"
}

func parseClockMode(s string) ClockMode {
	for i, name := range clockModeNames {
		if name == s {
			return ClockMode(i)
		}
	}
	return ClockOff
}

var velocityCurveNames = [...]string{"linear", "soft", "hard", "full"}

func velocityCurveName(c midi.VelocityCurve) string {
	if int(c) < len(velocityCurveNames) {
		return velocityCurveNames[c]
	}
	return "linear"
}

func parseVelocityCurve(s string) midi.VelocityCurve {
	for i, name := range velocityCurveNames {
		if name == s {
			return midi.VelocityCurve(i)
		}
	}
	return midi.VelocityLinear
}

var padLayoutNames = [...]string{"chromatic", "fourth"}

func padLayoutName(l midi.PadLayout) string {
	if int(l) < len(padLayoutNames) {
		return padLayoutNames[l]
	}
	return "chromatic"
}

func parsePadLayout(s string) midi.PadLayout {
	for i, name := range padLayoutNames {
		if name == s {
			return midi.PadLayout(i)
		}
	}
	return midi.LayoutChromatic
}

// Settings mirrors spec.md §6's recognized settings keys.
type Settings struct {
	VelocityCurve      midi.VelocityCurve
	AftertouchEnabled  bool
	AftertouchDeadzone int // 0-50
	PadLayout          midi.PadLayout
	ClockMode          ClockMode
	TempoBPM           int // 20-300
}

// Default returns the reference defaults (settings_init in
// original_source/src/host/settings.c).
func Default() Settings {
	return Settings{
		VelocityCurve:      midi.VelocityLinear,
		AftertouchEnabled:  true,
		AftertouchDeadzone: 0,
		PadLayout:          midi.LayoutChromatic,
		ClockMode:          ClockInternal,
		TempoBPM:           120,
	}
}

// Load reads path, falling back silently to Default() if it doesn't exist
// (spec.md §7: a missing settings file is not an error).
func Load(path string) (Settings, error) {
	s := Default()

	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return s, err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, val, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		val = strings.TrimSpace(val)

		switch key {
		case "velocity_curve":
			s.VelocityCurve = parseVelocityCurve(val)
		case "aftertouch_enabled":
			s.AftertouchEnabled = val == "1" || val == "true"
		case "aftertouch_deadzone":
			if dz, err := strconv.Atoi(val); err == nil {
				s.AftertouchDeadzone = clamp(dz, 0, 50)
			}
		case "pad_layout":
			s.PadLayout = parsePadLayout(val)
		case "clock_mode":
			s.ClockMode = parseClockMode(val)
		case "tempo_bpm":
			if bpm, err := strconv.Atoi(val); err == nil {
				s.TempoBPM = clamp(bpm, 20, 300)
			}
		}
	}
	return s, scanner.Err()
}

// Save writes s to path in the same key=value format.
func Save(s Settings, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	fmt.Fprintf(w, "velocity_curve=%s\n", velocityCurveName(s.VelocityCurve))
	fmt.Fprintf(w, "aftertouch_enabled=%d\n", boolToInt(s.AftertouchEnabled))
	fmt.Fprintf(w, "aftertouch_deadzone=%d\n", s.AftertouchDeadzone)
	fmt.Fprintf(w, "pad_layout=%s\n", padLayoutName(s.PadLayout))
	fmt.Fprintf(w, "clock_mode=%s\n", s.ClockMode)
	fmt.Fprintf(w, "tempo_bpm=%d\n", s.TempoBPM)
	return w.Flush()
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
