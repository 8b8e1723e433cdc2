// Package logging is the host's single log sink (spec.md §6, grounded on
// original_source/src/host/unified_log.c: one file, leveled, tagged by
// source, gated by a cheap periodically-rechecked enable flag). It uses
// charmbracelet/log for level-aware structured output and
// lestrrat-go/strftime for the teacher's daily-file-name convention
// (src/log.go's g_daily_names option), translated from hand-rolled
// strftime-at-midnight-check C into a real strftime pattern.
package logging

import (
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"time"

	charmlog "github.com/charmbracelet/log"
	"github.com/lestrrat-go/strftime"
)

// FlagCheckInterval mirrors unified_log.c's CHECK_INTERVAL: the enable
// flag file is only restated this often rather than on every call.
const FlagCheckInterval = 100

// Sink is the process-wide logger. It wraps one charmlog.Logger over the
// open file and tags every line with a "source" field naming the caller.
type Sink struct {
	mu       sync.Mutex
	file     *os.File
	logger   *charmlog.Logger
	flagPath string

	checkCounter atomic.Int32
	enabledCache atomic.Bool

	daily    bool
	pattern  *strftime.Strftime
	openName string
	dir      string
}

// Open creates a Sink writing to path (or, when daily is true, to a
// strftime-rendered name under the directory path). flagPath, if non-empty,
// gates logging on that file's existence, rechecked every
// FlagCheckInterval calls exactly like unified_log_enabled.
func Open(path string, daily bool, flagPath string) (*Sink, error) {
	s := &Sink{flagPath: flagPath, daily: daily, dir: path}
	s.enabledCache.Store(flagPath == "" || fileExists(flagPath))

	if daily {
		pattern, err := strftime.New(path + "/move-anything-%Y%m%d.log")
		if err != nil {
			return nil, fmt.Errorf("logging: compile daily pattern: %w", err)
		}
		s.pattern = pattern
		if err := s.rotateDailyLocked(); err != nil {
			return nil, err
		}
	} else {
		f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, fmt.Errorf("logging: open %s: %w", path, err)
		}
		s.file = f
		s.logger = charmlog.NewWithOptions(f, charmlog.Options{ReportTimestamp: true})
		fmt.Fprintf(f, "\n=== Log started ===\n")
	}
	return s, nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func (s *Sink) rotateDailyLocked() error {
	name := s.pattern.FormatString(time.Now())
	if name == s.openName {
		return nil
	}
	if s.file != nil {
		s.file.Close()
	}
	f, err := os.OpenFile(name, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("logging: open %s: %w", name, err)
	}
	s.file = f
	s.openName = name
	s.logger = charmlog.NewWithOptions(f, charmlog.Options{ReportTimestamp: true})
	return nil
}

func (s *Sink) refreshEnabled() {
	if s.flagPath == "" {
		return
	}
	if s.checkCounter.Add(1) < FlagCheckInterval {
		return
	}
	s.checkCounter.Store(0)
	s.enabledCache.Store(fileExists(s.flagPath))
}

// Enabled reports whether logging is currently gated on (matching
// unified_log_enabled's cached-flag-file semantics).
func (s *Sink) Enabled() bool {
	s.refreshEnabled()
	return s.enabledCache.Load()
}

func (s *Sink) write(source string, level charmlog.Level, format string, args ...any) {
	s.refreshEnabled()
	if !s.enabledCache.Load() {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.daily {
		if err := s.rotateDailyLocked(); err != nil {
			return
		}
	}
	s.logger.With("source", source).Log(level, fmt.Sprintf(format, args...))
}

// Debugf logs a formatted debug message tagged with source.
func (s *Sink) Debugf(source, format string, args ...any) {
	s.write(source, charmlog.DebugLevel, format, args...)
}

// Infof logs a formatted info message tagged with source.
func (s *Sink) Infof(source, format string, args ...any) {
	s.write(source, charmlog.InfoLevel, format, args...)
}

// Warnf logs a formatted warning message tagged with source.
func (s *Sink) Warnf(source, format string, args ...any) {
	s.write(source, charmlog.WarnLevel, format, args...)
}

// Errorf logs a formatted error message tagged with source.
func (s *Sink) Errorf(source, format string, args ...any) {
	s.write(source, charmlog.ErrorLevel, format, args...)
}

// Close writes the shutdown marker and closes the underlying file.
func (s *Sink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.file == nil {
		return nil
	}
	fmt.Fprintf(s.file, "=== Log ended ===\n")
	return s.file.Close()
}
