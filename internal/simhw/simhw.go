// Package simhw is a development-only stand-in for the hardware mailbox
// (internal/mailbox.Backend), letting the host run on a regular Linux box
// without the real device: audio in/out regions loop through a real sound
// card via portaudio, and a handful of GPIO lines stand in for hardware
// buttons (spec.md's ambient stack is carried even for out-of-scope
// bring-up tooling; not part of spec.md itself). Grounded on the teacher's
// own pattern of one small file per hardware concern (cm108.go, ptt.go):
// this is "one small file for the dev hardware concern."
package simhw

import (
	"fmt"

	"github.com/gordonklaus/portaudio"
	"github.com/warthog618/go-gpiocdev"

	"github.com/move-anything/hostrt/internal/mailbox"
)

const (
	sampleRate      = 44100
	framesPerBlock  = 128
	audioChannels   = 2
	gpioButtonCount = 4
)

// Sim is a software mailbox backend: an in-memory page plus a real audio
// device and a handful of simulated GPIO buttons.
type Sim struct {
	page [mailbox.Size]byte

	stream *portaudio.Stream
	in     []int16
	out    []int16

	gpioChipName string
	gpioLines    []*gpiocdev.Line
}

// Open starts a portaudio default duplex stream and requests
// gpioButtonCount input lines on gpioChipName (e.g. "gpiochip0") to stand
// in for the hardware's physical buttons. gpioChipName may be empty to
// skip GPIO simulation entirely (audio-only bring-up).
func Open(gpioChipName string) (*Sim, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("simhw: portaudio init: %w", err)
	}

	s := &Sim{
		in:  make([]int16, framesPerBlock*audioChannels),
		out: make([]int16, framesPerBlock*audioChannels),
	}

	stream, err := portaudio.OpenDefaultStream(
		audioChannels, audioChannels, float64(sampleRate), framesPerBlock, s.in, s.out)
	if err != nil {
		portaudio.Terminate()
		return nil, fmt.Errorf("simhw: open default stream: %w", err)
	}
	if err := stream.Start(); err != nil {
		stream.Close()
		portaudio.Terminate()
		return nil, fmt.Errorf("simhw: start stream: %w", err)
	}
	s.stream = stream

	if gpioChipName != "" {
		s.gpioChipName = gpioChipName
		for offset := 0; offset < gpioButtonCount; offset++ {
			line, err := gpiocdev.RequestLine(gpioChipName, offset, gpiocdev.AsInput)
			if err != nil {
				s.Close()
				return nil, fmt.Errorf("simhw: request gpio line %d on %s: %w", offset, gpioChipName, err)
			}
			s.gpioLines = append(s.gpioLines, line)
		}
	}

	return s, nil
}

// Swap pulls one render block of captured audio into the audio-in region,
// pushes the audio-out region to the sound card, and samples the
// simulated buttons into the misc region's first bytes (one byte per
// line, matching the real driver's "swap exchanges everything at once"
// contract).
func (s *Sim) Swap() error {
	if err := s.stream.Read(); err != nil {
		return fmt.Errorf("simhw: stream read: %w", err)
	}
	copy(s.AudioIn(), int16SliceToBytes(s.in))

	copy(s.out, bytesToInt16Slice(s.AudioOut()))
	if err := s.stream.Write(); err != nil {
		return fmt.Errorf("simhw: stream write: %w", err)
	}

	misc := s.page[mailbox.MiscOffset : mailbox.MiscOffset+mailbox.MiscSize]
	for i, line := range s.gpioLines {
		if i >= len(misc) {
			break
		}
		v, err := line.Value()
		if err != nil {
			return fmt.Errorf("simhw: read gpio line %d: %w", i, err)
		}
		misc[i] = byte(v)
	}
	return nil
}

// Close stops the audio stream and releases GPIO lines.
func (s *Sim) Close() error {
	for _, l := range s.gpioLines {
		l.Close()
	}
	if s.stream != nil {
		s.stream.Stop()
		s.stream.Close()
	}
	return portaudio.Terminate()
}

func (s *Sim) AudioOut() []byte {
	return s.page[mailbox.AudioOutOffset : mailbox.AudioOutOffset+mailbox.AudioOutSize]
}
func (s *Sim) AudioIn() []byte {
	return s.page[mailbox.AudioInOffset : mailbox.AudioInOffset+mailbox.AudioInSize]
}
func (s *Sim) MIDIOut() []byte {
	return s.page[mailbox.MIDIOutOffset : mailbox.MIDIOutOffset+mailbox.MIDIOutSize]
}
func (s *Sim) MIDIIn() []byte {
	return s.page[mailbox.MIDIInOffset : mailbox.MIDIInOffset+mailbox.MIDIInSize]
}
func (s *Sim) Display() []byte {
	return s.page[mailbox.DisplayOffset : mailbox.DisplayOffset+mailbox.DisplaySize]
}
func (s *Sim) Raw() []byte { return s.page[:] }

var _ mailbox.Backend = (*Sim)(nil)
