// Package mailbox models the hardware mailbox: a fixed 4096-byte shared
// page exchanged with the device driver via ioctl (spec.md §6, §9 "model
// as an opaque handle that hands out scoped borrow regions"), grounded on
// doismellburning-samoyed's cm108.go ioctl/os.OpenFile usage pattern.
package mailbox

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// Size is the fixed mailbox page size (spec.md §6).
const Size = 4096

// Region offsets within the mailbox (spec.md §6).
const (
	MIDIOutOffset    = 0
	MIDIOutSize      = 256
	AudioOutOffset   = 256
	AudioOutSize     = 512
	DisplayOffset    = 768
	DisplaySize      = 1280
	MIDIInOffset     = 2048
	MIDIInSize       = 256
	AudioInOffset    = 2304
	AudioInSize      = 512
	MiscOffset       = 2816
	MiscSize         = 1280
)

// Handle is an open, mapped mailbox device. ioctlReq is the device ioctl
// request number used to ask the driver to swap the mailbox page (host
// writes flushed, device writes made visible). The reference
// implementation's actual request number is hardware/driver specific; it
// is parameterized here rather than hardcoded so a real driver binding can
// supply it.
type Handle struct {
	fd     int
	page   []byte
	ioctlReq uint
}

// ErrUnavailable is spec.md §7's MailboxUnavailable: fatal at startup.
type ErrUnavailable struct {
	Path string
	Err  error
}

func (e *ErrUnavailable) Error() string {
	return fmt.Sprintf("mailbox device %q not openable: %v", e.Path, e.Err)
}
func (e *ErrUnavailable) Unwrap() error { return e.Err }

// Open opens the device file at path and maps its mailbox page. ioctlReq
// is the driver-specific swap request number.
func Open(path string, ioctlReq uint) (*Handle, error) {
	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return nil, &ErrUnavailable{Path: path, Err: err}
	}
	data, err := unix.Mmap(int(f.Fd()), 0, Size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		f.Close()
		return nil, &ErrUnavailable{Path: path, Err: err}
	}
	return &Handle{fd: int(f.Fd()), page: data, ioctlReq: ioctlReq}, nil
}

// Close unmaps and closes the device file.
func (h *Handle) Close() error {
	if h.page != nil {
		unix.Munmap(h.page)
		h.page = nil
	}
	return unix.Close(h.fd)
}

// Swap issues the driver ioctl that exchanges the mailbox contents with
// the device (spec.md §4.10 step 6).
func (h *Handle) Swap() error {
	_, _, errno := unix.Syscall(unix.SYS_IOCTL, uintptr(h.fd), uintptr(h.ioctlReq), 0)
	if errno != 0 {
		return errno
	}
	return nil
}

// AudioOut returns the scoped borrow region for the audio-out slab
// (spec.md §9 "hands out scoped borrow regions").
func (h *Handle) AudioOut() []byte { return h.page[AudioOutOffset : AudioOutOffset+AudioOutSize] }

// AudioIn returns the audio-in slab.
func (h *Handle) AudioIn() []byte { return h.page[AudioInOffset : AudioInOffset+AudioInSize] }

// MIDIOut returns the MIDI-out ring region.
func (h *Handle) MIDIOut() []byte { return h.page[MIDIOutOffset : MIDIOutOffset+MIDIOutSize] }

// MIDIIn returns the MIDI-in ring region.
func (h *Handle) MIDIIn() []byte { return h.page[MIDIInOffset : MIDIInOffset+MIDIInSize] }

// Display returns the display slice/control region.
func (h *Handle) Display() []byte { return h.page[DisplayOffset : DisplayOffset+DisplaySize] }

// Raw exposes the full page, for plugins that only see mapped_memory plus
// offsets (spec.md §4.8).
func (h *Handle) Raw() []byte { return h.page }

// Backend is the host tick loop's view of a mailbox: the real device
// (Handle) or a development stand-in (internal/simhw.Sim). Both hand out
// the same scoped regions and the same swap step.
type Backend interface {
	Swap() error
	Close() error
	AudioOut() []byte
	AudioIn() []byte
	MIDIOut() []byte
	MIDIIn() []byte
	Display() []byte
	Raw() []byte
}

var _ Backend = (*Handle)(nil)
