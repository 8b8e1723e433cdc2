// Package publisher implements the Link-Audio publisher: it repacketizes
// shadow-slot render blocks (128 frames) into 125-frame "chnnlsv" packets,
// announces a session over the Link-Audio socket, answers Channel-Requests,
// and advertises the host over mDNS (spec.md §4.14, grounded on
// original_source/src/host/shadow_link_audio.c's publisher thread).
package publisher

import "github.com/move-anything/hostrt/internal/linkaudio"

// accumFrames/accumSamples size the per-slot accumulator ring that
// absorbs the 128-vs-125 frame mismatch between render blocks and outbound
// packets (LINK_AUDIO_PUB_RING_FRAMES in link_audio.h).
const (
	accumFrames  = 1024
	accumSamples = accumFrames * 2
	accumMask    = accumSamples - 1
)

// accumRing is a single-writer single-reader ring with no overrun guard:
// an unsubscribed channel's render blocks are simply overwritten as the
// ring wraps, matching the original publisher (it never stalls the audio
// thread waiting for a slow or absent Live subscriber).
type accumRing struct {
	buf [accumSamples]int16
	wp  uint32
	rp  uint32
}

func (r *accumRing) write(samples []int16) {
	for i, s := range samples {
		r.buf[(r.wp+uint32(i))&accumMask] = s
	}
	r.wp += uint32(len(samples))
}

func (r *accumRing) avail() uint32 {
	return r.wp - r.rp
}

// drainPacket pulls one 125-frame (250-sample) packet's worth of audio if
// available.
func (r *accumRing) drainPacket() ([]int16, bool) {
	const n = linkaudio.FramesPerPacket * 2
	if r.avail() < n {
		return nil, false
	}
	out := make([]int16, n)
	for i := range out {
		out[i] = r.buf[(r.rp+uint32(i))&accumMask]
	}
	r.rp += n
	return out, true
}
