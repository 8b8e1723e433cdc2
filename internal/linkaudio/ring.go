// Package linkaudio implements the Link-Audio Ring & Publisher (spec.md
// §4.13, §4.14): a lock-free SPSC ring between the UDP sendto intercept
// and the audio renderer, grounded on
// original_source/src/host/{link_audio.h,shadow_link_audio.c}.
package linkaudio

import "sync/atomic"

// RingFrames is the per-channel SPSC ring capacity in stereo frames (512
// frames ~= 11.6ms at 44100Hz, absorbing the 125-vs-128 frame mismatch
// between Link-Audio packets and the host's render block size).
const RingFrames = 512

// RingSamples is the ring capacity in samples (stereo).
const RingSamples = RingFrames * 2

// ringMask requires RingSamples to be a power of two (spec.md §4.13
// "RING_CAPACITY is a power of two").
const ringMask = RingSamples - 1

// Ring is a lock-free single-producer single-consumer sample ring. wp/rp
// are monotonic counters that wrap naturally via unsigned difference
// arithmetic (spec.md §9 "implement with unsigned-integer positions and
// acquire-release fences").
type Ring struct {
	buf [RingSamples]int16
	wp  atomic.Uint32
	rp  atomic.Uint32

	Overruns  atomic.Uint32
	Underruns atomic.Uint32
	Peak      atomic.Int32
	PktCount  atomic.Uint32
	Sequence  atomic.Uint32
}

// Fill reports how many samples are currently buffered.
func (r *Ring) Fill() uint32 {
	return r.wp.Load() - r.rp.Load()
}

// Write appends samples (big-endian wire values already decoded to host
// int16) to the ring. If there isn't room for len(samples), the packet is
// dropped and Overruns increments (spec.md §4.13).
func (r *Ring) Write(samples []int16) bool {
	wp := r.wp.Load()
	rp := r.rp.Load()
	if (wp-rp)+uint32(len(samples)) > RingSamples {
		r.Overruns.Add(1)
		return false
	}
	for i, s := range samples {
		r.buf[(wp+uint32(i))&ringMask] = s
		if abs16(s) > int16(r.Peak.Load()) {
			r.Peak.Store(int32(abs16(s)))
		}
	}
	r.wp.Store(wp + uint32(len(samples))) // release: samples visible before wp advances
	r.PktCount.Add(1)
	r.Sequence.Add(1)
	return true
}

// Read copies len(out) samples from the ring into out. If fewer than
// len(out) samples are available, out is zeroed and Underruns increments
// (spec.md §4.13). If the fill exceeds 4x the request, rp fast-forwards to
// drop stale audio rather than let latency grow.
func (r *Ring) Read(out []int16) bool {
	wp := r.wp.Load()
	rp := r.rp.Load()
	needed := uint32(len(out))

	if wp-rp < needed {
		for i := range out {
			out[i] = 0
		}
		r.Underruns.Add(1)
		return false
	}

	if wp-rp > 4*needed {
		rp = wp - needed
	}

	for i := range out {
		out[i] = r.buf[(rp+uint32(i))&ringMask]
	}
	r.rp.Store(rp + needed) // acquire: consumed samples recorded before rp advances
	return true
}

func abs16(v int16) int16 {
	if v < 0 {
		return -v
	}
	return v
}
