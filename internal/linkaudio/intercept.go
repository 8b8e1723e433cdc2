package linkaudio

import (
	"fmt"
	"sync"
	"sync/atomic"
)

// MaxMoveChannels is Move's channel count: tracks 1-4 plus Main (spec.md
// §4.13; shadow_link_audio.h's LINK_AUDIO_MOVE_CHANNELS).
const MaxMoveChannels = 5

// Channel holds one intercepted Move audio channel: its identity and the
// SPSC ring fed by the sendto intercept.
type Channel struct {
	ID     [8]byte
	Name   string
	Active bool
	Ring   Ring
}

// Interceptor is the sendto() interception point for Move's "chnnlsv"
// traffic: it watches outgoing UDP writes, discovers channels from Session
// announcements (or auto-discovers them from the first Audio packet seen
// on a new channel ID), and feeds each channel's ring buffer (spec.md
// §4.13, grounded on shadow_link_audio.c's link_audio_on_sendto /
// link_audio_intercept_audio / link_audio_parse_session).
type Interceptor struct {
	mu sync.Mutex // guards channel discovery/identity; ring I/O stays lock-free

	MovePeerID    [8]byte
	SessionID     [8]byte
	SessionParsed bool
	Channels      [MaxMoveChannels]Channel
	ChannelCount  int

	PacketsIntercepted atomic.Uint32
	Overruns           atomic.Uint32

	Log func(string)
}

// NewInterceptor returns an Interceptor with no channels discovered yet.
// log may be nil.
func NewInterceptor(log func(string)) *Interceptor {
	if log == nil {
		log = func(string) {}
	}
	return &Interceptor{Log: log}
}

// OnSendto is the hook callback: it is handed every UDP payload Move's
// sendto() call would have written, and decides whether it's a Link-Audio
// packet worth intercepting.
func (ic *Interceptor) OnSendto(pkt []byte) {
	if len(pkt) < 12 {
		return
	}
	if string(pkt[:MagicLen]) != Magic || pkt[offVersion] != Version {
		return
	}

	switch pkt[offMsgType] {
	case MsgAudio:
		if len(pkt) == PacketSize {
			ic.interceptAudio(pkt)
		}
	case MsgSession:
		ic.parseSession(pkt)
	}
}

func (ic *Interceptor) parseSession(pkt []byte) {
	if len(pkt) < 20 {
		return
	}
	info := ParseSession(pkt)

	ic.mu.Lock()
	defer ic.mu.Unlock()

	ic.MovePeerID = info.PeerID

	if len(info.Channels) > 0 {
		ic.SessionID = info.SessionID
		count := len(info.Channels)
		if count > MaxMoveChannels {
			count = MaxMoveChannels
		}
		for i := 0; i < count; i++ {
			ic.Channels[i].ID = info.Channels[i].ID
			ic.Channels[i].Name = info.Channels[i].Name
			ic.Channels[i].Active = true
		}
		ic.ChannelCount = count

		if !ic.SessionParsed {
			ic.SessionParsed = true
			ic.Log(fmt.Sprintf("Link Audio: session parsed, %d channels discovered", count))
			for i := 0; i < count; i++ {
				ic.Log(fmt.Sprintf("Link Audio:   [%d] %q", i, ic.Channels[i].Name))
			}
		}
	}
}

func (ic *Interceptor) channelIndex(id [8]byte) int {
	for i := 0; i < ic.ChannelCount; i++ {
		if ic.Channels[i].ID == id {
			return i
		}
	}
	return -1
}

// interceptAudio decodes one Audio packet (msg type 6) and writes its 125
// stereo frames into the matching channel's ring, auto-discovering the
// channel if a Session announcement hadn't already named it.
func (ic *Interceptor) interceptAudio(pkt []byte) {
	var channelID [8]byte
	copy(channelID[:], pkt[offChannelID:offChannelID+8])

	ic.mu.Lock()
	idx := ic.channelIndex(channelID)
	if idx < 0 && ic.ChannelCount < MaxMoveChannels {
		idx = ic.ChannelCount
		ic.Channels[idx] = Channel{
			ID:     channelID,
			Name:   fmt.Sprintf("ch%d", idx),
			Active: true,
		}
		ic.ChannelCount = idx + 1
		copy(ic.MovePeerID[:], pkt[offPeerID:offPeerID+8])
		ic.Log(fmt.Sprintf("Link Audio: auto-discovered channel %d (id %x)", idx, channelID))
	}
	ic.mu.Unlock()

	if idx < 0 {
		return
	}

	samples, err := AudioPayload(pkt)
	if err != nil {
		return
	}

	ring := &ic.Channels[idx].Ring
	if ring.Write(samples) {
		ic.PacketsIntercepted.Add(1)
	} else {
		ic.Overruns.Add(1)
	}
}

// ReadChannel drains len(out) samples (out must hold frames*2 int16s) from
// channel idx's ring. It reports false (and zeroes out) on underrun.
func (ic *Interceptor) ReadChannel(idx int, out []int16) bool {
	if idx < 0 || idx >= ic.ChannelCount {
		for i := range out {
			out[i] = 0
		}
		return false
	}
	return ic.Channels[idx].Ring.Read(out)
}
