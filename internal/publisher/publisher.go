package publisher

import (
	"fmt"
	"sync/atomic"

	"github.com/move-anything/hostrt/internal/linkaudio"
)

// ShadowChannels is the number of shadow chain slots the publisher can
// stream (LINK_AUDIO_SHADOW_CHANNELS).
const ShadowChannels = 4

// SessionIntervalTicks is how many Tick calls separate Session
// announcements. The original publisher ticks once per audio-thread
// wakeup (~2.9ms at 44100Hz/128 frames) and re-announces every 344 ticks
// (~1 second); Tick here is called once per render block, so the same
// constant applies directly.
const SessionIntervalTicks = 344

// Sender transmits an encoded Link-Audio packet to Live's endpoint. The
// host wires this to the real UDP socket; tests use a recording fake.
type Sender interface {
	SendTo(pkt []byte) error
}

// Channel is one outgoing shadow slot: its identity, subscription state,
// and accumulator ring.
type Channel struct {
	ID         [8]byte
	Name       string
	Active     bool
	Subscribed bool
	sequence   uint32
	accum      accumRing
}

// Publisher repacketizes shadow-slot audio into Link-Audio packets and
// answers session/channel-request traffic (spec.md §4.14).
type Publisher struct {
	PeerID    [8]byte
	SessionID [8]byte
	Channels  [ShadowChannels]Channel

	PacketsPublished atomic.Uint32

	tickCount uint32
	sender    Sender
	log       func(string)
}

// New builds a Publisher for the given shadow channel names. Channels
// start inactive; call SetActive as shadow slots load modules.
func New(peerID, sessionID [8]byte, names [ShadowChannels]string, sender Sender, log func(string)) *Publisher {
	if log == nil {
		log = func(string) {}
	}
	p := &Publisher{PeerID: peerID, SessionID: sessionID, sender: sender, log: log}
	for i := range p.Channels {
		p.Channels[i].Name = names[i]
		p.Channels[i].ID = generatedChannelID(peerID, i)
	}
	return p
}

// generatedChannelID derives a stable 8-byte channel ID per slot from the
// publisher's peer ID so restarts keep the same identity.
func generatedChannelID(peerID [8]byte, slot int) [8]byte {
	id := peerID
	id[7] ^= byte(slot + 1)
	return id
}

// SetActive marks whether slot has a loaded module producing audio.
func (p *Publisher) SetActive(slot int, active bool) {
	p.Channels[slot].Active = active
}

// Feed appends one render block's worth of interleaved stereo samples
// (frames*2 int16s) to slot's accumulator.
func (p *Publisher) Feed(slot int, samples []int16) {
	p.Channels[slot].accum.write(samples)
}

// HandleChannelRequest processes an inbound Channel-Request packet
// (msg type 3), subscribing the matching shadow channel if found.
func (p *Publisher) HandleChannelRequest(pkt []byte) bool {
	id, ok := linkaudio.ParseChannelRequest(pkt)
	if !ok {
		return false
	}
	for i := range p.Channels {
		if p.Channels[i].ID == id {
			p.Channels[i].Subscribed = true
			return true
		}
	}
	return false
}

// Tick drains pending audio into packets, sends a Session announcement
// every SessionIntervalTicks calls, and returns any send error encountered
// (the caller decides whether to log and continue).
func (p *Publisher) Tick(hostTimeNanos uint64) error {
	p.tickCount++

	if p.tickCount%SessionIntervalTicks == 0 {
		if err := p.sendSessionAnnouncement(hostTimeNanos); err != nil {
			return err
		}
	}

	for i := range p.Channels {
		ch := &p.Channels[i]
		if !ch.Active || !ch.Subscribed {
			continue
		}
		for {
			samples, ok := ch.accum.drainPacket()
			if !ok {
				break
			}
			if err := p.sendAudioPacket(ch, samples); err != nil {
				return err
			}
		}
	}
	return nil
}

func (p *Publisher) sendSessionAnnouncement(hostTimeNanos uint64) error {
	var channels []linkaudio.PublishChannel
	for _, ch := range p.Channels {
		if !ch.Active {
			continue
		}
		channels = append(channels, linkaudio.PublishChannel{ID: ch.ID, Name: ch.Name})
	}
	pkt := linkaudio.BuildSessionAnnouncement(p.PeerID, p.SessionID, channels, hostTimeNanos)
	return p.sender.SendTo(pkt)
}

func (p *Publisher) sendAudioPacket(ch *Channel, samples []int16) error {
	h := linkaudio.Header{
		MessageType: linkaudio.MsgAudio,
		PeerID:      p.PeerID,
		ChannelID:   ch.ID,
		Sequence:    ch.sequence,
		FrameCount:  linkaudio.FramesPerPacket,
		SampleRate:  44100,
		Channels:    2,
	}
	ch.sequence++
	pkt := linkaudio.BuildAudioPacket(h, samples)
	if err := p.sender.SendTo(pkt); err != nil {
		return fmt.Errorf("publisher: send audio channel %q: %w", ch.Name, err)
	}
	p.PacketsPublished.Add(1)
	return nil
}
