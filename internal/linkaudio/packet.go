package linkaudio

import (
	"encoding/binary"
	"errors"
)

// Wire format constants (spec.md §4.13, §6; original_source/src/host/
// link_audio.h's LINK_AUDIO_* defines).
const (
	Magic       = "chnnlsv"
	MagicLen    = 7
	Version     = 0x01
	HeaderSize  = 74
	PayloadSize = 500
	PacketSize  = HeaderSize + PayloadSize // 574

	FramesPerPacket = 125

	MsgSession = 1
	MsgRequest = 3
	MsgAudio   = 6
)

// Header offsets within a Link-Audio packet (spec.md §4.13).
const (
	offVersion     = 7
	offMsgType     = 8
	offPeerID      = 12
	offChannelID   = 20
	offPeerIDCopy  = 28
	offFlags       = 36
	offSequence    = 44
	offFrameCount  = 48
	offTimestamp   = 52
	offFormatTag   = 60
	offSampleRate  = 67
	offChannels    = 71
	offPayloadSize = 72
	offPayload     = HeaderSize
)

var errBadMagic = errors.New("linkaudio: bad magic/version")
var errBadSize = errors.New("linkaudio: wrong packet size")

// Header is the decoded fixed portion of a Link-Audio packet.
type Header struct {
	MessageType byte
	PeerID      [8]byte
	ChannelID   [8]byte
	Flags       uint32
	Sequence    uint32
	FrameCount  uint16
	Timestamp   uint64
	SampleRate  uint32
	Channels    byte
	PayloadSize uint16
}

// ParseHeader validates the magic/version and decodes the fixed header
// fields (spec.md §4.13: "reject packets that do not begin with the magic
// + version 0x01").
func ParseHeader(raw []byte) (Header, error) {
	if len(raw) < HeaderSize {
		return Header{}, errBadSize
	}
	if string(raw[:MagicLen]) != Magic || raw[offVersion] != Version {
		return Header{}, errBadMagic
	}
	var h Header
	h.MessageType = raw[offMsgType]
	copy(h.PeerID[:], raw[offPeerID:offPeerID+8])
	copy(h.ChannelID[:], raw[offChannelID:offChannelID+8])
	h.Flags = binary.BigEndian.Uint32(raw[offFlags : offFlags+4])
	h.Sequence = binary.BigEndian.Uint32(raw[offSequence : offSequence+4])
	h.FrameCount = binary.BigEndian.Uint16(raw[offFrameCount : offFrameCount+2])
	h.Timestamp = binary.BigEndian.Uint64(raw[offTimestamp : offTimestamp+8])
	h.SampleRate = binary.BigEndian.Uint32(raw[offSampleRate : offSampleRate+4])
	h.Channels = raw[offChannels]
	h.PayloadSize = binary.BigEndian.Uint16(raw[offPayloadSize : offPayloadSize+2])
	return h, nil
}

// AudioPayload decodes the 500-byte payload of an audio packet (exactly
// PacketSize bytes) into 250 big-endian i16 samples (125 stereo frames).
func AudioPayload(raw []byte) ([]int16, error) {
	if len(raw) != PacketSize {
		return nil, errBadSize
	}
	payload := raw[offPayload:]
	samples := make([]int16, PayloadSize/2)
	for i := range samples {
		samples[i] = int16(binary.BigEndian.Uint16(payload[i*2 : i*2+2]))
	}
	return samples, nil
}

// BuildAudioPacket encodes a 574-byte outbound audio packet from a header
// and 250 i16 samples (used by the publisher, spec.md §4.14).
func BuildAudioPacket(h Header, samples []int16) []byte {
	raw := make([]byte, PacketSize)
	copy(raw[:MagicLen], Magic)
	raw[offVersion] = Version
	raw[offMsgType] = MsgAudio
	copy(raw[offPeerID:offPeerID+8], h.PeerID[:])
	copy(raw[offChannelID:offChannelID+8], h.ChannelID[:])
	copy(raw[offPeerIDCopy:offPeerIDCopy+8], h.PeerID[:])
	binary.BigEndian.PutUint32(raw[offFlags:offFlags+4], h.Flags)
	binary.BigEndian.PutUint32(raw[offSequence:offSequence+4], h.Sequence)
	binary.BigEndian.PutUint16(raw[offFrameCount:offFrameCount+2], h.FrameCount)
	binary.BigEndian.PutUint64(raw[offTimestamp:offTimestamp+8], h.Timestamp)
	binary.BigEndian.PutUint32(raw[offSampleRate:offSampleRate+4], h.SampleRate)
	raw[offChannels] = h.Channels
	binary.BigEndian.PutUint16(raw[offPayloadSize:offPayloadSize+2], uint16(len(samples)*2))

	payload := raw[offPayload:]
	for i, s := range samples {
		binary.BigEndian.PutUint16(payload[i*2:i*2+2], uint16(s))
	}
	return raw
}
