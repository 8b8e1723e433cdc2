package linkaudio

import "encoding/binary"

// Session TLV tags (spec.md §4.13; shadow_link_audio.c's
// link_audio_parse_session / link_audio_build_session_announcement).
const (
	tlvSession  = "sess"
	tlvChannels = "auca"
	tlvPeerInfo = "__pi"
	tlvHostTime = "__ht"
)

// ChannelName is the human-readable name carried in a session
// announcement's "auca" TLV (e.g. "1-MIDI", "Main").
type ChannelName struct {
	ID   [8]byte
	Name string
}

// SessionInfo is the decoded content of a Session message (msg type 1).
type SessionInfo struct {
	PeerID    [8]byte
	SessionID [8]byte
	Channels  []ChannelName
}

// ParseSession decodes the TLV block of a Session message starting at byte
// offset 20 (spec.md §4.13). Unknown tags are skipped; a malformed TLV
// length stops parsing at the point of failure rather than erroring, same
// as the original sendto-hook parser.
func ParseSession(pkt []byte) SessionInfo {
	var info SessionInfo
	if len(pkt) < 20 {
		return info
	}
	copy(info.PeerID[:], pkt[12:20])

	pos := 20
	for pos+8 <= len(pkt) {
		tag := string(pkt[pos : pos+4])
		tlen := int(binary.BigEndian.Uint32(pkt[pos+4 : pos+8]))
		pos += 8
		if tlen < 0 || pos+tlen > len(pkt) {
			break
		}
		body := pkt[pos : pos+tlen]

		switch tag {
		case tlvSession:
			if tlen == 8 {
				copy(info.SessionID[:], body)
			}
		case tlvChannels:
			info.Channels = parseChannelList(body)
		}
		pos += tlen
	}
	return info
}

func parseChannelList(body []byte) []ChannelName {
	if len(body) < 4 {
		return nil
	}
	numChannels := int(binary.BigEndian.Uint32(body[:4]))
	pos := 4
	channels := make([]ChannelName, 0, numChannels)
	for c := 0; c < numChannels && pos+4 <= len(body); c++ {
		nameLen := int(binary.BigEndian.Uint32(body[pos : pos+4]))
		pos += 4
		if pos+nameLen+8 > len(body) {
			break
		}
		var ch ChannelName
		if nameLen > 31 {
			nameLen = 31
		}
		ch.Name = string(body[pos : pos+nameLen])
		pos += nameLen
		copy(ch.ID[:], body[pos:pos+8])
		pos += 8
		channels = append(channels, ch)
	}
	return channels
}

// PublishChannel describes one of our own outgoing (shadow) channels for a
// session announcement we build.
type PublishChannel struct {
	ID   [8]byte
	Name string
}

// BuildSessionAnnouncement encodes a Session message advertising our peer
// ID, session ID, and the shadow channels we publish (spec.md §4.14;
// link_audio_build_session_announcement).
func BuildSessionAnnouncement(peerID, sessionID [8]byte, channels []PublishChannel, hostTimeNanos uint64) []byte {
	buf := make([]byte, 0, 256)
	buf = append(buf, Magic...)
	buf = append(buf, Version, MsgSession, 0, 0, 0)
	buf = append(buf, peerID[:]...)

	buf = appendTLV(buf, tlvSession, sessionID[:])

	const peerName = "ME"
	peerInfo := make([]byte, 0, 4+len(peerName))
	peerInfo = appendU32(peerInfo, uint32(len(peerName)))
	peerInfo = append(peerInfo, peerName...)
	buf = appendTLV(buf, tlvPeerInfo, peerInfo)

	auca := make([]byte, 0, 4+len(channels)*44)
	auca = appendU32(auca, uint32(len(channels)))
	for _, ch := range channels {
		auca = appendU32(auca, uint32(len(ch.Name)))
		auca = append(auca, ch.Name...)
		auca = append(auca, ch.ID[:]...)
	}
	buf = appendTLV(buf, tlvChannels, auca)

	ht := make([]byte, 8)
	binary.BigEndian.PutUint64(ht, hostTimeNanos)
	buf = appendTLV(buf, tlvHostTime, ht)

	return buf
}

func appendTLV(buf []byte, tag string, body []byte) []byte {
	buf = append(buf, tag...)
	buf = appendU32(buf, uint32(len(body)))
	return append(buf, body...)
}

func appendU32(buf []byte, v uint32) []byte {
	var tmp [4]byte
	binary.BigEndian.PutUint32(tmp[:], v)
	return append(buf, tmp[:]...)
}

// ParseChannelRequest decodes a Channel-Request message (msg type 3): Live
// asking our publisher to start streaming a specific shadow channel ID
// (shadow_link_audio.c's publisher thread, inbound recvfrom branch).
func ParseChannelRequest(pkt []byte) (channelID [8]byte, ok bool) {
	if len(pkt) < 28 {
		return channelID, false
	}
	if string(pkt[:MagicLen]) != Magic || pkt[offVersion] != Version {
		return channelID, false
	}
	if pkt[offMsgType] != MsgRequest {
		return channelID, false
	}
	copy(channelID[:], pkt[offChannelID:offChannelID+8])
	return channelID, true
}
