package simhw

import "encoding/binary"

// int16SliceToBytes/bytesToInt16Slice convert between the mailbox's raw
// byte regions and portaudio's native []int16 sample buffers. The mailbox
// uses host (little-endian) byte order internally; only the Link-Audio
// wire format is big-endian (spec.md §4.13).
func int16SliceToBytes(samples []int16) []byte {
	out := make([]byte, len(samples)*2)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(out[i*2:i*2+2], uint16(s))
	}
	return out
}

func bytesToInt16Slice(b []byte) []int16 {
	out := make([]int16, len(b)/2)
	for i := range out {
		out[i] = int16(binary.LittleEndian.Uint16(b[i*2 : i*2+2]))
	}
	return out
}
