package proto

import "encoding/binary"

// WindowShowPayload encodes a MsgWindowShow payload.
//
// Layout (little-endian):
//   - u16: viewport width
//   - u16: viewport height
func WindowShowPayload(width, height int) []byte {
	buf := make([]byte, 4)
	binary.LittleEndian.PutUint16(buf[0:2], uint16(width))
	binary.LittleEndian.PutUint16(buf[2:4], uint16(height))
	return buf
}

// DecodeWindowShowPayload decodes a WindowShowPayload.
func DecodeWindowShowPayload(payload []byte) (width, height int, ok bool) {
	if len(payload) != 4 {
		return 0, 0, false
	}
	width = int(binary.LittleEndian.Uint16(payload[0:2]))
	height = int(binary.LittleEndian.Uint16(payload[2:4]))
	if width == 0 || height == 0 {
		return 0, 0, false
	}
	return width, height, true
}
