package proto

import "unicode/utf8"

// LogLinePayload encodes a MsgLogLine payload.
//
// Convention:
// - Payload is UTF-8 bytes without a trailing newline.
// - Delivery is best-effort; callers may drop on overflow.
// - Lines longer than limit bytes are truncated on a rune boundary.
func LogLinePayload(b []byte, limit int) []byte {
	if b == nil {
		return nil
	}
	for len(b) > 0 && (b[len(b)-1] == '\n' || b[len(b)-1] == '\r') {
		b = b[:len(b)-1]
	}
	if limit >= 0 && len(b) > limit {
		n := limit
		for n > 0 && !utf8.RuneStart(b[n]) {
			n--
		}
		b = b[:n]
	}
	cp := make([]byte, len(b))
	copy(cp, b)
	return cp
}
