package proto

import (
	"encoding/binary"
	"strings"
	"time"
)

// TimeUnits is a bit mask of calendar units a tick subscriber cares about.
type TimeUnits uint8

const (
	SecondUnit TimeUnits = 1 << iota
	MinuteUnit
	HourUnit
	DayUnit

	AllUnits = SecondUnit | MinuteUnit | HourUnit | DayUnit
)

func (u TimeUnits) String() string {
	if u == 0 {
		return "none"
	}
	var parts []string
	if u&SecondUnit != 0 {
		parts = append(parts, "second")
	}
	if u&MinuteUnit != 0 {
		parts = append(parts, "minute")
	}
	if u&HourUnit != 0 {
		parts = append(parts, "hour")
	}
	if u&DayUnit != 0 {
		parts = append(parts, "day")
	}
	if len(parts) == 0 {
		return "unknown"
	}
	return strings.Join(parts, "|")
}

// ChangedUnits reports which units differ between two observations.
//
// A coarser unit changing implies every finer unit changed too.
func ChangedUnits(prev, now time.Time) TimeUnits {
	py, pm, pd := prev.Date()
	ny, nm, nd := now.Date()
	if py != ny || pm != nm || pd != nd {
		return AllUnits
	}
	if prev.Hour() != now.Hour() {
		return SecondUnit | MinuteUnit | HourUnit
	}
	if prev.Minute() != now.Minute() {
		return SecondUnit | MinuteUnit
	}
	if prev.Second() != now.Second() {
		return SecondUnit
	}
	return 0
}

// TickSubscribePayload encodes a MsgTickSubscribe request payload.
//
// The reply capability travels in Message.Cap. A zero mask unsubscribes.
//
// Layout:
//   - u8: units mask
func TickSubscribePayload(units TimeUnits) []byte {
	return []byte{byte(units)}
}

// DecodeTickSubscribePayload decodes a TickSubscribePayload.
func DecodeTickSubscribePayload(payload []byte) (units TimeUnits, ok bool) {
	if len(payload) != 1 {
		return 0, false
	}
	return TimeUnits(payload[0]), true
}

// TimeTickPayload encodes a MsgTimeTick payload.
//
// Layout (little-endian):
//   - i64: unix seconds
//   - i32: zone offset seconds east of UTC
//   - u8: units changed since the previous observation
func TimeTickPayload(t time.Time, changed TimeUnits) []byte {
	_, offset := t.Zone()
	buf := make([]byte, 13)
	binary.LittleEndian.PutUint64(buf[0:8], uint64(t.Unix()))
	binary.LittleEndian.PutUint32(buf[8:12], uint32(int32(offset)))
	buf[12] = byte(changed)
	return buf
}

// DecodeTimeTickPayload decodes a TimeTickPayload.
//
// The returned time carries a fixed zone with the encoded offset, so wall-clock
// fields (Hour, Minute) match the sender's.
func DecodeTimeTickPayload(payload []byte) (t time.Time, changed TimeUnits, ok bool) {
	if len(payload) != 13 {
		return time.Time{}, 0, false
	}
	sec := int64(binary.LittleEndian.Uint64(payload[0:8]))
	offset := int32(binary.LittleEndian.Uint32(payload[8:12]))
	zone := time.FixedZone("", int(offset))
	return time.Unix(sec, 0).In(zone), TimeUnits(payload[12]), true
}
