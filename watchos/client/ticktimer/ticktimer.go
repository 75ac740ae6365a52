package ticktimer

import (
	"time"

	"xclock/watchos/kernel"
	"xclock/watchos/proto"
)

// Subscribe asks the tick timer to send MsgTimeTick to reply whenever one of
// units changes. The service answers with the current time right away.
//
// Subscribing the same reply endpoint again replaces its units.
func Subscribe(ctx *kernel.Context, timerCap, reply kernel.Capability, units proto.TimeUnits) kernel.SendResult {
	if ctx == nil {
		return kernel.SendErrInvalidFromCap
	}
	replySend := reply.Restrict(kernel.RightSend)
	if !replySend.Valid() {
		return kernel.SendErrInvalidToCap
	}
	return ctx.SendToCapResult(timerCap, uint16(proto.MsgTickSubscribe), proto.TickSubscribePayload(units), replySend)
}

// Unsubscribe stops ticks for reply.
func Unsubscribe(ctx *kernel.Context, timerCap, reply kernel.Capability) kernel.SendResult {
	return Subscribe(ctx, timerCap, reply, 0)
}

// DecodeTick extracts the time from a MsgTimeTick message.
func DecodeTick(msg kernel.Message) (t time.Time, changed proto.TimeUnits, ok bool) {
	if msg.Kind != uint16(proto.MsgTimeTick) {
		return time.Time{}, 0, false
	}
	return proto.DecodeTimeTickPayload(msg.Payload())
}
