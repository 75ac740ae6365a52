package logger

import (
	"fmt"

	"xclock/watchos/kernel"
	"xclock/watchos/proto"
)

// Log sends a log line to the logger service.
//
// The call is best-effort: it may drop on queue full. Lines longer than one
// message are truncated.
func Log(ctx *kernel.Context, logCap kernel.Capability, line string) kernel.SendResult {
	if ctx == nil {
		return kernel.SendErrInvalidFromCap
	}
	payload := proto.LogLinePayload([]byte(line), kernel.MaxMessageBytes)
	return ctx.SendToCapResult(logCap, uint16(proto.MsgLogLine), payload, kernel.Capability{})
}

// Logf formats according to a format specifier and sends the result via Log.
func Logf(ctx *kernel.Context, logCap kernel.Capability, format string, args ...any) kernel.SendResult {
	return Log(ctx, logCap, fmt.Sprintf(format, args...))
}
