package logger

import (
	"testing"

	logclient "xclock/watchos/client/logger"
	"xclock/watchos/kernel"
	"xclock/watchos/proto"
)

type lineLogger struct {
	lines []string
}

func (l *lineLogger) WriteLineString(s string) { l.lines = append(l.lines, s) }
func (l *lineLogger) WriteLineBytes(b []byte)  { l.lines = append(l.lines, string(b)) }

type logOnce struct {
	logCap kernel.Capability
	lines  []string
	sent   bool
}

func (t *logOnce) Step(ctx *kernel.Context) {
	if !t.sent {
		for _, line := range t.lines {
			logclient.Log(ctx, t.logCap, line)
		}
		t.sent = true
	}
	ctx.BlockOnTick()
}

func TestServiceWritesLines(t *testing.T) {
	k := kernel.New()
	ep := k.NewEndpoint(kernel.RightSend | kernel.RightRecv)

	out := &lineLogger{}
	k.AddTask(New(out, ep.Restrict(kernel.RightRecv)))
	k.AddTask(&logOnce{logCap: ep.Restrict(kernel.RightSend), lines: []string{"xclock: shown", "xclock: hidden\n"}})
	k.RunUntilIdle(32)

	if len(out.lines) != 2 || out.lines[0] != "xclock: shown" || out.lines[1] != "xclock: hidden" {
		t.Fatalf("lines = %q", out.lines)
	}
}

func TestServiceIgnoresOtherKinds(t *testing.T) {
	k := kernel.New()
	ep := k.NewEndpoint(kernel.RightSend | kernel.RightRecv)

	out := &lineLogger{}
	k.AddTask(New(out, ep.Restrict(kernel.RightRecv)))
	k.Post(ep.Restrict(kernel.RightSend), uint16(proto.MsgWindowHide), nil)
	k.Post(ep.Restrict(kernel.RightSend), uint16(proto.MsgLogLine), []byte("ok"))
	k.RunUntilIdle(32)

	if len(out.lines) != 1 || out.lines[0] != "ok" {
		t.Fatalf("lines = %q", out.lines)
	}
}

func TestLogTruncatesLongLines(t *testing.T) {
	k := kernel.New()
	ep := k.NewEndpoint(kernel.RightSend | kernel.RightRecv)

	long := make([]byte, kernel.MaxMessageBytes+20)
	for i := range long {
		long[i] = 'a'
	}
	out := &lineLogger{}
	k.AddTask(New(out, ep.Restrict(kernel.RightRecv)))
	k.AddTask(&logOnce{logCap: ep.Restrict(kernel.RightSend), lines: []string{string(long)}})
	k.RunUntilIdle(32)

	if len(out.lines) != 1 || len(out.lines[0]) != kernel.MaxMessageBytes {
		t.Fatalf("lines = %q", out.lines)
	}
}
