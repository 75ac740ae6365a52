package windowmgr

import (
	"testing"

	"xclock/hal"
	"xclock/watchos/kernel"
	"xclock/watchos/proto"
)

type display struct{ fb hal.Framebuffer }

func (d display) Framebuffer() hal.Framebuffer { return d.fb }

type windowEvent struct {
	kind proto.Kind
	w, h int
}

type windowTask struct {
	ep     kernel.Capability
	events []windowEvent
	paused bool
}

func (t *windowTask) Step(ctx *kernel.Context) {
	if t.paused {
		ctx.BlockOnTick()
		return
	}
	msg, ok := ctx.Recv(t.ep)
	if !ok {
		return
	}
	ev := windowEvent{kind: proto.Kind(msg.Kind)}
	if ev.kind == proto.MsgWindowShow {
		ev.w, ev.h, _ = proto.DecodeWindowShowPayload(msg.Payload())
	}
	t.events = append(t.events, ev)
}

type fixture struct {
	k      *kernel.Kernel
	wm     *Service
	win    *windowTask
	wmSend kernel.Capability
	winEP  kernel.Capability
}

func newFixture(t *testing.T, fb hal.Framebuffer, paused bool) *fixture {
	t.Helper()
	k := kernel.New()
	wmEP := k.NewEndpoint(kernel.RightSend | kernel.RightRecv)
	winEP := k.NewEndpoint(kernel.RightSend | kernel.RightRecv)

	win := &windowTask{ep: winEP.Restrict(kernel.RightRecv), paused: paused}
	wm := New(display{fb: fb}, wmEP.Restrict(kernel.RightRecv), winEP.Restrict(kernel.RightSend), kernel.Capability{})
	k.AddTask(win)
	k.AddTask(wm)
	return &fixture{k: k, wm: wm, win: win, wmSend: wmEP.Restrict(kernel.RightSend), winEP: winEP}
}

func (f *fixture) post(kind proto.Kind) {
	f.k.Post(f.wmSend, uint16(kind), nil)
	f.k.RunUntilIdle(64)
}

func TestShowAtBootUsesDisplaySize(t *testing.T) {
	f := newFixture(t, hal.NewMemFramebuffer(240, 240), false)
	f.k.RunUntilIdle(64)

	if len(f.win.events) != 1 {
		t.Fatalf("events = %+v, want one show", f.win.events)
	}
	if got := f.win.events[0]; got != (windowEvent{kind: proto.MsgWindowShow, w: 240, h: 240}) {
		t.Fatalf("event = %+v", got)
	}
	if !f.wm.Shown() {
		t.Fatal("expected window shown")
	}
}

func TestShowWithoutFramebufferUsesDefault(t *testing.T) {
	f := newFixture(t, nil, false)
	f.k.RunUntilIdle(64)

	if len(f.win.events) != 1 || f.win.events[0].w != hal.DefaultWidth || f.win.events[0].h != hal.DefaultHeight {
		t.Fatalf("events = %+v", f.win.events)
	}
}

func TestShowHideAlternate(t *testing.T) {
	f := newFixture(t, hal.NewMemFramebuffer(144, 168), false)
	f.k.RunUntilIdle(64)

	f.post(proto.MsgWindowShow)
	f.post(proto.MsgWindowHide)
	f.post(proto.MsgWindowHide)
	f.post(proto.MsgWindowShow)
	f.post(proto.MsgWindowShow)
	f.post(proto.MsgWindowHide)

	want := []proto.Kind{proto.MsgWindowShow, proto.MsgWindowHide, proto.MsgWindowShow, proto.MsgWindowHide}
	if len(f.win.events) != len(want) {
		t.Fatalf("events = %+v, want kinds %v", f.win.events, want)
	}
	for i, ev := range f.win.events {
		if ev.kind != want[i] {
			t.Fatalf("event %d = %s, want %s", i, ev.kind, want[i])
		}
	}
	if f.wm.Shown() {
		t.Fatal("expected window hidden")
	}
}

func TestShowRetriesOnFullQueue(t *testing.T) {
	f := newFixture(t, hal.NewMemFramebuffer(144, 168), true)
	for i := 0; i < 8; i++ {
		f.k.Post(f.winEP.Restrict(kernel.RightSend), uint16(proto.MsgLogLine), nil)
	}
	f.k.RunUntilIdle(64)
	if f.wm.Shown() {
		t.Fatal("expected show to wait for queue space")
	}

	f.win.paused = false
	f.k.Tick()
	f.k.RunUntilIdle(64)

	if !f.wm.Shown() {
		t.Fatal("expected show after queue drained")
	}
	last := f.win.events[len(f.win.events)-1]
	if last.kind != proto.MsgWindowShow {
		t.Fatalf("last event = %s, want window_show", last.kind)
	}
}
