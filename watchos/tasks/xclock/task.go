// Package xclock is the analog face window: it owns the face renderer and a
// framebuffer canvas while shown and redraws on every second tick.
package xclock

import (
	"image/color"
	"time"

	"xclock/hal"
	logclient "xclock/watchos/client/logger"
	tickclient "xclock/watchos/client/ticktimer"
	"xclock/watchos/face"
	"xclock/watchos/gfx"
	"xclock/watchos/kernel"
	"xclock/watchos/proto"
)

// Config sets the face colors.
type Config struct {
	Foreground color.RGBA
	Background color.RGBA
}

// DefaultConfig is black on white.
func DefaultConfig() Config {
	return Config{
		Foreground: color.RGBA{A: 0xFF},
		Background: color.RGBA{R: 0xFF, G: 0xFF, B: 0xFF, A: 0xFF},
	}
}

type Task struct {
	disp     hal.Display
	ep       kernel.Capability
	timerCap kernel.Capability
	logCap   kernel.Capability
	cfg      Config

	visible  bool
	renderer *face.Renderer
	canvas   *gfx.Framebuffer

	latest   time.Time
	haveTime bool
	dirty    bool
	frames   int
}

// New returns the window task. ep must carry both rights: the window manager
// and the tick timer send to it, the task receives on it.
func New(disp hal.Display, ep, timerCap, logCap kernel.Capability, cfg Config) *Task {
	return &Task{disp: disp, ep: ep, timerCap: timerCap, logCap: logCap, cfg: cfg}
}

// Visible reports whether the window is shown and attached.
func (t *Task) Visible() bool { return t.visible }

// Attached reports whether the renderer and canvas are allocated.
func (t *Task) Attached() bool { return t.renderer != nil || t.canvas != nil }

// Frames returns the number of frames presented.
func (t *Task) Frames() int { return t.frames }

// Latest returns the most recent time received from the tick timer.
func (t *Task) Latest() (time.Time, bool) { return t.latest, t.haveTime }

func (t *Task) Step(ctx *kernel.Context) {
	recv := t.ep.Restrict(kernel.RightRecv)
	msg, ok := ctx.Recv(recv)
	if !ok {
		return
	}
	t.handle(ctx, msg)
	for {
		msg, ok = ctx.TryRecv(recv)
		if !ok {
			break
		}
		t.handle(ctx, msg)
	}
	if t.dirty {
		t.redraw(ctx)
	}
}

// Unload releases the renderer and canvas. It runs on shutdown and after a
// panic in Step.
func (t *Task) Unload() {
	t.release()
}

func (t *Task) handle(ctx *kernel.Context, msg kernel.Message) {
	switch proto.Kind(msg.Kind) {
	case proto.MsgWindowShow:
		w, h, ok := proto.DecodeWindowShowPayload(msg.Payload())
		if !ok {
			logclient.Log(ctx, t.logCap, "xclock: bad show payload")
			return
		}
		t.show(ctx, face.Viewport{Width: w, Height: h})

	case proto.MsgWindowHide:
		t.hide(ctx)

	case proto.MsgTimeTick:
		now, _, ok := tickclient.DecodeTick(msg)
		if !ok {
			return
		}
		t.latest = now
		t.haveTime = true
		if t.visible {
			t.dirty = true
		}

	case proto.MsgError:
		code, ref, _, ok := proto.DecodeErrorPayload(msg.Payload())
		if ok {
			logclient.Logf(ctx, t.logCap, "xclock: %s failed: %s", ref, code)
		}
	}
}

func (t *Task) show(ctx *kernel.Context, vp face.Viewport) {
	if t.visible {
		return
	}
	var fb hal.Framebuffer
	if t.disp != nil {
		fb = t.disp.Framebuffer()
	}
	canvas, err := gfx.NewFramebuffer(fb)
	if err != nil {
		logclient.Logf(ctx, t.logCap, "xclock: attach: %v", err)
		return
	}
	fbvp := canvas.Viewport()
	vp.Width = min(vp.Width, fbvp.Width)
	vp.Height = min(vp.Height, fbvp.Height)

	canvas.SetColor(t.cfg.Foreground)
	canvas.SetBackground(t.cfg.Background)

	if res := tickclient.Subscribe(ctx, t.timerCap, t.ep, proto.SecondUnit); res != kernel.SendOK {
		logclient.Logf(ctx, t.logCap, "xclock: subscribe: %s", res)
		return
	}

	t.canvas = canvas
	t.renderer = face.New(vp)
	t.visible = true
	t.dirty = t.haveTime
	logclient.Logf(ctx, t.logCap, "xclock: shown %dx%d", vp.Width, vp.Height)
}

func (t *Task) hide(ctx *kernel.Context) {
	if !t.visible {
		return
	}
	if res := tickclient.Unsubscribe(ctx, t.timerCap, t.ep); res != kernel.SendOK {
		logclient.Logf(ctx, t.logCap, "xclock: unsubscribe: %s", res)
	}
	t.release()
	logclient.Log(ctx, t.logCap, "xclock: hidden")
}

func (t *Task) release() {
	t.visible = false
	t.dirty = false
	t.renderer = nil
	t.canvas = nil
}

func (t *Task) redraw(ctx *kernel.Context) {
	t.dirty = false
	if !t.visible || !t.haveTime {
		return
	}
	t.canvas.Clear()
	t.renderer.Render(t.canvas, t.latest)
	if err := t.canvas.Present(); err != nil {
		logclient.Logf(ctx, t.logCap, "xclock: present: %v", err)
		return
	}
	t.frames++
}
