package xclock

import (
	"image/color"
	"strings"
	"testing"
	"time"

	"xclock/hal"
	"xclock/watchos/kernel"
	"xclock/watchos/proto"
	logsvc "xclock/watchos/services/logger"
	"xclock/watchos/services/ticktimer"
	"xclock/watchos/services/windowmgr"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type manualClock struct{ now time.Time }

func (c *manualClock) Now() time.Time { return c.now }

type display struct{ fb hal.Framebuffer }

func (d display) Framebuffer() hal.Framebuffer { return d.fb }

type lineLogger struct{ lines []string }

func (l *lineLogger) WriteLineString(s string) { l.lines = append(l.lines, s) }
func (l *lineLogger) WriteLineBytes(b []byte)  { l.lines = append(l.lines, string(b)) }

type panicFramebuffer struct {
	*hal.MemFramebuffer
	armed bool
}

func (f *panicFramebuffer) Present() error {
	if f.armed {
		panic("present failed")
	}
	return f.MemFramebuffer.Present()
}

type fixture struct {
	k     *kernel.Kernel
	clock *manualClock
	task  *Task
	wmCap kernel.Capability
	xcCap kernel.Capability
	log   *lineLogger
}

func newFixture(t *testing.T, fb hal.Framebuffer, cfg Config) *fixture {
	t.Helper()
	clock := &manualClock{now: time.Date(2024, 6, 1, 3, 0, 0, 0, time.UTC)}
	k := kernel.New()
	logEP := k.NewEndpoint(kernel.RightSend | kernel.RightRecv)
	timerEP := k.NewEndpoint(kernel.RightSend | kernel.RightRecv)
	wmEP := k.NewEndpoint(kernel.RightSend | kernel.RightRecv)
	xcEP := k.NewEndpoint(kernel.RightSend | kernel.RightRecv)

	log := &lineLogger{}
	task := New(display{fb: fb}, xcEP, timerEP.Restrict(kernel.RightSend), logEP.Restrict(kernel.RightSend), cfg)

	_, ok := k.AddTask(logsvc.New(log, logEP.Restrict(kernel.RightRecv)))
	require.True(t, ok)
	_, ok = k.AddTask(ticktimer.New(clock, timerEP))
	require.True(t, ok)
	_, ok = k.AddTask(windowmgr.New(display{fb: fb}, wmEP.Restrict(kernel.RightRecv), xcEP.Restrict(kernel.RightSend), logEP.Restrict(kernel.RightSend)))
	require.True(t, ok)
	_, ok = k.AddTask(task)
	require.True(t, ok)

	return &fixture{
		k:     k,
		clock: clock,
		task:  task,
		wmCap: wmEP.Restrict(kernel.RightSend),
		xcCap: xcEP.Restrict(kernel.RightSend),
		log:   log,
	}
}

func (f *fixture) tick(d time.Duration) {
	f.clock.now = f.clock.now.Add(d)
	f.k.Tick()
	f.k.RunUntilIdle(256)
}

func (f *fixture) boot() {
	f.k.RunUntilIdle(256)
	f.tick(0)
}

func TestShowDrawsFace(t *testing.T) {
	fb := hal.NewMemFramebuffer(144, 168)
	f := newFixture(t, fb, DefaultConfig())
	f.boot()

	require.True(t, f.task.Visible())
	require.True(t, f.task.Attached())
	assert.Equal(t, 1, f.task.Frames())
	assert.Equal(t, 1, fb.Presents())

	assert.Equal(t, uint16(0), fb.Pixel(72, 20), "12 o'clock tick")
	assert.Equal(t, uint16(0), fb.Pixel(98, 84), "hour hand tip at 3:00")
	assert.Equal(t, uint16(0xFFFF), fb.Pixel(0, 0), "background")
	assert.Contains(t, f.log.lines, "xclock: shown 144x168")
}

func TestRedrawsEverySecond(t *testing.T) {
	fb := hal.NewMemFramebuffer(144, 168)
	f := newFixture(t, fb, DefaultConfig())
	f.boot()

	f.tick(500 * time.Millisecond)
	assert.Equal(t, 1, f.task.Frames())

	f.tick(500 * time.Millisecond)
	f.tick(time.Second)
	assert.Equal(t, 3, f.task.Frames())

	latest, ok := f.task.Latest()
	require.True(t, ok)
	assert.Equal(t, 2, latest.Second())
}

func TestTicksCoalesce(t *testing.T) {
	fb := hal.NewMemFramebuffer(144, 168)
	f := newFixture(t, fb, DefaultConfig())
	f.boot()
	require.Equal(t, 1, f.task.Frames())

	base := f.clock.now
	for i := 1; i <= 3; i++ {
		at := base.Add(time.Duration(i) * time.Minute)
		require.Equal(t, kernel.SendOK, f.k.Post(f.xcCap, uint16(proto.MsgTimeTick), proto.TimeTickPayload(at, proto.SecondUnit|proto.MinuteUnit)))
	}
	f.k.RunUntilIdle(256)

	assert.Equal(t, 2, f.task.Frames())
	latest, _ := f.task.Latest()
	assert.Equal(t, 3, latest.Minute())
}

func TestHideReleases(t *testing.T) {
	fb := hal.NewMemFramebuffer(144, 168)
	f := newFixture(t, fb, DefaultConfig())
	f.boot()

	f.k.Post(f.wmCap, uint16(proto.MsgWindowHide), nil)
	f.k.RunUntilIdle(256)

	assert.False(t, f.task.Visible())
	assert.False(t, f.task.Attached())
	assert.Contains(t, f.log.lines, "xclock: hidden")

	frames := f.task.Frames()
	f.tick(time.Second)
	f.tick(time.Second)
	assert.Equal(t, frames, f.task.Frames())

	// Showing again reattaches and draws with the time from the new subscription.
	f.k.Post(f.wmCap, uint16(proto.MsgWindowShow), nil)
	f.k.RunUntilIdle(256)
	f.tick(0)
	assert.True(t, f.task.Attached())
	assert.Greater(t, f.task.Frames(), frames)
}

func TestShutdownReleases(t *testing.T) {
	f := newFixture(t, hal.NewMemFramebuffer(144, 168), DefaultConfig())
	f.boot()
	require.True(t, f.task.Attached())

	f.k.Shutdown()
	assert.False(t, f.task.Attached())
	assert.False(t, f.task.Visible())
}

func TestPanicReleases(t *testing.T) {
	fb := &panicFramebuffer{MemFramebuffer: hal.NewMemFramebuffer(144, 168)}
	f := newFixture(t, fb, DefaultConfig())

	var panics []kernel.PanicInfo
	f.k.SetPanicHandler(func(info kernel.PanicInfo) { panics = append(panics, info) })

	f.boot()
	require.True(t, f.task.Attached())

	fb.armed = true
	f.tick(time.Second)

	assert.False(t, f.task.Attached())
	require.Len(t, panics, 1)
	assert.Equal(t, "present failed", panics[0].Value)

	// The rest of the system keeps running.
	f.tick(time.Second)
	assert.Len(t, panics, 1)
}

func TestColors(t *testing.T) {
	fb := hal.NewMemFramebuffer(144, 168)
	cfg := Config{
		Foreground: color.RGBA{R: 0xFF, A: 0xFF},
		Background: color.RGBA{B: 0xFF, A: 0xFF},
	}
	f := newFixture(t, fb, cfg)
	f.boot()

	assert.Equal(t, hal.RGB565(0xFF, 0, 0), fb.Pixel(72, 20))
	assert.Equal(t, hal.RGB565(0, 0, 0xFF), fb.Pixel(0, 0))
}

func TestAttachFailureLogs(t *testing.T) {
	f := newFixture(t, nil, DefaultConfig())
	f.boot()

	assert.False(t, f.task.Visible())
	assert.Equal(t, 0, f.task.Frames())

	found := false
	for _, line := range f.log.lines {
		if strings.HasPrefix(line, "xclock: attach:") {
			found = true
		}
	}
	assert.True(t, found, "log lines: %q", f.log.lines)
}
