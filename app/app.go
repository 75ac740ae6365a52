package app

import (
	"errors"
	"fmt"
	"time"

	"xclock/hal"
	"xclock/internal/buildinfo"
	"xclock/watchos/kernel"
	"xclock/watchos/proto"
	"xclock/watchos/services/logger"
	"xclock/watchos/services/ticktimer"
	"xclock/watchos/services/windowmgr"
	"xclock/watchos/tasks/xclock"
)

// ErrClosed is returned by Step after Close.
var ErrClosed = errors.New("app: closed")

const defaultStepBudget = 256

type Config struct {
	Face xclock.Config

	// StepBudget bounds task steps per frame.
	StepBudget int
}

func DefaultConfig() Config {
	return Config{Face: xclock.DefaultConfig(), StepBudget: defaultStepBudget}
}

// System wires the kernel, services and the face window onto a HAL.
type System struct {
	h      hal.HAL
	k      *kernel.Kernel
	ticks  <-chan uint64
	wmCap  kernel.Capability
	face   *xclock.Task
	wm     *windowmgr.Service
	budget int
	closed bool
}

// New initializes the OS. Nothing runs until the first Step.
func New(h hal.HAL, cfg Config) (*System, error) {
	if h == nil {
		return nil, fmt.Errorf("app: nil HAL")
	}
	if cfg.StepBudget <= 0 {
		cfg.StepBudget = defaultStepBudget
	}

	k := kernel.New()
	installPanicHandler(k, h)

	logEP := k.NewEndpoint(kernel.RightSend | kernel.RightRecv)
	timerEP := k.NewEndpoint(kernel.RightSend | kernel.RightRecv)
	wmEP := k.NewEndpoint(kernel.RightSend | kernel.RightRecv)
	faceEP := k.NewEndpoint(kernel.RightSend | kernel.RightRecv)
	if !faceEP.Valid() {
		return nil, fmt.Errorf("app: allocate endpoints")
	}

	logSend := logEP.Restrict(kernel.RightSend)
	face := xclock.New(h.Display(), faceEP, timerEP.Restrict(kernel.RightSend), logSend, cfg.Face)
	wm := windowmgr.New(h.Display(), wmEP.Restrict(kernel.RightRecv), faceEP.Restrict(kernel.RightSend), logSend)

	for _, t := range []kernel.Task{
		logger.New(h.Logger(), logEP.Restrict(kernel.RightRecv)),
		ticktimer.New(h.Clock(), timerEP),
		wm,
		face,
	} {
		if _, ok := k.AddTask(t); !ok {
			return nil, fmt.Errorf("app: add task %T", t)
		}
	}

	s := &System{
		h:      h,
		k:      k,
		wmCap:  wmEP.Restrict(kernel.RightSend),
		face:   face,
		wm:     wm,
		budget: cfg.StepBudget,
	}
	if ht := h.Time(); ht != nil {
		s.ticks = ht.Ticks()
	}
	if l := h.Logger(); l != nil {
		l.WriteLineString("xclock " + buildinfo.Short() + ": boot")
	}
	return s, nil
}

// Step forwards pending HAL ticks to the kernel and runs tasks until idle.
func (s *System) Step() error {
	if s.closed {
		return ErrClosed
	}
	s.drainTicks()
	s.k.RunUntilIdle(s.budget)
	return nil
}

// Close hides the window and unloads every task. It is idempotent.
func (s *System) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	s.k.Post(s.wmCap, uint16(proto.MsgWindowHide), nil)
	s.k.RunUntilIdle(s.budget)
	s.k.Shutdown()
	return nil
}

// Face returns the face window task.
func (s *System) Face() *xclock.Task { return s.face }

// WindowShown reports whether the window manager has the face pushed.
func (s *System) WindowShown() bool { return s.wm.Shown() }

// Panicked reports whether a task panicked.
func (s *System) Panicked() bool { return s.k.InPanicMode() }

func (s *System) drainTicks() {
	if s.ticks == nil {
		return
	}
	for {
		select {
		case _, ok := <-s.ticks:
			if !ok {
				s.ticks = nil
				return
			}
			s.k.Tick()
		default:
			return
		}
	}
}

// Run starts the OS and steps it forever (TinyGo/native entrypoint).
func Run(h hal.HAL, cfg Config) {
	s, err := New(h, cfg)
	if err != nil {
		if h != nil && h.Logger() != nil {
			h.Logger().WriteLineString(err.Error())
		}
		select {}
	}
	for {
		_ = s.Step()
		time.Sleep(10 * time.Millisecond)
	}
}
