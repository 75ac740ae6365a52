package windowmgr

import (
	"xclock/hal"
	logclient "xclock/watchos/client/logger"
	"xclock/watchos/kernel"
	"xclock/watchos/proto"
)

// Service owns the window stack: one window, pushed at boot and popped on
// request. Show and hide always alternate.
//
// Requests arrive on ep as MsgWindowShow (empty payload: use the display size)
// or MsgWindowHide and are forwarded to the window endpoint.
type Service struct {
	disp   hal.Display
	ep     kernel.Capability
	window kernel.Capability
	logCap kernel.Capability

	booted  bool
	shown   bool
	pending proto.Kind
	width   int
	height  int
}

func New(disp hal.Display, ep, window, logCap kernel.Capability) *Service {
	return &Service{disp: disp, ep: ep, window: window, logCap: logCap}
}

// Shown reports whether the window is currently pushed.
func (s *Service) Shown() bool { return s.shown }

func (s *Service) Step(ctx *kernel.Context) {
	if !s.booted {
		s.booted = true
		s.request(proto.MsgWindowShow, 0, 0)
	}
	if s.pending != 0 {
		if !s.flush(ctx) {
			ctx.BlockOnTick()
			return
		}
	}

	msg, ok := ctx.Recv(s.ep)
	if !ok {
		return
	}
	switch proto.Kind(msg.Kind) {
	case proto.MsgWindowShow:
		w, h, _ := proto.DecodeWindowShowPayload(msg.Payload())
		s.request(proto.MsgWindowShow, w, h)
	case proto.MsgWindowHide:
		s.request(proto.MsgWindowHide, 0, 0)
	}
}

// request queues a transition; a request matching the current state, or the
// one already pending, is dropped.
func (s *Service) request(kind proto.Kind, w, h int) {
	want := kind == proto.MsgWindowShow
	if s.pending != 0 {
		if s.pending == kind {
			return
		}
		// Opposite request cancels the pending one.
		s.pending = 0
		return
	}
	if want == s.shown {
		return
	}
	s.pending = kind
	s.width, s.height = w, h
}

func (s *Service) flush(ctx *kernel.Context) bool {
	var payload []byte
	if s.pending == proto.MsgWindowShow {
		w, h := s.viewport()
		payload = proto.WindowShowPayload(w, h)
	}
	res := ctx.SendToCapResult(s.window, uint16(s.pending), payload, kernel.Capability{})
	switch res {
	case kernel.SendOK:
	case kernel.SendErrQueueFull:
		return false
	default:
		logclient.Logf(ctx, s.logCap, "windowmgr: %s: %s", s.pending, res)
		s.pending = 0
		return true
	}
	s.shown = s.pending == proto.MsgWindowShow
	s.pending = 0
	return true
}

func (s *Service) viewport() (w, h int) {
	w, h = s.width, s.height
	if w > 0 && h > 0 {
		return w, h
	}
	if s.disp != nil {
		if fb := s.disp.Framebuffer(); fb != nil && fb.Width() > 0 && fb.Height() > 0 {
			return fb.Width(), fb.Height()
		}
	}
	return hal.DefaultWidth, hal.DefaultHeight
}
