package ticktimer

import (
	"time"

	"xclock/hal"
	"xclock/watchos/kernel"
	"xclock/watchos/proto"
)

const maxSubscribers = 8

type subscriber struct {
	inUse bool
	units proto.TimeUnits
	reply kernel.Capability
}

// Service turns wall-clock changes into MsgTimeTick messages.
//
// Every kernel tick it reads the clock and, if a subscribed unit changed since
// the previous reading, sends one tick to each interested subscriber. A full
// subscriber queue drops the tick: subscribers only ever need the latest time.
type Service struct {
	clock hal.Clock
	ep    kernel.Capability

	last   time.Time
	primed bool
	subs   [maxSubscribers]subscriber

	dropped uint64
}

// New returns a service reading clock and receiving requests on ep.
//
// ep needs both rights: requests are received on it and ticks are sent from it.
func New(clock hal.Clock, ep kernel.Capability) *Service {
	if clock == nil {
		clock = hal.SystemClock{}
	}
	return &Service{clock: clock, ep: ep}
}

// Dropped returns how many ticks were dropped on full subscriber queues.
func (s *Service) Dropped() uint64 { return s.dropped }

func (s *Service) Step(ctx *kernel.Context) {
	for {
		msg, ok := ctx.TryRecv(s.ep)
		if !ok {
			break
		}
		s.handle(ctx, msg)
	}
	s.poll(ctx)
	ctx.BlockOnTick()
}

func (s *Service) handle(ctx *kernel.Context, msg kernel.Message) {
	if msg.Kind != uint16(proto.MsgTickSubscribe) {
		return
	}
	if !msg.Cap.Valid() {
		return
	}

	units, ok := proto.DecodeTickSubscribePayload(msg.Payload())
	if !ok {
		_ = ctx.Send(s.ep, msg.Cap, uint16(proto.MsgError), proto.ErrorPayload(proto.ErrBadMessage, proto.MsgTickSubscribe, nil))
		return
	}
	if units == 0 {
		s.unsubscribe(msg.Cap)
		return
	}
	// Flush pending changes first: a new subscriber gets one tick for the
	// current second, not two.
	now := s.poll(ctx)
	if !s.subscribe(msg.Cap, units) {
		_ = ctx.Send(s.ep, msg.Cap, uint16(proto.MsgError), proto.ErrorPayload(proto.ErrOverflow, proto.MsgTickSubscribe, nil))
		return
	}
	s.deliver(ctx, msg.Cap, now, units)
}

func (s *Service) subscribe(reply kernel.Capability, units proto.TimeUnits) bool {
	free := -1
	for i := range s.subs {
		sub := &s.subs[i]
		if sub.inUse && sub.reply.Same(reply) {
			sub.units = units
			return true
		}
		if !sub.inUse && free < 0 {
			free = i
		}
	}
	if free < 0 {
		return false
	}
	s.subs[free] = subscriber{inUse: true, units: units, reply: reply}
	return true
}

func (s *Service) unsubscribe(reply kernel.Capability) {
	for i := range s.subs {
		if s.subs[i].inUse && s.subs[i].reply.Same(reply) {
			s.subs[i] = subscriber{}
		}
	}
}

// poll notifies subscribers of units changed since the last reading and
// returns the current reading.
func (s *Service) poll(ctx *kernel.Context) time.Time {
	now := s.clock.Now()
	if !s.primed {
		s.last = now
		s.primed = true
		return now
	}
	changed := proto.ChangedUnits(s.last, now)
	if changed == 0 {
		return now
	}
	s.last = now

	for i := range s.subs {
		sub := &s.subs[i]
		if !sub.inUse || sub.units&changed == 0 {
			continue
		}
		if !s.deliver(ctx, sub.reply, now, changed) {
			*sub = subscriber{}
		}
	}
	return now
}

// deliver sends one tick and reports whether the subscriber is still reachable.
func (s *Service) deliver(ctx *kernel.Context, reply kernel.Capability, now time.Time, changed proto.TimeUnits) bool {
	res := ctx.SendCapResult(s.ep, reply, uint16(proto.MsgTimeTick), proto.TimeTickPayload(now, changed), kernel.Capability{})
	switch res {
	case kernel.SendOK:
		return true
	case kernel.SendErrQueueFull:
		s.dropped++
		return true
	default:
		return false
	}
}
