package logger

import (
	"xclock/hal"
	"xclock/watchos/kernel"
	"xclock/watchos/proto"
)

// Service forwards MsgLogLine payloads to the HAL logger.
type Service struct {
	log hal.Logger
	ep  kernel.Capability
}

func New(log hal.Logger, ep kernel.Capability) *Service {
	return &Service{log: log, ep: ep}
}

func (s *Service) Step(ctx *kernel.Context) {
	msg, ok := ctx.Recv(s.ep)
	if !ok {
		return
	}
	if s.log == nil {
		return
	}
	if msg.Kind != uint16(proto.MsgLogLine) {
		return
	}
	s.log.WriteLineBytes(msg.Payload())
}
