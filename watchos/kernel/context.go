package kernel

// Context provides task-local access to kernel operations during one Step.
type Context struct {
	k *Kernel

	blocked     bool
	blockOn     Endpoint
	blockOnTick bool
}

// Recv reads one message from the capability endpoint.
//
// If the endpoint is empty the task is blocked on it: Step should return, and
// the kernel resumes the task when a message arrives.
func (c *Context) Recv(epCap Capability) (Message, bool) {
	if !epCap.valid() || !epCap.canRecv() {
		return Message{}, false
	}
	msg, ok := c.k.recv(epCap.ep)
	if !ok {
		c.blocked = true
		c.blockOn = epCap.ep
		c.blockOnTick = false
	}
	return msg, ok
}

// TryRecv reads one message from the capability endpoint without blocking.
func (c *Context) TryRecv(epCap Capability) (Message, bool) {
	if !epCap.valid() || !epCap.canRecv() {
		return Message{}, false
	}
	return c.k.recv(epCap.ep)
}

// BlockOnTick blocks the task until the next Kernel.Tick call.
func (c *Context) BlockOnTick() {
	c.blocked = true
	c.blockOnTick = true
}

// Send sends a message to the capability endpoint.
func (c *Context) Send(fromCap, toCap Capability, kind uint16, payload []byte) bool {
	return c.SendCap(fromCap, toCap, kind, payload, Capability{})
}

// SendCap sends a message and transfers an optional capability.
func (c *Context) SendCap(fromCap, toCap Capability, kind uint16, payload []byte, xfer Capability) bool {
	return c.SendCapResult(fromCap, toCap, kind, payload, xfer) == SendOK
}

// SendCapResult sends a message and transfers an optional capability.
func (c *Context) SendCapResult(fromCap, toCap Capability, kind uint16, payload []byte, xfer Capability) SendResult {
	if !fromCap.valid() {
		return SendErrInvalidFromCap
	}
	if !fromCap.canSend() {
		return SendErrFromNoSendRight
	}
	if !toCap.valid() {
		return SendErrInvalidToCap
	}
	if !toCap.canSend() {
		return SendErrToNoSendRight
	}
	return c.k.send(fromCap.ep, toCap.ep, kind, payload, xfer)
}

// SendToCapResult sends a message and transfers an optional capability.
//
// The message From field is set to 0 (unknown).
func (c *Context) SendToCapResult(toCap Capability, kind uint16, payload []byte, xfer Capability) SendResult {
	if !toCap.valid() {
		return SendErrInvalidToCap
	}
	if !toCap.canSend() {
		return SendErrToNoSendRight
	}
	return c.k.send(0, toCap.ep, kind, payload, xfer)
}
