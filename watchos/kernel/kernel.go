package kernel

const (
	maxTasks     = 32
	maxEndpoints = 32
	mailboxSlots = 8
)

type TaskID uint8

// Rights define which operations are allowed for a capability.
type Rights uint8

const (
	RightSend Rights = 1 << iota
	RightRecv
)

// Endpoint identifies an IPC destination.
type Endpoint uint8

// Capability grants access to an IPC endpoint.
//
// It is opaque by construction (no exported fields) and may be transferred via IPC.
type Capability struct {
	ep     Endpoint
	rights Rights
}

func (c Capability) valid() bool {
	return c.rights != 0
}

func (c Capability) Valid() bool { return c.valid() }

func (c Capability) canSend() bool { return c.rights&RightSend != 0 }
func (c Capability) canRecv() bool { return c.rights&RightRecv != 0 }

// Restrict returns a capability with a reduced set of rights.
func (c Capability) Restrict(rights Rights) Capability {
	if !c.valid() {
		return Capability{}
	}
	r := c.rights & rights
	if r == 0 {
		return Capability{}
	}
	return Capability{ep: c.ep, rights: r}
}

// Same reports whether both capabilities address the same endpoint.
func (c Capability) Same(o Capability) bool {
	return c.valid() && o.valid() && c.ep == o.ep
}

// MaxMessageBytes is the maximum payload size for IPC messages.
const MaxMessageBytes = 64

// Message is a fixed-size IPC envelope.
type Message struct {
	From Endpoint
	To   Endpoint
	Kind uint16
	Len  uint16
	Data [MaxMessageBytes]byte
	Cap  Capability
}

// Payload returns the message payload, clamped to the envelope size.
func (m *Message) Payload() []byte {
	n := int(m.Len)
	if n > MaxMessageBytes {
		n = MaxMessageBytes
	}
	return m.Data[:n]
}

// SendResult describes the outcome of a send attempt.
type SendResult uint8

const (
	SendOK SendResult = iota
	SendErrInvalidFromCap
	SendErrInvalidToCap
	SendErrFromNoSendRight
	SendErrToNoSendRight
	SendErrNoEndpoint
	SendErrPayloadTooLarge
	SendErrQueueFull
)

func (r SendResult) String() string {
	switch r {
	case SendOK:
		return "ok"
	case SendErrInvalidFromCap:
		return "invalid from capability"
	case SendErrInvalidToCap:
		return "invalid to capability"
	case SendErrFromNoSendRight:
		return "from capability has no send right"
	case SendErrToNoSendRight:
		return "to capability has no send right"
	case SendErrNoEndpoint:
		return "no such endpoint"
	case SendErrPayloadTooLarge:
		return "payload too large"
	case SendErrQueueFull:
		return "queue full"
	default:
		return "unknown"
	}
}

// Task is a cooperative unit of execution.
//
// Step must return promptly. A task that wants to wait calls Context.Recv or
// Context.BlockOnTick and returns; the kernel resumes it when the wait is over.
type Task interface {
	Step(*Context)
}

// Unloader is implemented by tasks that hold resources.
//
// Unload runs exactly once: on Kernel.Shutdown or after the task panicked.
type Unloader interface {
	Unload()
}

type endpointState struct {
	q        mailbox
	waitMask uint32
}

type taskState struct {
	task     Task
	runnable bool
	dead     bool
	unloaded bool
	waiting  Endpoint
}

// Kernel is a minimal cooperative scheduler plus IPC router.
//
// It is single-threaded: Step, Tick, Post and Shutdown must be called from the
// same goroutine.
type Kernel struct {
	endpoints     [maxEndpoints]endpointState
	endpointCount Endpoint

	tasks     [maxTasks]taskState
	taskCount TaskID

	rr TaskID

	tick         uint64
	tickWaitMask uint32

	panics panicState
}

// New creates a kernel instance.
func New() *Kernel {
	return &Kernel{}
}

// NewEndpoint allocates a new endpoint and returns a capability for it.
func (k *Kernel) NewEndpoint(rights Rights) Capability {
	if k.endpointCount >= maxEndpoints {
		return Capability{}
	}
	ep := k.endpointCount
	k.endpointCount++
	return Capability{ep: ep, rights: rights}
}

// AddTask registers a task and returns its ID.
func (k *Kernel) AddTask(t Task) (TaskID, bool) {
	if k.taskCount >= maxTasks || t == nil {
		return 0, false
	}
	id := k.taskCount
	k.taskCount++
	k.tasks[id] = taskState{task: t, runnable: true}
	return id, true
}

// Step runs at most one runnable task step and reports whether one ran.
func (k *Kernel) Step() bool {
	if k.taskCount == 0 {
		return false
	}

	for i := TaskID(0); i < k.taskCount; i++ {
		id := (k.rr + i) % k.taskCount
		st := &k.tasks[id]
		if st.task == nil || st.dead || !st.runnable {
			continue
		}

		k.rr = (id + 1) % k.taskCount
		ctx, ok := k.run(id, st)
		if !ok {
			return true
		}

		if ctx.blocked {
			st.runnable = false
			if ctx.blockOnTick {
				k.tickWaitMask |= 1 << id
			} else {
				st.waiting = ctx.blockOn
				if st.waiting < k.endpointCount {
					k.endpoints[st.waiting].waitMask |= 1 << id
				}
			}
		}
		return true
	}
	return false
}

// RunUntilIdle steps tasks until none is runnable or budget steps have run.
// It returns the number of steps taken.
func (k *Kernel) RunUntilIdle(budget int) int {
	n := 0
	for n < budget && k.Step() {
		n++
	}
	return n
}

func (k *Kernel) run(id TaskID, st *taskState) (ctx *Context, ok bool) {
	ctx = &Context{k: k}
	defer func() {
		if v := recover(); v != nil {
			ok = false
			k.kill(id)
			k.panics.trigger(PanicInfo{TaskID: id, Value: v})
		}
	}()
	st.task.Step(ctx)
	return ctx, true
}

func (k *Kernel) kill(id TaskID) {
	st := &k.tasks[id]
	st.dead = true
	st.runnable = false
	k.tickWaitMask &^= 1 << id
	for ep := Endpoint(0); ep < k.endpointCount; ep++ {
		k.endpoints[ep].waitMask &^= 1 << id
	}
	k.unload(st)
}

func (k *Kernel) unload(st *taskState) {
	if st.unloaded {
		return
	}
	st.unloaded = true
	u, ok := st.task.(Unloader)
	if !ok {
		return
	}
	defer func() { _ = recover() }()
	u.Unload()
}

// Tick advances the kernel tick and wakes tasks blocked via Context.BlockOnTick.
func (k *Kernel) Tick() {
	k.tick++

	wait := k.tickWaitMask
	if wait == 0 {
		return
	}

	for tid := TaskID(0); tid < k.taskCount; tid++ {
		if wait&(1<<tid) == 0 {
			continue
		}
		if !k.tasks[tid].dead {
			k.tasks[tid].runnable = true
		}
	}
	k.tickWaitMask = 0
}

// NowTick returns the number of Tick calls so far.
func (k *Kernel) NowTick() uint64 { return k.tick }

// Post delivers a message from outside any task, like an interrupt would.
//
// The message From field is set to 0 (unknown).
func (k *Kernel) Post(toCap Capability, kind uint16, payload []byte) SendResult {
	if !toCap.valid() {
		return SendErrInvalidToCap
	}
	if !toCap.canSend() {
		return SendErrToNoSendRight
	}
	return k.send(0, toCap.ep, kind, payload, Capability{})
}

// Shutdown unloads every task that holds resources and stops scheduling.
func (k *Kernel) Shutdown() {
	for tid := TaskID(0); tid < k.taskCount; tid++ {
		st := &k.tasks[tid]
		if st.task == nil {
			continue
		}
		st.runnable = false
		st.dead = true
		k.unload(st)
	}
	k.tickWaitMask = 0
}

func (k *Kernel) send(from Endpoint, to Endpoint, kind uint16, payload []byte, xfer Capability) SendResult {
	if to >= k.endpointCount {
		return SendErrNoEndpoint
	}
	if len(payload) > MaxMessageBytes {
		return SendErrPayloadTooLarge
	}

	var msg Message
	msg.From = from
	msg.To = to
	msg.Kind = kind
	msg.Len = uint16(len(payload))
	copy(msg.Data[:], payload)
	msg.Cap = xfer

	ep := &k.endpoints[to]
	if !ep.q.push(msg) {
		return SendErrQueueFull
	}

	wait := ep.waitMask
	if wait == 0 {
		return SendOK
	}

	for tid := TaskID(0); tid < k.taskCount; tid++ {
		if wait&(1<<tid) == 0 {
			continue
		}
		if !k.tasks[tid].dead {
			k.tasks[tid].runnable = true
		}
		ep.waitMask &^= 1 << tid
	}
	return SendOK
}

func (k *Kernel) recv(to Endpoint) (Message, bool) {
	if to >= k.endpointCount {
		return Message{}, false
	}
	return k.endpoints[to].q.pop()
}
