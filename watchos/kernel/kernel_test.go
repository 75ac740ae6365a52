package kernel

import "testing"

type funcTask func(*Context)

func (f funcTask) Step(ctx *Context) { f(ctx) }

type unloadTask struct {
	step    func(*Context)
	unloads int
}

func (t *unloadTask) Step(ctx *Context) { t.step(ctx) }
func (t *unloadTask) Unload()           { t.unloads++ }

func TestMessagePayloadClampsLen(t *testing.T) {
	var msg Message
	msg.Len = MaxMessageBytes + 10
	if got := len(msg.Payload()); got != MaxMessageBytes {
		t.Fatalf("expected payload length %d, got %d", MaxMessageBytes, got)
	}
}

func TestMailboxFull(t *testing.T) {
	var mb mailbox
	for i := 0; i < mailboxSlots; i++ {
		if !mb.push(Message{}) {
			t.Fatalf("push() = false at slot %d, want true", i)
		}
	}
	if mb.push(Message{}) {
		t.Fatal("push() = true when full, want false")
	}
	if got := mb.len(); got != mailboxSlots {
		t.Fatalf("len() = %d, want %d", got, mailboxSlots)
	}
	for i := 0; i < mailboxSlots; i++ {
		if _, ok := mb.pop(); !ok {
			t.Fatalf("pop() = false at slot %d, want true", i)
		}
	}
	if _, ok := mb.pop(); ok {
		t.Fatal("pop() = true when empty, want false")
	}
}

func TestCapabilityRestrict(t *testing.T) {
	k := New()
	ep := k.NewEndpoint(RightSend | RightRecv)
	if !ep.Valid() {
		t.Fatal("expected valid capability")
	}

	send := ep.Restrict(RightSend)
	if !send.canSend() || send.canRecv() {
		t.Fatalf("Restrict(RightSend) rights = %b", send.rights)
	}
	if got := send.Restrict(RightRecv); got.Valid() {
		t.Fatal("expected restricting to a missing right to be invalid")
	}
	if !send.Same(ep) {
		t.Fatal("expected restricted capability to address the same endpoint")
	}
	if (Capability{}).Same(Capability{}) {
		t.Fatal("expected invalid capabilities to never match")
	}
}

func TestRecvBlocksUntilSend(t *testing.T) {
	k := New()
	ep := k.NewEndpoint(RightSend | RightRecv)

	var got []byte
	steps := 0
	k.AddTask(funcTask(func(ctx *Context) {
		steps++
		msg, ok := ctx.Recv(ep.Restrict(RightRecv))
		if !ok {
			return
		}
		got = append(got, msg.Payload()...)
	}))

	if n := k.RunUntilIdle(10); n != 1 {
		t.Fatalf("RunUntilIdle() = %d, want 1 (task should block)", n)
	}
	if res := k.Post(ep.Restrict(RightSend), 1, []byte("hi")); res != SendOK {
		t.Fatalf("Post() = %s", res)
	}
	k.RunUntilIdle(10)
	if string(got) != "hi" {
		t.Fatalf("received %q, want %q", got, "hi")
	}
	if steps != 3 {
		t.Fatalf("steps = %d, want 3", steps)
	}
}

func TestBlockOnTick(t *testing.T) {
	k := New()
	steps := 0
	k.AddTask(funcTask(func(ctx *Context) {
		steps++
		ctx.BlockOnTick()
	}))

	k.RunUntilIdle(10)
	k.RunUntilIdle(10)
	if steps != 1 {
		t.Fatalf("steps before tick = %d, want 1", steps)
	}
	k.Tick()
	k.RunUntilIdle(10)
	if steps != 2 {
		t.Fatalf("steps after tick = %d, want 2", steps)
	}
	if k.NowTick() != 1 {
		t.Fatalf("NowTick() = %d, want 1", k.NowTick())
	}
}

func TestSendQueueFull(t *testing.T) {
	k := New()
	ep := k.NewEndpoint(RightSend | RightRecv)
	to := ep.Restrict(RightSend)

	for i := 0; i < mailboxSlots; i++ {
		if res := k.Post(to, 1, []byte("x")); res != SendOK {
			t.Fatalf("expected SendOK filling queue, got %s", res)
		}
	}
	if res := k.Post(to, 1, []byte("y")); res != SendErrQueueFull {
		t.Fatalf("expected SendErrQueueFull, got %s", res)
	}
	if res := k.Post(ep.Restrict(RightRecv), 1, nil); res != SendErrToNoSendRight {
		t.Fatalf("expected SendErrToNoSendRight, got %s", res)
	}
	big := make([]byte, MaxMessageBytes+1)
	other := k.NewEndpoint(RightSend)
	if res := k.Post(other, 1, big); res != SendErrPayloadTooLarge {
		t.Fatalf("expected SendErrPayloadTooLarge, got %s", res)
	}
}

func TestSendRightsChecked(t *testing.T) {
	k := New()
	from := k.NewEndpoint(RightRecv)
	to := k.NewEndpoint(RightSend | RightRecv)

	var res SendResult
	k.AddTask(funcTask(func(ctx *Context) {
		res = ctx.SendCapResult(from, to, 1, nil, Capability{})
		ctx.BlockOnTick()
	}))
	k.RunUntilIdle(1)
	if res != SendErrFromNoSendRight {
		t.Fatalf("expected SendErrFromNoSendRight, got %s", res)
	}
}

func TestPanicUnloadsTask(t *testing.T) {
	k := New()

	var infos []PanicInfo
	k.SetPanicHandler(func(info PanicInfo) { infos = append(infos, info) })

	bad := &unloadTask{step: func(*Context) { panic("boom") }}
	badID, _ := k.AddTask(bad)

	good := 0
	k.AddTask(funcTask(func(ctx *Context) {
		good++
		ctx.BlockOnTick()
	}))

	k.RunUntilIdle(10)
	if bad.unloads != 1 {
		t.Fatalf("unloads = %d, want 1", bad.unloads)
	}
	if len(infos) != 1 || infos[0].TaskID != badID || infos[0].Value != "boom" {
		t.Fatalf("panic infos = %+v", infos)
	}
	if !k.InPanicMode() {
		t.Fatal("expected panic mode")
	}

	k.Tick()
	k.RunUntilIdle(10)
	if good != 2 {
		t.Fatalf("healthy task steps = %d, want 2", good)
	}

	k.Shutdown()
	if bad.unloads != 1 {
		t.Fatalf("unloads after shutdown = %d, want 1", bad.unloads)
	}
}

func TestShutdownUnloadsOnce(t *testing.T) {
	k := New()
	task := &unloadTask{step: func(ctx *Context) { ctx.BlockOnTick() }}
	k.AddTask(task)
	k.RunUntilIdle(1)

	k.Shutdown()
	k.Shutdown()
	if task.unloads != 1 {
		t.Fatalf("unloads = %d, want 1", task.unloads)
	}

	k.Tick()
	if k.Step() {
		t.Fatal("expected no runnable task after shutdown")
	}
}
