//go:build !tinygo

package hal

import "time"

// hostTickPeriod is the duration of one host scheduler tick.
const hostTickPeriod = time.Millisecond

type hostTime struct {
	ch  chan uint64
	seq uint64

	last time.Time
	acc  time.Duration
}

func newHostTime() *hostTime {
	return &hostTime{ch: make(chan uint64, 1024)}
}

func (t *hostTime) Ticks() <-chan uint64 { return t.ch }

// advance converts elapsed wall time since the previous call into ticks.
// The first call emits exactly one tick.
func (t *hostTime) advance(now time.Time) {
	if t.last.IsZero() {
		t.last = now
		t.acc = 0
		t.emit(1)
		return
	}

	t.acc += now.Sub(t.last)
	t.last = now

	ticks := uint64(t.acc / hostTickPeriod)
	if ticks == 0 {
		return
	}
	t.acc %= hostTickPeriod
	t.emit(ticks)
}

// emit queues n ticks; ticks beyond the channel capacity are dropped.
func (t *hostTime) emit(n uint64) {
	for i := uint64(0); i < n; i++ {
		t.seq++
		select {
		case t.ch <- t.seq:
		default:
		}
	}
}
