// Package queue implements the bounded input queue a Backend API delivers
// decoded Messages through: either push-to-queue with a fixed capacity
// (dropping and counting drops when full) or direct invocation of a
// user-supplied callback that bypasses the queue entirely.
//
// The ring itself is single-producer/single-consumer and lock-free, so it
// is safe to push from a real-time context (the JACK process callback, the
// ALSA reader thread) without blocking.
package queue

import (
	"runtime"
	"sync/atomic"

	"github.com/midirt/midirt/message"
)

// Callback is a direct-delivery input callback: delta seconds since the
// previous message, the message itself, and an opaque userdata value.
type Callback func(delta float64, msg message.Message, userdata any)

// IgnoreFlags filters certain message classes before enqueue/callback.
type IgnoreFlags struct {
	SysEx         bool
	TimeCode      bool
	ActiveSensing bool
}

// ShouldIgnore reports whether a fully classified message should be
// dropped before it reaches the queue or callback.
func (f IgnoreFlags) ShouldIgnore(status message.Status) bool {
	switch status {
	case message.SysExStart:
		return f.SysEx
	case message.MTCQuarterFrame, message.TimingClock:
		return f.TimeCode
	case message.ActiveSensing:
		return f.ActiveSensing
	}
	return false
}

// entry is one slot in the ring.
type entry struct {
	delta float64
	msg   message.Message
	valid int32 // atomic: 1 once Push has published this slot
}

// Queue is a bounded SPSC ring of Messages, or a direct-callback sink.
// Exactly one discipline is active at a time: Push delivers through the
// ring unless a callback is installed, in which case SetCallback's
// function is invoked directly (still respecting ignore flags) and the
// ring is bypassed.
type Queue struct {
	buf  []entry
	cap  uint32
	head uint32 // atomic: next slot the consumer will read
	tail uint32 // atomic: next slot the producer will write

	dropped uint64 // atomic: count of pushes dropped because the ring was full

	Ignore IgnoreFlags

	cb       atomic.Pointer[Callback]
	userdata atomic.Pointer[any]
}

// New returns a Queue with the given capacity (rounded up internally to
// at least 1).
func New(capacity int) *Queue {
	if capacity < 1 {
		capacity = 1
	}
	return &Queue{
		buf: make([]entry, capacity),
		cap: uint32(capacity),
	}
}

// SetCallback installs a direct-delivery callback with its userdata,
// bypassing the queue for subsequent Push calls. Passing a nil fn reverts
// to queue delivery.
func (q *Queue) SetCallback(fn Callback, userdata any) {
	if fn == nil {
		q.cb.Store(nil)
		return
	}
	q.cb.Store(&fn)
	q.userdata.Store(&userdata)
}

// CancelCallback reverts to queue delivery.
func (q *Queue) CancelCallback() {
	q.cb.Store(nil)
}

// Push delivers a decoded message: if a direct callback is installed it is
// invoked synchronously on the caller's goroutine (the reader thread or
// the RT process callback); otherwise the message is pushed into the ring,
// or dropped (incrementing DroppedCount) if the ring is full. Push applies
// the ignore filter before doing either.
func (q *Queue) Push(delta float64, msg message.Message) {
	if q.Ignore.ShouldIgnore(msg.Status()) {
		return
	}
	if cbp := q.cb.Load(); cbp != nil {
		var ud any
		if udp := q.userdata.Load(); udp != nil {
			ud = *udp
		}
		(*cbp)(delta, msg, ud)
		return
	}

	tail := atomic.LoadUint32(&q.tail)
	head := atomic.LoadUint32(&q.head)
	if tail-head >= q.cap {
		atomic.AddUint64(&q.dropped, 1)
		return
	}
	slot := &q.buf[tail%q.cap]
	slot.delta = delta
	slot.msg = msg
	atomic.StoreInt32(&slot.valid, 1)
	atomic.AddUint32(&q.tail, 1)
}

// Pop removes and returns the next queued message and its delta time. ok
// is false if the queue is empty.
func (q *Queue) Pop() (delta float64, msg message.Message, ok bool) {
	head := atomic.LoadUint32(&q.head)
	tail := atomic.LoadUint32(&q.tail)
	if head == tail {
		return 0, message.Message{}, false
	}
	slot := &q.buf[head%q.cap]
	for atomic.LoadInt32(&slot.valid) == 0 {
		// Producer has reserved the slot (advanced tail) but not yet
		// published it; spin briefly. This only happens under a torn
		// interleaving with a producer preempted mid-Push.
		runtime.Gosched()
	}
	delta, msg = slot.delta, slot.msg
	atomic.StoreInt32(&slot.valid, 0)
	atomic.StoreUint32(&q.head, head+1)
	return delta, msg, true
}

// Len returns an approximate current occupancy (exact in the absence of a
// concurrent producer/consumer).
func (q *Queue) Len() int {
	return int(atomic.LoadUint32(&q.tail) - atomic.LoadUint32(&q.head))
}

// DroppedCount returns how many pushes were dropped because the ring was
// full.
func (q *Queue) DroppedCount() uint64 {
	return atomic.LoadUint64(&q.dropped)
}

// HasCallback reports whether a direct-delivery callback is currently
// installed.
func (q *Queue) HasCallback() bool {
	return q.cb.Load() != nil
}
