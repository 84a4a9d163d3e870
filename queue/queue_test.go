package queue

import (
	"testing"

	"github.com/midirt/midirt/message"
)

func TestPushPopOrder(t *testing.T) {
	q := New(4)
	for i := 0; i < 3; i++ {
		q.Push(float64(i), message.New(float64(i), message.NoteOn, byte(i), 100))
	}
	for i := 0; i < 3; i++ {
		_, msg, ok := q.Pop()
		if !ok {
			t.Fatalf("Pop() %d: expected a message", i)
		}
		if msg.D0() != byte(i) {
			t.Fatalf("Pop() %d: D0 = %d, want %d (FIFO order)", i, msg.D0(), i)
		}
	}
	if _, _, ok := q.Pop(); ok {
		t.Fatal("expected empty queue after draining all pushes")
	}
}

func TestPushDropsWhenFull(t *testing.T) {
	q := New(2)
	q.Push(0, message.New(0, message.NoteOn, 1, 1))
	q.Push(0, message.New(0, message.NoteOn, 2, 1))
	q.Push(0, message.New(0, message.NoteOn, 3, 1)) // should drop

	if got := q.DroppedCount(); got != 1 {
		t.Fatalf("DroppedCount() = %d, want 1", got)
	}
	if got := q.Len(); got != 2 {
		t.Fatalf("Len() = %d, want 2", got)
	}
}

func TestDirectCallbackBypassesQueue(t *testing.T) {
	q := New(4)
	var got []byte
	q.SetCallback(func(delta float64, msg message.Message, userdata any) {
		got = append(got, msg.D0())
	}, nil)

	q.Push(0, message.New(0, message.NoteOn, 42, 1))
	if q.Len() != 0 {
		t.Fatal("queue should stay empty while a callback is installed")
	}
	if len(got) != 1 || got[0] != 42 {
		t.Fatalf("callback got %v, want [42]", got)
	}

	q.CancelCallback()
	q.Push(0, message.New(0, message.NoteOn, 7, 1))
	if q.Len() != 1 {
		t.Fatal("queue delivery should resume after CancelCallback")
	}
}

func TestIgnoreFlagsFilterBeforeEnqueue(t *testing.T) {
	q := New(4)
	q.Ignore.SysEx = true
	q.Push(0, message.Message{Data: []byte{message.SysExStart, 0x7E, message.SysExEnd}})
	if q.Len() != 0 {
		t.Fatal("SysEx message should have been filtered before enqueue")
	}

	q.Push(0, message.New(0, message.NoteOn, 1, 1))
	if q.Len() != 1 {
		t.Fatal("non-SysEx message should still be enqueued")
	}
}
