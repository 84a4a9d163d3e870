package dummy

import (
	"testing"

	"github.com/midirt/midirt/message"
	"github.com/midirt/midirt/port"
)

func TestEngineConnectAndEnumerate(t *testing.T) {
	b := New(port.DirectionOutput)
	if !b.EngineConnect("test-client") {
		t.Fatal("EngineConnect should succeed")
	}
	if b.GetPortCount() != 2 {
		t.Fatalf("GetPortCount() = %d, want 2", b.GetPortCount())
	}

	ports := port.NewSet()
	n := b.GetIOPortInfo(ports, true)
	if n != 2 || ports.Len() != 2 {
		t.Fatalf("GetIOPortInfo returned %d, set has %d, want 2/2", n, ports.Len())
	}
	if ports.Name(1) != "Dummy MIDI 2" || ports.Alias(1) != "Virtual Loopback" {
		t.Fatalf("unexpected descriptor at index 1: name=%q alias=%q", ports.Name(1), ports.Alias(1))
	}
}

func TestGetIOPortInfoFailsWhenDisconnected(t *testing.T) {
	b := New(port.DirectionInput)
	ports := port.NewSet()
	if n := b.GetIOPortInfo(ports, true); n != -1 {
		t.Fatalf("GetIOPortInfo() before EngineConnect = %d, want -1", n)
	}
}

func TestOpenPortAndSendLoopsBackToQueue(t *testing.T) {
	b := New(port.DirectionOutput)
	b.EngineConnect("test-client")
	if !b.OpenPort(0, "out") {
		t.Fatal("OpenPort(0, ...) should succeed")
	}
	if !b.IsPortOpen() {
		t.Fatal("IsPortOpen should be true after OpenPort")
	}

	if !b.SendMessage([]byte{message.NoteOn | 0x01, 60, 100}) {
		t.Fatal("SendMessage should succeed on an open port")
	}
	_, msg, ok := b.GetMessage()
	if !ok {
		t.Fatal("sent message should loop back into the queue")
	}
	if msg.D0() != 60 || msg.D1() != 100 {
		t.Fatalf("looped-back message = %+v, want D0=60 D1=100", msg)
	}

	b.ClosePort()
	if b.SendMessage([]byte{message.NoteOn, 1, 1}) {
		t.Fatal("SendMessage should fail once the port is closed")
	}
}

func TestOpenPortRejectsOutOfRangeIndex(t *testing.T) {
	b := New(port.DirectionOutput)
	b.EngineConnect("c")
	if b.OpenPort(99, "bad") {
		t.Fatal("OpenPort with an out-of-range index should fail")
	}
}

func TestSendEventAppliesChannel(t *testing.T) {
	b := New(port.DirectionOutput)
	b.EngineConnect("c")
	b.OpenPort(0, "out")

	if !b.SendEvent([]byte{message.NoteOn, 60, 100}, 5) {
		t.Fatal("SendEvent should succeed")
	}
	_, msg, _ := b.GetMessage()
	if msg.Status()&0x0F != 5 {
		t.Fatalf("SendEvent should rewrite the channel nibble, got %#x", msg.Status())
	}
}
