//go:build linux

package alsa

import (
	"testing"

	"github.com/midirt/midirt/midiapi"
	"github.com/midirt/midirt/port"
)

func TestBackendBeforeConnect(t *testing.T) {
	b := New(port.DirectionOutput)
	if b.IsPortOpen() {
		t.Fatal("expected no port open before EngineConnect")
	}
	if b.GetPortCount() != 0 {
		t.Fatal("expected zero ports before EngineConnect")
	}
	if _, ok := b.GetPortName(0); ok {
		t.Fatal("expected GetPortName to fail before EngineConnect")
	}
	if b.SendMessage([]byte{0x90, 60, 100}) {
		t.Fatal("expected SendMessage to fail before a port is open")
	}
}

func TestBackendImplementsAPI(t *testing.T) {
	var _ midiapi.API = New(port.DirectionInput)
}

func TestClosePortIdempotent(t *testing.T) {
	b := New(port.DirectionOutput)
	b.ClosePort()
	b.ClosePort()
	if b.IsPortOpen() {
		t.Fatal("expected port closed")
	}
}
