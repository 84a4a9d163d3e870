// Package dummy implements the always-available Backend API realization
// used as the detection fallback when no real host MIDI subsystem is
// usable, and as the lightweight backend for tests and the midirt-probe
// CLI.
package dummy

import (
	"sync"

	"github.com/midirt/midirt/errs"
	"github.com/midirt/midirt/message"
	"github.com/midirt/midirt/midiapi"
	"github.com/midirt/midirt/port"
)

// Backend is a no-op MIDI backend: it accepts every operation, enumerates
// a small fixed set of fake ports, and loops sent output back as if it had
// been received, so higher layers can be exercised end to end without
// hardware.
type Backend struct {
	midiapi.Base

	mu         sync.Mutex
	clientName string
	portOpen   bool
	portIsVirt bool
	portName   string
	lastTime   float64

	ports []fakePort
}

type fakePort struct {
	name  string
	alias string
}

// init registers this backend's detection Prober: dummy is
// always compiled in and always usable, so it always detects true and
// anchors the end of midiapi.DetectionOrder as the guaranteed fallback.
func init() {
	midiapi.RegisterProbe(midiapi.Dummy, func() bool { return true })
}

// New returns a Backend for the given direction with a default set of
// fake ports and a modest queue size.
func New(direction midiapi.Direction) *Backend {
	return &Backend{
		Base: midiapi.NewBase(direction, 256),
		ports: []fakePort{
			{name: "Dummy MIDI 1"},
			{name: "Dummy MIDI 2", alias: "Virtual Loopback"},
		},
	}
}

func (b *Backend) EngineConnect(clientName string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.clientName = clientName
	b.SetConnected(true)
	return true
}

func (b *Backend) EngineDisconnect() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.SetConnected(false)
}

func (b *Backend) EngineActivate() bool   { return true }
func (b *Backend) EngineDeactivate() bool { return true }

func (b *Backend) Initialize(clientName string) bool {
	return b.EngineConnect(clientName)
}

func (b *Backend) OpenPort(number int, name string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.portOpen {
		return true // already open: success without re-opening.
	}
	if number < 0 || number >= len(b.ports) {
		b.Report(errs.New("dummy.OpenPort", errs.InvalidDevice))
		return false
	}
	b.portOpen = true
	b.portIsVirt = false
	b.portName = name
	return true
}

func (b *Backend) OpenVirtualPort(name string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.portOpen {
		return true
	}
	b.portOpen = true
	b.portIsVirt = true
	b.portName = name
	return true
}

func (b *Backend) ClosePort() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.portOpen = false
	b.portIsVirt = false
	b.portName = ""
}

func (b *Backend) IsPortOpen() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.portOpen
}

func (b *Backend) GetPortCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.ports)
}

func (b *Backend) GetPortName(index int) (string, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if index < 0 || index >= len(b.ports) {
		return "", false
	}
	return b.ports[index].name, true
}

func (b *Backend) GetPortAlias(name string) (string, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, p := range b.ports {
		if p.name == name {
			return p.alias, p.alias != ""
		}
	}
	return "", false
}

func (b *Backend) GetIOPortInfo(ports *port.Set, preclear bool) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.IsConnected() {
		return -1
	}
	if preclear {
		ports.Clear()
	}
	for i, p := range b.ports {
		ports.Add(port.Descriptor{
			ClientID:   0,
			ClientName: b.clientName,
			PortID:     i,
			PortName:   p.name,
			Direction:  b.Direction,
			Kind:       port.KindNormal,
			Alias:      p.alias,
		})
	}
	return len(b.ports)
}

func (b *Backend) SetClientName(name string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.clientName = name
	return true
}

func (b *Backend) SetPortName(name string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.portOpen {
		return false
	}
	b.portName = name
	return true
}

func (b *Backend) SendMessage(data []byte) bool {
	b.mu.Lock()
	open := b.portOpen
	b.mu.Unlock()
	if !open {
		return false
	}
	// Loop straight back into the input queue so callers exercising the
	// full stack without hardware still observe what they sent.
	b.Queue.Push(0, message.Message{Data: append([]byte(nil), data...), Ticks: message.NullPulse})
	return true
}

func (b *Backend) SendMessageT(msg message.Message) bool {
	return b.SendMessage(msg.Data)
}

func (b *Backend) FlushPort() bool { return true }

func (b *Backend) ClockStart() bool          { return b.SendMessage([]byte{message.Start}) }
func (b *Backend) ClockSend(tick int64) bool { return b.SendMessage([]byte{message.TimingClock}) }
func (b *Backend) ClockStop() bool           { return b.SendMessage([]byte{message.Stop}) }
func (b *Backend) ClockContinue(tick int64, beats int) bool {
	return b.SendMessage([]byte{message.Continue})
}
func (b *Backend) SendByte(v byte) bool { return b.SendMessage([]byte{v}) }

func (b *Backend) SendEvent(data []byte, channel message.Channel) bool {
	if len(data) == 0 {
		return false
	}
	out := append([]byte(nil), data...)
	if message.IsChannelMsg(out[0]) {
		out[0] = (out[0] & 0xF0) | (channel & 0x0F)
	}
	return b.SendMessage(out)
}

func (b *Backend) SendSysex(data []byte) bool {
	return b.SendMessage(data)
}

var _ midiapi.API = (*Backend)(nil)
