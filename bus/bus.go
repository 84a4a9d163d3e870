package bus

import (
	"sync"

	"github.com/midirt/midirt/client"
	"github.com/midirt/midirt/errs"
	"github.com/midirt/midirt/event"
	"github.com/midirt/midirt/message"
	"github.com/midirt/midirt/midiapi"
	"github.com/midirt/midirt/port"
)

// Bus is one logical port — input or output — owning exactly one Backend
// API instance. Non-copyable: callers hold it through a *Bus, never a
// value.
type Bus struct {
	mu sync.Mutex

	Info *client.Info // shared, not owned
	API  midiapi.API  // owned: created alongside this bus, closed with it

	Index       int
	ClientID    int
	BusID       int
	PortID      int
	DisplayName string
	PortName    string
	Alias       string

	IOType   port.Direction
	Kind     port.Kind
	clocking Clocking
	active   bool

	lastTick int64 // last tick observed by init_clock, for clock_send alignment
}

// NewInputBus constructs an input-side bus around api (typically opened
// by the caller against a Backend API realization before this call).
func NewInputBus(index int, info *client.Info, api midiapi.API) *Bus {
	return &Bus{Info: info, API: api, Index: index, IOType: port.DirectionInput, lastTick: message.NullPulse}
}

// NewOutputBus constructs an output-side bus, defaulting to ClockOff
// (enabled, but sending no clock).
func NewOutputBus(index int, info *client.Info, api midiapi.API) *Bus {
	return &Bus{Info: info, API: api, Index: index, IOType: port.DirectionOutput, clocking: ClockOff, lastTick: message.NullPulse}
}

// GetInPortInfo refreshes this bus's identifiers/names from the Client
// info's input port set at this bus's index.
func (b *Bus) GetInPortInfo() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	d, ok := b.Info.InputPorts.At(b.Index)
	if !ok {
		return false
	}
	b.applyDescriptor(d)
	return true
}

// GetOutPortInfo refreshes this bus's identifiers/names from the Client
// info's output port set at this bus's index.
func (b *Bus) GetOutPortInfo() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	d, ok := b.Info.OutputPorts.At(b.Index)
	if !ok {
		return false
	}
	b.applyDescriptor(d)
	return true
}

func (b *Bus) applyDescriptor(d port.Descriptor) {
	b.ClientID = d.ClientID
	b.PortID = d.PortID
	b.DisplayName = d.ClientName
	b.PortName = d.PortName
	b.Alias = d.Alias
	b.Kind = d.Kind
}

// InitInput enables or disables this input bus. A system port is always
// activated, with its clocking forced to "none" regardless of flag.
func (b *Bus) InitInput(flag bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.Kind == port.KindSystem {
		b.active = true
		b.clocking = ClockOff
		return
	}
	b.active = flag
}

// IsActive reports whether this bus currently accepts/produces MIDI.
func (b *Bus) IsActive() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.active
}

// SetActive sets the active flag directly (used by port_exit to mark a
// bus inactive when its underlying device disappears).
func (b *Bus) SetActive(active bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.active = active
}

// Clocking returns the current clocking state.
func (b *Bus) Clocking() Clocking {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.clocking
}

// SetClocking updates the clocking state.
func (b *Bus) SetClocking(c Clocking) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.clocking = c
}

// PollForMidi polls the backend for a pending message without consuming
// it, gated on the bus being active.
func (b *Bus) PollForMidi() bool {
	if !b.IsActive() {
		return false
	}
	return b.API.PollForMidi()
}

// GetMidiEvent pops the next pending message (if any) and tags it with
// this bus's index, gated on the bus being active.
func (b *Bus) GetMidiEvent(out *event.Event) bool {
	if !b.IsActive() {
		return false
	}
	delta, msg, ok := b.API.GetMessage()
	if !ok {
		return false
	}
	if !out.SetMidiEvent(delta, msg.Data, len(msg.Data)) {
		return false
	}
	out.InputBus = uint8(b.Index)
	return true
}

// InitClock computes the starting tick for a clock run and issues the
// matching transport message:
//   - pos-enabled and tick != 0: send Continue at tick.
//   - mod-enabled, or tick == 0: send Start; compute starting_tick by
//     rounding tick up to the next multiple of (ppqn/4 * clockMod), and
//     remember starting_tick-1 as the last tick observed.
func (b *Bus) InitClock(tick int64, ppqn int, clockMod int) bool {
	c := b.Clocking()
	switch {
	case c == ClockPosEnabled && tick != 0:
		ok := b.API.ClockContinue(tick, 0)
		b.mu.Lock()
		b.lastTick = tick
		b.mu.Unlock()
		return ok
	case c == ClockModEnabled || tick == 0:
		step := int64(ppqn/4) * int64(clockMod)
		starting := alignTick(tick, step)
		ok := b.API.ClockStart()
		b.mu.Lock()
		b.lastTick = starting - 1
		b.mu.Unlock()
		return ok
	default:
		return false
	}
}

// ClockSend issues a MIDI Clock byte if tick is past the last observed
// tick, advancing last_tick.
func (b *Bus) ClockSend(tick int64) bool {
	b.mu.Lock()
	if tick <= b.lastTick {
		b.mu.Unlock()
		return false
	}
	b.lastTick = tick
	b.mu.Unlock()
	return b.API.ClockSend(tick)
}

func (b *Bus) ClockStart() bool              { return b.API.ClockStart() }
func (b *Bus) ClockStop() bool               { return b.API.ClockStop() }
func (b *Bus) ClockContinue(tick int64) bool { return b.API.ClockContinue(tick, 0) }

// SendEvent applies a channel override to e's status byte and hands the
// resulting bytes to the backend.
func (b *Bus) SendEvent(e *event.Event, channel message.Channel) bool {
	return b.API.SendEvent(e.Msg.Data, channel)
}

// SendSysex hands e's raw bytes to the backend unmodified.
func (b *Bus) SendSysex(e *event.Event) bool {
	return b.API.SendSysex(e.Msg.Data)
}

// report forwards e to the shared Client info's error callback, or to a
// no-op if Info is nil (buses constructed without one, e.g. in tests).
func (b *Bus) report(e *errs.Error) {
	if b.Info != nil {
		b.Info.Report(e)
	}
}
