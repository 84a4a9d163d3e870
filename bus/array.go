package bus

import (
	"sync"

	"github.com/midirt/midirt/event"
	"github.com/midirt/midirt/message"
	"github.com/midirt/midirt/port"
)

// Array is an insertion-ordered sequence of Bus unique-ownership handles,
// indexable by bus index, providing fan-out for clock and enable/disable
// operations.
type Array struct {
	mu    sync.Mutex
	buses []*Bus

	ppqn     int
	clockMod int
}

// NewArray returns an empty Array configured with the given PPQN and
// clock-mod granularity (DefaultClockMod if clockMod <= 0).
func NewArray(ppqn int, clockMod int) *Array {
	if clockMod <= 0 {
		clockMod = DefaultClockMod
	}
	return &Array{ppqn: ppqn, clockMod: clockMod}
}

// Add appends b, returning its new index in the array.
func (a *Array) Add(b *Bus) int {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.buses = append(a.buses, b)
	return len(a.buses) - 1
}

// Len returns the number of buses held.
func (a *Array) Len() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.buses)
}

func (a *Array) at(i int) (*Bus, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if i < 0 || i >= len(a.buses) {
		return nil, false
	}
	return a.buses[i], true
}

// snapshot returns a copy of the bus slice, safe to range over without
// holding the array's lock (avoids deadlocking against a bus's own lock
// during fan-out).
func (a *Array) snapshot() []*Bus {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]*Bus, len(a.buses))
	copy(out, a.buses)
	return out
}

// Initialize calls GetOutPortInfo/GetInPortInfo on every held bus,
// continuing past individual failures.
func (a *Array) Initialize(input bool) {
	for _, b := range a.snapshot() {
		if input {
			b.GetInPortInfo()
		} else {
			b.GetOutPortInfo()
		}
	}
}

// ClockStart fans ClockStart out to every bus in the array whose clocking
// is not ClockDisabled.
func (a *Array) ClockStart() {
	for _, b := range a.snapshot() {
		if b.Clocking() != ClockDisabled {
			b.ClockStart()
		}
	}
}

// ClockStop fans ClockStop out to every bus in the array whose clocking
// is not ClockDisabled.
func (a *Array) ClockStop() {
	for _, b := range a.snapshot() {
		if b.Clocking() != ClockDisabled {
			b.ClockStop()
		}
	}
}

// ClockContinue fans ClockContinue out to every bus in the array whose
// clocking is not ClockDisabled.
func (a *Array) ClockContinue(tick int64) {
	for _, b := range a.snapshot() {
		if b.Clocking() != ClockDisabled {
			b.ClockContinue(tick)
		}
	}
}

// InitClock fans InitClock out to every bus in the array whose clocking is
// not ClockDisabled, using the array's configured PPQN/clock-mod.
func (a *Array) InitClock(tick int64) {
	for _, b := range a.snapshot() {
		if b.Clocking() != ClockDisabled {
			b.InitClock(tick, a.ppqn, a.clockMod)
		}
	}
}

// SetClock sets the clocking state on every bus in the array.
func (a *Array) SetClock(c Clocking) {
	for _, b := range a.snapshot() {
		b.SetClocking(c)
	}
}

// SetClockAt sets the clocking state on the bus at index i.
func (a *Array) SetClockAt(i int, c Clocking) bool {
	b, ok := a.at(i)
	if !ok {
		return false
	}
	b.SetClocking(c)
	return true
}

// GetClockAt returns the clocking state of the bus at index i, or
// ClockUnavailable if i is out of range.
func (a *Array) GetClockAt(i int) Clocking {
	b, ok := a.at(i)
	if !ok {
		return ClockUnavailable
	}
	return b.Clocking()
}

// SendEventAt forwards to the bus at index i.
func (a *Array) SendEventAt(i int, e *event.Event, channel message.Channel) bool {
	b, ok := a.at(i)
	if !ok {
		return false
	}
	return b.SendEvent(e, channel)
}

// SendSysexAt forwards to the bus at index i.
func (a *Array) SendSysexAt(i int, e *event.Event) bool {
	b, ok := a.at(i)
	if !ok {
		return false
	}
	return b.SendSysex(e)
}

// Panic sends All Notes Off (CC 123) on every channel to the bus at
// displayBus, or to every bus in the array if displayBus is negative.
// Returns false if any send failed; it still attempts every bus and
// channel rather than stopping at the first failure, since the point of
// a panic is to reach as many channels as possible.
func (a *Array) Panic(displayBus int) bool {
	ok := true
	for i := 0; i < a.Len(); i++ {
		if displayBus >= 0 && i != displayBus {
			continue
		}
		for ch := message.Channel(0); ch < 16; ch++ {
			e := event.New(0, message.ControlChange, 123, 0)
			if !a.SendEventAt(i, &e, ch) {
				ok = false
			}
		}
	}
	return ok
}

// GetMidiBusName returns the display name of the bus at index i.
func (a *Array) GetMidiBusName(i int) (string, bool) {
	b, ok := a.at(i)
	if !ok {
		return "", false
	}
	return b.DisplayName, true
}

// GetMidiPortName returns the port name of the bus at index i.
func (a *Array) GetMidiPortName(i int) (string, bool) {
	b, ok := a.at(i)
	if !ok {
		return "", false
	}
	return b.PortName, true
}

// GetMidiAlias returns the alias of the bus at index i.
func (a *Array) GetMidiAlias(i int) (string, bool) {
	b, ok := a.at(i)
	if !ok {
		return "", false
	}
	return b.Alias, true
}

// PortExit marks every bus whose (ClientID, PortID) matches the given
// client/port inactive — the device has disappeared.
func (a *Array) PortExit(clientID, portID int) {
	for _, b := range a.snapshot() {
		if b.ClientID == clientID && b.PortID == portID {
			b.SetActive(false)
		}
	}
}

// SetInput enables or disables the bus at index i (input arrays only).
func (a *Array) SetInput(i int, flag bool) bool {
	b, ok := a.at(i)
	if !ok {
		return false
	}
	b.InitInput(flag)
	return true
}

// SetAllInputs enables or disables every bus in the array.
func (a *Array) SetAllInputs(flag bool) {
	for _, b := range a.snapshot() {
		b.InitInput(flag)
	}
}

// GetInput reports whether the bus at index i currently accepts input:
// true only if active and either a system port or explicitly enabled.
func (a *Array) GetInput(i int) bool {
	b, ok := a.at(i)
	if !ok {
		return false
	}
	return b.IsActive()
}

// IsSystemPort reports whether the bus at index i is a system port.
func (a *Array) IsSystemPort(i int) bool {
	b, ok := a.at(i)
	if !ok {
		return false
	}
	return b.Kind == port.KindSystem
}

// IsPortUnavailable reports whether the bus at index i has clocking
// state Unavailable, or i is out of range.
func (a *Array) IsPortUnavailable(i int) bool {
	b, ok := a.at(i)
	if !ok {
		return true
	}
	return b.Clocking() == ClockUnavailable
}

// IsPortLocked reports whether the bus at index i is active (and so
// should not be silently reassigned to a different device).
func (a *Array) IsPortLocked(i int) bool {
	b, ok := a.at(i)
	if !ok {
		return false
	}
	return b.IsActive()
}

// PollForMidi polls buses in order, returning true as soon as any has a
// pending event.
func (a *Array) PollForMidi() bool {
	for _, b := range a.snapshot() {
		if b.PollForMidi() {
			return true
		}
	}
	return false
}

// GetMidiEvent polls buses in order, popping and tagging the first
// pending event found.
func (a *Array) GetMidiEvent(out *event.Event) bool {
	for _, b := range a.snapshot() {
		if b.GetMidiEvent(out) {
			return true
		}
	}
	return false
}

// ReplacementPort reassigns the bus at index i to a different backend
// port id, clearing its active flag so the caller can re-enable it once
// the new device is confirmed present.
func (a *Array) ReplacementPort(i int, portID int) bool {
	b, ok := a.at(i)
	if !ok {
		return false
	}
	b.mu.Lock()
	b.PortID = portID
	b.active = false
	b.mu.Unlock()
	return true
}
