package bus

import (
	"sync"

	"github.com/midirt/midirt/client"
	"github.com/midirt/midirt/event"
	"github.com/midirt/midirt/message"
	"github.com/midirt/midirt/midiapi"
	"github.com/midirt/midirt/port"
)

// ClockAction names a transport action handle_clock dispatches.
type ClockAction int

const (
	ClockActionStart ClockAction = iota
	ClockActionStop
	ClockActionContinue
	ClockActionSend
)

// Engine is the capability MasterBus needs from a backend realization in
// its "engine" role: one instance per process, used for device
// detection/enumeration rather than data transfer.
type Engine interface {
	midiapi.API
}

// MasterBus is the top-level runtime object: the selected backend's
// engine instance, the shared Client info, and both input/output Bus
// arrays. mu guards MasterBus's own scalar fields; each Array and Bus
// carries its own lock.
//
// Go has no built-in recursive mutex; we avoid the need for one by never
// calling a locking method from within another locking method on the
// same receiver (each method takes the lock exactly once, for the
// shortest span that touches MasterBus's own fields).
type MasterBus struct {
	mu sync.Mutex

	APIID  string
	Engine Engine

	Info *client.Info

	Inputs  *Array
	Outputs *Array

	PPQN int
	BPM  float64
}

// New constructs a MasterBus around an already-selected engine backend
// and a freshly built Client info.
func New(apiID string, engine Engine, info *client.Info) *MasterBus {
	ppqn, bpm := info.GetPPQNBPM()
	return &MasterBus{
		APIID:   apiID,
		Engine:  engine,
		Info:    info,
		Inputs:  NewArray(ppqn, DefaultClockMod),
		Outputs: NewArray(ppqn, DefaultClockMod),
		PPQN:    ppqn,
		BPM:     bpm,
	}
}

// EngineInitialize probes the backend and populates the Client info with
// the resulting PPQN/BPM.
func (m *MasterBus) EngineInitialize(ppqn int, bpm float64) bool {
	if !m.Engine.Initialize(m.Info.ClientName) {
		return false
	}
	m.mu.Lock()
	m.PPQN, m.BPM = ppqn, bpm
	m.mu.Unlock()
	m.Info.SetPPQNBPM(ppqn, bpm)
	return true
}

// EngineQuery probes the backend and populates the Client info's port
// sets from it.
func (m *MasterBus) EngineQuery() bool {
	in := m.Engine.GetIOPortInfo(m.Info.InputPorts, true)
	out := m.Engine.GetIOPortInfo(m.Info.OutputPorts, true)
	return in >= 0 && out >= 0
}

// EngineActivate activates the engine backend.
func (m *MasterBus) EngineActivate() bool {
	return m.Engine.EngineActivate()
}

// EngineConnect connects the engine backend under the Client's name.
func (m *MasterBus) EngineConnect() bool {
	ok := m.Engine.EngineConnect(m.Info.ClientName)
	m.Info.SetConnected(ok)
	return ok
}

// EngineMakeBusses builds one input bus and one output bus (or all of
// them, if inputPort/outputPort is -1 meaning "all") using the given
// Backend API factory, wiring each into this MasterBus's arrays.
//
// newAPI is supplied by the caller (a concrete backend constructor, e.g.
// dummy.New or a future alsa.New) since MasterBus itself is
// backend-agnostic.
func (m *MasterBus) EngineMakeBusses(autoconnect bool, inputPort, outputPort int, newAPI func(direction port.Direction) midiapi.API) {
	addInput := func(idx int) {
		api := newAPI(port.DirectionInput)
		b := NewInputBus(idx, m.Info, api)
		b.GetInPortInfo()
		b.InitInput(autoconnect)
		m.Inputs.Add(b)
	}
	addOutput := func(idx int) {
		api := newAPI(port.DirectionOutput)
		b := NewOutputBus(idx, m.Info, api)
		b.GetOutPortInfo()
		m.Outputs.Add(b)
	}

	if inputPort < 0 {
		for i := 0; i < m.Info.InputPorts.Len(); i++ {
			addInput(i)
		}
	} else {
		addInput(inputPort)
	}

	if outputPort < 0 {
		for i := 0; i < m.Info.OutputPorts.Len(); i++ {
			addOutput(i)
		}
	} else {
		addOutput(outputPort)
	}
}

// HandleClock dispatches a single transport action to the output bus
// array.
func (m *MasterBus) HandleClock(action ClockAction, ts int64) {
	switch action {
	case ClockActionStart:
		m.Outputs.ClockStart()
	case ClockActionStop:
		m.Outputs.ClockStop()
	case ClockActionContinue:
		m.Outputs.ClockContinue(ts)
	case ClockActionSend:
		for _, b := range m.Outputs.snapshot() {
			b.ClockSend(ts)
		}
	}
}

// Play forwards e to the output bus at index bus with the given channel
// override.
func (m *MasterBus) Play(bus int, e *event.Event, channel message.Channel) bool {
	return m.Outputs.SendEventAt(bus, e, channel)
}

// PlayAndFlush forwards e and immediately flushes the backend's output.
func (m *MasterBus) PlayAndFlush(bus int, e *event.Event, channel message.Channel) bool {
	b, ok := m.Outputs.at(bus)
	if !ok {
		return false
	}
	if !b.SendEvent(e, channel) {
		return false
	}
	return b.API.FlushPort()
}

// Flush flushes every output bus's backend. Returns false if any
// backend's FlushPort failed; it still flushes every bus rather than
// stopping at the first failure.
func (m *MasterBus) Flush() bool {
	ok := true
	for _, b := range m.Outputs.snapshot() {
		if !b.API.FlushPort() {
			ok = false
		}
	}
	return ok
}

// Panic sends All Notes Off to the output bus at displayBus, or to every
// output bus if displayBus is negative.
func (m *MasterBus) Panic(displayBus int) bool {
	return m.Outputs.Panic(displayBus)
}

// SetClock sets the clocking state of the output bus at index bus.
func (m *MasterBus) SetClock(busIdx int, c Clocking) bool {
	return m.Outputs.SetClockAt(busIdx, c)
}

// SaveClock is an alias of SetClock kept distinct at the call site: a
// persisted preference and a live override use the same mechanism here.
func (m *MasterBus) SaveClock(busIdx int, c Clocking) bool {
	return m.SetClock(busIdx, c)
}

// GetClock returns the clocking state of the output bus at index bus.
func (m *MasterBus) GetClock(busIdx int) Clocking {
	return m.Outputs.GetClockAt(busIdx)
}

// SetInput enables or disables the input bus at index bus.
func (m *MasterBus) SetInput(busIdx int, flag bool) bool {
	return m.Inputs.SetInput(busIdx, flag)
}

// SaveInput mirrors SaveClock for input enable state.
func (m *MasterBus) SaveInput(busIdx int, flag bool) bool {
	return m.SetInput(busIdx, flag)
}

// GetInput reports whether the input bus at index bus currently accepts
// input.
func (m *MasterBus) GetInput(busIdx int) bool {
	return m.Inputs.GetInput(busIdx)
}

// GetMidiBusName returns the display name of the bus at index busIdx in
// the given direction's array.
func (m *MasterBus) GetMidiBusName(busIdx int, direction port.Direction) (string, bool) {
	if direction == port.DirectionInput {
		return m.Inputs.GetMidiBusName(busIdx)
	}
	return m.Outputs.GetMidiBusName(busIdx)
}

// PollForMidi polls the input bus array in order.
func (m *MasterBus) PollForMidi() bool {
	return m.Inputs.PollForMidi()
}

// GetMidiEvent pops the next pending input event, tagged with its bus.
func (m *MasterBus) GetMidiEvent(out *event.Event) bool {
	return m.Inputs.GetMidiEvent(out)
}

// PortStart is the hook for a newly appeared backend port. It does
// nothing: neither bus array is notified and no bus changes.
func (m *MasterBus) PortStart(clientID, portID int) {}

// PortExit marks every bus in both arrays matching clientID/portID
// inactive.
func (m *MasterBus) PortExit(clientID, portID int) {
	m.Inputs.PortExit(clientID, portID)
	m.Outputs.PortExit(clientID, portID)
}

// Snapshot is a point-in-time copy of the master bus's scalar state,
// useful for a status display or a health-check endpoint without holding
// MasterBus's internals open to the caller.
type Snapshot struct {
	APIID       string
	PPQN        int
	BPM         float64
	Connected   bool
	InputCount  int
	OutputCount int
}

// Snapshot returns a Snapshot of this MasterBus's current state.
func (m *MasterBus) Snapshot() Snapshot {
	m.mu.Lock()
	s := Snapshot{APIID: m.APIID, PPQN: m.PPQN, BPM: m.BPM}
	m.mu.Unlock()
	s.Connected = m.Info.IsConnected()
	s.InputCount = m.Inputs.Len()
	s.OutputCount = m.Outputs.Len()
	return s
}
