package bus

import (
	"testing"

	"github.com/midirt/midirt/backend/dummy"
	"github.com/midirt/midirt/client"
	"github.com/midirt/midirt/event"
	"github.com/midirt/midirt/port"
)

func TestInitClockModAlignment(t *testing.T) {
	info := client.New("test")
	api := dummy.New(port.DirectionOutput)
	api.EngineConnect("test")
	api.OpenPort(0, "out")

	b := NewOutputBus(0, info, api)
	b.SetClocking(ClockModEnabled)

	if !b.InitClock(10, 192, 64) {
		t.Fatal("InitClock should succeed")
	}
	// starting_tick = ceil(10/3072)*3072 = 3072, last_tick = 3071.
	if b.lastTick != 3071 {
		t.Fatalf("lastTick = %d, want 3071", b.lastTick)
	}
}

func TestBusArrayFanOutSkipsDisabled(t *testing.T) {
	info := client.New("test")
	arr := NewArray(192, 64)

	enabledAPI := dummy.New(port.DirectionOutput)
	enabledAPI.EngineConnect("c")
	enabledAPI.OpenPort(0, "a")
	enabled := NewOutputBus(0, info, enabledAPI)
	enabled.SetClocking(ClockModEnabled)

	disabledAPI := dummy.New(port.DirectionOutput)
	disabledAPI.EngineConnect("c")
	disabledAPI.OpenPort(1, "b")
	disabled := NewOutputBus(1, info, disabledAPI)
	disabled.SetClocking(ClockDisabled)

	arr.Add(enabled)
	arr.Add(disabled)
	arr.ClockStart()

	if _, _, ok := enabledAPI.GetMessage(); !ok {
		t.Fatal("enabled bus should have observed a Start message")
	}
	if _, _, ok := disabledAPI.GetMessage(); ok {
		t.Fatal("disabled bus should not have observed any message")
	}
}

func TestArrayPanicSendsAllNotesOffOnEveryChannel(t *testing.T) {
	info := client.New("test")
	arr := NewArray(192, 64)

	api0 := dummy.New(port.DirectionOutput)
	api0.EngineConnect("c")
	api0.OpenPort(0, "a")
	arr.Add(NewOutputBus(0, info, api0))

	api1 := dummy.New(port.DirectionOutput)
	api1.EngineConnect("c")
	api1.OpenPort(1, "b")
	arr.Add(NewOutputBus(1, info, api1))

	if !arr.Panic(0) {
		t.Fatal("Panic(0) should succeed against open dummy backends")
	}
	count := 0
	for {
		if _, _, ok := api0.GetMessage(); !ok {
			break
		}
		count++
	}
	if count != 16 {
		t.Fatalf("bus 0 observed %d messages, want 16 (one All Notes Off per channel)", count)
	}
	if _, _, ok := api1.GetMessage(); ok {
		t.Fatal("Panic(0) should not touch bus 1")
	}

	if !arr.Panic(-1) {
		t.Fatal("Panic(-1) should succeed against every open bus")
	}
	if _, _, ok := api1.GetMessage(); !ok {
		t.Fatal("Panic(-1) should reach every bus, including bus 1")
	}
}

func TestInputBusPollAndGetGatedByActive(t *testing.T) {
	info := client.New("test")
	api := dummy.New(port.DirectionInput)
	api.EngineConnect("c")
	api.OpenPort(0, "in")

	b := NewInputBus(0, info, api)
	api.SendMessage([]byte{0x90, 60, 100})

	if b.PollForMidi() {
		t.Fatal("inactive bus should not report a pending event")
	}
	b.InitInput(true)
	if !b.PollForMidi() {
		t.Fatal("active bus should see the pending message")
	}
	var e event.Event
	if !b.GetMidiEvent(&e) {
		t.Fatal("GetMidiEvent should pop the pending message")
	}
	if e.InputBus != 0 {
		t.Fatalf("InputBus = %d, want 0", e.InputBus)
	}
}

func TestPortExitMarksMatchingBusesInactive(t *testing.T) {
	info := client.New("test")
	arr := NewArray(192, 64)
	api := dummy.New(port.DirectionInput)
	api.EngineConnect("c")
	api.OpenPort(0, "in")

	b := NewInputBus(0, info, api)
	b.ClientID, b.PortID = 5, 2
	b.InitInput(true)
	arr.Add(b)

	arr.PortExit(5, 2)
	if b.IsActive() {
		t.Fatal("PortExit should mark the matching bus inactive")
	}
}

func TestGetClockUnavailableOutOfRange(t *testing.T) {
	arr := NewArray(192, 64)
	if arr.GetClockAt(0) != ClockUnavailable {
		t.Fatal("GetClockAt on an empty array should be ClockUnavailable")
	}
}
