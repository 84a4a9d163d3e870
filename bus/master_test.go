package bus

import (
	"testing"

	"github.com/midirt/midirt/backend/dummy"
	"github.com/midirt/midirt/client"
	"github.com/midirt/midirt/midiapi"
	"github.com/midirt/midirt/port"
)

func newTestMaster(t *testing.T) *MasterBus {
	t.Helper()
	info := client.New("probe")
	engine := dummy.New(port.DirectionEngine)
	m := New("dummy", engine, info)
	if !m.EngineConnect() {
		t.Fatal("EngineConnect should succeed against the dummy backend")
	}
	if !m.EngineQuery() {
		t.Fatal("EngineQuery should succeed against the dummy backend")
	}
	return m
}

func TestEngineMakeBussesAllPorts(t *testing.T) {
	m := newTestMaster(t)
	m.EngineMakeBusses(true, -1, -1, func(d port.Direction) midiapi.API {
		return dummy.New(d)
	})

	if m.Inputs.Len() != m.Info.InputPorts.Len() {
		t.Fatalf("Inputs.Len() = %d, want %d", m.Inputs.Len(), m.Info.InputPorts.Len())
	}
	if m.Outputs.Len() != m.Info.OutputPorts.Len() {
		t.Fatalf("Outputs.Len() = %d, want %d", m.Outputs.Len(), m.Info.OutputPorts.Len())
	}
}

func TestSnapshotReflectsState(t *testing.T) {
	m := newTestMaster(t)
	m.EngineMakeBusses(false, 0, 0, func(d port.Direction) midiapi.API {
		return dummy.New(d)
	})

	s := m.Snapshot()
	if s.APIID != "dummy" {
		t.Fatalf("APIID = %q, want dummy", s.APIID)
	}
	if s.InputCount != 1 || s.OutputCount != 1 {
		t.Fatalf("Snapshot = %+v, want 1 input and 1 output bus", s)
	}
}

func TestMasterBusFlushAndPanic(t *testing.T) {
	m := newTestMaster(t)

	api := dummy.New(port.DirectionOutput)
	api.EngineConnect("c")
	api.OpenPort(0, "out")
	m.Outputs.Add(NewOutputBus(0, m.Info, api))

	if !m.Flush() {
		t.Fatal("Flush should succeed against an open dummy backend")
	}
	if !m.Panic(-1) {
		t.Fatal("Panic should succeed against an open dummy backend")
	}
	count := 0
	for {
		if _, _, ok := api.GetMessage(); !ok {
			break
		}
		count++
	}
	if count != 16 {
		t.Fatalf("observed %d messages after Panic, want 16", count)
	}
}

func TestPortExitPropagatesToBothArrays(t *testing.T) {
	m := newTestMaster(t)
	m.EngineMakeBusses(true, 0, 0, func(d port.Direction) midiapi.API {
		return dummy.New(d)
	})

	b, _ := m.Inputs.at(0)
	b.ClientID, b.PortID = 1, 1
	m.PortExit(1, 1)
	if b.IsActive() {
		t.Fatal("PortExit should deactivate the matching input bus")
	}
}
