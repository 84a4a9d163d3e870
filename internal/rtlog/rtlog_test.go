package rtlog

import (
	"log/slog"
	"testing"
	"time"
)

func TestRTRecorderDrainOrderAndOverflow(t *testing.T) {
	r := NewRTRecorder(2)
	r.Record(slog.LevelWarn, "dropped", 1)
	r.Record(slog.LevelWarn, "dropped", 2)
	r.Record(slog.LevelWarn, "dropped", 3) // overflows, evicts n=1

	if r.head.Load() == r.tail.Load() {
		t.Fatal("expected pending records before Drain")
	}
	r.Drain() // exercised for its side effect; nothing to assert without a handler hook
	if r.head.Load() != r.tail.Load() {
		t.Fatal("Drain should flush every pending record")
	}
}

func TestLoggerFallsBackToDefault(t *testing.T) {
	if Logger() == nil {
		t.Fatal("Logger() should never return nil")
	}
}

func TestStartDrainingFlushesOnTickAndOnStop(t *testing.T) {
	r := NewRTRecorder(4)
	stop := r.StartDraining(5 * time.Millisecond)

	r.Record(slog.LevelWarn, "ticked", 1)
	deadline := time.Now().Add(time.Second)
	for r.head.Load() != r.tail.Load() && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	if r.head.Load() != r.tail.Load() {
		t.Fatal("expected the ticker to drain the pending record")
	}

	r.Record(slog.LevelWarn, "final", 2)
	stop()
	if r.head.Load() != r.tail.Load() {
		t.Fatal("expected stop to flush one last time before returning")
	}
}
