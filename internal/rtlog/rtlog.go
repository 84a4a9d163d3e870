// Package rtlog wraps log/slog the way the original logger package does
// (a package-level handler configured once by level, a getter that falls
// back to slog.Default()), and adds an allocation-free recorder a real-time
// context (the JACK process callback, the ALSA reader thread) can use
// without ever calling into slog directly on the hot path.
package rtlog

import (
	"context"
	"log/slog"
	"os"
	"sync/atomic"
	"time"
)

var global atomic.Pointer[slog.Logger]

// Init configures the package logger for the given level ("debug", "info",
// "warn", "error"). Unknown levels fall back to "info".
func Init(level string) {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	h := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})
	l := slog.New(h)
	global.Store(l)
	slog.SetDefault(l)
}

// Logger returns the configured logger, or slog.Default() if Init was
// never called.
func Logger() *slog.Logger {
	if l := global.Load(); l != nil {
		return l
	}
	return slog.Default()
}

func Info(msg string, args ...any)  { Logger().Info(msg, args...) }
func Warn(msg string, args ...any)  { Logger().Warn(msg, args...) }
func Error(msg string, args ...any) { Logger().Error(msg, args...) }
func Debug(msg string, args ...any) { Logger().Debug(msg, args...) }

// rtRecord is one deferred log line captured from a real-time context.
type rtRecord struct {
	level slog.Level
	msg   string
	n     int64 // generic numeric field (e.g. a dropped count, a tick)
}

// RTRecorder is a fixed-capacity, lock-free SPSC ring a single real-time
// producer can record into without allocating or blocking; a non-RT
// goroutine (started via StartDraining) periodically calls Drain to flush
// accumulated records through the normal slog path. Overflow silently
// drops the oldest-pending record rather than ever blocking the producer.
// head/tail are atomics, the same SPSC discipline queue.Queue and the jack
// backend's output ring use, since Record (the RT producer) and Drain (the
// draining goroutine) run concurrently with no shared lock.
type RTRecorder struct {
	buf  []rtRecord
	cap  uint32
	head atomic.Uint32
	tail atomic.Uint32
}

// NewRTRecorder returns a recorder with room for capacity pending records.
func NewRTRecorder(capacity int) *RTRecorder {
	if capacity < 1 {
		capacity = 1
	}
	return &RTRecorder{buf: make([]rtRecord, capacity), cap: uint32(capacity)}
}

// Record captures one record without allocating (msg must be a literal or
// otherwise pre-existing string; no formatting happens here). Safe to call
// from the sole real-time producer goroutine.
func (r *RTRecorder) Record(level slog.Level, msg string, n int64) {
	tail := r.tail.Load()
	if tail-r.head.Load() >= r.cap {
		r.head.Add(1) // drop oldest pending rather than block the producer
	}
	r.buf[tail%r.cap] = rtRecord{level: level, msg: msg, n: n}
	r.tail.Store(tail + 1)
}

// Drain flushes every pending record through the package logger. Call this
// from a non-real-time goroutine only (StartDraining's goroutine, or a
// caller observing the same contract).
func (r *RTRecorder) Drain() {
	for {
		head := r.head.Load()
		if head == r.tail.Load() {
			return
		}
		rec := r.buf[head%r.cap]
		r.head.Store(head + 1)
		Logger().Log(context.Background(), rec.level, rec.msg, slog.Int64("n", rec.n))
	}
}

// StartDraining launches the non-RT goroutine this type's doc comment
// promises: it calls Drain every interval so records a real-time producer
// left pending actually reach the package logger instead of sitting in the
// ring forever. Call stop to flush one last time and terminate the
// goroutine (e.g. on process shutdown); StartDraining itself is meant to be
// called once per recorder, guarded by a sync.Once at the call site if the
// recorder is shared.
func (r *RTRecorder) StartDraining(interval time.Duration) (stop func()) {
	done := make(chan struct{})
	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		t := time.NewTicker(interval)
		defer t.Stop()
		for {
			select {
			case <-t.C:
				r.Drain()
			case <-done:
				r.Drain()
				return
			}
		}
	}()
	return func() {
		close(done)
		<-stopped
	}
}
