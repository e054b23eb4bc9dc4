package g3d

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"sync"
	"testing"
)

// captureLogs routes g3d logging into a buffer for the rest of the test.
func captureLogs(t *testing.T, level slog.Level) *bytes.Buffer {
	t.Helper()
	orig := Logger()
	t.Cleanup(func() { SetLogger(orig) })

	var buf bytes.Buffer
	SetLogger(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: level})))
	return &buf
}

func TestNopHandler(t *testing.T) {
	h := nopHandler{}
	for _, level := range []slog.Level{slog.LevelDebug, slog.LevelInfo, slog.LevelWarn, slog.LevelError} {
		if h.Enabled(context.Background(), level) {
			t.Errorf("Enabled(%v) = true", level)
		}
	}
	if err := h.Handle(context.Background(), slog.Record{}); err != nil {
		t.Errorf("Handle() = %v", err)
	}
	if _, ok := h.WithAttrs([]slog.Attr{slog.String("k", "v")}).(nopHandler); !ok {
		t.Error("WithAttrs() should stay a nopHandler")
	}
	if _, ok := h.WithGroup("g").(nopHandler); !ok {
		t.Error("WithGroup() should stay a nopHandler")
	}
}

func TestLoggerDefaultSilent(t *testing.T) {
	l := Logger()
	if l == nil {
		t.Fatal("Logger() returned nil")
	}
	if l.Enabled(context.Background(), slog.LevelWarn) {
		t.Error("default logger should be disabled")
	}
}

func TestSetLoggerNilRestoresSilent(t *testing.T) {
	captureLogs(t, slog.LevelDebug)
	SetLogger(nil)
	if Logger() == nil || Logger().Enabled(context.Background(), slog.LevelError) {
		t.Error("SetLogger(nil) should install a disabled logger")
	}
}

func TestEngineLogsThroughSetLogger(t *testing.T) {
	buf := captureLogs(t, slog.LevelDebug)

	e := newTestEngine(t)
	d, err := e.NewBuffer([]byte{1, 2, 3, 4})
	if err != nil {
		t.Fatalf("NewBuffer() error = %v", err)
	}
	ib, err := NewIndexBufferBuilder().IndexCount(2).BufferType(IndexUShort).Build(e)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if err := ib.SetBuffer(e, d, 0); err != nil {
		t.Fatalf("SetBuffer() error = %v", err)
	}

	// "buffer created" comes from the device layer.
	out := buf.String()
	for _, want := range []string{"engine created", "index buffer built", "buffer created"} {
		if !strings.Contains(out, want) {
			t.Errorf("log output missing %q:\n%s", want, out)
		}
	}
}

func TestSnapshotIsLogged(t *testing.T) {
	buf := captureLogs(t, slog.LevelDebug)
	e := newTestEngine(t)

	s, err := e.Scratch(16)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Free()
	if _, err := e.NewBuffer(s.Bytes()); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "snapshotting") {
		t.Errorf("aliased source not logged:\n%s", buf.String())
	}
}

func TestLoggerConcurrentAccess(t *testing.T) {
	orig := Logger()
	t.Cleanup(func() { SetLogger(orig) })

	var wg sync.WaitGroup
	for range 50 {
		wg.Add(2)
		go func() {
			defer wg.Done()
			Logger().Debug("concurrent read")
		}()
		go func() {
			defer wg.Done()
			SetLogger(slog.Default())
			SetLogger(nil)
		}()
	}
	wg.Wait()
}

func BenchmarkLoggerDisabledLog(b *testing.B) {
	l := Logger()
	b.ReportAllocs()
	for b.Loop() {
		l.Debug("texture built", "width", 256, "height", 256)
	}
}
