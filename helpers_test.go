package queueindex

import (
	"log/slog"
	"strings"
	"testing"
)

// testLogger routes slog output through t.Log so test failures carry
// recovery/flush diagnostics inline instead of on stderr.
func testLogger(t testing.TB) *slog.Logger {
	return slog.New(slog.NewTextHandler(&logWriter{t}, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

type logWriter struct{ t testing.TB }

func (w *logWriter) Write(buf []byte) (int, error) {
	n := len(buf)
	w.t.Log(strings.TrimSuffix(string(buf), "\n"))
	return n, nil
}

func ensure(t testing.TB, err error) {
	if err != nil {
		t.Helper()
		t.Fatalf("** failed: %v", err)
	}
}

func eq[T comparable](t testing.TB, a, e T) {
	if a != e {
		t.Helper()
		t.Fatalf("** got %v, wanted %v", a, e)
	}
}

func newTestState(t testing.TB) (*State, string) {
	dir := t.TempDir()
	s, _, err := Open(dir, Options{Logger: testLogger(t)})
	ensure(t, err)
	t.Cleanup(func() { s.Close() })
	return s, dir
}

func msgID(b byte) MsgID {
	var id MsgID
	for i := range id {
		id[i] = b
	}
	return id
}
