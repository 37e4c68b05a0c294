package main

import (
	"bytes"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/brokerd/queueindex"
)

func TestRun_printsSummary(t *testing.T) {
	dir := t.TempDir()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	s, _, err := queueindex.Open(dir, queueindex.Options{Logger: logger})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	var id queueindex.MsgID
	for i := range id {
		id[i] = 0x7
	}
	if err := s.WritePublished(id[:], 0, true); err != nil {
		t.Fatalf("WritePublished: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	var buf bytes.Buffer
	if err := run(dir, logger, &buf); err != nil {
		t.Fatalf("run: %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, "live messages: 1") {
		t.Fatalf("output missing live message count: %q", out)
	}
	if !strings.Contains(out, "segment 0") {
		t.Fatalf("output missing segment summary: %q", out)
	}
}
