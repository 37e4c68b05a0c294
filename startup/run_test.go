package startup_test

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/brokerd/queueindex"
	"github.com/brokerd/queueindex/startup"
)

type fakeCatalog struct {
	durable map[string]bool
}

func (c *fakeCatalog) IsDurable(name string) bool { return c.durable[name] }
func (c *fakeCatalog) DurableNames() ([]string, error) {
	names := make([]string, 0, len(c.durable))
	for n := range c.durable {
		names = append(names, n)
	}
	return names, nil
}

type recordingStore struct {
	msgs []queueindex.MsgID
}

func (s *recordingStore) Recover(w *startup.Walker) error {
	for {
		msg, _, ok, err := w.Next()
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		s.msgs = append(s.msgs, msg)
	}
}

func TestRun_deletesTransientAndWalksDurable(t *testing.T) {
	root := t.TempDir()
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	durableDir := filepath.Join(root, queueindex.EncodeQueueDirName("orders"))
	transientDir := filepath.Join(root, queueindex.EncodeQueueDirName("scratch"))

	durableState, _, err := queueindex.Open(durableDir, queueindex.Options{Logger: logger})
	if err != nil {
		t.Fatalf("opening durable queue: %v", err)
	}
	var id queueindex.MsgID
	for i := range id {
		id[i] = 0x42
	}
	if err := durableState.WritePublished(id[:], 0, true); err != nil {
		t.Fatalf("publishing: %v", err)
	}
	if err := durableState.Close(); err != nil {
		t.Fatalf("closing durable queue: %v", err)
	}

	transientState, _, err := queueindex.Open(transientDir, queueindex.Options{Logger: logger})
	if err != nil {
		t.Fatalf("opening transient queue: %v", err)
	}
	if err := transientState.Close(); err != nil {
		t.Fatalf("closing transient queue: %v", err)
	}

	catalog := &fakeCatalog{durable: map[string]bool{"orders": true}}
	store := &recordingStore{}

	if err := startup.Run(root, catalog, store, logger); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if _, err := os.Stat(transientDir); !os.IsNotExist(err) {
		t.Fatalf("expected transient queue directory to be deleted")
	}
	if _, err := os.Stat(durableDir); err != nil {
		t.Fatalf("expected durable queue directory to survive: %v", err)
	}
	if len(store.msgs) != 1 || store.msgs[0] != id {
		t.Fatalf("expected walker to yield the one durable message, got %v", store.msgs)
	}
}
