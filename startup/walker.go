package startup

import (
	"log/slog"
	"path/filepath"

	"github.com/brokerd/queueindex"
)

// Walker is a pull-style iterator over every live message in every durable
// queue, structured queues -> segments (ascending boundary, only segments
// with a file on disk, per SegmentBoundaries) -> entries within a segment,
// already in ascending order.
// Each queue is opened lazily on first touch and closed once its
// remaining live count reaches zero, so a broker with many durable
// queues never needs more than one index open at a time.
type Walker struct {
	rootDir string
	names   []string // remaining durable queue directory names, not yet visited
	logger  *slog.Logger

	cur       *queueindex.State
	curDir    string
	bounds    []queueindex.SeqID
	boundsIdx int

	pending    []queueindex.Entry
	pendingIdx int
	remaining  uint64 // live messages left to yield from cur
}

func newWalker(rootDir string, durableDirNames []string, logger *slog.Logger) *Walker {
	return &Walker{rootDir: rootDir, names: durableDirNames, logger: logger}
}

// Next yields the next live message, in the traversal order described
// above. ok is false once every durable queue has been exhausted.
func (w *Walker) Next() (msg queueindex.MsgID, persistent bool, ok bool, err error) {
	for {
		if w.pendingIdx < len(w.pending) {
			e := w.pending[w.pendingIdx]
			w.pendingIdx++
			w.remaining--
			if w.remaining == 0 {
				if cerr := w.closeCurrent(); cerr != nil {
					return queueindex.MsgID{}, false, false, cerr
				}
			}
			return e.MsgID, e.Persistent, true, nil
		}

		if w.cur != nil && w.boundsIdx < len(w.bounds) {
			if err := w.loadNextSegment(); err != nil {
				return queueindex.MsgID{}, false, false, err
			}
			continue
		}

		if w.cur != nil {
			if err := w.closeCurrent(); err != nil {
				return queueindex.MsgID{}, false, false, err
			}
		}

		if len(w.names) == 0 {
			return queueindex.MsgID{}, false, false, nil
		}
		if err := w.openNext(); err != nil {
			return queueindex.MsgID{}, false, false, err
		}
	}
}

func (w *Walker) openNext() error {
	name := w.names[0]
	w.names = w.names[1:]
	dir := filepath.Join(w.rootDir, name)

	s, liveCount, err := queueindex.Open(dir, queueindex.Options{Logger: w.logger})
	if err != nil {
		return err
	}
	if liveCount == 0 {
		return s.Close()
	}
	bounds, err := s.SegmentBoundaries()
	if err != nil {
		s.Close()
		return err
	}

	w.cur = s
	w.curDir = dir
	w.remaining = liveCount
	w.bounds = bounds
	w.boundsIdx = 0
	w.pending = nil
	w.pendingIdx = 0
	return nil
}

func (w *Walker) loadNextSegment() error {
	init := w.bounds[w.boundsIdx]
	w.boundsIdx++
	entries, err := w.cur.ReadSegmentEntries(init)
	if err != nil {
		return err
	}
	w.pending = entries
	w.pendingIdx = 0
	return nil
}

func (w *Walker) closeCurrent() error {
	if w.cur == nil {
		return nil
	}
	err := w.cur.Close()
	w.cur = nil
	w.curDir = ""
	w.bounds = nil
	w.boundsIdx = 0
	w.pending = nil
	w.pendingIdx = 0
	return err
}
