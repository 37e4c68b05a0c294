package queueindex

import (
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"
)

// Options configures a State, with defaults applied in Open.
type Options struct {
	// Logger receives structured recovery/flush diagnostics. Defaults to
	// slog.Default().
	Logger *slog.Logger
	// Metrics, when non-nil, records live/journaled counts and flush
	// durations. Entirely optional; every call site is nil-checked.
	Metrics *Metrics
}

// State is the in-memory index state of one queue: the open segment
// handle, the journal handle, the journaled-but-not-yet-flushed acks, and
// per-segment ack counts. One State is owned by one logical actor; all
// public methods are single-threaded with respect to a given State. The
// mutex below does not relax that contract; it serialises the public
// methods, so a caller that accidentally shares a State across goroutines
// does not interleave writes to the directory.
type State struct {
	mu sync.Mutex

	dir   string
	label string // directory basename, used as the metrics/log queue label

	logger  *slog.Logger
	metrics *Metrics

	handles   segmentHandles
	journal   *ackJournal
	ackCounts map[uint64]uint32 // segNum -> ack count, for segments with count > 0

	liveCount uint64
	closed    bool
	poisoned  error
}

// Open runs the recovery pipeline against dir, creating it if necessary,
// and returns the reconstructed live-message count alongside a
// ready-to-use State.
func Open(dir string, opts Options) (*State, uint64, error) {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return recover_(dir, opts)
}

func (s *State) checkState() error {
	if s.poisoned != nil {
		return ErrClosed
	}
	if s.closed {
		return ErrClosed
	}
	return nil
}

// fail records err as a fatal, unrecoverable condition for this State:
// every subsequent public call returns ErrClosed until the caller
// reopens via Open.
func (s *State) fail(op string, err error) error {
	wrapped := &ioError{op: op, err: err}
	s.poisoned = wrapped
	s.logger.Error("queueindex: io error, state poisoned",
		"queue", s.label, "op", op, "err", err)
	return wrapped
}

// WritePublished appends one publish record for seq. msgID must be
// exactly MsgIDBytes long or ErrInvalidMessageID is returned and no state
// is mutated. The caller guarantees strictly increasing seq across calls.
func (s *State) WritePublished(msgID []byte, seq SeqID, persistent bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkState(); err != nil {
		return err
	}
	if len(msgID) != MsgIDBytes {
		return ErrInvalidMessageID
	}
	var id MsgID
	copy(id[:], msgID)

	f, err := s.handles.get(SegmentNumber(seq))
	if err != nil {
		return s.fail("write_published", err)
	}
	buf := encodePublish(make([]byte, 0, publishRecordSize), RelSeq(seq), id, persistent)
	if _, err := f.Write(buf); err != nil {
		return s.fail("write_published", err)
	}

	s.liveCount++
	s.observeLiveCount()
	return nil
}

// WriteDelivered appends one deliver-only record for seq.
func (s *State) WriteDelivered(seq SeqID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkState(); err != nil {
		return err
	}
	f, err := s.handles.get(SegmentNumber(seq))
	if err != nil {
		return s.fail("write_delivered", err)
	}
	buf := encodeDeliverOrAck(make([]byte, 0, deliverRecordSize), RelSeq(seq))
	if _, err := f.Write(buf); err != nil {
		return s.fail("write_delivered", err)
	}
	return nil
}

// WriteAcks journals each seq id for later scatter into its segment.
// Acking the same seq id twice before it is flushed is a no-op the
// second time. If the journal grows past JournalHWM this call triggers a
// flush cycle before returning.
func (s *State) WriteAcks(seqs []SeqID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkState(); err != nil {
		return err
	}
	if len(seqs) == 0 {
		return nil
	}
	if err := s.journal.write(seqs); err != nil {
		return s.fail("write_acks", err)
	}
	if s.metrics != nil {
		s.metrics.journaledAcks.WithLabelValues(s.label).Set(float64(s.journal.count))
	}
	if s.journal.count > JournalHWM {
		if _, err := s.flushLocked(); err != nil {
			return err
		}
	}
	return nil
}

// FlushJournal drains the ack journal incrementally: one call scatters at
// most one segment's worth of acks, unless the journal is still above
// JournalHWM afterwards, in which case it keeps draining. more reports
// whether journaled acks remain for the caller to flush again when
// convenient.
func (s *State) FlushJournal() (more bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkState(); err != nil {
		return false, err
	}
	return s.flushLocked()
}

func (s *State) flushLocked() (bool, error) {
	if s.metrics != nil {
		start := time.Now()
		defer func() { s.metrics.flushDuration.Observe(time.Since(start).Seconds()) }()
	}
	for {
		segNum, ok := s.journal.pickSegment()
		if !ok {
			return false, nil
		}
		if s.handles.isOpenOn(segNum) {
			if err := s.handles.closeCurrent(); err != nil {
				return false, s.fail("flush_journal", err)
			}
		}
		acks := s.journal.takeAcks(segNum)
		newCount, err := appendAcksToSegment(s.dir, segNum, s.ackCounts[segNum], acks)
		if err != nil {
			return false, s.fail("flush_journal", err)
		}
		if newCount >= S {
			delete(s.ackCounts, segNum)
			s.logger.Debug("queueindex: segment fully acked, deleted", "queue", s.label, "segment", segNum)
			if s.metrics != nil {
				s.metrics.segmentsDeleted.WithLabelValues(s.label).Inc()
			}
		} else {
			s.ackCounts[segNum] = newCount
		}

		s.liveCount -= uint64(len(acks))
		s.observeLiveCount()
		if s.metrics != nil {
			s.metrics.journaledAcks.WithLabelValues(s.label).Set(float64(s.journal.count))
		}

		if s.journal.count == 0 {
			if err := s.journal.truncate(); err != nil {
				return false, s.fail("flush_journal", err)
			}
			return false, nil
		}
		if s.journal.count <= JournalHWM {
			return true, nil
		}
		// still above the high-water mark: keep draining
	}
}

// ReadSegmentEntries loads the segment containing init (which must be a
// segment boundary) and returns its live entries in ascending seq-id
// order, with any journaled-but-unflushed acks already applied.
func (s *State) ReadSegmentEntries(init SeqID) ([]Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkState(); err != nil {
		return nil, err
	}
	if RelSeq(init) != 0 {
		return nil, ErrNotOnBoundary
	}
	segNum := SegmentNumber(init)
	segMap, _, _, err := loadSegment(segNum, segmentPath(s.dir, segNum), s.journal.grouped[segNum])
	if err != nil {
		return nil, s.fail("read_segment_entries", err)
	}

	rels := make([]uint16, 0, len(segMap))
	for rel := range segMap {
		rels = append(rels, rel)
	}
	sort.Slice(rels, func(i, j int) bool { return rels[i] < rels[j] })

	entries := make([]Entry, 0, len(rels))
	for _, rel := range rels {
		e := segMap[rel]
		entries = append(entries, Entry{
			MsgID:      e.id,
			SeqID:      SeqIDOf(segNum, rel),
			Persistent: e.persistent,
			Delivered:  e.delivered,
		})
	}
	return entries, nil
}

// NextSegmentBoundary is the package-level boundary helper re-exposed as
// a method for callers already holding a *State.
func (s *State) NextSegmentBoundary(seq SeqID) SeqID {
	return NextSegmentBoundary(seq)
}

// Bounds returns the lowest segment boundary and the next never-yet-used
// sequence id across all of this queue's segments, or (0, 0) if the queue
// has none.
func (s *State) Bounds() (lowest, next SeqID, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkState(); err != nil {
		return 0, 0, err
	}
	segNums, err := listSegmentNumbers(s.dir)
	if err != nil {
		return 0, 0, s.fail("bounds", err)
	}
	if len(segNums) == 0 {
		return 0, 0, nil
	}
	lo := segNums[0]
	hi := segNums[len(segNums)-1]
	_, _, highRel, err := loadSegment(hi, segmentPath(s.dir, hi), nil)
	if err != nil {
		return 0, 0, s.fail("bounds", err)
	}
	if highRel < 0 {
		// Segment file exists (it's in segNums) but holds no publish
		// record we could read; treat as empty for boundary purposes.
		return SeqID(lo * S), SeqID(hi * S), nil
	}
	return SeqID(lo * S), SeqID(hi*S+uint64(highRel)) + 1, nil
}

// SegmentBoundaries returns the ascending list of starting sequence ids of
// every segment that currently has a file on disk. Unlike Bounds, which
// only reports the overall low/high range, this enumerates every segment
// in between, including gaps left by fully-acked segments that were
// deleted, which the startup walker needs to stride across a queue
// without assuming segment numbers are contiguous.
func (s *State) SegmentBoundaries() ([]SeqID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkState(); err != nil {
		return nil, err
	}
	segNums, err := listSegmentNumbers(s.dir)
	if err != nil {
		return nil, s.fail("segment_boundaries", err)
	}
	bounds := make([]SeqID, len(segNums))
	for i, n := range segNums {
		bounds[i] = SeqID(n * S)
	}
	return bounds, nil
}

// Stats is a snapshot for introspection tools (cmd/qindexctl); it is not
// part of the flush or recovery contract.
func (s *State) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Stats{
		LiveMessages:  s.liveCount,
		JournaledAcks: s.journal.count,
		AckedSegments: len(s.ackCounts),
	}
}

// Close drains the ack journal completely, then syncs and closes the
// current segment handle and the journal handle. Subsequent writes on
// this State are forbidden; reopen via Open.
func (s *State) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	for {
		more, err := s.flushLocked()
		if err != nil {
			return err
		}
		if !more {
			break
		}
	}
	handleErr := s.handles.closeCurrent()
	journalErr := s.journal.close()
	s.closed = true
	if handleErr != nil {
		return handleErr
	}
	return journalErr
}

// CloseAndErase closes the State, then recursively deletes its queue
// directory.
func (s *State) CloseAndErase() error {
	s.mu.Lock()
	dir := s.dir
	s.mu.Unlock()
	if err := s.Close(); err != nil {
		return err
	}
	return os.RemoveAll(dir)
}

func (s *State) observeLiveCount() {
	if s.metrics != nil {
		s.metrics.liveMessages.WithLabelValues(s.label).Set(float64(s.liveCount))
	}
}

func queueLabel(dir string) string {
	return filepath.Base(filepath.Clean(dir))
}
