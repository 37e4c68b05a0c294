package queueindex

import (
	"bufio"
	"io"
	"os"
	"path/filepath"
)

// ackJournal is the append-only log of full sequence ids acknowledging
// messages not yet reflected in their segment file. Unflushed acks are
// grouped in memory by segment number, each group a *set* of rel-seqs, so
// re-acking an already-journaled seq id before it flushes is a no-op.
type ackJournal struct {
	f       *os.File
	grouped map[uint64]map[uint16]struct{}
	count   int
}

func ackJournalPath(dir string) string {
	return filepath.Join(dir, AckJournalFileName)
}

// openAckJournal opens (creating if necessary) the ack journal for
// read+append and positions it at EOF, ready for write.
func openAckJournal(dir string) (*ackJournal, error) {
	f, err := os.OpenFile(ackJournalPath(dir), os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return nil, err
	}
	if _, err := f.Seek(0, io.SeekEnd); err != nil {
		f.Close()
		return nil, err
	}
	return &ackJournal{f: f, grouped: make(map[uint64]map[uint16]struct{})}, nil
}

// write appends each seq to the journal file and groups it in memory.
// Journal writes are not fsync'd per call: a lost journal tail on crash
// just replays as "ack not yet received", which recovery tolerates.
func (j *ackJournal) write(seqs []SeqID) error {
	if len(seqs) == 0 {
		return nil
	}
	buf := make([]byte, 0, len(seqs)*SeqBytes)
	for _, seq := range seqs {
		buf = encodeSeqID(buf, seq)
	}
	if _, err := j.f.Write(buf); err != nil {
		return err
	}
	for _, seq := range seqs {
		j.add(SegmentNumber(seq), RelSeq(seq))
	}
	return nil
}

func (j *ackJournal) add(segNum uint64, rel uint16) {
	set := j.grouped[segNum]
	if set == nil {
		set = make(map[uint16]struct{})
		j.grouped[segNum] = set
	}
	if _, dup := set[rel]; !dup {
		set[rel] = struct{}{}
		j.count++
	}
}

// pickSegment returns an arbitrary segment number with pending acks.
func (j *ackJournal) pickSegment() (uint64, bool) {
	for seg := range j.grouped {
		return seg, true
	}
	return 0, false
}

// takeAcks removes and returns the pending rel-seqs for seg.
func (j *ackJournal) takeAcks(seg uint64) []uint16 {
	set := j.grouped[seg]
	acks := make([]uint16, 0, len(set))
	for rel := range set {
		acks = append(acks, rel)
	}
	delete(j.grouped, seg)
	j.count -= len(acks)
	return acks
}

// truncate rewinds the journal file to empty once every pending ack has
// been scattered into its segment.
func (j *ackJournal) truncate() error {
	if err := j.f.Truncate(0); err != nil {
		return err
	}
	_, err := j.f.Seek(0, io.SeekStart)
	return err
}

func (j *ackJournal) close() error {
	return j.f.Close()
}

// readAckJournalFile reads a (possibly absent) ack_journal.jif in dir into
// a segment-number -> rel-seq-set map, used during recovery. A short read
// at EOF ends the scan silently, mirroring segment recovery.
func readAckJournalFile(dir string) (map[uint64]map[uint16]struct{}, error) {
	f, err := os.Open(ackJournalPath(dir))
	if err != nil {
		if os.IsNotExist(err) {
			return map[uint64]map[uint16]struct{}{}, nil
		}
		return nil, err
	}
	defer f.Close()

	result := make(map[uint64]map[uint16]struct{})
	r := bufio.NewReader(f)
	var tmp [SeqBytes]byte
	for {
		n, _ := io.ReadFull(r, tmp[:])
		if n < SeqBytes {
			break
		}
		seq, _ := decodeSeqID(tmp[:])
		segNum := SegmentNumber(seq)
		set := result[segNum]
		if set == nil {
			set = make(map[uint16]struct{})
			result[segNum] = set
		}
		set[RelSeq(seq)] = struct{}{}
	}
	return result, nil
}

func removeAckJournalFile(dir string) error {
	err := os.Remove(ackJournalPath(dir))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
