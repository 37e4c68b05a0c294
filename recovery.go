package queueindex

import "os"

// recover_ scans every segment, computes live counts, delivers
// undelivered-transient messages (self-acking the non-persistent ones),
// replays the ack journal, and hands back a fresh State plus the
// reconstructed live-message count.
//
// Correctness: transient self-acks are never counted against
// totalMsgCount directly. They flow into the combined ack map below and
// are subtracted there, through the same intersection-against-the-live-set
// path as journal acks, so a message can't be double-acked and the count
// can't drift regardless of how many of the two sources name it.
func recover_(dir string, opts Options) (*State, uint64, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, 0, err
	}

	segNums, err := listSegmentNumbers(dir)
	if err != nil {
		return nil, 0, err
	}

	ackCounts := make(map[uint64]uint32)
	transientAcks := make(map[uint64]map[uint16]struct{})
	var totalMsgCount uint64

	for _, segNum := range segNums {
		segMap, ackCount, _, err := loadSegment(segNum, segmentPath(dir, segNum), nil)
		if err != nil {
			return nil, 0, err
		}
		totalMsgCount += uint64(len(segMap))
		if ackCount > 0 {
			ackCounts[segNum] = ackCount
		}

		var toMark, selfAcks []uint16
		for rel, e := range segMap {
			if e.delivered {
				continue
			}
			toMark = append(toMark, rel)
			if !e.persistent {
				selfAcks = append(selfAcks, rel)
			}
		}
		if len(toMark) > 0 {
			if err := appendDeliverMarks(dir, segNum, toMark); err != nil {
				return nil, 0, err
			}
			opts.Logger.Info("queueindex: remediated undelivered messages on recovery",
				"segment", segNum, "marked_delivered", len(toMark), "self_acked", len(selfAcks))
		}
		if len(selfAcks) > 0 {
			transientAcks[segNum] = toRelSet(selfAcks)
		}
	}

	journalAcks, err := readAckJournalFile(dir)
	if err != nil {
		return nil, 0, err
	}
	combined := mergeAckMaps(transientAcks, journalAcks)

	for segNum, relSet := range combined {
		segMap, _, _, err := loadSegment(segNum, segmentPath(dir, segNum), nil)
		if err != nil {
			return nil, 0, err
		}
		var toAck []uint16
		for rel := range relSet {
			if _, live := segMap[rel]; live {
				toAck = append(toAck, rel)
			}
		}
		if len(toAck) == 0 {
			continue
		}
		newCount, err := appendAcksToSegment(dir, segNum, ackCounts[segNum], toAck)
		if err != nil {
			return nil, 0, err
		}
		totalMsgCount -= uint64(len(toAck))
		if newCount >= S {
			delete(ackCounts, segNum)
			opts.Logger.Debug("queueindex: segment fully acked on recovery, deleted", "segment", segNum)
		} else {
			ackCounts[segNum] = newCount
		}
	}

	if err := removeAckJournalFile(dir); err != nil {
		return nil, 0, err
	}
	journal, err := openAckJournal(dir)
	if err != nil {
		return nil, 0, err
	}

	s := &State{
		dir:       dir,
		label:     queueLabel(dir),
		logger:    opts.Logger,
		metrics:   opts.Metrics,
		journal:   journal,
		ackCounts: ackCounts,
		liveCount: totalMsgCount,
	}
	s.handles.dir = dir
	s.observeLiveCount()
	if s.metrics != nil {
		s.metrics.journaledAcks.WithLabelValues(s.label).Set(0)
	}
	return s, totalMsgCount, nil
}

func toRelSet(rels []uint16) map[uint16]struct{} {
	set := make(map[uint16]struct{}, len(rels))
	for _, rel := range rels {
		set[rel] = struct{}{}
	}
	return set
}

// mergeAckMaps unions two segment-number -> rel-seq-set maps. Duplicates
// between the two sources are tolerated: the result is a set, and
// recover_ dedups again by intersecting with each segment's live rel-seqs
// before calling appendAcksToSegment.
func mergeAckMaps(a, b map[uint64]map[uint16]struct{}) map[uint64]map[uint16]struct{} {
	out := make(map[uint64]map[uint16]struct{}, len(a)+len(b))
	for _, src := range [2]map[uint64]map[uint16]struct{}{a, b} {
		for segNum, rels := range src {
			dst := out[segNum]
			if dst == nil {
				dst = make(map[uint16]struct{}, len(rels))
				out[segNum] = dst
			}
			for rel := range rels {
				dst[rel] = struct{}{}
			}
		}
	}
	return out
}
