package queueindex

import "encoding/binary"

// Record codec. Two record kinds share one segment file, distinguished by
// the high bit of their first byte; a third, fixed 8-byte kind lives only
// in the ack journal. There is no checksum or trailer on any of them: a
// torn trailing record at EOF is a normal crash artifact, not an error.
type recordKind uint8

const (
	kindDeliverOrAck recordKind = iota
	kindPublish
)

// encodeDeliverOrAck appends a 2-byte deliver-only (or, on replay,
// journal-ack) record for rel to buf and returns the grown slice.
func encodeDeliverOrAck(buf []byte, rel uint16) []byte {
	return append(buf, byte(rel>>8)&0x3f, byte(rel))
}

// encodePublish appends an 18-byte publish record for rel/id/persistent to
// buf and returns the grown slice.
func encodePublish(buf []byte, rel uint16, id MsgID, persistent bool) []byte {
	b0 := byte(0x80) | byte(rel>>8)&0x3f
	if persistent {
		b0 |= 0x40
	}
	buf = append(buf, b0, byte(rel))
	return append(buf, id[:]...)
}

// decodeRecord reads one record from the front of b. ok is false if b does
// not hold a complete record (a torn tail at EOF); callers must stop
// scanning in that case rather than treat it as an error.
func decodeRecord(b []byte) (kind recordKind, rel uint16, id MsgID, persistent bool, n int, ok bool) {
	if len(b) < deliverRecordSize {
		return 0, 0, MsgID{}, false, 0, false
	}
	b0 := b[0]
	rel = uint16(b0&0x3f)<<8 | uint16(b[1])
	if b0&0x80 == 0 {
		return kindDeliverOrAck, rel, MsgID{}, false, deliverRecordSize, true
	}
	if len(b) < publishRecordSize {
		return 0, 0, MsgID{}, false, 0, false
	}
	persistent = b0&0x40 != 0
	copy(id[:], b[2:publishRecordSize])
	return kindPublish, rel, id, persistent, publishRecordSize, true
}

// encodeSeqID appends the 8-byte big-endian ack-journal encoding of seq.
func encodeSeqID(buf []byte, seq SeqID) []byte {
	var tmp [SeqBytes]byte
	binary.BigEndian.PutUint64(tmp[:], uint64(seq))
	return append(buf, tmp[:]...)
}

// decodeSeqID decodes one 8-byte ack-journal entry from the front of b.
func decodeSeqID(b []byte) (SeqID, bool) {
	if len(b) < SeqBytes {
		return 0, false
	}
	return SeqID(binary.BigEndian.Uint64(b[:SeqBytes])), true
}
