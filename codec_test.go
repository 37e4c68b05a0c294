package queueindex

import "testing"

func TestCodec_deliverOrAckRoundTrip(t *testing.T) {
	for _, rel := range []uint16{0, 1, 5000, S - 1} {
		buf := encodeDeliverOrAck(nil, rel)
		eq(t, len(buf), deliverRecordSize)
		kind, gotRel, _, _, n, ok := decodeRecord(buf)
		if !ok {
			t.Fatalf("rel=%d: decode reported torn record", rel)
		}
		eq(t, kind, kindDeliverOrAck)
		eq(t, gotRel, rel)
		eq(t, n, deliverRecordSize)
	}
}

func TestCodec_publishRoundTrip(t *testing.T) {
	id := MsgID{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16}
	for _, persistent := range []bool{true, false} {
		buf := encodePublish(nil, 9001, id, persistent)
		eq(t, len(buf), publishRecordSize)
		kind, rel, gotID, gotPersistent, n, ok := decodeRecord(buf)
		if !ok {
			t.Fatalf("decode reported torn record")
		}
		eq(t, kind, kindPublish)
		eq(t, rel, uint16(9001))
		eq(t, gotID, id)
		eq(t, gotPersistent, persistent)
		eq(t, n, publishRecordSize)
	}
}

func TestCodec_tornRecords(t *testing.T) {
	id := MsgID{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16}
	full := encodePublish(nil, 42, id, true)
	for n := 0; n < publishRecordSize; n++ {
		_, _, _, _, _, ok := decodeRecord(full[:n])
		if ok {
			t.Fatalf("decode accepted a %d-byte prefix of an 18-byte record", n)
		}
	}
}

func TestCodec_seqIDRoundTrip(t *testing.T) {
	for _, seq := range []SeqID{0, 1, S - 1, S, S*3 + 7, 1 << 40} {
		buf := encodeSeqID(nil, seq)
		eq(t, len(buf), SeqBytes)
		got, ok := decodeSeqID(buf)
		if !ok {
			t.Fatalf("seq=%d: decode reported short buffer", seq)
		}
		eq(t, got, seq)
	}
}

func TestSegmentAndRelSeq(t *testing.T) {
	seq := SeqID(S*3 + 17)
	eq(t, SegmentNumber(seq), uint64(3))
	eq(t, RelSeq(seq), uint16(17))
	eq(t, SeqIDOf(3, 17), seq)
}

func TestNextSegmentBoundary(t *testing.T) {
	cases := []struct {
		in   SeqID
		want SeqID
	}{
		{0, S},
		{1, S},
		{S - 1, S},
		{S, 2 * S},
		{S + 1, 2 * S},
	}
	for _, c := range cases {
		if got := NextSegmentBoundary(c.in); got != c.want {
			t.Fatalf("NextSegmentBoundary(%d) = %d, want %d", c.in, got, c.want)
		}
	}
}
