package queueindex

import "testing"

func TestAckJournal_writeGroupsAndDedups(t *testing.T) {
	dir := t.TempDir()
	j, err := openAckJournal(dir)
	ensure(t, err)
	defer j.close()

	ensure(t, j.write([]SeqID{0, 1, S + 2}))
	eq(t, j.count, 3)

	// Re-acking seq 0 before flush must be a no-op (idempotent).
	ensure(t, j.write([]SeqID{0}))
	eq(t, j.count, 3)

	seg0, ok := j.pickSegment()
	if !ok {
		t.Fatalf("expected a pending segment")
	}
	if seg0 != 0 && seg0 != 1 {
		t.Fatalf("unexpected segment %d", seg0)
	}
}

func TestAckJournal_takeAcksRemovesGroup(t *testing.T) {
	dir := t.TempDir()
	j, err := openAckJournal(dir)
	ensure(t, err)
	defer j.close()

	ensure(t, j.write([]SeqID{0, 1, S}))
	acks := j.takeAcks(0)
	eq(t, len(acks), 2)
	eq(t, j.count, 1)

	if _, ok := j.grouped[0]; ok {
		t.Fatalf("segment 0's group should have been removed")
	}
}

func TestAckJournal_truncateResetsFile(t *testing.T) {
	dir := t.TempDir()
	j, err := openAckJournal(dir)
	ensure(t, err)
	defer j.close()

	ensure(t, j.write([]SeqID{0, 1}))
	ensure(t, j.truncate())

	disk, err := readAckJournalFile(dir)
	ensure(t, err)
	eq(t, len(disk), 0)
}

func TestReadAckJournalFile_missingIsEmpty(t *testing.T) {
	dir := t.TempDir()
	m, err := readAckJournalFile(dir)
	ensure(t, err)
	eq(t, len(m), 0)
}

func TestReadAckJournalFile_roundTrip(t *testing.T) {
	dir := t.TempDir()
	j, err := openAckJournal(dir)
	ensure(t, err)
	ensure(t, j.write([]SeqID{0, 1, S + 5}))
	ensure(t, j.close())

	m, err := readAckJournalFile(dir)
	ensure(t, err)
	eq(t, len(m), 2)
	eq(t, len(m[0]), 2)
	eq(t, len(m[1]), 1)
	if _, ok := m[1][5]; !ok {
		t.Fatalf("expected segment 1 rel 5 to be present")
	}
}
