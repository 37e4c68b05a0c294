package queueindex

const (
	// S is the number of relative-sequence slots per segment.
	S = 16384

	// JournalHWM is the journaled-ack count that triggers an eager,
	// caller-opportunistic flush from write_acks.
	JournalHWM = 32768

	// MsgIDBytes is the length of a message id.
	MsgIDBytes = 16

	// SeqBytes is the encoded width of a full sequence id in the ack journal.
	SeqBytes = 8

	// SegmentExtension is the filename suffix of a segment file.
	SegmentExtension = ".idx"

	// AckJournalFileName is the ack journal's filename within a queue directory.
	AckJournalFileName = "ack_journal.jif"

	deliverRecordSize = 2
	publishRecordSize = 2 + MsgIDBytes // 18
)
