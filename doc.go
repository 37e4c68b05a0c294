// Package queueindex implements the persistent per-queue index of a
// message broker: the on-disk structure that records, for each durable
// queue, whether a previously published message has been delivered and/or
// acknowledged. It does not store message bodies, those live in a
// separate store addressed by 16-byte message ids; it records only the
// per-queue ordering, persistence flag, and state transitions of
// references to them.
//
// A queue's directory holds zero or more fixed-size segment files
// (<segnum>.idx, each covering 16384 consecutive sequence ids) and a
// single ack journal (ack_journal.jif) that batches acknowledgements
// before they are scattered into their segments.
//
// # File format
//
// Segment files are a stream of self-delimiting, fixed-width records:
//
//   - deliver-only / journal-replay-ack record (2 bytes):
//     [00rrrrrr] [rrrrrrrr]                    (14-bit rel_seq, BE)
//   - publish record (18 bytes):
//     [1prrrrrr] [rrrrrrrr] <16-byte msg_id>    (p = persistence flag)
//
// No header, no footer, no checksum: a trailing partial record at EOF is
// silently discarded. The ack journal is a plain concatenation of 8-byte
// big-endian sequence ids, truncated to zero length once fully scattered.
package queueindex
