// Package startup implements the broker-start hook of the queue index:
// classify on-disk queue directories against the durable set from the
// metadata catalogue, delete transient directories outright, and feed the
// surviving durable queues through a lazy Walker so the message-body
// store can rebuild its own reference counts.
package startup

// Catalog is the seam to the external queue-metadata catalogue: the thing
// that knows which queue names are durable. The broker owns the real
// implementation; package boltcatalog provides one backed by
// go.etcd.io/bbolt for standalone testing and for brokers small enough not
// to need anything fancier.
type Catalog interface {
	// IsDurable reports whether name (the queue's logical name, already
	// decoded from its on-disk directory encoding) is a durable queue.
	IsDurable(name string) bool
	// DurableNames lists every durable queue name known to the catalogue.
	DurableNames() ([]string, error)
}
