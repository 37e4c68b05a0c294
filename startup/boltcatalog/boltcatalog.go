// Package boltcatalog is a concrete startup.Catalog backed by
// go.etcd.io/bbolt. It stores nothing but a flat set of durable queue
// names in a single bucket: just membership, no other metadata.
package boltcatalog

import (
	"fmt"

	bolt "go.etcd.io/bbolt"
)

var durableBucket = []byte("durable_queues")

// Catalog is a bbolt-backed startup.Catalog.
type Catalog struct {
	db *bolt.DB
}

// Open opens (creating if necessary) the catalogue database at path.
func Open(path string) (*Catalog, error) {
	db, err := bolt.Open(path, 0o644, nil)
	if err != nil {
		return nil, fmt.Errorf("boltcatalog: open %s: %w", path, err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(durableBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("boltcatalog: init bucket: %w", err)
	}
	return &Catalog{db: db}, nil
}

// Close releases the underlying database file.
func (c *Catalog) Close() error {
	return c.db.Close()
}

// MarkDurable records name as a durable queue. Idempotent.
func (c *Catalog) MarkDurable(name string) error {
	return c.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(durableBucket).Put([]byte(name), nil)
	})
}

// UnmarkDurable removes name from the durable set, if present.
func (c *Catalog) UnmarkDurable(name string) error {
	return c.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(durableBucket).Delete([]byte(name))
	})
}

// IsDurable implements startup.Catalog.
func (c *Catalog) IsDurable(name string) bool {
	var durable bool
	c.db.View(func(tx *bolt.Tx) error {
		durable = tx.Bucket(durableBucket).Get([]byte(name)) != nil
		return nil
	})
	return durable
}

// DurableNames implements startup.Catalog.
func (c *Catalog) DurableNames() ([]string, error) {
	var names []string
	err := c.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(durableBucket).ForEach(func(k, _ []byte) error {
			names = append(names, string(k))
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("boltcatalog: listing durable names: %w", err)
	}
	return names, nil
}
