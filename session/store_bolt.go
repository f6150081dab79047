package session

import (
	"context"
	"fmt"

	"go.etcd.io/bbolt"
)

var boltBucket = []byte("sessions")

// BoltStore is a [Store] backed by a single-file bbolt database. Each write
// runs in its own transaction, which gives the atomic-replace guarantee for
// free; a crash mid-write leaves the previous blob intact.
type BoltStore struct {
	db *bbolt.DB
}

var _ Store = (*BoltStore)(nil)

// NewBoltStore wraps an already opened bbolt database.
func NewBoltStore(db *bbolt.DB) *BoltStore {
	return &BoltStore{db: db}
}

// OpenBoltStore opens (creating if absent) a bbolt database at path and
// returns a store over it.
func OpenBoltStore(path string, options *bbolt.Options) (*BoltStore, error) {
	db, err := bbolt.Open(path, 0600, options)
	if err != nil {
		return nil, fmt.Errorf("opening session db: %w", err)
	}
	return NewBoltStore(db), nil
}

// Close closes the underlying database.
func (s *BoltStore) Close() error {
	return s.db.Close()
}

// Load implements [Store].
func (s *BoltStore) Load(_ context.Context, identity string) (*Session, error) {
	var blob []byte
	err := s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(boltBucket)
		if b == nil {
			return ErrNotFound
		}
		data := b.Get([]byte(identity))
		if data == nil {
			return ErrNotFound
		}
		// Copy out: bbolt memory is only valid inside the transaction.
		blob = append([]byte(nil), data...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return Decode(blob)
}

// Save implements [Store].
func (s *BoltStore) Save(_ context.Context, identity string, sess *Session) error {
	blob, err := Encode(sess)
	if err != nil {
		return err
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists(boltBucket)
		if err != nil {
			return err
		}
		return b.Put([]byte(identity), blob)
	})
}

// Delete implements [Store].
func (s *BoltStore) Delete(_ context.Context, identity string) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(boltBucket)
		if b == nil {
			return nil
		}
		return b.Delete([]byte(identity))
	})
}
