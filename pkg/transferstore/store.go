// Package transferstore provides a durable v8serialize.SharedBufferRegistry
// backed by bbolt, for processes that need transfer ids for
// SharedArrayBuffer/ArrayBufferTransfer payloads to survive a restart. The
// in-memory registry (v8serialize.NewMemoryBufferRegistry) remains the
// right default for short-lived processes; this is for the long-lived case.
package transferstore

import (
	"encoding/binary"
	"fmt"
	"log/slog"
	"sync"

	"go.etcd.io/bbolt"
)

var bucketName = []byte("transfers")

// Store is a bbolt-backed v8serialize.SharedBufferRegistry. Transfer ids are
// allocated monotonically and persisted alongside the registered bytes, so a
// restart resumes numbering after the highest id seen so far rather than
// colliding with it.
type Store struct {
	db *bbolt.DB

	mu      sync.Mutex
	nextID  uint32
	lastErr error // most recent Register persistence failure, if any; see Err
}

// Open opens (creating if necessary) a bbolt database at path and returns a
// Store ready for use as a SharedBufferRegistry.
func Open(path string) (*Store, error) {
	db, err := bbolt.Open(path, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("transferstore: open %s: %w", path, err)
	}

	var maxID uint32
	err = db.Update(func(tx *bbolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists(bucketName)
		if err != nil {
			return err
		}
		c := b.Cursor()
		if k, _ := c.Last(); k != nil {
			maxID = binary.BigEndian.Uint32(k)
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("transferstore: init %s: %w", path, err)
	}

	return &Store{db: db, nextID: maxID}, nil
}

// Close closes the underlying bbolt database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Lookup implements v8serialize.SharedBufferRegistry.
func (s *Store) Lookup(transferID uint32) ([]byte, bool) {
	var out []byte
	err := s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketName)
		if b == nil {
			return nil
		}
		if v := b.Get(idKey(transferID)); v != nil {
			out = append([]byte(nil), v...)
		}
		return nil
	})
	if err != nil || out == nil {
		return nil, false
	}
	return out, true
}

// Register implements v8serialize.SharedBufferRegistry, persisting buf under
// a freshly allocated transfer id. SharedBufferRegistry.Register has no
// error return, so a persistence failure here cannot be reported to the
// immediate caller; it is logged and latched so a caller that wants to
// notice can poll Err, rather than disappearing silently the way a bare
// "_ = db.Update(...)" would.
func (s *Store) Register(buf []byte) uint32 {
	s.mu.Lock()
	s.nextID++
	id := s.nextID
	s.mu.Unlock()

	err := s.db.Update(func(tx *bbolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists(bucketName)
		if err != nil {
			return err
		}
		return b.Put(idKey(id), buf)
	})
	if err != nil {
		wrapped := fmt.Errorf("transferstore: persist transfer id %d: %w", id, err)
		slog.Error("transferstore: failed to persist registered buffer", "transfer_id", id, "error", err)
		s.mu.Lock()
		s.lastErr = wrapped
		s.mu.Unlock()
	}
	return id
}

// Err returns the error from the most recent failed Register call, if any,
// and clears it. A caller that needs Register failures to be fatal rather
// than merely logged should check Err after every Register.
func (s *Store) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	err := s.lastErr
	s.lastErr = nil
	return err
}

func idKey(id uint32) []byte {
	k := make([]byte, 4)
	binary.BigEndian.PutUint32(k, id)
	return k
}
