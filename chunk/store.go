package chunk

import (
	"fmt"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/voxelkit/regionkit/internal/buf"
)

// Store is the on-disk revision spill. Layout: one root bucket per
// dimension, one nested bucket per chunk keyed "cx:cz", revision index as
// a big-endian uint32 key inside it.
type Store struct {
	db *bolt.DB
}

// OpenStore opens (or creates) the revision database at path.
func OpenStore(path string) (*Store, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("revision store %s: %w", path, err)
	}
	return &Store{db: db}, nil
}

func chunkKey(cx, cz int) []byte {
	return []byte(fmt.Sprintf("%d:%d", cx, cz))
}

func revKey(rev int) []byte {
	var k [4]byte
	buf.PutU32BE(k[:], 0, uint32(rev))
	return k[:]
}

// Put stores the snapshot as revision rev, overwriting any existing
// snapshot at that index.
func (s *Store) Put(dim string, cx, cz, rev int, snap []byte) error {
	err := s.db.Update(func(tx *bolt.Tx) error {
		db, err := tx.CreateBucketIfNotExists([]byte(dim))
		if err != nil {
			return err
		}
		cb, err := db.CreateBucketIfNotExists(chunkKey(cx, cz))
		if err != nil {
			return err
		}
		return cb.Put(revKey(rev), snap)
	})
	if err != nil {
		return fmt.Errorf("revision store: put %s (%d,%d)@%d: %w", dim, cx, cz, rev, err)
	}
	return nil
}

// Get returns the snapshot at revision rev, or ErrNoRevision.
func (s *Store) Get(dim string, cx, cz, rev int) ([]byte, error) {
	var out []byte
	err := s.db.View(func(tx *bolt.Tx) error {
		db := tx.Bucket([]byte(dim))
		if db == nil {
			return ErrNoRevision
		}
		cb := db.Bucket(chunkKey(cx, cz))
		if cb == nil {
			return ErrNoRevision
		}
		v := cb.Get(revKey(rev))
		if v == nil {
			return ErrNoRevision
		}
		out = append([]byte(nil), v...)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("revision store: get %s (%d,%d)@%d: %w", dim, cx, cz, rev, err)
	}
	return out, nil
}

// Truncate deletes every revision at index from and above. Called when a
// new undo point is created past an undone revision.
func (s *Store) Truncate(dim string, cx, cz, from int) error {
	err := s.db.Update(func(tx *bolt.Tx) error {
		db := tx.Bucket([]byte(dim))
		if db == nil {
			return nil
		}
		cb := db.Bucket(chunkKey(cx, cz))
		if cb == nil {
			return nil
		}
		// Bucket.Delete during iteration can shift the leaf under the
		// cursor and skip keys; Cursor.Delete keeps iteration stable.
		c := cb.Cursor()
		for k, _ := c.Seek(revKey(from)); k != nil; k, _ = c.Next() {
			if err := c.Delete(); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("revision store: truncate %s (%d,%d) from %d: %w", dim, cx, cz, from, err)
	}
	return nil
}

// Drop discards every revision of one chunk.
func (s *Store) Drop(dim string, cx, cz int) error {
	err := s.db.Update(func(tx *bolt.Tx) error {
		db := tx.Bucket([]byte(dim))
		if db == nil {
			return nil
		}
		if db.Bucket(chunkKey(cx, cz)) == nil {
			return nil
		}
		return db.DeleteBucket(chunkKey(cx, cz))
	})
	if err != nil {
		return fmt.Errorf("revision store: drop %s (%d,%d): %w", dim, cx, cz, err)
	}
	return nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}
