package store

import (
	"bytes"
	"crypto/sha256"

	bolt "go.etcd.io/bbolt"
	"src.tapec.sh/pkg/ir"
	. "src.tapec.sh/pkg/store/storedefs"
)

const bucketIR = "ir"

func init() {
	initDB["initialize IR cache table"] = func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(bucketIR))
		return err
	}
}

// IR returns the cached IR of a program optimized at a level, or ErrNoEntry.
func (s *dbStore) IR(code string, level int) ([]ir.Op, error) {
	var ops []ir.Op
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucketIR))
		v := b.Get(irKey(code, level))
		if v == nil {
			return ErrNoEntry
		}
		var err error
		ops, err = ir.Unmarshal(v)
		return err
	})
	return ops, err
}

// PutIR caches the IR of a program optimized at a level.
func (s *dbStore) PutIR(code string, level int, ops []ir.Op) error {
	data, err := ir.Marshal(ops)
	if err != nil {
		return err
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucketIR))
		return b.Put(irKey(code, level), data)
	})
}

// DelIR removes the cached IR of a program at all levels.
func (s *dbStore) DelIR(code string) error {
	prefix := sourceHash(code)
	return s.db.Update(func(tx *bolt.Tx) error {
		c := tx.Bucket([]byte(bucketIR)).Cursor()
		for k, _ := c.Seek(prefix); k != nil && bytes.HasPrefix(k, prefix); k, _ = c.Seek(prefix) {
			if err := c.Delete(); err != nil {
				return err
			}
		}
		return nil
	})
}

// IRCount returns the number of cached entries.
func (s *dbStore) IRCount() (int, error) {
	var n int
	err := s.db.View(func(tx *bolt.Tx) error {
		n = tx.Bucket([]byte(bucketIR)).Stats().KeyN
		return nil
	})
	return n, err
}

func sourceHash(code string) []byte {
	sum := sha256.Sum256([]byte(code))
	return sum[:]
}

// irKey is the SHA-256 of the source followed by the level.
func irKey(code string, level int) []byte {
	return append(sourceHash(code), byte(level))
}
