package store

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/dgraph-io/badger/v4"

	"settingsd/pkg/types"
)

// Badger key layout: s/<desk>/<bucket>/<key> -> JSON-encoded Value.
// Segment names are validated to never contain '/', so splitting is
// unambiguous.
const keyPrefix = "s/"

func entryKey(desk, bucket, key string) []byte {
	return []byte(keyPrefix + desk + "/" + bucket + "/" + key)
}

func bucketPrefix(desk, bucket string) []byte {
	return []byte(keyPrefix + desk + "/" + bucket + "/")
}

func deskPrefix(desk string) []byte {
	return []byte(keyPrefix + desk + "/")
}

func (s *Store) openDB(dataDir string) error {
	opts := badger.DefaultOptions(dataDir).WithLogger(nil)
	if dataDir == "" {
		opts = opts.WithInMemory(true)
	}
	db, err := badger.Open(opts)
	if err != nil {
		return fmt.Errorf("open settings db: %w", err)
	}
	s.db = db
	return nil
}

// Close releases the badger database. Safe to call once after all
// other methods have quiesced.
func (s *Store) Close() {
	if s.db != nil {
		_ = s.db.Close()
	}
}

// loadFromDB rebuilds the in-memory state from the persisted entries.
// Called once at construction, before the store is shared.
func (s *Store) loadFromDB() error {
	return s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		prefix := []byte(keyPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			item := it.Item()
			k := item.KeyCopy(nil)
			parts := bytes.SplitN(k[len(keyPrefix):], []byte("/"), 3)
			if len(parts) != 3 {
				return fmt.Errorf("malformed settings key: %q", k)
			}
			var val types.Value
			if err := item.Value(func(v []byte) error {
				return json.Unmarshal(v, &val)
			}); err != nil {
				return fmt.Errorf("decode settings key %q: %w", k, err)
			}
			s.bucketLocked(string(parts[0]), string(parts[1]), true).Put(string(parts[2]), val)
		}
		return nil
	})
}

func (s *Store) persistPut(desk, bucket, key string, val types.Value) error {
	b, err := json.Marshal(val)
	if err != nil {
		return fmt.Errorf("encode value: %w", err)
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(entryKey(desk, bucket, key), b)
	})
}

func (s *Store) persistDel(desk, bucket, key string) error {
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(entryKey(desk, bucket, key))
	})
}

func (s *Store) persistReplaceBucket(desk, bucket string, entries types.Bucket) error {
	encoded := make(map[string][]byte, len(entries))
	for key, val := range entries {
		b, err := json.Marshal(val)
		if err != nil {
			return fmt.Errorf("encode value for key %s: %w", key, err)
		}
		encoded[key] = b
	}
	return s.db.Update(func(txn *badger.Txn) error {
		if err := deleteByPrefix(txn, bucketPrefix(desk, bucket)); err != nil {
			return err
		}
		for key, b := range encoded {
			if err := txn.Set(entryKey(desk, bucket, key), b); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *Store) persistDelBucket(desk, bucket string) error {
	return s.db.Update(func(txn *badger.Txn) error {
		return deleteByPrefix(txn, bucketPrefix(desk, bucket))
	})
}

func (s *Store) persistDelDesk(desk string) error {
	return s.db.Update(func(txn *badger.Txn) error {
		return deleteByPrefix(txn, deskPrefix(desk))
	})
}

// deleteByPrefix collects matching keys first; deleting while the
// iterator is open invalidates it.
func deleteByPrefix(txn *badger.Txn, prefix []byte) error {
	opts := badger.DefaultIteratorOptions
	opts.PrefetchValues = false
	it := txn.NewIterator(opts)
	var keys [][]byte
	for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
		keys = append(keys, it.Item().KeyCopy(nil))
	}
	it.Close()
	for _, k := range keys {
		if err := txn.Delete(k); err != nil {
			return err
		}
	}
	return nil
}
