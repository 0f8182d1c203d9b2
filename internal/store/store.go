package store

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"

	"settingsd/internal/ordtree"
	"settingsd/pkg/types"
)

// bucketTree holds one bucket's entries in lexicographic key order.
type bucketTree = ordtree.Tree[string, types.Value]

func newBucketTree() *bucketTree {
	return ordtree.New[string, types.Value](func(a, b string) bool { return a < b })
}

// Store is the authoritative settings state. All methods are safe for
// concurrent use.
type Store struct {
	mu         sync.RWMutex
	desks      map[string]map[string]*bucketTree
	globalDesk string
	rev        uint64
	pub        EventPublisher
	db         *badger.DB
	startTime  time.Time
}

func newStore(globalDesk string) *Store {
	return &Store{
		desks:      make(map[string]map[string]*bucketTree),
		globalDesk: globalDesk,
		pub:        noopPublisher{},
		startTime:  time.Now(),
	}
}

// GlobalDesk returns the configured global desk name.
func (s *Store) GlobalDesk() string { return s.globalDesk }

// Revision returns the mutation counter.
func (s *Store) Revision() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.rev
}

func validSegment(name, what string) error {
	if name == "" {
		return errInvalidInput(what + " required")
	}
	if strings.Contains(name, "/") {
		return errInvalidInput(what + " must not contain '/'")
	}
	return nil
}

func validNames(desk, bucket string) error {
	if err := validSegment(desk, "desk"); err != nil {
		return err
	}
	return validSegment(bucket, "bucket")
}

// PutEntry sets one entry, creating the desk and bucket as needed.
func (s *Store) PutEntry(desk, bucket, key string, val types.Value) error {
	if err := validNames(desk, bucket); err != nil {
		return err
	}
	if err := validSegment(key, "key"); err != nil {
		return err
	}
	if !val.Valid() {
		return errInvalidInput("unknown value kind: " + string(val.Kind))
	}
	s.mu.Lock()
	if err := s.persistPut(desk, bucket, key, val); err != nil {
		s.mu.Unlock()
		return err
	}
	s.bucketLocked(desk, bucket, true).Put(key, val)
	s.rev++
	s.mu.Unlock()
	v := val
	s.publish(types.Event{
		Name: types.EventPutEntry, Path: EventPath(desk, bucket),
		Desk: desk, Bucket: bucket, Key: key, Value: &v,
	})
	return nil
}

// GetEntry returns one entry.
func (s *Store) GetEntry(desk, bucket, key string) (types.Value, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, err := s.lookupLocked(desk, bucket)
	if err != nil {
		return types.Value{}, err
	}
	v, ok := t.Get(key)
	if !ok {
		return types.Value{}, ErrEntryNotFound(key)
	}
	return v, nil
}

// DelEntry removes one entry.
func (s *Store) DelEntry(desk, bucket, key string) error {
	s.mu.Lock()
	t, err := s.lookupLocked(desk, bucket)
	if err != nil {
		s.mu.Unlock()
		return err
	}
	if _, ok := t.Get(key); !ok {
		s.mu.Unlock()
		return ErrEntryNotFound(key)
	}
	if err := s.persistDel(desk, bucket, key); err != nil {
		s.mu.Unlock()
		return err
	}
	t.Delete(key)
	s.rev++
	s.mu.Unlock()
	s.publish(types.Event{
		Name: types.EventDelEntry, Path: EventPath(desk, bucket),
		Desk: desk, Bucket: bucket, Key: key,
	})
	return nil
}

// PutBucket replaces the whole bucket, creating the desk as needed.
func (s *Store) PutBucket(desk, bucket string, entries types.Bucket) error {
	if err := validNames(desk, bucket); err != nil {
		return err
	}
	for key, val := range entries {
		if err := validSegment(key, "key"); err != nil {
			return err
		}
		if !val.Valid() {
			return errInvalidInput("unknown value kind for key " + key)
		}
	}
	s.mu.Lock()
	if err := s.persistReplaceBucket(desk, bucket, entries); err != nil {
		s.mu.Unlock()
		return err
	}
	t := newBucketTree()
	for key, val := range entries {
		t.Put(key, val)
	}
	s.ensureDeskLocked(desk)[bucket] = t
	s.rev++
	s.mu.Unlock()
	s.publish(types.Event{
		Name: types.EventPutBucket, Path: EventPath(desk, bucket),
		Desk: desk, Bucket: bucket,
	})
	return nil
}

// GetBucket returns a snapshot of the bucket's entries.
func (s *Store) GetBucket(desk, bucket string) (types.Bucket, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, err := s.lookupLocked(desk, bucket)
	if err != nil {
		return nil, err
	}
	return snapshotBucket(t), nil
}

// DelBucket removes the whole bucket. The desk itself is dropped when
// its last bucket goes.
func (s *Store) DelBucket(desk, bucket string) error {
	s.mu.Lock()
	if _, err := s.lookupLocked(desk, bucket); err != nil {
		s.mu.Unlock()
		return err
	}
	if err := s.persistDelBucket(desk, bucket); err != nil {
		s.mu.Unlock()
		return err
	}
	delete(s.desks[desk], bucket)
	if len(s.desks[desk]) == 0 {
		delete(s.desks, desk)
	}
	s.rev++
	s.mu.Unlock()
	s.publish(types.Event{
		Name: types.EventDelBucket, Path: EventPath(desk, bucket),
		Desk: desk, Bucket: bucket,
	})
	return nil
}

// DelDesk removes a desk and all its buckets.
func (s *Store) DelDesk(desk string) error {
	s.mu.Lock()
	if _, ok := s.desks[desk]; !ok {
		s.mu.Unlock()
		return ErrDeskNotFound(desk)
	}
	if err := s.persistDelDesk(desk); err != nil {
		s.mu.Unlock()
		return err
	}
	delete(s.desks, desk)
	s.rev++
	s.mu.Unlock()
	s.publish(types.Event{
		Name: types.EventDelDesk, Path: EventPath(desk, ""), Desk: desk,
	})
	return nil
}

// Desks returns all desk names, sorted.
func (s *Store) Desks() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.desks))
	for desk := range s.desks {
		out = append(out, desk)
	}
	sort.Strings(out)
	return out
}

// GetDesk returns a snapshot of every bucket of a desk.
func (s *Store) GetDesk(desk string) (map[string]types.Bucket, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	buckets, ok := s.desks[desk]
	if !ok {
		return nil, ErrDeskNotFound(desk)
	}
	return snapshotDesk(buckets), nil
}

// All returns a snapshot of the entire store.
func (s *Store) All() map[string]map[string]types.Bucket {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]map[string]types.Bucket, len(s.desks))
	for desk, buckets := range s.desks {
		out[desk] = snapshotDesk(buckets)
	}
	return out
}

// EntriesAfter returns up to max entries of a bucket strictly after
// the given key, in ascending key order; nil after starts at the
// beginning.
func (s *Store) EntriesAfter(desk, bucket string, after *string, max int) ([]types.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, err := s.lookupLocked(desk, bucket)
	if err != nil {
		return nil, err
	}
	return toEntries(t.After(after, max)), nil
}

// BottomEntries returns the first n entries of a bucket in key order.
func (s *Store) BottomEntries(desk, bucket string, n int) ([]types.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, err := s.lookupLocked(desk, bucket)
	if err != nil {
		return nil, err
	}
	return toEntries(t.BottomN(n)), nil
}

// TopEntries returns the last n entries of a bucket, presented in
// ascending key order.
func (s *Store) TopEntries(desk, bucket string, n int) ([]types.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, err := s.lookupLocked(desk, bucket)
	if err != nil {
		return nil, err
	}
	return toEntries(t.TopN(n)), nil
}

// Seed installs a bucket only if it is not already present, without
// publishing an event. Used for initial-settings loading before the
// server starts.
func (s *Store) Seed(desk, bucket string, entries types.Bucket) error {
	if err := validNames(desk, bucket); err != nil {
		return err
	}
	s.mu.Lock()
	if _, err := s.lookupLocked(desk, bucket); err == nil {
		s.mu.Unlock()
		return nil
	}
	if err := s.persistReplaceBucket(desk, bucket, entries); err != nil {
		s.mu.Unlock()
		return err
	}
	t := newBucketTree()
	for key, val := range entries {
		t.Put(key, val)
	}
	s.ensureDeskLocked(desk)[bucket] = t
	s.mu.Unlock()
	return nil
}

// Status reports store-level counters. Watchers is filled in by the
// HTTP layer, which owns the registry.
func (s *Store) Status() types.StatusResponse {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st := types.StatusResponse{
		Desks:          len(s.desks),
		Revision:       s.rev,
		UptimeSeconds:  int64(time.Since(s.startTime).Seconds()),
		ServerTimeUnix: time.Now().Unix(),
	}
	for _, buckets := range s.desks {
		st.Buckets += len(buckets)
		for _, t := range buckets {
			st.Entries += t.Len()
		}
	}
	return st
}

func (s *Store) ensureDeskLocked(desk string) map[string]*bucketTree {
	buckets, ok := s.desks[desk]
	if !ok {
		buckets = make(map[string]*bucketTree)
		s.desks[desk] = buckets
	}
	return buckets
}

func (s *Store) bucketLocked(desk, bucket string, create bool) *bucketTree {
	buckets := s.ensureDeskLocked(desk)
	t, ok := buckets[bucket]
	if !ok && create {
		t = newBucketTree()
		buckets[bucket] = t
	}
	return t
}

func (s *Store) lookupLocked(desk, bucket string) (*bucketTree, error) {
	buckets, ok := s.desks[desk]
	if !ok {
		return nil, ErrDeskNotFound(desk)
	}
	t, ok := buckets[bucket]
	if !ok {
		return nil, ErrBucketNotFound(bucket)
	}
	return t, nil
}

func snapshotBucket(t *bucketTree) types.Bucket {
	out := make(types.Bucket, t.Len())
	for _, it := range t.Items() {
		out[it.Key] = it.Val
	}
	return out
}

func snapshotDesk(buckets map[string]*bucketTree) map[string]types.Bucket {
	out := make(map[string]types.Bucket, len(buckets))
	for name, t := range buckets {
		out[name] = snapshotBucket(t)
	}
	return out
}

func toEntries(items []ordtree.Item[string, types.Value]) []types.Entry {
	out := make([]types.Entry, len(items))
	for i, it := range items {
		out[i] = types.Entry{Key: it.Key, Value: it.Val}
	}
	return out
}
