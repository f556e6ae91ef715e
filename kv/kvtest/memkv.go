// Package kvtest provides an in-memory kv.Store for tests, grounded on the
// same Transaction surface real storage backends implement so planner and
// executor tests exercise the real interface rather than a stand-in.
package kvtest

import (
	"bytes"
	"context"
	"sort"
	"sync"

	"github.com/syssam/veloxdb"
	"github.com/syssam/veloxdb/kv"
)

// Store is a single in-memory keyspace shared by every transaction opened
// against it. It is not optimized for concurrency; it exists for tests.
type Store struct {
	mu   sync.Mutex
	data map[string][]byte
	seq  uint64
}

// New returns an empty Store.
func New() *Store {
	return &Store{data: make(map[string][]byte)}
}

// Begin opens a new transaction snapshotting the store's current contents.
func (s *Store) Begin(ctx context.Context, typ kv.Type, lock kv.Lock) (kv.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	snapshot := make(map[string][]byte, len(s.data))
	for k, v := range s.data {
		snapshot[k] = v
	}
	return &tx{store: s, typ: typ, lock: lock, snapshot: snapshot, writes: make(map[string][]byte), deletes: make(map[string]bool)}, nil
}

// Close is a no-op for the in-memory store.
func (s *Store) Close() error { return nil }

type tx struct {
	store    *Store
	typ      kv.Type
	lock     kv.Lock
	snapshot map[string][]byte
	writes   map[string][]byte
	deletes  map[string]bool
	mu       sync.Mutex
	closed   bool
}

func (t *tx) Type() kv.Type { return t.typ }
func (t *tx) Lock() kv.Lock { return t.lock }
func (t *tx) Closed() bool  { t.mu.Lock(); defer t.mu.Unlock(); return t.closed }

func (t *tx) get(key string) ([]byte, bool) {
	if t.deletes[key] {
		return nil, false
	}
	if v, ok := t.writes[key]; ok {
		return v, true
	}
	v, ok := t.snapshot[key]
	return v, ok
}

func (t *tx) Has(ctx context.Context, key []byte) (bool, error) {
	if err := t.checkOpen(); err != nil {
		return false, err
	}
	_, ok := t.get(string(key))
	return ok, nil
}

func (t *tx) Get(ctx context.Context, key []byte) ([]byte, error) {
	if err := t.checkOpen(); err != nil {
		return nil, err
	}
	v, ok := t.get(string(key))
	if !ok {
		return nil, nil
	}
	return v, nil
}

func (t *tx) Put(ctx context.Context, key, value []byte) error {
	if err := t.checkWritable(); err != nil {
		return err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	k := string(key)
	delete(t.deletes, k)
	t.writes[k] = append([]byte(nil), value...)
	return nil
}

func (t *tx) PutC(ctx context.Context, key, value, expected []byte) error {
	if err := t.checkWritable(); err != nil {
		return err
	}
	cur, ok := t.get(string(key))
	switch {
	case expected == nil && ok:
		return veloxdb.ErrTxConditionNotMet
	case expected != nil && (!ok || !bytes.Equal(cur, expected)):
		return veloxdb.ErrTxConditionNotMet
	}
	return t.Put(ctx, key, value)
}

func (t *tx) Delete(ctx context.Context, key []byte) error {
	if err := t.checkWritable(); err != nil {
		return err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	k := string(key)
	delete(t.writes, k)
	t.deletes[k] = true
	return nil
}

func (t *tx) DeleteC(ctx context.Context, key, expected []byte) error {
	if err := t.checkWritable(); err != nil {
		return err
	}
	cur, ok := t.get(string(key))
	if !ok || !bytes.Equal(cur, expected) {
		return veloxdb.ErrTxConditionNotMet
	}
	return t.Delete(ctx, key)
}

func (t *tx) inRange(k string, start, end []byte) bool {
	if bytes.Compare([]byte(k), start) < 0 {
		return false
	}
	if end != nil && bytes.Compare([]byte(k), end) >= 0 {
		return false
	}
	return true
}

func (t *tx) Scan(ctx context.Context, start, end []byte, limit int) ([]kv.KV, error) {
	if err := t.checkOpen(); err != nil {
		return nil, err
	}
	keys := t.liveKeys(start, end)
	out := make([]kv.KV, 0, len(keys))
	for _, k := range keys {
		v, _ := t.get(k)
		out = append(out, kv.KV{Key: []byte(k), Value: v})
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}

func (t *tx) StreamKeys(ctx context.Context, start, end []byte, limit int) ([][]byte, error) {
	if err := t.checkOpen(); err != nil {
		return nil, err
	}
	keys := t.liveKeys(start, end)
	out := make([][]byte, 0, len(keys))
	for _, k := range keys {
		out = append(out, []byte(k))
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}

func (t *tx) liveKeys(start, end []byte) []string {
	seen := make(map[string]bool)
	var keys []string
	for k := range t.snapshot {
		if !t.deletes[k] {
			if _, overwritten := t.writes[k]; !overwritten {
				if t.inRange(k, start, end) {
					keys = append(keys, k)
				}
			}
		}
		seen[k] = true
	}
	for k := range t.writes {
		if t.inRange(k, start, end) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys
}

func (t *tx) Commit(ctx context.Context) error {
	if err := t.checkOpen(); err != nil {
		return err
	}
	t.mu.Lock()
	t.closed = true
	t.mu.Unlock()
	if t.typ == kv.TypeRead {
		return nil
	}
	t.store.mu.Lock()
	defer t.store.mu.Unlock()
	for k := range t.deletes {
		delete(t.store.data, k)
	}
	for k, v := range t.writes {
		t.store.data[k] = v
	}
	return nil
}

func (t *tx) Cancel(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.closed = true
	return nil
}

func (t *tx) checkOpen() error {
	if t.Closed() {
		return veloxdb.ErrTxFinished
	}
	return nil
}

func (t *tx) checkWritable() error {
	if err := t.checkOpen(); err != nil {
		return err
	}
	if t.typ == kv.TypeRead {
		return veloxdb.ErrTxReadonly
	}
	return nil
}

var _ kv.Transaction = (*tx)(nil)
var _ kv.Store = (*Store)(nil)
