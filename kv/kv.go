// Package kv defines the storage engine's transaction interface: a small
// set of composable traits (spec §4.3 "KV trait") in the style of the
// erigon-lib kv package's Getter/Putter/Deleter/Tx split, adapted to a
// single Transaction carrying its own type (read-only/read-write) and lock
// mode rather than separate RoTx/RwTx types.
package kv

import (
	"context"
)

// Type distinguishes a read-only transaction from one that may write.
type Type uint8

const (
	TypeRead Type = iota
	TypeWrite
)

// Lock selects the concurrency discipline a transaction requests from the
// store (spec §5 "Concurrency & Resource Model").
type Lock uint8

const (
	// LockOptimistic detects conflicts at commit time and returns
	// veloxdb.ErrTxRetry; it never blocks other transactions.
	LockOptimistic Lock = iota
	// LockPessimistic acquires row/range locks as keys are touched,
	// blocking conflicting transactions until commit or cancel.
	LockPessimistic
)

// Has reports whether a key exists.
type Has interface {
	Has(ctx context.Context, key []byte) (bool, error)
}

// Getter reads a single key. A missing key returns a nil value and no
// error; callers that need a typed absence wrap it themselves.
type Getter interface {
	Get(ctx context.Context, key []byte) ([]byte, error)
}

// Putter writes a single key unconditionally.
type Putter interface {
	Put(ctx context.Context, key, value []byte) error
}

// ConditionalPutter writes a key only if its current value equals expected
// (nil expected means "key must not currently exist"); it returns
// veloxdb.ErrTxConditionNotMet otherwise.
type ConditionalPutter interface {
	PutC(ctx context.Context, key, value, expected []byte) error
}

// Deleter removes a key unconditionally.
type Deleter interface {
	Delete(ctx context.Context, key []byte) error
}

// ConditionalDeleter removes a key only if its current value equals
// expected.
type ConditionalDeleter interface {
	DeleteC(ctx context.Context, key, expected []byte) error
}

// KV is one key/value pair returned by a scan.
type KV struct {
	Key   []byte
	Value []byte
}

// Scanner iterates a half-open byte range [start, end) in key order. A nil
// end means "to the end of the keyspace".
type Scanner interface {
	Scan(ctx context.Context, start, end []byte, limit int) ([]KV, error)
}

// KeyStreamer iterates keys only, without fetching values, for callers
// that only need existence/count (e.g. COUNT queries, index-only scans).
type KeyStreamer interface {
	StreamKeys(ctx context.Context, start, end []byte, limit int) ([][]byte, error)
}

// Transaction is the full read/write surface a query executor uses against
// the store. It composes the small single-method interfaces above rather
// than exposing one monolithic type, so planner code that only needs to
// read can depend on a narrower interface built from the same pieces.
type Transaction interface {
	Has
	Getter
	Putter
	ConditionalPutter
	Deleter
	ConditionalDeleter
	Scanner
	KeyStreamer

	// Type reports whether this transaction was opened for reading only.
	Type() Type
	// Lock reports the concurrency discipline this transaction uses.
	Lock() Lock
	// Commit finalizes the transaction's writes. Committing a read-only
	// transaction is a no-op. Returns veloxdb.ErrTxRetry if Lock is
	// LockOptimistic and a conflicting transaction committed first.
	Commit(ctx context.Context) error
	// Cancel aborts the transaction, discarding any writes.
	Cancel(ctx context.Context) error
	// Closed reports whether Commit or Cancel has already been called.
	Closed() bool
}

// Store opens transactions against the underlying storage. Implementations
// might be a real durable engine or, for tests, an in-memory map (see
// kvtest).
type Store interface {
	// Begin opens a new transaction of typ with the given lock discipline.
	Begin(ctx context.Context, typ Type, lock Lock) (Transaction, error)
	// Close releases any resources held by the store.
	Close() error
}
