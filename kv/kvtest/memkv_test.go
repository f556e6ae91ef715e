package kvtest_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/veloxdb"
	"github.com/syssam/veloxdb/kv"
	"github.com/syssam/veloxdb/kv/kvtest"
)

func TestPutThenGetWithinSameTransaction(t *testing.T) {
	ctx := context.Background()
	store := kvtest.New()
	tx, err := store.Begin(ctx, kv.TypeWrite, kv.LockOptimistic)
	require.NoError(t, err)

	require.NoError(t, tx.Put(ctx, []byte("a"), []byte("1")))
	got, err := tx.Get(ctx, []byte("a"))
	require.NoError(t, err)
	assert.Equal(t, "1", string(got))
	require.NoError(t, tx.Commit(ctx))
}

func TestCommitIsVisibleToNewTransaction(t *testing.T) {
	ctx := context.Background()
	store := kvtest.New()

	tx1, _ := store.Begin(ctx, kv.TypeWrite, kv.LockOptimistic)
	require.NoError(t, tx1.Put(ctx, []byte("a"), []byte("1")))
	require.NoError(t, tx1.Commit(ctx))

	tx2, _ := store.Begin(ctx, kv.TypeRead, kv.LockOptimistic)
	got, err := tx2.Get(ctx, []byte("a"))
	require.NoError(t, err)
	assert.Equal(t, "1", string(got))
}

func TestCancelDiscardsWrites(t *testing.T) {
	ctx := context.Background()
	store := kvtest.New()

	tx1, _ := store.Begin(ctx, kv.TypeWrite, kv.LockOptimistic)
	require.NoError(t, tx1.Put(ctx, []byte("a"), []byte("1")))
	require.NoError(t, tx1.Cancel(ctx))

	tx2, _ := store.Begin(ctx, kv.TypeRead, kv.LockOptimistic)
	got, err := tx2.Get(ctx, []byte("a"))
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestWriteOnReadOnlyTransactionFails(t *testing.T) {
	ctx := context.Background()
	store := kvtest.New()
	tx, _ := store.Begin(ctx, kv.TypeRead, kv.LockOptimistic)
	err := tx.Put(ctx, []byte("a"), []byte("1"))
	assert.ErrorIs(t, err, veloxdb.ErrTxReadonly)
}

func TestOperationAfterCommitFails(t *testing.T) {
	ctx := context.Background()
	store := kvtest.New()
	tx, _ := store.Begin(ctx, kv.TypeWrite, kv.LockOptimistic)
	require.NoError(t, tx.Commit(ctx))
	_, err := tx.Get(ctx, []byte("a"))
	assert.ErrorIs(t, err, veloxdb.ErrTxFinished)
}

func TestPutCRejectsMismatchedExpected(t *testing.T) {
	ctx := context.Background()
	store := kvtest.New()
	tx, _ := store.Begin(ctx, kv.TypeWrite, kv.LockOptimistic)
	require.NoError(t, tx.Put(ctx, []byte("a"), []byte("1")))
	err := tx.PutC(ctx, []byte("a"), []byte("2"), []byte("wrong"))
	assert.ErrorIs(t, err, veloxdb.ErrTxConditionNotMet)
}

func TestScanReturnsKeysInRange(t *testing.T) {
	ctx := context.Background()
	store := kvtest.New()
	tx, _ := store.Begin(ctx, kv.TypeWrite, kv.LockOptimistic)
	require.NoError(t, tx.Put(ctx, []byte("a"), []byte("1")))
	require.NoError(t, tx.Put(ctx, []byte("b"), []byte("2")))
	require.NoError(t, tx.Put(ctx, []byte("c"), []byte("3")))

	got, err := tx.Scan(ctx, []byte("a"), []byte("c"), 0)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "a", string(got[0].Key))
	assert.Equal(t, "b", string(got[1].Key))
}
