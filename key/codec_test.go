package key_test

import (
	"bytes"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/veloxdb/key"
	"github.com/syssam/veloxdb/value"
)

func TestInt64EncodingPreservesOrder(t *testing.T) {
	ints := []int64{math.MinInt64, -100, -1, 0, 1, 100, math.MaxInt64}
	var encoded [][]byte
	for _, n := range ints {
		encoded = append(encoded, key.NewEncoder().PutInt64(n).Bytes())
	}
	for i := 1; i < len(encoded); i++ {
		assert.True(t, bytes.Compare(encoded[i-1], encoded[i]) < 0, "expected %d < %d in byte order", ints[i-1], ints[i])
	}
}

func TestFloat64EncodingPreservesOrder(t *testing.T) {
	floats := []float64{math.Inf(-1), -100.5, -0.001, 0, 0.001, 100.5, math.Inf(1)}
	var encoded [][]byte
	for _, f := range floats {
		encoded = append(encoded, key.NewEncoder().PutFloat64(f).Bytes())
	}
	for i := 1; i < len(encoded); i++ {
		assert.True(t, bytes.Compare(encoded[i-1], encoded[i]) < 0, "expected %v < %v in byte order", floats[i-1], floats[i])
	}
}

func TestStringEncodingTerminatorOrdersShorterFirst(t *testing.T) {
	a := key.NewEncoder().PutString("ab").Bytes()
	b := key.NewEncoder().PutString("abc").Bytes()
	assert.True(t, bytes.Compare(a, b) < 0)
}

func TestStringEncodingEscapesEmbeddedNUL(t *testing.T) {
	enc := key.NewEncoder().PutString("a\x00b")
	dec := key.NewDecoder(enc.Bytes())
	assert.Equal(t, "a\x00b", dec.String())
}

func TestRoundTripIntAndFloat(t *testing.T) {
	enc := key.NewEncoder().PutInt64(-42).PutFloat64(3.5)
	dec := key.NewDecoder(enc.Bytes())
	assert.Equal(t, int64(-42), dec.Int64())
	assert.Equal(t, 3.5, dec.Float64())
}

func TestRecordKeyDistinguishesTables(t *testing.T) {
	a := key.Record("test", "test", "person", value.StringKey("tobie"))
	b := key.Record("test", "test", "account", value.StringKey("tobie"))
	assert.False(t, bytes.Equal(a, b))
}

func TestRecordTablePrefixIsPrefixOfRecordKey(t *testing.T) {
	prefix := key.RecordTablePrefix("test", "test", "person")
	full := key.Record("test", "test", "person", value.StringKey("tobie"))
	require.True(t, bytes.HasPrefix(full, prefix))
}

func TestIndexEntryPrefixIsPrefixOfFullEntry(t *testing.T) {
	parts := []value.Value{value.String("tobie@example.com")}
	prefix := key.IndexEntryPrefix("test", "test", "person", "email_idx", parts)
	full := key.IndexEntry("test", "test", "person", "email_idx", parts, value.StringKey("tobie"))
	assert.True(t, bytes.HasPrefix(full, prefix))
}
