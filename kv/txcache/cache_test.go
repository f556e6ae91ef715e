package txcache_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/veloxdb/kv/txcache"
)

func TestGetOrLoadCachesOnSecondCall(t *testing.T) {
	c := txcache.New()
	calls := 0
	load := func() (any, error) {
		calls++
		return "table-def", nil
	}
	k := txcache.NewKey(txcache.LookupTable, "test", "test", "person")

	v1, err := c.GetOrLoad(k, load)
	require.NoError(t, err)
	v2, err := c.GetOrLoad(k, load)
	require.NoError(t, err)

	assert.Equal(t, "table-def", v1)
	assert.Equal(t, "table-def", v2)
	assert.Equal(t, 1, calls)
}

func TestInvalidateTableDropsNestedField(t *testing.T) {
	c := txcache.New()
	tableKey := txcache.NewKey(txcache.LookupTable, "test", "test", "person")
	fieldKey := txcache.NewKey(txcache.LookupField, "test", "test", "person", "name")

	c.Set(tableKey, "table-def")
	c.Set(fieldKey, "field-def")

	c.Invalidate(tableKey)

	_, ok1 := c.Get(tableKey)
	_, ok2 := c.Get(fieldKey)
	assert.False(t, ok1)
	assert.False(t, ok2)
}

func TestInvalidateDoesNotAffectUnrelatedTable(t *testing.T) {
	c := txcache.New()
	person := txcache.NewKey(txcache.LookupTable, "test", "test", "person")
	account := txcache.NewKey(txcache.LookupTable, "test", "test", "account")

	c.Set(person, "person-def")
	c.Set(account, "account-def")

	c.Invalidate(person)

	_, ok := c.Get(account)
	assert.True(t, ok)
}

func TestClearDropsEverything(t *testing.T) {
	c := txcache.New()
	k := txcache.NewKey(txcache.LookupNamespace, "test")
	c.Set(k, "ns-def")
	c.Clear()
	_, ok := c.Get(k)
	assert.False(t, ok)
}
