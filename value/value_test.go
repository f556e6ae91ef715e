package value_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/veloxdb/value"
)

func TestValueEqual(t *testing.T) {
	assert.True(t, value.None.Equal(value.None))
	assert.True(t, value.Null.Equal(value.Null))
	assert.False(t, value.None.Equal(value.Null))

	assert.True(t, value.Int(42).Equal(value.Int(42)))
	assert.True(t, value.Int(42).Equal(value.Float(42)))
	assert.False(t, value.Int(42).Equal(value.Int(43)))

	assert.True(t, value.String("abc").Equal(value.String("abc")))
	assert.False(t, value.String("abc").Equal(value.String("abd")))
}

func TestObjectEqualIgnoresOrder(t *testing.T) {
	a := value.ObjectValue(value.ObjectOf(
		value.KV{Key: "a", Value: value.Int(1)},
		value.KV{Key: "b", Value: value.Int(2)},
	))
	b := value.ObjectValue(value.ObjectOf(
		value.KV{Key: "b", Value: value.Int(2)},
		value.KV{Key: "a", Value: value.Int(1)},
	))
	assert.True(t, a.Equal(b))
}

func TestObjectPreservesInsertionOrder(t *testing.T) {
	o := value.NewObject()
	o.Set("z", value.Int(1))
	o.Set("a", value.Int(2))
	assert.Equal(t, []string{"z", "a"}, o.Keys())
}

func TestSetDeduplicates(t *testing.T) {
	s := value.SetValue(value.Array{value.Int(1), value.Int(1), value.Int(2)})
	a, ok := s.AsSet()
	require.True(t, ok)
	assert.Len(t, a, 2)
}

func TestRecordIDString(t *testing.T) {
	id := value.NewRecordID("person", value.StringKey("tobie"))
	assert.Equal(t, "person:tobie", id.String())

	numeric := value.NewRecordID("event", value.NumberKey(42))
	assert.Equal(t, "event:42", numeric.String())
}

func TestCompareAcrossKinds(t *testing.T) {
	assert.True(t, value.Null.Compare(value.Int(1)) < 0)
	assert.True(t, value.Int(1).Compare(value.String("a")) < 0)
	assert.Equal(t, 0, value.Int(1).Compare(value.Float(1)))
}

func TestCompareArraysLexicographic(t *testing.T) {
	a := value.ArrayValue(value.Array{value.Int(1), value.Int(2)})
	b := value.ArrayValue(value.Array{value.Int(1), value.Int(3)})
	assert.True(t, a.Compare(b) < 0)
}

func TestNaturalCollationOrdersDigitsNumerically(t *testing.T) {
	a := value.String("file2")
	b := value.String("file10")
	assert.True(t, value.CompareWithCollation(a, b, value.CollationNatural) < 0)
	assert.True(t, value.CompareWithCollation(b, a, value.CollationByte) < 0)
}
