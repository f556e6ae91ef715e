package kv_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/veloxdb/kv"
	"github.com/syssam/veloxdb/value"
)

func TestEncodeDecodeObjectRoundTrip(t *testing.T) {
	o := value.ObjectOf(
		value.KV{Key: "name", Value: value.String("tobie")},
		value.KV{Key: "age", Value: value.Int(33)},
	)
	v := value.ObjectValue(o)

	b, err := kv.EncodeValue(v)
	require.NoError(t, err)

	got, err := kv.DecodeValue(b)
	require.NoError(t, err)
	assert.True(t, v.Equal(got))
}

func TestEncodeDecodeRecordIDRoundTrip(t *testing.T) {
	v := value.RecordIDValue(value.NewRecordID("person", value.StringKey("tobie")))
	b, err := kv.EncodeValue(v)
	require.NoError(t, err)

	got, err := kv.DecodeValue(b)
	require.NoError(t, err)
	assert.True(t, v.Equal(got))
}

func TestEncodeDecodeArrayRoundTrip(t *testing.T) {
	v := value.ArrayValue(value.Array{value.Int(1), value.String("two"), value.Bool(true)})
	b, err := kv.EncodeValue(v)
	require.NoError(t, err)

	got, err := kv.DecodeValue(b)
	require.NoError(t, err)
	assert.True(t, v.Equal(got))
}
