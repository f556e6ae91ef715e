package value_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/veloxdb/value"
)

func obj(pairs ...value.KV) value.Value { return value.ObjectValue(value.ObjectOf(pairs...)) }

func TestPickSimpleField(t *testing.T) {
	v := obj(value.KV{Key: "name", Value: value.String("tobie")})
	got := value.Pick(v, value.NewIdiom(value.FieldPart("name")))
	s, ok := got.AsString()
	require.True(t, ok)
	assert.Equal(t, "tobie", s)
}

func TestPickMissingFieldIsNone(t *testing.T) {
	v := obj(value.KV{Key: "name", Value: value.String("tobie")})
	got := value.Pick(v, value.NewIdiom(value.FieldPart("missing")))
	assert.True(t, got.IsNone())
}

func TestPickNestedPath(t *testing.T) {
	v := obj(value.KV{Key: "address", Value: obj(
		value.KV{Key: "city", Value: value.String("london")},
	)})
	got := value.Pick(v, value.NewIdiom(value.FieldPart("address"), value.FieldPart("city")))
	s, _ := got.AsString()
	assert.Equal(t, "london", s)
}

func TestPickArrayIndexNegative(t *testing.T) {
	v := value.ArrayValue(value.Array{value.Int(1), value.Int(2), value.Int(3)})
	got := value.Pick(v, value.NewIdiom(value.IndexPart(-1)))
	n, _ := got.AsNumber()
	assert.Equal(t, int64(3), n.Int)
}

func TestPutCreatesIntermediateObjects(t *testing.T) {
	v := value.None
	idm := value.NewIdiom(value.FieldPart("a"), value.FieldPart("b"))
	got := value.Put(v, idm, value.Int(7))
	picked := value.Pick(got, idm)
	n, _ := picked.AsNumber()
	assert.Equal(t, int64(7), n.Int)
}

func TestPutDoesNotMutateOriginal(t *testing.T) {
	original := obj(value.KV{Key: "a", Value: value.Int(1)})
	idm := value.NewIdiom(value.FieldPart("a"))
	updated := value.Put(original, idm, value.Int(2))

	origVal := value.Pick(original, idm)
	n, _ := origVal.AsNumber()
	assert.Equal(t, int64(1), n.Int)

	newVal := value.Pick(updated, idm)
	n2, _ := newVal.AsNumber()
	assert.Equal(t, int64(2), n2.Int)
}

func TestDelField(t *testing.T) {
	v := obj(
		value.KV{Key: "a", Value: value.Int(1)},
		value.KV{Key: "b", Value: value.Int(2)},
	)
	idm := value.NewIdiom(value.FieldPart("a"))
	got := value.Del(v, idm)
	o, _ := got.AsObject()
	assert.Equal(t, 1, o.Len())
	_, present := o.Get("a")
	assert.False(t, present)
}

func TestApplyPatchesAddAndTest(t *testing.T) {
	v := obj(value.KV{Key: "name", Value: value.String("tobie")})
	ops := []value.Patch{
		{Op: value.PatchTest, Path: value.NewIdiom(value.FieldPart("name")), Value: value.String("tobie")},
		{Op: value.PatchAdd, Path: value.NewIdiom(value.FieldPart("age")), Value: value.Int(30)},
	}
	got, err := value.ApplyPatches(v, ops)
	require.NoError(t, err)
	age := value.Pick(got, value.NewIdiom(value.FieldPart("age")))
	n, _ := age.AsNumber()
	assert.Equal(t, int64(30), n.Int)
}

func TestApplyPatchesTestFailureAborts(t *testing.T) {
	v := obj(value.KV{Key: "name", Value: value.String("tobie")})
	ops := []value.Patch{
		{Op: value.PatchTest, Path: value.NewIdiom(value.FieldPart("name")), Value: value.String("jaime")},
		{Op: value.PatchAdd, Path: value.NewIdiom(value.FieldPart("age")), Value: value.Int(30)},
	}
	got, err := value.ApplyPatches(v, ops)
	require.Error(t, err)
	assert.True(t, got.Equal(v))
}

func TestEveryNestedMode(t *testing.T) {
	v := value.ArrayValue(value.Array{value.Int(2), value.Int(4), value.Int(6)})
	assert.True(t, value.Every(v, value.ArrayModeNested, func(e value.Value) bool {
		n, _ := e.AsNumber()
		return n.Int%2 == 0
	}))
}

func TestMapFullMode(t *testing.T) {
	v := value.ArrayValue(value.Array{
		value.ArrayValue(value.Array{value.Int(1), value.Int(2)}),
		value.Int(3),
	})
	doubled := value.Map(v, value.ArrayModeFull, func(e value.Value) value.Value {
		n, _ := e.AsNumber()
		return value.Int(n.Int * 2)
	})
	a, _ := doubled.AsArray()
	inner, _ := a[0].AsArray()
	n0, _ := inner[0].AsNumber()
	assert.Equal(t, int64(2), n0.Int)
	n1, _ := a[1].AsNumber()
	assert.Equal(t, int64(6), n1.Int)
}

func TestPutIntoScalarLeafIsNoOp(t *testing.T) {
	v := obj(value.KV{Key: "age", Value: value.Int(30)})
	// age is a number; putting a field beneath it must not replace the
	// scalar with an object.
	got := value.Put(v, value.NewIdiom(value.FieldPart("age"), value.FieldPart("years")), value.Int(1))
	o, ok := got.AsObject()
	require.True(t, ok)
	age, _ := o.Get("age")
	n, ok := age.AsNumber()
	require.True(t, ok)
	assert.Equal(t, int64(30), n.Int)
}

func TestPutPromotesOnlyNullish(t *testing.T) {
	v := obj(value.KV{Key: "meta", Value: value.Null})
	got := value.Put(v, value.NewIdiom(value.FieldPart("meta"), value.FieldPart("tag")), value.String("x"))
	o, _ := got.AsObject()
	meta, _ := o.Get("meta")
	mo, ok := meta.AsObject()
	require.True(t, ok)
	tag, _ := mo.Get("tag")
	s, _ := tag.AsString()
	assert.Equal(t, "x", s)
}

func TestDelAllClearsArray(t *testing.T) {
	v := obj(value.KV{Key: "tags", Value: value.ArrayValue(value.Array{
		value.String("a"), value.String("b"),
	})})
	got := value.Del(v, value.NewIdiom(value.FieldPart("tags"), value.Part{Kind: value.PartAll}))
	o, _ := got.AsObject()
	tags, _ := o.Get("tags")
	arr, ok := tags.AsArray()
	require.True(t, ok)
	assert.Empty(t, arr)
}

func TestDelFirstAndLast(t *testing.T) {
	v := value.ArrayValue(value.Array{value.Int(1), value.Int(2), value.Int(3)})

	got := value.Del(v, value.NewIdiom(value.Part{Kind: value.PartFirst}))
	arr, _ := got.AsArray()
	require.Len(t, arr, 2)
	n, _ := arr[0].AsNumber()
	assert.Equal(t, int64(2), n.Int)

	got = value.Del(v, value.NewIdiom(value.Part{Kind: value.PartLast}))
	arr, _ = got.AsArray()
	require.Len(t, arr, 2)
	n, _ = arr[1].AsNumber()
	assert.Equal(t, int64(2), n.Int)
}

func TestDelWhereRemovesMatchingKeepsOrder(t *testing.T) {
	v := value.ArrayValue(value.Array{value.Int(1), value.Int(10), value.Int(2), value.Int(20)})
	pred := func(el value.Value) bool {
		n, _ := el.AsNumber()
		return n.Int >= 10
	}
	got := value.Del(v, value.NewIdiom(value.Part{Kind: value.PartWhere, Where: pred}))
	arr, ok := got.AsArray()
	require.True(t, ok)
	require.Len(t, arr, 2)
	a, _ := arr[0].AsNumber()
	b, _ := arr[1].AsNumber()
	assert.Equal(t, int64(1), a.Int)
	assert.Equal(t, int64(2), b.Int)
}
