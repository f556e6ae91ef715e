package kv

import (
	"fmt"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/syssam/veloxdb/value"
)

// wireValue is the msgpack-serializable mirror of value.Value: msgpack
// cannot encode the unexported Kind/raw fields directly, so every record
// and catalog payload is converted to/from this shape at the storage
// boundary (spec §4.3 "encoding").
type wireValue struct {
	Kind  uint8
	Bool  bool             `msgpack:",omitempty"`
	Num   wireNumber       `msgpack:",omitempty"`
	Str   string           `msgpack:",omitempty"`
	Bytes []byte           `msgpack:",omitempty"`
	Obj   []wireKV         `msgpack:",omitempty"`
	Arr   []wireValue      `msgpack:",omitempty"`
	RID   *wireRecordID    `msgpack:",omitempty"`
	UUID  string           `msgpack:",omitempty"`
}

type wireNumber struct {
	Kind  uint8
	Int   int64
	Float float64
	Dec   string
}

type wireKV struct {
	Key string
	Val wireValue
}

type wireRecordID struct {
	Table   string
	KeyKind uint8
	KeyStr  string
	KeyNum  int64
	KeyUUID string
	KeyObj  []wireKV
	KeyArr  []wireValue
}

// EncodeValue serializes v to its msgpack wire form.
func EncodeValue(v value.Value) ([]byte, error) {
	return msgpack.Marshal(toWire(v))
}

// DecodeValue deserializes a msgpack payload produced by EncodeValue.
func DecodeValue(b []byte) (value.Value, error) {
	var w wireValue
	if err := msgpack.Unmarshal(b, &w); err != nil {
		return value.None, fmt.Errorf("veloxdb/kv: decode value: %w", err)
	}
	return fromWire(w), nil
}

func toWire(v value.Value) wireValue {
	w := wireValue{Kind: uint8(v.Kind())}
	switch v.Kind() {
	case value.KindBool:
		w.Bool, _ = v.AsBool()
	case value.KindNumber:
		n, _ := v.AsNumber()
		w.Num = wireNumber{Kind: uint8(n.Kind), Int: n.Int, Float: n.Float}
		if n.Kind == value.NumberDecimal {
			w.Num.Dec = n.Dec.String()
		}
	case value.KindString:
		w.Str, _ = v.AsString()
	case value.KindBytes:
		w.Bytes, _ = v.AsBytes()
	case value.KindUuid:
		u, _ := v.AsUUID()
		w.UUID = u.String()
	case value.KindObject:
		o, _ := v.AsObject()
		for _, k := range o.Keys() {
			val, _ := o.Get(k)
			w.Obj = append(w.Obj, wireKV{Key: k, Val: toWire(val)})
		}
	case value.KindArray:
		a, _ := v.AsArray()
		for _, e := range a {
			w.Arr = append(w.Arr, toWire(e))
		}
	case value.KindSet:
		a, _ := v.AsSet()
		for _, e := range a {
			w.Arr = append(w.Arr, toWire(e))
		}
	case value.KindRecordID:
		r, _ := v.AsRecordID()
		wr := &wireRecordID{Table: r.Table, KeyKind: uint8(r.Key.Kind)}
		switch r.Key.Kind {
		case value.RecordIDKeyString:
			wr.KeyStr = r.Key.Str
		case value.RecordIDKeyNumber:
			wr.KeyNum = r.Key.Num
		case value.RecordIDKeyUUID:
			wr.KeyUUID = r.Key.UUID.String()
		case value.RecordIDKeyObject:
			for _, k := range r.Key.Obj.Keys() {
				val, _ := r.Key.Obj.Get(k)
				wr.KeyObj = append(wr.KeyObj, wireKV{Key: k, Val: toWire(val)})
			}
		case value.RecordIDKeyArray:
			for _, e := range r.Key.Arr {
				wr.KeyArr = append(wr.KeyArr, toWire(e))
			}
		}
		w.RID = wr
	}
	return w
}

func fromWire(w wireValue) value.Value {
	switch value.Kind(w.Kind) {
	case value.KindNone:
		return value.None
	case value.KindNull:
		return value.Null
	case value.KindBool:
		return value.Bool(w.Bool)
	case value.KindNumber:
		switch value.NumberKind(w.Num.Kind) {
		case value.NumberInt:
			return value.Int(w.Num.Int)
		case value.NumberFloat:
			return value.Float(w.Num.Float)
		case value.NumberDecimal:
			d, _ := value.DecimalFromString(w.Num.Dec)
			return value.NumberValue(value.DecimalNumber(d))
		}
		return value.Int(0)
	case value.KindString:
		return value.String(w.Str)
	case value.KindBytes:
		return value.Bytes(w.Bytes)
	case value.KindUuid:
		u, _ := value.UUIDFromString(w.UUID)
		return value.UUIDValue(u)
	case value.KindObject:
		o := value.NewObject()
		for _, kv := range w.Obj {
			o.Set(kv.Key, fromWire(kv.Val))
		}
		return value.ObjectValue(o)
	case value.KindArray:
		a := make(value.Array, len(w.Arr))
		for i, e := range w.Arr {
			a[i] = fromWire(e)
		}
		return value.ArrayValue(a)
	case value.KindSet:
		a := make(value.Array, len(w.Arr))
		for i, e := range w.Arr {
			a[i] = fromWire(e)
		}
		return value.SetValue(a)
	case value.KindRecordID:
		if w.RID == nil {
			return value.None
		}
		var rk value.RecordIDKey
		switch value.RecordIDKeyKind(w.RID.KeyKind) {
		case value.RecordIDKeyString:
			rk = value.StringKey(w.RID.KeyStr)
		case value.RecordIDKeyNumber:
			rk = value.NumberKey(w.RID.KeyNum)
		case value.RecordIDKeyUUID:
			u, _ := value.UUIDFromString(w.RID.KeyUUID)
			rk = value.UUIDKey(u)
		case value.RecordIDKeyObject:
			o := value.NewObject()
			for _, kv := range w.RID.KeyObj {
				o.Set(kv.Key, fromWire(kv.Val))
			}
			rk = value.ObjectKey(o)
		case value.RecordIDKeyArray:
			a := make(value.Array, len(w.RID.KeyArr))
			for i, e := range w.RID.KeyArr {
				a[i] = fromWire(e)
			}
			rk = value.ArrayKey(a)
		}
		return value.RecordIDValue(value.NewRecordID(w.RID.Table, rk))
	default:
		return value.None
	}
}
