package value

import (
	"fmt"

	"github.com/google/uuid"
)

// UUID wraps google/uuid's UUID so the value package owns Value/UUID
// construction and string rendering (spec §3 "Value.Uuid").
type UUID struct {
	inner uuid.UUID
}

// NewUUID generates a random (v4) UUID.
func NewUUID() UUID { return UUID{inner: uuid.New()} }

// UUIDFromString parses a UUID in its canonical textual form.
func UUIDFromString(s string) (UUID, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return UUID{}, fmt.Errorf("veloxdb: invalid uuid %q: %w", s, err)
	}
	return UUID{inner: u}, nil
}

// String renders the UUID in canonical textual form.
func (u UUID) String() string { return u.inner.String() }

// UUIDValue wraps a UUID as a Value.
func UUIDValue(u UUID) Value { return Value{kind: KindUuid, raw: u} }

// AsUUID returns the UUID payload and whether v held one.
func (v Value) AsUUID() (UUID, bool) {
	u, ok := v.raw.(UUID)
	return u, ok && v.kind == KindUuid
}

// RecordIDKeyKind distinguishes the representations a record's key half may
// take (spec §3 "RecordId").
type RecordIDKeyKind uint8

const (
	// RecordIDKeyString is a user- or system-assigned string key.
	RecordIDKeyString RecordIDKeyKind = iota
	// RecordIDKeyNumber is an integer key, typically from an auto-incrementing
	// or explicitly numeric id.
	RecordIDKeyNumber
	// RecordIDKeyObject is a composite key built from an Object, used when a
	// record is identified by more than one field.
	RecordIDKeyObject
	// RecordIDKeyArray is a composite key built from an Array.
	RecordIDKeyArray
	// RecordIDKeyUUID is a UUID key; the executor assigns one to a written
	// row that has no id.
	RecordIDKeyUUID
	// RecordIDKeyGenerated marks a key with no concrete value; the key
	// decoder uses it as a placeholder for keys it does not decode.
	RecordIDKeyGenerated
)

// RecordIDKey is the second half of a RecordId ("table:key"); exactly one
// field is meaningful, selected by Kind.
type RecordIDKey struct {
	Kind   RecordIDKeyKind
	Str    string
	Num    int64
	Obj    *Object
	Arr    Array
	UUID   UUID
}

// StringKey builds a string RecordIDKey.
func StringKey(s string) RecordIDKey { return RecordIDKey{Kind: RecordIDKeyString, Str: s} }

// NumberKey builds a numeric RecordIDKey.
func NumberKey(n int64) RecordIDKey { return RecordIDKey{Kind: RecordIDKeyNumber, Num: n} }

// ObjectKey builds a composite object RecordIDKey.
func ObjectKey(o *Object) RecordIDKey { return RecordIDKey{Kind: RecordIDKeyObject, Obj: o} }

// ArrayKey builds a composite array RecordIDKey.
func ArrayKey(a Array) RecordIDKey { return RecordIDKey{Kind: RecordIDKeyArray, Arr: a} }

// UUIDKey builds a UUID RecordIDKey.
func UUIDKey(u UUID) RecordIDKey { return RecordIDKey{Kind: RecordIDKeyUUID, UUID: u} }

// GeneratedKey marks a key as not-yet-assigned.
func GeneratedKey() RecordIDKey { return RecordIDKey{Kind: RecordIDKeyGenerated} }

// String renders the key half the way it appears after the colon in a
// record id literal.
func (k RecordIDKey) String() string {
	switch k.Kind {
	case RecordIDKeyString:
		return k.Str
	case RecordIDKeyNumber:
		return fmt.Sprintf("%d", k.Num)
	case RecordIDKeyObject:
		return ObjectValue(k.Obj).String()
	case RecordIDKeyArray:
		return ArrayValue(k.Arr).String()
	case RecordIDKeyUUID:
		return k.UUID.String()
	case RecordIDKeyGenerated:
		return "⟨generated⟩"
	default:
		return ""
	}
}

// Equal reports whether two RecordIDKeys denote the same key. Generated
// keys never compare equal, even to themselves, since they denote "not yet
// assigned" rather than a concrete value.
func (k RecordIDKey) Equal(o RecordIDKey) bool {
	if k.Kind != o.Kind {
		return false
	}
	switch k.Kind {
	case RecordIDKeyString:
		return k.Str == o.Str
	case RecordIDKeyNumber:
		return k.Num == o.Num
	case RecordIDKeyObject:
		return k.Obj.Equal(o.Obj)
	case RecordIDKeyArray:
		return ArrayValue(k.Arr).Equal(ArrayValue(o.Arr))
	case RecordIDKeyUUID:
		return k.UUID == o.UUID
	default:
		return false
	}
}

// RecordID identifies a single record: a table name plus a key half (spec
// §3 "RecordId").
type RecordID struct {
	Table string
	Key   RecordIDKey
}

// NewRecordID builds a RecordID.
func NewRecordID(table string, key RecordIDKey) RecordID { return RecordID{Table: table, Key: key} }

// String renders the id in "table:key" form.
func (r RecordID) String() string { return fmt.Sprintf("%s:%s", r.Table, r.Key.String()) }

// Equal reports whether two RecordIDs denote the same record.
func (r RecordID) Equal(o RecordID) bool { return r.Table == o.Table && r.Key.Equal(o.Key) }

// RecordIDValue wraps a RecordID as a Value.
func RecordIDValue(r RecordID) Value { return Value{kind: KindRecordID, raw: r} }

// AsRecordID returns the RecordID payload and whether v held one.
func (v Value) AsRecordID() (RecordID, bool) {
	r, ok := v.raw.(RecordID)
	return r, ok && v.kind == KindRecordID
}
