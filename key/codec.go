package key

import (
	"bytes"
	"encoding/binary"
	"math"

	"github.com/syssam/veloxdb/value"
)

// Encoder accumulates an ordered binary key. Every Put* method appends a
// byte-comparable encoding of its argument, so two keys built from the same
// sequence of components compare, byte for byte, the same way their
// logical components do (spec §4.2 "Key codec").
type Encoder struct {
	buf bytes.Buffer
}

// NewEncoder returns an empty Encoder.
func NewEncoder() *Encoder { return &Encoder{} }

// Bytes returns the encoded key so far.
func (e *Encoder) Bytes() []byte { return e.buf.Bytes() }

// PutCategory appends the single leading category byte.
func (e *Encoder) PutCategory(c Category) *Encoder {
	e.buf.WriteByte(byte(c))
	return e
}

// PutByte appends a raw separator/tag byte.
func (e *Encoder) PutByte(b byte) *Encoder {
	e.buf.WriteByte(b)
	return e
}

// PutString appends s as a NUL-escaped, NUL-terminated byte string: every
// literal 0x00 byte in s is escaped to 0x00 0xFF so the terminator (a bare
// 0x00) remains unambiguous and shorter strings still sort before their own
// extensions.
func (e *Encoder) PutString(s string) *Encoder {
	for i := 0; i < len(s); i++ {
		b := s[i]
		e.buf.WriteByte(b)
		if b == 0x00 {
			e.buf.WriteByte(0xFF)
		}
	}
	e.buf.WriteByte(0x00)
	return e
}

// PutInt64 appends a sign-preserving big-endian encoding of n: flipping the
// sign bit maps the signed range onto an unsigned range in the same
// relative order, so byte comparison matches numeric comparison.
func (e *Encoder) PutInt64(n int64) *Encoder {
	u := uint64(n) ^ (1 << 63)
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], u)
	e.buf.Write(b[:])
	return e
}

// PutFloat64 appends an order-preserving encoding of f: IEEE-754 bit
// patterns already sort correctly for positive floats, so for negative
// floats every bit is flipped and for non-negative floats only the sign bit
// is flipped, producing a monotonic unsigned encoding across the whole
// range including -Inf/+Inf (NaN is not order-preserving and is rejected by
// callers before reaching the codec).
func (e *Encoder) PutFloat64(f float64) *Encoder {
	bits := math.Float64bits(f)
	if bits&(1<<63) != 0 {
		bits = ^bits
	} else {
		bits |= 1 << 63
	}
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], bits)
	e.buf.Write(b[:])
	return e
}

// PutBytes appends raw bytes length-prefixed with a big-endian uint32, used
// for components (e.g. UUIDs, index entries) that are fixed-size or whose
// length is otherwise not ambiguous within the key.
func (e *Encoder) PutBytes(b []byte) *Encoder {
	var lenBuf [4]byte
	binary.BigEndian.PutUint32(lenBuf[:], uint32(len(b)))
	e.buf.Write(lenBuf[:])
	e.buf.Write(b)
	return e
}

// valueTag orders the supported Value kinds within a key component the
// same way value.Value's own Compare orders them, so a mixed-type index
// entry scans correctly; every other kind shares tag 0xFF.
func valueTag(k value.Kind) byte {
	switch k {
	case value.KindNull:
		return 1
	case value.KindBool:
		return 2
	case value.KindNumber:
		return 3
	case value.KindString:
		return 4
	case value.KindDatetime:
		return 5
	case value.KindUuid:
		return 6
	case value.KindBytes:
		return 7
	default:
		return 0xFF
	}
}

// PutValue appends an order-preserving encoding of v. Only the scalar
// kinds that can appear as an index or record key component are supported;
// anything else encodes as its kind tag alone, which still participates
// correctly in Category-prefixed scans (composite Object/Array keys are
// encoded component-wise by callers, not through this method).
func (e *Encoder) PutValue(v value.Value) *Encoder {
	e.PutByte(valueTag(v.Kind()))
	switch v.Kind() {
	case value.KindBool:
		b, _ := v.AsBool()
		if b {
			e.PutByte(1)
		} else {
			e.PutByte(0)
		}
	case value.KindNumber:
		n, _ := v.AsNumber()
		e.PutFloat64(n.AsFloat64())
	case value.KindString:
		e.PutString(mustString(v))
	case value.KindUuid:
		u, _ := v.AsUUID()
		e.PutString(u.String())
	case value.KindDatetime:
		d, _ := v.AsDatetime()
		e.PutInt64(d.Time().UnixNano())
	case value.KindBytes:
		b, _ := v.AsBytes()
		e.PutBytes(b)
	}
	return e
}

func mustString(v value.Value) string {
	s, _ := v.AsString()
	return s
}

// Decoder reads components back out of an encoded key in the order they
// were written. It is used by range-scan bound construction and by
// diagnostics that need to print a key's logical components; the hot path
// (comparing keys) never decodes, it compares the raw bytes directly.
type Decoder struct {
	buf []byte
	pos int
}

// NewDecoder wraps b for sequential reads.
func NewDecoder(b []byte) *Decoder { return &Decoder{buf: b} }

// Category reads the leading category byte.
func (d *Decoder) Category() Category {
	c := Category(d.buf[d.pos])
	d.pos++
	return c
}

// Byte reads a single raw byte.
func (d *Decoder) Byte() byte {
	b := d.buf[d.pos]
	d.pos++
	return b
}

// String reads a NUL-escaped, NUL-terminated string written by PutString.
func (d *Decoder) String() string {
	var out []byte
	for d.pos < len(d.buf) {
		b := d.buf[d.pos]
		d.pos++
		if b == 0x00 {
			if d.pos < len(d.buf) && d.buf[d.pos] == 0xFF {
				out = append(out, 0x00)
				d.pos++
				continue
			}
			break
		}
		out = append(out, b)
	}
	return string(out)
}

// Int64 reads an int64 written by PutInt64.
func (d *Decoder) Int64() int64 {
	u := binary.BigEndian.Uint64(d.buf[d.pos : d.pos+8])
	d.pos += 8
	return int64(u ^ (1 << 63))
}

// Float64 reads a float64 written by PutFloat64.
func (d *Decoder) Float64() float64 {
	bits := binary.BigEndian.Uint64(d.buf[d.pos : d.pos+8])
	d.pos += 8
	if bits&(1<<63) != 0 {
		bits &^= 1 << 63
	} else {
		bits = ^bits
	}
	return math.Float64frombits(bits)
}

// Bytes reads a length-prefixed byte slice written by PutBytes.
func (d *Decoder) Bytes() []byte {
	n := binary.BigEndian.Uint32(d.buf[d.pos : d.pos+4])
	d.pos += 4
	out := d.buf[d.pos : d.pos+int(n)]
	d.pos += int(n)
	return out
}

// Remaining reports whether there is more to decode.
func (d *Decoder) Remaining() bool { return d.pos < len(d.buf) }
