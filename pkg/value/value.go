// Package value defines the tagged cell variant used throughout the conform
// stage. Every source-specific type must be mapped onto this closed set of
// kinds before a cell enters the profiling core; all type decisions operate
// over Kind tags, never over reflection.
package value

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

// Kind identifies the concrete variant stored in a Value.
type Kind uint8

const (
	KindNull Kind = iota
	KindBool
	KindInt64
	KindFloat64
	KindString
	KindBytes

	// NumKinds is the number of cell kinds; usable as an array bound for
	// per-kind histograms.
	NumKinds = int(KindBytes) + 1
)

// String returns the lowercase wire name of the kind. These names appear in
// reports and anomaly details, so they are part of the output format.
func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "boolean"
	case KindInt64:
		return "integer"
	case KindFloat64:
		return "real"
	case KindString:
		return "text"
	case KindBytes:
		return "bytes"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Numeric reports whether the kind participates in numeric promotion
// (Int64 and Float64 compare and accumulate together).
func (k Kind) Numeric() bool { return k == KindInt64 || k == KindFloat64 }

// Value is a tagged variant over {Null, Bool, Int64, Float64, String, Bytes}.
// The zero Value is Null.
type Value struct {
	kind Kind
	b    bool
	i    int64
	f    float64
	s    string
	raw  []byte
}

// Null returns the null cell.
func Null() Value { return Value{} }

// Bool returns a boolean cell.
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

// Int returns a 64-bit integer cell.
func Int(i int64) Value { return Value{kind: KindInt64, i: i} }

// Float returns a 64-bit float cell.
func Float(f float64) Value { return Value{kind: KindFloat64, f: f} }

// Str returns a text cell.
func Str(s string) Value { return Value{kind: KindString, s: s} }

// Bytes returns a raw-bytes cell. The slice is stored as-is; callers that
// reuse buffers must copy first.
func Bytes(p []byte) Value { return Value{kind: KindBytes, raw: p} }

// Kind returns the variant tag.
func (v Value) Kind() Kind { return v.kind }

// IsNull reports whether the cell is null.
func (v Value) IsNull() bool { return v.kind == KindNull }

// AsBool returns the boolean payload (false when the kind differs).
func (v Value) AsBool() bool { return v.b }

// AsInt returns the integer payload (0 when the kind differs).
func (v Value) AsInt() int64 { return v.i }

// AsFloat returns the float payload (0 when the kind differs).
func (v Value) AsFloat() float64 { return v.f }

// AsString returns the text payload ("" when the kind differs).
func (v Value) AsString() string { return v.s }

// AsBytes returns the raw payload (nil when the kind differs).
func (v Value) AsBytes() []byte { return v.raw }

// Num returns the cell as a float64 under numeric promotion, and whether the
// cell is numeric at all.
func (v Value) Num() (float64, bool) {
	switch v.kind {
	case KindInt64:
		return float64(v.i), true
	case KindFloat64:
		return v.f, true
	default:
		return 0, false
	}
}

// From maps an arbitrary Go value produced by a source adapter onto a cell.
// Supported inputs: nil, bool, all signed/unsigned integer widths, float32/64,
// string, []byte, and Value itself. Anything else is an error; sources are
// expected to stringify exotic types before calling From.
func From(x any) (Value, error) {
	switch t := x.(type) {
	case nil:
		return Null(), nil
	case Value:
		return t, nil
	case bool:
		return Bool(t), nil
	case int:
		return Int(int64(t)), nil
	case int8:
		return Int(int64(t)), nil
	case int16:
		return Int(int64(t)), nil
	case int32:
		return Int(int64(t)), nil
	case int64:
		return Int(t), nil
	case uint:
		return Int(int64(t)), nil
	case uint8:
		return Int(int64(t)), nil
	case uint16:
		return Int(int64(t)), nil
	case uint32:
		return Int(int64(t)), nil
	case uint64:
		if t > 1<<63-1 {
			return Value{}, fmt.Errorf("value: uint64 %d overflows int64", t)
		}
		return Int(int64(t)), nil
	case float32:
		return Float(float64(t)), nil
	case float64:
		return Float(t), nil
	case string:
		return Str(t), nil
	case []byte:
		return Bytes(t), nil
	default:
		return Value{}, fmt.Errorf("value: unsupported source type %T", x)
	}
}

// Compare orders two cells within a single comparable family and reports
// whether they are comparable at all.
//
// Families:
//   - Int64/Float64: numeric promotion.
//   - String: lexicographic byte order.
//   - Bytes: lexicographic byte order.
//   - Bool: false < true.
//
// Null cells and cross-family pairs are not comparable.
func Compare(a, b Value) (int, bool) {
	if a.kind.Numeric() && b.kind.Numeric() {
		af, _ := a.Num()
		bf, _ := b.Num()
		switch {
		case af < bf:
			return -1, true
		case af > bf:
			return 1, true
		default:
			return 0, true
		}
	}
	if a.kind != b.kind {
		return 0, false
	}
	switch a.kind {
	case KindString:
		switch {
		case a.s < b.s:
			return -1, true
		case a.s > b.s:
			return 1, true
		default:
			return 0, true
		}
	case KindBytes:
		return bytes.Compare(a.raw, b.raw), true
	case KindBool:
		switch {
		case !a.b && b.b:
			return -1, true
		case a.b && !b.b:
			return 1, true
		default:
			return 0, true
		}
	default:
		return 0, false
	}
}

// String renders the cell for logs and report output.
func (v Value) String() string {
	switch v.kind {
	case KindNull:
		return "null"
	case KindBool:
		return strconv.FormatBool(v.b)
	case KindInt64:
		return strconv.FormatInt(v.i, 10)
	case KindFloat64:
		return strconv.FormatFloat(v.f, 'g', -1, 64)
	case KindString:
		return v.s
	case KindBytes:
		return fmt.Sprintf("0x%x", v.raw)
	default:
		return fmt.Sprintf("value(kind=%d)", uint8(v.kind))
	}
}

// MarshalJSON emits the natural JSON representation of the cell: null, bool,
// number, or string. Bytes are hex-encoded strings so reports stay textual.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindNull:
		return []byte("null"), nil
	case KindBool:
		return json.Marshal(v.b)
	case KindInt64:
		return json.Marshal(v.i)
	case KindFloat64:
		return json.Marshal(v.f)
	case KindString:
		return json.Marshal(v.s)
	case KindBytes:
		return json.Marshal(fmt.Sprintf("0x%x", v.raw))
	default:
		return nil, fmt.Errorf("value: cannot marshal kind %d", uint8(v.kind))
	}
}

// AppendEncode appends a canonical byte encoding of the cell to dst and
// returns the extended slice. The encoding is stable across processes (tag
// byte + payload), which makes it suitable as distinct-sketch hash input.
func (v Value) AppendEncode(dst []byte) []byte {
	dst = append(dst, byte(v.kind))
	switch v.kind {
	case KindBool:
		if v.b {
			dst = append(dst, 1)
		} else {
			dst = append(dst, 0)
		}
	case KindInt64:
		dst = appendUint64(dst, uint64(v.i))
	case KindFloat64:
		// Encode the integral floats the same way as integers so 2 and 2.0
		// count as one distinct value under numeric promotion.
		if i := int64(v.f); float64(i) == v.f {
			dst[len(dst)-1] = byte(KindInt64)
			dst = appendUint64(dst, uint64(i))
		} else {
			dst = appendUint64(dst, math.Float64bits(v.f))
		}
	case KindString:
		dst = append(dst, v.s...)
	case KindBytes:
		dst = append(dst, v.raw...)
	}
	return dst
}

func appendUint64(dst []byte, u uint64) []byte {
	return append(dst,
		byte(u>>56), byte(u>>48), byte(u>>40), byte(u>>32),
		byte(u>>24), byte(u>>16), byte(u>>8), byte(u))
}
