package numeric

import (
	"math"
	"math/big"
	"strconv"

	"github.com/cockroachdb/apd/v3"
	"github.com/x448/float16"
)

// Value is an immutable numeric value. Exactly one payload field is
// meaningful, selected by kind's Class.
type Value struct {
	kind Kind
	i    int64
	u    uint64
	f    float64
	c    complex128
	b    *big.Int
	d    *apd.Decimal
}

// Zero is the default accumulator value, 0i32.
var Zero = FromInt32(0)

// ---------------------------------------------------------------------------
// Constructors
// ---------------------------------------------------------------------------

func FromInt8(v int8) Value   { return Value{kind: SByte, i: int64(v)} }
func FromInt16(v int16) Value { return Value{kind: Short, i: int64(v)} }
func FromInt32(v int32) Value { return Value{kind: Int, i: int64(v)} }
func FromInt64(v int64) Value { return Value{kind: Long, i: v} }
func FromInt(v int) Value     { return Value{kind: NInt, i: int64(v)} }

func FromUint8(v uint8) Value   { return Value{kind: Byte, u: uint64(v)} }
func FromUint16(v uint16) Value { return Value{kind: UShort, u: uint64(v)} }
func FromUint32(v uint32) Value { return Value{kind: UInt, u: uint64(v)} }
func FromUint64(v uint64) Value { return Value{kind: ULong, u: v} }
func FromUint(v uint) Value     { return Value{kind: NUInt, u: uint64(v)} }

// FromBig returns a BigInt value holding a copy of v.
func FromBig(v *big.Int) Value {
	return Value{kind: BigInt, b: new(big.Int).Set(v)}
}

// FromHalf returns a Half value.
func FromHalf(v float16.Float16) Value {
	return Value{kind: Half, f: float64(v.Float32())}
}

func FromFloat32(v float32) Value { return Value{kind: Float, f: float64(v)} }
func FromFloat64(v float64) Value { return Value{kind: Double, f: v} }

// FromComplex returns a Complex value.
func FromComplex(v complex128) Value { return Value{kind: Complex, c: v} }

// FromDecimal returns a Decimal value. Values outside the decimal range
// saturate; the second result reports whether that happened.
func FromDecimal(v *apd.Decimal) (Value, bool) {
	d, overflow := fitDecimal(v)
	return Value{kind: Decimal, d: d}, overflow
}

// NewInt returns a signed value of kind k, wrapping i to k's width.
func NewInt(k Kind, i int64) Value {
	return Value{kind: k, i: wrapSigned(k.Bits(), i)}
}

// NewUint returns an unsigned value of kind k, truncating u to k's width.
func NewUint(k Kind, u uint64) Value {
	return Value{kind: k, u: wrapUnsigned(k.Bits(), u)}
}

// NewFloat returns a float value of kind k rounded to k's precision.
func NewFloat(k Kind, f float64) Value {
	return Value{kind: k, f: roundFloat(k, f)}
}

// ---------------------------------------------------------------------------
// Accessors
// ---------------------------------------------------------------------------

// Kind returns the value's kind. The zero Value reports Invalid.
func (v Value) Kind() Kind { return v.kind }

// IsValid reports whether v was produced by a constructor.
func (v Value) IsValid() bool { return v.kind.Valid() }

// Int64 returns the payload of a signed value.
func (v Value) Int64() int64 { return v.i }

// Uint64 returns the payload of an unsigned value.
func (v Value) Uint64() uint64 { return v.u }

// Float64 returns the payload of a binary float value.
func (v Value) Float64() float64 { return v.f }

// Complex128 returns the payload of a complex value.
func (v Value) Complex128() complex128 { return v.c }

// Big returns a copy of a BigInt payload.
func (v Value) Big() *big.Int {
	if v.b == nil {
		return new(big.Int)
	}
	return new(big.Int).Set(v.b)
}

// Decimal returns a copy of a Decimal payload.
func (v Value) Decimal() *apd.Decimal {
	if v.d == nil {
		return new(apd.Decimal)
	}
	return new(apd.Decimal).Set(v.d)
}

// Half returns the payload of a Half value in its storage form.
func (v Value) Half() float16.Float16 {
	return float16.Fromfloat32(float32(v.f))
}

// IsZero reports whether v equals zero of its kind.
func (v Value) IsZero() bool {
	switch v.kind.Class() {
	case ClassSigned:
		return v.i == 0
	case ClassUnsigned:
		return v.u == 0
	case ClassFloat:
		return v.f == 0
	case ClassBig:
		return v.b == nil || v.b.Sign() == 0
	case ClassDecimal:
		return v.d == nil || v.d.IsZero()
	case ClassComplex:
		return v.c == 0
	}
	return true
}

// IsNegative reports whether v is below zero. Complex values are never
// negative.
func (v Value) IsNegative() bool {
	switch v.kind.Class() {
	case ClassSigned:
		return v.i < 0
	case ClassFloat:
		return math.Signbit(v.f) && v.f != 0
	case ClassBig:
		return v.b != nil && v.b.Sign() < 0
	case ClassDecimal:
		return v.d != nil && v.d.Sign() < 0
	}
	return false
}

// Equal reports whether v and o hold the same kind and number. Two NaNs of
// the same kind are equal.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind.Class() {
	case ClassSigned:
		return v.i == o.i
	case ClassUnsigned:
		return v.u == o.u
	case ClassFloat:
		return sameFloat(v.f, o.f)
	case ClassBig:
		return v.Big().Cmp(o.Big()) == 0
	case ClassDecimal:
		return v.Decimal().Cmp(o.Decimal()) == 0
	case ClassComplex:
		return sameFloat(real(v.c), real(o.c)) && sameFloat(imag(v.c), imag(o.c))
	}
	return true
}

// sameFloat is == except that NaN matches NaN.
func sameFloat(a, b float64) bool {
	return a == b || (math.IsNaN(a) && math.IsNaN(b))
}

// String formats v as a literal that Parse accepts.
func (v Value) String() string {
	switch v.kind.Class() {
	case ClassSigned:
		return strconv.FormatInt(v.i, 10) + v.kind.Suffix()
	case ClassUnsigned:
		return strconv.FormatUint(v.u, 10) + v.kind.Suffix()
	case ClassFloat:
		bitSize := 64
		if v.kind != Double {
			bitSize = 32
		}
		return strconv.FormatFloat(v.f, 'g', -1, bitSize) + v.kind.Suffix()
	case ClassBig:
		return v.Big().String() + v.kind.Suffix()
	case ClassDecimal:
		return v.Decimal().Text('f') + v.kind.Suffix()
	case ClassComplex:
		return strconv.FormatComplex(v.c, 'g', -1, 128)
	}
	return "<invalid>"
}

// ---------------------------------------------------------------------------
// Width helpers
// ---------------------------------------------------------------------------

func minSigned(bits uint) int64 { return -1 << (bits - 1) }
func maxSigned(bits uint) int64 { return 1<<(bits-1) - 1 }

func maxUnsigned(bits uint) uint64 {
	if bits >= 64 {
		return math.MaxUint64
	}
	return 1<<bits - 1
}

func wrapSigned(bits uint, i int64) int64 {
	if bits == 0 || bits >= 64 {
		return i
	}
	shift := 64 - bits
	return i << shift >> shift
}

func wrapUnsigned(bits uint, u uint64) uint64 {
	return u & maxUnsigned(bits)
}

// MinValue returns the smallest value of a fixed-width integer kind.
func MinValue(k Kind) Value {
	if k.Class() == ClassUnsigned {
		return Value{kind: k}
	}
	return Value{kind: k, i: minSigned(k.Bits())}
}

// MaxValue returns the largest value of a fixed-width integer kind.
func MaxValue(k Kind) Value {
	if k.Class() == ClassUnsigned {
		return Value{kind: k, u: maxUnsigned(k.Bits())}
	}
	return Value{kind: k, i: maxSigned(k.Bits())}
}

func roundFloat(k Kind, f float64) float64 {
	switch k {
	case Half:
		return float64(float16.Fromfloat32(float32(f)).Float32())
	case Float:
		return float64(float32(f))
	}
	return f
}

func float16Frombits(b uint16) float32 {
	return float16.Frombits(b).Float32()
}
