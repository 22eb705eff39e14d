package numeric

import (
	"math"
	"math/big"

	"github.com/cockroachdb/apd/v3"
)

// To converts v to kind k. Integer narrowing wraps (two's complement),
// float to integer truncates toward zero and saturates at the target range.
// The boolean reports whether the conversion was exact and in range.
func (v Value) To(k Kind) (Value, bool) {
	if v.kind == k {
		return v, true
	}
	if !v.kind.Valid() || !k.Valid() {
		return Value{}, false
	}
	switch k.Class() {
	case ClassSigned:
		i, ok := v.toSigned(k.Bits())
		return Value{kind: k, i: i}, ok
	case ClassUnsigned:
		u, ok := v.toUnsigned(k.Bits())
		return Value{kind: k, u: u}, ok
	case ClassBig:
		b, ok := v.toBig()
		return Value{kind: k, b: b}, ok
	case ClassFloat:
		f, ok := v.toFloat64()
		r := roundFloat(k, f)
		if math.IsInf(r, 0) && !math.IsInf(f, 0) {
			ok = false
		}
		return Value{kind: k, f: r}, ok
	case ClassDecimal:
		d, ok := v.toDecimal()
		fit, overflow := fitDecimal(d)
		return Value{kind: k, d: fit}, ok && !overflow
	case ClassComplex:
		c, ok := v.toComplex()
		return Value{kind: k, c: c}, ok
	}
	return Value{}, false
}

func (v Value) toSigned(bits uint) (int64, bool) {
	switch v.kind.Class() {
	case ClassSigned:
		w := wrapSigned(bits, v.i)
		return w, w == v.i
	case ClassUnsigned:
		return wrapSigned(bits, int64(v.u)), v.u <= uint64(maxSigned(bits))
	case ClassFloat:
		return floatToSigned(bits, v.f)
	case ClassBig:
		return bigToSigned(bits, v.b)
	case ClassDecimal:
		b, exact := decimalToBig(v.d)
		i, ok := bigToSigned(bits, b)
		return i, ok && exact
	case ClassComplex:
		i, ok := floatToSigned(bits, real(v.c))
		return i, ok && imag(v.c) == 0
	}
	return 0, false
}

func (v Value) toUnsigned(bits uint) (uint64, bool) {
	switch v.kind.Class() {
	case ClassSigned:
		return wrapUnsigned(bits, uint64(v.i)), v.i >= 0 && uint64(v.i) <= maxUnsigned(bits)
	case ClassUnsigned:
		w := wrapUnsigned(bits, v.u)
		return w, w == v.u
	case ClassFloat:
		return floatToUnsigned(bits, v.f)
	case ClassBig:
		return bigToUnsigned(bits, v.b)
	case ClassDecimal:
		b, exact := decimalToBig(v.d)
		u, ok := bigToUnsigned(bits, b)
		return u, ok && exact
	case ClassComplex:
		u, ok := floatToUnsigned(bits, real(v.c))
		return u, ok && imag(v.c) == 0
	}
	return 0, false
}

func (v Value) toBig() (*big.Int, bool) {
	switch v.kind.Class() {
	case ClassSigned:
		return big.NewInt(v.i), true
	case ClassUnsigned:
		return new(big.Int).SetUint64(v.u), true
	case ClassFloat:
		return floatToBig(v.f)
	case ClassBig:
		return v.Big(), true
	case ClassDecimal:
		return decimalToBig(v.d)
	case ClassComplex:
		b, ok := floatToBig(real(v.c))
		return b, ok && imag(v.c) == 0
	}
	return new(big.Int), false
}

// toFloat64 reports ok=false only when the source is out of float64 range
// or carries an imaginary part; precision loss is not tracked.
func (v Value) toFloat64() (float64, bool) {
	switch v.kind.Class() {
	case ClassSigned:
		return float64(v.i), true
	case ClassUnsigned:
		return float64(v.u), true
	case ClassFloat:
		return v.f, true
	case ClassBig:
		f, _ := new(big.Float).SetInt(v.b).Float64()
		return f, !math.IsInf(f, 0)
	case ClassDecimal:
		f, err := v.d.Float64()
		return f, err == nil
	case ClassComplex:
		return real(v.c), imag(v.c) == 0
	}
	return 0, false
}

func (v Value) toDecimal() (*apd.Decimal, bool) {
	switch v.kind.Class() {
	case ClassSigned:
		return apd.New(v.i, 0), true
	case ClassUnsigned:
		return bigToDecimal(new(big.Int).SetUint64(v.u)), true
	case ClassFloat:
		return floatToDecimal(v.f)
	case ClassBig:
		return bigToDecimal(v.b), true
	case ClassDecimal:
		return v.Decimal(), true
	case ClassComplex:
		d, ok := floatToDecimal(real(v.c))
		return d, ok && imag(v.c) == 0
	}
	return new(apd.Decimal), false
}

func (v Value) toComplex() (complex128, bool) {
	if v.kind == Complex {
		return v.c, true
	}
	f, ok := v.toFloat64()
	return complex(f, 0), ok
}

// ---------------------------------------------------------------------------
// Scalar helpers
// ---------------------------------------------------------------------------

func floatToSigned(bits uint, f float64) (int64, bool) {
	if math.IsNaN(f) {
		return 0, false
	}
	t := math.Trunc(f)
	lo, hi := minSigned(bits), maxSigned(bits)
	if t < float64(lo) {
		return lo, false
	}
	// float64(hi) rounds up to 2^(bits-1) for 64-bit kinds.
	if t >= -float64(lo) {
		return hi, false
	}
	return int64(t), t == f
}

func floatToUnsigned(bits uint, f float64) (uint64, bool) {
	if math.IsNaN(f) {
		return 0, false
	}
	t := math.Trunc(f)
	if t < 0 {
		return 0, false
	}
	limit := math.Ldexp(1, int(bits))
	if t >= limit {
		return maxUnsigned(bits), false
	}
	return uint64(t), t == f
}

func floatToBig(f float64) (*big.Int, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return new(big.Int), false
	}
	b, acc := big.NewFloat(f).Int(nil)
	return b, acc == big.Exact
}

var mask64 = new(big.Int).SetUint64(math.MaxUint64)

// lowBits returns the low 64 bits of b's two's complement representation.
func lowBits(b *big.Int) uint64 {
	return new(big.Int).And(b, mask64).Uint64()
}

func bigToSigned(bits uint, b *big.Int) (int64, bool) {
	if b == nil {
		return 0, true
	}
	w := wrapSigned(bits, int64(lowBits(b)))
	return w, b.IsInt64() && b.Int64() == w
}

func bigToUnsigned(bits uint, b *big.Int) (uint64, bool) {
	if b == nil {
		return 0, true
	}
	w := wrapUnsigned(bits, lowBits(b))
	return w, b.Sign() >= 0 && b.BitLen() <= int(bits)
}
