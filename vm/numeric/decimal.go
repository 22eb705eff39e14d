package numeric

import (
	"fmt"
	"math"
	"math/big"

	"github.com/cockroachdb/apd/v3"
)

// Decimal values carry a 96-bit coefficient and a scale of 0..28, matching
// the 128-bit wire layout.
const (
	DecimalMaxScale = 28
	decimalCoeffBits = 96
)

var (
	// decimalCtx computes with headroom; fitDecimal narrows the result.
	decimalCtx = apd.Context{
		Precision:   40,
		MaxExponent: apd.MaxExponent,
		MinExponent: apd.MinExponent,
		Rounding:    apd.RoundHalfEven,
		Traps:       apd.DefaultTraps &^ apd.Inexact &^ apd.Rounded,
	}

	truncCtx = apd.Context{
		Precision:   40,
		MaxExponent: apd.MaxExponent,
		MinExponent: apd.MinExponent,
		Rounding:    apd.RoundDown,
	}

	maxDecimalCoeff = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), decimalCoeffBits), big.NewInt(1))
)

// MaxDecimal returns the largest finite Decimal.
func MaxDecimal() Value {
	return Value{kind: Decimal, d: apd.NewWithBigInt(new(apd.BigInt).SetMathBigInt(maxDecimalCoeff), 0)}
}

// MinDecimal returns the smallest finite Decimal.
func MinDecimal() Value {
	d := MaxDecimal().d
	d.Negative = true
	return Value{kind: Decimal, d: d}
}

// fitDecimal narrows d into the 96-bit coefficient / 0..28 scale range.
// Values too large saturate to the signed maximum and report overflow.
// Non-finite inputs saturate the same way; NaN becomes zero.
func fitDecimal(in *apd.Decimal) (*apd.Decimal, bool) {
	if in == nil {
		return new(apd.Decimal), false
	}
	d := new(apd.Decimal).Set(in)
	switch d.Form {
	case apd.NaN, apd.NaNSignaling:
		return new(apd.Decimal), true
	case apd.Infinite:
		return saturatedDecimal(d.Negative), true
	}
	if d.Exponent > 0 {
		if _, err := decimalCtx.Quantize(d, d, 0); err != nil {
			return saturatedDecimal(d.Negative), true
		}
	}
	if d.Exponent < -DecimalMaxScale {
		if _, err := decimalCtx.Quantize(d, d, -DecimalMaxScale); err != nil {
			return saturatedDecimal(d.Negative), true
		}
	}
	for d.Coeff.BitLen() > decimalCoeffBits {
		if d.Exponent >= 0 {
			return saturatedDecimal(d.Negative), true
		}
		if _, err := decimalCtx.Quantize(d, d, d.Exponent+1); err != nil {
			return saturatedDecimal(d.Negative), true
		}
	}
	if d.IsZero() {
		d.Negative = false
	}
	return d, false
}

func saturatedDecimal(negative bool) *apd.Decimal {
	if negative {
		return MinDecimal().d
	}
	return MaxDecimal().d
}

// decimalToBig truncates d toward zero. The boolean reports whether d was
// already integral.
func decimalToBig(d *apd.Decimal) (*big.Int, bool) {
	if d == nil {
		return new(big.Int), true
	}
	if d.Form != apd.Finite {
		return new(big.Int), false
	}
	var t apd.Decimal
	if _, err := truncCtx.RoundToIntegralValue(&t, d); err != nil {
		return new(big.Int), false
	}
	b, ok := new(big.Int).SetString(t.Text('f'), 10)
	if !ok {
		return new(big.Int), false
	}
	return b, t.Cmp(d) == 0
}

func bigToDecimal(b *big.Int) *apd.Decimal {
	return apd.NewWithBigInt(new(apd.BigInt).SetMathBigInt(b), 0)
}

func floatToDecimal(f float64) (*apd.Decimal, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return new(apd.Decimal), false
	}
	d, err := new(apd.Decimal).SetFloat64(f)
	if err != nil {
		return new(apd.Decimal), false
	}
	return d, true
}

// ---------------------------------------------------------------------------
// Decimal arithmetic
// ---------------------------------------------------------------------------

func decimalBinary(st Status, op binOp, x, y *apd.Decimal) (Value, error) {
	r := new(apd.Decimal)
	var err error
	switch op {
	case opAdd:
		_, err = decimalCtx.Add(r, x, y)
	case opSub:
		_, err = decimalCtx.Sub(r, x, y)
	case opMul:
		_, err = decimalCtx.Mul(r, x, y)
	case opDiv:
		if y.IsZero() {
			return Value{}, ErrDivideByZero
		}
		_, err = decimalCtx.Quo(r, x, y)
	case opMod, opRep:
		if y.IsZero() {
			return Value{}, ErrDivideByZero
		}
		_, err = decimalCtx.Rem(r, x, y)
		if err == nil && op == opRep && r.Sign() < 0 {
			abs := new(apd.Decimal)
			decimalCtx.Abs(abs, y)
			_, err = decimalCtx.Add(r, r, abs)
		}
	case opPow:
		_, err = decimalCtx.Pow(r, x, y)
	default:
		return Value{}, unsupported(op.String(), Decimal)
	}
	if err != nil {
		return Value{}, err
	}
	d, overflow := fitDecimal(r)
	setOverflow(st, overflow)
	return Value{kind: Decimal, d: d}, nil
}

func decimalUnary(st Status, op unOp, x *apd.Decimal) (Value, error) {
	r := new(apd.Decimal)
	var err error
	switch op {
	case opNeg:
		decimalCtx.Neg(r, x)
	case opInc:
		_, err = decimalCtx.Add(r, x, apd.New(1, 0))
	case opDec:
		_, err = decimalCtx.Sub(r, x, apd.New(1, 0))
	case opAbs:
		decimalCtx.Abs(r, x)
	default:
		return Value{}, unsupported(op.String(), Decimal)
	}
	if err != nil {
		return Value{}, err
	}
	d, overflow := fitDecimal(r)
	setOverflow(st, overflow)
	return Value{kind: Decimal, d: d}, nil
}

func decimalMath(fn Func, x *apd.Decimal) (Value, error) {
	r := new(apd.Decimal)
	var err error
	switch fn {
	case FnExp:
		_, err = decimalCtx.Exp(r, x)
	case FnLn:
		_, err = decimalCtx.Ln(r, x)
	case FnLog10:
		_, err = decimalCtx.Log10(r, x)
	case FnLog2:
		ln2 := new(apd.Decimal)
		if _, err = decimalCtx.Ln(ln2, apd.New(2, 0)); err == nil {
			if _, err = decimalCtx.Ln(r, x); err == nil {
				_, err = decimalCtx.Quo(r, r, ln2)
			}
		}
	case FnFloor:
		_, err = decimalCtx.Floor(r, x)
	case FnCeiling:
		_, err = decimalCtx.Ceil(r, x)
	case FnInverse:
		if x.IsZero() {
			return Value{}, ErrDivideByZero
		}
		_, err = decimalCtx.Quo(r, apd.New(1, 0), x)
	case FnSin, FnCos, FnTan, FnAsin, FnAcos, FnAtan, FnSinh, FnCosh, FnTanh:
		// apd has no trigonometry; go through float64.
		f, ferr := x.Float64()
		if ferr != nil {
			return Value{}, ferr
		}
		d, ok := floatToDecimal(floatFunc(fn, f))
		if !ok {
			return Value{}, ErrInvalidValue
		}
		r = d
	default:
		return Value{}, unsupported(fn.String(), Decimal)
	}
	if err != nil {
		return Value{}, err
	}
	d, _ := fitDecimal(r)
	return Value{kind: Decimal, d: d}, nil
}

func decimalRoot(x, n *apd.Decimal) (Value, error) {
	r := new(apd.Decimal)
	two := apd.New(2, 0)
	var err error
	if n.Cmp(two) == 0 {
		_, err = decimalCtx.Sqrt(r, x)
	} else {
		if n.IsZero() {
			return Value{}, ErrDivideByZero
		}
		inv := new(apd.Decimal)
		if _, err = decimalCtx.Quo(inv, apd.New(1, 0), n); err == nil {
			_, err = decimalCtx.Pow(r, x, inv)
		}
	}
	if err != nil {
		return Value{}, err
	}
	d, _ := fitDecimal(r)
	return Value{kind: Decimal, d: d}, nil
}

// DecimalBits splits a Decimal into the 128-bit wire layout: the 96-bit
// coefficient as lo, mid and hi words, then a flags word holding the scale
// in bits 16-23 and the sign in bit 31.
func (v Value) DecimalBits() (lo, mid, hi, flags uint32, err error) {
	if v.kind != Decimal {
		return 0, 0, 0, 0, unsupported("DecimalBits", v.kind)
	}
	d, _ := fitDecimal(v.d)
	coeff := d.Coeff.MathBigInt()
	words := [3]uint32{}
	for i := range words {
		words[i] = uint32(lowBits(coeff))
		coeff.Rsh(coeff, 32)
	}
	flags = uint32(-d.Exponent) << 16
	if d.Negative && !d.IsZero() {
		flags |= 1 << 31
	}
	return words[0], words[1], words[2], flags, nil
}

// FromDecimalBits is the inverse of DecimalBits.
func FromDecimalBits(lo, mid, hi, flags uint32) (Value, error) {
	scale := int32(flags >> 16 & 0xFF)
	if scale > DecimalMaxScale || flags&^(0xFF<<16|1<<31) != 0 {
		return Value{}, fmt.Errorf("%w: decimal flags %#08x", ErrInvalidValue, flags)
	}
	coeff := new(big.Int).SetUint64(uint64(hi))
	coeff.Lsh(coeff, 32).Or(coeff, new(big.Int).SetUint64(uint64(mid)))
	coeff.Lsh(coeff, 32).Or(coeff, new(big.Int).SetUint64(uint64(lo)))
	d := apd.NewWithBigInt(new(apd.BigInt).SetMathBigInt(coeff), -scale)
	d.Negative = flags&(1<<31) != 0
	return Value{kind: Decimal, d: d}, nil
}
