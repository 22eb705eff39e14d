package numeric

import (
	"cmp"
	"math"
)

// Float kinds compute in float64 and round to their own precision. Overflow
// is reported when finite operands produce an infinite result.

func floatBinary(st Status, k Kind, op binOp, x, y float64) (Value, error) {
	var r float64
	switch op {
	case opAdd:
		r = x + y
	case opSub:
		r = x - y
	case opMul:
		r = x * y
	case opDiv:
		r = x / y
	case opMod:
		r = math.Mod(x, y)
	case opRep:
		r = math.Mod(x, y)
		if r < 0 {
			r += math.Abs(y)
		}
	case opPow:
		r = math.Pow(x, y)
	default:
		return Value{}, unsupported(op.String(), k)
	}
	r = roundFloat(k, r)
	switch op {
	case opAdd, opSub, opMul, opDiv, opPow:
		setOverflow(st, math.IsInf(r, 0) && !math.IsInf(x, 0) && !math.IsInf(y, 0) && !(op == opDiv && y == 0))
	}
	return Value{kind: k, f: r}, nil
}

func floatUnary(st Status, k Kind, op unOp, x float64) (Value, error) {
	var r float64
	switch op {
	case opNeg:
		r = -x
	case opInc:
		r = x + 1
	case opDec:
		r = x - 1
	case opAbs:
		r = math.Abs(x)
	default:
		return Value{}, unsupported(op.String(), k)
	}
	r = roundFloat(k, r)
	setOverflow(st, math.IsInf(r, 0) && !math.IsInf(x, 0))
	return Value{kind: k, f: r}, nil
}

func cmpFloat(x, y float64) int {
	return cmp.Compare(x, y)
}

func floatFunc(fn Func, x float64) float64 {
	switch fn {
	case FnSin:
		return math.Sin(x)
	case FnCos:
		return math.Cos(x)
	case FnTan:
		return math.Tan(x)
	case FnAsin:
		return math.Asin(x)
	case FnAcos:
		return math.Acos(x)
	case FnAtan:
		return math.Atan(x)
	case FnSinh:
		return math.Sinh(x)
	case FnCosh:
		return math.Cosh(x)
	case FnTanh:
		return math.Tanh(x)
	case FnExp:
		return math.Exp(x)
	case FnLn:
		return math.Log(x)
	case FnLog2:
		return math.Log2(x)
	case FnLog10:
		return math.Log10(x)
	case FnInverse:
		return 1 / x
	case FnFloor:
		return math.Floor(x)
	case FnCeiling:
		return math.Ceil(x)
	}
	return math.NaN()
}

// RawBits returns the IEEE bit pattern of a binary float as the unsigned
// kind of the same width.
func (v Value) RawBits() (Value, error) {
	switch v.kind {
	case Half:
		return FromUint16(v.Half().Bits()), nil
	case Float:
		return FromUint32(math.Float32bits(float32(v.f))), nil
	case Double:
		return FromUint64(math.Float64bits(v.f)), nil
	}
	return Value{}, unsupported("RawBits", v.kind)
}

// FromRawBits is the inverse of RawBits for float kind k.
func FromRawBits(k Kind, raw uint64) (Value, error) {
	switch k {
	case Half:
		return Value{kind: Half, f: float64(float16Frombits(uint16(raw)))}, nil
	case Float:
		return FromFloat32(math.Float32frombits(uint32(raw))), nil
	case Double:
		return FromFloat64(math.Float64frombits(raw)), nil
	}
	return Value{}, unsupported("FromRawBits", k)
}
