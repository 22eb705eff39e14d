package numeric

import (
	"math"
	"math/cmplx"
)

func complexBinary(op binOp, x, y complex128) (Value, error) {
	var r complex128
	switch op {
	case opAdd:
		r = x + y
	case opSub:
		r = x - y
	case opMul:
		r = x * y
	case opDiv:
		r = x / y
	case opPow:
		r = cmplx.Pow(x, y)
	default:
		return Value{}, unsupported(op.String(), Complex)
	}
	return Value{kind: Complex, c: r}, nil
}

func complexUnary(op unOp, x complex128) (Value, error) {
	switch op {
	case opNeg:
		return Value{kind: Complex, c: -x}, nil
	case opAbs:
		return FromFloat64(cmplx.Abs(x)), nil
	}
	return Value{}, unsupported(op.String(), Complex)
}

func complexFunc(fn Func, x complex128) (Value, error) {
	var r complex128
	switch fn {
	case FnSin:
		r = cmplx.Sin(x)
	case FnCos:
		r = cmplx.Cos(x)
	case FnTan:
		r = cmplx.Tan(x)
	case FnAsin:
		r = cmplx.Asin(x)
	case FnAcos:
		r = cmplx.Acos(x)
	case FnAtan:
		r = cmplx.Atan(x)
	case FnExp:
		r = cmplx.Exp(x)
	case FnLn:
		r = cmplx.Log(x)
	case FnLog2:
		r = cmplx.Log(x) / complex(math.Ln2, 0)
	case FnLog10:
		r = cmplx.Log10(x)
	case FnInverse:
		r = 1 / x
	default:
		return Value{}, unsupported(fn.String(), Complex)
	}
	return Value{kind: Complex, c: r}, nil
}
