package numeric

import "math"

// Kinds narrower than 64 bits are computed in 64-bit host arithmetic and
// clamped back, so only Long and NInt need explicit overflow detection.

func signedBinary(st Status, k Kind, op binOp, x, y int64) (Value, error) {
	bits := k.Bits()
	var r int64
	var overflow bool
	switch op {
	case opAdd:
		r, overflow = addSigned(bits, x, y)
	case opSub:
		r, overflow = subSigned(bits, x, y)
	case opMul:
		r, overflow = mulSigned(bits, x, y)
	case opDiv:
		if y == 0 {
			return Value{}, ErrDivideByZero
		}
		if x == minSigned(bits) && y == -1 {
			r, overflow = maxSigned(bits), true
		} else {
			r = x / y
		}
	case opMod:
		if y == 0 {
			return Value{}, ErrDivideByZero
		}
		if y != -1 {
			r = x % y
		}
	case opRep:
		if y == 0 {
			return Value{}, ErrDivideByZero
		}
		if y != -1 {
			r = x % y
		}
		if r < 0 {
			// r - y adds |y| when y is negative without computing -y.
			if y < 0 {
				r -= y
			} else {
				r += y
			}
		}
	case opPow:
		var err error
		r, overflow, err = powSigned(bits, x, y)
		if err != nil {
			return Value{}, err
		}
	case opAnd:
		r = x & y
	case opOr:
		r = x | y
	case opXor:
		r = x ^ y
	}
	switch op {
	case opAdd, opSub, opMul, opDiv, opPow:
		setOverflow(st, overflow)
	}
	return Value{kind: k, i: r}, nil
}

func clampSigned(bits uint, r int64) (int64, bool) {
	if lo := minSigned(bits); r < lo {
		return lo, true
	}
	if hi := maxSigned(bits); r > hi {
		return hi, true
	}
	return r, false
}

// addSigned overflows iff both operands share a sign and the raw sum does
// not; the result saturates toward that sign.
func addSigned(bits uint, x, y int64) (int64, bool) {
	if bits < 64 {
		return clampSigned(bits, x+y)
	}
	r := x + y
	if (x >= 0) == (y >= 0) && (r >= 0) != (x >= 0) {
		if x >= 0 {
			return math.MaxInt64, true
		}
		return math.MinInt64, true
	}
	return r, false
}

// subSigned adds the negation of y. The minimum has no negation, so
// x - min is computed as x + max + 1.
func subSigned(bits uint, x, y int64) (int64, bool) {
	if y == minSigned(bits) {
		if x >= 0 {
			return maxSigned(bits), true
		}
		return x + maxSigned(bits) + 1, false
	}
	return addSigned(bits, x, -y)
}

func mulSigned(bits uint, x, y int64) (int64, bool) {
	if bits <= 32 {
		return clampSigned(bits, x*y)
	}
	if x == 0 || y == 0 {
		return 0, false
	}
	negative := (x < 0) != (y < 0)
	if (x == -1 && y == math.MinInt64) || (y == -1 && x == math.MinInt64) {
		return math.MaxInt64, true
	}
	r := x * y
	if r/y != x {
		if negative {
			return math.MinInt64, true
		}
		return math.MaxInt64, true
	}
	return r, false
}

func powSigned(bits uint, x, y int64) (int64, bool, error) {
	if y < 0 {
		switch x {
		case 0:
			return 0, false, ErrDivideByZero
		case 1:
			return 1, false, nil
		case -1:
			if y%2 == 0 {
				return 1, false, nil
			}
			return -1, false, nil
		}
		return 0, false, nil
	}
	negative := x < 0 && y%2 == 1
	saturated := maxSigned(bits)
	if negative {
		saturated = minSigned(bits)
	}
	result, base := int64(1), x
	for y > 0 {
		var ov bool
		if y&1 == 1 {
			if result, ov = mulSigned(bits, result, base); ov {
				return saturated, true, nil
			}
		}
		y >>= 1
		if y > 0 {
			// A squared base that overflows is always multiplied in later.
			if base, ov = mulSigned(bits, base, base); ov {
				return saturated, true, nil
			}
		}
	}
	return result, false, nil
}

func signedUnary(st Status, k Kind, op unOp, x int64) (Value, error) {
	bits := k.Bits()
	var r int64
	var overflow bool
	switch op {
	case opNeg:
		if x == minSigned(bits) {
			r, overflow = maxSigned(bits), true
		} else {
			r = -x
		}
	case opInc:
		r, overflow = addSigned(bits, x, 1)
	case opDec:
		r, overflow = subSigned(bits, x, 1)
	case opAbs:
		switch {
		case x == minSigned(bits):
			r, overflow = maxSigned(bits), true
		case x < 0:
			r = -x
		default:
			r = x
		}
	case opNot:
		return Value{kind: k, i: ^x}, nil
	}
	setOverflow(st, overflow)
	return Value{kind: k, i: r}, nil
}
