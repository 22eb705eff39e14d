package numeric

import "math/bits"

func unsignedBinary(st Status, k Kind, op binOp, x, y uint64) (Value, error) {
	width := k.Bits()
	var r uint64
	var overflow bool
	switch op {
	case opAdd:
		r, overflow = addUnsigned(width, x, y)
	case opSub:
		if y > x {
			r, overflow = 0, true
		} else {
			r = x - y
		}
	case opMul:
		r, overflow = mulUnsigned(width, x, y)
	case opDiv:
		if y == 0 {
			return Value{}, ErrDivideByZero
		}
		r = x / y
	case opMod, opRep:
		if y == 0 {
			return Value{}, ErrDivideByZero
		}
		r = x % y
	case opPow:
		r, overflow = powUnsigned(width, x, y)
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
	return Value{kind: k, u: r}, nil
}

// addUnsigned overflows iff the raw sum is less than an operand.
func addUnsigned(width uint, x, y uint64) (uint64, bool) {
	max := maxUnsigned(width)
	r := x + y
	if r < x || r > max {
		return max, true
	}
	return r, false
}

func mulUnsigned(width uint, x, y uint64) (uint64, bool) {
	max := maxUnsigned(width)
	hi, lo := bits.Mul64(x, y)
	if hi != 0 || lo > max {
		return max, true
	}
	return lo, false
}

func powUnsigned(width uint, x, y uint64) (uint64, bool) {
	result, base := uint64(1), x
	for y > 0 {
		var ov bool
		if y&1 == 1 {
			if result, ov = mulUnsigned(width, result, base); ov {
				return maxUnsigned(width), true
			}
		}
		y >>= 1
		if y > 0 {
			if base, ov = mulUnsigned(width, base, base); ov {
				return maxUnsigned(width), true
			}
		}
	}
	return result, false
}

func unsignedUnary(st Status, k Kind, op unOp, x uint64) (Value, error) {
	width := k.Bits()
	var r uint64
	var overflow bool
	switch op {
	case opNeg:
		// No negative values exist; anything but zero saturates to zero.
		overflow = x != 0
	case opInc:
		r, overflow = addUnsigned(width, x, 1)
	case opDec:
		if x == 0 {
			overflow = true
		} else {
			r = x - 1
		}
	case opAbs:
		r = x
	case opNot:
		return Value{kind: k, u: ^x & maxUnsigned(width)}, nil
	}
	setOverflow(st, overflow)
	return Value{kind: k, u: r}, nil
}
