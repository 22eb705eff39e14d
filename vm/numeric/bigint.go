package numeric

import (
	"math/big"
)

// maxBigExponent bounds Pow on BigInt so one opcode cannot exhaust memory.
const maxBigExponent = 1 << 20

func bigBinary(op binOp, x, y *big.Int) (Value, error) {
	r := new(big.Int)
	switch op {
	case opAdd:
		r.Add(x, y)
	case opSub:
		r.Sub(x, y)
	case opMul:
		r.Mul(x, y)
	case opDiv:
		if y.Sign() == 0 {
			return Value{}, ErrDivideByZero
		}
		r.Quo(x, y)
	case opMod:
		if y.Sign() == 0 {
			return Value{}, ErrDivideByZero
		}
		r.Rem(x, y)
	case opRep:
		if y.Sign() == 0 {
			return Value{}, ErrDivideByZero
		}
		r.Rem(x, y)
		if r.Sign() < 0 {
			r.Add(r, new(big.Int).Abs(y))
		}
	case opPow:
		if y.Sign() < 0 {
			switch {
			case x.Sign() == 0:
				return Value{}, ErrDivideByZero
			case x.CmpAbs(big.NewInt(1)) == 0:
				if x.Sign() < 0 && y.Bit(0) == 1 {
					r.SetInt64(-1)
				} else {
					r.SetInt64(1)
				}
			}
			break
		}
		if !y.IsInt64() || y.Int64() > maxBigExponent {
			return Value{}, ErrInvalidValue
		}
		r.Exp(x, y, nil)
	case opAnd:
		r.And(x, y)
	case opOr:
		r.Or(x, y)
	case opXor:
		r.Xor(x, y)
	}
	return Value{kind: BigInt, b: r}, nil
}

func bigUnary(op unOp, x *big.Int) (Value, error) {
	r := new(big.Int)
	switch op {
	case opNeg:
		r.Neg(x)
	case opInc:
		r.Add(x, big.NewInt(1))
	case opDec:
		r.Sub(x, big.NewInt(1))
	case opAbs:
		r.Abs(x)
	case opNot:
		r.Not(x)
	}
	return Value{kind: BigInt, b: r}, nil
}
