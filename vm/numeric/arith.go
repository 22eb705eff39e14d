package numeric

import "fmt"

// Status is the slice of the condition register that arithmetic reads and
// writes. A nil Status discards flag updates and reads carry as clear.
type Status interface {
	Carry() bool
	SetCarry(bool)
	SetOverflow(bool)
}

func setOverflow(st Status, b bool) {
	if st != nil {
		st.SetOverflow(b)
	}
}

func setCarry(st Status, b bool) {
	if st != nil {
		st.SetCarry(b)
	}
}

func carry(st Status) bool {
	return st != nil && st.Carry()
}

type binOp uint8

const (
	opAdd binOp = iota
	opSub
	opMul
	opDiv
	opMod
	opRep
	opPow
	opAnd
	opOr
	opXor
)

var binOpNames = [...]string{"Add", "Subtract", "Multiply", "Divide", "Modulus", "Repeat", "Pow", "And", "Or", "Xor"}

func (op binOp) String() string { return binOpNames[op] }

type unOp uint8

const (
	opNeg unOp = iota
	opInc
	opDec
	opAbs
	opNot
)

var unOpNames = [...]string{"Negate", "Increment", "Decrement", "Abs", "Not"}

func (op unOp) String() string { return unOpNames[op] }

// ---------------------------------------------------------------------------
// Binary operations
// ---------------------------------------------------------------------------

// Add returns v+o in the promoted kind, saturating on overflow.
func (v Value) Add(st Status, o Value) (Value, error) { return binary(st, opAdd, v, o) }

// Subtract returns v-o in the promoted kind, saturating on overflow.
func (v Value) Subtract(st Status, o Value) (Value, error) { return binary(st, opSub, v, o) }

// Multiply returns v*o in the promoted kind, saturating on overflow.
func (v Value) Multiply(st Status, o Value) (Value, error) { return binary(st, opMul, v, o) }

// Divide returns v/o. Integer division truncates toward zero.
func (v Value) Divide(st Status, o Value) (Value, error) { return binary(st, opDiv, v, o) }

// Modulus returns the truncating remainder, which takes the dividend's sign.
func (v Value) Modulus(st Status, o Value) (Value, error) { return binary(st, opMod, v, o) }

// Repeat returns the remainder wrapped into [0, |o|).
func (v Value) Repeat(st Status, o Value) (Value, error) { return binary(st, opRep, v, o) }

// Pow raises v to the power o.
func (v Value) Pow(st Status, o Value) (Value, error) { return binary(st, opPow, v, o) }

// And is the bitwise conjunction of two integer values.
func (v Value) And(st Status, o Value) (Value, error) { return binary(st, opAnd, v, o) }

// Or is the bitwise disjunction of two integer values.
func (v Value) Or(st Status, o Value) (Value, error) { return binary(st, opOr, v, o) }

// Xor is the bitwise exclusive or of two integer values.
func (v Value) Xor(st Status, o Value) (Value, error) { return binary(st, opXor, v, o) }

func binary(st Status, op binOp, a, b Value) (Value, error) {
	if !a.kind.Valid() || !b.kind.Valid() {
		return Value{}, ErrInvalidValue
	}
	k := Promote(a.kind, b.kind)
	if op <= opPow && isNarrow(a.kind) && isNarrow(b.kind) {
		return narrowBinary(st, k, op, a, b)
	}
	x, _ := a.To(k)
	y, _ := b.To(k)
	switch k.Class() {
	case ClassSigned:
		return signedBinary(st, k, op, x.i, y.i)
	case ClassUnsigned:
		return unsignedBinary(st, k, op, x.u, y.u)
	case ClassBig:
		return bigBinary(op, x.b, y.b)
	case ClassFloat:
		return floatBinary(st, k, op, x.f, y.f)
	case ClassDecimal:
		return decimalBinary(st, op, x.d, y.d)
	case ClassComplex:
		return complexBinary(op, x.c, y.c)
	}
	panic(fmt.Sprintf("numeric: unhandled kind %s", k))
}

func isNarrow(k Kind) bool { return k.IsFixedInteger() && k.Bits() < 32 }

// overflowStatus captures the overflow of an intermediate computation.
type overflowStatus struct{ overflow bool }

func (s *overflowStatus) Carry() bool        { return false }
func (s *overflowStatus) SetCarry(bool)      {}
func (s *overflowStatus) SetOverflow(b bool) { s.overflow = b }

// narrowBinary computes on two sub-32-bit integers in Int arithmetic from
// their original values, then saturates the result into k. Mixed signs
// therefore never wrap before the operation.
func narrowBinary(st Status, k Kind, op binOp, a, b Value) (Value, error) {
	var inner overflowStatus
	r, err := signedBinary(&inner, Int, op, a.wideInt(), b.wideInt())
	if err != nil {
		return Value{}, err
	}
	var out Value
	var clamped bool
	if k.IsSigned() {
		var n int64
		n, clamped = clampSigned(k.Bits(), r.i)
		out = Value{kind: k, i: n}
	} else {
		switch hi := maxUnsigned(k.Bits()); {
		case r.i < 0:
			out, clamped = Value{kind: k}, true
		case uint64(r.i) > hi:
			out, clamped = Value{kind: k, u: hi}, true
		default:
			out = Value{kind: k, u: uint64(r.i)}
		}
	}
	switch op {
	case opAdd, opSub, opMul, opDiv, opPow:
		setOverflow(st, inner.overflow || clamped)
	default:
		if clamped {
			setOverflow(st, true)
		}
	}
	return out, nil
}

// wideInt returns a narrow integer's value as int64.
func (v Value) wideInt() int64 {
	if v.kind.IsSigned() {
		return v.i
	}
	return int64(v.u)
}

// ---------------------------------------------------------------------------
// Unary operations
// ---------------------------------------------------------------------------

// Negate returns -v. Negating a signed minimum saturates to the maximum.
func (v Value) Negate(st Status) (Value, error) { return unary(st, opNeg, v) }

// Increment returns v+1 of the same kind.
func (v Value) Increment(st Status) (Value, error) { return unary(st, opInc, v) }

// Decrement returns v-1 of the same kind.
func (v Value) Decrement(st Status) (Value, error) { return unary(st, opDec, v) }

// Abs returns |v|. The absolute value of a Complex is a Double.
func (v Value) Abs(st Status) (Value, error) { return unary(st, opAbs, v) }

// Not returns the bitwise complement of an integer value.
func (v Value) Not() (Value, error) { return unary(nil, opNot, v) }

func unary(st Status, op unOp, v Value) (Value, error) {
	switch v.kind.Class() {
	case ClassSigned:
		return signedUnary(st, v.kind, op, v.i)
	case ClassUnsigned:
		return unsignedUnary(st, v.kind, op, v.u)
	case ClassBig:
		return bigUnary(op, v.b)
	case ClassFloat:
		return floatUnary(st, v.kind, op, v.f)
	case ClassDecimal:
		return decimalUnary(st, op, v.d)
	case ClassComplex:
		return complexUnary(op, v.c)
	}
	return Value{}, ErrInvalidValue
}

// ---------------------------------------------------------------------------
// Comparison
// ---------------------------------------------------------------------------

// Compare orders v against o after promotion and returns -1, 0 or +1.
// NaN sorts below every other float. Complex values have no order.
func (v Value) Compare(o Value) (int, error) {
	if !v.kind.Valid() || !o.kind.Valid() {
		return 0, ErrInvalidValue
	}
	k := Promote(v.kind, o.kind)
	x, _ := v.To(k)
	y, _ := o.To(k)
	switch k.Class() {
	case ClassSigned:
		return cmpOrdered(x.i, y.i), nil
	case ClassUnsigned:
		return cmpOrdered(x.u, y.u), nil
	case ClassBig:
		return x.b.Cmp(y.b), nil
	case ClassFloat:
		return cmpFloat(x.f, y.f), nil
	case ClassDecimal:
		return x.d.Cmp(y.d), nil
	case ClassComplex:
		return 0, unsupported("Compare", Complex)
	}
	return 0, ErrInvalidValue
}

// Equals reports numeric equality after promotion. Unlike Compare it is
// defined for Complex, and NaN is unequal to everything.
func (v Value) Equals(o Value) (bool, error) {
	k := Promote(v.kind, o.kind)
	switch k.Class() {
	case ClassFloat, ClassComplex:
		x, _ := v.To(k)
		y, _ := o.To(k)
		if k == Complex {
			return x.c == y.c, nil
		}
		return x.f == y.f, nil
	}
	c, err := v.Compare(o)
	return c == 0, err
}

func cmpOrdered[T int64 | uint64](a, b T) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}
