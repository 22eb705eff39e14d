package numeric

import (
	"fmt"
	"strings"
)

// pattern returns the raw bit pattern of a fixed-width integer, masked to
// its width.
func (v Value) pattern() uint64 {
	if v.kind.Class() == ClassSigned {
		return wrapUnsigned(v.kind.Bits(), uint64(v.i))
	}
	return v.u
}

func fromPattern(k Kind, p uint64) Value {
	if k.Class() == ClassSigned {
		return Value{kind: k, i: wrapSigned(k.Bits(), int64(p))}
	}
	return Value{kind: k, u: wrapUnsigned(k.Bits(), p)}
}

// ShiftLeft shifts v left by n bits. Carry receives the last bit shifted out.
func (v Value) ShiftLeft(st Status, n uint) (Value, error) {
	switch v.kind.Class() {
	case ClassSigned, ClassUnsigned:
	case ClassBig:
		return Value{kind: BigInt, b: v.Big().Lsh(v.b, n)}, nil
	default:
		return Value{}, unsupported("ShiftLeft", v.kind)
	}
	if n == 0 {
		return v, nil
	}
	width := v.kind.Bits()
	p := v.pattern()
	switch {
	case n < width:
		setCarry(st, p>>(width-n)&1 == 1)
		return fromPattern(v.kind, p<<n), nil
	case n == width:
		setCarry(st, p&1 == 1)
	default:
		setCarry(st, false)
	}
	return fromPattern(v.kind, 0), nil
}

// ShiftRight shifts v right by n bits, arithmetically for signed kinds and
// logically for unsigned ones. Carry receives the last bit shifted out.
func (v Value) ShiftRight(st Status, n uint) (Value, error) {
	switch v.kind.Class() {
	case ClassSigned, ClassUnsigned:
	case ClassBig:
		return Value{kind: BigInt, b: v.Big().Rsh(v.b, n)}, nil
	default:
		return Value{}, unsupported("ShiftRight", v.kind)
	}
	if n == 0 {
		return v, nil
	}
	width := v.kind.Bits()
	p := v.pattern()
	if v.kind.Class() == ClassSigned {
		if n > width {
			n = width
		}
		setCarry(st, v.i>>(n-1)&1 == 1)
		return Value{kind: v.kind, i: v.i >> n}, nil
	}
	if n > width {
		setCarry(st, false)
		return fromPattern(v.kind, 0), nil
	}
	setCarry(st, p>>(n-1)&1 == 1)
	return fromPattern(v.kind, p>>n), nil
}

// RotateLeft rotates v left through carry n times: each step the top bit
// moves into carry and the previous carry enters bit 0.
func (v Value) RotateLeft(st Status, n uint) (Value, error) {
	if !v.kind.IsFixedInteger() {
		return Value{}, unsupported("RotateLeft", v.kind)
	}
	width := v.kind.Bits()
	p := v.pattern()
	c := carry(st)
	for i := uint(0); i < n%(width+1); i++ {
		out := p>>(width-1)&1 == 1
		p = wrapUnsigned(width, p<<1)
		if c {
			p |= 1
		}
		c = out
	}
	setCarry(st, c)
	return fromPattern(v.kind, p), nil
}

// RotateRight rotates v right through carry n times: each step bit 0 moves
// into carry and the previous carry enters the top bit.
func (v Value) RotateRight(st Status, n uint) (Value, error) {
	if !v.kind.IsFixedInteger() {
		return Value{}, unsupported("RotateRight", v.kind)
	}
	width := v.kind.Bits()
	p := v.pattern()
	c := carry(st)
	for i := uint(0); i < n%(width+1); i++ {
		out := p&1 == 1
		p >>= 1
		if c {
			p |= 1 << (width - 1)
		}
		c = out
	}
	setCarry(st, c)
	return fromPattern(v.kind, p), nil
}

// GetBit reports bit n of v's two's complement representation.
func (v Value) GetBit(n uint) (bool, error) {
	switch v.kind.Class() {
	case ClassSigned, ClassUnsigned:
		if n >= v.kind.Bits() {
			return false, fmt.Errorf("%w: bit %d of %s", ErrInvalidValue, n, v.kind)
		}
		return v.pattern()>>n&1 == 1, nil
	case ClassBig:
		return v.b.Bit(int(n)) == 1, nil
	}
	return false, unsupported("GetBit", v.kind)
}

// ToBinaryString renders v in base 2, zero padded to the kind's width.
// BigInt values render without padding and with a leading '-' when negative.
func (v Value) ToBinaryString() (string, error) {
	switch v.kind.Class() {
	case ClassSigned, ClassUnsigned:
		s := fmt.Sprintf("%b", v.pattern())
		return strings.Repeat("0", int(v.kind.Bits())-len(s)) + s, nil
	case ClassBig:
		return v.b.Text(2), nil
	}
	return "", unsupported("ToBinaryString", v.kind)
}
