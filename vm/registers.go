package vm

import (
	"fmt"

	"github.com/chazu/chips/vm/numeric"
)

// Register names one slot of the register file.
type Register uint8

const (
	RegA  Register = iota // accumulator
	RegX                  // index
	RegY                  // index
	RegS                  // string register
	RegSP                 // stack depth
	RegF                  // condition register, read as UShort bits

	numRegisters
)

var registerNames = [numRegisters]string{"A", "X", "Y", "S", "SP", "F"}

func (r Register) String() string {
	if r < numRegisters {
		return registerNames[r]
	}
	return fmt.Sprintf("Register(%d)", uint8(r))
}

// registerAt converts a variable index to a Register, rejecting indices
// that would wrap.
func registerAt(i int) (Register, error) {
	if i < 0 || i >= int(numRegisters) {
		return 0, fmt.Errorf("%w: %d", ErrNoSuchRegister, i)
	}
	return Register(i), nil
}

// RegisterByName resolves a register mnemonic.
func RegisterByName(name string) (Register, bool) {
	for i, n := range registerNames {
		if n == name {
			return Register(i), true
		}
	}
	return 0, false
}

// Registers is the register file. SP is not stored: it mirrors the depth
// of Stack.
type Registers struct {
	A, X, Y Value
	S       string
	F       Flags
	Stack   []Value
}

// Reset restores power-on state: A, X and Y hold 0i32, S is empty, the
// stack is empty and every flag is clear.
func (r *Registers) Reset() {
	r.A, r.X, r.Y = numeric.Zero, numeric.Zero, numeric.Zero
	r.S = ""
	r.F = Flags{}
	r.Stack = r.Stack[:0]
}

// Read returns the contents of slot.
func (r *Registers) Read(slot Register) (Value, error) {
	switch slot {
	case RegA:
		return r.A, nil
	case RegX:
		return r.X, nil
	case RegY:
		return r.Y, nil
	case RegS:
		return r.S, nil
	case RegSP:
		return numeric.FromInt32(int32(len(r.Stack))), nil
	case RegF:
		return numeric.FromUint16(r.F.Bits()), nil
	}
	return nil, fmt.Errorf("%w: %d", ErrNoSuchRegister, slot)
}

// Write stores v into slot. S takes the formatted text of non-string
// values; SP only shrinks the stack; F takes an integer bit set.
func (r *Registers) Write(slot Register, v Value) error {
	switch slot {
	case RegA:
		r.A = v
	case RegX:
		r.X = v
	case RegY:
		r.Y = v
	case RegS:
		r.S = Format(v)
	case RegSP:
		n, ok := intValue(v)
		if !ok || n < 0 || n > int64(len(r.Stack)) {
			return &RegisterError{Reg: RegSP, Got: v, Want: fmt.Sprintf("depth in 0..%d", len(r.Stack))}
		}
		clear(r.Stack[n:])
		r.Stack = r.Stack[:n]
	case RegF:
		n, ok := intValue(v)
		if !ok {
			return &RegisterError{Reg: RegF, Got: v, Want: "integer"}
		}
		r.F.SetBits(uint16(n))
	default:
		return fmt.Errorf("%w: %d", ErrNoSuchRegister, slot)
	}
	return nil
}

// Flag reads one condition bit.
func (r *Registers) Flag(f Flag) (bool, error) {
	if f >= numFlags {
		return false, fmt.Errorf("%w: %d", ErrNoSuchFlag, f)
	}
	return r.F.Get(f), nil
}

// SetFlag writes one condition bit.
func (r *Registers) SetFlag(f Flag, on bool) error {
	if f >= numFlags {
		return fmt.Errorf("%w: %d", ErrNoSuchFlag, f)
	}
	r.F.Set(f, on)
	return nil
}

// UpdateZeroSign derives Zero and Sign from a value just written.
func (r *Registers) UpdateZeroSign(v Value) {
	r.F.Set(FlagZero, isZeroOrEmpty(v))
	r.F.Set(FlagSign, isNegative(v))
}

// intValue extracts an exact integer from a fixed-width or big numeric
// value.
func intValue(v Value) (int64, bool) {
	n, ok := v.(numeric.Value)
	if !ok || !n.Kind().IsInteger() {
		return 0, false
	}
	i, exact := n.To(numeric.Long)
	return i.Int64(), exact
}
