package vm

import "fmt"

// Flag names one bit of the condition register.
type Flag uint8

const (
	FlagCarry    Flag = iota // carry / borrow, rotate-through bit
	FlagOverflow             // last arithmetic saturated
	FlagZero                 // last written value was zero or empty
	FlagSign                 // last written value was negative
	FlagCompare              // result of the last comparison predicate
	FlagConvOK               // last conversion succeeded
	FlagPropMode             // property-access addressing mode
	FlagMatchOK              // last pattern match succeeded

	numFlags
)

var flagNames = [numFlags]string{"C", "V", "Z", "N", "CMP", "CONV", "PROP", "MATCH"}

func (f Flag) String() string {
	if f < numFlags {
		return flagNames[f]
	}
	return fmt.Sprintf("Flag(%d)", uint8(f))
}

// flagAt converts a flag index to a Flag, rejecting indices that would
// wrap.
func flagAt(n int64) (Flag, error) {
	if n < 0 || n >= int64(numFlags) {
		return 0, fmt.Errorf("%w: %d", ErrNoSuchFlag, n)
	}
	return Flag(n), nil
}

// FlagByName resolves a flag mnemonic such as "Z" or "MATCH".
func FlagByName(name string) (Flag, bool) {
	for i, n := range flagNames {
		if n == name {
			return Flag(i), true
		}
	}
	return 0, false
}

// Flags is the condition register. The zero value has every flag clear.
// *Flags satisfies numeric.Status.
type Flags struct {
	bits uint16
}

// Get reports the state of f. Unknown flags read as clear.
func (fl *Flags) Get(f Flag) bool {
	return f < numFlags && fl.bits&(1<<f) != 0
}

// Set updates f. Unknown flags are ignored.
func (fl *Flags) Set(f Flag, on bool) {
	if f >= numFlags {
		return
	}
	if on {
		fl.bits |= 1 << f
	} else {
		fl.bits &^= 1 << f
	}
}

// Bits returns the register as a bit set, bit n holding Flag(n).
func (fl *Flags) Bits() uint16 { return fl.bits }

// SetBits replaces the whole register. Bits above the defined flags are
// dropped.
func (fl *Flags) SetBits(b uint16) { fl.bits = b & (1<<numFlags - 1) }

func (fl *Flags) Carry() bool         { return fl.Get(FlagCarry) }
func (fl *Flags) SetCarry(on bool)    { fl.Set(FlagCarry, on) }
func (fl *Flags) SetOverflow(on bool) { fl.Set(FlagOverflow, on) }

func (fl *Flags) String() string {
	buf := make([]byte, 0, 32)
	for f := Flag(0); f < numFlags; f++ {
		if fl.Get(f) {
			if len(buf) > 0 {
				buf = append(buf, ' ')
			}
			buf = append(buf, flagNames[f]...)
		}
	}
	return "[" + string(buf) + "]"
}
