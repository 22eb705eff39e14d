package numeric

import "fmt"

// Kind identifies one member of the closed numeric tower.
type Kind uint8

const (
	Invalid Kind = iota

	// Signed integers
	SByte
	Short
	Int
	Long
	NInt

	// Unsigned integers
	Byte
	UShort
	UInt
	ULong
	NUInt

	BigInt

	// Floating point
	Half
	Float
	Double

	Decimal
	Complex
)

// Kinds lists every valid kind in declaration order.
var Kinds = []Kind{
	SByte, Short, Int, Long, NInt,
	Byte, UShort, UInt, ULong, NUInt,
	BigInt,
	Half, Float, Double,
	Decimal,
	Complex,
}

// Class groups kinds that share an implementation.
type Class uint8

const (
	ClassNone Class = iota
	ClassSigned
	ClassUnsigned
	ClassBig
	ClassFloat
	ClassDecimal
	ClassComplex
)

type kindInfo struct {
	name   string
	suffix string
	size   int
	bits   uint
	class  Class
	rank   int
}

// rank is the explicit total promotion order. Higher wins.
var kindTable = [...]kindInfo{
	Invalid: {"Invalid", "", 0, 0, ClassNone, 0},
	SByte:   {"SByte", "i8", 1, 8, ClassSigned, 1},
	Byte:    {"Byte", "u8", 1, 8, ClassUnsigned, 2},
	Short:   {"Short", "i16", 2, 16, ClassSigned, 3},
	UShort:  {"UShort", "u16", 2, 16, ClassUnsigned, 4},
	Half:    {"Half", "f16", 2, 16, ClassFloat, 5},
	Int:     {"Int", "i32", 4, 32, ClassSigned, 6},
	UInt:    {"UInt", "u32", 4, 32, ClassUnsigned, 7},
	Float:   {"Float", "f32", 4, 32, ClassFloat, 8},
	Long:    {"Long", "i64", 8, 64, ClassSigned, 9},
	ULong:   {"ULong", "u64", 8, 64, ClassUnsigned, 10},
	NInt:    {"NInt", "in", 8, 64, ClassSigned, 11},
	NUInt:   {"NUInt", "un", 8, 64, ClassUnsigned, 12},
	Double:  {"Double", "f64", 8, 64, ClassFloat, 13},
	BigInt:  {"BigInt", "n", 16, 0, ClassBig, 14},
	Decimal: {"Decimal", "m", 16, 128, ClassDecimal, 15},
	Complex: {"Complex", "", 16, 128, ClassComplex, 16},
}

func (k Kind) info() kindInfo {
	if int(k) >= len(kindTable) {
		return kindTable[Invalid]
	}
	return kindTable[k]
}

// String returns the kind name.
func (k Kind) String() string {
	if int(k) >= len(kindTable) {
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
	return k.info().name
}

// Suffix returns the literal suffix used by Value.String and Parse.
func (k Kind) Suffix() string { return k.info().suffix }

// Size is the byte width used for promotion ordering. BigInt, Decimal and
// Complex report 16 and sit at the top of the order.
func (k Kind) Size() int { return k.info().size }

// Bits is the storage width of fixed-width kinds, 0 for BigInt.
func (k Kind) Bits() uint { return k.info().bits }

// Class returns the implementation class of k.
func (k Kind) Class() Class { return k.info().class }

// Valid reports whether k names a member of the tower.
func (k Kind) Valid() bool { return k != Invalid && int(k) < len(kindTable) }

// IsInteger reports whether k is a signed, unsigned or arbitrary-precision integer.
func (k Kind) IsInteger() bool {
	switch k.Class() {
	case ClassSigned, ClassUnsigned, ClassBig:
		return true
	}
	return false
}

// IsFixedInteger reports whether k is a fixed-width integer.
func (k Kind) IsFixedInteger() bool {
	c := k.Class()
	return c == ClassSigned || c == ClassUnsigned
}

// IsFloating reports whether k belongs to the float category (binary floats
// and Decimal).
func (k Kind) IsFloating() bool {
	c := k.Class()
	return c == ClassFloat || c == ClassDecimal
}

// IsSigned reports whether values of k can be negative.
func (k Kind) IsSigned() bool { return k.Class() != ClassUnsigned }

// Promote returns the broader of a and b according to the promotion order.
// The result is the same regardless of argument order.
func Promote(a, b Kind) Kind {
	if a.info().rank >= b.info().rank {
		return a
	}
	return b
}

// KindBySuffix returns the kind with the given literal suffix.
func KindBySuffix(s string) (Kind, bool) {
	for _, k := range Kinds {
		if k.Suffix() == s && s != "" {
			return k, true
		}
	}
	return Invalid, false
}

// KindByName returns the kind with the given name, case sensitive.
func KindByName(s string) (Kind, bool) {
	for _, k := range Kinds {
		if k.String() == s {
			return k, true
		}
	}
	return Invalid, false
}
