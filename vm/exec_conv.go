package vm

import (
	"math"
	"strings"
	"time"

	"github.com/chazu/chips/vm/numeric"
)

// ---------------------------------------------------------------------------
// conv family
// ---------------------------------------------------------------------------

// convDefs gives every numeric kind a child whose code is the kind itself,
// followed by the raw and non-numeric conversions.
func convDefs() []def {
	var defs []def
	for _, k := range numeric.Kinds {
		defs = append(defs, def{
			code:  byte(k),
			name:  strings.ToLower(k.String()),
			class: ClassModifiesAcc,
			exec:  convTo(k),
			doc:   "A = A as " + k.String() + ", CONV = exact",
		})
	}
	return append(defs,
		def{code: 0x20, name: "bits", class: ClassModifiesAcc, exec: convBits, doc: "A = IEEE bit pattern of float A"},
		def{code: 0x21, name: "unbits", class: ClassModifiesAcc, exec: convUnbits, doc: "A = float with bit pattern A"},
		def{code: 0x22, name: "char", class: ClassModifiesAcc, exec: convChar, doc: "A = Char with code point A"},
		def{code: 0x23, name: "bool", class: ClassModifiesAcc, exec: convBool, doc: "A = A is non-zero and non-empty"},
	)
}

// convTo converts A to k. Strings are parsed, Chars give their code point,
// Bools give 1 or 0 and Durations their nanoseconds. CONV reports whether
// the value survived exactly.
func convTo(k numeric.Kind) Behavior {
	return func(c *Context, args []Operand) error {
		var src numeric.Value
		switch a := c.Regs.A.(type) {
		case numeric.Value:
			src = a
		case string:
			n, err := numeric.Parse(a)
			if err != nil {
				c.Regs.F.Set(FlagConvOK, false)
				return nil
			}
			src = n
		case Char:
			src = numeric.FromInt32(int32(a))
		case bool:
			src = numeric.FromInt32(0)
			if a {
				src = numeric.FromInt32(1)
			}
		case time.Duration:
			src = numeric.FromInt64(int64(a))
		default:
			return &RegisterError{Reg: RegA, Got: c.Regs.A, Want: "number, string, char, bool or duration"}
		}
		r, exact := src.To(k)
		c.setAcc(r)
		c.Regs.F.Set(FlagConvOK, exact)
		return nil
	}
}

func convBits(c *Context, args []Operand) error {
	a, err := c.acc()
	if err != nil {
		return err
	}
	r, err := a.RawBits()
	if err != nil {
		return err
	}
	c.setAcc(r)
	return nil
}

// convUnbits picks the float kind from the width of A.
func convUnbits(c *Context, args []Operand) error {
	a, err := c.acc()
	if err != nil {
		return err
	}
	var k numeric.Kind
	switch a.Kind() {
	case numeric.UShort:
		k = numeric.Half
	case numeric.UInt:
		k = numeric.Float
	case numeric.ULong:
		k = numeric.Double
	default:
		return &RegisterError{Reg: RegA, Got: a, Want: "UShort, UInt or ULong"}
	}
	r, err := numeric.FromRawBits(k, a.Uint64())
	if err != nil {
		return err
	}
	c.setAcc(r)
	return nil
}

func convChar(c *Context, args []Operand) error {
	n, ok := intValue(c.Regs.A)
	if !ok || n < 0 || n > math.MaxInt32 {
		c.Regs.F.Set(FlagConvOK, false)
		return &RegisterError{Reg: RegA, Got: c.Regs.A, Want: "code point"}
	}
	c.setAcc(Char(n))
	c.Regs.F.Set(FlagConvOK, true)
	return nil
}

func convBool(c *Context, args []Operand) error {
	c.setAcc(!isZeroOrEmpty(c.Regs.A))
	return nil
}

// ---------------------------------------------------------------------------
// math family
// ---------------------------------------------------------------------------

func mathDefs() []def {
	var defs []def
	for fn := numeric.FnSin; fn <= numeric.FnCeiling; fn++ {
		defs = append(defs, def{
			code:  byte(fn) + 1,
			name:  strings.ToLower(fn.String()),
			class: ClassArithmetic,
			exec:  mathApply(fn),
			doc:   "A = " + strings.ToLower(fn.String()) + "(A)",
		})
	}
	return append(defs,
		def{code: 0x20, name: "isnan", class: ClassComparison, exec: mathTest(numeric.Value.IsNaN), doc: "CMP = A is NaN"},
		def{code: 0x21, name: "isinf", class: ClassComparison, exec: mathTest(numeric.Value.IsInfinity), doc: "CMP = A is infinite"},
		def{code: 0x22, name: "pi", class: ClassModifiesAcc, exec: mathConst(math.Pi), doc: "A = pi"},
		def{code: 0x23, name: "e", class: ClassModifiesAcc, exec: mathConst(math.E), doc: "A = e"},
		def{code: 0x24, name: "min", operands: 1, class: ClassArithmetic, exec: mathPick(func(c int) bool { return c > 0 }), doc: "A = smaller of A and src"},
		def{code: 0x25, name: "max", operands: 1, class: ClassArithmetic, exec: mathPick(func(c int) bool { return c < 0 }), doc: "A = larger of A and src"},
	)
}

// mathApply evaluates fn on A. Integer inputs are widened to Double, except
// that Floor and Ceiling leave integers unchanged.
func mathApply(fn numeric.Func) Behavior {
	return func(c *Context, args []Operand) error {
		a, err := c.acc()
		if err != nil {
			return err
		}
		if a.Kind().IsInteger() && (fn == numeric.FnFloor || fn == numeric.FnCeiling) {
			c.setAcc(a)
			return nil
		}
		r, err := floating(a).Apply(fn)
		if err != nil {
			return err
		}
		c.setAcc(r)
		return nil
	}
}

func mathTest(pred func(numeric.Value) bool) Behavior {
	return func(c *Context, args []Operand) error {
		a, err := c.acc()
		if err != nil {
			return err
		}
		c.Regs.F.Set(FlagCompare, pred(a))
		return nil
	}
}

func mathConst(f float64) Behavior {
	return func(c *Context, args []Operand) error {
		c.setAcc(numeric.FromFloat64(f))
		return nil
	}
}

// mathPick replaces A with src when replace(compare(A, src)) holds.
func mathPick(replace func(int) bool) Behavior {
	return func(c *Context, args []Operand) error {
		a, err := c.acc()
		if err != nil {
			return err
		}
		b, err := c.number(args, 0)
		if err != nil {
			return err
		}
		r, err := a.Compare(b)
		if err != nil {
			return err
		}
		if replace(r) {
			a = b
		}
		c.setAcc(a)
		return nil
	}
}
