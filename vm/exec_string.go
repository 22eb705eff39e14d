package vm

import (
	"fmt"
	"io"
	"regexp"
	"slices"
	"strings"

	"github.com/chazu/chips/vm/numeric"
)

func (c *Context) setS(s string) {
	c.Regs.S = s
	c.Regs.UpdateZeroSign(s)
}

func execConcat(c *Context, args []Operand) error {
	v, err := c.Load(args, 0)
	if err != nil {
		return err
	}
	c.setS(c.Regs.S + Format(v))
	return nil
}

func execLength(c *Context, args []Operand) error {
	v, err := c.loadOr(args, 0, c.Regs.S)
	if err != nil {
		return err
	}
	n, ok := Length(v)
	if !ok {
		return operandErr(0, "%s has no length", TypeName(v))
	}
	c.setAcc(numeric.FromInt32(int32(n)))
	return nil
}

func execToString(c *Context, args []Operand) error {
	v, err := c.loadOr(args, 0, c.Regs.A)
	if err != nil {
		return err
	}
	c.setS(Format(v))
	return nil
}

// execParse reads a numeric literal from S. A failed parse clears CONV and
// leaves A untouched.
func execParse(c *Context, args []Operand) error {
	n, err := numeric.Parse(c.Regs.S)
	if err != nil {
		c.Regs.F.Set(FlagConvOK, false)
		return nil
	}
	c.setAcc(n)
	c.Regs.F.Set(FlagConvOK, true)
	return nil
}

// pattern accepts a compiled regex or a string to compile.
func (c *Context) pattern(args []Operand, i int) (*regexp.Regexp, error) {
	v, err := c.Load(args, i)
	if err != nil {
		return nil, err
	}
	switch p := v.(type) {
	case *regexp.Regexp:
		return p, nil
	case string:
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, wrapOperand(i, "pattern", err)
		}
		return re, nil
	}
	return nil, operandErr(i, "expected a pattern, got %s", TypeName(v))
}

func execMatch(c *Context, args []Operand) error {
	re, err := c.pattern(args, 0)
	if err != nil {
		return err
	}
	c.Regs.F.Set(FlagMatchOK, re.MatchString(c.Regs.S))
	return nil
}

func execPrint(newline bool) Behavior {
	return func(c *Context, args []Operand) error {
		v, err := c.loadOr(args, 0, c.Regs.S)
		if err != nil {
			return err
		}
		out := c.Out
		if out == nil {
			out = io.Discard
		}
		if newline {
			_, err = fmt.Fprintln(out, Format(v))
		} else {
			_, err = fmt.Fprint(out, Format(v))
		}
		return err
	}
}

// ---------------------------------------------------------------------------
// str family: operations on S
// ---------------------------------------------------------------------------

func strDefs() []def {
	return []def{
		{code: 0x01, name: "upper", class: ClassModifiesReg | ClassString, exec: strMap(strings.ToUpper), doc: "S = upper case S"},
		{code: 0x02, name: "lower", class: ClassModifiesReg | ClassString, exec: strMap(strings.ToLower), doc: "S = lower case S"},
		{code: 0x03, name: "trim", class: ClassModifiesReg | ClassString, exec: strMap(strings.TrimSpace), doc: "S = S without surrounding space"},
		{code: 0x04, name: "sub", operands: 2, optional: true, class: ClassModifiesReg | ClassString, exec: strSub, doc: "S = runes [start, start+len) of S"},
		{code: 0x05, name: "find", operands: 1, class: ClassModifiesAcc | ClassString, exec: strFind, doc: "A = rune index of needle in S, or -1"},
		{code: 0x06, name: "replace", operands: 2, class: ClassModifiesReg | ClassString, exec: strReplace, doc: "replace every old with new in S"},
		{code: 0x07, name: "split", operands: 1, class: ClassModifiesAcc | ClassString, exec: strSplit, doc: "A = list of S split on sep"},
		{code: 0x08, name: "join", operands: 2, optional: true, class: ClassModifiesReg | ClassString, exec: strJoin, doc: "S = items joined with sep"},
		{code: 0x09, name: "char", operands: 1, class: ClassModifiesAcc | ClassString, exec: strChar, doc: "A = rune at index of S"},
		{code: 0x0A, name: "rev", class: ClassModifiesReg | ClassString, exec: strReverse, doc: "S = S reversed by rune"},
		{code: 0x0B, name: "has", operands: 1, class: ClassComparison | ClassString, exec: strTest(strings.Contains), doc: "CMP = S contains needle"},
		{code: 0x0C, name: "prefix", operands: 1, class: ClassComparison | ClassString, exec: strTest(strings.HasPrefix), doc: "CMP = S starts with prefix"},
		{code: 0x0D, name: "suffix", operands: 1, class: ClassComparison | ClassString, exec: strTest(strings.HasSuffix), doc: "CMP = S ends with suffix"},
		{code: 0x0E, name: "repeat", operands: 1, class: ClassModifiesReg | ClassString, exec: strRepeat, doc: "S = S repeated n times"},
	}
}

func strMap(fn func(string) string) Behavior {
	return func(c *Context, args []Operand) error {
		c.setS(fn(c.Regs.S))
		return nil
	}
}

func strTest(fn func(s, t string) bool) Behavior {
	return func(c *Context, args []Operand) error {
		t, err := c.text(args, 0)
		if err != nil {
			return err
		}
		c.Regs.F.Set(FlagCompare, fn(c.Regs.S, t))
		return nil
	}
}

func strSub(c *Context, args []Operand) error {
	runes := []rune(c.Regs.S)
	start, err := c.integer(args, 0)
	if err != nil {
		return err
	}
	if start < 0 || start > int64(len(runes)) {
		return operandErr(0, "start %d outside 0..%d", start, len(runes))
	}
	end := int64(len(runes))
	if len(args) > 1 {
		n, err := c.integer(args, 1)
		if err != nil {
			return err
		}
		if n < 0 || start+n > end {
			return operandErr(1, "length %d runs past %d", n, end)
		}
		end = start + n
	}
	c.setS(string(runes[start:end]))
	return nil
}

func strFind(c *Context, args []Operand) error {
	needle, err := c.text(args, 0)
	if err != nil {
		return err
	}
	i := strings.Index(c.Regs.S, needle)
	if i > 0 {
		i = len([]rune(c.Regs.S[:i]))
	}
	c.setAcc(numeric.FromInt32(int32(i)))
	return nil
}

func strReplace(c *Context, args []Operand) error {
	old, err := c.text(args, 0)
	if err != nil {
		return err
	}
	repl, err := c.text(args, 1)
	if err != nil {
		return err
	}
	c.setS(strings.ReplaceAll(c.Regs.S, old, repl))
	return nil
}

func strSplit(c *Context, args []Operand) error {
	sep, err := c.text(args, 0)
	if err != nil {
		return err
	}
	parts := strings.Split(c.Regs.S, sep)
	l := &List{Items: make([]Value, len(parts))}
	for i, p := range parts {
		l.Items[i] = p
	}
	c.setAcc(l)
	return nil
}

func strJoin(c *Context, args []Operand) error {
	v, err := c.Load(args, 0)
	if err != nil {
		return err
	}
	items, ok := itemsOf(v)
	if !ok {
		return operandErr(0, "expected a collection, got %s", TypeName(v))
	}
	sep := ""
	if len(args) > 1 {
		if sep, err = c.text(args, 1); err != nil {
			return err
		}
	}
	parts := make([]string, len(items))
	for i, it := range items {
		parts[i] = Format(it)
	}
	c.setS(strings.Join(parts, sep))
	return nil
}

func strChar(c *Context, args []Operand) error {
	runes := []rune(c.Regs.S)
	i, err := c.index(args, 0, len(runes))
	if err != nil {
		return err
	}
	c.setAcc(Char(runes[i]))
	return nil
}

func strReverse(c *Context, args []Operand) error {
	runes := []rune(c.Regs.S)
	slices.Reverse(runes)
	c.setS(string(runes))
	return nil
}

func strRepeat(c *Context, args []Operand) error {
	n, err := c.integer(args, 0)
	if err != nil {
		return err
	}
	if n < 0 {
		return operandErr(0, "negative count %d", n)
	}
	c.setS(strings.Repeat(c.Regs.S, int(n)))
	return nil
}
