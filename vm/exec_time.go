package vm

import (
	"time"

	"github.com/chazu/chips/vm/numeric"
)

func (c *Context) date() (time.Time, error) {
	t, ok := c.Regs.A.(time.Time)
	if !ok {
		return time.Time{}, &RegisterError{Reg: RegA, Got: c.Regs.A, Want: "date"}
	}
	return t, nil
}

func (c *Context) accDuration() (time.Duration, error) {
	d, ok := c.Regs.A.(time.Duration)
	if !ok {
		return 0, &RegisterError{Reg: RegA, Got: c.Regs.A, Want: "duration"}
	}
	return d, nil
}

// duration loads a Duration operand; plain numbers count milliseconds.
func (c *Context) duration(args []Operand, i int) (time.Duration, error) {
	v, err := c.Load(args, i)
	if err != nil {
		return 0, err
	}
	switch x := v.(type) {
	case time.Duration:
		return x, nil
	case numeric.Value:
		return scaleDuration(x, time.Millisecond), nil
	}
	return 0, operandErr(i, "expected a duration, got %s", TypeName(v))
}

func scaleDuration(n numeric.Value, unit time.Duration) time.Duration {
	if n.Kind().IsFixedInteger() {
		i, _ := n.To(numeric.Long)
		return time.Duration(i.Int64()) * unit
	}
	f, _ := n.To(numeric.Double)
	return time.Duration(f.Float64() * float64(unit))
}

// layout returns args[i] as a time layout, or RFC 3339 when absent.
func (c *Context) layout(args []Operand, i int) (string, error) {
	if i >= len(args) {
		return time.RFC3339, nil
	}
	return c.text(args, i)
}

// ---------------------------------------------------------------------------
// date family
// ---------------------------------------------------------------------------

func dateDefs() []def {
	return []def{
		{code: 0x01, name: "now", class: ClassModifiesAcc, exec: dateNow, doc: "A = current time"},
		{code: 0x02, name: "add", operands: 1, class: ClassModifiesAcc, exec: dateAdd, doc: "A = A + duration"},
		{code: 0x03, name: "sub", operands: 1, class: ClassModifiesAcc, exec: dateSub, doc: "A = A - date as duration, or A - duration as date"},
		{code: 0x04, name: "year", class: ClassModifiesAcc, exec: datePart(func(t time.Time) int { return t.Year() }), doc: "A = year of A"},
		{code: 0x05, name: "month", class: ClassModifiesAcc, exec: datePart(func(t time.Time) int { return int(t.Month()) }), doc: "A = month of A"},
		{code: 0x06, name: "day", class: ClassModifiesAcc, exec: datePart(func(t time.Time) int { return t.Day() }), doc: "A = day of month of A"},
		{code: 0x07, name: "hour", class: ClassModifiesAcc, exec: datePart(func(t time.Time) int { return t.Hour() }), doc: "A = hour of A"},
		{code: 0x08, name: "minute", class: ClassModifiesAcc, exec: datePart(func(t time.Time) int { return t.Minute() }), doc: "A = minute of A"},
		{code: 0x09, name: "second", class: ClassModifiesAcc, exec: datePart(func(t time.Time) int { return t.Second() }), doc: "A = second of A"},
		{code: 0x0A, name: "weekday", class: ClassModifiesAcc, exec: datePart(func(t time.Time) int { return int(t.Weekday()) }), doc: "A = weekday of A, Sunday = 0"},
		{code: 0x0B, name: "parse", operands: 1, optional: true, class: ClassModifiesAcc | ClassString, exec: dateParse, doc: "A = date in S, sets CONV"},
		{code: 0x0C, name: "fmt", operands: 1, optional: true, class: ClassModifiesReg | ClassString, exec: dateFormat, doc: "S = A formatted"},
		{code: 0x0D, name: "unix", class: ClassModifiesAcc, exec: dateUnix, doc: "A = seconds since the Unix epoch"},
		{code: 0x0E, name: "trunc", operands: 1, class: ClassModifiesAcc, exec: dateTrunc, doc: "A = A rounded down to a multiple of duration"},
	}
}

func dateNow(c *Context, args []Operand) error {
	c.setAcc(c.Now())
	return nil
}

func dateAdd(c *Context, args []Operand) error {
	t, err := c.date()
	if err != nil {
		return err
	}
	d, err := c.duration(args, 0)
	if err != nil {
		return err
	}
	c.setAcc(t.Add(d))
	return nil
}

func dateSub(c *Context, args []Operand) error {
	t, err := c.date()
	if err != nil {
		return err
	}
	v, err := c.Load(args, 0)
	if err != nil {
		return err
	}
	if u, ok := v.(time.Time); ok {
		c.setAcc(t.Sub(u))
		return nil
	}
	d, err := c.duration(args, 0)
	if err != nil {
		return err
	}
	c.setAcc(t.Add(-d))
	return nil
}

func datePart(part func(time.Time) int) Behavior {
	return func(c *Context, args []Operand) error {
		t, err := c.date()
		if err != nil {
			return err
		}
		c.setAcc(numeric.FromInt32(int32(part(t))))
		return nil
	}
}

func dateParse(c *Context, args []Operand) error {
	layout, err := c.layout(args, 0)
	if err != nil {
		return err
	}
	t, err := time.Parse(layout, c.Regs.S)
	if err != nil {
		c.Regs.F.Set(FlagConvOK, false)
		return nil
	}
	c.setAcc(t)
	c.Regs.F.Set(FlagConvOK, true)
	return nil
}

func dateFormat(c *Context, args []Operand) error {
	t, err := c.date()
	if err != nil {
		return err
	}
	layout, err := c.layout(args, 0)
	if err != nil {
		return err
	}
	c.setS(t.Format(layout))
	return nil
}

func dateUnix(c *Context, args []Operand) error {
	t, err := c.date()
	if err != nil {
		return err
	}
	c.setAcc(numeric.FromInt64(t.Unix()))
	return nil
}

func dateTrunc(c *Context, args []Operand) error {
	t, err := c.date()
	if err != nil {
		return err
	}
	d, err := c.duration(args, 0)
	if err != nil {
		return err
	}
	c.setAcc(t.Truncate(d))
	return nil
}

// ---------------------------------------------------------------------------
// dur family
// ---------------------------------------------------------------------------

func durDefs() []def {
	return []def{
		{code: 0x01, name: "ms", operands: 1, class: ClassModifiesAcc, exec: durFrom(time.Millisecond), doc: "A = n milliseconds"},
		{code: 0x02, name: "sec", operands: 1, class: ClassModifiesAcc, exec: durFrom(time.Second), doc: "A = n seconds"},
		{code: 0x03, name: "min", operands: 1, class: ClassModifiesAcc, exec: durFrom(time.Minute), doc: "A = n minutes"},
		{code: 0x04, name: "hour", operands: 1, class: ClassModifiesAcc, exec: durFrom(time.Hour), doc: "A = n hours"},
		{code: 0x05, name: "add", operands: 1, class: ClassModifiesAcc, exec: durAdd(1), doc: "A = A + duration"},
		{code: 0x06, name: "sub", operands: 1, class: ClassModifiesAcc, exec: durAdd(-1), doc: "A = A - duration"},
		{code: 0x07, name: "scale", operands: 1, class: ClassModifiesAcc, exec: durScale, doc: "A = A * n"},
		{code: 0x08, name: "totalms", class: ClassModifiesAcc, exec: durTotalMs, doc: "A = A in whole milliseconds"},
		{code: 0x09, name: "totalsec", class: ClassModifiesAcc, exec: durTotalSec, doc: "A = A in seconds as Double"},
		{code: 0x0A, name: "parse", class: ClassModifiesAcc | ClassString, exec: durParse, doc: "A = duration in S, sets CONV"},
		{code: 0x0B, name: "abs", class: ClassModifiesAcc, exec: durAbs, doc: "A = |A|"},
	}
}

func durFrom(unit time.Duration) Behavior {
	return func(c *Context, args []Operand) error {
		n, err := c.number(args, 0)
		if err != nil {
			return err
		}
		c.setAcc(scaleDuration(n, unit))
		return nil
	}
}

func durAdd(sign time.Duration) Behavior {
	return func(c *Context, args []Operand) error {
		a, err := c.accDuration()
		if err != nil {
			return err
		}
		d, err := c.duration(args, 0)
		if err != nil {
			return err
		}
		c.setAcc(a + sign*d)
		return nil
	}
}

func durScale(c *Context, args []Operand) error {
	a, err := c.accDuration()
	if err != nil {
		return err
	}
	n, err := c.number(args, 0)
	if err != nil {
		return err
	}
	c.setAcc(scaleDuration(n, a))
	return nil
}

func durTotalMs(c *Context, args []Operand) error {
	a, err := c.accDuration()
	if err != nil {
		return err
	}
	c.setAcc(numeric.FromInt64(a.Milliseconds()))
	return nil
}

func durTotalSec(c *Context, args []Operand) error {
	a, err := c.accDuration()
	if err != nil {
		return err
	}
	c.setAcc(numeric.FromFloat64(a.Seconds()))
	return nil
}

func durParse(c *Context, args []Operand) error {
	d, err := time.ParseDuration(c.Regs.S)
	if err != nil {
		c.Regs.F.Set(FlagConvOK, false)
		return nil
	}
	c.setAcc(d)
	c.Regs.F.Set(FlagConvOK, true)
	return nil
}

func durAbs(c *Context, args []Operand) error {
	a, err := c.accDuration()
	if err != nil {
		return err
	}
	c.setAcc(a.Abs())
	return nil
}
