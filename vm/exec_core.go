package vm

import (
	"fmt"
	"strings"
	"time"

	"github.com/chazu/chips/vm/numeric"
)

// ---------------------------------------------------------------------------
// Operand helpers
// ---------------------------------------------------------------------------

// acc returns A as a number.
func (c *Context) acc() (numeric.Value, error) {
	n, ok := c.Regs.A.(numeric.Value)
	if !ok {
		return numeric.Value{}, &RegisterError{Reg: RegA, Got: c.Regs.A, Want: "number"}
	}
	return n, nil
}

// setAcc writes A and derives Zero and Sign from it.
func (c *Context) setAcc(v Value) {
	c.Regs.A = v
	c.Regs.UpdateZeroSign(v)
}

func (c *Context) number(args []Operand, i int) (numeric.Value, error) {
	v, err := c.Load(args, i)
	if err != nil {
		return numeric.Value{}, err
	}
	n, ok := v.(numeric.Value)
	if !ok {
		return numeric.Value{}, operandErr(i, "expected a number, got %s", TypeName(v))
	}
	return n, nil
}

func (c *Context) integer(args []Operand, i int) (int64, error) {
	v, err := c.Load(args, i)
	if err != nil {
		return 0, err
	}
	n, ok := intValue(v)
	if !ok {
		return 0, operandErr(i, "expected an integer, got %s", Inspect(v))
	}
	return n, nil
}

func (c *Context) text(args []Operand, i int) (string, error) {
	v, err := c.Load(args, i)
	if err != nil {
		return "", err
	}
	switch s := v.(type) {
	case string:
		return s, nil
	case Char:
		return string(rune(s)), nil
	}
	return "", operandErr(i, "expected a string, got %s", TypeName(v))
}

// loadOr loads args[i], or returns def when the optional operand is absent.
func (c *Context) loadOr(args []Operand, i int, def Value) (Value, error) {
	if i >= len(args) {
		return def, nil
	}
	return c.Load(args, i)
}

// ---------------------------------------------------------------------------
// Control
// ---------------------------------------------------------------------------

func execNop(c *Context, args []Operand) error { return nil }

func execHalt(c *Context, args []Operand) error {
	code := int64(0)
	if len(args) > 0 {
		var err error
		if code, err = c.integer(args, 0); err != nil {
			return err
		}
	}
	return &HaltError{Code: int(code)}
}

func execWait(c *Context, args []Operand) error {
	v, err := c.Load(args, 0)
	if err != nil {
		return err
	}
	var d time.Duration
	switch x := v.(type) {
	case time.Duration:
		d = x
	case numeric.Value:
		ms, _ := x.To(numeric.Double)
		d = time.Duration(ms.Float64() * float64(time.Millisecond))
	default:
		return operandErr(0, "expected a duration or milliseconds, got %s", TypeName(v))
	}
	return c.Sleep(c.done, d)
}

// ---------------------------------------------------------------------------
// Loads, stores, transfers
// ---------------------------------------------------------------------------

func execLoad(dst Register) Behavior {
	return func(c *Context, args []Operand) error {
		v, err := c.Load(args, 0)
		if err != nil {
			return err
		}
		if err := c.Regs.Write(dst, v); err != nil {
			return err
		}
		written, _ := c.Regs.Read(dst)
		c.Regs.UpdateZeroSign(written)
		return nil
	}
}

func execStore(src Register) Behavior {
	return func(c *Context, args []Operand) error {
		v, err := c.Regs.Read(src)
		if err != nil {
			return err
		}
		return c.storeArg(args, 0, v)
	}
}

func execTransfer(src, dst Register) Behavior {
	return func(c *Context, args []Operand) error {
		v, err := c.Regs.Read(src)
		if err != nil {
			return err
		}
		if err := c.Regs.Write(dst, v); err != nil {
			return err
		}
		c.Regs.UpdateZeroSign(v)
		return nil
	}
}

func execExchange(c *Context, args []Operand) error {
	other := RegX
	if len(args) > 0 {
		if args[0].Kind != OperandVar || args[0].Var.Space != SpaceRegister {
			return operandErr(0, "expected a register")
		}
		r, err := registerAt(args[0].Var.Index)
		if err != nil {
			return wrapOperand(0, "exchange", err)
		}
		other = r
	}
	v, err := c.Regs.Read(other)
	if err != nil {
		return wrapOperand(0, "exchange", err)
	}
	if err := c.Regs.Write(other, c.Regs.A); err != nil {
		return err
	}
	c.setAcc(v)
	return nil
}

func execClear(c *Context, args []Operand) error {
	c.setAcc(numeric.Zero)
	return nil
}

// ---------------------------------------------------------------------------
// Stack
// ---------------------------------------------------------------------------

func execPush(c *Context, args []Operand) error {
	v, err := c.loadOr(args, 0, c.Regs.A)
	if err != nil {
		return err
	}
	return c.Push(v)
}

func execPop(c *Context, args []Operand) error {
	v, err := c.Pop()
	if err != nil {
		return err
	}
	if len(args) == 0 {
		c.setAcc(v)
		return nil
	}
	return c.storeArg(args, 0, v)
}

func execDup(c *Context, args []Operand) error {
	v, err := c.Peek()
	if err != nil {
		return err
	}
	return c.Push(v)
}

func execDrop(c *Context, args []Operand) error {
	_, err := c.Pop()
	return err
}

// ---------------------------------------------------------------------------
// Arithmetic and bitwise
// ---------------------------------------------------------------------------

type binaryFunc func(numeric.Value, numeric.Status, numeric.Value) (numeric.Value, error)

type unaryFunc func(numeric.Value, numeric.Status) (numeric.Value, error)

type shiftFunc func(numeric.Value, numeric.Status, uint) (numeric.Value, error)

// pendingStatus collects the carry and overflow an operation reports. They
// reach the condition register only once the operation has succeeded.
type pendingStatus struct {
	carry, overflow bool
}

func (p *pendingStatus) Carry() bool         { return p.carry }
func (p *pendingStatus) SetCarry(on bool)    { p.carry = on }
func (p *pendingStatus) SetOverflow(on bool) { p.overflow = on }

// status starts from the current carry. Arithmetic passes overflow=false
// so V only reports that operation; shifts keep the current V.
func (c *Context) status(overflow bool) *pendingStatus {
	return &pendingStatus{carry: c.Regs.F.Carry(), overflow: overflow}
}

func (c *Context) commit(st *pendingStatus) {
	c.Regs.F.SetCarry(st.carry)
	c.Regs.F.SetOverflow(st.overflow)
}

// binaryAcc computes A = A op src. V reports only this operation.
func binaryAcc(fn binaryFunc) Behavior {
	return func(c *Context, args []Operand) error {
		a, err := c.acc()
		if err != nil {
			return err
		}
		b, err := c.number(args, 0)
		if err != nil {
			return err
		}
		st := c.status(false)
		r, err := fn(a, st, b)
		if err != nil {
			return err
		}
		c.commit(st)
		c.setAcc(r)
		return nil
	}
}

func unaryAcc(fn unaryFunc) Behavior {
	return func(c *Context, args []Operand) error {
		a, err := c.acc()
		if err != nil {
			return err
		}
		st := c.status(false)
		r, err := fn(a, st)
		if err != nil {
			return err
		}
		c.commit(st)
		c.setAcc(r)
		return nil
	}
}

func unaryReg(reg Register, fn unaryFunc) Behavior {
	return func(c *Context, args []Operand) error {
		v, _ := c.Regs.Read(reg)
		n, ok := v.(numeric.Value)
		if !ok {
			return &RegisterError{Reg: reg, Got: v, Want: "number"}
		}
		st := c.status(false)
		r, err := fn(n, st)
		if err != nil {
			return err
		}
		if err := c.Regs.Write(reg, r); err != nil {
			return err
		}
		c.commit(st)
		c.Regs.UpdateZeroSign(r)
		return nil
	}
}

// shiftAcc shifts or rotates A by the operand, one bit by default.
func shiftAcc(fn shiftFunc) Behavior {
	return func(c *Context, args []Operand) error {
		a, err := c.acc()
		if err != nil {
			return err
		}
		n := int64(1)
		if len(args) > 0 {
			if n, err = c.integer(args, 0); err != nil {
				return err
			}
			if n < 0 {
				return operandErr(0, "negative shift count %d", n)
			}
		}
		st := c.status(c.Regs.F.Get(FlagOverflow))
		r, err := fn(a, st, uint(n))
		if err != nil {
			return err
		}
		c.commit(st)
		c.setAcc(r)
		return nil
	}
}

// floating widens integer kinds to Double for functions defined only on
// the float kinds.
func floating(n numeric.Value) numeric.Value {
	if n.Kind().IsInteger() {
		d, _ := n.To(numeric.Double)
		return d
	}
	return n
}

func execRoot(c *Context, args []Operand) error {
	a, err := c.acc()
	if err != nil {
		return err
	}
	deg, err := c.number(args, 0)
	if err != nil {
		return err
	}
	r, err := floating(a).Root(deg)
	if err != nil {
		return err
	}
	c.setAcc(r)
	return nil
}

func execNot(c *Context, args []Operand) error {
	a, err := c.acc()
	if err != nil {
		return err
	}
	r, err := a.Not()
	if err != nil {
		return err
	}
	c.setAcc(r)
	return nil
}

func execBit(c *Context, args []Operand) error {
	a, err := c.acc()
	if err != nil {
		return err
	}
	n, err := c.integer(args, 0)
	if err != nil {
		return err
	}
	if n < 0 {
		return operandErr(0, "negative bit index %d", n)
	}
	set, err := a.GetBit(uint(n))
	if err != nil {
		return err
	}
	c.Regs.F.Set(FlagCompare, set)
	c.Regs.F.Set(FlagZero, !set)
	return nil
}

func execBinary(c *Context, args []Operand) error {
	a, err := c.acc()
	if err != nil {
		return err
	}
	s, err := a.ToBinaryString()
	if err != nil {
		return err
	}
	c.Regs.S = s
	c.Regs.UpdateZeroSign(s)
	return nil
}

// ---------------------------------------------------------------------------
// Comparison and flags
// ---------------------------------------------------------------------------

// compareValues orders two values of compatible type.
func compareValues(a, b Value) (int, error) {
	switch x := a.(type) {
	case numeric.Value:
		if y, ok := b.(numeric.Value); ok {
			return x.Compare(y)
		}
	case string:
		if y, ok := b.(string); ok {
			return strings.Compare(x, y), nil
		}
	case Char:
		if y, ok := b.(Char); ok {
			return cmpInt(int64(x), int64(y)), nil
		}
	case time.Time:
		if y, ok := b.(time.Time); ok {
			return x.Compare(y), nil
		}
	case time.Duration:
		if y, ok := b.(time.Duration); ok {
			return cmpInt(int64(x), int64(y)), nil
		}
	}
	return 0, fmt.Errorf("cannot order %s against %s", TypeName(a), TypeName(b))
}

func cmpInt(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

// execCompare sets Z when A equals src, N when A is smaller and C when A
// is greater or equal.
func execCompare(c *Context, args []Operand) error {
	v, err := c.Load(args, 0)
	if err != nil {
		return err
	}
	r, err := compareValues(c.Regs.A, v)
	if err != nil {
		return wrapOperand(0, "cmp", err)
	}
	c.Regs.F.Set(FlagZero, r == 0)
	c.Regs.F.Set(FlagSign, r < 0)
	c.Regs.F.Set(FlagCarry, r >= 0)
	c.Regs.F.Set(FlagCompare, r == 0)
	return nil
}

func execEqual(want bool) Behavior {
	return func(c *Context, args []Operand) error {
		v, err := c.Load(args, 0)
		if err != nil {
			return err
		}
		c.Regs.F.Set(FlagCompare, Equal(c.Regs.A, v) == want)
		return nil
	}
}

func execOrder(pred func(int) bool) Behavior {
	return func(c *Context, args []Operand) error {
		v, err := c.Load(args, 0)
		if err != nil {
			return err
		}
		r, err := compareValues(c.Regs.A, v)
		if err != nil {
			return wrapOperand(0, "compare", err)
		}
		c.Regs.F.Set(FlagCompare, pred(r))
		return nil
	}
}

func execTest(c *Context, args []Operand) error {
	c.Regs.UpdateZeroSign(c.Regs.A)
	return nil
}

func execSetFlag(f Flag, on bool) Behavior {
	return func(c *Context, args []Operand) error {
		c.Regs.F.Set(f, on)
		return nil
	}
}

// execFlagOperand takes either a flag reference or a flag index.
func execFlagOperand(on bool) Behavior {
	return func(c *Context, args []Operand) error {
		var n int64
		if args[0].Kind == OperandVar && args[0].Var.Space == SpaceFlag {
			n = int64(args[0].Var.Index)
		} else {
			var err error
			if n, err = c.integer(args, 0); err != nil {
				return err
			}
		}
		f, err := flagAt(n)
		if err != nil {
			return wrapOperand(0, "flag", err)
		}
		c.Regs.F.Set(f, on)
		return nil
	}
}

// ---------------------------------------------------------------------------
// Branches
// ---------------------------------------------------------------------------

// returnAddress marks a stack slot pushed by call.
type returnAddress int

func execJump(c *Context, args []Operand) error {
	target, err := c.label(args, 0)
	if err != nil {
		return err
	}
	c.Jump(target)
	return nil
}

func branchIf(f Flag, want bool) Behavior {
	return func(c *Context, args []Operand) error {
		target, err := c.label(args, 0)
		if err != nil {
			return err
		}
		if c.Regs.F.Get(f) == want {
			c.Jump(target)
		}
		return nil
	}
}

func execCall(c *Context, args []Operand) error {
	target, err := c.label(args, 0)
	if err != nil {
		return err
	}
	if err := c.Push(returnAddress(c.PC + 1)); err != nil {
		return err
	}
	c.Jump(target)
	return nil
}

// execReturn leaves the stack alone unless its top is a return address.
func execReturn(c *Context, args []Operand) error {
	v, err := c.Peek()
	if err != nil {
		return ErrBadReturn
	}
	ra, ok := v.(returnAddress)
	if !ok {
		return fmt.Errorf("%w: top of stack is %s", ErrBadReturn, TypeName(v))
	}
	c.Pop()
	c.Jump(int(ra))
	return nil
}
