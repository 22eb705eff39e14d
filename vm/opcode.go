package vm

import (
	"errors"
	"fmt"
	"strings"
)

// ---------------------------------------------------------------------------
// Classification
// ---------------------------------------------------------------------------

// Class is a bitmask describing what an opcode touches. It is metadata for
// tooling and shared flag logic; dispatch never looks at it.
type Class uint32

const (
	bitFlags Class = 1 << iota
	bitReg
	bitAcc
	bitArith
	bitBitwise
	bitCompare

	ClassBranch
	ClassStack
	ClassString
	ClassConstructor
	ClassIO
	ClassBlocking
	ClassTerminator
	ClassFamily
	ClassMemoryWrite
)

// Composite classes. Each implies everything to its right:
// Arithmetic > ModifiesAcc > ModifiesReg > ModifiesFlags.
const (
	ClassModifiesFlags = bitFlags
	ClassModifiesReg   = bitReg | ClassModifiesFlags
	ClassModifiesAcc   = bitAcc | ClassModifiesReg
	ClassArithmetic    = bitArith | ClassModifiesAcc
	ClassBitwise       = bitBitwise | ClassModifiesAcc
	ClassComparison    = bitCompare | ClassModifiesFlags
)

var classNames = []struct {
	c    Class
	name string
}{
	{ClassArithmetic, "arithmetic"},
	{ClassBitwise, "bitwise"},
	{ClassComparison, "comparison"},
	{ClassModifiesAcc, "acc"},
	{ClassModifiesReg, "reg"},
	{ClassModifiesFlags, "flags"},
	{ClassBranch, "branch"},
	{ClassStack, "stack"},
	{ClassString, "string"},
	{ClassConstructor, "constructor"},
	{ClassIO, "io"},
	{ClassBlocking, "blocking"},
	{ClassTerminator, "terminator"},
	{ClassFamily, "family"},
	{ClassMemoryWrite, "memwrite"},
}

// Has reports whether c includes every bit of o.
func (c Class) Has(o Class) bool { return c&o == o }

// String lists the most specific names covering c, so "arithmetic" is not
// followed by the acc, reg and flags it implies.
func (c Class) String() string {
	var names []string
	var covered Class
	for _, cn := range classNames {
		if c.Has(cn.c) && covered&cn.c != cn.c {
			names = append(names, cn.name)
			covered |= cn.c
		}
	}
	if len(names) == 0 {
		return "none"
	}
	return strings.Join(names, "|")
}

// ---------------------------------------------------------------------------
// Opcode descriptor
// ---------------------------------------------------------------------------

// Behavior executes one resolved instruction against c.
type Behavior func(c *Context, args []Operand) error

// Variadic marks an opcode that accepts any number of operands.
const Variadic = -1

// Opcode describes one instruction. Descriptors are built once by the
// catalog and never modified.
type Opcode struct {
	Code     byte
	Path     []byte // enclosing family codes, empty at top level
	Name     string
	Operands int  // declared count, or Variadic
	Optional bool // the last declared operand may be omitted
	NoBody   bool // encoded without an operand count
	Class    Class
	Exec     Behavior
	Children *Table // family opcodes only
	Doc      string
}

// IsFamily reports whether op only selects a child table.
func (op *Opcode) IsFamily() bool { return op.Children != nil }

// Bytes returns the full encoded selector: family path then own code.
func (op *Opcode) Bytes() []byte {
	b := make([]byte, 0, len(op.Path)+1)
	b = append(b, op.Path...)
	return append(b, op.Code)
}

// Accepts reports whether n operands fit the declaration.
func (op *Opcode) Accepts(n int) bool {
	switch {
	case op.Operands == Variadic:
		return true
	case n == op.Operands:
		return true
	case op.Optional && n == op.Operands-1:
		return true
	}
	return false
}

func (op *Opcode) String() string {
	return fmt.Sprintf("%s (%s)", op.Name, formatPath(op.Bytes()))
}

// Invoke runs op with resolved operands. It is the single entry point a
// backend uses. Failures come back as *ExecError carrying loc, except
// *HaltError which is returned as is.
func (op *Opcode) Invoke(c *Context, args []Operand, loc Location) error {
	var err error
	switch {
	case op.IsFamily():
		err = &InternalError{Msg: fmt.Sprintf("family %s invoked without a child", op.Name)}
	case op.Exec == nil:
		err = &InternalError{Msg: fmt.Sprintf("%s has no behavior", op.Name)}
	case !op.Accepts(len(args)):
		err = operandErr(len(args), "%s takes %s, got %d", op.Name, op.arity(), len(args))
	default:
		err = op.Exec(c, args)
	}
	if err == nil {
		return nil
	}
	var halt *HaltError
	if errors.As(err, &halt) {
		return err
	}
	return &ExecError{Op: op.Name, Loc: loc, Err: err}
}

func (op *Opcode) arity() string {
	switch {
	case op.Operands == Variadic:
		return "any number of operands"
	case op.Optional:
		return fmt.Sprintf("%d or %d operands", op.Operands-1, op.Operands)
	}
	return fmt.Sprintf("%d operands", op.Operands)
}

// ---------------------------------------------------------------------------
// Dispatch table
// ---------------------------------------------------------------------------

// Table maps one selector byte to an opcode. Children do not point back at
// their family; the path is carried by value.
type Table struct {
	path    []byte
	entries [256]*Opcode
}

func newTable(path []byte) *Table {
	return &Table{path: path}
}

// Path returns the family codes that lead to this table.
func (t *Table) Path() []byte { return t.path }

// Lookup returns the opcode at code or an *UnknownOpcodeError.
func (t *Table) Lookup(code byte) (*Opcode, error) {
	if op := t.entries[code]; op != nil {
		return op, nil
	}
	return nil, &UnknownOpcodeError{Code: code, Path: append([]byte(nil), t.path...)}
}

// Resolve follows family selectors, reading one byte at a time from next,
// until it reaches a concrete opcode.
func (t *Table) Resolve(next func() (byte, error)) (*Opcode, error) {
	table := t
	for {
		b, err := next()
		if err != nil {
			return nil, err
		}
		op, err := table.Lookup(b)
		if err != nil {
			return nil, err
		}
		if !op.IsFamily() {
			return op, nil
		}
		table = op.Children
	}
}

// Each calls fn for every entry in code order.
func (t *Table) Each(fn func(*Opcode)) {
	for _, op := range t.entries {
		if op != nil {
			fn(op)
		}
	}
}
