package vm

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/tliron/commonlog"
)

var log = commonlog.GetLogger("chips.vm")

// DefaultMaxStack bounds the value stack unless a Context overrides it.
const DefaultMaxStack = 1 << 16

// DefaultMaxSlots bounds local and global variable indices.
const DefaultMaxSlots = 1 << 16

// Context is the complete state of one program run. Every opcode receives
// it explicitly; nothing in this package is global. A Context must not be
// shared between goroutines, but independent Contexts run concurrently.
type Context struct {
	ID      uuid.UUID
	Regs    Registers
	Locals  []Value
	Globals []Value
	PC      int

	Out      io.Writer
	Trace    bool
	MaxStack int
	MaxSlots int // highest variable index + 1; 0 means unbounded
	MaxSteps int // 0 means unbounded
	Profile  *Profiler

	// Sleep blocks for d or until ctx is done. Tests replace it.
	Sleep func(ctx context.Context, d time.Duration) error
	// Now is the clock behind date.now.
	Now  func() time.Time
	Rand *Random

	jump  int
	steps int
	done  context.Context
}

// NewContext returns a Context in power-on state writing to stdout.
func NewContext() *Context {
	c := &Context{
		ID:       uuid.New(),
		Out:      os.Stdout,
		MaxStack: DefaultMaxStack,
		MaxSlots: DefaultMaxSlots,
		Sleep:    sleepContext,
		Now:      time.Now,
		Rand:     NewRandom(uint64(time.Now().UnixNano())),
		jump:     -1,
		done:     context.Background(),
	}
	c.Regs.Reset()
	return c
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Flags returns the condition register, which also serves as the
// numeric.Status for arithmetic.
func (c *Context) Flags() *Flags { return &c.Regs.F }

// Jump makes target the next instruction executed.
func (c *Context) Jump(target int) { c.jump = target }

// ---------------------------------------------------------------------------
// Operand access
// ---------------------------------------------------------------------------

// Load resolves args[i] to a value.
func (c *Context) Load(args []Operand, i int) (Value, error) {
	if i >= len(args) {
		return nil, operandErr(i, "missing")
	}
	switch op := args[i]; op.Kind {
	case OperandConst:
		return op.Value, nil
	case OperandVar:
		v, err := c.Read(op.Var)
		if err != nil {
			return nil, wrapOperand(i, op.Var.String(), err)
		}
		return v, nil
	}
	return nil, operandErr(i, "label where a value is expected")
}

// Read returns the value of a variable reference.
func (c *Context) Read(ref VarRef) (Value, error) {
	switch ref.Space {
	case SpaceLocal:
		return readSlot(c.Locals, ref)
	case SpaceGlobal:
		return readSlot(c.Globals, ref)
	case SpaceRegister:
		r, err := registerAt(ref.Index)
		if err != nil {
			return nil, err
		}
		return c.Regs.Read(r)
	case SpaceFlag:
		f, err := flagAt(int64(ref.Index))
		if err != nil {
			return nil, err
		}
		return c.Regs.Flag(f)
	}
	return nil, &InternalError{Msg: fmt.Sprintf("bad address space %d", ref.Space)}
}

func readSlot(slots []Value, ref VarRef) (Value, error) {
	if ref.Index < 0 || ref.Index >= len(slots) || slots[ref.Index] == nil {
		return nil, fmt.Errorf("%s is unassigned", ref)
	}
	return slots[ref.Index], nil
}

// Store writes v to a variable reference. Local and global storage grows
// on demand.
func (c *Context) Store(ref VarRef, v Value) error {
	if ref.Index < 0 {
		return fmt.Errorf("negative slot %d", ref.Index)
	}
	switch ref.Space {
	case SpaceLocal, SpaceGlobal:
		if c.MaxSlots > 0 && ref.Index >= c.MaxSlots {
			return fmt.Errorf("%w: %s, limit %d", ErrSlotLimit, ref, c.MaxSlots)
		}
		if ref.Space == SpaceLocal {
			c.Locals = storeSlot(c.Locals, ref.Index, v)
		} else {
			c.Globals = storeSlot(c.Globals, ref.Index, v)
		}
	case SpaceRegister:
		r, err := registerAt(ref.Index)
		if err != nil {
			return err
		}
		return c.Regs.Write(r, v)
	case SpaceFlag:
		f, err := flagAt(int64(ref.Index))
		if err != nil {
			return err
		}
		b, ok := v.(bool)
		if !ok {
			b = !isZeroOrEmpty(v)
		}
		return c.Regs.SetFlag(f, b)
	default:
		return &InternalError{Msg: fmt.Sprintf("bad address space %d", ref.Space)}
	}
	return nil
}

func storeSlot(slots []Value, i int, v Value) []Value {
	if i >= len(slots) {
		slots = append(slots, make([]Value, i+1-len(slots))...)
	}
	slots[i] = v
	return slots
}

// storeArg writes v to the variable named by args[i].
func (c *Context) storeArg(args []Operand, i int, v Value) error {
	if i >= len(args) || args[i].Kind != OperandVar {
		return operandErr(i, "expected a variable or register")
	}
	if err := c.Store(args[i].Var, v); err != nil {
		return wrapOperand(i, args[i].Var.String(), err)
	}
	return nil
}

// label returns the branch target held by args[i].
func (c *Context) label(args []Operand, i int) (int, error) {
	if i >= len(args) || args[i].Kind != OperandLabel {
		return 0, operandErr(i, "expected a label")
	}
	return args[i].Label, nil
}

// ---------------------------------------------------------------------------
// Stack
// ---------------------------------------------------------------------------

func (c *Context) Push(v Value) error {
	if c.MaxStack > 0 && len(c.Regs.Stack) >= c.MaxStack {
		return ErrStackOverflow
	}
	c.Regs.Stack = append(c.Regs.Stack, v)
	return nil
}

func (c *Context) Pop() (Value, error) {
	n := len(c.Regs.Stack)
	if n == 0 {
		return nil, ErrStackUnderflow
	}
	v := c.Regs.Stack[n-1]
	c.Regs.Stack[n-1] = nil
	c.Regs.Stack = c.Regs.Stack[:n-1]
	return v, nil
}

func (c *Context) Peek() (Value, error) {
	n := len(c.Regs.Stack)
	if n == 0 {
		return nil, ErrStackUnderflow
	}
	return c.Regs.Stack[n-1], nil
}
