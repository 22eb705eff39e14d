package vm

import (
	"context"
	"errors"
	"fmt"
)

// ---------------------------------------------------------------------------
// Program: a resolved instruction sequence
// ---------------------------------------------------------------------------

// Program is a fully resolved instruction list. Labels are indices into
// Code; a branch to len(Code) ends the run normally.
type Program struct {
	Name string
	Code []Instruction
}

// Validate checks operand counts and branch targets without running
// anything.
func (p *Program) Validate() error {
	for i, in := range p.Code {
		if in.Op == nil || in.Op.IsFamily() {
			return fmt.Errorf("%04d: unresolved opcode", i)
		}
		if !in.Op.Accepts(len(in.Args)) {
			return fmt.Errorf("%04d: %s takes %s, got %d", i, in.Op.Name, in.Op.arity(), len(in.Args))
		}
		for _, a := range in.Args {
			if a.Kind == OperandLabel && (a.Label < 0 || a.Label > len(p.Code)) {
				return fmt.Errorf("%04d: label %d outside 0..%d", i, a.Label, len(p.Code))
			}
		}
	}
	return nil
}

// ---------------------------------------------------------------------------
// Main interpreter loop
// ---------------------------------------------------------------------------

// Run executes code from its first instruction until it falls off the end,
// halts or fails. Registers, variables and the stack carry over from any
// earlier run on c. A halt comes back as *HaltError. Cancelling ctx stops
// the run between instructions and interrupts wait.
func (c *Context) Run(ctx context.Context, code []Instruction) error {
	c.PC = 0
	c.jump = -1
	c.done = ctx
	defer func() { c.done = context.Background() }()

	log.Debugf("run %s: %d instructions", c.ID, len(code))
	for c.PC >= 0 && c.PC < len(code) {
		if err := ctx.Err(); err != nil {
			return err
		}
		if c.MaxSteps > 0 && c.steps >= c.MaxSteps {
			return fmt.Errorf("%w after %d instructions", ErrStepLimit, c.steps)
		}
		c.steps++

		in := code[c.PC]
		if c.Trace {
			log.Debugf("%04d  %s", c.PC, in)
		}
		if c.Profile != nil {
			c.Profile.Record(c.PC, in)
		}
		c.jump = -1
		if err := in.Op.Invoke(c, in.Args, in.Loc); err != nil {
			var halt *HaltError
			if errors.As(err, &halt) {
				log.Debugf("run %s: halt %d at %04d", c.ID, halt.Code, c.PC)
			}
			return err
		}
		if c.jump < 0 {
			c.PC++
			continue
		}
		if c.jump > len(code) {
			return &ExecError{Op: in.Op.Name, Loc: in.Loc, Err: fmt.Errorf("jump to %d outside 0..%d", c.jump, len(code))}
		}
		c.PC = c.jump
	}
	return nil
}

// Steps reports how many instructions the Context has executed.
func (c *Context) Steps() int { return c.steps }

// Run executes p in a fresh Context and returns it for inspection.
func Run(ctx context.Context, p *Program) (*Context, error) {
	c := NewContext()
	if err := p.Validate(); err != nil {
		return c, err
	}
	return c, c.Run(ctx, p.Code)
}

// ExitCode maps a Run result to a process exit status.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var halt *HaltError
	if errors.As(err, &halt) {
		return halt.Code
	}
	return 1
}
