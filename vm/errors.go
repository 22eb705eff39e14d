package vm

import (
	"errors"
	"fmt"
	"strings"
)

// ---------------------------------------------------------------------------
// Sentinel errors
// ---------------------------------------------------------------------------

var (
	ErrNoSuchRegister = errors.New("no such register")
	ErrNoSuchFlag     = errors.New("no such flag")
	ErrStackUnderflow = errors.New("stack underflow")
	ErrStackOverflow  = errors.New("stack overflow")
	ErrStepLimit      = errors.New("step limit exceeded")
	ErrBadReturn      = errors.New("ret without matching call")
	ErrSlotLimit      = errors.New("variable slot out of range")
)

// ---------------------------------------------------------------------------
// Typed errors
// ---------------------------------------------------------------------------

// UnknownOpcodeError reports a byte with no entry in a dispatch table. Path
// holds the family bytes leading to that table and is empty at top level.
type UnknownOpcodeError struct {
	Code byte
	Path []byte
}

func (e *UnknownOpcodeError) Error() string {
	if len(e.Path) == 0 {
		return fmt.Sprintf("unknown opcode 0x%02X", e.Code)
	}
	return fmt.Sprintf("unknown opcode 0x%02X in family %s", e.Code, formatPath(e.Path))
}

func formatPath(path []byte) string {
	parts := make([]string, len(path))
	for i, b := range path {
		parts[i] = fmt.Sprintf("0x%02X", b)
	}
	return strings.Join(parts, ".")
}

// RegisterError reports register contents that violate an opcode's
// precondition.
type RegisterError struct {
	Reg  Register
	Got  Value
	Want string
}

func (e *RegisterError) Error() string {
	return fmt.Sprintf("register %s holds %s, want %s", e.Reg, TypeName(e.Got), e.Want)
}

// OperandError reports a resolved operand that does not fit the opcode.
type OperandError struct {
	Index int
	Msg   string
	Err   error
}

func (e *OperandError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("operand %d: %s: %v", e.Index, e.Msg, e.Err)
	}
	return fmt.Sprintf("operand %d: %s", e.Index, e.Msg)
}

func (e *OperandError) Unwrap() error { return e.Err }

// InternalError is a resolution bug, never a program error.
type InternalError struct {
	Msg string
}

func (e *InternalError) Error() string { return "internal error: " + e.Msg }

// HaltError is returned when a program executes halt. The CLI turns it
// into a process exit code.
type HaltError struct {
	Code int
}

func (e *HaltError) Error() string { return fmt.Sprintf("halt %d", e.Code) }

// ExecError wraps a failure with the mnemonic and source location of the
// instruction that raised it.
type ExecError struct {
	Op  string
	Loc Location
	Err error
}

func (e *ExecError) Error() string {
	if e.Loc.IsZero() {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s: %s: %v", e.Loc, e.Op, e.Err)
}

func (e *ExecError) Unwrap() error { return e.Err }

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func operandErr(i int, format string, args ...any) error {
	return &OperandError{Index: i, Msg: fmt.Sprintf(format, args...)}
}

func wrapOperand(i int, msg string, err error) error {
	return &OperandError{Index: i, Msg: msg, Err: err}
}
