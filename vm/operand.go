package vm

import (
	"fmt"
	"strings"
)

// ---------------------------------------------------------------------------
// Variable references
// ---------------------------------------------------------------------------

// Space is the address space of a variable reference. It occupies the low
// two bits of an encoded access word.
type Space uint8

const (
	SpaceLocal Space = iota
	SpaceGlobal
	SpaceRegister
	SpaceFlag
)

var spaceNames = [...]string{"local", "global", "register", "flag"}

func (s Space) String() string {
	if int(s) < len(spaceNames) {
		return spaceNames[s]
	}
	return fmt.Sprintf("Space(%d)", uint8(s))
}

// VarRef addresses a local, global, register or flag slot.
type VarRef struct {
	Space Space
	Index int
}

func (r VarRef) String() string {
	switch r.Space {
	case SpaceLocal:
		return fmt.Sprintf("$%d", r.Index)
	case SpaceGlobal:
		return fmt.Sprintf("@%d", r.Index)
	case SpaceRegister:
		if reg, err := registerAt(r.Index); err == nil {
			return reg.String()
		}
		return fmt.Sprintf("Register(%d)", r.Index)
	case SpaceFlag:
		if f, err := flagAt(int64(r.Index)); err == nil {
			return "?" + f.String()
		}
		return fmt.Sprintf("?Flag(%d)", r.Index)
	}
	return fmt.Sprintf("%s[%d]", r.Space, r.Index)
}

// ---------------------------------------------------------------------------
// Operands
// ---------------------------------------------------------------------------

// OperandKind discriminates Operand.
type OperandKind uint8

const (
	OperandConst OperandKind = iota
	OperandVar
	OperandLabel
)

// Operand is one fully resolved instruction argument: an inline constant,
// a variable reference, or a label (an instruction index).
type Operand struct {
	Kind  OperandKind
	Value Value
	Var   VarRef
	Label int
}

func Const(v Value) Operand { return Operand{Kind: OperandConst, Value: v} }

func Var(space Space, index int) Operand {
	return Operand{Kind: OperandVar, Var: VarRef{Space: space, Index: index}}
}

func Reg(r Register) Operand { return Var(SpaceRegister, int(r)) }

func FlagRef(f Flag) Operand { return Var(SpaceFlag, int(f)) }

func LabelRef(target int) Operand { return Operand{Kind: OperandLabel, Label: target} }

func (o Operand) String() string {
	switch o.Kind {
	case OperandConst:
		return Inspect(o.Value)
	case OperandVar:
		return o.Var.String()
	case OperandLabel:
		return fmt.Sprintf("->%04d", o.Label)
	}
	return "?"
}

// ---------------------------------------------------------------------------
// Instructions
// ---------------------------------------------------------------------------

// Location is the source position captured when an operand was resolved.
type Location struct {
	File string
	Line int
}

func (l Location) IsZero() bool { return l.File == "" && l.Line == 0 }

func (l Location) String() string {
	if l.File == "" {
		return fmt.Sprintf("line %d", l.Line)
	}
	return fmt.Sprintf("%s:%d", l.File, l.Line)
}

// Instruction is one resolved opcode with its operands. Family opcodes
// never appear here; Op is always the concrete child.
type Instruction struct {
	Op   *Opcode
	Args []Operand
	Loc  Location
}

func (in Instruction) String() string {
	if len(in.Args) == 0 {
		return in.Op.Name
	}
	parts := make([]string, len(in.Args))
	for i, a := range in.Args {
		parts[i] = a.String()
	}
	return in.Op.Name + " " + strings.Join(parts, ", ")
}
