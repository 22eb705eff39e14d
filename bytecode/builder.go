package bytecode

import (
	"errors"
	"fmt"

	"github.com/chazu/chips/vm"
)

// Label names a branch target inside a Builder. Passing a Label to Emit
// records a reference that Program resolves once every label is marked.
type Label string

type fixup struct {
	instr, arg int
	label      Label
}

// Builder assembles a program from mnemonics. Errors are sticky: the first
// one is reported by Program and later calls are ignored.
type Builder struct {
	cat    *vm.Catalog
	code   []vm.Instruction
	labels map[Label]int
	fixups []fixup
	loc    vm.Location
	err    error
}

func NewBuilder(cat *vm.Catalog) *Builder {
	return &Builder{cat: cat, labels: make(map[Label]int)}
}

// At sets the source location recorded for following instructions.
func (b *Builder) At(file string, line int) *Builder {
	b.loc = vm.Location{File: file, Line: line}
	return b
}

// Mark binds name to the next instruction.
func (b *Builder) Mark(name Label) *Builder {
	if b.err != nil {
		return b
	}
	if _, dup := b.labels[name]; dup {
		b.fail("label %q marked twice", name)
		return b
	}
	b.labels[name] = len(b.code)
	return b
}

// Emit appends one instruction. Arguments may be vm.Operand values, Labels,
// or plain values which become constants.
func (b *Builder) Emit(mnemonic string, args ...any) *Builder {
	if b.err != nil {
		return b
	}
	op, ok := b.cat.Lookup(mnemonic)
	if !ok {
		b.fail("unknown mnemonic %q", mnemonic)
		return b
	}
	if op.IsFamily() {
		b.fail("%s is a family, name one of its opcodes", mnemonic)
		return b
	}
	if !op.Accepts(len(args)) {
		b.fail("%s cannot take %d operands", op.Name, len(args))
		return b
	}
	in := vm.Instruction{Op: op, Args: make([]vm.Operand, len(args)), Loc: b.loc}
	for i, a := range args {
		switch x := a.(type) {
		case vm.Operand:
			in.Args[i] = x
		case Label:
			b.fixups = append(b.fixups, fixup{instr: len(b.code), arg: i, label: x})
			in.Args[i] = vm.LabelRef(-1)
		default:
			in.Args[i] = vm.Const(x)
		}
	}
	b.code = append(b.code, in)
	return b
}

func (b *Builder) fail(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	if !b.loc.IsZero() {
		msg = b.loc.String() + ": " + msg
	}
	b.err = errors.New(msg)
}

// Len returns the number of instructions emitted so far.
func (b *Builder) Len() int { return len(b.code) }

// Program resolves labels and returns the finished program.
func (b *Builder) Program(name string) (*vm.Program, error) {
	if b.err != nil {
		return nil, b.err
	}
	for _, f := range b.fixups {
		target, ok := b.labels[f.label]
		if !ok {
			return nil, fmt.Errorf("instruction %04d: undefined label %q", f.instr, f.label)
		}
		b.code[f.instr].Args[f.arg] = vm.LabelRef(target)
	}
	b.fixups = nil
	p := &vm.Program{Name: name, Code: b.code}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// Encode resolves labels and serializes the program.
func (b *Builder) Encode(debug bool) ([]byte, error) {
	p, err := b.Program("")
	if err != nil {
		return nil, err
	}
	return Encode(p.Code, debug)
}
