package vm

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/chazu/chips/vm/numeric"
)

// ---------------------------------------------------------------------------
// Family codes
// ---------------------------------------------------------------------------

const (
	FamConv byte = 0x80 // numeric and raw conversions
	FamMath byte = 0x81 // transcendental functions
	FamNew  byte = 0x82 // constructors
	FamDate byte = 0x83 // date arithmetic
	FamDur  byte = 0x84 // duration arithmetic
	FamColl byte = 0x85 // collections
	FamRnd  byte = 0x86 // random numbers
	FamStr  byte = 0x87 // string register
	FamMode byte = 0x88 // VM mode bits
)

// def is one row of the static catalog.
type def struct {
	code     byte
	name     string
	operands int
	optional bool
	class    Class
	exec     Behavior
	doc      string
	children []def
}

func family(code byte, name, doc string, children []def) def {
	return def{code: code, name: name, class: ClassFamily, doc: doc, children: children}
}

// ---------------------------------------------------------------------------
// Primary table
// ---------------------------------------------------------------------------

func primaryDefs() []def {
	return []def{
		// Control
		{code: 0x00, name: "nop", exec: execNop, doc: "do nothing"},
		{code: 0x01, name: "halt", operands: 1, optional: true, class: ClassTerminator, exec: execHalt, doc: "stop with an exit code"},
		{code: 0x02, name: "wait", operands: 1, class: ClassBlocking, exec: execWait, doc: "sleep for a duration or milliseconds"},

		// Loads and stores
		{code: 0x10, name: "ld", operands: 1, class: ClassModifiesAcc, exec: execLoad(RegA), doc: "A = src"},
		{code: 0x11, name: "st", operands: 1, class: ClassMemoryWrite, exec: execStore(RegA), doc: "dst = A"},
		{code: 0x12, name: "ldx", operands: 1, class: ClassModifiesReg, exec: execLoad(RegX), doc: "X = src"},
		{code: 0x13, name: "ldy", operands: 1, class: ClassModifiesReg, exec: execLoad(RegY), doc: "Y = src"},
		{code: 0x14, name: "stx", operands: 1, class: ClassMemoryWrite, exec: execStore(RegX), doc: "dst = X"},
		{code: 0x15, name: "sty", operands: 1, class: ClassMemoryWrite, exec: execStore(RegY), doc: "dst = Y"},
		{code: 0x16, name: "lds", operands: 1, class: ClassModifiesReg | ClassString, exec: execLoad(RegS), doc: "S = text of src"},
		{code: 0x17, name: "sts", operands: 1, class: ClassMemoryWrite | ClassString, exec: execStore(RegS), doc: "dst = S"},
		{code: 0x18, name: "xchg", operands: 1, optional: true, class: ClassModifiesAcc, exec: execExchange, doc: "swap A with a register (X by default)"},
		{code: 0x19, name: "clr", class: ClassModifiesAcc, exec: execClear, doc: "A = 0i32"},
		{code: 0x1A, name: "tax", class: ClassModifiesReg, exec: execTransfer(RegA, RegX), doc: "X = A"},
		{code: 0x1B, name: "txa", class: ClassModifiesAcc, exec: execTransfer(RegX, RegA), doc: "A = X"},
		{code: 0x1C, name: "tay", class: ClassModifiesReg, exec: execTransfer(RegA, RegY), doc: "Y = A"},
		{code: 0x1D, name: "tya", class: ClassModifiesAcc, exec: execTransfer(RegY, RegA), doc: "A = Y"},

		// Stack
		{code: 0x20, name: "push", operands: 1, optional: true, class: ClassStack, exec: execPush, doc: "push src (A by default)"},
		{code: 0x21, name: "pop", operands: 1, optional: true, class: ClassStack | ClassModifiesAcc, exec: execPop, doc: "pop into dst (A by default)"},
		{code: 0x22, name: "dup", class: ClassStack, exec: execDup, doc: "duplicate the top of stack"},
		{code: 0x23, name: "drop", class: ClassStack, exec: execDrop, doc: "discard the top of stack"},

		// Arithmetic
		{code: 0x30, name: "add", operands: 1, class: ClassArithmetic, exec: binaryAcc(numeric.Value.Add), doc: "A = A + src"},
		{code: 0x31, name: "sub", operands: 1, class: ClassArithmetic, exec: binaryAcc(numeric.Value.Subtract), doc: "A = A - src"},
		{code: 0x32, name: "mul", operands: 1, class: ClassArithmetic, exec: binaryAcc(numeric.Value.Multiply), doc: "A = A * src"},
		{code: 0x33, name: "div", operands: 1, class: ClassArithmetic, exec: binaryAcc(numeric.Value.Divide), doc: "A = A / src"},
		{code: 0x34, name: "mod", operands: 1, class: ClassArithmetic, exec: binaryAcc(numeric.Value.Modulus), doc: "A = truncating remainder"},
		{code: 0x35, name: "rep", operands: 1, class: ClassArithmetic, exec: binaryAcc(numeric.Value.Repeat), doc: "A = remainder in [0, |src|)"},
		{code: 0x36, name: "neg", class: ClassArithmetic, exec: unaryAcc(numeric.Value.Negate), doc: "A = -A"},
		{code: 0x37, name: "inc", class: ClassArithmetic, exec: unaryAcc(numeric.Value.Increment), doc: "A = A + 1"},
		{code: 0x38, name: "dec", class: ClassArithmetic, exec: unaryAcc(numeric.Value.Decrement), doc: "A = A - 1"},
		{code: 0x39, name: "abs", class: ClassArithmetic, exec: unaryAcc(numeric.Value.Abs), doc: "A = |A|"},
		{code: 0x3A, name: "pow", operands: 1, class: ClassArithmetic, exec: binaryAcc(numeric.Value.Pow), doc: "A = A ** src"},
		{code: 0x3B, name: "root", operands: 1, class: ClassArithmetic, exec: execRoot, doc: "A = src-th root of A"},
		{code: 0x3C, name: "inx", class: ClassModifiesReg, exec: unaryReg(RegX, numeric.Value.Increment), doc: "X = X + 1"},
		{code: 0x3D, name: "dex", class: ClassModifiesReg, exec: unaryReg(RegX, numeric.Value.Decrement), doc: "X = X - 1"},
		{code: 0x3E, name: "iny", class: ClassModifiesReg, exec: unaryReg(RegY, numeric.Value.Increment), doc: "Y = Y + 1"},
		{code: 0x3F, name: "dey", class: ClassModifiesReg, exec: unaryReg(RegY, numeric.Value.Decrement), doc: "Y = Y - 1"},

		// Bitwise
		{code: 0x40, name: "and", operands: 1, class: ClassBitwise, exec: binaryAcc(numeric.Value.And), doc: "A = A & src"},
		{code: 0x41, name: "or", operands: 1, class: ClassBitwise, exec: binaryAcc(numeric.Value.Or), doc: "A = A | src"},
		{code: 0x42, name: "xor", operands: 1, class: ClassBitwise, exec: binaryAcc(numeric.Value.Xor), doc: "A = A ^ src"},
		{code: 0x43, name: "not", class: ClassBitwise, exec: execNot, doc: "A = ^A"},
		{code: 0x44, name: "shl", operands: 1, optional: true, class: ClassBitwise, exec: shiftAcc(numeric.Value.ShiftLeft), doc: "shift A left, last bit out to carry"},
		{code: 0x45, name: "shr", operands: 1, optional: true, class: ClassBitwise, exec: shiftAcc(numeric.Value.ShiftRight), doc: "shift A right, last bit out to carry"},
		{code: 0x46, name: "rol", operands: 1, optional: true, class: ClassBitwise, exec: shiftAcc(numeric.Value.RotateLeft), doc: "rotate A left through carry"},
		{code: 0x47, name: "ror", operands: 1, optional: true, class: ClassBitwise, exec: shiftAcc(numeric.Value.RotateRight), doc: "rotate A right through carry"},
		{code: 0x48, name: "bit", operands: 1, class: ClassComparison, exec: execBit, doc: "CMP = bit n of A"},
		{code: 0x49, name: "bin", class: ClassModifiesReg | ClassString, exec: execBinary, doc: "S = A in base 2"},

		// Comparison and flags
		{code: 0x50, name: "cmp", operands: 1, class: ClassComparison, exec: execCompare, doc: "order A against src into Z, N, C"},
		{code: 0x51, name: "ceq", operands: 1, class: ClassComparison, exec: execEqual(true), doc: "CMP = A == src"},
		{code: 0x52, name: "cne", operands: 1, class: ClassComparison, exec: execEqual(false), doc: "CMP = A != src"},
		{code: 0x53, name: "clt", operands: 1, class: ClassComparison, exec: execOrder(func(c int) bool { return c < 0 }), doc: "CMP = A < src"},
		{code: 0x54, name: "cle", operands: 1, class: ClassComparison, exec: execOrder(func(c int) bool { return c <= 0 }), doc: "CMP = A <= src"},
		{code: 0x55, name: "cgt", operands: 1, class: ClassComparison, exec: execOrder(func(c int) bool { return c > 0 }), doc: "CMP = A > src"},
		{code: 0x56, name: "cge", operands: 1, class: ClassComparison, exec: execOrder(func(c int) bool { return c >= 0 }), doc: "CMP = A >= src"},
		{code: 0x57, name: "test", class: ClassModifiesFlags, exec: execTest, doc: "set Z and N from A"},
		{code: 0x58, name: "sec", class: ClassModifiesFlags, exec: execSetFlag(FlagCarry, true), doc: "set carry"},
		{code: 0x59, name: "clc", class: ClassModifiesFlags, exec: execSetFlag(FlagCarry, false), doc: "clear carry"},
		{code: 0x5A, name: "clv", class: ClassModifiesFlags, exec: execSetFlag(FlagOverflow, false), doc: "clear overflow"},
		{code: 0x5B, name: "setf", operands: 1, class: ClassModifiesFlags, exec: execFlagOperand(true), doc: "set the named flag"},
		{code: 0x5C, name: "clrf", operands: 1, class: ClassModifiesFlags, exec: execFlagOperand(false), doc: "clear the named flag"},

		// Branches
		{code: 0x60, name: "jmp", operands: 1, class: ClassBranch | ClassTerminator, exec: execJump, doc: "jump"},
		{code: 0x61, name: "jz", operands: 1, class: ClassBranch, exec: branchIf(FlagZero, true), doc: "jump if Z"},
		{code: 0x62, name: "jnz", operands: 1, class: ClassBranch, exec: branchIf(FlagZero, false), doc: "jump unless Z"},
		{code: 0x63, name: "jc", operands: 1, class: ClassBranch, exec: branchIf(FlagCarry, true), doc: "jump if C"},
		{code: 0x64, name: "jnc", operands: 1, class: ClassBranch, exec: branchIf(FlagCarry, false), doc: "jump unless C"},
		{code: 0x65, name: "jv", operands: 1, class: ClassBranch, exec: branchIf(FlagOverflow, true), doc: "jump if V"},
		{code: 0x66, name: "jnv", operands: 1, class: ClassBranch, exec: branchIf(FlagOverflow, false), doc: "jump unless V"},
		{code: 0x67, name: "jn", operands: 1, class: ClassBranch, exec: branchIf(FlagSign, true), doc: "jump if N"},
		{code: 0x68, name: "jp", operands: 1, class: ClassBranch, exec: branchIf(FlagSign, false), doc: "jump unless N"},
		{code: 0x69, name: "jt", operands: 1, class: ClassBranch, exec: branchIf(FlagCompare, true), doc: "jump if CMP"},
		{code: 0x6A, name: "jf", operands: 1, class: ClassBranch, exec: branchIf(FlagCompare, false), doc: "jump unless CMP"},
		{code: 0x6B, name: "call", operands: 1, class: ClassBranch | ClassStack, exec: execCall, doc: "push return address and jump"},
		{code: 0x6C, name: "ret", class: ClassBranch | ClassStack | ClassTerminator, exec: execReturn, doc: "pop return address and jump"},

		// Strings and I/O
		{code: 0x70, name: "cat", operands: 1, class: ClassModifiesReg | ClassString, exec: execConcat, doc: "S = S + text of src"},
		{code: 0x71, name: "len", operands: 1, optional: true, class: ClassModifiesAcc, exec: execLength, doc: "A = length of src (S by default)"},
		{code: 0x72, name: "str", operands: 1, optional: true, class: ClassModifiesReg | ClassString, exec: execToString, doc: "S = text of src (A by default)"},
		{code: 0x73, name: "parse", class: ClassModifiesAcc | ClassString, exec: execParse, doc: "A = number in S, sets CONV"},
		{code: 0x74, name: "match", operands: 1, class: ClassModifiesFlags | ClassString, exec: execMatch, doc: "MATCH = S matches pattern"},
		{code: 0x75, name: "print", operands: 1, optional: true, class: ClassIO, exec: execPrint(false), doc: "write src (S by default)"},
		{code: 0x76, name: "println", operands: 1, optional: true, class: ClassIO, exec: execPrint(true), doc: "write src (S by default) and a newline"},

		family(FamConv, "conv", "numeric and raw conversions of A", convDefs()),
		family(FamMath, "math", "functions of A", mathDefs()),
		family(FamNew, "new", "constructors into A", newDefs()),
		family(FamDate, "date", "date arithmetic on A", dateDefs()),
		family(FamDur, "dur", "duration arithmetic on A", durDefs()),
		family(FamColl, "coll", "collection access", collDefs()),
		family(FamRnd, "rnd", "random numbers", rndDefs()),
		family(FamStr, "str", "string register operations", strDefs()),
		family(FamMode, "mode", "VM mode bits", modeDefs()),
	}
}

// ---------------------------------------------------------------------------
// Catalog
// ---------------------------------------------------------------------------

// Catalog is the immutable opcode registry: the top-level dispatch table
// plus mnemonic indexes for concrete opcodes and for families. The two
// namespaces are separate, so "str" names both the 0x72 opcode and the
// string family prefix.
type Catalog struct {
	root     *Table
	byName   map[string]*Opcode
	families map[string]*Opcode
	all      []*Opcode
}

var (
	defaultCatalog *Catalog
	catalogOnce    sync.Once
)

// DefaultCatalog returns the shared catalog, building it on first use.
func DefaultCatalog() *Catalog {
	catalogOnce.Do(func() {
		c, err := buildCatalog(primaryDefs())
		if err != nil {
			panic(fmt.Sprintf("vm: bad opcode catalog: %v", err))
		}
		defaultCatalog = c
	})
	return defaultCatalog
}

func buildCatalog(defs []def) (*Catalog, error) {
	c := &Catalog{byName: make(map[string]*Opcode), families: make(map[string]*Opcode)}
	root, err := c.fill(nil, "", defs)
	if err != nil {
		return nil, err
	}
	c.root = root
	sort.Slice(c.all, func(i, j int) bool {
		return string(c.all[i].Bytes()) < string(c.all[j].Bytes())
	})
	return c, nil
}

func (c *Catalog) fill(path []byte, prefix string, defs []def) (*Table, error) {
	t := newTable(path)
	for _, d := range defs {
		if t.entries[d.code] != nil {
			return nil, fmt.Errorf("duplicate code 0x%02X for %s%s", d.code, prefix, d.name)
		}
		op := &Opcode{
			Code:     d.code,
			Path:     path,
			Name:     prefix + d.name,
			Operands: d.operands,
			Optional: d.optional,
			NoBody:   d.operands == 0 && d.children == nil,
			Class:    d.class,
			Exec:     d.exec,
			Doc:      d.doc,
		}
		if d.children != nil {
			op.NoBody = true
			childPath := append(append([]byte(nil), path...), d.code)
			children, err := c.fill(childPath, op.Name+".", d.children)
			if err != nil {
				return nil, err
			}
			op.Children = children
		} else if op.Exec == nil {
			return nil, fmt.Errorf("%s has no behavior", op.Name)
		}
		index := c.byName
		if op.IsFamily() {
			index = c.families
		}
		if _, dup := index[op.Name]; dup {
			return nil, fmt.Errorf("duplicate mnemonic %s", op.Name)
		}
		index[op.Name] = op
		c.all = append(c.all, op)
		t.entries[d.code] = op
	}
	return t, nil
}

// Root returns the top-level dispatch table.
func (c *Catalog) Root() *Table { return c.root }

// Lookup finds an opcode by mnemonic, e.g. "add" or "conv.double".
// Concrete opcodes win over a family of the same name. Mnemonics are case
// insensitive.
func (c *Catalog) Lookup(name string) (*Opcode, bool) {
	name = strings.ToLower(name)
	if op, ok := c.byName[name]; ok {
		return op, true
	}
	op, ok := c.families[name]
	return op, ok
}

// Family finds a family by its prefix, e.g. "conv".
func (c *Catalog) Family(name string) (*Opcode, bool) {
	op, ok := c.families[strings.ToLower(name)]
	return op, ok
}

// Decode resolves a complete selector such as {0x80, 0x0E}.
func (c *Catalog) Decode(code ...byte) (*Opcode, error) {
	i := 0
	op, err := c.root.Resolve(func() (byte, error) {
		if i >= len(code) {
			return 0, &InternalError{Msg: fmt.Sprintf("selector %s ends inside a family", formatPath(code))}
		}
		b := code[i]
		i++
		return b, nil
	})
	if err != nil {
		return nil, err
	}
	if i != len(code) {
		return nil, &InternalError{Msg: fmt.Sprintf("selector %s continues past %s", formatPath(code), op.Name)}
	}
	return op, nil
}

// Opcodes returns every opcode and family ordered by selector bytes.
func (c *Catalog) Opcodes() []*Opcode {
	return append([]*Opcode(nil), c.all...)
}
