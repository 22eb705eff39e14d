package vm

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

func TestBuildDefaultCatalog(t *testing.T) {
	cat, err := buildCatalog(primaryDefs())
	if err != nil {
		t.Fatalf("buildCatalog: %v", err)
	}
	if len(cat.Opcodes()) != len(DefaultCatalog().Opcodes()) {
		t.Errorf("fresh catalog has %d opcodes, shared one %d", len(cat.Opcodes()), len(DefaultCatalog().Opcodes()))
	}
}

func TestStrNamesOpcodeAndFamily(t *testing.T) {
	cat := DefaultCatalog()
	op, ok := cat.Lookup("str")
	if !ok || op.IsFamily() || !bytes.Equal(op.Bytes(), []byte{0x72}) {
		t.Errorf("Lookup(str) = %v, want the 0x72 opcode", op)
	}
	fam, ok := cat.Family("str")
	if !ok || !fam.IsFamily() || fam.Code != FamStr {
		t.Errorf("Family(str) = %v, want the 0x87 family", fam)
	}
	if fam, ok := cat.Lookup("conv"); !ok || !fam.IsFamily() {
		t.Errorf("Lookup(conv) = %v, want the family", fam)
	}
	if _, ok := cat.Family("add"); ok {
		t.Error("Family(add) found a concrete opcode")
	}
}

func TestBuildCatalogRejectsDuplicates(t *testing.T) {
	tests := []struct {
		name string
		defs []def
	}{
		{"code", []def{
			{code: 0x00, name: "a", exec: execNop},
			{code: 0x00, name: "b", exec: execNop},
		}},
		{"mnemonic", []def{
			{code: 0x00, name: "a", exec: execNop},
			{code: 0x01, name: "a", exec: execNop},
		}},
		{"family", []def{
			family(0x80, "f", "", []def{{code: 0x01, name: "x", exec: execNop}}),
			family(0x81, "f", "", []def{{code: 0x01, name: "y", exec: execNop}}),
		}},
		{"child", []def{
			family(0x80, "f", "", []def{
				{code: 0x01, name: "x", exec: execNop},
				{code: 0x02, name: "x", exec: execNop},
			}),
		}},
	}
	for _, tt := range tests {
		if _, err := buildCatalog(tt.defs); err == nil {
			t.Errorf("%s: buildCatalog accepted a duplicate", tt.name)
		}
	}
}

func TestCatalogLookup(t *testing.T) {
	cat := DefaultCatalog()
	tests := []struct {
		name string
		code []byte
	}{
		{"nop", []byte{0x00}},
		{"add", []byte{0x30}},
		{"ADD", []byte{0x30}},
		{"println", []byte{0x76}},
		{"conv.double", []byte{FamConv, 0x0E}},
		{"math.sin", []byte{FamMath, 0x01}},
		{"str.upper", []byte{FamStr, 0x01}},
		{"str", []byte{0x72}},
		{"mode.trace", []byte{FamMode, 0x03}},
	}
	for _, tt := range tests {
		op, ok := cat.Lookup(tt.name)
		if !ok {
			t.Errorf("Lookup(%q) failed", tt.name)
			continue
		}
		if !bytes.Equal(op.Bytes(), tt.code) {
			t.Errorf("%s.Bytes() = % X, want % X", tt.name, op.Bytes(), tt.code)
		}
		got, err := cat.Decode(tt.code...)
		if err != nil {
			t.Errorf("Decode(% X): %v", tt.code, err)
			continue
		}
		if got != op {
			t.Errorf("Decode(% X) = %s, want %s", tt.code, got.Name, op.Name)
		}
	}
}

func TestUnknownOpcode(t *testing.T) {
	cat := DefaultCatalog()

	_, err := cat.Decode(0xFF)
	var ue *UnknownOpcodeError
	if !errors.As(err, &ue) {
		t.Fatalf("Decode(0xFF) err = %v, want *UnknownOpcodeError", err)
	}
	if ue.Code != 0xFF || len(ue.Path) != 0 {
		t.Errorf("got %+v, want code 0xFF at top level", ue)
	}

	_, err = cat.Decode(FamColl, 0x7F)
	if !errors.As(err, &ue) {
		t.Fatalf("Decode(coll, 0x7F) err = %v, want *UnknownOpcodeError", err)
	}
	if ue.Code != 0x7F || !bytes.Equal(ue.Path, []byte{FamColl}) {
		t.Errorf("got %+v, want code 0x7F under 0x85", ue)
	}
	if !strings.Contains(ue.Error(), "0x85") {
		t.Errorf("Error() = %q, want the family path", ue.Error())
	}
}

func TestDecodeIncompleteSelector(t *testing.T) {
	cat := DefaultCatalog()
	var ie *InternalError
	if _, err := cat.Decode(FamDate); !errors.As(err, &ie) {
		t.Errorf("Decode(family only) err = %v, want *InternalError", err)
	}
	if _, err := cat.Decode(0x30, 0x01); !errors.As(err, &ie) {
		t.Errorf("Decode(trailing byte) err = %v, want *InternalError", err)
	}
}

func TestCatalogIsComplete(t *testing.T) {
	cat := DefaultCatalog()
	families := 0
	for _, op := range cat.Opcodes() {
		if op.IsFamily() {
			families++
			if !op.NoBody || !op.Class.Has(ClassFamily) {
				t.Errorf("family %s: NoBody=%v class=%s", op.Name, op.NoBody, op.Class)
			}
			continue
		}
		if op.Exec == nil {
			t.Errorf("%s has no behavior", op.Name)
		}
		if op.NoBody != (op.Operands == 0) {
			t.Errorf("%s: NoBody=%v with %d operands", op.Name, op.NoBody, op.Operands)
		}
		if got, ok := cat.Lookup(op.Name); !ok || got != op {
			t.Errorf("Lookup(%q) does not round trip", op.Name)
		}
	}
	if families != 9 {
		t.Errorf("families = %d, want 9", families)
	}
}

func TestClassLattice(t *testing.T) {
	tests := []struct {
		class Class
		has   []Class
		lacks []Class
	}{
		{ClassArithmetic, []Class{ClassModifiesAcc, ClassModifiesReg, ClassModifiesFlags}, []Class{ClassBitwise}},
		{ClassBitwise, []Class{ClassModifiesAcc, ClassModifiesFlags}, []Class{ClassArithmetic}},
		{ClassComparison, []Class{ClassModifiesFlags}, []Class{ClassModifiesAcc, ClassModifiesReg}},
		{ClassModifiesAcc, []Class{ClassModifiesReg, ClassModifiesFlags}, []Class{ClassArithmetic}},
	}
	for _, tt := range tests {
		for _, c := range tt.has {
			if !tt.class.Has(c) {
				t.Errorf("%s lacks %s", tt.class, c)
			}
		}
		for _, c := range tt.lacks {
			if tt.class.Has(c) {
				t.Errorf("%s has %s", tt.class, c)
			}
		}
	}

	add, _ := DefaultCatalog().Lookup("add")
	if add.Class.String() != "arithmetic" {
		t.Errorf("add class = %q, want %q", add.Class, "arithmetic")
	}
}

func TestInvokeChecks(t *testing.T) {
	cat := DefaultCatalog()
	c, _ := testContext()

	fam, _ := cat.Lookup("conv")
	var ie *InternalError
	if err := fam.Invoke(c, nil, Location{}); !errors.As(err, &ie) {
		t.Errorf("family Invoke err = %v, want *InternalError", err)
	}

	add, _ := cat.Lookup("add")
	var oe *OperandError
	err := add.Invoke(c, []Operand{Const(1), Const(2)}, Location{})
	if !errors.As(err, &oe) {
		t.Errorf("add with 2 operands err = %v, want *OperandError", err)
	}

	list, _ := cat.Lookup("new.list")
	if err := list.Invoke(c, []Operand{Const("a"), Const("b"), Const("c")}, Location{}); err != nil {
		t.Errorf("variadic Invoke: %v", err)
	}
}

func TestTableEach(t *testing.T) {
	root := DefaultCatalog().Root()
	var prev int = -1
	n := 0
	root.Each(func(op *Opcode) {
		if int(op.Code) <= prev {
			t.Errorf("Each out of order at %s", op.Name)
		}
		prev = int(op.Code)
		n++
	})
	if n < 80 {
		t.Errorf("root table has %d entries", n)
	}
}
