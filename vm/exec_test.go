package vm

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/chazu/chips/vm/numeric"
)

// ---------------------------------------------------------------------------
// Loads, stack and comparison
// ---------------------------------------------------------------------------

func TestLoadStoreVariables(t *testing.T) {
	c, _ := testContext()
	run(t, c,
		ins(t, "ld", num(t, "7i16")),
		ins(t, "st", Var(SpaceLocal, 2)),
		ins(t, "st", Var(SpaceGlobal, 0)),
		ins(t, "clr"),
		ins(t, "ldx", Var(SpaceLocal, 2)),
		ins(t, "txa"),
	)
	wantAcc(t, c, "7i16")
	if len(c.Locals) != 3 || c.Locals[0] != nil {
		t.Errorf("Locals = %v, want 3 slots with only $2 set", c.Locals)
	}

	err := c.Run(context.Background(), []Instruction{ins(t, "ld", Var(SpaceLocal, 0))})
	if err == nil {
		t.Error("reading an unassigned local succeeded")
	}
}

func TestStackOps(t *testing.T) {
	c, _ := testContext()
	run(t, c,
		ins(t, "push", num(t, "1i32")),
		ins(t, "push", num(t, "2i32")),
		ins(t, "dup"),
		ins(t, "ld", Reg(RegSP)),
	)
	wantAcc(t, c, "3i32")

	run(t, c, ins(t, "drop"), ins(t, "pop"))
	wantAcc(t, c, "2i32")

	c.MaxStack = 1
	err := c.Run(context.Background(), []Instruction{ins(t, "push"), ins(t, "push")})
	if !errors.Is(err, ErrStackOverflow) {
		t.Errorf("err = %v, want ErrStackOverflow", err)
	}
	run(t, c, ins(t, "drop"))
	err = c.Run(context.Background(), []Instruction{ins(t, "drop")})
	if !errors.Is(err, ErrStackUnderflow) {
		t.Errorf("err = %v, want ErrStackUnderflow", err)
	}
}

func TestExchange(t *testing.T) {
	c, _ := testContext()
	run(t, c,
		ins(t, "ld", num(t, "1i32")),
		ins(t, "ldy", num(t, "2i32")),
		ins(t, "xchg", Reg(RegY)),
	)
	wantAcc(t, c, "2i32")
	if !Equal(c.Regs.Y, numeric.FromInt32(1)) {
		t.Errorf("Y = %s, want 1i32", Inspect(c.Regs.Y))
	}
}

func TestCompareFlags(t *testing.T) {
	tests := []struct {
		a, b    string
		z, n, c bool
	}{
		{"5i32", "5i64", true, false, true},
		{"3i32", "5i32", false, true, false},
		{"9.5", "5i32", false, false, true},
	}
	for _, tt := range tests {
		c, _ := testContext()
		run(t, c, ins(t, "ld", num(t, tt.a)), ins(t, "cmp", num(t, tt.b)))
		f := &c.Regs.F
		if f.Get(FlagZero) != tt.z || f.Get(FlagSign) != tt.n || f.Get(FlagCarry) != tt.c {
			t.Errorf("cmp %s, %s: flags %s", tt.a, tt.b, f)
		}
	}
}

func TestPredicateBranches(t *testing.T) {
	c, _ := testContext()
	// 0: ld 4
	// 1: clt 5
	// 2: jf 5
	// 3: ld "less"
	// 4: jmp 6
	// 5: ld "not less"
	code := []Instruction{
		ins(t, "ld", num(t, "4i32")),
		ins(t, "clt", num(t, "5i32")),
		ins(t, "jf", LabelRef(5)),
		ins(t, "ld", Const("less")),
		ins(t, "jmp", LabelRef(6)),
		ins(t, "ld", Const("not less")),
	}
	run(t, c, code...)
	if c.Regs.A != "less" {
		t.Errorf("A = %s, want %q", Inspect(c.Regs.A), "less")
	}
}

func TestFlagOperands(t *testing.T) {
	c, _ := testContext()
	run(t, c,
		ins(t, "setf", FlagRef(FlagMatchOK)),
		ins(t, "sec"),
		ins(t, "ld", Reg(RegF)),
	)
	want := uint16(1<<FlagCarry | 1<<FlagMatchOK)
	if n := accNumber(t, c); n.Kind() != numeric.UShort || n.Uint64() != uint64(want) {
		t.Errorf("F = %s, want %d", n, want)
	}
	run(t, c, ins(t, "clrf", num(t, "7i32")), ins(t, "clc"))
	if c.Regs.F.Get(FlagMatchOK) || c.Regs.F.Carry() {
		t.Errorf("flags = %s, want MATCH and C clear", &c.Regs.F)
	}
}

func TestOutOfRangeIndices(t *testing.T) {
	tests := []struct {
		name string
		in   func(t *testing.T) Instruction
		want error
	}{
		{"setf index", func(t *testing.T) Instruction { return ins(t, "setf", num(t, "256i32")) }, ErrNoSuchFlag},
		{"clrf negative", func(t *testing.T) Instruction { return ins(t, "clrf", num(t, "-1i32")) }, ErrNoSuchFlag},
		{"setf ref", func(t *testing.T) Instruction { return ins(t, "setf", Var(SpaceFlag, 256)) }, ErrNoSuchFlag},
		{"ld flag", func(t *testing.T) Instruction { return ins(t, "ld", Var(SpaceFlag, 256)) }, ErrNoSuchFlag},
		{"st flag", func(t *testing.T) Instruction { return ins(t, "st", Var(SpaceFlag, 256)) }, ErrNoSuchFlag},
		{"ld register", func(t *testing.T) Instruction { return ins(t, "ld", Var(SpaceRegister, 256)) }, ErrNoSuchRegister},
		{"st register", func(t *testing.T) Instruction { return ins(t, "st", Var(SpaceRegister, 256)) }, ErrNoSuchRegister},
		{"xchg register", func(t *testing.T) Instruction { return ins(t, "xchg", Var(SpaceRegister, 256)) }, ErrNoSuchRegister},
	}
	for _, tt := range tests {
		c, _ := testContext()
		c.Regs.A = numeric.FromInt32(5)
		err := c.Run(context.Background(), []Instruction{tt.in(t)})
		var oe *OperandError
		if !errors.As(err, &oe) || !errors.Is(err, tt.want) {
			t.Errorf("%s: err = %v, want an operand error wrapping %v", tt.name, err, tt.want)
		}
		if c.Regs.F.Bits() != 0 {
			t.Errorf("%s: flags = %s, want all clear", tt.name, &c.Regs.F)
		}
		if !Equal(c.Regs.A, numeric.FromInt32(5)) || !Equal(c.Regs.X, numeric.Zero) {
			t.Errorf("%s: A = %s X = %s, want them untouched", tt.name, Inspect(c.Regs.A), Inspect(c.Regs.X))
		}
	}
}

func TestFailedArithmeticKeepsFlags(t *testing.T) {
	c, _ := testContext()
	run(t, c,
		ins(t, "ld", num(t, "2147483647i32")),
		ins(t, "add", num(t, "1i32")),
		ins(t, "sec"),
	)
	if !c.Regs.F.Get(FlagOverflow) {
		t.Fatal("add did not report overflow")
	}
	before := c.Regs.F.Bits()
	err := c.Run(context.Background(), []Instruction{ins(t, "div", num(t, "0i32"))})
	if !errors.Is(err, numeric.ErrDivideByZero) {
		t.Fatalf("err = %v, want ErrDivideByZero", err)
	}
	if c.Regs.F.Bits() != before {
		t.Errorf("flags = %s after a failed div, want them unchanged", &c.Regs.F)
	}
	wantAcc(t, c, "2147483647i32")

	run(t, c, ins(t, "sub", num(t, "1i32")))
	if c.Regs.F.Get(FlagOverflow) {
		t.Error("V still set after an exact sub")
	}
}

func TestSlotLimit(t *testing.T) {
	c, _ := testContext()
	c.MaxSlots = 4
	run(t, c, ins(t, "ld", num(t, "1i32")), ins(t, "st", Var(SpaceLocal, 3)))
	for _, ref := range []Operand{Var(SpaceLocal, 4), Var(SpaceGlobal, 1<<30)} {
		err := c.Run(context.Background(), []Instruction{ins(t, "st", ref)})
		if !errors.Is(err, ErrSlotLimit) {
			t.Errorf("st %s: err = %v, want ErrSlotLimit", ref, err)
		}
	}
	if len(c.Locals) != 4 || len(c.Globals) != 0 {
		t.Errorf("slots = %d locals, %d globals, want 4 and 0", len(c.Locals), len(c.Globals))
	}
}

func TestShiftThroughCarry(t *testing.T) {
	c, _ := testContext()
	run(t, c,
		ins(t, "ld", num(t, "129u8")),
		ins(t, "clc"),
		ins(t, "rol"),
	)
	wantAcc(t, c, "2u8")
	if !c.Regs.F.Carry() {
		t.Error("rol did not move bit 7 into C")
	}
	run(t, c, ins(t, "rol"))
	wantAcc(t, c, "5u8")
}

// ---------------------------------------------------------------------------
// Strings and output
// ---------------------------------------------------------------------------

func TestStringOps(t *testing.T) {
	c, out := testContext()
	run(t, c,
		ins(t, "lds", Const("  Hello ")),
		ins(t, "str.trim"),
		ins(t, "cat", Const(", world")),
		ins(t, "str.upper"),
		ins(t, "println"),
		ins(t, "str.find", Const("WORLD")),
	)
	if got := out.String(); got != "HELLO, WORLD\n" {
		t.Errorf("output = %q", got)
	}
	wantAcc(t, c, "7i32")

	run(t, c, ins(t, "str.sub", num(t, "0i32"), num(t, "5i32")), ins(t, "str.rev"))
	if c.Regs.S != "OLLEH" {
		t.Errorf("S = %q, want %q", c.Regs.S, "OLLEH")
	}

	run(t, c, ins(t, "str.char", Const(Indexer{Index: 1, FromEnd: true})))
	if c.Regs.A != Char('H') {
		t.Errorf("A = %s, want 'H'", Inspect(c.Regs.A))
	}
}

func TestSplitJoin(t *testing.T) {
	c, _ := testContext()
	run(t, c,
		ins(t, "lds", Const("a,b,c")),
		ins(t, "str.split", Const(",")),
		ins(t, "st", Var(SpaceLocal, 0)),
		ins(t, "str.join", Var(SpaceLocal, 0), Const("-")),
	)
	if c.Regs.S != "a-b-c" {
		t.Errorf("S = %q, want %q", c.Regs.S, "a-b-c")
	}
}

func TestParseSetsConvFlag(t *testing.T) {
	c, _ := testContext()
	run(t, c, ins(t, "lds", Const("12u16")), ins(t, "parse"))
	wantAcc(t, c, "12u16")
	if !c.Regs.F.Get(FlagConvOK) {
		t.Error("CONV clear after a good parse")
	}
	run(t, c, ins(t, "lds", Const("twelve")), ins(t, "parse"))
	wantAcc(t, c, "12u16")
	if c.Regs.F.Get(FlagConvOK) {
		t.Error("CONV set after a bad parse")
	}
}

func TestMatch(t *testing.T) {
	c, _ := testContext()
	run(t, c,
		ins(t, "new.regex", Const(`^\d+$`)),
		ins(t, "lds", Const("12345")),
		ins(t, "match", Reg(RegA)),
	)
	if !c.Regs.F.Get(FlagMatchOK) {
		t.Error("MATCH clear")
	}
	run(t, c, ins(t, "lds", Const("12a")), ins(t, "match", Const(`^\d+$`)))
	if c.Regs.F.Get(FlagMatchOK) {
		t.Error("MATCH set")
	}
}

func TestBinaryString(t *testing.T) {
	c, _ := testContext()
	run(t, c, ins(t, "ld", num(t, "5u8")), ins(t, "bin"))
	if c.Regs.S != "00000101" {
		t.Errorf("S = %q", c.Regs.S)
	}
}

// ---------------------------------------------------------------------------
// Conversions and math
// ---------------------------------------------------------------------------

func TestConversions(t *testing.T) {
	tests := []struct {
		from  Value
		op    string
		want  string
		exact bool
	}{
		{numeric.FromInt32(300), "conv.byte", "44u8", false},
		{numeric.FromInt32(200), "conv.byte", "200u8", true},
		{numeric.FromFloat64(2.5), "conv.int", "2i32", false},
		{"42", "conv.long", "42i64", true},
		{Char('A'), "conv.short", "65i16", true},
		{true, "conv.sbyte", "1i8", true},
	}
	for _, tt := range tests {
		c, _ := testContext()
		c.Regs.A = tt.from
		run(t, c, ins(t, tt.op))
		wantAcc(t, c, tt.want)
		if c.Regs.F.Get(FlagConvOK) != tt.exact {
			t.Errorf("%s %s: CONV = %v, want %v", tt.op, Inspect(tt.from), !tt.exact, tt.exact)
		}
	}
}

func TestRawBitsRoundTrip(t *testing.T) {
	c, _ := testContext()
	run(t, c, ins(t, "ld", num(t, "1.5f32")), ins(t, "conv.bits"))
	wantAcc(t, c, "1069547520u32")
	run(t, c, ins(t, "conv.unbits"))
	wantAcc(t, c, "1.5f32")
}

func TestMathWidensIntegers(t *testing.T) {
	c, _ := testContext()
	run(t, c, ins(t, "ld", num(t, "0i32")), ins(t, "math.cos"))
	wantAcc(t, c, "1f64")

	run(t, c, ins(t, "ld", num(t, "7i32")), ins(t, "math.floor"))
	wantAcc(t, c, "7i32")

	run(t, c, ins(t, "ld", num(t, "3i32")), ins(t, "math.max", num(t, "9i32")))
	wantAcc(t, c, "9i32")
}

// ---------------------------------------------------------------------------
// Collections
// ---------------------------------------------------------------------------

func TestListOps(t *testing.T) {
	c, _ := testContext()
	list := Var(SpaceLocal, 0)
	run(t, c,
		ins(t, "new.list", num(t, "3i32"), num(t, "1i32")),
		ins(t, "st", list),
		ins(t, "ld", num(t, "2i32")),
		ins(t, "coll.add", list),
		ins(t, "coll.sort", list),
		ins(t, "coll.get", list, Const(Indexer{Index: 1, FromEnd: true})),
	)
	wantAcc(t, c, "3i32")

	run(t, c, ins(t, "coll.len", list))
	wantAcc(t, c, "3i32")

	run(t, c, ins(t, "ld", num(t, "2i64")), ins(t, "coll.find", list))
	wantAcc(t, c, "1i32")

	err := c.Run(context.Background(), []Instruction{ins(t, "coll.get", list, num(t, "3i32"))})
	var oe *OperandError
	if !errors.As(err, &oe) || oe.Index != 1 {
		t.Errorf("out of range get err = %v, want *OperandError at 1", err)
	}
}

func TestSetOps(t *testing.T) {
	c, _ := testContext()
	set := Var(SpaceLocal, 0)
	run(t, c,
		ins(t, "new.set", Const("a"), Const("b"), Const("a")),
		ins(t, "st", set),
		ins(t, "coll.len", set),
	)
	wantAcc(t, c, "2i32")

	run(t, c, ins(t, "ld", Const("c")), ins(t, "coll.add", set))
	if !c.Regs.F.Get(FlagCompare) {
		t.Error("adding a new element left CMP clear")
	}
	run(t, c, ins(t, "coll.add", set))
	if c.Regs.F.Get(FlagCompare) {
		t.Error("adding a duplicate set CMP")
	}
	run(t, c, ins(t, "ld", Const("a")), ins(t, "coll.remove", set), ins(t, "coll.has", set))
	if c.Regs.F.Get(FlagCompare) {
		t.Error("removed element still present")
	}
}

func TestArrayAndRange(t *testing.T) {
	c, _ := testContext()
	arr := Var(SpaceLocal, 0)
	run(t, c,
		ins(t, "new.array", num(t, "3i32")),
		ins(t, "st", arr),
		ins(t, "ld", num(t, "9i32")),
		ins(t, "coll.set", arr, num(t, "2i32")),
		ins(t, "coll.last", arr),
	)
	wantAcc(t, c, "9i32")
	if err := c.Run(context.Background(), []Instruction{ins(t, "coll.add", arr)}); err == nil {
		t.Error("appending to an array succeeded")
	}

	run(t, c,
		ins(t, "new.range", num(t, "10i32"), num(t, "0i32"), num(t, "-3i32")),
		ins(t, "st", Var(SpaceLocal, 1)),
		ins(t, "coll.get", Var(SpaceLocal, 1), num(t, "3i32")),
	)
	wantAcc(t, c, "1i64")
	run(t, c, ins(t, "coll.len", Var(SpaceLocal, 1)))
	wantAcc(t, c, "4i32")
}

func TestSortRejectsMixedKinds(t *testing.T) {
	c, _ := testContext()
	l := &List{Items: []Value{numeric.FromInt32(2), "x", numeric.FromInt32(1)}}
	c.Locals = []Value{l}
	err := c.Run(context.Background(), []Instruction{ins(t, "coll.sort", Var(SpaceLocal, 0))})
	if err == nil {
		t.Fatal("sorting mixed kinds succeeded")
	}
	if l.Items[1] != "x" {
		t.Error("failed sort modified the list")
	}
}

// ---------------------------------------------------------------------------
// Dates and durations
// ---------------------------------------------------------------------------

func TestDateOps(t *testing.T) {
	c, _ := testContext()
	run(t, c,
		ins(t, "date.now"),
		ins(t, "date.add", Const(36*time.Hour)),
		ins(t, "date.day"),
	)
	wantAcc(t, c, "2i32")

	run(t, c,
		ins(t, "new.date", num(t, "2024i32"), num(t, "1i32"), num(t, "1i32")),
		ins(t, "date.fmt", Const("2006-01-02")),
	)
	if c.Regs.S != "2024-01-01" {
		t.Errorf("S = %q", c.Regs.S)
	}

	run(t, c,
		ins(t, "date.now"),
		ins(t, "date.sub", Const(time.Date(2024, 2, 28, 12, 0, 0, 0, time.UTC))),
		ins(t, "dur.totalms"),
	)
	wantAcc(t, c, "88200000i64")
}

func TestDurationOps(t *testing.T) {
	c, _ := testContext()
	run(t, c,
		ins(t, "dur.sec", num(t, "90i32")),
		ins(t, "dur.add", num(t, "500i32")),
		ins(t, "dur.scale", num(t, "2i32")),
	)
	if c.Regs.A != 181*time.Second {
		t.Errorf("A = %s, want 3m1s", Inspect(c.Regs.A))
	}
	run(t, c, ins(t, "lds", Const("1h30m")), ins(t, "dur.parse"), ins(t, "dur.totalsec"))
	wantAcc(t, c, "5400f64")
}

// ---------------------------------------------------------------------------
// Random numbers and modes
// ---------------------------------------------------------------------------

func TestRandomIsReproducible(t *testing.T) {
	draw := func() []Value {
		c, _ := testContext()
		var got []Value
		for range 5 {
			run(t, c, ins(t, "rnd.int", num(t, "0i32"), num(t, "100i32")))
			got = append(got, c.Regs.A)
		}
		return got
	}
	a, b := draw(), draw()
	for i := range a {
		if !Equal(a[i], b[i]) {
			t.Fatalf("draw %d differs: %s vs %s", i, Inspect(a[i]), Inspect(b[i]))
		}
		n := a[i].(numeric.Value)
		if n.Kind() != numeric.Int || n.Int64() < 0 || n.Int64() >= 100 {
			t.Errorf("draw %d = %s outside [0, 100)", i, n)
		}
	}

	c, _ := testContext()
	err := c.Run(context.Background(), []Instruction{ins(t, "rnd.int", num(t, "5i32"), num(t, "5i32"))})
	if err == nil {
		t.Error("empty interval accepted")
	}
}

func TestModes(t *testing.T) {
	c, _ := testContext()
	run(t, c, ins(t, "mode.prop"), ins(t, "mode.trace"))
	if !c.Regs.F.Get(FlagPropMode) || !c.Trace {
		t.Error("prop or trace mode not entered")
	}
	run(t, c, ins(t, "mode.direct"), ins(t, "mode.notrace"))
	if c.Regs.F.Get(FlagPropMode) || c.Trace {
		t.Error("prop or trace mode not left")
	}
}
