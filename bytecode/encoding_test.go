package bytecode

import (
	"errors"
	"math"
	"math/big"
	"regexp"
	"testing"
	"time"

	"github.com/chazu/chips/vm"
	"github.com/chazu/chips/vm/numeric"
	"github.com/x448/float16"
)

func mustParse(t *testing.T, lit string) numeric.Value {
	t.Helper()
	v, err := numeric.Parse(lit)
	if err != nil {
		t.Fatalf("Parse(%q): %v", lit, err)
	}
	return v
}

func TestVarint(t *testing.T) {
	tests := []struct {
		n    uint64
		want []byte
	}{
		{0, []byte{0x00}},
		{1, []byte{0x01}},
		{127, []byte{0x7F}},
		{128, []byte{0x80, 0x01}},
		{300, []byte{0xAC, 0x02}},
		{math.MaxUint64, []byte{0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0x01}},
	}
	for _, tt := range tests {
		e := NewEncoder(NewStringHeap())
		e.WriteVarint(tt.n)
		if string(e.Bytes()) != string(tt.want) {
			t.Errorf("WriteVarint(%d) = % X, want % X", tt.n, e.Bytes(), tt.want)
		}
		got, err := NewDecoder(e.Bytes(), nil).ReadVarint()
		if err != nil || got != tt.n {
			t.Errorf("ReadVarint(% X) = %d, %v", tt.want, got, err)
		}
	}

	if _, err := NewDecoder([]byte{0x80}, nil).ReadVarint(); !errors.Is(err, ErrTruncated) {
		t.Errorf("truncated varint err = %v", err)
	}
}

func TestVariableAccess(t *testing.T) {
	tests := []struct {
		space vm.Space
		index int
		want  []byte
	}{
		{vm.SpaceLocal, 0, []byte{0x00}},
		{vm.SpaceGlobal, 0, []byte{0x01}},
		{vm.SpaceRegister, 1, []byte{0x06}},
		{vm.SpaceFlag, 2, []byte{0x0B}},
		{vm.SpaceLocal, 40, []byte{0xA0, 0x01}},
	}
	for _, tt := range tests {
		e := NewEncoder(NewStringHeap())
		e.WriteVariableAccess(tt.space, tt.index)
		if string(e.Bytes()) != string(tt.want) {
			t.Errorf("WriteVariableAccess(%s, %d) = % X, want % X", tt.space, tt.index, e.Bytes(), tt.want)
		}
		space, index, err := NewDecoder(e.Bytes(), nil).ReadVariableAccess()
		if err != nil || space != tt.space || index != tt.index {
			t.Errorf("ReadVariableAccess(% X) = %s, %d, %v", tt.want, space, index, err)
		}
	}
}

func TestConstantRoundTrip(t *testing.T) {
	huge, _ := new(big.Int).SetString("-123456789012345678901234567890", 10)
	values := []vm.Value{
		mustParse(t, "-128i8"),
		mustParse(t, "-2i16"),
		mustParse(t, "-5i32"),
		mustParse(t, "-9223372036854775808i64"),
		mustParse(t, "-7in"),
		mustParse(t, "255u8"),
		mustParse(t, "65535u16"),
		mustParse(t, "4000000000u32"),
		mustParse(t, "18446744073709551615u64"),
		mustParse(t, "12un"),
		numeric.FromBig(huge),
		numeric.FromBig(big.NewInt(0)),
		numeric.FromBig(big.NewInt(-128)),
		numeric.FromBig(big.NewInt(128)),
		mustParse(t, "1.5f16"),
		numeric.FromHalf(float16.Inf(-1)),
		numeric.FromHalf(float16.NaN()),
		mustParse(t, "3.25f32"),
		numeric.FromFloat32(float32(math.Inf(1))),
		mustParse(t, "-0.1f64"),
		numeric.FromFloat64(math.NaN()),
		numeric.FromFloat64(math.Inf(-1)),
		mustParse(t, "-79228162514264337593543950335m"),
		mustParse(t, "0.0000000000000000000000000001m"),
		mustParse(t, "12.50m"),
		numeric.FromComplex(complex(1.5, -2)),
		numeric.FromComplex(complex(math.NaN(), math.Inf(1))),
		"",
		"hello, wörld",
		vm.Char('λ'),
		true,
		false,
		vm.Indexer{Index: 3, FromEnd: true},
		90 * time.Minute,
		-time.Nanosecond,
		time.Date(1969, 7, 20, 20, 17, 40, 123, time.UTC),
		vm.Range{Start: 10, End: -10, Step: -3},
	}

	heap := NewStringHeap()
	e := NewEncoder(heap)
	for _, v := range values {
		if err := e.WriteConstant(v); err != nil {
			t.Fatalf("WriteConstant(%s): %v", vm.Inspect(v), err)
		}
	}
	d := NewDecoder(e.Bytes(), heap)
	for _, want := range values {
		got, err := d.ReadConstant()
		if err != nil {
			t.Fatalf("ReadConstant for %s: %v", vm.Inspect(want), err)
		}
		if !sameConstant(got, want) {
			t.Errorf("round trip %s (%s) = %s (%s)", vm.Inspect(want), vm.TypeName(want), vm.Inspect(got), vm.TypeName(got))
		}
	}
	if d.HasMore() {
		t.Errorf("%d bytes left over", len(e.Bytes())-d.Position())
	}
}

// sameConstant requires the same kind as well as the same value.
func sameConstant(a, b vm.Value) bool {
	if x, ok := a.(numeric.Value); ok {
		y, ok := b.(numeric.Value)
		return ok && x.Equal(y)
	}
	return vm.TypeName(a) == vm.TypeName(b) && vm.Equal(a, b)
}

func TestPatternConstant(t *testing.T) {
	heap := NewStringHeap()
	e := NewEncoder(heap)
	if err := e.WriteConstant(regexp.MustCompile(`^a+b$`)); err != nil {
		t.Fatal(err)
	}
	got, err := NewDecoder(e.Bytes(), heap).ReadConstant()
	if err != nil {
		t.Fatal(err)
	}
	re, ok := got.(*regexp.Regexp)
	if !ok || re.String() != `^a+b$` {
		t.Errorf("got %s", vm.Inspect(got))
	}
}

func TestFixedWidthLayout(t *testing.T) {
	tests := []struct {
		lit  string
		want []byte
	}{
		{"-2i16", []byte{byte(numeric.Short), 0xFE, 0xFF}},
		{"1u32", []byte{byte(numeric.UInt), 0x01, 0x00, 0x00, 0x00}},
		{"1n", []byte{byte(numeric.BigInt), 0x01, 0x01}},
		{"-1n", []byte{byte(numeric.BigInt), 0x01, 0xFF}},
		{"255n", []byte{byte(numeric.BigInt), 0x02, 0x00, 0xFF}},
		{"-1.5m", []byte{byte(numeric.Decimal), 15, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 1, 0x80}},
	}
	for _, tt := range tests {
		e := NewEncoder(NewStringHeap())
		if err := e.WriteConstant(mustParse(t, tt.lit)); err != nil {
			t.Fatalf("%s: %v", tt.lit, err)
		}
		if string(e.Bytes()) != string(tt.want) {
			t.Errorf("%s = % X, want % X", tt.lit, e.Bytes(), tt.want)
		}
	}
}

func TestUnencodableConstant(t *testing.T) {
	e := NewEncoder(NewStringHeap())
	var ue *UnencodableError
	if err := e.WriteConstant(&vm.List{}); !errors.As(err, &ue) {
		t.Errorf("err = %v, want *UnencodableError", err)
	}
}

func TestUnknownTag(t *testing.T) {
	_, err := NewDecoder([]byte{0x7E}, NewStringHeap()).ReadConstant()
	var te *TagError
	if !errors.As(err, &te) || te.Tag != 0x7E {
		t.Errorf("err = %v, want *TagError for 0x7E", err)
	}
}

func TestOperandRoundTrip(t *testing.T) {
	ops := []vm.Operand{
		vm.Const(mustParse(t, "5i32")),
		vm.Var(vm.SpaceGlobal, 12),
		vm.Reg(vm.RegS),
		vm.FlagRef(vm.FlagMatchOK),
		vm.LabelRef(300),
	}
	heap := NewStringHeap()
	e := NewEncoder(heap)
	for _, op := range ops {
		if err := e.WriteOperand(op); err != nil {
			t.Fatal(err)
		}
	}
	d := NewDecoder(e.Bytes(), heap)
	for _, want := range ops {
		got, err := d.ReadOperand()
		if err != nil {
			t.Fatal(err)
		}
		if got.String() != want.String() || got.Kind != want.Kind {
			t.Errorf("operand %s decoded as %s", want, got)
		}
	}
}
