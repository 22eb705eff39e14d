package numeric

import (
	"errors"
	"math"
	"math/big"
	"testing"

	"github.com/x448/float16"
)

type testStatus struct {
	carry, overflow bool
}

func (s *testStatus) Carry() bool       { return s.carry }
func (s *testStatus) SetCarry(b bool)    { s.carry = b }
func (s *testStatus) SetOverflow(b bool) { s.overflow = b }

func mustParse(t *testing.T, s string) Value {
	t.Helper()
	v, err := Parse(s)
	if err != nil {
		t.Fatalf("Parse(%q): %v", s, err)
	}
	return v
}

// ---------------------------------------------------------------------------
// Promotion
// ---------------------------------------------------------------------------

func TestPromoteOrder(t *testing.T) {
	tests := []struct {
		a, b, want Kind
	}{
		{SByte, Byte, Byte},
		{Short, SByte, Short},
		{Half, Short, Half},
		{Int, Half, Int},
		{UInt, Int, UInt},
		{Float, Int, Float},
		{Long, Float, Long},
		{Double, Long, Double},
		{Double, NUInt, Double},
		{BigInt, Double, BigInt},
		{Decimal, BigInt, Decimal},
		{Complex, Decimal, Complex},
	}
	for _, tt := range tests {
		if got := Promote(tt.a, tt.b); got != tt.want {
			t.Errorf("Promote(%s, %s) = %s, want %s", tt.a, tt.b, got, tt.want)
		}
		if got := Promote(tt.b, tt.a); got != tt.want {
			t.Errorf("Promote(%s, %s) = %s, want %s", tt.b, tt.a, got, tt.want)
		}
	}
}

func TestAddIsSymmetricAcrossKinds(t *testing.T) {
	for _, ka := range Kinds {
		for _, kb := range Kinds {
			a, _ := FromInt32(3).To(ka)
			b, _ := FromInt32(2).To(kb)
			ab, err := a.Add(nil, b)
			if err != nil {
				t.Fatalf("%s + %s: %v", ka, kb, err)
			}
			ba, err := b.Add(nil, a)
			if err != nil {
				t.Fatalf("%s + %s: %v", kb, ka, err)
			}
			want := Promote(ka, kb)
			if ab.Kind() != want || ba.Kind() != want {
				t.Errorf("%s + %s: kinds %s/%s, want %s", ka, kb, ab.Kind(), ba.Kind(), want)
			}
			if !ab.Equal(ba) {
				t.Errorf("%s + %s: %s != %s", ka, kb, ab, ba)
			}
			five, _ := ab.To(Int)
			if five.Int64() != 5 {
				t.Errorf("%s + %s = %s, want 5", ka, kb, ab)
			}
		}
	}
}

func TestNarrowKindsKeepTheirKind(t *testing.T) {
	st := &testStatus{}
	r, err := FromInt16(30000).Add(st, FromInt16(30000))
	if err != nil {
		t.Fatal(err)
	}
	if r.Kind() != Short || r.Int64() != math.MaxInt16 || !st.overflow {
		t.Errorf("30000i16 + 30000i16 = %s overflow=%v, want 32767i16 overflow", r, st.overflow)
	}

	r, _ = FromUint8(100).Add(st, FromInt8(100))
	if r.Kind() != Byte || r.Uint64() != 200 || st.overflow {
		t.Errorf("100u8 + 100i8 = %s overflow=%v, want 200u8", r, st.overflow)
	}
}

func TestNarrowMixedSign(t *testing.T) {
	tests := []struct {
		name     string
		op       func(Value, Status, Value) (Value, error)
		a, b     Value
		want     Value
		overflow bool
	}{
		{"-1i8 + 1u8", Value.Add, FromInt8(-1), FromUint8(1), FromUint8(0), false},
		{"-1i8 + 1u16", Value.Add, FromInt8(-1), FromUint16(1), FromUint16(0), false},
		{"1u8 + -1i16", Value.Add, FromUint8(1), FromInt16(-1), FromInt16(0), false},
		{"-5i8 + 3u8", Value.Add, FromInt8(-5), FromUint8(3), FromUint8(0), true},
		{"-2i8 * 3u8", Value.Multiply, FromInt8(-2), FromUint8(3), FromUint8(0), true},
		{"-2i8 * -3i16", Value.Multiply, FromInt8(-2), FromInt16(-3), FromInt16(6), false},
		{"3u8 - -2i8", Value.Subtract, FromUint8(3), FromInt8(-2), FromUint8(5), false},
		{"255u8 - -1i8", Value.Subtract, FromUint8(255), FromInt8(-1), FromUint8(255), true},
		{"-6i8 / 2u8", Value.Divide, FromInt8(-6), FromUint8(2), FromUint8(0), true},
		{"200u8 / -2i16", Value.Divide, FromUint8(200), FromInt16(-2), FromInt16(-100), false},
		{"-7i8 rep 3u16", Value.Repeat, FromInt8(-7), FromUint16(3), FromUint16(2), false},
		{"256u16 * 256u16", Value.Multiply, FromUint16(256), FromUint16(256), MaxValue(UShort), true},
		{"-128i8 / -1i8", Value.Divide, MinValue(SByte), FromInt8(-1), MaxValue(SByte), true},
	}
	for _, tt := range tests {
		st := &testStatus{}
		got, err := tt.op(tt.a, st, tt.b)
		if err != nil {
			t.Fatalf("%s: %v", tt.name, err)
		}
		if got.Kind() != tt.want.Kind() || !got.Equal(tt.want) {
			t.Errorf("%s = %s (%s), want %s (%s)", tt.name, got, got.Kind(), tt.want, tt.want.Kind())
		}
		if st.overflow != tt.overflow {
			t.Errorf("%s: overflow = %v, want %v", tt.name, st.overflow, tt.overflow)
		}
	}
}

// ---------------------------------------------------------------------------
// Saturation
// ---------------------------------------------------------------------------

func TestSaturatingAdd(t *testing.T) {
	tests := []struct {
		name     string
		a, b     Value
		want     Value
		overflow bool
	}{
		{"sbyte max+1", MaxValue(SByte), FromInt8(1), MaxValue(SByte), true},
		{"sbyte min-1", MinValue(SByte), FromInt8(-1), MinValue(SByte), true},
		{"byte max+1", MaxValue(Byte), FromUint8(1), MaxValue(Byte), true},
		{"int in range", FromInt32(5), FromInt32(-7), FromInt32(-2), false},
		{"long max+1", MaxValue(Long), FromInt64(1), MaxValue(Long), true},
		{"long min+min", MinValue(Long), MinValue(Long), MinValue(Long), true},
		{"ulong max+max", MaxValue(ULong), MaxValue(ULong), MaxValue(ULong), true},
		{"nint max+1", MaxValue(NInt), FromInt(1), MaxValue(NInt), true},
		{"uint ok", FromUint32(1), FromUint32(2), FromUint32(3), false},
	}
	for _, tt := range tests {
		st := &testStatus{}
		got, err := tt.a.Add(st, tt.b)
		if err != nil {
			t.Fatalf("%s: %v", tt.name, err)
		}
		if !got.Equal(tt.want) {
			t.Errorf("%s: got %s, want %s", tt.name, got, tt.want)
		}
		if st.overflow != tt.overflow {
			t.Errorf("%s: overflow = %v, want %v", tt.name, st.overflow, tt.overflow)
		}
	}
}

func TestSaturatingSubtract(t *testing.T) {
	tests := []struct {
		name     string
		a, b     Value
		want     Value
		overflow bool
	}{
		{"long min-1", MinValue(Long), FromInt64(1), MinValue(Long), true},
		{"5 - long min", FromInt64(5), MinValue(Long), MaxValue(Long), true},
		{"-5 - long min", FromInt64(-5), MinValue(Long), FromInt64(math.MaxInt64 - 4), false},
		{"0 - sbyte min", FromInt8(0), MinValue(SByte), MaxValue(SByte), true},
		{"-1 - sbyte min", FromInt8(-1), MinValue(SByte), MaxValue(SByte), false},
		{"uint below zero", FromUint32(1), FromUint32(2), FromUint32(0), true},
		{"int plain", FromInt32(10), FromInt32(3), FromInt32(7), false},
	}
	for _, tt := range tests {
		st := &testStatus{}
		got, err := tt.a.Subtract(st, tt.b)
		if err != nil {
			t.Fatalf("%s: %v", tt.name, err)
		}
		if !got.Equal(tt.want) {
			t.Errorf("%s: got %s, want %s", tt.name, got, tt.want)
		}
		if st.overflow != tt.overflow {
			t.Errorf("%s: overflow = %v, want %v", tt.name, st.overflow, tt.overflow)
		}
	}
}

func TestSaturatingMultiply(t *testing.T) {
	tests := []struct {
		name     string
		a, b     Value
		want     Value
		overflow bool
	}{
		{"long max*2", MaxValue(Long), FromInt64(2), MaxValue(Long), true},
		{"long max*-2", MaxValue(Long), FromInt64(-2), MinValue(Long), true},
		{"long min*-1", MinValue(Long), FromInt64(-1), MaxValue(Long), true},
		{"int exact", FromInt32(-6), FromInt32(7), FromInt32(-42), false},
		{"short overflow", FromInt16(300), FromInt16(300), MaxValue(Short), true},
		{"ulong overflow", MaxValue(ULong), FromUint64(2), MaxValue(ULong), true},
	}
	for _, tt := range tests {
		st := &testStatus{}
		got, err := tt.a.Multiply(st, tt.b)
		if err != nil {
			t.Fatalf("%s: %v", tt.name, err)
		}
		if !got.Equal(tt.want) {
			t.Errorf("%s: got %s, want %s", tt.name, got, tt.want)
		}
		if st.overflow != tt.overflow {
			t.Errorf("%s: overflow = %v, want %v", tt.name, st.overflow, tt.overflow)
		}
	}
}

func TestNegateMinimumSaturates(t *testing.T) {
	st := &testStatus{}
	got, err := MinValue(Int).Negate(st)
	if err != nil {
		t.Fatal(err)
	}
	if !got.Equal(MaxValue(Int)) || !st.overflow {
		t.Errorf("-min = %s overflow=%v, want %s overflow", got, st.overflow, MaxValue(Int))
	}
	got, _ = MinValue(Short).Abs(st)
	if !got.Equal(MaxValue(Short)) || !st.overflow {
		t.Errorf("abs(min) = %s, want %s", got, MaxValue(Short))
	}
}

func TestIncrementDecrement(t *testing.T) {
	st := &testStatus{}
	got, _ := MaxValue(Byte).Increment(st)
	if !got.Equal(MaxValue(Byte)) || !st.overflow {
		t.Errorf("inc(255u8) = %s overflow=%v", got, st.overflow)
	}
	got, _ = FromUint8(0).Decrement(st)
	if !got.Equal(FromUint8(0)) || !st.overflow {
		t.Errorf("dec(0u8) = %s overflow=%v", got, st.overflow)
	}
	got, _ = FromFloat64(1.5).Increment(st)
	if got.Float64() != 2.5 || st.overflow {
		t.Errorf("inc(1.5) = %s overflow=%v", got, st.overflow)
	}
}

func TestHalfOverflowsToInfinity(t *testing.T) {
	st := &testStatus{}
	max := FromHalf(float16.Fromfloat32(65504))
	got, err := max.Add(st, max)
	if err != nil {
		t.Fatal(err)
	}
	if got.Kind() != Half || !math.IsInf(got.Float64(), 1) || !st.overflow {
		t.Errorf("65504f16 + 65504f16 = %s overflow=%v", got, st.overflow)
	}
}

// ---------------------------------------------------------------------------
// Division family
// ---------------------------------------------------------------------------

func TestModulusAndRepeat(t *testing.T) {
	tests := []struct {
		a, b        Value
		mod, repeat Value
	}{
		{FromFloat64(-2.5), FromFloat64(10), FromFloat64(-2.5), FromFloat64(7.5)},
		{FromFloat64(2.5), FromFloat64(10), FromFloat64(2.5), FromFloat64(2.5)},
		{FromInt32(-7), FromInt32(3), FromInt32(-1), FromInt32(2)},
		{FromInt32(-7), FromInt32(-3), FromInt32(-1), FromInt32(2)},
		{FromInt32(7), FromInt32(-3), FromInt32(1), FromInt32(1)},
		{MinValue(Long), FromInt64(-1), FromInt64(0), FromInt64(0)},
		{FromUint32(7), FromUint32(3), FromUint32(1), FromUint32(1)},
		{FromBig(big.NewInt(-7)), FromBig(big.NewInt(3)), FromBig(big.NewInt(-1)), FromBig(big.NewInt(2))},
	}
	for _, tt := range tests {
		mod, err := tt.a.Modulus(nil, tt.b)
		if err != nil {
			t.Fatalf("%s mod %s: %v", tt.a, tt.b, err)
		}
		if !mod.Equal(tt.mod) {
			t.Errorf("%s mod %s = %s, want %s", tt.a, tt.b, mod, tt.mod)
		}
		rep, err := tt.a.Repeat(nil, tt.b)
		if err != nil {
			t.Fatalf("%s rep %s: %v", tt.a, tt.b, err)
		}
		if !rep.Equal(tt.repeat) {
			t.Errorf("%s rep %s = %s, want %s", tt.a, tt.b, rep, tt.repeat)
		}
	}
}

func TestDecimalModulusAndRepeat(t *testing.T) {
	a, b := mustParse(t, "-2.5m"), mustParse(t, "10m")
	mod, err := a.Modulus(nil, b)
	if err != nil {
		t.Fatal(err)
	}
	if !mod.Equal(mustParse(t, "-2.5m")) {
		t.Errorf("mod = %s, want -2.5m", mod)
	}
	rep, err := a.Repeat(nil, b)
	if err != nil {
		t.Fatal(err)
	}
	if !rep.Equal(mustParse(t, "7.5m")) {
		t.Errorf("rep = %s, want 7.5m", rep)
	}
}

func TestDivideByZero(t *testing.T) {
	for _, k := range []Kind{SByte, Int, ULong, BigInt, Decimal} {
		a, _ := FromInt32(1).To(k)
		z, _ := FromInt32(0).To(k)
		if _, err := a.Divide(nil, z); !errors.Is(err, ErrDivideByZero) {
			t.Errorf("%s: Divide err = %v, want ErrDivideByZero", k, err)
		}
		if _, err := a.Modulus(nil, z); !errors.Is(err, ErrDivideByZero) {
			t.Errorf("%s: Modulus err = %v, want ErrDivideByZero", k, err)
		}
	}
	st := &testStatus{}
	got, err := FromFloat64(1).Divide(st, FromFloat64(0))
	if err != nil {
		t.Fatalf("float division: %v", err)
	}
	if !math.IsInf(got.Float64(), 1) || st.overflow {
		t.Errorf("1/0 = %s overflow=%v, want +Inf", got, st.overflow)
	}
}

func TestDivideMinByMinusOne(t *testing.T) {
	st := &testStatus{}
	got, err := MinValue(Int).Divide(st, FromInt32(-1))
	if err != nil {
		t.Fatal(err)
	}
	if !got.Equal(MaxValue(Int)) || !st.overflow {
		t.Errorf("min/-1 = %s overflow=%v", got, st.overflow)
	}
}

func TestPow(t *testing.T) {
	st := &testStatus{}
	got, err := FromInt32(2).Pow(st, FromInt32(10))
	if err != nil || !got.Equal(FromInt32(1024)) || st.overflow {
		t.Errorf("2^10 = %s, %v overflow=%v", got, err, st.overflow)
	}
	got, _ = FromInt32(2).Pow(st, FromInt32(40))
	if !got.Equal(MaxValue(Int)) || !st.overflow {
		t.Errorf("2^40 i32 = %s overflow=%v, want saturated", got, st.overflow)
	}
	got, _ = FromInt64(-2).Pow(st, FromInt64(63))
	if !got.Equal(MinValue(Long)) || st.overflow {
		t.Errorf("(-2)^63 = %s overflow=%v, want exact minimum", got, st.overflow)
	}
	got, err = FromBig(big.NewInt(2)).Pow(nil, FromInt32(100))
	want, _ := new(big.Int).SetString("1267650600228229401496703205376", 10)
	if err != nil || got.Big().Cmp(want) != 0 {
		t.Errorf("2n^100 = %s, %v", got, err)
	}
}

// ---------------------------------------------------------------------------
// Decimal
// ---------------------------------------------------------------------------

func TestDecimalExact(t *testing.T) {
	sum, err := mustParse(t, "0.1m").Add(nil, mustParse(t, "0.2m"))
	if err != nil {
		t.Fatal(err)
	}
	if !sum.Equal(mustParse(t, "0.3m")) {
		t.Errorf("0.1m + 0.2m = %s, want 0.3m", sum)
	}
}

func TestDecimalSaturates(t *testing.T) {
	st := &testStatus{}
	got, err := MaxDecimal().Add(st, mustParse(t, "1m"))
	if err != nil {
		t.Fatal(err)
	}
	if !got.Equal(MaxDecimal()) || !st.overflow {
		t.Errorf("max + 1 = %s overflow=%v", got, st.overflow)
	}
}

func TestDecimalScaleIsBounded(t *testing.T) {
	third, err := mustParse(t, "1m").Divide(nil, mustParse(t, "3m"))
	if err != nil {
		t.Fatal(err)
	}
	if want := "0.3333333333333333333333333333m"; third.String() != want {
		t.Errorf("1m/3m = %s, want %s", third, want)
	}
}

// ---------------------------------------------------------------------------
// Complex
// ---------------------------------------------------------------------------

func TestComplexUnsupported(t *testing.T) {
	z := FromComplex(1 + 2i)
	if _, err := z.Increment(nil); !errors.Is(err, ErrUnsupported) {
		t.Errorf("Increment err = %v", err)
	}
	if _, err := z.Modulus(nil, z); !errors.Is(err, ErrUnsupported) {
		t.Errorf("Modulus err = %v", err)
	}
	if _, err := z.Apply(FnSinh); !errors.Is(err, ErrUnsupported) {
		t.Errorf("Sinh err = %v", err)
	}
	if _, err := z.Compare(z); !errors.Is(err, ErrUnsupported) {
		t.Errorf("Compare err = %v", err)
	}
	var ue *UnsupportedError
	_, err := z.Apply(FnFloor)
	if !errors.As(err, &ue) || ue.Kind != Complex || ue.Op != "Floor" {
		t.Errorf("Floor err = %#v", err)
	}
}

func TestComplexArithmetic(t *testing.T) {
	got, err := FromComplex(1+2i).Multiply(nil, FromInt32(2))
	if err != nil {
		t.Fatal(err)
	}
	if got.Kind() != Complex || got.Complex128() != 2+4i {
		t.Errorf("(1+2i)*2 = %s", got)
	}
	abs, _ := FromComplex(3 + 4i).Abs(nil)
	if abs.Kind() != Double || abs.Float64() != 5 {
		t.Errorf("|3+4i| = %s, want 5f64", abs)
	}
	eq, err := FromComplex(2).Equals(FromInt32(2))
	if err != nil || !eq {
		t.Errorf("(2+0i) == 2: %v, %v", eq, err)
	}
}

// ---------------------------------------------------------------------------
// Comparison
// ---------------------------------------------------------------------------

func TestCompare(t *testing.T) {
	tests := []struct {
		a, b Value
		want int
	}{
		{FromInt32(1), FromInt32(2), -1},
		{FromFloat64(2.5), FromInt32(2), 1},
		{FromUint8(7), FromInt64(7), 0},
		{mustParse(t, "1.50m"), mustParse(t, "1.5m"), 0},
		{FromBig(big.NewInt(-1)), FromUint64(0), -1},
	}
	for _, tt := range tests {
		got, err := tt.a.Compare(tt.b)
		if err != nil {
			t.Fatalf("Compare(%s, %s): %v", tt.a, tt.b, err)
		}
		if got != tt.want {
			t.Errorf("Compare(%s, %s) = %d, want %d", tt.a, tt.b, got, tt.want)
		}
	}
	nan := FromFloat64(math.NaN())
	if eq, _ := nan.Equals(nan); eq {
		t.Error("NaN == NaN")
	}
}
