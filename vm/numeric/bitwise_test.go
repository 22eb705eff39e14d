package numeric

import (
	"errors"
	"math/big"
	"testing"

	"github.com/x448/float16"
)

func TestShift(t *testing.T) {
	tests := []struct {
		name  string
		left  bool
		in    Value
		n     uint
		want  Value
		carry bool
	}{
		{"left top bit out", true, FromUint8(0x81), 1, FromUint8(0x02), true},
		{"left by width", true, FromUint8(0x01), 8, FromUint8(0), true},
		{"left past width", true, FromUint8(0xFF), 9, FromUint8(0), false},
		{"right arithmetic", false, FromInt8(-4), 1, FromInt8(-2), false},
		{"right arithmetic carry", false, FromInt8(-3), 1, FromInt8(-2), true},
		{"right logical", false, FromUint16(0x8001), 1, FromUint16(0x4000), true},
		{"left signed wraps", true, FromInt8(0x40), 1, FromInt8(-128), false},
	}
	for _, tt := range tests {
		st := &testStatus{}
		var got Value
		var err error
		if tt.left {
			got, err = tt.in.ShiftLeft(st, tt.n)
		} else {
			got, err = tt.in.ShiftRight(st, tt.n)
		}
		if err != nil {
			t.Fatalf("%s: %v", tt.name, err)
		}
		if !got.Equal(tt.want) || st.carry != tt.carry {
			t.Errorf("%s: got %s carry=%v, want %s carry=%v", tt.name, got, st.carry, tt.want, tt.carry)
		}
	}
}

func TestShiftBigInt(t *testing.T) {
	got, err := FromBig(big.NewInt(3)).ShiftLeft(nil, 70)
	if err != nil {
		t.Fatal(err)
	}
	want := new(big.Int).Lsh(big.NewInt(3), 70)
	if got.Big().Cmp(want) != 0 {
		t.Errorf("3n << 70 = %s", got)
	}
	if _, err := FromFloat64(1).ShiftLeft(nil, 1); !errors.Is(err, ErrUnsupported) {
		t.Errorf("float shift err = %v", err)
	}
}

func TestRotateThroughCarry(t *testing.T) {
	st := &testStatus{}

	got, _ := FromUint8(0x80).RotateLeft(st, 1)
	if got.Uint64() != 0 || !st.carry {
		t.Fatalf("rol 0x80 = %s carry=%v, want 0 carry", got, st.carry)
	}
	got, _ = got.RotateLeft(st, 1)
	if got.Uint64() != 0x01 || st.carry {
		t.Fatalf("second rol = %s carry=%v, want 1 no carry", got, st.carry)
	}

	got, _ = FromUint8(0x01).RotateRight(st, 1)
	if got.Uint64() != 0 || !st.carry {
		t.Fatalf("ror 0x01 = %s carry=%v, want 0 carry", got, st.carry)
	}
	got, _ = got.RotateRight(st, 1)
	if got.Uint64() != 0x80 || st.carry {
		t.Fatalf("second ror = %s carry=%v, want 0x80 no carry", got, st.carry)
	}

	// Nine steps through an 8-bit value and the carry restore both.
	st.carry = true
	got, _ = FromUint8(0x5A).RotateLeft(st, 9)
	if got.Uint64() != 0x5A || !st.carry {
		t.Errorf("rol 9 = %s carry=%v, want unchanged", got, st.carry)
	}

	st.carry = false
	got, _ = FromInt8(-128).RotateLeft(st, 1)
	if got.Int64() != 0 || !st.carry {
		t.Errorf("rol -128i8 = %s carry=%v", got, st.carry)
	}

	if _, err := FromBig(big.NewInt(1)).RotateLeft(st, 1); !errors.Is(err, ErrUnsupported) {
		t.Errorf("BigInt rotate err = %v", err)
	}
}

func TestBitAccess(t *testing.T) {
	set, err := FromInt8(-128).GetBit(7)
	if err != nil || !set {
		t.Errorf("bit 7 of -128i8 = %v, %v", set, err)
	}
	if _, err := FromInt8(1).GetBit(8); !errors.Is(err, ErrInvalidValue) {
		t.Errorf("bit 8 of i8 err = %v", err)
	}

	tests := []struct {
		in   Value
		want string
	}{
		{FromInt8(-1), "11111111"},
		{FromUint16(5), "0000000000000101"},
		{FromBig(big.NewInt(-5)), "-101"},
	}
	for _, tt := range tests {
		got, err := tt.in.ToBinaryString()
		if err != nil {
			t.Fatalf("%s: %v", tt.in, err)
		}
		if got != tt.want {
			t.Errorf("ToBinaryString(%s) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestNotAndLogic(t *testing.T) {
	got, _ := FromUint8(0x0F).Not()
	if got.Uint64() != 0xF0 {
		t.Errorf("not 0x0Fu8 = %s", got)
	}
	got, _ = FromInt32(0).Not()
	if got.Int64() != -1 {
		t.Errorf("not 0 = %s", got)
	}
	got, _ = FromUint8(0x0C).Xor(nil, FromUint8(0x0A))
	if got.Uint64() != 0x06 {
		t.Errorf("0x0C xor 0x0A = %s", got)
	}
	if _, err := FromFloat64(1).And(nil, FromFloat64(1)); !errors.Is(err, ErrUnsupported) {
		t.Errorf("float and err = %v", err)
	}
}

func TestRawBits(t *testing.T) {
	tests := []struct {
		in   Value
		want Value
	}{
		{FromFloat64(1), FromUint64(0x3FF0000000000000)},
		{FromFloat32(1), FromUint32(0x3F800000)},
		{FromHalf(float16.Fromfloat32(1)), FromUint16(0x3C00)},
	}
	for _, tt := range tests {
		got, err := tt.in.RawBits()
		if err != nil {
			t.Fatalf("%s: %v", tt.in, err)
		}
		if !got.Equal(tt.want) {
			t.Errorf("RawBits(%s) = %s, want %s", tt.in, got, tt.want)
		}
		back, _ := FromRawBits(tt.in.Kind(), got.Uint64())
		if !back.Equal(tt.in) {
			t.Errorf("FromRawBits(%s) = %s", got, back)
		}
	}
}
