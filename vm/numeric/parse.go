package numeric

import (
	"fmt"
	"math/big"
	"strconv"
	"strings"

	"github.com/cockroachdb/apd/v3"
)

// suffixes is ordered so longer suffixes are tried before their prefixes.
var suffixes = []Kind{Short, Int, Long, NInt, SByte, UShort, UInt, ULong, NUInt, Byte, Half, Float, Double, BigInt, Decimal}

// Parse reads a numeric literal as produced by Value.String. Literals
// without a suffix are Int when they fit, Long otherwise, and Double when
// they contain a fraction or exponent. Complex literals use Go syntax,
// with or without parentheses.
func Parse(s string) (Value, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Value{}, fmt.Errorf("%w: empty", ErrSyntax)
	}
	for _, k := range suffixes {
		suf := k.Suffix()
		if !strings.HasSuffix(s, suf) || len(s) == len(suf) {
			continue
		}
		if v, err := parseKind(k, s[:len(s)-len(suf)]); err == nil {
			return v, nil
		}
	}
	return parseBare(s)
}

// ParseKind reads body as a literal of kind k, without a suffix.
func ParseKind(k Kind, body string) (Value, error) {
	v, err := parseKind(k, body)
	if err != nil {
		return Value{}, fmt.Errorf("%w: %q as %s", ErrSyntax, body, k)
	}
	return v, nil
}

func parseKind(k Kind, body string) (Value, error) {
	switch k.Class() {
	case ClassSigned:
		i, err := strconv.ParseInt(body, 0, int(k.Bits()))
		if err != nil {
			return Value{}, err
		}
		return Value{kind: k, i: i}, nil
	case ClassUnsigned:
		u, err := strconv.ParseUint(body, 0, int(k.Bits()))
		if err != nil {
			return Value{}, err
		}
		return Value{kind: k, u: u}, nil
	case ClassBig:
		b, ok := new(big.Int).SetString(body, 0)
		if !ok {
			return Value{}, ErrSyntax
		}
		return Value{kind: k, b: b}, nil
	case ClassFloat:
		bitSize := 64
		if k != Double {
			bitSize = 32
		}
		f, err := strconv.ParseFloat(body, bitSize)
		if err != nil && !isRangeErr(err) {
			return Value{}, err
		}
		return Value{kind: k, f: roundFloat(k, f)}, nil
	case ClassDecimal:
		d, _, err := apd.NewFromString(body)
		if err != nil {
			return Value{}, err
		}
		if d.Form != apd.Finite {
			return Value{}, ErrSyntax
		}
		v, _ := FromDecimal(d)
		return v, nil
	case ClassComplex:
		c, err := strconv.ParseComplex(body, 128)
		if err != nil {
			return Value{}, err
		}
		return Value{kind: k, c: c}, nil
	}
	return Value{}, ErrSyntax
}

func parseBare(s string) (Value, error) {
	if i, err := strconv.ParseInt(s, 0, 32); err == nil {
		return FromInt32(int32(i)), nil
	}
	if i, err := strconv.ParseInt(s, 0, 64); err == nil {
		return FromInt64(i), nil
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil || isRangeErr(err) {
		return FromFloat64(f), nil
	}
	if strings.HasSuffix(s, "i") || strings.HasPrefix(s, "(") {
		if c, err := strconv.ParseComplex(s, 128); err == nil {
			return FromComplex(c), nil
		}
	}
	return Value{}, fmt.Errorf("%w: %q", ErrSyntax, s)
}

func isRangeErr(err error) bool {
	ne, ok := err.(*strconv.NumError)
	return ok && ne.Err == strconv.ErrRange
}
