package numeric

import (
	"math"
	"math/cmplx"
)

// Func names a unary function of the float kinds.
type Func uint8

const (
	FnSin Func = iota
	FnCos
	FnTan
	FnAsin
	FnAcos
	FnAtan
	FnSinh
	FnCosh
	FnTanh
	FnExp
	FnLn
	FnLog2
	FnLog10
	FnInverse
	FnFloor
	FnCeiling
)

var funcNames = [...]string{
	"Sin", "Cos", "Tan", "Asin", "Acos", "Atan", "Sinh", "Cosh", "Tanh",
	"Exp", "Ln", "Log2", "Log10", "Inverse", "Floor", "Ceiling",
}

func (fn Func) String() string {
	if int(fn) < len(funcNames) {
		return funcNames[fn]
	}
	return "Func?"
}

// Apply evaluates fn on a float, decimal or complex value. Integer kinds are
// rejected; callers that want integer input convert to Double first.
func (v Value) Apply(fn Func) (Value, error) {
	switch v.kind.Class() {
	case ClassFloat:
		return Value{kind: v.kind, f: roundFloat(v.kind, floatFunc(fn, v.f))}, nil
	case ClassDecimal:
		return decimalMath(fn, v.d)
	case ClassComplex:
		return complexFunc(fn, v.c)
	}
	return Value{}, unsupported(fn.String(), v.kind)
}

// Root returns the n-th root of v.
func (v Value) Root(n Value) (Value, error) {
	switch v.kind.Class() {
	case ClassFloat:
		deg, _ := n.toFloat64()
		var r float64
		if deg == 2 {
			r = math.Sqrt(v.f)
		} else if deg == 3 {
			r = math.Cbrt(v.f)
		} else {
			r = math.Pow(v.f, 1/deg)
		}
		return Value{kind: v.kind, f: roundFloat(v.kind, r)}, nil
	case ClassDecimal:
		deg, _ := n.toDecimal()
		return decimalRoot(v.d, deg)
	case ClassComplex:
		deg, _ := n.toComplex()
		if deg == 2 {
			return Value{kind: Complex, c: cmplx.Sqrt(v.c)}, nil
		}
		return Value{kind: Complex, c: cmplx.Pow(v.c, 1/deg)}, nil
	}
	return Value{}, unsupported("Root", v.kind)
}

// IsNaN reports whether v is a float NaN or a complex value with a NaN part.
func (v Value) IsNaN() bool {
	switch v.kind.Class() {
	case ClassFloat:
		return math.IsNaN(v.f)
	case ClassComplex:
		return cmplx.IsNaN(v.c)
	}
	return false
}

// IsInfinity reports whether v is an infinite float or complex value.
func (v Value) IsInfinity() bool {
	switch v.kind.Class() {
	case ClassFloat:
		return math.IsInf(v.f, 0)
	case ClassComplex:
		return cmplx.IsInf(v.c)
	}
	return false
}
