package vm

import (
	"fmt"
	"math/rand/v2"
	"regexp"
	"strings"
	"time"

	"github.com/chazu/chips/vm/numeric"
)

// Value is anything a register, stack slot or variable can hold:
//
//   - numeric.Value
//   - string, Char, bool
//   - *Array, *List, *Set, Range, Indexer
//   - *regexp.Regexp, *Random
//   - time.Time (dates) and time.Duration
//
// A nil Value is an unassigned slot.
type Value any

// Char is a single Unicode code point, distinct from the integer kinds.
type Char rune

// ---------------------------------------------------------------------------
// Built-in reference kinds
// ---------------------------------------------------------------------------

// Array is a fixed-length sequence.
type Array struct {
	Items []Value
}

// NewArray returns an array of n elements, each 0i32.
func NewArray(n int) *Array {
	a := &Array{Items: make([]Value, n)}
	for i := range a.Items {
		a.Items[i] = numeric.Zero
	}
	return a
}

// List is a growable sequence.
type List struct {
	Items []Value
}

// Set keeps distinct values in insertion order.
type Set struct {
	index map[string]int
	Items []Value
}

func NewSet() *Set { return &Set{index: make(map[string]int)} }

// Add inserts v and reports whether it was new.
func (s *Set) Add(v Value) bool {
	k := setKey(v)
	if _, ok := s.index[k]; ok {
		return false
	}
	s.index[k] = len(s.Items)
	s.Items = append(s.Items, v)
	return true
}

func (s *Set) Has(v Value) bool {
	_, ok := s.index[setKey(v)]
	return ok
}

// Remove deletes v and reports whether it was present.
func (s *Set) Remove(v Value) bool {
	k := setKey(v)
	i, ok := s.index[k]
	if !ok {
		return false
	}
	s.Items = append(s.Items[:i], s.Items[i+1:]...)
	delete(s.index, k)
	for j := i; j < len(s.Items); j++ {
		s.index[setKey(s.Items[j])] = j
	}
	return true
}

func (s *Set) Clear() {
	s.Items = nil
	clear(s.index)
}

func setKey(v Value) string {
	return TypeName(v) + ":" + Inspect(v)
}

// Range is the half-open integer interval [Start, End) walked by Step.
type Range struct {
	Start, End, Step int64
}

// Len returns the number of elements the range yields.
func (r Range) Len() int {
	switch {
	case r.Step > 0 && r.End > r.Start:
		return int((r.End - r.Start + r.Step - 1) / r.Step)
	case r.Step < 0 && r.End < r.Start:
		return int((r.Start - r.End - r.Step - 1) / -r.Step)
	}
	return 0
}

// At returns the i-th element of the range.
func (r Range) At(i int) int64 { return r.Start + int64(i)*r.Step }

// Indexer addresses a sequence position, counted from the end when FromEnd
// is set (^1 is the last element).
type Indexer struct {
	Index   int64
	FromEnd bool
}

// Resolve maps the indexer onto a sequence of length n.
func (ix Indexer) Resolve(n int) (int, bool) {
	i := ix.Index
	if ix.FromEnd {
		i = int64(n) - i
	}
	if i < 0 || i >= int64(n) {
		return 0, false
	}
	return int(i), true
}

func (ix Indexer) String() string {
	if ix.FromEnd {
		return fmt.Sprintf("^%d", ix.Index)
	}
	return fmt.Sprintf("%d", ix.Index)
}

// Random is a seeded pseudo-random source. Equal seeds give equal streams.
type Random struct {
	Seed uint64
	r    *rand.Rand
}

func NewRandom(seed uint64) *Random {
	return &Random{Seed: seed, r: rand.New(rand.NewPCG(seed, seed^0x9E3779B97F4A7C15))}
}

// ---------------------------------------------------------------------------
// Inspection
// ---------------------------------------------------------------------------

// TypeName names the dynamic kind of v for diagnostics.
func TypeName(v Value) string {
	switch x := v.(type) {
	case nil:
		return "nil"
	case numeric.Value:
		return x.Kind().String()
	case string:
		return "String"
	case Char:
		return "Char"
	case bool:
		return "Bool"
	case *Array:
		return "Array"
	case *List:
		return "List"
	case *Set:
		return "Set"
	case Range:
		return "Range"
	case Indexer:
		return "Indexer"
	case *regexp.Regexp:
		return "Regex"
	case *Random:
		return "Random"
	case time.Time:
		return "Date"
	case time.Duration:
		return "Duration"
	}
	return fmt.Sprintf("%T", v)
}

// Inspect renders v unambiguously: numbers keep their kind suffix and
// strings are quoted.
func Inspect(v Value) string {
	switch x := v.(type) {
	case string:
		return fmt.Sprintf("%q", x)
	case Char:
		return fmt.Sprintf("%q", rune(x))
	case numeric.Value:
		return x.String()
	}
	return Format(v)
}

// Format renders v for program output: numbers without a suffix, strings
// verbatim.
func Format(v Value) string {
	switch x := v.(type) {
	case nil:
		return "nil"
	case numeric.Value:
		return strings.TrimSuffix(x.String(), x.Kind().Suffix())
	case string:
		return x
	case Char:
		return string(rune(x))
	case bool:
		if x {
			return "true"
		}
		return "false"
	case *Array:
		return formatItems("[", x.Items, "]")
	case *List:
		return formatItems("(", x.Items, ")")
	case *Set:
		return formatItems("{", x.Items, "}")
	case Range:
		if x.Step == 1 {
			return fmt.Sprintf("%d..%d", x.Start, x.End)
		}
		return fmt.Sprintf("%d..%d:%d", x.Start, x.End, x.Step)
	case Indexer:
		return x.String()
	case *regexp.Regexp:
		return "/" + x.String() + "/"
	case *Random:
		return fmt.Sprintf("random(%d)", x.Seed)
	case time.Time:
		return x.Format(time.RFC3339Nano)
	case time.Duration:
		return x.String()
	}
	return fmt.Sprint(v)
}

func formatItems(open string, items []Value, end string) string {
	var b strings.Builder
	b.WriteString(open)
	for i, it := range items {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(Inspect(it))
	}
	b.WriteString(end)
	return b.String()
}

// Length returns the element count of a string (in runes) or collection.
func Length(v Value) (int, bool) {
	switch x := v.(type) {
	case string:
		return len([]rune(x)), true
	case *Array:
		return len(x.Items), true
	case *List:
		return len(x.Items), true
	case *Set:
		return len(x.Items), true
	case Range:
		return x.Len(), true
	}
	return 0, false
}

// Equal compares two values. Numbers compare by value across kinds;
// reference kinds compare by identity.
func Equal(a, b Value) bool {
	if x, ok := a.(numeric.Value); ok {
		y, ok := b.(numeric.Value)
		if !ok {
			return false
		}
		eq, err := x.Equals(y)
		return err == nil && eq
	}
	switch x := a.(type) {
	case time.Time:
		y, ok := b.(time.Time)
		return ok && x.Equal(y)
	}
	return a == b
}

// isZeroOrEmpty drives the zero flag for non-numeric writes.
func isZeroOrEmpty(v Value) bool {
	switch x := v.(type) {
	case nil:
		return true
	case numeric.Value:
		return x.IsZero()
	case bool:
		return !x
	case Char:
		return x == 0
	case time.Duration:
		return x == 0
	case time.Time:
		return x.IsZero()
	}
	if n, ok := Length(v); ok {
		return n == 0
	}
	return false
}

func isNegative(v Value) bool {
	switch x := v.(type) {
	case numeric.Value:
		return x.IsNegative()
	case time.Duration:
		return x < 0
	}
	return false
}
