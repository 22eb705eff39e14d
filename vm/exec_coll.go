package vm

import (
	"slices"
	"time"

	"github.com/chazu/chips/vm/numeric"
)

// itemsOf returns the elements of a collection. Ranges and strings are
// materialized; the result must not be modified.
func itemsOf(v Value) ([]Value, bool) {
	switch x := v.(type) {
	case *Array:
		return x.Items, true
	case *List:
		return x.Items, true
	case *Set:
		return x.Items, true
	case Range:
		items := make([]Value, x.Len())
		for i := range items {
			items[i] = numeric.FromInt64(x.At(i))
		}
		return items, true
	case string:
		runes := []rune(x)
		items := make([]Value, len(runes))
		for i, r := range runes {
			items[i] = Char(r)
		}
		return items, true
	}
	return nil, false
}

// mutableItems returns a pointer to the backing slice of an Array or List.
func mutableItems(v Value) (*[]Value, bool) {
	switch x := v.(type) {
	case *Array:
		return &x.Items, true
	case *List:
		return &x.Items, true
	}
	return nil, false
}

// index resolves args[i], an integer or Indexer, against length n.
func (c *Context) index(args []Operand, i, n int) (int, error) {
	v, err := c.Load(args, i)
	if err != nil {
		return 0, err
	}
	var ix Indexer
	switch x := v.(type) {
	case Indexer:
		ix = x
	default:
		k, ok := intValue(v)
		if !ok {
			return 0, operandErr(i, "expected an index, got %s", TypeName(v))
		}
		ix = Indexer{Index: k}
	}
	pos, ok := ix.Resolve(n)
	if !ok {
		return 0, operandErr(i, "index %s out of range for length %d", ix, n)
	}
	return pos, nil
}

func (c *Context) collection(args []Operand, i int) (Value, []Value, error) {
	v, err := c.Load(args, i)
	if err != nil {
		return nil, nil, err
	}
	items, ok := itemsOf(v)
	if !ok {
		return nil, nil, operandErr(i, "expected a collection, got %s", TypeName(v))
	}
	return v, items, nil
}

// ---------------------------------------------------------------------------
// new family
// ---------------------------------------------------------------------------

func newDefs() []def {
	return []def{
		{code: 0x01, name: "array", operands: 1, class: ClassConstructor | ClassModifiesAcc, exec: newArray, doc: "A = array of n zeros"},
		{code: 0x02, name: "list", operands: Variadic, class: ClassConstructor | ClassModifiesAcc, exec: newList, doc: "A = list of the operands"},
		{code: 0x03, name: "set", operands: Variadic, class: ClassConstructor | ClassModifiesAcc, exec: newSet, doc: "A = set of the operands"},
		{code: 0x04, name: "range", operands: 3, optional: true, class: ClassConstructor | ClassModifiesAcc, exec: newRange, doc: "A = start..end by step"},
		{code: 0x05, name: "regex", operands: 1, class: ClassConstructor | ClassModifiesAcc, exec: newRegex, doc: "A = compiled pattern"},
		{code: 0x06, name: "random", operands: 1, optional: true, class: ClassConstructor | ClassModifiesAcc, exec: newRandom, doc: "A = random source"},
		{code: 0x07, name: "index", operands: 2, optional: true, class: ClassConstructor | ClassModifiesAcc, exec: newIndex, doc: "A = index, from the end when flagged"},
		{code: 0x08, name: "date", operands: Variadic, class: ClassConstructor | ClassModifiesAcc, exec: newDate, doc: "A = UTC date from y m d [h min s]"},
		{code: 0x09, name: "char", operands: 1, class: ClassConstructor | ClassModifiesAcc, exec: newChar, doc: "A = Char with code point n"},
	}
}

func newArray(c *Context, args []Operand) error {
	n, err := c.integer(args, 0)
	if err != nil {
		return err
	}
	if n < 0 {
		return operandErr(0, "negative length %d", n)
	}
	c.setAcc(NewArray(int(n)))
	return nil
}

func (c *Context) loadAll(args []Operand) ([]Value, error) {
	vals := make([]Value, len(args))
	for i := range args {
		v, err := c.Load(args, i)
		if err != nil {
			return nil, err
		}
		vals[i] = v
	}
	return vals, nil
}

func newList(c *Context, args []Operand) error {
	vals, err := c.loadAll(args)
	if err != nil {
		return err
	}
	c.setAcc(&List{Items: vals})
	return nil
}

func newSet(c *Context, args []Operand) error {
	vals, err := c.loadAll(args)
	if err != nil {
		return err
	}
	s := NewSet()
	for _, v := range vals {
		s.Add(v)
	}
	c.setAcc(s)
	return nil
}

func newRange(c *Context, args []Operand) error {
	start, err := c.integer(args, 0)
	if err != nil {
		return err
	}
	end, err := c.integer(args, 1)
	if err != nil {
		return err
	}
	step := int64(1)
	if len(args) > 2 {
		if step, err = c.integer(args, 2); err != nil {
			return err
		}
		if step == 0 {
			return operandErr(2, "zero step")
		}
	}
	c.setAcc(Range{Start: start, End: end, Step: step})
	return nil
}

func newRegex(c *Context, args []Operand) error {
	re, err := c.pattern(args, 0)
	if err != nil {
		return err
	}
	c.setAcc(re)
	return nil
}

func newRandom(c *Context, args []Operand) error {
	seed := uint64(c.Now().UnixNano())
	if len(args) > 0 {
		n, err := c.integer(args, 0)
		if err != nil {
			return err
		}
		seed = uint64(n)
	}
	c.setAcc(NewRandom(seed))
	return nil
}

func newIndex(c *Context, args []Operand) error {
	n, err := c.integer(args, 0)
	if err != nil {
		return err
	}
	fromEnd := false
	if len(args) > 1 {
		v, err := c.Load(args, 1)
		if err != nil {
			return err
		}
		fromEnd = !isZeroOrEmpty(v)
	}
	c.setAcc(Indexer{Index: n, FromEnd: fromEnd})
	return nil
}

func newDate(c *Context, args []Operand) error {
	if len(args) < 3 || len(args) > 6 {
		return operandErr(len(args), "new.date takes 3 to 6 operands, got %d", len(args))
	}
	var parts [6]int
	for i := range args {
		n, err := c.integer(args, i)
		if err != nil {
			return err
		}
		parts[i] = int(n)
	}
	t := time.Date(parts[0], time.Month(parts[1]), parts[2], parts[3], parts[4], parts[5], 0, time.UTC)
	c.setAcc(t)
	return nil
}

func newChar(c *Context, args []Operand) error {
	n, err := c.integer(args, 0)
	if err != nil {
		return err
	}
	c.setAcc(Char(n))
	return nil
}

// ---------------------------------------------------------------------------
// coll family: the collection is always operand 0
// ---------------------------------------------------------------------------

func collDefs() []def {
	return []def{
		{code: 0x01, name: "get", operands: 2, class: ClassModifiesAcc, exec: collGet, doc: "A = coll[idx]"},
		{code: 0x02, name: "set", operands: 2, class: ClassMemoryWrite, exec: collSet, doc: "coll[idx] = A"},
		{code: 0x03, name: "add", operands: 1, class: ClassMemoryWrite | ClassModifiesFlags, exec: collAdd, doc: "append A, CMP = inserted"},
		{code: 0x04, name: "remove", operands: 1, class: ClassMemoryWrite | ClassModifiesFlags, exec: collRemove, doc: "remove A, CMP = removed"},
		{code: 0x05, name: "has", operands: 1, class: ClassComparison, exec: collHas, doc: "CMP = coll contains A"},
		{code: 0x06, name: "len", operands: 1, class: ClassModifiesAcc, exec: collLen, doc: "A = element count"},
		{code: 0x07, name: "clear", operands: 1, class: ClassMemoryWrite, exec: collClear, doc: "empty a list or set, zero an array"},
		{code: 0x08, name: "first", operands: 1, class: ClassModifiesAcc, exec: collEnd(false), doc: "A = first element"},
		{code: 0x09, name: "last", operands: 1, class: ClassModifiesAcc, exec: collEnd(true), doc: "A = last element"},
		{code: 0x0A, name: "sort", operands: 1, class: ClassMemoryWrite, exec: collSort, doc: "sort an array or list in place"},
		{code: 0x0B, name: "rev", operands: 1, class: ClassMemoryWrite, exec: collReverse, doc: "reverse an array or list in place"},
		{code: 0x0C, name: "find", operands: 1, class: ClassModifiesAcc, exec: collFind, doc: "A = index of A in coll, or -1"},
		{code: 0x0D, name: "slice", operands: 3, class: ClassModifiesAcc | ClassConstructor, exec: collSlice, doc: "A = list of coll[start:end]"},
	}
}

func collGet(c *Context, args []Operand) error {
	v, items, err := c.collection(args, 0)
	if err != nil {
		return err
	}
	i, err := c.index(args, 1, len(items))
	if err != nil {
		return err
	}
	if r, ok := v.(Range); ok {
		c.setAcc(numeric.FromInt64(r.At(i)))
		return nil
	}
	c.setAcc(items[i])
	return nil
}

func collSet(c *Context, args []Operand) error {
	v, err := c.Load(args, 0)
	if err != nil {
		return err
	}
	items, ok := mutableItems(v)
	if !ok {
		return operandErr(0, "cannot assign into %s", TypeName(v))
	}
	i, err := c.index(args, 1, len(*items))
	if err != nil {
		return err
	}
	(*items)[i] = c.Regs.A
	return nil
}

func collAdd(c *Context, args []Operand) error {
	v, err := c.Load(args, 0)
	if err != nil {
		return err
	}
	switch x := v.(type) {
	case *List:
		x.Items = append(x.Items, c.Regs.A)
		c.Regs.F.Set(FlagCompare, true)
	case *Set:
		c.Regs.F.Set(FlagCompare, x.Add(c.Regs.A))
	default:
		return operandErr(0, "cannot add to %s", TypeName(v))
	}
	return nil
}

func collRemove(c *Context, args []Operand) error {
	v, err := c.Load(args, 0)
	if err != nil {
		return err
	}
	switch x := v.(type) {
	case *List:
		i := slices.IndexFunc(x.Items, func(it Value) bool { return Equal(it, c.Regs.A) })
		if i >= 0 {
			x.Items = slices.Delete(x.Items, i, i+1)
		}
		c.Regs.F.Set(FlagCompare, i >= 0)
	case *Set:
		c.Regs.F.Set(FlagCompare, x.Remove(c.Regs.A))
	default:
		return operandErr(0, "cannot remove from %s", TypeName(v))
	}
	return nil
}

func collHas(c *Context, args []Operand) error {
	v, items, err := c.collection(args, 0)
	if err != nil {
		return err
	}
	if s, ok := v.(*Set); ok {
		c.Regs.F.Set(FlagCompare, s.Has(c.Regs.A))
		return nil
	}
	found := slices.ContainsFunc(items, func(it Value) bool { return Equal(it, c.Regs.A) })
	c.Regs.F.Set(FlagCompare, found)
	return nil
}

func collLen(c *Context, args []Operand) error {
	_, items, err := c.collection(args, 0)
	if err != nil {
		return err
	}
	c.setAcc(numeric.FromInt32(int32(len(items))))
	return nil
}

func collClear(c *Context, args []Operand) error {
	v, err := c.Load(args, 0)
	if err != nil {
		return err
	}
	switch x := v.(type) {
	case *Array:
		for i := range x.Items {
			x.Items[i] = numeric.Zero
		}
	case *List:
		x.Items = x.Items[:0]
	case *Set:
		x.Clear()
	default:
		return operandErr(0, "cannot clear %s", TypeName(v))
	}
	return nil
}

func collEnd(last bool) Behavior {
	return func(c *Context, args []Operand) error {
		_, items, err := c.collection(args, 0)
		if err != nil {
			return err
		}
		if len(items) == 0 {
			return operandErr(0, "empty collection")
		}
		if last {
			c.setAcc(items[len(items)-1])
		} else {
			c.setAcc(items[0])
		}
		return nil
	}
}

// collSort fails without touching the collection when two elements have no
// order.
func collSort(c *Context, args []Operand) error {
	v, err := c.Load(args, 0)
	if err != nil {
		return err
	}
	items, ok := mutableItems(v)
	if !ok {
		return operandErr(0, "cannot sort %s", TypeName(v))
	}
	sorted := slices.Clone(*items)
	var cmpErr error
	slices.SortStableFunc(sorted, func(a, b Value) int {
		r, err := compareValues(a, b)
		if err != nil && cmpErr == nil {
			cmpErr = err
		}
		return r
	})
	if cmpErr != nil {
		return wrapOperand(0, "sort", cmpErr)
	}
	copy(*items, sorted)
	return nil
}

func collReverse(c *Context, args []Operand) error {
	v, err := c.Load(args, 0)
	if err != nil {
		return err
	}
	items, ok := mutableItems(v)
	if !ok {
		return operandErr(0, "cannot reverse %s", TypeName(v))
	}
	slices.Reverse(*items)
	return nil
}

func collFind(c *Context, args []Operand) error {
	_, items, err := c.collection(args, 0)
	if err != nil {
		return err
	}
	i := slices.IndexFunc(items, func(it Value) bool { return Equal(it, c.Regs.A) })
	c.setAcc(numeric.FromInt32(int32(i)))
	return nil
}

func collSlice(c *Context, args []Operand) error {
	_, items, err := c.collection(args, 0)
	if err != nil {
		return err
	}
	start, err := c.integer(args, 1)
	if err != nil {
		return err
	}
	end, err := c.integer(args, 2)
	if err != nil {
		return err
	}
	if start < 0 || end < start || end > int64(len(items)) {
		return operandErr(1, "bounds %d:%d outside 0..%d", start, end, len(items))
	}
	c.setAcc(&List{Items: slices.Clone(items[start:end])})
	return nil
}

// ---------------------------------------------------------------------------
// rnd family: draws from Context.Rand
// ---------------------------------------------------------------------------

func rndDefs() []def {
	return []def{
		{code: 0x01, name: "seed", operands: 1, class: ClassMemoryWrite, exec: rndSeed, doc: "reseed the context source"},
		{code: 0x02, name: "int", operands: 2, class: ClassModifiesAcc, exec: rndInt, doc: "A = integer in [lo, hi)"},
		{code: 0x03, name: "float", class: ClassModifiesAcc, exec: rndFloat, doc: "A = Double in [0, 1)"},
		{code: 0x04, name: "bool", class: ClassModifiesAcc, exec: rndBool, doc: "A = true or false"},
		{code: 0x05, name: "pick", operands: 1, class: ClassModifiesAcc, exec: rndPick, doc: "A = random element"},
		{code: 0x06, name: "shuffle", operands: 1, class: ClassMemoryWrite, exec: rndShuffle, doc: "shuffle an array or list in place"},
		{code: 0x07, name: "use", operands: 1, class: ClassMemoryWrite, exec: rndUse, doc: "make a random source the context source"},
	}
}

func rndSeed(c *Context, args []Operand) error {
	n, err := c.integer(args, 0)
	if err != nil {
		return err
	}
	c.Rand = NewRandom(uint64(n))
	return nil
}

// rndInt keeps the promoted kind of its bounds.
func rndInt(c *Context, args []Operand) error {
	lo, err := c.number(args, 0)
	if err != nil {
		return err
	}
	hi, err := c.number(args, 1)
	if err != nil {
		return err
	}
	k := numeric.Promote(lo.Kind(), hi.Kind())
	if !k.IsFixedInteger() {
		return operandErr(0, "bounds must be fixed-width integers, got %s", k)
	}
	l, _ := intValue(lo)
	h, _ := intValue(hi)
	if h <= l {
		return operandErr(1, "empty interval [%d, %d)", l, h)
	}
	r, _ := numeric.FromInt64(l + c.Rand.r.Int64N(h-l)).To(k)
	c.setAcc(r)
	return nil
}

func rndFloat(c *Context, args []Operand) error {
	c.setAcc(numeric.FromFloat64(c.Rand.r.Float64()))
	return nil
}

func rndBool(c *Context, args []Operand) error {
	c.setAcc(c.Rand.r.IntN(2) == 1)
	return nil
}

func rndPick(c *Context, args []Operand) error {
	_, items, err := c.collection(args, 0)
	if err != nil {
		return err
	}
	if len(items) == 0 {
		return operandErr(0, "empty collection")
	}
	c.setAcc(items[c.Rand.r.IntN(len(items))])
	return nil
}

func rndShuffle(c *Context, args []Operand) error {
	v, err := c.Load(args, 0)
	if err != nil {
		return err
	}
	items, ok := mutableItems(v)
	if !ok {
		return operandErr(0, "cannot shuffle %s", TypeName(v))
	}
	s := *items
	c.Rand.r.Shuffle(len(s), func(i, j int) { s[i], s[j] = s[j], s[i] })
	return nil
}

func rndUse(c *Context, args []Operand) error {
	v, err := c.Load(args, 0)
	if err != nil {
		return err
	}
	r, ok := v.(*Random)
	if !ok {
		return operandErr(0, "expected a random source, got %s", TypeName(v))
	}
	c.Rand = r
	return nil
}

// ---------------------------------------------------------------------------
// mode family
// ---------------------------------------------------------------------------

func modeDefs() []def {
	return []def{
		{code: 0x01, name: "prop", class: ClassModifiesFlags, exec: execSetFlag(FlagPropMode, true), doc: "enter property-access addressing"},
		{code: 0x02, name: "direct", class: ClassModifiesFlags, exec: execSetFlag(FlagPropMode, false), doc: "leave property-access addressing"},
		{code: 0x03, name: "trace", exec: modeTrace(true), doc: "log every instruction"},
		{code: 0x04, name: "notrace", exec: modeTrace(false), doc: "stop logging instructions"},
	}
}

func modeTrace(on bool) Behavior {
	return func(c *Context, args []Operand) error {
		c.Trace = on
		return nil
	}
}
