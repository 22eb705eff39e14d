package vm

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/chazu/chips/vm/numeric"
)

// ins resolves a mnemonic against the default catalog.
func ins(t *testing.T, name string, args ...Operand) Instruction {
	t.Helper()
	op, ok := DefaultCatalog().Lookup(name)
	if !ok {
		t.Fatalf("no opcode %q", name)
	}
	return Instruction{Op: op, Args: args}
}

func num(t *testing.T, lit string) Operand {
	t.Helper()
	v, err := numeric.Parse(lit)
	if err != nil {
		t.Fatalf("Parse(%q): %v", lit, err)
	}
	return Const(v)
}

// testContext returns a Context with captured output, a fixed clock and a
// seeded random source.
func testContext() (*Context, *bytes.Buffer) {
	var out bytes.Buffer
	c := NewContext()
	c.Out = &out
	c.Now = func() time.Time { return time.Date(2024, 2, 29, 12, 30, 0, 0, time.UTC) }
	c.Rand = NewRandom(42)
	c.Sleep = func(ctx context.Context, d time.Duration) error { return ctx.Err() }
	return c, &out
}

func run(t *testing.T, c *Context, code ...Instruction) {
	t.Helper()
	if err := c.Run(context.Background(), code); err != nil {
		t.Fatalf("Run: %v", err)
	}
}

func accNumber(t *testing.T, c *Context) numeric.Value {
	t.Helper()
	n, ok := c.Regs.A.(numeric.Value)
	if !ok {
		t.Fatalf("A = %s, want a number", Inspect(c.Regs.A))
	}
	return n
}

func wantAcc(t *testing.T, c *Context, lit string) {
	t.Helper()
	want, err := numeric.Parse(lit)
	if err != nil {
		t.Fatalf("Parse(%q): %v", lit, err)
	}
	got := accNumber(t, c)
	if !got.Equal(want) {
		t.Errorf("A = %s, want %s", got, want)
	}
}
