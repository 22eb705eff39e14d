package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/chazu/chips/bytecode"
	"github.com/chazu/chips/manifest"
	"github.com/chazu/chips/vm"
	"github.com/chazu/chips/vm/numeric"
)

func TestOperandText(t *testing.T) {
	cat := vm.DefaultCatalog()
	tests := map[string]string{
		"nop":      "0",
		"add":      "1",
		"halt":     "0-1",
		"new.list": "*",
		"conv":     "-",
	}
	for name, want := range tests {
		op, ok := cat.Lookup(name)
		if !ok {
			t.Fatalf("missing %s", name)
		}
		if got := operandText(op); got != want {
			t.Errorf("operandText(%s) = %q, want %q", name, got, want)
		}
	}
	op, _ := cat.Lookup("conv.double")
	if got := selectorText(op); got != "80 0E" {
		t.Errorf("selectorText = %q", got)
	}
}

func TestLoadFileAndRun(t *testing.T) {
	b := bytecode.NewBuilder(vm.DefaultCatalog())
	b.Emit("lds", "hey").Emit("println").Emit("halt", numeric.FromInt32(3))
	data, err := b.Encode(false)
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(t.TempDir(), "hey.chb")
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}

	p, err := loadFile(path, vm.DefaultCatalog())
	if err != nil {
		t.Fatalf("loadFile: %v", err)
	}
	if p.Name != "hey.chb" || len(p.Code) != 3 {
		t.Errorf("program %s with %d instructions", p.Name, len(p.Code))
	}

	var out bytes.Buffer
	opts := runOptions{maxSteps: 10}
	m := &manifest.Manifest{VM: manifest.VMConfig{Output: "stdout", MaxSteps: 1000}}
	c := opts.configure(m, &out)
	if c.MaxSteps != 10 {
		t.Errorf("MaxSteps = %d, want the flag to win", c.MaxSteps)
	}
	if code := report(p.Name, c.Run(t.Context(), p.Code)); code != 3 {
		t.Errorf("exit code = %d, want 3", code)
	}
	if out.String() != "hey\n" {
		t.Errorf("output = %q", out.String())
	}
}

func TestLoadFileRejectsGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.chb")
	if err := os.WriteFile(path, []byte("garbage!"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := loadFile(path, vm.DefaultCatalog()); !errors.Is(err, bytecode.ErrBadMagic) {
		t.Errorf("err = %v, want ErrBadMagic", err)
	}
}
