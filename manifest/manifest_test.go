package manifest

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/chazu/chips/vm"
)

func writeManifest(t *testing.T, dir, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, FileName), []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestLoadManifest(t *testing.T) {
	dir := t.TempDir()
	writeManifest(t, dir, `
[project]
name = "countdown"
version = "0.1.0"

[program]
entry = "build/count.chb"
args = ["3", "fast"]

[vm]
trace = true
max-stack = 64
max-steps = 10000
max-slots = 256
output = "stderr"

[store]
path = "/var/lib/chips/store.db"
`)

	m, err := Load(dir)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if m.Project.Name != "countdown" || m.Project.Version != "0.1.0" {
		t.Errorf("project = %+v", m.Project)
	}
	if m.Program.Entry != "build/count.chb" {
		t.Errorf("entry = %q, want build/count.chb", m.Program.Entry)
	}
	if len(m.Program.Args) != 2 || m.Program.Args[1] != "fast" {
		t.Errorf("args = %v", m.Program.Args)
	}
	if !m.VM.Trace || m.VM.MaxStack != 64 || m.VM.MaxSteps != 10000 || m.VM.MaxSlots != 256 || m.VM.Output != "stderr" {
		t.Errorf("vm = %+v", m.VM)
	}

	abs, _ := filepath.Abs(dir)
	if got := m.EntryPath(); got != filepath.Join(abs, "build", "count.chb") {
		t.Errorf("EntryPath = %q", got)
	}
	if got := m.StorePath(); got != "/var/lib/chips/store.db" {
		t.Errorf("StorePath = %q, want the absolute path unchanged", got)
	}
}

func TestLoadManifestDefaults(t *testing.T) {
	dir := t.TempDir()
	writeManifest(t, dir, `
[project]
name = "minimal"
`)
	m, err := Load(dir)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if m.Program.Entry != "main.chb" {
		t.Errorf("default entry = %q, want main.chb", m.Program.Entry)
	}
	if m.VM.Output != "stdout" {
		t.Errorf("default output = %q, want stdout", m.VM.Output)
	}
	if m.Store.Path != filepath.Join(".chips", "store.db") {
		t.Errorf("default store path = %q", m.Store.Path)
	}
}

func TestSchemaRejects(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"unknown section", "[image]\noutput = \"x\"\n"},
		{"unknown key", "[vm]\nspeed = 3\n"},
		{"bad output", "[vm]\noutput = \"printer\"\n"},
		{"negative limit", "[vm]\nmax-steps = -1\n"},
		{"negative slots", "[vm]\nmax-slots = -4\n"},
		{"wrong type", "[vm]\ntrace = \"yes\"\n"},
		{"bad name", "[project]\nname = \"9lives\"\n"},
		{"empty entry", "[program]\nentry = \"\"\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.content))
			if err == nil || !strings.Contains(err.Error(), "invalid manifest") {
				t.Errorf("err = %v, want a schema error", err)
			}
		})
	}
}

func TestParseSyntaxError(t *testing.T) {
	_, err := Parse([]byte("[project\nname = 1"))
	if err == nil || !strings.Contains(err.Error(), "parse error") {
		t.Errorf("err = %v, want a parse error", err)
	}
}

func TestFindAndLoad(t *testing.T) {
	root := t.TempDir()
	writeManifest(t, root, "[project]\nname = \"outer\"\n")
	deep := filepath.Join(root, "a", "b")
	if err := os.MkdirAll(deep, 0755); err != nil {
		t.Fatal(err)
	}

	m, err := FindAndLoad(deep)
	if err != nil {
		t.Fatalf("FindAndLoad failed: %v", err)
	}
	if m == nil || m.Project.Name != "outer" {
		t.Fatalf("manifest = %+v, want outer", m)
	}
	abs, _ := filepath.Abs(root)
	if m.Dir != abs {
		t.Errorf("Dir = %q, want %q", m.Dir, abs)
	}
}

func TestFindAndLoadNone(t *testing.T) {
	m, err := FindAndLoad(t.TempDir())
	if err != nil {
		t.Fatalf("FindAndLoad failed: %v", err)
	}
	// A chips.toml above the temp dir would be found; only assert on a miss.
	if m != nil && m.Dir == "" {
		t.Errorf("found manifest without Dir: %+v", m)
	}
}

func TestConfigure(t *testing.T) {
	var stdout, stderr bytes.Buffer
	tests := []struct {
		output string
		want   io.Writer
	}{
		{"stdout", &stdout},
		{"stderr", &stderr},
		{"discard", io.Discard},
	}
	for _, tt := range tests {
		t.Run(tt.output, func(t *testing.T) {
			m := &Manifest{VM: VMConfig{Trace: true, MaxStack: 8, MaxSteps: 99, MaxSlots: 16, Output: tt.output}}
			c := vm.NewContext()
			m.Configure(c, &stdout, &stderr)
			if c.Out != tt.want {
				t.Errorf("Out = %T, want %T", c.Out, tt.want)
			}
			if !c.Trace || c.MaxStack != 8 || c.MaxSteps != 99 || c.MaxSlots != 16 {
				t.Errorf("trace=%v stack=%d steps=%d slots=%d", c.Trace, c.MaxStack, c.MaxSteps, c.MaxSlots)
			}
		})
	}
}
