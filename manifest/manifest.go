// Package manifest handles chips.toml project configuration.
package manifest

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"github.com/chazu/chips/vm"
)

// FileName is the manifest looked for by Load and FindAndLoad.
const FileName = "chips.toml"

// Manifest represents a chips.toml project configuration.
type Manifest struct {
	Project Project  `toml:"project"`
	Program Program  `toml:"program"`
	VM      VMConfig `toml:"vm"`
	Store   Store    `toml:"store"`

	// Dir is the directory containing the chips.toml file (set at load time).
	Dir string `toml:"-"`
}

// Project contains project metadata.
type Project struct {
	Name    string `toml:"name"`
	Version string `toml:"version"`
}

// Program names the stream to run and its arguments.
type Program struct {
	Entry string   `toml:"entry"`
	Args  []string `toml:"args"`
}

// VMConfig holds the execution limits applied to every Context.
type VMConfig struct {
	Trace    bool   `toml:"trace"`
	MaxStack int    `toml:"max-stack"`
	MaxSteps int    `toml:"max-steps"`
	MaxSlots int    `toml:"max-slots"`
	Output   string `toml:"output"`
}

// Store configures the program store.
type Store struct {
	Path string `toml:"path"`
}

// Load parses and validates a chips.toml file from the given directory.
func Load(dir string) (*Manifest, error) {
	path := filepath.Join(dir, FileName)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}
	m, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	m.Dir, err = filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("cannot resolve path %s: %w", dir, err)
	}
	return m, nil
}

// Parse decodes manifest text, checks it against the schema and fills in
// defaults. Dir is left empty.
func Parse(data []byte) (*Manifest, error) {
	var raw map[string]any
	if err := toml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse error: %w", err)
	}
	if raw == nil {
		raw = map[string]any{}
	}
	if err := validate(raw); err != nil {
		return nil, err
	}

	var m Manifest
	if err := toml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse error: %w", err)
	}

	// Defaults
	if m.Program.Entry == "" {
		m.Program.Entry = "main.chb"
	}
	if m.VM.Output == "" {
		m.VM.Output = "stdout"
	}
	if m.Store.Path == "" {
		m.Store.Path = filepath.Join(".chips", "store.db")
	}
	return &m, nil
}

// FindAndLoad walks up from startDir to find a chips.toml file,
// then loads and returns the manifest. Returns nil if no manifest is found.
func FindAndLoad(startDir string) (*Manifest, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return nil, err
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, FileName)); err == nil {
			return Load(dir)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return nil, nil
		}
		dir = parent
	}
}

// EntryPath returns the absolute path of the entry stream.
func (m *Manifest) EntryPath() string { return m.resolve(m.Program.Entry) }

// StorePath returns the absolute path of the program store database.
func (m *Manifest) StorePath() string { return m.resolve(m.Store.Path) }

func (m *Manifest) resolve(p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(m.Dir, p)
}

// Configure applies the [vm] section to c. stdout and stderr are the
// writers selected by the output key.
func (m *Manifest) Configure(c *vm.Context, stdout, stderr io.Writer) {
	c.Trace = m.VM.Trace
	if m.VM.MaxStack > 0 {
		c.MaxStack = m.VM.MaxStack
	}
	if m.VM.MaxSlots > 0 {
		c.MaxSlots = m.VM.MaxSlots
	}
	c.MaxSteps = m.VM.MaxSteps
	switch m.VM.Output {
	case "stderr":
		c.Out = stderr
	case "discard":
		c.Out = io.Discard
	default:
		c.Out = stdout
	}
}
