package main

import (
	"bytes"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"

	"github.com/dustin/go-humanize"
	"golang.org/x/sync/errgroup"

	"github.com/chazu/chips/bytecode"
	"github.com/chazu/chips/manifest"
	"github.com/chazu/chips/vm"
)

// runOptions overrides the manifest [vm] section.
type runOptions struct {
	trace    bool
	maxSteps int
	maxStack int
	profile  bool
}

func (o *runOptions) register(fs *flag.FlagSet) {
	fs.BoolVar(&o.trace, "trace", false, "Log every instruction at debug level")
	fs.IntVar(&o.maxSteps, "max-steps", 0, "Stop after this many instructions (0 = manifest or unbounded)")
	fs.IntVar(&o.maxStack, "max-stack", 0, "Value stack limit (0 = manifest or default)")
	fs.BoolVar(&o.profile, "profile", false, "Print the most executed opcodes after the run")
}

// configure builds a Context for one program.
func (o *runOptions) configure(m *manifest.Manifest, out io.Writer) *vm.Context {
	c := vm.NewContext()
	c.Out = out
	if m != nil {
		m.Configure(c, out, os.Stderr)
	}
	if o.trace {
		c.Trace = true
	}
	if o.maxSteps > 0 {
		c.MaxSteps = o.maxSteps
	}
	if o.maxStack > 0 {
		c.MaxStack = o.maxStack
	}
	if o.profile {
		c.Profile = vm.NewProfiler()
	}
	return c
}

// printProfile writes the opcode profile of a finished run to stderr.
func printProfile(name string, c *vm.Context) {
	if c.Profile == nil {
		return
	}
	stats := c.Profile.Stats()
	fmt.Fprintf(os.Stderr, "%s: %s instructions, %d opcodes, %d hot sites\n",
		name, humanize.Comma(int64(stats.Instructions)), stats.Opcodes, stats.HotSites)
	for _, op := range c.Profile.TopOpcodes(10) {
		fmt.Fprintf(os.Stderr, "  %-16s %s\n", op.Op.Name, humanize.Comma(int64(op.Count)))
	}
}

// handleRunCommand processes `chips run`. Several files run concurrently,
// each in its own Context; their output is printed in argument order. The
// exit status is that of the first program that did not finish cleanly.
func handleRunCommand(args []string, cat *vm.Catalog, m *manifest.Manifest) int {
	fs := flag.NewFlagSet("run", flag.ExitOnError)
	var opts runOptions
	opts.register(fs)
	fs.Parse(args)

	files := fs.Args()
	if len(files) == 0 {
		if m == nil {
			fmt.Fprintln(os.Stderr, "Error: no stream given and no chips.toml found")
			return 2
		}
		files = []string{m.EntryPath()}
	}

	programs := make([]*vm.Program, len(files))
	for i, f := range files {
		p, err := loadFile(f, cat)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return 1
		}
		programs[i] = p
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if len(programs) == 1 {
		c := opts.configure(m, os.Stdout)
		err := c.Run(ctx, programs[0].Code)
		printProfile(programs[0].Name, c)
		return report(programs[0].Name, err)
	}

	outputs := make([]bytes.Buffer, len(programs))
	errs := make([]error, len(programs))
	contexts := make([]*vm.Context, len(programs))
	var g errgroup.Group
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, p := range programs {
		g.Go(func() error {
			contexts[i] = opts.configure(m, &outputs[i])
			errs[i] = contexts[i].Run(ctx, p.Code)
			return nil
		})
	}
	g.Wait()

	code := 0
	for i, p := range programs {
		os.Stdout.Write(outputs[i].Bytes())
		printProfile(p.Name, contexts[i])
		if rc := report(p.Name, errs[i]); rc != 0 && code == 0 {
			code = rc
		}
	}
	return code
}

// report prints a failed run and returns its exit status.
func report(name string, err error) int {
	code := vm.ExitCode(err)
	if code != 0 {
		var halt *vm.HaltError
		if !errors.As(err, &halt) {
			fmt.Fprintf(os.Stderr, "Error: %s: %v\n", name, err)
		}
	}
	return code
}

// loadFile reads and decodes a stream file.
func loadFile(path string, cat *vm.Catalog) (*vm.Program, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	s, err := bytecode.Load(data, cat)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	p := s.Program(filepath.Base(path))
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return p, nil
}
