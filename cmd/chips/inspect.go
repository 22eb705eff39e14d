package main

import (
	"flag"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/dustin/go-humanize"

	"github.com/chazu/chips/bytecode"
	"github.com/chazu/chips/vm"
)

func readStream(path string, cat *vm.Catalog) (*bytecode.Stream, int) {
	data, err := os.ReadFile(path)
	if err != nil {
		fatal(err)
	}
	s, err := bytecode.Load(data, cat)
	if err != nil {
		fatal(fmt.Errorf("%s: %w", path, err))
	}
	return s, len(data)
}

// handleDisCommand processes `chips dis file.chb`.
func handleDisCommand(args []string, cat *vm.Catalog) {
	fs := flag.NewFlagSet("dis", flag.ExitOnError)
	header := fs.Bool("header", false, "Print stream version, flags and sizes first")
	fs.Parse(args)
	if fs.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "Usage: chips dis [-header] file.chb")
		os.Exit(2)
	}

	s, size := readStream(fs.Arg(0), cat)
	if *header {
		fmt.Printf("; version %d, debug %v, %d instructions\n", s.Version, s.Debug(), len(s.Code))
		fmt.Printf("; %s total, %s string heap\n", humanize.Bytes(uint64(size)), humanize.Bytes(uint64(s.Heap.Len())))
	}
	fmt.Println(bytecode.DisassembleCode(s.Code))
}

// handleDumpCommand processes `chips dump [-o out] file.chb`.
func handleDumpCommand(args []string, cat *vm.Catalog) {
	fs := flag.NewFlagSet("dump", flag.ExitOnError)
	output := fs.String("o", "", "Output file (default stdout)")
	fs.Parse(args)
	if fs.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "Usage: chips dump [-o out.cbor] file.chb")
		os.Exit(2)
	}

	s, _ := readStream(fs.Arg(0), cat)
	data, err := bytecode.MarshalDump(bytecode.NewDump(s))
	if err != nil {
		fatal(err)
	}
	if *output == "" {
		os.Stdout.Write(data)
		return
	}
	if err := os.WriteFile(*output, data, 0644); err != nil {
		fatal(err)
	}
	fmt.Fprintf(os.Stderr, "Wrote %s (%s)\n", *output, humanize.Bytes(uint64(len(data))))
}

// handleOpsCommand processes `chips ops [family]`.
func handleOpsCommand(args []string, cat *vm.Catalog) {
	var only string
	if len(args) > 0 {
		only = strings.ToLower(args[0])
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "SELECTOR\tMNEMONIC\tOPERANDS\tCLASS\tDESCRIPTION")
	for _, op := range cat.Opcodes() {
		if only != "" && op.Name != only && !strings.HasPrefix(op.Name, only+".") {
			continue
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", selectorText(op), op.Name, operandText(op), op.Class, op.Doc)
	}
	w.Flush()
}

func selectorText(op *vm.Opcode) string {
	var sb strings.Builder
	for i, b := range op.Bytes() {
		if i > 0 {
			sb.WriteByte(' ')
		}
		fmt.Fprintf(&sb, "%02X", b)
	}
	return sb.String()
}

func operandText(op *vm.Opcode) string {
	switch {
	case op.IsFamily():
		return "-"
	case op.Operands == vm.Variadic:
		return "*"
	case op.Optional:
		return fmt.Sprintf("%d-%d", op.Operands-1, op.Operands)
	}
	return fmt.Sprint(op.Operands)
}
