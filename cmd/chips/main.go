// Chips CLI - runs, inspects and stores Chips bytecode streams
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/tliron/commonlog"
	_ "github.com/tliron/commonlog/simple"

	"github.com/chazu/chips/manifest"
	"github.com/chazu/chips/server"
	"github.com/chazu/chips/vm"
)

const version = "0.1.0"

func main() {
	verbosity := flag.Int("v", 0, "Log verbosity (0 errors only, 4 debug)")
	logFile := flag.String("log", "", "Write logs to this file instead of stderr")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: chips [options] <command> [arguments]\n\n")
		fmt.Fprintf(os.Stderr, "Commands:\n")
		fmt.Fprintf(os.Stderr, "  run [file.chb...]       Run streams (the manifest entry by default)\n")
		fmt.Fprintf(os.Stderr, "  dis file.chb            Disassemble a stream\n")
		fmt.Fprintf(os.Stderr, "  dump [-o out] file.chb  Write a CBOR description of a stream\n")
		fmt.Fprintf(os.Stderr, "  ops [family]            List the opcode catalog\n")
		fmt.Fprintf(os.Stderr, "  store <put|get|ls|rm|run> ...\n")
		fmt.Fprintf(os.Stderr, "                          Manage the program store\n")
		fmt.Fprintf(os.Stderr, "  lsp                     Start the assembly language server on stdio\n")
		fmt.Fprintf(os.Stderr, "  version                 Print the version\n")
		fmt.Fprintf(os.Stderr, "\nOptions:\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	var path *string
	if *logFile != "" {
		path = logFile
	}
	commonlog.Configure(*verbosity, path)

	args := flag.Args()
	if len(args) == 0 {
		flag.Usage()
		os.Exit(2)
	}

	cat := vm.DefaultCatalog()
	m, err := manifest.FindAndLoad(".")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading manifest: %v\n", err)
		os.Exit(1)
	}

	switch cmd, rest := args[0], args[1:]; cmd {
	case "run":
		os.Exit(handleRunCommand(rest, cat, m))
	case "dis":
		handleDisCommand(rest, cat)
	case "dump":
		handleDumpCommand(rest, cat)
	case "ops":
		handleOpsCommand(rest, cat)
	case "store":
		os.Exit(handleStoreCommand(rest, cat, m))
	case "lsp":
		if err := server.NewLSP(cat).Run(); err != nil {
			fmt.Fprintf(os.Stderr, "Server error: %v\n", err)
			os.Exit(1)
		}
	case "version":
		fmt.Printf("chips %s\n", version)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command %q\n\n", cmd)
		flag.Usage()
		os.Exit(2)
	}
}

func fatal(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}
