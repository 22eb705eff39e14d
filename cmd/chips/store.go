package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/dustin/go-humanize"

	"github.com/chazu/chips/manifest"
	"github.com/chazu/chips/store"
	"github.com/chazu/chips/vm"
)

// handleStoreCommand processes `chips store <put|get|ls|rm|run>`.
// Usage:
//
//	chips store put name file.chb
//	chips store get name out.chb
//	chips store ls
//	chips store rm name
//	chips store run name
func handleStoreCommand(args []string, cat *vm.Catalog, m *manifest.Manifest) int {
	fs := flag.NewFlagSet("store", flag.ExitOnError)
	dbPath := fs.String("db", "", "Store database (default from chips.toml, else .chips/store.db)")
	var opts runOptions
	opts.register(fs)
	fs.Parse(args)

	rest := fs.Args()
	if len(rest) == 0 {
		fmt.Fprintln(os.Stderr, "Usage: chips store [-db path] <put|get|ls|rm|run> ...")
		return 2
	}

	path := *dbPath
	switch {
	case path != "":
	case m != nil:
		path = m.StorePath()
	default:
		path = filepath.Join(".chips", "store.db")
	}
	st, err := store.Open(path)
	if err != nil {
		fatal(err)
	}
	defer st.Close()

	ctx := context.Background()
	need := func(n int, usage string) {
		if len(rest) != n+1 {
			fmt.Fprintf(os.Stderr, "Usage: chips store %s\n", usage)
			st.Close()
			os.Exit(2)
		}
	}

	switch rest[0] {
	case "put":
		need(2, "put name file.chb")
		data, err := os.ReadFile(rest[2])
		if err != nil {
			fatal(err)
		}
		e, err := st.Put(ctx, rest[1], data)
		if err != nil {
			fatal(err)
		}
		fmt.Printf("%s %s %s\n", e.ID, e.Name, e.Hash[:12])

	case "get":
		need(2, "get name out.chb")
		data, _, err := st.Get(ctx, rest[1])
		if err != nil {
			fatal(err)
		}
		if err := os.WriteFile(rest[2], data, 0644); err != nil {
			fatal(err)
		}

	case "ls":
		entries, err := st.List(ctx)
		if err != nil {
			fatal(err)
		}
		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "NAME\tSIZE\tINSTRUCTIONS\tDEBUG\tHASH\tSTORED")
		for _, e := range entries {
			fmt.Fprintf(w, "%s\t%s\t%d\t%v\t%s\t%s\n",
				e.Name, humanize.Bytes(uint64(e.Size)), e.Instructions, e.Debug, e.Hash[:12], humanize.Time(e.Stored))
		}
		w.Flush()

	case "rm":
		need(1, "rm name")
		if err := st.Delete(ctx, rest[1]); err != nil {
			fatal(err)
		}

	case "run":
		need(1, "run name")
		p, err := st.Load(ctx, rest[1], cat)
		if err != nil {
			fatal(err)
		}
		if err := p.Validate(); err != nil {
			fatal(err)
		}
		c := opts.configure(m, os.Stdout)
		err = c.Run(ctx, p.Code)
		printProfile(p.Name, c)
		return report(p.Name, err)

	default:
		fmt.Fprintf(os.Stderr, "Unknown store command %q (want %s)\n", rest[0], strings.Join([]string{"put", "get", "ls", "rm", "run"}, ", "))
		return 2
	}
	return 0
}
