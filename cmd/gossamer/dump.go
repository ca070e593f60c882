package main

import (
	"flag"
	"os"

	"github.com/grailbio/base/vcontext"
	"github.com/grailbio/gossamer/graph"
	"github.com/grailbio/gossamer/internal/kerr"
)

// runDumpGraph writes g's edges and multiplicities as a human-readable
// text stream, the text-round-trip format spec.md section 8's "Round
// trip" property is stated in terms of.
func runDumpGraph(args []string) error {
	fs := flag.NewFlagSet("dump-graph", flag.ContinueOnError)
	in := fs.String("G", "", "input graph base path (required)")
	out := fs.String("o", "", "output text path; '-' or empty writes to stdout")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *in == "" {
		return kerr.Wrap(kerr.Usage, "dump-graph: -G is required")
	}

	ctx := vcontext.Background()
	g, symmetric, err := graph.Load(ctx, *in)
	if err != nil {
		return err
	}

	w := os.Stdout
	if *out != "" && *out != "-" {
		f, err := os.Create(*out)
		if err != nil {
			return kerr.Wrap(kerr.IO, "create:", *out, "cause:", err)
		}
		defer f.Close()
		w = f
	}
	return g.DumpText(w, symmetric)
}
