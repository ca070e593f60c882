package main

import (
	"flag"
	"os"

	"github.com/grailbio/base/log"
	"github.com/grailbio/base/vcontext"
	"github.com/grailbio/gossamer/graph"
	"github.com/grailbio/gossamer/internal/kerr"
)

// runRestoreGraph is dump-graph's inverse: it reads the text format
// RestoreText produces and persists the resulting graph.
func runRestoreGraph(args []string) error {
	fs := flag.NewFlagSet("restore-graph", flag.ContinueOnError)
	in := fs.String("i", "", "input text path; '-' or empty reads from stdin")
	out := fs.String("O", "", "output graph base path (required)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *out == "" {
		return kerr.Wrap(kerr.Usage, "restore-graph: -O is required")
	}

	r := os.Stdin
	if *in != "" && *in != "-" {
		f, err := os.Open(*in)
		if err != nil {
			return kerr.Wrap(kerr.IO, "open:", *in, "cause:", err)
		}
		defer f.Close()
		r = f
	}

	g, symmetric, err := graph.RestoreText(r)
	if err != nil {
		return err
	}
	log.Printf("restore-graph: %d edges", g.EdgeCount())
	return g.Persist(vcontext.Background(), *out, symmetric)
}
