package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/grailbio/base/vcontext"
	"github.com/grailbio/gossamer/graph"
	"github.com/grailbio/gossamer/internal/kerr"
)

// runLintGraph checks the rank/select, symmetry and adjacency invariants
// spec.md section 8's "Invariant checks" names, the way
// original_source/src/GossCmdLintGraph.cc walks a graph looking for
// corruption. Any violation is printed and causes a non-zero exit.
func runLintGraph(args []string) error {
	fs := flag.NewFlagSet("lint-graph", flag.ContinueOnError)
	in := fs.String("G", "", "input graph base path (required)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *in == "" {
		return kerr.Wrap(kerr.Usage, "lint-graph: -G is required")
	}

	ctx := vcontext.Background()
	g, _, err := graph.Load(ctx, *in)
	if err != nil {
		return err
	}

	problems := g.Lint()
	for _, p := range problems {
		fmt.Fprintln(os.Stderr, p)
	}
	if len(problems) > 0 {
		return kerr.Wrap(kerr.InvariantViolation, fmt.Sprintf("lint-graph: %d problems found", len(problems)))
	}
	return nil
}
