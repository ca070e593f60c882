package main

import (
	"flag"

	"github.com/grailbio/base/log"
	"github.com/grailbio/base/vcontext"
	"github.com/grailbio/gossamer/graph"
	"github.com/grailbio/gossamer/internal/kerr"
	"github.com/grailbio/gossamer/trim"
)

func runTrimGraph(args []string) error {
	fs := flag.NewFlagSet("trim-graph", flag.ContinueOnError)
	in := fs.String("G", "", "input graph base path (required)")
	out := fs.String("O", "", "output graph base path (required unless --estimate-only)")
	cutoff := fs.Uint("C", 0, "minimum multiplicity to keep; 0 infers from the coverage histogram")
	estimateOnly := fs.Bool("estimate-only", false, "print the inferred cutoff and exit without writing a graph")
	scaleByK := fs.Int("scale-cutoff-by-k", 0, "if set, scales -C by k/scale-cutoff-by-k before applying it")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *in == "" {
		return kerr.Wrap(kerr.Usage, "trim-graph: -G is required")
	}
	if *out == "" && !*estimateOnly {
		return kerr.Wrap(kerr.Usage, "trim-graph: -O is required unless --estimate-only")
	}

	ctx := vcontext.Background()
	g, symmetric, err := graph.Load(ctx, *in)
	if err != nil {
		return err
	}

	c := uint32(*cutoff)
	if c == 0 {
		c = trim.InferCutoff(trim.Histogram(g, 255))
	} else if *scaleByK > 0 {
		c = uint32(int(c) * g.K() / *scaleByK)
	}
	log.Printf("trim-graph: cutoff %d", c)
	if *estimateOnly {
		return nil
	}

	trimmed := trim.Apply(g, symmetric, c)
	log.Printf("trim-graph: %d edges remain (of %d)", trimmed.EdgeCount(), g.EdgeCount())
	return trimmed.Persist(ctx, *out, symmetric)
}
