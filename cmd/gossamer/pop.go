package main

import (
	"flag"

	"github.com/grailbio/base/log"
	"github.com/grailbio/base/vcontext"
	"github.com/grailbio/gossamer/graph"
	"github.com/grailbio/gossamer/internal/kerr"
	"github.com/grailbio/gossamer/tourbus"
)

func runPopBubbles(args []string) error {
	fs := flag.NewFlagSet("pop-bubbles", flag.ContinueOnError)
	in := fs.String("G", "", "input graph base path (required)")
	out := fs.String("O", "", "output graph base path (required)")
	threads := fs.Int("T", 1, "number of worker threads")
	maxSeqLen := fs.Int("max-sequence-length", 0, "bound on either side of a bubble; 0 uses the default 2(k+1)+2")
	maxEditDist := fs.Int("max-edit-distance", 0, "bound on the Levenshtein distance between the two sides of a bubble")
	maxErrorRate := fs.Float64("max-error-rate", 0, "bound on edit distance / max(lenA, lenB)")
	cutoff := fs.Uint("C", 0, "pop a bubble only if its minor side's coverage is at least this")
	relCutoff := fs.Float64("relative-cutoff", 0, "pop a bubble only if its minor side's coverage is at least this fraction of the major side's")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *in == "" || *out == "" {
		return kerr.Wrap(kerr.Usage, "pop-bubbles: -G and -O are required")
	}

	ctx := vcontext.Background()
	g, symmetric, err := graph.Load(ctx, *in)
	if err != nil {
		return err
	}

	popped, count, err := tourbus.Pop(g, tourbus.Options{
		Threads:           *threads,
		MaxSequenceLength: *maxSeqLen,
		MaxEditDistance:   *maxEditDist,
		MaxRelativeErrors: *maxErrorRate,
		Cutoff:            uint32(*cutoff),
		RelativeCutoff:    *relCutoff,
		Symmetric:         symmetric,
	})
	if err != nil {
		return err
	}
	log.Printf("pop-bubbles: popped %d bubbles, %d edges remain", count, popped.EdgeCount())
	return popped.Persist(ctx, *out, symmetric)
}
