package main

import (
	"flag"

	"github.com/grailbio/base/log"
	"github.com/grailbio/base/vcontext"
	"github.com/grailbio/gossamer/graph"
	"github.com/grailbio/gossamer/internal/kerr"
	"github.com/grailbio/gossamer/tips"
)

func runPruneTips(args []string) error {
	fs := flag.NewFlagSet("prune-tips", flag.ContinueOnError)
	in := fs.String("G", "", "input graph base path (required)")
	out := fs.String("O", "", "output graph base path (required)")
	cutoff := fs.Uint("C", 0, "remove a tip only if its joining edge's coverage is at least this")
	relCutoff := fs.Float64("relative-cutoff", 0, "remove a tip only if its joining edge's coverage is at least this fraction of the joining node's coverage")
	threads := fs.Int("T", 1, "number of worker threads")
	iterate := fs.Int("iterate", 1, "maximum number of pruning passes")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *in == "" || *out == "" {
		return kerr.Wrap(kerr.Usage, "prune-tips: -G and -O are required")
	}

	ctx := vcontext.Background()
	g, symmetric, err := graph.Load(ctx, *in)
	if err != nil {
		return err
	}

	trimmed, removed, err := tips.Prune(g, tips.Options{
		Threads:        *threads,
		Cutoff:         uint32(*cutoff),
		RelativeCutoff: *relCutoff,
		Iterations:     *iterate,
		Symmetric:      symmetric,
	})
	if err != nil {
		return err
	}
	log.Printf("prune-tips: removed %d tips, %d edges remain", removed, trimmed.EdgeCount())
	return trimmed.Persist(ctx, *out, symmetric)
}
