package main

import (
	"flag"

	"github.com/grailbio/base/log"
	"github.com/grailbio/base/vcontext"
	"github.com/grailbio/gossamer/graph"
	"github.com/grailbio/gossamer/internal/kerr"
)

// runUpgradeGraph reads an older-version persisted graph (one still
// carrying the ord1p/ord2p predecessor bitmaps SPEC_FULL.md's data model
// names) and rewrites it in the current format, the way
// original_source/src/GossCmdUpgradeGraph.cc upgrades a graph in place.
func runUpgradeGraph(args []string) error {
	fs := flag.NewFlagSet("upgrade-graph", flag.ContinueOnError)
	in := fs.String("G", "", "input graph base path (required)")
	out := fs.String("O", "", "output graph base path (required)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *in == "" || *out == "" {
		return kerr.Wrap(kerr.Usage, "upgrade-graph: -G and -O are required")
	}

	ctx := vcontext.Background()
	g, symmetric, err := graph.Upgrade(ctx, *in)
	if err != nil {
		return err
	}
	log.Printf("upgrade-graph: %d edges", g.EdgeCount())
	return g.Persist(ctx, *out, symmetric)
}
