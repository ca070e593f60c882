// Package tips implements TipPruner, the pass that removes short
// dead-end linear paths ("tips") left by sequencing errors near the end
// of a read. The per-block algorithm -- walk the linear path from every
// in-degree-0 node, classify which end (if either) is connected to the
// rest of the graph, check the joining node's coverage against its
// siblings and an optional cutoff, then mark the whole path for deletion
// -- is a direct port of original_source/src/GossCmdPruneTips.cc's
// Block::operator().
package tips

import (
	"sync"

	"github.com/grailbio/gossamer/graph"
	"github.com/grailbio/gossamer/kmer"
	"golang.org/x/sync/errgroup"
)

// Options configures a Prune pass.
type Options struct {
	// Threads is the number of disjoint rank ranges to scan in
	// parallel.
	Threads int
	// Cutoff, if > 0, requires a tip's joining edge to carry at least
	// this much coverage for the tip to be removed; a tip below it is
	// left in place.
	Cutoff uint32
	// RelativeCutoff, if > 0, requires the joining edge's coverage to
	// be at least RelativeCutoff * the joining node's total outgoing
	// coverage.
	RelativeCutoff float64
	// Iterations bounds how many passes Prune makes; tips can be
	// exposed by the removal of a neighbouring tip, so pruning is
	// iterated until a pass removes nothing or Iterations is reached.
	Iterations int
	Symmetric  bool
}

// Prune runs up to opts.Iterations passes of tip removal over g,
// returning the final graph and the total number of tips removed.
func Prune(g *graph.Graph, opts Options) (*graph.Graph, int, error) {
	total := 0
	for i := 0; i < maxInt(opts.Iterations, 1); i++ {
		next, removed, err := prunePass(g, opts)
		if err != nil {
			return nil, total, err
		}
		total += removed
		g = next
		if removed == 0 {
			break
		}
	}
	return g, total, nil
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func prunePass(g *graph.Graph, opts Options) (*graph.Graph, int, error) {
	n := g.EdgeCount()
	threads := opts.Threads
	if threads <= 0 {
		threads = 1
	}
	tr := graph.NewTrimmer(g)
	var mu sync.Mutex
	tipCount := 0

	var eg errgroup.Group
	chunk := (n + uint64(threads) - 1) / uint64(threads)
	for t := 0; t < threads; t++ {
		begin := uint64(t) * chunk
		end := begin + chunk
		if end > n {
			end = n
		}
		if begin >= end {
			continue
		}
		eg.Go(func() error {
			scanBlock(g, begin, end, opts, tr, &mu, &tipCount)
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, 0, err
	}

	b := graph.NewBuilder(g.K(), opts.Symmetric)
	tr.WriteTrimmedGraph(b)
	return b.End(), tipCount, nil
}

func scanBlock(g *graph.Graph, begin, end uint64, opts Options, tr *graph.Trimmer, mu *sync.Mutex, tipCount *int) {
	for i := begin; i < end; i++ {
		beg := g.Select(i)
		n := g.From(beg)
		if g.InDegree(n) != 0 {
			continue
		}

		path := g.LinearPath(beg)
		if uint64(len(path)) > uint64(2*g.K()) {
			continue
		}
		tipEnd := path[len(path)-1]

		begIn := g.InDegree(g.From(beg))
		begOut := g.OutDegree(g.From(beg))
		endIn := g.InDegree(g.To(tipEnd))
		endOut := g.OutDegree(g.To(tipEnd))

		begCon := begOut > 1 || begIn > 0
		endCon := endIn > 1 || endOut > 0

		if begCon && endCon {
			continue
		}

		var c uint32
		var joiningNode kmer.T
		switch {
		case !begCon && endCon:
			c = g.MultiplicityOf(tipEnd)
			joiningNode = kmer.ReverseComplement(g.To(tipEnd), g.K())
		case !endCon && begCon:
			c = g.MultiplicityOf(beg)
			joiningNode = g.From(beg)
		default:
			continue // neither end connected: a whole isolated component, not a tip
		}

		if opts.Cutoff > 0 && c < opts.Cutoff {
			continue
		}

		if !siblingsOkay(g, joiningNode, c, opts) {
			continue
		}

		mu.Lock()
		for _, e := range path {
			tr.DeleteEdge(e)
		}
		*tipCount++
		mu.Unlock()
	}
}

func siblingsOkay(g *graph.Graph, n kmer.T, c uint32, opts Options) bool {
	edges := g.OutEdges(n)
	var totalCoverage uint32
	for _, e := range edges {
		cov := g.MultiplicityOf(e)
		totalCoverage += cov
		if cov < c {
			return false
		}
	}
	if opts.RelativeCutoff > 0 && float64(c) < float64(totalCoverage)*opts.RelativeCutoff {
		return false
	}
	return true
}
