// Package trim implements CoverageTrimmer, the histogram-driven pass
// that removes edges whose observed multiplicity looks like sequencing
// error rather than real coverage. The cutoff-inference algorithm -- a
// local-minimum search in the coverage histogram,
// after the initial error spike at multiplicity 1 -- and the "no minimum
// found" fallback are ported from
// original_source/src/GossCmdTrimGraph.cc.
package trim

import (
	"github.com/grailbio/base/log"
	"github.com/grailbio/gossamer/graph"
)

// Histogram returns h(m), the number of edges with multiplicity exactly
// m, for m in [1, maxMultiplicity); h(maxMultiplicity) counts every edge
// with multiplicity maxMultiplicity or more.
func Histogram(g *graph.Graph, maxMultiplicity uint32) []uint64 {
	h := make([]uint64, maxMultiplicity+1)
	for it := g.Begin(); it.Valid(); it.Next() {
		m := it.Multiplicity()
		if m == 0 {
			continue
		}
		if m > maxMultiplicity {
			m = maxMultiplicity
		}
		h[m]++
	}
	return h
}

// InferCutoff scans h for its first local minimum beyond the initial
// error-singleton spike (h[1]): the first m >= 2 with h[m] < h[m-1] and
// h[m] <= h[m+1]. It returns
// the multiplicity at that minimum as the coverage cutoff. If no minimum
// is found before the histogram tails off, it logs a warning and
// defaults to a cutoff of 1, matching GossCmdTrimGraph.cc's behaviour
// when a genuinely bimodal coverage distribution can't be found (e.g. an
// amplicon panel with no sequencing-error mode at all).
func InferCutoff(h []uint64) uint32 {
	for m := 2; m+1 < len(h); m++ {
		if h[m] <= h[m-1] && h[m] <= h[m+1] && h[m] < h[m-1] {
			return uint32(m)
		}
	}
	log.Printf("trim: no coverage minimum found in histogram, defaulting cutoff to 1")
	return 1
}

// Apply removes every edge whose multiplicity is <= cutoff, returning
// the trimmed graph. Edges are marked for deletion on both strands via
// graph.Trimmer, the shared edit mechanism tips and tourbus also use.
func Apply(g *graph.Graph, symmetric bool, cutoff uint32) *graph.Graph {
	tr := graph.NewTrimmer(g)
	for it := g.Begin(); it.Valid(); it.Next() {
		if it.Multiplicity() <= cutoff {
			tr.DeleteEdge(it.Edge())
		}
	}
	b := graph.NewBuilder(g.K(), symmetric)
	tr.WriteTrimmedGraph(b)
	return b.End()
}
