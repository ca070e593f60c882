package tourbus

import (
	"github.com/grailbio/gossamer/graph"
	"github.com/grailbio/gossamer/kmer"
)

// composeSequence decodes the base sequence spanned by a run of linear-path
// hop heads: the k bases of the first hop's from-node, then, for every hop,
// one base per edge along its full linear path (the last base of each
// (k+1)-mer edge). Ported from TourBus::Impl::composeSequence.
func composeSequence(g *graph.Graph, hops []graph.Edge) []byte {
	if len(hops) == 0 {
		return nil
	}
	seq := kmer.Decode(g.From(hops[0]), g.K())
	for _, hop := range hops {
		for _, e := range g.LinearPath(hop) {
			bases := kmer.Decode(e, g.K()+1)
			seq = append(seq, bases[len(bases)-1])
		}
	}
	return seq
}

// pathCoverage returns the total edge count and mean multiplicity across
// every edge in the full linear paths of hops, the quantity
// TourBus::Impl::CoverageVisitor accumulates for the cutoff checks.
func pathCoverage(g *graph.Graph, hops []graph.Edge) (length uint32, mean float64) {
	var sum uint64
	for _, hop := range hops {
		for _, e := range g.LinearPath(hop) {
			sum += uint64(g.MultiplicityOf(e))
			length++
		}
	}
	if length == 0 {
		return 0, 0
	}
	return length, float64(sum) / float64(length)
}
