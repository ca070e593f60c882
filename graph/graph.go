// Package graph implements the succinct de Bruijn graph: edges are
// (K+1)-mers stored as set bits in a succinct.SparseArray over the
// universe [0, 4^(K+1)), nodes are the K-mers implied by an edge's prefix
// and suffix, and per-edge multiplicities are held in a parallel slice
// indexed by rank. The on-disk layout and the header/version-mismatch
// handling are grounded on original_source/src/KmerSet.hh; the
// Builder/push_back/end shape mirrors KmerSet::Builder exactly, adapted
// from a single-threaded streaming writer to this module's in-memory
// succinct.Builder.
package graph

import (
	"github.com/grailbio/base/log"
	"github.com/grailbio/gossamer/internal/kerr"
	"github.com/grailbio/gossamer/kmer"
	"github.com/grailbio/gossamer/succinct"
)

// Version is the on-disk format version this build writes and expects to
// read; see persist.go for the version-2 upgrade path.
const Version = 3

// Edge is a packed (K+1)-mer: its top kmer.T bits (all but the lowest 2)
// are the from-node, its low kmer.T bits (all but the highest 2) are the
// to-node.
type Edge = kmer.T

// Graph is an immutable succinct de Bruijn graph of a fixed order K.
type Graph struct {
	k      int
	edges  *succinct.SparseArray
	counts []uint32
}

// New wraps a built edge set and parallel count slice into a Graph. The
// edge set's rank order must match counts' index order (rank i ==
// counts[i]), the invariant GraphBuilder.End() establishes.
func New(k int, edges *succinct.SparseArray, counts []uint32) *Graph {
	if uint64(len(counts)) != edges.Count() {
		log.Panicf("graph.New: counts has %d entries, edges has %d set bits", len(counts), edges.Count())
	}
	return &Graph{k: k, edges: edges, counts: counts}
}

// K returns the node length; edges are K+1-mers.
func (g *Graph) K() int { return g.k }

// U returns the size of the edge universe, 4^(K+1) (every possible
// (K+1)-mer, either strand), saturating at the largest uint64 for K = 31.
func (g *Graph) U() uint64 { return g.edges.U() }

// EdgeCount returns the number of distinct edges in the graph.
func (g *Graph) EdgeCount() uint64 { return g.edges.Count() }

// Access reports whether edge rank position e (a raw universe position,
// not a rank) denotes a present edge.
func (g *Graph) Access(e Edge) bool { return g.edges.Access(uint64(e)) }

// Rank returns the ordinal position among present edges of the edge at
// universe position e (whether or not it is itself present).
func (g *Graph) Rank(e Edge) uint64 { return g.edges.Rank(uint64(e)) }

// AccessAndRank combines Access and Rank in one lookup, the operation
// GraphEssentials<T>::accessAndRank exposes for the hot edge-traversal
// path.
func (g *Graph) AccessAndRank(e Edge) (bool, uint64) {
	return g.edges.AccessAndRank(uint64(e))
}

// Select returns the edge at rank r, the inverse of Rank restricted to
// present edges.
func (g *Graph) Select(r uint64) Edge { return Edge(g.edges.Select(r)) }

// Multiplicity returns the observed count of the edge at rank r.
func (g *Graph) Multiplicity(r uint64) uint32 { return g.counts[r] }

// MultiplicityOf returns the observed count of edge e, or 0 if e is not
// present.
func (g *Graph) MultiplicityOf(e Edge) uint32 {
	ok, r := g.AccessAndRank(e)
	if !ok {
		return 0
	}
	return g.counts[r]
}

// From returns the from-node (a K-mer) of edge e: its high 2K bits.
func (g *Graph) From(e Edge) kmer.T {
	return kmer.T(e) >> 2
}

// To returns the to-node (a K-mer) of edge e: its low 2K bits.
func (g *Graph) To(e Edge) kmer.T {
	return kmer.T(e) & kmer.T((uint64(1)<<uint(2*g.k))-1)
}

// ReverseComplement returns the reverse complement of edge e, itself a
// valid (K+1)-mer edge in the opposite orientation.
func (g *Graph) ReverseComplement(e Edge) Edge {
	return kmer.ReverseComplement(e, g.k+1)
}

// edgesFromNode returns the rank range [begin, end) of edges whose
// from-node is n, computed by scanning the 4 children of n's first
// position in the universe: From(e) == n for e in [n<<2, (n<<2)+4).
func (g *Graph) edgesFromNode(n kmer.T) (begin, end uint64) {
	lo := uint64(n) << 2
	return g.Rank(Edge(lo)), g.Rank(Edge(lo + 4))
}

// OutDegree returns the number of present edges leaving node n.
func (g *Graph) OutDegree(n kmer.T) int {
	begin, end := g.edgesFromNode(n)
	return int(end - begin)
}

// InDegree returns the number of present edges arriving at node n,
// computed symmetrically via n's reverse complement's out-degree: an
// edge arrives at n iff its reverse complement leaves rc(n).
func (g *Graph) InDegree(n kmer.T) int {
	rc := kmer.ReverseComplement(n, g.k)
	return g.OutDegree(rc)
}

// OutEdges returns the present edges leaving node n, in ascending rank
// order.
func (g *Graph) OutEdges(n kmer.T) []Edge {
	begin, end := g.edgesFromNode(n)
	edges := make([]Edge, 0, end-begin)
	for r := begin; r < end; r++ {
		edges = append(edges, g.Select(r))
	}
	return edges
}

// InEdges returns the present edges arriving at node n, in ascending
// to-node order, derived from the reverse complements of rc(n)'s out
// edges.
func (g *Graph) InEdges(n kmer.T) []Edge {
	rc := kmer.ReverseComplement(n, g.k)
	rcOut := g.OutEdges(rc)
	in := make([]Edge, len(rcOut))
	for i, e := range rcOut {
		in[i] = g.ReverseComplement(e)
	}
	return in
}

// LinearPath walks forward from edge e while the path remains linear:
// the current edge's to-node has out-degree 1 and in-degree 1 (excluding
// e's own arrival does not apply -- in-degree 1 means e is the only
// entry). It returns the full run of edges, including e itself.
func (g *Graph) LinearPath(e Edge) []Edge {
	path := []Edge{e}
	for {
		n := g.To(path[len(path)-1])
		if g.OutDegree(n) != 1 || g.InDegree(n) != 1 {
			break
		}
		next := g.OutEdges(n)[0]
		if next == path[0] {
			// Closed loop: stop before repeating.
			break
		}
		path = append(path, next)
	}
	return path
}

// Validate checks k is in the supported range, wrapping kmer.Validate's
// error with the Sequence/CapacityExceeded taxonomy graph callers expect
// (SPEC_FULL.md's error-kind mapping table).
func Validate(k int) error {
	if err := kmer.Validate(k); err != nil {
		if k > kmer.MaxK {
			return kerr.Wrap(kerr.CapacityExceeded, "k:", k, "cause:", err)
		}
		return kerr.Wrap(kerr.Sequence, "k:", k, "cause:", err)
	}
	return nil
}

// Iterator walks every present edge of a Graph in ascending rank order.
type Iterator struct {
	g  *Graph
	it *succinct.Iterator
}

// Begin returns an Iterator positioned at the first present edge.
func (g *Graph) Begin() *Iterator {
	return &Iterator{g: g, it: g.edges.Begin()}
}

// Valid reports whether the iterator is positioned on a real edge.
func (it *Iterator) Valid() bool { return it.it.Valid() }

// Edge returns the current edge.
func (it *Iterator) Edge() Edge { return Edge(it.it.Pos()) }

// Rank returns the current edge's rank.
func (it *Iterator) Rank() uint64 { return it.it.Rank() }

// Multiplicity returns the current edge's observed count.
func (it *Iterator) Multiplicity() uint32 { return it.g.counts[it.it.Rank()] }

// Next advances to the next present edge.
func (it *Iterator) Next() { it.it.Next() }
