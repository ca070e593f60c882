package graph

import (
	"github.com/grailbio/base/log"
	"github.com/grailbio/gossamer/kmer"
	"github.com/grailbio/gossamer/succinct"
)

// Builder accumulates (edge, count) pairs in strictly ascending edge
// order and produces an immutable Graph, mirroring KmerSet::Builder's
// push_back/end shape (push_back appends to the underlying SparseArray
// builder and bumps a running count, end() finalises both).
type Builder struct {
	k        int
	symmetric bool
	sa       *succinct.Builder
	counts   []uint32
	lastEdge Edge
	started  bool
}

// NewBuilder creates a Builder for a graph of order k. If symmetric is
// true (the default for a genome assembly graph), PushBack panics unless
// the reverse complement of every pushed edge is pushed as well by the
// time End is called -- callers normally guarantee this by pushing
// canonical pairs together upstream, in the backyard/blendedsort
// pipeline.
func NewBuilder(k int, symmetric bool) *Builder {
	if err := Validate(k); err != nil {
		log.Panicf("graph.NewBuilder: %v", err)
	}
	u := kmer.UniverseSize(k + 1)
	return &Builder{
		k:         k,
		symmetric: symmetric,
		sa:        succinct.NewBuilder(u),
	}
}

// PushBack appends an (edge, count) pair. Edges must be pushed in
// strictly ascending order.
func (b *Builder) PushBack(e Edge, count uint32) {
	if b.started && e <= b.lastEdge {
		log.Panicf("graph.Builder.PushBack: edge %d not strictly greater than previous %d", e, b.lastEdge)
	}
	b.sa.PushBack(uint64(e))
	b.counts = append(b.counts, count)
	b.lastEdge = e
	b.started = true
}

// End finalises the builder and returns the built Graph. In symmetric
// mode it verifies that every edge's reverse complement was also pushed.
func (b *Builder) End() *Graph {
	sa := b.sa.End()
	g := &Graph{k: b.k, edges: sa, counts: b.counts}
	if b.symmetric {
		verifySymmetric(g)
	}
	return g
}

func verifySymmetric(g *Graph) {
	for it := g.Begin(); it.Valid(); it.Next() {
		e := it.Edge()
		rc := g.ReverseComplement(e)
		if !g.Access(rc) {
			log.Panicf("graph.Builder.End: edge %d present without its reverse complement %d in symmetric mode", e, rc)
		}
	}
}

// CountEdgesForRead streams every K+1-length window of seq, emitting the
// canonical form of each window along with which strand (forward=true,
// reverse complement=false) it was observed on, the same canonicalising
// projection KmerSet uses when absorbing a read.
func CountEdgesForRead(k int, seq string, emit func(edge Edge, forward bool)) {
	scanner := kmer.NewScanner(k + 1)
	scanner.Reset(seq)
	for {
		_, fwd, rc, ok := scanner.Scan()
		if !ok {
			return
		}
		if fwd <= rc {
			emit(fwd, true)
		} else {
			emit(rc, false)
		}
	}
}
