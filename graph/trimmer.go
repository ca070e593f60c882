package graph

// Trimmer accumulates edge deletions and count overrides against a
// Graph without mutating it, then streams a filtered, rewritten edge set
// into a fresh Builder. This is a direct port of
// original_source/src/GraphTrimmer.{hh,cc}: a rank-indexed deletion
// bitset plus a sparse count-override map, both keyed by rank so the
// trimmer works uniformly across CoverageTrimmer, TipPruner, and
// TourBus. Deletion always wins over a count override on the same rank
// (writeTrimmedGraph in the original skips a deleted rank before ever
// consulting the count map).
type Trimmer struct {
	g        *Graph
	deleted  []bool
	counts   map[uint64]uint32
	modified bool
}

// NewTrimmer creates a Trimmer over g. g is not modified by any Trimmer
// method; call WriteTrimmedGraph to materialise the edit.
func NewTrimmer(g *Graph) *Trimmer {
	return &Trimmer{
		g:       g,
		deleted: make([]bool, g.EdgeCount()),
		counts:  make(map[uint64]uint32),
	}
}

// Modified reports whether any deletion or count change has been
// recorded.
func (t *Trimmer) Modified() bool { return t.modified }

// EdgeDeletedRank reports whether the edge at rank r is marked deleted.
func (t *Trimmer) EdgeDeletedRank(r uint64) bool { return t.deleted[r] }

// EdgeDeleted reports whether edge e is marked deleted.
func (t *Trimmer) EdgeDeleted(e Edge) bool {
	return t.EdgeDeletedRank(t.g.Rank(e))
}

// DeleteEdgeRank marks the edge at rank r, and its reverse complement at
// rank rcRank, for deletion.
func (t *Trimmer) DeleteEdgeRank(r, rcRank uint64) {
	t.modified = true
	t.deleted[r] = true
	t.deleted[rcRank] = true
}

// DeleteEdge marks e and its reverse complement for deletion.
func (t *Trimmer) DeleteEdge(e Edge) {
	rc := t.g.ReverseComplement(e)
	t.DeleteEdgeRank(t.g.Rank(e), t.g.Rank(rc))
}

// ChangeCountRank overrides the multiplicity of the edges at ranks r and
// rcRank to newCount.
func (t *Trimmer) ChangeCountRank(r, rcRank uint64, newCount uint32) {
	t.modified = true
	t.counts[r] = newCount
	t.counts[rcRank] = newCount
}

// ChangeCount overrides the multiplicity of e and its reverse complement
// to newCount.
func (t *Trimmer) ChangeCount(e Edge, newCount uint32) {
	rc := t.g.ReverseComplement(e)
	t.ChangeCountRank(t.g.Rank(e), t.g.Rank(rc), newCount)
}

// RemovedEdgesCount returns the number of edges currently marked
// deleted.
func (t *Trimmer) RemovedEdgesCount() uint64 {
	var n uint64
	for _, d := range t.deleted {
		if d {
			n++
		}
	}
	return n
}

// WriteTrimmedGraph streams every non-deleted edge, in ascending order,
// into a fresh Builder, applying any count override recorded for its
// rank and otherwise preserving its original count.
func (t *Trimmer) WriteTrimmedGraph(b *Builder) {
	for it := t.g.Begin(); it.Valid(); it.Next() {
		r := it.Rank()
		if t.deleted[r] {
			continue
		}
		count := it.Multiplicity()
		if override, ok := t.counts[r]; ok {
			count = override
		}
		b.PushBack(it.Edge(), count)
	}
}
