package tips

import (
	"testing"

	"github.com/grailbio/gossamer/graph"
	"github.com/grailbio/gossamer/kmer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildGraph builds a symmetric graph from explicit (k+1)-mer edges and
// their counts, mirroring each edge's reverse complement with an equal
// count so the graph satisfies the builder's symmetric invariant.
func buildGraph(t *testing.T, k int, counts map[string]uint32) *graph.Graph {
	t.Helper()
	full := make(map[graph.Edge]uint32)
	for seq, c := range counts {
		e, ok := kmer.EncodeString(seq)
		require.True(t, ok)
		full[e] = c
		full[kmer.ReverseComplement(e, k+1)] = c
	}
	edges := make([]graph.Edge, 0, len(full))
	for e := range full {
		edges = append(edges, e)
	}
	for i := 1; i < len(edges); i++ {
		for j := i; j > 0 && edges[j-1] > edges[j]; j-- {
			edges[j-1], edges[j] = edges[j], edges[j-1]
		}
	}
	b := graph.NewBuilder(k, true)
	for _, e := range edges {
		b.PushBack(e, full[e])
	}
	return b.End()
}

// loopWithTip returns a cycle of the four 15-mer nodes of the periodic
// sequence AACGAACG... (all heavily covered) with a single low-coverage
// dead-end branch off the node ACGAACGAACGAACG: its loop edge continues
// with A, the tip edge with T, and the tip's end node has no further
// outgoing edges. Every node in the cycle itself has in-degree 1, so the
// only in-degree-0 node in the mirrored graph is the reverse complement
// of the tip's dead end -- exactly the node TipPruner's block scan starts
// walking from.
func loopWithTip(t *testing.T, loopCount, tipCount uint32) *graph.Graph {
	return buildGraph(t, 15, map[string]uint32{
		"AACGAACGAACGAACG": loopCount,
		"ACGAACGAACGAACGA": loopCount,
		"CGAACGAACGAACGAA": loopCount,
		"GAACGAACGAACGAAC": loopCount,
		"ACGAACGAACGAACGT": tipCount,
	})
}

func TestPruneRemovesLowCoverageTip(t *testing.T) {
	g := loopWithTip(t, 10, 1)
	tipEdge, ok := kmer.EncodeString("ACGAACGAACGAACGT")
	require.True(t, ok)
	require.True(t, g.Access(tipEdge))

	g2, removed, err := Prune(g, Options{Threads: 1, Symmetric: true, Iterations: 1})
	require.NoError(t, err)
	assert.Equal(t, 1, removed)
	assert.False(t, g2.Access(tipEdge), "tip edge should have been removed")
	assert.False(t, g2.Access(kmer.ReverseComplement(tipEdge, 16)), "tip's reverse complement should have been removed")

	for _, seq := range []string{"AACGAACGAACGAACG", "ACGAACGAACGAACGA", "CGAACGAACGAACGAA", "GAACGAACGAACGAAC"} {
		e, ok := kmer.EncodeString(seq)
		require.True(t, ok)
		assert.True(t, g2.Access(e), "loop edge %s should survive", seq)
	}
}

func TestPruneCutoffGatesRemoval(t *testing.T) {
	g := loopWithTip(t, 10, 1)
	g2, removed, err := Prune(g, Options{Threads: 1, Symmetric: true, Iterations: 1, Cutoff: 2})
	require.NoError(t, err)
	assert.Equal(t, 0, removed)
	assert.Equal(t, g.EdgeCount(), g2.EdgeCount())
}

func TestPruneRelativeCutoffGatesRemoval(t *testing.T) {
	// tip fraction of the joining node's total outgoing coverage is
	// 1/11, so a 20% relative cutoff should spare it...
	g := loopWithTip(t, 10, 1)
	g2, removed, err := Prune(g, Options{Threads: 1, Symmetric: true, Iterations: 1, RelativeCutoff: 0.2})
	require.NoError(t, err)
	assert.Equal(t, 0, removed)
	assert.Equal(t, g.EdgeCount(), g2.EdgeCount())

	// ...but a 5% relative cutoff should not.
	g3, removed2, err := Prune(g, Options{Threads: 1, Symmetric: true, Iterations: 1, RelativeCutoff: 0.05})
	require.NoError(t, err)
	assert.Equal(t, 1, removed2)
	assert.Less(t, g3.EdgeCount(), g.EdgeCount())
}

func TestPruneSiblingLowerCoverageSparesTip(t *testing.T) {
	// The tip (coverage 5) is not the worst-covered outgoing edge of the
	// joining node -- the loop-continuing edge (coverage 1) is -- so
	// neither qualifies as safe to remove.
	g := loopWithTip(t, 1, 5)
	g2, removed, err := Prune(g, Options{Threads: 1, Symmetric: true, Iterations: 1})
	require.NoError(t, err)
	assert.Equal(t, 0, removed)
	assert.Equal(t, g.EdgeCount(), g2.EdgeCount())
}

func TestPruneIteratesUntilNoChange(t *testing.T) {
	g := loopWithTip(t, 10, 1)
	g2, removed, err := Prune(g, Options{Threads: 1, Symmetric: true, Iterations: 5})
	require.NoError(t, err)
	assert.Equal(t, 1, removed)
	assert.Equal(t, g.EdgeCount()-2, g2.EdgeCount())
}

func TestPruneLeavesIsolatedComponentAlone(t *testing.T) {
	// The three edges of ACGGTCATTGACCAGTTA: a short, fully disconnected
	// path with neither end attached to anything else. Both ends are
	// unconnected, so it's a stray component, not a tip, and must survive.
	g := buildGraph(t, 15, map[string]uint32{
		"ACGGTCATTGACCAGT": 3,
		"CGGTCATTGACCAGTT": 3,
		"GGTCATTGACCAGTTA": 3,
	})
	g2, removed, err := Prune(g, Options{Threads: 1, Symmetric: true, Iterations: 1})
	require.NoError(t, err)
	assert.Equal(t, 0, removed)
	assert.Equal(t, g.EdgeCount(), g2.EdgeCount())
}

func TestPruneMultithreadedMatchesSingleThreaded(t *testing.T) {
	g := loopWithTip(t, 10, 1)
	g2, removed, err := Prune(g, Options{Threads: 4, Symmetric: true, Iterations: 1})
	require.NoError(t, err)
	assert.Equal(t, 1, removed)
	assert.Equal(t, g.EdgeCount()-2, g2.EdgeCount())
}
