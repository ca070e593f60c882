package trim

import (
	"testing"

	"github.com/grailbio/gossamer/graph"
	"github.com/grailbio/gossamer/kmer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildGraphWithCounts(t *testing.T, k int, counts map[string]uint32) *graph.Graph {
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

func TestHistogramCountsByMultiplicity(t *testing.T) {
	k := 15
	g := buildGraphWithCounts(t, k, map[string]uint32{
		"ACGGTCATTGACCAGT": 1,
		"CGGTCATTGACCAGTT": 5,
		"GGTCATTGACCAGTTA": 5,
	})
	h := Histogram(g, 10)
	var total uint64
	for _, c := range h {
		total += c
	}
	assert.Equal(t, g.EdgeCount(), total)
	assert.Greater(t, h[1], uint64(0))
	assert.Greater(t, h[5], uint64(0))
}

func TestInferCutoffFindsLocalMinimum(t *testing.T) {
	h := make([]uint64, 20)
	h[1] = 1000
	h[2] = 200
	h[3] = 20 // local minimum: error tail dies out here
	h[4] = 30
	h[5] = 80
	h[6] = 90
	assert.EqualValues(t, 3, InferCutoff(h))
}

func TestInferCutoffDefaultsToOneWhenNoMinimum(t *testing.T) {
	h := make([]uint64, 10)
	for i := range h {
		h[i] = uint64(10 - i) // strictly decreasing, no local minimum
	}
	assert.EqualValues(t, 1, InferCutoff(h))
}

func TestApplyZeroCutoffIsIdempotent(t *testing.T) {
	k := 15
	g := buildGraphWithCounts(t, k, map[string]uint32{
		"ACGGTCATTGACCAGT": 5,
		"CGGTCATTGACCAGTT": 5,
	})
	g2 := Apply(g, true, 0)
	assert.Equal(t, g.EdgeCount(), g2.EdgeCount())
}

func TestApplyRemovesLowCoverageEdges(t *testing.T) {
	k := 15
	g := buildGraphWithCounts(t, k, map[string]uint32{
		"ACGGTCATTGACCAGT": 1,
		"CGGTCATTGACCAGTT": 5,
	})
	g2 := Apply(g, true, 1)
	for it := g2.Begin(); it.Valid(); it.Next() {
		assert.Greater(t, it.Multiplicity(), uint32(1))
	}
	assert.Less(t, g2.EdgeCount(), g.EdgeCount())
}
