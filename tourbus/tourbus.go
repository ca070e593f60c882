// Package tourbus implements TourBus, the bubble-popping pass: it finds
// pairs of short divergent paths between the same two nodes (bubbles left
// by sequencing errors or low-level variants) and deletes the
// lower-coverage alternative. The per-start-node bounded Dijkstra
// exploration, predecessor bookkeeping and bubble comparison are ported
// from original_source/src/TourBus.cc's Impl::doNode/doPath/analyseEdge;
// start-node discovery follows its FindStartNodeThread parallel block
// scan.
package tourbus

import (
	"sort"

	"github.com/antzucaro/matchr"
	"github.com/biogo/store/llrb"
	"github.com/grailbio/base/log"
	"github.com/grailbio/gossamer/graph"
	"github.com/grailbio/gossamer/kmer"
	"golang.org/x/sync/errgroup"
)

// Options configures a Pop pass.
type Options struct {
	Threads int
	// MaxSequenceLength bounds the length of either side of a bubble; 0
	// selects the default 2(k+1)+2.
	MaxSequenceLength int
	// MaxEditDistance bounds the Levenshtein distance between the two
	// sides of a bubble; 0 selects the default max((2(k+1)+27)/27, 2).
	MaxEditDistance int
	// MaxRelativeErrors bounds edit distance / max(lenA, lenB); 0
	// selects the default 0.2.
	MaxRelativeErrors float64
	Cutoff            uint32
	RelativeCutoff    float64
	Symmetric         bool
}

const maxPasses = 10000

func (o Options) maxSequenceLength(k int) int {
	if o.MaxSequenceLength > 0 {
		return o.MaxSequenceLength
	}
	return 2*(k+1) + 2
}

func (o Options) maxEditDistance(k int) int {
	if o.MaxEditDistance > 0 {
		return o.MaxEditDistance
	}
	rho := k + 1
	d := (2*rho + 27) / 27
	if d < 2 {
		d = 2
	}
	return d
}

func (o Options) maxRelativeErrors() float64 {
	if o.MaxRelativeErrors > 0 {
		return o.MaxRelativeErrors
	}
	return 0.2
}

// Pop runs one bubble-popping pass over g, returning the rewritten graph
// and the number of bubbles removed.
func Pop(g *graph.Graph, opts Options) (*graph.Graph, int, error) {
	threads := opts.Threads
	if threads <= 0 {
		threads = 1
	}

	starts, err := findStartNodes(g, threads)
	if err != nil {
		return nil, 0, err
	}

	tr := graph.NewTrimmer(g)
	popped := 0
	for _, s := range starts {
		popped += popFromStart(g, tr, s, opts)
	}

	b := graph.NewBuilder(g.K(), opts.Symmetric)
	tr.WriteTrimmedGraph(b)
	return b.End(), popped, nil
}

// startNode pairs a candidate seed with the largest multiplicity among its
// incoming edges, the priority findStartNodes sorts by.
type startNode struct {
	node  kmer.T
	maxIn uint32
}

// findStartNodes scans the graph in parallel disjoint rank ranges for
// nodes with in-degree != 1 or out-degree != 1 -- every branch, merge or
// dead end is a candidate bubble origin -- then returns them sorted by
// descending maximum incoming multiplicity so the most strongly supported
// branches are explored first.
func findStartNodes(g *graph.Graph, threads int) ([]kmer.T, error) {
	n := g.EdgeCount()
	if n == 0 {
		return nil, nil
	}
	chunk := (n + uint64(threads) - 1) / uint64(threads)
	partial := make([]map[kmer.T]bool, threads)

	var eg errgroup.Group
	for t := 0; t < threads; t++ {
		t := t
		begin := uint64(t) * chunk
		end := begin + chunk
		if end > n {
			end = n
		}
		if begin >= end {
			continue
		}
		eg.Go(func() error {
			local := make(map[kmer.T]bool)
			for r := begin; r < end; r++ {
				e := g.Select(r)
				for _, nd := range [2]kmer.T{g.From(e), g.To(e)} {
					if local[nd] {
						continue
					}
					if g.InDegree(nd) != 1 || g.OutDegree(nd) != 1 {
						local[nd] = true
					}
				}
			}
			partial[t] = local
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	seen := make(map[kmer.T]bool)
	var items []startNode
	for _, local := range partial {
		for nd := range local {
			if seen[nd] {
				continue
			}
			seen[nd] = true
			var maxIn uint32
			for _, e := range g.InEdges(nd) {
				if c := g.MultiplicityOf(e); c > maxIn {
					maxIn = c
				}
			}
			items = append(items, startNode{nd, maxIn})
		}
	}
	sort.Slice(items, func(i, j int) bool { return items[i].maxIn > items[j].maxIn })

	nodes := make([]kmer.T, len(items))
	for i, it := range items {
		nodes[i] = it.node
	}
	return nodes, nil
}

// pqItem is the llrb.Comparable ordered by ascending time, with the node
// value breaking ties so equal-time entries don't collide in the tree.
type pqItem struct {
	node kmer.T
	time float64
}

func (p *pqItem) Compare(c llrb.Comparable) int {
	o := c.(*pqItem)
	switch {
	case p.time < o.time:
		return -1
	case p.time > o.time:
		return 1
	case p.node < o.node:
		return -1
	case p.node > o.node:
		return 1
	default:
		return 0
	}
}

// popFromStart runs a bounded Dijkstra-style exploration rooted at start,
// popping any bubble found along the way, and returns the number popped.
// distance/predecessor state is local to this start node, matching
// TourBus::Impl::pass clearing mDistance/mPredecessors before every start
// node.
func popFromStart(g *graph.Graph, tr *graph.Trimmer, start kmer.T, opts Options) int {
	distance := map[kmer.T]float64{start: 0}
	dist := map[kmer.T]uint32{start: 0}
	predEdge := map[kmer.T]graph.Edge{}

	queue := &llrb.Tree{}
	queue.Insert(&pqItem{node: start, time: 0})

	popped := 0
	passes := 0
	maxDist := uint32(2 * opts.maxSequenceLength(g.K()))

	for queue.Len() > 0 {
		passes++
		if passes > maxPasses {
			log.Printf("tourbus: abandoning start node after %d passes", maxPasses)
			break
		}

		var top *pqItem
		queue.Do(func(c llrb.Comparable) bool {
			top = c.(*pqItem)
			return true // stop at the minimum, the entry DeleteMin removes
		})
		queue.DeleteMin()

		if top.time != distance[top.node] {
			continue // superseded by a shorter path found after this entry was queued
		}
		n := top.node

		for _, e := range g.OutEdges(n) {
			if tr.EdgeDeleted(e) {
				continue
			}
			path := g.LinearPath(e)
			last := path[len(path)-1]
			length := uint32(len(path))

			var sum uint64
			for _, pe := range path {
				sum += uint64(g.MultiplicityOf(pe))
			}
			meanCoverage := float64(sum) / float64(length)
			if meanCoverage <= 0 {
				continue
			}
			edgeTime := float64(length) / meanCoverage
			totalTime := distance[n] + edgeTime
			totalDist := dist[n] + length
			if totalDist > maxDist {
				continue
			}

			m := g.To(last)
			if m == start {
				continue // closed loop back to the root: nothing to compare
			}

			oldTime, known := distance[m]
			switch {
			case !known:
				distance[m] = totalTime
				dist[m] = totalDist
				predEdge[m] = e
				queue.Insert(&pqItem{node: m, time: totalTime})

			case totalTime < oldTime:
				// e beats the path already recorded at m: compare them
				// before predEdge[m] is overwritten below.
				if tryPopBubble(g, tr, start, predEdge, n, e, m, opts) {
					popped++
				}
				distance[m] = totalTime
				dist[m] = totalDist
				predEdge[m] = e
				queue.Insert(&pqItem{node: m, time: totalTime})

			default:
				if tryPopBubble(g, tr, start, predEdge, n, e, m, opts) {
					popped++
				}
			}
		}
	}
	return popped
}

// tryPopBubble compares the path ending in newHead (arriving at m via n)
// against the path already recorded by predEdge for m, both rooted at
// start, and deletes whichever has lower mean coverage if the pair passes
// the length/edit-distance/coverage gates. Returns whether a bubble was
// popped.
func tryPopBubble(g *graph.Graph, tr *graph.Trimmer, start kmer.T, predEdge map[kmer.T]graph.Edge, n kmer.T, newHead graph.Edge, m kmer.T, opts Options) bool {
	newHops := append(hopChain(g, start, predEdge, n), newHead)
	oldHops := hopChain(g, start, predEdge, m)

	newNodes := nodeChain(g, start, newHops)
	oldNodes := nodeChain(g, start, oldHops)

	// Both chains end at the same node m by construction, which is
	// always a trivial match; exclude it so the search finds the actual
	// divergence point instead of the shared destination.
	lca := lowestCommonAncestor(newNodes[:len(newNodes)-1], oldNodes[:len(oldNodes)-1])
	newHops = suffixFrom(newHops, newNodes, lca)
	oldHops = suffixFrom(oldHops, oldNodes, lca)

	if len(newHops) == 0 || len(oldHops) == 0 {
		return false
	}

	k := g.K()
	maxLen := opts.maxSequenceLength(k)
	maxEdit := opts.maxEditDistance(k)
	maxRel := opts.maxRelativeErrors()

	seqA := composeSequence(g, newHops)
	seqB := composeSequence(g, oldHops)
	if len(seqA) > maxLen || len(seqB) > maxLen {
		return false
	}
	lenDiff := len(seqA) - len(seqB)
	if lenDiff < 0 {
		lenDiff = -lenDiff
	}
	if lenDiff > maxEdit {
		return false
	}

	editDistance := matchr.Levenshtein(string(seqA), string(seqB))
	if editDistance > maxEdit {
		return false
	}
	longest := len(seqA)
	if len(seqB) > longest {
		longest = len(seqB)
	}
	if float64(editDistance)/float64(longest) > maxRel {
		return false
	}

	_, covA := pathCoverage(g, newHops)
	_, covB := pathCoverage(g, oldHops)
	minorHops, minorCov, majorCov := newHops, covA, covB
	if covB < covA {
		minorHops, minorCov, majorCov = oldHops, covB, covA
	}

	if opts.Cutoff > 0 && minorCov < float64(opts.Cutoff) {
		return false
	}
	if opts.RelativeCutoff > 0 && minorCov < majorCov*opts.RelativeCutoff {
		return false
	}

	for _, hop := range minorHops {
		for _, e := range g.LinearPath(hop) {
			tr.DeleteEdge(e)
		}
	}
	return true
}

// hopChain returns the sequence of hop-head edges from start to node,
// reconstructed by walking predEdge backwards and reversing.
func hopChain(g *graph.Graph, start kmer.T, predEdge map[kmer.T]graph.Edge, node kmer.T) []graph.Edge {
	var hops []graph.Edge
	for cur := node; cur != start; {
		e, ok := predEdge[cur]
		if !ok {
			break
		}
		hops = append(hops, e)
		cur = g.From(e)
	}
	for i, j := 0, len(hops)-1; i < j; i, j = i+1, j-1 {
		hops[i], hops[j] = hops[j], hops[i]
	}
	return hops
}

// nodeChain returns the node visited after each hop, prefixed by start, so
// nodeChain(...)[i+1] == To(LinearPath(hops[i])'s last edge).
func nodeChain(g *graph.Graph, start kmer.T, hops []graph.Edge) []kmer.T {
	nodes := make([]kmer.T, 0, len(hops)+1)
	nodes = append(nodes, start)
	for _, hop := range hops {
		path := g.LinearPath(hop)
		nodes = append(nodes, g.To(path[len(path)-1]))
	}
	return nodes
}

// lowestCommonAncestor finds the deepest node common to both chains (each
// prefixed by the same start node) by indexing the shorter chain,
// root-to-tip reversed, in a nodeSet and scanning the longer chain for the
// first hit -- the hash-set-the-shorter/scan-the-longer technique.
func lowestCommonAncestor(a, b []kmer.T) kmer.T {
	ra, rb := reverseNodes(a), reverseNodes(b)
	shorter, longer := ra, rb
	if len(rb) < len(ra) {
		shorter, longer = rb, ra
	}
	set := newNodeSet(len(shorter))
	for _, n := range shorter {
		set.add(n)
	}
	for _, n := range longer {
		if set.contains(n) {
			return n
		}
	}
	return a[0]
}

func reverseNodes(nodes []kmer.T) []kmer.T {
	out := make([]kmer.T, len(nodes))
	for i, n := range nodes {
		out[len(nodes)-1-i] = n
	}
	return out
}

// suffixFrom trims hops to the portion starting after lca, using nodes
// (len(hops)+1 entries, nodes[0]==start) to locate lca's position. If lca
// is the chain's final node the two paths have already reconverged with no
// divergent span, and the empty slice signals "not a bubble".
func suffixFrom(hops []graph.Edge, nodes []kmer.T, lca kmer.T) []graph.Edge {
	idx := 0
	for i, n := range nodes {
		if n == lca {
			idx = i
		}
	}
	if idx >= len(hops) {
		return nil
	}
	return hops[idx:]
}
