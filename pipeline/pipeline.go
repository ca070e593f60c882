// Package pipeline strings the build, trim, prune-tips, pop-bubbles and
// print-contigs passes into one ordered driver. original_source's
// per-process Debug singleton and ambient stream references map onto an
// explicit Context record carrying the pieces a driving function needs:
// a context.Context (standing in for "fileSystem", since
// github.com/grailbio/base/file's Open/Create both take one and work
// against local or remote paths alike), and Options (run parameters);
// "logger" needs no field of its own because github.com/grailbio/base/log
// is package-level, the same ambient logging grailbio/bio's own cmd/
// binaries use. Grounded on cmd/bio-fusion/main.go's single
// entry-point orchestration and fusion/cmd/fusion_e2e_test.go's
// Scan-loop-feeding-a-worker-pool shape, the pool itself being this
// module's own queue.WorkQueue.
package pipeline

import (
	"context"
	"io"

	"github.com/grailbio/base/file"
	"github.com/grailbio/base/log"
	"github.com/grailbio/gossamer/backyard"
	"github.com/grailbio/gossamer/blendedsort"
	"github.com/grailbio/gossamer/contigs"
	"github.com/grailbio/gossamer/graph"
	"github.com/grailbio/gossamer/internal/kerr"
	"github.com/grailbio/gossamer/kmer"
	"github.com/grailbio/gossamer/queue"
	"github.com/grailbio/gossamer/reads"
	"github.com/grailbio/gossamer/tips"
	"github.com/grailbio/gossamer/tourbus"
	"github.com/grailbio/gossamer/trim"
)

// Context threads the ambient state every stage needs.
type Context struct {
	Ctx     context.Context
	Options Options
}

// Options aggregates every stage's tunables. A zero Options runs the
// pipeline with each stage's own defaults.
type Options struct {
	K         int
	Symmetric bool
	Build     BuildOptions
	Trim      TrimOptions
	Prune     tips.Options
	Pop       tourbus.Options
	Contigs   contigs.Options
}

// BuildOptions configures Build.
type BuildOptions struct {
	// Threads bounds how many reads are scanned into the counter
	// concurrently.
	Threads int
	// BufGB sizes the BackyardHash's bucket width (by way of its Ways
	// setting -- the bucket count itself is fixed, see
	// backyard.SlotBits) to roughly this many gigabytes of table.
	BufGB float64
	// Seed selects BackyardHash's mixing-function family; 0 uses the
	// package default.
	Seed uint64
}

const bytesPerSlot = 8

// waysForBudget picks BackyardHash's Ways (candidate slots per key, in
// [1,8]) so the table occupies roughly bufGB gigabytes: table size is
// (1<<SlotBits)*Ways*8 bytes.
func waysForBudget(bufGB float64) int {
	if bufGB <= 0 {
		return 4
	}
	bytes := bufGB * 1e9
	ways := int(bytes / float64((int64(1)<<backyard.SlotBits)*bytesPerSlot))
	if ways < 1 {
		ways = 1
	}
	if ways > 8 {
		ways = 8
	}
	return ways
}

// Build scans it to exhaustion and returns the de Bruijn graph of every
// canonical (k+1)-mer window observed, at the given k. Reads are counted
// concurrently into a BackyardHash (bounded by opts.Threads), then
// expanded into the full symmetric edge set -- every counted canonical
// key alongside its reverse complement, at the same multiplicity -- and
// handed to graph.Builder in the strictly ascending order it requires.
// Grounded on original_source/src/GossCmdBuildGraph.cc's count-then-build
// shape.
func Build(it reads.Iterator, k int, opts BuildOptions) (*graph.Graph, error) {
	threads := opts.Threads
	if threads <= 0 {
		threads = 1
	}

	h := backyard.New(backyard.Options{
		SlotBits:    backyard.SlotBits,
		Ways:        waysForBudget(opts.BufGB),
		LockBits:    10,
		MaxSteps:    32,
		Seed:        opts.Seed,
		SortThreads: threads,
	})

	wq := queue.NewWorkQueue(threads, threads*4)
	for it.Scan() {
		r := it.Read()
		wq.Submit(func() error {
			graph.CountEdgesForRead(k, r.Seq, func(edge graph.Edge, _ bool) {
				h.Insert(uint64(edge), 1)
			})
			return nil
		})
	}
	if err := wq.Close(); err != nil {
		return nil, err
	}
	if err := it.Err(); err != nil {
		return nil, kerr.Wrap(kerr.Sequence, "pipeline: build:", err)
	}

	return buildGraphFromCounts(k, h.Sort(), threads), nil
}

// buildGraphFromCounts expands entries (one per observed canonical edge)
// into the full symmetric set and streams it into a graph.Builder.
func buildGraphFromCounts(k int, entries []backyard.Entry, threads int) *graph.Graph {
	edgeLen := k + 1
	items := make([]blendedsort.Item, 0, len(entries)*2)
	for _, e := range entries {
		items = append(items, blendedsort.Item{Key: e.Key, Payload: e.Count})
		rc := uint64(kmer.ReverseComplement(kmer.T(e.Key), edgeLen))
		if rc != e.Key {
			items = append(items, blendedsort.Item{Key: rc, Payload: e.Count})
		}
	}
	blendedsort.Sort(threads, items, 2*edgeLen)

	b := graph.NewBuilder(k, true)
	for _, it := range items {
		b.PushBack(graph.Edge(it.Key), it.Payload.(uint32))
	}
	return b.End()
}

// TrimOptions configures the coverage-trimming stage. If Cutoff is 0,
// the cutoff is inferred from the graph's own coverage histogram via
// trim.InferCutoff.
type TrimOptions struct {
	Cutoff uint32
}

// Run executes build, trim, prune-tips, pop-bubbles and print-contigs in
// sequence, persisting the final graph to outBase (skipped if outBase is
// empty) and returning it along with the extracted contigs. Callers that
// need only a subset of these stages call the stage packages directly
// instead of Run.
func Run(c Context, it reads.Iterator, outBase string) (*graph.Graph, []contigs.Contig, error) {
	opts := c.Options
	g, err := Build(it, opts.K, opts.Build)
	if err != nil {
		return nil, nil, err
	}
	log.Printf("pipeline: built graph with %d edges", g.EdgeCount())

	cutoff := opts.Trim.Cutoff
	if cutoff == 0 {
		cutoff = trim.InferCutoff(trim.Histogram(g, 255))
	}
	g = trim.Apply(g, opts.Symmetric, cutoff)
	log.Printf("pipeline: trimmed to %d edges at cutoff %d", g.EdgeCount(), cutoff)

	pruneOpts := opts.Prune
	pruneOpts.Symmetric = opts.Symmetric
	g, tipsPruned, err := tips.Prune(g, pruneOpts)
	if err != nil {
		return nil, nil, err
	}
	log.Printf("pipeline: pruned %d tips, %d edges remain", tipsPruned, g.EdgeCount())

	popOpts := opts.Pop
	popOpts.Symmetric = opts.Symmetric
	g, bubblesPopped, err := tourbus.Pop(g, popOpts)
	if err != nil {
		return nil, nil, err
	}
	log.Printf("pipeline: popped %d bubbles, %d edges remain", bubblesPopped, g.EdgeCount())

	if outBase != "" {
		if err := g.Persist(c.Ctx, outBase, opts.Symmetric); err != nil {
			return nil, nil, err
		}
	}

	cs := contigs.Extract(g, opts.Contigs)
	return g, cs, nil
}

// OpenReads opens each of paths and wraps its reader with newScanner,
// the shape build-graph's `-I`/`-i`/`--line-in` flags each take more than
// one path of. Callers combine the results across formats with
// reads.NewMulti and must Close every returned file.File once done.
func OpenReads(ctx context.Context, paths []string, newScanner func(r io.Reader) reads.Iterator) ([]reads.Iterator, []file.File, error) {
	its := make([]reads.Iterator, 0, len(paths))
	files := make([]file.File, 0, len(paths))
	for _, p := range paths {
		f, err := file.Open(ctx, p)
		if err != nil {
			return nil, files, kerr.Wrap(kerr.IO, "open:", p, "cause:", err)
		}
		files = append(files, f)
		its = append(its, newScanner(f.Reader(ctx)))
	}
	return its, files, nil
}
