package main

import (
	"context"
	"flag"
	"io"

	"github.com/grailbio/base/file"
	"github.com/grailbio/base/log"
	"github.com/grailbio/base/vcontext"
	"github.com/grailbio/gossamer/graph"
	"github.com/grailbio/gossamer/internal/kerr"
	"github.com/grailbio/gossamer/pipeline"
	"github.com/grailbio/gossamer/reads"
)

// repeatedFlag collects a flag given multiple times, the shape
// build-graph's -I/-i/--line-in options need (one or more input paths
// per format).
type repeatedFlag []string

func (r *repeatedFlag) String() string { return "" }
func (r *repeatedFlag) Set(v string) error {
	*r = append(*r, v)
	return nil
}

func closeAll(ctx context.Context, files []file.File) {
	for _, f := range files {
		if err := f.Close(ctx); err != nil {
			log.Error.Printf("close: %v", err)
		}
	}
}

func runBuildGraph(args []string) error {
	fs := flag.NewFlagSet("build-graph", flag.ContinueOnError)
	k := fs.Int("k", 27, "k-mer length, 15 <= k <= MaxK, odd")
	bufGB := fs.Float64("B", 0, "approximate counting table size, in gigabytes")
	threads := fs.Int("T", 1, "number of worker threads")
	out := fs.String("O", "", "output graph base path (required)")
	var fastas, fastqs, lineFiles repeatedFlag
	fs.Var(&fastas, "I", "FASTA input path (repeatable)")
	fs.Var(&fastqs, "i", "FASTQ input path (repeatable)")
	fs.Var(&lineFiles, "line-in", "one-sequence-per-line input path (repeatable)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *out == "" {
		return kerr.Wrap(kerr.Usage, "build-graph: -O is required")
	}
	if len(fastas) == 0 && len(fastqs) == 0 && len(lineFiles) == 0 {
		return kerr.Wrap(kerr.Usage, "build-graph: at least one of -I, -i, --line-in is required")
	}
	if err := graph.Validate(*k); err != nil {
		return err
	}

	ctx := vcontext.Background()

	var allFiles []file.File
	var allIts []reads.Iterator

	fastaIts, fastaFiles, err := pipeline.OpenReads(ctx, fastas, func(r io.Reader) reads.Iterator { return reads.NewFASTAScanner(r) })
	if err != nil {
		return err
	}
	allIts = append(allIts, fastaIts...)
	allFiles = append(allFiles, fastaFiles...)

	fastqIts, fastqFiles, err := pipeline.OpenReads(ctx, fastqs, func(r io.Reader) reads.Iterator { return reads.NewFASTQScanner(r) })
	if err != nil {
		closeAll(ctx, allFiles)
		return err
	}
	allIts = append(allIts, fastqIts...)
	allFiles = append(allFiles, fastqFiles...)

	lineIts, lineFileHandles, err := pipeline.OpenReads(ctx, lineFiles, func(r io.Reader) reads.Iterator { return reads.NewLineScanner(r) })
	if err != nil {
		closeAll(ctx, allFiles)
		return err
	}
	allIts = append(allIts, lineIts...)
	allFiles = append(allFiles, lineFileHandles...)

	defer closeAll(ctx, allFiles)

	it := reads.NewMulti(allIts...)
	g, err := pipeline.Build(it, *k, pipeline.BuildOptions{Threads: *threads, BufGB: *bufGB})
	if err != nil {
		return err
	}
	log.Printf("build-graph: built graph with %d edges", g.EdgeCount())
	return g.Persist(ctx, *out, true)
}
