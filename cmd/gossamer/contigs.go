package main

import (
	"flag"
	"os"

	"github.com/grailbio/base/vcontext"
	"github.com/grailbio/gossamer/contigs"
	"github.com/grailbio/gossamer/graph"
	"github.com/grailbio/gossamer/internal/kerr"
)

func runPrintContigs(args []string) error {
	fs := flag.NewFlagSet("print-contigs", flag.ContinueOnError)
	in := fs.String("G", "", "input graph base path (required)")
	out := fs.String("o", "", "output FASTA path; '-' or empty writes to stdout")
	minLength := fs.Uint64("min-length", 0, "discard contigs shorter than this many bases")
	minCoverage := fs.Uint64("min-coverage", 0, "discard contigs whose minimum edge multiplicity is below this value")
	noSequence := fs.Bool("no-sequence", false, "print only summary statistics, not sequence")
	verboseHeaders := fs.Bool("verbose-headers", false, "add length/coverage stats to each FASTA header")
	noLineBreaks := fs.Bool("no-line-breaks", false, "do not wrap sequence output")
	fs.Bool("print-rcs", false, "unused: this implementation always reports the canonical strand")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *in == "" {
		return kerr.Wrap(kerr.Usage, "print-contigs: -G is required")
	}

	ctx := vcontext.Background()
	g, _, err := graph.Load(ctx, *in)
	if err != nil {
		return err
	}

	lineWidth := 60
	if *noLineBreaks {
		lineWidth = 0
	}
	cs := contigs.Extract(g, contigs.Options{
		MinLength:      *minLength,
		MinCoverage:    *minCoverage,
		VerboseHeaders: *verboseHeaders,
		LineWidth:      lineWidth,
	})

	w := os.Stdout
	if *out != "" && *out != "-" {
		f, err := os.Create(*out)
		if err != nil {
			return kerr.Wrap(kerr.IO, "create:", *out, "cause:", err)
		}
		defer f.Close()
		w = f
	}

	if *noSequence {
		return contigs.WriteStats(w, cs)
	}
	return contigs.WriteFASTA(w, cs, contigs.Options{VerboseHeaders: *verboseHeaders, LineWidth: lineWidth})
}
