// Package contigs extracts maximal linear paths from a de Bruijn graph and
// emits them as assembled contigs, optionally in FASTA form. Ported from
// original_source/src/GossCmdPrintContigs.cc's printLinearSegments: only
// the linear-segment mode is implemented (the supergraph/scaffold mode is
// out of scope, as spec.md's interface section leaves it).
package contigs

import (
	"fmt"
	"io"
	"math"

	"github.com/grailbio/gossamer/graph"
	"github.com/grailbio/gossamer/kmer"
)

// Options configures contig extraction.
type Options struct {
	// MinLength discards contigs shorter than this many bases.
	MinLength uint64
	// MinCoverage discards contigs whose minimum edge multiplicity is
	// below this value.
	MinCoverage uint64
	// VerboseHeaders adds length/min/max/mean/stddev coverage to each
	// FASTA header.
	VerboseHeaders bool
	// LineWidth wraps sequence output at this many bases per line; 0
	// disables wrapping.
	LineWidth int
}

// Contig is one maximal linear path extracted from a graph.
type Contig struct {
	Sequence []byte
	Length   uint64
	MinCov   uint64
	MaxCov   uint64
	MeanCov  float64
	StdDev   float64
}

// Extract walks g and returns every maximal linear path meeting opts'
// length and coverage filters, in ascending rank order of its first
// unvisited edge -- the same traversal order as printLinearSegments.
func Extract(g *graph.Graph, opts Options) []Contig {
	seen := make([]bool, g.EdgeCount())
	var out []Contig

	for it := g.Begin(); it.Valid(); it.Next() {
		i := it.Rank()
		if seen[i] {
			continue
		}
		e := it.Edge()
		from := g.From(e)
		if g.InDegree(from) == 1 && g.OutDegree(from) == 1 {
			continue
		}

		path := g.LinearPath(e)
		markVisited(g, seen, path)

		if c, ok := buildContig(g, path, opts); ok {
			out = append(out, c)
		}
	}
	return out
}

// markVisited marks every edge of path, and each one's reverse
// complement, as seen so the opposite strand's traversal doesn't also
// emit it.
func markVisited(g *graph.Graph, seen []bool, path []graph.Edge) {
	for _, e := range path {
		seen[g.Rank(e)] = true
		seen[g.Rank(g.ReverseComplement(e))] = true
	}
}

// buildContig composes path's sequence and coverage statistics, applying
// the from-node/to-node trim original_source/src/GossCmdPrintContigs.cc
// uses to avoid double-counting a branch node's k bases on both sides of
// a bubble, and opts' length/coverage filters. ok is false if the contig
// is filtered out.
func buildContig(g *graph.Graph, path []graph.Edge, opts Options) (Contig, bool) {
	k := g.K()
	n := uint64(len(path))

	minCov := ^uint64(0)
	var sum, sumSq uint64
	maxCov := uint64(0)
	for _, e := range path {
		c := uint64(g.MultiplicityOf(e))
		sum += c
		sumSq += c * c
		if c < minCov {
			minCov = c
		}
		if c > maxCov {
			maxCov = c
		}
	}
	if minCov < opts.MinCoverage {
		return Contig{}, false
	}

	mean := float64(sum) / float64(n)
	stddev := math.Sqrt(float64(sumSq)/float64(n) - mean*mean)

	from := g.From(path[0])
	includeFrom := g.InDegree(from) == 0
	to := g.To(path[len(path)-1])
	includeTo := g.OutDegree(to) == 0

	length := n + uint64(k)
	if length >= uint64(k) && !includeFrom {
		length -= uint64(k)
	}
	if length >= uint64(k) && !includeTo {
		length -= uint64(k)
	}
	if length < opts.MinLength {
		return Contig{}, false
	}

	seq := composeSequence(g, path)
	if !includeFrom {
		seq = seq[k:]
	}
	if !includeTo {
		seq = seq[:len(seq)-k]
	}

	return Contig{
		Sequence: seq,
		Length:   length,
		MinCov:   minCov,
		MaxCov:   maxCov,
		MeanCov:  mean,
		StdDev:   stddev,
	}, true
}

// composeSequence decodes the full base sequence of path: the k bases of
// its first edge's from-node, then one base per edge.
func composeSequence(g *graph.Graph, path []graph.Edge) []byte {
	k := g.K()
	seq := make([]byte, 0, uint64(k)+uint64(len(path)))
	seq = append(seq, kmer.Decode(g.From(path[0]), k)...)
	for _, e := range path {
		bases := kmer.Decode(e, k+1)
		seq = append(seq, bases[len(bases)-1])
	}
	return seq
}

// WriteFASTA writes contigs to w in FASTA format, numbering them from 1.
func WriteFASTA(w io.Writer, contigs []Contig, opts Options) error {
	for i, c := range contigs {
		if _, err := fmt.Fprintf(w, ">%d", i+1); err != nil {
			return err
		}
		if opts.VerboseHeaders {
			if _, err := fmt.Fprintf(w, " %d:%d:%d:%g:%g", c.Length, c.MinCov, c.MaxCov, c.MeanCov, c.StdDev); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintln(w); err != nil {
			return err
		}
		if err := writeWrapped(w, c.Sequence, opts.LineWidth); err != nil {
			return err
		}
	}
	return nil
}

func writeWrapped(w io.Writer, seq []byte, width int) error {
	if width <= 0 {
		_, err := fmt.Fprintf(w, "%s\n", seq)
		return err
	}
	for i := 0; i < len(seq); i += width {
		end := i + width
		if end > len(seq) {
			end = len(seq)
		}
		if _, err := fmt.Fprintf(w, "%s\n", seq[i:end]); err != nil {
			return err
		}
	}
	return nil
}

// WriteStats writes a tab-separated summary table, one row per contig,
// the --no-sequence output mode.
func WriteStats(w io.Writer, contigs []Contig) error {
	if _, err := fmt.Fprintln(w, "Number\tLength\tMinCov\tMaxCov\tMeanCov\tStdDevCov"); err != nil {
		return err
	}
	for i, c := range contigs {
		if _, err := fmt.Fprintf(w, "%d\t%d\t%d\t%d\t%g\t%g\n", i+1, c.Length, c.MinCov, c.MaxCov, c.MeanCov, c.StdDev); err != nil {
			return err
		}
	}
	return nil
}
