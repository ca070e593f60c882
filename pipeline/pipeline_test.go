package pipeline

import (
	"strings"
	"testing"

	"github.com/grailbio/gossamer/reads"
	"github.com/grailbio/gossamer/tips"
	"github.com/grailbio/gossamer/tourbus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildProducesSymmetricGraph(t *testing.T) {
	it := reads.NewFASTAScanner(strings.NewReader(">r\nACGGTCATTGACCAGTTA\n"))
	g, err := Build(it, 15, BuildOptions{Threads: 2})
	require.NoError(t, err)
	assert.EqualValues(t, 6, g.EdgeCount())
}

func TestBuildPropagatesReadError(t *testing.T) {
	it := reads.NewFASTQScanner(strings.NewReader("not-fastq\n"))
	_, err := Build(it, 15, BuildOptions{Threads: 1})
	assert.Error(t, err)
}

func TestWaysForBudgetClampsToValidRange(t *testing.T) {
	assert.Equal(t, 4, waysForBudget(0))
	assert.Equal(t, 1, waysForBudget(1e-9))
	assert.Equal(t, 8, waysForBudget(1000))
}

func TestRunEndToEnd(t *testing.T) {
	it := reads.NewFASTAScanner(strings.NewReader(">r1\nACGGTCATTGACCAGTTA\n>r2\nACGGTCATTGACCAGTTA\n"))
	c := Context{
		Options: Options{
			K:         15,
			Symmetric: true,
			Build:     BuildOptions{Threads: 2},
			Trim:      TrimOptions{Cutoff: 1},
			Prune:     tips.Options{Symmetric: true},
			Pop:       tourbus.Options{Symmetric: true},
		},
	}
	g, cs, err := Run(c, it, "")
	require.NoError(t, err)
	assert.EqualValues(t, 6, g.EdgeCount())
	require.Len(t, cs, 1)
	assert.Equal(t, "ACGGTCATTGACCAGTTA", string(cs[0].Sequence))
	assert.EqualValues(t, 2, cs[0].MinCov)
}
