package reads

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func drain(t *testing.T, it Iterator) []Read {
	t.Helper()
	var out []Read
	for it.Scan() {
		out = append(out, it.Read())
	}
	require.NoError(t, it.Err())
	return out
}

func TestFASTAScannerSingleRecord(t *testing.T) {
	rs := drain(t, NewFASTAScanner(strings.NewReader(">seq1\nACGT\n")))
	require.Len(t, rs, 1)
	assert.Equal(t, Read{ID: "seq1", Seq: "ACGT"}, rs[0])
}

func TestFASTAScannerMultilineAndMultipleRecords(t *testing.T) {
	in := ">chr7\nACGTAC\nGAGGAC\nGCG\n>chr8\nACGT\n"
	rs := drain(t, NewFASTAScanner(strings.NewReader(in)))
	require.Len(t, rs, 2)
	assert.Equal(t, Read{ID: "chr7", Seq: "ACGTACGAGGACGCG"}, rs[0])
	assert.Equal(t, Read{ID: "chr8", Seq: "ACGT"}, rs[1])
}

func TestFASTAScannerHeaderDescriptionIgnored(t *testing.T) {
	rs := drain(t, NewFASTAScanner(strings.NewReader(">chr1 a viral sequence\nACGT\n")))
	require.Len(t, rs, 1)
	assert.Equal(t, "chr1", rs[0].ID)
}

func TestFASTAScannerEmptySequence(t *testing.T) {
	rs := drain(t, NewFASTAScanner(strings.NewReader(">a\n>b\nACGT\n")))
	require.Len(t, rs, 2)
	assert.Equal(t, "", rs[0].Seq)
	assert.Equal(t, "ACGT", rs[1].Seq)
}

func TestFASTAScannerRejectsDataBeforeHeader(t *testing.T) {
	it := NewFASTAScanner(strings.NewReader("ACGT\n>a\nACGT\n"))
	assert.False(t, it.Scan())
	assert.Error(t, it.Err())
}

func TestFASTQScannerBasic(t *testing.T) {
	in := "@read1\nACGT\n+\nIIII\n@read2\nTTTT\n+\nJJJJ\n"
	rs := drain(t, NewFASTQScanner(strings.NewReader(in)))
	require.Len(t, rs, 2)
	assert.Equal(t, Read{ID: "read1", Seq: "ACGT"}, rs[0])
	assert.Equal(t, Read{ID: "read2", Seq: "TTTT"}, rs[1])
}

func TestFASTQScannerRejectsMissingAtLine(t *testing.T) {
	it := NewFASTQScanner(strings.NewReader("read1\nACGT\n+\nIIII\n"))
	assert.False(t, it.Scan())
	assert.Error(t, it.Err())
}

func TestFASTQScannerRejectsMissingPlusLine(t *testing.T) {
	it := NewFASTQScanner(strings.NewReader("@read1\nACGT\nnope\nIIII\n"))
	assert.False(t, it.Scan())
	assert.Error(t, it.Err())
}

func TestFASTQScannerRejectsTruncatedRecord(t *testing.T) {
	it := NewFASTQScanner(strings.NewReader("@read1\nACGT\n+\n"))
	assert.False(t, it.Scan())
	assert.Error(t, it.Err())
}

func TestLineScannerSkipsBlankLines(t *testing.T) {
	rs := drain(t, NewLineScanner(strings.NewReader("ACGT\n\nTTTT\n")))
	require.Len(t, rs, 2)
	assert.Equal(t, Read{ID: "1", Seq: "ACGT"}, rs[0])
	assert.Equal(t, Read{ID: "3", Seq: "TTTT"}, rs[1])
}

func TestMultiConcatenatesIterators(t *testing.T) {
	a := NewFASTAScanner(strings.NewReader(">a\nACGT\n"))
	b := NewLineScanner(strings.NewReader("TTTT\n"))
	rs := drain(t, NewMulti(a, b))
	require.Len(t, rs, 2)
	assert.Equal(t, "ACGT", rs[0].Seq)
	assert.Equal(t, "TTTT", rs[1].Seq)
}

func TestMultiPropagatesError(t *testing.T) {
	bad := NewFASTQScanner(strings.NewReader("not-fastq\n"))
	ok := NewLineScanner(strings.NewReader("ACGT\n"))
	it := NewMulti(bad, ok)
	assert.False(t, it.Scan())
	assert.Error(t, it.Err())
}
