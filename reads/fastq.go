package reads

import (
	"bufio"
	"io"

	"github.com/grailbio/gossamer/internal/kerr"
)

// FASTQScanner iterates the records of a `@header\nSEQ\n+\nQUAL\n` stream.
// Grounded on encoding/fastq/scanner.go's Scanner: requires the ID line to
// start with '@' and the third line to start with '+', but unlike the
// original does not expose the third/fourth (Unk/Qual) lines, since nothing
// downstream of build-graph consults them.
type FASTQScanner struct {
	b   *bufio.Scanner
	err error
	cur Read
}

// NewFASTQScanner returns a FASTQScanner reading from r.
func NewFASTQScanner(r io.Reader) *FASTQScanner {
	b := bufio.NewScanner(r)
	b.Buffer(make([]byte, 0, 64*1024), lineBufferCap)
	return &FASTQScanner{b: b}
}

func (f *FASTQScanner) Scan() bool {
	if f.err != nil {
		return false
	}
	if !f.b.Scan() {
		if err := f.b.Err(); err != nil {
			f.err = kerr.Wrap(kerr.IO, "fastq:", err)
		}
		return false
	}
	id := f.b.Text()
	if len(id) == 0 || id[0] != '@' {
		f.err = kerr.Wrap(kerr.Sequence, "fastq: expected '@' id line")
		return false
	}
	if !f.scanLine() {
		return false
	}
	seq := f.b.Text()
	if !f.scanLine() {
		return false
	}
	unk := f.b.Text()
	if len(unk) == 0 || unk[0] != '+' {
		f.err = kerr.Wrap(kerr.Sequence, "fastq: expected '+' separator line")
		return false
	}
	if !f.scanLine() {
		return false
	}
	f.cur = Read{ID: id[1:], Seq: seq}
	return true
}

// scanLine advances one line, classifying an early EOF as a truncated
// record rather than a clean end of stream.
func (f *FASTQScanner) scanLine() bool {
	if !f.b.Scan() {
		if err := f.b.Err(); err != nil {
			f.err = kerr.Wrap(kerr.IO, "fastq:", err)
		} else {
			f.err = kerr.Wrap(kerr.Sequence, "fastq: truncated record")
		}
		return false
	}
	return true
}

func (f *FASTQScanner) Read() Read { return f.cur }
func (f *FASTQScanner) Err() error { return f.err }
