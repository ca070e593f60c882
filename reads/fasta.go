package reads

import (
	"bufio"
	"io"
	"strings"

	"github.com/grailbio/gossamer/internal/kerr"
)

const lineBufferCap = 256 * 1024 * 1024

// FASTAScanner iterates the records of an `>header\nSEQ\n` stream,
// concatenating a record's sequence across however many lines it spans.
// Grounded on encoding/fasta/fasta.go's newEagerUnindexed scan loop, made
// streaming: one record is held in memory at a time rather than the whole
// file.
type FASTAScanner struct {
	b       *bufio.Scanner
	err     error
	header  string
	started bool
	done    bool
	cur     Read
}

// NewFASTAScanner returns a FASTAScanner reading from r.
func NewFASTAScanner(r io.Reader) *FASTAScanner {
	b := bufio.NewScanner(r)
	b.Buffer(make([]byte, 0, 64*1024), lineBufferCap)
	return &FASTAScanner{b: b}
}

func (f *FASTAScanner) Scan() bool {
	if f.err != nil || f.done {
		return false
	}
	if !f.started {
		if !f.seekFirstHeader() {
			return false
		}
	}

	header := f.header
	var seq strings.Builder
	for f.b.Scan() {
		line := f.b.Text()
		if len(line) == 0 {
			continue
		}
		if line[0] == '>' {
			f.header = line[1:]
			f.cur = Read{ID: firstField(header), Seq: seq.String()}
			return true
		}
		seq.WriteString(line)
	}
	if err := f.b.Err(); err != nil {
		f.err = kerr.Wrap(kerr.IO, "fasta:", err)
		return false
	}
	f.done = true
	f.cur = Read{ID: firstField(header), Seq: seq.String()}
	return true
}

// seekFirstHeader advances to the file's first '>' line, skipping blank
// lines ahead of it. Anything else ahead of the first header is malformed.
func (f *FASTAScanner) seekFirstHeader() bool {
	for f.b.Scan() {
		line := f.b.Text()
		if len(line) == 0 {
			continue
		}
		if line[0] != '>' {
			f.err = kerr.Wrap(kerr.Sequence, "fasta: sequence data precedes first header")
			return false
		}
		f.header = line[1:]
		f.started = true
		return true
	}
	if err := f.b.Err(); err != nil {
		f.err = kerr.Wrap(kerr.IO, "fasta:", err)
	}
	f.done = true
	return false
}

func (f *FASTAScanner) Read() Read { return f.cur }
func (f *FASTAScanner) Err() error { return f.err }

// firstField returns the stretch of s before its first space, matching
// fasta.go's "any text after a space is ignored" header convention.
func firstField(s string) string {
	if i := strings.IndexByte(s, ' '); i >= 0 {
		return s[:i]
	}
	return s
}
