package reads

import (
	"bufio"
	"io"
	"strconv"

	"github.com/grailbio/gossamer/internal/kerr"
)

// LineScanner iterates one-sequence-per-line text, build-graph's
// `--line-in` format. Each non-blank line is its own read; since the format
// carries no identifier, the read's ID is its 1-based line number.
type LineScanner struct {
	b    *bufio.Scanner
	err  error
	cur  Read
	line int
}

// NewLineScanner returns a LineScanner reading from r.
func NewLineScanner(r io.Reader) *LineScanner {
	b := bufio.NewScanner(r)
	b.Buffer(make([]byte, 0, 64*1024), lineBufferCap)
	return &LineScanner{b: b}
}

func (l *LineScanner) Scan() bool {
	if l.err != nil {
		return false
	}
	for l.b.Scan() {
		l.line++
		text := l.b.Text()
		if len(text) == 0 {
			continue
		}
		l.cur = Read{ID: strconv.Itoa(l.line), Seq: text}
		return true
	}
	if err := l.b.Err(); err != nil {
		l.err = kerr.Wrap(kerr.IO, "line:", err)
	}
	return false
}

func (l *LineScanner) Read() Read { return l.cur }
func (l *LineScanner) Err() error { return l.err }
