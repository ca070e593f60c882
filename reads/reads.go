// Package reads implements finite, non-restartable read iterators over the
// input formats build-graph accepts: FASTA, FASTQ, and one-sequence-per-line
// text. Grounded on encoding/fastq/scanner.go's Scan-into-struct shape and
// encoding/fasta/fasta.go's streaming line scan.
package reads

// Read is one input read: an identifier and its base sequence. Iterator
// implementations do not validate that Seq holds only {A,C,G,T,a,c,g,t};
// kmer.Scanner treats any other byte as a k-mer window break, and a read
// shorter than the window simply yields no k-mers.
type Read struct {
	ID  string
	Seq string
}

// Iterator scans a finite stream of reads. Once Scan returns false it never
// returns true again; the caller then checks Err to distinguish a clean
// end of stream from a parse failure.
type Iterator interface {
	Scan() bool
	Read() Read
	Err() error
}

// Multi concatenates iterators, draining each to exhaustion before moving to
// the next. build-graph's `-I fasta... -i fastq... --line-in lines...` flags
// each accept more than one path, and a build feeds all of them through one
// Multi.
type Multi struct {
	its []Iterator
	i   int
	cur Read
	err error
}

// NewMulti returns an Iterator over its, in order.
func NewMulti(its ...Iterator) *Multi {
	return &Multi{its: its}
}

func (m *Multi) Scan() bool {
	if m.err != nil {
		return false
	}
	for m.i < len(m.its) {
		if m.its[m.i].Scan() {
			m.cur = m.its[m.i].Read()
			return true
		}
		if err := m.its[m.i].Err(); err != nil {
			m.err = err
			return false
		}
		m.i++
	}
	return false
}

func (m *Multi) Read() Read { return m.cur }
func (m *Multi) Err() error { return m.err }
