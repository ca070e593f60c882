package backyard

import (
	"unsafe"

	"github.com/grailbio/gossamer/blendedsort"
)

// uint64SliceFromBytes reinterprets a byte slice returned by mmap as a
// []uint64 without copying, the same reinterpret-cast-over-a-raw-region
// trick fusion/kmer_index.go applies via unsafe.Pointer arithmetic over
// its mmap'd table.
func uint64SliceFromBytes(b []byte) []uint64 {
	n := len(b) / 8
	return (*[1 << 40]uint64)(unsafe.Pointer(&b[0]))[:n:n]
}

// sortEntriesByKey orders entries ascending by Key using blendedsort's
// parallel radix sort, the same sort the graph builder needs fed
// strictly-ascending edges.
func sortEntriesByKey(entries []Entry, threads int) {
	items := make([]blendedsort.Item, len(entries))
	for i, e := range entries {
		items[i] = blendedsort.Item{Key: e.Key, Payload: e}
	}
	blendedsort.Sort(threads, items, 64)
	for i, it := range items {
		entries[i] = it.Payload.(Entry)
	}
}
