package tourbus

import (
	farm "github.com/dgryski/go-farm"
	"github.com/grailbio/gossamer/kmer"
)

// nodeSet is a hash set of nodes used to find the lowest common ancestor of
// two predecessor chains: the shorter chain is indexed here, then the
// longer chain is scanned for the first member present in the set. Hashing
// follows fusion/kmer_index.go's farm.Hash64WithSeed(nil, value) idiom;
// buckets retain colliding entries since farm hash collisions, while rare,
// would otherwise silently merge two different nodes.
type nodeSet struct {
	buckets map[uint64][]kmer.T
}

func newNodeSet(sizeHint int) *nodeSet {
	return &nodeSet{buckets: make(map[uint64][]kmer.T, sizeHint)}
}

func hashNode(n kmer.T) uint64 {
	return farm.Hash64WithSeed(nil, uint64(n))
}

func (s *nodeSet) add(n kmer.T) {
	h := hashNode(n)
	s.buckets[h] = append(s.buckets[h], n)
}

func (s *nodeSet) contains(n kmer.T) bool {
	for _, x := range s.buckets[hashNode(n)] {
		if x == n {
			return true
		}
	}
	return false
}
