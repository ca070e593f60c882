// Package succinct implements SparseArray, the rank/select structure a
// Graph uses to map an edge's packed (k+1)-mer rank in [0, U) to its
// ordinal position among the set bits, and back. U can run up to
// 4^(k+1) -- tens of quintillions at the largest supported k -- while
// only count positions are ever set, so the structure is sized to
// count, not U: the universe is partitioned into fixed-size blocks,
// only the blocks that actually contain a set bit are recorded (as a
// block index plus the cumulative count of set bits before it), and
// each block's set-bit offsets are packed into a bit-width-minimal
// array. This generalises the super-block-plus-block organisation
// circular.Bitmap uses for a bounded, densely-indexed universe to one
// where most of the universe is empty and the index itself must not
// cost O(U).
package succinct

import (
	"sort"

	"github.com/grailbio/base/log"
)

// blockSize is the number of universe positions a single block spans.
// It is a power of two so block/offset splitting is a shift and mask,
// and offsetBits -- the packed width of an in-block offset -- is
// exactly log2(blockSize).
const blockSize = 1 << 16
const offsetBits = 16

// fullUniverse is the sentinel U value (see kmer.UniverseSize) meaning
// "every uint64 position is in range", used when the true universe
// size would be 2^64 and so cannot be represented as a uint64 at all.
const fullUniverse = ^uint64(0)

// SparseArray is an immutable rank/select bit vector over a universe of
// size U with count set bits. It is built once via Builder and then
// queried concurrently (all query methods are read-only). Space is
// O(count), not O(U).
type SparseArray struct {
	u     uint64
	count uint64

	// blockIdx[i] is the index (position/blockSize) of the i-th
	// non-empty block, strictly ascending. blockCum[i] is the
	// cumulative count of set bits in all blocks before blockIdx[i];
	// blockCum has one extra trailing entry equal to count.
	blockIdx []uint64
	blockCum []uint64

	// offsets holds, for every set bit in ascending position order,
	// its offset within its block (0..blockSize-1), packed offsetBits
	// wide. Because blocks are visited in ascending order and each
	// block's offsets are themselves ascending, index j of offsets is
	// exactly the rank of that set bit -- the same index Select(j)
	// and Rank's binary search return.
	offsets *packedArray
}

// U returns the size of the universe this array ranges over, or the
// fullUniverse sentinel if the true size does not fit in a uint64.
func (s *SparseArray) U() uint64 {
	return s.u
}

// Count returns the total number of set bits.
func (s *SparseArray) Count() uint64 {
	return s.count
}

func (s *SparseArray) outOfRange(i uint64) bool {
	return s.u != fullUniverse && i >= s.u
}

// findBlock returns the smallest index p such that blockIdx[p] >= block
// (len(blockIdx) if none).
func (s *SparseArray) findBlock(block uint64) int {
	return sort.Search(len(s.blockIdx), func(i int) bool { return s.blockIdx[i] >= block })
}

// Access reports whether bit i is set. i must be < U.
func (s *SparseArray) Access(i uint64) bool {
	if s.outOfRange(i) {
		log.Panicf("succinct.SparseArray.Access: i=%d out of range U=%d", i, s.u)
	}
	ok, _ := s.accessAndRank(i)
	return ok
}

// Rank returns the number of set bits in [0, i). i may equal U.
func (s *SparseArray) Rank(i uint64) uint64 {
	if i != s.u && s.outOfRange(i) {
		log.Panicf("succinct.SparseArray.Rank: i=%d out of range U=%d", i, s.u)
	}
	_, rank := s.accessAndRank(i)
	return rank
}

// AccessAndRank returns Access(i) and Rank(i) together, computed with a
// single pair of binary searches (the common case when a caller needs
// both, e.g. Graph.accessAndRank for an edge lookup).
func (s *SparseArray) AccessAndRank(i uint64) (bool, uint64) {
	if i != s.u && s.outOfRange(i) {
		log.Panicf("succinct.SparseArray.AccessAndRank: i=%d out of range U=%d", i, s.u)
	}
	return s.accessAndRank(i)
}

func (s *SparseArray) accessAndRank(i uint64) (bool, uint64) {
	block := i / blockSize
	local := i % blockSize
	p := s.findBlock(block)
	if p >= len(s.blockIdx) || s.blockIdx[p] != block {
		return false, s.blockCum[p]
	}
	lo, hi := s.blockCum[p], s.blockCum[p+1]
	idx := lowerBound(s.offsets, lo, hi, local)
	if idx < hi && s.offsets.get(idx) == local {
		return true, idx
	}
	return false, idx
}

// lowerBound returns the smallest index in [lo, hi) whose packed value
// is >= target, or hi if none (a standard binary search lower bound
// restricted to the sub-range a single block occupies).
func lowerBound(p *packedArray, lo, hi, target uint64) uint64 {
	for lo < hi {
		mid := lo + (hi-lo)/2
		if p.get(mid) < target {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	return lo
}

// Select returns the position of the j-th set bit (0-indexed). If j >=
// Count(), it returns U, the empty-result sentinel (mirroring
// circular.Bitmap.FirstPosEmpty's "larger than any real coordinate"
// convention).
func (s *SparseArray) Select(j uint64) uint64 {
	if j >= s.count {
		return s.u
	}
	lo, hi := 0, len(s.blockIdx)-1
	for lo < hi {
		mid := (lo + hi + 1) / 2
		if s.blockCum[mid] <= j {
			lo = mid
		} else {
			hi = mid - 1
		}
	}
	return s.blockIdx[lo]*blockSize + s.offsets.get(j)
}

// Iterator walks the set bits of a SparseArray in ascending order.
type Iterator struct {
	s   *SparseArray
	pos uint64
	j   uint64
}

// Begin returns an Iterator positioned at the first set bit.
func (s *SparseArray) Begin() *Iterator {
	return &Iterator{s: s, pos: s.Select(0), j: 0}
}

// BeginAt returns an Iterator positioned at the first set bit >= i.
func (s *SparseArray) BeginAt(i uint64) *Iterator {
	r := s.Rank(i)
	return &Iterator{s: s, pos: s.Select(r), j: r}
}

// Valid reports whether the iterator is positioned on a real entry.
func (it *Iterator) Valid() bool {
	return it.j < it.s.count
}

// Pos returns the current position (the iterator must be Valid).
func (it *Iterator) Pos() uint64 {
	return it.pos
}

// Rank returns the rank of the current position, i.e. how many set bits
// precede it.
func (it *Iterator) Rank() uint64 {
	return it.j
}

// Next advances the iterator to the next set bit.
func (it *Iterator) Next() {
	it.j++
	it.pos = it.s.Select(it.j)
}

// Builder constructs a SparseArray by consuming positions in strictly
// ascending order, the same push_back/end shape circular.Bitmap's
// callers use when streaming sorted entries into a table.
type Builder struct {
	u        uint64
	count    uint64
	lastPos  uint64
	started  bool
	blockIdx []uint64
	blockCum []uint64
	offsets  []uint64
}

// NewBuilder creates a Builder for a universe of size u (or the
// fullUniverse sentinel, see kmer.UniverseSize, when the true universe
// size is 2^64).
func NewBuilder(u uint64) *Builder {
	return &Builder{u: u}
}

// PushBack appends a set bit at position pos, which must be strictly
// greater than every previously pushed position.
func (b *Builder) PushBack(pos uint64) {
	if b.u != fullUniverse && pos >= b.u {
		log.Panicf("succinct.Builder.PushBack: pos=%d out of range U=%d", pos, b.u)
	}
	if b.started && pos <= b.lastPos {
		log.Panicf("succinct.Builder.PushBack: pos=%d not strictly greater than previous %d", pos, b.lastPos)
	}
	block := pos / blockSize
	if len(b.blockIdx) == 0 || b.blockIdx[len(b.blockIdx)-1] != block {
		b.blockIdx = append(b.blockIdx, block)
		b.blockCum = append(b.blockCum, b.count)
	}
	b.offsets = append(b.offsets, pos%blockSize)
	b.lastPos = pos
	b.started = true
	b.count++
}

// End finalises the builder and returns the built SparseArray.
func (b *Builder) End() *SparseArray {
	blockCum := append(b.blockCum, b.count)
	packed := newPackedArray(uint64(len(b.offsets)), offsetBits)
	for i, off := range b.offsets {
		packed.set(uint64(i), off)
	}
	return &SparseArray{
		u:        b.u,
		count:    b.count,
		blockIdx: b.blockIdx,
		blockCum: blockCum,
		offsets:  packed,
	}
}
