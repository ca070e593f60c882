// Package backyard implements BackyardHash, the fixed-capacity concurrent
// multi-way cuckoo hash the graph builder uses to count k-mer occurrences
// while scanning reads in parallel. Each of J independent, invertible
// mixing functions maps a key to a candidate bucket; a key present in any
// of its J candidate slots is found in O(1), and insertion falls back to
// a bounded cuckoo random walk before spilling into a mutex-guarded map.
//
// The table layout (huge flat mmap'd region, madvise'd for transparent
// hugepages) is grounded on fusion/kmer_index.go's kmerIndex shard
// allocation; the cuckoo displacement shape is grounded on the bucketized
// d-ary cuckoo table in other_examples' cuckoo.go. Unlike a generic hash
// table, every mixing function here must be an exact bijection on
// uint64, because Sort needs to recover the original key from a
// slot's (bucket, residual) pair without storing the full key -- see
// unmix below.
package backyard

import (
	"math/rand"
	"sync"
	"sync/atomic"

	"github.com/grailbio/base/log"
	"github.com/minio/highwayhash"
	"golang.org/x/sys/unix"
)

const (
	// countBits is the width of the inline saturating counter. A count
	// that would overflow this width stays at maxCount; the key is not
	// moved to the spill map.
	countBits  = 20
	maxCount   = (1 << countBits) - 1
	occupiedBit = uint64(1) << 63
	jShift      = 60
	jMask       = uint64(0x7) << jShift
	countShift  = jShift - countBits
	countMask   = uint64(maxCount) << countShift
	residualMask = (uint64(1) << countShift) - 1

	// slotBitsFixed is the only bucket-count exponent the slot packing
	// in packSlot/unpackSlot supports: occupied(1) + j(3) + count(20) +
	// residual(40) = 64, and residual must be exactly 64-SlotBits wide.
	slotBitsFixed = 24

	// SlotBits is the value callers must pass as Options.SlotBits.
	SlotBits = slotBitsFixed
)

// Entry is one observed (key, count) pair, as returned by Sort.
type Entry struct {
	Key   uint64
	Count uint32
}

// Hash is a fixed-capacity concurrent multi-way cuckoo hash mapping
// uint64 keys to saturating uint32 counts.
type Hash struct {
	slotBits    uint
	ways        int
	lockBits    uint
	maxSteps    int
	sortThreads int

	slots []uint64 // len == (1<<slotBits)*ways, indexed bucket*ways+way
	locks []spinlock

	mult    []uint64 // J odd multipliers, one per way
	invMult []uint64 // modular inverses of mult, mod 2^64

	spillMu sync.Mutex
	spill   map[uint64]uint64
}

type spinlock struct {
	state int32
}

func (l *spinlock) lock() {
	for !atomic.CompareAndSwapInt32(&l.state, 0, 1) {
	}
}

func (l *spinlock) unlock() {
	atomic.StoreInt32(&l.state, 0)
}

// Options configures a new Hash.
type Options struct {
	// SlotBits determines the number of buckets: 2^SlotBits.
	SlotBits uint
	// Ways is J, the number of independent candidate slots per key.
	Ways int
	// LockBits determines the number of spinlock stripes: 2^LockBits.
	// Must be <= SlotBits.
	LockBits uint
	// MaxSteps bounds the cuckoo random-walk displacement chain before
	// a key spills to the map.
	MaxSteps int
	// Seed selects the family of J mixing functions. Same seed, same
	// table layout; used so tests are deterministic.
	Seed uint64
	// SortThreads bounds the parallelism Sort uses when ordering the
	// final entry list. Defaults to 1.
	SortThreads int
}

// New allocates a Hash per opts, backing the slot table with an
// anonymous mmap region advised for transparent hugepages, the way
// fusion/kmer_index.go's initShard does for its own flat tables.
func New(opts Options) *Hash {
	if opts.Ways <= 0 || opts.Ways > 8 {
		log.Panicf("backyard.New: Ways must be in [1,8], got %d", opts.Ways)
	}
	if opts.SlotBits != slotBitsFixed {
		log.Panicf("backyard.New: SlotBits must be %d (the slot word packs a fixed-width residual), got %d", slotBitsFixed, opts.SlotBits)
	}
	if opts.LockBits > opts.SlotBits {
		log.Panicf("backyard.New: LockBits must be <= SlotBits")
	}
	if opts.MaxSteps <= 0 {
		opts.MaxSteps = 32
	}
	if opts.SortThreads <= 0 {
		opts.SortThreads = 1
	}
	h := &Hash{
		slotBits:    opts.SlotBits,
		ways:        opts.Ways,
		lockBits:    opts.LockBits,
		maxSteps:    opts.MaxSteps,
		sortThreads: opts.SortThreads,
		spill:       make(map[uint64]uint64),
	}

	n := (1 << opts.SlotBits) * opts.Ways
	h.slots = mmapUint64(n)
	h.locks = make([]spinlock, 1<<opts.LockBits)

	h.mult = make([]uint64, opts.Ways)
	h.invMult = make([]uint64, opts.Ways)
	key := highwayhash.Sum64(make([]byte, 32), seedKey(opts.Seed))
	for j := 0; j < opts.Ways; j++ {
		var buf [8]byte
		buf[0] = byte(j)
		key = highwayhash.Sum64(buf[:], seedKey(key))
		m := key | 1 // force odd, so it is invertible mod 2^64
		h.mult[j] = m
		h.invMult[j] = modInverseOdd(m)
	}
	return h
}

func seedKey(seed uint64) []byte {
	k := make([]byte, 32)
	for i := 0; i < 8; i++ {
		k[i] = byte(seed >> (8 * uint(i)))
		k[i+8] = byte(seed >> (8 * uint(i)))
	}
	return k
}

// mmapUint64 allocates an anonymous, zero-filled region of n uint64
// slots and advises the kernel to back it with transparent hugepages.
func mmapUint64(n int) []uint64 {
	const hugePage = 2 << 20
	nbytes := n * 8
	data, err := unix.Mmap(-1, 0, nbytes+hugePage,
		unix.PROT_READ|unix.PROT_WRITE, unix.MAP_ANON|unix.MAP_PRIVATE)
	if err != nil {
		log.Panicf("backyard: mmap failed: %v", err)
	}
	if err := unix.Madvise(data, unix.MADV_HUGEPAGE); err != nil {
		log.Debug.Printf("backyard: madvise(MADV_HUGEPAGE) failed: %v", err)
	}
	return uint64SliceFromBytes(data)[:n]
}

// modInverseOdd returns the multiplicative inverse of the odd integer x
// modulo 2^64, via Newton-Raphson refinement (each iteration doubles the
// number of correct low bits, so six iterations suffice for 64 bits).
func modInverseOdd(x uint64) uint64 {
	y := x
	for i := 0; i < 6; i++ {
		y = y * (2 - x*y)
	}
	return y
}

// mix applies the j-th mixing function to key, returning a value whose
// low slotBits bits select the bucket and whose remaining high bits
// become the slot's residual.
func (h *Hash) mix(j int, key uint64) uint64 {
	return key * h.mult[j]
}

// unmix inverts mix(j, .): given the mixed value, recovers the original
// key.
func (h *Hash) unmix(j int, mixed uint64) uint64 {
	return mixed * h.invMult[j]
}

func (h *Hash) bucketOf(mixed uint64) uint64 {
	return mixed & ((uint64(1) << h.slotBits) - 1)
}

func (h *Hash) residualOf(mixed uint64) uint64 {
	return mixed >> h.slotBits
}

func (h *Hash) slotIndex(bucket uint64, way int) uint64 {
	return bucket*uint64(h.ways) + uint64(way)
}

func (h *Hash) lockFor(bucket uint64) *spinlock {
	idx := bucket >> (h.slotBits - h.lockBits)
	return &h.locks[idx]
}

func packSlot(j int, residual uint64, count uint32) uint64 {
	if count > maxCount {
		count = maxCount
	}
	return occupiedBit | (uint64(j) << jShift) | (uint64(count) << countShift) | (residual & residualMask)
}

func unpackSlot(s uint64) (occupied bool, j int, residual uint64, count uint32) {
	occupied = s&occupiedBit != 0
	j = int((s & jMask) >> jShift)
	count = uint32((s & countMask) >> countShift)
	residual = s & residualMask
	return
}

// Insert increments the count for key by delta, returning the resulting
// (saturated) count. All J candidate slots are checked first; if key is
// already present in one, its count is bumped in place. Otherwise an
// empty slot among the J candidates is claimed; failing that, a bounded
// cuckoo random walk evicts an occupant to its alternate slot. A key that
// cannot be placed within MaxSteps spills into the map, exactly as
// BackyardHash.cc falls back to its overflow table.
func (h *Hash) Insert(key uint64, delta uint32) uint32 {
	buckets := make([]uint64, h.ways)
	residuals := make([]uint64, h.ways)
	for j := 0; j < h.ways; j++ {
		mixed := h.mix(j, key)
		buckets[j] = h.bucketOf(mixed)
		residuals[j] = h.residualOf(mixed)
	}

	// First pass: look for an existing entry in all J candidates.
	for j := 0; j < h.ways; j++ {
		lk := h.lockFor(buckets[j])
		lk.lock()
		idx := h.slotIndex(buckets[j], j)
		if occupied, sj, sres, count := unpackSlot(h.slots[idx]); occupied && sj == j && sres == residuals[j] {
			newCount := min(count+delta, maxCount)
			h.slots[idx] = packSlot(j, residuals[j], newCount)
			lk.unlock()
			return newCount
		}
		lk.unlock()
	}

	// Second pass: claim a free slot among the J candidates (or bump an
	// entry another goroutine placed since the first pass).
	for j := 0; j < h.ways; j++ {
		lk := h.lockFor(buckets[j])
		lk.lock()
		idx := h.slotIndex(buckets[j], j)
		s := h.slots[idx]
		occupied, sj, sres, count := unpackSlot(s)
		if !occupied {
			newCount := delta
			h.slots[idx] = packSlot(j, residuals[j], newCount)
			lk.unlock()
			return newCount
		}
		if sj == j && sres == residuals[j] {
			newCount := count + delta
			if newCount > maxCount {
				newCount = maxCount
			}
			h.slots[idx] = packSlot(j, residuals[j], newCount)
			lk.unlock()
			return newCount
		}
		lk.unlock()
	}

	// With a single way there is no alternate slot to cuckoo an
	// occupant into; go straight to the spill map.
	if h.ways == 1 {
		h.spillMu.Lock()
		h.spill[key] += uint64(delta)
		count := h.spill[key]
		h.spillMu.Unlock()
		return uint32(count)
	}

	// Cuckoo random walk: displace an occupant to one of its other
	// candidate slots to make room for key.
	curKey := key
	curDelta := delta
	j := rand.Intn(h.ways)
	for step := 0; step < h.maxSteps; step++ {
		mixed := h.mix(j, curKey)
		bucket := h.bucketOf(mixed)
		residual := h.residualOf(mixed)
		lk := h.lockFor(bucket)
		lk.lock()
		idx := h.slotIndex(bucket, j)
		s := h.slots[idx]
		occupied, evictedJ, evictedRes, evictedCount := unpackSlot(s)
		if !occupied {
			h.slots[idx] = packSlot(j, residual, curDelta)
			lk.unlock()
			if curKey == key {
				return curDelta
			}
			return h.lookupOrSpillCount(key)
		}
		// Evict the occupant; it must move to one of its other J-1
		// candidate buckets.
		evictedKey := h.unmix(evictedJ, (evictedRes<<h.slotBits)|bucket)
		h.slots[idx] = packSlot(j, residual, curDelta)
		lk.unlock()

		curKey = evictedKey
		curDelta = evictedCount
		j = (evictedJ + 1 + rand.Intn(h.ways-1)) % h.ways
	}

	// Exhausted the random walk: spill the most recently displaced
	// entry (which may or may not be the original key).
	h.spillMu.Lock()
	h.spill[curKey] += uint64(curDelta)
	h.spillMu.Unlock()
	if curKey == key {
		return uint32(h.spill[key])
	}
	return h.lookupOrSpillCount(key)
}

// lookupOrSpillCount returns the current count for key, checking the
// table first and the spill map second. Used by Insert's cuckoo path,
// where the original key may have been displaced into the spill map by a
// chain of evictions.
func (h *Hash) lookupOrSpillCount(key uint64) uint32 {
	if count, ok := h.Lookup(key); ok {
		return count
	}
	h.spillMu.Lock()
	defer h.spillMu.Unlock()
	return uint32(h.spill[key])
}

// Lookup returns the count associated with key and whether it was found
// in the table (it does not consult the spill map; callers that need the
// authoritative count should use Sort/Size after all inserts complete).
func (h *Hash) Lookup(key uint64) (uint32, bool) {
	for j := 0; j < h.ways; j++ {
		mixed := h.mix(j, key)
		bucket := h.bucketOf(mixed)
		residual := h.residualOf(mixed)
		lk := h.lockFor(bucket)
		lk.lock()
		s := h.slots[h.slotIndex(bucket, j)]
		occupied, sj, sres, count := unpackSlot(s)
		lk.unlock()
		if occupied && sj == j && sres == residual {
			return count, true
		}
	}
	return 0, false
}

// Size returns the total number of distinct keys observed, across both
// the slot table and the spill map.
func (h *Hash) Size() int64 {
	h.spillMu.Lock()
	spillLen := int64(len(h.spill))
	h.spillMu.Unlock()

	var tableCount int64
	for bucket := uint64(0); bucket < uint64(1)<<h.slotBits; bucket++ {
		for j := 0; j < h.ways; j++ {
			if h.slots[h.slotIndex(bucket, j)]&occupiedBit != 0 {
				tableCount++
			}
		}
	}
	return tableCount + spillLen
}

// Sort returns every observed (key, count) pair in ascending key order,
// the form the graph builder needs to merge with other shards and with
// the spill map. It is not safe to call concurrently with Insert.
func (h *Hash) Sort() []Entry {
	entries := make([]Entry, 0, h.Size())
	for bucket := uint64(0); bucket < uint64(1)<<h.slotBits; bucket++ {
		for j := 0; j < h.ways; j++ {
			s := h.slots[h.slotIndex(bucket, j)]
			occupied, sj, sres, count := unpackSlot(s)
			if !occupied {
				continue
			}
			key := h.unmix(sj, (sres<<h.slotBits)|bucket)
			entries = append(entries, Entry{Key: key, Count: count})
		}
	}
	h.spillMu.Lock()
	for k, c := range h.spill {
		entries = append(entries, Entry{Key: k, Count: uint32(c)})
	}
	h.spillMu.Unlock()

	sortEntriesByKey(entries, h.sortThreads)
	return entries
}
