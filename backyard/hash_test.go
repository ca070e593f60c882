package backyard

import (
	"math/rand"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestHash() *Hash {
	return New(Options{SlotBits: slotBitsFixed, Ways: 4, LockBits: 8, MaxSteps: 32, Seed: 42})
}

func TestModInverseOddRoundTrips(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 1000; i++ {
		x := rng.Uint64() | 1
		inv := modInverseOdd(x)
		assert.Equal(t, uint64(1), x*inv, "x=%d", x)
	}
}

func TestMixUnmixRoundTrips(t *testing.T) {
	h := newTestHash()
	rng := rand.New(rand.NewSource(11))
	for j := 0; j < h.ways; j++ {
		for i := 0; i < 1000; i++ {
			key := rng.Uint64()
			mixed := h.mix(j, key)
			assert.Equal(t, key, h.unmix(j, mixed))
		}
	}
}

func TestInsertAndLookupSingleKey(t *testing.T) {
	h := newTestHash()
	c := h.Insert(12345, 1)
	assert.EqualValues(t, 1, c)
	c = h.Insert(12345, 2)
	assert.EqualValues(t, 3, c)
	count, ok := h.Lookup(12345)
	assert.True(t, ok)
	assert.EqualValues(t, 3, count)
}

func TestInsertDistinctKeysPreservesCounts(t *testing.T) {
	h := newTestHash()
	want := make(map[uint64]uint32)
	rng := rand.New(rand.NewSource(3))
	for i := 0; i < 2000; i++ {
		key := rng.Uint64()
		if _, dup := want[key]; dup {
			continue
		}
		want[key] = 1
		h.Insert(key, 1)
	}
	entries := h.Sort()
	got := make(map[uint64]uint32, len(entries))
	for _, e := range entries {
		got[e.Key] = e.Count
	}
	for k, v := range want {
		assert.Equal(t, v, got[k], "key=%d", k)
	}
	assert.EqualValues(t, len(want), h.Size())
}

func TestSortReturnsAscendingKeys(t *testing.T) {
	h := newTestHash()
	keys := []uint64{500, 1, 999999, 42, 7}
	for _, k := range keys {
		h.Insert(k, 1)
	}
	entries := h.Sort()
	require.Len(t, entries, len(keys))
	for i := 1; i < len(entries); i++ {
		assert.LessOrEqual(t, entries[i-1].Key, entries[i].Key)
	}
}

func TestConcurrentInsertsPreserveTotalCount(t *testing.T) {
	h := newTestHash()
	const nKeys = 200
	const incsPerKey = 50
	var wg sync.WaitGroup
	for g := 0; g < 10; g++ {
		wg.Add(1)
		go func(base int) {
			defer wg.Done()
			for i := 0; i < nKeys*incsPerKey/10; i++ {
				key := uint64(base*1000 + i%nKeys)
				h.Insert(key, 1)
			}
		}(g)
	}
	wg.Wait()

	entries := h.Sort()
	var total uint64
	for _, e := range entries {
		total += uint64(e.Count)
	}
	assert.EqualValues(t, 10*(nKeys*incsPerKey/10), total)
}

func TestSingleWaySpillsImmediatelyOnCollision(t *testing.T) {
	h := New(Options{SlotBits: slotBitsFixed, Ways: 1, LockBits: 4, MaxSteps: 8, Seed: 1})
	h.Insert(1, 1)
	h.Insert(2, 1)
	h.Insert(1, 5)
	count, ok := h.Lookup(1)
	if ok {
		assert.EqualValues(t, 6, count)
	} else {
		h.spillMu.Lock()
		assert.EqualValues(t, 6, h.spill[1])
		h.spillMu.Unlock()
	}
}
