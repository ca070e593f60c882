package blendedsort

import (
	"math/rand"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func keysOf(items []Item) []uint64 {
	keys := make([]uint64, len(items))
	for i, it := range items {
		keys[i] = it.Key
	}
	return keys
}

func randomItems(n int, rng *rand.Rand) []Item {
	items := make([]Item, n)
	for i := range items {
		items[i] = Item{Key: rng.Uint64(), Payload: i}
	}
	return items
}

func TestSortSmallInput(t *testing.T) {
	items := []Item{{Key: 3}, {Key: 1}, {Key: 2}}
	Sort(4, items, 64)
	assert.Equal(t, []uint64{1, 2, 3}, keysOf(items))
}

func TestSortEmptyAndSingleton(t *testing.T) {
	var empty []Item
	Sort(4, empty, 64)
	assert.Empty(t, empty)

	single := []Item{{Key: 7}}
	Sort(4, single, 64)
	assert.Equal(t, []uint64{7}, keysOf(single))
}

func TestSortMatchesStandardSortSingleThreaded(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	items := randomItems(5000, rng)
	want := append([]Item(nil), items...)
	sort.Slice(want, func(i, j int) bool { return want[i].Key < want[j].Key })

	Sort(1, items, 64)
	assert.Equal(t, keysOf(want), keysOf(items))
}

func TestSortMatchesStandardSortParallel(t *testing.T) {
	rng := rand.New(rand.NewSource(2))
	items := randomItems(50000, rng)
	want := append([]Item(nil), items...)
	sort.Slice(want, func(i, j int) bool { return want[i].Key < want[j].Key })

	Sort(8, items, 64)
	assert.Equal(t, keysOf(want), keysOf(items))
}

func TestSortPreservesPayloads(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	items := randomItems(2000, rng)
	byKey := make(map[uint64]int)
	for _, it := range items {
		byKey[it.Key] = it.Payload.(int)
	}
	Sort(4, items, 64)
	for _, it := range items {
		assert.Equal(t, byKey[it.Key], it.Payload.(int))
	}
}

func TestSortHandlesDuplicateKeys(t *testing.T) {
	rng := rand.New(rand.NewSource(4))
	items := make([]Item, 3000)
	for i := range items {
		items[i] = Item{Key: uint64(rng.Intn(10)), Payload: i}
	}
	Sort(4, items, 64)
	require.True(t, sort.SliceIsSorted(items, func(i, j int) bool { return items[i].Key < items[j].Key }))
}

func TestSortNarrowKeyBits(t *testing.T) {
	rng := rand.New(rand.NewSource(5))
	items := make([]Item, 2000)
	for i := range items {
		items[i] = Item{Key: uint64(rng.Intn(1 << 20))}
	}
	Sort(4, items, 20)
	require.True(t, sort.SliceIsSorted(items, func(i, j int) bool { return items[i].Key < items[j].Key }))
}
