// Package kmer implements the 2-bit DNA k-mer encoding the rest of
// gossamer builds on: packing, canonicalisation, reverse complement, and
// incremental scanning of a base sequence into a stream of k-mers.
//
// A k-mer of length K is encoded as a K*2-bit unsigned integer, successive
// bases occupying successive 2-bit fields from the high end: A=00, C=01,
// G=10, T=11. This mirrors the encoding fusion/kmer.go uses for its Kmer
// type, generalised here to a configurable length (up to MaxK) instead of a
// fixed 32 bases.
package kmer

import (
	"github.com/grailbio/base/errors"
	gunsafe "github.com/grailbio/base/unsafe"
)

// T is a packed k-mer (or, read as a (k+1)-mer, an Edge value). The
// backing word is 64 bits, so K (or K+1 for an edge) must not exceed 32.
type T uint64

// MaxK is the largest k-mer length this module can pack into a 64-bit
// word: 32 bases of 2 bits each, less one so that K+1 (an edge) still
// fits. See SPEC_FULL.md's "128-bit k-mer interop" open-question
// resolution: this module does not implement the 128-bit variant.
const MaxK = 31

const invalidBase = uint8(255)

var baseValue [256]uint8
var baseValueRC [256]uint8
var baseChar = [4]byte{'A', 'C', 'G', 'T'}

func init() {
	for i := range baseValue {
		baseValue[i] = invalidBase
		baseValueRC[i] = invalidBase
	}
	set := func(ch byte, v, rc uint8) {
		baseValue[ch] = v
		baseValueRC[ch] = rc
	}
	set('A', 0, 3)
	set('a', 0, 3)
	set('C', 1, 2)
	set('c', 1, 2)
	set('G', 2, 1)
	set('g', 2, 1)
	set('T', 3, 0)
	set('t', 3, 0)
}

// mask returns the bitmask covering the low 2*n bits.
func mask(n int) T {
	if n >= 32 {
		return ^T(0)
	}
	return (T(1) << uint(2*n)) - 1
}

// UniverseSize returns 4^n, the number of distinct n-base k-mers (an
// edge's universe is UniverseSize(k+1)). At n=32 the true value is
// 2^64, one past the largest representable uint64, so this saturates
// to the largest representable uint64 instead of silently wrapping to
// 0 the way a plain `1 << (2*n)` would at that shift width; callers
// that receive the saturated value treat it as "every uint64 value is
// a valid position" rather than as a literal exclusive bound.
func UniverseSize(n int) uint64 {
	if n >= 32 {
		return ^uint64(0)
	}
	return uint64(1) << uint(2*n)
}

// Encode packs the first n bytes of seq into a T, returning ok=false if any
// byte outside {A,C,G,T,a,c,g,t} is encountered.
func Encode(seq []byte) (v T, ok bool) {
	for _, ch := range seq {
		b := baseValue[ch]
		if b == invalidBase {
			return 0, false
		}
		v = (v << 2) | T(b)
	}
	return v, true
}

// EncodeString is the zero-copy string counterpart of Encode, mirroring
// fusion/kmer.go's asciiToKmer which operates on the byte view of a string
// obtained from grailbio/base/unsafe.
func EncodeString(seq string) (v T, ok bool) {
	return Encode(gunsafe.StringToBytes(seq))
}

// Decode unpacks v into its n-base ASCII representation.
func Decode(v T, n int) []byte {
	out := make([]byte, n)
	for i := n - 1; i >= 0; i-- {
		out[i] = baseChar[v&3]
		v >>= 2
	}
	return out
}

// ReverseComplement returns the reverse complement of the n-base k-mer v:
// reverse the base order and complement each 2-bit field (XOR with 3 per
// base, equivalently XOR the whole packed value with the all-ones mask of
// width 2n after reversing). This mirrors biosimd's ReverseComp2* family,
// which reverses bytes and XORs a constant; here the "bytes" are 2-bit
// fields packed into one word, so the loop does the same operation with
// explicit field-at-a-time shifts.
func ReverseComplement(v T, n int) T {
	var out T
	for i := 0; i < n; i++ {
		out = (out << 2) | (^v & 3)
		v >>= 2
	}
	return out
}

// Canonical returns v if it is <= its reverse complement, else the reverse
// complement. A k-mer is canonical by this definition (spec.md Data Model).
func Canonical(v T, n int) T {
	rc := ReverseComplement(v, n)
	if v <= rc {
		return v
	}
	return rc
}

// IsCanonical reports whether v is its own canonical form.
func IsCanonical(v T, n int) bool {
	return v <= ReverseComplement(v, n)
}

// Validate checks that k is an odd integer in the supported range, as
// required of a Graph's K (spec.md Data Model: "k: odd integer, 15 <= k <=
// MaxK").
func Validate(k int) error {
	if k > MaxK {
		return errors.E(errors.ResourcesExhausted, "k exceeds MaxK:", k)
	}
	if k < 15 {
		return errors.E(errors.Invalid, "k below minimum of 15:", k)
	}
	if k%2 == 0 {
		return errors.E(errors.Invalid, "k must be odd:", k)
	}
	return nil
}

// Scanner incrementally emits the k-mers of a sequence, maintaining the
// forward and reverse-complement encodings together so that advancing by
// one base is O(1); this is the same rolling-window trick fusion/kmer.go's
// kmerizer uses (Scan's fast path updates k.cur.forward/reverseComplement
// directly instead of re-encoding the whole window).
type Scanner struct {
	k    int
	mask T

	seq string
	pos int

	cur          T
	curRC        T
	windowFilled int
}

// NewScanner creates a Scanner for k-mers of length k.
func NewScanner(k int) *Scanner {
	return &Scanner{k: k, mask: mask(k)}
}

// Reset begins scanning a new sequence from position 0.
func (s *Scanner) Reset(seq string) {
	s.seq = seq
	s.pos = 0
	s.windowFilled = 0
}

// Scan advances to the next valid k-mer, skipping over any run containing a
// non-ACGT byte (spec.md External Interfaces: "a k-mer spanning a non-base
// is skipped"). It returns false once the sequence is exhausted.
func (s *Scanner) Scan() (pos int, forward, revComp T, ok bool) {
	for s.pos < len(s.seq) {
		ch := s.seq[s.pos]
		b := baseValue[ch]
		if b == invalidBase {
			s.pos++
			s.windowFilled = 0
			continue
		}
		rc := baseValueRC[ch]
		s.cur = ((s.cur << 2) | T(b)) & s.mask
		shift := uint(2 * (s.k - 1))
		s.curRC = (s.curRC >> 2) | (T(rc) << shift)
		s.pos++
		if s.windowFilled < s.k {
			s.windowFilled++
		}
		if s.windowFilled == s.k {
			return s.pos - s.k, s.cur, s.curRC, true
		}
	}
	return 0, 0, 0, false
}
