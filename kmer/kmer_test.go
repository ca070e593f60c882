package kmer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	seqs := []string{"ACGTACGTACGTA", "AAAAAAAAAAAAA", "TTTTTTTTTTTTT", "GATTACAGATTACA"}
	for _, seq := range seqs {
		v, ok := Encode([]byte(seq))
		require.True(t, ok, seq)
		assert.Equal(t, seq, string(Decode(v, len(seq))), seq)
	}
}

func TestEncodeRejectsInvalidBase(t *testing.T) {
	_, ok := Encode([]byte("ACGTN"))
	assert.False(t, ok)
	_, ok = Encode([]byte("acgtn"))
	assert.False(t, ok)
}

func TestReverseComplement(t *testing.T) {
	cases := []struct{ seq, rc string }{
		{"A", "T"},
		{"AC", "GT"},
		{"ACGT", "ACGT"},
		{"GATTACA", "TGTAATC"},
	}
	for _, c := range cases {
		v, ok := Encode([]byte(c.seq))
		require.True(t, ok)
		rc := ReverseComplement(v, len(c.seq))
		assert.Equal(t, c.rc, string(Decode(rc, len(c.seq))), c.seq)
		// Reverse-complementing twice is the identity.
		assert.Equal(t, v, ReverseComplement(rc, len(c.seq)))
	}
}

func TestCanonicalIsMinOfSelfAndRC(t *testing.T) {
	v, _ := Encode([]byte("GATTACA"))
	rc := ReverseComplement(v, 7)
	c := Canonical(v, 7)
	if v < rc {
		assert.Equal(t, v, c)
	} else {
		assert.Equal(t, rc, c)
	}
	assert.True(t, IsCanonical(c, 7))
	assert.Equal(t, c, Canonical(rc, 7))
}

func TestValidate(t *testing.T) {
	assert.NoError(t, Validate(25))
	assert.Error(t, Validate(24), "even k must be rejected")
	assert.Error(t, Validate(14), "below minimum")
	assert.Error(t, Validate(MaxK+2), "above MaxK")
}

func TestScannerSkipsNonBaseRuns(t *testing.T) {
	s := NewScanner(3)
	s.Reset("ACGNTACG")
	var forwards []T
	for {
		_, fwd, _, ok := s.Scan()
		if !ok {
			break
		}
		forwards = append(forwards, fwd)
	}
	// Windows of length 3 not crossing the N: ACG (pos 0), TAC, ACG (pos 5).
	require.Len(t, forwards, 3)
	acg, _ := Encode([]byte("ACG"))
	tac, _ := Encode([]byte("TAC"))
	assert.Equal(t, acg, forwards[0])
	assert.Equal(t, tac, forwards[1])
	assert.Equal(t, acg, forwards[2])
}

func TestScannerForwardMatchesEncode(t *testing.T) {
	seq := "ACGTACGTACGT"
	k := 5
	s := NewScanner(k)
	s.Reset(seq)
	for i := 0; i+k <= len(seq); i++ {
		pos, fwd, rc, ok := s.Scan()
		require.True(t, ok)
		assert.Equal(t, i, pos)
		want, _ := Encode([]byte(seq[i : i+k]))
		assert.Equal(t, want, fwd)
		wantRC := ReverseComplement(want, k)
		assert.Equal(t, wantRC, rc)
	}
	_, _, _, ok := s.Scan()
	assert.False(t, ok)
}

func TestScannerEmptySequence(t *testing.T) {
	s := NewScanner(4)
	s.Reset("")
	_, _, _, ok := s.Scan()
	assert.False(t, ok)
}

func TestScannerShorterThanK(t *testing.T) {
	s := NewScanner(10)
	s.Reset("ACG")
	_, _, _, ok := s.Scan()
	assert.False(t, ok)
}
