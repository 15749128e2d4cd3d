package xfs

import (
	"testing"
)

// -----------------------------------------------------------------------------

func TestSubstitutionTable(t *testing.T) {
	// Known entries of the AES S-box.
	expected := map[byte]byte{
		0x00: 0x63,
		0x01: 0x7C,
		0x53: 0xED,
		0x80: 0xCD,
		0xFF: 0x16,
	}
	for in, out := range expected {
		if sbox[in] != out {
			t.Fatalf("sbox[0x%02X] = 0x%02X, want 0x%02X", in, sbox[in], out)
		}
	}

	t.Log("Verifying the table is a permutation...")
	seen := [256]bool{}
	for _, v := range sbox {
		if seen[v] {
			t.Fatalf("value 0x%02X appears twice", v)
		}
		seen[v] = true
	}
}

func TestMixRoundDependsOnBothHalvesOfTheSubkey(t *testing.T) {
	var base, low, high [HalfBlockSize]byte

	half := []byte("abcdefgh")
	subkey := make([]byte, SubkeySize)

	MixRound(base[:], half, subkey)

	subkey[0] ^= 1
	MixRound(low[:], half, subkey)
	subkey[0] ^= 1

	subkey[15] ^= 1
	MixRound(high[:], half, subkey)

	if base == low || base == high {
		t.Fatal("round function ignored part of the subkey")
	}
}
