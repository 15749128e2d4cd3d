package xfs

import (
	"encoding/binary"
	"math/bits"
)

// -----------------------------------------------------------------------------

// RoundFunc is the keyed mixing function F applied to the right half in every round. It must write
// HalfBlockSize bytes to dst, computed from an 8-byte half and a 16-byte subkey. It does not need to
// be invertible, and it must not keep references to its arguments.
type RoundFunc func(dst, half, subkey []byte)

// -----------------------------------------------------------------------------

// sbox is the AES substitution table. It is filled once by init and only read afterward.
var sbox [256]byte

// -----------------------------------------------------------------------------

func init() {
	for idx := 0; idx < 256; idx++ {
		sbox[idx] = affineTransform(gfInverse(byte(idx)))
	}
}

// MixRound is the default round function: XOR with the low half of the subkey, byte substitution,
// rotation, XOR with the high half of the subkey and a multiplicative diffusion step.
func MixRound(dst, half, subkey []byte) {
	var buf [HalfBlockSize]byte

	x := binary.BigEndian.Uint64(half) ^ binary.BigEndian.Uint64(subkey[:8])

	binary.BigEndian.PutUint64(buf[:], x)
	for idx := range buf {
		buf[idx] = sbox[buf[idx]]
	}
	x = binary.BigEndian.Uint64(buf[:])

	x = bits.RotateLeft64(x, 19) ^ binary.BigEndian.Uint64(subkey[8:16])
	x *= 0x9E3779B97F4A7C15
	x ^= x >> 29

	binary.BigEndian.PutUint64(dst[:HalfBlockSize], x)
}

func gfMultiply(a, b byte) byte {
	var result byte

	for b != 0 {
		if b&1 != 0 {
			result ^= a
		}
		highBit := a & 0x80
		a <<= 1
		if highBit != 0 {
			a ^= 0x1B // x^8 + x^4 + x^3 + x + 1
		}
		b >>= 1
	}
	return result
}

// gfInverse computes a^254, the multiplicative inverse in GF(2^8). Zero maps to zero.
func gfInverse(a byte) byte {
	result := byte(1)
	for exp := 254; exp > 0; exp >>= 1 {
		if exp&1 != 0 {
			result = gfMultiply(result, a)
		}
		a = gfMultiply(a, a)
	}
	return result
}

func affineTransform(b byte) byte {
	return b ^ bits.RotateLeft8(b, 1) ^ bits.RotateLeft8(b, 2) ^ bits.RotateLeft8(b, 3) ^
		bits.RotateLeft8(b, 4) ^ 0x63
}
