// Package xfs implements XFS, a 128-bit Feistel block cipher with a variable number of rounds.
package xfs

import (
	"crypto/cipher"

	"github.com/mxmauro/cryptodb/util"
)

// -----------------------------------------------------------------------------

const (
	// BlockSize is the XFS block size in bytes.
	BlockSize = 16
	// HalfBlockSize is the size of each Feistel half.
	HalfBlockSize = BlockSize / 2
	// SubkeySize is the size of every round subkey.
	SubkeySize = 16

	// MaxKeySize is the longest key accepted by the key schedule.
	MaxKeySize = 64

	// DefaultRounds is the recommended number of rounds.
	DefaultRounds = 16
	// MaxRounds is the hard ceiling on the number of rounds.
	MaxRounds = 32
)

// -----------------------------------------------------------------------------

// Context holds an expanded XFS key. It is immutable after construction, so a single Context can
// be shared by concurrent Encrypt and Decrypt calls. Zeroize must not race with them.
type Context struct {
	rounds    int
	roundKeys [][]byte
	f         RoundFunc
}

var _ cipher.Block = (*Context)(nil)

// -----------------------------------------------------------------------------

// New expands key into a Context with the given number of rounds, using MixRound as round function.
func New(key []byte, rounds int) (*Context, error) {
	return NewWithRoundFunc(key, rounds, MixRound)
}

// NewWithRoundFunc is like New but uses a custom round function. A nil f selects MixRound.
func NewWithRoundFunc(key []byte, rounds int, f RoundFunc) (*Context, error) {
	if f == nil {
		f = MixRound
	}

	roundKeys, err := ExpandKey(key, rounds)
	if err != nil {
		return nil, err
	}

	// Done
	return &Context{
		rounds:    rounds,
		roundKeys: roundKeys,
		f:         f,
	}, nil
}

// Rounds returns the number of Feistel rounds.
func (c *Context) Rounds() int {
	return c.rounds
}

// RoundKeys returns a copy of the round subkeys, in application order.
func (c *Context) RoundKeys() [][]byte {
	list := make([][]byte, len(c.roundKeys))
	for idx, rk := range c.roundKeys {
		list[idx] = util.CloneBytes(rk)
	}
	return list
}

// BlockSize returns the XFS block size. It implements cipher.Block.
func (c *Context) BlockSize() int {
	return BlockSize
}

// Encrypt encrypts the first block of src into dst. Dst and src may overlap entirely.
//
// Every round computes R' = L xor F(R, k), L' = R. The halves are concatenated after the last
// round without a final swap.
func (c *Context) Encrypt(dst, src []byte) {
	var l, r, t [HalfBlockSize]byte

	c.checkBuffers(dst, src)

	copy(l[:], src[:HalfBlockSize])
	copy(r[:], src[HalfBlockSize:BlockSize])
	for idx := 0; idx < c.rounds; idx++ {
		c.f(t[:], r[:], c.roundKeys[idx])
		xorHalf(&t, &l)
		l = r
		r = t
	}
	copy(dst[:HalfBlockSize], l[:])
	copy(dst[HalfBlockSize:BlockSize], r[:])

	clearHalves(&l, &r, &t)
}

// Decrypt decrypts the first block of src into dst. Dst and src may overlap entirely.
//
// Rounds are undone in reverse subkey order: R = L', L = R' xor F(L', k).
func (c *Context) Decrypt(dst, src []byte) {
	var l, r, t [HalfBlockSize]byte

	c.checkBuffers(dst, src)

	copy(l[:], src[:HalfBlockSize])
	copy(r[:], src[HalfBlockSize:BlockSize])
	for idx := c.rounds - 1; idx >= 0; idx-- {
		c.f(t[:], l[:], c.roundKeys[idx])
		xorHalf(&t, &r)
		r = l
		l = t
	}
	copy(dst[:HalfBlockSize], l[:])
	copy(dst[HalfBlockSize:BlockSize], r[:])

	clearHalves(&l, &r, &t)
}

// Zeroize wipes the round subkeys. Any later Encrypt or Decrypt call panics.
func (c *Context) Zeroize() {
	util.SafeZeroMemArray(c.roundKeys)
	c.roundKeys = nil
	c.rounds = 0
}

func (c *Context) checkBuffers(dst, src []byte) {
	if c.roundKeys == nil {
		panic("xfs: use of zeroized context")
	}
	if len(src) < BlockSize {
		panic("xfs: input not full block")
	}
	if len(dst) < BlockSize {
		panic("xfs: output not full block")
	}
}

func xorHalf(dst *[HalfBlockSize]byte, v *[HalfBlockSize]byte) {
	for idx := range dst {
		dst[idx] ^= v[idx]
	}
}

func clearHalves(halves ...*[HalfBlockSize]byte) {
	for _, h := range halves {
		util.SafeZeroMem(h[:])
	}
}
