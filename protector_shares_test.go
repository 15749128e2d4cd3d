package cryptodb_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/mxmauro/cryptodb"
	"github.com/mxmauro/cryptodb/crypto/ciphers"
	"github.com/stretchr/testify/require"
)

// -----------------------------------------------------------------------------

func TestKeySharesRoundTrip(t *testing.T) {
	p := createProtector(t, nil)

	t.Log("Generating a key split in 5 shares with a threshold of 3...")
	keyID, shares, err := p.GenerateKeyShares(ciphers.EngineXfsCbc, 5, 3)
	require.NoError(t, err)
	require.NotEqual(t, uuid.Nil, keyID)
	require.Len(t, shares, 5)

	activeKeyID, ok := p.ActiveKeyID()
	require.True(t, ok)
	require.Equal(t, keyID, activeKeyID)

	t.Log("Sealing plaintext with the split key...")
	sealed, err := p.Seal(plaintextSample)
	require.NoError(t, err)

	for _, subset := range [][][]byte{
		{shares[0], shares[1], shares[2]},
		{shares[4], shares[2], shares[1]},
		{shares[0], shares[1], shares[2], shares[3], shares[4]},
	} {
		t.Logf("Restoring the key from %d shares on a new protector...", len(subset))
		p2 := createProtector(t, nil)

		restoredKeyID, err := p2.AddKeyFromShares(ciphers.EngineXfsCbc, subset)
		require.NoError(t, err)
		require.Equal(t, keyID, restoredKeyID)

		activeKeyID, ok = p2.ActiveKeyID()
		require.True(t, ok)
		require.Equal(t, keyID, activeKeyID)

		plaintext, err := p2.Open(sealed)
		require.NoError(t, err)
		require.Equal(t, plaintextSample, plaintext, errTestMismatch)

		p2.Destroy()
	}

	p.Destroy()
}

func TestKeySharesBelowThreshold(t *testing.T) {
	p := createProtector(t, nil)

	_, shares, err := p.GenerateKeyShares(ciphers.EngineXfsCbc, 5, 3)
	require.NoError(t, err)

	t.Log("Restoring the key from 2 shares (expected to fail)...")
	p2 := createProtector(t, nil)
	_, err = p2.AddKeyFromShares(ciphers.EngineXfsCbc, shares[:2])
	require.ErrorIs(t, err, cryptodb.ErrInvalidKeyShares)
	require.Empty(t, p2.KeyIDs())

	t.Log("Restoring the key from no shares (expected to fail)...")
	_, err = p2.AddKeyFromShares(ciphers.EngineXfsCbc, nil)
	require.ErrorIs(t, err, cryptodb.ErrInvalidKeyShares)
	require.Empty(t, p2.KeyIDs())
}

func TestSingleKeyShare(t *testing.T) {
	p := createProtector(t, nil)

	keyID, shares, err := p.GenerateKeyShares(ciphers.EngineAesCbc, 1, 1)
	require.NoError(t, err)
	require.Len(t, shares, 1)

	sealed, err := p.Seal(plaintextSample)
	require.NoError(t, err)

	p2 := createProtector(t, nil)
	restoredKeyID, err := p2.AddKeyFromShares(ciphers.EngineAesCbc, shares)
	require.NoError(t, err)
	require.Equal(t, keyID, restoredKeyID)

	plaintext, err := p2.Open(sealed)
	require.NoError(t, err)
	require.Equal(t, plaintextSample, plaintext, errTestMismatch)
}

func TestInvalidShareParameters(t *testing.T) {
	p := createProtector(t, nil)

	for _, params := range [][2]int{
		{0, 0},
		{1, 2},
		{2, 1},
		{3, 4},
		{256, 2},
		{-1, 1},
	} {
		_, _, err := p.GenerateKeyShares(ciphers.EngineXfsCbc, params[0], params[1])
		require.ErrorIs(t, err, cryptodb.ErrInvalidShareParameters, "shares=%d threshold=%d", params[0], params[1])
	}
	require.Empty(t, p.KeyIDs())

	_, _, err := p.GenerateKeyShares("rot13", 3, 2)
	require.ErrorIs(t, err, cryptodb.ErrEngineNotSupported)
}

func TestKeySharesRestoreMismatches(t *testing.T) {
	p := createProtector(t, nil)

	keyID, shares, err := p.GenerateKeyShares(ciphers.EngineXfsCbc, 3, 2)
	require.NoError(t, err)

	t.Log("Restoring the key with another engine (expected to fail)...")
	p2 := createProtector(t, nil)
	_, err = p2.AddKeyFromShares(ciphers.EngineAesCbc, shares[:2])
	require.ErrorIs(t, err, cryptodb.ErrInvalidKeyShares)

	t.Log("Restoring the key twice (expected to fail)...")
	_, err = p2.AddKeyFromShares(ciphers.EngineXfsCbc, shares[1:])
	require.NoError(t, err)
	_, err = p2.AddKeyFromShares(ciphers.EngineXfsCbc, shares[:2])
	require.ErrorIs(t, err, cryptodb.ErrDuplicatedKeyID)
	require.Equal(t, []uuid.UUID{keyID}, p2.KeyIDs())

	t.Log("Restoring from a corrupted single share (expected to fail)...")
	p3 := createProtector(t, nil)
	_, err = p3.AddKeyFromShares(ciphers.EngineXfsCbc, [][]byte{[]byte("not a key share")})
	require.ErrorIs(t, err, cryptodb.ErrInvalidKeyShares)
}
