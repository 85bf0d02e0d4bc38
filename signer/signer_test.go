package signer

import (
	"crypto/sha256"
	"encoding/hex"
	"testing"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/gdkwallet/ctcrypto/walleterr"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func keyFromByte(b byte) [32]byte {
	var k [32]byte
	k[31] = b

	return k
}

func pubOf(t require.TestingT, priv [32]byte) []byte {
	key, _ := btcec.PrivKeyFromBytes(priv[:])
	require.NotNil(t, key)

	return key.PubKey().SerializeCompressed()
}

// TestSignRFC6979Vector checks the deterministic signature of a published
// key and message pair.
func TestSignRFC6979Vector(t *testing.T) {
	t.Parallel()

	priv := keyFromByte(1)
	hash := sha256.Sum256([]byte("Satoshi Nakamoto"))

	sig, err := Sign(priv, hash, false)
	require.NoError(t, err)
	require.Equal(t,
		"934b1ea10a4b3c1757e2b0c017d0b6143ce3c9a7e6a4a49860d7a6ab210ee3d8"+
			"2442ce9d2b916064108014783e923ec36b49743e2ffa1c4496f01a512aafd9e5",
		hex.EncodeToString(sig[:]),
	)
	require.True(t, Verify(pubOf(t, priv), hash, sig))

	again, err := Sign(priv, hash, false)
	require.NoError(t, err)
	require.Equal(t, sig, again)
}

// TestSignLowR checks that grinding yields a low r that still verifies and
// that grinding is deterministic.
func TestSignLowR(t *testing.T) {
	t.Parallel()

	priv := keyFromByte(1)
	hash := sha256.Sum256([]byte("Satoshi Nakamoto"))

	sig, err := Sign(priv, hash, true)
	require.NoError(t, err)
	require.True(t, sig.IsLowR())
	require.True(t, Verify(pubOf(t, priv), hash, sig))

	der, err := ToDERNoSighash(sig)
	require.NoError(t, err)
	require.LessOrEqual(t, len(der), 70)

	again, err := Sign(priv, hash, true)
	require.NoError(t, err)
	require.Equal(t, sig, again)
}

// TestSignVerifyBitFlip checks that signatures verify and that flipping any
// single bit of the signature or the hash breaks them.
func TestSignVerifyBitFlip(t *testing.T) {
	t.Parallel()

	rapid.Check(t, func(t *rapid.T) {
		var priv, hash [32]byte
		copy(priv[:], rapid.SliceOfN(rapid.Byte(), 32, 32).Draw(t, "priv"))
		copy(hash[:], rapid.SliceOfN(rapid.Byte(), 32, 32).Draw(t, "hash"))
		lowR := rapid.Bool().Draw(t, "lowR")

		sig, err := Sign(priv, hash, lowR)
		if err != nil {
			// Only keys outside the valid range are refused.
			require.ErrorIs(t, err, walleterr.ErrInvalidKey)
			return
		}

		pub := pubOf(t, priv)
		require.True(t, Verify(pub, hash, sig))

		bit := rapid.IntRange(0, 64*8-1).Draw(t, "sigBit")
		flipped := sig
		flipped[bit/8] ^= 1 << (bit % 8)
		require.False(t, Verify(pub, hash, flipped))

		bit = rapid.IntRange(0, 32*8-1).Draw(t, "hashBit")
		flippedHash := hash
		flippedHash[bit/8] ^= 1 << (bit % 8)
		require.False(t, Verify(pub, flippedHash, sig))
	})
}

// TestVerifyRejectsMalformed checks that bad keys and out of range values
// are reported as false rather than errors.
func TestVerifyRejectsMalformed(t *testing.T) {
	t.Parallel()

	priv := keyFromByte(7)
	hash := sha256.Sum256([]byte("msg"))

	sig, err := Sign(priv, hash, false)
	require.NoError(t, err)

	require.False(t, Verify([]byte{0x02, 0x01}, hash, sig))

	var zero Signature
	require.False(t, Verify(pubOf(t, priv), hash, zero))

	// The high-S twin of a valid signature is refused.
	r, s, err := sig.scalars()
	require.NoError(t, err)
	s.Negate()
	require.False(t, Verify(pubOf(t, priv), hash, NewSignature(&r, &s)))
}

// TestRecoverCompact checks that the ground recovery id matches the one the
// signer produced, and that an unrelated key is refused.
func TestRecoverCompact(t *testing.T) {
	t.Parallel()

	rapid.Check(t, func(t *rapid.T) {
		priv := keyFromByte(rapid.ByteRange(1, 255).Draw(t, "key"))
		var hash [32]byte
		copy(hash[:], rapid.SliceOfN(rapid.Byte(), 32, 32).Draw(t, "hash"))

		rsig, err := SignRecoverable(priv, hash, true)
		require.NoError(t, err)
		require.True(t, rsig.Compressed())
		require.Less(t, rsig.RecoveryID(), byte(4))

		recID, got, err := RecoverCompact(
			rsig.Signature(), hash, pubOf(t, priv),
		)
		require.NoError(t, err)
		require.Equal(t, rsig.RecoveryID(), recID)
		require.Equal(t, rsig, got)

		pub, compressed, err := RecoverPubKey(rsig, hash)
		require.NoError(t, err)
		require.True(t, compressed)
		require.Equal(t, pubOf(t, priv), pub.SerializeCompressed())
	})

	priv := keyFromByte(3)
	hash := sha256.Sum256([]byte("msg"))
	sig, err := Sign(priv, hash, false)
	require.NoError(t, err)

	_, _, err = RecoverCompact(sig, hash, pubOf(t, keyFromByte(4)))
	require.ErrorIs(t, err, walleterr.ErrInvalidSignature)
}

// TestSchnorr checks BIP340 signing against verification.
func TestSchnorr(t *testing.T) {
	t.Parallel()

	priv := keyFromByte(9)
	hash := sha256.Sum256([]byte("schnorr"))

	sig, err := SignSchnorr(priv, hash)
	require.NoError(t, err)

	pub, err := XOnlyPubKey(priv)
	require.NoError(t, err)
	require.True(t, VerifySchnorr(pub[:], hash, sig[:]))

	sig[0] ^= 0x01
	require.False(t, VerifySchnorr(pub[:], hash, sig[:]))
	require.False(t, VerifySchnorr(pub[:31], hash, sig[:]))
}

// TestSignMessage checks that the signer of a message can be recovered.
func TestSignMessage(t *testing.T) {
	t.Parallel()

	priv := keyFromByte(5)
	msg := []byte("hello world")

	rsig, err := SignMessage(priv, msg)
	require.NoError(t, err)

	pub, compressed, err := RecoverMessagePubKey(rsig, msg)
	require.NoError(t, err)
	require.True(t, compressed)
	require.Equal(t, pubOf(t, priv), pub.SerializeCompressed())

	other, _, err := RecoverMessagePubKey(rsig, []byte("hello there"))
	if err == nil {
		require.NotEqual(t, pubOf(t, priv), other.SerializeCompressed())
	}
}

func TestSignRejectsInvalidKey(t *testing.T) {
	t.Parallel()

	var zero [32]byte
	_, err := Sign(zero, [32]byte{}, false)
	require.ErrorIs(t, err, walleterr.ErrInvalidKey)
}
