package keychain

import (
	"encoding/hex"
	"errors"
	"testing"

	"github.com/gdkwallet/ctcrypto/walleterr"
	"github.com/stretchr/testify/require"
)

const (
	wifTestKey = "0c28fca386c7a227600b2fe50b7cae11ec86d3bf1fbe471be89827e19d72aa1d"

	wifUncompressed = "5HueCGU8rMjxEXxiPuD5BDku4MkFqeZyd4dZ1jvhTVqvbTLvyTJ"
	wifCompressed   = "KwdMAjGmerYanjeui5SHS7JkmpZvVipYvB2LJGU1ZxJwYvP98617"

	bip38Encrypted  = "6PRVWUbkzzsbcVac2qwfssoUJAN1Xhrg6bNk8J7Nzm5H7kxEbn2Nh2ZoGg"
	bip38Passphrase = "TestingOneTwoThree"
	bip38Key        = "cbf4b9f70470856bb4f40f80b87edb90865997ffee6df315ab166d713af433a5"
)

func mustKey(t *testing.T, s string) [32]byte {
	t.Helper()

	raw, err := hex.DecodeString(s)
	require.NoError(t, err)
	require.Len(t, raw, 32)

	var k [32]byte
	copy(k[:], raw)

	return k
}

// TestImportWIF checks both WIF lengths and the network check.
func TestImportWIF(t *testing.T) {
	t.Parallel()

	want := mustKey(t, wifTestKey)

	imported, err := ImportPrivateKey(wifUncompressed, "", true)
	require.NoError(t, err)
	require.Equal(t, want, [32]byte(imported.Key))
	require.False(t, imported.Compressed)

	imported, err = ImportPrivateKey(wifCompressed, "", true)
	require.NoError(t, err)
	require.Equal(t, want, [32]byte(imported.Key))
	require.True(t, imported.Compressed)

	_, err = ImportPrivateKey(wifCompressed, "", false)
	require.ErrorIs(t, err, walleterr.ErrInvalidPrivateKey)

	imported.Zero()
	require.True(t, imported.Key.IsZero())
}

// TestImportBIP38 decrypts the published non-EC-multiply vector.
func TestImportBIP38(t *testing.T) {
	t.Parallel()

	imported, err := ImportPrivateKey(bip38Encrypted, bip38Passphrase, true)
	require.NoError(t, err)
	require.Equal(t, mustKey(t, bip38Key), [32]byte(imported.Key))
	require.False(t, imported.Compressed)

	_, err = ImportPrivateKey(bip38Encrypted, "wrong", true)
	require.ErrorIs(t, err, walleterr.ErrInvalidPrivateKey)
}

// TestBIP38RoundTrip encrypts and decrypts in both address forms and on both
// networks.
func TestBIP38RoundTrip(t *testing.T) {
	t.Parallel()

	key := mustKey(t, wifTestKey)
	for _, compressed := range []bool{false, true} {
		for _, mainnet := range []bool{false, true} {
			encoded, err := BIP38Encrypt(
				key, "Satoshi", compressed, mainnet,
			)
			require.NoError(t, err)
			require.Len(t, encoded, BIP38EncodedLen)
			require.Equal(t, "6P", encoded[:2])

			priv, gotCompressed, err := BIP38Decrypt(
				encoded, "Satoshi", mainnet,
			)
			require.NoError(t, err)
			require.Equal(t, key, [32]byte(priv))
			require.Equal(t, compressed, gotCompressed)

			// The address hash binds the network.
			_, _, err = BIP38Decrypt(encoded, "Satoshi", !mainnet)
			require.ErrorIs(t, err, walleterr.ErrInvalidPrivateKey)
		}
	}
}

// TestImportExtendedKey checks that an xprv yields its key, reported as
// uncompressed, and that public keys are refused.
func TestImportExtendedKey(t *testing.T) {
	t.Parallel()

	seed, err := hex.DecodeString(bip32Vector1.seed)
	require.NoError(t, err)

	master, err := FromSeed(seed, VersionMainnetPrivate)
	require.NoError(t, err)

	imported, err := ImportPrivateKey(master.String(), "", true)
	require.NoError(t, err)
	require.False(t, imported.Compressed)

	want, err := master.PrivKey().UnwrapOrErr(errors.New("no key"))
	require.NoError(t, err)
	require.Equal(t, want, imported.Key)

	// An xpub is neither an extended private key nor of a WIF or BIP38
	// length.
	_, err = ImportPrivateKey(bip32Vector1.steps[0].xpub, "", true)
	require.ErrorIs(t, err, walleterr.ErrInvalidPrivateKey)

	_, err = ImportPrivateKey("not a key", "", true)
	require.ErrorIs(t, err, walleterr.ErrInvalidPrivateKey)
}
