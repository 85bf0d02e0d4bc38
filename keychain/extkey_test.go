package keychain

import (
	"encoding/hex"
	"errors"
	"testing"

	"github.com/gdkwallet/ctcrypto/walleterr"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

// bip32Vector1 is the first published BIP32 test chain.
var bip32Vector1 = struct {
	seed  string
	steps []struct {
		path string
		xprv string
		xpub string
	}
}{
	seed: "000102030405060708090a0b0c0d0e0f",
	steps: []struct {
		path string
		xprv string
		xpub string
	}{
		{
			path: "m",
			xprv: "xprv9s21ZrQH143K3QTDL4LXw2F7HEK3wJUD2nW2nRk4stbPy6cq3jPPqjiChkVvvNKmPGJxWUtg6LnF5kejMRNNU3TGtRBeJgk33yuGBxrMPHi",
			xpub: "xpub661MyMwAqRbcFtXgS5sYJABqqG9YLmC4Q1Rdap9gSE8NqtwybGhePY2gZ29ESFjqJoCu1Rupje8YtGqsefD265TMg7usUDFdp6W1EGMcet8",
		},
		{
			path: "m/0H",
			xprv: "xprv9uHRZZhk6KAJC1avXpDAp4MDc3sQKNxDiPvvkX8Br5ngLNv1TxvUxt4cV1rGL5hj6KCesnDYUhd7oWgT11eZG7XnxHrnYeSvkzY7d2bhkJ7",
			xpub: "xpub68Gmy5EdvgibQVfPdqkBBCHxA5htiqg55crXYuXoQRKfDBFA1WEjWgP6LHhwBZeNK1VTsfTFUHCdrfp1bgwQ9xv5ski8PX9rL2dZXvgGDnw",
		},
		{
			path: "m/0'/1",
			xprv: "xprv9wTYmMFdV23N2TdNG573QoEsfRrWKQgWeibmLntzniatZvR9BmLnvSxqu53Kw1UmYPxLgboyZQaXwTCg8MSY3H2EU4pWcQDnRnrVA1xe8fs",
			xpub: "xpub6ASuArnXKPbfEwhqN6e3mwBcDTgzisQN1wXN9BJcM47sSikHjJf3UFHKkNAWbWMiGj7Wf5uMash7SyYq527Hqck2AxYysAA7xmALppuCkwQ",
		},
	},
}

// TestBIP32Vector1 derives the published chain from its seed and checks both
// the private and public serializations at each step.
func TestBIP32Vector1(t *testing.T) {
	t.Parallel()

	seed, err := hex.DecodeString(bip32Vector1.seed)
	require.NoError(t, err)

	master, err := FromSeed(seed, VersionMainnetPrivate)
	require.NoError(t, err)

	for _, step := range bip32Vector1.steps {
		path, err := ParsePath(step.path)
		require.NoError(t, err)

		priv, err := DerivePath(master, path, false)
		require.NoError(t, err)
		require.Equal(t, step.xprv, priv.String(), step.path)
		require.True(t, priv.IsPrivate())
		require.EqualValues(t, len(path), priv.Depth())

		pub, err := DerivePath(master, path, true)
		require.NoError(t, err)
		require.Equal(t, step.xpub, pub.String(), step.path)
		require.False(t, pub.IsPrivate())
		require.False(t, pub.PrivKey().IsSome())
		require.Equal(t, priv.PubKey(), pub.PubKey())
	}
}

// TestPublicDerivationMatchesPrivate checks that deriving a non-hardened
// child from the neutered parent gives the neutered child.
func TestPublicDerivationMatchesPrivate(t *testing.T) {
	t.Parallel()

	seed, err := hex.DecodeString(bip32Vector1.seed)
	require.NoError(t, err)

	master, err := FromSeed(seed, VersionMainnetPrivate)
	require.NoError(t, err)

	parent, err := master.Derive(HardenedKeyStart, false)
	require.NoError(t, err)

	parentPub, err := parent.Neuter()
	require.NoError(t, err)

	child, err := DeriveChild(parentPub, 1, true)
	require.NoError(t, err)
	require.Equal(t, bip32Vector1.steps[2].xpub, child.String())
	require.Equal(t, parent.Fingerprint(), child.ParentFingerprint())
	require.EqualValues(t, 1, child.ChildNumber())

	// Hardened children can't be derived from a public parent.
	_, err = parentPub.Derive(HardenedKeyStart+1, true)
	require.ErrorIs(t, err, walleterr.ErrInvalidKey)
}

// TestFromSeedRejects checks the seed length and version bounds.
func TestFromSeedRejects(t *testing.T) {
	t.Parallel()

	_, err := FromSeed(make([]byte, 15), VersionMainnetPrivate)
	require.ErrorIs(t, err, walleterr.ErrInvalidKey)

	_, err = FromSeed(make([]byte, 65), VersionMainnetPrivate)
	require.ErrorIs(t, err, walleterr.ErrInvalidKey)

	_, err = FromSeed(make([]byte, 32), 0xdeadbeef)
	require.ErrorIs(t, err, walleterr.ErrInvalidKey)

	tprv, err := FromSeed(make([]byte, 32), VersionTestnetPrivate)
	require.NoError(t, err)
	require.Equal(t, VersionTestnetPrivate, tprv.Version())
	require.Equal(t, "tprv", tprv.String()[:4])

	tpub, err := tprv.Neuter()
	require.NoError(t, err)
	require.Equal(t, VersionTestnetPublic, tpub.Version())
}

// TestSerializeRoundTrip checks that serialize, parse, serialize is byte
// identical for any seed.
func TestSerializeRoundTrip(t *testing.T) {
	t.Parallel()

	rapid.Check(t, func(t *rapid.T) {
		seed := rapid.SliceOfN(rapid.Byte(), 16, 64).Draw(t, "seed")
		index := rapid.Uint32().Draw(t, "index")

		master, err := FromSeed(seed, VersionMainnetPrivate)
		if errors.Is(err, walleterr.ErrInvalidKey) {
			// An unusable master key is astronomically unlikely.
			t.Skip("unusable master key")
		}
		require.NoError(t, err)

		child, err := master.Derive(index, false)
		require.NoError(t, err)

		for _, key := range []*ExtendedKey{master, child} {
			raw := key.Serialize()

			parsed, err := ParseExtendedKey(raw[:])
			require.NoError(t, err)
			require.Equal(t, raw, parsed.Serialize())
			require.Equal(t, key.String(), parsed.String())

			fromString, err := ParseExtendedKeyString(key.String())
			require.NoError(t, err)
			require.Equal(t, raw, fromString.Serialize())
		}
	})
}

// TestParseExtendedKeyRejects checks malformed serializations.
func TestParseExtendedKeyRejects(t *testing.T) {
	t.Parallel()

	_, err := ParseExtendedKey(make([]byte, 77))
	require.ErrorIs(t, err, walleterr.ErrInvalidKey)

	_, err = ParseExtendedKeyString("xpub-not-base58")
	require.ErrorIs(t, err, walleterr.ErrInvalidKey)
}

// TestMakeXpub checks that a depth zero public key built from the chain code
// and public key of a master key matches its neutered form.
func TestMakeXpub(t *testing.T) {
	t.Parallel()

	seed, err := hex.DecodeString(bip32Vector1.seed)
	require.NoError(t, err)

	master, err := FromSeed(seed, VersionMainnetPrivate)
	require.NoError(t, err)

	xpub := master.Xpub()
	key, err := MakeXpub(xpub.ChainCode, xpub.PubKey, VersionMainnetPublic)
	require.NoError(t, err)
	require.Equal(t, bip32Vector1.steps[0].xpub, key.String())

	var badPub [33]byte
	_, err = MakeXpub(xpub.ChainCode, badPub, VersionMainnetPublic)
	require.ErrorIs(t, err, walleterr.ErrInvalidKey)
}

// TestParsePath checks the accepted hardened markers and rejected input.
func TestParsePath(t *testing.T) {
	t.Parallel()

	path, err := ParsePath("m/44'/1776h/0H/0/1")
	require.NoError(t, err)
	require.Equal(t, []uint32{
		44 + HardenedKeyStart, 1776 + HardenedKeyStart,
		HardenedKeyStart, 0, 1,
	}, path)

	path, err = ParsePath("m")
	require.NoError(t, err)
	require.Empty(t, path)

	for _, bad := range []string{"m/x", "m/-1", "m/2147483648", "m//1"} {
		_, err := ParsePath(bad)
		require.ErrorIs(t, err, ErrInvalidPath, bad)
	}
}
