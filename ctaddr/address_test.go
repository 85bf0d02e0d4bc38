package ctaddr

import (
	"crypto/sha256"
	"strings"
	"testing"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/gdkwallet/ctcrypto/chainreg"
	"github.com/gdkwallet/ctcrypto/confidential"
	"github.com/gdkwallet/ctcrypto/walleterr"
	"github.com/stretchr/testify/require"
	elementsaddr "github.com/vulpemventures/go-elements/address"
	"pgregory.net/rapid"
)

func testPubKey(seed []byte) [PubKeyLen]byte {
	priv := sha256.Sum256(seed)
	_, pub := btcec.PrivKeyFromBytes(priv[:])

	var out [PubKeyLen]byte
	copy(out[:], pub.SerializeCompressed())

	return out
}

// testAddresses returns one address of every kind on params.
func testAddresses(t *testing.T, params *chainreg.NetParams) []string {
	t.Helper()

	hash20 := btcutil.Hash160([]byte("ctaddr"))
	hash32 := sha256.Sum256([]byte("ctaddr"))

	p2pkh, err := btcutil.NewAddressPubKeyHash(hash20, params.Params)
	require.NoError(t, err)
	p2sh, err := btcutil.NewAddressScriptHashFromHash(hash20, params.Params)
	require.NoError(t, err)
	p2wpkh, err := btcutil.NewAddressWitnessPubKeyHash(
		hash20, params.Params,
	)
	require.NoError(t, err)
	p2wsh, err := btcutil.NewAddressWitnessScriptHash(
		hash32[:], params.Params,
	)
	require.NoError(t, err)
	p2tr, err := btcutil.NewAddressTaproot(hash32[:], params.Params)
	require.NoError(t, err)

	return []string{
		p2pkh.EncodeAddress(), p2sh.EncodeAddress(),
		p2wpkh.EncodeAddress(), p2wsh.EncodeAddress(),
		p2tr.EncodeAddress(),
	}
}

// TestRoundTrip encodes and decodes every address kind on every Elements
// network.
func TestRoundTrip(t *testing.T) {
	t.Parallel()

	pub := testPubKey([]byte("blinding"))
	networks := []*chainreg.NetParams{
		&chainreg.LiquidParams, &chainreg.LiquidTestNetParams,
		&chainreg.ElementsRegTestParams,
	}

	for _, params := range networks {
		for _, addr := range testAddresses(t, params) {
			confAddr, err := FromAddress(addr, pub, params)
			require.NoError(t, err, addr)

			segwit := isSegwit(addr, params)
			require.Equal(t, segwit, isBlech32(confAddr, params))
			require.Equal(t, !segwit, IsConfidential(confAddr))

			gotAddr, gotPub, err := ToAddress(confAddr, params)
			require.NoError(t, err, confAddr)
			require.Equal(t, addr, gotAddr)
			require.Equal(t, pub, gotPub)
		}
	}
}

// TestRoundTripProperty checks the base58 and blech32 codecs over random
// hashes and keys.
func TestRoundTripProperty(t *testing.T) {
	t.Parallel()

	params := &chainreg.LiquidParams

	rapid.Check(t, func(t *rapid.T) {
		hash := rapid.SliceOfN(rapid.Byte(), 20, 20).Draw(t, "hash")
		seed := rapid.SliceOf(rapid.Byte()).Draw(t, "seed")
		pub := testPubKey(seed)

		p2pkh, err := btcutil.NewAddressPubKeyHash(hash, params.Params)
		if err != nil {
			t.Fatalf("p2pkh: %v", err)
		}
		p2wpkh, err := btcutil.NewAddressWitnessPubKeyHash(
			hash, params.Params,
		)
		if err != nil {
			t.Fatalf("p2wpkh: %v", err)
		}

		for _, addr := range []string{
			p2pkh.EncodeAddress(), p2wpkh.EncodeAddress(),
		} {
			confAddr, err := FromAddress(addr, pub, params)
			if err != nil {
				t.Fatalf("encode %s: %v", addr, err)
			}

			gotAddr, gotPub, err := ToAddress(confAddr, params)
			if err != nil {
				t.Fatalf("decode %s: %v", confAddr, err)
			}
			if gotAddr != addr || gotPub != pub {
				t.Fatalf("round trip of %s gave %s", addr, gotAddr)
			}
		}
	})
}

// TestDecodeRejects covers malformed confidential addresses.
func TestDecodeRejects(t *testing.T) {
	t.Parallel()

	params := &chainreg.LiquidParams
	pub := testPubKey([]byte("blinding"))
	addrs := testAddresses(t, params)

	base58Addr, err := Encode(addrs[0], pub, params.ConfidentialPrefix)
	require.NoError(t, err)

	// Wrong prefix.
	_, _, err = Decode(base58Addr, chainreg.ElementsRegTestParams.
		ConfidentialPrefix)
	require.ErrorIs(t, err, walleterr.ErrInvalidAddress)

	// Not confidential.
	_, _, err = Decode(addrs[0], params.ConfidentialPrefix)
	require.ErrorIs(t, err, walleterr.ErrInvalidAddress)
	require.False(t, IsConfidential(addrs[0]))

	// Bad checksum.
	_, _, err = Decode(mutate(base58Addr, '2', '3'), params.ConfidentialPrefix)
	require.ErrorIs(t, err, walleterr.ErrInvalidAddress)

	blechAddr, err := FromAddress(addrs[2], pub, params)
	require.NoError(t, err)

	// Wrong hrp in either position.
	_, _, err = DecodeSegwit(blechAddr, "el", params.Bech32HRPSegwit)
	require.ErrorIs(t, err, walleterr.ErrInvalidAddress)
	_, err = EncodeSegwit(addrs[2], pub, "ert", params.Blech32HRP)
	require.ErrorIs(t, err, walleterr.ErrInvalidAddress)

	// Bad checksum and mixed case.
	_, _, err = DecodeSegwit(
		mutate(blechAddr, 'q', 'p'), params.Blech32HRP,
		params.Bech32HRPSegwit,
	)
	require.ErrorIs(t, err, walleterr.ErrInvalidAddress)

	mixed := strings.ToUpper(blechAddr[:4]) + blechAddr[4:]
	_, _, err = DecodeSegwit(mixed, params.Blech32HRP,
		params.Bech32HRPSegwit)
	require.ErrorIs(t, err, walleterr.ErrInvalidAddress)

	// An all upper case address is fine.
	gotAddr, _, err := DecodeSegwit(
		strings.ToUpper(blechAddr), params.Blech32HRP,
		params.Bech32HRPSegwit,
	)
	require.NoError(t, err)
	require.Equal(t, addrs[2], gotAddr)

	// The blinding key must be a valid compressed point.
	var badPub [PubKeyLen]byte
	badPub[0] = 0x04
	_, err = Encode(addrs[0], badPub, params.ConfidentialPrefix)
	require.ErrorIs(t, err, walleterr.ErrInvalidAddress)
	_, err = EncodeSegwit(addrs[2], badPub, params.Bech32HRPSegwit,
		params.Blech32HRP)
	require.ErrorIs(t, err, walleterr.ErrInvalidAddress)

	// Bitcoin networks have no confidential addresses.
	_, err = FromAddress(addrs[0], pub, &chainreg.BitcoinMainNetParams)
	require.ErrorIs(t, err, walleterr.ErrInvalidAddress)
}

// TestBlech32Program checks the blech32 checksum variant of each witness
// version and the v0 program lengths.
func TestBlech32Program(t *testing.T) {
	t.Parallel()

	pub := testPubKey([]byte("variant"))

	for _, witver := range []byte{0, 1} {
		confAddr, err := elementsaddr.ToBlech32(&elementsaddr.Blech32{
			Prefix:    "lq",
			Version:   witver,
			PublicKey: pub[:],
			Program:   make([]byte, 32),
		})
		require.NoError(t, err)

		addr, gotPub, err := DecodeSegwit(confAddr, "lq", "ex")
		require.NoError(t, err)
		require.Equal(t, pub, gotPub)

		again, err := EncodeSegwit(addr, gotPub, "ex", "lq")
		require.NoError(t, err)
		require.Equal(t, confAddr, again)
	}

	// A v0 program must be 20 or 32 bytes, whichever side notices.
	bad, err := elementsaddr.ToBlech32(&elementsaddr.Blech32{
		Prefix:    "lq",
		Version:   0,
		PublicKey: pub[:],
		Program:   make([]byte, 21),
	})
	if err == nil {
		_, _, err = DecodeSegwit(bad, "lq", "ex")
		require.ErrorIs(t, err, walleterr.ErrInvalidAddress)
	}
}

// TestConfidentialAddressForScript checks that the embedded key is the
// SLIP-77 key of the script.
func TestConfidentialAddressForScript(t *testing.T) {
	t.Parallel()

	params := &chainreg.LiquidTestNetParams
	master := confidential.MasterBlindingKeyFromSeed([]byte("seed"))
	script := []byte{0x00, 0x14}
	script = append(script, btcutil.Hash160([]byte("ctaddr"))...)

	addr := testAddresses(t, params)[2]
	confAddr, err := ConfidentialAddressForScript(
		addr, master, script, params,
	)
	require.NoError(t, err)

	want, err := confidential.BlindingPublicKey(master, script)
	require.NoError(t, err)

	gotAddr, gotPub, err := ToAddress(confAddr, params)
	require.NoError(t, err)
	require.Equal(t, addr, gotAddr)
	require.Equal(t, want, gotPub)
}

// mutate replaces the middle character of s with a, or with b if it
// already is a.
func mutate(s string, a, b byte) string {
	i := len(s) / 2

	c := a
	if s[i] == a {
		c = b
	}

	return s[:i] + string(c) + s[i+1:]
}
