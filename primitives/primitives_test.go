package primitives

import (
	"bytes"
	"encoding/hex"
	"testing"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/gdkwallet/ctcrypto/walleterr"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func mustHex(t *testing.T, s string) []byte {
	t.Helper()

	b, err := hex.DecodeString(s)
	require.NoError(t, err)

	return b
}

// TestHashVectors checks the hash helpers against published vectors.
func TestHashVectors(t *testing.T) {
	t.Parallel()

	sha256d := SHA256d(nil)
	require.Equal(t,
		"5df6e0e2761359d30a8275058e299fcc0381534545f55cf43e41983f5d4c9456",
		hex.EncodeToString(sha256d[:]),
	)

	_, pub := btcec.PrivKeyFromBytes([]byte{1})
	h160 := Hash160(pub.SerializeCompressed())
	require.Equal(t, "751e76e8199196d454941c45d1b3a323f1433bd6",
		hex.EncodeToString(h160[:]))

	key := []byte("Jefe")
	msg := []byte("what do ya want for nothing?")

	mac256 := HMACSHA256(key, msg)
	require.Equal(t,
		"5bdcc146bf60754e6a042426089575c75a003f089d2739839dec58b964ec3843",
		hex.EncodeToString(mac256[:]),
	)

	mac512 := HMACSHA512(key, msg)
	require.Equal(t,
		"164b7a7bfcf819e2e395fbe73b56e0a387bd64222e831fd610270cd7ea250554"+
			"9758bf75c05a994a6d034f65f8f0e6fdcaeab1a34d4a6b4b636e070a38bce737",
		hex.EncodeToString(mac512[:]),
	)
}

// TestFormatBitcoinMessage checks the var-string framing of the message
// digest.
func TestFormatBitcoinMessage(t *testing.T) {
	t.Parallel()

	msg := []byte("hello")

	var framed []byte
	framed = append(framed, byte(len(bitcoinMessageMagic)))
	framed = append(framed, bitcoinMessageMagic...)
	framed = append(framed, byte(len(msg)))
	framed = append(framed, msg...)

	require.Equal(t, SHA256d(framed), FormatBitcoinMessage(msg))
	require.NotEqual(t, FormatBitcoinMessage(msg),
		FormatBitcoinMessage([]byte("hellO")))
}

// TestAntiExfilHostCommit asserts the commitment is the tagged hash of the
// entropy.
func TestAntiExfilHostCommit(t *testing.T) {
	t.Parallel()

	var entropy [32]byte
	entropy[0] = 7

	tag := SHA256([]byte("s2c/ecdsa/data"))
	var preimage []byte
	preimage = append(preimage, tag[:]...)
	preimage = append(preimage, tag[:]...)
	preimage = append(preimage, entropy[:]...)

	require.Equal(t, SHA256(preimage), AntiExfilHostCommit(entropy))
}

// TestScryptVector checks scrypt against RFC 7914.
func TestScryptVector(t *testing.T) {
	t.Parallel()

	key, err := Scrypt([]byte("password"), []byte("NaCl"), 1024, 8, 16, 64)
	require.NoError(t, err)
	require.Equal(t,
		"fdbabe1c9d3472007856e7190d01e9fe7c6ad7cbc8237830e77376634b373162"+
			"2eaf30d92e22a3886ff109279d9830dac727afb94a83ee6d8360cbdfa2cc0640",
		hex.EncodeToString(key),
	)

	_, err = Scrypt([]byte("password"), []byte("NaCl"), 1000, 8, 16, 64)
	require.ErrorIs(t, err, ErrInvalidLength)

	_, err = PBKDF2SHA512([]byte("p"), []byte("s"), 0, 64)
	require.ErrorIs(t, err, ErrInvalidLength)
}

// TestAESVectors checks ECB against FIPS-197 and CBC round trips with
// padding validation.
func TestAESVectors(t *testing.T) {
	t.Parallel()

	key := mustHex(t, "000102030405060708090a0b0c0d0e0f"+
		"101112131415161718191a1b1c1d1e1f")
	plain := mustHex(t, "00112233445566778899aabbccddeeff")

	ct, err := AESEncryptECB(key, plain)
	require.NoError(t, err)
	require.Equal(t, "8ea2b7ca516745bfeafc49904b496089",
		hex.EncodeToString(ct))

	back, err := AESDecryptECB(key, ct)
	require.NoError(t, err)
	require.Equal(t, plain, back)

	_, err = AESEncryptECB(key, plain[:15])
	require.ErrorIs(t, err, ErrInvalidLength)

	_, err = AESEncryptECB(key[:7], plain)
	require.ErrorIs(t, err, ErrInvalidLength)

	iv := bytes.Repeat([]byte{0x42}, 16)
	for _, n := range []int{0, 1, 15, 16, 17, 100} {
		msg := bytes.Repeat([]byte{0xa5}, n)

		ct, err := AESEncryptCBC(key, iv, msg)
		require.NoError(t, err)
		require.Zero(t, len(ct)%16)
		require.Greater(t, len(ct), n)

		back, err := AESDecryptCBC(key, iv, ct)
		require.NoError(t, err)
		require.Equal(t, msg, back)
	}

	// Decrypting under the wrong key almost surely breaks the padding.
	ct, err = AESEncryptCBC(key, iv, []byte("secret"))
	require.NoError(t, err)

	wrongKey := bytes.Repeat([]byte{1}, 32)
	_, err = AESDecryptCBC(wrongKey, iv, ct)
	if err != nil {
		require.ErrorIs(t, err, ErrInvalidPadding)
	}
}

// TestScalarOps covers scalar validation and arithmetic edge cases.
func TestScalarOps(t *testing.T) {
	t.Parallel()

	var zero, one, nMinusOne, n [32]byte
	one[31] = 1
	copy(nMinusOne[:], mustHex(t, "ffffffffffffffffffffffffffffffff"+
		"baaedce6af48a03bbfd25e8cd0364140"))
	copy(n[:], mustHex(t, "ffffffffffffffffffffffffffffffff"+
		"baaedce6af48a03bbfd25e8cd0364141"))

	require.ErrorIs(t, PrivateKeyVerify(zero[:]), walleterr.ErrInvalidKey)
	require.ErrorIs(t, PrivateKeyVerify(n[:]), walleterr.ErrInvalidKey)
	require.ErrorIs(t, PrivateKeyVerify(one[:31]), walleterr.ErrInvalidKey)
	require.NoError(t, PrivateKeyVerify(nMinusOne[:]))
	require.NoError(t, ScalarVerify(one[:]))

	_, err := ScalarAdd(one, nMinusOne)
	require.ErrorIs(t, err, walleterr.ErrInvalidKey)

	_, err = ScalarAdd(one, n)
	require.ErrorIs(t, err, walleterr.ErrInvalidKey)

	two, err := ScalarAdd(one, one)
	require.NoError(t, err)
	require.Equal(t, byte(2), two[31])

	back, err := ScalarSubtract(two, one)
	require.NoError(t, err)
	require.Equal(t, one, back)

	// (n-1)^2 = 1 mod n.
	sq, err := ScalarMultiply(nMinusOne, nMinusOne)
	require.NoError(t, err)
	require.Equal(t, one, sq)
}

// TestECDHSymmetric asserts both parties derive the same secret.
func TestECDHSymmetric(t *testing.T) {
	t.Parallel()

	rapid.Check(t, func(t *rapid.T) {
		var a, b [32]byte
		copy(a[:], rapid.SliceOfN(rapid.Byte(), 32, 32).Draw(t, "a"))
		copy(b[:], rapid.SliceOfN(rapid.Byte(), 32, 32).Draw(t, "b"))
		if PrivateKeyVerify(a[:]) != nil ||
			PrivateKeyVerify(b[:]) != nil {

			t.Skip("invalid scalar")
		}

		pubA, err := PublicKeyFromPrivate(a, true)
		require.NoError(t, err)
		pubB, err := PublicKeyFromPrivate(b, true)
		require.NoError(t, err)

		ab, err := ECDH(a, pubB)
		require.NoError(t, err)
		ba, err := ECDH(b, pubA)
		require.NoError(t, err)
		require.Equal(t, ab, ba)
	})

	var priv [32]byte
	priv[31] = 3
	_, err := ECDH(priv, []byte{0x02, 0x01})
	require.ErrorIs(t, err, walleterr.ErrInvalidKey)
}

// TestPublicKeyForms checks compressed and uncompressed serializations.
func TestPublicKeyForms(t *testing.T) {
	t.Parallel()

	var priv [32]byte
	priv[31] = 1

	compressed, err := PublicKeyFromPrivate(priv, true)
	require.NoError(t, err)
	require.Len(t, compressed, PubKeyLen)

	uncompressed, err := PublicKeyFromPrivate(priv, false)
	require.NoError(t, err)
	require.Len(t, uncompressed, PubKeyUncompressedLen)

	decompressed, err := DecompressPublicKey(compressed)
	require.NoError(t, err)
	require.Equal(t, uncompressed, decompressed[:])

	_, err = DecompressPublicKey(uncompressed)
	require.ErrorIs(t, err, walleterr.ErrInvalidKey)

	_, err = PublicKeyFromPrivate([32]byte{}, true)
	require.ErrorIs(t, err, walleterr.ErrInvalidKey)
}

// TestEphemeralKeyPairRetries feeds invalid candidates first and checks the
// loop skips them.
func TestEphemeralKeyPairRetries(t *testing.T) {
	t.Parallel()

	var stream []byte
	stream = append(stream, bytes.Repeat([]byte{0xff}, 32)...)
	stream = append(stream, make([]byte, 32)...)

	valid := bytes.Repeat([]byte{0x11}, 32)
	stream = append(stream, valid...)

	priv, err := EphemeralKeyPairFrom(bytes.NewReader(stream))
	require.NoError(t, err)
	require.Equal(t, valid, priv.Serialize())

	_, err = EphemeralKeyPairFrom(bytes.NewReader(make([]byte, 40)))
	require.Error(t, err)

	priv, err = EphemeralKeyPair()
	require.NoError(t, err)
	require.NoError(t, PrivateKeyVerify(priv.Serialize()))
}

// TestSecretWiped asserts WithSecret wipes on both success and error.
func TestSecretWiped(t *testing.T) {
	t.Parallel()

	var leaked *Secret
	err := WithSecret(func(s *Secret) error {
		s[0] = 0xaa
		leaked = s
		return walleterr.ErrInvalidKey
	})
	require.ErrorIs(t, err, walleterr.ErrInvalidKey)
	require.True(t, leaked.IsZero())

	buf := []byte{1, 2, 3}
	ZeroBytes(buf)
	require.Equal(t, []byte{0, 0, 0}, buf)
}
