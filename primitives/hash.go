package primitives

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"crypto/sha512"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
)

// bitcoinMessageMagic prefixes every message hashed for signing.
const bitcoinMessageMagic = "Bitcoin Signed Message:\n"

// antiExfilDataTag is the BIP340 tag for anti-exfil host commitments.
var antiExfilDataTag = []byte("s2c/ecdsa/data")

// SHA256 returns the sha256 digest of b.
func SHA256(b []byte) [32]byte {
	return sha256.Sum256(b)
}

// SHA256d returns the double sha256 digest of b.
func SHA256d(b []byte) [32]byte {
	return chainhash.DoubleHashH(b)
}

// SHA512 returns the sha512 digest of b.
func SHA512(b []byte) [64]byte {
	return sha512.Sum512(b)
}

// Hash160 returns ripemd160(sha256(b)).
func Hash160(b []byte) [20]byte {
	var h [20]byte
	copy(h[:], btcutil.Hash160(b))

	return h
}

// TaggedHash returns the BIP340 tagged hash of msgs under tag.
func TaggedHash(tag []byte, msgs ...[]byte) [32]byte {
	return *chainhash.TaggedHash(tag, msgs...)
}

// HMACSHA256 returns HMAC-SHA256(key, msg).
func HMACSHA256(key, msg []byte) [32]byte {
	var out [32]byte

	mac := hmac.New(sha256.New, key)
	_, _ = mac.Write(msg)
	copy(out[:], mac.Sum(nil))

	return out
}

// HMACSHA512 returns HMAC-SHA512(key, msg).
func HMACSHA512(key, msg []byte) [64]byte {
	var out [64]byte

	mac := hmac.New(sha512.New, key)
	_, _ = mac.Write(msg)
	copy(out[:], mac.Sum(nil))

	return out
}

// FormatBitcoinMessage returns the digest signed by Bitcoin message
// signatures: sha256d(varstr(magic) || varstr(msg)).
func FormatBitcoinMessage(msg []byte) [32]byte {
	var buf bytes.Buffer

	// Writes to a bytes.Buffer cannot fail.
	_ = wire.WriteVarString(&buf, 0, bitcoinMessageMagic)
	_ = wire.WriteVarBytes(&buf, 0, msg)

	return SHA256d(buf.Bytes())
}

// AntiExfilHostCommit returns the host commitment to the given 32 bytes of
// host entropy used by the anti-exfil signing protocol.
func AntiExfilHostCommit(entropy [32]byte) [32]byte {
	return TaggedHash(antiExfilDataTag, entropy[:])
}
