package signer

import (
	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/schnorr"
	"github.com/gdkwallet/ctcrypto/primitives"
	"github.com/gdkwallet/ctcrypto/walleterr"
)

// SchnorrSignatureLen is the length of a BIP340 signature.
const SchnorrSignatureLen = schnorr.SignatureSize

// SignSchnorr returns the BIP340 signature of hash by priv.
func SignSchnorr(priv [32]byte, hash [32]byte) ([SchnorrSignatureLen]byte,
	error) {

	var out [SchnorrSignatureLen]byte
	err := primitives.WithPrivateKey(priv, func(k *btcec.PrivateKey) error {
		sig, err := schnorr.Sign(k, hash[:])
		if err != nil {
			return walleterr.Wrap(
				walleterr.ErrInvalidSignature, "schnorr", err,
			)
		}
		copy(out[:], sig.Serialize())

		return nil
	})

	return out, err
}

// XOnlyPubKey returns the 32-byte BIP340 public key of priv.
func XOnlyPubKey(priv [32]byte) ([32]byte, error) {
	var out [32]byte
	err := primitives.WithPrivateKey(priv, func(k *btcec.PrivateKey) error {
		copy(out[:], schnorr.SerializePubKey(k.PubKey()))
		return nil
	})

	return out, err
}

// VerifySchnorr reports whether sig is a valid BIP340 signature of hash by
// the x-only key pub.
func VerifySchnorr(pub []byte, hash [32]byte, sig []byte) bool {
	key, err := schnorr.ParsePubKey(pub)
	if err != nil {
		return false
	}

	parsed, err := schnorr.ParseSignature(sig)
	if err != nil {
		return false
	}

	return parsed.Verify(hash[:], key)
}
