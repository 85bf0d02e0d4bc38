package keychain

import (
	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/gdkwallet/ctcrypto/signer"
)

// DigestSignerRing is an interface that abstracts away basic low-level ECDSA
// signing on keys within a key ring.
type DigestSignerRing interface {
	// SignDigest signs the given SHA256 message digest with the private
	// key described in the key descriptor. The signature is low-R.
	SignDigest(keyDesc KeyDescriptor,
		digest [32]byte) (signer.Signature, error)

	// SignDigestCompact signs the given SHA256 message digest with the
	// private key described in the key descriptor and returns the
	// signature in the compact, public key recoverable format.
	SignDigestCompact(keyDesc KeyDescriptor,
		digest [32]byte) (signer.RecoverableSignature, error)
}

// SingleKeyDigestSigner is an abstraction interface that hides the
// implementation of the low-level ECDSA signing operations by wrapping a
// single, specific private key.
type SingleKeyDigestSigner interface {
	// PubKey returns the public key of the wrapped private key.
	PubKey() *btcec.PublicKey

	// SignDigest signs the given SHA256 message digest with the wrapped
	// private key.
	SignDigest(digest [32]byte) (signer.Signature, error)

	// SignDigestCompact signs the given SHA256 message digest with the
	// wrapped private key and returns the signature in the compact,
	// public key recoverable format.
	SignDigestCompact(digest [32]byte) (signer.RecoverableSignature, error)
}

// NewPubKeyDigestSigner wraps the key described by keyDesc so it adheres to
// the SingleKeyDigestSigner interface.
func NewPubKeyDigestSigner(keyDesc KeyDescriptor,
	digestSigner DigestSignerRing) *PubKeyDigestSigner {

	return &PubKeyDigestSigner{
		keyDesc:      keyDesc,
		digestSigner: digestSigner,
	}
}

// PubKeyDigestSigner signs with a key held by a DigestSignerRing.
type PubKeyDigestSigner struct {
	keyDesc      KeyDescriptor
	digestSigner DigestSignerRing
}

// PubKey returns the public key of the wrapped private key.
func (p *PubKeyDigestSigner) PubKey() *btcec.PublicKey {
	return p.keyDesc.PubKey
}

// SignDigest signs digest with the wrapped key.
func (p *PubKeyDigestSigner) SignDigest(
	digest [32]byte) (signer.Signature, error) {

	return p.digestSigner.SignDigest(p.keyDesc, digest)
}

// SignDigestCompact signs digest with the wrapped key in recoverable form.
func (p *PubKeyDigestSigner) SignDigestCompact(
	digest [32]byte) (signer.RecoverableSignature, error) {

	return p.digestSigner.SignDigestCompact(p.keyDesc, digest)
}

// PrivKeyDigestSigner signs with a private key held in memory.
type PrivKeyDigestSigner struct {
	PrivKey *btcec.PrivateKey
}

// PubKey returns the public key of the wrapped private key.
func (p *PrivKeyDigestSigner) PubKey() *btcec.PublicKey {
	return p.PrivKey.PubKey()
}

// SignDigest signs digest with the wrapped key.
func (p *PrivKeyDigestSigner) SignDigest(
	digest [32]byte) (signer.Signature, error) {

	return signer.SignDigest(p.PrivKey, digest, true)
}

// SignDigestCompact signs digest with the wrapped key in recoverable form.
func (p *PrivKeyDigestSigner) SignDigestCompact(
	digest [32]byte) (signer.RecoverableSignature, error) {

	return signer.SignDigestRecoverable(p.PrivKey, digest, true)
}

// SignDigest signs digest with the key at keyDesc.
//
// NOTE: This is part of the keychain.DigestSignerRing interface.
func (h *HDKeyRing) SignDigest(keyDesc KeyDescriptor,
	digest [32]byte) (signer.Signature, error) {

	priv, err := h.DerivePrivKey(keyDesc)
	if err != nil {
		return signer.Signature{}, err
	}
	defer priv.Zero()

	return signer.SignDigest(priv, digest, true)
}

// SignDigestCompact signs digest with the key at keyDesc in recoverable
// form.
//
// NOTE: This is part of the keychain.DigestSignerRing interface.
func (h *HDKeyRing) SignDigestCompact(keyDesc KeyDescriptor,
	digest [32]byte) (signer.RecoverableSignature, error) {

	priv, err := h.DerivePrivKey(keyDesc)
	if err != nil {
		return signer.RecoverableSignature{}, err
	}
	defer priv.Zero()

	return signer.SignDigestRecoverable(priv, digest, true)
}

var _ DigestSignerRing = (*HDKeyRing)(nil)
var _ SingleKeyDigestSigner = (*PubKeyDigestSigner)(nil)
var _ SingleKeyDigestSigner = (*PrivKeyDigestSigner)(nil)
