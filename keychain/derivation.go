package keychain

import (
	"github.com/btcsuite/btcd/btcec/v2"
)

const (
	// BIP0044Purpose is the purpose field of single-sig account paths.
	BIP0044Purpose = 44

	// BIP0049Purpose is the purpose field of nested segwit account paths.
	BIP0049Purpose = 49

	// BIP0084Purpose is the purpose field of native segwit account paths.
	BIP0084Purpose = 84
)

// KeyFamily selects the account subtree keys are derived from. Every family
// maps to a hardened account index below the purpose and coin type.
type KeyFamily uint32

const (
	// KeyFamilyDefault is the wallet's main receive/change account.
	KeyFamilyDefault KeyFamily = 0

	// KeyFamilyMultiSig holds the user key of 2-of-2 and CSV scripts.
	KeyFamilyMultiSig KeyFamily = 1
)

// Branch is the external/internal chain below an account.
type Branch uint32

const (
	// BranchExternal holds receive keys.
	BranchExternal Branch = 0

	// BranchInternal holds change keys.
	BranchInternal Branch = 1
)

// KeyLocator is a two-tuple that can be used to derive *any* key that has
// ever been used under the key derivation mechanisms described in this file.
// Purpose and coin type are fixed by the key ring; the locator selects the
// account, branch and index below them.
type KeyLocator struct {
	// Family is the account of the key.
	Family KeyFamily

	// Branch is the chain within the account.
	Branch Branch

	// Index is the precise index of the key being identified.
	Index uint32
}

// IsEmpty returns true if a KeyLocator is "empty".
func (k KeyLocator) IsEmpty() bool {
	return k.Family == 0 && k.Branch == 0 && k.Index == 0
}

// KeyDescriptor wraps a KeyLocator and also optionally includes a public key.
type KeyDescriptor struct {
	KeyLocator

	// PubKey is the public key the locator derives to.
	PubKey *btcec.PublicKey
}

// KeyRing is the primary interface that will be used to perform public
// derivation of various keys used within the wallet.
type KeyRing interface {
	// DeriveKey attempts to derive an arbitrary key specified by the
	// passed KeyLocator.
	DeriveKey(keyLoc KeyLocator) (KeyDescriptor, error)
}

// SecretKeyRing is a ring similar to the regular KeyRing interface, but it is
// also able to derive *private keys*. As this is a super-set of the regular
// KeyRing, we also expect the SecretKeyRing to implement the fully KeyRing
// interface.
type SecretKeyRing interface {
	KeyRing

	ECDHRing

	// DerivePrivKey attempts to derive the private key that corresponds to
	// the passed key descriptor. The caller must Zero the result.
	DerivePrivKey(keyDesc KeyDescriptor) (*btcec.PrivateKey, error)
}

// ECDHRing is an interface that abstracts away basic low-level ECDH shared key
// generation on keys within a ring.
type ECDHRing interface {
	// ECDH performs a scalar multiplication (ECDH-like operation) between
	// the target key descriptor and remote public key. The output
	// returned will be the sha256 of the resulting shared point serialized
	// in compressed format.
	ECDH(keyDesc KeyDescriptor, pubKey *btcec.PublicKey) ([32]byte, error)
}

// SingleKeyECDH is an abstraction interface that hides the implementation of
// an ECDH operation against a specific key.
type SingleKeyECDH interface {
	// PubKey returns the public key of the private key that is abstracted
	// away by the interface.
	PubKey() *btcec.PublicKey

	// ECDH performs a scalar multiplication (ECDH-like operation) between
	// the abstracted private key and a remote public key.
	ECDH(pubKey *btcec.PublicKey) ([32]byte, error)
}
