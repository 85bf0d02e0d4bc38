package keychain

import (
	"fmt"
	"sync"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/gdkwallet/ctcrypto/primitives"
)

// HDKeyRing is an in-memory SecretKeyRing rooted at a BIP32 master key. Keys
// live at m/purpose'/coinType'/family'/branch/index.
type HDKeyRing struct {
	purpose  uint32
	coinType uint32

	// accounts caches the hardened account keys so that locator lookups
	// only perform the two non-hardened steps.
	accounts map[KeyFamily]*ExtendedKey
	mu       sync.Mutex
	root     *ExtendedKey
}

// A compile time check to ensure HDKeyRing implements SecretKeyRing.
var _ SecretKeyRing = (*HDKeyRing)(nil)

// NewHDKeyRing returns a key ring that derives keys for the given purpose and
// coin type below root.
func NewHDKeyRing(root *ExtendedKey, purpose, coinType uint32) *HDKeyRing {
	return &HDKeyRing{
		purpose:  purpose,
		coinType: coinType,
		accounts: make(map[KeyFamily]*ExtendedKey),
		root:     root,
	}
}

// AccountPath returns the full hardened path of the account for family.
func (h *HDKeyRing) AccountPath(family KeyFamily) []uint32 {
	return []uint32{
		h.purpose + HardenedKeyStart,
		h.coinType + HardenedKeyStart,
		uint32(family) + HardenedKeyStart,
	}
}

// account returns the cached account key for family, deriving it on first
// use.
func (h *HDKeyRing) account(family KeyFamily) (*ExtendedKey, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if acct, ok := h.accounts[family]; ok {
		return acct, nil
	}

	acct, err := DerivePath(h.root, h.AccountPath(family), false)
	if err != nil {
		return nil, err
	}

	log.Debugf("Derived account key for family=%d at depth %d", family,
		acct.Depth())

	h.accounts[family] = acct

	return acct, nil
}

// deriveExtended returns the extended key at keyLoc.
func (h *HDKeyRing) deriveExtended(keyLoc KeyLocator,
	publicOnly bool) (*ExtendedKey, error) {

	if keyLoc.Index >= HardenedKeyStart {
		return nil, fmt.Errorf("%w: locator index %d is hardened",
			ErrInvalidPath, keyLoc.Index)
	}

	acct, err := h.account(keyLoc.Family)
	if err != nil {
		return nil, err
	}

	return DerivePath(
		acct, []uint32{uint32(keyLoc.Branch), keyLoc.Index}, publicOnly,
	)
}

// DeriveKey attempts to derive an arbitrary key specified by the passed
// KeyLocator.
//
// NOTE: This is part of the keychain.KeyRing interface.
func (h *HDKeyRing) DeriveKey(keyLoc KeyLocator) (KeyDescriptor, error) {
	key, err := h.deriveExtended(keyLoc, true)
	if err != nil {
		return KeyDescriptor{}, err
	}

	return KeyDescriptor{
		KeyLocator: keyLoc,
		PubKey:     key.ECPubKey(),
	}, nil
}

// DerivePrivKey attempts to derive the private key that corresponds to the
// passed key descriptor.
//
// NOTE: This is part of the keychain.SecretKeyRing interface.
func (h *HDKeyRing) DerivePrivKey(keyDesc KeyDescriptor) (*btcec.PrivateKey,
	error) {

	key, err := h.deriveExtended(keyDesc.KeyLocator, false)
	if err != nil {
		return nil, err
	}
	defer key.Zero()

	priv, err := key.ECPrivKey()
	if err != nil {
		return nil, err
	}

	// A descriptor that carries a public key must match the derived one.
	if keyDesc.PubKey != nil && !keyDesc.PubKey.IsEqual(priv.PubKey()) {
		priv.Zero()
		return nil, fmt.Errorf("%w: descriptor pubkey does not match "+
			"locator", ErrInvalidPath)
	}

	return priv, nil
}

// ECDH performs a scalar multiplication (ECDH-like operation) between the
// target key descriptor and remote public key.
//
// NOTE: This is part of the keychain.ECDHRing interface.
func (h *HDKeyRing) ECDH(keyDesc KeyDescriptor,
	pub *btcec.PublicKey) ([32]byte, error) {

	priv, err := h.DerivePrivKey(keyDesc)
	if err != nil {
		return [32]byte{}, err
	}
	defer priv.Zero()

	return primitives.ECDHPoint(priv, pub), nil
}

// Zero wipes the root and every cached account key.
func (h *HDKeyRing) Zero() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for family, acct := range h.accounts {
		acct.Zero()
		delete(h.accounts, family)
	}
	h.root.Zero()
}
