package keychain

import (
	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/gdkwallet/ctcrypto/primitives"
	"github.com/gdkwallet/ctcrypto/walleterr"
)

// PubKeyECDH runs ECDH with a key that stays inside an ECDHRing.
type PubKeyECDH struct {
	keyDesc KeyDescriptor
	ring    ECDHRing
}

// NewPubKeyECDH binds keyDesc to the ring that holds its private key.
func NewPubKeyECDH(keyDesc KeyDescriptor, ring ECDHRing) *PubKeyECDH {
	return &PubKeyECDH{keyDesc: keyDesc, ring: ring}
}

// PubKey is part of the SingleKeyECDH interface.
func (p *PubKeyECDH) PubKey() *btcec.PublicKey {
	return p.keyDesc.PubKey
}

// ECDH is part of the SingleKeyECDH interface.
func (p *PubKeyECDH) ECDH(pub *btcec.PublicKey) ([32]byte, error) {
	return p.ring.ECDH(p.keyDesc, pub)
}

// PrivKeyECDH runs ECDH with a bare private key, such as the ephemeral key of
// a blinded output or the blinding key of a script.
type PrivKeyECDH struct {
	PrivKey *btcec.PrivateKey
}

// PubKey is part of the SingleKeyECDH interface.
func (p *PrivKeyECDH) PubKey() *btcec.PublicKey {
	return p.PrivKey.PubKey()
}

// ECDH returns sha256 of the compressed point PrivKey*pub.
//
// NOTE: This is part of the SingleKeyECDH interface.
func (p *PrivKeyECDH) ECDH(pub *btcec.PublicKey) ([32]byte, error) {
	return primitives.ECDHPoint(p.PrivKey, pub), nil
}

// RangeProofNonce returns the nonce that opens the range proof of an output
// whose sender committed to nonceCommitment, given the receiver's blinding
// key.
func RangeProofNonce(key SingleKeyECDH,
	nonceCommitment [33]byte) ([32]byte, error) {

	pub, err := btcec.ParsePubKey(nonceCommitment[:])
	if err != nil {
		return [32]byte{}, walleterr.Wrap(
			walleterr.ErrInvalidKey, "nonce commitment", err,
		)
	}

	shared, err := key.ECDH(pub)
	if err != nil {
		return [32]byte{}, err
	}
	defer primitives.ZeroBytes(shared[:])

	return primitives.SHA256(shared[:]), nil
}

var _ SingleKeyECDH = (*PubKeyECDH)(nil)
var _ SingleKeyECDH = (*PrivKeyECDH)(nil)
