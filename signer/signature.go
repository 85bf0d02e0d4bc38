package signer

import (
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/ecdsa"
	"github.com/gdkwallet/ctcrypto/walleterr"
)

const (
	// SignatureLen is the length of a compact r || s signature.
	SignatureLen = 64

	// RecoverableSignatureLen is the length of a header || r || s
	// signature.
	RecoverableSignatureLen = 65

	// compactHeaderBase is the header of a recoverable signature with
	// recovery id zero for an uncompressed key.
	compactHeaderBase = 27

	// compactHeaderCompressed is added to the header of signatures for
	// compressed keys.
	compactHeaderCompressed = 4
)

// Signature is a compact ECDSA signature: r and s as big-endian 32-byte
// integers, both below the group order.
type Signature [SignatureLen]byte

// NewSignature packs r and s.
func NewSignature(r, s *btcec.ModNScalar) Signature {
	var sig Signature
	r.PutBytesUnchecked(sig[:32])
	s.PutBytesUnchecked(sig[32:])

	return sig
}

// scalars returns r and s, rejecting values that are zero or not below the
// group order.
func (sig *Signature) scalars() (btcec.ModNScalar, btcec.ModNScalar, error) {
	var r, s btcec.ModNScalar

	var buf [32]byte
	copy(buf[:], sig[:32])
	if r.SetBytes(&buf) != 0 || r.IsZero() {
		return r, s, fmt.Errorf("%w: r out of range",
			walleterr.ErrInvalidSignature)
	}

	copy(buf[:], sig[32:])
	if s.SetBytes(&buf) != 0 || s.IsZero() {
		return r, s, fmt.Errorf("%w: s out of range",
			walleterr.ErrInvalidSignature)
	}

	return r, s, nil
}

// toECDSA returns the library form of the signature.
func (sig *Signature) toECDSA() (*ecdsa.Signature, error) {
	r, s, err := sig.scalars()
	if err != nil {
		return nil, err
	}

	return ecdsa.NewSignature(&r, &s), nil
}

// IsLowR reports whether r serializes without a DER padding byte.
func (sig *Signature) IsLowR() bool {
	return sig[0] < 0x80
}

// RecoverableSignature is a compact signature prefixed by a header byte that
// encodes the recovery id and the compressed key flag.
type RecoverableSignature [RecoverableSignatureLen]byte

// NewRecoverableSignature builds the recoverable form of sig for a
// compressed key.
func NewRecoverableSignature(sig Signature,
	recID byte) RecoverableSignature {

	var rsig RecoverableSignature
	rsig[0] = compactHeaderBase + compactHeaderCompressed + recID
	copy(rsig[1:], sig[:])

	return rsig
}

// RecoveryID returns the recovery id in [0, 3].
func (r *RecoverableSignature) RecoveryID() byte {
	return (r[0] - compactHeaderBase) & 3
}

// Compressed reports whether the header marks a compressed key.
func (r *RecoverableSignature) Compressed() bool {
	return r[0]-compactHeaderBase >= compactHeaderCompressed
}

// Signature returns the r || s part.
func (r *RecoverableSignature) Signature() Signature {
	var sig Signature
	copy(sig[:], r[1:])

	return sig
}
