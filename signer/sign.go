package signer

import (
	"encoding/binary"
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/ecdsa"
	secp "github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/gdkwallet/ctcrypto/primitives"
	"github.com/gdkwallet/ctcrypto/walleterr"
)

// maxGrindAttempts bounds low-R grinding. Each attempt succeeds with
// probability one half.
const maxGrindAttempts = 1 << 16

// signNonce computes an RFC6979 signature with the given extra data. It
// returns the signature and its recovery id, with s normalised to the lower
// half of the order.
func signNonce(privBytes *[32]byte, d *btcec.ModNScalar, hash [32]byte,
	extra []byte) (Signature, byte) {

	var e btcec.ModNScalar
	e.SetBytes(&hash)

	for iteration := uint32(0); ; iteration++ {
		k := secp.NonceRFC6979(privBytes[:], hash[:], extra, nil,
			iteration)

		var R btcec.JacobianPoint
		btcec.ScalarBaseMultNonConst(k, &R)
		R.ToAffine()

		var r btcec.ModNScalar
		xBytes := R.X.Bytes()
		overflow := r.SetBytes(xBytes)
		if r.IsZero() {
			k.Zero()
			continue
		}

		recID := byte(overflow<<1) | byte(R.Y.IsOddBit())

		kInv := new(btcec.ModNScalar).Set(k).InverseNonConst()
		s := new(btcec.ModNScalar).Mul2(d, &r).Add(&e).Mul(kInv)
		k.Zero()
		kInv.Zero()
		if s.IsZero() {
			continue
		}

		if s.IsOverHalfOrder() {
			s.Negate()
			recID ^= 1
		}

		return NewSignature(&r, s), recID
	}
}

// signKey signs hash with priv. If grindLowR is set, extra data counters are
// tried until r has no DER padding byte, as Bitcoin Core does.
func signKey(priv *btcec.PrivateKey, hash [32]byte,
	grindLowR bool) (Signature, byte, error) {

	privBytes := priv.Key.Bytes()
	defer primitives.ZeroBytes(privBytes[:])

	var extra [32]byte
	for counter := uint32(0); counter < maxGrindAttempts; counter++ {
		var extraData []byte
		if counter > 0 {
			binary.LittleEndian.PutUint32(extra[:], counter)
			extraData = extra[:]
		}

		sig, recID := signNonce(&privBytes, &priv.Key, hash, extraData)
		if !grindLowR || sig.IsLowR() {
			if counter > 0 {
				log.Tracef("Ground low-R signature after %d "+
					"attempts", counter+1)
			}

			return sig, recID, nil
		}
	}

	return Signature{}, 0, fmt.Errorf("%w: low-R grinding exhausted",
		walleterr.ErrInvalidSignature)
}

// SignDigest signs hash with priv.
func SignDigest(priv *btcec.PrivateKey, hash [32]byte,
	grindLowR bool) (Signature, error) {

	sig, _, err := signKey(priv, hash, grindLowR)
	return sig, err
}

// SignDigestRecoverable signs hash with priv and returns the recoverable
// form for the compressed public key.
func SignDigestRecoverable(priv *btcec.PrivateKey, hash [32]byte,
	grindLowR bool) (RecoverableSignature, error) {

	sig, recID, err := signKey(priv, hash, grindLowR)
	if err != nil {
		return RecoverableSignature{}, err
	}

	return NewRecoverableSignature(sig, recID), nil
}

// Sign produces a deterministic low-S signature of hash. With grindLowR the
// signature also has a low r value.
func Sign(priv [32]byte, hash [32]byte, grindLowR bool) (Signature, error) {
	var sig Signature
	err := primitives.WithPrivateKey(priv, func(k *btcec.PrivateKey) error {
		var err error
		sig, err = SignDigest(k, hash, grindLowR)

		return err
	})

	return sig, err
}

// SignRecoverable is Sign returning the recoverable form for the compressed
// public key of priv.
func SignRecoverable(priv [32]byte, hash [32]byte,
	grindLowR bool) (RecoverableSignature, error) {

	var rsig RecoverableSignature
	err := primitives.WithPrivateKey(priv, func(k *btcec.PrivateKey) error {
		var err error
		rsig, err = SignDigestRecoverable(k, hash, grindLowR)

		return err
	})

	return rsig, err
}

// RecoverCompact finds the recovery id that makes sig recover to
// expectedPub. It returns the id and the recoverable signature.
func RecoverCompact(sig Signature, hash [32]byte,
	expectedPub []byte) (byte, RecoverableSignature, error) {

	want, err := btcec.ParsePubKey(expectedPub)
	if err != nil {
		return 0, RecoverableSignature{}, walleterr.Wrap(
			walleterr.ErrInvalidKey, "expected pubkey", err,
		)
	}

	for recID := byte(0); recID < 4; recID++ {
		rsig := NewRecoverableSignature(sig, recID)

		pub, _, err := ecdsa.RecoverCompact(rsig[:], hash[:])
		if err != nil {
			continue
		}
		if pub.IsEqual(want) {
			return recID, rsig, nil
		}
	}

	return 0, RecoverableSignature{}, fmt.Errorf("%w: no recovery id "+
		"matches the public key", walleterr.ErrInvalidSignature)
}

// RecoverPubKey recovers the public key of a recoverable signature.
func RecoverPubKey(rsig RecoverableSignature,
	hash [32]byte) (*btcec.PublicKey, bool, error) {

	pub, compressed, err := ecdsa.RecoverCompact(rsig[:], hash[:])
	if err != nil {
		return nil, false, walleterr.Wrap(
			walleterr.ErrInvalidSignature, "recover", err,
		)
	}

	return pub, compressed, nil
}

// Verify reports whether sig is a valid low-S signature of hash by pub. It
// never fails: malformed keys and signatures simply don't verify.
func Verify(pub []byte, hash [32]byte, sig Signature) bool {
	key, err := btcec.ParsePubKey(pub)
	if err != nil {
		return false
	}

	r, s, err := sig.scalars()
	if err != nil || s.IsOverHalfOrder() {
		return false
	}

	return ecdsa.NewSignature(&r, &s).Verify(hash[:], key)
}
