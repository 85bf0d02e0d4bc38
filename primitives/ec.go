package primitives

import (
	"crypto/rand"
	"crypto/sha256"
	"fmt"
	"io"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/gdkwallet/ctcrypto/walleterr"
)

const (
	// PrivKeyLen is the length of a serialized private key or scalar.
	PrivKeyLen = 32

	// PubKeyLen is the length of a compressed public key.
	PubKeyLen = 33

	// PubKeyUncompressedLen is the length of an uncompressed public key.
	PubKeyUncompressedLen = 65
)

// parseScalar loads b as a scalar and reports whether it overflowed the group
// order.
func parseScalar(b []byte) (btcec.ModNScalar, bool) {
	var (
		s   btcec.ModNScalar
		buf [32]byte
	)
	if len(b) != PrivKeyLen {
		return s, true
	}

	copy(buf[:], b)
	overflow := s.SetBytes(&buf) != 0
	clear(buf[:])

	return s, overflow
}

// PrivateKeyVerify checks that b is a valid private key: 32 bytes, non-zero
// and below the group order.
func PrivateKeyVerify(b []byte) error {
	s, overflow := parseScalar(b)
	defer s.Zero()

	if overflow || s.IsZero() {
		return fmt.Errorf("%w: private key out of range",
			walleterr.ErrInvalidKey)
	}

	return nil
}

// ScalarVerify is an alias of PrivateKeyVerify for blinding factors and
// tweaks.
func ScalarVerify(b []byte) error {
	return PrivateKeyVerify(b)
}

// scalarOp applies op to a and b and rejects overflowing inputs and a zero
// result.
func scalarOp(a, b [32]byte,
	op func(x, y *btcec.ModNScalar)) ([32]byte, error) {

	x, overflowA := parseScalar(a[:])
	y, overflowB := parseScalar(b[:])
	defer x.Zero()
	defer y.Zero()

	if overflowA || overflowB {
		return [32]byte{}, fmt.Errorf("%w: scalar out of range",
			walleterr.ErrInvalidKey)
	}

	op(&x, &y)
	if x.IsZero() {
		return [32]byte{}, fmt.Errorf("%w: scalar result is zero",
			walleterr.ErrInvalidKey)
	}

	return x.Bytes(), nil
}

// ScalarAdd returns a + b mod n.
func ScalarAdd(a, b [32]byte) ([32]byte, error) {
	return scalarOp(a, b, func(x, y *btcec.ModNScalar) {
		x.Add(y)
	})
}

// ScalarSubtract returns a - b mod n.
func ScalarSubtract(a, b [32]byte) ([32]byte, error) {
	return scalarOp(a, b, func(x, y *btcec.ModNScalar) {
		y.Negate()
		x.Add(y)
	})
}

// ScalarMultiply returns a * b mod n.
func ScalarMultiply(a, b [32]byte) ([32]byte, error) {
	return scalarOp(a, b, func(x, y *btcec.ModNScalar) {
		x.Mul(y)
	})
}

// PublicKeyFromPrivate returns the public key for priv, compressed (33 bytes)
// or uncompressed (65 bytes).
func PublicKeyFromPrivate(priv [32]byte, compressed bool) ([]byte, error) {
	var pub []byte
	err := WithPrivateKey(priv, func(key *btcec.PrivateKey) error {
		if compressed {
			pub = key.PubKey().SerializeCompressed()
		} else {
			pub = key.PubKey().SerializeUncompressed()
		}

		return nil
	})

	return pub, err
}

// DecompressPublicKey converts a compressed public key to its 65-byte form.
func DecompressPublicKey(pub []byte) ([65]byte, error) {
	var out [65]byte

	if len(pub) != PubKeyLen {
		return out, fmt.Errorf("%w: compressed key of %d bytes",
			walleterr.ErrInvalidKey, len(pub))
	}

	key, err := btcec.ParsePubKey(pub)
	if err != nil {
		return out, walleterr.Wrap(walleterr.ErrInvalidKey, "parse", err)
	}
	copy(out[:], key.SerializeUncompressed())

	return out, nil
}

// ECDH returns sha256 of the compressed point priv·pub.
func ECDH(priv [32]byte, pub []byte) ([32]byte, error) {
	var shared [32]byte

	remote, err := btcec.ParsePubKey(pub)
	if err != nil {
		return shared, walleterr.Wrap(
			walleterr.ErrInvalidKey, "ecdh pubkey", err,
		)
	}

	err = WithPrivateKey(priv, func(key *btcec.PrivateKey) error {
		shared = ECDHPoint(key, remote)
		return nil
	})

	return shared, err
}

// ECDHPoint performs the scalar multiplication priv·pub and returns the
// sha256 of the resulting point in compressed form.
func ECDHPoint(priv *btcec.PrivateKey, pub *btcec.PublicKey) [32]byte {
	var (
		pubJacobian btcec.JacobianPoint
		s           btcec.JacobianPoint
	)
	pub.AsJacobian(&pubJacobian)

	btcec.ScalarMultNonConst(&priv.Key, &pubJacobian, &s)
	s.ToAffine()
	sPubKey := btcec.NewPublicKey(&s.X, &s.Y)

	return sha256.Sum256(sPubKey.SerializeCompressed())
}

// RandomBytes returns n bytes from the system CSPRNG.
func RandomBytes(n int) ([]byte, error) {
	return RandomBytesFrom(rand.Reader, n)
}

// RandomBytesFrom returns n bytes read from r.
func RandomBytesFrom(r io.Reader, n int) ([]byte, error) {
	b := make([]byte, n)
	if _, err := io.ReadFull(r, b); err != nil {
		return nil, fmt.Errorf("unable to read randomness: %w", err)
	}

	return b, nil
}

// RandomScalar reads candidate scalars from r until one is a valid private
// key.
func RandomScalar(r io.Reader) (Secret, error) {
	var s Secret
	for {
		if _, err := io.ReadFull(r, s[:]); err != nil {
			s.Zero()
			return s, fmt.Errorf("unable to read randomness: %w",
				err)
		}

		if PrivateKeyVerify(s[:]) == nil {
			return s, nil
		}
	}
}

// EphemeralKeyPair returns a fresh key pair from the system CSPRNG.
func EphemeralKeyPair() (*btcec.PrivateKey, error) {
	return EphemeralKeyPairFrom(rand.Reader)
}

// EphemeralKeyPairFrom draws candidates from r until one passes scalar
// validation. It never returns an invalid key.
func EphemeralKeyPairFrom(r io.Reader) (*btcec.PrivateKey, error) {
	s, err := RandomScalar(r)
	if err != nil {
		return nil, err
	}
	defer s.Zero()

	priv, _ := btcec.PrivKeyFromBytes(s[:])

	return priv, nil
}
