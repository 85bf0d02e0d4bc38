package primitives

import (
	"github.com/btcsuite/btcd/btcec/v2"
)

// Secret holds 32 bytes of secret material such as a private key or a
// blinding factor.
type Secret [32]byte

// Zero wipes the secret.
func (s *Secret) Zero() {
	clear(s[:])
}

// IsZero reports whether every byte of the secret is zero.
func (s *Secret) IsZero() bool {
	var acc byte
	for _, b := range s {
		acc |= b
	}

	return acc == 0
}

// WithSecret hands fn a scratch secret and wipes it after fn returns, on
// every path.
func WithSecret(fn func(s *Secret) error) error {
	var s Secret
	defer s.Zero()

	return fn(&s)
}

// WithPrivateKey parses raw as a private key, hands it to fn and wipes the
// parsed key afterwards. raw itself is left untouched.
func WithPrivateKey(raw [32]byte, fn func(*btcec.PrivateKey) error) error {
	if err := PrivateKeyVerify(raw[:]); err != nil {
		return err
	}

	priv, _ := btcec.PrivKeyFromBytes(raw[:])
	defer priv.Zero()

	return fn(priv)
}

// ZeroBytes wipes b.
func ZeroBytes(b []byte) {
	clear(b)
}
