package signer

import (
	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/gdkwallet/ctcrypto/primitives"
)

// SignMessage signs message the way Bitcoin wallets sign text: a
// recoverable signature over the double sha256 of the magic prefixed
// message.
func SignMessage(priv [32]byte, message []byte) (RecoverableSignature,
	error) {

	return SignRecoverable(priv, primitives.FormatBitcoinMessage(message),
		false)
}

// RecoverMessagePubKey returns the key that signed message, and whether the
// signature commits to its compressed form.
func RecoverMessagePubKey(rsig RecoverableSignature,
	message []byte) (*btcec.PublicKey, bool, error) {

	return RecoverPubKey(rsig, primitives.FormatBitcoinMessage(message))
}
