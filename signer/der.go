package signer

import (
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2/ecdsa"
	"github.com/gdkwallet/ctcrypto/walleterr"
)

const (
	// minDERLen is the length of a DER signature with one byte r and s.
	minDERLen = 8

	// MaxDERLen is the length of a DER signature with padded 33 byte r
	// and s.
	MaxDERLen = 72
)

// ToDERNoSighash returns the strict DER encoding of sig.
func ToDERNoSighash(sig Signature) ([]byte, error) {
	s, err := sig.toECDSA()
	if err != nil {
		return nil, err
	}

	return s.Serialize(), nil
}

// ToDER returns the strict DER encoding of sig followed by the sighash byte.
func ToDER(sig Signature, sighash byte) ([]byte, error) {
	der, err := ToDERNoSighash(sig)
	if err != nil {
		return nil, err
	}

	return append(der, sighash), nil
}

// FromDER parses a strict DER signature. If hasSighash is set the trailing
// sighash byte is stripped first.
func FromDER(der []byte, hasSighash bool) (Signature, error) {
	var sig Signature

	if hasSighash {
		if len(der) == 0 {
			return sig, fmt.Errorf("%w: der: missing sighash byte",
				walleterr.ErrInvalidSignature)
		}
		der = der[:len(der)-1]
	}

	// The parser below ignores bytes past the sequence length.
	if len(der) < minDERLen || len(der) > MaxDERLen ||
		int(der[1]) != len(der)-2 {

		return sig, fmt.Errorf("%w: der: length %d",
			walleterr.ErrInvalidSignature, len(der))
	}

	parsed, err := ecdsa.ParseDERSignature(der)
	if err != nil {
		return sig, walleterr.Wrap(
			walleterr.ErrInvalidSignature, "der", err,
		)
	}

	r, s := parsed.R(), parsed.S()

	return NewSignature(&r, &s), nil
}
