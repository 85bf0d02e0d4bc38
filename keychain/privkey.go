package keychain

import (
	"fmt"
	"strings"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/gdkwallet/ctcrypto/primitives"
	"github.com/gdkwallet/ctcrypto/walleterr"
)

const (
	// wifUncompressedLen and wifCompressedLen are the base58 lengths of
	// WIF keys.
	wifUncompressedLen = 51
	wifCompressedLen   = 52
)

// ImportedKey is a private key recovered from one of the supported text
// encodings.
type ImportedKey struct {
	// Key is the raw private key.
	Key primitives.Secret

	// Compressed reports whether the key's address uses the compressed
	// public key.
	Compressed bool
}

// Zero wipes the key.
func (k *ImportedKey) Zero() {
	k.Key.Zero()
}

// ImportPrivateKey decodes a private key given as a serialized extended
// private key, a WIF string or a BIP38 encrypted key. The format is picked
// from the prefix and length of encoded.
func ImportPrivateKey(encoded, passphrase string,
	mainnet bool) (*ImportedKey, error) {

	switch {
	case strings.HasPrefix(encoded, "xprv"),
		strings.HasPrefix(encoded, "tprv"):

		return importExtendedKey(encoded)

	case len(encoded) == wifUncompressedLen,
		len(encoded) == wifCompressedLen:

		return importWIF(encoded, mainnet)

	case len(encoded) == BIP38EncodedLen:
		priv, compressed, err := BIP38Decrypt(encoded, passphrase, mainnet)
		if err != nil {
			return nil, err
		}

		return &ImportedKey{Key: priv, Compressed: compressed}, nil

	default:
		return nil, fmt.Errorf("%w: unrecognised encoding",
			walleterr.ErrInvalidPrivateKey)
	}
}

// importExtendedKey returns the private key of a serialized extended key.
// Extended keys do not record the address form, so the key is reported as
// uncompressed.
func importExtendedKey(encoded string) (*ImportedKey, error) {
	key, err := ParseExtendedKeyString(encoded)
	if err != nil {
		return nil, walleterr.Wrap(
			walleterr.ErrInvalidPrivateKey, "extended key", err,
		)
	}
	defer key.Zero()

	priv, err := key.PrivKey().UnwrapOrErr(
		fmt.Errorf("%w: public extended key",
			walleterr.ErrInvalidPrivateKey),
	)
	if err != nil {
		return nil, err
	}

	return &ImportedKey{Key: priv}, nil
}

// importWIF decodes a WIF key for the requested network. The compression
// flag must agree with the encoded length.
func importWIF(encoded string, mainnet bool) (*ImportedKey, error) {
	wif, err := btcutil.DecodeWIF(encoded)
	if err != nil {
		return nil, walleterr.Wrap(
			walleterr.ErrInvalidPrivateKey, "wif", err,
		)
	}
	defer wif.PrivKey.Zero()

	if !wif.IsForNet(bip38Net(mainnet)) {
		return nil, fmt.Errorf("%w: wif for wrong network",
			walleterr.ErrInvalidPrivateKey)
	}

	compressed := len(encoded) == wifCompressedLen
	if wif.CompressPubKey != compressed {
		return nil, fmt.Errorf("%w: wif compression flag mismatch",
			walleterr.ErrInvalidPrivateKey)
	}

	imported := &ImportedKey{Compressed: compressed}
	raw := wif.PrivKey.Key.Bytes()
	copy(imported.Key[:], raw[:])
	primitives.ZeroBytes(raw[:])

	return imported, nil
}
