package keychain

import (
	"bytes"
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/btcutil/base58"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/gdkwallet/ctcrypto/primitives"
	"github.com/gdkwallet/ctcrypto/walleterr"
	"golang.org/x/text/unicode/norm"
)

const (
	// bip38Prefix is the leading pair of bytes of a non-EC-multiply BIP38
	// key. The first byte doubles as the base58check version.
	bip38Prefix0 = 0x01
	bip38Prefix1 = 0x42

	// bip38FlagNoECMultiply is always set for keys we produce and accept.
	bip38FlagNoECMultiply = 0xc0

	// bip38FlagCompressed marks a key whose address uses the compressed
	// public key.
	bip38FlagCompressed = 0x20

	// bip38PayloadLen is the length of the payload after the version byte.
	bip38PayloadLen = 38

	// BIP38EncodedLen is the length of the base58check encoding.
	BIP38EncodedLen = 58

	bip38ScryptN = 16384
	bip38ScryptR = 8
	bip38ScryptP = 8
)

func bip38Net(mainnet bool) *chaincfg.Params {
	if mainnet {
		return &chaincfg.MainNetParams
	}

	return &chaincfg.TestNet3Params
}

// bip38AddressHash returns the first four bytes of sha256d of the P2PKH
// address of priv.
func bip38AddressHash(priv *btcec.PrivateKey, compressed,
	mainnet bool) ([]byte, error) {

	var pub []byte
	if compressed {
		pub = priv.PubKey().SerializeCompressed()
	} else {
		pub = priv.PubKey().SerializeUncompressed()
	}

	addr, err := btcutil.NewAddressPubKeyHash(
		btcutil.Hash160(pub), bip38Net(mainnet),
	)
	if err != nil {
		return nil, err
	}

	sum := primitives.SHA256d([]byte(addr.EncodeAddress()))

	return sum[:4], nil
}

// bip38DeriveKey stretches the NFC normalised passphrase with the address
// hash as salt.
func bip38DeriveKey(passphrase string, addrHash []byte) ([]byte, error) {
	pass := norm.NFC.Bytes([]byte(passphrase))
	defer primitives.ZeroBytes(pass)

	return primitives.Scrypt(
		pass, addrHash, bip38ScryptN, bip38ScryptR, bip38ScryptP, 64,
	)
}

// BIP38Encrypt encrypts priv under passphrase using the non-EC-multiply
// method.
func BIP38Encrypt(priv [32]byte, passphrase string, compressed,
	mainnet bool) (string, error) {

	var encoded string
	err := primitives.WithPrivateKey(priv, func(k *btcec.PrivateKey) error {
		addrHash, err := bip38AddressHash(k, compressed, mainnet)
		if err != nil {
			return err
		}

		derived, err := bip38DeriveKey(passphrase, addrHash)
		if err != nil {
			return err
		}
		defer primitives.ZeroBytes(derived)

		half1, half2 := derived[:32], derived[32:]

		var plain [32]byte
		defer primitives.ZeroBytes(plain[:])
		for i := range plain {
			plain[i] = priv[i] ^ half1[i]
		}

		cipherText, err := primitives.AESEncryptECB(half2, plain[:])
		if err != nil {
			return err
		}

		flag := byte(bip38FlagNoECMultiply)
		if compressed {
			flag |= bip38FlagCompressed
		}

		payload := make([]byte, 0, bip38PayloadLen)
		payload = append(payload, bip38Prefix1, flag)
		payload = append(payload, addrHash...)
		payload = append(payload, cipherText...)

		encoded = base58.CheckEncode(payload, bip38Prefix0)

		return nil
	})
	if err != nil {
		return "", walleterr.Wrap(
			walleterr.ErrInvalidPrivateKey, "bip38 encrypt", err,
		)
	}

	return encoded, nil
}

// decodeBIP38 returns the payload following the version byte.
func decodeBIP38(encoded string) ([]byte, error) {
	payload, version, err := base58.CheckDecode(encoded)
	if err != nil {
		return nil, walleterr.Wrap(
			walleterr.ErrInvalidPrivateKey, "bip38", err,
		)
	}

	if version != bip38Prefix0 || len(payload) != bip38PayloadLen ||
		payload[0] != bip38Prefix1 {

		return nil, fmt.Errorf("%w: not a bip38 key",
			walleterr.ErrInvalidPrivateKey)
	}

	flag := payload[1]
	if flag&^bip38FlagCompressed != bip38FlagNoECMultiply {
		return nil, fmt.Errorf("%w: unsupported bip38 flags %#x",
			walleterr.ErrInvalidPrivateKey, flag)
	}

	return payload, nil
}

// BIP38Decrypt decrypts a non-EC-multiply BIP38 key. The compressed flag is
// taken from the encoded key.
func BIP38Decrypt(encoded, passphrase string,
	mainnet bool) (primitives.Secret, bool, error) {

	var priv primitives.Secret

	payload, err := decodeBIP38(encoded)
	if err != nil {
		return priv, false, err
	}

	compressed := payload[1]&bip38FlagCompressed != 0
	addrHash := payload[2:6]

	derived, err := bip38DeriveKey(passphrase, addrHash)
	if err != nil {
		return priv, false, walleterr.Wrap(
			walleterr.ErrInvalidPrivateKey, "bip38 kdf", err,
		)
	}
	defer primitives.ZeroBytes(derived)

	half1, half2 := derived[:32], derived[32:]

	plain, err := primitives.AESDecryptECB(half2, payload[6:])
	if err != nil {
		return priv, false, walleterr.Wrap(
			walleterr.ErrInvalidPrivateKey, "bip38 decrypt", err,
		)
	}
	defer primitives.ZeroBytes(plain)

	for i := range priv {
		priv[i] = plain[i] ^ half1[i]
	}

	err = primitives.WithPrivateKey(priv, func(k *btcec.PrivateKey) error {
		got, err := bip38AddressHash(k, compressed, mainnet)
		if err != nil {
			return err
		}
		if !bytes.Equal(got, addrHash) {
			return fmt.Errorf("address hash mismatch")
		}

		return nil
	})
	if err != nil {
		priv.Zero()
		return priv, false, walleterr.Wrap(
			walleterr.ErrInvalidPrivateKey, "bip38 passphrase", err,
		)
	}

	log.Debugf("Decrypted bip38 key (compressed=%v)", compressed)

	return priv, compressed, nil
}
