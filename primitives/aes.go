package primitives

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"errors"
	"fmt"
)

var (
	// ErrInvalidLength is returned when a buffer passed to a primitive has
	// an unusable length.
	ErrInvalidLength = errors.New("invalid length")

	// ErrInvalidPadding is returned when CBC plaintext padding is corrupt.
	ErrInvalidPadding = errors.New("invalid padding")
)

// newAESBlock returns an AES block cipher for a 16, 24 or 32 byte key.
func newAESBlock(key []byte) (cipher.Block, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("%w: aes key: %w", ErrInvalidLength, err)
	}

	return block, nil
}

// AESEncryptECB encrypts whole blocks of data independently. No padding is
// applied.
func AESEncryptECB(key, data []byte) ([]byte, error) {
	return aesECB(key, data, true)
}

// AESDecryptECB decrypts whole blocks of data independently.
func AESDecryptECB(key, data []byte) ([]byte, error) {
	return aesECB(key, data, false)
}

func aesECB(key, data []byte, encrypt bool) ([]byte, error) {
	block, err := newAESBlock(key)
	if err != nil {
		return nil, err
	}

	if len(data) == 0 || len(data)%aes.BlockSize != 0 {
		return nil, fmt.Errorf("%w: ecb data of %d bytes",
			ErrInvalidLength, len(data))
	}

	out := make([]byte, len(data))
	for i := 0; i < len(data); i += aes.BlockSize {
		if encrypt {
			block.Encrypt(out[i:], data[i:i+aes.BlockSize])
		} else {
			block.Decrypt(out[i:], data[i:i+aes.BlockSize])
		}
	}

	return out, nil
}

// AESEncryptCBC encrypts plain with PKCS#7 padding.
func AESEncryptCBC(key, iv, plain []byte) ([]byte, error) {
	block, err := newAESBlock(key)
	if err != nil {
		return nil, err
	}
	if len(iv) != aes.BlockSize {
		return nil, fmt.Errorf("%w: iv of %d bytes", ErrInvalidLength,
			len(iv))
	}

	pad := aes.BlockSize - len(plain)%aes.BlockSize
	padded := make([]byte, len(plain)+pad)
	copy(padded, plain)
	copy(padded[len(plain):], bytes.Repeat([]byte{byte(pad)}, pad))
	defer ZeroBytes(padded)

	out := make([]byte, len(padded))
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(out, padded)

	return out, nil
}

// AESDecryptCBC decrypts data and strips its PKCS#7 padding.
func AESDecryptCBC(key, iv, data []byte) ([]byte, error) {
	block, err := newAESBlock(key)
	if err != nil {
		return nil, err
	}
	if len(iv) != aes.BlockSize {
		return nil, fmt.Errorf("%w: iv of %d bytes", ErrInvalidLength,
			len(iv))
	}
	if len(data) == 0 || len(data)%aes.BlockSize != 0 {
		return nil, fmt.Errorf("%w: cbc data of %d bytes",
			ErrInvalidLength, len(data))
	}

	out := make([]byte, len(data))
	cipher.NewCBCDecrypter(block, iv).CryptBlocks(out, data)

	pad := int(out[len(out)-1])
	if pad == 0 || pad > aes.BlockSize {
		ZeroBytes(out)
		return nil, ErrInvalidPadding
	}
	for _, b := range out[len(out)-pad:] {
		if int(b) != pad {
			ZeroBytes(out)
			return nil, ErrInvalidPadding
		}
	}

	return out[:len(out)-pad], nil
}
