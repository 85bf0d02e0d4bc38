package primitives

import (
	"crypto/sha256"
	"crypto/sha512"
	"fmt"

	"golang.org/x/crypto/pbkdf2"
	"golang.org/x/crypto/scrypt"
)

// PBKDF2SHA512 derives keyLen bytes from pass and salt using PBKDF2 with
// HMAC-SHA512.
func PBKDF2SHA512(pass, salt []byte, iter, keyLen int) ([]byte, error) {
	if iter <= 0 || keyLen <= 0 {
		return nil, fmt.Errorf("%w: pbkdf2 iter=%d keylen=%d",
			ErrInvalidLength, iter, keyLen)
	}

	return pbkdf2.Key(pass, salt, iter, keyLen, sha512.New), nil
}

// PBKDF2SHA256 derives keyLen bytes from pass and salt using PBKDF2 with
// HMAC-SHA256.
func PBKDF2SHA256(pass, salt []byte, iter, keyLen int) ([]byte, error) {
	if iter <= 0 || keyLen <= 0 {
		return nil, fmt.Errorf("%w: pbkdf2 iter=%d keylen=%d",
			ErrInvalidLength, iter, keyLen)
	}

	return pbkdf2.Key(pass, salt, iter, keyLen, sha256.New), nil
}

// Scrypt derives keyLen bytes from pass and salt with the given cost
// parameters.
func Scrypt(pass, salt []byte, n, r, p, keyLen int) ([]byte, error) {
	key, err := scrypt.Key(pass, salt, n, r, p, keyLen)
	if err != nil {
		return nil, fmt.Errorf("%w: scrypt: %w", ErrInvalidLength, err)
	}

	return key, nil
}
