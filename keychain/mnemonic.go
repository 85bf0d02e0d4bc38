package keychain

import (
	"crypto/sha256"
	"fmt"
	"strings"

	"github.com/gdkwallet/ctcrypto/primitives"
	"github.com/gdkwallet/ctcrypto/walleterr"
	"github.com/tyler-smith/go-bip39"
)

const (
	// SeedLen is the length of a BIP39 seed.
	SeedLen = 64

	bitsPerWord = 11
)

// entropyBits lists the entropy sizes, in bits, accepted by both the encoder
// and the decoder. 288 bits gives the 27 word mnemonics of older wallets.
var entropyBits = map[int]struct{}{
	128: {},
	256: {},
	288: {},
}

func validEntropyBits(bits int) bool {
	_, ok := entropyBits[bits]
	return ok
}

// EntropyToMnemonic encodes entropy of 16, 32 or 36 bytes as a space
// separated mnemonic. The checksum is the leading len(entropy)/4 bits of the
// sha256 of the entropy.
func EntropyToMnemonic(entropy []byte) (string, error) {
	entBits := len(entropy) * 8
	if !validEntropyBits(entBits) {
		return "", fmt.Errorf("%w: entropy of %d bits",
			walleterr.ErrInvalidMnemonic, entBits)
	}

	csBits := entBits / 32
	sum := sha256.Sum256(entropy)

	// Entropy followed by the checksum byte covers every size we accept,
	// since the checksum never exceeds 9 bits.
	buf := make([]byte, 0, len(entropy)+2)
	buf = append(buf, entropy...)
	buf = append(buf, sum[0], sum[1])
	defer primitives.ZeroBytes(buf)

	wordList := bip39.GetWordList()
	numWords := (entBits + csBits) / bitsPerWord
	words := make([]string, numWords)
	for i := range words {
		words[i] = wordList[readBits(buf, i*bitsPerWord, bitsPerWord)]
	}

	return strings.Join(words, " "), nil
}

// MnemonicToEntropy decodes and checksums a mnemonic. Only 128, 256 and 288
// bit entropy is accepted.
func MnemonicToEntropy(mnemonic string) ([]byte, error) {
	words := strings.Fields(mnemonic)
	n := len(words)
	if n < 12 || n > 27 || n%3 != 0 {
		return nil, fmt.Errorf("%w: %d words", walleterr.ErrInvalidMnemonic,
			n)
	}

	total := n * bitsPerWord
	csBits := total / 33
	entBits := total - csBits

	buf := make([]byte, (total+7)/8)
	defer primitives.ZeroBytes(buf)

	for i, word := range words {
		idx, ok := bip39.GetWordIndex(word)
		if !ok {
			return nil, fmt.Errorf("%w: unknown word at position %d",
				walleterr.ErrInvalidMnemonic, i)
		}
		writeBits(buf, i*bitsPerWord, bitsPerWord, uint32(idx))
	}

	entropy := make([]byte, entBits/8)
	copy(entropy, buf)

	sum := sha256.Sum256(entropy)
	want := readBits(sum[:], 0, csBits)
	got := readBits(buf, entBits, csBits)
	if want != got {
		primitives.ZeroBytes(entropy)
		return nil, fmt.Errorf("%w: checksum mismatch",
			walleterr.ErrInvalidMnemonic)
	}

	if !validEntropyBits(entBits) {
		primitives.ZeroBytes(entropy)
		return nil, fmt.Errorf("%w: entropy of %d bits",
			walleterr.ErrInvalidMnemonic, entBits)
	}

	return entropy, nil
}

// ValidateMnemonic checks the words and checksum of mnemonic.
func ValidateMnemonic(mnemonic string) error {
	entropy, err := MnemonicToEntropy(mnemonic)
	if err != nil {
		return err
	}
	primitives.ZeroBytes(entropy)

	return nil
}

// MnemonicToSeed validates mnemonic and stretches it into a BIP39 seed with
// the given passphrase.
func MnemonicToSeed(mnemonic, passphrase string) ([SeedLen]byte, error) {
	var seed [SeedLen]byte
	if err := ValidateMnemonic(mnemonic); err != nil {
		return seed, err
	}

	normalized := strings.Join(strings.Fields(mnemonic), " ")
	raw := bip39.NewSeed(normalized, passphrase)
	copy(seed[:], raw)
	primitives.ZeroBytes(raw)

	return seed, nil
}

// GenerateMnemonic returns a fresh mnemonic carrying bits of entropy.
func GenerateMnemonic(bits int) (string, error) {
	if !validEntropyBits(bits) {
		return "", fmt.Errorf("%w: entropy of %d bits",
			walleterr.ErrInvalidMnemonic, bits)
	}

	entropy, err := primitives.RandomBytes(bits / 8)
	if err != nil {
		return "", err
	}
	defer primitives.ZeroBytes(entropy)

	return EntropyToMnemonic(entropy)
}

// readBits returns n bits of b starting at bit offset off, most significant
// bit first.
func readBits(b []byte, off, n int) uint32 {
	var v uint32
	for i := 0; i < n; i++ {
		bit := off + i
		v <<= 1
		v |= uint32(b[bit/8]>>(7-bit%8)) & 1
	}

	return v
}

// writeBits stores the low n bits of v into b at bit offset off.
func writeBits(b []byte, off, n int, v uint32) {
	for i := 0; i < n; i++ {
		bit := off + i
		if v>>(n-1-i)&1 == 1 {
			b[bit/8] |= 1 << (7 - bit%8)
		}
	}
}
