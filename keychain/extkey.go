package keychain

import (
	"encoding/binary"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcutil/base58"
	"github.com/btcsuite/btcd/btcutil/hdkeychain"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/gdkwallet/ctcrypto/primitives"
	"github.com/gdkwallet/ctcrypto/walleterr"
	"github.com/lightningnetwork/lnd/fn/v2"
)

const (
	// SerializedKeyLen is the length of a BIP32 serialized extended key.
	SerializedKeyLen = 78

	// HardenedKeyStart is the index of the first hardened child.
	HardenedKeyStart = hdkeychain.HardenedKeyStart

	// VersionMainnetPrivate is the BIP32 version of mainnet private keys.
	VersionMainnetPrivate uint32 = 0x0488ade4

	// VersionMainnetPublic is the BIP32 version of mainnet public keys.
	VersionMainnetPublic uint32 = 0x0488b21e

	// VersionTestnetPrivate is the BIP32 version of testnet private keys.
	VersionTestnetPrivate uint32 = 0x04358394

	// VersionTestnetPublic is the BIP32 version of testnet public keys.
	VersionTestnetPublic uint32 = 0x043587cf
)

// ErrInvalidPath is returned when a textual derivation path can't be parsed.
var ErrInvalidPath = errors.New("invalid derivation path")

// ExtendedKey is an immutable BIP32 extended key. It always carries the public
// key and additionally the private key for private extended keys.
type ExtendedKey struct {
	key    *hdkeychain.ExtendedKey
	pubKey [33]byte
}

// newExtendedKey wraps k, caching its compressed public key.
func newExtendedKey(k *hdkeychain.ExtendedKey) (*ExtendedKey, error) {
	pub, err := k.ECPubKey()
	if err != nil {
		return nil, walleterr.Wrap(walleterr.ErrInvalidKey, "pubkey", err)
	}

	e := &ExtendedKey{key: k}
	copy(e.pubKey[:], pub.SerializeCompressed())

	return e, nil
}

func versionBytes(version uint32) [4]byte {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], version)

	return b
}

// FromSeed derives the master extended private key for seed under the given
// private key version.
func FromSeed(seed []byte, version uint32) (*ExtendedKey, error) {
	if len(seed) < hdkeychain.MinSeedBytes ||
		len(seed) > hdkeychain.MaxSeedBytes {

		return nil, fmt.Errorf("%w: seed of %d bytes",
			walleterr.ErrInvalidKey, len(seed))
	}

	params := &chaincfg.Params{HDPrivateKeyID: versionBytes(version)}
	_, err := chaincfg.HDPrivateKeyToPublicKeyID(params.HDPrivateKeyID[:])
	if err != nil {
		return nil, fmt.Errorf("%w: unknown private version %08x",
			walleterr.ErrInvalidKey, version)
	}

	master, err := hdkeychain.NewMaster(seed, params)
	if err != nil {
		return nil, walleterr.Wrap(walleterr.ErrInvalidKey, "master", err)
	}

	return newExtendedKey(master)
}

// ParseExtendedKey decodes a 78-byte BIP32 serialization.
func ParseExtendedKey(raw []byte) (*ExtendedKey, error) {
	if len(raw) != SerializedKeyLen {
		return nil, fmt.Errorf("%w: extended key of %d bytes",
			walleterr.ErrInvalidKey, len(raw))
	}

	payload := make([]byte, 0, SerializedKeyLen+4)
	payload = append(payload, raw...)
	payload = append(payload, chainhash.DoubleHashB(raw)[:4]...)

	return ParseExtendedKeyString(base58.Encode(payload))
}

// ParseExtendedKeyString decodes a base58check extended key such as an xpub
// or tprv.
func ParseExtendedKeyString(s string) (*ExtendedKey, error) {
	k, err := hdkeychain.NewKeyFromString(s)
	if err != nil {
		return nil, walleterr.Wrap(walleterr.ErrInvalidKey, "parse", err)
	}

	return newExtendedKey(k)
}

// MakeXpub builds a depth zero public extended key from a chain code and a
// compressed public key.
func MakeXpub(chainCode [32]byte, pubKey [33]byte,
	version uint32) (*ExtendedKey, error) {

	if _, err := btcec.ParsePubKey(pubKey[:]); err != nil {
		return nil, walleterr.Wrap(walleterr.ErrInvalidKey, "xpub", err)
	}

	v := versionBytes(version)
	k := hdkeychain.NewExtendedKey(
		v[:], pubKey[:], chainCode[:], []byte{0, 0, 0, 0}, 0, 0, false,
	)

	return newExtendedKey(k)
}

// Serialize returns the 78-byte BIP32 serialization of the key.
func (e *ExtendedKey) Serialize() [SerializedKeyLen]byte {
	var raw [SerializedKeyLen]byte

	decoded := base58.Decode(e.key.String())
	walleterr.Assert(len(decoded) == SerializedKeyLen+4,
		"serialized extended key of %d bytes", len(decoded))
	copy(raw[:], decoded)
	primitives.ZeroBytes(decoded)

	return raw
}

// String returns the base58check encoding of the key.
func (e *ExtendedKey) String() string {
	return e.key.String()
}

// Version returns the BIP32 version of the key.
func (e *ExtendedKey) Version() uint32 {
	return binary.BigEndian.Uint32(e.key.Version())
}

// Depth returns the number of derivations from the master key.
func (e *ExtendedKey) Depth() uint8 {
	return e.key.Depth()
}

// ParentFingerprint returns the fingerprint of the parent key.
func (e *ExtendedKey) ParentFingerprint() uint32 {
	return e.key.ParentFingerprint()
}

// ChildNumber returns the index this key was derived at.
func (e *ExtendedKey) ChildNumber() uint32 {
	return e.key.ChildIndex()
}

// ChainCode returns the chain code of the key.
func (e *ExtendedKey) ChainCode() [32]byte {
	var c [32]byte
	copy(c[:], e.key.ChainCode())

	return c
}

// PubKey returns the compressed public key.
func (e *ExtendedKey) PubKey() [33]byte {
	return e.pubKey
}

// Fingerprint returns the first four bytes of hash160(pubkey) as used for the
// parent fingerprint of children.
func (e *ExtendedKey) Fingerprint() uint32 {
	h := primitives.Hash160(e.pubKey[:])

	return binary.BigEndian.Uint32(h[:4])
}

// IsPrivate reports whether the key carries private material.
func (e *ExtendedKey) IsPrivate() bool {
	return e.key.IsPrivate()
}

// PrivKey returns a copy of the private key if present. Callers should wipe
// the copy once done.
func (e *ExtendedKey) PrivKey() fn.Option[primitives.Secret] {
	if !e.key.IsPrivate() {
		return fn.None[primitives.Secret]()
	}

	priv, err := e.key.ECPrivKey()
	if err != nil {
		return fn.None[primitives.Secret]()
	}
	defer priv.Zero()

	var s primitives.Secret
	key := priv.Key.Bytes()
	copy(s[:], key[:])
	primitives.ZeroBytes(key[:])

	return fn.Some(s)
}

// ECPrivKey returns the private key for signing. The caller must Zero it.
func (e *ExtendedKey) ECPrivKey() (*btcec.PrivateKey, error) {
	priv, err := e.key.ECPrivKey()
	if err != nil {
		return nil, walleterr.Wrap(walleterr.ErrInvalidKey, "privkey", err)
	}

	return priv, nil
}

// ECPubKey returns the parsed public key.
func (e *ExtendedKey) ECPubKey() *btcec.PublicKey {
	pub, err := btcec.ParsePubKey(e.pubKey[:])
	walleterr.Assert(err == nil, "cached pubkey invalid: %v", err)

	return pub
}

// Xpub returns the chain code and public key pair of the key.
func (e *ExtendedKey) Xpub() Xpub {
	return Xpub{ChainCode: e.ChainCode(), PubKey: e.pubKey}
}

// Neuter returns the public extended key for e.
func (e *ExtendedKey) Neuter() (*ExtendedKey, error) {
	pub, err := e.key.Neuter()
	if err != nil {
		return nil, walleterr.Wrap(walleterr.ErrInvalidKey, "neuter", err)
	}

	return newExtendedKey(pub)
}

// Zero wipes the private material of the key. The key must not be used
// afterwards.
func (e *ExtendedKey) Zero() {
	e.key.Zero()
}

// Derive returns the child at index. If publicOnly is set the child is
// returned without private material. An invalid child is reported as
// ErrInvalidKey and is never skipped.
func (e *ExtendedKey) Derive(index uint32, publicOnly bool) (*ExtendedKey,
	error) {

	child, err := e.key.Derive(index)
	if err != nil {
		return nil, fmt.Errorf("%w: child %d: %w",
			walleterr.ErrInvalidKey, index, err)
	}

	if publicOnly && child.IsPrivate() {
		pub, err := child.Neuter()
		child.Zero()
		if err != nil {
			return nil, walleterr.Wrap(
				walleterr.ErrInvalidKey, "neuter", err,
			)
		}
		child = pub
	}

	return newExtendedKey(child)
}

// DeriveChild returns the child of parent at index.
func DeriveChild(parent *ExtendedKey, index uint32,
	publicOnly bool) (*ExtendedKey, error) {

	return parent.Derive(index, publicOnly)
}

// DerivePath derives the key at path below parent. Intermediate private keys
// are wiped.
func DerivePath(parent *ExtendedKey, path []uint32,
	publicOnly bool) (*ExtendedKey, error) {

	key := parent
	for i, index := range path {
		last := i == len(path)-1
		child, err := key.Derive(index, publicOnly && last)

		if key != parent {
			key.Zero()
		}
		if err != nil {
			return nil, err
		}
		key = child
	}

	if key == parent && publicOnly && parent.IsPrivate() {
		return parent.Neuter()
	}

	return key, nil
}

// ParsePath parses a path such as "m/84'/1776'/0'/0/3". Hardened components
// are marked with ', h or H. The leading "m" is optional.
func ParsePath(path string) ([]uint32, error) {
	path = strings.TrimSpace(path)
	parts := strings.Split(path, "/")
	if len(parts) > 0 && parts[0] == "m" {
		parts = parts[1:]
	}

	indexes := make([]uint32, 0, len(parts))
	for _, part := range parts {
		hardened := false
		if n := len(part); n > 0 {
			switch part[n-1] {
			case '\'', 'h', 'H':
				hardened = true
				part = part[:n-1]
			}
		}

		index, err := strconv.ParseUint(part, 10, 31)
		if err != nil {
			return nil, fmt.Errorf("%w: component %q", ErrInvalidPath,
				part)
		}

		child := uint32(index)
		if hardened {
			child += HardenedKeyStart
		}
		indexes = append(indexes, child)
	}

	return indexes, nil
}

// Xpub is a public key and chain code pair, as stored by wallets that track
// only the public side of an account.
type Xpub struct {
	ChainCode [32]byte
	PubKey    [33]byte
}
