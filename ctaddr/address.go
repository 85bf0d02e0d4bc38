package ctaddr

import (
	"fmt"
	"strings"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcutil/base58"
	"github.com/btcsuite/btcd/btcutil/bech32"
	"github.com/gdkwallet/ctcrypto/chainreg"
	"github.com/gdkwallet/ctcrypto/confidential"
	"github.com/gdkwallet/ctcrypto/walleterr"
	elementsaddr "github.com/vulpemventures/go-elements/address"
)

const (
	// PubKeyLen is the length of an embedded blinding public key.
	PubKeyLen = 33

	hashLen     = 20
	checksumLen = 4

	// confidentialPayloadLen is prefix, version, blinding key and hash.
	confidentialPayloadLen = 1 + 1 + PubKeyLen + hashLen

	minProgramLen = 2
	maxProgramLen = 40
)

// checkPubKey rejects blinding keys that are not valid compressed points.
func checkPubKey(pub [PubKeyLen]byte) error {
	if pub[0] != 0x02 && pub[0] != 0x03 {
		return fmt.Errorf("%w: blinding key is not compressed",
			walleterr.ErrInvalidAddress)
	}
	if _, err := btcec.ParsePubKey(pub[:]); err != nil {
		return walleterr.Wrap(walleterr.ErrInvalidAddress,
			"blinding key", err)
	}

	return nil
}

// Encode embeds blindingPub into a base58 address.
func Encode(address string, blindingPub [PubKeyLen]byte,
	prefix byte) (string, error) {

	if err := checkPubKey(blindingPub); err != nil {
		return "", err
	}

	hash, version, err := base58.CheckDecode(address)
	if err != nil {
		return "", walleterr.Wrap(walleterr.ErrInvalidAddress,
			address, err)
	}
	if len(hash) != hashLen {
		return "", fmt.Errorf("%w: %s carries %d bytes",
			walleterr.ErrInvalidAddress, address, len(hash))
	}

	payload := make([]byte, 0, confidentialPayloadLen-1)
	payload = append(payload, version)
	payload = append(payload, blindingPub[:]...)
	payload = append(payload, hash...)

	return base58.CheckEncode(payload, prefix), nil
}

// Decode splits a base58 confidential address into the address and the
// blinding public key it carries.
func Decode(confAddr string, prefix byte) (string, [PubKeyLen]byte,
	error) {

	var pub [PubKeyLen]byte

	payload, got, err := base58.CheckDecode(confAddr)
	if err != nil {
		return "", pub, walleterr.Wrap(walleterr.ErrInvalidAddress,
			confAddr, err)
	}
	if len(payload) != confidentialPayloadLen-1 {
		return "", pub, fmt.Errorf("%w: %s is not confidential",
			walleterr.ErrInvalidAddress, confAddr)
	}
	if got != prefix {
		return "", pub, fmt.Errorf("%w: prefix %d, want %d",
			walleterr.ErrInvalidAddress, got, prefix)
	}

	copy(pub[:], payload[1:1+PubKeyLen])
	if err := checkPubKey(pub); err != nil {
		return "", pub, err
	}

	address := base58.CheckEncode(payload[1+PubKeyLen:], payload[0])

	return address, pub, nil
}

// IsConfidential reports whether addr has the length of a base58
// confidential address.
func IsConfidential(addr string) bool {
	return len(base58.Decode(addr)) == confidentialPayloadLen+checksumLen
}

// checkProgram validates the length of a witness program.
func checkProgram(witver byte, program []byte) error {
	switch {
	case witver > 16:
		return fmt.Errorf("%w: witness version %d",
			walleterr.ErrInvalidAddress, witver)

	case len(program) < minProgramLen || len(program) > maxProgramLen:
		return fmt.Errorf("%w: witness program of %d bytes",
			walleterr.ErrInvalidAddress, len(program))

	case witver == 0 && len(program) != 20 && len(program) != 32:
		return fmt.Errorf("%w: v0 witness program of %d bytes",
			walleterr.ErrInvalidAddress, len(program))
	}

	return nil
}

// decodeSegwit decodes a bech32 or bech32m segwit address.
func decodeSegwit(address, hrp string) (byte, []byte, error) {
	gotHRP, data, version, err := bech32.DecodeGeneric(address)
	if err != nil {
		return 0, nil, walleterr.Wrap(walleterr.ErrInvalidAddress,
			address, err)
	}
	if gotHRP != strings.ToLower(hrp) {
		return 0, nil, fmt.Errorf("%w: hrp %q, want %q",
			walleterr.ErrInvalidAddress, gotHRP, hrp)
	}
	if len(data) < 1 {
		return 0, nil, fmt.Errorf("%w: empty witness data",
			walleterr.ErrInvalidAddress)
	}

	witver := data[0]
	program, err := bech32.ConvertBits(data[1:], 5, 8, false)
	if err != nil {
		return 0, nil, walleterr.Wrap(walleterr.ErrInvalidAddress,
			"witness program", err)
	}
	if err := checkProgram(witver, program); err != nil {
		return 0, nil, err
	}

	want := bech32.Version0
	if witver != 0 {
		want = bech32.VersionM
	}
	if version != want {
		return 0, nil, fmt.Errorf("%w: wrong checksum for witness "+
			"version %d", walleterr.ErrInvalidAddress, witver)
	}

	return witver, program, nil
}

// encodeSegwit encodes a segwit address with the checksum its version
// requires.
func encodeSegwit(hrp string, witver byte, program []byte) (string, error) {
	conv, err := bech32.ConvertBits(program, 8, 5, true)
	if err != nil {
		return "", walleterr.Wrap(walleterr.ErrInvalidAddress,
			"witness program", err)
	}
	data := append([]byte{witver}, conv...)

	if witver == 0 {
		return bech32.Encode(hrp, data)
	}

	return bech32.EncodeM(hrp, data)
}

// EncodeSegwit embeds blindingPub into a segwit address of the given
// human readable part and returns the blech32 confidential address. Version
// 0 programs use the blech32 checksum, later versions blech32m.
func EncodeSegwit(address string, blindingPub [PubKeyLen]byte, hrp,
	confHRP string) (string, error) {

	if err := checkPubKey(blindingPub); err != nil {
		return "", err
	}

	witver, program, err := decodeSegwit(address, hrp)
	if err != nil {
		return "", err
	}

	confAddr, err := elementsaddr.ToBlech32(&elementsaddr.Blech32{
		Prefix:    strings.ToLower(confHRP),
		Version:   witver,
		PublicKey: blindingPub[:],
		Program:   program,
	})
	if err != nil {
		return "", walleterr.Wrap(walleterr.ErrInvalidAddress,
			"blech32", err)
	}

	return confAddr, nil
}

// DecodeSegwit splits a blech32 confidential address into the segwit
// address of the given human readable part and its blinding public key.
func DecodeSegwit(confAddr, confHRP, hrp string) (string, [PubKeyLen]byte,
	error) {

	var pub [PubKeyLen]byte

	lower := strings.ToLower(confAddr)
	if confAddr != lower && confAddr != strings.ToUpper(confAddr) {
		return "", pub, fmt.Errorf("%w: mixed case",
			walleterr.ErrInvalidAddress)
	}
	if !strings.HasPrefix(lower, strings.ToLower(confHRP)+"1") {
		return "", pub, fmt.Errorf("%w: want hrp %q",
			walleterr.ErrInvalidAddress, confHRP)
	}

	decoded, err := elementsaddr.FromBlech32(lower)
	if err != nil {
		return "", pub, walleterr.Wrap(walleterr.ErrInvalidAddress,
			"blech32", err)
	}
	if decoded.Prefix != strings.ToLower(confHRP) {
		return "", pub, fmt.Errorf("%w: hrp %q, want %q",
			walleterr.ErrInvalidAddress, decoded.Prefix, confHRP)
	}
	if len(decoded.PublicKey) != PubKeyLen {
		return "", pub, fmt.Errorf("%w: blinding key of %d bytes",
			walleterr.ErrInvalidAddress, len(decoded.PublicKey))
	}
	if err := checkProgram(decoded.Version, decoded.Program); err != nil {
		return "", pub, err
	}

	copy(pub[:], decoded.PublicKey)
	if err := checkPubKey(pub); err != nil {
		return "", pub, err
	}

	address, err := encodeSegwit(hrp, decoded.Version, decoded.Program)
	if err != nil {
		return "", pub, err
	}

	return address, pub, nil
}

// isSegwit reports whether address is a segwit address of params.
func isSegwit(address string, params *chainreg.NetParams) bool {
	return strings.HasPrefix(
		strings.ToLower(address), params.Bech32HRPSegwit+"1",
	)
}

// isBlech32 reports whether confAddr is a blech32 address of params.
func isBlech32(confAddr string, params *chainreg.NetParams) bool {
	return strings.HasPrefix(
		strings.ToLower(confAddr), params.Blech32HRP+"1",
	)
}

// checkElements rejects networks without confidential addresses.
func checkElements(params *chainreg.NetParams) error {
	if !params.Elements {
		return fmt.Errorf("%w: network %s has no confidential "+
			"addresses", walleterr.ErrInvalidAddress, params.Name)
	}

	return nil
}

// FromAddress returns the confidential form of address on params, in the
// encoding matching the address.
func FromAddress(address string, blindingPub [PubKeyLen]byte,
	params *chainreg.NetParams) (string, error) {

	if err := checkElements(params); err != nil {
		return "", err
	}

	if isSegwit(address, params) {
		return EncodeSegwit(
			address, blindingPub, params.Bech32HRPSegwit,
			params.Blech32HRP,
		)
	}

	return Encode(address, blindingPub, params.ConfidentialPrefix)
}

// ToAddress returns the address and blinding public key of a confidential
// address on params.
func ToAddress(confAddr string, params *chainreg.NetParams) (string,
	[PubKeyLen]byte, error) {

	if err := checkElements(params); err != nil {
		return "", [PubKeyLen]byte{}, err
	}

	if isBlech32(confAddr, params) {
		return DecodeSegwit(
			confAddr, params.Blech32HRP, params.Bech32HRPSegwit,
		)
	}

	return Decode(confAddr, params.ConfidentialPrefix)
}

// ConfidentialAddressForScript derives the SLIP-77 blinding key of script
// and returns the confidential form of address.
func ConfidentialAddressForScript(address string, master [32]byte,
	script []byte, params *chainreg.NetParams) (string, error) {

	pub, err := confidential.BlindingPublicKey(master, script)
	if err != nil {
		return "", err
	}

	confAddr, err := FromAddress(address, pub, params)
	if err != nil {
		return "", err
	}

	log.Debugf("Derived confidential address %s for %s", confAddr, address)

	return confAddr, nil
}
