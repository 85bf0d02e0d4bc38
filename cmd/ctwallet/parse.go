package main

import (
	"encoding/hex"
	"fmt"

	"github.com/urfave/cli"
)

// hexFlag decodes the hex value of the named flag.
func hexFlag(ctx *cli.Context, name string) ([]byte, error) {
	if !ctx.IsSet(name) {
		return nil, fmt.Errorf("%w: --%s", errMissingArg, name)
	}

	return decodeHex(name, ctx.String(name))
}

// decodeHex decodes s, naming what in the error.
func decodeHex(what, s string) ([]byte, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("unable to decode %s: %w", what, err)
	}

	return b, nil
}

// decodeHex32 decodes a 32 byte hex string.
func decodeHex32(what, s string) ([32]byte, error) {
	var res [32]byte
	b, err := decodeHex(what, s)
	if err != nil {
		return res, err
	}
	if len(b) != len(res) {
		return res, fmt.Errorf("%s must be %d bytes, got %d", what,
			len(res), len(b))
	}
	copy(res[:], b)

	return res, nil
}

// decodeHex33 decodes a 33 byte hex string such as a compressed public key.
func decodeHex33(what, s string) ([33]byte, error) {
	var res [33]byte
	b, err := decodeHex(what, s)
	if err != nil {
		return res, err
	}
	if len(b) != len(res) {
		return res, fmt.Errorf("%s must be %d bytes, got %d", what,
			len(res), len(b))
	}
	copy(res[:], b)

	return res, nil
}

// hex32Flag decodes the 32 byte hex value of the named flag.
func hex32Flag(ctx *cli.Context, name string) ([32]byte, error) {
	if !ctx.IsSet(name) {
		return [32]byte{}, fmt.Errorf("%w: --%s", errMissingArg, name)
	}

	return decodeHex32(name, ctx.String(name))
}
