package confidential

import (
	"encoding/binary"
	"fmt"

	"github.com/gdkwallet/ctcrypto/walleterr"
)

const (
	// ExplicitValueLen is the length of an explicit confidential value.
	ExplicitValueLen = 9

	explicitPrefix = 0x01
)

// ValueFromSatoshi returns the explicit confidential encoding of v.
func ValueFromSatoshi(v uint64) [ExplicitValueLen]byte {
	var out [ExplicitValueLen]byte
	out[0] = explicitPrefix
	binary.BigEndian.PutUint64(out[1:], v)

	return out
}

// SatoshiFromValue decodes an explicit confidential value.
func SatoshiFromValue(b []byte) (uint64, error) {
	if len(b) != ExplicitValueLen {
		return 0, fmt.Errorf("%w: length %d", walleterr.ErrInvalidValue,
			len(b))
	}
	if b[0] != explicitPrefix {
		return 0, fmt.Errorf("%w: prefix %#02x", walleterr.ErrInvalidValue,
			b[0])
	}

	return binary.BigEndian.Uint64(b[1:]), nil
}
