package confidential

import (
	"github.com/gdkwallet/ctcrypto/walleterr"
	elements "github.com/vulpemventures/go-elements/confidential"
)

// AssetLen is the length of an asset tag.
const AssetLen = 32

// Generator returns the blinded asset generator of asset under abf. A zero
// abf gives the unblinded generator of the asset.
func Generator(asset [AssetLen]byte,
	abf [ScalarLen]byte) ([PointLen]byte, error) {

	var out [PointLen]byte

	if err := checkScalar(abf); err != nil {
		return out, err
	}

	gen, err := elements.AssetCommitment(asset[:], abf[:])
	if err != nil {
		return out, walleterr.Wrap(walleterr.ErrInvalidProof,
			"generator", err)
	}
	if len(gen) != PointLen {
		return out, walleterr.Wrap(walleterr.ErrInvalidProof,
			"generator length", nil)
	}
	copy(out[:], gen)

	return out, nil
}
