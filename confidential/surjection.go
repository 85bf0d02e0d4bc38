package confidential

import (
	"fmt"

	"github.com/gdkwallet/ctcrypto/walleterr"
	elements "github.com/vulpemventures/go-elements/confidential"
)

// SurjectionProof proves that the generator of outAsset under outAbf is one
// of the input generators, without saying which. The seed drives the choice
// of decoy inputs.
func SurjectionProof(outAsset [AssetLen]byte, outAbf [ScalarLen]byte,
	seed [32]byte, inAssets [][AssetLen]byte,
	inAbfs [][ScalarLen]byte) ([]byte, error) {

	walleterr.Assert(len(inAssets) == len(inAbfs),
		"%d input assets for %d abfs", len(inAssets), len(inAbfs))

	found := false
	for _, asset := range inAssets {
		found = found || asset == outAsset
	}
	if !found {
		return nil, fmt.Errorf("%w: no input carries asset %x",
			walleterr.ErrInvalidProof, outAsset)
	}

	if err := checkScalar(outAbf); err != nil {
		return nil, err
	}

	assets, abfs := byteSlices(inAssets), byteSlices(inAbfs)
	proof, ok := elements.SurjectionProof(elements.SurjectionProofArgs{
		OutputAsset:               outAsset[:],
		OutputAssetBlindingFactor: outAbf[:],
		InputAssets:               assets,
		InputAssetBlindingFactors: abfs,
		Seed:                      seed[:],
	})
	if !ok {
		return nil, fmt.Errorf("%w: unable to build surjection proof",
			walleterr.ErrInvalidProof)
	}

	return proof, nil
}

// VerifySurjectionProof checks proof for the output asset and abf against
// the opened inputs.
func VerifySurjectionProof(proof []byte, outAsset [AssetLen]byte,
	outAbf [ScalarLen]byte, inAssets [][AssetLen]byte,
	inAbfs [][ScalarLen]byte) error {

	if len(proof) == 0 || len(inAssets) == 0 ||
		len(inAssets) != len(inAbfs) {

		return fmt.Errorf("%w: surjection proof over %d assets and "+
			"%d abfs", walleterr.ErrInvalidProof, len(inAssets),
			len(inAbfs))
	}

	ok := elements.VerifySurjectionProof(
		elements.VerifySurjectionProofArgs{
			InputAssets:               byteSlices(inAssets),
			InputAssetBlindingFactors: byteSlices(inAbfs),
			OutputAsset:               outAsset[:],
			OutputAssetBlindingFactor: outAbf[:],
			Proof:                     proof,
		},
	)
	if !ok {
		return fmt.Errorf("%w: surjection proof does not verify",
			walleterr.ErrInvalidProof)
	}

	return nil
}
