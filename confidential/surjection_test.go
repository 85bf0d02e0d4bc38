package confidential

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/gdkwallet/ctcrypto/walleterr"
	"github.com/stretchr/testify/require"
)

// surjectionInputs returns n blinded inputs with alternating assets.
func surjectionInputs(t *testing.T, n int) ([][AssetLen]byte,
	[][ScalarLen]byte) {

	t.Helper()

	assets := make([][AssetLen]byte, n)
	abfs := make([][ScalarLen]byte, n)
	for i := range assets {
		assets[i] = testAsset(byte(i%2 + 1))
		abfs[i] = randomScalar(t)
	}

	return assets, abfs
}

// TestSurjectionProof proves and verifies over several input set sizes.
func TestSurjectionProof(t *testing.T) {
	t.Parallel()

	for _, n := range []int{1, 2, 3, 5, 17} {
		t.Run(fmt.Sprintf("%d inputs", n), func(t *testing.T) {
			assets, abfs := surjectionInputs(t, n)

			outAsset := assets[n-1]
			outAbf := randomScalar(t)

			proof, err := SurjectionProof(
				outAsset, outAbf, randomScalar(t), assets, abfs,
			)
			require.NoError(t, err)

			err = VerifySurjectionProof(
				proof, outAsset, outAbf, assets, abfs,
			)
			require.NoError(t, err)

			// An unrelated asset is rejected.
			err = VerifySurjectionProof(
				proof, testAsset(9), outAbf, assets, abfs,
			)
			require.ErrorIs(t, err, walleterr.ErrInvalidProof)

			// So is a different blinding of the same asset.
			err = VerifySurjectionProof(
				proof, outAsset, randomScalar(t), assets, abfs,
			)
			require.ErrorIs(t, err, walleterr.ErrInvalidProof)
		})
	}
}

// TestSurjectionProofUnblindedAsset covers an output that reuses the asset
// blinding factor of its input.
func TestSurjectionProofUnblindedAsset(t *testing.T) {
	t.Parallel()

	assets, abfs := surjectionInputs(t, 2)

	proof, err := SurjectionProof(
		assets[0], abfs[0], randomScalar(t), assets, abfs,
	)
	require.NoError(t, err)
	require.NoError(t, VerifySurjectionProof(
		proof, assets[0], abfs[0], assets, abfs,
	))
}

// TestSurjectionProofRejects covers invalid proofs and inputs.
func TestSurjectionProofRejects(t *testing.T) {
	t.Parallel()

	assets, abfs := surjectionInputs(t, 4)
	outAbf := randomScalar(t)

	proof, err := SurjectionProof(
		assets[0], outAbf, randomScalar(t), assets, abfs,
	)
	require.NoError(t, err)

	// No input carries the asset.
	_, err = SurjectionProof(
		testAsset(9), outAbf, randomScalar(t), assets, abfs,
	)
	require.ErrorIs(t, err, walleterr.ErrInvalidProof)

	_, err = SurjectionProof(
		assets[0], overflowScalar(), randomScalar(t), assets, abfs,
	)
	require.ErrorIs(t, err, walleterr.ErrInvalidKey)

	tests := []struct {
		name     string
		proof    []byte
		inAssets [][AssetLen]byte
		inAbfs   [][ScalarLen]byte
	}{{
		name:     "truncated",
		proof:    proof[:len(proof)-1],
		inAssets: assets,
		inAbfs:   abfs,
	}, {
		name:     "input dropped",
		proof:    proof,
		inAssets: assets[:3],
		inAbfs:   abfs[:3],
	}, {
		name:     "input count mismatch",
		proof:    proof,
		inAssets: assets,
		inAbfs:   abfs[:3],
	}, {
		name:     "bad response",
		proof:    flipByte(proof, len(proof)-1),
		inAssets: assets,
		inAbfs:   abfs,
	}, {
		name:     "empty",
		proof:    nil,
		inAssets: assets,
		inAbfs:   abfs,
	}, {
		name:  "no inputs",
		proof: proof,
	}}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			err := VerifySurjectionProof(
				test.proof, assets[0], outAbf, test.inAssets,
				test.inAbfs,
			)
			require.ErrorIs(t, err, walleterr.ErrInvalidProof)
		})
	}
}

func flipByte(b []byte, i int) []byte {
	out := bytes.Clone(b)
	out[i] ^= 0x01

	return out
}
