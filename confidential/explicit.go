package confidential

import (
	"fmt"

	"github.com/gdkwallet/ctcrypto/walleterr"
	elements "github.com/vulpemventures/go-elements/confidential"
)

// ExplicitRangeProof proves that commitment opens to exactly value. The
// nonce seeds the proof.
func ExplicitRangeProof(value uint64, nonce [32]byte, vbf [ScalarLen]byte,
	commitment, generator [PointLen]byte) ([]byte, error) {

	want, err := ValueCommitment(value, vbf, generator)
	if err != nil {
		return nil, err
	}
	if want != commitment {
		return nil, fmt.Errorf("%w: commitment does not open to value",
			walleterr.ErrInvalidProof)
	}

	seed := func() ([]byte, error) {
		return append([]byte(nil), nonce[:]...), nil
	}

	proof, err := elements.CreateBlindValueProof(
		seed, vbf[:], value, commitment[:], generator[:],
	)
	if err != nil {
		return nil, walleterr.Wrap(walleterr.ErrInvalidProof,
			"explicit proof", err)
	}

	return proof, nil
}

// VerifyExplicitRangeProof checks that proof is valid for commitment and
// states exactly value.
func VerifyExplicitRangeProof(proof []byte, value uint64, commitment,
	generator [PointLen]byte) error {

	if len(proof) == 0 {
		return fmt.Errorf("%w: empty explicit proof",
			walleterr.ErrInvalidProof)
	}
	if err := checkCommitment(commitment); err != nil {
		return err
	}
	if err := checkGenerator(generator); err != nil {
		return err
	}

	if !elements.VerifyBlindValueProof(
		value, commitment[:], proof, generator[:],
	) {

		return fmt.Errorf("%w: proof does not state value %d",
			walleterr.ErrInvalidProof, value)
	}

	return nil
}
