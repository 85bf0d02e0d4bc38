package confidential

import (
	"fmt"

	"github.com/gdkwallet/ctcrypto/walleterr"
	elements "github.com/vulpemventures/go-elements/confidential"
)

const (
	// MinRangeProofExp is the smallest accepted exponent. -1 asks for an
	// exact value proof.
	MinRangeProofExp = -1

	// MaxRangeProofExp is the largest decimal exponent of a range proof.
	MaxRangeProofExp = 18

	// MaxRangeProofBits is the largest mantissa of a range proof.
	MaxRangeProofBits = 64

	// minMessageBits is the smallest mantissa whose rings can carry the
	// asset and abf of an output.
	minMessageBits = 3
)

// RangeProofParams are the inputs of a rewindable range proof. The asset
// and abf are embedded as the proof message, Extra is committed to.
type RangeProofParams struct {
	Value      uint64
	Nonce      [32]byte
	Asset      [AssetLen]byte
	Abf        [ScalarLen]byte
	Vbf        [ScalarLen]byte
	Commitment [PointLen]byte
	Extra      []byte
	Exp        int
	MinBits    int
}

// CheckProofShape rejects an exponent or mantissa outside the proof limits.
func CheckProofShape(exp, minBits int) error {
	switch {
	case exp < MinRangeProofExp || exp > MaxRangeProofExp:
		return fmt.Errorf("%w: exp must be in [%d, %d], got %d",
			walleterr.ErrInvalidProof, MinRangeProofExp,
			MaxRangeProofExp, exp)

	case minBits < 0 || minBits > MaxRangeProofBits:
		return fmt.Errorf("%w: minbits must be in [0, %d], got %d",
			walleterr.ErrInvalidProof, MaxRangeProofBits, minBits)
	}

	return nil
}

// proofShape returns the exponent and mantissa actually used for a proof
// that carries a message. An exact value proof has no rings to hide the
// message in, and fewer than minMessageBits bits leave too little room, so
// both are widened.
func proofShape(exp, minBits int) (int, int) {
	if exp < 0 {
		exp = 0
	}
	if minBits < minMessageBits {
		minBits = minMessageBits
	}

	return exp, minBits
}

// RangeProof proves that the committed value is at least one and embeds the
// asset and abf for the holder of the nonce.
func RangeProof(p RangeProofParams) ([]byte, error) {
	if err := CheckProofShape(p.Exp, p.MinBits); err != nil {
		return nil, err
	}
	if p.Value == 0 {
		return nil, fmt.Errorf("%w: range proofs need a positive value",
			walleterr.ErrInvalidValue)
	}

	gen, err := Generator(p.Asset, p.Abf)
	if err != nil {
		return nil, err
	}
	commitment, err := ValueCommitment(p.Value, p.Vbf, gen)
	if err != nil {
		return nil, err
	}
	if commitment != p.Commitment {
		return nil, fmt.Errorf("%w: commitment does not open to value",
			walleterr.ErrInvalidProof)
	}

	exp, minBits := proofShape(p.Exp, p.MinBits)
	proof, err := elements.RangeProof(elements.RangeProofArgs{
		Value:               p.Value,
		Nonce:               p.Nonce,
		Asset:               p.Asset[:],
		AssetBlindingFactor: p.Abf[:],
		ValueBlindFactor:    p.Vbf,
		ValueCommit:         p.Commitment[:],
		ScriptPubkey:        p.Extra,
		Exp:                 exp,
		MinBits:             minBits,
	})
	if err != nil {
		return nil, walleterr.Wrap(walleterr.ErrInvalidProof,
			"range proof", err)
	}

	return proof, nil
}

// VerifyRangeProof checks proof against commitment, generator and the extra
// data it commits to.
func VerifyRangeProof(proof []byte, commitment, generator [PointLen]byte,
	extra []byte) error {

	if len(proof) == 0 {
		return fmt.Errorf("%w: empty range proof",
			walleterr.ErrInvalidProof)
	}
	if err := checkCommitment(commitment); err != nil {
		return err
	}
	if err := checkGenerator(generator); err != nil {
		return err
	}

	if !elements.VerifyRangeProof(
		commitment[:], generator[:], extra, proof,
	) {

		return fmt.Errorf("%w: range proof does not verify",
			walleterr.ErrInvalidProof)
	}

	return nil
}
