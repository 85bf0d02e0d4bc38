package confidential

import (
	"context"
	"fmt"

	"github.com/gdkwallet/ctcrypto/ctutils"
	"github.com/gdkwallet/ctcrypto/primitives"
	"github.com/gdkwallet/ctcrypto/walleterr"
	elements "github.com/vulpemventures/go-elements/confidential"
	"github.com/vulpemventures/go-elements/transaction"
)

// UnblindedOutput is the opening of a confidential output.
type UnblindedOutput struct {
	Asset [AssetLen]byte
	Abf   [ScalarLen]byte
	Vbf   [ScalarLen]byte
	Value uint64
}

// Zero wipes the blinding factors.
func (u *UnblindedOutput) Zero() {
	primitives.ZeroBytes(u.Abf[:])
	primitives.ZeroBytes(u.Vbf[:])
}

// RangeProofNonce returns the nonce shared by the holder of blindingPriv and
// the creator of nonceCommitment.
func RangeProofNonce(nonceCommitment [PointLen]byte,
	blindingPriv [32]byte) ([32]byte, error) {

	nonce, err := elements.NonceHash(nonceCommitment[:], blindingPriv[:])
	if err != nil {
		return [32]byte{}, walleterr.Wrap(walleterr.ErrInvalidKey,
			"nonce", err)
	}

	return nonce, nil
}

// txOutput returns the transaction output form of a blinded output.
func txOutput(out *BlindedOutput, script []byte) *transaction.TxOutput {
	return &transaction.TxOutput{
		Asset:           out.Generator[:],
		Value:           out.Commitment[:],
		Script:          script,
		Nonce:           out.NonceCommitment[:],
		RangeProof:      out.RangeProof,
		SurjectionProof: out.SurjectionProof,
	}
}

// Unblind opens a confidential output with the receiver's blinding key.
// script is the extra data the range proof commits to.
func Unblind(out *BlindedOutput, script []byte,
	blindingPriv [32]byte) (*UnblindedOutput, error) {

	if out.IsExplicit() {
		return nil, fmt.Errorf("%w: output is explicit",
			walleterr.ErrUnblind)
	}

	res, err := elements.UnblindOutputWithKey(
		txOutput(out, script), blindingPriv[:],
	)

	return openResult(out, res, err)
}

// UnblindWithNonce opens a confidential output with a precomputed nonce.
func UnblindWithNonce(out *BlindedOutput, script []byte,
	nonce [32]byte) (*UnblindedOutput, error) {

	if out.IsExplicit() {
		return nil, fmt.Errorf("%w: output is explicit",
			walleterr.ErrUnblind)
	}

	res, err := elements.UnblindOutputWithNonce(
		txOutput(out, script), nonce[:],
	)

	return openResult(out, res, err)
}

// openResult checks a rewound opening against the output it came from.
func openResult(out *BlindedOutput, res *elements.UnblindOutputResult,
	err error) (*UnblindedOutput, error) {

	switch {
	case err != nil:
		return nil, walleterr.Wrap(walleterr.ErrUnblind, "rewind", err)

	case res == nil:
		return nil, fmt.Errorf("%w: output is not confidential",
			walleterr.ErrUnblind)
	}
	defer primitives.ZeroBytes(res.AssetBlindingFactor)
	defer primitives.ZeroBytes(res.ValueBlindingFactor)

	if len(res.Asset) != AssetLen ||
		len(res.AssetBlindingFactor) != ScalarLen ||
		len(res.ValueBlindingFactor) != ScalarLen {

		return nil, fmt.Errorf("%w: malformed proof message",
			walleterr.ErrUnblind)
	}

	opened := &UnblindedOutput{Value: res.Value}
	copy(opened.Asset[:], res.Asset)
	copy(opened.Abf[:], res.AssetBlindingFactor)
	copy(opened.Vbf[:], res.ValueBlindingFactor)

	gen, err := Generator(opened.Asset, opened.Abf)
	if err != nil || gen != out.Generator {
		opened.Zero()
		return nil, fmt.Errorf("%w: asset does not match generator",
			walleterr.ErrUnblind)
	}

	log.TraceS(context.TODO(), "Unblinded output",
		ctutils.LogPoint("commitment", out.Commitment),
		"range_proof_len", len(out.RangeProof))

	return opened, nil
}
