package confidential

import (
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/gdkwallet/ctcrypto/primitives"
	"github.com/gdkwallet/ctcrypto/walleterr"
	elements "github.com/vulpemventures/go-elements/confidential"
)

// ValueCommitment returns the Pedersen commitment of value under vbf against
// generator.
func ValueCommitment(value uint64, vbf [ScalarLen]byte,
	generator [PointLen]byte) ([PointLen]byte, error) {

	var out [PointLen]byte

	if err := checkScalar(vbf); err != nil {
		return out, err
	}
	if err := checkGenerator(generator); err != nil {
		return out, err
	}

	c, err := elements.ValueCommitment(value, generator[:], vbf[:])
	if err != nil {
		return out, walleterr.Wrap(walleterr.ErrInvalidProof,
			"commitment", err)
	}
	if len(c) != PointLen {
		return out, walleterr.Wrap(walleterr.ErrInvalidProof,
			"commitment length", nil)
	}
	copy(out[:], c)

	return out, nil
}

// ScalarOffset returns value*abf + vbf, the blinding factor of a commitment
// expressed relative to the unblinded asset generator.
func ScalarOffset(value uint64, abf,
	vbf [ScalarLen]byte) ([ScalarLen]byte, error) {

	a, err := loadScalar(abf)
	if err != nil {
		return [ScalarLen]byte{}, err
	}
	defer a.Zero()

	v, err := loadScalar(vbf)
	if err != nil {
		return [ScalarLen]byte{}, err
	}
	defer v.Zero()

	amount := scalarFromUint64(value)

	var offset btcec.ModNScalar
	offset.Mul2(&amount, &a).Add(&v)
	defer offset.Zero()

	return offset.Bytes(), nil
}

// byteSlices returns views of 32-byte values as plain byte slices.
func byteSlices(s [][ScalarLen]byte) [][]byte {
	out := make([][]byte, len(s))
	for i := range s {
		out[i] = s[i][:]
	}

	return out
}

// FinalVbf returns the value blinding factor of the last output that makes
// the commitments of a transaction balance. values and abfs cover every
// input followed by every output. vbfs covers the same entries except the
// last output.
func FinalVbf(values []uint64, numInputs int, abfs,
	vbfs [][ScalarLen]byte) ([ScalarLen]byte, error) {

	n := len(values)
	walleterr.Assert(numInputs > 0 && numInputs < n,
		"%d inputs of %d values", numInputs, n)
	walleterr.Assert(len(abfs) == n, "%d abfs for %d values", len(abfs), n)
	walleterr.Assert(len(vbfs) == n-1, "%d vbfs for %d values",
		len(vbfs), n)

	for i := range abfs {
		if err := checkScalar(abfs[i]); err != nil {
			return [ScalarLen]byte{}, err
		}
	}
	for i := range vbfs {
		if err := checkScalar(vbfs[i]); err != nil {
			return [ScalarLen]byte{}, err
		}
	}

	// The library appends the output slices to the input ones, so the
	// input views are capped to keep it from writing into the outputs.
	rawAbfs, rawVbfs := byteSlices(abfs), byteSlices(vbfs)
	final, err := elements.FinalValueBlindingFactor(
		elements.FinalValueBlindingFactorArgs{
			InValues:      values[:numInputs:numInputs],
			OutValues:     values[numInputs:],
			InGenerators:  rawAbfs[:numInputs:numInputs],
			OutGenerators: rawAbfs[numInputs:],
			InFactors:     rawVbfs[:numInputs:numInputs],
			OutFactors:    rawVbfs[numInputs:],
		},
	)
	if err != nil {
		return [ScalarLen]byte{}, walleterr.Wrap(
			walleterr.ErrInvalidProof, "final vbf", err,
		)
	}

	if final == [ScalarLen]byte{} {
		return final, fmt.Errorf("%w: final vbf is zero",
			walleterr.ErrInvalidProof)
	}
	if err := checkScalar(final); err != nil {
		primitives.ZeroBytes(final[:])
		return [ScalarLen]byte{}, err
	}

	return final, nil
}

// VerifyBalance reports whether the input commitments sum to the output
// commitments.
func VerifyBalance(inputs, outputs [][PointLen]byte) bool {
	var sum btcec.JacobianPoint

	for _, c := range inputs {
		p, err := parseTaggedPoint(c, commitmentTag)
		if err != nil {
			return false
		}
		sum = addPoints(&sum, &p)
	}
	for _, c := range outputs {
		p, err := parseTaggedPoint(c, commitmentTag)
		if err != nil {
			return false
		}
		sum = subPoints(&sum, &p)
	}

	return isInfinity(&sum)
}
