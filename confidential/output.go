package confidential

import (
	"fmt"
	"io"

	"github.com/gdkwallet/ctcrypto/walleterr"
	"github.com/lightningnetwork/lnd/tlv"
)

const (
	typeAsset           tlv.Type = 0
	typeValue           tlv.Type = 1
	typeGenerator       tlv.Type = 2
	typeCommitment      tlv.Type = 3
	typeNonceCommitment tlv.Type = 4
	typeRangeProof      tlv.Type = 6
	typeSurjectionProof tlv.Type = 8
)

// BlindedOutput is the confidential form of a transaction output. Explicit
// outputs only carry Asset and Value.
type BlindedOutput struct {
	Asset [AssetLen]byte
	Value uint64

	Generator       [PointLen]byte
	Commitment      [PointLen]byte
	NonceCommitment [PointLen]byte
	RangeProof      []byte
	SurjectionProof []byte
}

// IsExplicit reports whether the output carries no commitments.
func (o *BlindedOutput) IsExplicit() bool {
	return o.Commitment == [PointLen]byte{}
}

// records returns the TLV records of every field.
func (o *BlindedOutput) records() []tlv.Record {
	return []tlv.Record{
		tlv.MakePrimitiveRecord(typeAsset, &o.Asset),
		tlv.MakePrimitiveRecord(typeValue, &o.Value),
		tlv.MakePrimitiveRecord(typeGenerator, &o.Generator),
		tlv.MakePrimitiveRecord(typeCommitment, &o.Commitment),
		tlv.MakePrimitiveRecord(
			typeNonceCommitment, &o.NonceCommitment,
		),
		tlv.MakePrimitiveRecord(typeRangeProof, &o.RangeProof),
		tlv.MakePrimitiveRecord(
			typeSurjectionProof, &o.SurjectionProof,
		),
	}
}

// Encode writes the output as a TLV stream. Explicit outputs encode their
// asset and value, blinded outputs their commitments and proofs.
func (o *BlindedOutput) Encode(w io.Writer) error {
	all := o.records()

	records := all[:2]
	if !o.IsExplicit() {
		records = all[2:]
	}

	stream, err := tlv.NewStream(records...)
	if err != nil {
		return err
	}

	return stream.Encode(w)
}

// Decode reads an output written by Encode.
func (o *BlindedOutput) Decode(r io.Reader) error {
	stream, err := tlv.NewStream(o.records()...)
	if err != nil {
		return err
	}

	parsed, err := stream.DecodeWithParsedTypes(r)
	if err != nil {
		return err
	}

	has := func(types ...tlv.Type) int {
		n := 0
		for _, t := range types {
			if _, ok := parsed[t]; ok {
				n++
			}
		}

		return n
	}

	explicit := has(typeAsset, typeValue)
	blinded := has(
		typeGenerator, typeCommitment, typeNonceCommitment,
		typeRangeProof, typeSurjectionProof,
	)

	switch {
	case explicit == 2 && blinded == 0:
		return nil

	case explicit == 0 && blinded == 5 && !o.IsExplicit():
		return nil

	default:
		return fmt.Errorf("%w: incomplete output record",
			walleterr.ErrInvalidProof)
	}
}
