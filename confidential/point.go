package confidential

import (
	"encoding/binary"
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2"
	secp "github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/gdkwallet/ctcrypto/walleterr"
	secp256k1 "github.com/vulpemventures/go-secp256k1-zkp"
)

const (
	// PointLen is the length of a serialized generator or commitment.
	PointLen = 33

	// ScalarLen is the length of a blinding factor.
	ScalarLen = 32

	// Serialized commitments and generators start with a tag whose low
	// bit is set when y is not a square.
	commitmentTag = 0x08
	generatorTag  = 0x0a
)

// withContext runs f with a fresh zkp context.
func withContext(f func(ctx *secp256k1.Context) error) error {
	ctx, err := secp256k1.ContextCreate(secp256k1.ContextBoth)
	if err != nil {
		return fmt.Errorf("unable to create context: %w", err)
	}
	defer secp256k1.ContextDestroy(ctx)

	return f(ctx)
}

// checkGenerator requires gen to be a valid serialized asset generator.
func checkGenerator(gen [PointLen]byte) error {
	return withContext(func(ctx *secp256k1.Context) error {
		if _, err := secp256k1.GeneratorParse(ctx, gen[:]); err != nil {
			return walleterr.Wrap(walleterr.ErrInvalidProof,
				"generator", err)
		}

		return nil
	})
}

// checkCommitment requires c to be a valid serialized value commitment.
func checkCommitment(c [PointLen]byte) error {
	return withContext(func(ctx *secp256k1.Context) error {
		if _, err := secp256k1.CommitmentParse(ctx, c[:]); err != nil {
			return walleterr.Wrap(walleterr.ErrInvalidProof,
				"commitment", err)
		}

		return nil
	})
}

// isInfinity reports whether p is the point at infinity.
func isInfinity(p *btcec.JacobianPoint) bool {
	return (p.X.IsZero() && p.Y.IsZero()) || p.Z.IsZero()
}

// parseTaggedPoint decodes a commitment or generator serialized with base
// tag. The y coordinate is the square root when the low tag bit is clear.
func parseTaggedPoint(b [PointLen]byte, tag byte) (btcec.JacobianPoint,
	error) {

	var p btcec.JacobianPoint

	if b[0]&^1 != tag {
		return p, fmt.Errorf("unknown point tag %#02x", b[0])
	}

	var x, y btcec.FieldVal
	if x.SetByteSlice(b[1:]) {
		return p, fmt.Errorf("x coordinate out of range")
	}
	if !secp.DecompressY(&x, false, &y) {
		return p, fmt.Errorf("x coordinate not on the curve")
	}
	y.Normalize()

	var root btcec.FieldVal
	wantSquare := b[0]&1 == 0
	if root.SquareRootVal(&y) != wantSquare {
		y.Negate(1).Normalize()
	}

	p.X.Set(&x)
	p.Y.Set(&y)
	p.Z.SetInt(1)

	return p, nil
}

// addPoints returns a + b.
func addPoints(a, b *btcec.JacobianPoint) btcec.JacobianPoint {
	var r btcec.JacobianPoint
	btcec.AddNonConst(a, b, &r)

	return r
}

// subPoints returns a - b.
func subPoints(a, b *btcec.JacobianPoint) btcec.JacobianPoint {
	neg := *b
	if !isInfinity(&neg) {
		neg.ToAffine()
		neg.Y.Negate(1).Normalize()
	}

	return addPoints(a, &neg)
}

// loadScalar parses a 32-byte big-endian scalar. Zero is allowed, values not
// below the group order are not.
func loadScalar(b [ScalarLen]byte) (btcec.ModNScalar, error) {
	var s btcec.ModNScalar
	if s.SetBytes(&b) != 0 {
		return s, fmt.Errorf("%w: scalar out of range",
			walleterr.ErrInvalidKey)
	}

	return s, nil
}

// checkScalar requires b to be below the group order.
func checkScalar(b [ScalarLen]byte) error {
	s, err := loadScalar(b)
	s.Zero()

	return err
}

// scalarFromUint64 returns v as a scalar.
func scalarFromUint64(v uint64) btcec.ModNScalar {
	var (
		s   btcec.ModNScalar
		buf [8]byte
	)
	binary.BigEndian.PutUint64(buf[:], v)
	s.SetByteSlice(buf[:])

	return s
}
