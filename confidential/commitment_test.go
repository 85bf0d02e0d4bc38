package confidential

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"testing"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/gdkwallet/ctcrypto/primitives"
	"github.com/gdkwallet/ctcrypto/walleterr"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

// randomScalar returns a fresh non-zero scalar.
func randomScalar(t testing.TB) [ScalarLen]byte {
	t.Helper()

	s, err := primitives.RandomScalar(rand.Reader)
	require.NoError(t, err)

	return s
}

// seededScalar derives a scalar from seed. The chance of hitting a value
// that is not below the group order is negligible.
func seededScalar(seed uint64, label string) [ScalarLen]byte {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], seed)

	return sha256.Sum256(append([]byte(label), buf[:]...))
}

// overflowScalar returns a value above the group order.
func overflowScalar() [ScalarLen]byte {
	var s [ScalarLen]byte
	for i := range s {
		s[i] = 0xff
	}

	return s
}

func testAsset(b byte) [AssetLen]byte {
	var a [AssetLen]byte
	for i := range a {
		a[i] = b
	}

	return a
}

// TestGenerator checks that generators are deterministic and separate
// assets.
func TestGenerator(t *testing.T) {
	t.Parallel()

	var zero [ScalarLen]byte

	g1, err := Generator(testAsset(1), zero)
	require.NoError(t, err)
	again, err := Generator(testAsset(1), zero)
	require.NoError(t, err)
	require.Equal(t, g1, again)

	g2, err := Generator(testAsset(2), zero)
	require.NoError(t, err)
	require.NotEqual(t, g1, g2)

	blinded, err := Generator(testAsset(1), randomScalar(t))
	require.NoError(t, err)
	require.NotEqual(t, g1, blinded)

	_, err = Generator(testAsset(1), overflowScalar())
	require.ErrorIs(t, err, walleterr.ErrInvalidKey)
}

// TestTaggedPointParse checks the serialized forms of generators and
// commitments.
func TestTaggedPointParse(t *testing.T) {
	t.Parallel()

	gen, err := Generator(testAsset(5), randomScalar(t))
	require.NoError(t, err)
	require.Contains(t, []byte{0x0a, 0x0b}, gen[0])

	c, err := ValueCommitment(5_000, randomScalar(t), gen)
	require.NoError(t, err)
	require.Contains(t, []byte{0x08, 0x09}, c[0])

	_, err = parseTaggedPoint(gen, generatorTag)
	require.NoError(t, err)
	_, err = parseTaggedPoint(c, commitmentTag)
	require.NoError(t, err)

	// The tag picks the root of y, so flipping it gives the negated
	// point and the sum with the original cancels.
	flipped := c
	flipped[0] ^= 0x01
	p, err := parseTaggedPoint(c, commitmentTag)
	require.NoError(t, err)
	q, err := parseTaggedPoint(flipped, commitmentTag)
	require.NoError(t, err)
	sum := addPoints(&p, &q)
	require.True(t, isInfinity(&sum))

	// A commitment is not a generator.
	_, err = parseTaggedPoint(c, generatorTag)
	require.Error(t, err)

	require.False(t, VerifyBalance(
		[][PointLen]byte{gen}, [][PointLen]byte{gen},
	))
}

// TestScalarOffset checks that a commitment can be re-expressed against the
// unblinded generator.
func TestScalarOffset(t *testing.T) {
	t.Parallel()

	var (
		asset = testAsset(7)
		abf   = randomScalar(t)
		vbf   = randomScalar(t)
		value = uint64(21_000_000)
		zero  [ScalarLen]byte
	)

	gen, err := Generator(asset, abf)
	require.NoError(t, err)
	blinded, err := ValueCommitment(value, vbf, gen)
	require.NoError(t, err)

	offset, err := ScalarOffset(value, abf, vbf)
	require.NoError(t, err)
	plain, err := Generator(asset, zero)
	require.NoError(t, err)
	rebased, err := ValueCommitment(value, offset, plain)
	require.NoError(t, err)

	require.Equal(t, blinded, rebased)
}

// balancedCommitments blinds the given inputs and outputs of one asset and
// returns their commitments, using FinalVbf for the last output.
func balancedCommitments(t require.TestingT, asset [AssetLen]byte,
	inValues, outValues []uint64, abfs,
	vbfs [][ScalarLen]byte) ([][PointLen]byte, [][PointLen]byte) {

	values := append(append([]uint64{}, inValues...), outValues...)

	final, err := FinalVbf(values, len(inValues), abfs, vbfs)
	require.NoError(t, err)
	allVbfs := append(append([][ScalarLen]byte{}, vbfs...), final)

	commits := make([][PointLen]byte, len(values))
	for i := range values {
		gen, err := Generator(asset, abfs[i])
		require.NoError(t, err)

		commits[i], err = ValueCommitment(values[i], allVbfs[i], gen)
		require.NoError(t, err)
	}

	return commits[:len(inValues)], commits[len(inValues):]
}

// TestSumToZero blinds a two input, two output transaction and checks that
// the commitments cancel to the point at infinity.
func TestSumToZero(t *testing.T) {
	t.Parallel()

	abfs := [][ScalarLen]byte{
		randomScalar(t), randomScalar(t), randomScalar(t),
		randomScalar(t),
	}
	vbfs := [][ScalarLen]byte{
		randomScalar(t), randomScalar(t), randomScalar(t),
	}

	ins, outs := balancedCommitments(
		t, testAsset(3), []uint64{50_000, 25_000},
		[]uint64{60_000, 15_000}, abfs, vbfs,
	)
	require.True(t, VerifyBalance(ins, outs))

	var sum btcec.JacobianPoint
	for _, c := range ins {
		p, err := parseTaggedPoint(c, commitmentTag)
		require.NoError(t, err)
		sum = addPoints(&sum, &p)
	}
	for _, c := range outs {
		p, err := parseTaggedPoint(c, commitmentTag)
		require.NoError(t, err)
		sum = subPoints(&sum, &p)
	}
	require.True(t, isInfinity(&sum))

	// Moving one satoshi between outputs breaks the balance.
	gen, err := Generator(testAsset(3), abfs[2])
	require.NoError(t, err)
	skewed, err := ValueCommitment(60_001, vbfs[2], gen)
	require.NoError(t, err)
	require.False(t, VerifyBalance(ins, [][PointLen]byte{skewed, outs[1]}))
}

// TestSumToZeroProperty checks the balance law over random values and
// blinding factors.
func TestSumToZeroProperty(t *testing.T) {
	t.Parallel()

	rapid.Check(t, func(t *rapid.T) {
		in1 := rapid.Uint64Range(0, 1<<50).Draw(t, "in1")
		in2 := rapid.Uint64Range(0, 1<<50).Draw(t, "in2")
		out1 := rapid.Uint64Range(0, in1+in2).Draw(t, "out1")
		out2 := in1 + in2 - out1
		seed := rapid.Uint64().Draw(t, "seed")

		abfs := make([][ScalarLen]byte, 4)
		for i := range abfs {
			abfs[i] = seededScalar(seed, fmt.Sprintf("abf%d", i))
		}
		vbfs := make([][ScalarLen]byte, 3)
		for i := range vbfs {
			vbfs[i] = seededScalar(seed, fmt.Sprintf("vbf%d", i))
		}

		ins, outs := balancedCommitments(
			t, seededScalar(seed, "asset"), []uint64{in1, in2},
			[]uint64{out1, out2}, abfs, vbfs,
		)
		if !VerifyBalance(ins, outs) {
			t.Fatalf("commitments do not balance")
		}
	})
}

// TestFinalVbfLengths checks that mismatched inputs are an assertion.
func TestFinalVbfLengths(t *testing.T) {
	t.Parallel()

	abfs := [][ScalarLen]byte{randomScalar(t), randomScalar(t)}

	require.Panics(t, func() {
		_, _ = FinalVbf([]uint64{1, 1}, 1, abfs, nil)
	})
	require.Panics(t, func() {
		_, _ = FinalVbf(
			[]uint64{1, 1}, 2, abfs, [][ScalarLen]byte{{}},
		)
	})
}

// TestValueCodec checks the explicit confidential value encoding.
func TestValueCodec(t *testing.T) {
	t.Parallel()

	b := ValueFromSatoshi(0x0102030405060708)
	require.Equal(t, [ExplicitValueLen]byte{
		0x01, 0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08,
	}, b)

	v, err := SatoshiFromValue(b[:])
	require.NoError(t, err)
	require.Equal(t, uint64(0x0102030405060708), v)

	_, err = SatoshiFromValue(b[:8])
	require.ErrorIs(t, err, walleterr.ErrInvalidValue)

	b[0] = 0x08
	_, err = SatoshiFromValue(b[:])
	require.ErrorIs(t, err, walleterr.ErrInvalidValue)
}
