package confidential

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"math/bits"
	"runtime"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/gdkwallet/ctcrypto/ctutils"
	"github.com/gdkwallet/ctcrypto/primitives"
	"github.com/gdkwallet/ctcrypto/walleterr"
	"github.com/lightningnetwork/lnd/fn/v2"
	elements "github.com/vulpemventures/go-elements/confidential"
	"golang.org/x/sync/errgroup"
)

const (
	// DefaultExp is the default decimal exponent of range proofs.
	DefaultExp = 0

	// DefaultMinBits is the default minimum range of a proof, which hides
	// the magnitude of any value below 2^52.
	DefaultMinBits = 52
)

// ErrNoBlindedOutputs is returned when a transaction has no output to blind.
var ErrNoBlindedOutputs = errors.New("no output to blind")

// BlinderConfig holds the parameters of a Blinder.
type BlinderConfig struct {
	// Exp and MinBits shape the range proofs. Values the proofs cannot
	// serve are widened, see proofShape.
	Exp     int
	MinBits int

	// Workers bounds the number of proofs built in parallel.
	Workers int

	// Rand is the randomness source of blinding factors and ephemeral
	// keys.
	Rand io.Reader
}

// DefaultBlinderConfig returns the configuration used by wallets.
func DefaultBlinderConfig() BlinderConfig {
	return BlinderConfig{
		Exp:     DefaultExp,
		MinBits: DefaultMinBits,
		Workers: runtime.NumCPU(),
		Rand:    rand.Reader,
	}
}

// Validate rejects a configuration the blinder cannot build proofs for.
func (c *BlinderConfig) Validate() error {
	return CheckProofShape(c.Exp, c.MinBits)
}

// OutputRequest describes an output to be created. An output without a
// blinding key stays explicit.
type OutputRequest struct {
	Asset          [AssetLen]byte
	Value          uint64
	Script         []byte
	BlindingPubKey fn.Option[*btcec.PublicKey]
}

// blinded reports whether the output should be blinded.
func (o *OutputRequest) blinded() bool {
	return o.BlindingPubKey.IsSome()
}

// Blinder blinds the outputs of a transaction so that the commitments
// balance against the inputs.
type Blinder struct {
	cfg BlinderConfig
}

// NewBlinder returns a Blinder. Zero fields of cfg take their defaults.
func NewBlinder(cfg BlinderConfig) *Blinder {
	if cfg.Workers <= 0 {
		cfg.Workers = runtime.NumCPU()
	}
	if cfg.Rand == nil {
		cfg.Rand = rand.Reader
	}

	return &Blinder{cfg: cfg}
}

// blindingState holds the secret material of one Blind call.
type blindingState struct {
	abfs [][ScalarLen]byte
	vbfs [][ScalarLen]byte

	ephemeral []*btcec.PrivateKey
	seeds     [][32]byte
}

// zero wipes every blinding factor and ephemeral key.
func (s *blindingState) zero() {
	for i := range s.abfs {
		primitives.ZeroBytes(s.abfs[i][:])
		primitives.ZeroBytes(s.vbfs[i][:])
	}
	for _, key := range s.ephemeral {
		if key != nil {
			key.Zero()
		}
	}
}

// checkBalance verifies that every asset is spent exactly.
func checkBalance(inputs []UnblindedOutput, outputs []OutputRequest) error {
	totals := make(map[[AssetLen]byte][2]uint64)

	add := func(asset [AssetLen]byte, value uint64, side int) error {
		t := totals[asset]
		sum, carry := bits.Add64(t[side], value, 0)
		if carry != 0 {
			return fmt.Errorf("%w: value overflow for asset %x",
				walleterr.ErrInvalidValue, asset)
		}
		t[side] = sum
		totals[asset] = t

		return nil
	}

	for i := range inputs {
		if err := add(inputs[i].Asset, inputs[i].Value, 0); err != nil {
			return err
		}
	}
	for i := range outputs {
		if err := add(outputs[i].Asset, outputs[i].Value, 1); err != nil {
			return err
		}
	}

	for asset, t := range totals {
		if t[0] != t[1] {
			return fmt.Errorf("%w: asset %x spends %d, creates %d",
				walleterr.ErrInvalidValue, asset, t[0], t[1])
		}
	}

	return nil
}

// Blind returns the blinded form of outputs together with their openings.
// Outputs with a blinding key get fresh blinding factors and proofs, the
// others stay explicit with zero blinders. The value blinding factor of the
// last blinded output balances the transaction. The caller owns the
// openings and should Zero them once done.
func (b *Blinder) Blind(ctx context.Context, inputs []UnblindedOutput,
	outputs []OutputRequest) ([]*BlindedOutput, []UnblindedOutput, error) {

	if err := b.cfg.Validate(); err != nil {
		return nil, nil, err
	}
	if len(inputs) == 0 {
		return nil, nil, fmt.Errorf("%w: no inputs",
			walleterr.ErrInvalidValue)
	}

	last := -1
	for i := range outputs {
		if !outputs[i].blinded() {
			continue
		}
		if outputs[i].Value == 0 {
			return nil, nil, fmt.Errorf("%w: blinded output %d has "+
				"zero value", walleterr.ErrInvalidValue, i)
		}
		last = i
	}
	if last < 0 {
		return nil, nil, ErrNoBlindedOutputs
	}

	if err := checkBalance(inputs, outputs); err != nil {
		return nil, nil, err
	}

	state := &blindingState{
		abfs:      make([][ScalarLen]byte, len(outputs)),
		vbfs:      make([][ScalarLen]byte, len(outputs)),
		ephemeral: make([]*btcec.PrivateKey, len(outputs)),
		seeds:     make([][32]byte, len(outputs)),
	}
	defer state.zero()

	// Draw every random value up front so that the proofs can be built
	// in parallel without sharing the randomness source.
	for i := range outputs {
		if !outputs[i].blinded() {
			continue
		}

		if err := b.randomScalar(&state.abfs[i]); err != nil {
			return nil, nil, err
		}
		if i != last {
			if err := b.randomScalar(&state.vbfs[i]); err != nil {
				return nil, nil, err
			}
		}

		key, err := primitives.EphemeralKeyPairFrom(b.cfg.Rand)
		if err != nil {
			return nil, nil, err
		}
		state.ephemeral[i] = key

		if _, err := io.ReadFull(b.cfg.Rand, state.seeds[i][:]); err != nil {
			return nil, nil, fmt.Errorf("unable to read "+
				"randomness: %w", err)
		}
	}

	finalVbf, err := b.finalVbf(inputs, outputs, state, last)
	if err != nil {
		return nil, nil, err
	}
	state.vbfs[last] = finalVbf
	primitives.ZeroBytes(finalVbf[:])

	inAssets := make([][AssetLen]byte, len(inputs))
	inAbfs := make([][ScalarLen]byte, len(inputs))
	defer func() {
		for i := range inAbfs {
			primitives.ZeroBytes(inAbfs[i][:])
		}
	}()
	for i := range inputs {
		inAssets[i] = inputs[i].Asset
		inAbfs[i] = inputs[i].Abf
	}

	blinded := make([]*BlindedOutput, len(outputs))
	openings := make([]UnblindedOutput, len(outputs))
	for i := range outputs {
		openings[i] = UnblindedOutput{
			Asset: outputs[i].Asset,
			Abf:   state.abfs[i],
			Vbf:   state.vbfs[i],
			Value: outputs[i].Value,
		}
	}

	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(b.cfg.Workers)

	for i := range outputs {
		out := &outputs[i]
		if !out.blinded() {
			blinded[i] = &BlindedOutput{
				Asset: out.Asset,
				Value: out.Value,
			}
			continue
		}

		eg.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}

			res, err := b.blindOutput(
				ctx, out, state, i, inAssets, inAbfs,
			)
			if err != nil {
				return fmt.Errorf("output %d: %w", i, err)
			}
			blinded[i] = res

			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		for i := range openings {
			openings[i].Zero()
		}

		return nil, nil, err
	}

	log.Debugf("Blinded %d outputs against %d inputs", len(outputs),
		len(inputs))

	return blinded, openings, nil
}

// randomScalar fills s with a random non-zero scalar.
func (b *Blinder) randomScalar(s *[ScalarLen]byte) error {
	secret, err := primitives.RandomScalar(b.cfg.Rand)
	if err != nil {
		return err
	}
	*s = secret
	secret.Zero()

	return nil
}

// finalVbf lays the blinding factors out with the last blinded output at the
// end and solves for its value blinding factor.
func (b *Blinder) finalVbf(inputs []UnblindedOutput,
	outputs []OutputRequest, state *blindingState,
	last int) ([ScalarLen]byte, error) {

	n := len(inputs) + len(outputs)
	values := make([]uint64, 0, n)
	abfs := make([][ScalarLen]byte, 0, n)
	vbfs := make([][ScalarLen]byte, 0, n-1)
	defer func() {
		for i := range abfs {
			primitives.ZeroBytes(abfs[i][:])
		}
		for i := range vbfs {
			primitives.ZeroBytes(vbfs[i][:])
		}
	}()

	for i := range inputs {
		values = append(values, inputs[i].Value)
		abfs = append(abfs, inputs[i].Abf)
		vbfs = append(vbfs, inputs[i].Vbf)
	}
	for i := range outputs {
		if i == last {
			continue
		}
		values = append(values, outputs[i].Value)
		abfs = append(abfs, state.abfs[i])
		vbfs = append(vbfs, state.vbfs[i])
	}
	values = append(values, outputs[last].Value)
	abfs = append(abfs, state.abfs[last])

	return FinalVbf(values, len(inputs), abfs, vbfs)
}

// sharedNonce returns the range proof nonce of an output from the sender
// side of the key exchange.
func sharedNonce(receiver *btcec.PublicKey,
	ephemeral *btcec.PrivateKey) ([32]byte, error) {

	priv := ephemeral.Key.Bytes()
	defer primitives.ZeroBytes(priv[:])

	nonce, err := elements.NonceHash(
		receiver.SerializeCompressed(), priv[:],
	)
	if err != nil {
		return nonce, walleterr.Wrap(walleterr.ErrInvalidKey, "nonce",
			err)
	}

	return nonce, nil
}

// blindOutput commits to output i and builds its proofs.
func (b *Blinder) blindOutput(ctx context.Context, out *OutputRequest,
	state *blindingState, i int, inAssets [][AssetLen]byte,
	inAbfs [][ScalarLen]byte) (*BlindedOutput, error) {

	pub, err := out.BlindingPubKey.UnwrapOrErr(
		errors.New("missing blinding key"),
	)
	if err != nil {
		return nil, err
	}

	abf, vbf := state.abfs[i], state.vbfs[i]
	defer primitives.ZeroBytes(abf[:])
	defer primitives.ZeroBytes(vbf[:])

	gen, err := Generator(out.Asset, abf)
	if err != nil {
		return nil, err
	}
	commitment, err := ValueCommitment(out.Value, vbf, gen)
	if err != nil {
		return nil, err
	}

	ephemeral := state.ephemeral[i]
	nonce, err := sharedNonce(pub, ephemeral)
	if err != nil {
		return nil, err
	}
	defer primitives.ZeroBytes(nonce[:])

	res := &BlindedOutput{
		Generator:  gen,
		Commitment: commitment,
	}
	copy(res.NonceCommitment[:], ephemeral.PubKey().SerializeCompressed())

	res.RangeProof, err = RangeProof(RangeProofParams{
		Value:      out.Value,
		Nonce:      nonce,
		Asset:      out.Asset,
		Abf:        abf,
		Vbf:        vbf,
		Commitment: commitment,
		Extra:      out.Script,
		Exp:        b.cfg.Exp,
		MinBits:    b.cfg.MinBits,
	})
	if err != nil {
		return nil, err
	}

	res.SurjectionProof, err = SurjectionProof(
		out.Asset, abf, state.seeds[i], inAssets, inAbfs,
	)
	if err != nil {
		return nil, err
	}

	log.TraceS(ctx, "Blinded output", "index", i,
		ctutils.LogPubKey("receiver", pub),
		ctutils.LogPoint("generator", gen),
		ctutils.LogPoint("commitment", commitment),
		"range_proof_len", len(res.RangeProof))

	return res, nil
}

// VerifyOutput checks a blinded output against its opening and the openings
// of the transaction inputs: the generator and commitment must match the
// opening, the range proof must verify with script as extra data, and the
// surjection proof must tie the asset to the inputs.
func VerifyOutput(out *BlindedOutput, script []byte, opening *UnblindedOutput,
	inputs []UnblindedOutput) error {

	if out.IsExplicit() {
		if out.Asset != opening.Asset || out.Value != opening.Value {
			return fmt.Errorf("%w: explicit output does not match "+
				"opening", walleterr.ErrInvalidProof)
		}

		return nil
	}

	gen, err := Generator(opening.Asset, opening.Abf)
	if err != nil {
		return err
	}
	commitment, err := ValueCommitment(opening.Value, opening.Vbf, gen)
	if err != nil {
		return err
	}
	if gen != out.Generator || commitment != out.Commitment {
		return fmt.Errorf("%w: output does not match opening",
			walleterr.ErrInvalidProof)
	}

	err = VerifyRangeProof(
		out.RangeProof, out.Commitment, out.Generator, script,
	)
	if err != nil {
		return err
	}

	inAssets := make([][AssetLen]byte, len(inputs))
	inAbfs := make([][ScalarLen]byte, len(inputs))
	defer func() {
		for i := range inAbfs {
			primitives.ZeroBytes(inAbfs[i][:])
		}
	}()
	for i := range inputs {
		inAssets[i] = inputs[i].Asset
		inAbfs[i] = inputs[i].Abf
	}

	return VerifySurjectionProof(
		out.SurjectionProof, opening.Asset, opening.Abf, inAssets,
		inAbfs,
	)
}
