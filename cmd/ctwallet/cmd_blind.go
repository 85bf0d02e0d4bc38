package main

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/gdkwallet/ctcrypto/confidential"
	"github.com/gdkwallet/ctcrypto/keychain"
	"github.com/gdkwallet/ctcrypto/primitives"
	"github.com/lightningnetwork/lnd/fn/v2"
	"github.com/urfave/cli"
)

var blindCommand = cli.Command{
	Name:      "blind",
	Usage:     "Blind the outputs of a transaction.",
	ArgsUsage: "[request-file]",
	Description: `
	Read a JSON blinding request from request-file, or from stdin when no
	file or "-" is given, and print every output as a hex encoded TLV
	stream. The request has the form:

	{
	    "inputs": [
	        {"asset": <hex>, "abf": <hex>, "vbf": <hex>, "value": <n>}
	    ],
	    "outputs": [
	        {"asset": <hex>, "value": <n>, "script": <hex>,
	         "blinding_pubkey": <hex>}
	    ]
	}

	Outputs without a blinding_pubkey stay explicit. Asset ids are given
	in internal byte order. The range proof parameters are taken from the
	[blinding] section of the config file.
	`,
	Action: blind,
}

type blindInput struct {
	Asset string `json:"asset"`
	Abf   string `json:"abf"`
	Vbf   string `json:"vbf"`
	Value uint64 `json:"value"`
}

type blindOutput struct {
	Asset          string `json:"asset"`
	Value          uint64 `json:"value"`
	Script         string `json:"script"`
	BlindingPubKey string `json:"blinding_pubkey,omitempty"`
}

type blindRequest struct {
	Inputs  []blindInput  `json:"inputs"`
	Outputs []blindOutput `json:"outputs"`
}

type blindResponse struct {
	Outputs []string `json:"outputs"`
}

// readRequest reads the request file named by the first argument, or stdin.
func readRequest(ctx *cli.Context) ([]byte, error) {
	name := ctx.Args().First()
	if name == "" || name == "-" {
		var r io.Reader = os.Stdin
		if in, ok := ctx.App.Metadata[stdinKey].(io.Reader); ok {
			r = in
		}

		return io.ReadAll(r)
	}

	return os.ReadFile(name)
}

// stdinKey is the app metadata key of an alternative request reader.
const stdinKey = "stdin"

// parseInputs decodes the openings of the spent outputs.
func (r *blindRequest) parseInputs() ([]confidential.UnblindedOutput,
	error) {

	inputs := make([]confidential.UnblindedOutput, len(r.Inputs))
	for i, in := range r.Inputs {
		asset, err := decodeHex32(
			fmt.Sprintf("input %d asset", i), in.Asset,
		)
		if err != nil {
			return nil, err
		}

		abf, err := decodeHex32(fmt.Sprintf("input %d abf", i), in.Abf)
		if err != nil {
			return nil, err
		}

		vbf, err := decodeHex32(fmt.Sprintf("input %d vbf", i), in.Vbf)
		if err != nil {
			return nil, err
		}

		inputs[i] = confidential.UnblindedOutput{
			Asset: asset,
			Abf:   abf,
			Vbf:   vbf,
			Value: in.Value,
		}
	}

	return inputs, nil
}

// parseOutputs decodes the requested outputs.
func (r *blindRequest) parseOutputs() ([]confidential.OutputRequest, error) {
	outputs := make([]confidential.OutputRequest, len(r.Outputs))
	for i, out := range r.Outputs {
		asset, err := decodeHex32(
			fmt.Sprintf("output %d asset", i), out.Asset,
		)
		if err != nil {
			return nil, err
		}

		pkScript, err := decodeHex(
			fmt.Sprintf("output %d script", i), out.Script,
		)
		if err != nil {
			return nil, err
		}

		req := confidential.OutputRequest{
			Asset:          asset,
			Value:          out.Value,
			Script:         pkScript,
			BlindingPubKey: fn.None[*btcec.PublicKey](),
		}

		if out.BlindingPubKey != "" {
			rawPub, err := decodeHex(
				fmt.Sprintf("output %d blinding_pubkey", i),
				out.BlindingPubKey,
			)
			if err != nil {
				return nil, err
			}

			pub, err := btcec.ParsePubKey(rawPub)
			if err != nil {
				return nil, fmt.Errorf("output %d: invalid "+
					"blinding_pubkey: %w", i, err)
			}
			req.BlindingPubKey = fn.Some(pub)
		}

		outputs[i] = req
	}

	return outputs, nil
}

func blind(ctx *cli.Context) error {
	raw, err := readRequest(ctx)
	if err != nil {
		return fmt.Errorf("unable to read request: %w", err)
	}

	var req blindRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		return fmt.Errorf("unable to parse request: %w", err)
	}

	inputs, err := req.parseInputs()
	if err != nil {
		return err
	}
	defer func() {
		for i := range inputs {
			inputs[i].Zero()
		}
	}()

	outputs, err := req.parseOutputs()
	if err != nil {
		return err
	}

	cfg := getConfig(ctx)
	blinder := confidential.NewBlinder(cfg.Blinding.BlinderConfig())

	blinded, openings, err := blinder.Blind(
		context.Background(), inputs, outputs,
	)
	if err != nil {
		return err
	}
	defer func() {
		for i := range openings {
			openings[i].Zero()
		}
	}()

	resp := &blindResponse{Outputs: make([]string, len(blinded))}
	for i, out := range blinded {
		err := confidential.VerifyOutput(
			out, outputs[i].Script, &openings[i], inputs,
		)
		if err != nil {
			return fmt.Errorf("output %d failed "+
				"verification: %w", i, err)
		}

		var buf bytes.Buffer
		if err := out.Encode(&buf); err != nil {
			return err
		}
		resp.Outputs[i] = hex.EncodeToString(buf.Bytes())
	}

	log.Infof("Blinded %d outputs spending %d inputs", len(blinded),
		len(inputs))

	return printJSON(ctx, resp)
}

var unblindCommand = cli.Command{
	Name:      "unblind",
	Usage:     "Open a blinded output with its blinding private key.",
	ArgsUsage: "output-tlv",
	Flags: []cli.Flag{
		cli.StringFlag{
			Name:  "key",
			Usage: "The hex encoded blinding private key.",
		},
		cli.StringFlag{
			Name:  "script",
			Usage: "The hex encoded output script.",
		},
	},
	Action: unblind,
}

type unblindResponse struct {
	Asset string `json:"asset"`
	Value uint64 `json:"value"`
	Abf   string `json:"abf"`
	Vbf   string `json:"vbf"`
}

func unblind(ctx *cli.Context) error {
	if ctx.NArg() != 1 {
		return cli.ShowCommandHelp(ctx, "unblind")
	}

	rawOut, err := decodeHex("output", ctx.Args().First())
	if err != nil {
		return err
	}

	var out confidential.BlindedOutput
	if err := out.Decode(bytes.NewReader(rawOut)); err != nil {
		return err
	}

	if out.IsExplicit() {
		var zero [32]byte
		return printJSON(ctx, &unblindResponse{
			Asset: hex.EncodeToString(out.Asset[:]),
			Value: out.Value,
			Abf:   hex.EncodeToString(zero[:]),
			Vbf:   hex.EncodeToString(zero[:]),
		})
	}

	priv, err := hex32Flag(ctx, "key")
	if err != nil {
		return err
	}
	defer primitives.ZeroBytes(priv[:])

	pkScript, err := hexFlag(ctx, "script")
	if err != nil {
		return err
	}

	blindingKey, _ := btcec.PrivKeyFromBytes(priv[:])
	defer blindingKey.Zero()

	keyECDH := &keychain.PrivKeyECDH{PrivKey: blindingKey}
	nonce, err := keychain.RangeProofNonce(keyECDH, out.NonceCommitment)
	if err != nil {
		return err
	}
	defer primitives.ZeroBytes(nonce[:])

	opened, err := confidential.UnblindWithNonce(&out, pkScript, nonce)
	if err != nil {
		return err
	}
	defer opened.Zero()

	return printJSON(ctx, &unblindResponse{
		Asset: hex.EncodeToString(opened.Asset[:]),
		Value: opened.Value,
		Abf:   hex.EncodeToString(opened.Abf[:]),
		Vbf:   hex.EncodeToString(opened.Vbf[:]),
	})
}
