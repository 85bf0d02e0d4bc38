package main

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/gdkwallet/ctcrypto/ctutils"
	"github.com/gdkwallet/ctcrypto/script"
	"github.com/urfave/cli"
)

var csvScriptCommand = cli.Command{
	Name:  "csvscript",
	Usage: "Build a 2-of-2 script that decays to 1-of-2 after a delay.",
	Flags: []cli.Flag{
		cli.StringSliceFlag{
			Name: "keys",
			Usage: "The two hex encoded public keys, the first " +
				"one is only required before the delay. " +
				"Repeat the flag for each key.",
		},
		cli.Uint64Flag{
			Name:  "blocks",
			Usage: "The relative delay in blocks.",
		},
		cli.BoolFlag{
			Name:  "optimize",
			Usage: "Use the shorter script layout.",
		},
	},
	Action: csvScript,
}

func csvScript(ctx *cli.Context) error {
	keyStrs := ctx.StringSlice("keys")
	if len(keyStrs) != 2 {
		return fmt.Errorf("%w: expected 2 keys, got %d", errMissingArg,
			len(keyStrs))
	}
	if !ctx.IsSet("blocks") {
		return fmt.Errorf("%w: --blocks", errMissingArg)
	}
	blocks := ctx.Uint64("blocks")
	if blocks > 0xffffffff {
		return fmt.Errorf("blocks out of range: %d", blocks)
	}

	var keys [2][]byte
	for i, s := range keyStrs {
		key, err := decodeHex(fmt.Sprintf("key %d", i), s)
		if err != nil {
			return err
		}
		keys[i] = key
	}

	redeem, err := script.CSV2of2Then1Script(
		keys, uint32(blocks), ctx.Bool("optimize"),
	)
	if err != nil {
		return err
	}

	params := getConfig(ctx).NetParams()
	witnessHash := sha256.Sum256(redeem)
	addr, err := btcutil.NewAddressWitnessScriptHash(
		witnessHash[:], params.Params,
	)
	if err != nil {
		return err
	}

	return printJSON(ctx, struct {
		Script  string `json:"script"`
		P2WSH   string `json:"p2wsh_script"`
		Address string `json:"address"`
	}{
		hex.EncodeToString(redeem),
		hex.EncodeToString(script.P2WSHForScript(redeem)),
		addr.EncodeAddress(),
	})
}

var parseScriptCommand = cli.Command{
	Name:      "parsescript",
	Usage:     "Classify a script and extract its parameters.",
	ArgsUsage: "script-hex",
	Action:    parseScript,
}

type parseScriptResponse struct {
	Kind      string   `json:"kind"`
	Class     string   `json:"class"`
	Hash      string   `json:"hash,omitempty"`
	PubKeys   []string `json:"pubkeys,omitempty"`
	Threshold int      `json:"threshold,omitempty"`
	CSVBlocks uint32   `json:"csv_blocks,omitempty"`
}

func parseScript(ctx *cli.Context) error {
	if ctx.NArg() != 1 {
		return cli.ShowCommandHelp(ctx, "parsescript")
	}

	raw, err := decodeHex("script", ctx.Args().First())
	if err != nil {
		return err
	}

	resp := &parseScriptResponse{
		Kind:  script.KindUnknown.String(),
		Class: script.Class(raw).String(),
	}

	tmpl, err := script.Parse(raw)
	if err == nil {
		log.Debugf("Parsed script: %v", ctutils.SpewLogClosure(tmpl))

		resp.Kind = tmpl.Kind.String()
		resp.Hash = hex.EncodeToString(tmpl.Hash)
		resp.Threshold = tmpl.Threshold
		resp.CSVBlocks = tmpl.CSVBlocks
		for _, key := range tmpl.PubKeys {
			resp.PubKeys = append(
				resp.PubKeys, hex.EncodeToString(key),
			)
		}
	} else {
		log.Debugf("Script not matched: %v", err)
	}

	return printJSON(ctx, resp)
}
