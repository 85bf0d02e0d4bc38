package main

import (
	"encoding/hex"
	"fmt"

	"github.com/gdkwallet/ctcrypto/confidential"
	"github.com/gdkwallet/ctcrypto/ctaddr"
	"github.com/gdkwallet/ctcrypto/primitives"
	"github.com/urfave/cli"
)

var confAddrCommand = cli.Command{
	Name:      "confaddr",
	Usage:     "Attach a blinding public key to an address.",
	ArgsUsage: "address",
	Flags: []cli.Flag{
		cli.StringFlag{
			Name:  "pubkey",
			Usage: "The hex encoded compressed blinding public " +
				"key.",
		},
	},
	Action: confAddr,
}

func confAddr(ctx *cli.Context) error {
	if ctx.NArg() != 1 {
		return cli.ShowCommandHelp(ctx, "confaddr")
	}
	if !ctx.IsSet("pubkey") {
		return fmt.Errorf("%w: --pubkey", errMissingArg)
	}

	pub, err := decodeHex33("pubkey", ctx.String("pubkey"))
	if err != nil {
		return err
	}

	params := getConfig(ctx).NetParams()
	addr, err := ctaddr.FromAddress(ctx.Args().First(), pub, params)
	if err != nil {
		return err
	}

	return printJSON(ctx, struct {
		Address string `json:"confidential_address"`
	}{addr})
}

var unconfAddrCommand = cli.Command{
	Name:      "unconfaddr",
	Usage:     "Split a confidential address into its parts.",
	ArgsUsage: "confidential-address",
	Action:    unconfAddr,
}

func unconfAddr(ctx *cli.Context) error {
	if ctx.NArg() != 1 {
		return cli.ShowCommandHelp(ctx, "unconfaddr")
	}

	params := getConfig(ctx).NetParams()
	addr, pub, err := ctaddr.ToAddress(ctx.Args().First(), params)
	if err != nil {
		return err
	}

	return printJSON(ctx, struct {
		Address string `json:"address"`
		PubKey  string `json:"blinding_pubkey"`
	}{addr, hex.EncodeToString(pub[:])})
}

var blindingKeyCommand = cli.Command{
	Name:  "blindingkey",
	Usage: "Derive the blinding key of a script from a wallet seed.",
	Description: `
	Derive the master blinding key of --seed and from it the blinding key
	pair of --script. When --address is given its confidential form is
	returned as well.
	`,
	Flags: []cli.Flag{
		cli.StringFlag{
			Name:  "seed",
			Usage: "The hex encoded BIP39 seed.",
		},
		cli.StringFlag{
			Name:  "script",
			Usage: "The hex encoded output script.",
		},
		cli.StringFlag{
			Name:  "address",
			Usage: "The address paying to --script.",
		},
	},
	Action: blindingKey,
}

type blindingKeyResponse struct {
	PrivKey             string `json:"blinding_privkey"`
	PubKey              string `json:"blinding_pubkey"`
	ConfidentialAddress string `json:"confidential_address,omitempty"`
}

func blindingKey(ctx *cli.Context) error {
	seed, err := hexFlag(ctx, "seed")
	if err != nil {
		return err
	}
	defer primitives.ZeroBytes(seed)

	pkScript, err := hexFlag(ctx, "script")
	if err != nil {
		return err
	}

	master := confidential.MasterBlindingKeyFromSeed(seed)
	defer primitives.ZeroBytes(master[:])

	priv, err := confidential.BlindingPrivateKey(master, pkScript)
	if err != nil {
		return err
	}
	defer primitives.ZeroBytes(priv[:])

	pub, err := confidential.BlindingPublicKey(master, pkScript)
	if err != nil {
		return err
	}

	resp := &blindingKeyResponse{
		PrivKey: hex.EncodeToString(priv[:]),
		PubKey:  hex.EncodeToString(pub[:]),
	}

	if ctx.IsSet("address") {
		params := getConfig(ctx).NetParams()
		addr, err := ctaddr.ConfidentialAddressForScript(
			ctx.String("address"), master, pkScript, params,
		)
		if err != nil {
			return err
		}
		resp.ConfidentialAddress = addr
	}

	return printJSON(ctx, resp)
}
