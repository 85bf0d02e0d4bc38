package main

import (
	"encoding/hex"
	"fmt"

	"github.com/gdkwallet/ctcrypto/primitives"
	"github.com/gdkwallet/ctcrypto/signer"
	"github.com/urfave/cli"
)

var signCommand = cli.Command{
	Name:  "sign",
	Usage: "Sign a 32 byte hash with a private key.",
	Flags: []cli.Flag{
		cli.StringFlag{
			Name:  "key",
			Usage: "The hex encoded private key.",
		},
		cli.StringFlag{
			Name:  "hash",
			Usage: "The hex encoded hash to sign.",
		},
		cli.BoolFlag{
			Name:  "lowr",
			Usage: "Grind the nonce until r is below 2^255.",
		},
	},
	Action: sign,
}

func sign(ctx *cli.Context) error {
	priv, err := hex32Flag(ctx, "key")
	if err != nil {
		return err
	}
	defer primitives.ZeroBytes(priv[:])

	hash, err := hex32Flag(ctx, "hash")
	if err != nil {
		return err
	}

	sig, err := signer.Sign(priv, hash, ctx.Bool("lowr"))
	if err != nil {
		return err
	}

	der, err := signer.ToDERNoSighash(sig)
	if err != nil {
		return err
	}

	return printJSON(ctx, struct {
		Compact string `json:"compact"`
		DER     string `json:"der"`
	}{hex.EncodeToString(sig[:]), hex.EncodeToString(der)})
}

var verifyCommand = cli.Command{
	Name:  "verify",
	Usage: "Verify an ECDSA signature over a 32 byte hash.",
	Description: `
	Verify --sig, given either as a 64 byte compact signature or as a DER
	signature without a sighash byte, against --pubkey and --hash.
	`,
	Flags: []cli.Flag{
		cli.StringFlag{
			Name:  "pubkey",
			Usage: "The hex encoded public key.",
		},
		cli.StringFlag{
			Name:  "hash",
			Usage: "The hex encoded hash that was signed.",
		},
		cli.StringFlag{
			Name:  "sig",
			Usage: "The hex encoded compact or DER signature.",
		},
	},
	Action: verify,
}

func verify(ctx *cli.Context) error {
	pub, err := hexFlag(ctx, "pubkey")
	if err != nil {
		return err
	}

	hash, err := hex32Flag(ctx, "hash")
	if err != nil {
		return err
	}

	rawSig, err := hexFlag(ctx, "sig")
	if err != nil {
		return err
	}

	var sig signer.Signature
	if len(rawSig) == signer.SignatureLen {
		copy(sig[:], rawSig)
	} else {
		sig, err = signer.FromDER(rawSig, false)
		if err != nil {
			return fmt.Errorf("unable to parse signature: %w", err)
		}
	}

	return printJSON(ctx, struct {
		Valid bool `json:"valid"`
	}{signer.Verify(pub, hash, sig)})
}
