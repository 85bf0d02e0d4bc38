package main

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/gdkwallet/ctcrypto/keychain"
	"github.com/gdkwallet/ctcrypto/primitives"
	"github.com/gdkwallet/ctcrypto/signer"
	"github.com/urfave/cli"
)

var newMnemonicCommand = cli.Command{
	Name:  "newmnemonic",
	Usage: "Generate a new BIP39 mnemonic.",
	Flags: []cli.Flag{
		cli.IntFlag{
			Name:  "bits",
			Value: 256,
			Usage: "The entropy size in bits, a multiple of 32 " +
				"between 128 and 256.",
		},
	},
	Action: newMnemonic,
}

func newMnemonic(ctx *cli.Context) error {
	mnemonic, err := keychain.GenerateMnemonic(ctx.Int("bits"))
	if err != nil {
		return err
	}

	return printJSON(ctx, struct {
		Mnemonic string `json:"mnemonic"`
	}{mnemonic})
}

var mnemonicToSeedCommand = cli.Command{
	Name:      "mnemonictoseed",
	Usage:     "Derive the BIP39 seed and BIP32 master key of a mnemonic.",
	ArgsUsage: "word1 word2 ...",
	Flags: []cli.Flag{
		cli.StringFlag{
			Name:  "passphrase",
			Usage: "The optional BIP39 passphrase.",
		},
	},
	Action: mnemonicToSeed,
}

func mnemonicToSeed(ctx *cli.Context) error {
	if !ctx.Args().Present() {
		return cli.ShowCommandHelp(ctx, "mnemonictoseed")
	}
	mnemonic := strings.Join(ctx.Args(), " ")

	seed, err := keychain.MnemonicToSeed(mnemonic, ctx.String("passphrase"))
	if err != nil {
		return err
	}
	defer primitives.ZeroBytes(seed[:])

	params := getConfig(ctx).NetParams()
	master, err := keychain.FromSeed(seed[:], params.HDPrivateVersion())
	if err != nil {
		return err
	}
	defer master.Zero()

	return printJSON(ctx, struct {
		Seed   string `json:"seed"`
		Master string `json:"master_xprv"`
	}{hex.EncodeToString(seed[:]), master.String()})
}

var deriveCommand = cli.Command{
	Name:  "derive",
	Usage: "Derive a BIP32 key from a seed or an extended key.",
	Description: `
	Derive the extended key at --path below either the master key of
	--seed or the extended key --xkey. Hardened components are marked with
	', h or H. With --public only the public extended key is returned.
	`,
	Flags: []cli.Flag{
		cli.StringFlag{
			Name:  "seed",
			Usage: "The hex encoded seed of the master key.",
		},
		cli.StringFlag{
			Name:  "xkey",
			Usage: "The serialized parent extended key.",
		},
		cli.StringFlag{
			Name:  "path",
			Value: "m",
			Usage: "The derivation path, e.g. m/84'/1776'/0'/0/0.",
		},
		cli.BoolFlag{
			Name:  "public",
			Usage: "Return the public extended key.",
		},
	},
	Action: derive,
}

type deriveResponse struct {
	Key         string `json:"key"`
	PubKey      string `json:"pubkey"`
	Depth       uint8  `json:"depth"`
	ChildNumber uint32 `json:"child_number"`
	Fingerprint string `json:"fingerprint"`
}

func derive(ctx *cli.Context) error {
	var (
		parent *keychain.ExtendedKey
		err    error
	)
	switch {
	case ctx.IsSet("seed") && ctx.IsSet("xkey"):
		return fmt.Errorf("--seed and --xkey are mutually exclusive")

	case ctx.IsSet("seed"):
		seed, decErr := hex.DecodeString(ctx.String("seed"))
		if decErr != nil {
			return fmt.Errorf("unable to decode seed: %w", decErr)
		}
		defer primitives.ZeroBytes(seed)

		params := getConfig(ctx).NetParams()
		parent, err = keychain.FromSeed(seed, params.HDPrivateVersion())

	case ctx.IsSet("xkey"):
		parent, err = keychain.ParseExtendedKeyString(
			ctx.String("xkey"),
		)

	default:
		return fmt.Errorf("%w: --seed or --xkey", errMissingArg)
	}
	if err != nil {
		return err
	}
	defer parent.Zero()

	path, err := keychain.ParsePath(ctx.String("path"))
	if err != nil {
		return err
	}

	key, err := keychain.DerivePath(parent, path, ctx.Bool("public"))
	if err != nil {
		return err
	}
	if key != parent {
		defer key.Zero()
	}

	log.Debugf("Derived key at %s, depth=%d", ctx.String("path"),
		key.Depth())

	pub := key.PubKey()

	return printJSON(ctx, &deriveResponse{
		Key:         key.String(),
		PubKey:      hex.EncodeToString(pub[:]),
		Depth:       key.Depth(),
		ChildNumber: key.ChildNumber(),
		Fingerprint: fmt.Sprintf("%08x", key.Fingerprint()),
	})
}

var importKeyCommand = cli.Command{
	Name:      "importkey",
	Usage:     "Decode a WIF, BIP38 or extended private key.",
	ArgsUsage: "encoded",
	Flags: []cli.Flag{
		cli.StringFlag{
			Name:  "passphrase",
			Usage: "The passphrase of a BIP38 key.",
		},
	},
	Action: importKey,
}

func importKey(ctx *cli.Context) error {
	if ctx.NArg() != 1 {
		return cli.ShowCommandHelp(ctx, "importkey")
	}

	params := getConfig(ctx).NetParams()
	imported, err := keychain.ImportPrivateKey(
		ctx.Args().First(), ctx.String("passphrase"), params.Mainnet,
	)
	if err != nil {
		return err
	}
	defer imported.Zero()

	pub, err := primitives.PublicKeyFromPrivate(
		imported.Key, imported.Compressed,
	)
	if err != nil {
		return err
	}

	return printJSON(ctx, struct {
		PrivKey    string `json:"privkey"`
		PubKey     string `json:"pubkey"`
		Compressed bool   `json:"compressed"`
	}{
		hex.EncodeToString(imported.Key[:]),
		hex.EncodeToString(pub),
		imported.Compressed,
	})
}

var walletKeyCommand = cli.Command{
	Name:  "walletkey",
	Usage: "Derive a wallet key from a seed and optionally sign with it.",
	Description: `
	Derive the key at m/84'/coin'/family'/branch/index below the master key
	of --seed, where coin is the coin type of the network. When --hash is
	given the key signs it with a low-R signature.
	`,
	Flags: []cli.Flag{
		cli.StringFlag{
			Name:  "seed",
			Usage: "The hex encoded seed of the master key.",
		},
		cli.Uint64Flag{
			Name:  "family",
			Usage: "The account of the key, 1 for multisig keys.",
		},
		cli.Uint64Flag{
			Name:  "branch",
			Usage: "The chain within the account, 1 for change.",
		},
		cli.Uint64Flag{
			Name:  "index",
			Usage: "The index of the key.",
		},
		cli.StringFlag{
			Name:  "hash",
			Usage: "An optional hex encoded hash to sign.",
		},
	},
	Action: walletKey,
}

type walletKeyResponse struct {
	Path      string `json:"path"`
	PubKey    string `json:"pubkey"`
	Address   string `json:"address"`
	Signature string `json:"signature,omitempty"`
}

func walletKey(ctx *cli.Context) error {
	seed, err := hexFlag(ctx, "seed")
	if err != nil {
		return err
	}
	defer primitives.ZeroBytes(seed)

	for _, name := range []string{"family", "branch", "index"} {
		if ctx.Uint64(name) >= keychain.HardenedKeyStart {
			return fmt.Errorf("%s out of range: %d", name,
				ctx.Uint64(name))
		}
	}

	params := getConfig(ctx).NetParams()
	root, err := keychain.FromSeed(seed, params.HDPrivateVersion())
	if err != nil {
		return err
	}

	keyRing := keychain.NewHDKeyRing(
		root, keychain.BIP0084Purpose, params.CoinType,
	)
	defer keyRing.Zero()

	keyLoc := keychain.KeyLocator{
		Family: keychain.KeyFamily(ctx.Uint64("family")),
		Branch: keychain.Branch(ctx.Uint64("branch")),
		Index:  uint32(ctx.Uint64("index")),
	}
	keyDesc, err := keyRing.DeriveKey(keyLoc)
	if err != nil {
		return err
	}

	pub := keyDesc.PubKey.SerializeCompressed()
	addr, err := btcutil.NewAddressWitnessPubKeyHash(
		btcutil.Hash160(pub), params.Params,
	)
	if err != nil {
		return err
	}

	resp := &walletKeyResponse{
		Path: fmt.Sprintf("m/%d'/%d'/%d'/%d/%d",
			keychain.BIP0084Purpose, params.CoinType, keyLoc.Family,
			keyLoc.Branch, keyLoc.Index),
		PubKey:  hex.EncodeToString(pub),
		Address: addr.EncodeAddress(),
	}

	if ctx.IsSet("hash") {
		hash, err := hex32Flag(ctx, "hash")
		if err != nil {
			return err
		}

		keySigner := keychain.NewPubKeyDigestSigner(keyDesc, keyRing)
		sig, err := keySigner.SignDigest(hash)
		if err != nil {
			return err
		}

		der, err := signer.ToDERNoSighash(sig)
		if err != nil {
			return err
		}
		resp.Signature = hex.EncodeToString(der)
	}

	return printJSON(ctx, resp)
}
