package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/gdkwallet/ctcrypto/ctcfg"
	"github.com/urfave/cli"
)

const (
	appName = "ctwallet"

	// configKey is the app metadata key of the loaded configuration.
	configKey = "config"

	// loggingKey is the app metadata key of the logging stack.
	loggingKey = "logging"
)

// errMissingArg is returned when a required argument or flag is absent.
var errMissingArg = errors.New("missing argument")

func fatal(err error) {
	fmt.Fprintf(os.Stderr, "[%s] %v\n", appName, err)
	os.Exit(1)
}

// newApp builds the command line application.
func newApp() *cli.App {
	app := cli.NewApp()
	app.Name = appName
	app.Usage = "key, script and confidential transaction tooling for " +
		"Bitcoin and Elements wallets"
	app.Flags = []cli.Flag{
		cli.StringFlag{
			Name:  "appdir",
			Value: ctcfg.DefaultAppDir,
			Usage: "The path to the directory holding the config " +
				"file and logs.",
		},
		cli.StringFlag{
			Name:  "configfile, C",
			Value: ctcfg.DefaultConfigFile,
			Usage: "The path to the config file.",
		},
		cli.StringFlag{
			Name:  "network, n",
			Value: ctcfg.DefaultNetwork,
			Usage: "The network to operate on (mainnet, testnet, " +
				"regtest, liquid, liquidtestnet, " +
				"elementsregtest).",
		},
		cli.StringFlag{
			Name:  "debuglevel, d",
			Value: ctcfg.DefaultDebugLevel,
			Usage: "Logging level for all subsystems, or " +
				"<global-level>,<subsystem>=<level>,...",
		},
		cli.StringFlag{
			Name:  "logdir",
			Value: ctcfg.DefaultLogDir,
			Usage: "The directory to write logs to.",
		},
	}
	app.Commands = []cli.Command{
		newMnemonicCommand,
		mnemonicToSeedCommand,
		deriveCommand,
		importKeyCommand,
		walletKeyCommand,
		signCommand,
		verifyCommand,
		csvScriptCommand,
		parseScriptCommand,
		confAddrCommand,
		unconfAddrCommand,
		blindingKeyCommand,
		blindCommand,
		unblindCommand,
	}
	app.Before = setup
	app.After = teardown

	return app
}

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fatal(err)
	}
}

// globalFlags lists the global flags that are forwarded to the config
// parser when set.
var globalFlags = []string{
	"appdir", "configfile", "network", "debuglevel", "logdir",
}

// setup loads the configuration and starts logging before any command runs.
func setup(ctx *cli.Context) error {
	var args []string
	for _, name := range globalFlags {
		if ctx.IsSet(name) {
			args = append(args, fmt.Sprintf("--%s=%s", name,
				ctx.String(name)))
		}
	}

	cfg, _, err := ctcfg.LoadConfig(args)
	if err != nil {
		return fmt.Errorf("unable to load config: %w", err)
	}

	logging, err := startLogging(cfg)
	if err != nil {
		return err
	}

	if ctx.App.Metadata == nil {
		ctx.App.Metadata = make(map[string]interface{})
	}
	ctx.App.Metadata[configKey] = cfg
	ctx.App.Metadata[loggingKey] = logging

	return nil
}

// teardown flushes and closes the log files.
func teardown(ctx *cli.Context) error {
	logging, ok := ctx.App.Metadata[loggingKey].(*logStack)
	if !ok {
		return nil
	}

	return logging.Close()
}

// getConfig returns the configuration loaded by setup.
func getConfig(ctx *cli.Context) *ctcfg.Config {
	cfg, ok := ctx.App.Metadata[configKey].(*ctcfg.Config)
	if !ok {
		defaults := ctcfg.DefaultConfig()
		_ = defaults.Validate()
		cfg = &defaults
	}

	return cfg
}

// printJSON writes resp as indented JSON to the app's writer.
func printJSON(ctx *cli.Context, resp interface{}) error {
	b, err := json.Marshal(resp)
	if err != nil {
		return err
	}

	var out bytes.Buffer
	if err := json.Indent(&out, b, "", "\t"); err != nil {
		return err
	}
	out.WriteString("\n")

	_, err = out.WriteTo(ctx.App.Writer)

	return err
}
