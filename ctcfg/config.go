package ctcfg

import (
	"errors"
	"fmt"
	"os"
	"os/user"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/gdkwallet/ctcrypto/build"
	"github.com/gdkwallet/ctcrypto/chainreg"
	"github.com/gdkwallet/ctcrypto/confidential"
	flags "github.com/jessevdk/go-flags"
)

const (
	// DefaultConfigFilename is the default configuration file name.
	DefaultConfigFilename = "ctwallet.conf"

	// DefaultNetwork is the network used when none is given.
	DefaultNetwork = "liquid"

	// DefaultDebugLevel is the default log level of every subsystem.
	DefaultDebugLevel = "info"

	defaultLogDirname  = "logs"
	defaultLogFilename = "ctwallet.log"
)

var (
	// DefaultAppDir is the default directory of the config file and logs.
	DefaultAppDir = btcutil.AppDataDir("ctwallet", false)

	// DefaultConfigFile is the default path of the config file.
	DefaultConfigFile = filepath.Join(DefaultAppDir, DefaultConfigFilename)

	// DefaultLogDir is the default directory of the log files.
	DefaultLogDir = filepath.Join(DefaultAppDir, defaultLogDirname)
)

// Config is the configuration of the ctwallet tool.
//
//nolint:lll
type Config struct {
	AppDir     string `long:"appdir" description:"The base directory that contains the config file and logs."`
	ConfigFile string `short:"C" long:"configfile" description:"Path to configuration file."`

	Network string `long:"network" description:"The network to operate on." choice:"mainnet" choice:"testnet" choice:"regtest" choice:"liquid" choice:"liquidtestnet" choice:"elementsregtest"`

	DebugLevel string `short:"d" long:"debuglevel" description:"Logging level for all subsystems {trace, debug, info, warn, error, critical} -- You may also specify <global-level>,<subsystem>=<level>,<subsystem2>=<level>,... to set the log level for individual subsystems."`
	LogDir     string `long:"logdir" description:"Directory to log output."`

	Blinding *Blinding `group:"blinding" namespace:"blinding"`

	LogConfig *build.LogConfig `group:"logging" namespace:"logging"`

	// params is the resolved network, set by Validate.
	params *chainreg.NetParams
}

// DefaultConfig returns all default values for the Config struct.
func DefaultConfig() Config {
	return Config{
		AppDir:     DefaultAppDir,
		ConfigFile: DefaultConfigFile,
		Network:    DefaultNetwork,
		DebugLevel: DefaultDebugLevel,
		LogDir:     DefaultLogDir,
		Blinding:   DefaultBlinding(),
		LogConfig:  build.DefaultLogConfig(),
	}
}

// Validate checks that the configuration is sane, normalizes every path and
// resolves the network.
func (c *Config) Validate() error {
	appDir := CleanAndExpandPath(c.AppDir)
	if appDir != DefaultAppDir && c.LogDir == DefaultLogDir {
		c.LogDir = filepath.Join(appDir, defaultLogDirname)
	}
	c.AppDir = appDir
	c.LogDir = CleanAndExpandPath(c.LogDir)
	c.ConfigFile = CleanAndExpandPath(c.ConfigFile)

	params, err := chainreg.Lookup(c.Network)
	if err != nil {
		return err
	}
	c.params = params

	if c.DebugLevel == "" {
		return errors.New("debuglevel must not be empty")
	}

	if err := c.Blinding.Validate(); err != nil {
		return fmt.Errorf("invalid blinding config: %w", err)
	}

	if err := c.LogConfig.Validate(); err != nil {
		return fmt.Errorf("invalid logging config: %w", err)
	}

	return nil
}

// NetParams returns the network resolved by Validate.
func (c *Config) NetParams() *chainreg.NetParams {
	return c.params
}

// LogFile returns the path of the log file.
func (c *Config) LogFile() string {
	return filepath.Join(c.LogDir, c.Network, defaultLogFilename)
}

// LoadConfig builds the configuration from defaults, an optional config file
// and args, in increasing order of precedence. It returns the arguments that
// were not consumed.
func LoadConfig(args []string) (*Config, []string, error) {
	// Pre-parse the arguments to pick up an alternative config file.
	preCfg := DefaultConfig()
	if _, err := newParser(&preCfg).ParseArgs(args); err != nil {
		return nil, nil, err
	}

	configFile := CleanAndExpandPath(preCfg.ConfigFile)
	appDir := CleanAndExpandPath(preCfg.AppDir)
	if appDir != DefaultAppDir && configFile == DefaultConfigFile {
		configFile = filepath.Join(appDir, DefaultConfigFilename)
	}

	cfg := preCfg
	err := flags.NewIniParser(newParser(&cfg)).ParseFile(configFile)
	switch {
	// A missing file is fine unless the caller named it.
	case errors.Is(err, os.ErrNotExist):
		if preCfg.ConfigFile != DefaultConfigFile {
			return nil, nil, err
		}

	case err != nil:
		return nil, nil, err
	}

	// Parse the arguments again so that they take precedence over the
	// file.
	rest, err := newParser(&cfg).ParseArgs(args)
	if err != nil {
		return nil, nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}

	return &cfg, rest, nil
}

// newParser returns a parser that reports errors to the caller instead of
// printing them.
func newParser(cfg *Config) *flags.Parser {
	return flags.NewParser(cfg, flags.HelpFlag|flags.PassDoubleDash)
}

// CleanAndExpandPath expands environment variables and leading ~ in the
// passed path, cleans the result, and returns it.
func CleanAndExpandPath(path string) string {
	if path == "" {
		return ""
	}

	// Expand initial ~ to OS specific home directory.
	if strings.HasPrefix(path, "~") {
		var homeDir string
		u, err := user.Current()
		if err == nil {
			homeDir = u.HomeDir
		} else {
			homeDir = os.Getenv("HOME")
		}

		path = strings.Replace(path, "~", homeDir, 1)
	}

	return filepath.Clean(os.ExpandEnv(path))
}

// Blinding holds the range proof parameters of the blinder.
//
//nolint:lll
type Blinding struct {
	Exp     int `long:"exp" description:"Decimal exponent of range proofs. -1 is served as 0 since every proof carries the output opening."`
	MinBits int `long:"minbits" description:"Minimum number of bits hidden by a range proof. Values below 3 are served as 3."`
	Workers int `long:"workers" description:"Maximum number of proofs built in parallel."`
}

// DefaultBlinding returns the default blinding parameters.
func DefaultBlinding() *Blinding {
	return &Blinding{
		Exp:     confidential.DefaultExp,
		MinBits: confidential.DefaultMinBits,
		Workers: runtime.NumCPU(),
	}
}

// Validate rejects blinding parameters the blinder cannot serve.
func (b *Blinding) Validate() error {
	if b.Workers < 1 {
		return fmt.Errorf("workers must be positive, got %d", b.Workers)
	}

	cfg := b.BlinderConfig()
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("blinding: %w", err)
	}

	return nil
}

// BlinderConfig returns the blinder configuration of b.
func (b *Blinding) BlinderConfig() confidential.BlinderConfig {
	cfg := confidential.DefaultBlinderConfig()
	cfg.Exp = b.Exp
	cfg.MinBits = b.MinBits
	cfg.Workers = b.Workers

	return cfg
}
