package main

import (
	"fmt"

	"github.com/btcsuite/btclog/v2"
	"github.com/gdkwallet/ctcrypto/build"
	"github.com/gdkwallet/ctcrypto/confidential"
	"github.com/gdkwallet/ctcrypto/ctaddr"
	"github.com/gdkwallet/ctcrypto/ctcfg"
	"github.com/gdkwallet/ctcrypto/keychain"
	"github.com/gdkwallet/ctcrypto/script"
	"github.com/gdkwallet/ctcrypto/signer"
)

// Subsystem is the logging code of the command line tool.
const Subsystem = "CTWL"

// log is the logger of the command line tool, replaced once logging starts.
var log = btclog.Disabled

// logStack owns the log writers of one run.
type logStack struct {
	rotator *build.RotatingLogWriter
	manager *build.SubLoggerManager
}

// Close flushes and closes the log file.
func (l *logStack) Close() error {
	return l.rotator.Close()
}

// startLogging sets up the console and file handlers described by cfg and
// hands a sub logger to every package.
func startLogging(cfg *ctcfg.Config) (*logStack, error) {
	rotator := build.NewRotatingLogWriter()
	if !cfg.LogConfig.File.Disable {
		err := rotator.InitLogRotator(
			cfg.LogConfig.File, cfg.LogFile(),
		)
		if err != nil {
			return nil, fmt.Errorf("unable to start log "+
				"rotator: %w", err)
		}
	}

	handlers := build.NewDefaultLogHandlers(cfg.LogConfig, rotator)
	manager := build.NewSubLoggerManager(handlers...)

	setSubLogger := func(subsystem string, useLogger func(btclog.Logger)) {
		useLogger(manager.GenSubLogger(subsystem))
	}
	setSubLogger(Subsystem, func(l btclog.Logger) { log = l })
	setSubLogger(keychain.Subsystem, keychain.UseLogger)
	setSubLogger(signer.Subsystem, signer.UseLogger)
	setSubLogger(script.Subsystem, script.UseLogger)
	setSubLogger(confidential.Subsystem, confidential.UseLogger)
	setSubLogger(ctaddr.Subsystem, ctaddr.UseLogger)

	err := build.ParseAndSetDebugLevels(cfg.DebugLevel, manager)
	if err != nil {
		_ = rotator.Close()
		return nil, err
	}

	log.Debugf("Logging started: log_type=%v network=%s subsystems=%v",
		build.LoggingType, cfg.Network, manager.SupportedSubsystems())

	return &logStack{rotator: rotator, manager: manager}, nil
}
