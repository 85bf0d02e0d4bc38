//go:build !stdlog && !nolog
// +build !stdlog,!nolog

package build

// LoggingType hands package logging to the handlers set up by ctwallet, so
// library users see nothing unless they install a logger.
const LoggingType = LogTypeDefault
