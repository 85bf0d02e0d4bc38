//go:build stdlog
// +build stdlog

package build

// LoggingType writes every package log line to stdout, for test runs built
// with the stdlog tag.
const LoggingType = LogTypeStdOut
