//go:build nolog
// +build nolog

package build

// LoggingType drops every package log line, including ctwallet's.
const LoggingType = LogTypeNone
