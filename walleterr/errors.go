package walleterr

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidKey is returned when key material is malformed or
	// cryptographically unusable.
	ErrInvalidKey = errors.New("invalid key")

	// ErrInvalidMnemonic is returned when a mnemonic fails its checksum or
	// decodes to an unsupported entropy length.
	ErrInvalidMnemonic = errors.New("invalid mnemonic")

	// ErrInvalidPrivateKey is returned when an encoded private key is in an
	// unrecognized format or fails to decode.
	ErrInvalidPrivateKey = errors.New("invalid private key")

	// ErrInvalidScript is returned for scripts that cannot be built or that
	// match none of the known templates.
	ErrInvalidScript = errors.New("invalid script")

	// ErrInvalidSignature is returned for malformed DER, a failed recovery
	// grind, or a signature that must verify but doesn't.
	ErrInvalidSignature = errors.New("invalid signature")

	// ErrInvalidProof is returned when a range or surjection proof does not
	// verify.
	ErrInvalidProof = errors.New("invalid proof")

	// ErrUnblind is returned when an output cannot be unblinded with the
	// supplied nonce.
	ErrUnblind = errors.New("unable to unblind output")

	// ErrInvalidAddress is returned when a confidential address has the
	// wrong envelope or checksum.
	ErrInvalidAddress = errors.New("invalid address")

	// ErrInvalidValue is returned when a confidential value is not a valid
	// explicit encoding.
	ErrInvalidValue = errors.New("invalid confidential value")
)

// AssertionError signals a violated internal invariant. It is raised through
// panic and is never meant to be recovered and retried.
type AssertionError struct {
	msg string
}

// Error returns the assertion message.
func (e *AssertionError) Error() string {
	return "assertion failed: " + e.msg
}

// Assert panics with an *AssertionError if cond is false.
func Assert(cond bool, format string, args ...interface{}) {
	if !cond {
		panic(&AssertionError{msg: fmt.Sprintf(format, args...)})
	}
}

// ScriptError describes why a script failed to match a known template.
type ScriptError struct {
	// Script is the offending script.
	Script []byte

	// Reason is a short human readable description of the mismatch.
	Reason string
}

// Error returns a human readable description of the error.
func (e *ScriptError) Error() string {
	return fmt.Sprintf("%v: %s (%d bytes)", ErrInvalidScript, e.Reason,
		len(e.Script))
}

// Unwrap allows errors.Is to match ErrInvalidScript.
func (e *ScriptError) Unwrap() error {
	return ErrInvalidScript
}

// NewScriptError returns a ScriptError for the given script.
func NewScriptError(script []byte, format string,
	args ...interface{}) *ScriptError {

	return &ScriptError{
		Script: script,
		Reason: fmt.Sprintf(format, args...),
	}
}

// Wrap annotates err with msg and marks it as kind, so that errors.Is
// matches both the kind and the original cause.
func Wrap(kind error, msg string, err error) error {
	if err == nil {
		return fmt.Errorf("%w: %s", kind, msg)
	}

	return fmt.Errorf("%w: %s: %w", kind, msg, err)
}
