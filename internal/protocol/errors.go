package protocol

import (
	"errors"
	"fmt"
)

var (
	ErrBadEncoding   = errors.New("protocol: bad encoding")
	ErrTypeMismatch  = errors.New("protocol: type mismatch")
	ErrMalformedCall = errors.New("protocol: malformed call")
)

// ParseError reports a token whose unescaped text does not match the
// grammar of the expected kind.
type ParseError struct {
	Token string
	Kind  Kind
	Err   error
}

func (e *ParseError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("protocol: token %q is not a valid %s", e.Token, e.Kind)
	}
	return fmt.Sprintf("protocol: token %q is not a valid %s: %v", e.Token, e.Kind, e.Err)
}

func (e *ParseError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrTypeMismatch}
	}
	return []error{ErrTypeMismatch, e.Err}
}
