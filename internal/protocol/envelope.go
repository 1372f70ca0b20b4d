package protocol

import (
	"fmt"
	"strconv"
	"strings"
)

const delimiter = ' '

// Call is one marshaled invocation: a registry index plus positional
// argument tokens.
type Call struct {
	Index uint64
	Args  []string
}

// NewCall builds a call envelope from already-encoded tokens.
func NewCall(index uint64, tokens ...string) Call {
	return Call{Index: index, Args: tokens}
}

// Marshal renders the call as "<index>[ <token>]*". Each token carries one
// leading delimiter, so the buffer never ends in one.
func (c Call) Marshal() string {
	var b strings.Builder
	b.WriteString(strconv.FormatUint(c.Index, 10))
	for _, tok := range c.Args {
		b.WriteByte(delimiter)
		b.WriteString(tok)
	}
	return b.String()
}

// ParseCall reads the leading base-10 index and splits the remainder into
// tokens on single delimiters. Empty tokens are kept, so an empty string
// argument survives positionally.
func ParseCall(wire string) (Call, error) {
	head, rest, hasArgs := strings.Cut(wire, string(delimiter))
	if head == "" {
		return Call{}, fmt.Errorf("%w: missing function index in %q", ErrMalformedCall, wire)
	}
	index, err := strconv.ParseUint(head, 10, 64)
	if err != nil {
		return Call{}, fmt.Errorf("%w: function index %q: %v", ErrMalformedCall, head, err)
	}
	call := Call{Index: index}
	if hasArgs {
		call.Args = strings.Split(rest, string(delimiter))
	}
	return call, nil
}

// Response carries zero or one token. Void responses marshal to "".
type Response struct {
	Token string
	Void  bool
}

// VoidResponse is the response of a function without a return value.
func VoidResponse() Response {
	return Response{Void: true}
}

// Result wraps v as a single-token response.
func Result[T Value](v T) Response {
	return Response{Token: Encode(v)}
}

func (r Response) Marshal() string {
	if r.Void {
		return ""
	}
	return r.Token
}
