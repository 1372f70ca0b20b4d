package protocol

import (
	"fmt"
	"strings"
)

const upperHex = "0123456789ABCDEF"

func reserved(c byte) bool {
	switch c {
	case ' ', '\t', '\r', '\n', '%':
		return true
	default:
		return false
	}
}

// Escape percent-encodes the reserved bytes of s.
func Escape(s string) string {
	n := 0
	for i := 0; i < len(s); i++ {
		if reserved(s[i]) {
			n++
		}
	}
	if n == 0 {
		return s
	}

	var b strings.Builder
	b.Grow(len(s) + 2*n)
	for i := 0; i < len(s); i++ {
		c := s[i]
		if !reserved(c) {
			b.WriteByte(c)
			continue
		}
		b.WriteByte('%')
		b.WriteByte(upperHex[c>>4])
		b.WriteByte(upperHex[c&0x0f])
	}
	return b.String()
}

// Unescape reverses Escape. Every '%' must be followed by exactly two hex
// digits; either case is accepted on input.
func Unescape(token string) (string, error) {
	i := strings.IndexByte(token, '%')
	if i < 0 {
		return token, nil
	}

	out := make([]byte, 0, len(token))
	out = append(out, token[:i]...)
	for ; i < len(token); i++ {
		c := token[i]
		if c != '%' {
			out = append(out, c)
			continue
		}
		if i+2 >= len(token) {
			return "", badEscape(token, i)
		}
		hi, ok1 := unhex(token[i+1])
		lo, ok2 := unhex(token[i+2])
		if !ok1 || !ok2 {
			return "", badEscape(token, i)
		}
		out = append(out, hi<<4|lo)
		i += 2
	}
	return string(out), nil
}

func unhex(c byte) (byte, bool) {
	switch {
	case c >= '0' && c <= '9':
		return c - '0', true
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10, true
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10, true
	default:
		return 0, false
	}
}

func badEscape(token string, offset int) error {
	return fmt.Errorf("%w: incomplete or invalid escape at offset %d in %q", ErrBadEncoding, offset, token)
}
