package transport

import "os"

// Stdio returns a Stream over the process's stdin and stdout.
func Stdio() *Stream {
	return NewStream(os.Stdin, os.Stdout)
}
