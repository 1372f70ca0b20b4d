// Package transport provides rpc.Transport implementations.
//
// Every transport moves one text message per Send and returns one text
// message per Receive. Stream-based transports frame messages with a single
// LF, which never appears inside an encoded message because the codec
// escapes it.
package transport
