// Package rpc owns synchronous call dispatch over an abstract transport.
//
// Ownership boundary:
// - client proxy: resolve -> marshal -> one round trip -> unmarshal
// - server dispatcher: parse -> index lookup -> invoke -> encode
// - the receive/dispatch/send loop
//
// Exactly one call is in flight per Client and per Server. Request and
// response pairing relies on strict alternation on a single channel; callers
// that share a Client must serialize, see Serialized.
//
// Per-cycle lifecycle, both sides:
// - idle -> sending -> waiting -> processing -> idle
//
// - a failure in any phase aborts the cycle; nothing is retried.
package rpc
