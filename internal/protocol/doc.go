// Package protocol owns the text wire contract.
//
// Ownership boundary:
// - percent escaping of reserved bytes
// - scalar value <-> token codec
// - call/response envelope marshaling
//
// Wire shape:
//
//	call:     <index>[SP<token>]*
//	response: <token> | "" (void)
//
// Reserved bytes SP, TAB, CR, LF and '%' are written as %XX with uppercase
// hex. Every other byte passes through unchanged.
package protocol
