// Package wire holds the wire-level constants and helpers shared by
// the decoder: the Telnet command/option bytes this proxy honors, the
// MPI escape sequence, and XML entity decoding.
package wire

// Telnet command bytes needed to negotiate the options this proxy
// honors.
const (
	IAC  byte = 255 // Interpret As Command
	WILL byte = 251
	WONT byte = 252
	DO   byte = 253
	DONT byte = 254
	SB   byte = 250 // Subnegotiation begin
	SE   byte = 240 // Subnegotiation end
	GA   byte = 249 // Go ahead / prompt terminator
)

// Telnet option bytes honored by this proxy.
const (
	OptEcho    byte = 1
	OptTTYPE   byte = 24
	OptNAWS    byte = 31
	OptCharset byte = 42
)

// IgnoredBytes are bytes that the original MUME protocol folds into
// the sub-option/charset accumulation path rather than treating as
// plain text: NUL and the out-of-band DC1 byte some servers emit.
var IgnoredBytes = [2]byte{0x00, 0x11}

// IsIgnored reports whether b is one of IgnoredBytes.
func IsIgnored(b byte) bool {
	return b == IgnoredBytes[0] || b == IgnoredBytes[1]
}

// IsNegotiationVerb reports whether b is WILL/WONT/DO/DONT — the
// second byte of a three-byte telnet option sequence.
func IsNegotiationVerb(b byte) bool {
	return b == WILL || b == WONT || b == DO || b == DONT
}

// CharsetSubnegotiationCodes, in order, are the SB CHARSET response
// codes a server may send (RFC 2066 §4): ACCEPTED, REJECTED,
// TTABLE-IS, TTABLE-REJECTED, TTABLE-ACK, TTABLE-NAK. REQUEST (1) is
// the code this proxy sends, never receives.
const (
	CharsetRequest        byte = 1
	CharsetAccepted       byte = 2
	CharsetRejected       byte = 3
	CharsetTTableIs       byte = 4
	CharsetTTableRejected byte = 5
	CharsetTTableAck      byte = 6
	CharsetTTableNak      byte = 7
)

// InitialOutputPrefix is the byte sequence MUME-style servers send as
// their very first payload: IAC DO TTYPE IAC DO NAWS. Its arrival
// triggers the one-shot identification/handshake sequence.
var InitialOutputPrefix = []byte{IAC, DO, OptTTYPE, IAC, DO, OptNAWS}

// MPIEscape is the line-anchored 4-byte sequence that introduces an
// MPI frame: '~', '$', '#', 'E'.
var MPIEscape = [4]byte{'~', '$', '#', 'E'}
