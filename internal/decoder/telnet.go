package decoder

import (
	"github.com/drake/mudgate/internal/events"
	"github.com/drake/mudgate/internal/wire"
)

// feedIACByte processes a byte while inIAC is set: either the command
// byte immediately following IAC, or (when that command was a
// negotiation verb) the option byte that follows it.
func (d *Decoder) feedIACByte(b byte) {
	s := d.state
	s.appendClient(b)

	if s.pendingVerb == 0 && wire.IsNegotiationVerb(b) {
		// b is WILL/WONT/DO/DONT; the option byte follows next, still
		// under inIAC, per the three-byte telnet option sequence.
		s.pendingVerb = b
		return
	}

	verb := s.pendingVerb
	s.pendingVerb = 0
	s.inIAC = false

	switch {
	case b == wire.SB:
		s.inSubOption = true

	case b == wire.SE:
		if s.inCharsetResponse {
			// IAC SE was optimistically appended above; retract it.
			s.dropLastClient(2)
			s.resetCharsetResponse()
		}
		s.inSubOption = false

	case s.inSubOption:
		// Still inside a sub-option; nothing else to do here.

	case b == wire.IAC:
		// Escaped 0xFF data byte (RFC 854 IAC-IAC).
		s.mpiCounter = 0
		if s.inMPI {
			s.dropLastClient(2)
			s.mpiBuffer = append(s.mpiBuffer, b)
		} else if s.xmlMode == modeNone {
			s.lineBuffer = append(s.lineBuffer, b)
		}

	case b == wire.OptCharset && verb == wire.DO && s.charsetPhase == charsetOffered:
		s.dropLastClient(3) // IAC DO CHARSET
		d.sendToServer(charsetRequestFrame(d.charset))
		s.charsetPhase = charsetAwaitingResponse

	case b == wire.GA:
		s.dropLastClient(2)
		s.clientBuffer = append(s.clientBuffer, d.promptTerminator...)
		d.emit(events.IacGa, nil)
		if s.xmlMode == modeNone {
			s.lineBuffer = append(s.lineBuffer, '\r', '\n')
		}
	}
}

// feedSubOptionByte processes a byte while inSubOption is set, or a
// byte from the {0x00, 0x11} ignore set. It captures the CHARSET
// negotiation response and otherwise passes sub-option bytes through
// unchanged.
func (d *Decoder) feedSubOptionByte(b byte) {
	s := d.state
	s.mpiCounter = 0

	switch {
	case b == wire.OptCharset && s.charsetPhase != charsetIdle && clientEndsWith(s, wire.IAC, wire.SB):
		s.dropLastClient(2)
		s.inCharsetResponse = true

	case s.inCharsetResponse && !wire.IsIgnored(b):
		if !s.charsetResponseHasCode {
			s.charsetResponseCode = b
			s.charsetResponseHasCode = true
			s.charsetPhase = charsetResponseReceived
		} else {
			s.charsetResponseBuffer = append(s.charsetResponseBuffer, b)
		}

	default:
		s.appendClient(b)
	}
}

// clientEndsWith reports whether the client buffer's last two bytes
// are exactly a, b — used to confirm a CHARSET byte is the first byte
// of a sub-option body (immediately after IAC SB), not data within it.
func clientEndsWith(s *state, a, b byte) bool {
	n := len(s.clientBuffer)
	return n >= 2 && s.clientBuffer[n-2] == a && s.clientBuffer[n-1] == b
}

// charsetRequestFrame builds the "IAC SB CHARSET REQUEST ;<name> IAC
// SE" response to a server's "IAC DO CHARSET".
func charsetRequestFrame(c wire.Charset) []byte {
	frame := []byte{wire.IAC, wire.SB, wire.OptCharset, wire.CharsetRequest, ';'}
	frame = append(frame, c.WireName()...)
	frame = append(frame, wire.IAC, wire.SE)
	return frame
}
