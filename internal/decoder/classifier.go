package decoder

import "github.com/drake/mudgate/internal/wire"

// feedByte is the byte classifier's priority dispatch: exactly one
// rule below consumes each byte.
func (d *Decoder) feedByte(b byte) {
	s := d.state

	switch {
	case s.inIAC:
		d.feedIACByte(b)

	case b == wire.IAC:
		s.appendClient(b)
		s.inIAC = true

	case s.inSubOption || wire.IsIgnored(b):
		d.feedSubOptionByte(b)

	case s.inMPI:
		d.feedMPIByte(b)

	case d.feedMPIEscapeByte(b):
		// Consumed as part of "~$#E" escape progression.

	case s.readingTag:
		d.feedTagByte(b)

	case b == '<':
		s.mpiCounter = 0
		s.readingTag = true
		s.tagBuffer = s.tagBuffer[:0]
		if d.format == FormatRaw {
			s.appendClient(b)
		}

	default:
		d.feedTextByte(b)
	}
}
