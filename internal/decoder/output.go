package decoder

import "github.com/drake/mudgate/internal/wire"

// assembleOutput renders the drained client buffer in the configured
// Format. Raw mode returns the bytes verbatim, since FormatRaw already
// appended every byte (including tag delimiters) untouched. Normal and
// tintin mode transcode from the negotiated charset into UTF-8, then
// decode XML entities: the server's bytes are in its charset first,
// ASCII markup entities second.
func (d *Decoder) assembleOutput(buf []byte) []byte {
	if d.format == FormatRaw {
		return buf
	}
	buf = d.charset.Transcode(buf)
	buf = wire.UnescapeEntities(buf)
	return buf
}
