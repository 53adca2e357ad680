package wire

import (
	"bytes"
	"fmt"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
)

// Charset names the character set requested during the Telnet CHARSET
// handshake. The wire name is what gets sent in the IAC SB CHARSET
// REQUEST subnegotiation.
type Charset struct {
	name string
	enc  encoding.Encoding // nil means "already UTF-8/ASCII, no transcoding"
}

var (
	// CharsetASCII is the default — the handshake requests this unless
	// a different charset is configured.
	CharsetASCII  = Charset{name: "US-ASCII"}
	CharsetUTF8   = Charset{name: "UTF-8", enc: unicode.UTF8}
	CharsetLatin1 = Charset{name: "ISO-8859-1", enc: charmap.ISO8859_1}
)

// ParseCharset resolves a configured charset name (case-insensitive,
// accepting the common aliases config files use) to a Charset.
func ParseCharset(name string) (Charset, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "ascii", "us-ascii":
		return CharsetASCII, nil
	case "utf-8", "utf8":
		return CharsetUTF8, nil
	case "latin-1", "latin1", "iso-8859-1", "iso8859-1":
		return CharsetLatin1, nil
	default:
		return Charset{}, fmt.Errorf("wire: unknown charset %q", name)
	}
}

// WireName returns the byte string sent after "REQUEST;" in the
// CHARSET subnegotiation.
func (c Charset) WireName() []byte {
	return []byte(c.name)
}

// String implements fmt.Stringer.
func (c Charset) String() string {
	if c.name == "" {
		return CharsetASCII.name
	}
	return c.name
}

// Transcode decodes data from this charset into UTF-8. ASCII and UTF-8
// are no-ops (ASCII is a subset of UTF-8); encoding errors fall back
// to returning the input unchanged — a transcoding failure is not
// fatal to the session.
func (c Charset) Transcode(data []byte) []byte {
	if c.enc == nil {
		return data
	}
	decoded, err := c.enc.NewDecoder().Bytes(data)
	if err != nil {
		return data
	}
	return decoded
}

// EqualFold reports whether two charset names refer to the same
// charset, ignoring case and surrounding whitespace. The decoder does
// not call it: the SB CHARSET response is captured, not compared.
func EqualFold(a, b []byte) bool {
	return bytes.EqualFold(bytes.TrimSpace(a), bytes.TrimSpace(b))
}
