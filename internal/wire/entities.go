package wire

import (
	"bytes"
	"strconv"
)

// namedEntities is the restricted entity set this decoder handles:
// &lt; &gt; &amp; &quot; &apos; plus numeric/hex references.
var namedEntities = map[string]byte{
	"lt":   '<',
	"gt":   '>',
	"amp":  '&',
	"quot": '"',
	"apos": '\'',
}

// UnescapeEntities decodes XML numeric and named entity references,
// returning a new slice (or data itself when it contains no '&'); data
// is not modified. It never panics on malformed input —
// an entity reference that doesn't parse is passed through unchanged.
func UnescapeEntities(data []byte) []byte {
	if bytes.IndexByte(data, '&') < 0 {
		return data
	}

	out := make([]byte, 0, len(data))
	i := 0
	for i < len(data) {
		b := data[i]
		if b != '&' {
			out = append(out, b)
			i++
			continue
		}

		end := bytes.IndexByte(data[i:], ';')
		if end < 0 {
			out = append(out, data[i:]...)
			break
		}
		end += i

		ref := data[i+1 : end]
		if decoded, ok := decodeEntity(ref); ok {
			out = append(out, decoded)
			i = end + 1
			continue
		}

		// Not a recognized entity: pass the literal '&' through and
		// keep scanning from the next byte.
		out = append(out, b)
		i++
	}
	return out
}

// decodeEntity decodes the body of a single entity reference (the
// bytes between '&' and ';').
func decodeEntity(ref []byte) (byte, bool) {
	if len(ref) == 0 {
		return 0, false
	}

	if ref[0] == '#' {
		if len(ref) > 1 && (ref[1] == 'x' || ref[1] == 'X') {
			v, err := strconv.ParseInt(string(ref[2:]), 16, 32)
			if err != nil {
				return 0, false
			}
			return byte(v), true
		}
		v, err := strconv.ParseInt(string(ref[1:]), 10, 32)
		if err != nil {
			return 0, false
		}
		return byte(v), true
	}

	if v, ok := namedEntities[string(ref)]; ok {
		return v, true
	}
	return 0, false
}

// EscapeEntities is the inverse of UnescapeEntities for the named
// entity subset; it is used by tests to check the round-trip property
// and is not needed on the server->client path (the proxy only ever
// decodes, never encodes, entities for the client).
func EscapeEntities(data []byte) []byte {
	var out bytes.Buffer
	for _, b := range data {
		switch b {
		case '<':
			out.WriteString("&lt;")
		case '>':
			out.WriteString("&gt;")
		case '&':
			out.WriteString("&amp;")
		case '"':
			out.WriteString("&quot;")
		default:
			out.WriteByte(b)
		}
	}
	return out.Bytes()
}
