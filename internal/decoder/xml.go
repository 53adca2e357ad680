package decoder

import (
	"bytes"

	"github.com/drake/mudgate/internal/events"
	"github.com/drake/mudgate/internal/wire"
)

// feedTagByte accumulates a byte between '<' and '>'. The '>' itself
// closes the tag and drives the state transition table. A tag longer
// than maxTagLen is a protocol anomaly: it is dropped without a state
// transition or event.
func (d *Decoder) feedTagByte(b byte) {
	s := d.state
	s.mpiCounter = 0

	if b != '>' {
		if len(s.tagBuffer) <= maxTagLen {
			s.tagBuffer = append(s.tagBuffer, b)
		}
		if d.format == FormatRaw {
			s.appendClient(b)
		}
		return
	}

	if len(s.tagBuffer) > maxTagLen {
		s.tagBuffer = s.tagBuffer[:0]
		s.readingTag = false
	} else {
		d.closeTag()
	}
	if d.format == FormatRaw {
		s.appendClient(b)
	}
}

// closeTag runs the tag state-transition table for the tag now
// sitting in tagBuffer, then clears tagBuffer/readingTag. textBuffer
// is cleared only when a transition emits an event from it.
func (d *Decoder) closeTag() {
	s := d.state
	tag := s.tagBuffer

	switch s.xmlMode {
	case modeNone:
		switch {
		case bytes.HasPrefix(tag, []byte("exits")):
			s.xmlMode = modeExits
		case bytes.HasPrefix(tag, []byte("prompt")):
			s.xmlMode = modePrompt
		case bytes.HasPrefix(tag, []byte("room")):
			s.xmlMode = modeRoom
		case bytes.HasPrefix(tag, []byte("movement")):
			d.emit(events.Movement, extractMovementDir(tag))
		}

	case modeRoom:
		switch {
		case bytes.HasPrefix(tag, []byte("name")):
			s.xmlMode = modeName
		case bytes.HasPrefix(tag, []byte("description")):
			s.xmlMode = modeDescription
		case bytes.HasPrefix(tag, []byte("terrain")):
			s.xmlMode = modeTerrain
		case bytes.HasPrefix(tag, []byte("gratuitous")):
			s.inGratuitous = true
		case bytes.HasPrefix(tag, []byte("/gratuitous")):
			s.inGratuitous = false
		case bytes.HasPrefix(tag, []byte("/room")):
			d.emit(events.Dynamic, wire.UnescapeEntities(cloneBuf(s.textBuffer)))
			s.textBuffer = s.textBuffer[:0]
			s.xmlMode = modeNone
		}

	case modeName:
		if bytes.HasPrefix(tag, []byte("/name")) {
			d.emit(events.Name, wire.UnescapeEntities(cloneBuf(s.textBuffer)))
			s.textBuffer = s.textBuffer[:0]
			s.xmlMode = modeRoom
		}

	case modeDescription:
		if bytes.HasPrefix(tag, []byte("/description")) {
			d.emit(events.Description, wire.UnescapeEntities(cloneBuf(s.textBuffer)))
			s.textBuffer = s.textBuffer[:0]
			s.xmlMode = modeRoom
		}

	case modeTerrain:
		if bytes.HasPrefix(tag, []byte("/terrain")) {
			s.xmlMode = modeRoom
		}

	case modeExits:
		if bytes.HasPrefix(tag, []byte("/exits")) {
			d.emit(events.Exits, wire.UnescapeEntities(cloneBuf(s.textBuffer)))
			s.textBuffer = s.textBuffer[:0]
			s.xmlMode = modeNone
		}

	case modePrompt:
		if bytes.HasPrefix(tag, []byte("/prompt")) {
			d.emit(events.Prompt, wire.UnescapeEntities(cloneBuf(s.textBuffer)))
			s.textBuffer = s.textBuffer[:0]
			s.xmlMode = modeNone
		}
	}

	if d.format == FormatTintin {
		s.clientBuffer = append(s.clientBuffer, tagReplacement(tag)...)
	}

	s.tagBuffer = s.tagBuffer[:0]
	s.readingTag = false
}

// extractMovementDir strips the leading "movement" (8 bytes), strips
// one " dir=" occurrence, then truncates at the first '/'.
func extractMovementDir(tag []byte) []byte {
	rest := tag
	if len(rest) >= 8 {
		rest = rest[8:]
	} else {
		rest = rest[:0]
	}
	rest = bytes.Replace(rest, []byte(" dir="), nil, 1)
	if idx := bytes.IndexByte(rest, '/'); idx >= 0 {
		rest = rest[:idx]
	}
	return cloneBuf(rest)
}

func cloneBuf(b []byte) []byte {
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

// feedTextByte handles a byte that is neither telnet, MPI, nor a tag
// delimiter.
func (d *Decoder) feedTextByte(b byte) {
	s := d.state
	s.mpiCounter = 0

	if s.xmlMode == modeNone {
		if b == '\n' && len(s.lineBuffer) > 0 {
			d.flushLineBuffer()
		} else {
			s.lineBuffer = append(s.lineBuffer, b)
		}
	} else {
		s.textBuffer = append(s.textBuffer, b)
	}

	if d.format == FormatRaw || !s.inGratuitous {
		s.appendClient(b)
	}
}

// flushLineBuffer splits the accumulated free-text line buffer on any
// embedded line breaks and emits one Line event per non-empty,
// whitespace-stripped segment.
func (d *Decoder) flushLineBuffer() {
	s := d.state
	for _, line := range bytes.Split(s.lineBuffer, []byte("\n")) {
		line = bytes.TrimRight(line, "\r")
		trimmed := bytes.TrimSpace(line)
		if len(trimmed) > 0 {
			d.emit(events.Line, cloneBuf(trimmed))
		}
	}
	s.lineBuffer = s.lineBuffer[:0]
}

// tagReplacement returns the tintin-format substitution for a
// recognized tag name, or nil for tags with no replacement.
func tagReplacement(tag []byte) []byte {
	if v, ok := tintinReplacements[string(tag)]; ok {
		return v
	}
	return nil
}

var tintinReplacements = map[string][]byte{
	"prompt":   []byte("PROMPT:"),
	"/prompt":  []byte(":PROMPT"),
	"name":     []byte("NAME:"),
	"/name":    []byte(":NAME"),
	"tell":     []byte("TELL:"),
	"/tell":    []byte(":TELL"),
	"narrate":  []byte("NARRATE:"),
	"/narrate": []byte(":NARRATE"),
	"pray":     []byte("PRAY:"),
	"/pray":    []byte(":PRAY"),
	"say":      []byte("SAY:"),
	"/say":     []byte(":SAY"),
	"emote":    []byte("EMOTE:"),
	"/emote":   []byte(":EMOTE"),
}
