// Package events defines the typed values the decoder posts to the
// mapper and GUI sinks.
package events

// Type identifies the kind of event carried by an Event.
type Type int

const (
	// Line is a non-empty plain-text line outside any XML element.
	Line Type = iota
	// Movement carries a direction extracted from a self-closing
	// <movement dir=.../> tag.
	Movement
	// Name is the text of a <name>...</name> element.
	Name
	// Description is the text of a <description>...</description> element.
	Description
	// Exits is the text of an <exits>...</exits> element.
	Exits
	// Prompt is the text of a <prompt>...</prompt> element.
	Prompt
	// Dynamic is the text of a <room> element that follows its last
	// <name> or <description> element (gratuitous and terrain text
	// included), delivered when </room> closes. The name and
	// description text is not part of it.
	Dynamic
	// IacGa marks receipt of a Telnet GA prompt terminator.
	IacGa
	// Shutdown is posted once, as the session tears down.
	Shutdown
)

func (t Type) String() string {
	switch t {
	case Line:
		return "Line"
	case Movement:
		return "Movement"
	case Name:
		return "Name"
	case Description:
		return "Description"
	case Exits:
		return "Exits"
	case Prompt:
		return "Prompt"
	case Dynamic:
		return "Dynamic"
	case IacGa:
		return "IacGa"
	case Shutdown:
		return "Shutdown"
	default:
		return "Unknown"
	}
}

// Event is a single typed value posted to the queue. Payload is nil
// for IacGa and Shutdown.
type Event struct {
	Type    Type
	Payload []byte
}

// Text returns Payload as a string for convenience at call sites that
// only ever deal with text events.
func (e Event) Text() string {
	return string(e.Payload)
}
