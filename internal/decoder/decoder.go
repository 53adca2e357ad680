package decoder

import (
	"github.com/drake/mudgate/internal/events"
	"github.com/drake/mudgate/internal/wire"
)

// Format selects the output assembler's rendering mode.
type Format int

const (
	FormatNormal Format = iota
	FormatTintin
	FormatRaw
)

// ParseFormat resolves a config value to a Format, defaulting to
// FormatNormal for anything unrecognized.
func ParseFormat(s string) Format {
	switch s {
	case "tintin":
		return FormatTintin
	case "raw":
		return FormatRaw
	default:
		return FormatNormal
	}
}

// SendFunc writes bytes directly to the server, used for the
// handshake and charset negotiation responses the decoder must emit
// proactively.
type SendFunc func([]byte)

// Decoder owns a single mutable state struct and implements the byte
// classifier, Telnet negotiator, MPI framer, XML parser, and output
// assembler as methods over it. One Decoder exists per session and is
// driven by exactly one goroutine.
type Decoder struct {
	state  *state
	format Format

	promptTerminator []byte
	charset          wire.Charset

	queue        *events.Queue
	dispatcher   MPIDispatcher
	sendToServer SendFunc
}

// Option configures a Decoder at construction time.
type Option func(*Decoder)

// WithFormat sets the output mode.
func WithFormat(f Format) Option {
	return func(d *Decoder) { d.format = f }
}

// WithPromptTerminator overrides the default IAC-GA substitution bytes.
func WithPromptTerminator(term []byte) Option {
	return func(d *Decoder) {
		if len(term) > 0 {
			d.promptTerminator = term
		}
	}
}

// WithCharset overrides the charset requested during the handshake.
func WithCharset(c wire.Charset) Option {
	return func(d *Decoder) { d.charset = c }
}

// WithDispatcher installs the MPI frame handler.
func WithDispatcher(disp MPIDispatcher) Option {
	return func(d *Decoder) { d.dispatcher = disp }
}

// WithSendFunc installs the function used to write handshake/charset
// negotiation bytes straight to the server connection.
func WithSendFunc(send SendFunc) Option {
	return func(d *Decoder) { d.sendToServer = send }
}

// New creates a Decoder posting events to queue.
func New(queue *events.Queue, opts ...Option) *Decoder {
	d := &Decoder{
		state:            newState(),
		format:           FormatNormal,
		promptTerminator: []byte{wire.IAC, wire.GA},
		charset:          wire.CharsetASCII,
		queue:            queue,
		dispatcher:       NopDispatcher{},
		sendToServer:     func([]byte) {},
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// emit posts an event to the queue, or drops it silently if no queue
// was configured (convenient for tests that only check client output).
func (d *Decoder) emit(t events.Type, payload []byte) {
	if d.queue == nil {
		return
	}
	d.queue.Push(events.Event{Type: t, Payload: payload})
}

// Process feeds one network read's worth of server bytes through the
// decoder and returns the bytes to write to the client for this read,
// already rendered in the configured Format (entity-unescaped and
// charset-transcoded for normal/tintin; verbatim for raw). The client
// buffer is drained at the end of each network read.
func (d *Decoder) Process(data []byte) []byte {
	if !d.state.encounteredInitialOutput && hasPrefix(data, wire.InitialOutputPrefix) {
		d.runInitialHandshake()
	}

	for _, b := range data {
		d.feedByte(b)
	}

	return d.assembleOutput(d.state.drainClientBuffer())
}

func hasPrefix(data, prefix []byte) bool {
	if len(data) < len(prefix) {
		return false
	}
	for i, b := range prefix {
		if data[i] != b {
			return false
		}
	}
	return true
}

// runInitialHandshake runs the one-shot identification sequence,
// triggered by the server's first IAC DO TTYPE IAC DO NAWS.
func (d *Decoder) runInitialHandshake() {
	s := d.state
	s.encounteredInitialOutput = true

	d.sendToServer([]byte("~$#EI\n"))
	d.sendToServer([]byte("~$#EX2\n3G\n"))
	d.sendToServer([]byte("~$#EP2\nG\n"))
	d.sendToServer([]byte{wire.IAC, wire.WILL, wire.OptCharset})
	s.charsetPhase = charsetOffered
}
