// Package gui implements an optional, minimal consumer of the room
// event stream: a Bubble Tea program that shows the current room name
// and exits. It exists so the event queue has a second, best-effort
// listener to exercise; full map rendering is out of scope.
package gui

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/drake/mudgate/internal/events"
)

var (
	nameStyle  = lipgloss.NewStyle().Bold(true)
	exitsStyle = lipgloss.NewStyle().Faint(true)
)

// model is the Bubble Tea model driven by nameMsg/exitsMsg updates
// pushed from Sink.Run.
type model struct {
	name  string
	exits string
}

type nameMsg string
type exitsMsg string

func (m model) Init() tea.Cmd { return nil }

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case nameMsg:
		m.name = string(msg)
		return m, nil
	case exitsMsg:
		m.exits = string(msg)
		return m, nil
	case tea.KeyMsg:
		if msg.String() == "q" || msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m model) View() string {
	return fmt.Sprintf("%s\n%s\n", nameStyle.Render(m.name), exitsStyle.Render("Exits: "+m.exits))
}

// Sink drives a Bubble Tea program from the event queue.
type Sink struct {
	program *tea.Program
}

// New creates a Sink. The program isn't started until Run is called.
func New() *Sink {
	return &Sink{program: tea.NewProgram(model{})}
}

// Run starts the Bubble Tea program and feeds it room updates until q
// closes or a Shutdown event arrives. It is lossy by design: the GUI
// must never apply backpressure to the decoder, so q should be
// constructed with events.NewLossy.
func (s *Sink) Run(q *events.Queue) {
	go func() {
		for ev := range q.Events() {
			if ev.Type == events.Shutdown {
				s.program.Quit()
				return
			}
			switch ev.Type {
			case events.Name:
				s.program.Send(nameMsg(ev.Text()))
			case events.Exits:
				s.program.Send(exitsMsg(ev.Text()))
			}
		}
	}()
	s.program.Run()
}
