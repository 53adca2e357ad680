package gui

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
)

func TestUpdateAppliesNameMsgWithoutTouchingExits(t *testing.T) {
	m := model{name: "old", exits: "north"}
	next, cmd := m.Update(nameMsg("The Square"))
	if cmd != nil {
		t.Fatalf("expected no command, got %v", cmd)
	}
	got := next.(model)
	if got.name != "The Square" || got.exits != "north" {
		t.Fatalf("want name=%q exits=%q, got name=%q exits=%q", "The Square", "north", got.name, got.exits)
	}
}

func TestUpdateAppliesExitsMsgWithoutTouchingName(t *testing.T) {
	m := model{name: "The Square", exits: ""}
	next, _ := m.Update(exitsMsg("north, south"))
	got := next.(model)
	if got.exits != "north, south" || got.name != "The Square" {
		t.Fatalf("want exits updated and name untouched, got %+v", got)
	}
}

func TestUpdateQuitsOnQ(t *testing.T) {
	m := model{}
	if _, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")}); cmd == nil {
		t.Fatal("expected \"q\" to produce tea.Quit")
	}
}

func TestUpdateQuitsOnCtrlC(t *testing.T) {
	m := model{}
	if _, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC}); cmd == nil {
		t.Fatal("expected ctrl+c to produce tea.Quit")
	}
}

func TestUpdateIgnoresOtherKeys(t *testing.T) {
	m := model{name: "The Square"}
	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("x")})
	if cmd != nil {
		t.Fatalf("expected no command for an unrecognized key, got %v", cmd)
	}
	if next.(model).name != "The Square" {
		t.Fatal("expected model to be unchanged")
	}
}

func TestViewRendersNameAndExits(t *testing.T) {
	m := model{name: "The Square", exits: "north, south"}
	out := m.View()
	if !strings.Contains(out, "The Square") || !strings.Contains(out, "north, south") {
		t.Fatalf("expected view to contain name and exits, got %q", out)
	}
}
