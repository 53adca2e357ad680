package scripting

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/drake/mudgate/internal/commands"
)

func TestLuaRegisterPopulatesCommandRegistry(t *testing.T) {
	reg := commands.New()
	e := New(reg)
	defer e.Close()

	script := `
		local seen = nil
		mudgate.register("wave", function(args)
			seen = args
		end)
	`
	path := filepath.Join(t.TempDir(), "init.lua")
	if err := os.WriteFile(path, []byte(script), 0o600); err != nil {
		t.Fatal(err)
	}

	if err := e.LoadFile(path); err != nil {
		t.Fatalf("LoadFile: %v", err)
	}

	h, args, ok := reg.Classify([]byte("wave hello"))
	if !ok {
		t.Fatal("expected \"wave\" to be registered by the script")
	}
	if err := h(args); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
}

func TestLoadFileWithEmptyPathIsNoOp(t *testing.T) {
	e := New(commands.New())
	defer e.Close()
	if err := e.LoadFile(""); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
}
