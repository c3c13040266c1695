package clipboard

import (
	"bytes"
	"encoding/base64"
	"strings"
	"testing"
)

// TestOSC52Sequence verifies the OSC52 escape sequence carries the text
// base64-encoded
func TestOSC52Sequence(t *testing.T) {
	t.Setenv("TMUX", "")

	var buf bytes.Buffer
	c := New(WithSystem(false), WithOutput(&buf))

	if err := c.Copy("hello blocks"); err != nil {
		t.Fatalf("Copy failed: %v", err)
	}

	out := buf.String()
	if !strings.HasPrefix(out, "\033]52;c;") {
		t.Errorf("Expected OSC52 prefix, got %q", out)
	}

	encoded := base64.StdEncoding.EncodeToString([]byte("hello blocks"))
	if !strings.Contains(out, encoded) {
		t.Errorf("Expected base64 payload %q in %q", encoded, out)
	}
}

// TestOSC52TmuxPassthrough verifies the sequence is wrapped for tmux
func TestOSC52TmuxPassthrough(t *testing.T) {
	t.Setenv("TMUX", "/tmp/tmux-1000/default,1234,0")

	var buf bytes.Buffer
	c := New(WithSystem(false), WithOutput(&buf))

	if err := c.Copy("text"); err != nil {
		t.Fatalf("Copy failed: %v", err)
	}

	if !strings.HasPrefix(buf.String(), "\033Ptmux;") {
		t.Errorf("Expected tmux DCS passthrough, got %q", buf.String())
	}
}
