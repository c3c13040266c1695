// Package clipboard copies block text to the user's clipboard from the
// terminal viewer, preferring a system tool and falling back to the
// OSC52 escape sequence for remote sessions.
package clipboard

import (
	"encoding/base64"
	"fmt"
	"io"
	"os"
	"os/exec"
	"runtime"
	"strings"
)

// Option configures a Clipboard
type Option func(*Clipboard)

// Clipboard writes text to the available clipboard targets
type Clipboard struct {
	system bool
	osc52  bool
	output io.Writer
}

// New creates a Clipboard with all targets enabled
func New(opts ...Option) *Clipboard {
	c := &Clipboard{
		system: true,
		osc52:  true,
		output: os.Stderr,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// WithSystem enables/disables the system clipboard tool target
func WithSystem(enabled bool) Option {
	return func(c *Clipboard) { c.system = enabled }
}

// WithOSC52 enables/disables the OSC52 terminal target
func WithOSC52(enabled bool) Option {
	return func(c *Clipboard) { c.osc52 = enabled }
}

// WithOutput sets the writer receiving OSC52 sequences
func WithOutput(w io.Writer) Option {
	return func(c *Clipboard) { c.output = w }
}

// Copy writes text to every enabled target. It succeeds when at least
// one target accepted the text.
func (c *Clipboard) Copy(text string) error {
	var lastErr error
	copied := false

	if c.system {
		if err := c.copyToSystem(text); err != nil {
			lastErr = err
		} else {
			copied = true
		}
	}
	if c.osc52 {
		if err := c.copyWithOSC52(text); err != nil {
			lastErr = err
		} else {
			copied = true
		}
	}

	if copied {
		return nil
	}
	return lastErr
}

// copyToSystem pipes text through the platform clipboard tool
func (c *Clipboard) copyToSystem(text string) error {
	tool := findSystemClipboardTool()
	if tool == "" {
		return fmt.Errorf("no system clipboard tool available")
	}

	cmd := exec.Command(tool)
	cmd.Stdin = strings.NewReader(text)
	return cmd.Run()
}

// copyWithOSC52 emits the OSC52 escape sequence, wrapped in a tmux DCS
// passthrough when running under tmux
func (c *Clipboard) copyWithOSC52(text string) error {
	encoded := base64.StdEncoding.EncodeToString([]byte(text))

	var sequence string
	if os.Getenv("TMUX") != "" {
		sequence = fmt.Sprintf("\033Ptmux;\033\033]52;c;%s\007\033\\", encoded)
	} else {
		sequence = fmt.Sprintf("\033]52;c;%s\007", encoded)
	}

	_, err := c.output.Write([]byte(sequence))
	return err
}

// findSystemClipboardTool returns the first available platform tool
func findSystemClipboardTool() string {
	var tools []string
	switch runtime.GOOS {
	case "darwin":
		tools = []string{"pbcopy"}
	case "linux":
		tools = []string{"wl-copy", "xclip", "xsel"}
	case "windows":
		tools = []string{"clip"}
	}

	for _, tool := range tools {
		if _, err := exec.LookPath(tool); err == nil {
			return tool
		}
	}
	return ""
}
