package editorx

import (
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// Command is an Editor that hands the content to an external editor program
// (vi, nano, $EDITOR style) via a temporary file and reads the result back
// when GetData is called.
type Command struct {
	// Editor is the program to launch. Empty falls back to $EDITOR, then vi.
	Editor string

	field string
	data  string
}

// NewCommand returns a Command editor for the named field.
func NewCommand(editor, field string) *Command {
	return &Command{Editor: editor, field: field}
}

func (c *Command) SetData(html string) { c.data = html }

// GetData launches the editor on the current content and returns whatever
// the user saved. On any failure the unedited content is returned; the
// caller's no-change detection then turns the failed edit into a no-op.
func (c *Command) GetData() string {
	program := c.Editor
	if program == "" {
		program = os.Getenv("EDITOR")
	}
	if program == "" {
		program = "vi"
	}

	tmp, err := os.CreateTemp("", fmt.Sprintf("shopedit-%s-*.html", c.field))
	if err != nil {
		return c.data
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.WriteString(c.data); err != nil {
		tmp.Close()
		return c.data
	}
	tmp.Close()

	parts := strings.Fields(program)
	args := append(parts[1:], tmp.Name())
	cmd := exec.Command(parts[0], args...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return c.data
	}

	edited, err := os.ReadFile(tmp.Name())
	if err != nil {
		return c.data
	}

	c.data = string(edited)
	return c.data
}

func (c *Command) Focus() {}
