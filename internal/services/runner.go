package services

import (
	"context"
	"errors"
	"io"
	"os"
	"os/exec"

	"github.com/kballard/go-shellquote"
)

// Command is a fully resolved command line plus the directory it runs in.
type Command struct {
	Name string
	Args []string
	Dir  string
}

// Argv returns the command followed by its arguments.
func (c Command) Argv() []string {
	return append([]string{c.Name}, c.Args...)
}

// String renders the command the way a shell user would type it.
func (c Command) String() string {
	return shellquote.Join(c.Argv()...)
}

// Cmd builds the exec.Cmd for c without attaching any stdio, for callers
// that hand the terminal over themselves.
func (c Command) Cmd(ctx context.Context) *exec.Cmd {
	cmd := exec.CommandContext(ctx, c.Name, c.Args...)
	cmd.Dir = c.Dir
	return cmd
}

// CommandRunner runs an external command to completion.
type CommandRunner interface {
	Run(ctx context.Context, cmd Command) error
}

// DefaultCommandRunner runs commands through os/exec with the caller's stdio
// attached, so sudo can prompt and compose can stream progress.
type DefaultCommandRunner struct {
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

// NewDefaultCommandRunner creates a runner wired to the process stdio
func NewDefaultCommandRunner() *DefaultCommandRunner {
	return &DefaultCommandRunner{
		Stdin:  os.Stdin,
		Stdout: os.Stdout,
		Stderr: os.Stderr,
	}
}

func (d *DefaultCommandRunner) Run(ctx context.Context, c Command) error {
	cmd := c.Cmd(ctx)
	cmd.Stdin = d.Stdin
	cmd.Stdout = d.Stdout
	cmd.Stderr = d.Stderr
	return cmd.Run()
}

// exitCode extracts the process exit status from a runner error, or -1.
func exitCode(err error) int {
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}
	return -1
}
