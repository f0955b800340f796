package services

import (
	"context"
	"strings"
)

// Strategy turns an operation into a command and runs it. The set of
// implementations is closed: SystemStrategy and ComposeStrategy.
type Strategy interface {
	GenerateCommand(op Operation, name string) (Command, error)
	Execute(ctx context.Context, cmd Command) error

	sealed()
}

// SystemStrategy controls daemons through the host service manager,
// e.g. `sudo systemctl restart nginx`.
type SystemStrategy struct {
	tools  Toolchain
	runner CommandRunner
}

// NewSystemStrategy creates a SystemStrategy
func NewSystemStrategy(tools Toolchain, runner CommandRunner) *SystemStrategy {
	return &SystemStrategy{tools: tools.withDefaults(), runner: runner}
}

func (s *SystemStrategy) sealed() {}

func (s *SystemStrategy) GenerateCommand(op Operation, name string) (Command, error) {
	if err := checkSystemSupport(); err != nil {
		return Command{}, err
	}

	var verb string
	switch op {
	case OpStop:
		verb = "stop"
	case OpRestart:
		verb = "restart"
	default:
		return Command{}, InvalidOperationError{Op: op}
	}

	name = strings.TrimSpace(name)
	if s.tools.Elevation == "" {
		return Command{Name: s.tools.ServiceCtl, Args: []string{verb, name}}, nil
	}
	return Command{
		Name: s.tools.Elevation,
		Args: []string{s.tools.ServiceCtl, verb, name},
	}, nil
}

// Execute runs cmd in the current working directory.
func (s *SystemStrategy) Execute(ctx context.Context, cmd Command) error {
	cmd.Dir = ""
	return NewProcessError("", cmd, s.runner.Run(ctx, cmd))
}

// ComposeStrategy controls a compose stack from its project directory,
// e.g. `docker compose up -d` run inside ~/web/gitea.
type ComposeStrategy struct {
	location string
	tools    Toolchain
	runner   CommandRunner
}

// NewComposeStrategy creates a ComposeStrategy bound to location
func NewComposeStrategy(location string, tools Toolchain, runner CommandRunner) *ComposeStrategy {
	return &ComposeStrategy{location: location, tools: tools.withDefaults(), runner: runner}
}

func (s *ComposeStrategy) sealed() {}

// Location returns the configured, unexpanded project directory.
func (s *ComposeStrategy) Location() string {
	return s.location
}

// GenerateCommand ignores name: compose acts on the whole stack in the
// project directory.
func (s *ComposeStrategy) GenerateCommand(op Operation, _ string) (Command, error) {
	dir, err := ValidateLocation(s.location)
	if err != nil {
		return Command{}, err
	}

	var args []string
	switch op {
	case OpStop:
		args = []string{"compose", "down"}
	case OpRestart:
		args = []string{"compose", "up", "-d"}
	default:
		return Command{}, InvalidOperationError{Op: op}
	}

	return Command{Name: s.tools.Compose, Args: args, Dir: dir}, nil
}

// Execute re-checks the project directory before running cmd inside it.
func (s *ComposeStrategy) Execute(ctx context.Context, cmd Command) error {
	dir, err := ValidateLocation(s.location)
	if err != nil {
		return err
	}

	cmd.Dir = dir
	return NewProcessError("", cmd, s.runner.Run(ctx, cmd))
}
