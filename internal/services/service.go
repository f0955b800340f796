package services

import (
	"context"
	"strings"

	"svcman/internal/logger"
)

// Record is the persisted projection of a registered service.
type Record struct {
	Kind     Kind
	Name     string
	Location string
}

// Tag returns the persisted tag of r's kind.
func (r Record) Tag() string {
	return r.Kind.String()
}

// Service is a registered service bound to its control strategy.
type Service struct {
	kind     Kind
	name     string
	location string
	strategy Strategy
	log      logger.Logger
}

// Kind returns the service kind
func (s *Service) Kind() Kind { return s.kind }

// Name returns the service name
func (s *Service) Name() string { return s.name }

// Location returns the compose project directory, empty for system services
func (s *Service) Location() string { return s.location }

// Strategy returns the strategy resolved for the service kind
func (s *Service) Strategy() Strategy { return s.strategy }

// ToRecord projects s onto its persisted shape.
func (s *Service) ToRecord() Record {
	return Record{Kind: s.kind, Name: s.name, Location: s.location}
}

// Command returns the command PerformOperation would run, without running it.
func (s *Service) Command(op Operation) (Command, error) {
	return s.strategy.GenerateCommand(op, s.name)
}

// PerformOperation generates and executes the command for op. Strategy
// failures are returned as-is.
func (s *Service) PerformOperation(ctx context.Context, op Operation) error {
	cmd, err := s.strategy.GenerateCommand(op, s.name)
	if err != nil {
		return err
	}

	s.log.Info("running service operation",
		logger.String("service", s.name),
		logger.String("operation", op.String()),
		logger.String("command", cmd.String()),
		logger.String("dir", cmd.Dir),
	)

	if err := s.strategy.Execute(ctx, cmd); err != nil {
		if pe, ok := err.(ProcessError); ok {
			pe.Name = s.name
			return pe
		}
		return err
	}

	s.log.Info("service operation completed",
		logger.String("service", s.name),
		logger.String("operation", op.String()),
	)
	return nil
}

// Factory validates input and builds Services with their strategies.
type Factory struct {
	tools  Toolchain
	runner CommandRunner
	log    logger.Logger
}

// NewFactory creates a Factory. A nil runner falls back to the exec-backed
// runner and a nil logger to a no-op one.
func NewFactory(tools Toolchain, runner CommandRunner, log logger.Logger) *Factory {
	if runner == nil {
		runner = NewDefaultCommandRunner()
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Factory{tools: tools, runner: runner, log: log}
}

// Create validates tag, name and location and builds a Service. The
// location is only checked against the filesystem for compose services and
// is dropped for system services.
func (f *Factory) Create(tag, name, location string) (*Service, error) {
	kind, err := ParseKind(tag)
	if err != nil {
		return nil, err
	}
	return f.New(kind, name, location)
}

// New is Create for an already parsed kind.
func (f *Factory) New(kind Kind, name, location string) (*Service, error) {
	if !kind.Valid() {
		return nil, InvalidKindError{Tag: kind.String()}
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, EmptyNameError{}
	}

	svc := &Service{kind: kind, name: name, log: f.log}

	switch kind {
	case KindSystem:
		svc.strategy = NewSystemStrategy(f.tools, f.runner)
	case KindCompose:
		if strings.TrimSpace(location) == "" {
			return nil, MissingLocationError{Name: name}
		}
		if _, err := ValidateLocation(location); err != nil {
			return nil, err
		}
		svc.location = strings.TrimSpace(location)
		svc.strategy = NewComposeStrategy(svc.location, f.tools, f.runner)
	}

	return svc, nil
}

// FromRecord rebuilds a Service from a persisted record without touching
// the filesystem; the compose strategy re-validates its location on use.
func (f *Factory) FromRecord(r Record) (*Service, error) {
	if !r.Kind.Valid() {
		return nil, InvalidKindError{Tag: r.Kind.String()}
	}
	name := strings.TrimSpace(r.Name)
	if name == "" {
		return nil, EmptyNameError{}
	}

	svc := &Service{kind: r.Kind, name: r.Name, log: f.log}

	switch r.Kind {
	case KindSystem:
		svc.strategy = NewSystemStrategy(f.tools, f.runner)
	case KindCompose:
		if strings.TrimSpace(r.Location) == "" {
			return nil, MissingLocationError{Name: name}
		}
		svc.location = r.Location
		svc.strategy = NewComposeStrategy(r.Location, f.tools, f.runner)
	}

	return svc, nil
}
