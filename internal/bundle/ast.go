package bundle

import (
	"fmt"

	"svcman/internal/services"
)

// Position represents a location in a Servicefile for error reporting
type Position struct {
	Line   int
	Column int
}

func (p Position) String() string {
	return fmt.Sprintf("line %d, column %d", p.Line, p.Column)
}

// Node is the interface for all AST nodes
type Node interface {
	Position() Position
	Type() string
}

// SystemCommand represents a `sys "name"` line
type SystemCommand struct {
	Pos  Position
	Name string
}

func (s *SystemCommand) Position() Position { return s.Pos }
func (s *SystemCommand) Type() string       { return services.TagSystem }

// ComposeCommand represents a `docker "name", path: "dir"` line
type ComposeCommand struct {
	Pos  Position
	Name string
	Path string
}

func (c *ComposeCommand) Position() Position { return c.Pos }
func (c *ComposeCommand) Type() string       { return services.TagCompose }

// WhitespaceCommand represents a blank line or comment (for preserving formatting)
type WhitespaceCommand struct {
	Pos     Position
	Content string // comment text or empty for blank line
}

func (w *WhitespaceCommand) Position() Position { return w.Pos }
func (w *WhitespaceCommand) Type() string       { return "whitespace" }

// Servicefile represents the entire parsed Servicefile
type Servicefile struct {
	Nodes []Node
	Path  string // original file path
}

// GetSystemServices returns all sys lines
func (s *Servicefile) GetSystemServices() []*SystemCommand {
	var out []*SystemCommand
	for _, node := range s.Nodes {
		if cmd, ok := node.(*SystemCommand); ok {
			out = append(out, cmd)
		}
	}
	return out
}

// GetComposeServices returns all docker lines
func (s *Servicefile) GetComposeServices() []*ComposeCommand {
	var out []*ComposeCommand
	for _, node := range s.Nodes {
		if cmd, ok := node.(*ComposeCommand); ok {
			out = append(out, cmd)
		}
	}
	return out
}

// ServiceReference is a service line with the position it came from
type ServiceReference struct {
	Record services.Record
	Pos    Position
}

// ToReference converts a command node to a ServiceReference
func ToReference(node Node) (ServiceReference, bool) {
	switch n := node.(type) {
	case *SystemCommand:
		return ServiceReference{Record: services.Record{Kind: services.KindSystem, Name: n.Name}, Pos: n.Pos}, true
	case *ComposeCommand:
		return ServiceReference{Record: services.Record{Kind: services.KindCompose, Name: n.Name, Location: n.Path}, Pos: n.Pos}, true
	default:
		return ServiceReference{}, false
	}
}

// References returns every service line in file order
func (s *Servicefile) References() []ServiceReference {
	var refs []ServiceReference
	for _, node := range s.Nodes {
		if ref, ok := ToReference(node); ok {
			refs = append(refs, ref)
		}
	}
	return refs
}
