package bundle

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"svcman/internal/services"
)

// RecordLister is the part of the manager the dumper reads from
type RecordLister interface {
	List() ([]services.Record, error)
}

// Dumper renders registered services as a Servicefile
type Dumper struct {
	source RecordLister
}

// NewDumper creates a Dumper reading from source
func NewDumper(source RecordLister) *Dumper {
	return &Dumper{source: source}
}

// DumpOptions configures what to include in the Servicefile
type DumpOptions struct {
	IncludeSystem  bool
	IncludeCompose bool
	Header         bool
}

// DefaultDumpOptions returns options that include everything
func DefaultDumpOptions() DumpOptions {
	return DumpOptions{
		IncludeSystem:  true,
		IncludeCompose: true,
		Header:         true,
	}
}

// Dump collects the registered services as Servicefile nodes
func (d *Dumper) Dump(opts DumpOptions) (*Servicefile, error) {
	records, err := d.source.List()
	if err != nil {
		return nil, fmt.Errorf("failed to list services: %w", err)
	}

	sf := &Servicefile{}
	line := 1
	if opts.Header {
		sf.Nodes = append(sf.Nodes,
			&WhitespaceCommand{Pos: Position{Line: 1, Column: 1}, Content: "# Servicefile generated by svcman on " + time.Now().Format("2006-01-02")},
			&WhitespaceCommand{Pos: Position{Line: 2, Column: 1}},
		)
		line = 3
	}

	for _, rec := range records {
		pos := Position{Line: line, Column: 1}
		switch rec.Kind {
		case services.KindSystem:
			if !opts.IncludeSystem {
				continue
			}
			sf.Nodes = append(sf.Nodes, &SystemCommand{Pos: pos, Name: rec.Name})
		case services.KindCompose:
			if !opts.IncludeCompose {
				continue
			}
			sf.Nodes = append(sf.Nodes, &ComposeCommand{Pos: pos, Name: rec.Name, Path: rec.Location})
		}
		line++
	}
	return sf, nil
}

// Write renders sf in Servicefile syntax
func Write(w io.Writer, sf *Servicefile) error {
	for _, node := range sf.Nodes {
		if _, err := io.WriteString(w, FormatNode(node)+"\n"); err != nil {
			return err
		}
	}
	return nil
}

// FormatNode renders a single node as one Servicefile line
func FormatNode(node Node) string {
	switch n := node.(type) {
	case *SystemCommand:
		return fmt.Sprintf("%s %s", services.TagSystem, strconv.Quote(n.Name))
	case *ComposeCommand:
		return fmt.Sprintf("%s %s, path: %s", services.TagCompose, strconv.Quote(n.Name), strconv.Quote(n.Path))
	case *WhitespaceCommand:
		return strings.TrimRight(n.Content, " \t")
	default:
		return ""
	}
}
