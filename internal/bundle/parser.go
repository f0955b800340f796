package bundle

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"svcman/internal/services"
)

type Parser interface {
	Parse(r io.Reader) (*Servicefile, error)
	ParseFile(path string) (*Servicefile, error)
	ParseString(content string) (*Servicefile, error)
}

type ParserError struct {
	Pos     Position
	Message string
	Type    ErrorType
}

func (e *ParserError) Error() string {
	return fmt.Sprintf("%s at %s: %s", e.Type, e.Pos, e.Message)
}

type ErrorType string

const (
	SyntaxError             ErrorType = "SyntaxError"
	UnsupportedCommandError ErrorType = "UnsupportedCommand"
	InvalidArgumentError    ErrorType = "InvalidArgument"
	IoError                 ErrorType = "IOError"
)

func IsSyntaxError(err error) bool {
	var pe *ParserError
	return errors.As(err, &pe) && pe.Type == SyntaxError
}

func IsUnsupportedCommand(err error) bool {
	var pe *ParserError
	return errors.As(err, &pe) && pe.Type == UnsupportedCommandError
}

type ParserOptions struct {
	AllowUnknownCommands bool
	PreserveComments     bool
	MaxFileSize          int64
}

func DefaultParserOptions() ParserOptions {
	return ParserOptions{
		AllowUnknownCommands: false,
		PreserveComments:     true,
		MaxFileSize:          1024 * 1024,
	}
}

func NewParser(opts ParserOptions) Parser {
	return &lineParser{options: opts}
}

func SimpleParser() Parser {
	return NewParser(DefaultParserOptions())
}

type lineParser struct {
	options ParserOptions
}

func (p *lineParser) ParseFile(path string) (*Servicefile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &ParserError{Type: IoError, Message: err.Error()}
	}
	defer f.Close()

	sf, err := p.Parse(f)
	if err != nil {
		return nil, err
	}
	sf.Path = path
	return sf, nil
}

func (p *lineParser) ParseString(content string) (*Servicefile, error) {
	return p.Parse(strings.NewReader(content))
}

func (p *lineParser) Parse(r io.Reader) (*Servicefile, error) {
	if p.options.MaxFileSize > 0 {
		data, err := io.ReadAll(io.LimitReader(r, p.options.MaxFileSize+1))
		if err != nil {
			return nil, &ParserError{Pos: Position{Line: 1, Column: 1}, Type: IoError, Message: err.Error()}
		}
		if int64(len(data)) > p.options.MaxFileSize {
			return nil, &ParserError{
				Pos:     Position{Line: 1, Column: 1},
				Type:    IoError,
				Message: fmt.Sprintf("file exceeds %d bytes", p.options.MaxFileSize),
			}
		}
		r = bytes.NewReader(data)
	}

	sf := &Servicefile{}
	scanner := bufio.NewScanner(r)
	lineNo := 0

	for scanner.Scan() {
		lineNo++
		node, err := p.parseLine(scanner.Text(), lineNo)
		if err != nil {
			return nil, err
		}
		if node == nil {
			continue
		}
		sf.Nodes = append(sf.Nodes, node)
	}
	if err := scanner.Err(); err != nil {
		return nil, &ParserError{Pos: Position{Line: lineNo + 1, Column: 1}, Type: IoError, Message: err.Error()}
	}

	return sf, nil
}

func (p *lineParser) parseLine(line string, lineNo int) (Node, error) {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" || strings.HasPrefix(trimmed, "#") {
		if !p.options.PreserveComments {
			return nil, nil
		}
		return &WhitespaceCommand{Pos: Position{Line: lineNo, Column: 1}, Content: trimmed}, nil
	}

	lx := &lexer{src: line, line: lineNo}
	lx.skipSpace()
	start := lx.pos()

	keyword := lx.word()
	if keyword == "" {
		return nil, lx.errorf(SyntaxError, "expected a command")
	}

	switch keyword {
	case services.TagSystem, services.TagCompose, "compose":
	default:
		if p.options.AllowUnknownCommands {
			return nil, nil
		}
		return nil, &ParserError{Pos: start, Type: UnsupportedCommandError, Message: fmt.Sprintf("unknown command %q", keyword)}
	}

	lx.skipSpace()
	name, err := lx.quoted()
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(name) == "" {
		return nil, &ParserError{Pos: start, Type: InvalidArgumentError, Message: "service name must not be empty"}
	}

	args := map[string]string{}
	for {
		lx.skipSpace()
		if lx.done() || lx.peek() == '#' {
			break
		}
		if lx.peek() != ',' {
			return nil, lx.errorf(SyntaxError, "expected ',' or end of line")
		}
		lx.next()
		lx.skipSpace()

		keyPos := lx.pos()
		key := lx.word()
		if key == "" {
			return nil, lx.errorf(SyntaxError, "expected an option name")
		}
		lx.skipSpace()
		if lx.peek() != ':' {
			return nil, lx.errorf(SyntaxError, "expected ':' after %s", key)
		}
		lx.next()
		lx.skipSpace()

		value, err := lx.quoted()
		if err != nil {
			return nil, err
		}
		if key != "path" {
			return nil, &ParserError{Pos: keyPos, Type: InvalidArgumentError, Message: fmt.Sprintf("unknown option %q", key)}
		}
		args[key] = value
	}

	if keyword == services.TagSystem {
		if _, ok := args["path"]; ok {
			return nil, &ParserError{Pos: start, Type: InvalidArgumentError, Message: "sys services take no path"}
		}
		return &SystemCommand{Pos: start, Name: name}, nil
	}

	path := args["path"]
	if strings.TrimSpace(path) == "" {
		return nil, &ParserError{Pos: start, Type: InvalidArgumentError, Message: fmt.Sprintf("compose service %s requires a path", name)}
	}
	return &ComposeCommand{Pos: start, Name: name, Path: path}, nil
}

// lexer walks a single Servicefile line
type lexer struct {
	src  string
	off  int
	line int
}

func (l *lexer) done() bool { return l.off >= len(l.src) }
func (l *lexer) peek() byte { return l.src[l.off] }
func (l *lexer) next()      { l.off++ }

func (l *lexer) pos() Position {
	return Position{Line: l.line, Column: l.off + 1}
}

func (l *lexer) errorf(t ErrorType, format string, args ...interface{}) *ParserError {
	return &ParserError{Pos: l.pos(), Type: t, Message: fmt.Sprintf(format, args...)}
}

func (l *lexer) skipSpace() {
	for !l.done() && (l.peek() == ' ' || l.peek() == '\t') {
		l.next()
	}
}

func (l *lexer) word() string {
	start := l.off
	for !l.done() {
		c := l.peek()
		if c == '_' || c == '-' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') {
			l.next()
			continue
		}
		break
	}
	return l.src[start:l.off]
}

// quoted reads a double-quoted Go-style string literal
func (l *lexer) quoted() (string, error) {
	if l.done() || l.peek() != '"' {
		return "", l.errorf(SyntaxError, "expected a quoted string")
	}
	start := l.off
	l.next()
	for !l.done() {
		switch l.peek() {
		case '\\':
			l.next()
			if !l.done() {
				l.next()
			}
			continue
		case '"':
			l.next()
			value, err := strconv.Unquote(l.src[start:l.off])
			if err != nil {
				return "", &ParserError{Pos: Position{Line: l.line, Column: start + 1}, Type: SyntaxError, Message: "invalid string literal"}
			}
			return value, nil
		}
		l.next()
	}
	return "", &ParserError{Pos: Position{Line: l.line, Column: start + 1}, Type: SyntaxError, Message: "unterminated string"}
}
