package services

import "strings"

// Kind selects how a registered service is controlled.
type Kind int

const (
	KindSystem Kind = iota
	KindCompose
)

// Persisted tags for each kind.
const (
	TagSystem  = "sys"
	TagCompose = "docker"
)

func (k Kind) String() string {
	switch k {
	case KindSystem:
		return TagSystem
	case KindCompose:
		return TagCompose
	default:
		return "unknown"
	}
}

// Valid reports whether k is one of the two known kinds.
func (k Kind) Valid() bool {
	return k == KindSystem || k == KindCompose
}

// ParseKind maps a persisted tag onto a Kind.
func ParseKind(tag string) (Kind, error) {
	switch strings.TrimSpace(tag) {
	case TagSystem:
		return KindSystem, nil
	case TagCompose:
		return KindCompose, nil
	default:
		return 0, InvalidKindError{Tag: tag}
	}
}

// Operation is the action requested on a service.
type Operation int

const (
	OpStop    Operation = 0
	OpRestart Operation = 1
)

func (o Operation) String() string {
	switch o {
	case OpStop:
		return "stop"
	case OpRestart:
		return "restart"
	default:
		return "unknown"
	}
}

// ParseOperation accepts the numeric codes as well as the verb names.
func ParseOperation(s string) (Operation, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "0", "stop", "down":
		return OpStop, nil
	case "1", "restart", "up", "start":
		return OpRestart, nil
	default:
		return 0, InvalidOperationError{Input: s}
	}
}
