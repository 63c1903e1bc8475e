package entities

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// OperationID identifies an operation
type OperationID string

// OperationState represents the lifecycle state of an operation
type OperationState int

const (
	Planned OperationState = iota
	Started
	Done
)

// String method for OperationState enum
func (s OperationState) String() string {
	switch s {
	case Planned:
		return "planned"
	case Started:
		return "started"
	case Done:
		return "done"
	default:
		return "unknown"
	}
}

// ParseOperationState parses the lower-case state names produced by String
func ParseOperationState(s string) (OperationState, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "planned":
		return Planned, nil
	case "started":
		return Started, nil
	case "done":
		return Done, nil
	default:
		return Planned, fmt.Errorf("invalid operation state: %s (expected: planned, started, or done)", s)
	}
}

// MarshalText encodes the state by name
func (s OperationState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText decodes a state name
func (s *OperationState) UnmarshalText(text []byte) error {
	parsed, err := ParseOperationState(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// OperationKind represents the type of an operation
type OperationKind int

const (
	Arrival OperationKind = iota
	Split
	Move
	Unpack
)

// String method for OperationKind enum
func (k OperationKind) String() string {
	switch k {
	case Arrival:
		return "arrival"
	case Split:
		return "split"
	case Move:
		return "move"
	case Unpack:
		return "unpack"
	default:
		return "unknown"
	}
}

// ParseOperationKind parses the lower-case kind names produced by String
func ParseOperationKind(s string) (OperationKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "arrival":
		return Arrival, nil
	case "split":
		return Split, nil
	case "move":
		return Move, nil
	case "unpack":
		return Unpack, nil
	default:
		return Arrival, fmt.Errorf("invalid operation kind: %s (expected: arrival, split, move, or unpack)", s)
	}
}

func (k OperationKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

func (k *OperationKind) UnmarshalText(text []byte) error {
	parsed, err := ParseOperationKind(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// Operation is a recorded action on goods with a planned/done lifecycle.
// Follows and Goods are identifier references into the store; the
// provenance graph is never held as embedded structures.
type Operation struct {
	ID          OperationID     `json:"id"`
	Kind        OperationKind   `json:"kind"`
	State       OperationState  `json:"state"`
	DtExecution time.Time       `json:"dt_execution"`
	Follows     []OperationID   `json:"follows,omitempty"`
	Goods       GoodsID         `json:"goods,omitempty"`
	Quantity    decimal.Decimal `json:"quantity"`
	Partial     bool            `json:"partial,omitempty"`
	Destination string          `json:"destination,omitempty"`
	Outcomes    []GoodsID       `json:"outcomes,omitempty"`
}

// Clone returns a copy that shares no slices with the receiver
func (o *Operation) Clone() *Operation {
	if o == nil {
		return nil
	}
	out := *o
	out.Follows = append([]OperationID(nil), o.Follows...)
	out.Outcomes = append([]GoodsID(nil), o.Outcomes...)
	return &out
}

// String renders the operation for error messages
func (o *Operation) String() string {
	return fmt.Sprintf("%s(id=%s, state=%s, goods=%s, quantity=%s)",
		o.Kind, o.ID, o.State, o.Goods, o.Quantity)
}
