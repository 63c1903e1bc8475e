package entities

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// GoodsID identifies a goods record
type GoodsID string

// GoodsState represents the lifecycle state of a goods record
type GoodsState int

const (
	Present GoodsState = iota
	Past
	Future
)

// String method for GoodsState enum
func (s GoodsState) String() string {
	switch s {
	case Present:
		return "present"
	case Past:
		return "past"
	case Future:
		return "future"
	default:
		return "unknown"
	}
}

// ParseGoodsState parses the lower-case state names produced by String
func ParseGoodsState(s string) (GoodsState, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "present":
		return Present, nil
	case "past":
		return Past, nil
	case "future":
		return Future, nil
	default:
		return Present, fmt.Errorf("invalid goods state: %s (expected: present, past, or future)", s)
	}
}

// MarshalText encodes the state by name
func (s GoodsState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText decodes a state name
func (s *GoodsState) UnmarshalText(text []byte) error {
	parsed, err := ParseGoodsState(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// Properties holds the flexible properties attached to goods records.
// A nil *Properties means the goods have no properties at all.
type Properties struct {
	ID       string         `json:"id"`
	Flexible map[string]any `json:"flexible,omitempty"`
}

// Get returns the named flexible property. Absent and nil values both report false.
func (p *Properties) Get(name string) (any, bool) {
	if p == nil || p.Flexible == nil {
		return nil, false
	}
	v, ok := p.Flexible[name]
	if !ok || v == nil {
		return nil, false
	}
	return v, true
}

// Clone returns a deep enough copy for storage snapshots
func (p *Properties) Clone() *Properties {
	if p == nil {
		return nil
	}
	out := &Properties{ID: p.ID}
	if p.Flexible != nil {
		out.Flexible = make(map[string]any, len(p.Flexible))
		for k, v := range p.Flexible {
			out.Flexible[k] = v
		}
	}
	return out
}

// Goods represents a quantity of a given type at a given location
type Goods struct {
	ID         GoodsID         `json:"id"`
	TypeID     GoodsTypeID     `json:"type_id"`
	Quantity   decimal.Decimal `json:"quantity"`
	Location   string          `json:"location"`
	State      GoodsState      `json:"state"`
	Properties *Properties     `json:"properties,omitempty"`
	Reason     OperationID     `json:"reason,omitempty"`
}

// NewGoods creates a validated Goods record
func NewGoods(typeID GoodsTypeID, location string, quantity decimal.Decimal, state GoodsState) (*Goods, error) {
	if string(typeID) == "" {
		return nil, fmt.Errorf("goods type cannot be empty")
	}
	if location == "" {
		return nil, fmt.Errorf("location cannot be empty")
	}
	if quantity.IsNegative() {
		return nil, fmt.Errorf("quantity cannot be negative, got %s", quantity)
	}
	if state == Present && !quantity.IsPositive() {
		return nil, fmt.Errorf("present goods must have a positive quantity, got %s", quantity)
	}

	return &Goods{
		TypeID:   typeID,
		Location: location,
		Quantity: quantity,
		State:    state,
	}, nil
}

// Clone returns a copy that shares nothing mutable with the receiver
func (g *Goods) Clone() *Goods {
	if g == nil {
		return nil
	}
	out := *g
	out.Properties = g.Properties.Clone()
	return &out
}

// String renders the goods for error messages
func (g *Goods) String() string {
	return fmt.Sprintf("Goods(id=%s, type=%s, quantity=%s, location=%s, state=%s)",
		g.ID, g.TypeID, g.Quantity, g.Location, g.State)
}
