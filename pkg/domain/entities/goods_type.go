package entities

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// GoodsTypeID identifies a goods type
type GoodsTypeID string

// UnpackBehaviour is the behaviour name looked up on goods types by Unpack operations
const UnpackBehaviour = "unpack"

// UnpackOutcome describes one goods record produced by unpacking a single unit
type UnpackOutcome struct {
	Type               GoodsTypeID     `json:"type"`
	Quantity           decimal.Decimal `json:"quantity"`
	ForwardProperties  []string        `json:"forward_properties,omitempty"`
	RequiredProperties []string        `json:"required_properties,omitempty"`
}

// IsRequired reports whether name appears in RequiredProperties
func (o UnpackOutcome) IsRequired(name string) bool {
	for _, p := range o.RequiredProperties {
		if p == name {
			return true
		}
	}
	return false
}

// UnpackSpec lists the outcomes of an unpack, in order
type UnpackSpec struct {
	Outcomes []UnpackOutcome `json:"outcomes,omitempty"`
}

// Behaviours holds the declarative behaviour data of a goods type
type Behaviours struct {
	Unpack *UnpackSpec `json:"unpack,omitempty"`
}

// GoodsType represents a type of goods with its behaviour data
type GoodsType struct {
	ID         GoodsTypeID `json:"id"`
	Code       string      `json:"code"`
	Label      string      `json:"label,omitempty"`
	Behaviours Behaviours  `json:"behaviours"`
}

// NewGoodsType creates a validated GoodsType
func NewGoodsType(id GoodsTypeID, code, label string, behaviours Behaviours) (*GoodsType, error) {
	if string(id) == "" {
		return nil, fmt.Errorf("goods type id cannot be empty")
	}
	if code == "" {
		return nil, fmt.Errorf("goods type code cannot be empty")
	}

	return &GoodsType{
		ID:         id,
		Code:       code,
		Label:      label,
		Behaviours: behaviours,
	}, nil
}

// HasBehaviour reports whether the type declares the named behaviour
func (t *GoodsType) HasBehaviour(name string) bool {
	if t == nil {
		return false
	}
	switch name {
	case UnpackBehaviour:
		return t.Behaviours.Unpack != nil
	default:
		return false
	}
}

// UnpackOutcomes returns the declared unpack outcomes, nil when there are none
func (t *GoodsType) UnpackOutcomes() []UnpackOutcome {
	if t == nil || t.Behaviours.Unpack == nil {
		return nil
	}
	return t.Behaviours.Unpack.Outcomes
}

// String renders the type for error messages
func (t *GoodsType) String() string {
	return fmt.Sprintf("GoodsType(id=%s, code=%s)", t.ID, t.Code)
}

// Clone returns a deep copy of the type, behaviour tables included
func (t *GoodsType) Clone() *GoodsType {
	if t == nil {
		return nil
	}
	c := *t
	if t.Behaviours.Unpack != nil {
		outcomes := make([]UnpackOutcome, len(t.Behaviours.Unpack.Outcomes))
		for i, o := range t.Behaviours.Unpack.Outcomes {
			o.ForwardProperties = append([]string(nil), o.ForwardProperties...)
			o.RequiredProperties = append([]string(nil), o.RequiredProperties...)
			outcomes[i] = o
		}
		c.Behaviours.Unpack = &UnpackSpec{Outcomes: outcomes}
	}
	return &c
}
