// Package behaviours loads goods types and their behaviour tables from TOML.
package behaviours

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/shopspring/decimal"

	"github.com/vsinha/wms/pkg/domain/entities"
	"github.com/vsinha/wms/pkg/domain/repositories"
	"github.com/vsinha/wms/pkg/domain/services"
)

// file mirrors the TOML layout:
//
//	[[types]]
//	id = "PACK"
//	code = "PACK"
//
//	[[types.behaviours.unpack.outcomes]]
//	type = "PART"
//	quantity = 4
//	forward_properties = ["batch"]
//	required_properties = ["batch"]
type file struct {
	Types []typeEntry `toml:"types"`
}

type typeEntry struct {
	ID         string         `toml:"id"`
	Code       string         `toml:"code"`
	Label      string         `toml:"label"`
	Behaviours behaviourEntry `toml:"behaviours"`
}

type behaviourEntry struct {
	Unpack *unpackEntry `toml:"unpack"`
}

type unpackEntry struct {
	Outcomes []outcomeEntry `toml:"outcomes"`
}

type outcomeEntry struct {
	Type               string   `toml:"type"`
	Quantity           any      `toml:"quantity"`
	ForwardProperties  []string `toml:"forward_properties"`
	RequiredProperties []string `toml:"required_properties"`
}

// Registry is an immutable set of goods types keyed by identifier.
// Lookups return copies.
type Registry struct {
	types map[entities.GoodsTypeID]*entities.GoodsType
	order []entities.GoodsTypeID
}

// Verify interface compliance
var _ repositories.GoodsTypeRepository = (*Registry)(nil)

// New builds a validated registry from already constructed types
func New(types ...*entities.GoodsType) (*Registry, error) {
	r := &Registry{types: make(map[entities.GoodsTypeID]*entities.GoodsType, len(types))}
	for _, t := range types {
		if t == nil {
			continue
		}
		if _, exists := r.types[t.ID]; exists {
			return nil, fmt.Errorf("duplicate goods type %q", t.ID)
		}
		r.types[t.ID] = t.Clone()
		r.order = append(r.order, t.ID)
	}
	if err := r.Validate(); err != nil {
		return nil, err
	}
	return r, nil
}

// Load reads a TOML behaviour file. An empty path yields an empty registry.
func Load(path string) (*Registry, error) {
	if strings.TrimSpace(path) == "" {
		return New()
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read behaviours: %w", err)
	}
	return Parse(content)
}

// Parse decodes and validates TOML behaviour data
func Parse(content []byte) (*Registry, error) {
	var f file
	if err := toml.Unmarshal(content, &f); err != nil {
		return nil, fmt.Errorf("decode toml: %w", err)
	}

	types := make([]*entities.GoodsType, 0, len(f.Types))
	for i, entry := range f.Types {
		t, err := entry.toGoodsType()
		if err != nil {
			return nil, fmt.Errorf("types[%d]: %w", i, err)
		}
		types = append(types, t)
	}
	return New(types...)
}

func (e typeEntry) toGoodsType() (*entities.GoodsType, error) {
	var b entities.Behaviours
	if e.Behaviours.Unpack != nil {
		spec := &entities.UnpackSpec{}
		for j, o := range e.Behaviours.Unpack.Outcomes {
			qty, err := parseQuantity(o.Quantity)
			if err != nil {
				return nil, fmt.Errorf("unpack outcome %d: %w", j, err)
			}
			spec.Outcomes = append(spec.Outcomes, entities.UnpackOutcome{
				Type:               entities.GoodsTypeID(o.Type),
				Quantity:           qty,
				ForwardProperties:  o.ForwardProperties,
				RequiredProperties: o.RequiredProperties,
			})
		}
		b.Unpack = spec
	}
	code := e.Code
	if code == "" {
		code = e.ID
	}
	return entities.NewGoodsType(entities.GoodsTypeID(e.ID), code, e.Label, b)
}

// parseQuantity accepts TOML integers, floats and decimal strings.
// Strings are preferred for fractional ratios since they stay exact.
func parseQuantity(v any) (decimal.Decimal, error) {
	switch q := v.(type) {
	case nil:
		return decimal.Zero, errors.New("quantity is required")
	case int64:
		return decimal.NewFromInt(q), nil
	case float64:
		return decimal.NewFromFloat(q), nil
	case string:
		d, err := decimal.NewFromString(strings.TrimSpace(q))
		if err != nil {
			return decimal.Zero, fmt.Errorf("invalid quantity %q: %w", q, err)
		}
		return d, nil
	default:
		return decimal.Zero, fmt.Errorf("unsupported quantity type %T", v)
	}
}

// Validate checks that every unpack outcome points to a known type with a
// positive ratio, and that no type can unpack back into itself.
func (r *Registry) Validate() error {
	for _, id := range r.order {
		t := r.types[id]
		for i, o := range t.UnpackOutcomes() {
			if _, ok := r.types[o.Type]; !ok {
				return entities.NewError(entities.ErrCodeInvalidBehaviour,
					"goods type %s: unpack outcome %d refers to unknown type %q", id, i, o.Type)
			}
			if !o.Quantity.IsPositive() {
				return entities.NewError(entities.ErrCodeInvalidBehaviour,
					"goods type %s: unpack outcome %d has non-positive quantity %s", id, i, o.Quantity)
			}
		}
	}
	if result := services.NewUnpackValidator().Validate(r.Types()); result.HasCycles {
		return entities.NewError(entities.ErrCodeInvalidBehaviour, "%s", strings.Join(result.Errors, "; "))
	}
	return nil
}

// GetGoodsType returns a copy of the type with the given identifier
func (r *Registry) GetGoodsType(id entities.GoodsTypeID) (*entities.GoodsType, error) {
	t, ok := r.types[id]
	if !ok {
		return nil, entities.NewError(entities.ErrCodeNotFound, "goods type not found: %s", id)
	}
	return t.Clone(), nil
}

// GoodsTypes resolves ids in one lookup, omitting unknown ones
func (r *Registry) GoodsTypes(ids []entities.GoodsTypeID) (map[entities.GoodsTypeID]*entities.GoodsType, error) {
	out := make(map[entities.GoodsTypeID]*entities.GoodsType, len(ids))
	for _, id := range ids {
		if t, ok := r.types[id]; ok {
			out[id] = t.Clone()
		}
	}
	return out, nil
}

// Types returns all types in declaration order
func (r *Registry) Types() []*entities.GoodsType {
	out := make([]*entities.GoodsType, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.types[id].Clone())
	}
	return out
}

// IDs returns the sorted type identifiers
func (r *Registry) IDs() []entities.GoodsTypeID {
	ids := append([]entities.GoodsTypeID(nil), r.order...)
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Len returns the number of registered types
func (r *Registry) Len() int { return len(r.order) }
