// Package provenance answers read-only questions about where goods came from
// and what a location currently holds.
package provenance

import (
	"context"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/vsinha/wms/pkg/domain/entities"
	"github.com/vsinha/wms/pkg/domain/repositories"
)

// Service runs provenance and stock queries against committed state
type Service struct {
	store repositories.Store
}

// NewService creates a provenance service
func NewService(store repositories.Store) *Service {
	return &Service{store: store}
}

// History returns the operations that led to the goods, newest first.
// The walk starts at the goods' reason and follows predecessors back to
// the arrivals. A past record's reason is the operation that consumed it,
// so its history starts at that consumer rather than at its producer.
func (s *Service) History(ctx context.Context, id entities.GoodsID) ([]*entities.Operation, error) {
	var history []*entities.Operation
	err := s.store.View(ctx, func(v repositories.View) error {
		goods, err := v.GetGoods(id)
		if err != nil {
			return err
		}
		if goods.Reason == "" {
			return nil
		}

		visited := map[entities.OperationID]bool{goods.Reason: true}
		queue := []entities.OperationID{goods.Reason}
		for len(queue) > 0 {
			opID := queue[0]
			queue = queue[1:]
			op, err := v.GetOperation(opID)
			if err != nil {
				return err
			}
			history = append(history, op)
			for _, parent := range op.Follows {
				if !visited[parent] {
					visited[parent] = true
					queue = append(queue, parent)
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	// Breadth-first order already puts descendants first; the stable sort
	// only reorders operations whose execution dates disagree with it.
	sort.SliceStable(history, func(i, j int) bool {
		return history[i].DtExecution.After(history[j].DtExecution)
	})
	return history, nil
}

// QuantityAt sums the quantities of present goods at location.
// An empty typeID counts every type.
func (s *Service) QuantityAt(ctx context.Context, location string, typeID entities.GoodsTypeID) (decimal.Decimal, error) {
	total := decimal.Zero
	err := s.store.View(ctx, func(v repositories.View) error {
		goods, err := v.ListGoods(repositories.GoodsFilter{
			Location: location,
			TypeID:   typeID,
			States:   []entities.GoodsState{entities.Present},
		})
		if err != nil {
			return err
		}
		for _, g := range goods {
			total = total.Add(g.Quantity)
		}
		return nil
	})
	return total, err
}

// StockLine is the present quantity of one goods type at a location
type StockLine struct {
	Location string               `json:"location"`
	TypeID   entities.GoodsTypeID `json:"type"`
	Quantity decimal.Decimal      `json:"quantity"`
}

// Stock returns present quantities per location and type, sorted.
// An empty location covers every location.
func (s *Service) Stock(ctx context.Context, location string) ([]StockLine, error) {
	type key struct {
		location string
		typeID   entities.GoodsTypeID
	}
	totals := make(map[key]decimal.Decimal)
	err := s.store.View(ctx, func(v repositories.View) error {
		goods, err := v.ListGoods(repositories.GoodsFilter{
			Location: location,
			States:   []entities.GoodsState{entities.Present},
		})
		if err != nil {
			return err
		}
		for _, g := range goods {
			k := key{g.Location, g.TypeID}
			totals[k] = totals[k].Add(g.Quantity)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	lines := make([]StockLine, 0, len(totals))
	for k, qty := range totals {
		lines = append(lines, StockLine{Location: k.location, TypeID: k.typeID, Quantity: qty})
	}
	sort.Slice(lines, func(i, j int) bool {
		if lines[i].Location != lines[j].Location {
			return lines[i].Location < lines[j].Location
		}
		return lines[i].TypeID < lines[j].TypeID
	})
	return lines, nil
}
