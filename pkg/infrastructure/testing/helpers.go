package testing

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vsinha/wms/pkg/domain/entities"
	"github.com/vsinha/wms/pkg/domain/repositories"
	"github.com/vsinha/wms/pkg/infrastructure/behaviours"
	"github.com/vsinha/wms/pkg/infrastructure/repositories/memory"
)

// Goods types of the packs scenario
const (
	TypeBox   entities.GoodsTypeID = "BOX"   // unpacks into 2 X and 3 Y per unit
	TypeCrate entities.GoodsTypeID = "CRATE" // unpacks into 1 X forwarding [a, c], a required
	TypeEmpty entities.GoodsTypeID = "EMPTY" // declares unpack with no outcomes
	TypeX     entities.GoodsTypeID = "X"
	TypeY     entities.GoodsTypeID = "Y"
	TypePlain entities.GoodsTypeID = "PLAIN" // no behaviour at all
)

// Epoch is the fixed clock used by fixtures
var Epoch = time.Date(2026, time.January, 5, 9, 0, 0, 0, time.UTC)

// Clock returns a time source frozen at Epoch
func Clock() func() time.Time {
	return func() time.Time { return Epoch }
}

// BuildPackTypes builds the goods types of the packs scenario
func BuildPackTypes() *behaviours.Registry {
	types := []*entities.GoodsType{
		mustType(TypeBox, entities.Behaviours{Unpack: &entities.UnpackSpec{Outcomes: []entities.UnpackOutcome{
			{Type: TypeX, Quantity: decimal.NewFromInt(2)},
			{Type: TypeY, Quantity: decimal.NewFromInt(3)},
		}}}),
		mustType(TypeCrate, entities.Behaviours{Unpack: &entities.UnpackSpec{Outcomes: []entities.UnpackOutcome{
			{
				Type:               TypeX,
				Quantity:           decimal.NewFromInt(1),
				ForwardProperties:  []string{"a", "c"},
				RequiredProperties: []string{"a"},
			},
		}}}),
		mustType(TypeEmpty, entities.Behaviours{Unpack: &entities.UnpackSpec{}}),
		mustType(TypeX, entities.Behaviours{}),
		mustType(TypeY, entities.Behaviours{}),
		mustType(TypePlain, entities.Behaviours{}),
	}
	registry, err := behaviours.New(types...)
	if err != nil {
		panic(err)
	}
	return registry
}

// BuildStore builds an in-memory store knowing the packs scenario types
func BuildStore(opts ...memory.Option) *memory.Store {
	return memory.NewStore(BuildPackTypes(), opts...)
}

// SeedGoods inserts present goods together with the done arrival they come
// from, bypassing operation checks.
func SeedGoods(store repositories.Store, typeID entities.GoodsTypeID, location string, quantity int64, props map[string]any) *entities.Goods {
	var goods *entities.Goods
	err := store.RunInTransaction(context.Background(), func(tx repositories.Tx) error {
		arrival, err := tx.InsertOperation(&entities.Operation{
			Kind:        entities.Arrival,
			State:       entities.Done,
			DtExecution: Epoch,
			Quantity:    decimal.NewFromInt(quantity),
		})
		if err != nil {
			return err
		}
		g, err := entities.NewGoods(typeID, location, decimal.NewFromInt(quantity), entities.Present)
		if err != nil {
			return err
		}
		g.Reason = arrival.ID
		if len(props) > 0 {
			if g.Properties, err = tx.InsertProperties(&entities.Properties{Flexible: props}); err != nil {
				return err
			}
		}
		if goods, err = tx.InsertGoods(g); err != nil {
			return err
		}
		_, err = tx.UpdateOperation(arrival.ID, func(o *entities.Operation) error {
			o.Goods = goods.ID
			o.Outcomes = []entities.GoodsID{goods.ID}
			return nil
		})
		return err
	})
	if err != nil {
		panic(err)
	}
	return goods
}

func mustType(id entities.GoodsTypeID, b entities.Behaviours) *entities.GoodsType {
	t, err := entities.NewGoodsType(id, string(id), "", b)
	if err != nil {
		panic(err)
	}
	return t
}
