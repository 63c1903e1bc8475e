package operation

import (
	"context"

	"github.com/vsinha/wms/pkg/domain/entities"
	"github.com/vsinha/wms/pkg/domain/repositories"
)

// SplitOperation divides a goods record in two: an outcome holding exactly
// the requested quantity and the remainder. Both carry the split as reason.
//
// Created done, the input goods become past at once. Created planned, both
// new records are future and the input stays untouched until execution.
type SplitOperation struct{}

// Verify interface compliance
var _ Behaviour = SplitOperation{}

func (SplitOperation) Kind() entities.OperationKind { return entities.Split }

func (s SplitOperation) CheckCreateConditions(tx repositories.Tx, state entities.OperationState, goods *entities.Goods, req CreateRequest) error {
	if err := requireGoods(s.Kind(), goods); err != nil {
		return err
	}
	qty, err := requireQuantity(s.Kind(), req)
	if err != nil {
		return err
	}
	if state == entities.Done && goods.State != entities.Present {
		return entities.NewError(entities.ErrCodeStateConflict,
			"can't create a split in state %q for %s because of their state", state, goods)
	}
	if goods.State == entities.Past {
		return entities.NewError(entities.ErrCodeStateConflict, "can't split %s: they are past", goods)
	}
	if qty.GreaterThan(goods.Quantity) {
		return entities.NewError(entities.ErrCodeQuantityExceeded,
			"can't split a greater quantity (%s) than held in %s", qty, goods)
	}
	if qty.Equal(goods.Quantity) {
		return entities.NewError(entities.ErrCodeCreationArgument,
			"can't split %s at their full quantity %s: nothing would remain", goods, qty)
	}
	return nil
}

func (SplitOperation) FindParentOperations(_ repositories.Tx, goods *entities.Goods) ([]entities.OperationID, error) {
	return parentOf(goods), nil
}

func (SplitOperation) AfterInsert(_ context.Context, tx repositories.Tx, op *entities.Operation) (*entities.Operation, error) {
	goods, err := tx.GetGoods(op.Goods)
	if err != nil {
		return nil, err
	}
	produced := stateForProduced(op.State)

	outcome := goods.Clone()
	outcome.ID = ""
	outcome.Quantity = op.Quantity
	outcome.State = produced
	outcome.Reason = op.ID

	remainder := goods.Clone()
	remainder.ID = ""
	remainder.Quantity = goods.Quantity.Sub(op.Quantity)
	remainder.State = produced
	remainder.Reason = op.ID

	if outcome, err = tx.InsertGoods(outcome); err != nil {
		return nil, err
	}
	if remainder, err = tx.InsertGoods(remainder); err != nil {
		return nil, err
	}
	if op.State == entities.Done {
		if err := consume(tx, goods.ID, op.ID); err != nil {
			return nil, err
		}
	}
	return tx.UpdateOperation(op.ID, func(o *entities.Operation) error {
		o.Outcomes = []entities.GoodsID{outcome.ID, remainder.ID}
		return nil
	})
}

func (SplitOperation) CheckExecuteConditions(_ context.Context, tx repositories.Tx, op *entities.Operation) error {
	return checkGoodsStable(tx, op)
}

func (SplitOperation) ExecutePlanned(_ context.Context, tx repositories.Tx, op *entities.Operation) error {
	if err := consume(tx, op.Goods, op.ID); err != nil {
		return err
	}
	return reveal(tx, op.Outcomes)
}

// Outcome returns the record holding exactly the split quantity
func (SplitOperation) Outcome(tx repositories.Tx, op *entities.Operation) (*entities.Goods, error) {
	if op.Kind != entities.Split || len(op.Outcomes) == 0 {
		return nil, entities.NewError(entities.ErrCodeNotFound, "%s has no split outcome", op)
	}
	return tx.GetGoods(op.Outcomes[0])
}

// consume turns goods past, recording the consuming operation as reason
func consume(tx repositories.Tx, id entities.GoodsID, by entities.OperationID) error {
	_, err := tx.UpdateGoods(id, func(g *entities.Goods) error {
		g.State = entities.Past
		g.Reason = by
		return nil
	})
	return err
}

// reveal turns future goods present
func reveal(tx repositories.Tx, ids []entities.GoodsID) error {
	for _, id := range ids {
		if _, err := tx.UpdateGoods(id, func(g *entities.Goods) error {
			g.State = entities.Present
			return nil
		}); err != nil {
			return err
		}
	}
	return nil
}
