package operation

import (
	"context"

	"github.com/vsinha/wms/pkg/domain/entities"
	"github.com/vsinha/wms/pkg/domain/repositories"
)

// MoveOperation relocates goods to a destination. The moved goods are a new
// record at the destination; the original record becomes past.
type MoveOperation struct{}

// Verify interface compliance
var _ SplittableOperation = MoveOperation{}

func (MoveOperation) Kind() entities.OperationKind { return entities.Move }

func (m MoveOperation) CheckCreateConditions(_ repositories.Tx, state entities.OperationState, goods *entities.Goods, req CreateRequest) error {
	if err := requireGoods(m.Kind(), goods); err != nil {
		return err
	}
	if _, err := requireQuantity(m.Kind(), req); err != nil {
		return err
	}
	if req.Destination == "" {
		return entities.NewError(entities.ErrCodeCreationArgument, "'destination' must be passed to move creation")
	}
	if goods.State == entities.Past {
		return entities.NewError(entities.ErrCodeStateConflict, "can't move %s: they are past", goods)
	}
	if state == entities.Done && goods.State != entities.Present {
		return entities.NewError(entities.ErrCodeStateConflict,
			"can't create a move in state %q for %s because of their state", state, goods)
	}
	return nil
}

func (MoveOperation) FindParentOperations(_ repositories.Tx, goods *entities.Goods) ([]entities.OperationID, error) {
	return parentOf(goods), nil
}

func (MoveOperation) AfterInsert(_ context.Context, tx repositories.Tx, op *entities.Operation) (*entities.Operation, error) {
	goods, err := tx.GetGoods(op.Goods)
	if err != nil {
		return nil, err
	}
	moved := goods.Clone()
	moved.ID = ""
	moved.Location = op.Destination
	moved.State = stateForProduced(op.State)
	moved.Reason = op.ID
	if moved, err = tx.InsertGoods(moved); err != nil {
		return nil, err
	}
	if op.State == entities.Done {
		if err := consume(tx, goods.ID, op.ID); err != nil {
			return nil, err
		}
	}
	return tx.UpdateOperation(op.ID, func(o *entities.Operation) error {
		o.Outcomes = []entities.GoodsID{moved.ID}
		return nil
	})
}

func (MoveOperation) ExecutePlannedAfterSplit(_ context.Context, tx repositories.Tx, op *entities.Operation) error {
	if err := consume(tx, op.Goods, op.ID); err != nil {
		return err
	}
	return reveal(tx, op.Outcomes)
}
