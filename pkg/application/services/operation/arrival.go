package operation

import (
	"context"

	"github.com/vsinha/wms/pkg/domain/entities"
	"github.com/vsinha/wms/pkg/domain/repositories"
)

// ArrivalOperation brings new goods into the system. It has no
// predecessors and is the root of every provenance chain.
type ArrivalOperation struct {
	properties map[string]any
	typeID     entities.GoodsTypeID
	location   string
}

// Verify interface compliance
var _ Behaviour = (*ArrivalOperation)(nil)

func (*ArrivalOperation) Kind() entities.OperationKind { return entities.Arrival }

func (a *ArrivalOperation) CheckCreateConditions(tx repositories.Tx, _ entities.OperationState, goods *entities.Goods, req CreateRequest) error {
	if goods != nil {
		return entities.NewError(entities.ErrCodeCreationArgument, "arrival creation does not take input goods")
	}
	if _, err := requireQuantity(a.Kind(), req); err != nil {
		return err
	}
	if req.Location == "" {
		return entities.NewError(entities.ErrCodeCreationArgument, "'location' must be passed to arrival creation")
	}
	if _, err := tx.GetGoodsType(req.TypeID); err != nil {
		return err
	}
	a.typeID = req.TypeID
	a.location = req.Location
	a.properties = req.Properties
	return nil
}

func (*ArrivalOperation) FindParentOperations(repositories.Tx, *entities.Goods) ([]entities.OperationID, error) {
	return nil, nil
}

func (a *ArrivalOperation) AfterInsert(_ context.Context, tx repositories.Tx, op *entities.Operation) (*entities.Operation, error) {
	goods, err := entities.NewGoods(a.typeID, a.location, op.Quantity, stateForProduced(op.State))
	if err != nil {
		return nil, entities.WrapError(entities.ErrCodeCreationArgument, "invalid arrival", err)
	}
	goods.Reason = op.ID
	if len(a.properties) > 0 {
		if goods.Properties, err = tx.InsertProperties(&entities.Properties{Flexible: a.properties}); err != nil {
			return nil, err
		}
	}
	if goods, err = tx.InsertGoods(goods); err != nil {
		return nil, err
	}
	return tx.UpdateOperation(op.ID, func(o *entities.Operation) error {
		o.Goods = goods.ID
		o.Outcomes = []entities.GoodsID{goods.ID}
		return nil
	})
}

func (*ArrivalOperation) CheckExecuteConditions(_ context.Context, tx repositories.Tx, op *entities.Operation) error {
	goods, err := tx.GetGoods(op.Goods)
	if err != nil {
		return err
	}
	if goods.State != entities.Future {
		return entities.NewError(entities.ErrCodeStateConflict,
			"can't execute %s: arrived goods %s are not future", op, goods)
	}
	return nil
}

func (*ArrivalOperation) ExecutePlanned(_ context.Context, tx repositories.Tx, op *entities.Operation) error {
	return reveal(tx, op.Outcomes)
}
