package operation

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vsinha/wms/pkg/domain/entities"
	"github.com/vsinha/wms/pkg/domain/repositories"
)

// CreateRequest carries the arguments of an operation creation.
// Fields irrelevant to a given kind are ignored by it.
type CreateRequest struct {
	Goods       entities.GoodsID
	Quantity    decimal.NullDecimal
	DtExecution time.Time

	// Follows must stay empty for operations whose predecessors are derived
	// from their input goods.
	Follows []entities.OperationID

	Destination string

	// Arrival only
	TypeID     entities.GoodsTypeID
	Location   string
	Properties map[string]any
}

// Qty wraps a decimal as a supplied request quantity
func Qty(d decimal.Decimal) decimal.NullDecimal {
	return decimal.NewNullDecimal(d)
}

// Behaviour is the set of hooks the generic lifecycle invokes for an
// operation kind that never splits its input.
type Behaviour interface {
	Kind() entities.OperationKind
	CheckCreateConditions(tx repositories.Tx, state entities.OperationState, goods *entities.Goods, req CreateRequest) error
	FindParentOperations(tx repositories.Tx, goods *entities.Goods) ([]entities.OperationID, error)
	AfterInsert(ctx context.Context, tx repositories.Tx, op *entities.Operation) (*entities.Operation, error)
	CheckExecuteConditions(ctx context.Context, tx repositories.Tx, op *entities.Operation) error
	ExecutePlanned(ctx context.Context, tx repositories.Tx, op *entities.Operation) error
}

// ForbidFollowsInCreate rejects explicit predecessors on creation: they are
// always resolved from the input goods.
func ForbidFollowsInCreate(kind entities.OperationKind, req CreateRequest) error {
	if len(req.Follows) > 0 {
		return entities.NewError(entities.ErrCodeCreationArgument,
			"%s creation does not accept explicit follows (got %d); they are derived from the goods", kind, len(req.Follows))
	}
	return nil
}

// resolveExecutionTime applies the dt_execution rule shared by every kind:
// only a creation directly in the done state may default to now.
func resolveExecutionTime(kind entities.OperationKind, state entities.OperationState, dt time.Time, now func() time.Time) (time.Time, error) {
	if !dt.IsZero() {
		return dt, nil
	}
	if state == entities.Done {
		return now(), nil
	}
	return time.Time{}, entities.NewError(entities.ErrCodeCreationArgument,
		"creation of %s in state %q requires dt_execution (date and time when it's supposed to be done)", kind, state)
}

// loadGoods fetches the request's input goods, returning nil when none was named
func loadGoods(tx repositories.Tx, id entities.GoodsID) (*entities.Goods, error) {
	if id == "" {
		return nil, nil
	}
	return tx.GetGoods(id)
}

// createBase is the plain creation path: check, resolve parents, insert, hook.
func createBase(ctx context.Context, tx repositories.Tx, b Behaviour, state entities.OperationState, req CreateRequest, now func() time.Time) (*entities.Operation, error) {
	if err := ForbidFollowsInCreate(b.Kind(), req); err != nil {
		return nil, err
	}
	dt, err := resolveExecutionTime(b.Kind(), state, req.DtExecution, now)
	if err != nil {
		return nil, err
	}
	goods, err := loadGoods(tx, req.Goods)
	if err != nil {
		return nil, err
	}
	if err := b.CheckCreateConditions(tx, state, goods, req); err != nil {
		return nil, err
	}
	follows, err := b.FindParentOperations(tx, goods)
	if err != nil {
		return nil, err
	}

	op := &entities.Operation{
		Kind:        b.Kind(),
		State:       state,
		DtExecution: dt,
		Follows:     follows,
		Quantity:    req.Quantity.Decimal,
		Destination: req.Destination,
	}
	if goods != nil {
		op.Goods = goods.ID
	}
	op, err = tx.InsertOperation(op)
	if err != nil {
		return nil, err
	}
	return b.AfterInsert(ctx, tx, op)
}

// executeBase runs the planned -> done transition of a non-splitting operation.
func executeBase(ctx context.Context, tx repositories.Tx, b Behaviour, op *entities.Operation, dt time.Time) (*entities.Operation, error) {
	if err := checkPlanned(op); err != nil {
		return nil, err
	}
	op, err := tx.UpdateOperation(op.ID, func(o *entities.Operation) error {
		o.DtExecution = dt
		return nil
	})
	if err != nil {
		return nil, err
	}
	if err := b.CheckExecuteConditions(ctx, tx, op); err != nil {
		return nil, err
	}
	if err := b.ExecutePlanned(ctx, tx, op); err != nil {
		return nil, err
	}
	return markDone(tx, op.ID)
}

func checkPlanned(op *entities.Operation) error {
	if op.State != entities.Planned {
		return entities.NewError(entities.ErrCodeStateConflict,
			"can't execute %s: it is in state %q, not %q", op, op.State, entities.Planned)
	}
	return nil
}

func markDone(tx repositories.Tx, id entities.OperationID) (*entities.Operation, error) {
	return tx.UpdateOperation(id, func(o *entities.Operation) error {
		o.State = entities.Done
		return nil
	})
}

// checkGoodsStable is the generic execution precondition: the input goods
// must be present.
func checkGoodsStable(tx repositories.Tx, op *entities.Operation) error {
	goods, err := tx.GetGoods(op.Goods)
	if err != nil {
		return err
	}
	if goods.State != entities.Present {
		return entities.NewError(entities.ErrCodeStateConflict,
			"can't execute %s: its goods %s are not present", op, goods)
	}
	return nil
}

// requireQuantity validates a supplied, positive request quantity
func requireQuantity(kind entities.OperationKind, req CreateRequest) (decimal.Decimal, error) {
	if !req.Quantity.Valid {
		return decimal.Zero, entities.NewError(entities.ErrCodeCreationArgument,
			"'quantity' must be passed to %s creation", kind)
	}
	if !req.Quantity.Decimal.IsPositive() {
		return decimal.Zero, entities.NewError(entities.ErrCodeCreationArgument,
			"%s quantity must be positive, got %s", kind, req.Quantity.Decimal)
	}
	return req.Quantity.Decimal, nil
}

// requireGoods validates that an input goods record was supplied
func requireGoods(kind entities.OperationKind, goods *entities.Goods) error {
	if goods == nil {
		return entities.NewError(entities.ErrCodeCreationArgument,
			"'goods' must be passed to %s creation", kind)
	}
	return nil
}

// parentOf returns the goods' reason as sole predecessor, if any
func parentOf(goods *entities.Goods) []entities.OperationID {
	if goods.Reason == "" {
		return nil
	}
	return []entities.OperationID{goods.Reason}
}

// stateForProduced maps an operation state to the state of goods it produces
func stateForProduced(state entities.OperationState) entities.GoodsState {
	if state == entities.Done {
		return entities.Present
	}
	return entities.Future
}
