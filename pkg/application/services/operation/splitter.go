package operation

import (
	"context"
	"time"

	"github.com/vsinha/wms/pkg/domain/entities"
	"github.com/vsinha/wms/pkg/domain/repositories"
)

// SplittableOperation is implemented by operations acting on a single goods
// record that may request less than the record's full quantity. The
// SplitEngine drives them and inserts a split predecessor when needed.
type SplittableOperation interface {
	Kind() entities.OperationKind
	CheckCreateConditions(tx repositories.Tx, state entities.OperationState, goods *entities.Goods, req CreateRequest) error
	FindParentOperations(tx repositories.Tx, goods *entities.Goods) ([]entities.OperationID, error)
	AfterInsert(ctx context.Context, tx repositories.Tx, op *entities.Operation) (*entities.Operation, error)

	// ExecutePlannedAfterSplit applies the operation's own effects once the
	// split predecessor, if any, has been executed.
	ExecutePlannedAfterSplit(ctx context.Context, tx repositories.Tx, op *entities.Operation) error
}

// SplitEngine creates and executes splittable operations.
//
// The Partial flag records whether a split was inserted at creation. Once
// the split has run, the input quantity equals the requested one either
// way, so Partial is the only remaining trace of it.
type SplitEngine struct {
	split SplitOperation
	now   func() time.Time
}

// NewSplitEngine creates a split engine using now for done creations without dt_execution
func NewSplitEngine(now func() time.Time) *SplitEngine {
	if now == nil {
		now = time.Now
	}
	return &SplitEngine{now: now}
}

// Create inserts an operation of the given behaviour, preceded by a split
// when the requested quantity is less than the goods quantity.
func (e *SplitEngine) Create(ctx context.Context, tx repositories.Tx, b SplittableOperation, state entities.OperationState, req CreateRequest) (*entities.Operation, error) {
	if err := ForbidFollowsInCreate(b.Kind(), req); err != nil {
		return nil, err
	}
	dt, err := resolveExecutionTime(b.Kind(), state, req.DtExecution, e.now)
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
	if err := requireGoods(b.Kind(), goods); err != nil {
		return nil, err
	}
	quantity, err := requireQuantity(b.Kind(), req)
	if err != nil {
		return nil, err
	}
	if quantity.GreaterThan(goods.Quantity) {
		return nil, entities.NewError(entities.ErrCodeQuantityExceeded,
			"can't %s a greater quantity (%s) than held in %s", b.Kind(), quantity, goods)
	}

	follows, err := b.FindParentOperations(tx, goods)
	if err != nil {
		return nil, err
	}

	partial := quantity.LessThan(goods.Quantity)
	if partial {
		split, err := createBase(ctx, tx, e.split, state, CreateRequest{
			Goods:       goods.ID,
			Quantity:    Qty(quantity),
			DtExecution: dt,
		}, e.now)
		if err != nil {
			return nil, err
		}
		follows = []entities.OperationID{split.ID}
		if goods, err = e.split.Outcome(tx, split); err != nil {
			return nil, err
		}
	}

	op, err := tx.InsertOperation(&entities.Operation{
		Kind:        b.Kind(),
		State:       state,
		DtExecution: dt,
		Follows:     follows,
		Goods:       goods.ID,
		Quantity:    quantity,
		Partial:     partial,
		Destination: req.Destination,
	})
	if err != nil {
		return nil, err
	}
	return b.AfterInsert(ctx, tx, op)
}

// CheckExecuteConditions validates a planned operation before execution.
// A partial operation's goods may still be future (the split completes them
// in the same transaction), so the generic stable-state check is skipped.
func (e *SplitEngine) CheckExecuteConditions(_ context.Context, tx repositories.Tx, op *entities.Operation) error {
	goods, err := tx.GetGoods(op.Goods)
	if err != nil {
		return err
	}
	if !op.Quantity.Equal(goods.Quantity) {
		return entities.NewError(entities.ErrCodeQuantityMismatch,
			"can't execute %s for a different quantity %s than held in %s; "+
				"for lesser quantities, a split should have occurred first", op, op.Quantity, goods)
	}
	if op.Partial {
		return nil
	}
	return checkGoodsStable(tx, op)
}

// ExecutePlanned executes the split predecessor of a partial operation,
// then the operation's own effects.
func (e *SplitEngine) ExecutePlanned(ctx context.Context, tx repositories.Tx, b SplittableOperation, op *entities.Operation) error {
	if op.Partial {
		if len(op.Follows) != 1 {
			return entities.NewError(entities.ErrCodeStateConflict,
				"partial %s must follow exactly one split, got %d predecessors", op, len(op.Follows))
		}
		split, err := tx.GetOperation(op.Follows[0])
		if err != nil {
			return err
		}
		if split.Kind != entities.Split {
			return entities.NewError(entities.ErrCodeStateConflict,
				"partial %s must follow a split, got %s", op, split)
		}
		// the split may already have been executed on its own
		if split.State != entities.Done {
			if _, err := executeBase(ctx, tx, e.split, split, op.DtExecution); err != nil {
				return err
			}
		}
	}
	return b.ExecutePlannedAfterSplit(ctx, tx, op)
}

// Execute runs the planned -> done transition of a splittable operation
func (e *SplitEngine) Execute(ctx context.Context, tx repositories.Tx, b SplittableOperation, op *entities.Operation, dt time.Time) (*entities.Operation, error) {
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
	if err := e.CheckExecuteConditions(ctx, tx, op); err != nil {
		return nil, err
	}
	if err := e.ExecutePlanned(ctx, tx, b, op); err != nil {
		return nil, err
	}
	return markDone(tx, op.ID)
}
