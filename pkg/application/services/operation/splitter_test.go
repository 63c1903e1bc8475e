package operation

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vsinha/wms/pkg/domain/entities"
	"github.com/vsinha/wms/pkg/domain/repositories"
	testhelpers "github.com/vsinha/wms/pkg/infrastructure/testing"
)

func TestSplitEngine_PartialDoneMoveInsertsSplit(t *testing.T) {
	svc, store := newTestService(t)
	goods := testhelpers.SeedGoods(store, testhelpers.TypeBox, "dock", 10, nil)

	move, err := svc.Move(context.Background(), entities.Done, CreateRequest{
		Goods:       goods.ID,
		Quantity:    qty(4),
		Destination: "shelf",
	})
	require.NoError(t, err)

	assert.True(t, move.Partial)
	require.Len(t, move.Follows, 1)
	split := getOperation(t, store, move.Follows[0])
	assert.Equal(t, entities.Split, split.Kind)
	assert.Equal(t, entities.Done, split.State)
	assert.Equal(t, move.DtExecution, split.DtExecution)
	assert.Equal(t, []entities.OperationID{goods.Reason}, split.Follows)

	// the move's effective input holds exactly the requested quantity
	input := getGoods(t, store, move.Goods)
	assertQuantity(t, 4, input.Quantity)
	assert.Equal(t, split.Outcomes[0], input.ID)
	assert.Equal(t, entities.Past, input.State)
	assert.Equal(t, move.ID, input.Reason)

	remainder := getGoods(t, store, split.Outcomes[1])
	assertQuantity(t, 6, remainder.Quantity)
	assert.Equal(t, entities.Present, remainder.State)
	assert.Equal(t, "dock", remainder.Location)
	assert.Equal(t, split.ID, remainder.Reason)

	original := getGoods(t, store, goods.ID)
	assert.Equal(t, entities.Past, original.State)
	assert.Equal(t, split.ID, original.Reason)

	require.Len(t, move.Outcomes, 1)
	moved := getGoods(t, store, move.Outcomes[0])
	assertQuantity(t, 4, moved.Quantity)
	assert.Equal(t, "shelf", moved.Location)
	assert.Equal(t, entities.Present, moved.State)
	assert.Equal(t, move.ID, moved.Reason)
}

func TestSplitEngine_FullQuantityDoesNotSplit(t *testing.T) {
	svc, store := newTestService(t)
	goods := testhelpers.SeedGoods(store, testhelpers.TypeBox, "dock", 10, nil)

	move, err := svc.Move(context.Background(), entities.Done, CreateRequest{
		Goods:       goods.ID,
		Quantity:    qty(10),
		Destination: "shelf",
	})
	require.NoError(t, err)

	assert.False(t, move.Partial)
	assert.Equal(t, []entities.OperationID{goods.Reason}, move.Follows)
	assert.Equal(t, goods.ID, move.Goods)
	assert.Zero(t, countKind(listOperations(t, store), entities.Split))
}

func TestSplitEngine_OverQuantityRejectedWithoutMutation(t *testing.T) {
	for _, kind := range []entities.OperationKind{entities.Move, entities.Unpack} {
		t.Run(kind.String(), func(t *testing.T) {
			svc, store := newTestService(t)
			goods := testhelpers.SeedGoods(store, testhelpers.TypeBox, "dock", 10, nil)
			before := store.ExportState()

			_, err := svc.Create(context.Background(), kind, entities.Done, CreateRequest{
				Goods:       goods.ID,
				Quantity:    qty(11),
				Destination: "shelf",
			})
			requireKind(t, err, entities.ErrCodeQuantityExceeded)
			requireUnchanged(t, store, before)
		})
	}
}

func TestSplitEngine_CreationArguments(t *testing.T) {
	tests := []struct {
		name  string
		state entities.OperationState
		req   func(goods entities.GoodsID) CreateRequest
	}{
		{
			name:  "explicit follows",
			state: entities.Done,
			req: func(g entities.GoodsID) CreateRequest {
				return CreateRequest{Goods: g, Quantity: qty(1), Destination: "shelf", Follows: []entities.OperationID{"x"}}
			},
		},
		{
			name:  "planned without dt_execution",
			state: entities.Planned,
			req: func(g entities.GoodsID) CreateRequest {
				return CreateRequest{Goods: g, Quantity: qty(1), Destination: "shelf"}
			},
		},
		{
			name:  "missing quantity",
			state: entities.Done,
			req: func(g entities.GoodsID) CreateRequest {
				return CreateRequest{Goods: g, Destination: "shelf"}
			},
		},
		{
			name:  "zero quantity",
			state: entities.Done,
			req: func(g entities.GoodsID) CreateRequest {
				return CreateRequest{Goods: g, Quantity: qty(0), Destination: "shelf"}
			},
		},
		{
			name:  "missing goods",
			state: entities.Done,
			req: func(entities.GoodsID) CreateRequest {
				return CreateRequest{Quantity: qty(1), Destination: "shelf"}
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, store := newTestService(t)
			goods := testhelpers.SeedGoods(store, testhelpers.TypeBox, "dock", 10, nil)
			before := store.ExportState()

			_, err := svc.Move(context.Background(), tt.state, tt.req(goods.ID))
			requireKind(t, err, entities.ErrCodeCreationArgument)
			requireUnchanged(t, store, before)
		})
	}
}

func TestSplitEngine_PlannedPartialMoveThenExecute(t *testing.T) {
	svc, store := newTestService(t)
	goods := testhelpers.SeedGoods(store, testhelpers.TypeBox, "dock", 10, nil)
	dt := later(2)

	move, err := svc.Move(context.Background(), entities.Planned, CreateRequest{
		Goods:       goods.ID,
		Quantity:    qty(4),
		DtExecution: dt,
		Destination: "shelf",
	})
	require.NoError(t, err)
	require.True(t, move.Partial)

	split := getOperation(t, store, move.Follows[0])
	assert.Equal(t, entities.Planned, split.State)
	assert.Equal(t, entities.Present, getGoods(t, store, goods.ID).State, "input untouched until execution")
	assert.Equal(t, entities.Future, getGoods(t, store, move.Goods).State)
	assert.Equal(t, entities.Future, getGoods(t, store, split.Outcomes[1]).State)
	assert.Equal(t, entities.Future, getGoods(t, store, move.Outcomes[0]).State)

	executedAt := later(3)
	done, err := svc.Execute(context.Background(), move.ID, executedAt)
	require.NoError(t, err)
	assert.Equal(t, entities.Done, done.State)
	assert.Equal(t, executedAt, done.DtExecution)

	split = getOperation(t, store, move.Follows[0])
	assert.Equal(t, entities.Done, split.State)
	assert.Equal(t, executedAt, split.DtExecution, "split runs with the dependent operation's dt")
	assert.Equal(t, entities.Past, getGoods(t, store, goods.ID).State)
	assert.Equal(t, entities.Past, getGoods(t, store, move.Goods).State)
	assert.Equal(t, entities.Present, getGoods(t, store, split.Outcomes[1]).State)
	moved := getGoods(t, store, move.Outcomes[0])
	assert.Equal(t, entities.Present, moved.State)
	assert.Equal(t, "shelf", moved.Location)
}

func TestSplitEngine_SplitExecutedBeforeDependentMove(t *testing.T) {
	svc, store := newTestService(t)
	goods := testhelpers.SeedGoods(store, testhelpers.TypeBox, "dock", 10, nil)

	move, err := svc.Move(context.Background(), entities.Planned, CreateRequest{
		Goods:       goods.ID,
		Quantity:    qty(3),
		DtExecution: later(2),
		Destination: "shelf",
	})
	require.NoError(t, err)
	require.True(t, move.Partial)

	split, err := svc.Execute(context.Background(), move.Follows[0], later(1))
	require.NoError(t, err)
	assert.Equal(t, entities.Done, split.State)
	assert.Equal(t, entities.Present, getGoods(t, store, move.Goods).State)

	done, err := svc.Execute(context.Background(), move.ID, later(3))
	require.NoError(t, err)
	assert.Equal(t, entities.Done, done.State)

	split = getOperation(t, store, move.Follows[0])
	assert.Equal(t, later(1), split.DtExecution, "split keeps its own execution date")
	assert.Equal(t, entities.Past, getGoods(t, store, move.Goods).State)
	moved := getGoods(t, store, move.Outcomes[0])
	assert.Equal(t, entities.Present, moved.State)
	assert.Equal(t, "shelf", moved.Location)
	assertQuantity(t, 3, moved.Quantity)
}

// recordingMove records the state of its input when its own effects start.
type recordingMove struct {
	MoveOperation
	seen *entities.Goods
}

func (p *recordingMove) ExecutePlannedAfterSplit(ctx context.Context, tx repositories.Tx, op *entities.Operation) error {
	g, err := tx.GetGoods(op.Goods)
	if err != nil {
		return err
	}
	p.seen = g
	return p.MoveOperation.ExecutePlannedAfterSplit(ctx, tx, op)
}

func TestSplitEngine_SplitCompletesBeforeDependentEffects(t *testing.T) {
	store := testhelpers.BuildStore()
	goods := testhelpers.SeedGoods(store, testhelpers.TypeBox, "dock", 10, nil)
	engine := NewSplitEngine(testhelpers.Clock())
	rec := &recordingMove{}

	var op *entities.Operation
	require.NoError(t, store.RunInTransaction(context.Background(), func(tx repositories.Tx) error {
		var err error
		op, err = engine.Create(context.Background(), tx, rec, entities.Planned, CreateRequest{
			Goods:       goods.ID,
			Quantity:    qty(3),
			DtExecution: later(1),
			Destination: "shelf",
		})
		return err
	}))
	require.NoError(t, store.RunInTransaction(context.Background(), func(tx repositories.Tx) error {
		_, err := engine.Execute(context.Background(), tx, rec, op, later(1))
		return err
	}))

	require.NotNil(t, rec.seen)
	assert.Equal(t, entities.Present, rec.seen.State, "split outcome must be present before the move's own effects")
	assertQuantity(t, 3, rec.seen.Quantity)
}

func TestSplitEngine_ExecuteQuantityMismatch(t *testing.T) {
	svc, store := newTestService(t)
	goods := testhelpers.SeedGoods(store, testhelpers.TypeBox, "dock", 10, nil)

	move, err := svc.Move(context.Background(), entities.Planned, CreateRequest{
		Goods:       goods.ID,
		Quantity:    qty(10),
		DtExecution: later(1),
		Destination: "shelf",
	})
	require.NoError(t, err)

	require.NoError(t, store.RunInTransaction(context.Background(), func(tx repositories.Tx) error {
		_, err := tx.UpdateGoods(goods.ID, func(g *entities.Goods) error {
			g.Quantity = g.Quantity.Sub(qty(2).Decimal)
			return nil
		})
		return err
	}))
	before := store.ExportState()

	_, err = svc.Execute(context.Background(), move.ID, later(1))
	requireKind(t, err, entities.ErrCodeQuantityMismatch)
	requireUnchanged(t, store, before)
}

func TestSplitEngine_ExecuteRequiresPlanned(t *testing.T) {
	svc, store := newTestService(t)
	goods := testhelpers.SeedGoods(store, testhelpers.TypeBox, "dock", 10, nil)

	move, err := svc.Move(context.Background(), entities.Done, CreateRequest{
		Goods:       goods.ID,
		Quantity:    qty(4),
		Destination: "shelf",
	})
	require.NoError(t, err)

	_, err = svc.Execute(context.Background(), move.ID, later(1))
	requireKind(t, err, entities.ErrCodeStateConflict)
}

func TestSplitEngine_NonPartialExecuteRequiresStableGoods(t *testing.T) {
	svc, store := newTestService(t)
	arrival, err := svc.Arrive(context.Background(), entities.Planned, CreateRequest{
		TypeID:      testhelpers.TypeBox,
		Location:    "dock",
		Quantity:    qty(5),
		DtExecution: later(1),
	})
	require.NoError(t, err)

	move, err := svc.Move(context.Background(), entities.Planned, CreateRequest{
		Goods:       arrival.Goods,
		Quantity:    qty(5),
		DtExecution: later(2),
		Destination: "shelf",
	})
	require.NoError(t, err)
	assert.Equal(t, []entities.OperationID{arrival.ID}, move.Follows)

	_, err = svc.Execute(context.Background(), move.ID, later(2))
	requireKind(t, err, entities.ErrCodeStateConflict)

	_, err = svc.Execute(context.Background(), arrival.ID, later(1))
	require.NoError(t, err)
	_, err = svc.Execute(context.Background(), move.ID, later(2))
	require.NoError(t, err)
	assert.Equal(t, entities.Present, getGoods(t, store, move.Outcomes[0]).State)
}
