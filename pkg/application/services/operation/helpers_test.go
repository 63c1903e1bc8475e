package operation

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/vsinha/wms/pkg/domain/entities"
	"github.com/vsinha/wms/pkg/domain/repositories"
	"github.com/vsinha/wms/pkg/infrastructure/repositories/memory"
	testhelpers "github.com/vsinha/wms/pkg/infrastructure/testing"
)

func newTestService(t *testing.T, opts ...Option) (*Service, *memory.Store) {
	t.Helper()
	store := testhelpers.BuildStore()
	opts = append([]Option{WithClock(testhelpers.Clock())}, opts...)
	return NewService(store, opts...), store
}

func qty(n int64) decimal.NullDecimal {
	return Qty(decimal.NewFromInt(n))
}

func later(hours int) time.Time {
	return testhelpers.Epoch.Add(time.Duration(hours) * time.Hour)
}

func getGoods(t *testing.T, store repositories.Store, id entities.GoodsID) *entities.Goods {
	t.Helper()
	var g *entities.Goods
	require.NoError(t, store.View(context.Background(), func(v repositories.View) error {
		var err error
		g, err = v.GetGoods(id)
		return err
	}))
	return g
}

func getOperation(t *testing.T, store repositories.Store, id entities.OperationID) *entities.Operation {
	t.Helper()
	var op *entities.Operation
	require.NoError(t, store.View(context.Background(), func(v repositories.View) error {
		var err error
		op, err = v.GetOperation(id)
		return err
	}))
	return op
}

func listOperations(t *testing.T, store repositories.Store) []*entities.Operation {
	t.Helper()
	var ops []*entities.Operation
	require.NoError(t, store.View(context.Background(), func(v repositories.View) error {
		var err error
		ops, err = v.ListOperations()
		return err
	}))
	return ops
}

func countKind(ops []*entities.Operation, kind entities.OperationKind) int {
	n := 0
	for _, op := range ops {
		if op.Kind == kind {
			n++
		}
	}
	return n
}

func requireKind(t *testing.T, err error, code entities.ErrorCode) {
	t.Helper()
	require.Error(t, err)
	require.Truef(t, entities.IsKind(err, code), "expected %s, got %s (%v)", code, entities.KindOf(err), err)
}

func requireUnchanged(t *testing.T, store *memory.Store, before memory.Snapshot) {
	t.Helper()
	require.Equal(t, before, store.ExportState())
}

func assertQuantity(t *testing.T, want int64, got decimal.Decimal) {
	t.Helper()
	require.Truef(t, got.Equal(decimal.NewFromInt(want)), "expected quantity %d, got %s", want, got)
}
