package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vsinha/wms/pkg/domain/entities"
	"github.com/vsinha/wms/pkg/domain/repositories"
	testhelpers "github.com/vsinha/wms/pkg/infrastructure/testing"
)

func openStore(t *testing.T, path string) *Store {
	t.Helper()
	store, err := NewStore(path, testhelpers.BuildPackTypes())
	require.NoError(t, err)
	return store
}

func TestStore_PersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "wms.db")
	store := openStore(t, path)
	assert.Equal(t, path, store.Path())
	goods := testhelpers.SeedGoods(store, testhelpers.TypeBox, "dock", 10, map[string]any{"batch": "B1"})
	require.NoError(t, store.Close())

	reopened := openStore(t, path)
	t.Cleanup(func() { _ = reopened.Close() })

	var got *entities.Goods
	require.NoError(t, reopened.View(context.Background(), func(v repositories.View) error {
		var err error
		got, err = v.GetGoods(goods.ID)
		return err
	}))
	assert.True(t, got.Quantity.Equal(goods.Quantity))
	assert.Equal(t, entities.Present, got.State)
	assert.Equal(t, goods.Reason, got.Reason)
	require.NotNil(t, got.Properties)
	assert.Equal(t, "B1", got.Properties.Flexible["batch"])

	snapshot := reopened.ExportState()
	assert.Len(t, snapshot.Operations, 1)
	assert.Len(t, snapshot.Properties, 1)
}

func TestStore_FailedPersistLeavesStateUnchanged(t *testing.T) {
	store := openStore(t, filepath.Join(t.TempDir(), "wms.db"))
	testhelpers.SeedGoods(store, testhelpers.TypeX, "dock", 1, nil)
	before := store.ExportState()
	require.NoError(t, store.DB().Close())

	err := store.RunInTransaction(context.Background(), func(tx repositories.Tx) error {
		_, err := tx.InsertGoods(&entities.Goods{
			TypeID:   testhelpers.TypeX,
			Location: "dock",
			Quantity: decimal.NewFromInt(1),
			State:    entities.Present,
		})
		return err
	})
	require.ErrorContains(t, err, "begin tx")
	assert.Equal(t, before, store.ExportState())
}
