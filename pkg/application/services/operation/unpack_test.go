package operation

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vsinha/wms/pkg/domain/entities"
	"github.com/vsinha/wms/pkg/infrastructure/repositories/memory"
	testhelpers "github.com/vsinha/wms/pkg/infrastructure/testing"
)

func TestUnpack_DoneProducesOutcomes(t *testing.T) {
	svc, store := newTestService(t)
	packs := testhelpers.SeedGoods(store, testhelpers.TypeBox, "dock", 10, nil)

	op, err := svc.Unpack(context.Background(), entities.Done, CreateRequest{
		Goods:    packs.ID,
		Quantity: qty(10),
	})
	require.NoError(t, err)
	assert.False(t, op.Partial)
	assert.Equal(t, []entities.OperationID{packs.Reason}, op.Follows)
	require.Len(t, op.Outcomes, 2)

	x := getGoods(t, store, op.Outcomes[0])
	y := getGoods(t, store, op.Outcomes[1])
	assert.Equal(t, testhelpers.TypeX, x.TypeID)
	assertQuantity(t, 20, x.Quantity)
	assert.Equal(t, testhelpers.TypeY, y.TypeID)
	assertQuantity(t, 30, y.Quantity)
	for _, g := range []*entities.Goods{x, y} {
		assert.Equal(t, "dock", g.Location)
		assert.Equal(t, entities.Present, g.State)
		assert.Equal(t, op.ID, g.Reason)
		assert.Nil(t, g.Properties)
	}

	consumed := getGoods(t, store, packs.ID)
	assert.Equal(t, entities.Past, consumed.State)
	assert.Equal(t, op.ID, consumed.Reason)
}

func TestUnpack_QuantityConservation(t *testing.T) {
	for n := int64(1); n <= 5; n++ {
		svc, store := newTestService(t)
		packs := testhelpers.SeedGoods(store, testhelpers.TypeBox, "dock", n, nil)

		op, err := svc.Unpack(context.Background(), entities.Done, CreateRequest{Goods: packs.ID, Quantity: qty(n)})
		require.NoError(t, err)

		box, err := testhelpers.BuildPackTypes().GetGoodsType(testhelpers.TypeBox)
		require.NoError(t, err)
		for i, outcome := range box.UnpackOutcomes() {
			produced := getGoods(t, store, op.Outcomes[i])
			assert.True(t, produced.Quantity.Equal(outcome.Quantity.Mul(decimal.NewFromInt(n))))
		}

		pastCount := 0
		for _, g := range store.ExportState().Goods {
			if g.State == entities.Past {
				pastCount++
			}
		}
		assert.Equal(t, 1, pastCount, "the packs are consumed exactly once")
	}
}

func TestUnpack_CreateConditions(t *testing.T) {
	tests := []struct {
		name     string
		typeID   entities.GoodsTypeID
		state    entities.OperationState
		quantity decimal.NullDecimal
		noGoods  bool
		want     entities.ErrorCode
	}{
		{name: "lesser quantity", typeID: testhelpers.TypeBox, state: entities.Done, quantity: qty(4), want: entities.ErrCodeUnsupported},
		{name: "greater quantity", typeID: testhelpers.TypeBox, state: entities.Done, quantity: qty(11), want: entities.ErrCodeQuantityExceeded},
		{name: "missing quantity", typeID: testhelpers.TypeBox, state: entities.Done, want: entities.ErrCodeCreationArgument},
		{name: "zero quantity", typeID: testhelpers.TypeBox, state: entities.Done, quantity: qty(0), want: entities.ErrCodeCreationArgument},
		{name: "negative quantity", typeID: testhelpers.TypeBox, state: entities.Done, quantity: qty(-2), want: entities.ErrCodeCreationArgument},
		{name: "missing goods", typeID: testhelpers.TypeBox, state: entities.Done, quantity: qty(10), noGoods: true, want: entities.ErrCodeCreationArgument},
		{name: "type without unpack", typeID: testhelpers.TypePlain, state: entities.Done, quantity: qty(10), want: entities.ErrCodeInvalidBehaviour},
		{name: "planned", typeID: testhelpers.TypeBox, state: entities.Planned, quantity: qty(10), want: entities.ErrCodeUnsupported},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, store := newTestService(t)
			packs := testhelpers.SeedGoods(store, tt.typeID, "dock", 10, nil)
			before := store.ExportState()

			req := CreateRequest{Goods: packs.ID, Quantity: tt.quantity, DtExecution: later(1)}
			if tt.noGoods {
				req.Goods = ""
			}
			_, err := svc.Unpack(context.Background(), tt.state, req)
			requireKind(t, err, tt.want)
			requireUnchanged(t, store, before)
		})
	}
}

func TestUnpack_LesserQuantityDoesNotSplit(t *testing.T) {
	svc, store := newTestService(t)
	packs := testhelpers.SeedGoods(store, testhelpers.TypeBox, "dock", 10, nil)

	_, err := svc.Unpack(context.Background(), entities.Done, CreateRequest{Goods: packs.ID, Quantity: qty(4)})
	requireKind(t, err, entities.ErrCodeUnsupported)
	assert.Zero(t, countKind(listOperations(t, store), entities.Split))
}

func TestUnpack_DoneRequiresPresentGoods(t *testing.T) {
	svc, store := newTestService(t)
	arrival, err := svc.Arrive(context.Background(), entities.Planned, CreateRequest{
		TypeID:      testhelpers.TypeBox,
		Location:    "dock",
		Quantity:    qty(10),
		DtExecution: later(1),
	})
	require.NoError(t, err)
	before := store.ExportState()

	_, err = svc.Unpack(context.Background(), entities.Done, CreateRequest{Goods: arrival.Goods, Quantity: qty(10)})
	requireKind(t, err, entities.ErrCodeStateConflict)
	requireUnchanged(t, store, before)
}

func TestUnpack_NoOutcomesIsNoOp(t *testing.T) {
	svc, store := newTestService(t)
	packs := testhelpers.SeedGoods(store, testhelpers.TypeEmpty, "dock", 3, nil)

	op, err := svc.Unpack(context.Background(), entities.Done, CreateRequest{Goods: packs.ID, Quantity: qty(3)})
	require.NoError(t, err)
	assert.Empty(t, op.Outcomes)
	assert.Equal(t, entities.Present, getGoods(t, store, packs.ID).State)
	assert.Equal(t, entities.Done, getOperation(t, store, op.ID).State)
}

func TestUnpack_ForwardsProperties(t *testing.T) {
	svc, store := newTestService(t)
	packs := testhelpers.SeedGoods(store, testhelpers.TypeCrate, "dock", 2, map[string]any{"a": 1, "b": 2})

	op, err := svc.Unpack(context.Background(), entities.Done, CreateRequest{Goods: packs.ID, Quantity: qty(2)})
	require.NoError(t, err)
	require.Len(t, op.Outcomes, 1)

	x := getGoods(t, store, op.Outcomes[0])
	assertQuantity(t, 2, x.Quantity)
	require.NotNil(t, x.Properties)
	assert.Equal(t, map[string]any{"a": 1}, x.Properties.Flexible)
	assert.NotEmpty(t, x.Properties.ID)
}

func TestUnpack_MissingRequiredPropertyLeavesStateUnchanged(t *testing.T) {
	tests := []struct {
		name  string
		props map[string]any
	}{
		{"no properties at all", nil},
		{"required property absent", map[string]any{"b": 2, "c": 3}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, store := newTestService(t)
			packs := testhelpers.SeedGoods(store, testhelpers.TypeCrate, "dock", 2, tt.props)
			before := store.ExportState()

			_, err := svc.Unpack(context.Background(), entities.Done, CreateRequest{Goods: packs.ID, Quantity: qty(2)})
			requireKind(t, err, entities.ErrCodeMissingProperty)
			requireUnchanged(t, store, before)
		})
	}
}

func TestUnpackOperation_ForwardProperties(t *testing.T) {
	crateType := &entities.GoodsType{ID: "CRATE", Code: "CRATE"}
	forwardAC := entities.UnpackOutcome{
		Type:               "X",
		Quantity:           decimal.NewFromInt(1),
		ForwardProperties:  []string{"a", "c"},
		RequiredProperties: []string{"a"},
	}

	tests := []struct {
		name    string
		props   *entities.Properties
		outcome entities.UnpackOutcome
		want    map[string]any
		wantErr bool
	}{
		{
			name:    "optional absent property skipped",
			props:   &entities.Properties{Flexible: map[string]any{"a": 1, "b": 2}},
			outcome: forwardAC,
			want:    map[string]any{"a": 1},
		},
		{
			name:    "all forwarded",
			props:   &entities.Properties{Flexible: map[string]any{"a": 1, "c": "x"}},
			outcome: forwardAC,
			want:    map[string]any{"a": 1, "c": "x"},
		},
		{
			name:    "required property absent",
			props:   &entities.Properties{Flexible: map[string]any{"b": 2}},
			outcome: forwardAC,
			wantErr: true,
		},
		{
			name:    "packs without properties",
			outcome: forwardAC,
			wantErr: true,
		},
		{
			name:    "required only, packs with other properties",
			props:   &entities.Properties{Flexible: map[string]any{"b": 2}},
			outcome: entities.UnpackOutcome{Type: "X", Quantity: decimal.NewFromInt(1), RequiredProperties: []string{"a"}},
		},
		{
			name:    "required only, packs without properties",
			outcome: entities.UnpackOutcome{Type: "X", Quantity: decimal.NewFromInt(1), RequiredProperties: []string{"a"}},
			wantErr: true,
		},
		{
			name:    "no forwarding declared",
			props:   &entities.Properties{Flexible: map[string]any{"a": 1}},
			outcome: entities.UnpackOutcome{Type: "X", Quantity: decimal.NewFromInt(1)},
		},
		{
			name:    "nothing collected",
			props:   &entities.Properties{Flexible: map[string]any{"b": 2}},
			outcome: entities.UnpackOutcome{Type: "X", Quantity: decimal.NewFromInt(1), ForwardProperties: []string{"c"}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			packs := &entities.Goods{ID: "p", TypeID: "CRATE", Properties: tt.props}
			got, err := UnpackOperation{}.ForwardProperties(packs, crateType, tt.outcome)
			if tt.wantErr {
				requireKind(t, err, entities.ErrCodeMissingProperty)
				return
			}
			require.NoError(t, err)
			if tt.want == nil {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.Equal(t, tt.want, got.Flexible)
		})
	}
}

// staticTypes serves goods types without validating outcome references.
type staticTypes map[entities.GoodsTypeID]*entities.GoodsType

func (s staticTypes) GetGoodsType(id entities.GoodsTypeID) (*entities.GoodsType, error) {
	t, ok := s[id]
	if !ok {
		return nil, entities.NewError(entities.ErrCodeNotFound, "goods type not found: %s", id)
	}
	return t, nil
}

func (s staticTypes) GoodsTypes(ids []entities.GoodsTypeID) (map[entities.GoodsTypeID]*entities.GoodsType, error) {
	out := make(map[entities.GoodsTypeID]*entities.GoodsType)
	for _, id := range ids {
		if t, ok := s[id]; ok {
			out[id] = t
		}
	}
	return out, nil
}

func TestUnpack_UnknownOutcomeType(t *testing.T) {
	store := memory.NewStore(staticTypes{
		"BROKEN": {ID: "BROKEN", Code: "BROKEN", Behaviours: entities.Behaviours{Unpack: &entities.UnpackSpec{
			Outcomes: []entities.UnpackOutcome{{Type: "GHOST", Quantity: decimal.NewFromInt(1)}},
		}}},
	})
	svc := NewService(store, WithClock(testhelpers.Clock()))
	packs := testhelpers.SeedGoods(store, "BROKEN", "dock", 1, nil)
	before := store.ExportState()

	_, err := svc.Unpack(context.Background(), entities.Done, CreateRequest{Goods: packs.ID, Quantity: qty(1)})
	requireKind(t, err, entities.ErrCodeNotFound)
	requireUnchanged(t, store, before)
}

func TestUnpackOperation_ExecutePlannedAfterSplitUnsupported(t *testing.T) {
	err := UnpackOperation{}.ExecutePlannedAfterSplit(context.Background(), nil, &entities.Operation{Kind: entities.Unpack})
	requireKind(t, err, entities.ErrCodeUnsupported)
}
