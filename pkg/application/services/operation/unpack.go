package operation

import (
	"context"

	"github.com/vsinha/wms/pkg/domain/entities"
	"github.com/vsinha/wms/pkg/domain/repositories"
)

// UnpackOperation consumes a goods record ("packs") and produces new goods
// records as declared by the unpack behaviour of the packs' type.
//
// Outcomes are created at the packs' location. Moving them elsewhere is
// left to subsequent Move operations.
type UnpackOperation struct{}

// Verify interface compliance
var _ SplittableOperation = UnpackOperation{}

func (UnpackOperation) Kind() entities.OperationKind { return entities.Unpack }

func (UnpackOperation) FindParentOperations(_ repositories.Tx, goods *entities.Goods) ([]entities.OperationID, error) {
	if goods == nil {
		return nil, entities.NewError(entities.ErrCodeCreationArgument, "'goods' must be passed to unpack creation")
	}
	return parentOf(goods), nil
}

func (UnpackOperation) CheckCreateConditions(tx repositories.Tx, state entities.OperationState, goods *entities.Goods, req CreateRequest) error {
	if goods == nil {
		return entities.NewError(entities.ErrCodeCreationArgument, "'goods' must be passed to unpack creation")
	}
	quantity, err := requireQuantity(entities.Unpack, req)
	if err != nil {
		return err
	}
	if state == entities.Done && goods.State != entities.Present {
		return entities.NewError(entities.ErrCodeStateConflict,
			"can't create an unpack in state %q for %s because of their state", state, goods)
	}
	goodsType, err := tx.GetGoodsType(goods.TypeID)
	if err != nil {
		return err
	}
	if !goodsType.HasBehaviour(entities.UnpackBehaviour) {
		return entities.NewError(entities.ErrCodeInvalidBehaviour,
			"can't unpack %s: their type %s has no %q behaviour", goods, goodsType, entities.UnpackBehaviour)
	}

	if quantity.GreaterThan(goods.Quantity) {
		return entities.NewError(entities.ErrCodeQuantityExceeded,
			"can't unpack a greater quantity (%s) than held in %s", quantity, goods)
	}
	if !quantity.Equal(goods.Quantity) {
		return entities.NewError(entities.ErrCodeUnsupported,
			"can't unpack %s of %s: unpacking a lesser quantity is not supported yet", quantity, goods)
	}
	return nil
}

func (u UnpackOperation) AfterInsert(_ context.Context, tx repositories.Tx, op *entities.Operation) (*entities.Operation, error) {
	packs, err := tx.GetGoods(op.Goods)
	if err != nil {
		return nil, err
	}
	packsType, err := tx.GetGoodsType(packs.TypeID)
	if err != nil {
		return nil, err
	}
	spec := packsType.UnpackOutcomes()
	if len(spec) == 0 {
		return op, nil
	}

	typeIDs := make([]entities.GoodsTypeID, 0, len(spec))
	for _, outcome := range spec {
		typeIDs = append(typeIDs, outcome.Type)
	}
	outcomeTypes, err := tx.GoodsTypes(typeIDs)
	if err != nil {
		return nil, err
	}
	for _, id := range typeIDs {
		if _, ok := outcomeTypes[id]; !ok {
			return nil, entities.NewError(entities.ErrCodeNotFound,
				"unpack outcome type %s declared by %s not found", id, packsType)
		}
	}

	if op.State != entities.Done {
		return nil, entities.NewError(entities.ErrCodeUnsupported,
			"unpack in state %q is not supported yet", op.State)
	}

	// Every property check runs before the first mutation.
	props := make([]*entities.Properties, len(spec))
	for i, outcome := range spec {
		if props[i], err = u.ForwardProperties(packs, packsType, outcome); err != nil {
			return nil, err
		}
	}

	if err := consume(tx, packs.ID, op.ID); err != nil {
		return nil, err
	}
	produced := make([]entities.GoodsID, 0, len(spec))
	for i, outcome := range spec {
		if props[i] != nil {
			if props[i], err = tx.InsertProperties(props[i]); err != nil {
				return nil, err
			}
		}
		g, err := tx.InsertGoods(&entities.Goods{
			TypeID:     outcomeTypes[outcome.Type].ID,
			Quantity:   outcome.Quantity.Mul(op.Quantity),
			Location:   packs.Location,
			State:      entities.Present,
			Properties: props[i],
			Reason:     op.ID,
		})
		if err != nil {
			return nil, err
		}
		produced = append(produced, g.ID)
	}
	return tx.UpdateOperation(op.ID, func(o *entities.Operation) error {
		o.Outcomes = produced
		return nil
	})
}

// ForwardProperties builds the properties of one outcome from those of the
// packs. It returns nil when the outcome gets no properties.
func (UnpackOperation) ForwardProperties(packs *entities.Goods, packsType *entities.GoodsType, outcome entities.UnpackOutcome) (*entities.Properties, error) {
	if len(outcome.RequiredProperties) > 0 && (packs.Properties == nil || len(packs.Properties.Flexible) == 0) {
		return nil, entities.NewError(entities.ErrCodeMissingProperty,
			"packs %s have no properties, yet their type %s requires these for unpack: %v",
			packs, packsType, outcome.RequiredProperties)
	}
	if len(outcome.ForwardProperties) == 0 {
		return nil, nil
	}

	flexible := make(map[string]any, len(outcome.ForwardProperties))
	for _, name := range outcome.ForwardProperties {
		value, ok := packs.Properties.Get(name)
		if !ok {
			if !outcome.IsRequired(name) {
				continue
			}
			return nil, entities.NewError(entities.ErrCodeMissingProperty,
				"packs %s lack the property %q required by their type %s for unpack", packs, name, packsType)
		}
		flexible[name] = value
	}
	if len(flexible) == 0 {
		return nil, nil
	}
	return &entities.Properties{Flexible: flexible}, nil
}

// ExecutePlannedAfterSplit is unreachable while planned unpacks are refused
// at creation; it fails rather than guess deferred production semantics.
func (UnpackOperation) ExecutePlannedAfterSplit(_ context.Context, _ repositories.Tx, op *entities.Operation) error {
	return entities.NewError(entities.ErrCodeUnsupported, "execution of planned %s is not supported yet", op)
}
