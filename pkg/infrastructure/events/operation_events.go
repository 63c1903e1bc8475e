package events

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/vsinha/wms/pkg/domain/entities"
)

const (
	OperationCreatedEvent  = "operation.created"
	OperationExecutedEvent = "operation.executed"

	GoodsProducedEvent = "goods.produced"
	GoodsConsumedEvent = "goods.consumed"
)

type OperationCreated struct {
	Operation entities.Operation `json:"operation"`
}

type OperationExecuted struct {
	Operation entities.Operation `json:"operation"`
}

type GoodsProduced struct {
	Goods     entities.GoodsID     `json:"goods"`
	Type      entities.GoodsTypeID `json:"type"`
	Quantity  decimal.Decimal      `json:"quantity"`
	Location  string               `json:"location"`
	State     entities.GoodsState  `json:"state"`
	Operation entities.OperationID `json:"operation"`
}

type GoodsConsumed struct {
	Goods     entities.GoodsID     `json:"goods"`
	Operation entities.OperationID `json:"operation"`
}

// Operation events are streamed per operation; goods events per goods record.

func NewOperationCreatedEvent(op entities.Operation, t time.Time) Event {
	return NewEvent(OperationCreatedEvent, string(op.ID), OperationCreated{Operation: op}, t)
}

func NewOperationExecutedEvent(op entities.Operation, t time.Time) Event {
	return NewEvent(OperationExecutedEvent, string(op.ID), OperationExecuted{Operation: op}, t)
}

func NewGoodsProducedEvent(g entities.Goods, t time.Time) Event {
	return NewEvent(GoodsProducedEvent, string(g.ID), GoodsProduced{
		Goods:     g.ID,
		Type:      g.TypeID,
		Quantity:  g.Quantity,
		Location:  g.Location,
		State:     g.State,
		Operation: g.Reason,
	}, t)
}

func NewGoodsConsumedEvent(id entities.GoodsID, by entities.OperationID, t time.Time) Event {
	return NewEvent(GoodsConsumedEvent, string(id), GoodsConsumed{Goods: id, Operation: by}, t)
}
