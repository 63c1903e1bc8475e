package repositories

import "github.com/vsinha/wms/pkg/domain/entities"

// GoodsReader provides read access to goods records
type GoodsReader interface {
	GetGoods(id entities.GoodsID) (*entities.Goods, error)
	ListGoods(filter GoodsFilter) ([]*entities.Goods, error)
}

// GoodsRepository provides read/write access to goods records inside a transaction
type GoodsRepository interface {
	GoodsReader
	InsertGoods(goods *entities.Goods) (*entities.Goods, error)
	UpdateGoods(id entities.GoodsID, mutator func(*entities.Goods) error) (*entities.Goods, error)
	InsertProperties(props *entities.Properties) (*entities.Properties, error)
}

// GoodsFilter narrows ListGoods results; zero-valued fields match everything
type GoodsFilter struct {
	Location string
	TypeID   entities.GoodsTypeID
	States   []entities.GoodsState
}

// Matches reports whether goods satisfy the filter
func (f GoodsFilter) Matches(g *entities.Goods) bool {
	if f.Location != "" && g.Location != f.Location {
		return false
	}
	if f.TypeID != "" && g.TypeID != f.TypeID {
		return false
	}
	if len(f.States) == 0 {
		return true
	}
	for _, s := range f.States {
		if g.State == s {
			return true
		}
	}
	return false
}
