package repositories

import "github.com/vsinha/wms/pkg/domain/entities"

// GoodsTypeRepository provides read access to goods types and their behaviours
type GoodsTypeRepository interface {
	GetGoodsType(id entities.GoodsTypeID) (*entities.GoodsType, error)

	// GoodsTypes resolves a set of type identifiers in one batch lookup.
	// Unknown identifiers are absent from the returned map.
	GoodsTypes(ids []entities.GoodsTypeID) (map[entities.GoodsTypeID]*entities.GoodsType, error)
}
