package services

import (
	"reflect"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/vsinha/wms/pkg/domain/entities"
)

func packs(id entities.GoodsTypeID, into ...entities.GoodsTypeID) *entities.GoodsType {
	spec := &entities.UnpackSpec{}
	for _, t := range into {
		spec.Outcomes = append(spec.Outcomes, entities.UnpackOutcome{Type: t, Quantity: decimal.NewFromInt(1)})
	}
	return &entities.GoodsType{ID: id, Code: string(id), Behaviours: entities.Behaviours{Unpack: spec}}
}

func plain(id entities.GoodsTypeID) *entities.GoodsType {
	return &entities.GoodsType{ID: id, Code: string(id)}
}

func TestUnpackValidator_DetectSelfCycle(t *testing.T) {
	result := NewUnpackValidator().Validate([]*entities.GoodsType{packs("A", "A")})

	if !result.HasCycles {
		t.Fatal("Expected cycle to be detected")
	}
	want := [][]entities.GoodsTypeID{{"A", "A"}}
	if !reflect.DeepEqual(result.CyclePaths, want) {
		t.Errorf("Expected cycle paths %v, got %v", want, result.CyclePaths)
	}
}

func TestUnpackValidator_DetectLongerCycle(t *testing.T) {
	// A -> B -> C -> A
	result := NewUnpackValidator().Validate([]*entities.GoodsType{
		packs("A", "B"),
		packs("B", "C"),
		packs("C", "A"),
	})

	if !result.HasCycles {
		t.Fatal("Expected cycle to be detected")
	}
	want := []entities.GoodsTypeID{"A", "B", "C", "A"}
	if !reflect.DeepEqual(result.CyclePaths[0], want) {
		t.Errorf("Expected cycle path %v, got %v", want, result.CyclePaths[0])
	}
	if len(result.Errors) != 1 {
		t.Errorf("Expected one validation error, got %v", result.Errors)
	}
}

func TestUnpackValidator_AcceptsTreesAndDiamonds(t *testing.T) {
	// PALLET -> CARTON -> BOTTLE, PALLET -> BOTTLE
	result := NewUnpackValidator().Validate([]*entities.GoodsType{
		packs("PALLET", "CARTON", "BOTTLE", "CARTON"),
		packs("CARTON", "BOTTLE", "LEAFLET"),
		plain("BOTTLE"),
		plain("LEAFLET"),
	})

	if result.HasCycles {
		t.Errorf("Expected no cycles, got %v", result.CyclePaths)
	}
	if len(result.Errors) != 0 {
		t.Errorf("Expected no errors, got %v", result.Errors)
	}
}
