package services

import (
	"fmt"
	"sort"

	"github.com/vsinha/wms/pkg/domain/entities"
)

// UnpackValidator checks the graph formed by unpack behaviours, where each
// goods type points to the types its unpack produces.
type UnpackValidator struct{}

// NewUnpackValidator creates a new unpack validator
func NewUnpackValidator() *UnpackValidator {
	return &UnpackValidator{}
}

// ValidationResult contains the results of unpack graph validation
type ValidationResult struct {
	HasCycles  bool
	CyclePaths [][]entities.GoodsTypeID
	Errors     []string
}

// Validate detects types that can, through successive unpacks, produce
// themselves again.
func (v *UnpackValidator) Validate(types []*entities.GoodsType) *ValidationResult {
	result := &ValidationResult{
		CyclePaths: make([][]entities.GoodsTypeID, 0),
		Errors:     make([]string, 0),
	}

	adjacency := v.buildAdjacencyMap(types)
	result.CyclePaths = v.detectCycles(adjacency)
	result.HasCycles = len(result.CyclePaths) > 0
	for _, cycle := range result.CyclePaths {
		result.Errors = append(result.Errors, fmt.Sprintf("unpack cycle detected: %v", cycle))
	}
	return result
}

// buildAdjacencyMap maps each packs type to the distinct types it unpacks into
func (v *UnpackValidator) buildAdjacencyMap(types []*entities.GoodsType) map[entities.GoodsTypeID][]entities.GoodsTypeID {
	adjacency := make(map[entities.GoodsTypeID][]entities.GoodsTypeID)
	for _, t := range types {
		for _, outcome := range t.UnpackOutcomes() {
			children := adjacency[t.ID]
			found := false
			for _, child := range children {
				if child == outcome.Type {
					found = true
					break
				}
			}
			if !found {
				adjacency[t.ID] = append(children, outcome.Type)
			}
		}
	}
	return adjacency
}

// detectCycles runs a DFS from every type, in sorted order for stable reports
func (v *UnpackValidator) detectCycles(adjacency map[entities.GoodsTypeID][]entities.GoodsTypeID) [][]entities.GoodsTypeID {
	roots := make([]entities.GoodsTypeID, 0, len(adjacency))
	for id := range adjacency {
		roots = append(roots, id)
	}
	sort.Slice(roots, func(i, j int) bool { return roots[i] < roots[j] })

	visited := make(map[entities.GoodsTypeID]bool)
	onStack := make(map[entities.GoodsTypeID]bool)
	cycles := make([][]entities.GoodsTypeID, 0)
	for _, root := range roots {
		if !visited[root] {
			v.dfs(root, adjacency, visited, onStack, nil, &cycles)
		}
	}
	return cycles
}

func (v *UnpackValidator) dfs(
	current entities.GoodsTypeID,
	adjacency map[entities.GoodsTypeID][]entities.GoodsTypeID,
	visited map[entities.GoodsTypeID]bool,
	onStack map[entities.GoodsTypeID]bool,
	path []entities.GoodsTypeID,
	cycles *[][]entities.GoodsTypeID,
) {
	visited[current] = true
	onStack[current] = true
	path = append(path, current)

	for _, child := range adjacency[current] {
		if !visited[child] {
			v.dfs(child, adjacency, visited, onStack, path, cycles)
			continue
		}
		if !onStack[child] {
			continue
		}
		for i, id := range path {
			if id == child {
				cycle := append([]entities.GoodsTypeID(nil), path[i:]...)
				*cycles = append(*cycles, append(cycle, child))
				break
			}
		}
	}

	onStack[current] = false
}
