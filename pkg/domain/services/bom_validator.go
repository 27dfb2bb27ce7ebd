package services

import (
	"fmt"
	"sort"

	"github.com/6thd/wardah-process-costing-sub007/pkg/domain/entities"
)

// BOMValidator provides validation for BOM structure integrity
type BOMValidator struct{}

// NewBOMValidator creates a new BOM validator
func NewBOMValidator() *BOMValidator {
	return &BOMValidator{}
}

// ValidationResult contains the results of BOM validation
type ValidationResult struct {
	HasCycles      bool
	CyclePaths     [][]entities.BOMID
	DuplicateLines []*entities.BOMLine
	InvalidLines   []error
	Errors         []string
}

// Valid reports whether no problem was found
func (r *ValidationResult) Valid() bool {
	return len(r.Errors) == 0
}

// ValidateLines checks the lines of one header for broken invariants and
// for components repeated at the same sequence
func (v *BOMValidator) ValidateLines(lines []*entities.BOMLine) *ValidationResult {
	result := &ValidationResult{
		DuplicateLines: make([]*entities.BOMLine, 0),
		InvalidLines:   make([]error, 0),
		Errors:         make([]string, 0),
	}

	for _, line := range lines {
		if err := line.Validate(); err != nil {
			result.InvalidLines = append(result.InvalidLines, err)
			result.Errors = append(result.Errors, err.Error())
		}
	}

	result.DuplicateLines = v.detectDuplicateLines(lines)
	if len(result.DuplicateLines) > 0 {
		result.Errors = append(result.Errors, fmt.Sprintf("Found %d duplicate BOM lines", len(result.DuplicateLines)))
	}

	return result
}

// ValidateGraph looks for cycles in a BOM-to-sub-BOM adjacency map
func (v *BOMValidator) ValidateGraph(adjacency map[entities.BOMID][]entities.BOMID) *ValidationResult {
	result := &ValidationResult{
		CyclePaths: v.detectCycles(adjacency),
		Errors:     make([]string, 0),
	}
	result.HasCycles = len(result.CyclePaths) > 0
	for _, cycle := range result.CyclePaths {
		result.Errors = append(result.Errors, fmt.Sprintf("BOM cycle detected: %v", cycle))
	}
	return result
}

// FirstCycle returns the first detected cycle as a CircularBOMError, or nil
func (r *ValidationResult) FirstCycle() error {
	if !r.HasCycles {
		return nil
	}
	return &entities.CircularBOMError{Path: r.CyclePaths[0]}
}

// detectCycles uses DFS to find cycles in the BOM structure
func (v *BOMValidator) detectCycles(adjacency map[entities.BOMID][]entities.BOMID) [][]entities.BOMID {
	visited := make(map[entities.BOMID]bool)
	recursionStack := make(map[entities.BOMID]bool)
	cycles := make([][]entities.BOMID, 0)

	for _, parent := range sortedKeys(adjacency) {
		if !visited[parent] {
			v.dfsDetectCycle(parent, adjacency, visited, recursionStack, nil, &cycles)
		}
	}

	return cycles
}

// dfsDetectCycle performs depth-first search to detect cycles
func (v *BOMValidator) dfsDetectCycle(
	current entities.BOMID,
	adjacency map[entities.BOMID][]entities.BOMID,
	visited map[entities.BOMID]bool,
	recursionStack map[entities.BOMID]bool,
	path []entities.BOMID,
	cycles *[][]entities.BOMID,
) {
	visited[current] = true
	recursionStack[current] = true
	path = append(path, current)

	for _, child := range adjacency[current] {
		if !visited[child] {
			v.dfsDetectCycle(child, adjacency, visited, recursionStack, path, cycles)
		} else if recursionStack[child] {
			for i, id := range path {
				if id == child {
					cycle := make([]entities.BOMID, 0, len(path)-i+1)
					cycle = append(cycle, path[i:]...)
					cycle = append(cycle, child)
					*cycles = append(*cycles, cycle)
					break
				}
			}
		}
	}

	recursionStack[current] = false
}

// detectDuplicateLines finds lines repeating a component at the same sequence
func (v *BOMValidator) detectDuplicateLines(lines []*entities.BOMLine) []*entities.BOMLine {
	seen := make(map[string]*entities.BOMLine)
	duplicates := make([]*entities.BOMLine, 0)

	for _, line := range lines {
		key := fmt.Sprintf("%s|%s|%d", line.BOMID, line.ComponentItemID, line.Sequence)
		if existing, ok := seen[key]; ok {
			duplicates = append(duplicates, existing, line)
		} else {
			seen[key] = line
		}
	}

	return duplicates
}

func sortedKeys(m map[entities.BOMID][]entities.BOMID) []entities.BOMID {
	keys := make([]entities.BOMID, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}
