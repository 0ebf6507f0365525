package gridcore

import (
	"slices"
)

// the dependency graph has no storage of its own: forward edges are the
// references of each cell's content and reverse edges are each cell's
// dependents set. both walks below keep their own stacks so that chains
// of any length are handled without deep recursion

// dfsFrame is one vertex on the cycle detection stack together with the
// index of the next outgoing edge to follow
type dfsFrame struct {
	pos  Position
	refs []Position
	next int
}

// hasCycle reports whether giving pos a content that references refs would
// close a cycle. the live content of pos is ignored; every other vertex uses
// its current references and missing cells are dead ends. it never modifies
// the grid
func (s *Sheet) hasCycle(pos Position, refs []Position) bool {
	// three states: unvisited (not in map), visiting (false), visited (true)
	state := map[Position]bool{pos: false}
	stack := []dfsFrame{{pos: pos, refs: refs}}

	for len(stack) > 0 {
		top := &stack[len(stack)-1]
		if top.next == len(top.refs) {
			state[top.pos] = true
			stack = stack[:len(stack)-1]
			continue
		}

		ref := top.refs[top.next]
		top.next++

		if completed, seen := state[ref]; seen {
			if !completed {
				// currently visiting - cycle detected
				return true
			}
			continue
		}

		cell := s.storage.Get(ref)
		if cell == nil {
			state[ref] = true
			continue
		}
		state[ref] = false
		stack = append(stack, dfsFrame{pos: ref, refs: cell.content.references()})
	}

	return false
}

// walkDependents visits pos and every cell transitively reachable from it
// through reverse references, each exactly once
func (s *Sheet) walkDependents(pos Position, visit func(Position, *Cell)) {
	visited := map[Position]struct{}{pos: {}}
	stack := []Position{pos}

	for len(stack) > 0 {
		current := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		cell := s.storage.Get(current)
		if cell == nil {
			continue
		}
		visit(current, cell)

		for dependent := range cell.dependents {
			if _, seen := visited[dependent]; seen {
				continue
			}
			visited[dependent] = struct{}{}
			stack = append(stack, dependent)
		}
	}
}

// invalidate clears the cached value of pos and of everything that depends
// on it, directly or transitively. returns the number of cells touched
func (s *Sheet) invalidate(pos Position) int {
	touched := 0
	s.walkDependents(pos, func(_ Position, cell *Cell) {
		cell.clearCache()
		touched++
	})
	return touched
}

// affectedCells returns every cell whose value depends on pos, directly or
// transitively, excluding pos itself, sorted row-major
func (s *Sheet) affectedCells(pos Position) []Position {
	var result []Position
	s.walkDependents(pos, func(current Position, _ *Cell) {
		if current != pos {
			result = append(result, current)
		}
	})
	slices.SortFunc(result, comparePositions)
	return result
}

// linkReferences registers pos as a dependent of every position in refs,
// materializing empty cells where needed
func (s *Sheet) linkReferences(pos Position, refs []Position) {
	for _, ref := range refs {
		s.getOrCreateCell(ref).addDependent(pos)
	}
}

// unlinkReferences removes pos from the dependents of every position in refs
func (s *Sheet) unlinkReferences(pos Position, refs []Position) {
	for _, ref := range refs {
		if cell := s.storage.Get(ref); cell != nil {
			cell.removeDependent(pos)
		}
	}
}
