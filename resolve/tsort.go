package resolve

import (
	"fmt"
	"strings"
)

// CycleError reports a dependency cycle among declared entities. The cycle is
// unresolvable by construction, so it is raised before any database work.
type CycleError struct {
	Identities []string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("circular dependency involving: %s", strings.Join(e.Identities, ", "))
}

// topologicalSort orders items so that every dependency precedes its
// dependents, using depth-first search with three-color marking to detect
// cycles. Items are visited in input order, which makes the result stable:
// independent items keep their relative input positions within each DFS tree.
//
// Dependencies naming ids outside the item set are skipped; they are somebody
// else's problem (typically an object that already exists on the database).
func topologicalSort[T any](items []T, dependencies map[string][]string, getID func(T) string) ([]T, error) {
	var sorted []T
	visited := make(map[string]bool)
	visiting := make(map[string]bool)
	itemMap := make(map[string]T)

	for _, item := range items {
		itemMap[getID(item)] = item
	}

	var cycle []string
	var visit func(string) bool
	visit = func(id string) bool {
		if visiting[id] {
			cycle = append(cycle, id)
			return false
		}
		if visited[id] {
			return true
		}

		visiting[id] = true
		for _, dep := range dependencies[id] {
			if _, exists := itemMap[dep]; !exists {
				continue
			}
			if !visit(dep) {
				cycle = append(cycle, id)
				return false
			}
		}
		visiting[id] = false
		visited[id] = true

		sorted = append(sorted, itemMap[id])
		return true
	}

	for _, item := range items {
		if id := getID(item); !visited[id] {
			if !visit(id) {
				return nil, &CycleError{Identities: cycle}
			}
		}
	}
	return sorted, nil
}
