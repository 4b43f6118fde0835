// Package resolve orders entities so that dependencies are created before
// their dependents, combining declared dependency edges with trial-and-error
// simulation for entities that do not declare any.
package resolve

import (
	"github.com/sirupsen/logrus"

	"github.com/entdef/entdef/database"
	"github.com/entdef/entdef/entity"
	"github.com/entdef/entdef/sandbox"
)

// Order returns entities in a creation-safe order.
//
// Entities carrying declared dependencies are sorted topologically; a cycle
// among them is returned as a *CycleError before any statement reaches the
// database. Entities without declared dependencies are ordered by simulation:
// repeated sandbox passes admit each entity once everything it needs is ahead
// of it. Entities that still fail after the passes converge are appended in
// input order, on the expectation that their prerequisites already exist on
// the live database.
//
// The simulated group comes first so that declared-dependency entities, whose
// edges may point at simulated ones, are created after them. With a nil
// session the simulation is skipped and the undeclared group keeps its input
// order.
func Order(sess *database.Session, entities []entity.Entity) ([]entity.Entity, error) {
	var undeclared, declared []entity.Entity
	for _, e := range entities {
		if len(e.DependsOn()) > 0 {
			declared = append(declared, e)
		} else {
			undeclared = append(undeclared, e)
		}
	}

	sortedDeclared, err := sortDeclared(declared)
	if err != nil {
		return nil, err
	}

	ordered := solveResolutionOrder(sess, undeclared)
	return append(ordered, sortedDeclared...), nil
}

func sortDeclared(entities []entity.Entity) ([]entity.Entity, error) {
	dependencies := make(map[string][]string, len(entities))
	for _, e := range entities {
		var deps []string
		for _, d := range e.DependsOn() {
			deps = append(deps, d.Identity())
		}
		dependencies[e.Identity()] = deps
	}
	return topologicalSort(entities, dependencies, entity.Entity.Identity)
}

// solveResolutionOrder finds a creation order by trying. Each pass trial-creates
// every unresolved entity in a sandbox seeded with the entities resolved so
// far; a successful trial admits the entity. Passes repeat until a full pass
// admits nothing, which bounds the work at len(entities) passes.
func solveResolutionOrder(sess *database.Session, entities []entity.Entity) []entity.Entity {
	if sess == nil || len(entities) == 0 {
		return entities
	}

	var resolved []entity.Entity
	remaining := entities
	for len(remaining) > 0 {
		var next []entity.Entity
		for _, e := range remaining {
			err := sandbox.Simulate(sess, e, resolved, func() error { return nil })
			if err != nil {
				next = append(next, e)
				continue
			}
			resolved = append(resolved, e)
		}
		if len(next) == len(remaining) {
			break
		}
		remaining = next
	}

	for _, e := range remaining {
		logrus.Warnf("could not resolve a creation order for %s, keeping input position", e.Identity())
	}
	return append(resolved, remaining...)
}
