// Package sandbox trials entity DDL inside savepoint scopes that are always
// rolled back, so the engine can observe what a statement would do to the
// database without ever changing it.
package sandbox

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/entdef/entdef/database"
	"github.com/entdef/entdef/entity"
)

// Simulate installs e inside a savepoint scope, runs fn while the entity is
// live, and rolls the scope back before returning. Entities in deps are
// installed first, each in its own nested scope, innermost-last, so a view
// depending on a function sees the function during its own trial.
//
// Materialized views are simulated WITH NO DATA: the trial needs the object's
// shape, not its rows, and populating one inside a sandbox can be arbitrarily
// expensive.
//
// The database is never left modified. If fn or any statement fails, the
// scope is still rolled back and the original error is returned; a rollback
// failure on that path is logged rather than allowed to mask it.
func Simulate(sess *database.Session, e entity.Entity, deps []entity.Entity, fn func() error) error {
	if len(deps) > 0 {
		head, rest := deps[0], deps[1:]
		return simulateOne(sess, head, func() error {
			return Simulate(sess, e, rest, fn)
		})
	}
	return simulateOne(sess, e, fn)
}

func simulateOne(sess *database.Session, e entity.Entity, fn func() error) error {
	if mv, ok := e.(*entity.PGMaterializedView); ok {
		e = mv.WithoutData()
	}

	name, err := sess.Savepoint()
	if err != nil {
		return fmt.Errorf("opening sandbox for %s: %w", e.Identity(), err)
	}

	simErr := dropThenCreate(sess, e, name)
	if simErr == nil {
		simErr = fn()
	}

	if err := sess.RollbackTo(name); err != nil {
		if simErr != nil {
			logrus.WithError(err).Errorf("sandbox rollback failed for %s", e.Identity())
			return simErr
		}
		return fmt.Errorf("rolling back sandbox for %s: %w", e.Identity(), err)
	}
	if err := sess.Release(name); err != nil {
		if simErr != nil {
			logrus.WithError(err).Errorf("sandbox release failed for %s", e.Identity())
			return simErr
		}
		return fmt.Errorf("releasing sandbox for %s: %w", e.Identity(), err)
	}
	return simErr
}

// dropThenCreate installs e on top of whatever the database already holds.
// The preferred path drops any existing object with CASCADE and creates
// fresh; when the drop itself fails (the object does not exist, or the kind
// does not support it) the create is retried alone in a clean inner scope.
// A create failure after a successful drop is the entity's own problem and
// propagates.
func dropThenCreate(sess *database.Session, e entity.Entity, outer string) error {
	inner, err := sess.Savepoint()
	if err != nil {
		return err
	}

	didDrop := false
	err = func() error {
		if dropErr := sess.Exec(e.DropStatement(true)); dropErr != nil {
			return dropErr
		}
		didDrop = true
		return sess.Exec(e.CreateStatement())
	}()
	if err == nil {
		return sess.Release(inner)
	}
	if didDrop {
		return fmt.Errorf("creating %s after drop: %w", e.Identity(), err)
	}

	// Nothing to drop; retry the create on its own.
	if rbErr := sess.RollbackTo(inner); rbErr != nil {
		return rbErr
	}
	if err := sess.Exec(e.CreateStatement()); err != nil {
		return fmt.Errorf("creating %s: %w", e.Identity(), err)
	}
	return sess.Release(inner)
}
