package diff

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/entdef/entdef/database"
	"github.com/entdef/entdef/entity"
	"github.com/entdef/entdef/resolve"
	"github.com/entdef/entdef/sandbox"
)

// Config narrows what the engine considers managed. Entities outside the
// managed surface are neither classified nor drop candidates.
type Config struct {
	// Schemas to scan for drop candidates. Empty means the schemas the
	// declared entities live in.
	Schemas []string
	// ExcludeSchemas removes schemas from the scan even when observed.
	ExcludeSchemas []string
	// Kinds limits drop detection to these kinds. Empty means every kind the
	// dialect supports.
	Kinds []entity.Kind
	// Filter, when set, must return true for an entity to be managed at all.
	// It sees declared entities with reflected false and live-discovered
	// entities with reflected true.
	Filter func(e entity.Entity, reflected bool) bool
}

func (c Config) include(e entity.Entity, reflected bool) bool {
	return c.Filter == nil || c.Filter(e, reflected)
}

// Engine diffs declared entities against one database.
type Engine struct {
	db     database.Database
	config Config
}

func NewEngine(db database.Database, config Config) *Engine {
	return &Engine{db: db, config: config}
}

// Run compares the declared entities against the live database and returns
// the reconciliation plan: creates and replaces first, in creation-safe
// order, then drops for managed live entities nothing declares.
//
// Every probe runs inside a single transaction that is rolled back before
// returning; Run never modifies the database.
func (g *Engine) Run(declared []entity.Entity) ([]Op, error) {
	if err := checkDuplicates(declared); err != nil {
		return nil, err
	}

	var managed []entity.Entity
	for _, e := range declared {
		if !g.config.include(e, false) {
			logrus.Debugf("%s is excluded by the filter", e.Identity())
			continue
		}
		managed = append(managed, e)
	}

	sess, err := database.NewSession(g.db)
	if err != nil {
		return nil, err
	}
	defer sess.Rollback()

	ordered, err := resolve.Order(sess, managed)
	if err != nil {
		return nil, err
	}

	cache := NewCache()
	var ops []Op
	// Entities already planned for create or replace; later entities are
	// simulated on top of them so pending definitions are visible.
	var planned []entity.Entity
	// Live identities as the database renders the declarations; this is the
	// shield set for drop detection.
	rendered := make(map[string]bool, len(ordered))
	for _, e := range ordered {
		op, renderedID, ok := cache.Get(e)
		if !ok {
			op, renderedID, err = classify(sess, e, planned)
			if err != nil {
				return nil, fmt.Errorf("classifying %s: %w", e.Identity(), err)
			}
			cache.Put(e, op, renderedID)
		}
		rendered[renderedID] = true
		if op == nil {
			logrus.Debugf("%s is unchanged", e.Identity())
			continue
		}
		logrus.Infof("%s", op)
		ops = append(ops, op)
		planned = append(planned, e)
	}

	dropOps, err := g.detectDrops(sess, ordered, rendered)
	if err != nil {
		return nil, err
	}
	ops = append(ops, dropOps...)

	if err := sess.Rollback(); err != nil {
		return nil, fmt.Errorf("rolling back diff transaction: %w", err)
	}
	return ops, nil
}

func checkDuplicates(declared []entity.Entity) error {
	seen := make(map[string]bool, len(declared))
	for _, e := range declared {
		id := e.Identity()
		if seen[id] {
			return &DuplicateRegistrationError{Identity: id}
		}
		seen[id] = true
	}
	return nil
}

// classify decides what, if anything, must happen to make the live database
// match e, and reports the identity the database renders the declaration
// under. Every declared entity is simulated, so an invalid definition fails
// here rather than at apply time.
func classify(sess *database.Session, e entity.Entity, deps []entity.Entity) (Op, string, error) {
	dbDef, err := databaseDefinition(sess, e, deps)
	if err != nil {
		return nil, "", err
	}

	live, err := entity.Introspect(sess, e.Kind(), schemaPattern(e))
	if err != nil {
		return nil, "", err
	}
	return requiredOp(e, dbDef, live), dbDef.Identity(), nil
}

// requiredOp matches live entities on the database-rendered identity, not
// the declared one: the server canonicalizes names and types ("int" reflects
// as "integer"), so the declared spelling may never appear in a reflection.
func requiredOp(declared, dbDef entity.Entity, live []entity.Entity) Op {
	for _, l := range live {
		if l.Identity() != dbDef.Identity() {
			continue
		}
		if entity.NormalizeWhitespace(dbDef.Definition()) == entity.NormalizeWhitespace(l.Definition()) {
			return nil
		}
		return NewReplaceOp(declared, l)
	}
	return NewCreateOp(declared)
}

// databaseDefinition captures how the database itself renders e's declared
// definition. The declared text and the reflected text routinely differ in
// spelling even when semantically identical, so the comparison has to happen
// between two reflections, not between declaration and reflection.
//
// The capture isolates e by set difference: reflect the kind with e removed,
// reflect again with e installed, and the one identity present only in the
// second pass is e as the database renders it.
func databaseDefinition(sess *database.Session, e entity.Entity, deps []entity.Entity) (entity.Entity, error) {
	var withoutSelf, withSelf []entity.Entity

	err := sandbox.Simulate(sess, e, deps, func() error {
		if err := sess.Exec(e.DropStatement(true)); err != nil {
			return err
		}
		var ierr error
		withoutSelf, ierr = entity.Introspect(sess, e.Kind(), schemaPattern(e))
		return ierr
	})
	if err != nil {
		return nil, err
	}

	err = sandbox.Simulate(sess, e, deps, func() error {
		var ierr error
		withSelf, ierr = entity.Introspect(sess, e.Kind(), schemaPattern(e))
		return ierr
	})
	if err != nil {
		return nil, err
	}

	absent := make(map[string]bool, len(withoutSelf))
	for _, w := range withoutSelf {
		absent[w.Identity()] = true
	}

	var found entity.Entity
	for _, w := range withSelf {
		if absent[w.Identity()] {
			continue
		}
		if found != nil {
			return nil, &UnreachableError{Context: fmt.Sprintf(
				"multiple entities changed while isolating %s", e.Identity())}
		}
		found = w
	}
	if found == nil {
		return nil, &UnreachableError{Context: fmt.Sprintf(
			"no entity changed while isolating %s", e.Identity())}
	}
	return found, nil
}

// detectDrops walks the managed surface for live entities no declaration
// renders to. The shield set holds database-rendered identities, so a
// declared entity shields its live counterpart even when the two spell the
// signature differently.
func (g *Engine) detectDrops(sess *database.Session, declared []entity.Entity, rendered map[string]bool) ([]Op, error) {
	schemas := g.config.Schemas
	if len(schemas) == 0 {
		seen := make(map[string]bool)
		for _, e := range declared {
			if !seen[e.Schema()] {
				seen[e.Schema()] = true
				schemas = append(schemas, e.Schema())
			}
		}
	}
	excluded := make(map[string]bool, len(g.config.ExcludeSchemas))
	for _, s := range g.config.ExcludeSchemas {
		excluded[s] = true
	}

	kinds := g.config.Kinds
	if len(kinds) == 0 {
		kinds = entity.Kinds(sess.Dialect())
	}

	var ops []Op
	emitted := make(map[string]bool)
	for _, kind := range kinds {
		for _, schema := range schemas {
			if excluded[schema] {
				continue
			}
			live, err := entity.Introspect(sess, kind, schema)
			if err != nil {
				return nil, err
			}
			for _, l := range live {
				if rendered[l.Identity()] || emitted[l.Identity()] {
					continue
				}
				if excluded[l.Schema()] {
					continue
				}
				if !g.config.include(l, true) {
					continue
				}
				emitted[l.Identity()] = true
				op := NewDropOp(l, false)
				logrus.Infof("%s", op)
				ops = append(ops, op)
			}
		}
	}
	return ops, nil
}

func schemaPattern(e entity.Entity) string {
	// Extension identity carries no schema, so the scan must be global to
	// find one that moved schemas.
	if e.Kind() == entity.KindExtension {
		return "%"
	}
	return e.Schema()
}
