package resolve

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/lib/pq"
	"github.com/sirupsen/logrus"

	"github.com/entdef/entdef/database"
	"github.com/entdef/entdef/entity"
)

// Postgres reports SQLSTATE 2BP01 (dependent_objects_still_exist) when a
// plain DROP is blocked by dependents, listing each one on its own DETAIL
// line. Those lines are the only place the server names the dependents, so
// they are parsed.
const pqDependentObjectsStillExist = "2BP01"

var dependentDetailPatterns = []struct {
	kind Kind
	re   *regexp.Regexp
}{
	{entity.KindTrigger, regexp.MustCompile(`(?m)^trigger (\S+) on table (\S+) depends on`)},
	{entity.KindMaterializedView, regexp.MustCompile(`(?m)^materialized view (\S+) depends on`)},
	{entity.KindView, regexp.MustCompile(`(?m)^view (\S+) depends on`)},
}

// Kind aliases entity.Kind for the pattern table above.
type Kind = entity.Kind

// Dependents returns the live entities that would block a plain DROP of e,
// outermost first, so dropping them in order and recreating them in reverse
// is safe. The probe DROP runs inside a savepoint and is always rolled back.
//
// An empty result means e can be dropped without CASCADE.
func Dependents(sess *database.Session, e entity.Entity) ([]entity.Entity, error) {
	name, err := sess.Savepoint()
	if err != nil {
		return nil, err
	}

	dropErr := sess.Exec(e.DropStatement(false))
	if rbErr := sess.RollbackTo(name); rbErr != nil {
		return nil, rbErr
	}
	if relErr := sess.Release(name); relErr != nil {
		return nil, relErr
	}
	if dropErr == nil {
		return nil, nil
	}

	var pqErr *pq.Error
	if !errors.As(dropErr, &pqErr) || string(pqErr.Code) != pqDependentObjectsStillExist {
		return nil, fmt.Errorf("probing dependents of %s: %w", e.Identity(), dropErr)
	}

	stubs := parseDependentDetail(pqErr.Detail)
	return hydrate(sess, stubs)
}

type dependentStub struct {
	kind      Kind
	signature string
	onEntity  string
}

// parseDependentDetail extracts dependent stubs from the DETAIL block of a
// 2BP01 error. Postgres lists dependents innermost-last, so the order is
// reversed to get a drop-safe outermost-first sequence; duplicates keep their
// first (outermost) occurrence.
func parseDependentDetail(detail string) []dependentStub {
	var stubs []dependentStub
	for _, line := range strings.Split(detail, "\n") {
		line = strings.TrimSpace(line)
		for _, p := range dependentDetailPatterns {
			m := p.re.FindStringSubmatch(line)
			if m == nil {
				continue
			}
			stub := dependentStub{kind: p.kind, signature: qualifySignature(m[1])}
			if p.kind == entity.KindTrigger {
				stub.signature = m[1]
				stub.onEntity = qualifySignature(m[2])
			}
			stubs = append(stubs, stub)
			break
		}
	}

	seen := make(map[string]bool, len(stubs))
	var ordered []dependentStub
	for i := len(stubs) - 1; i >= 0; i-- {
		key := fmt.Sprintf("%s:%s:%s", stubs[i].kind, stubs[i].signature, stubs[i].onEntity)
		if seen[key] {
			continue
		}
		seen[key] = true
		ordered = append(ordered, stubs[i])
	}
	return ordered
}

func qualifySignature(signature string) string {
	if strings.Contains(signature, ".") {
		return signature
	}
	return "public." + signature
}

// hydrate turns parsed stubs into full live entities by reflecting each
// stub's kind and matching on name. A stub with no live counterpart is
// skipped with a warning; it was dropped between the probe and now, which
// only ever makes the plan smaller.
func hydrate(sess *database.Session, stubs []dependentStub) ([]entity.Entity, error) {
	var out []entity.Entity
	for _, stub := range stubs {
		live, err := entity.Introspect(sess, stub.kind, "%")
		if err != nil {
			return nil, err
		}
		found := false
		for _, l := range live {
			if !matchesStub(l, stub) {
				continue
			}
			out = append(out, l)
			found = true
			break
		}
		if !found {
			logrus.Warnf("dependent %s %s no longer exists, skipping", stub.kind, stub.signature)
		}
	}
	return out, nil
}

func matchesStub(l entity.Entity, stub dependentStub) bool {
	if stub.kind == entity.KindTrigger {
		t, ok := l.(*entity.PGTrigger)
		return ok && t.Signature() == entity.CoerceToUnquoted(stub.signature) &&
			qualifySignature(t.OnEntity()) == entity.CoerceToUnquoted(stub.onEntity)
	}
	qualified := l.Schema() + "." + l.Signature()
	return qualified == entity.CoerceToUnquoted(stub.signature)
}

// DeferDependents drops the entities that block a plain DROP of e, runs fn,
// and recreates them in reverse order. It must run inside a transaction the
// caller owns; on any failure the caller's rollback restores everything.
func DeferDependents(sess *database.Session, e entity.Entity, fn func() error) error {
	dependents, err := Dependents(sess, e)
	if err != nil {
		return err
	}
	for _, d := range dependents {
		if err := sess.Exec(d.DropStatement(false)); err != nil {
			return fmt.Errorf("dropping dependent %s: %w", d.Identity(), err)
		}
	}
	if err := fn(); err != nil {
		return err
	}
	for i := len(dependents) - 1; i >= 0; i-- {
		if err := sess.Exec(dependents[i].CreateStatement()); err != nil {
			return fmt.Errorf("recreating dependent %s: %w", dependents[i].Identity(), err)
		}
	}
	return nil
}
