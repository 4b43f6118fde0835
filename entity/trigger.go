package entity

import (
	"fmt"
	"strings"

	"github.com/entdef/entdef/database"
)

// PGTrigger is a PostgreSQL trigger.
//
// The definition is the clause " {event} ON {table} {action}", e.g.
// "BEFORE INSERT ON public.account FOR EACH ROW EXECUTE FUNCTION audit()".
// The trigger targets onEntity, a relationship to another object by name,
// not ownership; onEntity participates in the identity because trigger
// names are only unique per table.
type PGTrigger struct {
	base
	onEntity     string
	isConstraint bool
}

func NewPGTrigger(schema, signature, definition, onEntity string) *PGTrigger {
	return NewPGConstraintTrigger(schema, signature, definition, onEntity, false)
}

func NewPGConstraintTrigger(schema, signature, definition, onEntity string, isConstraint bool) *PGTrigger {
	return &PGTrigger{
		base:         newBase(schema, signature, definition),
		onEntity:     CoerceToUnquoted(NormalizeWhitespace(onEntity)),
		isConstraint: isConstraint,
	}
}

func (t *PGTrigger) Kind() Kind           { return KindTrigger }
func (t *PGTrigger) OnEntity() string     { return t.onEntity }
func (t *PGTrigger) IsConstraint() bool   { return t.isConstraint }

func (t *PGTrigger) Identity() string {
	return fmt.Sprintf("%s: %s.%s %s", KindTrigger, t.schema, t.signature, t.onEntity)
}

func (t *PGTrigger) CanonicalName() string {
	return canonicalName(t.schema, t.signature)
}

func (t *PGTrigger) CreateStatement() string {
	event, onEntity, action := splitTriggerDefinition(t.definition)

	// Requalify the table with the trigger's schema so the statement stays
	// valid when simulated from an entity constructed with an unqualified
	// target.
	if strings.Contains(onEntity, ".") {
		_, onEntity, _ = strings.Cut(onEntity, ".")
	}
	onEntity = t.schema + "." + onEntity

	constraint := " "
	if t.isConstraint {
		constraint = " CONSTRAINT "
	}
	return fmt.Sprintf(`CREATE%sTRIGGER "%s" %s ON %s %s`, constraint, t.signature, event, onEntity, action)
}

func (t *PGTrigger) DropStatement(cascade bool) string {
	return fmt.Sprintf(`DROP TRIGGER "%s" ON %s%s`, t.signature, t.onEntity, cascadeSuffix(cascade))
}

func (t *PGTrigger) ReplaceStatements() []string {
	return []string{
		fmt.Sprintf(`DROP TRIGGER IF EXISTS "%s" ON %s;`, t.signature, t.onEntity),
		t.CreateStatement(),
	}
}

// splitTriggerDefinition splits " {event} ON {table} {action}". The event is
// the timing plus event list ("BEFORE INSERT OR UPDATE"); the first " ON "
// keyword terminates it.
func splitTriggerDefinition(definition string) (event, onEntity, action string) {
	m := triggerDefinitionPattern.FindStringSubmatch(NormalizeWhitespace(definition))
	if m == nil {
		return "", "", ""
	}
	return m[1], m[2], m[3]
}

func pgTriggersFromDatabase(sess *database.Session, schemaPattern string) ([]Entity, error) {
	var rows []struct {
		TableSchema string `db:"table_schema"`
		TriggerName string `db:"trigger_name"`
		Definition  string `db:"definition"`
	}
	err := sess.Select(&rows, `
		select
			pc.relnamespace::regnamespace::text as table_schema,
			tgname as trigger_name,
			pg_get_triggerdef(pgt.oid) as definition
		from
			pg_trigger pgt
			inner join pg_class pc on pgt.tgrelid = pc.oid
		where
			not tgisinternal
			and pc.relnamespace::regnamespace::text like ?`, schemaPattern)
	if err != nil {
		return nil, err
	}

	triggers := make([]Entity, len(rows))
	for i, r := range rows {
		t, err := ParseTrigger(r.Definition)
		if err != nil {
			return nil, err
		}
		triggers[i] = t
	}
	return triggers, nil
}
