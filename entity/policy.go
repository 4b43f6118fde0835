package entity

import (
	"fmt"
	"strings"

	"github.com/entdef/entdef/database"
)

// PGPolicy is a PostgreSQL row level security policy.
//
// The signature is "policyname.tablename": policy names are only unique per
// table, so the target table is part of the identity key. The definition
// holds the remaining clauses (as permissive/restrictive, for, to, using,
// with check).
type PGPolicy struct {
	base
}

func NewPGPolicy(schema, signature, definition string) *PGPolicy {
	return &PGPolicy{base: newBase(schema, signature, definition)}
}

func (p *PGPolicy) Kind() Kind { return KindPolicy }

func (p *PGPolicy) PolicyName() string {
	name, _, _ := strings.Cut(p.signature, ".")
	return name
}

func (p *PGPolicy) TableName() string {
	_, table, _ := strings.Cut(p.signature, ".")
	return table
}

// OnEntity is the qualified table the policy applies to.
func (p *PGPolicy) OnEntity() string {
	return p.schema + "." + p.TableName()
}

func (p *PGPolicy) Identity() string {
	return identityOf(KindPolicy, p.schema, p.signature)
}

func (p *PGPolicy) CanonicalName() string {
	return canonicalName(p.schema, strings.ReplaceAll(p.signature, ".", "_"))
}

func (p *PGPolicy) CreateStatement() string {
	return fmt.Sprintf("CREATE POLICY %s ON %s.%s %s", p.PolicyName(), p.schema, p.TableName(), p.definition)
}

func (p *PGPolicy) DropStatement(cascade bool) string {
	return fmt.Sprintf("DROP POLICY %s ON %s.%s%s", p.PolicyName(), p.schema, p.TableName(), cascadeSuffix(cascade))
}

// Policies have no replace form; replacement is a drop followed by a create.
func (p *PGPolicy) ReplaceStatements() []string {
	return []string{
		fmt.Sprintf("DROP POLICY IF EXISTS %s ON %s.%s", p.PolicyName(), p.schema, p.TableName()),
		p.CreateStatement(),
	}
}

func pgPoliciesFromDatabase(sess *database.Session, schemaPattern string) ([]Entity, error) {
	var rows []struct {
		SchemaName string  `db:"schemaname"`
		TableName  string  `db:"tablename"`
		PolicyName string  `db:"policyname"`
		Permissive *string `db:"permissive"`
		Roles      *string `db:"roles"`
		Cmd        *string `db:"cmd"`
		Qual       *string `db:"qual"`
		WithCheck  *string `db:"with_check"`
	}
	err := sess.Select(&rows, `
		select
			schemaname,
			tablename,
			policyname,
			permissive,
			array_to_string(roles, ',') as roles,
			cmd,
			qual,
			with_check
		from
			pg_policies
		where
			schemaname::text like ?`, schemaPattern)
	if err != nil {
		return nil, err
	}

	policies := make([]Entity, len(rows))
	for i, r := range rows {
		def := policyDefinition(r.Permissive, r.Cmd, r.Roles, r.Qual, r.WithCheck)
		policies[i] = NewPGPolicy(r.SchemaName, r.PolicyName+"."+r.TableName, def)
	}
	return policies, nil
}

func policyDefinition(permissive, cmd, roles, qual, withCheck *string) string {
	var parts []string
	if permissive != nil {
		parts = append(parts, "as "+*permissive)
	}
	if cmd != nil {
		parts = append(parts, "for "+*cmd)
	}
	if roles != nil {
		parts = append(parts, "to "+*roles)
	}
	if qual != nil {
		parts = append(parts, "using ("+*qual+")")
	}
	if withCheck != nil {
		parts = append(parts, "with check ("+*withCheck+")")
	}
	return strings.Join(parts, " ")
}
