package entity

import (
	"fmt"
	"sort"
	"strings"

	"github.com/entdef/entdef/database"
)

// GrantKind is one of the table privileges a PGGrantTable can manage.
type GrantKind string

const (
	// Applies at column level
	GrantSelect     GrantKind = "SELECT"
	GrantInsert     GrantKind = "INSERT"
	GrantUpdate     GrantKind = "UPDATE"
	GrantReferences GrantKind = "REFERENCES"
	// Applies at table level
	GrantDelete   GrantKind = "DELETE"
	GrantTruncate GrantKind = "TRUNCATE"
	GrantTrigger  GrantKind = "TRIGGER"
)

func (g GrantKind) columnLevel() bool {
	switch g {
	case GrantSelect, GrantInsert, GrantUpdate, GrantReferences:
		return true
	}
	return false
}

// PGGrantTable is one table privilege granted to one role.
//
// The identity mirrors the unique key of information_schema grant rows:
// schema, table, role and privilege. The definition is the rendered GRANT
// statement, so any column or grant-option change surfaces as a Replace.
//
// PGGrantTable requires the role used to reflect grants to match the role
// that applies them; exclude the kind via the inclusion filter otherwise.
type PGGrantTable struct {
	base
	table           string
	role            string
	grant           GrantKind
	columns         []string
	withGrantOption bool
}

// NewPGGrantTable validates the column rules: column-level privileges require
// columns, table-level privileges forbid them.
func NewPGGrantTable(schema, table, role string, grant GrantKind, columns []string, withGrantOption bool) (*PGGrantTable, error) {
	g := &PGGrantTable{
		table:           CoerceToUnquoted(table),
		role:            CoerceToUnquoted(role),
		grant:           grant,
		columns:         append([]string(nil), columns...),
		withGrantOption: withGrantOption,
	}
	sort.Strings(g.columns)
	g.schema = CoerceToUnquoted(schema)
	g.signature = fmt.Sprintf("%s.%s.%s", g.table, g.role, g.grant)

	if grant.columnLevel() {
		if len(g.columns) == 0 {
			return nil, fmt.Errorf("grant type %s requires columns", grant)
		}
	} else if len(g.columns) > 0 {
		return nil, fmt.Errorf("grant type %s must not have columns", grant)
	}

	g.definition = g.CreateStatement()
	return g, nil
}

func (g *PGGrantTable) Kind() Kind        { return KindGrantTable }
func (g *PGGrantTable) Table() string     { return g.table }
func (g *PGGrantTable) Role() string      { return g.role }
func (g *PGGrantTable) Grant() GrantKind  { return g.grant }
func (g *PGGrantTable) Columns() []string { return g.columns }

func (g *PGGrantTable) Identity() string {
	return fmt.Sprintf("%s: %s.%s.%s.%s", KindGrantTable, g.schema, g.table, g.role, g.grant)
}

func (g *PGGrantTable) CanonicalName() string {
	return strings.ToLower(fmt.Sprintf("%s_%s_%s_%s", g.schema, g.table, g.role, g.grant))
}

func (g *PGGrantTable) CreateStatement() string {
	option := ""
	if g.withGrantOption {
		option = " WITH GRANT OPTION"
	}
	columns := ""
	if len(g.columns) > 0 {
		columns = " ( " + strings.Join(g.columns, ", ") + " )"
	}
	return fmt.Sprintf("GRANT %s%s ON %s.%s TO %s%s",
		g.grant, columns, g.literalSchema(), CoerceToQuoted(g.table), CoerceToQuoted(g.role), option)
}

// Cascade has no meaning for a revoke; the parameter exists to satisfy the
// entity contract.
func (g *PGGrantTable) DropStatement(cascade bool) string {
	return fmt.Sprintf("REVOKE %s ON %s.%s FROM %s",
		g.grant, g.literalSchema(), CoerceToQuoted(g.table), CoerceToQuoted(g.role))
}

func (g *PGGrantTable) ReplaceStatements() []string {
	return []string{g.DropStatement(false), g.CreateStatement()}
}

type grantRow struct {
	Schema      string `db:"schema_name"`
	TableName   string `db:"table_name"`
	RoleName    string `db:"role_name"`
	GrantOption string `db:"grant_option"`
	IsGrantable string `db:"is_grantable"`
	ColumnName  string `db:"column_name"`
}

func (r grantRow) key() string {
	return strings.Join([]string{r.Schema, r.TableName, r.RoleName, r.GrantOption, r.IsGrantable}, "\x00")
}

func pgGrantTablesFromDatabase(sess *database.Session, schemaPattern string) ([]Entity, error) {
	// Column level. Superusers are filtered out since privileges cannot be
	// revoked from them.
	var columnRows []grantRow
	err := sess.Select(&columnRows, `
		SELECT
			table_schema as schema_name,
			table_name,
			grantee as role_name,
			privilege_type as grant_option,
			is_grantable,
			column_name
		FROM
			information_schema.role_column_grants rcg
			join pg_roles pr on rcg.grantee = pr.rolname
		WHERE
			not pr.rolsuper
			and grantor = CURRENT_USER
			and table_schema like ?
			and privilege_type in ('SELECT', 'INSERT', 'UPDATE', 'REFERENCES')
		ORDER BY table_schema, table_name, grantee, privilege_type, column_name`, schemaPattern)
	if err != nil {
		return nil, err
	}

	var grants []Entity
	grouped := map[string][]string{}
	var order []grantRow
	for _, r := range columnRows {
		if _, seen := grouped[r.key()]; !seen {
			order = append(order, r)
		}
		grouped[r.key()] = append(grouped[r.key()], r.ColumnName)
	}
	for _, r := range order {
		grant, err := NewPGGrantTable(r.Schema, r.TableName, r.RoleName, GrantKind(r.GrantOption), grouped[r.key()], r.IsGrantable == "YES")
		if err != nil {
			return nil, err
		}
		grants = append(grants, grant)
	}

	// Table level
	var tableRows []grantRow
	err = sess.Select(&tableRows, `
		SELECT
			table_schema as schema_name,
			table_name,
			grantee as role_name,
			privilege_type as grant_option,
			is_grantable
		FROM
			information_schema.role_table_grants rcg
			join pg_roles pr on rcg.grantee = pr.rolname
		WHERE
			not pr.rolsuper
			and grantor = CURRENT_USER
			and table_schema like ?
			and privilege_type in ('DELETE', 'TRUNCATE', 'TRIGGER')
		ORDER BY table_schema, table_name, grantee, privilege_type`, schemaPattern)
	if err != nil {
		return nil, err
	}
	for _, r := range tableRows {
		grant, err := NewPGGrantTable(r.Schema, r.TableName, r.RoleName, GrantKind(r.GrantOption), nil, r.IsGrantable == "YES")
		if err != nil {
			return nil, err
		}
		grants = append(grants, grant)
	}

	return grants, nil
}
