// Package ddl turns an inferred schema into CREATE TABLE statements, so a
// profiled dataset can be loaded into the warehouse table the profiler
// proposes. FromSchema maps inferred column types to a dialect (postgres,
// sqlite, mssql) and BuildCreateTableSQL renders the result.
//
// Rendering stays dialect-neutral: identifiers are emitted as-is (the
// profiler has already normalized them to safe snake_case), no IF NOT EXISTS
// or other dialect clauses are added, and ColumnDef.Default is raw SQL.
package ddl

import (
	"fmt"
	"strings"
)

// BuildCreateTableSQL renders a CREATE TABLE statement from a TableDef.
//
// Each column renders as "<Name> <SQLType> [NOT NULL] [DEFAULT <Default>]",
// with NOT NULL added when Nullable is false. Columns flagged PrimaryKey are
// gathered into one trailing PRIMARY KEY (...) clause. The output is
// deterministic: column order is the TableDef order, which FromSchema takes
// from the report schema.
func BuildCreateTableSQL(t TableDef) (string, error) {
	fqn := strings.TrimSpace(t.FQN)
	if fqn == "" {
		return "", fmt.Errorf("ddl: table FQN must not be empty")
	}
	if len(t.Columns) == 0 {
		return "", fmt.Errorf("ddl: at least one column is required")
	}

	cols := make([]string, 0, len(t.Columns)+1)
	pks := make([]string, 0, len(t.Columns))

	for _, c := range t.Columns {
		name := strings.TrimSpace(c.Name)
		if name == "" {
			return "", fmt.Errorf("ddl: column with empty name in table %s", fqn)
		}
		typ := strings.TrimSpace(c.SQLType)
		if typ == "" {
			return "", fmt.Errorf("ddl: column %s missing SQLType", name)
		}

		var sb strings.Builder
		sb.WriteString(name)
		sb.WriteByte(' ')
		sb.WriteString(typ)

		if !c.Nullable {
			sb.WriteString(" NOT NULL")
		}

		if def := strings.TrimSpace(c.Default); def != "" {
			sb.WriteString(" DEFAULT ")
			// Default is emitted as raw SQL expression.
			sb.WriteString(def)
		}

		cols = append(cols, sb.String())

		if c.PrimaryKey {
			pks = append(pks, name)
		}
	}

	if len(pks) > 0 {
		cols = append(cols, fmt.Sprintf("PRIMARY KEY (%s)", strings.Join(pks, ", ")))
	}

	stmt := fmt.Sprintf(
		"CREATE TABLE %s (\n  %s\n);",
		fqn,
		strings.Join(cols, ",\n  "),
	)

	return stmt, nil
}
