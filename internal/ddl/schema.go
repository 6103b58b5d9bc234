package ddl

import (
	"fmt"
	"strings"

	"conform/internal/schema"
)

// Dialect selects the SQL type mapping used when converting an inferred
// schema into a TableDef.
type Dialect string

const (
	DialectPostgres Dialect = "postgres"
	DialectSQLite   Dialect = "sqlite"
	DialectMSSQL    Dialect = "mssql"
)

// ParseDialect maps a config string onto a Dialect.
func ParseDialect(s string) (Dialect, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "postgres", "postgresql", "pg":
		return DialectPostgres, nil
	case "sqlite", "sqlite3":
		return DialectSQLite, nil
	case "mssql", "sqlserver":
		return DialectMSSQL, nil
	default:
		return "", fmt.Errorf("ddl: unknown dialect %q", s)
	}
}

// FromSchema converts an inferred schema into a TableDef for the given
// dialect. Column order is preserved; nullability follows the profile.
func FromSchema(fqn string, s schema.Schema, d Dialect) (TableDef, error) {
	if strings.TrimSpace(fqn) == "" {
		return TableDef{}, fmt.Errorf("ddl: table FQN must not be empty")
	}
	if len(s.Columns) == 0 {
		return TableDef{}, fmt.Errorf("ddl: schema has no columns")
	}
	cols := make([]ColumnDef, 0, len(s.Columns))
	for _, c := range s.Columns {
		typ, err := MapType(c.Type, d)
		if err != nil {
			return TableDef{}, fmt.Errorf("ddl: column %s: %w", c.Name, err)
		}
		cols = append(cols, ColumnDef{
			Name:     c.Name,
			SQLType:  typ,
			Nullable: c.Nullable,
		})
	}
	return TableDef{FQN: fqn, Columns: cols}, nil
}

// MapType maps a logical column type onto the dialect's SQL type. Unknown
// columns degrade to the dialect's text type, since text admits any value.
func MapType(t schema.ColumnType, d Dialect) (string, error) {
	switch d {
	case DialectPostgres:
		switch t {
		case schema.TypeBoolean:
			return "BOOLEAN", nil
		case schema.TypeInteger:
			return "BIGINT", nil
		case schema.TypeReal:
			return "DOUBLE PRECISION", nil
		case schema.TypeBytes:
			return "BYTEA", nil
		case schema.TypeText, schema.TypeUnknown:
			return "TEXT", nil
		}
	case DialectSQLite:
		switch t {
		case schema.TypeBoolean, schema.TypeInteger:
			return "INTEGER", nil
		case schema.TypeReal:
			return "REAL", nil
		case schema.TypeBytes:
			return "BLOB", nil
		case schema.TypeText, schema.TypeUnknown:
			return "TEXT", nil
		}
	case DialectMSSQL:
		switch t {
		case schema.TypeBoolean:
			return "BIT", nil
		case schema.TypeInteger:
			return "BIGINT", nil
		case schema.TypeReal:
			return "FLOAT", nil
		case schema.TypeBytes:
			return "VARBINARY(MAX)", nil
		case schema.TypeText, schema.TypeUnknown:
			return "NVARCHAR(MAX)", nil
		}
	default:
		return "", fmt.Errorf("unsupported dialect %q", d)
	}
	return "", fmt.Errorf("unsupported column type %q", t)
}
