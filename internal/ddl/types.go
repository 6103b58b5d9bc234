package ddl

// ColumnDef is one rendered column of a profiled table. It carries the SQL
// type already selected for the target dialect (see MapType); names are
// emitted unquoted, exactly as the profiler normalized them.
type ColumnDef struct {
	Name       string
	SQLType    string
	Nullable   bool
	PrimaryKey bool
	Default    string
}

// TableDef is an ordered column list under a table name. FQN may be dotted
// ("schema.table") and is emitted verbatim; renderers do not quote it.
type TableDef struct {
	FQN     string
	Columns []ColumnDef
}
