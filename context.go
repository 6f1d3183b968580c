package encryptrewrite

// StatementContext is a parsed statement together with its table context.
type StatementContext struct {
	Statement Statement
	Tables    *TablesContext
}

// NewStatementContext creates a StatementContext for stmt.
func NewStatementContext(stmt Statement) *StatementContext {
	return &StatementContext{
		Statement: stmt,
		Tables:    NewTablesContext(stmt.Tables()),
	}
}

// Where returns the statement's WHERE clause, or nil.
func (c *StatementContext) Where() *WhereSegment {
	where, _ := WhereOf(c.Statement)
	return where
}
