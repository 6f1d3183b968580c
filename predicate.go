package encryptrewrite

import "log/slog"

// SQLTokenGenerator produces the tokens one concern contributes to a rewrite.
type SQLTokenGenerator interface {
	// IsGenerateSQLToken reports whether the generator applies to the statement.
	IsGenerateSQLToken(ctx *StatementContext) bool

	// GenerateSQLTokens returns the generator's tokens. It must only be
	// called when IsGenerateSQLToken returned true.
	GenerateSQLTokens(ctx *StatementContext) []SQLToken
}

// PredicateColumnTokenGenerator rewrites encrypted columns referenced by
// WHERE predicates to their physical columns.
//
// Per column reference the replacement is, first match wins:
//   - the plain column, when the session does not query with the cipher
//     column and the column keeps one;
//   - the assisted query column, when the column has one;
//   - the cipher column.
//
// It is safe for concurrent use.
type PredicateColumnTokenGenerator struct {
	rule                  *EncryptRule
	relationMetas         *RelationMetas
	queryWithCipherColumn bool
	logger                *slog.Logger
}

// NewPredicateColumnTokenGenerator creates a generator for rule.
//
// Example:
//
//	gen := encryptrewrite.NewPredicateColumnTokenGenerator(rule,
//	    encryptrewrite.WithQueryWithCipherColumn(false),
//	)
//	ctx := encryptrewrite.NewStatementContext(stmt)
//	if gen.IsGenerateSQLToken(ctx) {
//	    tokens := gen.GenerateSQLTokens(ctx)
//	}
func NewPredicateColumnTokenGenerator(rule *EncryptRule, opts ...Option) *PredicateColumnTokenGenerator {
	cfg := newConfig(opts)
	g := &PredicateColumnTokenGenerator{
		rule:                  rule,
		relationMetas:         rule.RelationMetas(),
		queryWithCipherColumn: rule.QueryWithCipherColumn(),
		logger:                cfg.logger,
	}
	if cfg.relationMetas != nil {
		g.relationMetas = cfg.relationMetas
	}
	if cfg.queryWithCipherColumn != nil {
		g.queryWithCipherColumn = *cfg.queryWithCipherColumn
	}
	return g
}

// QueryWithCipherColumn returns the generator's query policy.
func (g *PredicateColumnTokenGenerator) QueryWithCipherColumn() bool {
	return g.queryWithCipherColumn
}

// IsGenerateSQLToken implements SQLTokenGenerator.
// It is true for statement kinds that carry a WHERE clause when one is present.
func (g *PredicateColumnTokenGenerator) IsGenerateSQLToken(ctx *StatementContext) bool {
	where, ok := WhereOf(ctx.Statement)
	return ok && where != nil
}

// GenerateSQLTokens implements SQLTokenGenerator.
// It panics if the statement has no WHERE clause.
func (g *PredicateColumnTokenGenerator) GenerateSQLTokens(ctx *StatementContext) []SQLToken {
	where, ok := WhereOf(ctx.Statement)
	if !ok || where == nil {
		panic("encryptrewrite: predicate column tokens requested for a statement without WHERE clause")
	}

	result := NewTokenSet()
	for _, and := range where.AndPredicates {
		result.AddAll(g.generateSQLTokens(ctx.Tables, and))
	}
	return result.Tokens()
}

func (g *PredicateColumnTokenGenerator) generateSQLTokens(tables *TablesContext, and AndPredicate) []SQLToken {
	result := make([]SQLToken, 0, len(and.Predicates))
	for _, predicate := range and.Predicates {
		if token, ok := g.Resolve(tables, predicate.Column); ok {
			result = append(result, token)
		}
	}
	return result
}

// Resolve returns the token for one column reference, or false when the
// column's table cannot be resolved or the column is not encrypted.
func (g *PredicateColumnTokenGenerator) Resolve(tables *TablesContext, column ColumnSegment) (SubstitutableColumnNameToken, bool) {
	tableName, ok := tables.FindTableName(column, g.relationMetas)
	if !ok {
		g.logger.Debug("predicate column skipped: table not resolved",
			"column", column.Name, "start", column.Start, "stop", column.Stop)
		return SubstitutableColumnNameToken{}, false
	}
	encryptTable, ok := g.rule.FindEncryptTable(tableName)
	if !ok {
		return SubstitutableColumnNameToken{}, false
	}
	if _, ok := encryptTable.FindEncryptor(column.Name); !ok {
		return SubstitutableColumnNameToken{}, false
	}

	start, stop := column.IdentifierStart(), column.Stop
	if !g.queryWithCipherColumn {
		if plain, ok := encryptTable.FindPlainColumn(column.Name); ok {
			return g.token(tableName, column, start, stop, plain), true
		}
	}
	if assisted, ok := encryptTable.FindAssistedQueryColumn(column.Name); ok {
		return g.token(tableName, column, start, stop, assisted), true
	}
	return g.token(tableName, column, start, stop, encryptTable.CipherColumn(column.Name)), true
}

func (g *PredicateColumnTokenGenerator) token(table string, column ColumnSegment, start, stop int, replacement string) SubstitutableColumnNameToken {
	g.logger.Debug("predicate column substituted",
		"table", table, "column", column.Name, "replacement", replacement, "start", start, "stop", stop)
	return SubstitutableColumnNameToken{Start: start, Stop: stop, ColumnName: replacement}
}
