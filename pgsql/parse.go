// Package pgsql parses PostgreSQL statements into encryptrewrite statements.
//
// Parsing is done by libpg_query through pg_query_go, so the accepted grammar
// is exactly PostgreSQL's. Column and table offsets are byte offsets into
// the text passed to Parse, recovered from the parse tree locations.
//
// Every SELECT found in the text becomes its own statement: set operation
// arms, CTE bodies and subqueries in FROM, WHERE and the target list. Each
// resolves its columns against its own FROM clause.
//
// Names follow PostgreSQL folding: unquoted identifiers arrive lower-cased,
// and a quoted identifier with upper-case letters keeps its quotes in the
// segment name so that lookups match it exactly.
package pgsql

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/ai8future/encryptrewrite"

	pg_query "github.com/pganalyze/pg_query_go/v6"
)

const defaultMaxAndPredicates = 1024

// Parser converts PostgreSQL text into encryptrewrite statements.
// It is safe for concurrent use.
type Parser struct {
	maxAndPredicates int
}

// ParseOption configures a Parser.
type ParseOption func(*Parser)

// WithMaxAndPredicates caps the number of AND groups a single WHERE clause is
// expanded into. Beyond it, all predicates of the clause form one group.
// Default is 1024.
func WithMaxAndPredicates(n int) ParseOption {
	return func(p *Parser) {
		p.maxAndPredicates = n
	}
}

// NewParser creates a Parser.
func NewParser(opts ...ParseOption) *Parser {
	p := &Parser{maxAndPredicates: defaultMaxAndPredicates}
	for _, opt := range opts {
		opt(p)
	}
	if p.maxAndPredicates <= 0 {
		p.maxAndPredicates = defaultMaxAndPredicates
	}
	return p
}

// Parse parses sql with a default Parser.
func Parse(sql string, opts ...ParseOption) ([]encryptrewrite.Statement, error) {
	return NewParser(opts...).Parse(sql)
}

// Parse parses sql, which may hold several semicolon-separated statements.
func (p *Parser) Parse(sql string) ([]encryptrewrite.Statement, error) {
	tree, err := pg_query.Parse(sql)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}

	b := &builder{sql: sql, maxAndPredicates: p.maxAndPredicates}
	for _, raw := range tree.Stmts {
		if err := b.statement(raw.Stmt); err != nil {
			return nil, err
		}
	}
	return b.stmts, nil
}

// builder accumulates the statements found while walking one parse tree.
type builder struct {
	sql              string
	maxAndPredicates int
	stmts            []encryptrewrite.Statement
}

func (b *builder) statement(node *pg_query.Node) error {
	if node == nil {
		return nil
	}
	switch n := node.Node.(type) {
	case *pg_query.Node_SelectStmt:
		return b.selectStmt(n.SelectStmt)
	case *pg_query.Node_UpdateStmt:
		return b.updateStmt(n.UpdateStmt)
	case *pg_query.Node_DeleteStmt:
		return b.deleteStmt(n.DeleteStmt)
	case *pg_query.Node_InsertStmt:
		return b.insertStmt(n.InsertStmt)
	default:
		b.stmts = append(b.stmts, &encryptrewrite.UnsupportedStatement{Kind: kindOf(node)})
		return nil
	}
}

func (b *builder) selectStmt(sel *pg_query.SelectStmt) error {
	if sel == nil {
		return nil
	}
	if err := b.withClause(sel.WithClause); err != nil {
		return err
	}
	if sel.Larg != nil || sel.Rarg != nil {
		if err := b.selectStmt(sel.Larg); err != nil {
			return err
		}
		return b.selectStmt(sel.Rarg)
	}
	if len(sel.ValuesLists) > 0 {
		// VALUES (...), only subqueries inside the rows are statements
		return b.subqueriesOf(sel.ValuesLists)
	}

	stmt := &encryptrewrite.SelectStatement{}
	// Register before walking so outer statements precede their subqueries.
	b.stmts = append(b.stmts, stmt)

	tables, err := b.fromClause(sel.FromClause)
	if err != nil {
		return err
	}
	stmt.TableRefs = tables

	if stmt.Where, err = b.where(sel.WhereClause); err != nil {
		return err
	}
	for _, target := range sel.TargetList {
		if err := b.subqueries(target); err != nil {
			return err
		}
	}
	return b.subqueries(sel.HavingClause)
}

func (b *builder) updateStmt(upd *pg_query.UpdateStmt) error {
	if err := b.withClause(upd.WithClause); err != nil {
		return err
	}
	stmt := &encryptrewrite.UpdateStatement{}
	b.stmts = append(b.stmts, stmt)

	if upd.Relation != nil {
		stmt.TableRefs = append(stmt.TableRefs, b.table(upd.Relation))
	}
	tables, err := b.fromClause(upd.FromClause)
	if err != nil {
		return err
	}
	stmt.TableRefs = append(stmt.TableRefs, tables...)

	for _, target := range upd.TargetList {
		if err := b.subqueries(target); err != nil {
			return err
		}
	}
	stmt.Where, err = b.where(upd.WhereClause)
	return err
}

func (b *builder) deleteStmt(del *pg_query.DeleteStmt) error {
	if err := b.withClause(del.WithClause); err != nil {
		return err
	}
	stmt := &encryptrewrite.DeleteStatement{}
	b.stmts = append(b.stmts, stmt)

	if del.Relation != nil {
		stmt.TableRefs = append(stmt.TableRefs, b.table(del.Relation))
	}
	tables, err := b.fromClause(del.UsingClause)
	if err != nil {
		return err
	}
	stmt.TableRefs = append(stmt.TableRefs, tables...)

	stmt.Where, err = b.where(del.WhereClause)
	return err
}

func (b *builder) insertStmt(ins *pg_query.InsertStmt) error {
	if err := b.withClause(ins.WithClause); err != nil {
		return err
	}
	stmt := &encryptrewrite.InsertStatement{}
	b.stmts = append(b.stmts, stmt)
	if ins.Relation != nil {
		stmt.TableRefs = append(stmt.TableRefs, b.table(ins.Relation))
	}
	// INSERT ... SELECT
	return b.statement(ins.SelectStmt)
}

func (b *builder) withClause(with *pg_query.WithClause) error {
	if with == nil {
		return nil
	}
	for _, cte := range with.Ctes {
		if c := cte.GetCommonTableExpr(); c != nil {
			if err := b.statement(c.Ctequery); err != nil {
				return err
			}
		}
	}
	return nil
}

// fromClause returns the tables of a FROM list. Derived tables become
// statements of their own.
func (b *builder) fromClause(items []*pg_query.Node) ([]encryptrewrite.TableSegment, error) {
	var tables []encryptrewrite.TableSegment
	for _, item := range items {
		if err := b.fromItem(item, &tables); err != nil {
			return nil, err
		}
	}
	return tables, nil
}

func (b *builder) fromItem(node *pg_query.Node, tables *[]encryptrewrite.TableSegment) error {
	if node == nil {
		return nil
	}
	switch n := node.Node.(type) {
	case *pg_query.Node_RangeVar:
		*tables = append(*tables, b.table(n.RangeVar))
	case *pg_query.Node_JoinExpr:
		if err := b.fromItem(n.JoinExpr.Larg, tables); err != nil {
			return err
		}
		if err := b.fromItem(n.JoinExpr.Rarg, tables); err != nil {
			return err
		}
		return b.subqueries(n.JoinExpr.Quals)
	case *pg_query.Node_RangeSubselect:
		return b.statement(n.RangeSubselect.Subquery)
	}
	return nil
}

func (b *builder) table(rv *pg_query.RangeVar) encryptrewrite.TableSegment {
	t := encryptrewrite.TableSegment{
		Name:  caseSensitive(rv.Relname),
		Alias: caseSensitive(rv.GetAlias().GetAliasname()),
		Start: int(rv.Location),
		Stop:  int(rv.Location) + len(rv.Relname) - 1,
	}
	parts := 1
	if rv.Schemaname != "" {
		parts++
	}
	if rv.Catalogname != "" {
		parts++
	}
	if spans, ok := identifierSpans(b.sql, t.Start, parts); ok {
		t.Stop = spans[len(spans)-1].stop
	}
	return t
}

func (b *builder) where(node *pg_query.Node) (*encryptrewrite.WhereSegment, error) {
	if node == nil {
		return nil, nil
	}
	groups, ok := b.dnf(node)
	if !ok {
		// Every occurrence resolves the same way in any group, so one
		// group holding all predicates yields the same tokens.
		groups = predicateGroups{b.predicates(node, nil)}
	}
	if err := b.subqueries(node); err != nil {
		return nil, err
	}
	where := &encryptrewrite.WhereSegment{AndPredicates: make([]encryptrewrite.AndPredicate, 0, len(groups))}
	for _, g := range groups {
		where.AndPredicates = append(where.AndPredicates, encryptrewrite.AndPredicate{Predicates: g})
	}
	return where, nil
}

// kindOf names a node's statement type, e.g. "CreateStmt".
func kindOf(node *pg_query.Node) string {
	if node.Node == nil {
		return "Unknown"
	}
	name := reflect.TypeOf(node.Node).Elem().Name()
	return strings.TrimPrefix(name, "Node_")
}
