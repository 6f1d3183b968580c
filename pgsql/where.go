package pgsql

import (
	"strings"

	"github.com/ai8future/encryptrewrite"

	pg_query "github.com/pganalyze/pg_query_go/v6"
)

type predicateGroups = [][]encryptrewrite.PredicateSegment

var comparisonOperators = map[string]bool{
	"=":  true,
	"<>": true,
	"!=": true,
	"<":  true,
	"<=": true,
	">":  true,
	">=": true,
}

// dnf flattens a boolean expression into OR-combined AND groups.
//
//	a AND (b OR c)  ->  [a b] [a c]
//
// NOT subtrees are not pushed down; their predicates form a single group.
// Expressions that are not predicates contribute an empty group.
// It reports false once the expansion would exceed maxAndPredicates groups.
func (b *builder) dnf(node *pg_query.Node) (predicateGroups, bool) {
	n, ok := node.Node.(*pg_query.Node_BoolExpr)
	if !ok {
		return predicateGroups{b.predicatesOf(node)}, true
	}
	switch n.BoolExpr.Boolop {
	case pg_query.BoolExprType_AND_EXPR:
		result := predicateGroups{nil}
		for _, arg := range n.BoolExpr.Args {
			child, ok := b.dnf(arg)
			if !ok || len(result)*len(child) > b.maxAndPredicates {
				return nil, false
			}
			result = product(result, child)
		}
		return result, true
	case pg_query.BoolExprType_OR_EXPR:
		var result predicateGroups
		for _, arg := range n.BoolExpr.Args {
			child, ok := b.dnf(arg)
			if !ok {
				return nil, false
			}
			result = append(result, child...)
			if len(result) > b.maxAndPredicates {
				return nil, false
			}
		}
		return result, true
	default:
		return predicateGroups{b.predicates(node, nil)}, true
	}
}

// product combines every group of left with every group of right.
func product(left, right predicateGroups) predicateGroups {
	result := make(predicateGroups, 0, len(left)*len(right))
	for _, l := range left {
		for _, r := range right {
			group := make([]encryptrewrite.PredicateSegment, 0, len(l)+len(r))
			group = append(group, l...)
			result = append(result, append(group, r...))
		}
	}
	return result
}

// predicates collects every predicate below node, ignoring boolean structure.
func (b *builder) predicates(node *pg_query.Node, acc []encryptrewrite.PredicateSegment) []encryptrewrite.PredicateSegment {
	if node == nil {
		return acc
	}
	if n, ok := node.Node.(*pg_query.Node_BoolExpr); ok {
		for _, arg := range n.BoolExpr.Args {
			acc = b.predicates(arg, acc)
		}
		return acc
	}
	return append(acc, b.predicatesOf(node)...)
}

// predicatesOf returns one predicate per column compared by a single
// expression; "a.ssn = b.ssn" yields two.
func (b *builder) predicatesOf(node *pg_query.Node) []encryptrewrite.PredicateSegment {
	switch n := node.Node.(type) {
	case *pg_query.Node_AExpr:
		return b.comparison(n.AExpr)
	case *pg_query.Node_NullTest:
		if p, ok := b.predicate(n.NullTest.Arg, int(n.NullTest.Location)); ok {
			return []encryptrewrite.PredicateSegment{p}
		}
	}
	return nil
}

// comparison recognizes comparison, pattern, ANY/ALL, DISTINCT, IN and
// BETWEEN expressions over columns.
func (b *builder) comparison(expr *pg_query.A_Expr) []encryptrewrite.PredicateSegment {
	bothSides := true
	switch expr.Kind {
	case pg_query.A_Expr_Kind_AEXPR_OP,
		pg_query.A_Expr_Kind_AEXPR_OP_ANY,
		pg_query.A_Expr_Kind_AEXPR_OP_ALL:
		if !comparisonOperators[operatorName(expr.Name)] {
			return nil
		}
	case pg_query.A_Expr_Kind_AEXPR_DISTINCT,
		pg_query.A_Expr_Kind_AEXPR_NOT_DISTINCT,
		pg_query.A_Expr_Kind_AEXPR_LIKE,
		pg_query.A_Expr_Kind_AEXPR_ILIKE,
		pg_query.A_Expr_Kind_AEXPR_SIMILAR:
	case pg_query.A_Expr_Kind_AEXPR_IN,
		pg_query.A_Expr_Kind_AEXPR_BETWEEN,
		pg_query.A_Expr_Kind_AEXPR_NOT_BETWEEN,
		pg_query.A_Expr_Kind_AEXPR_BETWEEN_SYM,
		pg_query.A_Expr_Kind_AEXPR_NOT_BETWEEN_SYM:
		// the right operand is a list
		bothSides = false
	default:
		return nil
	}

	loc := int(expr.Location)
	var result []encryptrewrite.PredicateSegment
	if p, ok := b.predicate(expr.Lexpr, loc); ok {
		result = append(result, p)
	}
	if bothSides {
		if p, ok := b.predicate(expr.Rexpr, loc); ok {
			result = append(result, p)
		}
	}
	return result
}

// predicate builds the predicate whose subject is the column at node, if any.
// Type casts around the column are looked through.
func (b *builder) predicate(node *pg_query.Node, loc int) (encryptrewrite.PredicateSegment, bool) {
	for node.GetTypeCast() != nil {
		node = node.GetTypeCast().GetArg()
	}
	ref := node.GetColumnRef()
	if ref == nil {
		return encryptrewrite.PredicateSegment{}, false
	}
	column, ok := b.column(ref)
	if !ok {
		return encryptrewrite.PredicateSegment{}, false
	}

	p := encryptrewrite.PredicateSegment{Column: column, Start: column.Start, Stop: column.Stop}
	if loc >= 0 {
		p.Start = min(p.Start, loc)
		p.Stop = max(p.Stop, loc)
	}
	return p, true
}

// column locates a column reference in the source text.
// The owner's Stop is placed two bytes before the column identifier so that
// qualifiers written with spaces or comments around the dot still splice correctly.
func (b *builder) column(ref *pg_query.ColumnRef) (encryptrewrite.ColumnSegment, bool) {
	n := len(ref.Fields)
	if n == 0 {
		return encryptrewrite.ColumnSegment{}, false
	}
	names := make([]string, n)
	for i, f := range ref.Fields {
		s := f.GetString_()
		if s == nil {
			// t.*
			return encryptrewrite.ColumnSegment{}, false
		}
		names[i] = caseSensitive(s.Sval)
	}

	spans, ok := identifierSpans(b.sql, int(ref.Location), n)
	if !ok {
		return encryptrewrite.ColumnSegment{}, false
	}
	column := encryptrewrite.ColumnSegment{
		Name:  names[n-1],
		Start: spans[0].start,
		Stop:  spans[n-1].stop,
	}
	if n > 1 {
		column.Owner = &encryptrewrite.OwnerSegment{
			Name:  names[n-2],
			Start: spans[n-2].start,
			Stop:  spans[n-1].start - 2,
		}
	}
	return column, true
}

// caseSensitive re-quotes a name that only a quoted identifier can produce,
// so that identifier normalization keeps its case. PostgreSQL has already
// folded unquoted names to lower case.
func caseSensitive(name string) string {
	if name == strings.ToLower(name) {
		return name
	}
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// subqueries registers every SELECT nested in an expression as a statement.
func (b *builder) subqueries(node *pg_query.Node) error {
	if node == nil {
		return nil
	}
	switch n := node.Node.(type) {
	case *pg_query.Node_SubLink:
		if err := b.subqueries(n.SubLink.Testexpr); err != nil {
			return err
		}
		return b.statement(n.SubLink.Subselect)
	case *pg_query.Node_BoolExpr:
		return b.subqueriesOf(n.BoolExpr.Args)
	case *pg_query.Node_AExpr:
		if err := b.subqueries(n.AExpr.Lexpr); err != nil {
			return err
		}
		return b.subqueries(n.AExpr.Rexpr)
	case *pg_query.Node_List:
		return b.subqueriesOf(n.List.Items)
	case *pg_query.Node_ResTarget:
		return b.subqueries(n.ResTarget.Val)
	case *pg_query.Node_FuncCall:
		return b.subqueriesOf(n.FuncCall.Args)
	case *pg_query.Node_CoalesceExpr:
		return b.subqueriesOf(n.CoalesceExpr.Args)
	case *pg_query.Node_NullTest:
		return b.subqueries(n.NullTest.Arg)
	case *pg_query.Node_TypeCast:
		return b.subqueries(n.TypeCast.Arg)
	case *pg_query.Node_CaseExpr:
		if err := b.subqueries(n.CaseExpr.Arg); err != nil {
			return err
		}
		if err := b.subqueriesOf(n.CaseExpr.Args); err != nil {
			return err
		}
		return b.subqueries(n.CaseExpr.Defresult)
	case *pg_query.Node_CaseWhen:
		if err := b.subqueries(n.CaseWhen.Expr); err != nil {
			return err
		}
		return b.subqueries(n.CaseWhen.Result)
	}
	return nil
}

func (b *builder) subqueriesOf(nodes []*pg_query.Node) error {
	for _, node := range nodes {
		if err := b.subqueries(node); err != nil {
			return err
		}
	}
	return nil
}

// operatorName returns the last element of a possibly schema-qualified operator name.
func operatorName(names []*pg_query.Node) string {
	if len(names) == 0 {
		return ""
	}
	return names[len(names)-1].GetString_().GetSval()
}
