package pgsql

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ai8future/encryptrewrite"
)

// groupsOf renders each AND group as "owner.column@start-stop" strings.
func groupsOf(t *testing.T, stmt encryptrewrite.Statement) [][]string {
	t.Helper()
	where, ok := encryptrewrite.WhereOf(stmt)
	require.True(t, ok)
	require.NotNil(t, where)

	groups := make([][]string, 0, len(where.AndPredicates))
	for _, and := range where.AndPredicates {
		group := []string{}
		for _, p := range and.Predicates {
			c := p.Column
			name := c.Name
			if c.Owner != nil {
				name = c.Owner.Name + "." + name
			}
			group = append(group, fmt.Sprintf("%s@%d-%d", name, c.Start, c.Stop))
		}
		groups = append(groups, group)
	}
	return groups
}

func parseOne(t *testing.T, sql string) encryptrewrite.Statement {
	t.Helper()
	stmts, err := Parse(sql)
	require.NoError(t, err)
	require.Len(t, stmts, 1)
	return stmts[0]
}

func TestParse_Select(t *testing.T) {
	sql := "SELECT * FROM t_user u WHERE u.ssn = $1 AND name = $2"
	stmt := parseOne(t, sql)

	sel, ok := stmt.(*encryptrewrite.SelectStatement)
	require.True(t, ok)
	require.Equal(t, []encryptrewrite.TableSegment{{Name: "t_user", Alias: "u", Start: 14, Stop: 19}}, sel.TableRefs)

	require.Len(t, sel.Where.AndPredicates, 1)
	preds := sel.Where.AndPredicates[0].Predicates
	require.Len(t, preds, 2)

	require.Equal(t, encryptrewrite.ColumnSegment{
		Name:  "ssn",
		Owner: &encryptrewrite.OwnerSegment{Name: "u", Start: 29, Stop: 29},
		Start: 29,
		Stop:  33,
	}, preds[0].Column)
	require.Equal(t, 31, preds[0].Column.IdentifierStart())
	require.Equal(t, "ssn", sql[preds[0].Column.IdentifierStart():preds[0].Column.Stop+1])

	require.Equal(t, encryptrewrite.ColumnSegment{Name: "name", Start: 44, Stop: 47}, preds[1].Column)
	require.LessOrEqual(t, preds[1].Start, preds[1].Column.Start)
	require.GreaterOrEqual(t, preds[1].Stop, preds[1].Column.Stop)
}

func TestParse_ColumnOffsets(t *testing.T) {
	tests := []struct {
		name      string
		sql       string
		wantName  string
		wantOwner string
		wantIdent string
	}{
		{"unqualified", "SELECT * FROM t WHERE ssn = $1", "ssn", "", "ssn"},
		{"qualified", "SELECT * FROM t WHERE t.ssn = $1", "ssn", "t", "ssn"},
		{"upper case folded", "SELECT * FROM t WHERE T.SSN = $1", "ssn", "t", "SSN"},
		{"quoted", `SELECT * FROM t WHERE "t"."ssn" = $1`, "ssn", "t", `"ssn"`},
		{"quoted keeps case", `SELECT * FROM t WHERE "t"."SSN" = $1`, `"SSN"`, "t", `"SSN"`},
		{"quoted with escaped quote", `SELECT * FROM t WHERE "a""b" = $1`, `a"b`, "", `"a""b"`},
		{"spaces around dot", "SELECT * FROM t WHERE t . ssn = $1", "ssn", "t", "ssn"},
		{"schema qualified", "SELECT * FROM s.t WHERE s.t.ssn = $1", "ssn", "t", "ssn"},
		{"column on the right", "SELECT * FROM t WHERE $1 = ssn", "ssn", "", "ssn"},
		{"in list", "SELECT * FROM t WHERE ssn IN ($1, $2)", "ssn", "", "ssn"},
		{"not in list", "SELECT * FROM t WHERE ssn NOT IN ($1, $2)", "ssn", "", "ssn"},
		{"between", "SELECT * FROM t WHERE ssn BETWEEN $1 AND $2", "ssn", "", "ssn"},
		{"not between", "SELECT * FROM t WHERE ssn NOT BETWEEN $1 AND $2", "ssn", "", "ssn"},
		{"not equal", "SELECT * FROM t WHERE ssn <> $1", "ssn", "", "ssn"},
		{"less or equal", "SELECT * FROM t WHERE ssn <= $1", "ssn", "", "ssn"},
		{"like", "SELECT * FROM t WHERE ssn LIKE $1", "ssn", "", "ssn"},
		{"ilike", "SELECT * FROM t WHERE t.ssn ILIKE $1", "ssn", "t", "ssn"},
		{"similar to", "SELECT * FROM t WHERE ssn SIMILAR TO $1", "ssn", "", "ssn"},
		{"any", "SELECT * FROM t WHERE ssn = ANY($1)", "ssn", "", "ssn"},
		{"all", "SELECT * FROM t WHERE ssn <> ALL($1)", "ssn", "", "ssn"},
		{"is distinct from", "SELECT * FROM t WHERE ssn IS DISTINCT FROM $1", "ssn", "", "ssn"},
		{"is null", "SELECT * FROM t WHERE ssn IS NULL", "ssn", "", "ssn"},
		{"is not null", "SELECT * FROM t WHERE t.ssn IS NOT NULL", "ssn", "t", "ssn"},
		{"cast", "SELECT * FROM t WHERE ssn::text = $1", "ssn", "", "ssn"},
		{"nested cast", "SELECT * FROM t WHERE CAST(t.ssn::varchar AS text) = $1", "ssn", "t", "ssn"},
		{"block comment after dot", "SELECT * FROM t WHERE t./*c*/ssn = $1", "ssn", "t", "ssn"},
		{"nested comment before dot", "SELECT * FROM t WHERE t /* a /* b */ */.ssn = $1", "ssn", "t", "ssn"},
		{"line comment after dot", "SELECT * FROM t WHERE t. -- c\nssn = $1", "ssn", "t", "ssn"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stmt := parseOne(t, tt.sql)
			where, _ := encryptrewrite.WhereOf(stmt)
			require.Len(t, where.AndPredicates, 1)
			require.Len(t, where.AndPredicates[0].Predicates, 1)

			c := where.AndPredicates[0].Predicates[0].Column
			require.Equal(t, tt.wantName, c.Name)
			if tt.wantOwner == "" {
				require.Nil(t, c.Owner)
			} else {
				require.NotNil(t, c.Owner)
				require.Equal(t, tt.wantOwner, c.Owner.Name)
				require.Greater(t, c.IdentifierStart(), c.Owner.Stop)
			}
			require.Equal(t, tt.wantIdent, tt.sql[c.IdentifierStart():c.Stop+1])
		})
	}
}

func TestParse_IgnoredPredicates(t *testing.T) {
	tests := []struct {
		name string
		sql  string
	}{
		{"regex match", "SELECT * FROM t WHERE ssn ~ $1"},
		{"nullif", "SELECT * FROM t WHERE NULLIF(ssn, $1)"},
		{"is true", "SELECT * FROM t WHERE flag IS TRUE"},
		{"arithmetic", "SELECT * FROM t WHERE ssn + 1 > 2"},
		{"no column", "SELECT * FROM t WHERE $1 = $2"},
		{"function", "SELECT * FROM t WHERE lower(ssn) = $1"},
		{"constant", "SELECT * FROM t WHERE true"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stmt := parseOne(t, tt.sql)
			require.Equal(t, [][]string{{}}, groupsOf(t, stmt))
		})
	}
}

func TestParse_DisjunctiveNormalForm(t *testing.T) {
	tests := []struct {
		name string
		sql  string
		want [][]string
	}{
		{
			name: "and",
			sql:  "SELECT * FROM t WHERE a = 1 AND b = 2",
			want: [][]string{{"a@22-22", "b@32-32"}},
		},
		{
			name: "or",
			sql:  "SELECT * FROM t WHERE a = 1 OR b = 2",
			want: [][]string{{"a@22-22"}, {"b@31-31"}},
		},
		{
			name: "and over or",
			sql:  "SELECT * FROM t WHERE a = 1 AND (b = 2 OR c = 3)",
			want: [][]string{{"a@22-22", "b@33-33"}, {"a@22-22", "c@42-42"}},
		},
		{
			name: "or of ands",
			sql:  "SELECT * FROM t WHERE (a = 1 AND b = 2) OR c = 3",
			want: [][]string{{"a@23-23", "b@33-33"}, {"c@43-43"}},
		},
		{
			name: "two ors",
			sql:  "SELECT * FROM t WHERE (a = 1 OR b = 2) AND (c = 3 OR d = 4)",
			want: [][]string{
				{"a@23-23", "c@44-44"},
				{"a@23-23", "d@53-53"},
				{"b@32-32", "c@44-44"},
				{"b@32-32", "d@53-53"},
			},
		},
		{
			name: "not keeps one group",
			sql:  "SELECT * FROM t WHERE NOT (a = 1 OR b = 2)",
			want: [][]string{{"a@27-27", "b@36-36"}},
		},
		{
			name: "non predicate in and",
			sql:  "SELECT * FROM t WHERE a = 1 AND lower(b) = 'x'",
			want: [][]string{{"a@22-22"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, groupsOf(t, parseOne(t, tt.sql)))
		})
	}
}

func TestParse_ColumnsOnBothSides(t *testing.T) {
	stmt := parseOne(t, "SELECT * FROM t a, t b WHERE a.ssn = b.ssn OR a.x LIKE b.y")
	require.Equal(t, [][]string{
		{"a.ssn@29-33", "b.ssn@37-41"},
		{"a.x@46-48", "b.y@55-57"},
	}, groupsOf(t, stmt))
}

func TestParse_AndGroupLimitFallsBack(t *testing.T) {
	sql := "SELECT * FROM t WHERE (a = 1 OR b = 1) AND (c = 1 OR d = 1) AND (e = 1 OR f = 1)"

	stmts, err := Parse(sql, WithMaxAndPredicates(8))
	require.NoError(t, err)
	require.Len(t, stmts[0].(*encryptrewrite.SelectStatement).Where.AndPredicates, 8)

	stmts, err = Parse(sql, WithMaxAndPredicates(4))
	require.NoError(t, err)
	require.Equal(t, [][]string{{
		"a@23-23", "b@32-32", "c@44-44", "d@53-53", "e@65-65", "f@74-74",
	}}, groupsOf(t, stmts[0]))

	stmts, err = Parse("SELECT * FROM t WHERE a = 1 OR b = 1 OR c = 1", WithMaxAndPredicates(2))
	require.NoError(t, err)
	require.Equal(t, [][]string{{"a@22-22", "b@31-31", "c@40-40"}}, groupsOf(t, stmts[0]))
}

func TestNewParser_DefaultLimit(t *testing.T) {
	require.Equal(t, defaultMaxAndPredicates, NewParser().maxAndPredicates)
	require.Equal(t, defaultMaxAndPredicates, NewParser(WithMaxAndPredicates(0)).maxAndPredicates)
	require.Equal(t, 16, NewParser(WithMaxAndPredicates(16)).maxAndPredicates)
}

func TestParse_Tables(t *testing.T) {
	tests := []struct {
		name string
		sql  string
		want []encryptrewrite.TableSegment
	}{
		{
			name: "schema qualified",
			sql:  "SELECT * FROM public.t_user WHERE ssn = $1",
			want: []encryptrewrite.TableSegment{{Name: "t_user", Start: 14, Stop: 26}},
		},
		{
			name: "join",
			sql:  "SELECT * FROM t_user u JOIN t_order o ON o.user_id = u.id WHERE u.ssn = $1",
			want: []encryptrewrite.TableSegment{
				{Name: "t_user", Alias: "u", Start: 14, Stop: 19},
				{Name: "t_order", Alias: "o", Start: 28, Stop: 34},
			},
		},
		{
			name: "comma join",
			sql:  "SELECT * FROM t_user AS u, t_order WHERE ssn = $1",
			want: []encryptrewrite.TableSegment{
				{Name: "t_user", Alias: "u", Start: 14, Stop: 19},
				{Name: "t_order", Start: 27, Stop: 33},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, parseOne(t, tt.sql).Tables())
		})
	}
}

func TestParse_UpdateDeleteInsert(t *testing.T) {
	stmt := parseOne(t, "UPDATE t_user SET name = $1 WHERE ssn = $2")
	upd, ok := stmt.(*encryptrewrite.UpdateStatement)
	require.True(t, ok)
	require.Equal(t, []encryptrewrite.TableSegment{{Name: "t_user", Start: 7, Stop: 12}}, upd.TableRefs)
	require.Equal(t, [][]string{{"ssn@34-36"}}, groupsOf(t, upd))

	stmt = parseOne(t, "DELETE FROM t_user u USING t_order o WHERE u.id = o.user_id AND u.ssn = $1")
	del, ok := stmt.(*encryptrewrite.DeleteStatement)
	require.True(t, ok)
	require.Equal(t, []encryptrewrite.TableSegment{
		{Name: "t_user", Alias: "u", Start: 12, Stop: 17},
		{Name: "t_order", Alias: "o", Start: 27, Stop: 33},
	}, del.TableRefs)
	require.Equal(t, [][]string{{"u.id@43-46", "o.user_id@50-58", "u.ssn@64-68"}}, groupsOf(t, del))

	stmt = parseOne(t, "INSERT INTO t_user (ssn) VALUES ($1)")
	ins, ok := stmt.(*encryptrewrite.InsertStatement)
	require.True(t, ok)
	require.Equal(t, []encryptrewrite.TableSegment{{Name: "t_user", Start: 12, Stop: 17}}, ins.TableRefs)
	_, hasWhere := encryptrewrite.WhereOf(ins)
	require.False(t, hasWhere)

	stmt = parseOne(t, "UPDATE t_user SET name = $1")
	where, hasWhere := encryptrewrite.WhereOf(stmt)
	require.True(t, hasWhere)
	require.Nil(t, where)
}

func TestParse_NestedStatements(t *testing.T) {
	tests := []struct {
		name   string
		sql    string
		kinds  []string
		tables [][]string
	}{
		{
			name:   "union",
			sql:    "SELECT id FROM t_user WHERE ssn = $1 UNION ALL SELECT id FROM t_admin WHERE ssn = $2",
			kinds:  []string{"select", "select"},
			tables: [][]string{{"t_user"}, {"t_admin"}},
		},
		{
			name:   "subquery in where",
			sql:    "SELECT * FROM t_order WHERE user_id IN (SELECT id FROM t_user WHERE ssn = $1)",
			kinds:  []string{"select", "select"},
			tables: [][]string{{"t_order"}, {"t_user"}},
		},
		{
			name:   "exists",
			sql:    "SELECT * FROM t_order o WHERE EXISTS (SELECT 1 FROM t_user u WHERE u.id = o.user_id AND u.ssn = $1)",
			kinds:  []string{"select", "select"},
			tables: [][]string{{"t_order"}, {"t_user"}},
		},
		{
			name:   "derived table",
			sql:    "SELECT * FROM (SELECT * FROM t_user WHERE ssn = $1) x",
			kinds:  []string{"select", "select"},
			tables: [][]string{nil, {"t_user"}},
		},
		{
			name:   "cte",
			sql:    "WITH x AS (SELECT * FROM t_user WHERE ssn = $1) SELECT * FROM x",
			kinds:  []string{"select", "select"},
			tables: [][]string{{"t_user"}, {"x"}},
		},
		{
			name:   "insert select",
			sql:    "INSERT INTO t_archive SELECT * FROM t_user WHERE ssn = $1",
			kinds:  []string{"insert", "select"},
			tables: [][]string{{"t_archive"}, {"t_user"}},
		},
		{
			name:   "scalar subquery in target list",
			sql:    "SELECT (SELECT count(*) FROM t_user WHERE ssn = $1) FROM t_order",
			kinds:  []string{"select", "select"},
			tables: [][]string{{"t_order"}, {"t_user"}},
		},
		{
			name:   "multiple statements",
			sql:    "SELECT * FROM t WHERE a = 1; SELECT * FROM u WHERE b = 2",
			kinds:  []string{"select", "select"},
			tables: [][]string{{"t"}, {"u"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stmts, err := Parse(tt.sql)
			require.NoError(t, err)

			var kinds []string
			var tables [][]string
			for _, stmt := range stmts {
				switch stmt.(type) {
				case *encryptrewrite.SelectStatement:
					kinds = append(kinds, "select")
				case *encryptrewrite.InsertStatement:
					kinds = append(kinds, "insert")
				default:
					kinds = append(kinds, fmt.Sprintf("%T", stmt))
				}
				var names []string
				for _, ts := range stmt.Tables() {
					names = append(names, ts.Name)
				}
				tables = append(tables, names)
			}
			require.Equal(t, tt.kinds, kinds)
			require.Equal(t, tt.tables, tables)
		})
	}
}

func TestParse_MultipleStatementOffsets(t *testing.T) {
	stmts, err := Parse("SELECT * FROM t WHERE a = 1; SELECT * FROM u WHERE b = 2")
	require.NoError(t, err)
	require.Len(t, stmts, 2)
	require.Equal(t, [][]string{{"a@22-22"}}, groupsOf(t, stmts[0]))
	require.Equal(t, [][]string{{"b@51-51"}}, groupsOf(t, stmts[1]))
}

func TestParse_Unsupported(t *testing.T) {
	stmt := parseOne(t, "CREATE TABLE t_user (id int, ssn text)")
	unsupported, ok := stmt.(*encryptrewrite.UnsupportedStatement)
	require.True(t, ok)
	require.Equal(t, "CreateStmt", unsupported.Kind)
	require.Nil(t, unsupported.Tables())
}

func TestParse_Error(t *testing.T) {
	_, err := Parse("SELEC * FROM t_user")
	require.ErrorIs(t, err, ErrParse)

	_, err = Parse("SELECT * FROM t_user WHERE (ssn = $1")
	require.ErrorIs(t, err, ErrParse)
}

func TestParse_Empty(t *testing.T) {
	stmts, err := Parse("")
	require.NoError(t, err)
	require.Empty(t, stmts)
}
