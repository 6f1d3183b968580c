package encryptrewrite

import "sort"

// RelationMetas records which physical columns each table has.
// It is used to place unqualified columns when a statement references
// more than one table. Safe for concurrent reads.
type RelationMetas struct {
	tables map[string]map[string]struct{}
}

// NewRelationMetas builds relation metadata from table -> column names.
// Table and column names are normalized with NormalizeIdentifier.
func NewRelationMetas(columnsByTable map[string][]string) *RelationMetas {
	m := &RelationMetas{tables: make(map[string]map[string]struct{}, len(columnsByTable))}
	for table, columns := range columnsByTable {
		key := NormalizeIdentifier(table)
		set, ok := m.tables[key]
		if !ok {
			set = make(map[string]struct{}, len(columns))
			m.tables[key] = set
		}
		for _, column := range columns {
			set[NormalizeIdentifier(column)] = struct{}{}
		}
	}
	return m
}

// ContainsTable reports whether metadata is known for table.
func (m *RelationMetas) ContainsTable(table string) bool {
	if m == nil {
		return false
	}
	_, ok := m.tables[NormalizeIdentifier(table)]
	return ok
}

// ContainsColumn reports whether table has a column named column.
func (m *RelationMetas) ContainsColumn(table, column string) bool {
	if m == nil {
		return false
	}
	columns, ok := m.tables[NormalizeIdentifier(table)]
	if !ok {
		return false
	}
	_, ok = columns[NormalizeIdentifier(column)]
	return ok
}

// TableNames returns the known table names, sorted.
func (m *RelationMetas) TableNames() []string {
	if m == nil {
		return nil
	}
	names := make([]string, 0, len(m.tables))
	for name := range m.tables {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// TablesContext holds the tables referenced by one statement.
type TablesContext struct {
	tables []TableSegment
}

// NewTablesContext creates a TablesContext from the statement's table segments.
// Repeated references to the same table under the same alias are kept once.
func NewTablesContext(tables []TableSegment) *TablesContext {
	seen := make(map[[2]string]struct{}, len(tables))
	deduped := make([]TableSegment, 0, len(tables))
	for _, t := range tables {
		key := [2]string{NormalizeIdentifier(t.Name), NormalizeIdentifier(t.Alias)}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		deduped = append(deduped, t)
	}
	return &TablesContext{tables: deduped}
}

// Tables returns the distinct tables of the statement.
func (c *TablesContext) Tables() []TableSegment {
	return c.tables
}

// TableNames returns the distinct table names of the statement.
func (c *TablesContext) TableNames() []string {
	seen := make(map[string]struct{}, len(c.tables))
	names := make([]string, 0, len(c.tables))
	for _, t := range c.tables {
		key := NormalizeIdentifier(t.Name)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		names = append(names, t.Name)
	}
	return names
}

// FindTableName resolves the table owning column.
//
// A qualified column resolves against table aliases first, then table names.
// An unqualified column resolves to the only table of a single-table statement,
// or to the one table whose metadata contains the column. Anything ambiguous
// or unknown is reported as not found.
func (c *TablesContext) FindTableName(column ColumnSegment, metas *RelationMetas) (string, bool) {
	if column.Owner != nil {
		return c.findTableNameByOwner(column.Owner.Name)
	}
	names := c.TableNames()
	if len(names) == 1 {
		return names[0], true
	}
	found := ""
	for _, name := range names {
		if !metas.ContainsColumn(name, column.Name) {
			continue
		}
		if found != "" {
			return "", false
		}
		found = name
	}
	return found, found != ""
}

func (c *TablesContext) findTableNameByOwner(owner string) (string, bool) {
	for _, t := range c.tables {
		if t.Alias != "" && equalIdentifiers(t.Alias, owner) {
			return t.Name, true
		}
	}
	for _, t := range c.tables {
		if equalIdentifiers(t.Name, owner) {
			return t.Name, true
		}
	}
	return "", false
}
