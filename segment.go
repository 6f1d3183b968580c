package encryptrewrite

// Offsets in this package are byte offsets into the original SQL text.
// Every Start/Stop pair is inclusive on both ends.

// OwnerSegment is the qualifier written before a column, as in "u" of "u.email".
type OwnerSegment struct {
	Name  string
	Start int
	Stop  int
}

// ColumnSegment is a single column occurrence.
// Start covers the owner when the column is qualified; Stop is the last byte
// of the column identifier.
type ColumnSegment struct {
	Name  string
	Owner *OwnerSegment
	Start int
	Stop  int
}

// IdentifierStart returns the offset of the bare column identifier,
// one past the owner and its "." separator for qualified columns.
func (c ColumnSegment) IdentifierStart() int {
	if c.Owner != nil {
		return c.Owner.Stop + 2
	}
	return c.Start
}

// PredicateSegment is a comparison predicate whose subject is Column.
type PredicateSegment struct {
	Column ColumnSegment
	Start  int
	Stop   int
}

// AndPredicate groups predicates that must all hold together.
type AndPredicate struct {
	Predicates []PredicateSegment
}

// WhereSegment is a WHERE clause in disjunctive normal form:
// the AND groups are combined by OR.
type WhereSegment struct {
	AndPredicates []AndPredicate
}

// TableSegment is a table referenced by a statement.
type TableSegment struct {
	Name  string
	Alias string
	Start int
	Stop  int
}

// Statement is a parsed SQL statement. The set of implementations is closed.
type Statement interface {
	// Tables returns the tables referenced by the statement, in source order.
	Tables() []TableSegment
	statement()
}

// SelectStatement is a SELECT with an optional WHERE clause.
type SelectStatement struct {
	TableRefs []TableSegment
	Where     *WhereSegment
}

// UpdateStatement is an UPDATE with an optional WHERE clause.
type UpdateStatement struct {
	TableRefs []TableSegment
	Where     *WhereSegment
}

// DeleteStatement is a DELETE with an optional WHERE clause.
type DeleteStatement struct {
	TableRefs []TableSegment
	Where     *WhereSegment
}

// InsertStatement is an INSERT. It never carries a WHERE clause.
type InsertStatement struct {
	TableRefs []TableSegment
}

// UnsupportedStatement is any statement kind the parser does not model.
type UnsupportedStatement struct {
	Kind string
}

func (s *SelectStatement) Tables() []TableSegment      { return s.TableRefs }
func (s *UpdateStatement) Tables() []TableSegment      { return s.TableRefs }
func (s *DeleteStatement) Tables() []TableSegment      { return s.TableRefs }
func (s *InsertStatement) Tables() []TableSegment      { return s.TableRefs }
func (s *UnsupportedStatement) Tables() []TableSegment { return nil }

func (*SelectStatement) statement()      {}
func (*UpdateStatement) statement()      {}
func (*DeleteStatement) statement()      {}
func (*InsertStatement) statement()      {}
func (*UnsupportedStatement) statement() {}

// WhereOf returns the WHERE clause of stmt.
// The second result reports whether the statement kind can carry a WHERE
// clause at all; the clause itself may still be nil.
func WhereOf(stmt Statement) (*WhereSegment, bool) {
	switch s := stmt.(type) {
	case *SelectStatement:
		return s.Where, true
	case *UpdateStatement:
		return s.Where, true
	case *DeleteStatement:
		return s.Where, true
	default:
		return nil, false
	}
}
