package encryptrewrite

import (
	"fmt"
	"sort"
	"strings"

	"github.com/ai8future/encryptrewrite/encryptor"
)

// EncryptColumn describes how one logical column is stored.
type EncryptColumn struct {
	// CipherColumn is the physical column holding ciphertext. Always set.
	CipherColumn string
	// PlainColumn is an optional physical column holding the plaintext.
	PlainColumn string
	// AssistedQueryColumn is an optional physical column holding
	// deterministic search values.
	AssistedQueryColumn string
	// Encryptor encrypts the column's values. Always set.
	Encryptor encryptor.Encryptor
}

// EncryptTable holds the encrypted columns of one logical table.
type EncryptTable struct {
	name    string
	columns map[string]*EncryptColumn
	logic   []string
}

// Name returns the table name as configured.
func (t *EncryptTable) Name() string {
	return t.name
}

// LogicColumns returns the configured logical column names, sorted.
func (t *EncryptTable) LogicColumns() []string {
	return t.logic
}

func (t *EncryptTable) column(logicColumn string) (*EncryptColumn, bool) {
	c, ok := t.columns[NormalizeIdentifier(logicColumn)]
	return c, ok
}

// FindEncryptor returns the encryptor of logicColumn, if the column is encrypted.
func (t *EncryptTable) FindEncryptor(logicColumn string) (encryptor.Encryptor, bool) {
	c, ok := t.column(logicColumn)
	if !ok {
		return nil, false
	}
	return c.Encryptor, true
}

// FindPlainColumn returns the plain column of logicColumn, if one is kept.
func (t *EncryptTable) FindPlainColumn(logicColumn string) (string, bool) {
	c, ok := t.column(logicColumn)
	if !ok || c.PlainColumn == "" {
		return "", false
	}
	return c.PlainColumn, true
}

// FindAssistedQueryColumn returns the assisted query column of logicColumn, if any.
func (t *EncryptTable) FindAssistedQueryColumn(logicColumn string) (string, bool) {
	c, ok := t.column(logicColumn)
	if !ok || c.AssistedQueryColumn == "" {
		return "", false
	}
	return c.AssistedQueryColumn, true
}

// CipherColumn returns the cipher column of logicColumn.
// It panics if logicColumn is not encrypted; check FindEncryptor first.
func (t *EncryptTable) CipherColumn(logicColumn string) string {
	c, ok := t.column(logicColumn)
	if !ok {
		panic(fmt.Sprintf("encryptrewrite: column %q of table %q is not encrypted", logicColumn, t.name))
	}
	return c.CipherColumn
}

// EncryptRule maps logical tables and columns to their encrypted storage.
// It is immutable after construction and safe for concurrent use.
type EncryptRule struct {
	tables                map[string]*EncryptTable
	encryptors            map[string]encryptor.Encryptor
	relations             *RelationMetas
	queryWithCipherColumn bool
}

// NewEncryptRule builds and validates an EncryptRule from cfg.
//
// Every column must name a cipher column and a configured encryptor, and a
// column with an assisted query column must use an encryptor implementing
// encryptor.QueryAssistedEncryptor.
func NewEncryptRule(cfg RuleConfig) (*EncryptRule, error) {
	r := &EncryptRule{
		tables:                make(map[string]*EncryptTable, len(cfg.Tables)),
		encryptors:            make(map[string]encryptor.Encryptor, len(cfg.Encryptors)),
		queryWithCipherColumn: cfg.queryWithCipherColumn(),
	}

	for _, name := range sortedMapKeys(cfg.Encryptors) {
		ec := cfg.Encryptors[name]
		enc, err := encryptor.New(ec.Type, encryptor.Props(ec.Props))
		if err != nil {
			return nil, fmt.Errorf("encryptrewrite: encryptor %q: %w", name, err)
		}
		r.encryptors[name] = enc
	}

	for _, tableName := range sortedMapKeys(cfg.Tables) {
		key := NormalizeIdentifier(tableName)
		if _, dup := r.tables[key]; dup {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateTable, tableName)
		}
		table, err := r.buildTable(tableName, cfg.Tables[tableName])
		if err != nil {
			return nil, err
		}
		r.tables[key] = table
	}

	if len(cfg.Relations) > 0 {
		r.relations = NewRelationMetas(cfg.Relations)
	}
	return r, nil
}

func (r *EncryptRule) buildTable(name string, tc TableConfig) (*EncryptTable, error) {
	table := &EncryptTable{
		name:    name,
		columns: make(map[string]*EncryptColumn, len(tc.Columns)),
	}
	for _, logic := range sortedMapKeys(tc.Columns) {
		cc := tc.Columns[logic]
		key := NormalizeIdentifier(logic)
		if _, dup := table.columns[key]; dup {
			return nil, fmt.Errorf("%w: %s.%s", ErrDuplicateColumn, name, logic)
		}

		if strings.TrimSpace(cc.CipherColumn) == "" {
			return nil, fmt.Errorf("%w: %s.%s", ErrMissingCipherColumn, name, logic)
		}
		if strings.TrimSpace(cc.Encryptor) == "" {
			return nil, fmt.Errorf("%w: %s.%s", ErrMissingEncryptor, name, logic)
		}
		enc, ok := r.encryptors[cc.Encryptor]
		if !ok {
			return nil, fmt.Errorf("%w: %q for %s.%s", ErrEncryptorNotFound, cc.Encryptor, name, logic)
		}
		if cc.AssistedQueryColumn != "" {
			if _, ok := enc.(encryptor.QueryAssistedEncryptor); !ok {
				return nil, fmt.Errorf("%w: %s.%s uses %s", ErrAssistedQueryUnsupported, name, logic, enc.Type())
			}
		}

		table.columns[key] = &EncryptColumn{
			CipherColumn:        strings.TrimSpace(cc.CipherColumn),
			PlainColumn:         strings.TrimSpace(cc.PlainColumn),
			AssistedQueryColumn: strings.TrimSpace(cc.AssistedQueryColumn),
			Encryptor:           enc,
		}
		table.logic = append(table.logic, logic)
	}
	return table, nil
}

// FindEncryptTable returns the encrypt table configured for the logical table name.
func (r *EncryptRule) FindEncryptTable(tableName string) (*EncryptTable, bool) {
	t, ok := r.tables[NormalizeIdentifier(tableName)]
	return t, ok
}

// FindEncryptor returns the encryptor of table.column, if the column is encrypted.
func (r *EncryptRule) FindEncryptor(tableName, logicColumn string) (encryptor.Encryptor, bool) {
	t, ok := r.FindEncryptTable(tableName)
	if !ok {
		return nil, false
	}
	return t.FindEncryptor(logicColumn)
}

// TableNames returns the configured table names, sorted.
func (r *EncryptRule) TableNames() []string {
	names := make([]string, 0, len(r.tables))
	for _, t := range r.tables {
		names = append(names, t.name)
	}
	sort.Strings(names)
	return names
}

// RelationMetas returns the relation metadata loaded with the rule, or nil.
func (r *EncryptRule) RelationMetas() *RelationMetas {
	return r.relations
}

// QueryWithCipherColumn returns the configured default query policy.
func (r *EncryptRule) QueryWithCipherColumn() bool {
	return r.queryWithCipherColumn
}

// IsEmpty reports whether the rule encrypts nothing.
func (r *EncryptRule) IsEmpty() bool {
	return len(r.tables) == 0
}

// sortedMapKeys returns map keys sorted alphabetically.
func sortedMapKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
