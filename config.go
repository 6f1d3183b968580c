package encryptrewrite

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// RuleConfig is the serialized form of an EncryptRule.
type RuleConfig struct {
	// QueryWithCipherColumn is the default query policy. Unset means true.
	QueryWithCipherColumn *bool                      `yaml:"query_with_cipher_column"`
	Encryptors            map[string]EncryptorConfig `yaml:"encryptors"`
	Tables                map[string]TableConfig     `yaml:"tables"`
	// Relations lists the physical columns of each table, used to place
	// unqualified columns in multi-table statements.
	Relations map[string][]string `yaml:"relations"`
}

// EncryptorConfig names an encryptor type and its properties.
type EncryptorConfig struct {
	Type  string            `yaml:"type"`
	Props map[string]string `yaml:"props"`
}

// TableConfig holds the encrypted columns of one table, keyed by logical column name.
type TableConfig struct {
	Columns map[string]ColumnConfig `yaml:"columns"`
}

// ColumnConfig describes one encrypted logical column.
type ColumnConfig struct {
	CipherColumn        string `yaml:"cipher_column"`
	PlainColumn         string `yaml:"plain_column"`
	AssistedQueryColumn string `yaml:"assisted_query_column"`
	Encryptor           string `yaml:"encryptor"`
}

func (c RuleConfig) queryWithCipherColumn() bool {
	if c.QueryWithCipherColumn == nil {
		return true
	}
	return *c.QueryWithCipherColumn
}

// ParseRuleConfig decodes a YAML rule configuration.
func ParseRuleConfig(data []byte) (RuleConfig, error) {
	var cfg RuleConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return RuleConfig{}, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return cfg, nil
}

// LoadRuleConfig reads and decodes a YAML rule configuration file.
func LoadRuleConfig(path string) (RuleConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return RuleConfig{}, err
	}
	return ParseRuleConfig(data)
}

// LoadEncryptRule reads a YAML rule configuration file and builds the rule from it.
func LoadEncryptRule(path string) (*EncryptRule, error) {
	cfg, err := LoadRuleConfig(path)
	if err != nil {
		return nil, err
	}
	return NewEncryptRule(cfg)
}
