package encryptrewrite

import "log/slog"

// Option is a functional option for configuring token generators and rewriters.
type Option func(*config)

// config holds generator configuration.
type config struct {
	queryWithCipherColumn *bool
	relationMetas         *RelationMetas
	logger                *slog.Logger
}

func newConfig(opts []Option) *config {
	cfg := &config{}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.logger == nil {
		cfg.logger = slog.New(slog.DiscardHandler)
	}
	return cfg
}

// WithQueryWithCipherColumn sets the query policy for the rewrite session.
// When false, predicates on columns that keep a plain column are rewritten
// to the plain column. Overrides the rule's configured default.
func WithQueryWithCipherColumn(enabled bool) Option {
	return func(c *config) {
		c.queryWithCipherColumn = &enabled
	}
}

// WithRelationMetas sets the metadata used to place unqualified columns in
// multi-table statements. Overrides the relations loaded with the rule.
func WithRelationMetas(metas *RelationMetas) Option {
	return func(c *config) {
		c.relationMetas = metas
	}
}

// WithLogger sets the logger for skip decisions. Default discards everything.
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) {
		c.logger = logger
	}
}
