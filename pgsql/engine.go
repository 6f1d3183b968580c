package pgsql

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"

	"github.com/ai8future/encryptrewrite"

	"golang.org/x/sync/errgroup"
)

// Engine parses PostgreSQL text and rewrites predicates on encrypted columns.
// It is safe for concurrent use.
type Engine struct {
	parser      *Parser
	generator   *encryptrewrite.PredicateColumnTokenGenerator
	rewriter    *encryptrewrite.Rewriter
	concurrency int
	logger      *slog.Logger
}

// Option configures an Engine.
type Option func(*engineConfig)

type engineConfig struct {
	parseOpts   []ParseOption
	ruleOpts    []encryptrewrite.Option
	concurrency int
	logger      *slog.Logger
}

// WithParseOptions passes options to the engine's Parser.
func WithParseOptions(opts ...ParseOption) Option {
	return func(c *engineConfig) {
		c.parseOpts = append(c.parseOpts, opts...)
	}
}

// WithRewriteOptions passes options to the engine's token generator.
func WithRewriteOptions(opts ...encryptrewrite.Option) Option {
	return func(c *engineConfig) {
		c.ruleOpts = append(c.ruleOpts, opts...)
	}
}

// WithConcurrency bounds the number of statements RewriteBatch processes at
// once. Default is GOMAXPROCS.
func WithConcurrency(n int) Option {
	return func(c *engineConfig) {
		c.concurrency = n
	}
}

// WithLogger sets the logger used by the engine and its generator.
func WithLogger(logger *slog.Logger) Option {
	return func(c *engineConfig) {
		c.logger = logger
	}
}

// NewEngine creates an Engine for rule.
func NewEngine(rule *encryptrewrite.EncryptRule, opts ...Option) *Engine {
	cfg := &engineConfig{}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.logger == nil {
		cfg.logger = slog.New(slog.DiscardHandler)
	}
	if cfg.concurrency <= 0 {
		cfg.concurrency = runtime.GOMAXPROCS(0)
	}

	ruleOpts := append([]encryptrewrite.Option{encryptrewrite.WithLogger(cfg.logger)}, cfg.ruleOpts...)
	generator := encryptrewrite.NewPredicateColumnTokenGenerator(rule, ruleOpts...)
	return &Engine{
		parser:      NewParser(cfg.parseOpts...),
		generator:   generator,
		rewriter:    encryptrewrite.NewRewriter([]encryptrewrite.SQLTokenGenerator{generator}, encryptrewrite.WithLogger(cfg.logger)),
		concurrency: cfg.concurrency,
		logger:      cfg.logger,
	}
}

// QueryWithCipherColumn returns the query policy the engine rewrites with.
func (e *Engine) QueryWithCipherColumn() bool {
	return e.generator.QueryWithCipherColumn()
}

// Tokens parses sql and returns the distinct substitution tokens for all of
// its statements.
func (e *Engine) Tokens(sql string) ([]encryptrewrite.SQLToken, error) {
	stmts, err := e.parser.Parse(sql)
	if err != nil {
		return nil, err
	}
	set := encryptrewrite.NewTokenSet()
	for _, stmt := range stmts {
		set.AddAll(e.rewriter.GenerateSQLTokens(encryptrewrite.NewStatementContext(stmt)))
	}
	return set.Tokens(), nil
}

// Rewrite parses sql and returns it with encrypted predicate columns replaced.
func (e *Engine) Rewrite(sql string) (string, error) {
	tokens, err := e.Tokens(sql)
	if err != nil {
		return "", err
	}
	if len(tokens) == 0 {
		return sql, nil
	}
	e.logger.Debug("rewriting sql", "tokens", len(tokens))
	return encryptrewrite.Rewrite(sql, tokens)
}

// RewriteBatch rewrites independent SQL texts concurrently. Results are in
// input order. The first failure cancels statements not yet started.
func (e *Engine) RewriteBatch(ctx context.Context, sqls []string) ([]string, error) {
	results := make([]string, len(sqls))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.concurrency)
	for i, sql := range sqls {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			out, err := e.Rewrite(sql)
			if err != nil {
				return fmt.Errorf("pgsql: statement %d: %w", i, err)
			}
			results[i] = out
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
