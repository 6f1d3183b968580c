package encryptrewrite

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"
)

// Rewrite applies tokens to sql and returns the patched text.
//
// Exact duplicates are applied once. Tokens whose spans leave the text or
// overlap each other are rejected, since patching them would corrupt the SQL.
func Rewrite(sql string, tokens []SQLToken) (string, error) {
	if len(tokens) == 0 {
		return sql, nil
	}

	set := NewTokenSet()
	set.AddAll(tokens)
	sorted := append([]SQLToken(nil), set.Tokens()...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].StartIndex() < sorted[j].StartIndex()
	})

	var b strings.Builder
	b.Grow(len(sql))
	cursor := 0
	for i, t := range sorted {
		start, stop := t.StartIndex(), t.StopIndex()
		if start < 0 || stop < start || stop >= len(sql) {
			return "", fmt.Errorf("%w: [%d, %d] in %d bytes", ErrTokenOutOfRange, start, stop, len(sql))
		}
		if start < cursor {
			prev := sorted[i-1]
			return "", fmt.Errorf("%w: [%d, %d] %q and [%d, %d] %q", ErrOverlappingTokens,
				prev.StartIndex(), prev.StopIndex(), prev.Text(), start, stop, t.Text())
		}
		b.WriteString(sql[cursor:start])
		b.WriteString(t.Text())
		cursor = stop + 1
	}
	b.WriteString(sql[cursor:])
	return b.String(), nil
}

// Rewriter collects tokens from its generators and applies them.
// It is safe for concurrent use when its generators are.
type Rewriter struct {
	generators []SQLTokenGenerator
	logger     *slog.Logger
}

// NewRewriter creates a Rewriter over generators.
// Only WithLogger applies to a Rewriter.
func NewRewriter(generators []SQLTokenGenerator, opts ...Option) *Rewriter {
	cfg := newConfig(opts)
	return &Rewriter{generators: generators, logger: cfg.logger}
}

// GenerateSQLTokens returns the distinct tokens of every applicable generator.
func (r *Rewriter) GenerateSQLTokens(ctx *StatementContext) []SQLToken {
	set := NewTokenSet()
	for _, g := range r.generators {
		if !g.IsGenerateSQLToken(ctx) {
			continue
		}
		set.AddAll(g.GenerateSQLTokens(ctx))
	}
	return set.Tokens()
}

// Rewrite patches sql, whose parsed form is ctx, with the generated tokens.
func (r *Rewriter) Rewrite(sql string, ctx *StatementContext) (string, error) {
	tokens := r.GenerateSQLTokens(ctx)
	if len(tokens) == 0 {
		return sql, nil
	}
	r.logger.Debug("rewriting statement", "tokens", len(tokens))
	return Rewrite(sql, tokens)
}
