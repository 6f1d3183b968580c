package encryptrewrite

import "fmt"

// SQLToken is a patch to the original SQL text: the inclusive byte range
// [StartIndex, StopIndex] is replaced by Text.
type SQLToken interface {
	StartIndex() int
	StopIndex() int
	Text() string
}

// SubstitutableColumnNameToken replaces a column identifier with a physical column name.
type SubstitutableColumnNameToken struct {
	Start      int
	Stop       int
	ColumnName string
}

// StartIndex implements SQLToken.
func (t SubstitutableColumnNameToken) StartIndex() int { return t.Start }

// StopIndex implements SQLToken.
func (t SubstitutableColumnNameToken) StopIndex() int { return t.Stop }

// Text implements SQLToken.
func (t SubstitutableColumnNameToken) Text() string { return t.ColumnName }

func (t SubstitutableColumnNameToken) String() string {
	return fmt.Sprintf("%d-%d:%s", t.Start, t.Stop, t.ColumnName)
}

// tokenKey is the identity of a token.
type tokenKey struct {
	start, stop int
	text        string
}

// TokenSet collects tokens, dropping exact duplicates and keeping first-seen order.
type TokenSet struct {
	seen   map[tokenKey]struct{}
	tokens []SQLToken
}

// NewTokenSet creates an empty TokenSet.
func NewTokenSet() *TokenSet {
	return &TokenSet{seen: make(map[tokenKey]struct{})}
}

// Add inserts token and reports whether it was not already present.
func (s *TokenSet) Add(token SQLToken) bool {
	key := tokenKey{token.StartIndex(), token.StopIndex(), token.Text()}
	if _, ok := s.seen[key]; ok {
		return false
	}
	s.seen[key] = struct{}{}
	s.tokens = append(s.tokens, token)
	return true
}

// AddAll inserts every token of tokens.
func (s *TokenSet) AddAll(tokens []SQLToken) {
	for _, t := range tokens {
		s.Add(t)
	}
}

// Len returns the number of distinct tokens.
func (s *TokenSet) Len() int {
	return len(s.tokens)
}

// Tokens returns the distinct tokens in first-seen order.
func (s *TokenSet) Tokens() []SQLToken {
	return s.tokens
}
