package pgsql

import "strings"

// span is an inclusive byte range.
type span struct {
	start, stop int
}

// identifierSpans scans count dot-separated identifiers starting at pos.
// Whitespace and comments around the dots are allowed, as PostgreSQL allows them.
func identifierSpans(sql string, pos, count int) ([]span, bool) {
	spans := make([]span, 0, count)
	for i := 0; i < count; i++ {
		if i > 0 {
			pos = skipSpace(sql, pos)
			if pos >= len(sql) || sql[pos] != '.' {
				return nil, false
			}
			pos = skipSpace(sql, pos+1)
		}
		stop, ok := scanIdentifier(sql, pos)
		if !ok {
			return nil, false
		}
		spans = append(spans, span{start: pos, stop: stop})
		pos = stop + 1
	}
	return spans, true
}

// scanIdentifier returns the offset of the last byte of the identifier at pos.
func scanIdentifier(sql string, pos int) (int, bool) {
	if pos < 0 || pos >= len(sql) {
		return 0, false
	}
	if sql[pos] == '"' {
		for i := pos + 1; i < len(sql); i++ {
			if sql[i] != '"' {
				continue
			}
			if i+1 < len(sql) && sql[i+1] == '"' {
				i++
				continue
			}
			return i, true
		}
		return 0, false
	}
	if !isIdentStart(sql[pos]) {
		return 0, false
	}
	i := pos + 1
	for i < len(sql) && isIdentPart(sql[i]) {
		i++
	}
	return i - 1, true
}

// skipSpace skips whitespace and comments. Block comments nest.
func skipSpace(sql string, pos int) int {
	for pos < len(sql) {
		switch {
		case sql[pos] == ' ', sql[pos] == '\t', sql[pos] == '\n', sql[pos] == '\r', sql[pos] == '\f':
			pos++
		case strings.HasPrefix(sql[pos:], "--"):
			end := strings.IndexByte(sql[pos:], '\n')
			if end < 0 {
				return len(sql)
			}
			pos += end + 1
		case strings.HasPrefix(sql[pos:], "/*"):
			pos = skipBlockComment(sql, pos)
		default:
			return pos
		}
	}
	return pos
}

func skipBlockComment(sql string, pos int) int {
	depth := 0
	for pos < len(sql) {
		switch {
		case strings.HasPrefix(sql[pos:], "/*"):
			depth++
			pos += 2
		case strings.HasPrefix(sql[pos:], "*/"):
			depth--
			pos += 2
			if depth == 0 {
				return pos
			}
		default:
			pos++
		}
	}
	return pos
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || c >= 0x80
}

func isIdentPart(c byte) bool {
	return isIdentStart(c) || (c >= '0' && c <= '9') || c == '$'
}
