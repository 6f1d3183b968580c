package encryptrewrite

import "strings"

// NormalizeIdentifier transforms a SQL identifier into the canonical form
// used for table, alias and column lookups.
//
// Quoted identifiers ("Name", `Name`, [Name]) keep their case with the quotes
// removed and doubled quote characters collapsed. Unquoted identifiers are
// trimmed and folded to lower case.
//
// Example: ` T_User ` -> "t_user", `"T_User"` -> "T_User"
func NormalizeIdentifier(s string) string {
	s = strings.TrimSpace(s)
	if len(s) >= 2 {
		switch {
		case s[0] == '"' && s[len(s)-1] == '"':
			return strings.ReplaceAll(s[1:len(s)-1], `""`, `"`)
		case s[0] == '`' && s[len(s)-1] == '`':
			return strings.ReplaceAll(s[1:len(s)-1], "``", "`")
		case s[0] == '[' && s[len(s)-1] == ']':
			return s[1 : len(s)-1]
		}
	}
	return strings.ToLower(s)
}

// equalIdentifiers reports whether two identifiers refer to the same object.
func equalIdentifiers(a, b string) bool {
	return NormalizeIdentifier(a) == NormalizeIdentifier(b)
}
