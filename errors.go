package encryptrewrite

import "errors"

var (
	// ErrMissingCipherColumn indicates an encrypted column mapping has no cipher column.
	ErrMissingCipherColumn = errors.New("encryptrewrite: encrypt column must have a cipher column")

	// ErrEncryptorNotFound indicates a column references an encryptor that is not configured.
	ErrEncryptorNotFound = errors.New("encryptrewrite: encryptor not found")

	// ErrMissingEncryptor indicates a column mapping names no encryptor at all.
	ErrMissingEncryptor = errors.New("encryptrewrite: encrypt column must name an encryptor")

	// ErrAssistedQueryUnsupported indicates an assisted query column is configured
	// but the column's encryptor cannot produce assisted query values.
	ErrAssistedQueryUnsupported = errors.New("encryptrewrite: encryptor does not support assisted query")

	// ErrDuplicateTable indicates two table rules normalize to the same name.
	ErrDuplicateTable = errors.New("encryptrewrite: duplicate encrypt table")

	// ErrDuplicateColumn indicates two column rules of one table normalize to the same name.
	ErrDuplicateColumn = errors.New("encryptrewrite: duplicate encrypt column")

	// ErrInvalidConfig indicates the rule configuration could not be decoded.
	ErrInvalidConfig = errors.New("encryptrewrite: invalid rule configuration")

	// ErrTokenOutOfRange indicates a token span lies outside the SQL text.
	ErrTokenOutOfRange = errors.New("encryptrewrite: token out of range")

	// ErrOverlappingTokens indicates two tokens patch overlapping text with different content.
	ErrOverlappingTokens = errors.New("encryptrewrite: overlapping tokens")
)
