// Package encryptrewrite rewrites SQL predicates that reference encrypted columns.
//
// Applications that encrypt columns client-side store each logical column as
// one or more physical columns: a cipher column with the ciphertext, an
// optional plain column with the plaintext kept during migrations, and an
// optional assisted query column holding a deterministic blind index for
// equality search. SQL written against the logical schema must have its
// predicates pointed at the right physical column before it reaches the
// database.
//
// The package does not re-render SQL. It computes substitution tokens, exact
// byte ranges plus replacement text, and splices them into the original
// statement, so everything else in the text is preserved byte for byte.
//
// # Rules
//
// An EncryptRule maps tables and logical columns to physical columns and
// encryptors. It is usually loaded from YAML:
//
//	query_with_cipher_column: true
//	encryptors:
//	  ssn_encryptor:
//	    type: SECRETBOX_ASSISTED
//	    props:
//	      key_id: v1
//	      key: <base64 of 32 bytes>
//	tables:
//	  t_user:
//	    columns:
//	      ssn:
//	        cipher_column: ssn_cipher
//	        assisted_query_column: ssn_assisted
//	        encryptor: ssn_encryptor
//
//	rule, err := encryptrewrite.LoadEncryptRule("encrypt.yaml")
//
// # Column Selection
//
// For each column reference in a WHERE predicate, first match wins:
//
//   - the plain column, when the session does not query with the cipher
//     column (WithQueryWithCipherColumn(false)) and the column keeps one;
//   - the assisted query column, when the column has one;
//   - the cipher column.
//
// Columns whose table cannot be resolved unambiguously, or that are not
// encrypted, are left untouched.
//
// # Rewriting
//
// The pgsql subpackage parses PostgreSQL text into Statements. With a parsed
// statement in hand:
//
//	gen := encryptrewrite.NewPredicateColumnTokenGenerator(rule)
//	rw := encryptrewrite.NewRewriter([]encryptrewrite.SQLTokenGenerator{gen})
//	out, err := rw.Rewrite(sql, encryptrewrite.NewStatementContext(stmt))
//
// Given "SELECT * FROM t_user u WHERE u.ssn = $1", out is
// "SELECT * FROM t_user u WHERE u.ssn_assisted = $1". The owner qualifier is
// never rewritten, only the column identifier after it.
//
// # Concurrency
//
// Rules, generators and rewriters are immutable after construction and may be
// shared between goroutines without locking.
package encryptrewrite
