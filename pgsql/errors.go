package pgsql

import "errors"

// ErrParse indicates the SQL text is not valid PostgreSQL.
var ErrParse = errors.New("pgsql: parse failed")
