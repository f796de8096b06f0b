// Package sqlutil provides dialect-aware SQL text utilities: comment
// stripping, statement splitting and placeholder rebinding.
//
// All functions scan the input with literal and comment state tracking.
// Naive character substitution corrupts queries whose string literals
// contain the separator or placeholder characters, so every scanner in
// this package understands single-quoted literals (with doubled-quote escaping),
// double-quoted identifiers, line comments (--) and block comments.
package sqlutil

import (
	"strconv"
	"strings"

	"github.com/stokaro/seshat/core/platform"
)

type scanState int

const (
	stateNormal scanState = iota
	stateSingleQuote
	stateDoubleQuote
	stateLineComment
	stateBlockComment
)

// StripComments removes line comments (-- ...) and block comments
// (/* ... */) from sql while preserving string literal content.
// Line comments are replaced by a newline so statement boundaries survive.
func StripComments(sql string) string {
	var out strings.Builder
	out.Grow(len(sql))

	state := stateNormal
	for i := 0; i < len(sql); i++ {
		c := sql[i]
		switch state {
		case stateNormal:
			switch {
			case c == '\'':
				state = stateSingleQuote
				out.WriteByte(c)
			case c == '"':
				state = stateDoubleQuote
				out.WriteByte(c)
			case c == '-' && i+1 < len(sql) && sql[i+1] == '-':
				state = stateLineComment
				i++
			case c == '/' && i+1 < len(sql) && sql[i+1] == '*':
				state = stateBlockComment
				i++
			default:
				out.WriteByte(c)
			}
		case stateSingleQuote:
			out.WriteByte(c)
			if c == '\'' {
				// Doubled quote is an escaped quote, not a terminator.
				if i+1 < len(sql) && sql[i+1] == '\'' {
					out.WriteByte(sql[i+1])
					i++
				} else {
					state = stateNormal
				}
			}
		case stateDoubleQuote:
			out.WriteByte(c)
			if c == '"' {
				state = stateNormal
			}
		case stateLineComment:
			if c == '\n' {
				state = stateNormal
				out.WriteByte(c)
			}
		case stateBlockComment:
			if c == '*' && i+1 < len(sql) && sql[i+1] == '/' {
				state = stateNormal
				i++
			}
		}
	}

	return out.String()
}

// SplitStatements splits a schema document into individual statements on
// semicolon boundaries outside literals and comments. Empty and
// whitespace-only fragments are discarded. Statement order is preserved:
// callers rely on referenced tables appearing before referencing tables.
func SplitStatements(sql string) []string {
	sql = StripComments(sql)

	var statements []string
	var current strings.Builder

	state := stateNormal
	for i := 0; i < len(sql); i++ {
		c := sql[i]
		switch state {
		case stateNormal:
			switch {
			case c == '\'':
				state = stateSingleQuote
				current.WriteByte(c)
			case c == '"':
				state = stateDoubleQuote
				current.WriteByte(c)
			case c == ';':
				if stmt := strings.TrimSpace(current.String()); stmt != "" {
					statements = append(statements, stmt)
				}
				current.Reset()
			default:
				current.WriteByte(c)
			}
		case stateSingleQuote:
			current.WriteByte(c)
			if c == '\'' {
				if i+1 < len(sql) && sql[i+1] == '\'' {
					current.WriteByte(sql[i+1])
					i++
				} else {
					state = stateNormal
				}
			}
		case stateDoubleQuote:
			current.WriteByte(c)
			if c == '"' {
				state = stateNormal
			}
		}
	}

	if stmt := strings.TrimSpace(current.String()); stmt != "" {
		statements = append(statements, stmt)
	}

	return statements
}

// Rebind rewrites neutral `?` placeholders into the dialect's native
// placeholder syntax. PostgreSQL uses numbered placeholders ($1..$n),
// assigned left to right. SQLite and MySQL consume `?` natively and the
// query is returned unchanged. Placeholder characters inside string
// literals, quoted identifiers and comments are never rewritten.
func Rebind(sql string, dialect string) string {
	if platform.NormalizeDialect(dialect) != platform.Postgres {
		return sql
	}

	var out strings.Builder
	out.Grow(len(sql) + 8)

	state := stateNormal
	n := 0
	for i := 0; i < len(sql); i++ {
		c := sql[i]
		switch state {
		case stateNormal:
			switch {
			case c == '?':
				n++
				out.WriteByte('$')
				out.WriteString(strconv.Itoa(n))
				continue
			case c == '\'':
				state = stateSingleQuote
			case c == '"':
				state = stateDoubleQuote
			case c == '-' && i+1 < len(sql) && sql[i+1] == '-':
				state = stateLineComment
			case c == '/' && i+1 < len(sql) && sql[i+1] == '*':
				state = stateBlockComment
			}
		case stateSingleQuote:
			if c == '\'' {
				if i+1 < len(sql) && sql[i+1] == '\'' {
					out.WriteByte(c)
					i++
					out.WriteByte(sql[i])
					continue
				}
				state = stateNormal
			}
		case stateDoubleQuote:
			if c == '"' {
				state = stateNormal
			}
		case stateLineComment:
			if c == '\n' {
				state = stateNormal
			}
		case stateBlockComment:
			if c == '*' && i+1 < len(sql) && sql[i+1] == '/' {
				out.WriteByte(c)
				i++
				out.WriteByte(sql[i])
				state = stateNormal
				continue
			}
		}
		out.WriteByte(c)
	}

	return out.String()
}

// CountPlaceholders returns the number of rewritable `?` placeholders in
// sql, ignoring occurrences inside literals and comments. The store
// execution core rejects statements whose placeholder count does not
// match the bound parameter count before they reach a driver.
func CountPlaceholders(sql string) int {
	n := 0
	state := stateNormal
	for i := 0; i < len(sql); i++ {
		c := sql[i]
		switch state {
		case stateNormal:
			switch {
			case c == '?':
				n++
			case c == '\'':
				state = stateSingleQuote
			case c == '"':
				state = stateDoubleQuote
			case c == '-' && i+1 < len(sql) && sql[i+1] == '-':
				state = stateLineComment
			case c == '/' && i+1 < len(sql) && sql[i+1] == '*':
				state = stateBlockComment
			}
		case stateSingleQuote:
			if c == '\'' {
				if i+1 < len(sql) && sql[i+1] == '\'' {
					i++
				} else {
					state = stateNormal
				}
			}
		case stateDoubleQuote:
			if c == '"' {
				state = stateNormal
			}
		case stateLineComment:
			if c == '\n' {
				state = stateNormal
			}
		case stateBlockComment:
			if c == '*' && i+1 < len(sql) && sql[i+1] == '/' {
				state = stateNormal
				i++
			}
		}
	}
	return n
}
