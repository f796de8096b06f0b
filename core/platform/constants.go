package platform

import (
	"strings"
)

const (
	// SQLite is the embedded single-file backend.
	SQLite = "sqlite"
	// Postgres is the default networked backend.
	Postgres = "postgres"
	// MySQL is the alternate networked backend.
	MySQL = "mysql"
)

// NormalizeDialect maps common dialect spellings onto the canonical names.
// Unknown dialects normalize to the empty string.
func NormalizeDialect(dialect string) string {
	switch strings.ToLower(dialect) {
	case "sqlite", "sqlite3":
		return SQLite
	case "pgx", "postgresql", "postgres":
		return Postgres
	case "mysql":
		return MySQL
	default:
		return ""
	}
}

// IsNetworked reports whether the dialect requires a reachable database
// server before bootstrap can proceed.
func IsNetworked(dialect string) bool {
	switch NormalizeDialect(dialect) {
	case Postgres, MySQL:
		return true
	default:
		return false
	}
}
