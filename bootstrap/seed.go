package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sort"
	"strings"

	"github.com/lib/pq"

	"github.com/stokaro/seshat/core/platform"
)

// ConflictAction decides what an upsert does when the conflict key is
// already present.
type ConflictAction int

const (
	// ConflictSkip leaves the existing row untouched.
	ConflictSkip ConflictAction = iota
	// ConflictUpdate overwrites the non-key columns of the existing row.
	ConflictUpdate
)

// SeedRecord is one row to insert during bootstrap. ConflictColumns
// name the natural key deciding whether the insertion is new; Tier is
// the dependency rank. Tier 0 records carry no foreign keys onto other
// seeded records and are always inserted first.
type SeedRecord struct {
	Table           string
	Tier            int
	ConflictColumns []string
	Columns         map[string]any
	OnConflict      ConflictAction
}

// key renders the record's conflict key values for reporting.
func (r SeedRecord) key() string {
	parts := make([]string, 0, len(r.ConflictColumns))
	for _, c := range r.ConflictColumns {
		parts = append(parts, fmt.Sprint(r.Columns[c]))
	}
	return strings.Join(parts, "/")
}

// validate rejects records no upsert can be built for.
func (r SeedRecord) validate() error {
	if len(r.ConflictColumns) == 0 {
		return errors.New("seed record has no conflict columns")
	}
	if r.OnConflict == ConflictUpdate {
		updatable := false
		for c := range r.Columns {
			if !slices.Contains(r.ConflictColumns, c) {
				updatable = true
				break
			}
		}
		if !updatable {
			return errors.New("conflict update has no columns outside the conflict key")
		}
	}
	return nil
}

// SeedFailure records one isolated per-record failure.
type SeedFailure struct {
	Table string
	Key   any
	Err   error
}

func (f SeedFailure) String() string {
	return fmt.Sprintf("%s[%v]: %v", f.Table, f.Key, f.Err)
}

// SeedReport aggregates the outcome of a seed run. Failures never abort
// the run; they are collected here so they stay observable.
type SeedReport struct {
	Inserted int
	Skipped  int
	Failures []SeedFailure
}

// Failed reports whether any record failed.
func (r SeedReport) Failed() bool {
	return len(r.Failures) > 0
}

// Seed inserts the records tier by tier in ascending order. Within a
// tier each record is upserted on its conflict column, and each
// insertion is individually fault-isolated: one bad record (a foreign
// key onto a tier-0 record that was itself skipped, say) is recorded in
// the report and the run continues. Core reference data can therefore
// be established even when optional relational data is inconsistent at
// seed time.
func (b *Bootstrapper) Seed(ctx context.Context, records []SeedRecord) SeedReport {
	ordered := make([]SeedRecord, len(records))
	copy(ordered, records)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Tier < ordered[j].Tier
	})

	var report SeedReport
	for _, rec := range ordered {
		if err := rec.validate(); err != nil {
			b.logger.Warn("seed record invalid",
				"table", rec.Table, "key", rec.key(), "error", err)
			report.Failures = append(report.Failures, SeedFailure{
				Table: rec.Table,
				Key:   rec.key(),
				Err:   err,
			})
			continue
		}

		query, args := upsertSQL(b.store.Dialect(), rec)
		res, err := b.store.Exec(ctx, query, args...)
		if err != nil {
			b.logger.Warn("seed record failed",
				"table", rec.Table, "key", rec.key(), "error", err)
			report.Failures = append(report.Failures, SeedFailure{
				Table: rec.Table,
				Key:   rec.key(),
				Err:   err,
			})
			continue
		}

		if n, err := res.RowsAffected(); err == nil && n == 0 {
			report.Skipped++
		} else {
			report.Inserted++
		}
	}

	b.logger.Info("seed finished",
		"inserted", report.Inserted, "skipped", report.Skipped, "failed", len(report.Failures))
	return report
}

// upsertSQL builds the dialect-specific upsert for one record with
// neutral placeholders. Column order is sorted so the generated SQL is
// deterministic.
func upsertSQL(dialect string, rec SeedRecord) (string, []any) {
	cols := make([]string, 0, len(rec.Columns))
	for c := range rec.Columns {
		cols = append(cols, c)
	}
	sort.Strings(cols)

	quoted := make([]string, len(cols))
	marks := make([]string, len(cols))
	args := make([]any, len(cols))
	for i, c := range cols {
		quoted[i] = quoteIdent(dialect, c)
		marks[i] = "?"
		args[i] = rec.Columns[c]
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "INSERT INTO %s (%s) VALUES (%s)",
		quoteIdent(dialect, rec.Table), strings.Join(quoted, ", "), strings.Join(marks, ", "))

	switch platform.NormalizeDialect(dialect) {
	case platform.MySQL:
		if rec.OnConflict == ConflictUpdate {
			var sets []string
			for _, c := range cols {
				if slices.Contains(rec.ConflictColumns, c) {
					continue
				}
				q := quoteIdent(dialect, c)
				sets = append(sets, fmt.Sprintf("%s = VALUES(%s)", q, q))
			}
			fmt.Fprintf(&sb, " ON DUPLICATE KEY UPDATE %s", strings.Join(sets, ", "))
		} else {
			// INSERT IGNORE would swallow every error class; restrict the
			// no-op to duplicate keys instead.
			key := quoteIdent(dialect, rec.ConflictColumns[0])
			fmt.Fprintf(&sb, " ON DUPLICATE KEY UPDATE %s = %s", key, key)
		}
	default:
		// SQLite and PostgreSQL share the ON CONFLICT syntax.
		keys := make([]string, len(rec.ConflictColumns))
		for i, c := range rec.ConflictColumns {
			keys[i] = quoteIdent(dialect, c)
		}
		fmt.Fprintf(&sb, " ON CONFLICT (%s)", strings.Join(keys, ", "))
		if rec.OnConflict == ConflictUpdate {
			var sets []string
			for _, c := range cols {
				if slices.Contains(rec.ConflictColumns, c) {
					continue
				}
				q := quoteIdent(dialect, c)
				sets = append(sets, fmt.Sprintf("%s = excluded.%s", q, q))
			}
			fmt.Fprintf(&sb, " DO UPDATE SET %s", strings.Join(sets, ", "))
		} else {
			sb.WriteString(" DO NOTHING")
		}
	}

	return sb.String(), args
}

// quoteIdent quotes an identifier for the dialect. PostgreSQL and
// SQLite share double-quote quoting; MySQL uses backticks.
func quoteIdent(dialect, name string) string {
	if platform.NormalizeDialect(dialect) == platform.MySQL {
		return "`" + strings.ReplaceAll(name, "`", "``") + "`"
	}
	return pq.QuoteIdentifier(name)
}
