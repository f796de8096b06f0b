package bootstrap_test

import (
	"context"
	"testing"

	qt "github.com/frankban/quicktest"

	"github.com/stokaro/seshat/bootstrap"
	"github.com/stokaro/seshat/store/types"
)

func seededStore(t *testing.T) (*bootstrap.Bootstrapper, types.Conn) {
	t.Helper()
	st := openTestStore(t)
	b := bootstrap.New(st)
	if _, err := b.ApplySchema(context.Background(), bootstrap.BaselineSchema()); err != nil {
		t.Fatalf("apply schema: %v", err)
	}
	return b, st
}

func roleRecord(name, description string) bootstrap.SeedRecord {
	return bootstrap.SeedRecord{
		Table:           "roles",
		Tier:            0,
		ConflictColumns: []string{"name"},
		Columns:         map[string]any{"name": name, "description": description},
		OnConflict:      bootstrap.ConflictUpdate,
	}
}

func userRecord(id, email string) bootstrap.SeedRecord {
	return bootstrap.SeedRecord{
		Table:           "users",
		Tier:            0,
		ConflictColumns: []string{"email"},
		Columns: map[string]any{
			"id": id, "email": email, "password_hash": "x", "status": "active",
		},
		OnConflict: bootstrap.ConflictSkip,
	}
}

func membershipRecord(userID, role string) bootstrap.SeedRecord {
	return bootstrap.SeedRecord{
		Table:           "user_roles",
		Tier:            1,
		ConflictColumns: []string{"user_id", "role_name"},
		Columns:         map[string]any{"user_id": userID, "role_name": role},
		OnConflict:      bootstrap.ConflictSkip,
	}
}

func TestSeed_InsertsTierOrdered(t *testing.T) {
	c := qt.New(t)
	b, st := seededStore(t)
	ctx := context.Background()

	// Records arrive deliberately out of tier order; the membership row
	// depends on both tier-0 rows existing first.
	report := b.Seed(ctx, []bootstrap.SeedRecord{
		membershipRecord("u-1", "admin"),
		roleRecord("admin", "platform administrator"),
		userRecord("u-1", "root@example.com"),
	})
	c.Assert(report.Failed(), qt.IsFalse, qt.Commentf("failures: %v", report.Failures))
	c.Assert(report.Inserted, qt.Equals, 3)
	c.Assert(report.Skipped, qt.Equals, 0)

	row, err := st.GetOne(ctx, "SELECT role_name FROM user_roles WHERE user_id = ?", "u-1")
	c.Assert(err, qt.IsNil)
	c.Assert(row["role_name"], qt.Equals, "admin")
}

func TestSeed_RerunSkipsExisting(t *testing.T) {
	c := qt.New(t)
	b, _ := seededStore(t)
	ctx := context.Background()

	// ConflictSkip throughout: a skip-variant role record, the user and
	// the membership. ConflictUpdate records report an update on re-run
	// rather than a skip, which TestSeed_ConflictUpdateOverwrites covers.
	role := roleRecord("admin", "platform administrator")
	role.OnConflict = bootstrap.ConflictSkip
	records := []bootstrap.SeedRecord{
		role,
		userRecord("u-1", "root@example.com"),
		membershipRecord("u-1", "admin"),
	}

	first := b.Seed(ctx, records)
	c.Assert(first.Failed(), qt.IsFalse, qt.Commentf("failures: %v", first.Failures))
	c.Assert(first.Inserted, qt.Equals, 3)

	second := b.Seed(ctx, records)
	c.Assert(second.Failed(), qt.IsFalse, qt.Commentf("failures: %v", second.Failures))
	c.Assert(second.Inserted, qt.Equals, 0)
	c.Assert(second.Skipped, qt.Equals, 3)
}

func TestSeed_ConflictUpdateOverwrites(t *testing.T) {
	c := qt.New(t)
	b, st := seededStore(t)
	ctx := context.Background()

	b.Seed(ctx, []bootstrap.SeedRecord{roleRecord("admin", "old description")})
	report := b.Seed(ctx, []bootstrap.SeedRecord{roleRecord("admin", "new description")})
	c.Assert(report.Failed(), qt.IsFalse)

	row, err := st.GetOne(ctx, "SELECT description FROM roles WHERE name = ?", "admin")
	c.Assert(err, qt.IsNil)
	c.Assert(row["description"], qt.Equals, "new description")
}

func TestSeed_FaultIsolation(t *testing.T) {
	c := qt.New(t)
	b, st := seededStore(t)
	ctx := context.Background()

	// The membership row references a user that is never seeded. Its
	// foreign key failure must not prevent the remaining records.
	report := b.Seed(ctx, []bootstrap.SeedRecord{
		roleRecord("admin", "platform administrator"),
		membershipRecord("u-missing", "admin"),
		userRecord("u-1", "root@example.com"),
	})
	c.Assert(report.Failed(), qt.IsTrue)
	c.Assert(report.Failures, qt.HasLen, 1)
	c.Assert(report.Failures[0].Table, qt.Equals, "user_roles")
	c.Assert(report.Inserted, qt.Equals, 2)

	row, err := st.GetOne(ctx, "SELECT email FROM users WHERE id = ?", "u-1")
	c.Assert(err, qt.IsNil)
	c.Assert(row, qt.IsNotNil, qt.Commentf("records after the failure must still insert"))
}

func TestSeed_InvalidRecordsIsolated(t *testing.T) {
	c := qt.New(t)
	b, st := seededStore(t)
	ctx := context.Background()

	// No conflict key at all, and an update whose every column is part
	// of the conflict key. Neither can be turned into an upsert; both
	// must land in the report without disturbing the valid record.
	noKey := bootstrap.SeedRecord{
		Table:      "roles",
		Tier:       0,
		Columns:    map[string]any{"name": "broken", "description": ""},
		OnConflict: bootstrap.ConflictSkip,
	}
	nothingToUpdate := bootstrap.SeedRecord{
		Table:           "user_roles",
		Tier:            1,
		ConflictColumns: []string{"user_id", "role_name"},
		Columns:         map[string]any{"user_id": "u-1", "role_name": "admin"},
		OnConflict:      bootstrap.ConflictUpdate,
	}

	report := b.Seed(ctx, []bootstrap.SeedRecord{
		noKey,
		nothingToUpdate,
		roleRecord("admin", "platform administrator"),
	})
	c.Assert(report.Failures, qt.HasLen, 2)
	c.Assert(report.Inserted, qt.Equals, 1)

	row, err := st.GetOne(ctx, "SELECT name FROM roles WHERE name = ?", "admin")
	c.Assert(err, qt.IsNil)
	c.Assert(row, qt.IsNotNil)
	row, err = st.GetOne(ctx, "SELECT name FROM roles WHERE name = ?", "broken")
	c.Assert(err, qt.IsNil)
	c.Assert(row, qt.IsNil)
}
