package identity_test

import (
	"context"
	"errors"
	"testing"

	qt "github.com/frankban/quicktest"

	"github.com/stokaro/seshat/identity"
	"github.com/stokaro/seshat/store/types"
)

func TestRepository_CreateAndGetByEmail(t *testing.T) {
	c := qt.New(t)
	st := bootstrappedStore(t, "sekrit")
	repo := identity.NewRepository(st)
	ctx := context.Background()

	ident := identity.Identity{
		ID:           identity.SeedID("alice@example.com"),
		Email:        "Alice@Example.COM",
		PasswordHash: testHash(t, "pass"),
		Status:       identity.StatusActive,
		Roles:        []string{"user"},
	}
	c.Assert(repo.Create(ctx, ident), qt.IsNil)

	got, err := repo.GetByEmail(ctx, "alice@example.com")
	c.Assert(err, qt.IsNil)
	c.Assert(got, qt.IsNotNil)
	c.Assert(got.Email, qt.Equals, "alice@example.com", qt.Commentf("email must be stored normalized"))
	c.Assert(got.ID, qt.Equals, ident.ID)
	c.Assert(got.Roles, qt.DeepEquals, []string{"user"})
}

func TestRepository_GetByEmailAbsent(t *testing.T) {
	c := qt.New(t)
	st := bootstrappedStore(t, "sekrit")
	repo := identity.NewRepository(st)

	got, err := repo.GetByEmail(context.Background(), "nobody@example.com")
	c.Assert(err, qt.IsNil)
	c.Assert(got, qt.IsNil)
}

func TestRepository_CreateDuplicateEmail(t *testing.T) {
	c := qt.New(t)
	st := bootstrappedStore(t, "sekrit")
	repo := identity.NewRepository(st)
	ctx := context.Background()

	dup := identity.Identity{
		ID:           identity.SeedID("other-id@example.com"),
		Email:        masterEmail,
		PasswordHash: testHash(t, "pass"),
		Status:       identity.StatusActive,
	}
	err := repo.Create(ctx, dup)
	c.Assert(errors.Is(err, types.ErrConstraint), qt.IsTrue, qt.Commentf("got %v", err))
}

func TestRepository_CreateUnknownRoleRollsBack(t *testing.T) {
	c := qt.New(t)
	st := bootstrappedStore(t, "sekrit")
	repo := identity.NewRepository(st)
	ctx := context.Background()

	ident := identity.Identity{
		ID:           identity.SeedID("bob@example.com"),
		Email:        "bob@example.com",
		PasswordHash: testHash(t, "pass"),
		Status:       identity.StatusActive,
		Roles:        []string{"no-such-role"},
	}
	err := repo.Create(ctx, ident)
	c.Assert(errors.Is(err, types.ErrConstraint), qt.IsTrue, qt.Commentf("got %v", err))

	// The user insert inside the failed transaction must not survive.
	got, err := repo.GetByEmail(ctx, "bob@example.com")
	c.Assert(err, qt.IsNil)
	c.Assert(got, qt.IsNil)
}

func TestRepository_UpdateStatus(t *testing.T) {
	c := qt.New(t)
	st := bootstrappedStore(t, "sekrit")
	repo := identity.NewRepository(st)
	ctx := context.Background()

	c.Assert(repo.UpdateStatus(ctx, masterEmail, identity.StatusDisabled), qt.IsNil)

	got, err := repo.GetByEmail(ctx, masterEmail)
	c.Assert(err, qt.IsNil)
	c.Assert(got.Status, qt.Equals, identity.StatusDisabled)
}

func TestRepository_RenameEmailCascades(t *testing.T) {
	c := qt.New(t)
	st := bootstrappedStore(t, "sekrit")
	repo := identity.NewRepository(st)
	ctx := context.Background()

	// The baseline seed owns the default prompt template and a setting
	// under the master email; both references must follow the rename.
	c.Assert(repo.RenameEmail(ctx, masterEmail, "admin@example.com"), qt.IsNil)

	got, err := repo.GetByEmail(ctx, "admin@example.com")
	c.Assert(err, qt.IsNil)
	c.Assert(got, qt.IsNotNil)

	old, err := repo.GetByEmail(ctx, masterEmail)
	c.Assert(err, qt.IsNil)
	c.Assert(old, qt.IsNil)

	row, err := st.GetOne(ctx, "SELECT owner_email FROM prompt_templates WHERE name = ?", "default")
	c.Assert(err, qt.IsNil)
	c.Assert(row["owner_email"], qt.Equals, "admin@example.com")

	row, err = st.GetOne(ctx, "SELECT owner_email FROM app_settings WHERE name = ?", "bootstrap.completed_at")
	c.Assert(err, qt.IsNil)
	c.Assert(row["owner_email"], qt.Equals, "admin@example.com")
}

func TestRepository_RenameEmailUnknown(t *testing.T) {
	c := qt.New(t)
	st := bootstrappedStore(t, "sekrit")
	repo := identity.NewRepository(st)

	err := repo.RenameEmail(context.Background(), "nobody@example.com", "new@example.com")
	c.Assert(errors.Is(err, identity.ErrIdentityNotFound), qt.IsTrue)
}
