package identity_test

import (
	"context"
	"testing"

	qt "github.com/frankban/quicktest"

	"github.com/stokaro/seshat/bootstrap"
	"github.com/stokaro/seshat/identity"
)

func TestBaselineSeed_RerunPreservesRotatedCredentials(t *testing.T) {
	c := qt.New(t)
	st := bootstrappedStore(t, "initial")
	repo := identity.NewRepository(st)
	ctx := context.Background()

	// Operator rotates the master password after first bootstrap.
	rotated := testHash(t, "rotated")
	_, err := st.Exec(ctx, "UPDATE users SET password_hash = ? WHERE email = ?", rotated, masterEmail)
	c.Assert(err, qt.IsNil)

	// A restart re-runs the seed with the original bootstrap password.
	// The skip semantics on the user record must keep the rotation.
	report := bootstrap.New(st).Seed(ctx, identity.BaselineSeed(masterEmail, testHash(t, "initial")))
	c.Assert(report.Failed(), qt.IsFalse, qt.Commentf("failures: %v", report.Failures))

	got, err := repo.GetByEmail(ctx, masterEmail)
	c.Assert(err, qt.IsNil)
	c.Assert(got.PasswordHash, qt.Equals, rotated)
}

func TestBaselineSeed_EstablishesMasterMembership(t *testing.T) {
	c := qt.New(t)
	st := bootstrappedStore(t, "sekrit")
	repo := identity.NewRepository(st)

	got, err := repo.GetByEmail(context.Background(), masterEmail)
	c.Assert(err, qt.IsNil)
	c.Assert(got, qt.IsNotNil)
	c.Assert(got.ID, qt.Equals, identity.SeedID(masterEmail))
	c.Assert(got.Roles, qt.Contains, identity.RoleAdmin)
	c.Assert(got.Status, qt.Equals, identity.StatusActive)
}
