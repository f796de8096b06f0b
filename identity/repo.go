package identity

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/stokaro/seshat/store/types"
)

// Repository persists identities through the store contract. It works
// identically against both backend variants.
type Repository struct {
	store types.Store
}

// NewRepository creates a repository over the given store.
func NewRepository(st types.Store) *Repository {
	return &Repository{store: st}
}

// GetByEmail fetches the identity with the given email, normalized
// before lookup. Returns (nil, nil) when no identity matches.
func (r *Repository) GetByEmail(ctx context.Context, email string) (*Identity, error) {
	row, err := r.store.GetOne(ctx,
		"SELECT id, email, password_hash, status FROM users WHERE email = ?",
		NormalizeEmail(email))
	if err != nil {
		return nil, fmt.Errorf("fetch identity: %w", err)
	}
	if row == nil {
		return nil, nil
	}

	id, err := uuid.Parse(asString(row["id"]))
	if err != nil {
		return nil, fmt.Errorf("parse identity id: %w", err)
	}

	ident := &Identity{
		ID:           id,
		Email:        asString(row["email"]),
		PasswordHash: asString(row["password_hash"]),
		Status:       Status(asString(row["status"])),
	}

	roles, err := r.store.GetAll(ctx,
		"SELECT role_name FROM user_roles WHERE user_id = ? ORDER BY role_name", id.String())
	if err != nil {
		return nil, fmt.Errorf("fetch identity roles: %w", err)
	}
	for _, rr := range roles {
		ident.Roles = append(ident.Roles, asString(rr["role_name"]))
	}

	return ident, nil
}

// Create inserts a new identity and its role assignments in one
// transaction scope.
func (r *Repository) Create(ctx context.Context, ident Identity) error {
	ident.Email = NormalizeEmail(ident.Email)
	now := time.Now().UTC()

	return r.store.Transaction(ctx, func(tx types.Store) error {
		_, err := tx.Exec(ctx,
			"INSERT INTO users (id, email, password_hash, status, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)",
			ident.ID.String(), ident.Email, ident.PasswordHash, string(ident.Status), now, now)
		if err != nil {
			return fmt.Errorf("insert identity: %w", err)
		}
		for _, role := range ident.Roles {
			if _, err := tx.Exec(ctx,
				"INSERT INTO user_roles (user_id, role_name) VALUES (?, ?)",
				ident.ID.String(), role); err != nil {
				return fmt.Errorf("assign role %s: %w", role, err)
			}
		}
		return nil
	})
}

// UpdateStatus sets the persisted status of the identity with the given
// email. The master override is an in-memory view only, so repairing a
// stuck status goes through here.
func (r *Repository) UpdateStatus(ctx context.Context, email string, status Status) error {
	_, err := r.store.Exec(ctx,
		"UPDATE users SET status = ?, updated_at = ? WHERE email = ?",
		string(status), time.Now().UTC(), NormalizeEmail(email))
	if err != nil {
		return fmt.Errorf("update identity status: %w", err)
	}
	return nil
}

// RenameEmail changes an identity's natural key. The rename runs in one
// transaction and the schema's ON UPDATE CASCADE clauses carry it into
// every dependent record; dependents referencing the old address are
// never orphaned. The embedded backend enforces this only with foreign
// keys enabled, which the sqlite adapter guarantees at open time.
func (r *Repository) RenameEmail(ctx context.Context, oldEmail, newEmail string) error {
	oldN, newN := NormalizeEmail(oldEmail), NormalizeEmail(newEmail)

	return r.store.Transaction(ctx, func(tx types.Store) error {
		res, err := tx.Exec(ctx,
			"UPDATE users SET email = ?, updated_at = ? WHERE email = ?",
			newN, time.Now().UTC(), oldN)
		if err != nil {
			return fmt.Errorf("rename identity: %w", err)
		}
		if n, err := res.RowsAffected(); err == nil && n == 0 {
			return fmt.Errorf("rename identity: %w: %s", ErrIdentityNotFound, oldN)
		}
		return nil
	})
}

func asString(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case []byte:
		return string(s)
	default:
		return fmt.Sprint(v)
	}
}
