package identity

import (
	"time"

	"github.com/google/uuid"

	"github.com/stokaro/seshat/bootstrap"
)

// seedNamespace fixes the UUID namespace for deterministic seed
// identities, so re-running the seed produces the same ids.
var seedNamespace = uuid.MustParse("8f9c1a52-6c2e-4b7d-9f1e-3a0d5b2c7e41")

// SeedID derives the stable identity id for a normalized email.
func SeedID(email string) uuid.UUID {
	return uuid.NewSHA1(seedNamespace, []byte("user:"+NormalizeEmail(email)))
}

// BaselineSeed builds the seed records establishing the reference and
// identity data every deployment starts from: the role catalog and the
// master identity at tier 0, role assignments and default settings at
// tier 1. The conflict keys make the whole set idempotent; existing
// records keep their password hashes and statuses.
func BaselineSeed(masterEmail, passwordHash string) []bootstrap.SeedRecord {
	master := NormalizeEmail(masterEmail)
	masterID := SeedID(master)
	now := time.Now().UTC()

	return []bootstrap.SeedRecord{
		{
			Table:           "roles",
			Tier:            0,
			ConflictColumns: []string{"name"},
			OnConflict:      bootstrap.ConflictUpdate,
			Columns: map[string]any{
				"name":        RoleAdmin,
				"description": "Full administrative capability",
			},
		},
		{
			Table:           "roles",
			Tier:            0,
			ConflictColumns: []string{"name"},
			OnConflict:      bootstrap.ConflictUpdate,
			Columns: map[string]any{
				"name":        "user",
				"description": "Standard application access",
			},
		},
		{
			Table:           "users",
			Tier:            0,
			ConflictColumns: []string{"email"},
			OnConflict:      bootstrap.ConflictSkip,
			Columns: map[string]any{
				"id":            masterID.String(),
				"email":         master,
				"password_hash": passwordHash,
				"status":        string(StatusActive),
				"created_at":    now,
				"updated_at":    now,
			},
		},
		{
			Table:           "user_roles",
			Tier:            1,
			ConflictColumns: []string{"user_id", "role_name"},
			OnConflict:      bootstrap.ConflictSkip,
			Columns: map[string]any{
				"user_id":   masterID.String(),
				"role_name": RoleAdmin,
			},
		},
		{
			Table:           "prompt_templates",
			Tier:            1,
			ConflictColumns: []string{"name"},
			OnConflict:      bootstrap.ConflictSkip,
			Columns: map[string]any{
				"id":          uuid.NewSHA1(seedNamespace, []byte("template:default")).String(),
				"name":        "default",
				"body":        "You are a helpful assistant.",
				"owner_email": master,
			},
		},
		{
			Table:           "app_settings",
			Tier:            1,
			ConflictColumns: []string{"name"},
			OnConflict:      bootstrap.ConflictSkip,
			Columns: map[string]any{
				"name":        "bootstrap.completed_at",
				"value":       now.Format(time.RFC3339),
				"owner_email": master,
			},
		},
	}
}
