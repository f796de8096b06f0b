// Package identity implements identity governance for seshat: identity
// records, email normalization, authentication and the master-identity
// override.
package identity

import (
	"slices"
	"strings"

	"github.com/google/uuid"

	"golang.org/x/text/unicode/norm"
)

// Status is the enumerated authentication status of an identity.
type Status string

const (
	StatusActive   Status = "active"
	StatusHeld     Status = "held"
	StatusDisabled Status = "disabled"
)

// RoleAdmin grants full administrative capability.
const RoleAdmin = "admin"

// Identity is a persisted identity record. Email is stored normalized;
// it is the uniqueness key across both backends.
type Identity struct {
	ID           uuid.UUID
	Email        string
	PasswordHash string
	Status       Status
	Roles        []string
}

// NormalizeEmail produces the canonical form used for every email
// comparison: surrounding whitespace trimmed, Unicode composition
// normalized to NFC, then lowercased. Two addresses differing only in
// case or whitespace denote the same identity.
func NormalizeEmail(email string) string {
	return strings.ToLower(norm.NFC.String(strings.TrimSpace(email)))
}

// Effective returns the identity view used for authorization decisions.
// For the single configured master identity the effective status is
// forced to active and the effective role set gains full administrative
// capability, whatever the persisted record says. The input record is
// not modified and the override is never written back to storage; the
// password hash is carried through untouched so credential verification
// always runs against the stored hash.
//
// This override is a deliberate, narrow recovery path: when a broken
// seed or a stuck status locks every account out of the administrative
// tooling, the master identity can still get in to repair it. It never
// broadens any identity other than the configured one.
func Effective(id Identity, masterEmail string) Identity {
	if masterEmail == "" || NormalizeEmail(id.Email) != NormalizeEmail(masterEmail) {
		return id
	}

	eff := id
	eff.Status = StatusActive
	eff.Roles = slices.Clone(id.Roles)
	if !slices.Contains(eff.Roles, RoleAdmin) {
		eff.Roles = append(eff.Roles, RoleAdmin)
	}
	return eff
}
