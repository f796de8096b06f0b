package identity

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/crypto/bcrypt"
)

// Authentication error variants. Internal callers and logs see the
// specific kind; External collapses all of them into ErrAuthFailed so
// external responses do not leak which case occurred.
var (
	ErrIdentityNotFound   = errors.New("identity not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAccountNotActive   = errors.New("account not active")

	// ErrAuthFailed is the single generic failure surfaced to external
	// callers.
	ErrAuthFailed = errors.New("authentication failed")
)

// External maps any authentication error variant onto the generic
// ErrAuthFailed. Non-authentication errors pass through unchanged.
func External(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrIdentityNotFound) || errors.Is(err, ErrInvalidCredentials) || errors.Is(err, ErrAccountNotActive) {
		return ErrAuthFailed
	}
	return err
}

// Service authenticates identities against a repository.
type Service struct {
	repo        *Repository
	masterEmail string
	logger      *slog.Logger
}

// NewService creates an authentication service. masterEmail designates
// the identity subject to the effective-view override; empty disables
// the override entirely.
func NewService(repo *Repository, masterEmail string) *Service {
	return &Service{
		repo:        repo,
		masterEmail: masterEmail,
		logger:      slog.Default(),
	}
}

// WithLogger returns a copy of the service using the given logger.
func (s *Service) WithLogger(l *slog.Logger) *Service {
	tmp := *s
	tmp.logger = l
	return &tmp
}

// Authenticate resolves the identity for the given credentials.
//
// The email is normalized before lookup. The fetched record is first
// turned into its effective view (master override applied in memory
// only), then the password is verified against the stored hash; the
// override never touches credential material. An inactive effective
// status fails with ErrAccountNotActive carrying that status.
//
// Callers receive the effective identity; the persisted record is never
// mutated on this path.
func (s *Service) Authenticate(ctx context.Context, email, password string) (Identity, error) {
	normalized := NormalizeEmail(email)

	stored, err := s.repo.GetByEmail(ctx, normalized)
	if err != nil {
		return Identity{}, err
	}
	if stored == nil {
		s.logger.Info("authentication failed", "email", normalized, "reason", "not found")
		return Identity{}, fmt.Errorf("%w: %s", ErrIdentityNotFound, normalized)
	}

	eff := Effective(*stored, s.masterEmail)

	if err := bcrypt.CompareHashAndPassword([]byte(eff.PasswordHash), []byte(password)); err != nil {
		s.logger.Info("authentication failed", "email", normalized, "reason", "credential mismatch")
		return Identity{}, fmt.Errorf("%w: %s", ErrInvalidCredentials, normalized)
	}

	if eff.Status != StatusActive {
		s.logger.Info("authentication failed", "email", normalized, "reason", "inactive", "status", string(eff.Status))
		return Identity{}, fmt.Errorf("%w: status %s", ErrAccountNotActive, eff.Status)
	}

	return eff, nil
}

// HashPassword hashes a plaintext password with bcrypt at the default
// cost.
func HashPassword(password string) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(h), nil
}
