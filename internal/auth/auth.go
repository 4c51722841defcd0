// Package auth manages the single API token protecting the HTTP API.
package auth

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// TokenPrefix marks spindle API tokens.
const TokenPrefix = "spn_"

const tokenHashKey = "auth.token_hash"

// Service provides API token operations. Only the bcrypt hash is stored;
// the plaintext token is shown once at generation time.
type Service struct {
	db *sql.DB
}

// NewService creates an auth service.
func NewService(db *sql.DB) *Service {
	return &Service{db: db}
}

// EnsureToken generates and stores a token if none exists yet. It returns
// the plaintext token and true when a new one was generated, or "" and false
// when a token was already configured.
func (s *Service) EnsureToken(ctx context.Context) (string, bool, error) {
	var existing string
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM settings WHERE key = ?`, tokenHashKey).Scan(&existing)
	if err == nil && existing != "" {
		return "", false, nil
	}
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return "", false, fmt.Errorf("checking for existing token: %w", err)
	}

	token, err := s.ResetToken(ctx)
	if err != nil {
		return "", false, err
	}
	return token, true, nil
}

// ResetToken generates a fresh token, replacing any existing one, and
// returns the plaintext. Existing clients are invalidated.
func (s *Service) ResetToken(ctx context.Context) (string, error) {
	raw := make([]byte, 24)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("generating token: %w", err)
	}
	token := TokenPrefix + hex.EncodeToString(raw)

	hash, err := bcrypt.GenerateFromPassword([]byte(token), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hashing token: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO settings (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, tokenHashKey, string(hash))
	if err != nil {
		return "", fmt.Errorf("storing token hash: %w", err)
	}

	return token, nil
}

// Validate checks a presented token against the stored hash.
func (s *Service) Validate(ctx context.Context, token string) error {
	if token == "" {
		return errors.New("missing token")
	}

	var hash string
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM settings WHERE key = ?`, tokenHashKey).Scan(&hash)
	if errors.Is(err, sql.ErrNoRows) {
		return errors.New("no token configured")
	}
	if err != nil {
		return fmt.Errorf("loading token hash: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(token)); err != nil {
		return errors.New("invalid token")
	}
	return nil
}
