// Package store provides the optional Postgres-backed API credential
// store. When no Postgres DSN is configured, requests are verified
// against the static configured key instead and this package is unused.
package store

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// Store provides access to the credentials table.
type Store struct {
	db *sql.DB
}

// NewStore creates a Store backed by the given connection pool.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// Credential is a row in the credentials table:
//
//	CREATE TABLE credentials (
//	    id          uuid PRIMARY KEY DEFAULT gen_random_uuid(),
//	    name        text NOT NULL,
//	    key_hash    text NOT NULL,
//	    key_prefix  text NOT NULL,
//	    disabled    boolean NOT NULL DEFAULT false,
//	    created_at  timestamptz NOT NULL DEFAULT now(),
//	    updated_at  timestamptz NOT NULL DEFAULT now()
//	);
//	CREATE INDEX credentials_key_prefix_idx ON credentials (key_prefix);
type Credential struct {
	ID        string
	Name      string
	KeyHash   string
	KeyPrefix string
	Disabled  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// GenerateAPIKey creates a new bsk_ API key with its bcrypt hash and
// lookup prefix. Returns (fullKey, hash, prefix, error); the full key is
// shown to the operator once and never stored.
func GenerateAPIKey() (string, string, string, error) {
	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return "", "", "", fmt.Errorf("GenerateAPIKey: %w", err)
	}
	fullKey := "bsk_" + hex.EncodeToString(raw)

	hashBytes, err := bcrypt.GenerateFromPassword([]byte(fullKey), bcrypt.DefaultCost)
	if err != nil {
		return "", "", "", fmt.Errorf("GenerateAPIKey: %w", err)
	}

	prefix := fullKey[:8] // "bsk_abcd"
	return fullKey, string(hashBytes), prefix, nil
}

// CreateCredential inserts a new credential and returns it along with
// the plaintext API key.
func (s *Store) CreateCredential(ctx context.Context, name string) (*Credential, string, error) {
	fullKey, keyHash, keyPrefix, err := GenerateAPIKey()
	if err != nil {
		return nil, "", fmt.Errorf("CreateCredential: %w", err)
	}

	var c Credential
	err = s.db.QueryRowContext(ctx, `
		INSERT INTO credentials (name, key_hash, key_prefix)
		VALUES ($1, $2, $3)
		RETURNING id, name, key_hash, key_prefix, disabled, created_at, updated_at`,
		name, keyHash, keyPrefix,
	).Scan(&c.ID, &c.Name, &c.KeyHash, &c.KeyPrefix, &c.Disabled, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, "", fmt.Errorf("CreateCredential: %w", err)
	}
	return &c, fullKey, nil
}

// LookupByPrefix finds an enabled credential by API key prefix (first 8
// chars). Used by auth to narrow candidates before the bcrypt verify.
// Returns nil without error when no row matches.
func (s *Store) LookupByPrefix(ctx context.Context, prefix string) (*Credential, error) {
	var c Credential
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, key_hash, key_prefix, disabled, created_at, updated_at
		FROM credentials
		WHERE key_prefix = $1 AND NOT disabled`, prefix,
	).Scan(&c.ID, &c.Name, &c.KeyHash, &c.KeyPrefix, &c.Disabled, &c.CreatedAt, &c.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("LookupByPrefix: %w", err)
	}
	return &c, nil
}

// DisableCredential revokes a credential by id.
func (s *Store) DisableCredential(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE credentials SET disabled = true, updated_at = now()
		WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("DisableCredential: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("DisableCredential: %w", err)
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}
