package store

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"

	_ "github.com/lib/pq" // postgres driver

	"github.com/meridianhq/gatehouse/pkg/auth"
)

// ErrNotFound is returned when no principal matches the lookup.
var ErrNotFound = errors.New("principal not found")

// ErrBadCredentials is returned when the account/password pair is wrong.
// Callers must not distinguish unknown accounts from wrong passwords in
// user-facing messages.
var ErrBadCredentials = errors.New("invalid account or password")

// PrincipalStore resolves accounts to principals with their role and
// permission sets. It is the narrow persistence surface the guard chain's
// collaborators consume; schema management lives elsewhere.
type PrincipalStore struct {
	db *sql.DB
}

// NewPrincipalStore creates a principal store on an existing pool.
func NewPrincipalStore(db *sql.DB) *PrincipalStore {
	return &PrincipalStore{db: db}
}

// Open connects to postgres and verifies connectivity.
func Open(url string, maxOpen, maxIdle int) (*sql.DB, error) {
	db, err := sql.Open("postgres", url)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if maxOpen > 0 {
		db.SetMaxOpenConns(maxOpen)
	}
	if maxIdle > 0 {
		db.SetMaxIdleConns(maxIdle)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return db, nil
}

// HashPassword computes the stored form of a password.
func HashPassword(password string) string {
	sum := sha256.Sum256([]byte(password))
	return hex.EncodeToString(sum[:])
}

// Authenticate verifies the account/password pair and returns the
// principal with its role and permission sets loaded.
func (s *PrincipalStore) Authenticate(ctx context.Context, account, password string) (*auth.Principal, error) {
	p := &auth.Principal{}
	var storedHash string
	err := s.db.QueryRowContext(ctx, `
		SELECT id, account, name, password_hash, creator_id, created_at, updater_id, updated_at
		FROM principals
		WHERE account = $1
	`, account).Scan(&p.ID, &p.Account, &p.Name, &storedHash, &p.CreatorID, &p.CreatedAt, &p.UpdaterID, &p.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrBadCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query principal: %w", err)
	}

	presented := HashPassword(password)
	if subtle.ConstantTimeCompare([]byte(storedHash), []byte(presented)) != 1 {
		return nil, ErrBadCredentials
	}

	if p.Roles, err = s.loadRoles(ctx, p.ID); err != nil {
		return nil, err
	}
	if p.Perms, err = s.loadPerms(ctx, p.ID); err != nil {
		return nil, err
	}
	return p, nil
}

// Get returns the principal by id with its role and permission sets.
func (s *PrincipalStore) Get(ctx context.Context, id int64) (*auth.Principal, error) {
	p := &auth.Principal{}
	err := s.db.QueryRowContext(ctx, `
		SELECT id, account, name, creator_id, created_at, updater_id, updated_at
		FROM principals
		WHERE id = $1
	`, id).Scan(&p.ID, &p.Account, &p.Name, &p.CreatorID, &p.CreatedAt, &p.UpdaterID, &p.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query principal: %w", err)
	}

	if p.Roles, err = s.loadRoles(ctx, p.ID); err != nil {
		return nil, err
	}
	if p.Perms, err = s.loadPerms(ctx, p.ID); err != nil {
		return nil, err
	}
	return p, nil
}

// Create registers a new account with a hashed password and returns its id.
func (s *PrincipalStore) Create(ctx context.Context, account, name, password string) (int64, error) {
	var id int64
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO principals (account, name, password_hash, created_at, updated_at)
		VALUES ($1, $2, $3, NOW(), NOW())
		RETURNING id
	`, account, name, HashPassword(password)).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to create principal: %w", err)
	}
	return id, nil
}

// loadRoles returns the principal's role identifiers.
func (s *PrincipalStore) loadRoles(ctx context.Context, principalID int64) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT r.value
		FROM roles r
		JOIN principal_roles pr ON r.id = pr.role_id
		WHERE pr.principal_id = $1
	`, principalID)
	if err != nil {
		return nil, fmt.Errorf("failed to query roles: %w", err)
	}
	defer rows.Close()
	return scanStrings(rows)
}

// loadPerms returns the deduplicated permission identifiers granted
// through any of the principal's roles.
func (s *PrincipalStore) loadPerms(ctx context.Context, principalID int64) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT DISTINCT p.value
		FROM permissions p
		JOIN role_permissions rp ON p.id = rp.permission_id
		JOIN principal_roles pr ON rp.role_id = pr.role_id
		WHERE pr.principal_id = $1
	`, principalID)
	if err != nil {
		return nil, fmt.Errorf("failed to query permissions: %w", err)
	}
	defer rows.Close()
	return scanStrings(rows)
}

func scanStrings(rows *sql.Rows) ([]string, error) {
	var values []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		values = append(values, v)
	}
	return values, rows.Err()
}
