package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/meditrack/meditrack-api/internal/core/domain"
)

const uniqueViolation = "23505"

const (
	insertUserSQL = `INSERT INTO users (id, username, password_hash, full_name, role, department, phone, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
ON CONFLICT (username) DO NOTHING
RETURNING id`

	selectUserSQL = `SELECT id, username, password_hash, full_name, role, department, phone, created_at
FROM users WHERE username = $1`
)

// CredentialRepository stores credential records in the users table. The
// UNIQUE constraint on username makes Create atomic across instances.
type CredentialRepository struct {
	db *sql.DB
}

func NewCredentialRepository(db *sql.DB) *CredentialRepository {
	return &CredentialRepository{db: db}
}

// Create inserts user. A conflicting username inserts nothing and returns no
// row, which is reported as domain.ErrUserExists.
func (r *CredentialRepository) Create(ctx context.Context, user *domain.User) (*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var id string
	err := r.db.QueryRowContext(ctx, insertUserSQL,
		user.ID,
		user.Username,
		user.PasswordHash,
		user.FullName,
		string(user.Role),
		nullString(user.Department),
		nullString(user.Phone),
		user.CreatedAt.UTC(),
	).Scan(&id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrUserExists
		}
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return nil, domain.ErrUserExists
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}

	created := *user
	created.ID = id
	return &created, nil
}

func (r *CredentialRepository) FindByUsername(ctx context.Context, username string) (*domain.User, bool, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var (
		u          domain.User
		role       string
		department sql.NullString
		phone      sql.NullString
	)
	err := r.db.QueryRowContext(ctx, selectUserSQL, username).Scan(
		&u.ID, &u.Username, &u.PasswordHash, &u.FullName, &role, &department, &phone, &u.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("find user: %w", err)
	}

	u.Role = domain.Role(role)
	u.Department = department.String
	u.Phone = phone.String
	u.CreatedAt = u.CreatedAt.UTC()
	return &u, true, nil
}

// Ping reports whether the pool can reach the server.
func (r *CredentialRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
