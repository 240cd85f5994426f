package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/securenotes/apiserver/types"
)

const userColumns = `
		u.user_id, u.username, u.email, u.password, u.enabled,
		u.account_non_locked, u.account_non_expired, u.credentials_non_expired,
		u.credentials_expiry_date, u.account_expiry_date,
		u.is_two_factor_enabled, u.sign_up_method,
		r.role_id, r.role_name, u.created_at, u.updated_at`

// UserRepository handles persistence for users. The role is always loaded
// with the user; roles themselves are never written here.
type UserRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (types.User, error) {
	var user types.User
	var credentialsExpiry, accountExpiry sql.NullTime
	var signUpMethod sql.NullString
	err := row.Scan(
		&user.ID,
		&user.Username,
		&user.Email,
		&user.PasswordHash,
		&user.Enabled,
		&user.AccountNonLocked,
		&user.AccountNonExpired,
		&user.CredentialsNonExpired,
		&credentialsExpiry,
		&accountExpiry,
		&user.TwoFactorEnabled,
		&signUpMethod,
		&user.Role.ID,
		&user.Role.Name,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return types.User{}, err
	}
	if credentialsExpiry.Valid {
		t := credentialsExpiry.Time
		user.CredentialsExpiryDate = &t
	}
	if accountExpiry.Valid {
		t := accountExpiry.Time
		user.AccountExpiryDate = &t
	}
	user.SignUpMethod = signUpMethod.String
	return user, nil
}

func (r *UserRepository) GetByID(ctx context.Context, id int64) (types.User, error) {
	query := `SELECT` + userColumns + `
		FROM users u
		JOIN roles r ON r.role_id = u.role_id
		WHERE u.user_id = $1`
	user, err := scanUser(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.User{}, ErrNotFound
		}
		return types.User{}, err
	}
	return user, nil
}

func (r *UserRepository) GetByUsername(ctx context.Context, username string) (types.User, error) {
	query := `SELECT` + userColumns + `
		FROM users u
		JOIN roles r ON r.role_id = u.role_id
		WHERE u.username = $1`
	user, err := scanUser(r.db.QueryRowContext(ctx, query, username))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.User{}, ErrNotFound
		}
		return types.User{}, err
	}
	return user, nil
}

func (r *UserRepository) List(ctx context.Context) ([]types.User, error) {
	query := `SELECT` + userColumns + `
		FROM users u
		JOIN roles r ON r.role_id = u.role_id
		ORDER BY u.user_id`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := make([]types.User, 0)
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return users, nil
}

func (r *UserRepository) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM users WHERE username = $1)`
	var exists bool
	if err := r.db.QueryRowContext(ctx, query, username).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

func (r *UserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM users WHERE email = $1)`
	var exists bool
	if err := r.db.QueryRowContext(ctx, query, email).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

// Create inserts a user referencing an existing role. The role row must
// already carry its ID; it is never inserted or updated here.
func (r *UserRepository) Create(ctx context.Context, user types.User) (types.User, error) {
	if user.Role.ID == 0 {
		return types.User{}, errors.New("user role is required")
	}

	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now

	const query = `
		INSERT INTO users (
			username, email, password, enabled,
			account_non_locked, account_non_expired, credentials_non_expired,
			credentials_expiry_date, account_expiry_date,
			is_two_factor_enabled, sign_up_method, role_id,
			created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING user_id`
	if err := r.db.QueryRowContext(
		ctx,
		query,
		user.Username,
		user.Email,
		user.PasswordHash,
		user.Enabled,
		user.AccountNonLocked,
		user.AccountNonExpired,
		user.CredentialsNonExpired,
		nullableTime(user.CredentialsExpiryDate),
		nullableTime(user.AccountExpiryDate),
		user.TwoFactorEnabled,
		user.SignUpMethod,
		user.Role.ID,
		user.CreatedAt,
		user.UpdatedAt,
	).Scan(&user.ID); err != nil {
		if isUniqueViolation(err) {
			return types.User{}, fmt.Errorf("%w: %v", ErrConflict, err)
		}
		return types.User{}, err
	}
	return user, nil
}

func nullableTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}
