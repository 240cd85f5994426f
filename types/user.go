package types

import "time"

// User represents an identity that can sign in to the notes API.
// It contains credentials, account status flags, and audit metadata.
type User struct {
	// ID is the unique identifier of the user.
	ID int64 `json:"id" db:"user_id"`

	// Username is the unique login name chosen by the user.
	Username string `json:"username" db:"username"`

	// Email is the user's unique email address.
	Email string `json:"email" db:"email"`

	// PasswordHash stores the bcrypt hash of the user's password.
	// This field is never exposed in API responses.
	PasswordHash string `json:"-" db:"password"`

	// Enabled reports whether the account may be used at all.
	Enabled bool `json:"enabled" db:"enabled"`

	// AccountNonLocked is false while an administrator has locked the account.
	AccountNonLocked bool `json:"accountNonLocked" db:"account_non_locked"`

	// AccountNonExpired is false once the account has been expired manually.
	AccountNonExpired bool `json:"accountNonExpired" db:"account_non_expired"`

	// CredentialsNonExpired is false once the password must be rotated.
	CredentialsNonExpired bool `json:"credentialsNonExpired" db:"credentials_non_expired"`

	// CredentialsExpiryDate is the day after which the password is no longer accepted.
	CredentialsExpiryDate *time.Time `json:"credentialsExpiryDate,omitempty" db:"credentials_expiry_date"`

	// AccountExpiryDate is the day after which the account is no longer accepted.
	AccountExpiryDate *time.Time `json:"accountExpiryDate,omitempty" db:"account_expiry_date"`

	// TwoFactorEnabled is stored for clients; sign-in does not act on it.
	TwoFactorEnabled bool `json:"isTwoFactorEnabled" db:"is_two_factor_enabled"`

	// SignUpMethod records how the account was created (e.g., "email").
	SignUpMethod string `json:"signUpMethod" db:"sign_up_method"`

	// Role is the single role granted to the user. It references a row of
	// the immutable roles lookup table.
	Role Role `json:"role" db:"role_id"`

	// CreatedAt is the timestamp when the user account was created.
	CreatedAt time.Time `json:"createdAt" db:"created_at"`

	// UpdatedAt is the timestamp of the most recent update to the user account.
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}

// UserInfoResponse is the payload returned for the current user.
type UserInfoResponse struct {
	ID                    int64      `json:"id"`
	Username              string     `json:"username"`
	Email                 string     `json:"email"`
	AccountNonLocked      bool       `json:"accountNonLocked"`
	AccountNonExpired     bool       `json:"accountNonExpired"`
	CredentialsNonExpired bool       `json:"credentialsNonExpired"`
	Enabled               bool       `json:"enabled"`
	CredentialsExpiryDate *time.Time `json:"credentialsExpiryDate"`
	AccountExpiryDate     *time.Time `json:"accountExpiryDate"`
	TwoFactorEnabled      bool       `json:"isTwoFactorEnabled"`
	Roles                 []string   `json:"roles"`
}

// SignupRequest is the payload accepted by the public signup endpoint.
type SignupRequest struct {
	Username string   `json:"username"`
	Email    string   `json:"email"`
	Password string   `json:"password"`
	Role     []string `json:"role"`
}

// LoginRequest is the payload accepted by the public signin endpoint.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResponse is returned after a successful signin.
type LoginResponse struct {
	ID       int64    `json:"id"`
	Username string   `json:"username"`
	Roles    []string `json:"roles"`
	Token    string   `json:"jwtToken"`
}

// MessageResponse carries a plain informational message.
type MessageResponse struct {
	Message string `json:"message"`
}
