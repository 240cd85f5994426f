package auth

import (
	"errors"

	"github.com/securenotes/apiserver/internal/failure"
	"golang.org/x/crypto/bcrypt"
)

// PasswordEncoder hashes and checks passwords with bcrypt.
type PasswordEncoder struct {
	cost int
}

func NewPasswordEncoder(cost int) *PasswordEncoder {
	if cost < bcrypt.MinCost {
		cost = bcrypt.DefaultCost
	}
	return &PasswordEncoder{cost: cost}
}

// Encode returns the salted bcrypt hash of plain.
func (e *PasswordEncoder) Encode(plain string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(plain), e.cost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return "", failure.New(failure.ErrInvalidRequest, "password is too long")
		}
		return "", err
	}
	return string(hashed), nil
}

// Matches reports whether plain hashes to hash.
func (e *PasswordEncoder) Matches(plain, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}
