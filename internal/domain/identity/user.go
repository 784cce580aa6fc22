// Package identity holds user accounts. Every business record is owned by
// exactly one user; there are no roles.
package identity

import (
	"regexp"
	"strings"
	"time"
	"unicode"

	"golang.org/x/crypto/bcrypt"

	"github.com/invoicer/backend/internal/domain/shared"
)

type UserStatus string

const (
	UserStatusActive      UserStatus = "active"
	UserStatusLocked      UserStatus = "locked" // too many failed logins, until LockedUntil
	UserStatusDeactivated UserStatus = "deactivated"
)

// Account field limits
const (
	bcryptCost        = 12
	minPasswordLength = 8
	maxPasswordLength = 72 // bcrypt ignores anything beyond 72 bytes
	maxEmailLength    = 200
	maxNameLength     = 200
)

var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

type User struct {
	shared.BaseEntity
	Email          string
	PasswordHash   string
	Name           string
	Status         UserStatus
	LastLoginAt    *time.Time
	LastLoginIP    string
	FailedAttempts int
	LockedUntil    *time.Time
}

// NewUser registers an active account. The email is normalized before
// validation and the password is stored as a bcrypt hash.
func NewUser(email, name, password string) (*User, error) {
	email = NormalizeEmail(email)
	name = strings.TrimSpace(name)

	switch {
	case email == "":
		return nil, invalid("INVALID_EMAIL", "Email cannot be empty")
	case len(email) > maxEmailLength:
		return nil, invalid("INVALID_EMAIL", "Email cannot exceed 200 characters")
	case !emailPattern.MatchString(email):
		return nil, invalid("INVALID_EMAIL", "Invalid email format")
	case name == "":
		return nil, invalid("INVALID_NAME", "Name cannot be empty")
	case len(name) > maxNameLength:
		return nil, invalid("INVALID_NAME", "Name cannot exceed 200 characters")
	}
	if err := checkPassword(password); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return nil, invalid("PASSWORD_HASH_ERROR", "Failed to hash password")
	}
	return &User{
		BaseEntity:   shared.NewBaseEntity(),
		Email:        email,
		PasswordHash: string(hash),
		Name:         name,
		Status:       UserStatusActive,
	}, nil
}

// NormalizeEmail is the canonical form used for storage and lookups
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func invalid(code, msg string) error {
	return shared.NewDomainError(code, msg)
}

// checkPassword requires 8 to 72 bytes with at least one letter and one digit
func checkPassword(password string) error {
	if len(password) < minPasswordLength {
		return invalid("INVALID_PASSWORD", "Password must be at least 8 characters")
	}
	if len(password) > maxPasswordLength {
		return invalid("INVALID_PASSWORD", "Password cannot exceed 72 characters")
	}
	var letter, digit bool
	for _, r := range password {
		letter = letter || unicode.IsLetter(r)
		digit = digit || unicode.IsDigit(r)
	}
	if !letter || !digit {
		return invalid("INVALID_PASSWORD", "Password must contain at least one letter and one number")
	}
	return nil
}

func (u *User) VerifyPassword(password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) == nil
}

// RecordLoginSuccess resets the failure counter and lifts an expired lock
func (u *User) RecordLoginSuccess(ip string) {
	now := time.Now()
	u.LastLoginAt = &now
	u.LastLoginIP = ip
	u.FailedAttempts = 0
	if u.Status == UserStatusLocked {
		u.Status = UserStatusActive
		u.LockedUntil = nil
	}
	u.UpdatedAt = now
}

// RecordLoginFailure counts a failed attempt and locks the account for
// lockFor once maxAttempts is reached. It reports whether this attempt locked it.
func (u *User) RecordLoginFailure(maxAttempts int, lockFor time.Duration) bool {
	now := time.Now()
	u.FailedAttempts++
	u.UpdatedAt = now
	if maxAttempts <= 0 || u.FailedAttempts < maxAttempts {
		return false
	}
	until := now.Add(lockFor)
	u.Status = UserStatusLocked
	u.LockedUntil = &until
	return true
}

// IsLocked is true while a lock is in force; an elapsed lock no longer counts
func (u *User) IsLocked() bool {
	if u.Status != UserStatusLocked {
		return false
	}
	return u.LockedUntil == nil || time.Now().Before(*u.LockedUntil)
}

func (u *User) CanLogin() bool {
	return u.Status != UserStatusDeactivated && !u.IsLocked()
}

// Deactivate disables the account for good
func (u *User) Deactivate() error {
	if u.Status == UserStatusDeactivated {
		return shared.NewDomainError("ALREADY_DEACTIVATED", "User is already deactivated")
	}
	u.Status = UserStatusDeactivated
	u.Touch()
	return nil
}
