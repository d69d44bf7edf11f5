package accounts

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// UserRole is the user's role
type UserRole = string

const (
	// RoleMember is the default role for self-registered accounts
	RoleMember UserRole = "member"
	// RoleAdmin grants access to the administrative dashboard
	RoleAdmin UserRole = "admin"
)

// User is the account model. Email is unique and compared as stored; the
// password column only ever holds a bcrypt hash.
type User struct {
	bun.BaseModel  `bun:"table:users,alias:usr"`
	ID             uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Role           UserRole   `bun:"user_role,notnull" json:"user_role,omitempty"`
	FullName       string     `bun:"full_name,notnull" json:"full_name,omitempty"`
	PreferredName  string     `bun:"preferred_name,notnull" json:"preferred_name,omitempty"`
	Email          string     `bun:"email,notnull,unique" json:"email,omitempty"`
	EmailConfirmed bool       `bun:"is_email_confirmed" json:"is_email_confirmed,omitempty"`
	PasswordHash   string     `bun:"password_hash" json:"password_hash,omitempty"`
	LoginAttempts  int        `bun:"login_attempts" json:"login_attempts,omitempty"`
	LoginAttemptAt *time.Time `bun:"login_attempt_at" json:"login_attempt_at,omitempty"`
	LoggedInAt     *time.Time `bun:"loggedin_at" json:"loggedin_at,omitempty"`
	CreatedAt      *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt      *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
}

// DisplayName is what we call the user, e.g. when we send them email.
func (u *User) DisplayName() string {
	if u.PreferredName != "" {
		return u.PreferredName
	}
	return u.FullName
}

// Token purposes. A purpose tag namespaces a signed token to exactly one
// workflow so a confirmation token can never be replayed as a reset token.
const (
	// PurposeConfirmEmail scopes tokens minted for email confirmation links
	PurposeConfirmEmail = "confirm-email"
	// PurposeResetPassword scopes tokens minted for password reset links
	PurposeResetPassword = "reset-password"
)

const (
	// ConfirmTokenMaxAge is how long a confirmation token stays valid
	ConfirmTokenMaxAge = 24 * time.Hour
	// ResetTokenMaxAge is how long a password reset token stays valid
	ResetTokenMaxAge = time.Hour
)
