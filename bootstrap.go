package accounts

import (
	"context"

	"github.com/goliatone/go-errors"
	"github.com/uptrace/bun"
)

// ResetSchema drops and recreates the users table. Meant for development and
// test environments, it destroys all account data.
func ResetSchema(ctx context.Context, db *bun.DB) error {
	if _, err := db.NewDropTable().
		Model((*User)(nil)).
		IfExists().
		Exec(ctx); err != nil {
		return errors.Wrap(err, errors.CategoryInternal, "failed to drop users table")
	}

	if _, err := db.NewCreateTable().
		Model((*User)(nil)).
		Exec(ctx); err != nil {
		return errors.Wrap(err, errors.CategoryInternal, "failed to create users table")
	}

	return nil
}

// SeedAdmin ensures an admin account exists with the given credentials. The
// account is created confirmed so it can sign in immediately. An existing
// account with the same email is left untouched.
func SeedAdmin(ctx context.Context, repo RepositoryManager, email, password string) (*User, error) {
	if existing, err := repo.Users().GetByEmail(ctx, email); err == nil {
		return existing, nil
	}

	hash, err := HashPassword(password)
	if err != nil {
		return nil, err
	}

	user := &User{
		FullName:       "Administrator",
		Email:          email,
		EmailConfirmed: true,
		PasswordHash:   hash,
		Role:           RoleAdmin,
	}

	return repo.Users().Create(ctx, user)
}
