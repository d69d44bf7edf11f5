package accounts

import (
	"context"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	goerrors "github.com/goliatone/go-errors"
	"github.com/uptrace/bun"
)

type UpdatePasswordMessage struct {
	UserID          string `json:"user_id"`
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
	OnResponse      func(resp *UpdatePasswordResponse)
}

func (e UpdatePasswordMessage) Type() string { return "account.password.update" }

func (e UpdatePasswordMessage) Validate() error {
	return validation.ValidateStruct(&e,
		validation.Field(&e.UserID, validation.Required),
		validation.Field(&e.CurrentPassword, validation.Required),
		validation.Field(&e.NewPassword, validation.Required, validation.Length(6, 128)),
	)
}

type UpdatePasswordResponse struct {
	User    *User
	Success bool
}

// UpdatePasswordHandler rotates the password for an authenticated principal.
// A wrong current password leaves the stored hash untouched. Because the hash
// changes, outstanding reset tokens issued before the rotation stop verifying.
type UpdatePasswordHandler struct {
	repo   RepositoryManager
	logger Logger
}

func NewUpdatePasswordHandler(repo RepositoryManager) *UpdatePasswordHandler {
	return &UpdatePasswordHandler{
		repo:   repo,
		logger: defLogger{},
	}
}

func (h *UpdatePasswordHandler) WithLogger(logger Logger) *UpdatePasswordHandler {
	if logger != nil {
		h.logger = logger
	}
	return h
}

func (h *UpdatePasswordHandler) Execute(ctx context.Context, event UpdatePasswordMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during password update",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *UpdatePasswordHandler) execute(ctx context.Context, event UpdatePasswordMessage) error {
	if err := event.Validate(); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryValidation, "invalid password update input")
	}

	user := &User{}
	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	err := h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		var err error
		user, err = h.repo.Users().GetByIdentifierTx(ctx, tx, event.UserID)
		if err != nil {
			if goerrors.IsNotFound(err) {
				return ErrAccountNotFound
			}
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to retrieve user for password update")
		}

		if err := ComparePasswordAndHash(event.CurrentPassword, user.PasswordHash); err != nil {
			return ErrMismatchedHashAndPassword
		}

		passwordHash, err := HashPassword(event.NewPassword)
		if err != nil {
			return goerrors.Wrap(err, goerrors.CategoryValidation, "invalid new password provided")
		}

		user.PasswordHash = passwordHash

		if user, err = h.repo.Users().UpdateTx(ctx, tx, user); err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to persist password update")
		}

		return nil
	})

	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return richErr
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "password update transaction failed")
	}

	if event.OnResponse != nil {
		event.OnResponse(&UpdatePasswordResponse{
			User:    user,
			Success: true,
		})
	}

	return nil
}
