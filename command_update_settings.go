package accounts

import (
	"context"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	goerrors "github.com/goliatone/go-errors"
	"github.com/uptrace/bun"
)

type UpdateSettingsMessage struct {
	UserID          string `json:"user_id"`
	FullName        string `json:"full_name"`
	PreferredName   string `json:"preferred_name"`
	Email           string `json:"email"`
	CurrentPassword string `json:"current_password"`
	OnResponse      func(resp *UpdateSettingsResponse)
}

func (e UpdateSettingsMessage) Type() string { return "account.settings.update" }

func (e UpdateSettingsMessage) Validate() error {
	return validation.ValidateStruct(&e,
		validation.Field(&e.UserID, validation.Required),
		validation.Field(&e.FullName, validation.Required, validation.Length(1, 128)),
		validation.Field(&e.PreferredName, validation.Length(0, 128)),
		validation.Field(&e.Email, validation.Required, is.Email, validation.Length(3, 254)),
		validation.Field(&e.CurrentPassword, validation.Required),
	)
}

type UpdateSettingsResponse struct {
	User    *User
	Success bool
}

// UpdateSettingsHandler applies name and email changes to the principal's
// account. The current password is re-verified first; a mismatch mutates
// nothing.
type UpdateSettingsHandler struct {
	repo   RepositoryManager
	logger Logger
}

func NewUpdateSettingsHandler(repo RepositoryManager) *UpdateSettingsHandler {
	return &UpdateSettingsHandler{
		repo:   repo,
		logger: defLogger{},
	}
}

func (h *UpdateSettingsHandler) WithLogger(logger Logger) *UpdateSettingsHandler {
	if logger != nil {
		h.logger = logger
	}
	return h
}

func (h *UpdateSettingsHandler) Execute(ctx context.Context, event UpdateSettingsMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during settings update",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *UpdateSettingsHandler) execute(ctx context.Context, event UpdateSettingsMessage) error {
	if err := event.Validate(); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryValidation, "invalid settings input")
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
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to retrieve user for settings update")
		}

		if err := ComparePasswordAndHash(event.CurrentPassword, user.PasswordHash); err != nil {
			return ErrMismatchedHashAndPassword
		}

		user.FullName = event.FullName
		user.PreferredName = event.PreferredName
		user.Email = event.Email

		if user, err = h.repo.Users().UpdateTx(ctx, tx, user); err != nil {
			if IsDuplicateEmailError(err) {
				return err
			}
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to persist settings update")
		}

		return nil
	})

	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return richErr
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "settings update transaction failed")
	}

	if event.OnResponse != nil {
		event.OnResponse(&UpdateSettingsResponse{
			User:    user,
			Success: true,
		})
	}

	return nil
}
