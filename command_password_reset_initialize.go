package accounts

import (
	"context"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
)

type InitializePasswordResetMessage struct {
	Email      string `json:"email"`
	OnResponse func(resp *InitializePasswordResetResponse)
}

func (p InitializePasswordResetMessage) Type() string { return "account.password_reset" }

func (p InitializePasswordResetMessage) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.Email, validation.Required, is.Email),
	)
}

// InitializePasswordResetResponse mirrors ResendConfirmationResponse: Delivered
// stays internal and the outward message is uniform for known and unknown
// addresses.
type InitializePasswordResetResponse struct {
	Delivered bool
	Success   bool
}

// InitializePasswordResetHandler issues a reset token bound to the account's
// current password hash. Completing a reset, or any other password change,
// invalidates every token issued before it.
type InitializePasswordResetHandler struct {
	repo     RepositoryManager
	tokens   ActionTokenService
	notifier Notifier
	logger   Logger
}

func NewInitializePasswordResetHandler(repo RepositoryManager, tokens ActionTokenService) *InitializePasswordResetHandler {
	return &InitializePasswordResetHandler{
		repo:     repo,
		tokens:   tokens,
		notifier: noopNotifier{},
		logger:   defLogger{},
	}
}

func (h *InitializePasswordResetHandler) WithNotifier(n Notifier) *InitializePasswordResetHandler {
	h.notifier = normalizeNotifier(n)
	return h
}

func (h *InitializePasswordResetHandler) WithLogger(logger Logger) *InitializePasswordResetHandler {
	if logger != nil {
		h.logger = logger
	}
	return h
}

func (h *InitializePasswordResetHandler) Execute(ctx context.Context, event InitializePasswordResetMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during password reset initialization",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *InitializePasswordResetHandler) execute(ctx context.Context, event InitializePasswordResetMessage) error {
	if err := event.Validate(); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryValidation, "invalid password reset input")
	}

	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	resp := &InitializePasswordResetResponse{Success: true}

	user, err := h.repo.Users().GetByEmail(ctx, event.Email)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			if event.OnResponse != nil {
				event.OnResponse(resp)
			}
			return nil
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to retrieve user for password reset")
	}

	token, err := h.tokens.Issue(
		user.Email,
		PurposeResetPassword,
		WithFingerprint(PasswordFingerprint(user.PasswordHash)),
	)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to issue password reset token")
	}

	if err := h.notifier.SendPasswordReset(ctx, user, token); err != nil {
		h.logger.Warn("failed to dispatch password reset email", "email", user.Email, "error", err)
	}

	resp.Delivered = true

	if event.OnResponse != nil {
		event.OnResponse(resp)
	}

	return nil
}
