package accounts

import (
	"context"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
)

type ResendConfirmationMessage struct {
	Email      string `json:"email"`
	OnResponse func(resp *ResendConfirmationResponse)
}

func (e ResendConfirmationMessage) Type() string { return "account.confirm_email.resend" }

func (e ResendConfirmationMessage) Validate() error {
	return validation.ValidateStruct(&e,
		validation.Field(&e.Email, validation.Required, is.Email),
	)
}

// ResendConfirmationResponse reports Delivered only to the caller. User-facing
// surfaces show the same generic message whether or not a token went out, so
// an unknown email cannot be probed through this operation.
type ResendConfirmationResponse struct {
	Delivered bool
	Success   bool
}

type ResendConfirmationHandler struct {
	repo     RepositoryManager
	tokens   ActionTokenService
	notifier Notifier
	logger   Logger
}

func NewResendConfirmationHandler(repo RepositoryManager, tokens ActionTokenService) *ResendConfirmationHandler {
	return &ResendConfirmationHandler{
		repo:     repo,
		tokens:   tokens,
		notifier: noopNotifier{},
		logger:   defLogger{},
	}
}

func (h *ResendConfirmationHandler) WithNotifier(n Notifier) *ResendConfirmationHandler {
	h.notifier = normalizeNotifier(n)
	return h
}

func (h *ResendConfirmationHandler) WithLogger(logger Logger) *ResendConfirmationHandler {
	if logger != nil {
		h.logger = logger
	}
	return h
}

func (h *ResendConfirmationHandler) Execute(ctx context.Context, event ResendConfirmationMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during confirmation resend",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *ResendConfirmationHandler) execute(ctx context.Context, event ResendConfirmationMessage) error {
	if err := event.Validate(); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryValidation, "invalid resend input")
	}

	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	resp := &ResendConfirmationResponse{Success: true}

	user, err := h.repo.Users().GetByEmail(ctx, event.Email)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			// No state change, same outward response as the happy path.
			if event.OnResponse != nil {
				event.OnResponse(resp)
			}
			return nil
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to retrieve user for confirmation resend")
	}

	if user.EmailConfirmed {
		if event.OnResponse != nil {
			event.OnResponse(resp)
		}
		return nil
	}

	token, err := h.tokens.Issue(user.Email, PurposeConfirmEmail)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to issue confirmation token")
	}

	if err := h.notifier.SendEmailConfirmation(ctx, user, token); err != nil {
		h.logger.Warn("failed to dispatch confirmation email", "email", user.Email, "error", err)
	}

	resp.Delivered = true

	if event.OnResponse != nil {
		event.OnResponse(resp)
	}

	return nil
}
