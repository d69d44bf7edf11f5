package accounts

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/uptrace/bun"
)

type ConfirmEmailMessage struct {
	Token      string `json:"token"`
	OnResponse func(resp *ConfirmEmailResponse)
}

func (e ConfirmEmailMessage) Type() string { return "account.confirm_email" }

type ConfirmEmailResponse struct {
	User    *User
	Success bool
}

// ConfirmEmailHandler verifies a confirmation token and flips the account's
// confirmation flag. Confirming twice is a no-op; a token for a deleted
// account fails the same way as a bad token.
type ConfirmEmailHandler struct {
	repo     RepositoryManager
	tokens   ActionTokenService
	activity ActivitySink
	logger   Logger
}

func NewConfirmEmailHandler(repo RepositoryManager, tokens ActionTokenService) *ConfirmEmailHandler {
	return &ConfirmEmailHandler{
		repo:     repo,
		tokens:   tokens,
		activity: noopActivitySink{},
		logger:   defLogger{},
	}
}

func (h *ConfirmEmailHandler) WithActivitySink(sink ActivitySink) *ConfirmEmailHandler {
	h.activity = normalizeActivitySink(sink)
	return h
}

func (h *ConfirmEmailHandler) WithLogger(logger Logger) *ConfirmEmailHandler {
	if logger != nil {
		h.logger = logger
	}
	return h
}

func (h *ConfirmEmailHandler) Execute(ctx context.Context, event ConfirmEmailMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during email confirmation",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *ConfirmEmailHandler) execute(ctx context.Context, event ConfirmEmailMessage) error {
	claims, err := h.tokens.Verify(event.Token, PurposeConfirmEmail, ConfirmTokenMaxAge)
	if err != nil {
		return err
	}

	user := &User{}
	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	err = h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		user, err = h.repo.Users().GetByEmailTx(ctx, tx, claims.Payload())
		if err != nil {
			if repository.IsRecordNotFound(err) {
				return ErrInvalidOrExpiredToken
			}
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to retrieve user for confirmation")
		}

		if user.EmailConfirmed {
			return nil
		}

		if err := h.repo.Users().ConfirmEmailTx(ctx, tx, user.ID); err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to persist email confirmation")
		}

		user.EmailConfirmed = true

		return nil
	})

	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return richErr
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to confirm email")
	}

	h.recordActivity(ctx, user)

	if event.OnResponse != nil {
		event.OnResponse(&ConfirmEmailResponse{
			User:    user,
			Success: true,
		})
	}

	return nil
}

func (h *ConfirmEmailHandler) recordActivity(ctx context.Context, user *User) {
	event := ActivityEvent{
		EventType: ActivityEventEmailConfirmed,
		Actor: ActorRef{
			ID:   user.ID.String(),
			Type: "user",
		},
		UserID: user.ID.String(),
		Metadata: map[string]any{
			"email": user.Email,
		},
		OccurredAt: time.Now(),
	}

	if err := normalizeActivitySink(h.activity).Record(ctx, event); err != nil {
		h.logger.Warn("activity sink error during confirmation", "error", err)
	}
}
