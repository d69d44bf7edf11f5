package accounts

import (
	"context"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	goerrors "github.com/goliatone/go-errors"
	"github.com/uptrace/bun"
)

type RegisterAccountMessage struct {
	FullName      string `json:"full_name"`
	PreferredName string `json:"preferred_name"`
	Email         string `json:"email"`
	Password      string `json:"password"`
	OnResponse    func(resp *RegisterAccountResponse)
}

func (e RegisterAccountMessage) Type() string { return "account.register" }

// Validate checks the input shape before any persistence work happens.
func (e RegisterAccountMessage) Validate() error {
	return validation.ValidateStruct(&e,
		validation.Field(&e.FullName, validation.Required, validation.Length(1, 128)),
		validation.Field(&e.PreferredName, validation.Length(0, 128)),
		validation.Field(&e.Email, validation.Required, is.Email, validation.Length(3, 254)),
		validation.Field(&e.Password, validation.Required, validation.Length(6, 128)),
	)
}

type RegisterAccountResponse struct {
	User    *User
	Success bool
}

// RegisterAccountHandler creates the account, then issues a confirmation
// token and dispatches the confirmation email. The account commit is
// all-or-nothing; token issuance and delivery failures after commit are
// logged, never rolled back.
type RegisterAccountHandler struct {
	repo     RepositoryManager
	tokens   ActionTokenService
	notifier Notifier
	activity ActivitySink
	logger   Logger
}

func NewRegisterAccountHandler(repo RepositoryManager, tokens ActionTokenService) *RegisterAccountHandler {
	return &RegisterAccountHandler{
		repo:     repo,
		tokens:   tokens,
		notifier: noopNotifier{},
		activity: noopActivitySink{},
		logger:   defLogger{},
	}
}

func (h *RegisterAccountHandler) WithNotifier(n Notifier) *RegisterAccountHandler {
	h.notifier = normalizeNotifier(n)
	return h
}

func (h *RegisterAccountHandler) WithActivitySink(sink ActivitySink) *RegisterAccountHandler {
	h.activity = normalizeActivitySink(sink)
	return h
}

func (h *RegisterAccountHandler) WithLogger(logger Logger) *RegisterAccountHandler {
	if logger != nil {
		h.logger = logger
	}
	return h
}

func (h *RegisterAccountHandler) Execute(ctx context.Context, event RegisterAccountMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during account registration",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *RegisterAccountHandler) execute(ctx context.Context, event RegisterAccountMessage) error {
	if err := event.Validate(); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryValidation, "invalid registration input")
	}

	user := &User{}
	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	err := h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		hash, err := HashPassword(event.Password)
		if err != nil {
			var richErr *goerrors.Error
			if goerrors.As(err, &richErr) {
				return goerrors.Wrap(richErr, goerrors.CategoryValidation, "invalid password provided")
			}
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to hash password")
		}

		user.PasswordHash = hash
		user.Email = event.Email
		user.FullName = event.FullName
		user.PreferredName = event.PreferredName
		user.Role = RoleMember
		user.EmailConfirmed = false

		if user, err = h.repo.Users().CreateTx(ctx, tx, user); err != nil {
			if IsDuplicateEmailError(err) {
				return err
			}
			return goerrors.Wrap(err, goerrors.CategoryConflict, "could not create user")
		}

		return nil
	})

	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return richErr
		}

		return goerrors.Wrap(err, goerrors.CategoryInternal, "account registration transaction failed")
	}

	// The account is committed at this point. Notification failures are
	// best-effort, the user can always request a resend.
	if err := h.sendConfirmation(ctx, user); err != nil {
		h.logger.Warn("failed to dispatch confirmation email", "email", user.Email, "error", err)
	}

	h.recordActivity(ctx, user)

	if event.OnResponse != nil {
		event.OnResponse(&RegisterAccountResponse{
			User:    user,
			Success: true,
		})
	}

	return nil
}

func (h *RegisterAccountHandler) sendConfirmation(ctx context.Context, user *User) error {
	token, err := h.tokens.Issue(user.Email, PurposeConfirmEmail)
	if err != nil {
		return err
	}

	return h.notifier.SendEmailConfirmation(ctx, user, token)
}

func (h *RegisterAccountHandler) recordActivity(ctx context.Context, user *User) {
	event := ActivityEvent{
		EventType: ActivityEventRegisterSuccess,
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
		h.logger.Warn("activity sink error during registration", "error", err)
	}
}
