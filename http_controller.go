package accounts

import (
	"errors"
	"fmt"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/gofiber/fiber/v2"
	"github.com/goliatone/go-print"
	"github.com/goliatone/go-router"
	"github.com/goliatone/go-router/flash"
)

// RegisterAuthRoutes wires the account controller into the given router.
// Anonymous routes come first, then the session-protected settings and admin
// surfaces.
func RegisterAuthRoutes[T any](app router.Router[T], opts ...AuthControllerOption) {
	controller := NewAuthController(opts...)

	protected := controller.Auther.ProtectedRoute(controller.Cfg, controller.authErrorHandler)
	optional := controller.Auther.OptionalSession(controller.Cfg)

	app.Get(controller.Routes.Login, optional(controller.LoginShow)).SetName("sign-in.get")
	app.Post(controller.Routes.Login, optional(controller.LoginPost)).SetName("sign-in.post")

	app.Get(controller.Routes.Logout, protected(controller.LogOut)).SetName("sign-out.get")

	app.Get(controller.Routes.Register, optional(controller.RegistrationShow)).
		SetName("register.get")
	app.Post(controller.Routes.Register, optional(controller.RegistrationCreate)).
		SetName("register.post")

	app.Get(fmt.Sprintf("%s/:token", controller.Routes.Confirm), controller.ConfirmEmail).
		SetName("confirm.get")
	app.Get(controller.Routes.ConfirmResend, controller.ResendConfirmationShow).
		SetName("confirm-resend.get")
	app.Post(controller.Routes.ConfirmResend, controller.ResendConfirmationPost).
		SetName("confirm-resend.post")

	app.Get(controller.Routes.PasswordReset, controller.PasswordResetGet).
		SetName("pwd-reset.get")
	app.Post(controller.Routes.PasswordReset, controller.PasswordResetPost).
		SetName("pwd-reset.post")

	app.Get(fmt.Sprintf("%s/:token", controller.Routes.PasswordReset), controller.PasswordResetForm).
		SetName("pwd-reset-do.get")
	app.Post(fmt.Sprintf("%s/:token", controller.Routes.PasswordReset), controller.PasswordResetExecute).
		SetName("pwd-reset-do.post")

	app.Get(controller.Routes.Settings, protected(controller.SettingsShow)).
		SetName("settings.get")
	app.Post(controller.Routes.Settings, protected(controller.SettingsPost)).
		SetName("settings.post")
	app.Post(controller.Routes.Password, protected(controller.PasswordPost)).
		SetName("settings-password.post")

	app.Get(controller.Routes.Admin, protected(controller.AdminShow)).
		SetName("admin.get")
}

type AuthControllerRoutes struct {
	Login         string
	Logout        string
	Register      string
	Confirm       string
	ConfirmResend string
	PasswordReset string
	Settings      string
	Password      string
	Admin         string
}

type AuthControllerViews struct {
	Login         string
	Register      string
	PasswordReset string
	Settings      string
	Admin         string
}

type AuthController struct {
	Debug        bool
	Logger       Logger
	Repo         RepositoryManager
	Tokens       ActionTokenService
	Notifier     Notifier
	Activity     ActivitySink
	Cfg          Config
	Routes       *AuthControllerRoutes
	Views        *AuthControllerViews
	Auther       HTTPAuthenticator
	ErrorHandler router.ErrorHandler
}

type AuthControllerOption func(*AuthController) *AuthController

func WithControllerRepo(repo RepositoryManager) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Repo = repo
		return c
	}
}

func WithControllerAuther(auther HTTPAuthenticator) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Auther = auther
		return c
	}
}

func WithControllerTokens(tokens ActionTokenService) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Tokens = tokens
		return c
	}
}

func WithControllerNotifier(notifier Notifier) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Notifier = normalizeNotifier(notifier)
		return c
	}
}

func WithControllerActivitySink(sink ActivitySink) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Activity = normalizeActivitySink(sink)
		return c
	}
}

func WithControllerConfig(cfg Config) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Cfg = cfg
		return c
	}
}

func WithControllerLogger(logger Logger) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		if logger != nil {
			c.Logger = logger
		}
		return c
	}
}

func NewAuthController(opts ...AuthControllerOption) *AuthController {
	c := &AuthController{
		Logger:       defLogger{},
		Notifier:     noopNotifier{},
		Activity:     noopActivitySink{},
		ErrorHandler: defaultErrHandler,
		Routes: &AuthControllerRoutes{
			Login:         "/auth/login",
			Logout:        "/auth/logout",
			Register:      "/auth/register",
			Confirm:       "/auth/confirm",
			ConfirmResend: "/auth/confirm-resend",
			PasswordReset: "/auth/password-reset",
			Settings:      "/settings",
			Password:      "/settings/password",
			Admin:         "/admin",
		},
		Views: &AuthControllerViews{
			Login:         "login",
			Register:      "register",
			PasswordReset: "password_reset",
			Settings:      "settings",
			Admin:         "admin",
		},
	}

	for _, opt := range opts {
		c = opt(c)
	}

	if c.Repo == nil {
		panic("Missing RepositoryManager in auth controller...")
	}

	if c.Auther == nil {
		panic("Missing HTTPAuthenticator in auth controller...")
	}

	if c.Tokens == nil {
		panic("Missing ActionTokenService in auth controller...")
	}

	if c.Cfg == nil {
		panic("Missing Config in auth controller...")
	}

	return c
}

func (a *AuthController) authErrorHandler(ctx router.Context, err error) error {
	a.Logger.Info("protected route rejected", "path", ctx.OriginalURL(), "error", err)
	return flash.WithError(ctx, router.ViewContext{
		"system_message": "Please sign in to continue",
	}).Redirect(a.Routes.Login, fiber.StatusSeeOther)
}

func (a *AuthController) session(ctx router.Context) (Session, bool) {
	return GetRouterSession(ctx, a.Cfg.GetContextKey())
}

// sessionEstablished reports whether the request already carries a live
// session. Sign-in and registration surfaces bounce those users home.
func (a *AuthController) sessionEstablished(ctx router.Context) bool {
	session, ok := a.session(ctx)
	if !ok {
		return false
	}
	return RequireAnonymous(session) != nil
}

func (a *AuthController) LoginShow(ctx router.Context) error {
	if a.sessionEstablished(ctx) {
		return ctx.Redirect("/", router.StatusSeeOther)
	}

	return ctx.Render(a.Views.Login, router.ViewContext{
		"errors": nil,
		"record": nil,
	})
}

// LoginRequest payload
type LoginRequest struct {
	Identifier string `form:"identifier" json:"identifier"`
	Password   string `form:"password" json:"password"`
	RememberMe bool   `form:"remember_me" json:"remember_me"`
}

// GetIdentifier returns the identifier
func (r LoginRequest) GetIdentifier() string {
	return r.Identifier
}

// GetPassword will return the password
func (r LoginRequest) GetPassword() string {
	return r.Password
}

// GetExtendedSession reports whether the remember-me box was checked
func (r LoginRequest) GetExtendedSession() bool {
	return r.RememberMe
}

// Validate will run validation rules
func (r LoginRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(
			&r.Identifier,
			validation.Required,
			is.Email,
		),
		validation.Field(
			&r.Password,
			validation.Required,
		),
	)
}

func (a *AuthController) LoginPost(ctx router.Context) error {
	if a.sessionEstablished(ctx) {
		return ctx.Redirect("/", router.StatusSeeOther)
	}

	payload := new(LoginRequest)
	errs := map[string]string{}

	if err := ctx.Bind(payload); err != nil {
		return a.ErrorHandler(ctx, err)
	}

	if err := payload.Validate(); err != nil {
		return ctx.Render(a.Views.Login, router.ViewContext{
			"record":     payload,
			"validation": FormatValidationErrorToMap(err),
		})
	}

	if a.Debug {
		a.Logger.Debug("login attempt", "payload", print.MaybePrettyJSON(payload))
	}

	if err := a.Auther.Login(ctx, payload); err != nil {
		// The unconfirmed-email outcome is deliberately distinct, every
		// other failure collapses into the generic message.
		if errors.Is(err, ErrEmailNotConfirmed) {
			errs["authentication"] = "Please confirm your email address before signing in"
		} else {
			errs["authentication"] = "Incorrect email or password"
		}

		return ctx.Render(a.Views.Login, router.ViewContext{
			"errors": errs,
			"record": payload,
		})
	}

	redirect := a.Auther.GetRedirect(ctx, "/")

	return ctx.Redirect(redirect, router.StatusSeeOther)
}

func (a *AuthController) LogOut(ctx router.Context) error {
	session, ok := a.session(ctx)
	if !ok {
		return a.authErrorHandler(ctx, ErrUnableToFindSession)
	}

	if err := RequireAuthenticated(session); err != nil {
		return a.authErrorHandler(ctx, err)
	}

	a.Auther.Logout(ctx)
	a.recordLogout(ctx, session)

	return ctx.Redirect("/", router.StatusTemporaryRedirect)
}

func (a *AuthController) recordLogout(ctx router.Context, session Session) {
	event := ActivityEvent{
		EventType: ActivityEventLogout,
		Actor: ActorRef{
			ID:   session.GetUserID(),
			Type: "user",
		},
		UserID:     session.GetUserID(),
		Metadata:   map[string]any{},
		OccurredAt: time.Now(),
	}

	if err := normalizeActivitySink(a.Activity).Record(ctx.Context(), event); err != nil {
		a.Logger.Warn("activity sink error during logout", "error", err)
	}
}

func (a *AuthController) RegistrationShow(ctx router.Context) error {
	if a.sessionEstablished(ctx) {
		return ctx.Redirect("/", router.StatusSeeOther)
	}

	return ctx.Render(a.Views.Register, router.ViewContext{
		"errors": map[string]string{},
		"record": RegisterAccountMessage{},
	})
}

// RegistrationCreatePayload is the form payload
type RegistrationCreatePayload struct {
	FullName        string `form:"full_name" json:"full_name"`
	PreferredName   string `form:"preferred_name" json:"preferred_name"`
	Email           string `form:"email" json:"email"`
	Password        string `form:"password" json:"password"`
	ConfirmPassword string `form:"confirm_password" json:"confirm_password"`
}

// Validate will validate the payload
func (r RegistrationCreatePayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.FullName, validation.Required, validation.Length(1, 128)),
		validation.Field(&r.PreferredName, validation.Length(0, 128)),
		validation.Field(&r.Email, validation.Required, validation.Length(3, 254), is.Email),
		validation.Field(&r.Password, validation.Required, validation.Length(6, 128)),
		validation.Field(
			&r.ConfirmPassword,
			validation.Required,
			validation.By(ValidateStringEquals(r.Password)),
		),
	)
}

func (a *AuthController) RegistrationCreate(ctx router.Context) error {
	if a.sessionEstablished(ctx) {
		return ctx.Redirect("/", router.StatusSeeOther)
	}

	payload := new(RegistrationCreatePayload)

	if err := ctx.Bind(payload); err != nil {
		a.Logger.Error("register account parse payload", "error", err)
		return flash.WithError(ctx, router.ViewContext{
			"error_message":  err.Error(),
			"system_message": "Error parsing body",
		}).Status(fiber.StatusBadRequest).Render(a.Views.Register, router.ViewContext{
			"errors": map[string]string{"form": "Failed to parse form"},
			"record": payload,
		})
	}

	if err := payload.Validate(); err != nil {
		a.Logger.Error("register account validate payload", "error", err)
		return flash.WithError(ctx, router.ViewContext{
			"error_message":  err.Error(),
			"system_message": "Error validating payload",
		}).Render(a.Views.Register, router.ViewContext{
			"record":     payload,
			"validation": FormatValidationErrorToMap(err),
		})
	}

	var res *RegisterAccountResponse

	req := RegisterAccountMessage{
		FullName:      payload.FullName,
		PreferredName: payload.PreferredName,
		Email:         payload.Email,
		Password:      payload.Password,
		OnResponse: func(resp *RegisterAccountResponse) {
			res = resp
		},
	}

	registerAccount := NewRegisterAccountHandler(a.Repo, a.Tokens).
		WithNotifier(a.Notifier).
		WithActivitySink(a.Activity).
		WithLogger(a.Logger)

	if err := registerAccount.Execute(ctx.Context(), req); err != nil {
		a.Logger.Error("register account error", "error", err)

		msg := "Could not complete registration"
		if IsDuplicateEmailError(err) {
			msg = "Email already in use"
		}

		return flash.WithError(ctx, router.ViewContext{
			"error_message":  msg,
			"system_message": msg,
		}).Render(a.Views.Register, router.ViewContext{
			"record": payload,
			"errors": map[string]string{"email": msg},
		})
	}

	// New accounts get a session right away; the confirmation email gates
	// future logins, not the current one.
	if res != nil && res.User != nil {
		if err := a.Auther.Impersonate(ctx, res.User.Email); err != nil {
			a.Logger.Error("register account session error", "error", err)
		}
	}

	return flash.WithSuccess(ctx, router.ViewContext{
		"system_message": "Welcome! Check your email to confirm your account",
	}).Redirect("/", fiber.StatusSeeOther)
}

func (a *AuthController) ConfirmEmail(ctx router.Context) error {
	token := ctx.Param("token", "")

	var res *ConfirmEmailResponse

	req := ConfirmEmailMessage{
		Token: token,
		OnResponse: func(resp *ConfirmEmailResponse) {
			res = resp
		},
	}

	confirmEmail := NewConfirmEmailHandler(a.Repo, a.Tokens).
		WithActivitySink(a.Activity).
		WithLogger(a.Logger)

	if err := confirmEmail.Execute(ctx.Context(), req); err != nil {
		a.Logger.Error("email confirmation failed", "error", err)
		return flash.WithError(ctx, router.ViewContext{
			"system_message": "The confirmation link is invalid or has expired",
		}).Redirect(a.Routes.ConfirmResend, fiber.StatusSeeOther)
	}

	if res != nil && res.User != nil {
		if err := a.Auther.Impersonate(ctx, res.User.Email); err != nil {
			a.Logger.Error("confirmation session error", "error", err)
		}
	}

	return flash.WithSuccess(ctx, router.ViewContext{
		"system_message": "Your email address has been confirmed",
	}).Redirect("/", fiber.StatusSeeOther)
}

func (a *AuthController) ResendConfirmationShow(ctx router.Context) error {
	return ctx.Render(a.Views.Login, router.ViewContext{
		"resend": true,
		"errors": nil,
	})
}

// ResendConfirmationPayload holds the email for a confirmation resend
type ResendConfirmationPayload struct {
	Email string `form:"email" json:"email"`
}

func (r ResendConfirmationPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
	)
}

func (a *AuthController) ResendConfirmationPost(ctx router.Context) error {
	payload := new(ResendConfirmationPayload)

	if err := ctx.Bind(payload); err != nil {
		return a.ErrorHandler(ctx, err)
	}

	if err := payload.Validate(); err != nil {
		return flash.WithError(ctx, router.ViewContext{
			"system_message": "Please provide a valid email address",
		}).Redirect(a.Routes.ConfirmResend, fiber.StatusSeeOther)
	}

	req := ResendConfirmationMessage{
		Email: payload.Email,
	}

	resendConfirmation := NewResendConfirmationHandler(a.Repo, a.Tokens).
		WithNotifier(a.Notifier).
		WithLogger(a.Logger)

	if err := resendConfirmation.Execute(ctx.Context(), req); err != nil {
		a.Logger.Error("confirmation resend error", "error", err)
		return a.ErrorHandler(ctx, err)
	}

	// Same message regardless of account state, see ResendConfirmationResponse.
	return flash.WithSuccess(ctx, router.ViewContext{
		"system_message": "If the address matches an unconfirmed account, a new confirmation email is on its way",
	}).Redirect(a.Routes.Login, fiber.StatusSeeOther)
}

func (a *AuthController) PasswordResetGet(ctx router.Context) error {
	return ctx.Render(a.Views.PasswordReset, router.ViewContext{
		"errors": nil,
		"stage":  "request",
	})
}

// PasswordResetRequestPayload holds values for password reset
type PasswordResetRequestPayload struct {
	Email string `form:"email" json:"email"`
}

// Validate will validate the payload
func (r PasswordResetRequestPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(
			&r.Email,
			validation.Required,
			is.Email,
		),
	)
}

func (a *AuthController) PasswordResetPost(ctx router.Context) error {
	payload := new(PasswordResetRequestPayload)

	if err := ctx.Bind(payload); err != nil {
		a.Logger.Error("password reset parse payload", "error", err)
		return flash.WithError(ctx, router.ViewContext{
			"error_message":  err.Error(),
			"system_message": "Error parsing body",
		}).Status(fiber.StatusBadRequest).Render(a.Views.PasswordReset, router.ViewContext{
			"errors": map[string]string{"form": "Failed to parse form"},
			"record": payload,
		})
	}

	if err := payload.Validate(); err != nil {
		a.Logger.Error("password reset validate payload", "error", err)
		return flash.WithError(ctx, router.ViewContext{
			"error_message":  err.Error(),
			"system_message": "Error validating payload",
		}).Render(a.Views.PasswordReset, router.ViewContext{
			"record":     payload,
			"validation": FormatValidationErrorToMap(err),
			"stage":      "request",
		})
	}

	req := InitializePasswordResetMessage{
		Email: payload.Email,
	}

	initPwdReset := NewInitializePasswordResetHandler(a.Repo, a.Tokens).
		WithNotifier(a.Notifier).
		WithLogger(a.Logger)

	if err := initPwdReset.Execute(ctx.Context(), req); err != nil {
		a.Logger.Error("password reset init error", "error", err)
		return flash.WithError(ctx, router.ViewContext{
			"error_message":  err.Error(),
			"system_message": "Could not process the reset request",
		}).Render(a.Views.PasswordReset, router.ViewContext{
			"record": payload,
			"stage":  "request",
		})
	}

	return flash.WithSuccess(ctx, router.ViewContext{
		"system_message": "If the address matches an account, a reset email is on its way",
	}).Redirect(a.Routes.Login, fiber.StatusSeeOther)
}

func (a *AuthController) PasswordResetForm(ctx router.Context) error {
	token := ctx.Param("token", "")

	return ctx.Render(a.Views.PasswordReset, router.ViewContext{
		"errors": nil,
		"stage":  "change",
		"token":  token,
	})
}

// PasswordResetVerifyPayload holds values for password reset
type PasswordResetVerifyPayload struct {
	Password        string `form:"password" json:"password"`
	ConfirmPassword string `form:"confirm_password" json:"confirm_password"`
}

// Validate will validate the payload
func (r PasswordResetVerifyPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(
			&r.Password,
			validation.Required,
			validation.Length(6, 128),
		),
		validation.Field(
			&r.ConfirmPassword,
			validation.Required,
			validation.By(ValidateStringEquals(r.Password)),
		),
	)
}

func (a *AuthController) PasswordResetExecute(ctx router.Context) error {
	token := ctx.Param("token", "")

	payload := new(PasswordResetVerifyPayload)

	if err := ctx.Bind(payload); err != nil {
		a.Logger.Error("password reset parse payload", "error", err)
		return flash.WithError(ctx, router.ViewContext{
			"error_message":  err.Error(),
			"system_message": "Error parsing body",
		}).Status(fiber.StatusBadRequest).Render(a.Views.PasswordReset, router.ViewContext{
			"errors": map[string]string{"form": "Failed to parse form"},
			"stage":  "change",
			"token":  token,
		})
	}

	if err := payload.Validate(); err != nil {
		a.Logger.Error("password reset validate payload", "error", err)
		return flash.WithError(ctx, router.ViewContext{
			"error_message":  err.Error(),
			"system_message": "Error validating payload",
		}).Render(a.Views.PasswordReset, router.ViewContext{
			"validation": FormatValidationErrorToMap(err),
			"stage":      "change",
			"token":      token,
		})
	}

	var res *FinalizePasswordResetResponse

	input := FinalizePasswordResetMessage{
		Token:    token,
		Password: payload.Password,
		OnResponse: func(resp *FinalizePasswordResetResponse) {
			res = resp
		},
	}

	finalizePwdReset := NewFinalizePasswordResetHandler(a.Repo, a.Tokens).
		WithActivitySink(a.Activity).
		WithLogger(a.Logger)

	if err := finalizePwdReset.Execute(ctx.Context(), input); err != nil {
		return ctx.Render(a.Views.PasswordReset, router.ViewContext{
			"errors": map[string]string{"validation": "The reset link is invalid or has expired"},
			"stage":  "change",
			"token":  token,
		})
	}

	if res != nil && res.User != nil {
		if err := a.Auther.Impersonate(ctx, res.User.Email); err != nil {
			a.Logger.Error("password reset session error", "error", err)
		}
	}

	return flash.WithSuccess(ctx, router.ViewContext{
		"system_message": "Your password has been updated",
	}).Redirect("/", fiber.StatusSeeOther)
}

func (a *AuthController) SettingsShow(ctx router.Context) error {
	session, ok := a.session(ctx)
	if !ok {
		return a.authErrorHandler(ctx, ErrUnableToFindSession)
	}

	user, err := a.Repo.Users().GetByIdentifier(ctx.Context(), session.GetUserID())
	if err != nil {
		return a.ErrorHandler(ctx, err)
	}

	return ctx.Render(a.Views.Settings, router.ViewContext{
		"errors": nil,
		"record": user,
	})
}

// SettingsUpdatePayload is the settings form payload
type SettingsUpdatePayload struct {
	FullName        string `form:"full_name" json:"full_name"`
	PreferredName   string `form:"preferred_name" json:"preferred_name"`
	Email           string `form:"email" json:"email"`
	CurrentPassword string `form:"current_password" json:"current_password"`
}

func (r SettingsUpdatePayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.FullName, validation.Required, validation.Length(1, 128)),
		validation.Field(&r.PreferredName, validation.Length(0, 128)),
		validation.Field(&r.Email, validation.Required, validation.Length(3, 254), is.Email),
		validation.Field(&r.CurrentPassword, validation.Required),
	)
}

func (a *AuthController) SettingsPost(ctx router.Context) error {
	session, ok := a.session(ctx)
	if !ok {
		return a.authErrorHandler(ctx, ErrUnableToFindSession)
	}

	payload := new(SettingsUpdatePayload)

	if err := ctx.Bind(payload); err != nil {
		return a.ErrorHandler(ctx, err)
	}

	if err := payload.Validate(); err != nil {
		return flash.WithError(ctx, router.ViewContext{
			"system_message": "Error validating payload",
		}).Render(a.Views.Settings, router.ViewContext{
			"record":     payload,
			"validation": FormatValidationErrorToMap(err),
		})
	}

	req := UpdateSettingsMessage{
		UserID:          session.GetUserID(),
		FullName:        payload.FullName,
		PreferredName:   payload.PreferredName,
		Email:           payload.Email,
		CurrentPassword: payload.CurrentPassword,
	}

	updateSettings := NewUpdateSettingsHandler(a.Repo).WithLogger(a.Logger)

	if err := updateSettings.Execute(ctx.Context(), req); err != nil {
		msg := "Could not update your settings"
		if IsDuplicateEmailError(err) {
			msg = "Email already in use"
		} else if errors.Is(err, ErrMismatchedHashAndPassword) {
			msg = "Incorrect password"
		}

		return flash.WithError(ctx, router.ViewContext{
			"system_message": msg,
		}).Render(a.Views.Settings, router.ViewContext{
			"record": payload,
			"errors": map[string]string{"settings": msg},
		})
	}

	return flash.WithSuccess(ctx, router.ViewContext{
		"system_message": "Settings saved",
	}).Redirect(a.Routes.Settings, fiber.StatusSeeOther)
}

// PasswordUpdatePayload is the change-password form payload
type PasswordUpdatePayload struct {
	CurrentPassword string `form:"current_password" json:"current_password"`
	NewPassword     string `form:"new_password" json:"new_password"`
	ConfirmPassword string `form:"confirm_password" json:"confirm_password"`
}

func (r PasswordUpdatePayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.CurrentPassword, validation.Required),
		validation.Field(&r.NewPassword, validation.Required, validation.Length(6, 128)),
		validation.Field(
			&r.ConfirmPassword,
			validation.Required,
			validation.By(ValidateStringEquals(r.NewPassword)),
		),
	)
}

func (a *AuthController) PasswordPost(ctx router.Context) error {
	session, ok := a.session(ctx)
	if !ok {
		return a.authErrorHandler(ctx, ErrUnableToFindSession)
	}

	payload := new(PasswordUpdatePayload)

	if err := ctx.Bind(payload); err != nil {
		return a.ErrorHandler(ctx, err)
	}

	if err := payload.Validate(); err != nil {
		return flash.WithError(ctx, router.ViewContext{
			"system_message": "Error validating payload",
		}).Redirect(a.Routes.Settings, fiber.StatusSeeOther)
	}

	req := UpdatePasswordMessage{
		UserID:          session.GetUserID(),
		CurrentPassword: payload.CurrentPassword,
		NewPassword:     payload.NewPassword,
	}

	updatePassword := NewUpdatePasswordHandler(a.Repo).WithLogger(a.Logger)

	if err := updatePassword.Execute(ctx.Context(), req); err != nil {
		msg := "Could not update your password"
		if errors.Is(err, ErrMismatchedHashAndPassword) {
			msg = "Incorrect password"
		}

		return flash.WithError(ctx, router.ViewContext{
			"system_message": msg,
		}).Redirect(a.Routes.Settings, fiber.StatusSeeOther)
	}

	return flash.WithSuccess(ctx, router.ViewContext{
		"system_message": "Password updated",
	}).Redirect(a.Routes.Settings, fiber.StatusSeeOther)
}

func (a *AuthController) AdminShow(ctx router.Context) error {
	session, ok := a.session(ctx)
	if !ok {
		return a.authErrorHandler(ctx, ErrUnableToFindSession)
	}

	if err := RequireRoles(session, RoleAdmin); err != nil {
		return flash.WithError(ctx, router.ViewContext{
			"system_message": "Page not authorized",
		}).Redirect("/", fiber.StatusSeeOther)
	}

	users, _, err := a.Repo.Users().List(ctx.Context())
	if err != nil {
		return a.ErrorHandler(ctx, err)
	}

	return ctx.Render(a.Views.Admin, router.ViewContext{
		"errors": nil,
		"users":  users,
	})
}

// ValidateStringEquals will check that both values match
func ValidateStringEquals(str string) validation.RuleFunc {
	return func(value any) error {
		s, _ := value.(string)
		if s != str {
			return errors.New("values must match")
		}
		return nil
	}
}

func defaultErrHandler(c router.Context, err error) error {
	return c.Render("errors/500", router.ViewContext{
		"message": err.Error(),
	})
}
