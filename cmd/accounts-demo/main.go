package main

import (
	"context"
	"database/sql"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/caarlos0/env/v11"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/template/django/v3"
	"github.com/goliatone/go-accounts"
	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-logger/glog"
	"github.com/goliatone/go-router"
	mflash "github.com/goliatone/go-router/middleware/flash"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

// AppConfig is read from the environment and satisfies accounts.Config.
type AppConfig struct {
	SigningKey            string   `env:"AUTH_SIGNING_KEY" envDefault:"insecure-dev-signing-key"`
	SigningMethod         string   `env:"AUTH_SIGNING_METHOD" envDefault:"HS256"`
	ContextKey            string   `env:"AUTH_CONTEXT_KEY" envDefault:"session"`
	TokenExpiration       int      `env:"AUTH_TOKEN_EXPIRATION" envDefault:"24"`
	ExtendedTokenDuration int      `env:"AUTH_EXTENDED_TOKEN_DURATION" envDefault:"168"`
	Issuer                string   `env:"AUTH_ISSUER" envDefault:"accounts-demo"`
	Audience              []string `env:"AUTH_AUDIENCE" envDefault:"web"`
	BaseURL               string   `env:"BASE_URL" envDefault:"http://localhost:8572"`
	RejectedRouteKey      string   `env:"AUTH_REJECTED_ROUTE_KEY" envDefault:"rejected_route"`
	RejectedRouteDefault  string   `env:"AUTH_REJECTED_ROUTE_DEFAULT" envDefault:"/"`
	DSN                   string   `env:"DATABASE_DSN" envDefault:"file:accounts.db?cache=shared"`
	Address               string   `env:"HTTP_ADDRESS" envDefault:":8572"`
	ViewsDir              string   `env:"VIEWS_DIR" envDefault:"./views"`
}

func (c AppConfig) GetSigningKey() string           { return c.SigningKey }
func (c AppConfig) GetSigningMethod() string        { return c.SigningMethod }
func (c AppConfig) GetContextKey() string           { return c.ContextKey }
func (c AppConfig) GetTokenExpiration() int         { return c.TokenExpiration }
func (c AppConfig) GetExtendedTokenDuration() int   { return c.ExtendedTokenDuration }
func (c AppConfig) GetIssuer() string               { return c.Issuer }
func (c AppConfig) GetAudience() []string           { return c.Audience }
func (c AppConfig) GetBaseURL() string              { return c.BaseURL }
func (c AppConfig) GetRejectedRouteKey() string     { return c.RejectedRouteKey }
func (c AppConfig) GetRejectedRouteDefault() string { return c.RejectedRouteDefault }

// userTrackerAdapter narrows the repository to what the identity provider
// needs. The repository method is variadic, the provider interface is not.
type userTrackerAdapter struct {
	users accounts.Users
}

func (a userTrackerAdapter) GetByIdentifier(ctx context.Context, identifier string) (*accounts.User, error) {
	return a.users.GetByIdentifier(ctx, identifier)
}

func (a userTrackerAdapter) TrackAttemptedLogin(ctx context.Context, user *accounts.User) error {
	return a.users.TrackAttemptedLogin(ctx, user)
}

func (a userTrackerAdapter) TrackSuccessfulLogin(ctx context.Context, user *accounts.User) error {
	return a.users.TrackSuccessfulLogin(ctx, user)
}

func main() {
	reset := flag.Bool("reset", false, "drop and recreate the schema")
	adminEmail := flag.String("admin-email", "", "seed a confirmed admin account with this email")
	adminPassword := flag.String("admin-password", "", "password for the seeded admin account")
	flag.Parse()

	lgr := glog.NewLogger(
		glog.WithLoggerTypePretty(),
		glog.WithLevel(glog.Debug),
		glog.WithName("accounts-demo"),
		glog.WithRichErrorHandler(errors.ToSlogAttributes),
	)

	cfg := AppConfig{}
	if err := env.Parse(&cfg); err != nil {
		log.Fatal(err)
	}

	ctx := context.Background()

	sqldb, err := sql.Open(sqliteshim.ShimName, cfg.DSN)
	if err != nil {
		log.Fatal(err)
	}

	db := bun.NewDB(sqldb, sqlitedialect.New())

	if *reset {
		if err := accounts.ResetSchema(ctx, db); err != nil {
			log.Fatal(err)
		}
	}

	repo := accounts.NewRepositoryManager(db)
	if err := repo.Validate(); err != nil {
		log.Fatal(err)
	}

	if *adminEmail != "" {
		if _, err := accounts.SeedAdmin(ctx, repo, *adminEmail, *adminPassword); err != nil {
			log.Fatal(err)
		}
		lgr.GetLogger("seed").Info("admin account ready", "email", *adminEmail)
	}

	userProvider := accounts.NewUserProvider(userTrackerAdapter{users: repo.Users()})
	userProvider.WithLogger(lgr.GetLogger("accounts:prv"))

	authenticator := accounts.NewAuthenticator(userProvider, cfg)
	authenticator.WithLogger(lgr.GetLogger("accounts:auth"))
	authenticator.WithActivitySink(accounts.ActivitySinkFunc(func(ctx context.Context, event accounts.ActivityEvent) error {
		lgr.GetLogger("accounts:activity").Info("activity", "type", string(event.EventType), "user_id", event.UserID)
		return nil
	}))

	httpAuth, err := accounts.NewHTTPAuthenticator(authenticator, cfg)
	if err != nil {
		log.Fatal(err)
	}
	httpAuth.Logger = lgr.GetLogger("accounts:http")

	tokens := accounts.NewActionTokenService([]byte(cfg.GetSigningKey()), cfg.GetIssuer(), lgr.GetLogger("accounts:tokens"))

	mailer := accounts.NewLogMailer(lgr.GetLogger("accounts:mail"))
	notifier := accounts.NewEmailNotifier(mailer, cfg.GetBaseURL(), lgr.GetLogger("accounts:notify"))

	engine := django.New(cfg.ViewsDir, ".html")

	srv := router.NewFiberAdapter(func(a *fiber.App) *fiber.App {
		return router.DefaultFiberOptions(fiber.New(fiber.Config{
			UnescapePath:      true,
			StrictRouting:     false,
			PassLocalsToViews: true,
			Views:             engine,
		}))
	})

	srv.Router().WithLogger(lgr.GetLogger("router"))
	srv.Router().Use(mflash.New(mflash.ConfigDefault))

	srv.Router().Get("/", func(ctx router.Context) error {
		return ctx.Render("index", router.ViewContext{
			"title": "Accounts Demo",
		})
	})

	accounts.RegisterAuthRoutes(srv.Router().Group("/"),
		accounts.WithControllerRepo(repo),
		accounts.WithControllerAuther(httpAuth),
		accounts.WithControllerTokens(tokens),
		accounts.WithControllerNotifier(notifier),
		accounts.WithControllerConfig(cfg),
		accounts.WithControllerLogger(lgr.GetLogger("accounts:ctrl")),
	)

	srv.Serve(cfg.Address)

	WaitExitSignal()
}

func WaitExitSignal() os.Signal {
	ch := make(chan os.Signal, 3)
	signal.Notify(ch,
		syscall.SIGINT,
		syscall.SIGQUIT,
		syscall.SIGTERM,
	)
	return <-ch
}
