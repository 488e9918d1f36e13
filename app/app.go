package app

import (
	"commandr/account"
	"commandr/audit"
	"commandr/authority"
	"commandr/config"
	"commandr/persistence"
	"commandr/servehttp"
	"commandr/session"
	"commandr/sessions"
	"context"
	"time"

	"github.com/gin-gonic/gin"
)

// App holds the wired components of the service.
type App struct {
	Engine   *gin.Engine
	Accounts *account.Manager
	Tokens   *session.TokenManager
	Resolver *authority.Resolver
	Recorder *audit.Recorder
}

// Migrate creates or updates the tables the service owns.
func Migrate(ctx context.Context, ds persistence.DataSource) error {
	db, err := persistence.Session(ctx, ds)
	if err != nil {
		return err
	}
	return db.AutoMigrate(&account.User{}, &authority.AccessRole{}, &authority.Position{}, &audit.SecurityEvent{}).Error
}

// New wires the service on ds. clock may be nil.
func New(cfg *config.Config, ds persistence.DataSource, clock func() time.Time) (*App, error) {
	tokens, err := session.NewTokenManager([]byte(cfg.Session.Secret), cfg.Session.Issuer, cfg.Session.TTL, clock)
	if err != nil {
		return nil, err
	}
	verifier, err := account.NewVerifier(ds, cfg.Session.BcryptCost)
	if err != nil {
		return nil, err
	}

	a := &App{
		Accounts: account.NewManager(ds, cfg.Session.BcryptCost),
		Tokens:   tokens,
		Resolver: authority.NewResolver(ds),
		Recorder: audit.NewRecorder(ds),
	}
	a.Engine = servehttp.NewEngine(servehttp.Components{
		Tokens:     a.Tokens,
		Resolver:   a.Resolver,
		Verifier:   verifier,
		Accounts:   a.Accounts,
		Recorder:   a.Recorder,
		Throttle:   sessions.NewThrottle(cfg.Throttle.PerMinute, cfg.Throttle.Burst, cfg.Throttle.Expiry),
		Cookie:     session.CookieOptions{Secure: cfg.SecureCookie(), Domain: cfg.Session.CookieDomain},
		SignInPath: cfg.Guard.SignInPath,
		Rules:      cfg.Guard.Rules,
	})
	return a, nil
}

// Bootstrap migrates the store and seeds the default security configuration.
func Bootstrap(ctx context.Context, cfg *config.Config, ds persistence.DataSource) error {
	if err := Migrate(ctx, ds); err != nil {
		return err
	}
	m := account.NewManager(ds, cfg.Session.BcryptCost)
	return m.DefaultSecurityConfiguration(ctx, account.InitialAdmin{Email: cfg.Admin.Email, Password: cfg.Admin.Password})
}
