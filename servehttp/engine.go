package servehttp

import (
	"commandr/account"
	"commandr/audit"
	"commandr/authority"
	"commandr/bizerror"
	"commandr/infra/tracing"
	"commandr/session"
	"commandr/sessions"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type Components struct {
	Tokens     sessions.TokenService
	Resolver   session.AuthorityResolver
	Verifier   sessions.CredentialVerifier
	Accounts   *account.Manager
	Recorder   *audit.Recorder
	Throttle   *sessions.Throttle
	Cookie     session.CookieOptions
	SignInPath string
	Rules      []session.Rule
}

// NewEngine builds the http engine. The route guard runs ahead of every route, including the page fallback.
func NewEngine(c Components) *gin.Engine {
	if c.SignInPath == "" {
		c.SignInPath = session.DefaultSignInPath
	}
	guard := session.NewGuard(c.Tokens, c.Resolver, c.SignInPath, c.Rules...)

	engine := gin.New()
	engine.Use(tracing.TracingIngress(), RequestLogging(), bizerror.ErrorHandling(), guard.Middleware())

	var auditor account.Auditor
	if c.Recorder != nil {
		auditor = c.Recorder
	}
	sessions.RegisterSessionsHandler(engine,
		sessions.NewHandler(c.Verifier, c.Tokens, c.Resolver, c.Throttle, auditor, c.Cookie))

	authenticated := session.AuthFilter(c.Tokens, c.Resolver, authority.PermNone)
	if c.Accounts != nil {
		account.RegisterSessionUsersHandler(engine, c.Accounts.WithAuditor(auditor), authenticated)
	}
	if c.Recorder != nil {
		audit.RegisterSecurityEventsHandler(engine, c.Recorder, session.AuthFilter(c.Tokens, c.Resolver, authority.PermAdmin))
	}

	engine.GET(c.SignInPath, SignInPage)
	engine.NoRoute(PageHandler)
	return engine
}

// RequestLogging writes one access log entry per request.
func RequestLogging() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := logrus.Fields{
			"method":   c.Request.Method,
			"path":     c.Request.URL.Path,
			"status":   c.Writer.Status(),
			"latency":  time.Since(start).String(),
			"clientIp": c.ClientIP(),
		}
		if s := session.FindSession(c); s != nil {
			fields["userId"] = s.UserID
		}
		logrus.WithContext(c.Request.Context()).WithFields(fields).Debug("request served")
	}
}
