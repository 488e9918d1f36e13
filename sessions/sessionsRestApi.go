package sessions

import (
	"commandr/account"
	"commandr/audit"
	"commandr/authority"
	"commandr/bizerror"
	"commandr/session"
	"context"
	"errors"
	"net/http"

	"github.com/fundwit/go-commons/types"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
)

type CredentialVerifier interface {
	Verify(ctx context.Context, email, password string) (types.ID, error)
}

type TokenService interface {
	session.Validator
	Issue(uid types.ID) (*session.Token, error)
}

type Handler struct {
	verifier CredentialVerifier
	tokens   TokenService
	resolver session.AuthorityResolver
	throttle *Throttle
	auditor  account.Auditor
	cookie   session.CookieOptions
}

func NewHandler(verifier CredentialVerifier, tokens TokenService, resolver session.AuthorityResolver,
	throttle *Throttle, auditor account.Auditor, cookie session.CookieOptions) *Handler {
	return &Handler{verifier: verifier, tokens: tokens, resolver: resolver, throttle: throttle, auditor: auditor, cookie: cookie}
}

type SignInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func RegisterSessionsHandler(r *gin.Engine, h *Handler, middleWares ...gin.HandlerFunc) {
	g := r.Group("/v1/sessions", middleWares...)
	g.POST("", h.HandleSignIn)
	g.DELETE("", h.HandleSignOut)

	s := r.Group("/v1/session", middleWares...)
	s.GET("", h.HandleCheck)
	s.GET("/authority", session.AuthFilter(h.tokens, h.resolver, authority.PermNone), h.HandleAuthority)
}

func (h *Handler) HandleSignIn(c *gin.Context) {
	req := SignInRequest{}
	if err := c.ShouldBindBodyWith(&req, binding.JSON); err != nil {
		panic(&bizerror.ErrBadParam{Cause: err})
	}
	ctx := c.Request.Context()
	email := account.NormalizeEmail(req.Email)
	clientIP := c.ClientIP()

	if email != "" && !h.throttle.Allow(email, clientIP) {
		h.record(ctx, audit.Event{Kind: audit.KindSignInThrottled, Email: email, ClientIP: clientIP, Reason: bizerror.ErrTooManyAttempts.Code})
		panic(bizerror.ErrTooManyAttempts)
	}

	uid, err := h.verifier.Verify(ctx, req.Email, req.Password)
	if err != nil {
		var bizErr *bizerror.Err
		if errors.As(err, &bizErr) && (bizErr == bizerror.ErrInvalidCredentials || bizErr == bizerror.ErrAccountInactive) {
			h.record(ctx, audit.Event{Kind: audit.KindSignInFailed, Email: email, ClientIP: clientIP, Reason: bizErr.Code})
		}
		panic(err)
	}

	h.throttle.Reset(email, clientIP)

	token, err := h.tokens.Issue(uid)
	if err != nil {
		panic(err)
	}
	session.WriteTokenCookie(c, token, h.cookie)
	h.record(ctx, audit.Event{Kind: audit.KindSignIn, Email: email, UserID: uid, ClientIP: clientIP})
	c.JSON(http.StatusOK, token)
}

// HandleSignOut clears the cookie. The response does not depend on whether a session existed.
// Tokens are stateless, so a copied token stays valid until it expires.
func (h *Handler) HandleSignOut(c *gin.Context) {
	if uid, err := h.tokens.Validate(session.TokenFromRequest(c.Request)); err == nil {
		h.record(c.Request.Context(), audit.Event{Kind: audit.KindSignOut, UserID: uid, ClientIP: c.ClientIP()})
	}
	session.ClearTokenCookie(c, h.cookie)
	c.JSON(http.StatusOK, &SessionState{})
}

// SessionState answers the session check and sign-out.
type SessionState struct {
	Authenticated bool      `json:"authenticated"`
	User          *types.ID `json:"user,omitempty"`
}

// HandleCheck reports the caller's session. Besides a valid token the holder must still resolve to an
// active account, a deactivated or deleted account is unauthenticated.
func (h *Handler) HandleCheck(c *gin.Context) {
	s, err := session.Authenticate(c.Request, h.tokens, h.resolver)
	if errors.Is(err, bizerror.ErrAuthorityNotFound) {
		err = bizerror.ErrUnauthenticated
	}
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusOK, &SessionState{Authenticated: true, User: &s.UserID})
}

func (h *Handler) HandleAuthority(c *gin.Context) {
	s := session.FindSession(c)
	if s == nil {
		panic(bizerror.ErrUnauthenticated)
	}
	c.JSON(http.StatusOK, s.Authority)
}

func (h *Handler) record(ctx context.Context, e audit.Event) {
	if h.auditor != nil {
		h.auditor.Record(ctx, e)
	}
}
