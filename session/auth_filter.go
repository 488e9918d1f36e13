package session

import (
	"commandr/authority"
	"commandr/bizerror"
	"context"
	"net/http"

	"github.com/fundwit/go-commons/types"
	"github.com/gin-gonic/gin"
)

type Validator interface {
	Validate(token string) (types.ID, error)
}

type AuthorityResolver interface {
	Resolve(ctx context.Context, uid types.ID) (*authority.Record, error)
}

// Authenticate validates the request token and resolves the holder's authority.
func Authenticate(r *http.Request, validator Validator, resolver AuthorityResolver) (*Session, error) {
	uid, err := validator.Validate(TokenFromRequest(r))
	if err != nil {
		return nil, err
	}
	record, err := resolver.Resolve(r.Context(), uid)
	if err != nil {
		return nil, err
	}
	return &Session{UserID: uid, Authority: record}, nil
}

// AuthFilter guards API routes. Failures are raised as errors for bizerror.ErrorHandling to render.
func AuthFilter(validator Validator, resolver AuthorityResolver, required authority.Permissions) gin.HandlerFunc {
	return func(c *gin.Context) {
		s := FindSession(c)
		if s == nil {
			var err error
			if s, err = Authenticate(c.Request, validator, resolver); err != nil {
				panic(err)
			}
		}
		if !s.Authority.Allows(required) {
			panic(bizerror.ErrForbidden)
		}
		SaveSession(c, s)
		c.Next()
	}
}
