package session

import (
	"commandr/authority"
	"context"

	"github.com/fundwit/go-commons/types"
	"github.com/gin-gonic/gin"
)

// Session is the authenticated principal attached to an admitted request.
type Session struct {
	UserID    types.ID          `json:"userId"`
	Authority *authority.Record `json:"authority"`
}

const KeySession = "Session"

type contextKey struct{}

func WithSession(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, contextKey{}, s)
}

func FromContext(ctx context.Context) *Session {
	if ctx == nil {
		return nil
	}
	s, _ := ctx.Value(contextKey{}).(*Session)
	return s
}

func FindSession(c *gin.Context) *Session {
	value, found := c.Get(KeySession)
	if !found {
		return nil
	}
	s, ok := value.(*Session)
	if !ok || s.UserID == 0 {
		return nil
	}
	return s
}

// SaveSession attaches s to both the gin context and the request context.
func SaveSession(c *gin.Context, s *Session) {
	if s == nil || s.UserID == 0 {
		return
	}
	c.Set(KeySession, s)
	c.Request = c.Request.WithContext(WithSession(c.Request.Context(), s))
}
