package account

import (
	"commandr/audit"
	"commandr/authority"
	"commandr/bizerror"
	"commandr/session"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
)

func RegisterSessionUsersHandler(r *gin.Engine, m *Manager, middleWares ...gin.HandlerFunc) {
	u := r.Group("/v1/session-users", middleWares...)
	u.PUT("basic-auths", m.HandleUpdateBasicAuth)

	users := r.Group("/v1/users", middleWares...)
	users.POST("", m.HandleCreateAccount)
}

func (m *Manager) HandleUpdateBasicAuth(c *gin.Context) {
	sess := session.FindSession(c)
	if sess == nil {
		panic(bizerror.ErrUnauthenticated)
	}
	payload := BasicAuthUpdating{}
	if err := c.ShouldBindBodyWith(&payload, binding.JSON); err != nil {
		panic(&bizerror.ErrBadParam{Cause: err})
	}
	if err := m.ChangePassword(c.Request.Context(), sess.UserID, &payload); err != nil {
		panic(err)
	}
	if m.auditor != nil {
		m.auditor.Record(c.Request.Context(), audit.Event{Kind: audit.KindPasswordChanged, UserID: sess.UserID, ClientIP: c.ClientIP()})
	}
	c.Status(http.StatusOK)
}

func (m *Manager) HandleCreateAccount(c *gin.Context) {
	sess := session.FindSession(c)
	if sess == nil {
		panic(bizerror.ErrUnauthenticated)
	}
	if !sess.Authority.Allows(authority.PermAdmin) {
		panic(bizerror.ErrForbidden)
	}
	payload := AccountCreation{}
	if err := c.ShouldBindBodyWith(&payload, binding.JSON); err != nil {
		panic(&bizerror.ErrBadParam{Cause: err})
	}
	info, err := m.CreateAccount(c.Request.Context(), &payload)
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusCreated, info)
}
