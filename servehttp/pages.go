package servehttp

import (
	"commandr/authority"
	"commandr/bizerror"
	"commandr/session"
	"net/http"
	"strings"

	"github.com/fundwit/go-commons/types"
	"github.com/gin-gonic/gin"
)

// Page is the bootstrap document of a protected page.
type Page struct {
	Path      string            `json:"path"`
	UserID    types.ID          `json:"userId"`
	Authority *authority.Record `json:"authority"`
}

// PageHandler serves every path without an api route. Only requests admitted by the route guard get a page.
func PageHandler(c *gin.Context) {
	s := session.FindSession(c)
	if s == nil || (c.Request.Method != http.MethodGet && c.Request.Method != http.MethodHead) {
		panic(bizerror.ErrNotFound)
	}
	c.JSON(http.StatusOK, &Page{Path: session.CleanPath(c.Request.URL.Path), UserID: s.UserID, Authority: s.Authority})
}

type SignInForm struct {
	Method string   `json:"method"`
	Action string   `json:"action"`
	Fields []string `json:"fields"`
	Next   string   `json:"next"`
}

// SignInPage describes how to sign in. next is kept only when it is a local path.
func SignInPage(c *gin.Context) {
	next := c.Query("next")
	if !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.HasPrefix(next, "/\\") {
		next = "/"
	}
	c.JSON(http.StatusOK, &SignInForm{Method: http.MethodPost, Action: "/v1/sessions", Fields: []string{"email", "password"}, Next: next})
}
