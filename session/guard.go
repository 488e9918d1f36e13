package session

import (
	"commandr/authority"
	"commandr/bizerror"
	"errors"
	"net/http"
	"net/url"
	"path"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

const DefaultSignInPath = "/signin"

// Rule protects a path. "/personnel" matches exactly, "/personnel/*" matches the path and everything below it.
type Rule struct {
	Pattern string                `yaml:"pattern" json:"pattern"`
	Require authority.Permissions `yaml:"require" json:"require"`
}

func (r Rule) Matches(p string) bool {
	if prefix, ok := strings.CutSuffix(r.Pattern, "/*"); ok {
		if prefix == "" {
			return true
		}
		return p == prefix || strings.HasPrefix(p, prefix+"/")
	}
	return p == r.Pattern
}

type Guard struct {
	validator  Validator
	resolver   AuthorityResolver
	signInPath string
	rules      []Rule
}

func NewGuard(validator Validator, resolver AuthorityResolver, signInPath string, rules ...Rule) *Guard {
	if signInPath == "" {
		signInPath = DefaultSignInPath
	}
	normalized := make([]Rule, 0, len(rules))
	for _, r := range rules {
		if r.Pattern == "" {
			continue
		}
		if !strings.HasSuffix(r.Pattern, "/*") {
			r.Pattern = CleanPath(r.Pattern)
		}
		normalized = append(normalized, r)
	}
	return &Guard{validator: validator, resolver: resolver, signInPath: signInPath, rules: normalized}
}

func CleanPath(p string) string {
	if p == "" {
		return "/"
	}
	if p[0] != '/' {
		p = "/" + p
	}
	return path.Clean(p)
}

// Match returns the most specific rule protecting p.
func (g *Guard) Match(p string) (Rule, bool) {
	cleaned := CleanPath(p)
	var matched Rule
	found := false
	for _, r := range g.rules {
		if r.Matches(cleaned) && (!found || len(r.Pattern) > len(matched.Pattern)) {
			matched = r
			found = true
		}
	}
	return matched, found
}

// Middleware admits requests to protected paths only with a valid session and sufficient permissions.
// Denied requests are redirected to the sign-in entry point, store failures are raised as errors.
func (g *Guard) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		rule, protected := g.Match(c.Request.URL.Path)
		if !protected {
			c.Next()
			return
		}

		s, err := Authenticate(c.Request, g.validator, g.resolver)
		if err == nil && !s.Authority.Allows(rule.Require) {
			err = bizerror.ErrForbidden
		}
		if err != nil {
			var storeErr *bizerror.ErrStoreUnavailable
			if errors.As(err, &storeErr) {
				panic(err)
			}
			fields := logrus.Fields{"path": c.Request.URL.Path, "rule": rule.Pattern}
			var bizErr *bizerror.Err
			if errors.As(err, &bizErr) {
				fields["code"] = bizErr.Code
			}
			logrus.WithContext(c.Request.Context()).WithFields(fields).Info("access denied")
			c.Redirect(http.StatusFound, g.SignInURL(c.Request))
			c.Abort()
			return
		}

		SaveSession(c, s)
		c.Next()
	}
}

func (g *Guard) SignInURL(r *http.Request) string {
	return g.signInPath + "?next=" + url.QueryEscape(r.URL.RequestURI())
}
