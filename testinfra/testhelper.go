package testinfra

import (
	"io"
	"net/http"
	"net/http/httptest"
	"time"

	"github.com/gin-gonic/gin"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// ExecuteRequest serves req and returns status, body and the response.
func ExecuteRequest(req *http.Request, router http.Handler) (int, string, *http.Response) {
	if req.Header.Get("Content-Type") == "" && req.Body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	resp := w.Result()
	defer func() {
		_ = resp.Body.Close()
	}()
	bodyBytes, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, string(bodyBytes), resp
}

// FixedClock returns a clock frozen at t, adjustable through the returned pointer.
func FixedClock(t time.Time) (func() time.Time, *time.Time) {
	now := t
	return func() time.Time { return now }, &now
}

func FindCookie(resp *http.Response, name string) *http.Cookie {
	for _, c := range resp.Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}
