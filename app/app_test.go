package app_test

import (
	"bytes"
	"commandr/account"
	"commandr/app"
	"commandr/authority"
	"commandr/config"
	"commandr/session"
	"commandr/testinfra"
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"time"

	"github.com/fundwit/go-commons/types"
	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
	"golang.org/x/crypto/bcrypt"
)

var _ = Describe("App", func() {
	var (
		testDatabase *testinfra.TestDatabase
		cfg          *config.Config
		application  *app.App
		now          *time.Time
		officer      *account.AccountInfo
		staff        *account.AccountInfo
		ctx          = context.Background()
		t0           = time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	)

	BeforeEach(func() {
		testDatabase = testinfra.StartTestDatabase("commandr")
		cfg = config.Default()
		cfg.Database.DriverArgs = "unused"
		cfg.Session.Secret = "0123456789abcdef0123456789abcdef"
		cfg.Session.BcryptCost = bcrypt.MinCost
		cfg.Throttle.PerMinute = 0
		cfg.Admin = config.AdminConfig{Email: "admin@example.com", Password: "admin-secret"}
		Expect(cfg.Validate()).To(Succeed())

		Expect(app.Bootstrap(ctx, cfg, testDatabase.DS)).To(Succeed())

		var clock func() time.Time
		clock, now = testinfra.FixedClock(t0)
		var err error
		application, err = app.New(cfg, testDatabase.DS, clock)
		Expect(err).To(BeNil())

		db := testDatabase.DS.GormDB(ctx)
		Expect(db.Create(&authority.Position{ID: 20, Name: "HR Lead", DepartmentName: "HR", AccessRoleID: account.PersonnelOfficerRole.ID}).Error).To(BeNil())
		Expect(db.Create(&authority.Position{ID: 21, Name: "Engineer", DepartmentName: "R&D", AccessRoleID: account.StaffRole.ID}).Error).To(BeNil())
		officer, err = application.Accounts.CreateAccount(ctx, &account.AccountCreation{Email: "officer@example.com", Name: "Olga", Password: "officer-secret", PositionID: 20})
		Expect(err).To(BeNil())
		staff, err = application.Accounts.CreateAccount(ctx, &account.AccountCreation{Email: "staff@example.com", Name: "Sam", Password: "staff-secret", PositionID: 21})
		Expect(err).To(BeNil())
	})
	AfterEach(func() {
		testinfra.StopTestDatabase(testDatabase)
	})

	signIn := func(email, password string) (int, string, *http.Cookie) {
		req := httptest.NewRequest(http.MethodPost, "/v1/sessions",
			bytes.NewReader([]byte(`{"email":"`+email+`","password":"`+password+`"}`)))
		status, body, resp := testinfra.ExecuteRequest(req, application.Engine)
		return status, body, testinfra.FindCookie(resp, session.KeySecToken)
	}

	get := func(path string, cookie *http.Cookie) (int, string, *http.Response) {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		if cookie != nil {
			req.AddCookie(&http.Cookie{Name: cookie.Name, Value: cookie.Value})
		}
		return testinfra.ExecuteRequest(req, application.Engine)
	}

	It("should admit signed-in user with permission to guarded route", func() {
		status, body, cookie := signIn("Officer@Example.com", "officer-secret")
		Expect(status).To(Equal(http.StatusOK))
		Expect(body).To(MatchJSON(`{"userId":"` + officer.ID.String() + `","expiresAt":"2026-03-02T08:00:00Z"}`))
		Expect(cookie).ToNot(BeNil())
		Expect(cookie.HttpOnly).To(BeTrue())
		Expect(cookie.SameSite).To(Equal(http.SameSiteLaxMode))
		Expect(cookie.MaxAge).To(Equal(86400))

		status, body, _ = get("/personnel", cookie)
		Expect(status).To(Equal(http.StatusOK))
		page := map[string]interface{}{}
		Expect(json.Unmarshal([]byte(body), &page)).To(Succeed())
		Expect(page["path"]).To(Equal("/personnel"))
		Expect(page["userId"]).To(Equal(officer.ID.String()))
		Expect(page["authority"]).To(HaveKeyWithValue("isPersonnel", true))
		Expect(page["authority"]).To(HaveKeyWithValue("positionName", "HR Lead"))
	})

	It("should reject wrong password without setting cookie", func() {
		status, body, cookie := signIn("officer@example.com", "wrong-secret")
		Expect(status).To(Equal(http.StatusUnauthorized))
		Expect(body).To(MatchJSON(`{"code":"security.invalid_credentials","message":"invalid credentials","data":null}`))
		Expect(cookie).To(BeNil())

		status, body2, _ := signIn("nobody@example.com", "wrong-secret")
		Expect(status).To(Equal(http.StatusUnauthorized))
		Expect(body2).To(Equal(body))
	})

	It("should redirect to sign-in without cookie", func() {
		status, _, resp := get("/personnel", nil)
		Expect(status).To(Equal(http.StatusFound))
		Expect(resp.Header.Get("Location")).To(Equal("/signin?next=%2Fpersonnel"))

		status, body, _ := get(resp.Header.Get("Location"), nil)
		Expect(status).To(Equal(http.StatusOK))
		Expect(body).To(ContainSubstring(`"next":"/personnel"`))
	})

	It("should redirect when the token expired", func() {
		_, body, cookie := signIn("officer@example.com", "officer-secret")
		issued := struct {
			ExpiresAt time.Time `json:"expiresAt"`
		}{}
		Expect(json.Unmarshal([]byte(body), &issued)).To(Succeed())

		*now = issued.ExpiresAt.Add(-time.Millisecond)
		status, _, _ := get("/personnel", cookie)
		Expect(status).To(Equal(http.StatusOK))

		*now = issued.ExpiresAt.Add(time.Millisecond)
		status, _, resp := get("/personnel", cookie)
		Expect(status).To(Equal(http.StatusFound))
		Expect(resp.Header.Get("Location")).To(Equal("/signin?next=%2Fpersonnel"))
	})

	It("should redirect when the user id was forged", func() {
		_, _, cookie := signIn("staff@example.com", "staff-secret")
		parts := strings.Split(cookie.Value, ".")
		payload, err := base64.RawURLEncoding.DecodeString(parts[1])
		Expect(err).To(BeNil())
		forged := strings.Replace(string(payload), `"sub":"`+staff.ID.String()+`"`, `"sub":"`+officer.ID.String()+`"`, 1)
		Expect(forged).ToNot(Equal(string(payload)))
		parts[1] = base64.RawURLEncoding.EncodeToString([]byte(forged))

		status, _, resp := get("/personnel", &http.Cookie{Name: session.KeySecToken, Value: strings.Join(parts, ".")})
		Expect(status).To(Equal(http.StatusFound))
		Expect(resp.Header.Get("Location")).To(Equal("/signin?next=%2Fpersonnel"))

		status, body, _ := get("/v1/session", &http.Cookie{Name: session.KeySecToken, Value: strings.Join(parts, ".")})
		Expect(status).To(Equal(http.StatusUnauthorized))
		Expect(body).To(ContainSubstring(`"code":"session.malformed_token"`))
	})

	It("should enforce permissions per route", func() {
		_, _, cookie := signIn("staff@example.com", "staff-secret")

		status, _, _ := get("/personnel/3", cookie)
		Expect(status).To(Equal(http.StatusFound))
		status, _, _ = get("/work/3", cookie)
		Expect(status).To(Equal(http.StatusOK))
		status, _, _ = get("/work/../personnel", cookie)
		Expect(status).To(Equal(http.StatusFound))
		status, _, _ = get("/unguarded", cookie)
		Expect(status).To(Equal(http.StatusNotFound))
	})

	It("should apply role and account changes at the next request", func() {
		_, _, cookie := signIn("officer@example.com", "officer-secret")
		status, _, _ := get("/personnel", cookie)
		Expect(status).To(Equal(http.StatusOK))

		db := testDatabase.DS.GormDB(ctx)
		Expect(db.Model(&authority.Position{}).Where("id = ?", 20).Update("access_role_id", account.StaffRole.ID).Error).To(BeNil())
		status, _, _ = get("/personnel", cookie)
		Expect(status).To(Equal(http.StatusFound))

		Expect(db.Model(&authority.Position{}).Where("id = ?", 20).Update("access_role_id", account.PersonnelOfficerRole.ID).Error).To(BeNil())
		Expect(application.Accounts.SetActive(ctx, officer.ID, false)).To(Succeed())
		status, _, _ = get("/personnel", cookie)
		Expect(status).To(Equal(http.StatusFound))
		status, body, _ := get("/v1/session", cookie)
		Expect(status).To(Equal(http.StatusUnauthorized))
		Expect(body).To(ContainSubstring(`"code":"common.unauthenticated"`))

		status, body, _ = signIn("officer@example.com", "officer-secret")
		Expect(status).To(Equal(http.StatusUnauthorized))
		Expect(body).To(ContainSubstring(`"code":"security.account_inactive"`))
	})

	It("should respond 503 when the store fails during authorization", func() {
		_, _, cookie := signIn("officer@example.com", "officer-secret")
		Expect(testDatabase.DS.GormDB(ctx).DropTable(&authority.Position{}).Error).To(BeNil())

		status, body, _ := get("/personnel", cookie)
		Expect(status).To(Equal(http.StatusServiceUnavailable))
		Expect(body).To(MatchJSON(`{"code":"common.store_unavailable","message":"store unavailable","data":null}`))
	})

	It("should expose session check, authority and sign-out", func() {
		_, _, cookie := signIn("officer@example.com", "officer-secret")

		status, body, _ := get("/v1/session", cookie)
		Expect(status).To(Equal(http.StatusOK))
		Expect(body).To(MatchJSON(`{"authenticated":true,"user":"` + officer.ID.String() + `"}`))

		status, body, _ = get("/v1/session/authority", cookie)
		Expect(status).To(Equal(http.StatusOK))
		record := authority.Record{}
		Expect(json.Unmarshal([]byte(body), &record)).To(Succeed())
		Expect(record.UserID).To(Equal(officer.ID))
		Expect(record.PositionID).To(Equal(types.ID(20)))
		Expect(record.Permissions).To(Equal(account.PersonnelOfficerRole.PermissionBits))

		req := httptest.NewRequest(http.MethodDelete, "/v1/sessions", nil)
		req.AddCookie(&http.Cookie{Name: cookie.Name, Value: cookie.Value})
		status1, body1, _ := testinfra.ExecuteRequest(req, application.Engine)
		status2, body2, _ := testinfra.ExecuteRequest(httptest.NewRequest(http.MethodDelete, "/v1/sessions", nil), application.Engine)
		Expect(status1).To(Equal(http.StatusOK))
		Expect(status2).To(Equal(http.StatusOK))
		Expect(body1).To(Equal(body2))
	})

	It("should restrict security events to administrators", func() {
		_, _, adminCookie := signIn("admin@example.com", "admin-secret")
		_, _, officerCookie := signIn("officer@example.com", "officer-secret")
		signIn("officer@example.com", "bad-secret")

		status, body, _ := get("/v1/security-events?email=officer@example.com", adminCookie)
		Expect(status).To(Equal(http.StatusOK))
		Expect(body).To(ContainSubstring(`"kind":"SIGN_IN_FAILED"`))
		Expect(body).To(ContainSubstring(`"kind":"SIGN_IN"`))

		status, body, _ = get("/v1/security-events", officerCookie)
		Expect(status).To(Equal(http.StatusForbidden))
		Expect(body).To(MatchJSON(`{"code":"security.forbidden","message":"access forbidden","data":null}`))

		status, _, _ = get("/admin/users", adminCookie)
		Expect(status).To(Equal(http.StatusOK))
		status, _, _ = get("/admin/users", officerCookie)
		Expect(status).To(Equal(http.StatusFound))
	})

	It("should let users change their password", func() {
		_, _, cookie := signIn("staff@example.com", "staff-secret")
		req := httptest.NewRequest(http.MethodPut, "/v1/session-users/basic-auths",
			bytes.NewReader([]byte(`{"originalSecret":"staff-secret","newSecret":"fresh-secret"}`)))
		req.AddCookie(&http.Cookie{Name: cookie.Name, Value: cookie.Value})
		status, _, _ := testinfra.ExecuteRequest(req, application.Engine)
		Expect(status).To(Equal(http.StatusOK))

		status, _, _ = signIn("staff@example.com", "staff-secret")
		Expect(status).To(Equal(http.StatusUnauthorized))
		status, _, _ = signIn("staff@example.com", "fresh-secret")
		Expect(status).To(Equal(http.StatusOK))
	})
})
