package account_test

import (
	"commandr/account"
	"commandr/bizerror"
	"commandr/persistence"
	"commandr/testinfra"
	"context"
	"errors"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
	"golang.org/x/crypto/bcrypt"
)

var _ = Describe("Verifier", func() {
	var (
		testDatabase *testinfra.TestDatabase
		verifier     *account.Verifier
		manager      *account.Manager
		ctx          = context.Background()
	)
	BeforeEach(func() {
		testDatabase = testinfra.StartTestDatabase("commandr")
		migrate(testDatabase)
		manager = account.NewManager(testDatabase.DS, bcrypt.MinCost)
		var err error
		verifier, err = account.NewVerifier(testDatabase.DS, bcrypt.MinCost)
		Expect(err).To(BeNil())
	})
	AfterEach(func() {
		testinfra.StopTestDatabase(testDatabase)
	})

	It("should reject invalid bcrypt cost", func() {
		v, err := account.NewVerifier(testDatabase.DS, bcrypt.MaxCost+1)
		Expect(v).To(BeNil())
		Expect(err).ToNot(BeNil())
	})

	It("should verify matching credentials case insensitively on email", func() {
		info, err := manager.CreateAccount(ctx, &account.AccountCreation{Email: "ann@example.com", Password: "correct horse"})
		Expect(err).To(BeNil())

		uid, err := verifier.Verify(ctx, " ANN@example.com", "correct horse")
		Expect(err).To(BeNil())
		Expect(uid).To(Equal(info.ID))
	})

	It("should not distinguish unknown email from wrong password", func() {
		_, err := manager.CreateAccount(ctx, &account.AccountCreation{Email: "ann@example.com", Password: "correct horse"})
		Expect(err).To(BeNil())

		uid1, err1 := verifier.Verify(ctx, "ann@example.com", "wrong")
		uid2, err2 := verifier.Verify(ctx, "nobody@example.com", "wrong")
		Expect(uid1).To(BeZero())
		Expect(uid2).To(BeZero())
		Expect(err1).To(Equal(bizerror.ErrInvalidCredentials))
		Expect(err2).To(Equal(bizerror.ErrInvalidCredentials))
	})

	It("should report inactive account only after password matches", func() {
		info, err := manager.CreateAccount(ctx, &account.AccountCreation{Email: "ann@example.com", Password: "correct horse"})
		Expect(err).To(BeNil())
		Expect(manager.SetActive(ctx, info.ID, false)).To(Succeed())

		_, err = verifier.Verify(ctx, "ann@example.com", "wrong")
		Expect(err).To(Equal(bizerror.ErrInvalidCredentials))
		_, err = verifier.Verify(ctx, "ann@example.com", "correct horse")
		Expect(err).To(Equal(bizerror.ErrAccountInactive))
	})

	It("should require email before password", func() {
		_, err := verifier.Verify(ctx, "", "")
		Expect(err).To(Equal(bizerror.ErrEmailRequired))
		_, err = verifier.Verify(ctx, "  ", "secret")
		Expect(err).To(Equal(bizerror.ErrEmailRequired))
		_, err = verifier.Verify(ctx, "ann@example.com", "")
		Expect(err).To(Equal(bizerror.ErrPasswordRequired))
		_, err = verifier.Verify(ctx, "ann@example.com", "   ")
		Expect(err).To(Equal(bizerror.ErrPasswordRequired))
	})

	It("should report store unavailable when lookup fails", func() {
		restarted := testinfra.StartTestDatabase("commandr")
		defer testinfra.StopTestDatabase(restarted)
		v, err := account.NewVerifier(restarted.DS, bcrypt.MinCost)
		Expect(err).To(BeNil())

		_, err = v.Verify(ctx, "ann@example.com", "secret")
		var storeErr *bizerror.ErrStoreUnavailable
		Expect(errors.As(err, &storeErr)).To(BeTrue())
	})

	It("should report store unavailable when the source is not started", func() {
		ds := &persistence.DataSourceManager{}
		v, err := account.NewVerifier(ds, bcrypt.MinCost)
		Expect(err).To(BeNil())
		_, err = v.Verify(ctx, "ann@example.com", "secret")
		Expect(errors.Is(err, persistence.ErrNotStarted)).To(BeTrue())

		m := account.NewManager(ds, bcrypt.MinCost)
		_, err = m.CreateAccount(ctx, &account.AccountCreation{Email: "ann@example.com", Password: "secret1"})
		Expect(errors.Is(err, persistence.ErrNotStarted)).To(BeTrue())
		Expect(errors.Is(m.SetActive(ctx, 1, false), persistence.ErrNotStarted)).To(BeTrue())
		Expect(errors.Is(m.DefaultSecurityConfiguration(ctx, account.InitialAdmin{}), persistence.ErrNotStarted)).To(BeTrue())
	})
})
