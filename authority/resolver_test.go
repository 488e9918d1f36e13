package authority_test

import (
	"commandr/account"
	"commandr/authority"
	"commandr/bizerror"
	"commandr/persistence"
	"commandr/testinfra"
	"context"
	"errors"

	"github.com/fundwit/go-commons/types"
	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
)

var _ = Describe("Resolver", func() {
	var (
		testDatabase *testinfra.TestDatabase
		resolver     *authority.Resolver
		ctx          = context.Background()
	)
	BeforeEach(func() {
		testDatabase = testinfra.StartTestDatabase("commandr")
		db := testDatabase.DS.GormDB(ctx)
		Expect(db.AutoMigrate(&account.User{}, &authority.Position{}, &authority.AccessRole{}).Error).To(BeNil())
		Expect(db.Create(&authority.AccessRole{ID: "personnel-officer", Title: "Personnel Officer",
			PermissionBits: authority.PermPersonnel | authority.PermPersonnelStaff}).Error).To(BeNil())
		Expect(db.Create(&authority.Position{ID: 10, Name: "HR Lead", DepartmentName: "HR", AccessRoleID: "personnel-officer"}).Error).To(BeNil())
		Expect(db.Create(&authority.Position{ID: 11, Name: "Ghost", AccessRoleID: "missing-role"}).Error).To(BeNil())
		Expect(db.Create(&account.User{ID: 1, Email: "hr@example.com", PasswordHash: "x", Active: true, PositionID: 10}).Error).To(BeNil())
		Expect(db.Create(&account.User{ID: 2, Email: "gone@example.com", PasswordHash: "x", Active: false, PositionID: 10}).Error).To(BeNil())
		Expect(db.Create(&account.User{ID: 3, Email: "nopos@example.com", PasswordHash: "x", Active: true}).Error).To(BeNil())
		Expect(db.Create(&account.User{ID: 4, Email: "ghost@example.com", PasswordHash: "x", Active: true, PositionID: 11}).Error).To(BeNil())
		resolver = authority.NewResolver(testDatabase.DS)
	})
	AfterEach(func() {
		testinfra.StopTestDatabase(testDatabase)
	})

	It("should resolve record of active user", func() {
		record, err := resolver.Resolve(ctx, 1)
		Expect(err).To(BeNil())
		Expect(*record).To(Equal(authority.Record{UserID: 1, PositionID: 10, PositionName: "HR Lead", RoleID: "personnel-officer",
			RoleTitle: "Personnel Officer", IsPersonnel: true, Permissions: authority.PermPersonnel | authority.PermPersonnelStaff}))
	})

	It("should not resolve unknown, inactive or unbound users", func() {
		for _, uid := range []types.ID{0, 2, 3, 4, 99} {
			record, err := resolver.Resolve(ctx, uid)
			Expect(record).To(BeNil())
			Expect(err).To(Equal(bizerror.ErrAuthorityNotFound))
		}
	})

	It("should reflect role changes on the next resolution", func() {
		db := testDatabase.DS.GormDB(ctx)
		Expect(db.Model(&authority.AccessRole{}).Where("id = ?", "personnel-officer").
			Update("permission_bits", authority.PermReport).Error).To(BeNil())
		record, err := resolver.Resolve(ctx, 1)
		Expect(err).To(BeNil())
		Expect(record.Permissions).To(Equal(authority.PermReport))
		Expect(record.IsPersonnel).To(BeFalse())
	})

	It("should report store unavailable when the store fails", func() {
		testinfra.StopTestDatabase(testDatabase)
		restarted := testinfra.StartTestDatabase("commandr")
		defer testinfra.StopTestDatabase(restarted)

		// no tables migrated
		record, err := authority.NewResolver(restarted.DS).Resolve(ctx, 1)
		Expect(record).To(BeNil())
		var storeErr *bizerror.ErrStoreUnavailable
		Expect(errors.As(err, &storeErr)).To(BeTrue())
	})

	It("should report store unavailable when the source is not started", func() {
		record, err := authority.NewResolver(&persistence.DataSourceManager{}).Resolve(ctx, 1)
		Expect(record).To(BeNil())
		Expect(errors.Is(err, persistence.ErrNotStarted)).To(BeTrue())
	})
})
