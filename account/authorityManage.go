package account

import (
	"commandr/authority"
	"commandr/persistence"
	"context"

	"github.com/jinzhu/gorm"
	"github.com/sirupsen/logrus"
)

var (
	AdministratorRole = authority.AccessRole{ID: "administrator", Title: "Administrator", PermissionBits: authority.PermAll}
	PersonnelOfficerRole = authority.AccessRole{ID: "personnel-officer", Title: "Personnel Officer",
		PermissionBits: authority.PermPersonnel | authority.PermWork | authority.PermAttendance | authority.PermReport | authority.PermPersonnelStaff}
	StaffRole = authority.AccessRole{ID: "staff", Title: "Staff", PermissionBits: authority.PermWork | authority.PermAttendance}

	AdministratorPosition = authority.Position{ID: 1, Name: "Administrator", DepartmentName: "Administration", AccessRoleID: AdministratorRole.ID}
)

type InitialAdmin struct {
	Email    string
	Password string
}

// DefaultSecurityConfiguration seeds the built-in roles, the administrator position and the initial administrator.
// Existing rows are left untouched, so it is safe to run on every start.
func (m *Manager) DefaultSecurityConfiguration(ctx context.Context, admin InitialAdmin) error {
	db, err := persistence.Session(ctx, m.ds)
	if err != nil {
		return err
	}
	return db.Transaction(func(tx *gorm.DB) error {
		for _, role := range []authority.AccessRole{AdministratorRole, PersonnelOfficerRole, StaffRole} {
			r := role
			if err := tx.Where("id = ?", r.ID).FirstOrCreate(&r).Error; err != nil {
				return err
			}
		}
		position := AdministratorPosition
		if err := tx.Where("id = ?", position.ID).FirstOrCreate(&position).Error; err != nil {
			return err
		}

		email := NormalizeEmail(admin.Email)
		if email == "" || admin.Password == "" {
			logrus.WithContext(ctx).Warn("initial administrator not configured, skipped")
			return nil
		}
		var count int
		if err := tx.Model(&User{}).Where("email = ?", email).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return nil
		}
		u, err := m.createAccount(tx, &AccountCreation{Email: email, Name: "admin", Password: admin.Password, PositionID: AdministratorPosition.ID})
		if err != nil {
			return err
		}
		logrus.WithContext(ctx).WithField("userId", u.ID).Info("initial administrator created")
		return nil
	})
}
