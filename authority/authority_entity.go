package authority

import "github.com/fundwit/go-commons/types"

// AccessRole is a named bundle of permissions a position is granted.
type AccessRole struct {
	ID             string      `json:"id" gorm:"primary_key;size:64"`
	Title          string      `json:"title" gorm:"size:128;not null"`
	PermissionBits Permissions `json:"permissions" gorm:"not null"`
}

type Position struct {
	ID             types.ID `json:"id" gorm:"primary_key;auto_increment:false"`
	Name           string   `json:"name" gorm:"size:128;not null"`
	DepartmentName string   `json:"departmentName" gorm:"size:128"`
	AccessRoleID   string   `json:"accessRoleId" gorm:"size:64;not null"`
}

// Record is what a user may do, derived from the user's position and access role.
type Record struct {
	UserID       types.ID    `json:"userId"`
	PositionID   types.ID    `json:"positionId"`
	PositionName string      `json:"positionName"`
	RoleID       string      `json:"roleId"`
	RoleTitle    string      `json:"roleTitle"`
	IsPersonnel  bool        `json:"isPersonnel"`
	IsAdmin      bool        `json:"isAdmin"`
	Permissions  Permissions `json:"permissions"`
}

func NewRecord(userID types.ID, position Position, role AccessRole) Record {
	return Record{
		UserID:       userID,
		PositionID:   position.ID,
		PositionName: position.Name,
		RoleID:       role.ID,
		RoleTitle:    role.Title,
		IsPersonnel:  role.PermissionBits.Has(PermPersonnelStaff),
		IsAdmin:      role.PermissionBits.Has(PermAdmin),
		Permissions:  role.PermissionBits,
	}
}

// Allows reports whether the record grants every required permission.
func (r *Record) Allows(required Permissions) bool {
	if r == nil {
		return false
	}
	return r.Permissions.Has(required)
}
