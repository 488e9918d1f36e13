package authority

import (
	"commandr/bizerror"
	"commandr/persistence"
	"context"

	"github.com/fundwit/go-commons/types"
	"github.com/jinzhu/gorm"
)

// Resolver loads authorization records from the store. Records are never cached.
type Resolver struct {
	ds persistence.DataSource
}

func NewResolver(ds persistence.DataSource) *Resolver {
	return &Resolver{ds: ds}
}

type resolvedRow struct {
	UserID         types.ID
	PositionID     types.ID
	PositionName   string
	RoleID         string
	RoleTitle      string
	PermissionBits Permissions
}

// Resolve returns the authorization record of an active user.
// A user without a position, a position without a role or an inactive user yields ErrAuthorityNotFound.
func (r *Resolver) Resolve(ctx context.Context, uid types.ID) (*Record, error) {
	if uid == 0 {
		return nil, bizerror.ErrAuthorityNotFound
	}
	db, err := persistence.Session(ctx, r.ds)
	if err != nil {
		return nil, err
	}
	row := resolvedRow{}
	err = db.Table("users").
		Select("users.id AS user_id, positions.id AS position_id, positions.name AS position_name, "+
			"access_roles.id AS role_id, access_roles.title AS role_title, access_roles.permission_bits AS permission_bits").
		Joins("INNER JOIN positions ON positions.id = users.position_id").
		Joins("INNER JOIN access_roles ON access_roles.id = positions.access_role_id").
		Where("users.id = ? AND users.active = ?", uid, true).
		Limit(1).Scan(&row).Error
	if err != nil {
		if gorm.IsRecordNotFoundError(err) {
			return nil, bizerror.ErrAuthorityNotFound
		}
		return nil, bizerror.StoreUnavailable(err)
	}

	record := NewRecord(row.UserID,
		Position{ID: row.PositionID, Name: row.PositionName, AccessRoleID: row.RoleID},
		AccessRole{ID: row.RoleID, Title: row.RoleTitle, PermissionBits: row.PermissionBits})
	return &record, nil
}
