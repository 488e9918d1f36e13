package account

import (
	"strings"

	"github.com/fundwit/go-commons/types"
)

type User struct {
	ID           types.ID        `json:"id" gorm:"primary_key;auto_increment:false"`
	Email        string          `json:"email" gorm:"size:255;not null;unique_index"`
	Name         string          `json:"name" gorm:"size:64"`
	PasswordHash string          `json:"-" gorm:"size:128;not null"`
	Active       bool            `json:"active"`
	PositionID   types.ID        `json:"positionId"`
	CreateTime   types.Timestamp `json:"createTime" sql:"type:DATETIME(6)"`
}

func (User) TableName() string {
	return "users"
}

type AccountInfo struct {
	ID         types.ID        `json:"id"`
	Email      string          `json:"email"`
	Name       string          `json:"name"`
	Active     bool            `json:"active"`
	PositionID types.ID        `json:"positionId"`
	CreateTime types.Timestamp `json:"createTime"`
}

type AccountCreation struct {
	Email      string   `json:"email" binding:"required,email,lte=255"`
	Name       string   `json:"name" binding:"required,lte=64"`
	Password   string   `json:"password" binding:"required,gte=6,lte=64"`
	PositionID types.ID `json:"positionId"`
}

type BasicAuthUpdating struct {
	OriginalSecret string `json:"originalSecret"`
	NewSecret      string `json:"newSecret" binding:"required,gte=6,lte=64"`
}

// NormalizeEmail is applied to every email before it is stored or looked up.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (u *User) Info() *AccountInfo {
	return &AccountInfo{ID: u.ID, Email: u.Email, Name: u.Name, Active: u.Active, PositionID: u.PositionID, CreateTime: u.CreateTime}
}
