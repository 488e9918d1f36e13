package audit

import "github.com/fundwit/go-commons/types"

type Kind string

const (
	KindSignIn          Kind = "SIGN_IN"
	KindSignInFailed    Kind = "SIGN_IN_FAILED"
	KindSignInThrottled Kind = "SIGN_IN_THROTTLED"
	KindSignOut         Kind = "SIGN_OUT"
	KindPasswordChanged Kind = "PASSWORD_CHANGED"
)

type Event struct {
	Kind     Kind     `json:"kind" gorm:"size:32;not null;index"`
	Email    string   `json:"email" gorm:"size:255"`
	UserID   types.ID `json:"userId" gorm:"index"`
	ClientIP string   `json:"clientIp" gorm:"size:64"`
	// Reason is the error code of a failed attempt.
	Reason string `json:"reason" gorm:"size:64"`
}

type SecurityEvent struct {
	ID types.ID `json:"id" gorm:"primary_key;auto_increment:false"`
	Event

	OccurredAt types.Timestamp `json:"occurredAt" gorm:"index" sql:"type:DATETIME(6)"`
}

func (SecurityEvent) TableName() string {
	return "security_events"
}

type EventQuery struct {
	UserID types.ID `form:"userId"`
	Email  string   `form:"email"`
	Kind   Kind     `form:"kind"`
	Limit  int      `form:"limit" binding:"omitempty,gte=1,lte=500"`
}

const DefaultQueryLimit = 50
