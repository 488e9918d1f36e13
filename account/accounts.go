package account

import (
	"commandr/audit"
	"commandr/bizerror"
	"commandr/idgen"
	"commandr/persistence"
	"context"

	"github.com/fundwit/go-commons/types"
	"github.com/jinzhu/gorm"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

type Auditor interface {
	Record(ctx context.Context, e audit.Event)
}

type Manager struct {
	ds         persistence.DataSource
	bcryptCost int
	auditor    Auditor
}

func NewManager(ds persistence.DataSource, bcryptCost int) *Manager {
	return &Manager{ds: ds, bcryptCost: bcryptCost}
}

// WithAuditor records password changes through a.
func (m *Manager) WithAuditor(a Auditor) *Manager {
	m.auditor = a
	return m
}

func (m *Manager) CreateAccount(ctx context.Context, c *AccountCreation) (*AccountInfo, error) {
	db, err := persistence.Session(ctx, m.ds)
	if err != nil {
		return nil, err
	}
	var created *User
	err = db.Transaction(func(tx *gorm.DB) error {
		u, err := m.createAccount(tx, c)
		if err != nil {
			return err
		}
		created = u
		return nil
	})
	if err != nil {
		return nil, err
	}
	logrus.WithContext(ctx).WithField("userId", created.ID).Info("account created")
	return created.Info(), nil
}

func (m *Manager) createAccount(tx *gorm.DB, c *AccountCreation) (*User, error) {
	email := NormalizeEmail(c.Email)
	if email == "" {
		return nil, bizerror.ErrEmailRequired
	}
	if c.Password == "" {
		return nil, bizerror.ErrPasswordRequired
	}

	var count int
	if err := tx.Model(&User{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return nil, bizerror.StoreUnavailable(err)
	}
	if count > 0 {
		return nil, bizerror.ErrEmailExisted
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(c.Password), m.bcryptCost)
	if err != nil {
		return nil, &bizerror.ErrBadParam{Cause: err}
	}
	user := User{
		ID:           idgen.NextID(),
		Email:        email,
		Name:         c.Name,
		PasswordHash: string(hash),
		Active:       true,
		PositionID:   c.PositionID,
		CreateTime:   types.CurrentTimestamp(),
	}
	if err := tx.Create(&user).Error; err != nil {
		return nil, bizerror.StoreUnavailable(err)
	}
	return &user, nil
}

func (m *Manager) ChangePassword(ctx context.Context, uid types.ID, u *BasicAuthUpdating) error {
	db, err := persistence.Session(ctx, m.ds)
	if err != nil {
		return err
	}
	return db.Transaction(func(tx *gorm.DB) error {
		user := User{}
		if err := tx.Where("id = ?", uid).First(&user).Error; err != nil {
			if gorm.IsRecordNotFoundError(err) {
				return bizerror.ErrInvalidPassword
			}
			return bizerror.StoreUnavailable(err)
		}
		if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(u.OriginalSecret)) != nil {
			return bizerror.ErrInvalidPassword
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(u.NewSecret), m.bcryptCost)
		if err != nil {
			return &bizerror.ErrBadParam{Cause: err}
		}
		if err := tx.Model(&User{}).Where("id = ?", uid).Update("password_hash", string(hash)).Error; err != nil {
			return bizerror.StoreUnavailable(err)
		}
		return nil
	})
}

// SetActive enables or disables sign-in for an account. Sessions of a disabled account stop resolving at the next request.
func (m *Manager) SetActive(ctx context.Context, uid types.ID, active bool) error {
	db, err := persistence.Session(ctx, m.ds)
	if err != nil {
		return err
	}
	return db.Transaction(func(tx *gorm.DB) error {
		user := User{}
		if err := tx.Where("id = ?", uid).First(&user).Error; err != nil {
			if gorm.IsRecordNotFoundError(err) {
				return bizerror.ErrNotFound
			}
			return bizerror.StoreUnavailable(err)
		}
		if err := tx.Model(&User{}).Where("id = ?", uid).Update("active", active).Error; err != nil {
			return bizerror.StoreUnavailable(err)
		}
		return nil
	})
}

func (m *Manager) FindAccountByEmail(ctx context.Context, email string) (*AccountInfo, error) {
	db, err := persistence.Session(ctx, m.ds)
	if err != nil {
		return nil, err
	}
	user := User{}
	if err := db.Where("email = ?", NormalizeEmail(email)).First(&user).Error; err != nil {
		if gorm.IsRecordNotFoundError(err) {
			return nil, bizerror.ErrNotFound
		}
		return nil, bizerror.StoreUnavailable(err)
	}
	return user.Info(), nil
}
