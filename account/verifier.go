package account

import (
	"commandr/bizerror"
	"commandr/persistence"
	"context"
	"strings"

	"github.com/fundwit/go-commons/types"
	"github.com/jinzhu/gorm"
	"golang.org/x/crypto/bcrypt"
)

// Verifier checks sign-in credentials. It never writes to the store.
type Verifier struct {
	ds        persistence.DataSource
	dummyHash []byte
}

func NewVerifier(ds persistence.DataSource, bcryptCost int) (*Verifier, error) {
	// compared against when the email is unknown, so both paths spend one bcrypt comparison
	dummy, err := bcrypt.GenerateFromPassword([]byte("commandr:unknown-account"), bcryptCost)
	if err != nil {
		return nil, err
	}
	return &Verifier{ds: ds, dummyHash: dummy}, nil
}

// Verify returns the id of the account matching email and password.
// An unknown email and a wrong password both yield ErrInvalidCredentials.
func (v *Verifier) Verify(ctx context.Context, email, password string) (types.ID, error) {
	email = NormalizeEmail(email)
	if email == "" {
		return 0, bizerror.ErrEmailRequired
	}
	if strings.TrimSpace(password) == "" {
		return 0, bizerror.ErrPasswordRequired
	}

	db, err := persistence.Session(ctx, v.ds)
	if err != nil {
		return 0, err
	}
	user := User{}
	err = db.Where("email = ?", email).First(&user).Error
	found := err == nil
	if err != nil && !gorm.IsRecordNotFoundError(err) {
		return 0, bizerror.StoreUnavailable(err)
	}

	hash := v.dummyHash
	if found {
		hash = []byte(user.PasswordHash)
	}
	matched := bcrypt.CompareHashAndPassword(hash, []byte(password)) == nil
	if !found || !matched {
		return 0, bizerror.ErrInvalidCredentials
	}
	if !user.Active {
		return 0, bizerror.ErrAccountInactive
	}
	return user.ID, nil
}
