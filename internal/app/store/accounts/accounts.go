// Package accounts creates a principal together with its credential.
package accounts

import (
	"context"
	"errors"
	"strings"

	credentialstore "github.com/dalemusser/traineehub/internal/app/store/credentials"
	userstore "github.com/dalemusser/traineehub/internal/app/store/users"
	"github.com/dalemusser/traineehub/internal/domain/models"
	"go.mongodb.org/mongo-driver/mongo"
)

// MinPasswordLength applies to passwords set by an admin.
const MinPasswordLength = 8

var ErrPasswordTooShort = errors.New("password must be at least 8 characters")

// Input describes a new principal. An empty Password creates a Google
// credential for Email instead of a password credential.
type Input struct {
	FullName string
	Email    string
	Role     string
	Password string
}

// Method returns the credential auth method Input will produce.
func (in Input) Method() string {
	if in.Password == "" {
		return models.AuthGoogle
	}
	return models.AuthPassword
}

type Creator struct {
	users *userstore.Store
	creds *credentialstore.Store
}

func New(db *mongo.Database) *Creator {
	return &Creator{users: userstore.New(db), creds: credentialstore.New(db)}
}

// WithCredentials swaps the credential store, e.g. for a low bcrypt cost in tests.
func (c *Creator) WithCredentials(s *credentialstore.Store) *Creator {
	c.creds = s
	return c
}

// Create inserts the principal and then its credential, with the email as
// login id. If the credential insert fails the principal is deleted again
// and the credential error is returned. Duplicate emails surface as
// userstore.ErrDuplicateEmail or credentialstore.ErrDuplicateLogin.
func (c *Creator) Create(ctx context.Context, in Input) (models.User, error) {
	if in.Password != "" && len(in.Password) < MinPasswordLength {
		return models.User{}, ErrPasswordTooShort
	}
	u, err := c.users.Create(ctx, models.User{
		FullName: strings.TrimSpace(in.FullName),
		Email:    in.Email,
		Role:     in.Role,
	})
	if err != nil {
		return models.User{}, err
	}
	if _, err := c.creds.Create(ctx, u.ID, u.Email, in.Method(), in.Password); err != nil {
		if _, delErr := c.users.Delete(ctx, u.ID); delErr != nil {
			return models.User{}, errors.Join(err, delErr)
		}
		return models.User{}, err
	}
	return u, nil
}
