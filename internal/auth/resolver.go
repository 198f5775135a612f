package auth

import (
	"context"
	"errors"

	"authgate/internal/users"
)

// Credentials is the input to an identity resolution attempt. Password logins
// fill Email+Password, federated logins fill ProviderToken.
type Credentials struct {
	Email         string
	Password      string
	ProviderToken string
}

// IdentityResolver turns credentials into a directory identity. The session
// issuer stays agnostic of which resolution strategy produced the user.
type IdentityResolver interface {
	Resolve(ctx context.Context, creds Credentials) (*users.User, error)
}

// PasswordResolver authenticates email+password pairs against the user
// directory. Read-only: it never creates or mutates records.
type PasswordResolver struct {
	directory users.Service
}

func NewPasswordResolver(directory users.Service) *PasswordResolver {
	return &PasswordResolver{
		directory: directory,
	}
}

func (r *PasswordResolver) Resolve(ctx context.Context, creds Credentials) (*users.User, error) {
	user, err := r.directory.FindByEmail(ctx, creds.Email)
	if err != nil {
		if errors.Is(err, users.ErrNotFound) {
			// Same signal as a wrong password.
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if !r.directory.VerifyPassword(user, creds.Password) {
		return nil, ErrInvalidCredentials
	}

	return user, nil
}
