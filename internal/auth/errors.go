package auth

import "errors"

var (
	// ErrInvalidCredentials covers both unknown email and wrong password so
	// responses cannot be used to enumerate accounts.
	ErrInvalidCredentials = errors.New("invalid credentials")

	ErrMissingToken = errors.New("refresh token missing")

	// ErrFederatedVerificationFailed covers provider rejection, missing email
	// claim and transport faults alike; callers see one failure.
	ErrFederatedVerificationFailed = errors.New("federated token verification failed")
)
