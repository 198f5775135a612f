package auth

import (
	"context"

	"authgate/internal/tokens"
	"authgate/internal/users"
)

type Service interface {
	Register(ctx context.Context, req *RegisterRequest) (*users.User, error)
	Login(ctx context.Context, req *LoginRequest) (*users.User, *TokenPair, error)
	VerifyGoogleToken(ctx context.Context, providerToken string) (*users.User, *TokenPair, error)
	Refresh(ctx context.Context, refreshToken string) (string, error)
	CurrentUser(ctx context.Context, userID string) (*users.User, error)
}

type service struct {
	directory users.Service
	passwords IdentityResolver
	google    IdentityResolver
	issuer    *Issuer
	codec     *tokens.Codec
}

func NewService(directory users.Service, passwords, google IdentityResolver, issuer *Issuer, codec *tokens.Codec) Service {
	return &service{
		directory: directory,
		passwords: passwords,
		google:    google,
		issuer:    issuer,
		codec:     codec,
	}
}

func (s *service) Register(ctx context.Context, req *RegisterRequest) (*users.User, error) {
	return s.directory.Register(ctx, &users.CreateUserInput{
		Username:  req.Username,
		Email:     req.Email,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
	})
}

func (s *service) Login(ctx context.Context, req *LoginRequest) (*users.User, *TokenPair, error) {
	user, err := s.passwords.Resolve(ctx, Credentials{Email: req.Email, Password: req.Password})
	if err != nil {
		return nil, nil, err
	}

	pair, err := s.issuer.Issue(user)
	if err != nil {
		return nil, nil, err
	}

	return user, pair, nil
}

func (s *service) VerifyGoogleToken(ctx context.Context, providerToken string) (*users.User, *TokenPair, error) {
	user, err := s.google.Resolve(ctx, Credentials{ProviderToken: providerToken})
	if err != nil {
		return nil, nil, err
	}

	pair, err := s.issuer.Issue(user)
	if err != nil {
		return nil, nil, err
	}

	return user, pair, nil
}

// Refresh validates an inbound refresh token and mints a replacement access
// token. The refresh token is reused, not rotated: without a server-side
// token store, rotation would leave the old refresh token valid anyway, so
// the simpler policy holds until expiry forces a full re-login.
func (s *service) Refresh(ctx context.Context, refreshToken string) (string, error) {
	if refreshToken == "" {
		return "", ErrMissingToken
	}

	claims, err := s.codec.Decode(refreshToken, tokens.KindRefresh)
	if err != nil {
		return "", err
	}

	user, err := s.directory.FindByID(ctx, claims.UserID)
	if err != nil {
		return "", err
	}

	return s.issuer.AccessToken(user)
}

func (s *service) CurrentUser(ctx context.Context, userID string) (*users.User, error) {
	return s.directory.FindByID(ctx, userID)
}
