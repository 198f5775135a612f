package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v4"

	"authgate/internal/tokens"
	"authgate/internal/users"
)

const tokenIssuer = "authgate"

// TokenPair is the result of one successful authentication event: two
// independent signed tokens for the same subject with different lifetimes.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
}

// Issuer is the single place token lifetimes and claim shape are decided.
// Pure function of identity, clock and signing key; no stored state.
type Issuer struct {
	codec      *tokens.Codec
	accessTTL  time.Duration
	refreshTTL time.Duration
}

func NewIssuer(codec *tokens.Codec, accessTTL, refreshTTL time.Duration) *Issuer {
	return &Issuer{
		codec:      codec,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
	}
}

// Issue mints an access+refresh pair. Both claim sets share one issuance
// instant so the refresh token always outlives its access token.
func (i *Issuer) Issue(user *users.User) (*TokenPair, error) {
	now := time.Now().UTC()

	accessToken, err := i.codec.Encode(i.claims(user, tokens.KindAccess, now, i.accessTTL))
	if err != nil {
		return nil, err
	}

	refreshToken, err := i.codec.Encode(i.claims(user, tokens.KindRefresh, now, i.refreshTTL))
	if err != nil {
		return nil, err
	}

	return &TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int64(i.accessTTL.Seconds()),
	}, nil
}

// AccessToken mints a lone access token, used by the refresh flow.
func (i *Issuer) AccessToken(user *users.User) (string, error) {
	now := time.Now().UTC()
	return i.codec.Encode(i.claims(user, tokens.KindAccess, now, i.accessTTL))
}

func (i *Issuer) claims(user *users.User, kind tokens.Kind, now time.Time, ttl time.Duration) *tokens.Claims {
	return &tokens.Claims{
		UserID: user.ID.String(),
		Kind:   kind,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID.String(),
			Issuer:    tokenIssuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
}
