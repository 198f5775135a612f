package tokens

import (
	"errors"

	"github.com/golang-jwt/jwt/v4"
)

var (
	ErrInvalidSignature = errors.New("token signature is invalid")
	ErrExpired          = errors.New("token has expired")
	ErrMalformed        = errors.New("token is malformed")
	ErrUnexpectedKind   = errors.New("unexpected token kind")
)

// Kind distinguishes the two token lifetimes. It is carried as an explicit
// claim so an access token can never be replayed through the refresh path.
type Kind string

const (
	KindAccess  Kind = "access"
	KindRefresh Kind = "refresh"
)

// Claims is the payload embedded in every signed token. Timestamps are UTC
// epoch seconds with no leeway window.
type Claims struct {
	UserID string `json:"user_id"`
	Kind   Kind   `json:"token_kind"`
	jwt.RegisteredClaims
}

// Codec signs and verifies tokens with a single symmetric key. The key is
// injected at construction, never read from ambient state.
type Codec struct {
	secret []byte
}

func NewCodec(secret string) *Codec {
	return &Codec{secret: []byte(secret)}
}

// Encode signs the claims with HS256.
func (c *Codec) Encode(claims *Claims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(c.secret)
}

// Decode verifies the token and returns its claims. Signature failures win
// over expiry, expiry wins over everything else except an unparsable string,
// and a valid token of the wrong kind is rejected with ErrUnexpectedKind.
func (c *Codec) Decode(tokenString string, expect Kind) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidSignature
		}
		return c.secret, nil
	})
	if err != nil {
		return nil, mapValidationError(err)
	}
	if !token.Valid {
		return nil, ErrInvalidSignature
	}
	if claims.Kind != expect {
		return nil, ErrUnexpectedKind
	}
	return claims, nil
}

// mapValidationError collapses jwt's bitmask errors into the codec's
// sentinels. Signature checks take precedence over expiry so a tampered
// token is never reported as merely expired.
func mapValidationError(err error) error {
	var vErr *jwt.ValidationError
	if !errors.As(err, &vErr) {
		return ErrMalformed
	}
	switch {
	case vErr.Errors&(jwt.ValidationErrorSignatureInvalid|jwt.ValidationErrorUnverifiable) != 0:
		return ErrInvalidSignature
	case vErr.Errors&jwt.ValidationErrorExpired != 0:
		return ErrExpired
	case vErr.Errors&jwt.ValidationErrorMalformed != 0:
		return ErrMalformed
	default:
		return ErrInvalidSignature
	}
}
